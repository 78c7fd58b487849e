package delivery

import (
	"context"
	"time"

	"loanflow-backend/internal/domain/notification"
)

// Batch paces the external attempts of one sweep run. Attempts that are
// skipped by dedup never wait.
type Batch struct {
	t         *Tracker
	called    bool
	last      time.Time
	throttled bool
}

func (t *Tracker) NewBatch() *Batch { return &Batch{t: t} }

func (b *Batch) Attempt(ctx context.Context, key notification.Key, send SendFunc) (Result, error) {
	return b.t.attempt(ctx, key, send, b)
}

func (b *Batch) beforeCall(ctx context.Context) error {
	if !b.called {
		return nil
	}
	gap := b.t.policy.Spacing
	if b.throttled {
		gap = b.t.policy.RateLimitPause
	}
	if wait := gap - b.t.clock.Now().Sub(b.last); wait > 0 {
		return b.t.clock.Sleep(ctx, wait)
	}
	return nil
}

func (b *Batch) afterAttempt(res Result) {
	b.called = true
	b.last = b.t.clock.Now()
	b.throttled = res.Throttled
}
