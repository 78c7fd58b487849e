package delivery

import (
	"context"
	"fmt"
	"time"

	"loanflow-backend/internal/domain/notification"
	"loanflow-backend/pkg/clock"

	"github.com/sirupsen/logrus"
)

type Status int

const (
	Sent Status = iota
	Skipped
	Exhausted
)

func (s Status) String() string {
	switch s {
	case Sent:
		return "sent"
	case Skipped:
		return "skipped"
	case Exhausted:
		return "exhausted"
	}
	return fmt.Sprintf("status(%d)", int(s))
}

type Reason string

const (
	ReasonAlreadySent Reason = "already_sent"
	ReasonFailed      Reason = "failed"
)

type Result struct {
	Status Status
	// Reason is set for Skipped only.
	Reason Reason
	// Outcome of the last gateway call; meaningless when Calls is 0.
	Outcome notification.Outcome
	Calls   int
	// Throttled reports that at least one call came back RateLimited.
	Throttled bool
}

// SendFunc performs exactly one gateway call.
type SendFunc func(ctx context.Context) notification.Outcome

// Attempter is satisfied by *Tracker and *Batch.
type Attempter interface {
	Attempt(ctx context.Context, key notification.Key, send SendFunc) (Result, error)
}

type Policy struct {
	// Window suppresses a resend of the same version.
	Window time.Duration
	// RetryBase is the first rate-limit backoff; each retry doubles it.
	RetryBase  time.Duration
	MaxRetries int
	// Spacing separates two external attempts in one batch.
	Spacing time.Duration
	// RateLimitPause is the batch-wide wait after a rate-limited attempt.
	RateLimitPause time.Duration
	// Timeout bounds a single gateway call.
	Timeout time.Duration
	// ClaimLease is how long an in-flight claim blocks other attempts. It
	// must outlast the pacing wait, every backoff and every call timeout.
	ClaimLease time.Duration
}

func DefaultPolicy() Policy {
	return Policy{
		Window:         24 * time.Hour,
		RetryBase:      30 * time.Second,
		MaxRetries:     3,
		Spacing:        2 * time.Second,
		RateLimitPause: 60 * time.Second,
		Timeout:        10 * time.Second,
		ClaimLease:     15 * time.Minute,
	}
}

// Tracker dedups sends per key and retries rate-limited ones with backoff.
type Tracker struct {
	store  notification.Store
	clock  clock.Clock
	policy Policy
	log    *logrus.Logger
}

func NewTracker(store notification.Store, clk clock.Clock, policy Policy, log *logrus.Logger) *Tracker {
	return &Tracker{store: store, clock: clk, policy: policy, log: log}
}

func (t *Tracker) Store() notification.Store { return t.store }

func (t *Tracker) Attempt(ctx context.Context, key notification.Key, send SendFunc) (Result, error) {
	return t.attempt(ctx, key, send, nil)
}

type pacer interface {
	beforeCall(ctx context.Context) error
	afterAttempt(res Result)
}

func (t *Tracker) attempt(ctx context.Context, key notification.Key, send SendFunc, p pacer) (Result, error) {
	id := key.RecordID()
	claim := notification.Record{Version: key.Version, LastAttemptAt: t.clock.Now(), Pending: true}
	won, err := t.store.Claim(ctx, id, claim, t.policy.Window, t.policy.ClaimLease)
	if err != nil {
		return Result{}, fmt.Errorf("claim send record %s: %w", id, err)
	}
	if !won {
		return Result{Status: Skipped, Reason: ReasonAlreadySent}, nil
	}

	if p != nil {
		if err := p.beforeCall(ctx); err != nil {
			t.release(ctx, id, claim)
			return Result{}, err
		}
	}
	res, err := t.run(ctx, key, send)
	if res.Status != Sent {
		t.release(ctx, id, claim)
	}
	if p != nil && res.Calls > 0 {
		p.afterAttempt(res)
	}
	return res, err
}

// release drops an unused claim so the next attempt may send. It runs even
// when ctx is already cancelled.
func (t *Tracker) release(ctx context.Context, id string, claim notification.Record) {
	if err := t.store.Release(context.WithoutCancel(ctx), id, claim); err != nil {
		t.log.WithError(err).WithField("record", id).Warn("delivery: release claim")
	}
}

func (t *Tracker) run(ctx context.Context, key notification.Key, send SendFunc) (Result, error) {
	var res Result
	backoff := t.policy.RetryBase
	for {
		out := t.call(ctx, send)
		res.Calls++
		res.Outcome = out

		switch out {
		case notification.Delivered:
			res.Status = Sent
			err := t.store.Put(ctx, key.RecordID(), notification.Record{
				Version:       key.Version,
				LastAttemptAt: t.clock.Now(),
			})
			if err != nil {
				return res, fmt.Errorf("store send record %s: %w", key.RecordID(), err)
			}
			return res, nil

		case notification.RateLimited:
			res.Throttled = true
			if res.Calls > t.policy.MaxRetries {
				res.Status = Exhausted
				t.log.WithFields(logrus.Fields{
					"subject": key.SubjectID, "kind": key.Kind, "channel": key.Channel, "calls": res.Calls,
				}).Warn("delivery: retries exhausted")
				return res, nil
			}
			if err := t.clock.Sleep(ctx, backoff); err != nil {
				res.Status = Exhausted
				return res, err
			}
			backoff *= 2

		default:
			res.Status = Skipped
			res.Reason = ReasonFailed
			return res, nil
		}
	}
}

func (t *Tracker) call(ctx context.Context, send SendFunc) notification.Outcome {
	cctx, cancel := context.WithTimeout(ctx, t.policy.Timeout)
	defer cancel()
	return send(cctx)
}
