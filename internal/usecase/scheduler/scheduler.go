package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"loanflow-backend/internal/domain/loan"
	"loanflow-backend/internal/domain/schedule"
	"loanflow-backend/pkg/clock"

	"github.com/sirupsen/logrus"
)

// DefaultRetryDelay is how long a record waits before firing again after its
// handler failed.
const DefaultRetryDelay = 30 * time.Second

// Handler applies one delayed transition. Returning an error that matches
// loan.ErrInvalidTransition or loan.ErrNotFound means there is nothing left
// to do; any other error keeps the record for a retry.
type Handler func(ctx context.Context, rec schedule.PendingTransition) error

type entry struct {
	rec       schedule.PendingTransition
	timer     clock.Timer
	cancelled bool
}

// Scheduler fires persisted pending transitions at their FireAt time.
type Scheduler struct {
	repo       schedule.Repository
	clock      clock.Clock
	log        *logrus.Logger
	retryDelay time.Duration

	mu       sync.Mutex
	handlers map[schedule.Kind]Handler
	entries  map[string]*entry
	stopped  bool

	ctx    context.Context
	cancel context.CancelFunc
	// wg counts armed entries whose timer has not been stopped.
	wg sync.WaitGroup
}

type Option func(*Scheduler)

func WithRetryDelay(d time.Duration) Option {
	return func(s *Scheduler) { s.retryDelay = d }
}

func New(repo schedule.Repository, clk clock.Clock, log *logrus.Logger, opts ...Option) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{
		repo:       repo,
		clock:      clk,
		log:        log,
		retryDelay: DefaultRetryDelay,
		handlers:   make(map[schedule.Kind]Handler),
		entries:    make(map[string]*entry),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Scheduler) Register(kind schedule.Kind, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[kind] = h
}

// Arm schedules rec at rec.FireAt. Overdue records fire immediately.
// Re-arming the same ID replaces the previous timer.
func (s *Scheduler) Arm(rec schedule.PendingTransition) {
	s.arm(rec, rec.FireAt.Sub(s.clock.Now()))
}

func (s *Scheduler) arm(rec schedule.PendingTransition, d time.Duration) {
	e := &entry{rec: rec}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	if old, ok := s.entries[rec.ID]; ok {
		s.cancelLocked(old)
	}
	s.entries[rec.ID] = e
	s.wg.Add(1)
	s.mu.Unlock()

	t := s.clock.AfterFunc(d, func() { s.fire(e) })

	s.mu.Lock()
	e.timer = t
	if e.cancelled && t.Stop() {
		s.wg.Done()
	}
	s.mu.Unlock()
}

// Disarm stops every armed timer of loanID. Stored records are left to the
// caller.
func (s *Scheduler) Disarm(loanID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, e := range s.entries {
		if e.rec.LoanID == loanID {
			s.cancelLocked(e)
			delete(s.entries, id)
			n++
		}
	}
	return n
}

func (s *Scheduler) cancelLocked(e *entry) {
	e.cancelled = true
	if e.timer != nil && e.timer.Stop() {
		s.wg.Done()
	}
}

// Recover arms every stored record. Run it once at startup, after the
// handlers are registered.
func (s *Scheduler) Recover(ctx context.Context) (int, error) {
	recs, err := s.repo.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list pending transitions: %w", err)
	}
	now := s.clock.Now()
	overdue := 0
	for _, rec := range recs {
		if !rec.FireAt.After(now) {
			overdue++
		}
		s.Arm(rec)
	}
	s.log.WithFields(logrus.Fields{"armed": len(recs), "overdue": overdue}).Info("scheduler: recovered pending transitions")
	return len(recs), nil
}

func (s *Scheduler) fire(e *entry) {
	defer s.wg.Done()

	s.mu.Lock()
	if e.cancelled || s.entries[e.rec.ID] != e {
		s.mu.Unlock()
		return
	}
	delete(s.entries, e.rec.ID)
	h, ok := s.handlers[e.rec.Kind]
	s.mu.Unlock()

	fields := logrus.Fields{"loan_id": e.rec.LoanID, "kind": e.rec.Kind, "transition_id": e.rec.ID}
	if !ok {
		s.log.WithFields(fields).Error("scheduler: no handler registered")
		return
	}

	err := h(s.ctx, e.rec)
	switch {
	case err == nil:
	case errors.Is(err, loan.ErrInvalidTransition), errors.Is(err, loan.ErrNotFound):
		s.log.WithFields(fields).WithError(err).Info("scheduler: transition no longer applies")
	case s.ctx.Err() != nil:
		// shutting down; the stored record is picked up by Recover
		return
	default:
		s.log.WithFields(fields).WithError(err).Warn("scheduler: handler failed, retrying")
		s.arm(e.rec, s.retryDelay)
		return
	}

	if err := s.repo.Delete(s.ctx, e.rec.ID); err != nil {
		s.log.WithFields(fields).WithError(err).Warn("scheduler: delete pending transition failed, retrying")
		s.arm(e.rec, s.retryDelay)
	}
}

// Stop disarms every timer, cancels running handlers and waits for them.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	s.stopped = true
	for id, e := range s.entries {
		s.cancelLocked(e)
		delete(s.entries, id)
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}
