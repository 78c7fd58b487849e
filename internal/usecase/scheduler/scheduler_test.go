package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"loanflow-backend/internal/domain/loan"
	"loanflow-backend/internal/domain/schedule"
	"loanflow-backend/internal/testutil/transitionmock"
	"loanflow-backend/pkg/clock"

	logtest "github.com/sirupsen/logrus/hooks/test"
)

var start = time.Date(2025, 9, 6, 10, 0, 0, 0, time.UTC)

type recorder struct {
	mu    sync.Mutex
	fired []string
	errs  []error
}

func (r *recorder) handle(_ context.Context, rec schedule.PendingTransition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fired = append(r.fired, rec.LoanID)
	if len(r.errs) == 0 {
		return nil
	}
	err := r.errs[0]
	r.errs = r.errs[1:]
	return err
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.fired)
}

func rec(id, loanID string, fireAt time.Time) schedule.PendingTransition {
	return schedule.PendingTransition{
		ID: id, LoanID: loanID, Kind: schedule.KindAutoDecision,
		ExpectedStatus: loan.StatusValidating, FireAt: fireAt,
	}
}

func setup(t *testing.T, recs ...schedule.PendingTransition) (*Scheduler, *clock.Fake, *transitionmock.Repo, *recorder) {
	t.Helper()
	clk := clock.NewFake(start)
	repo := transitionmock.New(recs...)
	log, _ := logtest.NewNullLogger()
	s := New(repo, clk, log, WithRetryDelay(10*time.Second))
	r := &recorder{}
	s.Register(schedule.KindAutoDecision, r.handle)
	t.Cleanup(s.Stop)
	return s, clk, repo, r
}

func TestArm_FiresAtFireAtAndDeletesRecord(t *testing.T) {
	r0 := rec("t1", "L1", start.Add(5*time.Minute))
	s, clk, repo, r := setup(t, r0)
	s.Arm(r0)

	clk.Advance(4 * time.Minute)
	if r.count() != 0 {
		t.Fatal("fired early")
	}
	clk.Advance(time.Minute)
	if r.count() != 1 {
		t.Fatalf("fired %d times, want 1", r.count())
	}
	if repo.Len() != 0 || s.armed() != 0 {
		t.Fatalf("record or timer left behind: records=%d armed=%d", repo.Len(), s.armed())
	}
}

func TestFire_WrongStateIsNoOp(t *testing.T) {
	for _, err := range []error{loan.ErrInvalidTransition, loan.ErrNotFound} {
		r0 := rec("t1", "L1", start.Add(time.Minute))
		s, clk, repo, r := setup(t, r0)
		r.errs = []error{err}
		s.Arm(r0)

		clk.Advance(time.Minute)
		clk.Advance(time.Hour)
		if r.count() != 1 || repo.Len() != 0 {
			t.Fatalf("%v: fired=%d records=%d", err, r.count(), repo.Len())
		}
	}
}

func TestFire_StoreFailureRetries(t *testing.T) {
	r0 := rec("t1", "L1", start.Add(time.Minute))
	s, clk, repo, r := setup(t, r0)
	r.errs = []error{loan.StoreError(errors.New("deadlock"))}
	s.Arm(r0)

	clk.Advance(time.Minute)
	if r.count() != 1 || repo.Len() != 1 || s.armed() != 1 {
		t.Fatalf("after failure: fired=%d records=%d armed=%d", r.count(), repo.Len(), s.armed())
	}
	clk.Advance(10 * time.Second)
	if r.count() != 2 || repo.Len() != 0 {
		t.Fatalf("after retry: fired=%d records=%d", r.count(), repo.Len())
	}
}

func TestFire_DeleteFailureRetries(t *testing.T) {
	r0 := rec("t1", "L1", start.Add(time.Minute))
	s, clk, repo, r := setup(t, r0)
	repo.DeleteErr = errors.New("db down")
	s.Arm(r0)

	clk.Advance(time.Minute)
	if repo.Len() != 1 || s.armed() != 1 {
		t.Fatalf("record must stay armed: records=%d armed=%d", repo.Len(), s.armed())
	}
	repo.DeleteErr = nil
	clk.Advance(10 * time.Second)
	if r.count() != 2 || repo.Len() != 0 {
		t.Fatalf("fired=%d records=%d", r.count(), repo.Len())
	}
}

func TestDisarm(t *testing.T) {
	s, clk, _, r := setup(t)
	s.Arm(rec("t1", "L1", start.Add(time.Minute)))
	s.Arm(rec("t2", "L2", start.Add(time.Minute)))

	if n := s.Disarm("L1"); n != 1 {
		t.Fatalf("disarmed %d, want 1", n)
	}
	clk.Advance(time.Hour)
	if r.count() != 1 || r.fired[0] != "L2" {
		t.Fatalf("fired = %v, want [L2]", r.fired)
	}
}

func TestArm_ReplacesSameID(t *testing.T) {
	s, clk, _, r := setup(t)
	s.Arm(rec("t1", "L1", start.Add(time.Minute)))
	s.Arm(rec("t1", "L1", start.Add(time.Hour)))

	clk.Advance(30 * time.Minute)
	if r.count() != 0 {
		t.Fatal("replaced timer fired")
	}
	clk.Advance(30 * time.Minute)
	if r.count() != 1 {
		t.Fatalf("fired %d, want 1", r.count())
	}
}

func TestRecover_FiresOverdueAndArmsRest(t *testing.T) {
	overdue := rec("t1", "L1", start.Add(-time.Hour))
	future := rec("t2", "L2", start.Add(time.Hour))
	s, clk, repo, r := setup(t, overdue, future)

	n, err := s.Recover(context.Background())
	if err != nil || n != 2 {
		t.Fatalf("Recover: n=%d err=%v", n, err)
	}
	if r.count() != 1 || r.fired[0] != "L1" {
		t.Fatalf("overdue not fired immediately: %v", r.fired)
	}
	if s.armed() != 1 || repo.Len() != 1 {
		t.Fatalf("armed=%d records=%d", s.armed(), repo.Len())
	}
	clk.Advance(time.Hour)
	if r.count() != 2 || repo.Len() != 0 {
		t.Fatalf("fired=%d records=%d", r.count(), repo.Len())
	}
}

func TestFire_UnknownKindKeepsRecord(t *testing.T) {
	clk := clock.NewFake(start)
	r0 := schedule.PendingTransition{ID: "t1", LoanID: "L1", Kind: "mystery", FireAt: start}
	repo := transitionmock.New(r0)
	log, hook := logtest.NewNullLogger()
	s := New(repo, clk, log)
	defer s.Stop()

	s.Arm(r0)
	if repo.Len() != 1 {
		t.Fatal("record without handler must be kept")
	}
	if hook.LastEntry() == nil || hook.LastEntry().Message != "scheduler: no handler registered" {
		t.Fatalf("unexpected log: %+v", hook.LastEntry())
	}
}

func TestStop_PreventsFurtherFires(t *testing.T) {
	clk := clock.NewFake(start)
	log, _ := logtest.NewNullLogger()
	s := New(transitionmock.New(), clk, log)
	r := &recorder{}
	s.Register(schedule.KindAutoDecision, r.handle)

	s.Arm(rec("t1", "L1", start.Add(time.Minute)))
	s.Stop()
	s.Arm(rec("t2", "L2", start.Add(time.Minute)))

	clk.Advance(time.Hour)
	if r.count() != 0 || s.armed() != 0 {
		t.Fatalf("fired=%d armed=%d after Stop", r.count(), s.armed())
	}
}

func TestReal_ClockFiresHandler(t *testing.T) {
	log, _ := logtest.NewNullLogger()
	s := New(transitionmock.New(), clock.Real{}, log)
	done := make(chan struct{})
	s.Register(schedule.KindAutoDecision, func(context.Context, schedule.PendingTransition) error {
		close(done)
		return nil
	})
	s.Arm(rec("t1", "L1", time.Now().Add(10*time.Millisecond)))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("handler did not run")
	}
	s.Stop()
}
