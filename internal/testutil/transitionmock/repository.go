package transitionmock

import (
	"context"
	"sort"
	"sync"

	"loanflow-backend/internal/domain/schedule"
)

// Repo is an in-memory schedule.Repository with optional error hooks.
type Repo struct {
	mu      sync.Mutex
	records map[string]schedule.PendingTransition

	CreateErr error
	DeleteErr error
}

func New(recs ...schedule.PendingTransition) *Repo {
	r := &Repo{records: make(map[string]schedule.PendingTransition)}
	for _, rec := range recs {
		r.records[rec.ID] = rec
	}
	return r
}

func (r *Repo) Create(_ context.Context, t *schedule.PendingTransition) error {
	if r.CreateErr != nil {
		return r.CreateErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records[t.ID] = *t
	return nil
}

func (r *Repo) Delete(_ context.Context, id string) error {
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.records, id)
	return nil
}

func (r *Repo) DeleteByLoanID(_ context.Context, loanID string) error {
	if r.DeleteErr != nil {
		return r.DeleteErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, rec := range r.records {
		if rec.LoanID == loanID {
			delete(r.records, id)
		}
	}
	return nil
}

func (r *Repo) ListAll(_ context.Context) ([]schedule.PendingTransition, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]schedule.PendingTransition, 0, len(r.records))
	for _, rec := range r.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FireAt.Before(out[j].FireAt) })
	return out, nil
}

func (r *Repo) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}
