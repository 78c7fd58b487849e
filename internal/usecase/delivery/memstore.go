package delivery

import (
	"context"
	"sync"
	"time"

	"loanflow-backend/internal/domain/notification"
)

// MemoryStore is a process-local send-record store. Each instance is isolated.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]notification.Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]notification.Record)}
}

func (s *MemoryStore) Get(_ context.Context, id string) (notification.Record, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	return rec, ok, nil
}

func (s *MemoryStore) Put(_ context.Context, id string, rec notification.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[id] = rec
	return nil
}

func (s *MemoryStore) Claim(_ context.Context, id string, claim notification.Record, window, lease time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.records[id]; ok && cur.Blocks(claim.Version, claim.LastAttemptAt, window, lease) {
		return false, nil
	}
	s.records[id] = claim
	return true, nil
}

func (s *MemoryStore) Release(_ context.Context, id string, claim notification.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.records[id]; ok && sameClaim(cur, claim) {
		delete(s.records, id)
	}
	return nil
}

func sameClaim(a, b notification.Record) bool {
	return a.Pending && b.Pending && a.Version == b.Version && a.LastAttemptAt.Equal(b.LastAttemptAt)
}

// Prune drops records whose last attempt is older than idleBefore.
func (s *MemoryStore) Prune(_ context.Context, idleBefore time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for id, rec := range s.records {
		if rec.LastAttemptAt.Before(idleBefore) {
			delete(s.records, id)
			n++
		}
	}
	return n, nil
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
