package usermock

import (
	"context"

	domain "loanflow-backend/internal/domain/user"
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	GetByUserIDFn func(ctx context.Context, userID string) (*domain.User, error)
	ListFn        func(ctx context.Context) ([]domain.User, error)
}

func (m *Repo) GetByUserID(ctx context.Context, userID string) (*domain.User, error) {
	if m.GetByUserIDFn != nil {
		return m.GetByUserIDFn(ctx, userID)
	}
	return nil, domain.ErrNotFound
}

func (m *Repo) List(ctx context.Context) ([]domain.User, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx)
	}
	return nil, nil
}

// Static serves GetByUserID and List from a fixed slice.
func Static(users ...domain.User) *Repo {
	return &Repo{
		GetByUserIDFn: func(_ context.Context, userID string) (*domain.User, error) {
			for i := range users {
				if users[i].UserID == userID {
					u := users[i]
					return &u, nil
				}
			}
			return nil, domain.ErrNotFound
		},
		ListFn: func(context.Context) ([]domain.User, error) {
			return append([]domain.User(nil), users...), nil
		},
	}
}
