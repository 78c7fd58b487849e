package reviewmock

import (
	"context"

	domain "loanflow-backend/internal/domain/review"
)

// Repo is a function-backed mock that satisfies domain.Repository.
type Repo struct {
	CreateFn       func(ctx context.Context, r *domain.PaymentReview) error
	ListByLoanIDFn func(ctx context.Context, loanNumericID uint64) ([]domain.PaymentReview, error)
}

func (m *Repo) Create(ctx context.Context, r *domain.PaymentReview) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, r)
	}
	return nil
}

func (m *Repo) ListByLoanID(ctx context.Context, loanNumericID uint64) ([]domain.PaymentReview, error) {
	if m.ListByLoanIDFn != nil {
		return m.ListByLoanIDFn(ctx, loanNumericID)
	}
	return nil, context.Canceled
}
