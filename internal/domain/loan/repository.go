package loan

import "context"

// Filter narrows ListByStatus. Empty fields match everything.
type Filter struct {
	Statuses      []Status
	PaymentStatus PaymentStatus
}

type Repository interface {
	// Create inserts the loan and fills its numeric ID.
	Create(ctx context.Context, l *Loan) error
	GetByLoanID(ctx context.Context, loanID string) (*Loan, error)
	// GetByLoanIDForUpdate locks the row for the rest of the transaction.
	GetByLoanIDForUpdate(ctx context.Context, loanID string) (*Loan, error)
	// Save writes every field when the stored version still matches l.Version,
	// then bumps l.Version. A stale version yields ErrConcurrentUpdate.
	Save(ctx context.Context, l *Loan) error
	List(ctx context.Context, f Filter) ([]Loan, error)
}
