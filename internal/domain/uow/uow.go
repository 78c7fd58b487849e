package uow

import (
	"context"

	"loanflow-backend/internal/domain/charges"
	"loanflow-backend/internal/domain/loan"
	"loanflow-backend/internal/domain/review"
	"loanflow-backend/internal/domain/schedule"
)

// Repos are bound to the running transaction.
type Repos struct {
	Loans       loan.Repository
	Reviews     review.Repository
	Transitions schedule.Repository
	Charges     charges.Repository
}

type UnitOfWork interface {
	// plain tx
	WithinTx(ctx context.Context, fn func(r Repos) error) error
	// lock loan first, then pass it in
	WithinLoanTx(ctx context.Context, loanID string, fn func(r Repos, l *loan.Loan) error) error
}
