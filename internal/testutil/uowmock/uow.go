package uowmock

import (
	"context"
	"errors"

	"loanflow-backend/internal/domain/loan"
	"loanflow-backend/internal/domain/uow"
)

var _ uow.UnitOfWork = (*UoW)(nil)

var errUnimplemented = errors.New("uowmock: method not implemented")

type (
	txFunc     func(ctx context.Context, fn func(r uow.Repos) error) error
	loanTxFunc func(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error
)

// UoW satisfies uow.UnitOfWork with swappable funcs. A nil func returns
// errUnimplemented so a test notices an unexpected transaction.
type UoW struct {
	WithinTxFn     txFunc
	WithinLoanTxFn loanTxFunc
}

func New() *UoW { return &UoW{} }

func (m *UoW) WithWithinTx(fn txFunc) *UoW         { m.WithinTxFn = fn; return m }
func (m *UoW) WithWithinLoanTx(fn loanTxFunc) *UoW { m.WithinLoanTxFn = fn; return m }
func (m *UoW) Reset()                              { *m = UoW{} }

// Bound runs every transaction directly against r. WithinLoanTx loads the
// loan through r.Loans.GetByLoanIDForUpdate first, like the gorm UoW.
func Bound(r uow.Repos) *UoW {
	return &UoW{
		WithinTxFn: func(_ context.Context, fn func(uow.Repos) error) error {
			return fn(r)
		},
		WithinLoanTxFn: func(ctx context.Context, loanID string, fn func(uow.Repos, *loan.Loan) error) error {
			l, err := r.Loans.GetByLoanIDForUpdate(ctx, loanID)
			if err != nil {
				return err
			}
			return fn(r, l)
		},
	}
}

func (m *UoW) WithinTx(ctx context.Context, fn func(r uow.Repos) error) error {
	if m.WithinTxFn == nil {
		return errUnimplemented
	}
	return m.WithinTxFn(ctx, fn)
}

func (m *UoW) WithinLoanTx(ctx context.Context, loanID string, fn func(r uow.Repos, l *loan.Loan) error) error {
	if m.WithinLoanTxFn == nil {
		return errUnimplemented
	}
	return m.WithinLoanTxFn(ctx, loanID, fn)
}
