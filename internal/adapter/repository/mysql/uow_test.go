package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	loanDomain "loanflow-backend/internal/domain/loan"
	reviewDomain "loanflow-backend/internal/domain/review"
	"loanflow-backend/internal/domain/schedule"
	"loanflow-backend/internal/domain/uow"
	"loanflow-backend/pkg/id"
)

func makeReview(loanNumericID uint64, decision reviewDomain.Decision, reviewedAt time.Time) *reviewDomain.PaymentReview {
	return &reviewDomain.PaymentReview{
		ReviewID:   id.NewID32(),
		LoanID:     loanNumericID,
		PaymentID:  "pay-1",
		Decision:   decision,
		ReviewerID: "ffffffffffffffffffffffffffffffff",
		ReviewedAt: reviewedAt.UTC(),
	}
}

func TestGormUoW_WithinTx(t *testing.T) {
	for _, fail := range []bool{false, true} {
		name := map[bool]string{false: "commit", true: "rollback"}[fail]
		t.Run(name, func(t *testing.T) {
			db := openTestDB(t)
			ctx := context.Background()
			loanID := id.NewID32()

			err := NewGormUoW(db).WithinTx(ctx, func(r uow.Repos) error {
				l := makeLoan(loanID, id.NewID32())
				if err := r.Loans.Create(ctx, l); err != nil {
					return err
				}
				if err := r.Transitions.Create(ctx, &schedule.PendingTransition{
					ID: "tr-" + name, LoanID: l.LoanID, Kind: schedule.KindAutoDecision,
					ExpectedStatus: loanDomain.StatusValidating, FireAt: time.Now().UTC(),
				}); err != nil {
					return err
				}
				if fail {
					return errors.New("boom")
				}
				return nil
			})
			if fail != (err != nil) {
				t.Fatalf("WithinTx err = %v", err)
			}

			_, getErr := NewLoanRepository(db).GetByLoanID(ctx, loanID)
			recs, _ := NewTransitionRepository(db).ListAll(ctx)
			if fail {
				if !errors.Is(getErr, loanDomain.ErrNotFound) || len(recs) != 0 {
					t.Fatalf("rollback leaked: loanErr=%v transitions=%d", getErr, len(recs))
				}
				return
			}
			if getErr != nil || len(recs) != 1 {
				t.Fatalf("commit not visible: loanErr=%v transitions=%d", getErr, len(recs))
			}
		})
	}
}

func TestGormUoW_WithinLoanTx(t *testing.T) {
	tests := []struct {
		name       string
		fnErr      error
		wantStatus loanDomain.Status
		wantVer    int64
		wantRevs   int
	}{
		{"commit", nil, loanDomain.StatusProcessing, 1, 1},
		{"rollback", errors.New("stop"), loanDomain.StatusPaymentValidation, 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db := openTestDB(t)
			ctx := context.Background()
			loans := NewLoanRepository(db)

			seed := makeLoan(id.NewID32(), id.NewID32())
			seed.Status = loanDomain.StatusPaymentValidation
			if err := loans.Create(ctx, seed); err != nil {
				t.Fatalf("seed loan: %v", err)
			}

			err := NewGormUoW(db).WithinLoanTx(ctx, seed.LoanID, func(r uow.Repos, l *loanDomain.Loan) error {
				if l.LoanID != seed.LoanID || l.Status != loanDomain.StatusPaymentValidation {
					t.Fatalf("unexpected loan passed to fn: %+v", l)
				}
				if err := r.Reviews.Create(ctx, makeReview(l.ID, reviewDomain.DecisionApproved, time.Now())); err != nil {
					return err
				}
				l.Status = loanDomain.StatusProcessing
				if err := r.Loans.Save(ctx, l); err != nil {
					return err
				}
				return tt.fnErr
			})
			if !errors.Is(err, tt.fnErr) {
				t.Fatalf("WithinLoanTx err = %v, want %v", err, tt.fnErr)
			}

			got, err := loans.GetByLoanID(ctx, seed.LoanID)
			if err != nil {
				t.Fatalf("GetByLoanID: %v", err)
			}
			if got.Status != tt.wantStatus || got.Version != tt.wantVer {
				t.Fatalf("loan = %s v%d, want %s v%d", got.Status, got.Version, tt.wantStatus, tt.wantVer)
			}
			if revs, _ := NewReviewRepository(db).ListByLoanID(ctx, seed.ID); len(revs) != tt.wantRevs {
				t.Fatalf("reviews = %d, want %d", len(revs), tt.wantRevs)
			}
		})
	}
}

func TestGormUoW_WithinLoanTx_LoanNotFound(t *testing.T) {
	err := NewGormUoW(openTestDB(t)).WithinLoanTx(context.Background(), "LN-NOPE", func(uow.Repos, *loanDomain.Loan) error {
		t.Fatalf("callback should not be called when loan missing")
		return nil
	})
	if !errors.Is(err, loanDomain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
