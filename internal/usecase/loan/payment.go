package loan

import (
	"context"
	"strings"
	"time"

	domain "loanflow-backend/internal/domain/loan"
	"loanflow-backend/internal/domain/notification"
	"loanflow-backend/internal/domain/review"
	"loanflow-backend/internal/domain/uow"
	"loanflow-backend/pkg/id"

	"github.com/google/uuid"
)

// SubmitPayment records the charges payment with a fresh payment id and the
// charges currently configured.
func (u *Usecase) SubmitPayment(ctx context.Context, loanID, applicantID string, in SubmitPaymentInput) (*LoanDTO, error) {
	now := u.clock.Now()
	l, err := u.mutate(ctx, loanID, applicantID, func(r uow.Repos, l *domain.Loan) error {
		cfg, err := r.Charges.GetCurrent(ctx)
		if err != nil {
			return err
		}
		return l.SubmitPayment(uuid.NewString(), strings.TrimSpace(in.Reference), toCharges(cfg), cfg.ProcessingDays, now)
	})
	if err != nil {
		return nil, err
	}
	u.log.WithFields(u.fields(l)).WithField("payment_id", l.PaymentID).Info("loan: payment submitted")
	return toDTO(l), nil
}

func (u *Usecase) ApprovePayment(ctx context.Context, loanID string, in ReviewInput) (*LoanDTO, error) {
	now := u.clock.Now()
	l, err := u.mutate(ctx, loanID, anyOwner, func(r uow.Repos, l *domain.Loan) error {
		if err := requireReviewer(in); err != nil {
			return err
		}
		cfg, err := r.Charges.GetCurrent(ctx)
		if err != nil {
			return err
		}
		if err := l.ApprovePayment(cfg.ProcessingDays, now); err != nil {
			return err
		}
		return r.Reviews.Create(ctx, newReview(l, review.DecisionApproved, in, now))
	})
	if err != nil {
		return nil, err
	}

	u.log.WithFields(u.fields(l)).WithField("reviewer_id", in.ReviewerID).Info("loan: payment approved")
	data := map[string]any{}
	if l.ExpectedCompletionAt != nil {
		data["expected_completion"] = l.ExpectedCompletionAt.Format("2006-01-02")
	}
	u.notify(l, notification.KindPaymentApproved, notification.ChannelEmail, data)
	return toDTO(l), nil
}

// RejectPayment fails the payment and sends exactly one failure email for
// this loan version.
func (u *Usecase) RejectPayment(ctx context.Context, loanID string, in ReviewInput) (*LoanDTO, error) {
	now := u.clock.Now()
	remark := strings.TrimSpace(in.Remark)
	l, err := u.mutate(ctx, loanID, anyOwner, func(r uow.Repos, l *domain.Loan) error {
		if err := requireReviewer(in); err != nil {
			return err
		}
		if err := l.RejectPayment(remark); err != nil {
			return err
		}
		in.Remark = remark
		return r.Reviews.Create(ctx, newReview(l, review.DecisionRejected, in, now))
	})
	if err != nil {
		return nil, err
	}

	u.log.WithFields(u.fields(l)).WithField("reviewer_id", in.ReviewerID).Info("loan: payment rejected")
	u.notify(l, notification.KindPaymentFailed, notification.ChannelEmail, map[string]any{
		"remarks": l.Remarks,
	})
	return toDTO(l), nil
}

func (u *Usecase) Complete(ctx context.Context, loanID string) (*LoanDTO, error) {
	now := u.clock.Now()
	l, err := u.mutate(ctx, loanID, anyOwner, func(_ uow.Repos, l *domain.Loan) error {
		return l.Complete(now)
	})
	if err != nil {
		return nil, err
	}
	u.log.WithFields(u.fields(l)).Info("loan: completed")
	u.notify(l, notification.KindLoanCompleted, notification.ChannelEmail, nil)
	return toDTO(l), nil
}

// Reject declines an application that has not reached the payment stage.
func (u *Usecase) Reject(ctx context.Context, loanID string, in ReviewInput) (*LoanDTO, error) {
	now := u.clock.Now()
	l, err := u.mutate(ctx, loanID, anyOwner, func(r uow.Repos, l *domain.Loan) error {
		if err := l.Reject(strings.TrimSpace(in.Remark), now); err != nil {
			return err
		}
		return r.Transitions.DeleteByLoanID(ctx, l.LoanID)
	})
	if err != nil {
		return nil, err
	}
	u.timer.Disarm(l.LoanID)
	u.log.WithFields(u.fields(l)).Info("loan: rejected")
	u.notify(l, notification.KindLoanRejected, notification.ChannelEmail, map[string]any{
		"remarks": l.Remarks,
	})
	return toDTO(l), nil
}

// Reviews lists the payment decisions taken on a loan.
func (u *Usecase) Reviews(ctx context.Context, loanID string) ([]ReviewDTO, error) {
	var out []ReviewDTO
	err := u.uow.WithinTx(ctx, func(r uow.Repos) error {
		l, err := r.Loans.GetByLoanID(ctx, loanID)
		if err != nil {
			return err
		}
		rows, err := r.Reviews.ListByLoanID(ctx, l.ID)
		if err != nil {
			return err
		}
		out = make([]ReviewDTO, 0, len(rows))
		for _, rv := range rows {
			out = append(out, ReviewDTO{
				ReviewID:   rv.ReviewID,
				LoanID:     l.LoanID,
				PaymentID:  rv.PaymentID,
				Decision:   rv.Decision,
				Remark:     rv.Remark,
				ReviewedAt: rv.ReviewedAt,
			})
		}
		return nil
	})
	if err != nil {
		return nil, domain.StoreError(err)
	}
	return out, nil
}

func requireReviewer(in ReviewInput) error {
	if strings.TrimSpace(in.ReviewerID) == "" {
		return domain.Invalid("reviewer id is required")
	}
	return nil
}

func newReview(l *domain.Loan, d review.Decision, in ReviewInput, now time.Time) *review.PaymentReview {
	return &review.PaymentReview{
		ReviewID:   id.NewID32(),
		LoanID:     l.ID,
		PaymentID:  l.PaymentID,
		Decision:   d,
		Remark:     in.Remark,
		ReviewerID: in.ReviewerID,
		ReviewedAt: now,
	}
}
