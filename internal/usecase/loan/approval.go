package loan

import (
	"context"
	"math"
	"math/rand/v2"

	"loanflow-backend/internal/domain/charges"
	domain "loanflow-backend/internal/domain/loan"
	"loanflow-backend/internal/domain/notification"
	"loanflow-backend/internal/domain/schedule"
	"loanflow-backend/internal/domain/uow"

	"github.com/google/uuid"
)

const (
	minApproval  = 10000
	maxApproval  = 300000
	approvalStep = 1000
)

// RandomSource yields uniform values in [0, 1).
type RandomSource interface {
	Float64() float64
}

type defaultRandom struct{}

func (defaultRandom) Float64() float64 { return rand.Float64() }

// decideAmount draws the approved amount uniformly from
// [min(10000, R), min(R, 300000)] and rounds it to the nearest 1000 inside
// that range. When the range holds no multiple of 1000 the requested amount
// itself is approved.
func decideAmount(requested float64, src RandomSource) float64 {
	lo := math.Min(minApproval, requested)
	hi := math.Min(requested, maxApproval)

	v := lo + src.Float64()*(hi-lo)
	amount := math.Round(v/approvalStep) * approvalStep

	floor := math.Ceil(lo/approvalStep) * approvalStep
	ceil := math.Floor(hi/approvalStep) * approvalStep
	if floor > ceil {
		return requested
	}
	return math.Min(math.Max(amount, floor), ceil)
}

func toCharges(c charges.Config) domain.Charges {
	return domain.Charges{
		DepositAmount: c.DepositAmount,
		FileCharge:    c.FileCharge,
		PlatformFee:   c.PlatformFee,
		Tax:           c.Tax,
	}
}

// StartValidation moves a pending loan to validating and schedules the
// automated decision. The pending transition is stored in the same
// transaction so a restart can recover it.
func (u *Usecase) StartValidation(ctx context.Context, loanID, applicantID string) (*LoanDTO, error) {
	now := u.clock.Now()
	var rec schedule.PendingTransition
	l, err := u.mutate(ctx, loanID, applicantID, func(r uow.Repos, l *domain.Loan) error {
		if err := l.StartValidation(now); err != nil {
			return err
		}
		rec = schedule.PendingTransition{
			ID:             uuid.NewString(),
			LoanID:         l.LoanID,
			Kind:           schedule.KindAutoDecision,
			ExpectedStatus: domain.StatusValidating,
			FireAt:         now.Add(u.autoDecisionDelay),
		}
		return r.Transitions.Create(ctx, &rec)
	})
	if err != nil {
		return nil, err
	}

	u.timer.Arm(rec)
	u.log.WithFields(u.fields(l)).WithField("fire_at", rec.FireAt).Info("loan: validation started")
	return toDTO(l), nil
}

// AutoDecide approves a validating loan with a drawn amount and the current
// charge configuration. Its pending transitions are removed with it.
func (u *Usecase) AutoDecide(ctx context.Context, loanID string) (*LoanDTO, error) {
	now := u.clock.Now()
	l, err := u.mutate(ctx, loanID, anyOwner, func(r uow.Repos, l *domain.Loan) error {
		cfg, err := r.Charges.GetCurrent(ctx)
		if err != nil {
			return err
		}
		if err := l.Approve(decideAmount(l.RequestedAmount, u.rand), toCharges(cfg), now); err != nil {
			return err
		}
		return r.Transitions.DeleteByLoanID(ctx, l.LoanID)
	})
	if err != nil {
		return nil, err
	}

	u.log.WithFields(u.fields(l)).WithField("approved_amount", l.ApprovedAmount).Info("loan: auto-approved")
	u.notify(l, notification.KindLoanApproved, notification.ChannelEmail, map[string]any{
		"approved_amount": l.ApprovedAmount,
	})
	return toDTO(l), nil
}

// HandleAutoDecision is the scheduler handler for KindAutoDecision. A loan
// that left the expected status makes the fire a no-op.
func (u *Usecase) HandleAutoDecision(ctx context.Context, rec schedule.PendingTransition) error {
	_, err := u.AutoDecide(ctx, rec.LoanID)
	return err
}
