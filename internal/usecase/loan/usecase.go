package loan

import (
	"context"
	"errors"
	"time"

	domain "loanflow-backend/internal/domain/loan"
	"loanflow-backend/internal/domain/notification"
	"loanflow-backend/internal/domain/schedule"
	"loanflow-backend/internal/domain/uow"
	"loanflow-backend/pkg/clock"
	"loanflow-backend/pkg/id"

	"github.com/sirupsen/logrus"
)

const (
	DefaultAutoDecisionDelay  = 5 * time.Minute
	DefaultAnnualInterestRate = 12.0
)

// TransitionTimer arms in-process timers for persisted pending transitions.
type TransitionTimer interface {
	Arm(rec schedule.PendingTransition)
	Disarm(loanID string) int
}

// Notifier sends notifications after the transition that raised them has
// committed. It must not block.
type Notifier interface {
	Dispatch(ev notification.Event)
}

type Usecase struct {
	repo     domain.Repository
	uow      uow.UnitOfWork
	timer    TransitionTimer
	notifier Notifier
	clock    clock.Clock
	rand     RandomSource
	log      *logrus.Logger

	autoDecisionDelay time.Duration
	annualRate        float64
}

type Option func(*Usecase)

func WithTimer(t TransitionTimer) Option { return func(u *Usecase) { u.timer = t } }
func WithNotifier(n Notifier) Option { return func(u *Usecase) { u.notifier = n } }
func WithClock(c clock.Clock) Option { return func(u *Usecase) { u.clock = c } }
func WithRand(r RandomSource) Option { return func(u *Usecase) { u.rand = r } }
func WithLogger(l *logrus.Logger) Option { return func(u *Usecase) { u.log = l } }
func WithAnnualInterestRate(r float64) Option {
	return func(u *Usecase) { u.annualRate = r }
}
func WithAutoDecisionDelay(d time.Duration) Option {
	return func(u *Usecase) { u.autoDecisionDelay = d }
}

func NewUsecase(r domain.Repository, tx uow.UnitOfWork, opts ...Option) *Usecase {
	u := &Usecase{
		repo:              r,
		uow:               tx,
		timer:             noopTimer{},
		notifier:          noopNotifier{},
		clock:             clock.Real{},
		rand:              defaultRandom{},
		log:               logrus.StandardLogger(),
		autoDecisionDelay: DefaultAutoDecisionDelay,
		annualRate:        DefaultAnnualInterestRate,
	}
	for _, o := range opts {
		o(u)
	}
	return u
}

type noopTimer struct{}

func (noopTimer) Arm(schedule.PendingTransition) {}
func (noopTimer) Disarm(string) int              { return 0 }

type noopNotifier struct{}

func (noopNotifier) Dispatch(notification.Event) {}

// anyOwner skips the ownership check for admin and timer paths.
const anyOwner = ""

// errUnchanged tells mutate that fn left the loan as it was, so the save
// and its version bump are skipped.
var errUnchanged = errors.New("loan unchanged")

// mutate runs fn on the locked loan and saves it in the same transaction.
// Loans owned by someone else are reported as not found.
func (u *Usecase) mutate(ctx context.Context, loanID, applicantID string, fn func(r uow.Repos, l *domain.Loan) error) (*domain.Loan, error) {
	var out *domain.Loan
	err := u.uow.WithinLoanTx(ctx, loanID, func(r uow.Repos, l *domain.Loan) error {
		if applicantID != anyOwner && l.ApplicantID != applicantID {
			return domain.ErrNotFound
		}
		if err := fn(r, l); errors.Is(err, errUnchanged) {
			out = l
			return nil
		} else if err != nil {
			return err
		}
		if err := r.Loans.Save(ctx, l); err != nil {
			return err
		}
		out = l
		return nil
	})
	if err != nil {
		return nil, domain.StoreError(err)
	}
	return out, nil
}

func (u *Usecase) notify(l *domain.Loan, kind notification.Kind, ch notification.Channel, data map[string]any) {
	if data == nil {
		data = map[string]any{}
	}
	data["code"] = l.Code
	data["loan_id"] = l.LoanID
	u.notifier.Dispatch(notification.Event{
		Key: notification.Key{
			SubjectID: l.LoanID,
			Kind:      kind,
			Channel:   ch,
			Version:   l.Version,
		},
		UserID: l.ApplicantID,
		Data:   data,
	})
}

func (u *Usecase) fields(l *domain.Loan) logrus.Fields {
	return logrus.Fields{"loan_id": l.LoanID, "code": l.Code, "status": l.Status}
}

func (u *Usecase) Apply(ctx context.Context, in ApplyInput) (*LoanDTO, error) {
	l, err := domain.NewApplication(in.ApplicantID, in.RequestedAmount, u.clock.Now())
	if err != nil {
		return nil, err
	}
	l.LoanID = id.NewID32()

	err = u.uow.WithinTx(ctx, func(r uow.Repos) error {
		if err := r.Loans.Create(ctx, l); err != nil {
			return err
		}
		// the code derives from the store sequence, known only after insert
		l.Code = id.LoanCode(l.ID)
		return r.Loans.Save(ctx, l)
	})
	if err != nil {
		return nil, domain.StoreError(err)
	}

	u.log.WithFields(u.fields(l)).Info("loan: application received")
	u.notify(l, notification.KindApplicationReceived, notification.ChannelEmail, map[string]any{
		"requested_amount": l.RequestedAmount,
	})
	return toDTO(l), nil
}

// Get returns the applicant's own loan.
func (u *Usecase) Get(ctx context.Context, loanID, applicantID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, domain.StoreError(err)
	}
	if l.ApplicantID != applicantID {
		return nil, domain.ErrNotFound
	}
	return toDTO(l), nil
}

func (u *Usecase) AdminGet(ctx context.Context, loanID string) (*LoanDTO, error) {
	l, err := u.repo.GetByLoanID(ctx, loanID)
	if err != nil {
		return nil, domain.StoreError(err)
	}
	return toDTO(l), nil
}

// List returns loans matching f, for the admin console.
func (u *Usecase) List(ctx context.Context, f domain.Filter) ([]LoanDTO, error) {
	loans, err := u.repo.List(ctx, f)
	if err != nil {
		return nil, domain.StoreError(err)
	}
	out := make([]LoanDTO, 0, len(loans))
	for i := range loans {
		out = append(out, *toDTO(&loans[i]))
	}
	return out, nil
}

func (u *Usecase) SelectTenure(ctx context.Context, loanID, applicantID string, in SelectTenureInput) (*LoanDTO, error) {
	l, err := u.mutate(ctx, loanID, applicantID, func(_ uow.Repos, l *domain.Loan) error {
		plan := domain.EMI{TenureMonths: in.TenureMonths}
		if in.TenureMonths >= domain.MinTenureMonths && in.TenureMonths <= domain.MaxTenureMonths {
			plan = computeEMI(l.ApprovedAmount, u.annualRate, in.TenureMonths)
		}
		return l.SelectTenure(plan)
	})
	if err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

func (u *Usecase) ViewSanctionLetter(ctx context.Context, loanID, applicantID string) (*LoanDTO, error) {
	l, err := u.mutate(ctx, loanID, applicantID, func(_ uow.Repos, l *domain.Loan) error {
		seen := l.SanctionLetterViewed
		advanced, err := l.ViewSanctionLetter()
		if err != nil {
			return err
		}
		if seen && !advanced {
			// the loan version also drives notification dedup
			return errUnchanged
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return toDTO(l), nil
}

func (u *Usecase) Sign(ctx context.Context, loanID, applicantID string, in SignInput) (*LoanDTO, error) {
	now := u.clock.Now()
	l, err := u.mutate(ctx, loanID, applicantID, func(_ uow.Repos, l *domain.Loan) error {
		return l.Sign(in.Signature, now)
	})
	if err != nil {
		return nil, err
	}
	u.log.WithFields(u.fields(l)).Info("loan: signed")
	return toDTO(l), nil
}

// Cancel withdraws the application and drops its pending transitions.
func (u *Usecase) Cancel(ctx context.Context, loanID, applicantID string) (*LoanDTO, error) {
	now := u.clock.Now()
	l, err := u.mutate(ctx, loanID, applicantID, func(r uow.Repos, l *domain.Loan) error {
		if err := l.Cancel(now); err != nil {
			return err
		}
		return r.Transitions.DeleteByLoanID(ctx, l.LoanID)
	})
	if err != nil {
		return nil, err
	}
	u.timer.Disarm(l.LoanID)
	u.log.WithFields(u.fields(l)).Info("loan: cancelled")
	return toDTO(l), nil
}
