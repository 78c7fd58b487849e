package sweep

import (
	"context"
	"fmt"
	"time"

	"loanflow-backend/internal/domain/loan"
	"loanflow-backend/internal/domain/notification"
	"loanflow-backend/internal/domain/user"
	"loanflow-backend/internal/usecase/delivery"
	"loanflow-backend/pkg/clock"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// RecordIdleLimit is how long a send record may sit unused before pruning.
const RecordIdleLimit = 7 * 24 * time.Hour

// Specs holds the cron expressions of the recurring jobs.
type Specs struct {
	PaymentFailed   string
	ProfileReminder string
	PaymentPending  string
	TrackerPrune    string
}

func DefaultSpecs() Specs {
	return Specs{
		PaymentFailed:   "@every 1h",
		ProfileReminder: "@every 1h",
		PaymentPending:  "@every 6h",
		TrackerPrune:    "@daily",
	}
}

// Report summarises one sweep run.
type Report struct {
	Scanned   int
	Sent      int
	Skipped   int
	Exhausted int
	Errors    int
}

func (r *Report) add(res delivery.Result, err error) {
	if err != nil {
		r.Errors++
		return
	}
	switch res.Status {
	case delivery.Sent:
		r.Sent++
	case delivery.Skipped:
		r.Skipped++
	case delivery.Exhausted:
		r.Exhausted++
	}
}

// Engine runs the reminder sweeps on a cron schedule.
type Engine struct {
	loans     loan.Repository
	users     user.Repository
	tracker   *delivery.Tracker
	deliverer *delivery.Deliverer
	clock     clock.Clock
	log       *logrus.Logger
	cron      *cron.Cron

	ctx    context.Context
	cancel context.CancelFunc
}

func New(loans loan.Repository, users user.Repository, tracker *delivery.Tracker, deliverer *delivery.Deliverer, clk clock.Clock, log *logrus.Logger) *Engine {
	cl := cron.PrintfLogger(log)
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		loans:     loans,
		users:     users,
		tracker:   tracker,
		deliverer: deliverer,
		clock:     clk,
		log:       log,
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Schedule registers every job. An empty spec disables that job.
func (e *Engine) Schedule(specs Specs) error {
	jobs := []struct {
		name string
		spec string
		run  func(ctx context.Context) (Report, error)
	}{
		{"payment-failed", specs.PaymentFailed, e.RunPaymentFailed},
		{"profile-reminder", specs.ProfileReminder, e.RunProfileReminder},
		{"payment-pending", specs.PaymentPending, e.RunPaymentPending},
		{"tracker-prune", specs.TrackerPrune, e.RunTrackerPrune},
	}
	for _, j := range jobs {
		if j.spec == "" {
			e.log.WithField("job", j.name).Info("sweep: job disabled")
			continue
		}
		if _, err := e.cron.AddFunc(j.spec, e.job(j.name, j.run)); err != nil {
			return fmt.Errorf("schedule %s (%q): %w", j.name, j.spec, err)
		}
	}
	return nil
}

func (e *Engine) job(name string, run func(ctx context.Context) (Report, error)) func() {
	return func() {
		began := e.clock.Now()
		rep, err := run(e.ctx)
		entry := e.log.WithFields(logrus.Fields{
			"job":       name,
			"scanned":   rep.Scanned,
			"sent":      rep.Sent,
			"skipped":   rep.Skipped,
			"exhausted": rep.Exhausted,
			"errors":    rep.Errors,
			"took":      e.clock.Now().Sub(began).String(),
		})
		if err != nil {
			entry.WithError(err).Error("sweep: run aborted")
			return
		}
		entry.Info("sweep: run finished")
	}
}

func (e *Engine) Start() { e.cron.Start() }

// Stop cancels running sweeps and waits for them to return.
func (e *Engine) Stop() {
	e.cancel()
	<-e.cron.Stop().Done()
}

func (e *Engine) deliver(ctx context.Context, b *delivery.Batch, rep *Report, ev notification.Event) error {
	res, err := e.deliverer.Deliver(ctx, b, ev)
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if err != nil {
		e.log.WithError(err).WithFields(logrus.Fields{
			"subject": ev.SubjectID, "kind": ev.Kind, "channel": ev.Channel,
		}).Warn("sweep: delivery failed")
	}
	rep.add(res, err)
	return nil
}

// RunPaymentFailed emails every applicant whose payment was rejected.
func (e *Engine) RunPaymentFailed(ctx context.Context) (Report, error) {
	var rep Report
	loans, err := e.loans.List(ctx, loan.Filter{Statuses: []loan.Status{loan.StatusPaymentFailed}})
	if err != nil {
		return rep, fmt.Errorf("list payment_failed loans: %w", err)
	}
	b := e.tracker.NewBatch()
	for i := range loans {
		l := &loans[i]
		rep.Scanned++
		ev := loanEvent(l, notification.KindPaymentFailed, notification.ChannelEmail, map[string]any{
			"remarks": l.Remarks,
		})
		if err := e.deliver(ctx, b, &rep, ev); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// RunPaymentPending reminds applicants over WhatsApp that charges are due.
func (e *Engine) RunPaymentPending(ctx context.Context) (Report, error) {
	var rep Report
	loans, err := e.loans.List(ctx, loan.Filter{
		Statuses:      loan.AwaitingPaymentStatuses,
		PaymentStatus: loan.PaymentPending,
	})
	if err != nil {
		return rep, fmt.Errorf("list loans awaiting payment: %w", err)
	}
	b := e.tracker.NewBatch()
	for i := range loans {
		l := &loans[i]
		rep.Scanned++
		ev := loanEvent(l, notification.KindPaymentPending, notification.ChannelWhatsApp, map[string]any{
			"amount": l.TotalPaymentAmount,
		})
		if err := e.deliver(ctx, b, &rep, ev); err != nil {
			return rep, err
		}
	}
	return rep, nil
}

// RunProfileReminder nudges users with incomplete profiles on both channels.
// Each channel is tracked on its own.
func (e *Engine) RunProfileReminder(ctx context.Context) (Report, error) {
	var rep Report
	users, err := e.users.List(ctx)
	if err != nil {
		return rep, fmt.Errorf("list users: %w", err)
	}
	b := e.tracker.NewBatch()
	for i := range users {
		u := &users[i]
		if u.ProfileComplete() {
			continue
		}
		rep.Scanned++
		for _, ch := range []notification.Channel{notification.ChannelEmail, notification.ChannelWhatsApp} {
			ev := notification.Event{
				Key: notification.Key{
					SubjectID: u.UserID,
					Kind:      notification.KindProfileIncomplete,
					Channel:   ch,
					Version:   u.UpdatedAt.Unix(),
				},
				UserID: u.UserID,
				Data:   map[string]any{"name": u.FullName},
			}
			if err := e.deliver(ctx, b, &rep, ev); err != nil {
				return rep, err
			}
		}
	}
	return rep, nil
}

// RunTrackerPrune drops idle send records from stores that do not expire
// them on their own.
func (e *Engine) RunTrackerPrune(ctx context.Context) (Report, error) {
	p, ok := e.tracker.Store().(notification.Pruner)
	if !ok {
		return Report{}, nil
	}
	n, err := p.Prune(ctx, e.clock.Now().Add(-RecordIdleLimit))
	if err != nil {
		return Report{}, fmt.Errorf("prune send records: %w", err)
	}
	return Report{Scanned: n}, nil
}

func loanEvent(l *loan.Loan, kind notification.Kind, ch notification.Channel, data map[string]any) notification.Event {
	data["code"] = l.Code
	data["loan_id"] = l.LoanID
	return notification.Event{
		Key: notification.Key{
			SubjectID: l.LoanID,
			Kind:      kind,
			Channel:   ch,
			Version:   l.Version,
		},
		UserID: l.ApplicantID,
		Data:   data,
	}
}
