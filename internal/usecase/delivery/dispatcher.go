package delivery

import (
	"context"
	"sync"

	"loanflow-backend/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// Dispatcher sends request-path notifications in the background once the
// triggering transition has committed. Failures are logged, never returned.
type Dispatcher struct {
	tracker   Attempter
	deliverer *Deliverer
	log       *logrus.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewDispatcher(tracker Attempter, deliverer *Deliverer, log *logrus.Logger) *Dispatcher {
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{tracker: tracker, deliverer: deliverer, log: log, ctx: ctx, cancel: cancel}
}

func (d *Dispatcher) Dispatch(ev notification.Event) {
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		fields := logrus.Fields{"subject": ev.SubjectID, "kind": ev.Kind, "channel": ev.Channel}
		res, err := d.deliverer.Deliver(d.ctx, d.tracker, ev)
		if err != nil {
			d.log.WithError(err).WithFields(fields).Error("dispatch: delivery failed")
			return
		}
		fields["status"] = res.Status.String()
		fields["calls"] = res.Calls
		if res.Reason != "" {
			fields["reason"] = res.Reason
		}
		d.log.WithFields(fields).Info("dispatch: notification processed")
	}()
}

// Wait blocks until every dispatched notification finished.
func (d *Dispatcher) Wait() { d.wg.Wait() }

// Stop aborts pending backoff waits and waits for in-flight sends.
func (d *Dispatcher) Stop() {
	d.cancel()
	d.wg.Wait()
}
