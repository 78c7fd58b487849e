package delivery

import (
	"context"
	"errors"

	"loanflow-backend/internal/domain/notification"
	"loanflow-backend/internal/domain/user"

	"github.com/sirupsen/logrus"
)

// Deliverer turns an Event into a tracked gateway call, resolving the
// recipient from the user's profile at send time.
type Deliverer struct {
	users  user.Repository
	sender notification.Sender
	log    *logrus.Logger
}

func NewDeliverer(users user.Repository, sender notification.Sender, log *logrus.Logger) *Deliverer {
	return &Deliverer{users: users, sender: sender, log: log}
}

func (d *Deliverer) Deliver(ctx context.Context, a Attempter, ev notification.Event) (Result, error) {
	var (
		recipient string
		data      map[string]any
		resolved  bool
	)
	send := func(ctx context.Context) notification.Outcome {
		if !resolved {
			u, err := d.lookup(ctx, ev.UserID)
			if err != nil {
				d.log.WithError(err).WithField("user_id", ev.UserID).Warn("delivery: recipient lookup failed")
				return notification.TransientFailure
			}
			recipient, data, resolved = address(u, ev.Channel), withName(ev.Data, u), true
		}
		return d.sender.Send(ctx, ev.Channel, recipient, ev.Kind, data)
	}
	return a.Attempt(ctx, ev.Key, send)
}

// lookup returns a nil user, not an error, for unknown users so the gateway
// rejects the send.
func (d *Deliverer) lookup(ctx context.Context, userID string) (*user.User, error) {
	u, err := d.users.GetByUserID(ctx, userID)
	if errors.Is(err, user.ErrNotFound) {
		return nil, nil
	}
	return u, err
}

func address(u *user.User, ch notification.Channel) string {
	if u == nil {
		return ""
	}
	switch ch {
	case notification.ChannelEmail:
		return u.Email
	case notification.ChannelWhatsApp:
		return u.Phone
	}
	return ""
}

func withName(data map[string]any, u *user.User) map[string]any {
	out := make(map[string]any, len(data)+1)
	for k, v := range data {
		out[k] = v
	}
	if _, ok := out["name"]; !ok && u != nil {
		out["name"] = u.FullName
	}
	return out
}
