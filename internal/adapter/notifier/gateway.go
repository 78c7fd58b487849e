package notifier

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"

	"loanflow-backend/internal/domain/notification"

	"github.com/sirupsen/logrus"
)

// Class is the provider-independent kind of a transport failure.
type Class int

const (
	ClassOther Class = iota
	ClassQuota
	ClassTimeout
	ClassMalformedRecipient
)

func (c Class) String() string {
	switch c {
	case ClassQuota:
		return "quota"
	case ClassTimeout:
		return "timeout"
	case ClassMalformedRecipient:
		return "malformed_recipient"
	}
	return "other"
}

// TransportError is what transports return when they can tell why a send
// failed. Unclassified errors count as ClassOther.
type TransportError struct {
	Class Class
	Err   error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Class, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Message is a rendered notification ready for a transport.
type Message struct {
	Subject string
	Body    string
}

// Transport delivers one message over one channel. It must not retry.
type Transport interface {
	Deliver(ctx context.Context, recipient string, msg Message) error
}

// outcomes is the fixed classification table of the gateway.
//
//	quota exceeded, insufficient balance, HTTP 429, SMTP 421/452  -> RateLimited
//	timeout (ctx deadline, net timeout, pool timeout)              -> TransientFailure
//	malformed recipient (bad phone, SMTP 501/553)                  -> TransientFailure
//	anything else                                                  -> PermanentFailure
var outcomes = map[Class]notification.Outcome{
	ClassQuota:              notification.RateLimited,
	ClassTimeout:            notification.TransientFailure,
	ClassMalformedRecipient: notification.TransientFailure,
	ClassOther:              notification.PermanentFailure,
}

// Classify maps a transport error onto an Outcome.
func Classify(err error) notification.Outcome {
	if err == nil {
		return notification.Delivered
	}
	return outcomes[classOf(err)]
}

func classOf(err error) Class {
	var te *TransportError
	if errors.As(err, &te) {
		return te.Class
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ClassTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return ClassTimeout
	}
	return ClassOther
}

// Gateway renders templates and hands them to the channel's transport.
type Gateway struct {
	transports map[notification.Channel]Transport
	templates  *Templates
	log        *logrus.Logger
}

func NewGateway(templates *Templates, log *logrus.Logger) *Gateway {
	return &Gateway{
		transports: make(map[notification.Channel]Transport),
		templates:  templates,
		log:        log,
	}
}

// Register binds a transport to a channel. Call it before the first Send.
func (g *Gateway) Register(ch notification.Channel, t Transport) *Gateway {
	g.transports[ch] = t
	return g
}

// Send performs at most one transport call.
func (g *Gateway) Send(ctx context.Context, ch notification.Channel, recipient string, kind notification.Kind, data map[string]any) notification.Outcome {
	fields := logrus.Fields{"channel": ch, "kind": kind}
	if strings.TrimSpace(recipient) == "" {
		g.log.WithFields(fields).Warn("notifier: empty recipient")
		return notification.PermanentFailure
	}
	t, ok := g.transports[ch]
	if !ok {
		g.log.WithFields(fields).WithError(notification.ErrUnsupportedChannel).Error("notifier: no transport")
		return notification.PermanentFailure
	}
	msg, err := g.templates.Render(ch, kind, data)
	if err != nil {
		g.log.WithFields(fields).WithError(err).Error("notifier: render failed")
		return notification.PermanentFailure
	}

	err = t.Deliver(ctx, recipient, msg)
	out := Classify(err)
	if err != nil {
		g.log.WithFields(fields).WithError(err).WithField("outcome", out.String()).Warn("notifier: send failed")
	}
	return out
}
