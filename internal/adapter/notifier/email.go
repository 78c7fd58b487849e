package notifier

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"time"

	"github.com/jordan-wright/email"
)

// Mailer is the part of *email.Pool the transport needs.
type Mailer interface {
	Send(e *email.Email, timeout time.Duration) error
}

type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	PoolSize int
	// Timeout applies when the caller's context carries no deadline.
	Timeout time.Duration
}

// EmailTransport sends plain-text mail through a pooled SMTP connection.
type EmailTransport struct {
	mailer  Mailer
	from    string
	timeout time.Duration
}

func NewEmailTransport(m Mailer, from string, timeout time.Duration) *EmailTransport {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &EmailTransport{mailer: m, from: from, timeout: timeout}
}

// DialSMTP builds a connection pool. Connections are opened lazily.
func DialSMTP(cfg SMTPConfig) (*email.Pool, error) {
	size := cfg.PoolSize
	if size <= 0 {
		size = 2
	}
	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}
	pool, err := email.NewPool(net.JoinHostPort(cfg.Host, cfg.Port), size, auth)
	if err != nil {
		return nil, fmt.Errorf("smtp pool: %w", err)
	}
	return pool, nil
}

func (t *EmailTransport) Deliver(ctx context.Context, recipient string, msg Message) error {
	timeout := t.timeout
	if dl, ok := ctx.Deadline(); ok {
		timeout = time.Until(dl)
	}
	if err := ctx.Err(); err != nil {
		return &TransportError{Class: ClassTimeout, Err: err}
	}

	e := email.NewEmail()
	e.From = t.from
	e.To = []string{recipient}
	e.Subject = msg.Subject
	e.Text = []byte(msg.Body)

	if err := t.mailer.Send(e, timeout); err != nil {
		return classifySMTP(err)
	}
	return nil
}

func classifySMTP(err error) error {
	if errors.Is(err, email.ErrTimeout) {
		return &TransportError{Class: ClassTimeout, Err: err}
	}
	var tp *textproto.Error
	if errors.As(err, &tp) {
		switch tp.Code {
		case 421, 452:
			return &TransportError{Class: ClassQuota, Err: err}
		case 501, 553:
			return &TransportError{Class: ClassMalformedRecipient, Err: err}
		}
	}
	return err
}
