package notification

import (
	"context"
	"errors"
	"fmt"
	"time"
)

type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

type Kind string

const (
	KindApplicationReceived Kind = "application_received"
	KindLoanApproved        Kind = "loan_approved"
	KindPaymentFailed       Kind = "payment_failed"
	KindPaymentApproved     Kind = "payment_approved"
	KindPaymentPending      Kind = "payment_pending"
	KindProfileIncomplete   Kind = "profile_incomplete"
	KindLoanCompleted       Kind = "loan_completed"
	KindLoanRejected        Kind = "loan_rejected"
)

// Outcome is the classified result of a single gateway call.
type Outcome int

const (
	Delivered Outcome = iota
	RateLimited
	PermanentFailure
	TransientFailure
)

func (o Outcome) String() string {
	switch o {
	case Delivered:
		return "delivered"
	case RateLimited:
		return "rate_limited"
	case PermanentFailure:
		return "permanent_failure"
	case TransientFailure:
		return "transient_failure"
	}
	return fmt.Sprintf("outcome(%d)", int(o))
}

var (
	ErrRateLimited        = errors.New("notification rate limited")
	ErrTransientDelivery  = errors.New("transient delivery failure")
	ErrPermanentDelivery  = errors.New("permanent delivery failure")
	ErrUnsupportedChannel = errors.New("unsupported notification channel")
)

// Err maps a failed outcome to its error; Delivered yields nil.
func (o Outcome) Err() error {
	switch o {
	case Delivered:
		return nil
	case RateLimited:
		return ErrRateLimited
	case TransientFailure:
		return ErrTransientDelivery
	}
	return ErrPermanentDelivery
}

// Sender sends one templated notification. It never retries.
type Sender interface {
	Send(ctx context.Context, ch Channel, recipient string, kind Kind, data map[string]any) Outcome
}

// Key identifies one logical notification. Version is the monotonic version
// of the entity that triggered it.
type Key struct {
	SubjectID string
	Kind      Kind
	Channel   Channel
	Version   int64
}

// RecordID is the store key; the version lives in the record value so a new
// version re-arms the same record.
func (k Key) RecordID() string {
	return k.SubjectID + ":" + string(k.Kind) + ":" + string(k.Channel)
}

// Record is the last delivered attempt for a RecordID. A Pending record is a
// claim held by an attempt whose gateway call has not finished.
type Record struct {
	Version       int64     `json:"version"`
	LastAttemptAt time.Time `json:"last_attempt_at"`
	Pending       bool      `json:"pending,omitempty"`
}

// Blocks reports whether r suppresses a new attempt for version at now. A
// claim blocks every version until its lease runs out; a delivered record
// blocks only its own version inside window.
func (r Record) Blocks(version int64, now time.Time, window, lease time.Duration) bool {
	if r.Pending {
		return now.Sub(r.LastAttemptAt) < lease
	}
	return r.Version == version && now.Sub(r.LastAttemptAt) < window
}

type Store interface {
	// Get reports ok=false when no record exists.
	Get(ctx context.Context, id string) (rec Record, ok bool, err error)
	Put(ctx context.Context, id string, rec Record) error
	// Claim stores claim under id unless the current record Blocks it. The
	// check and the write are one atomic step.
	Claim(ctx context.Context, id string, claim Record, window, lease time.Duration) (bool, error)
	// Release drops id only while it still holds claim.
	Release(ctx context.Context, id string, claim Record) error
}

// Pruner is implemented by stores that cannot expire records on their own.
type Pruner interface {
	Prune(ctx context.Context, idleBefore time.Time) (int, error)
}

// Event is a notification request raised by the loan workflow or a sweep.
type Event struct {
	Key
	// UserID resolves the recipient.
	UserID string
	Data   map[string]any
}
