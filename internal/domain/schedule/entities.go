package schedule

import (
	"context"
	"time"

	"loanflow-backend/internal/domain/loan"
)

type Kind string

const KindAutoDecision Kind = "auto_decision"

// PendingTransition is a persisted delayed transition. It is written in the
// transaction that arms it and removed once it fired or was cancelled.
type PendingTransition struct {
	ID             string      `gorm:"column:id;primaryKey;size:36"`
	LoanID         string      `gorm:"column:loan_id;size:32;not null;index:idx_pending_transitions_loan"`
	Kind           Kind        `gorm:"column:kind;size:32;not null"`
	ExpectedStatus loan.Status `gorm:"column:expected_status;size:32;not null"`
	FireAt         time.Time   `gorm:"column:fire_at;not null;index:idx_pending_transitions_fire_at"`
	CreatedAt      time.Time   `gorm:"column:created_at;autoCreateTime"`
}

func (PendingTransition) TableName() string { return "pending_transitions" }

type Repository interface {
	Create(ctx context.Context, t *PendingTransition) error
	Delete(ctx context.Context, id string) error
	DeleteByLoanID(ctx context.Context, loanID string) error
	// ListAll returns every stored record ordered by FireAt.
	ListAll(ctx context.Context) ([]PendingTransition, error)
}
