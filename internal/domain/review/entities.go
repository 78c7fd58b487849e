package review

import (
	"context"
	"time"
)

type Decision string

const (
	DecisionApproved Decision = "approved"
	DecisionRejected Decision = "rejected"
)

// PaymentReview is the audit row of an admin payment decision.
type PaymentReview struct {
	ID         uint64    `gorm:"column:id;primaryKey;autoIncrement"`
	ReviewID   string    `gorm:"column:review_id;size:32;not null;uniqueIndex:ux_payment_reviews_review_id"`
	LoanID     uint64    `gorm:"column:loan_id;not null;index:idx_payment_reviews_loan"`
	PaymentID  string    `gorm:"column:payment_id;size:36"`
	Decision   Decision  `gorm:"column:decision;size:16;not null"`
	Remark     string    `gorm:"column:remark;type:text"`
	ReviewerID string    `gorm:"column:reviewer_id;size:32;not null"`
	ReviewedAt time.Time `gorm:"column:reviewed_at;not null"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}

func (PaymentReview) TableName() string { return "payment_reviews" }

type Repository interface {
	Create(ctx context.Context, r *PaymentReview) error
	// ListByLoanID returns reviews for a numeric loan id, oldest first.
	ListByLoanID(ctx context.Context, loanID uint64) ([]PaymentReview, error)
}
