package mysql

import (
	"context"

	reviewDomain "loanflow-backend/internal/domain/review"

	"gorm.io/gorm"
)

type ReviewRepository struct{ db *gorm.DB }

func NewReviewRepository(db *gorm.DB) *ReviewRepository { return &ReviewRepository{db: db} }

func (r *ReviewRepository) Create(ctx context.Context, rv *reviewDomain.PaymentReview) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r *ReviewRepository) ListByLoanID(ctx context.Context, loanNumericID uint64) ([]reviewDomain.PaymentReview, error) {
	var out []reviewDomain.PaymentReview
	res := r.db.WithContext(ctx).
		Where("loan_id = ?", loanNumericID).
		Order("reviewed_at ASC, id ASC").
		Find(&out)
	return out, res.Error
}
