package mysql

import (
	"context"

	"loanflow-backend/internal/domain/schedule"

	"gorm.io/gorm"
)

type TransitionRepository struct{ db *gorm.DB }

func NewTransitionRepository(db *gorm.DB) *TransitionRepository {
	return &TransitionRepository{db: db}
}

func (r *TransitionRepository) Create(ctx context.Context, t *schedule.PendingTransition) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TransitionRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&schedule.PendingTransition{}).Error
}

func (r *TransitionRepository) DeleteByLoanID(ctx context.Context, loanID string) error {
	return r.db.WithContext(ctx).Where("loan_id = ?", loanID).Delete(&schedule.PendingTransition{}).Error
}

func (r *TransitionRepository) ListAll(ctx context.Context) ([]schedule.PendingTransition, error) {
	var out []schedule.PendingTransition
	res := r.db.WithContext(ctx).Order("fire_at ASC, id ASC").Find(&out)
	return out, res.Error
}
