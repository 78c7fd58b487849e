package mysql

import (
	"context"
	"errors"

	"loanflow-backend/internal/domain/charges"

	"gorm.io/gorm"
)

type ChargesRepository struct{ db *gorm.DB }

func NewChargesRepository(db *gorm.DB) *ChargesRepository { return &ChargesRepository{db: db} }

// GetCurrent reads the most recent configuration row; an empty table yields charges.Default.
func (r *ChargesRepository) GetCurrent(ctx context.Context) (charges.Config, error) {
	var out charges.Config
	err := r.db.WithContext(ctx).Order("id DESC").First(&out).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return charges.Default(), nil
	}
	if err != nil {
		return charges.Config{}, err
	}
	return out, nil
}
