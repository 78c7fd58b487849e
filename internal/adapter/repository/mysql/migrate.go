package mysql

import (
	"loanflow-backend/internal/domain/charges"
	"loanflow-backend/internal/domain/loan"
	"loanflow-backend/internal/domain/review"
	"loanflow-backend/internal/domain/schedule"
	"loanflow-backend/internal/domain/user"

	"gorm.io/gorm"
)

// Migrate creates or updates every table the service owns.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&loan.Loan{},
		&review.PaymentReview{},
		&schedule.PendingTransition{},
		&charges.Config{},
		&user.User{},
	)
}
