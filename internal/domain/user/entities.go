package user

import (
	"context"
	"errors"
	"strings"
	"time"
)

var ErrNotFound = errors.New("user not found")

type User struct {
	ID             uint64     `gorm:"primaryKey;column:id"`
	UserID         string     `gorm:"size:32;uniqueIndex:ux_users_user_id"`
	FullName       string     `gorm:"size:128"`
	Email          string     `gorm:"size:191"`
	Phone          string     `gorm:"size:32"`
	DateOfBirth    *time.Time `gorm:"type:date"`
	Address        string     `gorm:"type:text"`
	PAN            string     `gorm:"column:pan;size:16"`
	IdentityDocURL string     `gorm:"type:text"`
	AddressDocURL  string     `gorm:"type:text"`
	IncomeDocURL   string     `gorm:"type:text"`
	CreatedAt      time.Time  `gorm:"autoCreateTime"`
	UpdatedAt      time.Time  `gorm:"autoUpdateTime"`
}

func (User) TableName() string { return "users" }

// ProfileComplete reports whether every required field and all three
// documents are present.
func (u *User) ProfileComplete() bool {
	required := []string{
		u.FullName, u.Email, u.Phone, u.Address, u.PAN,
		u.IdentityDocURL, u.AddressDocURL, u.IncomeDocURL,
	}
	for _, v := range required {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return u.DateOfBirth != nil
}

type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*User, error)
	List(ctx context.Context) ([]User, error)
}
