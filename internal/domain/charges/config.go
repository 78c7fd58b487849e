package charges

import (
	"context"
	"time"
)

const DefaultProcessingDays = 15

// Config is the singleton admin charge configuration.
type Config struct {
	ID             uint64    `gorm:"primaryKey;column:id"`
	DepositAmount  float64   `gorm:"type:decimal(18,2);not null;default:0"`
	FileCharge     float64   `gorm:"type:decimal(18,2);not null;default:0"`
	PlatformFee    float64   `gorm:"type:decimal(18,2);not null;default:0"`
	Tax            float64   `gorm:"type:decimal(18,2);not null;default:0"`
	ProcessingDays int       `gorm:"not null;default:15"`
	CreatedAt      time.Time `gorm:"autoCreateTime"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime"`
}

func (Config) TableName() string { return "charge_configs" }

// Default is returned when no configuration row exists.
func Default() Config {
	return Config{ProcessingDays: DefaultProcessingDays}
}

type Repository interface {
	// GetCurrent returns the latest configuration, or Default when none is stored.
	GetCurrent(ctx context.Context) (Config, error)
}
