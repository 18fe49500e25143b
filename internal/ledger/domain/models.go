package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// CommissionStatus tracks a payout entry through its lifecycle. Entries
// start pending until the hold-back passes, then become available for
// withdrawal.
type CommissionStatus string

const (
	CommissionStatusPending   CommissionStatus = "pending"
	CommissionStatusAvailable CommissionStatus = "available"
	CommissionStatusLocked    CommissionStatus = "locked"
	CommissionStatusWithdrawn CommissionStatus = "withdrawn"
	CommissionStatusPaid      CommissionStatus = "paid"
)

// Commission is one earned payout. ConversionID is the idempotency key:
// at most one entry ever exists per conversion.
type Commission struct {
	ID           snowflake.ID     `gorm:"primaryKey" json:"id"`
	PublisherID  snowflake.ID     `gorm:"not null;index" json:"publisher_id"`
	ChannelID    snowflake.ID     `gorm:"not null;index" json:"channel_id"`
	ConversionID snowflake.ID     `gorm:"not null;uniqueIndex" json:"conversion_id"`
	Amount       float64          `gorm:"not null" json:"amount"`
	Status       CommissionStatus `gorm:"type:text;not null;default:'pending';index" json:"status"`
	AvailableAt  time.Time        `gorm:"not null" json:"available_at"`
	CreatedAt    time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Commission) TableName() string { return "commissions" }

// PublisherStats aggregates a publisher's ledger position.
type PublisherStats struct {
	PublisherID snowflake.ID `json:"publisher_id"`
	Pending     float64      `json:"pending"`
	Available   float64      `json:"available"`
	Locked      float64      `json:"locked"`
	Total       float64      `json:"total"`
}
