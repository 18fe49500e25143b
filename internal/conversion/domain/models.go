package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type ConversionStatus string

const (
	ConversionStatusPending  ConversionStatus = "pending"
	ConversionStatusApproved ConversionStatus = "approved"
	ConversionStatusRejected ConversionStatus = "rejected"
	ConversionStatusPaid     ConversionStatus = "paid"
)

// Conversion is one attributed order. OrderID is unique: replays of the
// same order resolve to the existing row and the ledger's idempotency key
// keeps the payout single.
type Conversion struct {
	ID                  snowflake.ID     `gorm:"primaryKey" json:"id"`
	OrderID             string           `gorm:"not null;uniqueIndex" json:"order_id"`
	OrderAmount         float64          `gorm:"not null" json:"order_amount"`
	Currency            string           `gorm:"type:text;not null;default:'USD'" json:"currency"`
	OfferID             snowflake.ID     `gorm:"not null;index" json:"offer_id"`
	LinkID              snowflake.ID     `gorm:"not null;index" json:"link_id"`
	ChannelID           snowflake.ID     `gorm:"not null;index" json:"channel_id"`
	PublisherID         snowflake.ID     `gorm:"not null;index" json:"publisher_id"`
	CustomerID          string           `gorm:"not null;index" json:"customer_id"`
	ClickID             *snowflake.ID    `json:"click_id,omitempty"`
	Commission          float64          `gorm:"not null;default:0" json:"commission"`
	PublisherCommission float64          `gorm:"not null;default:0" json:"publisher_commission"`
	PlatformCommission  float64          `gorm:"not null;default:0" json:"platform_commission"`
	AttributionModel    string           `gorm:"type:text" json:"attribution_model,omitempty"`
	Status              ConversionStatus `gorm:"type:text;not null;default:'pending'" json:"status"`
	ConversionDate      time.Time        `gorm:"not null;index" json:"conversion_date"`
	CreatedAt           time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt           time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Conversion) TableName() string { return "conversions" }
