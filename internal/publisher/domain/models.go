package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/refgate/refgate/internal/commission"
)

type PublisherStatus string

const (
	PublisherStatusActive    PublisherStatus = "active"
	PublisherStatusSuspended PublisherStatus = "suspended"
)

// DefaultShareRate applies when a publisher record carries no explicit rate.
const DefaultShareRate = 80.0

// Publisher is a partner earning commissions. Balance and TotalEarned are
// mutated only through the ledger's atomic increments, never read-modify-write.
type Publisher struct {
	ID               snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name             string            `gorm:"not null" json:"name"`
	Email            string            `gorm:"not null;uniqueIndex" json:"email"`
	DefaultShareRate float64           `gorm:"not null;default:80" json:"default_share_rate"`
	Balance          float64           `gorm:"not null;default:0" json:"balance"`
	TotalEarned      float64           `gorm:"not null;default:0" json:"total_earned"`
	Status           PublisherStatus   `gorm:"type:text;not null;default:'active'" json:"status"`
	Tier             datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"tier,omitempty"`
	CreatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Publisher) TableName() string { return "publishers" }

// BonusTier decodes the tier column into the calculator's shape. An empty
// or malformed tier yields nil, which the calculator treats as no bonus.
func (p *Publisher) BonusTier() *commission.Tier {
	if len(p.Tier) == 0 {
		return nil
	}
	raw, err := json.Marshal(p.Tier)
	if err != nil {
		return nil
	}
	var tier commission.Tier
	if err := json.Unmarshal(raw, &tier); err != nil {
		return nil
	}
	return &tier
}
