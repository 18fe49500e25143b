package domain

import (
	"encoding/json"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"

	"github.com/refgate/refgate/internal/commission"
)

type OfferStatus string

const (
	OfferStatusActive OfferStatus = "active"
	OfferStatusPaused OfferStatus = "paused"
	OfferStatusEnded  OfferStatus = "ended"
)

// Offer is an advertiser program paying CommissionRate percent of the order
// amount. VolumeBonuses holds [{threshold, bonus}] rules in creation order.
type Offer struct {
	ID             snowflake.ID   `gorm:"primaryKey" json:"id"`
	Name           string         `gorm:"not null" json:"name"`
	Advertiser     string         `gorm:"type:text" json:"advertiser,omitempty"`
	CommissionRate float64        `gorm:"not null" json:"commission_rate"`
	VolumeBonuses  datatypes.JSON `gorm:"type:jsonb" json:"volume_bonuses,omitempty"`
	Status         OfferStatus    `gorm:"type:text;not null;default:'active'" json:"status"`
	CreatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Offer) TableName() string { return "offers" }

// BonusRules decodes the volume bonus column. Malformed JSON yields no rules.
func (o *Offer) BonusRules() []commission.VolumeBonusRule {
	if len(o.VolumeBonuses) == 0 {
		return nil
	}
	var rules []commission.VolumeBonusRule
	if err := json.Unmarshal(o.VolumeBonuses, &rules); err != nil {
		return nil
	}
	return rules
}

// Channel is a publisher's traffic property (site, newsletter, social
// account). ShareRate overrides the publisher default when set.
type Channel struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	PublisherID snowflake.ID `gorm:"not null;index" json:"publisher_id"`
	Name        string       `gorm:"not null" json:"name"`
	Type        string       `gorm:"type:text" json:"type,omitempty"`
	ShareRate   *float64     `json:"share_rate,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Channel) TableName() string { return "channels" }

// ChannelOffer is an approved channel↔offer pairing; its ShareRate, when
// set, wins over the channel and publisher defaults.
type ChannelOffer struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	ChannelID snowflake.ID `gorm:"not null;uniqueIndex:ux_channel_offers_pair,priority:1" json:"channel_id"`
	OfferID   snowflake.ID `gorm:"not null;uniqueIndex:ux_channel_offers_pair,priority:2" json:"offer_id"`
	ShareRate *float64     `json:"share_rate,omitempty"`
	Status    string       `gorm:"type:text;not null;default:'approved'" json:"status"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (ChannelOffer) TableName() string { return "channel_offers" }
