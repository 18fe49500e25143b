package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type LinkStatus string

const (
	LinkStatusActive   LinkStatus = "active"
	LinkStatusInactive LinkStatus = "inactive"
	LinkStatusExpired  LinkStatus = "expired"
)

// AffiliateLink is a trackable referral link. The four counters mutate only
// through atomic SQL increments; uniqueClicks never exceeds clicks, and
// clicks never passes MaxClicks when one is set.
type AffiliateLink struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	Code             string       `gorm:"not null;uniqueIndex" json:"code"`
	URL              string       `gorm:"not null" json:"url"`
	Name             string       `gorm:"type:text" json:"name,omitempty"`
	Source           string       `gorm:"type:text" json:"source,omitempty"`
	ChannelID        snowflake.ID `gorm:"not null;index" json:"channel_id"`
	OfferID          snowflake.ID `gorm:"not null;index" json:"offer_id"`
	Status           LinkStatus   `gorm:"type:text;not null;default:'active'" json:"status"`
	ExpiresAt        *time.Time   `json:"expires_at,omitempty"`
	MaxClicks        *int64       `json:"max_clicks,omitempty"`
	AttributionModel string       `gorm:"type:text;not null;default:'last-click'" json:"attribution_model"`
	Clicks           int64        `gorm:"not null;default:0" json:"clicks"`
	UniqueClicks     int64        `gorm:"not null;default:0" json:"unique_clicks"`
	Conversions      int64        `gorm:"not null;default:0" json:"conversions"`
	Commission       float64      `gorm:"not null;default:0" json:"commission"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (AffiliateLink) TableName() string { return "affiliate_links" }

// ExpiredAt reports whether the link has passed its expiry at the given time.
func (l *AffiliateLink) ExpiredAt(now time.Time) bool {
	if l.Status == LinkStatusExpired {
		return true
	}
	return l.ExpiresAt != nil && !now.Before(*l.ExpiresAt)
}

// AtClickCap reports whether the click counter has reached MaxClicks.
func (l *AffiliateLink) AtClickCap() bool {
	return l.MaxClicks != nil && l.Clicks >= *l.MaxClicks
}
