package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Reason enumerates why a click failed validation.
type Reason string

const (
	ReasonLinkNotFound         Reason = "link_not_found"
	ReasonLinkInactive         Reason = "link_inactive"
	ReasonLinkExpired          Reason = "link_expired"
	ReasonLinkMaxClicksReached Reason = "link_max_clicks_reached"
	ReasonDuplicateClick       Reason = "duplicate_click"
	ReasonSuspiciousIP         Reason = "suspicious_ip"
)

// Verdict is the outcome of click validation. Rejection is data, not an
// error: rejected clicks are still recorded and the redirect still happens.
type Verdict struct {
	Valid  bool   `json:"valid"`
	Reason Reason `json:"reason,omitempty"`
}

var Accepted = Verdict{Valid: true}

func Rejected(reason Reason) Verdict {
	return Verdict{Valid: false, Reason: reason}
}

// Click is one recorded link hit. Attribution fields are written once when
// a conversion in the window is attributed; they stay zero otherwise.
type Click struct {
	ID                snowflake.ID      `gorm:"primaryKey" json:"id"`
	LinkID            snowflake.ID      `gorm:"not null;index" json:"link_id"`
	ChannelID         snowflake.ID      `gorm:"not null;index" json:"channel_id"`
	OfferID           snowflake.ID      `gorm:"not null;index" json:"offer_id"`
	ReferralCode      string            `gorm:"not null;index" json:"referral_code"`
	CustomerID        string            `gorm:"not null;index" json:"customer_id"`
	SessionID         string            `gorm:"type:text" json:"session_id,omitempty"`
	IP                string            `gorm:"not null;index" json:"ip"`
	UserAgent         string            `gorm:"type:text" json:"user_agent,omitempty"`
	Referrer          string            `gorm:"type:text" json:"referrer,omitempty"`
	Device            string            `gorm:"type:text" json:"device,omitempty"`
	Browser           string            `gorm:"type:text" json:"browser,omitempty"`
	Country           *string           `json:"country,omitempty"`
	City              *string           `json:"city,omitempty"`
	IsValid           bool              `gorm:"not null;index" json:"is_valid"`
	InvalidReason     string            `gorm:"type:text" json:"invalid_reason,omitempty"`
	AttributionModel  string            `gorm:"type:text" json:"attribution_model,omitempty"`
	AttributionWeight float64           `gorm:"not null;default:0" json:"attribution_weight"`
	TouchpointRole    string            `gorm:"type:text" json:"touchpoint_role,omitempty"`
	Converted         bool              `gorm:"not null;default:false" json:"converted"`
	ConversionID      *snowflake.ID     `gorm:"index" json:"conversion_id,omitempty"`
	ConversionData    datatypes.JSONMap `gorm:"type:jsonb" json:"conversion_data,omitempty"`
	CreatedAt         time.Time         `gorm:"not null;index;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt         time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Click) TableName() string { return "clicks" }
