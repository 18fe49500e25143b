package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type CreateLinkRequest struct {
	Code             string
	URL              string
	Name             string
	Source           string
	ChannelID        snowflake.ID
	OfferID          snowflake.ID
	ExpiresAt        *time.Time
	MaxClicks        *int64
	AttributionModel string
}

type Service interface {
	Create(context.Context, CreateLinkRequest) (AffiliateLink, error)
	GetByID(context.Context, snowflake.ID) (AffiliateLink, error)
	GetByCode(context.Context, string) (AffiliateLink, error)
}

var (
	ErrInvalidCode   = errors.New("invalid_code")
	ErrInvalidURL    = errors.New("invalid_url")
	ErrDuplicateCode = errors.New("duplicate_code")
	ErrNotFound      = errors.New("link_not_found")
)
