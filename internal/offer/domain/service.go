package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreateOfferRequest struct {
	Name           string
	Advertiser     string
	CommissionRate float64
	VolumeBonuses  []byte
}

type CreateChannelRequest struct {
	PublisherID snowflake.ID
	Name        string
	Type        string
	ShareRate   *float64
}

type ApproveChannelOfferRequest struct {
	ChannelID snowflake.ID
	OfferID   snowflake.ID
	ShareRate *float64
}

type Service interface {
	CreateOffer(context.Context, CreateOfferRequest) (Offer, error)
	GetOffer(context.Context, snowflake.ID) (Offer, error)
	CreateChannel(context.Context, CreateChannelRequest) (Channel, error)
	GetChannel(context.Context, snowflake.ID) (Channel, error)
	ApproveChannelOffer(context.Context, ApproveChannelOfferRequest) (ChannelOffer, error)

	// ResolveShareRate picks the publisher's cut for a channel+offer pair:
	// channel-offer override, then channel rate, then the publisher default.
	ResolveShareRate(ctx context.Context, channelID, offerID snowflake.ID, publisherDefault float64) (float64, error)
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidRate      = errors.New("invalid_commission_rate")
	ErrInvalidPublisher = errors.New("invalid_publisher")
	ErrOfferNotFound    = errors.New("offer_not_found")
	ErrChannelNotFound  = errors.New("channel_not_found")
)
