package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
)

type CreditRequest struct {
	PublisherID  snowflake.ID
	ChannelID    snowflake.ID
	ConversionID snowflake.ID
	Amount       float64
}

type Service interface {
	// Credit records a commission and bumps the publisher balance exactly
	// once per conversion. Replays return the existing entry with
	// created=false and touch nothing.
	Credit(ctx context.Context, req CreditRequest) (Commission, bool, error)

	// Release matures pending entries whose hold-back has passed and
	// returns how many moved to available.
	Release(ctx context.Context) (int64, error)

	StatsForPublisher(ctx context.Context, publisherID snowflake.ID) (PublisherStats, error)
}

var (
	ErrInvalidPublisher  = errors.New("invalid_publisher")
	ErrInvalidConversion = errors.New("invalid_conversion")
	ErrInvalidAmount     = errors.New("invalid_amount")
)
