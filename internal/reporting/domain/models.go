package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Range bounds a stats query; zero values mean unbounded.
type Range struct {
	From time.Time
	To   time.Time
}

// Stats aggregates traffic and earnings for a link or channel.
// ConversionRate is conversions per unique click ×100; EPC is commission
// per click. Both are 0 when the denominator is 0.
type Stats struct {
	TotalClicks    int64   `json:"total_clicks"`
	UniqueClicks   int64   `json:"unique_clicks"`
	Conversions    int64   `json:"conversions"`
	OrderAmount    float64 `json:"order_amount"`
	Commission     float64 `json:"commission"`
	ConversionRate float64 `json:"conversion_rate"`
	EPC            float64 `json:"epc"`
}

type Service interface {
	LinkStats(ctx context.Context, linkID snowflake.ID, r Range) (Stats, error)
	ChannelStats(ctx context.Context, channelID snowflake.ID, r Range) (Stats, error)
}
