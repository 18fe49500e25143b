package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"

	ledgerdomain "github.com/refgate/refgate/internal/ledger/domain"
	"github.com/refgate/refgate/pkg/db/pagination"
)

// RecordConversionRequest is a conversion event from the advertiser side.
// The source link comes from ClickID (attribution cookie) when present,
// otherwise from the referral code.
type RecordConversionRequest struct {
	OrderID        string
	OrderAmount    float64
	Currency       string
	CustomerID     string
	ClickID        *snowflake.ID
	ReferralCode   string
	ConversionDate *time.Time
}

type RecordResult struct {
	Conversion Conversion
	Commission ledgerdomain.Commission
	// Created is false when the order had been recorded before; the replay
	// recomputed nothing and credited nothing.
	Created  bool
	Credited bool
	FellBack bool
}

type ListConversionsRequest struct {
	PublisherID snowflake.ID
	PageToken   string
	PageSize    int
}

type ListConversionsResponse struct {
	Conversions []*Conversion        `json:"conversions"`
	PageInfo    *pagination.PageInfo `json:"page_info"`
}

type Service interface {
	Record(ctx context.Context, req RecordConversionRequest) (RecordResult, error)
	ListByPublisher(ctx context.Context, req ListConversionsRequest) (ListConversionsResponse, error)
}

var (
	ErrInvalidOrder     = errors.New("invalid_order")
	ErrInvalidAmount    = errors.New("invalid_amount")
	ErrInvalidCustomer  = errors.New("invalid_customer")
	ErrSourceNotFound   = errors.New("conversion_source_not_found")
	ErrOfferUnavailable = errors.New("offer_unavailable")
)
