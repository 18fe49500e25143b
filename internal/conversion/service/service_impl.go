package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/attribution"
	clickdomain "github.com/refgate/refgate/internal/click/domain"
	"github.com/refgate/refgate/internal/clock"
	"github.com/refgate/refgate/internal/commission"
	"github.com/refgate/refgate/internal/config"
	"github.com/refgate/refgate/internal/conversion/domain"
	ledgerdomain "github.com/refgate/refgate/internal/ledger/domain"
	linkdomain "github.com/refgate/refgate/internal/link/domain"
	offerdomain "github.com/refgate/refgate/internal/offer/domain"
	"github.com/refgate/refgate/internal/observability/metrics"
	publisherdomain "github.com/refgate/refgate/internal/publisher/domain"
	"github.com/refgate/refgate/pkg/db/pagination"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	GenID         *snowflake.Node
	Clock         clock.Clock
	Tracking      config.TrackingConfig
	Repo          domain.Repository
	ClickRepo     clickdomain.Repository
	LinkRepo      linkdomain.Repository
	PublisherRepo publisherdomain.Repository
	OfferSvc      offerdomain.Service
	OfferRepo     offerdomain.Repository
	Engine        *attribution.Engine
	Ledger        ledgerdomain.Service
	Metrics       *metrics.Metrics `optional:"true"`
}

// Service turns a conversion event into an attributed, commissioned and
// credited record. Attribution failures degrade to last-click and never
// abort; ledger failures propagate so the caller can retry with the same
// order, which the unique keys make safe.
type Service struct {
	db            *gorm.DB
	log           *zap.Logger
	genID         *snowflake.Node
	clock         clock.Clock
	tracking      config.TrackingConfig
	repo          domain.Repository
	clickRepo     clickdomain.Repository
	linkRepo      linkdomain.Repository
	publisherRepo publisherdomain.Repository
	offerSvc      offerdomain.Service
	offerRepo     offerdomain.Repository
	engine        *attribution.Engine
	ledger        ledgerdomain.Service
	metrics       *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:            p.DB,
		log:           p.Log.Named("conversion.service"),
		genID:         p.GenID,
		clock:         p.Clock,
		tracking:      p.Tracking,
		repo:          p.Repo,
		clickRepo:     p.ClickRepo,
		linkRepo:      p.LinkRepo,
		publisherRepo: p.PublisherRepo,
		offerSvc:      p.OfferSvc,
		offerRepo:     p.OfferRepo,
		engine:        p.Engine,
		ledger:        p.Ledger,
		metrics:       p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, req domain.RecordConversionRequest) (domain.RecordResult, error) {
	orderID := strings.TrimSpace(req.OrderID)
	if orderID == "" {
		return domain.RecordResult{}, domain.ErrInvalidOrder
	}
	if req.OrderAmount < 0 {
		return domain.RecordResult{}, domain.ErrInvalidAmount
	}
	customerID := strings.TrimSpace(req.CustomerID)
	if customerID == "" {
		return domain.RecordResult{}, domain.ErrInvalidCustomer
	}

	directClick, link, err := s.resolveSource(ctx, req)
	if err != nil {
		return domain.RecordResult{}, err
	}

	offer, err := s.offerRepo.FindOfferByID(ctx, s.db, link.OfferID)
	if err != nil {
		return domain.RecordResult{}, err
	}
	if offer == nil || offer.Status != offerdomain.OfferStatusActive {
		return domain.RecordResult{}, domain.ErrOfferUnavailable
	}

	channel, err := s.offerRepo.FindChannelByID(ctx, s.db, link.ChannelID)
	if err != nil {
		return domain.RecordResult{}, err
	}
	if channel == nil {
		return domain.RecordResult{}, domain.ErrSourceNotFound
	}

	publisher, err := s.publisherRepo.FindByID(ctx, s.db, channel.PublisherID)
	if err != nil {
		return domain.RecordResult{}, err
	}
	if publisher == nil {
		return domain.RecordResult{}, domain.ErrSourceNotFound
	}

	shareRate, err := s.offerSvc.ResolveShareRate(ctx, channel.ID, offer.ID, publisher.DefaultShareRate)
	if err != nil {
		return domain.RecordResult{}, err
	}

	conversionDate := s.clock.Now()
	if req.ConversionDate != nil {
		conversionDate = *req.ConversionDate
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "USD"
	}

	conversion := domain.Conversion{
		ID:             s.genID.Generate(),
		OrderID:        orderID,
		OrderAmount:    req.OrderAmount,
		Currency:       currency,
		OfferID:        offer.ID,
		LinkID:         link.ID,
		ChannelID:      channel.ID,
		PublisherID:    publisher.ID,
		CustomerID:     customerID,
		ClickID:        req.ClickID,
		Status:         domain.ConversionStatusPending,
		ConversionDate: conversionDate,
		CreatedAt:      s.clock.Now(),
		UpdatedAt:      s.clock.Now(),
	}

	created, err := s.repo.Insert(ctx, s.db, &conversion)
	if err != nil {
		return domain.RecordResult{}, err
	}
	if !created {
		existing, err := s.repo.FindByOrderID(ctx, s.db, orderID)
		if err != nil {
			return domain.RecordResult{}, err
		}
		if existing == nil {
			return domain.RecordResult{}, domain.ErrInvalidOrder
		}
		conversion = *existing
	}

	fellBack := s.attributeTouchpoints(ctx, &conversion, link, directClick)

	breakdown, err := commission.CalculateEnhanced(
		conversion.OrderAmount,
		offer.CommissionRate,
		shareRate,
		commission.BonusConfig{
			VolumeBonuses: offer.BonusRules(),
			Tier:          publisher.BonusTier(),
		},
	)
	if err != nil {
		return domain.RecordResult{}, err
	}

	conversion.Commission = breakdown.TotalCommission
	conversion.PublisherCommission = breakdown.PublisherCommission
	conversion.PlatformCommission = breakdown.PlatformCommission
	if err := s.repo.UpdateCommission(ctx, s.db, &conversion); err != nil {
		return domain.RecordResult{}, err
	}

	entry, credited, err := s.ledger.Credit(ctx, ledgerdomain.CreditRequest{
		PublisherID:  publisher.ID,
		ChannelID:    channel.ID,
		ConversionID: conversion.ID,
		Amount:       breakdown.PublisherCommission,
	})
	if err != nil {
		return domain.RecordResult{}, err
	}

	if credited {
		if err := s.linkRepo.RecordConversion(ctx, s.db, link.ID, breakdown.PublisherCommission); err != nil {
			s.log.Error("link conversion counters failed",
				zap.String("link_id", link.ID.String()), zap.Error(err))
		}
	}

	s.metrics.RecordConversion(ctx, string(conversion.Status))

	return domain.RecordResult{
		Conversion: conversion,
		Commission: entry,
		Created:    created,
		Credited:   credited,
		FellBack:   fellBack,
	}, nil
}

func (s *Service) ListByPublisher(ctx context.Context, req domain.ListConversionsRequest) (domain.ListConversionsResponse, error) {
	if req.PublisherID == 0 {
		return domain.ListConversionsResponse{}, domain.ErrSourceNotFound
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	items, err := s.repo.ListByPublisher(ctx, s.db, req.PublisherID, pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  pageSize,
	})
	if err != nil {
		return domain.ListConversionsResponse{}, err
	}

	pageInfo := pagination.BuildCursorPageInfo(items, pageSize, func(c *domain.Conversion) string {
		token, err := pagination.EncodeCursor(pagination.Cursor{
			ID:        c.ID.String(),
			CreatedAt: c.CreatedAt.Format(time.RFC3339Nano),
		})
		if err != nil {
			return ""
		}
		return token
	})

	if len(items) > pageSize {
		items = items[:pageSize]
	}

	return domain.ListConversionsResponse{
		Conversions: items,
		PageInfo:    pageInfo,
	}, nil
}

// resolveSource finds the originating click and link: the attribution
// cookie's click when present, otherwise the referral code.
func (s *Service) resolveSource(ctx context.Context, req domain.RecordConversionRequest) (*clickdomain.Click, *linkdomain.AffiliateLink, error) {
	if req.ClickID != nil && *req.ClickID != 0 {
		click, err := s.clickRepo.FindByID(ctx, s.db, *req.ClickID)
		if err != nil {
			return nil, nil, err
		}
		if click != nil {
			link, err := s.linkRepo.FindByID(ctx, s.db, click.LinkID)
			if err != nil {
				return nil, nil, err
			}
			if link != nil {
				return click, link, nil
			}
		}
	}

	code := strings.TrimSpace(req.ReferralCode)
	if code == "" {
		return nil, nil, domain.ErrSourceNotFound
	}
	link, err := s.linkRepo.FindByCode(ctx, s.db, code)
	if err != nil {
		return nil, nil, err
	}
	if link == nil {
		return nil, nil, domain.ErrSourceNotFound
	}
	return nil, link, nil
}

// attributeTouchpoints runs the link's model over the customer's clicks in
// the attribution window and writes the weights back. Nothing here may
// fail the conversion: errors log and the flow continues.
func (s *Service) attributeTouchpoints(ctx context.Context, conversion *domain.Conversion, link *linkdomain.AffiliateLink, directClick *clickdomain.Click) bool {
	window := time.Duration(s.tracking.AttributionWindowDays) * 24 * time.Hour
	from := conversion.ConversionDate.Add(-window)

	clicks, err := s.clickRepo.TouchpointsInWindow(ctx, s.db, conversion.CustomerID, conversion.OfferID, from, conversion.ConversionDate)
	if err != nil {
		s.log.Warn("touchpoint query failed, skipping attribution", zap.Error(err))
		return false
	}
	if len(clicks) == 0 {
		return false
	}

	touchpoints := make([]attribution.Touchpoint, 0, len(clicks))
	for _, c := range clicks {
		touchpoints = append(touchpoints, attribution.Touchpoint{
			ClickID:    c.ID,
			LinkID:     c.LinkID,
			OccurredAt: c.CreatedAt,
		})
	}

	model := attribution.ParseModel(link.AttributionModel)
	result := s.engine.Attribute(ctx, model, touchpoints)
	conversion.AttributionModel = string(result.Model)

	for _, wt := range result.Weighted {
		if err := s.clickRepo.ApplyAttribution(ctx, s.db, wt.ClickID, string(result.Model), wt.Weight, string(wt.Role)); err != nil {
			s.log.Warn("attribution write failed",
				zap.String("click_id", wt.ClickID.String()), zap.Error(err))
		}
	}

	if directClick != nil {
		data := datatypes.JSONMap{
			"order_id":     conversion.OrderID,
			"order_amount": conversion.OrderAmount,
			"currency":     conversion.Currency,
		}
		if err := s.clickRepo.MarkConverted(ctx, s.db, directClick.ID, conversion.ID, data); err != nil {
			s.log.Warn("direct click conversion mark failed", zap.Error(err))
		}
	}

	return result.FellBack
}
