package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/clock"
	"github.com/refgate/refgate/internal/offer/domain"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("offer.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) CreateOffer(ctx context.Context, req domain.CreateOfferRequest) (domain.Offer, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Offer{}, domain.ErrInvalidName
	}
	if req.CommissionRate < 0 || req.CommissionRate > 100 {
		return domain.Offer{}, domain.ErrInvalidRate
	}

	now := s.clock.Now()
	offer := domain.Offer{
		ID:             s.genID.Generate(),
		Name:           name,
		Advertiser:     strings.TrimSpace(req.Advertiser),
		CommissionRate: req.CommissionRate,
		VolumeBonuses:  datatypes.JSON(req.VolumeBonuses),
		Status:         domain.OfferStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.InsertOffer(ctx, s.db, &offer); err != nil {
		return domain.Offer{}, err
	}
	return offer, nil
}

func (s *Service) GetOffer(ctx context.Context, id snowflake.ID) (domain.Offer, error) {
	offer, err := s.repo.FindOfferByID(ctx, s.db, id)
	if err != nil {
		return domain.Offer{}, err
	}
	if offer == nil {
		return domain.Offer{}, domain.ErrOfferNotFound
	}
	return *offer, nil
}

func (s *Service) CreateChannel(ctx context.Context, req domain.CreateChannelRequest) (domain.Channel, error) {
	if req.PublisherID == 0 {
		return domain.Channel{}, domain.ErrInvalidPublisher
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Channel{}, domain.ErrInvalidName
	}
	if req.ShareRate != nil && (*req.ShareRate < 0 || *req.ShareRate > 100) {
		return domain.Channel{}, domain.ErrInvalidRate
	}

	now := s.clock.Now()
	channel := domain.Channel{
		ID:          s.genID.Generate(),
		PublisherID: req.PublisherID,
		Name:        name,
		Type:        strings.TrimSpace(req.Type),
		ShareRate:   req.ShareRate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.InsertChannel(ctx, s.db, &channel); err != nil {
		return domain.Channel{}, err
	}
	return channel, nil
}

func (s *Service) GetChannel(ctx context.Context, id snowflake.ID) (domain.Channel, error) {
	channel, err := s.repo.FindChannelByID(ctx, s.db, id)
	if err != nil {
		return domain.Channel{}, err
	}
	if channel == nil {
		return domain.Channel{}, domain.ErrChannelNotFound
	}
	return *channel, nil
}

func (s *Service) ApproveChannelOffer(ctx context.Context, req domain.ApproveChannelOfferRequest) (domain.ChannelOffer, error) {
	if req.ShareRate != nil && (*req.ShareRate < 0 || *req.ShareRate > 100) {
		return domain.ChannelOffer{}, domain.ErrInvalidRate
	}

	pair := domain.ChannelOffer{
		ID:        s.genID.Generate(),
		ChannelID: req.ChannelID,
		OfferID:   req.OfferID,
		ShareRate: req.ShareRate,
		Status:    "approved",
		CreatedAt: s.clock.Now(),
	}

	if err := s.repo.InsertChannelOffer(ctx, s.db, &pair); err != nil {
		return domain.ChannelOffer{}, err
	}
	return pair, nil
}

func (s *Service) ResolveShareRate(ctx context.Context, channelID, offerID snowflake.ID, publisherDefault float64) (float64, error) {
	pair, err := s.repo.FindChannelOffer(ctx, s.db, channelID, offerID)
	if err != nil {
		return 0, err
	}
	if pair != nil && pair.ShareRate != nil {
		return *pair.ShareRate, nil
	}

	channel, err := s.repo.FindChannelByID(ctx, s.db, channelID)
	if err != nil {
		return 0, err
	}
	if channel != nil && channel.ShareRate != nil {
		return *channel.ShareRate, nil
	}

	return publisherDefault, nil
}
