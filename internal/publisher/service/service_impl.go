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
	"github.com/refgate/refgate/internal/publisher/domain"
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
		log:   p.Log.Named("publisher.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreatePublisherRequest) (domain.Publisher, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Publisher{}, domain.ErrInvalidName
	}

	email := strings.TrimSpace(req.Email)
	if email == "" || !strings.Contains(email, "@") {
		return domain.Publisher{}, domain.ErrInvalidEmail
	}

	shareRate := req.DefaultShareRate
	if shareRate == 0 {
		shareRate = domain.DefaultShareRate
	}
	if shareRate < 0 || shareRate > 100 {
		return domain.Publisher{}, domain.ErrInvalidRate
	}

	tier := datatypes.JSONMap{}
	if req.Tier != nil {
		tier = datatypes.JSONMap{
			"level": req.Tier.Level,
			"name":  req.Tier.Name,
			"bonus": req.Tier.Bonus,
		}
	}

	now := s.clock.Now()
	publisher := domain.Publisher{
		ID:               s.genID.Generate(),
		Name:             name,
		Email:            email,
		DefaultShareRate: shareRate,
		Status:           domain.PublisherStatusActive,
		Tier:             tier,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Insert(ctx, s.db, &publisher); err != nil {
		return domain.Publisher{}, err
	}

	return publisher, nil
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.Publisher, error) {
	publisher, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.Publisher{}, err
	}
	if publisher == nil {
		return domain.Publisher{}, domain.ErrNotFound
	}
	return *publisher, nil
}

func (s *Service) List(ctx context.Context) ([]*domain.Publisher, error) {
	return s.repo.List(ctx, s.db)
}
