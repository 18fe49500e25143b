package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/attribution"
	"github.com/refgate/refgate/internal/clock"
	"github.com/refgate/refgate/internal/link/domain"
	"github.com/refgate/refgate/pkg/db"
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
		log:   p.Log.Named("link.service"),
		genID: p.GenID,
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateLinkRequest) (domain.AffiliateLink, error) {
	code := strings.TrimSpace(req.Code)
	if code == "" {
		code = s.generateCode(req.Name)
	} else if slug.Make(code) == "" {
		return domain.AffiliateLink{}, domain.ErrInvalidCode
	}

	url := strings.TrimSpace(req.URL)
	if url == "" || !(strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")) {
		return domain.AffiliateLink{}, domain.ErrInvalidURL
	}

	model := attribution.ParseModel(req.AttributionModel)

	now := s.clock.Now()
	link := domain.AffiliateLink{
		ID:               s.genID.Generate(),
		Code:             code,
		URL:              url,
		Name:             strings.TrimSpace(req.Name),
		Source:           strings.TrimSpace(req.Source),
		ChannelID:        req.ChannelID,
		OfferID:          req.OfferID,
		Status:           domain.LinkStatusActive,
		ExpiresAt:        req.ExpiresAt,
		MaxClicks:        req.MaxClicks,
		AttributionModel: string(model),
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := s.repo.Insert(ctx, s.db, &link); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.AffiliateLink{}, domain.ErrDuplicateCode
		}
		return domain.AffiliateLink{}, err
	}
	return link, nil
}

// generateCode builds a referral code from the link name plus a snowflake
// suffix so generated codes stay unique without a retry loop.
func (s *Service) generateCode(name string) string {
	suffix := strings.ToLower(s.genID.Generate().Base36())
	if base := slug.Make(name); base != "" {
		return base + "-" + suffix
	}
	return suffix
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (domain.AffiliateLink, error) {
	link, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return domain.AffiliateLink{}, err
	}
	if link == nil {
		return domain.AffiliateLink{}, domain.ErrNotFound
	}
	return *link, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (domain.AffiliateLink, error) {
	link, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return domain.AffiliateLink{}, err
	}
	if link == nil {
		return domain.AffiliateLink{}, domain.ErrNotFound
	}
	return *link, nil
}
