package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/click/domain"
	"github.com/refgate/refgate/internal/clock"
	linkdomain "github.com/refgate/refgate/internal/link/domain"
	"github.com/refgate/refgate/internal/observability/metrics"
)

type TrackerParams struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Repo      domain.Repository
	Validator domain.Validator
	LinkRepo  linkdomain.Repository
	Metrics   *metrics.Metrics `optional:"true"`
}

// Tracker validates an incoming click, records it with its verdict and
// maintains the link counters. The redirect itself is the caller's job
// and must proceed whenever a link was resolved, whatever happens here.
type Tracker struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	repo      domain.Repository
	validator domain.Validator
	linkRepo  linkdomain.Repository
	metrics   *metrics.Metrics
}

func NewTracker(p TrackerParams) domain.Tracker {
	return &Tracker{
		db:        p.DB,
		log:       p.Log.Named("click.tracker"),
		genID:     p.GenID,
		clock:     p.Clock,
		repo:      p.Repo,
		validator: p.Validator,
		linkRepo:  p.LinkRepo,
		metrics:   p.Metrics,
	}
}

func (t *Tracker) Track(ctx context.Context, candidate domain.Candidate) (domain.TrackResult, error) {
	now := t.clock.Now()

	result := domain.TrackResult{
		CustomerID: candidate.CustomerID,
		Timestamp:  now,
	}
	if result.CustomerID == "" {
		result.CustomerID = uuid.NewString()
		result.NewCustomer = true
		candidate.CustomerID = result.CustomerID
	}
	result.SessionID = candidate.SessionID
	if result.SessionID == "" {
		result.SessionID = ulid.Make().String()
		result.NewSession = true
		candidate.SessionID = result.SessionID
	}

	verdict, link := t.validator.Validate(ctx, candidate)
	result.Verdict = verdict
	result.Link = link
	if link == nil {
		return result, domain.ErrLinkNotFound
	}

	firstByCustomer := false
	if verdict.Valid {
		since := now.Add(-24 * time.Hour)
		prior, err := t.repo.CountByCustomerOnLinkSince(ctx, t.db, candidate.CustomerID, link.ID, since)
		if err != nil {
			t.log.Warn("unique click check failed", zap.Error(err))
		} else {
			firstByCustomer = prior == 0
		}
	}

	click := &domain.Click{
		ID:               t.genID.Generate(),
		LinkID:           link.ID,
		ChannelID:        link.ChannelID,
		OfferID:          link.OfferID,
		ReferralCode:     link.Code,
		CustomerID:       candidate.CustomerID,
		SessionID:        candidate.SessionID,
		IP:               candidate.IP,
		UserAgent:        candidate.UserAgent,
		Referrer:         candidate.Referrer,
		Device:           DeviceFromUserAgent(candidate.UserAgent),
		Browser:          BrowserFromUserAgent(candidate.UserAgent),
		IsValid:          verdict.Valid,
		InvalidReason:    string(verdict.Reason),
		AttributionModel: link.AttributionModel,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	if err := t.repo.Insert(ctx, t.db, click); err != nil {
		t.log.Error("click insert failed", zap.String("code", link.Code), zap.Error(err))
		return result, err
	}
	result.Click = click

	if verdict.Valid {
		counted, err := t.linkRepo.IncrementClicks(ctx, t.db, link.ID)
		if err != nil {
			t.log.Error("click counter increment failed", zap.Error(err))
		} else if !counted {
			// The cap was hit between validation and the increment.
			// The guard kept the counter intact; demote the click.
			result.Verdict = domain.Rejected(domain.ReasonLinkMaxClicksReached)
			click.IsValid = false
			click.InvalidReason = string(domain.ReasonLinkMaxClicksReached)
			if err := t.repo.Invalidate(ctx, t.db, click.ID, domain.ReasonLinkMaxClicksReached); err != nil {
				t.log.Error("click invalidation failed", zap.Error(err))
			}
		} else if firstByCustomer {
			if err := t.linkRepo.IncrementUniqueClicks(ctx, t.db, link.ID); err != nil {
				t.log.Error("unique click increment failed", zap.Error(err))
			}
		}
	}

	t.metrics.RecordClick(ctx, result.Verdict.Valid)
	if !result.Verdict.Valid {
		t.metrics.RecordClickRejected(ctx, string(result.Verdict.Reason))
	}

	return result, nil
}
