package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/click/domain"
	"github.com/refgate/refgate/internal/clock"
	"github.com/refgate/refgate/internal/config"
	linkdomain "github.com/refgate/refgate/internal/link/domain"
	"github.com/refgate/refgate/internal/ratelimit"
)

type ValidatorParams struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Clock    clock.Clock
	Tracking config.TrackingConfig
	Repo     domain.Repository
	LinkRepo linkdomain.Repository
	Velocity *ratelimit.ClickVelocity `optional:"true"`
}

// Validator runs the ordered checks of the fraud pipeline. Checks
// short-circuit: only the first failure is reported. The duplicate and
// velocity lookups fail open so a degraded store never blocks traffic.
type Validator struct {
	db       *gorm.DB
	log      *zap.Logger
	clock    clock.Clock
	tracking config.TrackingConfig
	repo     domain.Repository
	linkRepo linkdomain.Repository
	velocity *ratelimit.ClickVelocity
}

func NewValidator(p ValidatorParams) domain.Validator {
	return &Validator{
		db:       p.DB,
		log:      p.Log.Named("click.validator"),
		clock:    p.Clock,
		tracking: p.Tracking,
		repo:     p.Repo,
		linkRepo: p.LinkRepo,
		velocity: p.Velocity,
	}
}

func (v *Validator) Validate(ctx context.Context, candidate domain.Candidate) (domain.Verdict, *linkdomain.AffiliateLink) {
	link, err := v.linkRepo.FindByCode(ctx, v.db, candidate.Code)
	if err != nil {
		v.log.Error("link lookup failed", zap.String("code", candidate.Code), zap.Error(err))
		return domain.Rejected(domain.ReasonLinkNotFound), nil
	}
	if link == nil {
		return domain.Rejected(domain.ReasonLinkNotFound), nil
	}

	now := v.clock.Now()

	if link.Status != linkdomain.LinkStatusActive {
		return domain.Rejected(domain.ReasonLinkInactive), link
	}
	if link.ExpiredAt(now) {
		return domain.Rejected(domain.ReasonLinkExpired), link
	}
	if link.AtClickCap() {
		return domain.Rejected(domain.ReasonLinkMaxClicksReached), link
	}

	if v.isDuplicate(ctx, link.ID, candidate.IP, now) {
		return domain.Rejected(domain.ReasonDuplicateClick), link
	}
	if v.isSuspiciousIP(ctx, candidate.IP, now) {
		return domain.Rejected(domain.ReasonSuspiciousIP), link
	}

	return domain.Accepted, link
}

func (v *Validator) isDuplicate(ctx context.Context, linkID snowflake.ID, ip string, now time.Time) bool {
	since := now.Add(-time.Duration(v.tracking.DuplicateWindowHours) * time.Hour)
	count, err := v.repo.CountByLinkAndIPSince(ctx, v.db, linkID, ip, since)
	if err != nil {
		v.log.Warn("duplicate check failed, passing click", zap.Error(err))
		return false
	}
	return count > 0
}

// isSuspiciousIP prefers the redis window counter; a missing or failing
// redis falls back to a database count, and a failing database passes.
func (v *Validator) isSuspiciousIP(ctx context.Context, ip string, now time.Time) bool {
	threshold := int64(v.tracking.SuspiciousIPThreshold)
	if threshold <= 0 {
		return false
	}

	if v.velocity.Enabled() {
		count, err := v.velocity.Observe(ctx, ip)
		if err == nil {
			return count >= threshold
		}
		v.log.Warn("velocity counter unavailable, falling back to database", zap.Error(err))
	}

	since := now.Add(-24 * time.Hour)
	count, err := v.repo.CountByIPSince(ctx, v.db, ip, since)
	if err != nil {
		v.log.Warn("ip velocity check failed, passing click", zap.Error(err))
		return false
	}
	return count >= threshold
}
