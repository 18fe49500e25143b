package service

import (
	"context"
	"math"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/reporting/domain"
)

type Params struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger
}

type Service struct {
	db  *gorm.DB
	log *zap.Logger
}

func New(p Params) domain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("reporting.service"),
	}
}

func (s *Service) LinkStats(ctx context.Context, linkID snowflake.ID, r domain.Range) (domain.Stats, error) {
	return s.stats(ctx, "link_id", linkID, r)
}

func (s *Service) ChannelStats(ctx context.Context, channelID snowflake.ID, r domain.Range) (domain.Stats, error) {
	return s.stats(ctx, "channel_id", channelID, r)
}

func (s *Service) stats(ctx context.Context, column string, id snowflake.ID, r domain.Range) (domain.Stats, error) {
	var stats domain.Stats

	clickStmt := s.db.WithContext(ctx).
		Table("clicks").
		Select("COUNT(*) AS total_clicks, COUNT(DISTINCT customer_id) AS unique_clicks").
		Where(column+" = ? AND is_valid = ?", id, true)
	clickStmt = applyRange(clickStmt, "created_at", r)

	var clickRow struct {
		TotalClicks  int64
		UniqueClicks int64
	}
	if err := clickStmt.Scan(&clickRow).Error; err != nil {
		return domain.Stats{}, err
	}

	convStmt := s.db.WithContext(ctx).
		Table("conversions").
		Select(`COUNT(*) AS conversions,
			COALESCE(SUM(order_amount), 0) AS order_amount,
			COALESCE(SUM(publisher_commission), 0) AS commission`).
		Where(column+" = ?", id)
	convStmt = applyRange(convStmt, "conversion_date", r)

	var convRow struct {
		Conversions int64
		OrderAmount float64
		Commission  float64
	}
	if err := convStmt.Scan(&convRow).Error; err != nil {
		return domain.Stats{}, err
	}

	stats.TotalClicks = clickRow.TotalClicks
	stats.UniqueClicks = clickRow.UniqueClicks
	stats.Conversions = convRow.Conversions
	stats.OrderAmount = round2(convRow.OrderAmount)
	stats.Commission = round2(convRow.Commission)
	if stats.UniqueClicks > 0 {
		stats.ConversionRate = round2(float64(stats.Conversions) / float64(stats.UniqueClicks) * 100)
	}
	if stats.TotalClicks > 0 {
		stats.EPC = round2(stats.Commission / float64(stats.TotalClicks))
	}

	return stats, nil
}

func applyRange(stmt *gorm.DB, column string, r domain.Range) *gorm.DB {
	if !r.From.IsZero() {
		stmt = stmt.Where(column+" >= ?", r.From)
	}
	if !r.To.IsZero() {
		stmt = stmt.Where(column+" <= ?", r.To)
	}
	return stmt
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
