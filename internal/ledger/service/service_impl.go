package service

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/clock"
	"github.com/refgate/refgate/internal/config"
	"github.com/refgate/refgate/internal/ledger/domain"
	"github.com/refgate/refgate/internal/observability/metrics"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Clock    clock.Clock
	Tracking config.TrackingConfig
	Metrics  *metrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	clock    clock.Clock
	tracking config.TrackingConfig
	metrics  *metrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("ledger.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		tracking: p.Tracking,
		metrics:  p.Metrics,
	}
}

// Credit inserts the commission entry and increments the publisher balance
// in one transaction. The unique conversion_id index carries the
// idempotency: a replayed conversion inserts zero rows and the balance
// update is skipped, so a partial double credit cannot happen.
func (s *Service) Credit(ctx context.Context, req domain.CreditRequest) (domain.Commission, bool, error) {
	if req.PublisherID == 0 {
		return domain.Commission{}, false, domain.ErrInvalidPublisher
	}
	if req.ConversionID == 0 {
		return domain.Commission{}, false, domain.ErrInvalidConversion
	}
	if req.Amount < 0 {
		return domain.Commission{}, false, domain.ErrInvalidAmount
	}

	now := s.clock.Now()
	entry := domain.Commission{
		ID:           s.genID.Generate(),
		PublisherID:  req.PublisherID,
		ChannelID:    req.ChannelID,
		ConversionID: req.ConversionID,
		Amount:       req.Amount,
		Status:       domain.CommissionStatusPending,
		AvailableAt:  now.Add(time.Duration(s.tracking.CommissionHoldDays) * 24 * time.Hour),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	inserted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Exec(
			`INSERT INTO commissions (
				id, publisher_id, channel_id, conversion_id, amount, status, available_at, created_at, updated_at
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (conversion_id) DO NOTHING`,
			entry.ID,
			entry.PublisherID,
			entry.ChannelID,
			entry.ConversionID,
			entry.Amount,
			entry.Status,
			entry.AvailableAt,
			entry.CreatedAt,
			entry.UpdatedAt,
		)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return nil
		}
		inserted = true

		return tx.Exec(
			`UPDATE publishers
			 SET balance = balance + ?,
			     total_earned = total_earned + ?,
			     updated_at = ?
			 WHERE id = ?`,
			entry.Amount,
			entry.Amount,
			now,
			entry.PublisherID,
		).Error
	})
	if err != nil {
		return domain.Commission{}, false, err
	}

	if !inserted {
		s.log.Info("commission replay skipped",
			zap.String("conversion_id", req.ConversionID.String()),
			zap.String("publisher_id", req.PublisherID.String()))
		s.metrics.RecordLedgerCredit(ctx, true)

		var existing domain.Commission
		if err := s.db.WithContext(ctx).
			Where("conversion_id = ?", req.ConversionID).
			Take(&existing).Error; err != nil {
			return domain.Commission{}, false, err
		}
		return existing, false, nil
	}

	s.metrics.RecordLedgerCredit(ctx, false)
	return entry, true, nil
}

// Release moves matured pending entries to available.
func (s *Service) Release(ctx context.Context) (int64, error) {
	now := s.clock.Now()
	result := s.db.WithContext(ctx).Exec(
		`UPDATE commissions
		 SET status = ?, updated_at = ?
		 WHERE status = ? AND available_at <= ?`,
		domain.CommissionStatusAvailable,
		now,
		domain.CommissionStatusPending,
		now,
	)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected > 0 {
		s.log.Info("commissions released", zap.Int64("count", result.RowsAffected))
	}
	return result.RowsAffected, nil
}

func (s *Service) StatsForPublisher(ctx context.Context, publisherID snowflake.ID) (domain.PublisherStats, error) {
	if publisherID == 0 {
		return domain.PublisherStats{}, domain.ErrInvalidPublisher
	}

	var rows []struct {
		Status domain.CommissionStatus
		Sum    float64
	}
	err := s.db.WithContext(ctx).
		Model(&domain.Commission{}).
		Select("status, COALESCE(SUM(amount), 0) AS sum").
		Where("publisher_id = ?", publisherID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return domain.PublisherStats{}, err
	}

	stats := domain.PublisherStats{PublisherID: publisherID}
	for _, row := range rows {
		switch row.Status {
		case domain.CommissionStatusPending:
			stats.Pending = row.Sum
		case domain.CommissionStatusAvailable:
			stats.Available = row.Sum
		case domain.CommissionStatusLocked:
			stats.Locked = row.Sum
		}
		stats.Total += row.Sum
	}
	return stats, nil
}
