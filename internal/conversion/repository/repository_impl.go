package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/conversion/domain"
	"github.com/refgate/refgate/pkg/db/option"
	"github.com/refgate/refgate/pkg/db/pagination"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, conversion *domain.Conversion) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`INSERT INTO conversions (
			id, order_id, order_amount, currency, offer_id, link_id, channel_id, publisher_id,
			customer_id, click_id, commission, publisher_commission, platform_commission,
			attribution_model, status, conversion_date, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (order_id) DO NOTHING`,
		conversion.ID,
		conversion.OrderID,
		conversion.OrderAmount,
		conversion.Currency,
		conversion.OfferID,
		conversion.LinkID,
		conversion.ChannelID,
		conversion.PublisherID,
		conversion.CustomerID,
		conversion.ClickID,
		conversion.Commission,
		conversion.PublisherCommission,
		conversion.PlatformCommission,
		conversion.AttributionModel,
		conversion.Status,
		conversion.ConversionDate,
		conversion.CreatedAt,
		conversion.UpdatedAt,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*domain.Conversion, error) {
	var conversion domain.Conversion
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Take(&conversion).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &conversion, nil
}

func (r *repo) UpdateCommission(ctx context.Context, db *gorm.DB, conversion *domain.Conversion) error {
	return db.WithContext(ctx).Exec(
		`UPDATE conversions
		 SET commission = ?, publisher_commission = ?, platform_commission = ?,
		     attribution_model = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		conversion.Commission,
		conversion.PublisherCommission,
		conversion.PlatformCommission,
		conversion.AttributionModel,
		conversion.ID,
	).Error
}

func (r *repo) ListByPublisher(ctx context.Context, db *gorm.DB, publisherID snowflake.ID, page pagination.Pagination) ([]*domain.Conversion, error) {
	var conversions []*domain.Conversion
	stmt := db.WithContext(ctx).
		Model(&domain.Conversion{}).
		Where("publisher_id = ?", publisherID)
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&conversions).Error
	if err != nil {
		return nil, err
	}
	return conversions, nil
}
