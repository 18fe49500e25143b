package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/link/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, link *domain.AffiliateLink) error {
	return db.WithContext(ctx).Create(link).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.AffiliateLink, error) {
	var link domain.AffiliateLink
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&link).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.AffiliateLink, error) {
	var link domain.AffiliateLink
	err := db.WithContext(ctx).
		Where("code = ?", code).
		Take(&link).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

func (r *repo) IncrementClicks(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE affiliate_links
		 SET clicks = clicks + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND (max_clicks IS NULL OR clicks < max_clicks)`,
		id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) IncrementUniqueClicks(ctx context.Context, db *gorm.DB, id snowflake.ID) error {
	return db.WithContext(ctx).Exec(
		`UPDATE affiliate_links
		 SET unique_clicks = unique_clicks + 1, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ? AND unique_clicks < clicks`,
		id,
	).Error
}

func (r *repo) RecordConversion(ctx context.Context, db *gorm.DB, id snowflake.ID, commission float64) error {
	return db.WithContext(ctx).Exec(
		`UPDATE affiliate_links
		 SET conversions = conversions + 1,
		     commission = commission + ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		commission,
		id,
	).Error
}
