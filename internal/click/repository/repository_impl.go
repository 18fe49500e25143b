package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/click/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, click *domain.Click) error {
	return db.WithContext(ctx).Create(click).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Click, error) {
	var click domain.Click
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&click).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &click, nil
}

func (r *repo) CountByLinkAndIPSince(ctx context.Context, db *gorm.DB, linkID snowflake.ID, ip string, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Click{}).
		Where("link_id = ? AND ip = ? AND created_at >= ?", linkID, ip, since).
		Count(&count).Error
	return count, err
}

func (r *repo) CountByIPSince(ctx context.Context, db *gorm.DB, ip string, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Click{}).
		Where("ip = ? AND created_at >= ?", ip, since).
		Count(&count).Error
	return count, err
}

func (r *repo) CountByCustomerOnLinkSince(ctx context.Context, db *gorm.DB, customerID string, linkID snowflake.ID, since time.Time) (int64, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Click{}).
		Where("customer_id = ? AND link_id = ? AND created_at >= ?", customerID, linkID, since).
		Count(&count).Error
	return count, err
}

func (r *repo) TouchpointsInWindow(ctx context.Context, db *gorm.DB, customerID string, offerID snowflake.ID, from, to time.Time) ([]*domain.Click, error) {
	var clicks []*domain.Click
	err := db.WithContext(ctx).
		Where("customer_id = ? AND offer_id = ? AND is_valid = ? AND created_at BETWEEN ? AND ?",
			customerID, offerID, true, from, to).
		Order("created_at asc, id asc").
		Find(&clicks).Error
	if err != nil {
		return nil, err
	}
	return clicks, nil
}

func (r *repo) ApplyAttribution(ctx context.Context, db *gorm.DB, clickID snowflake.ID, model string, weight float64, role string) error {
	return db.WithContext(ctx).Exec(
		`UPDATE clicks
		 SET attribution_model = ?, attribution_weight = ?, touchpoint_role = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		model, weight, role, clickID,
	).Error
}

func (r *repo) MarkConverted(ctx context.Context, db *gorm.DB, clickID, conversionID snowflake.ID, data datatypes.JSONMap) error {
	return db.WithContext(ctx).Model(&domain.Click{}).
		Where("id = ?", clickID).
		Updates(map[string]any{
			"converted":       true,
			"conversion_id":   conversionID,
			"conversion_data": data,
		}).Error
}

func (r *repo) Invalidate(ctx context.Context, db *gorm.DB, clickID snowflake.ID, reason domain.Reason) error {
	return db.WithContext(ctx).Exec(
		`UPDATE clicks
		 SET is_valid = ?, invalid_reason = ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		false, string(reason), clickID,
	).Error
}
