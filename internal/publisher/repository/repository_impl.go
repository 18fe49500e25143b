package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/publisher/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, publisher *domain.Publisher) error {
	return db.WithContext(ctx).Create(publisher).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Publisher, error) {
	var publisher domain.Publisher
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&publisher).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &publisher, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.Publisher, error) {
	var publishers []*domain.Publisher
	err := db.WithContext(ctx).
		Order("created_at desc, id desc").
		Find(&publishers).Error
	if err != nil {
		return nil, err
	}
	return publishers, nil
}
