package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, publisher *Publisher) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Publisher, error)
	List(ctx context.Context, db *gorm.DB) ([]*Publisher, error)
}
