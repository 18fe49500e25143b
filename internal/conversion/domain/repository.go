package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/refgate/refgate/pkg/db/pagination"
)

type Repository interface {
	// Insert stores the conversion unless its order already exists.
	// Returns false when the unique order index rejected the row.
	Insert(ctx context.Context, db *gorm.DB, conversion *Conversion) (bool, error)
	FindByOrderID(ctx context.Context, db *gorm.DB, orderID string) (*Conversion, error)
	UpdateCommission(ctx context.Context, db *gorm.DB, conversion *Conversion) error
	ListByPublisher(ctx context.Context, db *gorm.DB, publisherID snowflake.ID, page pagination.Pagination) ([]*Conversion, error)
}
