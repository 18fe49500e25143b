package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, link *AffiliateLink) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*AffiliateLink, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*AffiliateLink, error)

	// IncrementClicks bumps the click counter, guarded in SQL so the counter
	// can never pass max_clicks. Returns false when the guard blocked it.
	IncrementClicks(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	IncrementUniqueClicks(ctx context.Context, db *gorm.DB, id snowflake.ID) error
	RecordConversion(ctx context.Context, db *gorm.DB, id snowflake.ID, commission float64) error
}
