package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, click *Click) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Click, error)

	// CountByLinkAndIPSince counts clicks (valid or not) on a link from an
	// IP at or after since. The boundary is inclusive.
	CountByLinkAndIPSince(ctx context.Context, db *gorm.DB, linkID snowflake.ID, ip string, since time.Time) (int64, error)
	CountByIPSince(ctx context.Context, db *gorm.DB, ip string, since time.Time) (int64, error)
	CountByCustomerOnLinkSince(ctx context.Context, db *gorm.DB, customerID string, linkID snowflake.ID, since time.Time) (int64, error)

	// TouchpointsInWindow returns the customer's valid clicks for the offer
	// inside [from, to], oldest first.
	TouchpointsInWindow(ctx context.Context, db *gorm.DB, customerID string, offerID snowflake.ID, from, to time.Time) ([]*Click, error)

	ApplyAttribution(ctx context.Context, db *gorm.DB, clickID snowflake.ID, model string, weight float64, role string) error
	MarkConverted(ctx context.Context, db *gorm.DB, clickID, conversionID snowflake.ID, data datatypes.JSONMap) error
	Invalidate(ctx context.Context, db *gorm.DB, clickID snowflake.ID, reason Reason) error
}
