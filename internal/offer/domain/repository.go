package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	InsertOffer(ctx context.Context, db *gorm.DB, offer *Offer) error
	FindOfferByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Offer, error)
	InsertChannel(ctx context.Context, db *gorm.DB, channel *Channel) error
	FindChannelByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Channel, error)
	InsertChannelOffer(ctx context.Context, db *gorm.DB, pair *ChannelOffer) error
	FindChannelOffer(ctx context.Context, db *gorm.DB, channelID, offerID snowflake.ID) (*ChannelOffer, error)
}
