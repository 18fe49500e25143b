package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/offer/domain"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertOffer(ctx context.Context, db *gorm.DB, offer *domain.Offer) error {
	return db.WithContext(ctx).Create(offer).Error
}

func (r *repo) FindOfferByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Offer, error) {
	var offer domain.Offer
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&offer).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &offer, nil
}

func (r *repo) InsertChannel(ctx context.Context, db *gorm.DB, channel *domain.Channel) error {
	return db.WithContext(ctx).Create(channel).Error
}

func (r *repo) FindChannelByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Channel, error) {
	var channel domain.Channel
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&channel).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &channel, nil
}

func (r *repo) InsertChannelOffer(ctx context.Context, db *gorm.DB, pair *domain.ChannelOffer) error {
	return db.WithContext(ctx).Create(pair).Error
}

func (r *repo) FindChannelOffer(ctx context.Context, db *gorm.DB, channelID, offerID snowflake.ID) (*domain.ChannelOffer, error) {
	var pair domain.ChannelOffer
	err := db.WithContext(ctx).
		Where("channel_id = ? AND offer_id = ?", channelID, offerID).
		Take(&pair).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &pair, nil
}
