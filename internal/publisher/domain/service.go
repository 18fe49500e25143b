package domain

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"

	"github.com/refgate/refgate/internal/commission"
)

type CreatePublisherRequest struct {
	Name             string
	Email            string
	DefaultShareRate float64
	Tier             *commission.Tier
}

type Service interface {
	Create(context.Context, CreatePublisherRequest) (Publisher, error)
	GetByID(context.Context, snowflake.ID) (Publisher, error)
	List(context.Context) ([]*Publisher, error)
}

var (
	ErrInvalidName  = errors.New("invalid_name")
	ErrInvalidEmail = errors.New("invalid_email")
	ErrInvalidRate  = errors.New("invalid_share_rate")
	ErrNotFound     = errors.New("publisher_not_found")
)
