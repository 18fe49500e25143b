package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/clock"
	"github.com/refgate/refgate/internal/link/domain"
	"github.com/refgate/refgate/internal/link/repository"
)

func setupLink(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:linktest?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.AffiliateLink{}))
	db.Exec("DELETE FROM affiliate_links")

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: clock.NewFakeClock(time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC)),
		Repo:  repository.Provide(),
	})
	return svc, db, node
}

func TestCreateLink(t *testing.T) {
	svc, _, node := setupLink(t)

	link, err := svc.Create(context.Background(), domain.CreateLinkRequest{
		Code:             "winter-deal",
		URL:              "https://shop.example/winter",
		ChannelID:        node.Generate(),
		OfferID:          node.Generate(),
		AttributionModel: "time-decay",
	})
	require.NoError(t, err)
	require.Equal(t, "winter-deal", link.Code)
	require.Equal(t, domain.LinkStatusActive, link.Status)
	require.Equal(t, "time-decay", link.AttributionModel)

	fetched, err := svc.GetByCode(context.Background(), "winter-deal")
	require.NoError(t, err)
	require.Equal(t, link.ID, fetched.ID)
}

func TestCreateLinkGeneratesCodeFromName(t *testing.T) {
	svc, _, node := setupLink(t)

	link, err := svc.Create(context.Background(), domain.CreateLinkRequest{
		URL:       "https://shop.example/sale",
		Name:      "Black Friday BLOWOUT!",
		ChannelID: node.Generate(),
		OfferID:   node.Generate(),
	})
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(link.Code, "black-friday-blowout-"), link.Code)

	// No name at all still yields a usable code.
	bare, err := svc.Create(context.Background(), domain.CreateLinkRequest{
		URL:       "https://shop.example/sale",
		ChannelID: node.Generate(),
		OfferID:   node.Generate(),
	})
	require.NoError(t, err)
	require.NotEmpty(t, bare.Code)
	require.NotEqual(t, link.Code, bare.Code)
}

func TestCreateLinkValidation(t *testing.T) {
	svc, _, node := setupLink(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, domain.CreateLinkRequest{
		Code: "ok-code",
		URL:  "ftp://shop.example/file",
	})
	require.ErrorIs(t, err, domain.ErrInvalidURL)

	_, err = svc.Create(ctx, domain.CreateLinkRequest{
		Code: "###",
		URL:  "https://shop.example",
	})
	require.ErrorIs(t, err, domain.ErrInvalidCode)

	channelID, offerID := node.Generate(), node.Generate()
	_, err = svc.Create(ctx, domain.CreateLinkRequest{
		Code:      "taken",
		URL:       "https://shop.example",
		ChannelID: channelID,
		OfferID:   offerID,
	})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateLinkRequest{
		Code:      "taken",
		URL:       "https://shop.example",
		ChannelID: channelID,
		OfferID:   offerID,
	})
	require.ErrorIs(t, err, domain.ErrDuplicateCode)
}

func TestCreateLinkUnknownModelDefaultsToLastClick(t *testing.T) {
	svc, _, node := setupLink(t)

	link, err := svc.Create(context.Background(), domain.CreateLinkRequest{
		Code:             "model-test",
		URL:              "https://shop.example",
		ChannelID:        node.Generate(),
		OfferID:          node.Generate(),
		AttributionModel: "made-up-model",
	})
	require.NoError(t, err)
	require.Equal(t, "last-click", link.AttributionModel)
}
