package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/clock"
	"github.com/refgate/refgate/internal/config"
	"github.com/refgate/refgate/internal/ledger/domain"
	publisherdomain "github.com/refgate/refgate/internal/publisher/domain"
)

func setupLedger(t *testing.T) (*gorm.DB, *snowflake.Node, *clock.FakeClock, domain.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:ledgertest?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Commission{}, &publisherdomain.Publisher{}))
	db.Exec("DELETE FROM commissions")
	db.Exec("DELETE FROM publishers")

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 5, 1, 10, 0, 0, 0, time.UTC))

	svc := NewService(Params{
		DB:       db,
		Log:      zap.NewNop(),
		GenID:    node,
		Clock:    fake,
		Tracking: config.TrackingConfig{CommissionHoldDays: 30},
	})

	return db, node, fake, svc
}

func seedPublisher(t *testing.T, db *gorm.DB, node *snowflake.Node) publisherdomain.Publisher {
	t.Helper()
	publisher := publisherdomain.Publisher{
		ID:               node.Generate(),
		Name:             "Acme Media",
		Email:            "payouts@acme.test",
		DefaultShareRate: 80,
		Status:           publisherdomain.PublisherStatusActive,
	}
	require.NoError(t, db.Create(&publisher).Error)
	return publisher
}

func TestCreditCreatesEntryAndIncrementsBalance(t *testing.T) {
	db, node, fake, svc := setupLedger(t)
	publisher := seedPublisher(t, db, node)

	entry, created, err := svc.Credit(context.Background(), domain.CreditRequest{
		PublisherID:  publisher.ID,
		ChannelID:    node.Generate(),
		ConversionID: node.Generate(),
		Amount:       16.00,
	})
	require.NoError(t, err)
	require.True(t, created)
	require.Equal(t, domain.CommissionStatusPending, entry.Status)
	require.Equal(t, fake.Now().Add(30*24*time.Hour), entry.AvailableAt.UTC())

	var got publisherdomain.Publisher
	require.NoError(t, db.First(&got, "id = ?", publisher.ID).Error)
	require.Equal(t, 16.00, got.Balance)
	require.Equal(t, 16.00, got.TotalEarned)
}

func TestCreditIsIdempotentPerConversion(t *testing.T) {
	db, node, _, svc := setupLedger(t)
	publisher := seedPublisher(t, db, node)
	conversionID := node.Generate()

	req := domain.CreditRequest{
		PublisherID:  publisher.ID,
		ChannelID:    node.Generate(),
		ConversionID: conversionID,
		Amount:       9.00,
	}

	first, created, err := svc.Credit(context.Background(), req)
	require.NoError(t, err)
	require.True(t, created)

	second, created, err := svc.Credit(context.Background(), req)
	require.NoError(t, err)
	require.False(t, created)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&domain.Commission{}).
		Where("conversion_id = ?", conversionID).
		Count(&count).Error)
	require.Equal(t, int64(1), count)

	var got publisherdomain.Publisher
	require.NoError(t, db.First(&got, "id = ?", publisher.ID).Error)
	require.Equal(t, 9.00, got.Balance)
	require.Equal(t, 9.00, got.TotalEarned)
}

func TestCreditValidatesInput(t *testing.T) {
	_, node, _, svc := setupLedger(t)

	_, _, err := svc.Credit(context.Background(), domain.CreditRequest{
		ConversionID: node.Generate(),
		Amount:       1,
	})
	require.ErrorIs(t, err, domain.ErrInvalidPublisher)

	_, _, err = svc.Credit(context.Background(), domain.CreditRequest{
		PublisherID: node.Generate(),
		Amount:      1,
	})
	require.ErrorIs(t, err, domain.ErrInvalidConversion)

	_, _, err = svc.Credit(context.Background(), domain.CreditRequest{
		PublisherID:  node.Generate(),
		ConversionID: node.Generate(),
		Amount:       -1,
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)
}

func TestReleaseMaturesPendingEntries(t *testing.T) {
	db, node, fake, svc := setupLedger(t)
	publisher := seedPublisher(t, db, node)

	_, _, err := svc.Credit(context.Background(), domain.CreditRequest{
		PublisherID:  publisher.ID,
		ChannelID:    node.Generate(),
		ConversionID: node.Generate(),
		Amount:       5.00,
	})
	require.NoError(t, err)

	released, err := svc.Release(context.Background())
	require.NoError(t, err)
	require.Zero(t, released)

	fake.Advance(31 * 24 * time.Hour)

	released, err = svc.Release(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(1), released)

	var entry domain.Commission
	require.NoError(t, db.First(&entry).Error)
	require.Equal(t, domain.CommissionStatusAvailable, entry.Status)
}

func TestStatsForPublisher(t *testing.T) {
	db, node, fake, svc := setupLedger(t)
	publisher := seedPublisher(t, db, node)

	for _, amount := range []float64{10, 20} {
		_, _, err := svc.Credit(context.Background(), domain.CreditRequest{
			PublisherID:  publisher.ID,
			ChannelID:    node.Generate(),
			ConversionID: node.Generate(),
			Amount:       amount,
		})
		require.NoError(t, err)
	}

	fake.Advance(31 * 24 * time.Hour)
	_, err := svc.Release(context.Background())
	require.NoError(t, err)

	_, _, err = svc.Credit(context.Background(), domain.CreditRequest{
		PublisherID:  publisher.ID,
		ChannelID:    node.Generate(),
		ConversionID: node.Generate(),
		Amount:       7,
	})
	require.NoError(t, err)

	stats, err := svc.StatsForPublisher(context.Background(), publisher.ID)
	require.NoError(t, err)
	require.Equal(t, 30.0, stats.Available)
	require.Equal(t, 7.0, stats.Pending)
	require.Equal(t, 37.0, stats.Total)
}
