package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/attribution"
	clickdomain "github.com/refgate/refgate/internal/click/domain"
	clickrepository "github.com/refgate/refgate/internal/click/repository"
	"github.com/refgate/refgate/internal/clock"
	"github.com/refgate/refgate/internal/config"
	"github.com/refgate/refgate/internal/conversion/domain"
	"github.com/refgate/refgate/internal/conversion/repository"
	ledgerdomain "github.com/refgate/refgate/internal/ledger/domain"
	ledgerservice "github.com/refgate/refgate/internal/ledger/service"
	linkdomain "github.com/refgate/refgate/internal/link/domain"
	linkrepository "github.com/refgate/refgate/internal/link/repository"
	offerdomain "github.com/refgate/refgate/internal/offer/domain"
	offerrepository "github.com/refgate/refgate/internal/offer/repository"
	offerservice "github.com/refgate/refgate/internal/offer/service"
	publisherdomain "github.com/refgate/refgate/internal/publisher/domain"
	publisherrepository "github.com/refgate/refgate/internal/publisher/repository"
)

type conversionFixture struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   domain.Service

	publisher publisherdomain.Publisher
	offer     offerdomain.Offer
	channel   offerdomain.Channel
	link      linkdomain.AffiliateLink
}

func setupConversion(t *testing.T, attributionModel string) *conversionFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:conversiontest?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&domain.Conversion{},
		&clickdomain.Click{},
		&linkdomain.AffiliateLink{},
		&offerdomain.Offer{},
		&offerdomain.Channel{},
		&offerdomain.ChannelOffer{},
		&publisherdomain.Publisher{},
		&ledgerdomain.Commission{},
	))
	for _, table := range []string{"conversions", "clicks", "affiliate_links", "offers", "channels", "channel_offers", "publishers", "commissions"} {
		db.Exec("DELETE FROM " + table)
	}

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	tracking := config.TrackingConfig{
		AttributionWindowDays: 30,
		CommissionHoldDays:    30,
	}

	offerRepo := offerrepository.Provide()
	offerSvc := offerservice.New(offerservice.Params{
		DB:    db,
		Log:   log,
		GenID: node,
		Clock: fake,
		Repo:  offerRepo,
	})

	ledgerSvc := ledgerservice.NewService(ledgerservice.Params{
		DB:       db,
		Log:      log,
		GenID:    node,
		Clock:    fake,
		Tracking: tracking,
	})

	svc := NewService(Params{
		DB:            db,
		Log:           log,
		GenID:         node,
		Clock:         fake,
		Tracking:      tracking,
		Repo:          repository.Provide(),
		ClickRepo:     clickrepository.Provide(),
		LinkRepo:      linkrepository.Provide(),
		PublisherRepo: publisherrepository.Provide(),
		OfferSvc:      offerSvc,
		OfferRepo:     offerRepo,
		Engine:        attribution.NewEngine(log, nil),
		Ledger:        ledgerSvc,
	})

	f := &conversionFixture{db: db, node: node, clock: fake, svc: svc}

	f.publisher = publisherdomain.Publisher{
		ID:               node.Generate(),
		Name:             "Acme Media",
		Email:            "payouts@acme.test",
		DefaultShareRate: 80,
		Status:           publisherdomain.PublisherStatusActive,
		Tier:             datatypes.JSONMap{"level": 2, "name": "gold", "bonus": 5.0},
	}
	require.NoError(t, db.Create(&f.publisher).Error)

	f.offer = offerdomain.Offer{
		ID:             node.Generate(),
		Name:           "Spring Sale",
		CommissionRate: 10,
		VolumeBonuses:  datatypes.JSON([]byte(`[{"threshold":100,"bonus":2}]`)),
		Status:         offerdomain.OfferStatusActive,
	}
	require.NoError(t, db.Create(&f.offer).Error)

	f.channel = offerdomain.Channel{
		ID:          node.Generate(),
		PublisherID: f.publisher.ID,
		Name:        "Acme Blog",
	}
	require.NoError(t, db.Create(&f.channel).Error)

	shareRate := 90.0
	require.NoError(t, db.Create(&offerdomain.ChannelOffer{
		ID:        node.Generate(),
		ChannelID: f.channel.ID,
		OfferID:   f.offer.ID,
		ShareRate: &shareRate,
		Status:    "approved",
	}).Error)

	f.link = linkdomain.AffiliateLink{
		ID:               node.Generate(),
		Code:             "spring-blog",
		URL:              "https://shop.example/spring",
		ChannelID:        f.channel.ID,
		OfferID:          f.offer.ID,
		Status:           linkdomain.LinkStatusActive,
		AttributionModel: attributionModel,
		CreatedAt:        fake.Now(),
		UpdatedAt:        fake.Now(),
	}
	require.NoError(t, db.Create(&f.link).Error)

	return f
}

func (f *conversionFixture) seedClick(t *testing.T, customerID string, age time.Duration) clickdomain.Click {
	t.Helper()
	click := clickdomain.Click{
		ID:               f.node.Generate(),
		LinkID:           f.link.ID,
		ChannelID:        f.channel.ID,
		OfferID:          f.offer.ID,
		ReferralCode:     f.link.Code,
		CustomerID:       customerID,
		IP:               "203.0.113.10",
		IsValid:          true,
		AttributionModel: f.link.AttributionModel,
		CreatedAt:        f.clock.Now().Add(-age),
		UpdatedAt:        f.clock.Now().Add(-age),
	}
	require.NoError(t, f.db.Create(&click).Error)
	return click
}

func TestRecordConversionEndToEnd(t *testing.T) {
	f := setupConversion(t, "position-based")
	customer := "cust-1001"

	f.seedClick(t, customer, 72*time.Hour)
	f.seedClick(t, customer, 48*time.Hour)
	direct := f.seedClick(t, customer, time.Hour)

	result, err := f.svc.Record(context.Background(), domain.RecordConversionRequest{
		OrderID:     "order-7001",
		OrderAmount: 100,
		Currency:    "usd",
		CustomerID:  customer,
		ClickID:     &direct.ID,
	})
	require.NoError(t, err)
	require.True(t, result.Created)
	require.True(t, result.Credited)
	require.False(t, result.FellBack)

	// order 100 at 10% offer rate, 90% share, +2% volume bonus, +5 tier.
	require.Equal(t, 10.00, result.Conversion.Commission)
	require.Equal(t, 16.00, result.Conversion.PublisherCommission)
	require.Equal(t, 1.00, result.Conversion.PlatformCommission)
	require.Equal(t, "USD", result.Conversion.Currency)
	require.Equal(t, "position-based", result.Conversion.AttributionModel)

	var clicks []clickdomain.Click
	require.NoError(t, f.db.Order("created_at asc").Find(&clicks).Error)
	require.Len(t, clicks, 3)
	require.Equal(t, 0.4, clicks[0].AttributionWeight)
	require.Equal(t, 0.2, clicks[1].AttributionWeight)
	require.Equal(t, 0.4, clicks[2].AttributionWeight)
	require.True(t, clicks[2].Converted)
	require.NotNil(t, clicks[2].ConversionID)

	var entry ledgerdomain.Commission
	require.NoError(t, f.db.First(&entry, "conversion_id = ?", result.Conversion.ID).Error)
	require.Equal(t, 16.00, entry.Amount)
	require.Equal(t, ledgerdomain.CommissionStatusPending, entry.Status)

	var publisher publisherdomain.Publisher
	require.NoError(t, f.db.First(&publisher, "id = ?", f.publisher.ID).Error)
	require.Equal(t, 16.00, publisher.Balance)

	var link linkdomain.AffiliateLink
	require.NoError(t, f.db.First(&link, "id = ?", f.link.ID).Error)
	require.Equal(t, int64(1), link.Conversions)
	require.Equal(t, 16.00, link.Commission)
}

func TestRecordConversionReplayDoesNotDoubleCredit(t *testing.T) {
	f := setupConversion(t, "last-click")
	customer := "cust-2001"
	direct := f.seedClick(t, customer, time.Hour)

	req := domain.RecordConversionRequest{
		OrderID:     "order-8001",
		OrderAmount: 250,
		CustomerID:  customer,
		ClickID:     &direct.ID,
	}

	first, err := f.svc.Record(context.Background(), req)
	require.NoError(t, err)
	require.True(t, first.Created)
	require.True(t, first.Credited)

	second, err := f.svc.Record(context.Background(), req)
	require.NoError(t, err)
	require.False(t, second.Created)
	require.False(t, second.Credited)
	require.Equal(t, first.Conversion.ID, second.Conversion.ID)

	var conversions int64
	require.NoError(t, f.db.Model(&domain.Conversion{}).Count(&conversions).Error)
	require.Equal(t, int64(1), conversions)

	var entries int64
	require.NoError(t, f.db.Model(&ledgerdomain.Commission{}).Count(&entries).Error)
	require.Equal(t, int64(1), entries)

	var publisher publisherdomain.Publisher
	require.NoError(t, f.db.First(&publisher, "id = ?", f.publisher.ID).Error)
	require.Equal(t, first.Conversion.PublisherCommission, publisher.Balance)

	var link linkdomain.AffiliateLink
	require.NoError(t, f.db.First(&link, "id = ?", f.link.ID).Error)
	require.Equal(t, int64(1), link.Conversions)
}

func TestRecordConversionByReferralCode(t *testing.T) {
	f := setupConversion(t, "last-click")
	customer := "cust-3001"
	f.seedClick(t, customer, 2*time.Hour)

	result, err := f.svc.Record(context.Background(), domain.RecordConversionRequest{
		OrderID:      "order-9001",
		OrderAmount:  50,
		CustomerID:   customer,
		ReferralCode: f.link.Code,
	})
	require.NoError(t, err)
	require.True(t, result.Created)
	// 50 × 10% = 5 total; no volume bonus below threshold; tier adds 5.
	require.Equal(t, 5.00, result.Conversion.Commission)
	require.Equal(t, 9.50, result.Conversion.PublisherCommission)
}

func TestRecordConversionIgnoresTouchpointsOutsideWindow(t *testing.T) {
	f := setupConversion(t, "multi-touch")
	customer := "cust-4001"

	f.seedClick(t, customer, 40*24*time.Hour)
	inWindow := f.seedClick(t, customer, 24*time.Hour)
	direct := f.seedClick(t, customer, time.Hour)

	_, err := f.svc.Record(context.Background(), domain.RecordConversionRequest{
		OrderID:     "order-9500",
		OrderAmount: 100,
		CustomerID:  customer,
		ClickID:     &direct.ID,
	})
	require.NoError(t, err)

	var stale clickdomain.Click
	require.NoError(t, f.db.First(&stale, "created_at < ?", f.clock.Now().Add(-31*24*time.Hour)).Error)
	require.Zero(t, stale.AttributionWeight)

	var attributed clickdomain.Click
	require.NoError(t, f.db.First(&attributed, "id = ?", inWindow.ID).Error)
	require.Equal(t, 0.5, attributed.AttributionWeight)
}

func TestListByPublisherPagination(t *testing.T) {
	f := setupConversion(t, "last-click")

	for i, order := range []string{"order-a", "order-b", "order-c"} {
		at := f.clock.Now().Add(time.Duration(i) * time.Minute)
		require.NoError(t, f.db.Create(&domain.Conversion{
			ID:             f.node.Generate(),
			OrderID:        order,
			OrderAmount:    100,
			OfferID:        f.offer.ID,
			LinkID:         f.link.ID,
			ChannelID:      f.channel.ID,
			PublisherID:    f.publisher.ID,
			CustomerID:     "cust",
			ConversionDate: at,
			CreatedAt:      at,
			UpdatedAt:      at,
		}).Error)
	}

	resp, err := f.svc.ListByPublisher(context.Background(), domain.ListConversionsRequest{
		PublisherID: f.publisher.ID,
		PageSize:    2,
	})
	require.NoError(t, err)
	require.Len(t, resp.Conversions, 2)
	require.True(t, resp.PageInfo.HasMore)
	require.NotEmpty(t, resp.PageInfo.NextPageToken)
	// Newest first.
	require.Equal(t, "order-c", resp.Conversions[0].OrderID)

	all, err := f.svc.ListByPublisher(context.Background(), domain.ListConversionsRequest{
		PublisherID: f.publisher.ID,
		PageSize:    10,
	})
	require.NoError(t, err)
	require.Len(t, all.Conversions, 3)
	require.False(t, all.PageInfo.HasMore)
}

func TestRecordConversionValidation(t *testing.T) {
	f := setupConversion(t, "last-click")

	_, err := f.svc.Record(context.Background(), domain.RecordConversionRequest{
		OrderAmount: 10,
		CustomerID:  "cust",
	})
	require.ErrorIs(t, err, domain.ErrInvalidOrder)

	_, err = f.svc.Record(context.Background(), domain.RecordConversionRequest{
		OrderID:     "order-x",
		OrderAmount: -1,
		CustomerID:  "cust",
	})
	require.ErrorIs(t, err, domain.ErrInvalidAmount)

	_, err = f.svc.Record(context.Background(), domain.RecordConversionRequest{
		OrderID:     "order-y",
		OrderAmount: 10,
		CustomerID:  "cust",
	})
	require.ErrorIs(t, err, domain.ErrSourceNotFound)
}
