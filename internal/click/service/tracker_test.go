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

	"github.com/refgate/refgate/internal/click/domain"
	"github.com/refgate/refgate/internal/click/repository"
	"github.com/refgate/refgate/internal/clock"
	"github.com/refgate/refgate/internal/config"
	linkdomain "github.com/refgate/refgate/internal/link/domain"
	linkrepository "github.com/refgate/refgate/internal/link/repository"
)

type trackerFixture struct {
	db      *gorm.DB
	node    *snowflake.Node
	clock   *clock.FakeClock
	tracker domain.Tracker
}

func setupTracker(t *testing.T) *trackerFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:clicktest?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Click{}, &linkdomain.AffiliateLink{}))
	db.Exec("DELETE FROM clicks")
	db.Exec("DELETE FROM affiliate_links")

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	fake := clock.NewFakeClock(time.Date(2026, 4, 1, 9, 0, 0, 0, time.UTC))
	log := zap.NewNop()
	clickRepo := repository.Provide()
	linkRepo := linkrepository.Provide()

	tracking := config.TrackingConfig{
		DuplicateWindowHours:  24,
		SuspiciousIPThreshold: 3,
	}

	validator := NewValidator(ValidatorParams{
		DB:       db,
		Log:      log,
		Clock:    fake,
		Tracking: tracking,
		Repo:     clickRepo,
		LinkRepo: linkRepo,
	})

	tracker := NewTracker(TrackerParams{
		DB:        db,
		Log:       log,
		GenID:     node,
		Clock:     fake,
		Repo:      clickRepo,
		Validator: validator,
		LinkRepo:  linkRepo,
	})

	return &trackerFixture{db: db, node: node, clock: fake, tracker: tracker}
}

func (f *trackerFixture) seedLink(t *testing.T, mutate func(*linkdomain.AffiliateLink)) linkdomain.AffiliateLink {
	t.Helper()
	link := linkdomain.AffiliateLink{
		ID:               f.node.Generate(),
		Code:             "spring-" + f.node.Generate().String(),
		URL:              "https://shop.example/spring",
		ChannelID:        f.node.Generate(),
		OfferID:          f.node.Generate(),
		Status:           linkdomain.LinkStatusActive,
		AttributionModel: "last-click",
		CreatedAt:        f.clock.Now(),
		UpdatedAt:        f.clock.Now(),
	}
	if mutate != nil {
		mutate(&link)
	}
	require.NoError(t, f.db.Create(&link).Error)
	return link
}

func (f *trackerFixture) reloadLink(t *testing.T, id snowflake.ID) linkdomain.AffiliateLink {
	t.Helper()
	var link linkdomain.AffiliateLink
	require.NoError(t, f.db.First(&link, "id = ?", id).Error)
	return link
}

func TestTrackValidClick(t *testing.T) {
	f := setupTracker(t)
	link := f.seedLink(t, nil)

	result, err := f.tracker.Track(context.Background(), domain.Candidate{
		Code:      link.Code,
		IP:        "198.51.100.7",
		UserAgent: "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Mobile Safari/604.1",
	})
	require.NoError(t, err)
	require.True(t, result.Verdict.Valid)
	require.True(t, result.NewCustomer)
	require.NotEmpty(t, result.CustomerID)
	require.Equal(t, "mobile", result.Click.Device)
	require.Equal(t, "Safari", result.Click.Browser)

	got := f.reloadLink(t, link.ID)
	require.Equal(t, int64(1), got.Clicks)
	require.Equal(t, int64(1), got.UniqueClicks)
}

func TestTrackUnknownCode(t *testing.T) {
	f := setupTracker(t)

	result, err := f.tracker.Track(context.Background(), domain.Candidate{
		Code: "no-such-code",
		IP:   "198.51.100.7",
	})
	require.ErrorIs(t, err, domain.ErrLinkNotFound)
	require.Nil(t, result.Link)
	require.Equal(t, domain.ReasonLinkNotFound, result.Verdict.Reason)

	var count int64
	require.NoError(t, f.db.Model(&domain.Click{}).Count(&count).Error)
	require.Zero(t, count)
}

func TestTrackDuplicateClickRejectedButRecorded(t *testing.T) {
	f := setupTracker(t)
	link := f.seedLink(t, nil)

	candidate := domain.Candidate{Code: link.Code, IP: "203.0.113.5"}

	first, err := f.tracker.Track(context.Background(), candidate)
	require.NoError(t, err)
	require.True(t, first.Verdict.Valid)

	f.clock.Advance(time.Hour)

	second, err := f.tracker.Track(context.Background(), candidate)
	require.NoError(t, err)
	require.False(t, second.Verdict.Valid)
	require.Equal(t, domain.ReasonDuplicateClick, second.Verdict.Reason)
	require.NotNil(t, second.Click)
	require.False(t, second.Click.IsValid)

	got := f.reloadLink(t, link.ID)
	require.Equal(t, int64(1), got.Clicks)

	var count int64
	require.NoError(t, f.db.Model(&domain.Click{}).Where("link_id = ?", link.ID).Count(&count).Error)
	require.Equal(t, int64(2), count)
}

func TestTrackDuplicateWindowExpires(t *testing.T) {
	f := setupTracker(t)
	link := f.seedLink(t, nil)
	candidate := domain.Candidate{Code: link.Code, IP: "203.0.113.9"}

	_, err := f.tracker.Track(context.Background(), candidate)
	require.NoError(t, err)

	f.clock.Advance(25 * time.Hour)

	result, err := f.tracker.Track(context.Background(), candidate)
	require.NoError(t, err)
	require.True(t, result.Verdict.Valid)
}

func TestTrackInactiveLink(t *testing.T) {
	f := setupTracker(t)
	link := f.seedLink(t, func(l *linkdomain.AffiliateLink) {
		l.Status = linkdomain.LinkStatusInactive
	})

	result, err := f.tracker.Track(context.Background(), domain.Candidate{Code: link.Code, IP: "192.0.2.1"})
	require.NoError(t, err)
	require.Equal(t, domain.ReasonLinkInactive, result.Verdict.Reason)
	require.NotNil(t, result.Link)
}

func TestTrackExpiredLink(t *testing.T) {
	f := setupTracker(t)
	expired := f.clock.Now().Add(-time.Hour)
	link := f.seedLink(t, func(l *linkdomain.AffiliateLink) {
		l.ExpiresAt = &expired
	})

	result, err := f.tracker.Track(context.Background(), domain.Candidate{Code: link.Code, IP: "192.0.2.1"})
	require.NoError(t, err)
	require.Equal(t, domain.ReasonLinkExpired, result.Verdict.Reason)
}

func TestTrackMaxClicksNeverExceeded(t *testing.T) {
	f := setupTracker(t)
	maxClicks := int64(2)
	link := f.seedLink(t, func(l *linkdomain.AffiliateLink) {
		l.MaxClicks = &maxClicks
	})

	ips := []string{"192.0.2.10", "192.0.2.11", "192.0.2.12", "192.0.2.13"}
	for i, ip := range ips {
		result, err := f.tracker.Track(context.Background(), domain.Candidate{Code: link.Code, IP: ip})
		require.NoError(t, err)
		if i < int(maxClicks) {
			require.True(t, result.Verdict.Valid, "click %d", i)
		} else {
			require.Equal(t, domain.ReasonLinkMaxClicksReached, result.Verdict.Reason, "click %d", i)
		}
	}

	got := f.reloadLink(t, link.ID)
	require.Equal(t, maxClicks, got.Clicks)
}

func TestTrackSuspiciousIP(t *testing.T) {
	f := setupTracker(t)
	ip := "198.51.100.200"

	// Threshold is 3: three clicks across distinct links pass, the fourth
	// is flagged.
	for i := 0; i < 3; i++ {
		link := f.seedLink(t, nil)
		result, err := f.tracker.Track(context.Background(), domain.Candidate{Code: link.Code, IP: ip})
		require.NoError(t, err)
		require.True(t, result.Verdict.Valid, "click %d", i)
	}

	link := f.seedLink(t, nil)
	result, err := f.tracker.Track(context.Background(), domain.Candidate{Code: link.Code, IP: ip})
	require.NoError(t, err)
	require.Equal(t, domain.ReasonSuspiciousIP, result.Verdict.Reason)
}

func TestTrackRepeatCustomerCountsOneUnique(t *testing.T) {
	f := setupTracker(t)
	link := f.seedLink(t, nil)

	first, err := f.tracker.Track(context.Background(), domain.Candidate{
		Code: link.Code,
		IP:   "203.0.113.40",
	})
	require.NoError(t, err)

	f.clock.Advance(2 * time.Hour)

	// Same customer, new IP: counts as a click but not a unique click.
	result, err := f.tracker.Track(context.Background(), domain.Candidate{
		Code:       link.Code,
		IP:         "203.0.113.41",
		CustomerID: first.CustomerID,
	})
	require.NoError(t, err)
	require.True(t, result.Verdict.Valid)
	require.False(t, result.NewCustomer)

	got := f.reloadLink(t, link.ID)
	require.Equal(t, int64(2), got.Clicks)
	require.Equal(t, int64(1), got.UniqueClicks)
}
