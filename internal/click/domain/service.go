package domain

import (
	"context"
	"errors"
	"time"

	linkdomain "github.com/refgate/refgate/internal/link/domain"
)

// Candidate is an incoming click before validation.
type Candidate struct {
	Code       string
	IP         string
	UserAgent  string
	Referrer   string
	CustomerID string
	SessionID  string
}

// Validator runs the ordered fraud checks. Lookup failures in the
// duplicate and velocity checks fail open; only the first failed check
// is reported.
type Validator interface {
	Validate(ctx context.Context, candidate Candidate) (Verdict, *linkdomain.AffiliateLink)
}

// TrackResult is what the redirect handler needs: where to send the
// visitor and what to set on the response.
type TrackResult struct {
	Verdict    Verdict
	Link       *linkdomain.AffiliateLink
	Click      *Click
	CustomerID string
	// NewCustomer is set when the customer identity was minted on this
	// request and the long-lived customer cookie must be (re)issued.
	NewCustomer bool
	SessionID   string
	NewSession  bool
	Timestamp   time.Time
}

// Tracker validates, persists and counts a click. Persistence errors are
// returned for logging but the caller still redirects when Link is set.
type Tracker interface {
	Track(ctx context.Context, candidate Candidate) (TrackResult, error)
}

var ErrLinkNotFound = errors.New("link_not_found")
