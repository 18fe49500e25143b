package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	clickdomain "github.com/refgate/refgate/internal/click/domain"
)

const (
	customerCookieName    = "rg_cid"
	sessionCookieName     = "rg_sid"
	attributionCookieName = "rg_attr"
)

// attributionCookie is the payload the conversion side posts back. It is
// stored base64-encoded; it carries identifiers, not secrets.
type attributionCookie struct {
	ClickID          string `json:"click_id"`
	ChannelID        string `json:"channel_id"`
	OfferID          string `json:"offer_id"`
	ReferralCode     string `json:"referral_code"`
	AttributionModel string `json:"attribution_model"`
	Timestamp        int64  `json:"timestamp"`
}

func (s *Server) setTrackingCookies(c *gin.Context, result clickdomain.TrackResult) {
	secure := s.cfg.IsProduction()

	if result.NewCustomer {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     customerCookieName,
			Value:    result.CustomerID,
			Path:     "/",
			MaxAge:   int((time.Duration(s.cfg.Tracking.CustomerCookieDays) * 24 * time.Hour).Seconds()),
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	if result.NewSession {
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     sessionCookieName,
			Value:    result.SessionID,
			Path:     "/",
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	if result.Click == nil || !result.Verdict.Valid {
		return
	}

	payload := attributionCookie{
		ClickID:          result.Click.ID.String(),
		ChannelID:        result.Click.ChannelID.String(),
		OfferID:          result.Click.OfferID.String(),
		ReferralCode:     result.Click.ReferralCode,
		AttributionModel: result.Click.AttributionModel,
		Timestamp:        result.Timestamp.Unix(),
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return
	}

	http.SetCookie(c.Writer, &http.Cookie{
		Name:     attributionCookieName,
		Value:    base64.RawURLEncoding.EncodeToString(raw),
		Path:     "/",
		MaxAge:   int((time.Duration(s.cfg.Tracking.CookieExpiryDays) * 24 * time.Hour).Seconds()),
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func decodeAttributionCookie(value string) (attributionCookie, bool) {
	raw, err := base64.RawURLEncoding.DecodeString(value)
	if err != nil {
		return attributionCookie{}, false
	}
	var payload attributionCookie
	if err := json.Unmarshal(raw, &payload); err != nil {
		return attributionCookie{}, false
	}
	return payload, true
}
