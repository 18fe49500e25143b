package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	clickdomain "github.com/refgate/refgate/internal/click/domain"
	"github.com/refgate/refgate/internal/observability/logger"
)

func (s *Server) registerTrackingRoutes() {
	s.engine.GET("/r/:code", s.handleRedirect)
}

// handleRedirect records the click and forwards the visitor. Tracking
// failure downgrades to a log line; as long as the code resolves to a
// link, the visitor is redirected.
func (s *Server) handleRedirect(c *gin.Context) {
	candidate := clickdomain.Candidate{
		Code:       c.Param("code"),
		IP:         c.ClientIP(),
		UserAgent:  c.Request.UserAgent(),
		Referrer:   c.Request.Referer(),
		CustomerID: cookieValue(c, customerCookieName),
		SessionID:  cookieValue(c, sessionCookieName),
	}

	result, err := s.tracker.Track(c.Request.Context(), candidate)
	if result.Link == nil {
		c.JSON(http.StatusNotFound, errorResponse{Error: errorPayload{
			Type:    "not_found",
			Message: "unknown referral code",
		}})
		return
	}
	if err != nil {
		logger.FromContext(c.Request.Context()).Warn("click tracking degraded",
			zap.String("code", candidate.Code),
			zap.Error(err))
	}

	s.setTrackingCookies(c, result)
	c.Redirect(http.StatusFound, result.Link.URL)
}

func cookieValue(c *gin.Context, name string) string {
	v, err := c.Cookie(name)
	if err != nil {
		return ""
	}
	return v
}
