package server

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/refgate/refgate/internal/attribution"
	"github.com/refgate/refgate/internal/commission"
	conversiondomain "github.com/refgate/refgate/internal/conversion/domain"
	linkdomain "github.com/refgate/refgate/internal/link/domain"
	offerdomain "github.com/refgate/refgate/internal/offer/domain"
	publisherdomain "github.com/refgate/refgate/internal/publisher/domain"
	reportingdomain "github.com/refgate/refgate/internal/reporting/domain"
	"github.com/refgate/refgate/pkg/db/pagination"
)

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")

	api.POST("/conversions", s.handleRecordConversion)
	api.GET("/attribution/models", s.handleAttributionModels)

	api.GET("/links/:id/stats", s.handleLinkStats)
	api.GET("/channels/:id/stats", s.handleChannelStats)
	api.GET("/publishers/:id/ledger", s.handlePublisherLedger)
	api.GET("/publishers/:id/conversions", s.handlePublisherConversions)

	api.POST("/publishers", s.handleCreatePublisher)
	api.GET("/publishers", s.handleListPublishers)
	api.POST("/offers", s.handleCreateOffer)
	api.POST("/channels", s.handleCreateChannel)
	api.POST("/channel-offers", s.handleApproveChannelOffer)
	api.POST("/links", s.handleCreateLink)
	api.GET("/links/:id", s.handleGetLink)
}

type recordConversionRequest struct {
	OrderID        string     `json:"order_id"`
	OrderAmount    float64    `json:"order_amount"`
	Currency       string     `json:"currency"`
	CustomerID     string     `json:"customer_id"`
	ReferralCode   string     `json:"referral_code"`
	ConversionDate *time.Time `json:"conversion_date"`
}

func (s *Server) handleRecordConversion(c *gin.Context) {
	var req recordConversionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}

	record := conversiondomain.RecordConversionRequest{
		OrderID:        req.OrderID,
		OrderAmount:    req.OrderAmount,
		Currency:       req.Currency,
		CustomerID:     req.CustomerID,
		ReferralCode:   req.ReferralCode,
		ConversionDate: req.ConversionDate,
	}

	// The attribution cookie, when present, pins the direct click and the
	// customer identity minted at redirect time.
	if cookie, ok := decodeAttributionCookie(cookieValue(c, attributionCookieName)); ok {
		if id, err := snowflake.ParseString(cookie.ClickID); err == nil {
			record.ClickID = &id
		}
		if record.ReferralCode == "" {
			record.ReferralCode = cookie.ReferralCode
		}
	}
	if record.CustomerID == "" {
		record.CustomerID = cookieValue(c, customerCookieName)
	}

	result, err := s.conversionSvc.Record(c.Request.Context(), record)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	status := http.StatusCreated
	if !result.Created {
		status = http.StatusOK
	}
	c.JSON(status, gin.H{
		"conversion": result.Conversion,
		"commission": result.Commission,
		"created":    result.Created,
		"credited":   result.Credited,
	})
}

func (s *Server) handleAttributionModels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"models": attribution.AvailableModels()})
}

func (s *Server) handleLinkStats(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	stats, err := s.reportingSvc.LinkStats(c.Request.Context(), id, parseRange(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handleChannelStats(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	stats, err := s.reportingSvc.ChannelStats(c.Request.Context(), id, parseRange(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handlePublisherLedger(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	stats, err := s.ledgerSvc.StatsForPublisher(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (s *Server) handlePublisherConversions(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var page pagination.Pagination
	if err := c.ShouldBindQuery(&page); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	resp, err := s.conversionSvc.ListByPublisher(c.Request.Context(), conversiondomain.ListConversionsRequest{
		PublisherID: id,
		PageToken:   page.PageToken,
		PageSize:    page.PageSize,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type createPublisherRequest struct {
	Name             string           `json:"name"`
	Email            string           `json:"email"`
	DefaultShareRate float64          `json:"default_share_rate"`
	Tier             *commission.Tier `json:"tier"`
}

func (s *Server) handleCreatePublisher(c *gin.Context) {
	var req createPublisherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	publisher, err := s.publisherSvc.Create(c.Request.Context(), publisherdomain.CreatePublisherRequest{
		Name:             req.Name,
		Email:            req.Email,
		DefaultShareRate: req.DefaultShareRate,
		Tier:             req.Tier,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, publisher)
}

func (s *Server) handleListPublishers(c *gin.Context) {
	publishers, err := s.publisherSvc.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"publishers": publishers})
}

type createOfferRequest struct {
	Name           string          `json:"name"`
	Advertiser     string          `json:"advertiser"`
	CommissionRate float64         `json:"commission_rate"`
	VolumeBonuses  json.RawMessage `json:"volume_bonuses"`
}

func (s *Server) handleCreateOffer(c *gin.Context) {
	var req createOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	offer, err := s.offerSvc.CreateOffer(c.Request.Context(), offerdomain.CreateOfferRequest{
		Name:           req.Name,
		Advertiser:     req.Advertiser,
		CommissionRate: req.CommissionRate,
		VolumeBonuses:  req.VolumeBonuses,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, offer)
}

type createChannelRequest struct {
	PublisherID string   `json:"publisher_id"`
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	ShareRate   *float64 `json:"share_rate"`
}

func (s *Server) handleCreateChannel(c *gin.Context) {
	var req createChannelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	publisherID, err := snowflake.ParseString(req.PublisherID)
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	channel, err := s.offerSvc.CreateChannel(c.Request.Context(), offerdomain.CreateChannelRequest{
		PublisherID: publisherID,
		Name:        req.Name,
		Type:        req.Type,
		ShareRate:   req.ShareRate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, channel)
}

type approveChannelOfferRequest struct {
	ChannelID string   `json:"channel_id"`
	OfferID   string   `json:"offer_id"`
	ShareRate *float64 `json:"share_rate"`
}

func (s *Server) handleApproveChannelOffer(c *gin.Context) {
	var req approveChannelOfferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	channelID, err1 := snowflake.ParseString(req.ChannelID)
	offerID, err2 := snowflake.ParseString(req.OfferID)
	if err1 != nil || err2 != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	pair, err := s.offerSvc.ApproveChannelOffer(c.Request.Context(), offerdomain.ApproveChannelOfferRequest{
		ChannelID: channelID,
		OfferID:   offerID,
		ShareRate: req.ShareRate,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, pair)
}

type createLinkRequest struct {
	Code             string     `json:"code"`
	URL              string     `json:"url"`
	Name             string     `json:"name"`
	Source           string     `json:"source"`
	ChannelID        string     `json:"channel_id"`
	OfferID          string     `json:"offer_id"`
	ExpiresAt        *time.Time `json:"expires_at"`
	MaxClicks        *int64     `json:"max_clicks"`
	AttributionModel string     `json:"attribution_model"`
}

func (s *Server) handleCreateLink(c *gin.Context) {
	var req createLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	channelID, err1 := snowflake.ParseString(req.ChannelID)
	offerID, err2 := snowflake.ParseString(req.OfferID)
	if err1 != nil || err2 != nil {
		AbortWithError(c, ErrInvalidRequest)
		return
	}
	link, err := s.linkSvc.Create(c.Request.Context(), linkdomain.CreateLinkRequest{
		Code:             req.Code,
		URL:              req.URL,
		Name:             req.Name,
		Source:           req.Source,
		ChannelID:        channelID,
		OfferID:          offerID,
		ExpiresAt:        req.ExpiresAt,
		MaxClicks:        req.MaxClicks,
		AttributionModel: req.AttributionModel,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, link)
}

func (s *Server) handleGetLink(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	link, err := s.linkSvc.GetByID(c.Request.Context(), id)
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

func parseID(c *gin.Context) (snowflake.ID, bool) {
	id, err := snowflake.ParseString(c.Param("id"))
	if err != nil {
		AbortWithError(c, ErrInvalidRequest)
		return 0, false
	}
	return id, true
}

func parseRange(c *gin.Context) reportingdomain.Range {
	var r reportingdomain.Range
	if from := c.Query("from"); from != "" {
		if ts, err := strconv.ParseInt(from, 10, 64); err == nil {
			r.From = time.Unix(ts, 0).UTC()
		} else if t, err := time.Parse(time.RFC3339, from); err == nil {
			r.From = t
		}
	}
	if to := c.Query("to"); to != "" {
		if ts, err := strconv.ParseInt(to, 10, 64); err == nil {
			r.To = time.Unix(ts, 0).UTC()
		} else if t, err := time.Parse(time.RFC3339, to); err == nil {
			r.To = t
		}
	}
	return r
}
