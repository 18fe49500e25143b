package server

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"gorm.io/gorm"

	"github.com/refgate/refgate/internal/attribution"
	"github.com/refgate/refgate/internal/click"
	clickdomain "github.com/refgate/refgate/internal/click/domain"
	"github.com/refgate/refgate/internal/clock"
	"github.com/refgate/refgate/internal/config"
	"github.com/refgate/refgate/internal/conversion"
	conversiondomain "github.com/refgate/refgate/internal/conversion/domain"
	"github.com/refgate/refgate/internal/ledger"
	ledgerdomain "github.com/refgate/refgate/internal/ledger/domain"
	"github.com/refgate/refgate/internal/link"
	linkdomain "github.com/refgate/refgate/internal/link/domain"
	"github.com/refgate/refgate/internal/observability"
	obsmiddleware "github.com/refgate/refgate/internal/observability/logger"
	obsmetrics "github.com/refgate/refgate/internal/observability/metrics"
	obstracing "github.com/refgate/refgate/internal/observability/tracing"
	"github.com/refgate/refgate/internal/offer"
	offerdomain "github.com/refgate/refgate/internal/offer/domain"
	"github.com/refgate/refgate/internal/publisher"
	publisherdomain "github.com/refgate/refgate/internal/publisher/domain"
	"github.com/refgate/refgate/internal/ratelimit"
	"github.com/refgate/refgate/internal/reporting"
	reportingdomain "github.com/refgate/refgate/internal/reporting/domain"
)

var Module = fx.Module("http.server",
	config.Module,
	clock.Module,
	fx.Provide(registerGin),
	attribution.Module,
	ratelimit.Module,
	publisher.Module,
	offer.Module,
	link.Module,
	click.Module,
	ledger.Module,
	conversion.Module,
	reporting.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.GinMiddleware())
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config) {
	srv := &http.Server{
		Addr:    net.JoinHostPort(cfg.HTTPHost, cfg.HTTPPort),
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine        *gin.Engine
	cfg           config.Config
	db            *gorm.DB
	genID         *snowflake.Node
	tracker       clickdomain.Tracker
	conversionSvc conversiondomain.Service
	ledgerSvc     ledgerdomain.Service
	linkSvc       linkdomain.Service
	offerSvc      offerdomain.Service
	publisherSvc  publisherdomain.Service
	reportingSvc  reportingdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	DB            *gorm.DB
	GenID         *snowflake.Node
	Tracker       clickdomain.Tracker
	ConversionSvc conversiondomain.Service
	LedgerSvc     ledgerdomain.Service
	LinkSvc       linkdomain.Service
	OfferSvc      offerdomain.Service
	PublisherSvc  publisherdomain.Service
	ReportingSvc  reportingdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		db:            p.DB,
		genID:         p.GenID,
		tracker:       p.Tracker,
		conversionSvc: p.ConversionSvc,
		ledgerSvc:     p.LedgerSvc,
		linkSvc:       p.LinkSvc,
		offerSvc:      p.OfferSvc,
		publisherSvc:  p.PublisherSvc,
		reportingSvc:  p.ReportingSvc,
	}

	svc.registerTrackingRoutes()
	svc.registerAPIRoutes()

	return svc
}
