package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/carebill/carebill/internal/billing"
	billingdomain "github.com/carebill/carebill/internal/billing/domain"
	"github.com/carebill/carebill/internal/client"
	clientdomain "github.com/carebill/carebill/internal/client/domain"
	"github.com/carebill/carebill/internal/clientservice"
	clientservicedomain "github.com/carebill/carebill/internal/clientservice/domain"
	"github.com/carebill/carebill/internal/config"
	"github.com/carebill/carebill/internal/history"
	historydomain "github.com/carebill/carebill/internal/history/domain"
	"github.com/carebill/carebill/internal/ingest"
	ingestdomain "github.com/carebill/carebill/internal/ingest/domain"
	"github.com/carebill/carebill/internal/manualentry"
	manualentrydomain "github.com/carebill/carebill/internal/manualentry/domain"
	"github.com/carebill/carebill/internal/observability"
	obsmiddleware "github.com/carebill/carebill/internal/observability/logger"
	obsmetrics "github.com/carebill/carebill/internal/observability/metrics"
	obstracing "github.com/carebill/carebill/internal/observability/tracing"
	"github.com/carebill/carebill/internal/ratelimit"
	"github.com/carebill/carebill/internal/servicetype"
	servicetypedomain "github.com/carebill/carebill/internal/servicetype/domain"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	ingest.Module,
	servicetype.Module,
	client.Module,
	clientservice.Module,
	manualentry.Module,
	billing.Module,
	history.Module,
	ratelimit.Module,
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

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			log.Info("http server starting", zap.String("addr", srv.Addr))
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
	engine           *gin.Engine
	cfg              config.Config
	db               *gorm.DB
	log              *zap.Logger
	ingestSvc        ingestdomain.Service
	serviceTypeSvc   servicetypedomain.Service
	clientSvc        clientdomain.Service
	clientServiceSvc clientservicedomain.Service
	manualEntrySvc   manualentrydomain.Service
	billingSvc       billingdomain.Service
	historySvc       historydomain.Service
	importLimiter    *ratelimit.ImportLimiter
	obsMetrics       *obsmetrics.Metrics
}

type ServerParams struct {
	fx.In

	Gin              *gin.Engine
	Cfg              config.Config
	DB               *gorm.DB
	Log              *zap.Logger
	IngestSvc        ingestdomain.Service
	ServiceTypeSvc   servicetypedomain.Service
	ClientSvc        clientdomain.Service
	ClientServiceSvc clientservicedomain.Service
	ManualEntrySvc   manualentrydomain.Service
	BillingSvc       billingdomain.Service
	HistorySvc       historydomain.Service
	ImportLimiter    *ratelimit.ImportLimiter `optional:"true"`
	ObsMetrics       *obsmetrics.Metrics      `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:           p.Gin,
		cfg:              p.Cfg,
		db:               p.DB,
		log:              p.Log.Named("http.server"),
		ingestSvc:        p.IngestSvc,
		serviceTypeSvc:   p.ServiceTypeSvc,
		clientSvc:        p.ClientSvc,
		clientServiceSvc: p.ClientServiceSvc,
		manualEntrySvc:   p.ManualEntrySvc,
		billingSvc:       p.BillingSvc,
		historySvc:       p.HistorySvc,
		importLimiter:    p.ImportLimiter,
		obsMetrics:       p.ObsMetrics,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	v1 := s.engine.Group("/v1")

	v1.POST("/imports", s.ImportVisits)
	v1.POST("/imports/aggregate", s.AggregateVisits)

	v1.GET("/service-types", s.ListServiceTypes)
	v1.POST("/service-types", s.CreateServiceType)
	v1.GET("/service-types/:id", s.GetServiceType)
	v1.PATCH("/service-types/:id", s.UpdateServiceType)
	v1.DELETE("/service-types/:id", s.DeactivateServiceType)

	v1.GET("/clients", s.ListClients)
	v1.GET("/clients/:name", s.GetClient)
	v1.PATCH("/clients/:name", s.UpdateClient)
	v1.DELETE("/clients/:name", s.DeleteClient)

	v1.GET("/clients/:name/services", s.ListClientServices)
	v1.PUT("/clients/:name/services", s.ConfigureClientService)
	v1.PATCH("/clients/:name/services/hours", s.UpdateClientServiceHours)
	v1.POST("/clients/:name/services/overrides", s.ApplyPeriodOverride)
	v1.GET("/clients/:name/services/resolve", s.ResolveClientService)

	v1.GET("/manual-entries", s.ListManualEntries)
	v1.POST("/manual-entries", s.CreateManualEntry)
	v1.DELETE("/manual-entries/:id", s.DeleteManualEntry)
	v1.DELETE("/manual-entries", s.ClearManualEntries)

	v1.POST("/billing/runs", s.RunBilling)

	v1.GET("/history", s.QueryHistory)
	v1.DELETE("/history", s.ClearHistory)
}
