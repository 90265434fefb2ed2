package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/pricebook/internal/assignment"
	assignmentdomain "github.com/smallbiznis/pricebook/internal/assignment/domain"
	"github.com/smallbiznis/pricebook/internal/config"
	obsmetrics "github.com/smallbiznis/pricebook/internal/observability/metrics"
	"github.com/smallbiznis/pricebook/internal/override"
	overridedomain "github.com/smallbiznis/pricebook/internal/override/domain"
	"github.com/smallbiznis/pricebook/internal/pricelist"
	pricelistdomain "github.com/smallbiznis/pricebook/internal/pricelist/domain"
	"github.com/smallbiznis/pricebook/internal/pricelistitem"
	itemdomain "github.com/smallbiznis/pricebook/internal/pricelistitem/domain"
	"github.com/smallbiznis/pricebook/internal/resolution"
	resolutiondomain "github.com/smallbiznis/pricebook/internal/resolution/domain"
	pricesync "github.com/smallbiznis/pricebook/internal/sync"
	syncdomain "github.com/smallbiznis/pricebook/internal/sync/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	obsmetrics.Module,
	fx.Provide(registerGin),
	pricelist.Module,
	pricelistitem.Module,
	assignment.Module,
	override.Module,
	resolution.Module,
	pricesync.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(registry *prometheus.Registry) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{})))

	return r
}

func registerGin(registry *prometheus.Registry) *gin.Engine {
	return NewEngine(registry)
}

func run(lc fx.Lifecycle, r *gin.Engine, cfg config.Config, log *zap.Logger) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					log.Fatal("http server failed", zap.Error(err))
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
	priceListSvc  pricelistdomain.Service
	itemSvc       itemdomain.Service
	assignmentSvc assignmentdomain.Service
	overrideSvc   overridedomain.Service
	resolutionSvc resolutiondomain.Service
	syncSvc       syncdomain.Service
}

type ServerParams struct {
	fx.In

	Gin           *gin.Engine
	Cfg           config.Config
	PriceListSvc  pricelistdomain.Service
	ItemSvc       itemdomain.Service
	AssignmentSvc assignmentdomain.Service
	OverrideSvc   overridedomain.Service
	ResolutionSvc resolutiondomain.Service
	SyncSvc       syncdomain.Service
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:        p.Gin,
		cfg:           p.Cfg,
		priceListSvc:  p.PriceListSvc,
		itemSvc:       p.ItemSvc,
		assignmentSvc: p.AssignmentSvc,
		overrideSvc:   p.OverrideSvc,
		resolutionSvc: p.ResolutionSvc,
		syncSvc:       p.SyncSvc,
	}

	svc.registerAPIRoutes()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api/v1", TenantContext())

	api.POST("/price-lists", s.CreatePriceList)
	api.GET("/price-lists", s.ListPriceLists)
	api.GET("/price-lists/:id", s.GetPriceList)
	api.PATCH("/price-lists/:id", s.UpdatePriceList)
	api.DELETE("/price-lists/:id", s.ArchivePriceList)

	api.POST("/price-lists/:id/items", s.AddPriceListItem)
	api.GET("/price-lists/:id/items", s.ListPriceListItems)
	api.GET("/price-lists/:id/items/:sku", s.GetPriceListItem)
	api.PUT("/price-lists/:id/items/:sku", s.UpdatePriceListItem)
	api.POST("/price-lists/:id/items:bulk", s.BulkUpsertItems)

	api.POST("/price-assignments", s.AssignPriceList)
	api.GET("/price-assignments", s.ListAssignments)
	api.DELETE("/price-assignments/:id", s.UnassignPriceList)

	api.POST("/price-overrides", s.CreateOverride)
	api.GET("/price-overrides", s.ListOverrides)
	api.POST("/price-overrides/:id/cancel", s.CancelOverride)

	api.POST("/prices/resolve", s.ResolvePrice)
	api.POST("/prices/resolve-batch", s.ResolvePrices)

	api.POST("/sync/import", s.ImportPriceList)
	api.GET("/sync/jobs", s.ListSyncJobs)
	api.GET("/sync/jobs/:id", s.GetSyncJob)
	api.POST("/sync/jobs/:id/cancel", s.CancelSyncJob)
	api.GET("/sync/delta-token", s.GetLastDeltaToken)
	api.POST("/sync/delta", s.ProcessDeltaUpdates)
	api.POST("/sync/schedule", s.ScheduleBatchSync)
}
