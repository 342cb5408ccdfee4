package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"soltab/internal/handler"
	"soltab/internal/metrics"
	"soltab/internal/middleware"
)

// Options holds the cross-cutting pieces the engine is built with.
type Options struct {
	Logger         *zap.Logger
	Metrics        *metrics.Recorder
	Gatherer       prometheus.Gatherer
	AllowedOrigins []string
}

// Setup configures the Gin engine with all routes and middleware. tableH and
// searchH may be nil when no database is configured; their routes are then
// not registered.
func Setup(
	opts Options,
	tableH *handler.TableHandler,
	searchH *handler.SearchHandler,
	exportH *handler.ExportHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(opts.Logger, opts.Metrics))
	r.Use(middleware.CORS(opts.AllowedOrigins))

	// Health checks and metrics
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)
	if opts.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Gatherer, promhttp.HandlerOpts{})))
	}

	v1 := r.Group("/api/v1")

	if tableH != nil {
		tables := v1.Group("/tables")
		tables.GET("", tableH.List)
		tables.GET("/:id", tableH.GetByID)

		merged := v1.Group("/merged")
		merged.GET("", tableH.ListMerged)
		merged.GET("/:id", tableH.GetMerged)
	}

	if searchH != nil {
		v1.GET("/search", searchH.Search)
		v1.GET("/index", searchH.Index)
	}

	if exportH != nil {
		v1.GET("/exports/*name", exportH.Download)
	}

	return r
}
