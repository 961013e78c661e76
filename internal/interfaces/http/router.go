// Package http wires the gin route tree and HTTP server for the validation
// API.
package http

import (
	"github.com/gin-gonic/gin"

	"github.com/motifchem/geomval/internal/infrastructure/monitoring/logging"
	"github.com/motifchem/geomval/internal/infrastructure/monitoring/prometheus"
	"github.com/motifchem/geomval/internal/interfaces/http/handlers"
	"github.com/motifchem/geomval/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handler and middleware dependencies required to
// construct the complete route tree.
type RouterConfig struct {
	// Handlers
	ValidationHandler *handlers.ValidationHandler
	RefinementHandler *handlers.RefinementHandler
	MoleculeHandler   *handlers.MoleculeHandler
	ReportHandler     *handlers.ReportHandler
	HealthHandler     *handlers.HealthHandler

	// Infrastructure
	Logger    logging.Logger
	Metrics   *prometheus.AppMetrics
	Collector prometheus.MetricsCollector

	// Mode selects the gin mode ("debug", "release", "test").  Empty keeps
	// the current mode.
	Mode string
}

// NewRouter constructs the complete route tree from the given configuration:
// global middleware, public health endpoints, the metrics endpoint, and the
// /api/v1 resource groups.
func NewRouter(cfg RouterConfig) *gin.Engine {
	if cfg.Mode != "" {
		gin.SetMode(cfg.Mode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.Logger != nil {
		r.Use(middleware.RequestLogger(cfg.Logger))
	}
	if cfg.Metrics != nil {
		r.Use(middleware.Metrics(cfg.Metrics))
	}

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Liveness)
		r.GET("/readyz", cfg.HealthHandler.Readiness)
	}
	if cfg.Collector != nil {
		r.GET("/metrics", gin.WrapH(cfg.Collector.Handler()))
	}

	api := r.Group("/api/v1")
	registerValidationRoutes(api, cfg.ValidationHandler)
	registerRefinementRoutes(api, cfg.RefinementHandler)
	registerMoleculeRoutes(api, cfg.MoleculeHandler)
	registerReportRoutes(api, cfg.ReportHandler)

	return r
}

func registerValidationRoutes(r *gin.RouterGroup, h *handlers.ValidationHandler) {
	if h == nil {
		return
	}
	r.POST("/validate", h.Validate)
}

func registerRefinementRoutes(r *gin.RouterGroup, h *handlers.RefinementHandler) {
	if h == nil {
		return
	}
	r.POST("/refine", h.Submit)
	r.GET("/refine/:id", h.Get)
	r.DELETE("/refine/:id", h.Cancel)
}

func registerMoleculeRoutes(r *gin.RouterGroup, h *handlers.MoleculeHandler) {
	if h == nil {
		return
	}
	m := r.Group("/molecules")
	m.POST("/canonical", h.Canonical)
	m.POST("/validate", h.ValidateSMILES)
	m.POST("/same", h.Same)
}

func registerReportRoutes(r *gin.RouterGroup, h *handlers.ReportHandler) {
	if h == nil {
		return
	}
	r.GET("/reports", h.List)
	r.GET("/reports/:id", h.Get)
}
