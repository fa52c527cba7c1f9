package router

import (
	"github.com/gin-gonic/gin"

	"leadscan/internal/config"
	"leadscan/internal/handler"
	"leadscan/internal/middleware"
)

// Setup configures the Gin engine with all routes and middleware.
func Setup(
	cfg *config.Config,
	scanH *handler.ScanHandler,
	leadH *handler.LeadHandler,
	healthH *handler.HealthHandler,
) *gin.Engine {
	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins))

	// Health checks
	r.GET("/healthz", healthH.Liveness)
	r.GET("/readyz", healthH.Readiness)

	v1 := r.Group("/api/v1")

	// Scanning
	v1.POST("/scan", scanH.ScanCard)
	v1.POST("/scan/qr", scanH.ScanQR)

	// Leads
	leads := v1.Group("/leads")
	leads.GET("", leadH.List)
	leads.GET("/:id", leadH.Get)
	leads.POST("/:id/rescan", leadH.Rescan)

	return r
}
