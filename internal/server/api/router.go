package api

import (
	"net/http"

	"ddnsup/internal/dns"
	"ddnsup/internal/server/api/middleware"
	"ddnsup/internal/server/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Router handles all routing logic
type Router struct {
	engine *gin.Engine
	config *config.Config
	logger *zap.Logger
}

// NewRouter creates and configures a new router. backend may be nil, in
// which case update requests report missing configuration.
func NewRouter(cfg *config.Config, backend dns.Backend, logger *zap.Logger) *Router {
	// Set gin mode based on config
	if cfg.Log.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := &Router{
		engine: gin.New(),
		config: cfg,
		logger: logger,
	}

	// Initialize middleware
	r.setupMiddleware()

	// Register routes
	r.setupRoutes(backend)

	return r
}

// Handler returns the HTTP handler
func (r *Router) Handler() http.Handler {
	return r.engine
}

// setupMiddleware configures all middleware
func (r *Router) setupMiddleware() {
	m := middleware.New(r.logger)

	r.engine.Use(m.RequestID())
	r.engine.Use(m.Logger())
	r.engine.Use(m.Recovery())
	r.engine.Use(m.Secure())
	r.engine.Use(m.NoCache())
}

func (r *Router) setupRoutes(backend dns.Backend) {
	h := NewUpdateHandler(r.config.UpdateToken, backend, r.config.TTL, r.config.TrustProxy, r.logger)

	r.engine.GET("/", h.Update)
	r.engine.GET("/update", h.Update)
	r.engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
}
