// Package api is the public HTTP edge: market trends, lead intake, the CRM
// webhook and the operational endpoints.
package api

import (
	"net/http"
	"time"

	"marketing-api/internal/common/config"
	"marketing-api/internal/common/logger"
	"marketing-api/internal/common/observability"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies for NewRouter. Market is required; a nil Leads disables the
// lead routes.
type Dependencies struct {
	App           config.AppConfig
	HTTP          config.HTTPConfig
	Market        MarketService
	Leads         LeadRouter
	WebhookSecret string
	Events        EventPublisher
	Checks        map[string]Check
	Observability *observability.Observability
	Logger        logger.Logger
	Now           func() time.Time
}

func NewRouter(deps Dependencies) *gin.Engine {
	log := deps.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	obs := deps.Observability
	if obs == nil {
		obs = observability.NewNoop()
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(RequestID())
	engine.Use(RequestLogger(log))
	engine.Use(RecordMetrics(obs))
	engine.Use(SecurityHeaders())
	engine.Use(cors.New(corsConfig(deps.HTTP.AllowedOrigins)))

	health := NewHealthHandler(deps.App.Name, deps.App.Version, deps.Checks)
	engine.GET("/health", health.Health)
	engine.GET("/ready", health.Ready)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := engine.Group("/api")

	market := NewMarketHandler(deps.Market, log, deps.Now)
	api.GET("/market-trends", market.GetTrends)
	api.POST("/market-trends", market.PostTrends)

	if deps.Leads != nil {
		limiter := NewIPRateLimiter(deps.HTTP.LeadRatePerMinute, deps.HTTP.LeadRateBurst, log)
		leadRoutes := api.Group("/leads", limiter.Middleware())
		h := NewLeadHandler(deps.Leads)
		leadRoutes.POST("/booking", h.Booking)
		leadRoutes.POST("/contact", h.ContactForm)
	}

	webhook := NewWebhookHandler(deps.WebhookSecret, deps.Events, log)
	api.POST("/webhooks/crm", webhook.Receive)

	return engine
}

// NewServer wraps handler with the configured timeouts.
func NewServer(cfg config.HTTPConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Address,
		Handler:           handler,
		ReadTimeout:       config.GetDuration(cfg.ReadTimeout),
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      config.GetDuration(cfg.WriteTimeout),
	}
}

// corsConfig allows every origin when none, or "*", is configured.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", RequestIDHeader},
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
