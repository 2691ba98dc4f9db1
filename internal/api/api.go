// Package api serves the MarketPulse HTTP surface on gin.
package api

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"marketpulse/internal/provider"
)

const (
	serviceName      = "MarketPulse API"
	stockServiceName = "MarketPulse Stock API"
	version          = "1.0.0"

	defaultRequestTimeout = 10 * time.Second
)

// QuoteService is what the handlers need from the service layer.
type QuoteService interface {
	GetQuote(ctx context.Context, symbol string) (provider.Quote, error)
	Ready() bool
	ProviderName() string
}

type Config struct {
	// APIKey guards /protected. Empty means development mode: no check.
	APIKey string
	// RequestTimeout bounds each quote lookup.
	RequestTimeout time.Duration
	Logger         logrus.FieldLogger
}

type handler struct {
	svc     QuoteService
	apiKey  string
	timeout time.Duration
	log     logrus.FieldLogger
}

// NewRouter builds the gin engine with every route and middleware attached.
func NewRouter(svc QuoteService, cfg Config) *gin.Engine {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	h := &handler{svc: svc, apiKey: cfg.APIKey, timeout: cfg.RequestTimeout, log: cfg.Logger}

	r := gin.New()
	r.Use(requestID(), accessLog(cfg.Logger), recovery(cfg.Logger))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Authorization", requestIDHeader},
		ExposeHeaders:   []string{requestIDHeader},
		MaxAge:          12 * time.Hour,
	}))

	r.GET("/", h.root)
	r.GET("/health", h.health)
	r.GET("/protected", requireAPIKey(cfg.APIKey), h.protected)

	stocks := r.Group("/api/v1/stocks")
	stocks.GET("/quotes", h.quote)
	stocks.GET("/health", h.stocksHealth)

	r.NoRoute(func(c *gin.Context) {
		writeError(c, newHTTPError(404, "Not found"))
	})
	return r
}
