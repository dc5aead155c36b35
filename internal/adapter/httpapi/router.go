package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type RouterConfig struct {
	Quote          *QuoteHandler
	Limiter        *RateLimiter
	AllowedOrigins []string
	Logger         *slog.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestID())
	r.Use(RequestLogger(cfg.Logger))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(CORS(cfg.AllowedOrigins))
	}

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	if cfg.Quote == nil {
		return r
	}
	quote := r.Group("/api/quote")
	quote.Use(QuoteGuard())
	if cfg.Limiter != nil {
		quote.Use(cfg.Limiter.Middleware())
	}
	{
		quote.POST("/sessions", cfg.Quote.Open)
		quote.GET("/sessions/:id", cfg.Quote.Get)
		quote.POST("/sessions/:id/messages", cfg.Quote.SubmitText)
		quote.POST("/sessions/:id/service", cfg.Quote.SelectService)
		quote.POST("/sessions/:id/skip", cfg.Quote.Skip)
		quote.DELETE("/sessions/:id", cfg.Quote.Close)
	}
	return r
}
