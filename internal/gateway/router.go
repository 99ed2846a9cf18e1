package gateway

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmerrifield20/tcrview/internal/metrics"
	"go.uber.org/zap"
)

// RequestIDHeader carries the per-request correlation ID.
const RequestIDHeader = "X-Request-ID"

// Config configures the HTTP router.
type Config struct {
	CORSOrigins  []string
	RateLimitRPS float64 // 0 = unlimited
}

// NewRouter builds the gateway engine: recovery, CORS, request IDs, per-IP
// rate limiting, request logging and metrics around the registry routes.
// ctx bounds background goroutines started by the middleware.
func NewRouter(ctx context.Context, cfg Config, h *RegistryHandler, m *metrics.Metrics, logger *zap.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	if len(cfg.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.CORSOrigins,
			AllowMethods:     []string{"GET", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", RequestIDHeader},
			ExposeHeaders:    []string{"Content-Length", RequestIDHeader},
			AllowCredentials: false,
			MaxAge:           12 * time.Hour,
		}))
	}

	router.Use(requestID())
	router.Use(m.Middleware())
	if cfg.RateLimitRPS > 0 {
		burst := int(cfg.RateLimitRPS * 2)
		if burst < 1 {
			burst = 1
		}
		router.Use(RateLimiter(ctx, cfg.RateLimitRPS, burst))
	}
	router.Use(requestLogger(logger))

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", m.Handler())

	h.Register(router.Group("/api/v1"))
	return router
}

// requestID propagates a caller-supplied request ID or assigns a new one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(RequestIDHeader, id)
		c.Next()
	}
}

func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString("request_id")),
		)
	}
}
