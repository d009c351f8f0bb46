package api

import (
	"net/http"
	"strings"
	"time"

	"jetcharter/internal/config"
	"jetcharter/internal/logging"
	"jetcharter/internal/metrics"
	"jetcharter/internal/models"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const (
	requestIDHeader = "X-Request-ID"

	requestIDKey = "request_id"
	sessionIDKey = "session_id"
	apiClientKey = "api_client"
)

// RequestID ensures every request has an ID for tracing and logs.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if rid == "" {
			rid = uuid.NewString()
		}
		c.Set(requestIDKey, rid)
		c.Writer.Header().Set(requestIDHeader, rid)
		c.Next()
	}
}

// GetRequestID extracts the request id from the gin context when available.
func GetRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}

func RequestLogger(logger *zerolog.Logger) gin.HandlerFunc {
	base := logging.Component(logger, "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)

		status := c.Writer.Status()
		evt := base.Info()
		switch {
		case status >= http.StatusInternalServerError:
			evt = base.Error()
		case status >= http.StatusBadRequest:
			evt = base.Warn()
		}
		if len(c.Errors) > 0 {
			evt = evt.Str("errors", c.Errors.String())
		}
		evt.Str("request_id", GetRequestID(c)).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Dur("latency", latency).
			Str("ip", c.ClientIP()).
			Msg("http request")
	}
}

// Metrics records every request under its route pattern.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.ObserveHTTP(route, c.Request.Method, c.Writer.Status(), time.Since(start))
	}
}

// SessionCookie gives each browser a stable session id. The wizard and the
// sign-in state are stored server side under that id.
func SessionCookie(secure bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		sid, err := c.Cookie(models.SessionCookieName)
		if err != nil || uuid.Validate(sid) != nil {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(models.SessionCookieName, sid, models.DefaultStateTTL, "/", "", secure, true)
		}
		c.Set(sessionIDKey, sid)
		c.Next()
	}
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionIDKey)
}

// RateLimit throttles each client, keyed by API key or remote address.
func RateLimit(cfg config.APIRateLimitConfig, apiKeyHeader string) gin.HandlerFunc {
	limiter := newRateLimiter(cfg)
	if apiKeyHeader == "" {
		apiKeyHeader = apiKeyHeaderDefault
	}
	return func(c *gin.Context) {
		key := strings.TrimSpace(c.GetHeader(apiKeyHeader))
		if key == "" {
			key = c.ClientIP()
		}
		if key == "" {
			key = clientKeyUnknown
		}
		if !limiter.allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

// CORS allows the configured origins with credentials. It returns nil when no
// origin is configured.
func CORS(cfg config.CORSConfig) gin.HandlerFunc {
	if len(cfg.AllowedOrigins) == 0 {
		return nil
	}
	return cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Content-Type", "Authorization", "Accept", "Origin", requestIDHeader},
		ExposeHeaders:    []string{requestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	})
}
