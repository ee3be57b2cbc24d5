package api

import (
	"net/http"
	"time"

	"comentsia-go/internal/auth"
	"comentsia-go/internal/config"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Context keys set by the middleware chain.
const (
	ctxRequestID = "request_id"
	ctxUserID    = "user_id"
	ctxCSRF      = "csrf"
)

// RequestIDMiddleware adds a request ID to each request
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(ctxRequestID, requestID)
		c.Header("X-Request-ID", requestID)
		c.Next()
	}
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)

		log.Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.GetString(ctxRequestID)),
		)
	}
}

// RecoveryMiddleware recovers from panics and logs errors
func RecoveryMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("request_id", c.GetString(ctxRequestID)),
					zap.String("path", c.Request.URL.Path),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"success": false,
					"error":   "Erro interno.",
				})
			}
		}()
		c.Next()
	}
}

// SessionMiddleware validates the session cookie minted by the main
// application and puts the user id and CSRF token on the request context.
func SessionMiddleware(cfg *config.Config) gin.HandlerFunc {
	secret := []byte(cfg.Session.Secret)
	return func(c *gin.Context) {
		cookie, err := c.Cookie(cfg.Session.CookieName)
		if err != nil || cookie == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Não autenticado.",
			})
			return
		}

		claims, err := auth.ParseSessionToken(secret, cookie)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"success": false,
				"error":   "Não autenticado.",
			})
			return
		}

		c.Set(ctxUserID, claims.UserID)
		c.Set(ctxCSRF, claims.CSRF)
		c.Next()
	}
}

// CSRFMiddleware enforces the double-submit check on mutating endpoints: the
// X-CSRF-Token header must equal the CSRF claim of the session cookie.
func CSRFMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetHeader("X-CSRF-Token")
		if token == "" || token != c.GetString(ctxCSRF) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"success": false,
				"error":   "Token CSRF inválido.",
			})
			return
		}
		c.Next()
	}
}

// RateLimitMiddleware bounds request frequency per scope and identity. The
// identity is the authenticated user when available, otherwise the client
// IP, so the limit holds before authentication too.
func RateLimitMiddleware(store *LimiterStore, scope string, limit rate.Limit, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		identity := c.GetString(ctxUserID)
		if identity == "" {
			identity = c.ClientIP()
		}
		if !store.Allow(scope, identity, limit, burst) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"success": false,
				"error":   "Limite de requisições excedido.",
			})
			return
		}
		c.Next()
	}
}
