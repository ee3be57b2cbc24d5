package api

import (
	"comentsia-go/internal/config"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Per-endpoint rate limits (requests per window, sliding token bucket keyed
// by scope and identity).
var (
	limitForm   = perMinute(120)
	limitUpload = perHour(10)
	limitList   = perMinute(240)
	limitDelete = perHour(30)
	limitCount  = perMinute(240)
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, handler *Handler, cfg *config.Config) {
	store := NewLimiterStore()

	// Probes stay unauthenticated.
	router.GET("/healthz", handler.HealthCheck)
	router.GET("/readyz", handler.ReadyCheck)

	booking := router.Group("/booking")
	booking.Use(SessionMiddleware(cfg))
	{
		booking.GET("/",
			RateLimitMiddleware(store, "booking_form", limitForm, 120),
			handler.BookingForm)
		booking.POST("/upload",
			RateLimitMiddleware(store, "booking_upload", limitUpload, 10),
			CSRFMiddleware(),
			handler.UploadCSV)
		booking.GET("/uploads",
			RateLimitMiddleware(store, "booking_list", limitList, 240),
			handler.ListUploads)
		booking.DELETE("/uploads/:id",
			RateLimitMiddleware(store, "booking_delete", limitDelete, 30),
			CSRFMiddleware(),
			handler.DeleteUpload)
		booking.GET("/count",
			RateLimitMiddleware(store, "booking_count", limitCount, 240),
			handler.CountReviews)
	}
}

func perMinute(n int) rate.Limit {
	return rate.Limit(float64(n) / 60.0)
}

func perHour(n int) rate.Limit {
	return rate.Limit(float64(n) / 3600.0)
}
