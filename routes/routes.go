package routes

import (
	"catalog-feed-service/controllers"
	"catalog-feed-service/middleware"

	"github.com/gin-gonic/gin"
)

// RegisterFeedRoutes sets up all feed-related routes.
func RegisterFeedRoutes(r *gin.Engine, fc *controllers.FeedController) {
	feeds := r.Group("/feeds")

	// Read-only endpoints
	feeds.GET("", fc.ListFeeds)
	feeds.GET("/:id/progress", fc.StreamProgress)

	// Mutating endpoints are throttled: each one can trigger a full
	// ingestion or deletion pass.
	mutating := feeds.Group("")
	mutating.Use(middleware.RateLimitMiddleware())
	mutating.POST("", fc.RegisterFeed)
	mutating.POST("/upload", fc.UploadFeed)
	mutating.PATCH("/:id/status", fc.ToggleFeedStatus)
	mutating.DELETE("/:id", fc.DeleteFeed)
}
