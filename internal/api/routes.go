package api

import (
	"github.com/gin-gonic/gin"
	"github.com/leonixyz/oncalendar/internal/handlers"
	"github.com/leonixyz/oncalendar/internal/middleware"
	"github.com/leonixyz/oncalendar/internal/models"
	"github.com/leonixyz/oncalendar/internal/services"
	"github.com/sirupsen/logrus"
	"go.uber.org/zap"
)

// SetupRoutes configures all API routes with their middleware
func SetupRoutes(
	router *gin.Engine,
	logger *zap.Logger,
	scheduleHandler *handlers.ScheduleHandler,
	occurrenceHandler *handlers.OccurrenceHandler,
	previewHandler *handlers.PreviewHandler,
	tokenHandler *handlers.TokenHandler,
	tokenService *services.TokenService,
	rateLimiter *middleware.RateLimiter,
	masterToken string,
) {
	accessLog := logrus.New()

	// Global middleware
	router.Use(middleware.RequestID(logger))
	router.Use(middleware.Logger(accessLog))
	router.Use(middleware.ErrorHandler())

	// Public routes
	public := router.Group("/")
	{
		public.GET("/status", handlers.StatusHandler)
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{"status": "ok"})
		})
	}

	// Read-only routes
	readable := router.Group("/")
	readable.Use(middleware.TokenAuth(tokenService, models.AccessLevelRead))
	readable.Use(rateLimiter.RateLimit())
	{
		readable.GET("/schedules", scheduleHandler.ListSchedules)
		readable.GET("/schedules/:id", scheduleHandler.GetSchedule)
		readable.GET("/schedules/:id/occurrences", occurrenceHandler.ListOccurrencesBySchedule)
		readable.GET("/occurrences", occurrenceHandler.ListOccurrencesByTags)
		readable.GET("/occurrences/:id", occurrenceHandler.GetOccurrence)
		readable.POST("/preview", previewHandler.Preview)
	}

	// Mutating routes
	writable := router.Group("/")
	writable.Use(middleware.TokenAuth(tokenService, models.AccessLevelWrite))
	writable.Use(rateLimiter.RateLimit())
	{
		writable.POST("/schedules", scheduleHandler.CreateSchedule)
		writable.PUT("/schedules/:id", scheduleHandler.UpdateSchedule)
		writable.DELETE("/schedules/:id", scheduleHandler.DeleteSchedule)
	}

	// Token routes (requires master token)
	tokens := router.Group("/tokens")
	tokens.Use(middleware.RequireMasterToken(masterToken))
	{
		tokens.POST("", tokenHandler.CreateToken)
	}
}
