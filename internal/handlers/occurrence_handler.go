package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/leonixyz/oncalendar/internal/middleware"
	"github.com/leonixyz/oncalendar/internal/models"
	"github.com/leonixyz/oncalendar/internal/repository"
	"go.uber.org/zap"
)

type OccurrenceHandler struct {
	scheduleRepo   *repository.ScheduleRepository
	occurrenceRepo *repository.OccurrenceRepository
}

func NewOccurrenceHandler(scheduleRepo *repository.ScheduleRepository, occurrenceRepo *repository.OccurrenceRepository) *OccurrenceHandler {
	return &OccurrenceHandler{
		scheduleRepo:   scheduleRepo,
		occurrenceRepo: occurrenceRepo,
	}
}

func (h *OccurrenceHandler) GetOccurrence(c *gin.Context) {
	logger := c.MustGet(middleware.LoggerKey).(*zap.Logger)
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		logger.Warn("Invalid occurrence ID", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid occurrence ID"})
		return
	}

	occurrence, err := h.occurrenceRepo.GetByOccurrenceID(c.Request.Context(), id)
	if err != nil {
		logger.Error("Failed to get occurrence", zap.String("id", id.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get occurrence"})
		return
	}

	if occurrence == nil {
		logger.Info("Occurrence not found", zap.String("id", id.String()))
		c.JSON(http.StatusNotFound, gin.H{"error": "Occurrence not found"})
		return
	}
	logger.Info("Occurrence retrieved", zap.String("id", id.String()))
	c.JSON(http.StatusOK, occurrence)
}

func (h *OccurrenceHandler) ListOccurrencesByTags(c *gin.Context) {
	logger := c.MustGet(middleware.LoggerKey).(*zap.Logger)
	tags := c.QueryArray("tags")
	if len(tags) == 0 {
		logger.Warn("Tags parameter is required for listing occurrences")
		c.JSON(http.StatusBadRequest, gin.H{"error": "Tags parameter is required"})
		return
	}

	page, limit := paginationParams(c, logger)

	filter := models.OccurrenceFilter{
		Tags:  tags,
		Page:  page,
		Limit: limit,
	}

	occurrences, total, err := h.occurrenceRepo.ListByTags(c.Request.Context(), filter)
	if err != nil {
		logger.Error("Failed to list occurrences by tags", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list occurrences"})
		return
	}

	if occurrences == nil {
		occurrences = []models.Occurrence{}
	}

	response := models.PaginatedResponse{
		Data: occurrences,
		Pagination: struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
			Total int `json:"total"`
		}{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	}

	logger.Info("Listed occurrences by tags", zap.Strings("tags", tags), zap.Int("total", total))
	c.JSON(http.StatusOK, response)
}

func (h *OccurrenceHandler) ListOccurrencesBySchedule(c *gin.Context) {
	logger := c.MustGet(middleware.LoggerKey).(*zap.Logger)
	scheduleID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		logger.Warn("Invalid schedule ID for listing occurrences", zap.String("id", c.Param("id")), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule ID"})
		return
	}

	schedule, err := h.scheduleRepo.GetByID(c.Request.Context(), scheduleID)
	if err != nil {
		logger.Error("Failed to get schedule for listing occurrences", zap.String("schedule_id", scheduleID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get schedule"})
		return
	}
	if schedule == nil {
		logger.Info("Schedule not found for listing occurrences", zap.String("schedule_id", scheduleID.String()))
		c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
		return
	}

	page, limit := paginationParams(c, logger)

	occurrences, total, err := h.occurrenceRepo.ListBySchedule(c.Request.Context(), scheduleID, page, limit)
	if err != nil {
		logger.Error("Failed to list occurrences by schedule", zap.String("schedule_id", scheduleID.String()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list occurrences"})
		return
	}

	if occurrences == nil {
		occurrences = []models.Occurrence{}
	}

	response := models.PaginatedResponse{
		Data: occurrences,
		Pagination: struct {
			Page  int `json:"page"`
			Limit int `json:"limit"`
			Total int `json:"total"`
		}{
			Page:  page,
			Limit: limit,
			Total: total,
		},
	}

	logger.Info("Listed occurrences by schedule", zap.String("schedule_id", scheduleID.String()), zap.Int("total", total))
	c.JSON(http.StatusOK, response)
}

func paginationParams(c *gin.Context, logger *zap.Logger) (page, limit int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		logger.Warn("Invalid page parameter", zap.String("page", c.DefaultQuery("page", "1")))
		page = 1
	}

	limit, err = strconv.Atoi(c.DefaultQuery("limit", "50"))
	if err != nil || limit < 1 || limit > 100 {
		logger.Warn("Invalid limit parameter", zap.String("limit", c.DefaultQuery("limit", "50")))
		limit = 50
	}
	return page, limit
}
