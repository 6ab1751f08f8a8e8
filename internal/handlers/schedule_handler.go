package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/leonixyz/oncalendar/internal/models"
	"github.com/leonixyz/oncalendar/internal/oncalendar"
	"github.com/leonixyz/oncalendar/internal/repository"
)

type ScheduleHandler struct {
	scheduleRepo *repository.ScheduleRepository
}

func NewScheduleHandler(scheduleRepo *repository.ScheduleRepository) *ScheduleHandler {
	return &ScheduleHandler{scheduleRepo: scheduleRepo}
}

// validateSchedule rejects expressions the engine cannot parse and
// timezones the host does not know.
func validateSchedule(expression, timezone string) (int, string) {
	if _, err := oncalendar.Parse(expression); err != nil {
		return http.StatusBadRequest, err.Error()
	}
	if timezone != "" {
		if _, err := loadLocation(timezone); err != nil {
			return http.StatusBadRequest, "Unknown timezone: " + timezone
		}
	}
	return 0, ""
}

func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var req models.CreateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if code, msg := validateSchedule(req.Expression, req.Timezone); code != 0 {
		c.JSON(code, gin.H{"error": msg})
		return
	}

	schedule := &models.Schedule{
		Name:        req.Name,
		Description: req.Description,
		Expression:  req.Expression,
		Timezone:    req.Timezone,
		WebhookURL:  req.WebhookURL,
		Metadata:    req.Metadata,
		Tags:        req.Tags,
		Status:      models.ScheduleStatusActive,
		HMACSecret:  req.HMACSecret,
	}

	if err := h.scheduleRepo.Create(c.Request.Context(), schedule); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create schedule"})
		return
	}

	c.JSON(http.StatusCreated, schedule)
}

func (h *ScheduleHandler) GetSchedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule ID"})
		return
	}

	schedule, err := h.scheduleRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get schedule"})
		return
	}
	if schedule == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
		return
	}

	c.JSON(http.StatusOK, schedule)
}

func (h *ScheduleHandler) UpdateSchedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule ID"})
		return
	}

	schedule, err := h.scheduleRepo.GetByID(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to get schedule"})
		return
	}
	if schedule == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
		return
	}

	var req models.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if req.Name != nil {
		schedule.Name = *req.Name
	}
	if req.Description != nil {
		schedule.Description = *req.Description
	}
	if req.Expression != nil {
		schedule.Expression = *req.Expression
	}
	if req.Timezone != nil {
		schedule.Timezone = *req.Timezone
	}
	if req.WebhookURL != nil {
		schedule.WebhookURL = *req.WebhookURL
	}
	if req.Metadata != nil {
		schedule.Metadata = req.Metadata
	}
	if req.Tags != nil {
		schedule.Tags = req.Tags
	}
	if req.Status != nil {
		schedule.Status = models.ScheduleStatus(*req.Status)
	}
	if req.HMACSecret != nil {
		schedule.HMACSecret = req.HMACSecret
	}

	if code, msg := validateSchedule(schedule.Expression, schedule.Timezone); code != 0 {
		c.JSON(code, gin.H{"error": msg})
		return
	}

	if err := h.scheduleRepo.Update(c.Request.Context(), schedule); err != nil {
		if err == models.ErrScheduleNotFound {
			c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update schedule"})
		return
	}

	c.JSON(http.StatusOK, schedule)
}

func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid schedule ID"})
		return
	}

	if err := h.scheduleRepo.Delete(c.Request.Context(), id); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete schedule"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Schedule deleted successfully"})
}

func (h *ScheduleHandler) ListSchedules(c *gin.Context) {
	filter := models.ScheduleFilter{
		Tags:   c.QueryArray("tags"),
		Status: models.ScheduleStatus(c.Query("status")),
	}

	schedules, err := h.scheduleRepo.List(c.Request.Context(), filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list schedules"})
		return
	}

	c.JSON(http.StatusOK, schedules)
}
