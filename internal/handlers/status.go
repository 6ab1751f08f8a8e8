package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leonixyz/oncalendar/internal/middleware"
	"go.uber.org/zap"
)

var startTime = time.Now()

// StatusResponse represents the status endpoint response
type StatusResponse struct {
	Status        string   `json:"status"`
	UptimeSeconds int64    `json:"uptime_seconds"`
	Version       string   `json:"version"`
	HMAC          HMACInfo `json:"hmac"`
}

// HMACInfo describes the webhook signing configuration
type HMACInfo struct {
	Algorithm                 string `json:"algorithm"`
	SignatureHeader           string `json:"signature_header"`
	ScheduleOverrideSupported bool   `json:"schedule_override_supported"`
}

// StatusHandler handles the status endpoint
func StatusHandler(c *gin.Context) {
	logger := c.MustGet(middleware.LoggerKey).(*zap.Logger)
	response := StatusResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(startTime).Seconds()),
		Version:       "1.0.0",
		HMAC: HMACInfo{
			Algorithm:                 "HMAC-SHA256",
			SignatureHeader:           "X-Oncal-Signature",
			ScheduleOverrideSupported: true,
		},
	}
	logger.Info("Status endpoint checked", zap.Int64("uptime_seconds", response.UptimeSeconds))
	c.JSON(http.StatusOK, response)
}
