package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/leonixyz/oncalendar/internal/oncalendar"
)

const maxPreviewCount = 1000

type PreviewHandler struct{}

func NewPreviewHandler() *PreviewHandler {
	return &PreviewHandler{}
}

type PreviewRequest struct {
	Expression string `json:"expression" binding:"required"`
	Start      string `json:"start"`
	Timezone   string `json:"timezone"`
	Count      int    `json:"count"`
}

type PreviewResponse struct {
	Expression string   `json:"expression"`
	Start      string   `json:"start"`
	Results    []string `json:"results"`
	Exhausted  bool     `json:"exhausted"`
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(name)
}

// Preview walks an expression backward from a start instant and returns
// the matching timestamps without touching any stored schedule.
func (h *PreviewHandler) Preview(c *gin.Context) {
	var req PreviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	loc, err := loadLocation(req.Timezone)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown timezone: " + req.Timezone})
		return
	}

	start := time.Now().In(loc)
	if req.Start != "" {
		start, err = time.ParseInLocation(time.RFC3339, req.Start, loc)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid start time, expected RFC3339"})
			return
		}
		start = start.In(loc)
	}

	count := req.Count
	if count <= 0 {
		count = 10
	}
	if count > maxPreviewCount {
		count = maxPreviewCount
	}

	it, err := oncalendar.New(req.Expression, start)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	results := make([]string, 0, count)
	exhausted := false
	for i := 0; i < count; i++ {
		t, ok := it.Next()
		if !ok {
			exhausted = true
			break
		}
		results = append(results, t.Format(time.RFC3339))
	}

	c.JSON(http.StatusOK, PreviewResponse{
		Expression: req.Expression,
		Start:      start.Format(time.RFC3339),
		Results:    results,
		Exhausted:  exhausted,
	})
}
