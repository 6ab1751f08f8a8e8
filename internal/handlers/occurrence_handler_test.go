package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/leonixyz/oncalendar/internal/middleware"
	"github.com/leonixyz/oncalendar/internal/models"
	"github.com/leonixyz/oncalendar/internal/repository"
	"github.com/leonixyz/oncalendar/internal/testutils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// testLogger injects a no-op zap logger under the key the handlers
// expect from the request-id middleware.
func testLogger() gin.HandlerFunc {
	logger := zap.NewNop()
	return func(c *gin.Context) {
		c.Set(middleware.LoggerKey, logger)
		c.Next()
	}
}

func TestOccurrenceHandler(t *testing.T) {
	db := testutils.TestDB(t)
	rdb := testutils.TestRedis(t)
	scheduleRepo := repository.NewScheduleRepository(db, zap.NewNop(), rdb, "")
	occurrenceRepo := repository.NewOccurrenceRepository(db)
	handler := NewOccurrenceHandler(scheduleRepo, occurrenceRepo)

	cleanup := func() {
		ctx := context.Background()
		_, err := db.ExecContext(ctx, "TRUNCATE TABLE occurrences CASCADE")
		require.NoError(t, err)
		_, err = db.ExecContext(ctx, "TRUNCATE TABLE schedules CASCADE")
		require.NoError(t, err)
	}

	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(testLogger())
	router.GET("/occurrences/:id", handler.GetOccurrence)
	router.GET("/schedules/:id/occurrences", handler.ListOccurrencesBySchedule)
	router.GET("/occurrences", handler.ListOccurrencesByTags)

	newSchedule := func(name string, tags []string) *models.Schedule {
		schedule := &models.Schedule{
			Name:       name,
			Expression: "*-*-* 06:00:00",
			Timezone:   "UTC",
			WebhookURL: "https://example.com/webhook",
			Metadata:   []byte(`{"key": "value"}`),
			Tags:       tags,
			Status:     models.ScheduleStatusActive,
		}
		err := scheduleRepo.Create(context.Background(), schedule)
		require.NoError(t, err)
		return schedule
	}

	t.Run("Get Occurrence", func(t *testing.T) {
		cleanup()
		schedule := newSchedule("Test Schedule", []string{"test"})

		occurrence := &models.Occurrence{
			OccurrenceID: uuid.New(),
			ScheduleID:   schedule.ID,
			ScheduledAt:  time.Now().Add(-time.Hour).Truncate(time.Second),
			Status:       models.OccurrenceStatusRecorded,
		}
		err := occurrenceRepo.Create(context.Background(), occurrence)
		require.NoError(t, err)

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/occurrences/"+occurrence.OccurrenceID.String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response models.Occurrence
		err = json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Equal(t, occurrence.OccurrenceID, response.OccurrenceID)
		assert.Equal(t, occurrence.ScheduleID, response.ScheduleID)
		assert.Equal(t, occurrence.Status, response.Status)
	})

	t.Run("List Occurrences by Schedule", func(t *testing.T) {
		cleanup()
		first := newSchedule("Schedule 1", []string{"test1"})
		newSchedule("Schedule 2", []string{"test2"})

		for i := 1; i <= 2; i++ {
			occurrence := &models.Occurrence{
				OccurrenceID: uuid.New(),
				ScheduleID:   first.ID,
				ScheduledAt:  time.Now().Add(-time.Duration(i) * time.Hour).Truncate(time.Second),
				Status:       models.OccurrenceStatusRecorded,
			}
			err := occurrenceRepo.Create(context.Background(), occurrence)
			require.NoError(t, err)
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/schedules/"+first.ID.String()+"/occurrences", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data       []models.Occurrence `json:"data"`
			Pagination struct {
				Total int `json:"total"`
			} `json:"pagination"`
		}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Len(t, response.Data, 2)
		assert.Equal(t, 2, response.Pagination.Total)
	})

	t.Run("List Occurrences by Tags", func(t *testing.T) {
		cleanup()
		tagged := newSchedule("Tagged", []string{"billing"})
		other := newSchedule("Other", []string{"ops"})

		for _, s := range []*models.Schedule{tagged, other} {
			occurrence := &models.Occurrence{
				OccurrenceID: uuid.New(),
				ScheduleID:   s.ID,
				ScheduledAt:  time.Now().Add(-time.Hour).Truncate(time.Second),
				Status:       models.OccurrenceStatusRecorded,
			}
			err := occurrenceRepo.Create(context.Background(), occurrence)
			require.NoError(t, err)
		}

		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/occurrences?tags=billing", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)

		var response struct {
			Data []models.Occurrence `json:"data"`
		}
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		require.Len(t, response.Data, 1)
		assert.Equal(t, tagged.ID, response.Data[0].ScheduleID)
	})

	t.Run("Non-existent Occurrence", func(t *testing.T) {
		cleanup()
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/occurrences/"+uuid.New().String(), nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Missing Tags Parameter", func(t *testing.T) {
		cleanup()
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/occurrences", nil)
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
