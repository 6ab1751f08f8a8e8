package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func previewRequest(t *testing.T, router *gin.Engine, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/preview", bytes.NewBuffer(raw))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestPreviewHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	handler := NewPreviewHandler()
	router.POST("/preview", handler.Preview)

	t.Run("Daily Expression", func(t *testing.T) {
		w := previewRequest(t, router, PreviewRequest{
			Expression: "*-*-* 06:00:00",
			Start:      "2023-06-15T12:00:00Z",
			Count:      3,
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var response PreviewResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Equal(t, []string{
			"2023-06-15T06:00:00Z",
			"2023-06-14T06:00:00Z",
			"2023-06-13T06:00:00Z",
		}, response.Results)
		assert.False(t, response.Exhausted)
	})

	t.Run("Timezone Applied", func(t *testing.T) {
		w := previewRequest(t, router, PreviewRequest{
			Expression: "*-*-* 12:00:00",
			Start:      "2023-06-15T18:00:00+03:00",
			Timezone:   "Europe/Riga",
			Count:      1,
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var response PreviewResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		require.Len(t, response.Results, 1)
		assert.Equal(t, "2023-06-15T12:00:00+03:00", response.Results[0])
	})

	t.Run("Bounded Expression Exhausts", func(t *testing.T) {
		w := previewRequest(t, router, PreviewRequest{
			Expression: "2022-03-01 09:00",
			Start:      "2023-06-15T12:00:00Z",
			Count:      5,
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var response PreviewResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Equal(t, []string{"2022-03-01T09:00:00Z"}, response.Results)
		assert.True(t, response.Exhausted)
	})

	t.Run("Default Count", func(t *testing.T) {
		w := previewRequest(t, router, PreviewRequest{
			Expression: "hourly",
			Start:      "2023-06-15T12:30:00Z",
		})

		assert.Equal(t, http.StatusOK, w.Code)

		var response PreviewResponse
		err := json.Unmarshal(w.Body.Bytes(), &response)
		require.NoError(t, err)
		assert.Len(t, response.Results, 10)
		assert.Equal(t, "2023-06-15T12:00:00Z", response.Results[0])
	})

	t.Run("Invalid Expression", func(t *testing.T) {
		w := previewRequest(t, router, PreviewRequest{
			Expression: "*-*-* 25:00:00",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Unknown Timezone", func(t *testing.T) {
		w := previewRequest(t, router, PreviewRequest{
			Expression: "hourly",
			Timezone:   "Mars/Olympus",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Invalid Start", func(t *testing.T) {
		w := previewRequest(t, router, PreviewRequest{
			Expression: "hourly",
			Start:      "yesterday",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Missing Expression", func(t *testing.T) {
		w := previewRequest(t, router, map[string]interface{}{"count": 3})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
