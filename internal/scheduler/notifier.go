package scheduler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/leonixyz/oncalendar/internal/models"
	"github.com/leonixyz/oncalendar/internal/services"
	"go.uber.org/zap"
)

// HTTPClient interface for mocking HTTP requests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// DeliveryStore is the slice of the occurrence repository the notifier
// writes delivery results through.
type DeliveryStore interface {
	RecordDelivery(ctx context.Context, id uuid.UUID, status models.OccurrenceStatus, statusCode int, responseBody, errorMessage string) error
}

// Notifier drains the replay queue and delivers each recorded run to
// its schedule's webhook, signing payloads with HMAC and recording the
// outcome in Postgres.
type Notifier struct {
	recorder    *Recorder
	deliveries  DeliveryStore
	hmacService *services.HMACService
	client      HTTPClient
	maxRetries  int
	retryDelay  time.Duration
	batchSize   int
	logger      *zap.Logger
}

func NewNotifier(recorder *Recorder, deliveries DeliveryStore, hmacService *services.HMACService, logger *zap.Logger) *Notifier {
	return &Notifier{
		recorder:    recorder,
		deliveries:  deliveries,
		hmacService: hmacService,
		client:      &http.Client{Timeout: 10 * time.Second},
		maxRetries:  3,
		retryDelay:  5 * time.Second,
		batchSize:   50,
		logger:      logger,
	}
}

// SetHTTPClient allows setting a custom HTTP client (used for testing)
func (n *Notifier) SetHTTPClient(client HTTPClient) {
	n.client = client
}

// SetRetryDelay overrides the delay between delivery attempts.
func (n *Notifier) SetRetryDelay(d time.Duration) {
	n.retryDelay = d
}

func (n *Notifier) retryWithBackoff(ctx context.Context, operation func() error) error {
	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		err := operation()
		if err == nil {
			return nil
		}

		lastErr = err
		if attempt == n.maxRetries {
			return lastErr
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(n.retryDelay):
		}
	}
	return lastErr
}

// Deliver posts one replay item to its webhook and records the result.
// Items without a webhook URL are marked delivered without a request.
func (n *Notifier) Deliver(ctx context.Context, item *models.ReplayItem) error {
	if item.WebhookURL == "" {
		return n.deliveries.RecordDelivery(ctx, item.OccurrenceID, models.OccurrenceStatusDelivered, 0, "", "")
	}

	payload := map[string]interface{}{
		"schedule_id":   item.ScheduleID,
		"occurrence_id": item.OccurrenceID,
		"name":          item.Name,
		"description":   item.Description,
		"scheduled_at":  item.ScheduledAt,
		"metadata":      item.Metadata,
		"tags":          item.Tags,
	}

	jsonPayload, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("error marshaling payload: %w", err)
	}

	baseReq, err := http.NewRequestWithContext(ctx, http.MethodPost, item.WebhookURL, nil)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}
	baseReq.Header.Set("Content-Type", "application/json")
	if n.hmacService != nil {
		// A schedule-level secret overrides the configured default.
		signature := n.hmacService.SignPayload(jsonPayload, item.HMACSecret)
		baseReq.Header.Set("X-Oncal-Signature", signature)
	}

	var finalStatus models.OccurrenceStatus
	var statusCode int
	var responseBody string
	var errorMessage string

	err = n.retryWithBackoff(ctx, func() error {
		req := baseReq.Clone(ctx)
		req.Body = io.NopCloser(bytes.NewReader(jsonPayload))
		req.ContentLength = int64(len(jsonPayload))

		resp, err := n.client.Do(req)
		if err != nil {
			finalStatus = models.OccurrenceStatusFailed
			statusCode = 0
			responseBody = ""
			errorMessage = err.Error()
			return fmt.Errorf("webhook request failed: %w", err)
		}

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()

		statusCode = resp.StatusCode
		responseBody = string(body)
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			finalStatus = models.OccurrenceStatusDelivered
			errorMessage = ""
			return nil
		}

		finalStatus = models.OccurrenceStatusFailed
		errorMessage = fmt.Sprintf("received non-2xx status code: %d", resp.StatusCode)
		return fmt.Errorf("received non-2xx status code: %d", resp.StatusCode)
	})

	if recordErr := n.deliveries.RecordDelivery(ctx, item.OccurrenceID, finalStatus, statusCode, responseBody, errorMessage); recordErr != nil {
		n.logger.Error("Failed to record delivery result",
			zap.String("occurrence_id", item.OccurrenceID.String()),
			zap.Error(recordErr))
	}

	return err
}

// DrainOnce delivers one batch from the replay queue and returns the
// number of items processed.
func (n *Notifier) DrainOnce(ctx context.Context) (int, error) {
	items, err := n.recorder.Drain(ctx, n.batchSize)
	if err != nil {
		return 0, err
	}

	for _, item := range items {
		if err := n.Deliver(ctx, item); err != nil {
			n.logger.Error("Error delivering occurrence",
				zap.String("occurrence_id", item.OccurrenceID.String()),
				zap.String("webhook_url", item.WebhookURL),
				zap.Error(err))
		}
	}
	return len(items), nil
}

// Run drains the replay queue once a second until the context is
// canceled.
func (n *Notifier) Run(ctx context.Context) error {
	n.logger.Info("Starting notifier")
	ticker := time.NewTicker(1 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			n.logger.Info("Notifier shutting down")
			return ctx.Err()
		case <-ticker.C:
			if _, err := n.DrainOnce(ctx); err != nil {
				n.logger.Error("Error draining replay queue", zap.Error(err))
			}
		}
	}
}
