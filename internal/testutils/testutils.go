package testutils

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TestRedis returns a client for the local test Redis instance, skipped
// unless TEST_DATABASE is set (the same gate as TestDB).
func TestRedis(t *testing.T) *redis.Client {
	t.Helper()

	if os.Getenv("TEST_DATABASE") == "" {
		t.Skip("TEST_DATABASE not set; skipping redis test")
	}

	db := 0
	if v := os.Getenv("TEST_REDIS_DB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			db = n
		}
	}

	client := redis.NewClient(&redis.Options{
		Addr: getEnv("TEST_REDIS_ADDR", "localhost:6380"),
		DB:   db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Fatalf("Failed to connect to test redis: %v", err)
	}

	t.Cleanup(func() {
		client.FlushDB(context.Background())
		client.Close()
	})

	return client
}

// RandomUUID returns a new random UUID for testing
func RandomUUID() uuid.UUID {
	return uuid.New()
}

// PastTime returns a time the given number of hours before now,
// truncated to whole seconds so round-trips through Postgres compare
// cleanly.
func PastTime(hoursAgo int) time.Time {
	return time.Now().Add(-time.Duration(hoursAgo) * time.Hour).Truncate(time.Second)
}
