package testutils

import (
	"os"
	"sync"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/leonixyz/oncalendar/internal/database"
	_ "github.com/lib/pq"
)

var (
	testDB     *sqlx.DB
	dbInitOnce sync.Once
)

// TestDB returns a shared connection to the local test database. Tests
// that use it are skipped unless TEST_DATABASE is set, so the default
// `go test ./...` run stays hermetic.
func TestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	if os.Getenv("TEST_DATABASE") == "" {
		t.Skip("TEST_DATABASE not set; skipping database test")
	}

	var initErr error
	dbInitOnce.Do(func() {
		cfg := database.Config{
			Host:     getEnv("TEST_DB_HOST", "localhost"),
			Port:     5433,
			User:     getEnv("TEST_DB_USER", "postgres"),
			Password: getEnv("TEST_DB_PASSWORD", "postgres"),
			DBName:   getEnv("TEST_DB_NAME", "oncalendar_test"),
			SSLMode:  getEnv("TEST_DB_SSL_MODE", "disable"),
		}
		testDB, initErr = database.NewPostgresDB(cfg)
	})

	if initErr != nil {
		t.Fatalf("Failed to initialize test database: %v", initErr)
	}

	t.Cleanup(func() {
		_, err := testDB.Exec("TRUNCATE TABLE schedules, occurrences CASCADE")
		if err != nil {
			t.Errorf("Failed to clean up test data: %v", err)
		}
	})

	return testDB
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}
