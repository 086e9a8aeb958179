package testrun

import (
	"testing"

	"gorm.io/gorm"

	"github.com/hairizuan-noorazman/webtester/config"
	"github.com/hairizuan-noorazman/webtester/events"
	"github.com/hairizuan-noorazman/webtester/logger"
	"github.com/hairizuan-noorazman/webtester/testutil"
)

// setupManager creates a manager with a fresh bus for testing.
func setupManager(t *testing.T) (*Manager, *events.Bus) {
	t.Helper()
	bus := events.NewBus()
	t.Cleanup(bus.Close)
	return NewManager(bus, logger.NewTestLogger()), bus
}

// setupHistoryStore creates a sqlite-backed history store for testing.
func setupHistoryStore(t *testing.T) (*gorm.DB, HistoryStore) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &Record{})
	return db, NewGormStore(db, logger.NewTestLogger())
}

// runConfig returns a configuration that passes run validation.
func runConfig() config.TestConfig {
	cfg := config.Default()
	cfg.GoogleAPIKey = "test-key"
	return cfg
}
