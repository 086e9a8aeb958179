package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hairizuan-noorazman/webtester/agent"
	"github.com/hairizuan-noorazman/webtester/config"
	"github.com/hairizuan-noorazman/webtester/events"
	"github.com/hairizuan-noorazman/webtester/logger"
	"github.com/hairizuan-noorazman/webtester/storage"
	"github.com/hairizuan-noorazman/webtester/telemetry"
	"github.com/hairizuan-noorazman/webtester/testrun"
	"github.com/hairizuan-noorazman/webtester/testutil"
)

// stubAgentClient returns a canned agent output or error.
type stubAgentClient struct {
	output string
	err    error
}

func (c *stubAgentClient) RunTask(ctx context.Context, req agent.TaskRequest) (string, error) {
	if c.err != nil {
		return "", c.err
	}
	return c.output, nil
}

// testFixture bundles the components handler tests wire together.
type testFixture struct {
	store        config.Store
	manager      *testrun.Manager
	history      testrun.HistoryStore
	archives     storage.ArchiveStorage
	bus          *events.Bus
	orchestrator *agent.Orchestrator
	events       chan events.Event
	logger       logger.Logger
}

// setupFixture builds an in-memory stack around the given agent stub. The
// configuration starts from defaults with a key set so runs can start.
func setupFixture(t *testing.T, client agent.Client) *testFixture {
	t.Helper()
	log := logger.NewTestLogger()

	store := config.NewFileStore("", log)
	_, err := store.Apply(context.Background(), config.SetAPIKey("test-key"))
	require.NoError(t, err)

	bus := events.NewBus()
	t.Cleanup(bus.Close)
	manager := testrun.NewManager(bus, log)

	db := testutil.SetupTestDB(t)
	testutil.AutoMigrate(t, db, &testrun.Record{})
	history := testrun.NewGormStore(db, log)

	archives, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	tel := telemetry.New("localhost:4317", "test", log)
	orchestrator := agent.NewOrchestrator(store, manager, history, client, nil, archives, tel, bus, log)

	return &testFixture{
		store:        store,
		manager:      manager,
		history:      history,
		archives:     archives,
		bus:          bus,
		orchestrator: orchestrator,
		events:       bus.Subscribe(),
		logger:       log,
	}
}

// waitFinished blocks until the active run reaches a final state.
func (f *testFixture) waitFinished(t *testing.T) {
	t.Helper()
	for event := range f.events {
		switch event.EventType() {
		case events.TypeRunCompleted, events.TypeRunFailed:
			return
		}
	}
	t.Fatal("event stream closed before the run finished")
}
