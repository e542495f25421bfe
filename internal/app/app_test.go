package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketdigest/internal/common"
	"github.com/ternarybob/marketdigest/internal/interfaces"
	"github.com/ternarybob/marketdigest/internal/services/assets"
)

func testConfig(t *testing.T) *common.Config {
	config := common.NewDefaultConfig()
	config.Search.APIKey = "tvly-test"
	config.Gemini.APIKey = "gemini-test"
	config.Enrichment.AssetDir = filepath.Join(t.TempDir(), "assets")
	config.Document.OutputDir = filepath.Join(t.TempDir(), "reports")
	return config
}

func TestNew_WiresImageBackend(t *testing.T) {
	app, err := New(testConfig(t), arbor.NewLogger())
	require.NoError(t, err)
	defer app.Close()

	assert.NotNil(t, app.Orchestrator)
	assert.NotNil(t, app.SchedulerService)
	assert.Nil(t, app.EODHDClient)
	assert.IsType(t, &assets.Service{}, app.AssetService)
}

func TestNew_WiresChartBackend(t *testing.T) {
	config := testConfig(t)
	config.Enrichment.Backend = common.EnrichmentBackendChart

	app, err := New(config, arbor.NewLogger())
	require.NoError(t, err)
	defer app.Close()

	require.NotNil(t, app.EODHDClient)
	assert.False(t, app.EODHDClient.HasAPIKey())
}

func TestNew_UnknownBackend(t *testing.T) {
	config := testConfig(t)
	config.Enrichment.Backend = "video"

	_, err := New(config, arbor.NewLogger())
	assert.Error(t, err)
}

type fakeScheduler struct {
	mu       sync.Mutex
	running  bool
	cronExpr string
	triggers int
	stops    int
}

func (f *fakeScheduler) Start(ctx context.Context, cronExpr string, handler interfaces.JobHandler) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	f.cronExpr = cronExpr
	return nil
}

func (f *fakeScheduler) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	f.stops++
	return nil
}

func (f *fakeScheduler) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeScheduler) TriggerNow() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers++
}

func (f *fakeScheduler) Status() interfaces.JobStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	return interfaces.JobStatus{Schedule: f.cronExpr, LastRun: &now, Runs: f.triggers, LastError: "summarize failed"}
}

func TestRunScheduled(t *testing.T) {
	tests := []struct {
		name       string
		runOnStart bool
		triggers   int
	}{
		{name: "schedule only", runOnStart: false, triggers: 0},
		{name: "run on start", runOnStart: true, triggers: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := testConfig(t)
			config.Schedule.Enabled = true
			config.Schedule.RunOnStart = tt.runOnStart

			app, err := New(config, arbor.NewLogger())
			require.NoError(t, err)
			fake := &fakeScheduler{}
			app.SchedulerService = fake

			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			require.NoError(t, app.RunScheduled(ctx))

			assert.Equal(t, config.Schedule.Cron, fake.cronExpr)
			assert.Equal(t, tt.triggers, fake.triggers)
			assert.Equal(t, 1, fake.stops)
			assert.False(t, fake.IsRunning())

			// Already stopped, Close leaves the scheduler alone
			require.NoError(t, app.Close())
			assert.Equal(t, 1, fake.stops)
		})
	}
}
