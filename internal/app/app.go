package app

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketdigest/internal/common"
	"github.com/ternarybob/marketdigest/internal/eodhd"
	"github.com/ternarybob/marketdigest/internal/interfaces"
	"github.com/ternarybob/marketdigest/internal/services/assets"
	"github.com/ternarybob/marketdigest/internal/services/delivery"
	"github.com/ternarybob/marketdigest/internal/services/digest"
	"github.com/ternarybob/marketdigest/internal/services/entities"
	"github.com/ternarybob/marketdigest/internal/services/llm"
	"github.com/ternarybob/marketdigest/internal/services/news"
	"github.com/ternarybob/marketdigest/internal/services/pdf"
	"github.com/ternarybob/marketdigest/internal/services/scheduler"
	"github.com/ternarybob/marketdigest/internal/services/summary"
	"github.com/ternarybob/marketdigest/internal/tavily"
)

// App holds all application components and dependencies
type App struct {
	Config *common.Config
	Logger arbor.ILogger

	// Clients
	SearchClient *tavily.Client
	EODHDClient  *eodhd.Client

	// Pipeline stages
	LLMService      interfaces.LLMService
	NewsService     interfaces.NewsIngestor
	SummaryService  interfaces.SummaryService
	EntityExtractor interfaces.EntityExtractor
	AssetService    interfaces.AssetService
	PDFService      interfaces.PDFService
	DeliveryService interfaces.DeliveryService

	Orchestrator     *digest.Orchestrator
	SchedulerService interfaces.SchedulerService
}

// New initializes the application with all dependencies
func New(cfg *common.Config, logger arbor.ILogger) (*App, error) {
	app := &App{
		Config: cfg,
		Logger: logger,
	}

	if err := app.initClients(); err != nil {
		return nil, fmt.Errorf("failed to initialize clients: %w", err)
	}

	if err := app.initServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	logger.Info().
		Str("llm_provider", string(cfg.LLM.DefaultProvider)).
		Str("enrichment_backend", string(cfg.Enrichment.Backend)).
		Bool("delivery_configured", cfg.Telegram.Configured()).
		Bool("schedule_enabled", cfg.Schedule.Enabled).
		Msg("Application initialization complete")

	return app, nil
}

func (a *App) initClients() error {
	a.SearchClient = tavily.NewClient(a.Config.Search.APIKey,
		tavily.WithBaseURL(a.Config.Search.BaseURL),
		tavily.WithTimeout(a.Config.Search.GetTimeout()),
		tavily.WithRateLimit(a.Config.Search.RateLimit),
		tavily.WithLogger(a.Logger),
	)

	if a.Config.Enrichment.Backend == common.EnrichmentBackendChart {
		a.EODHDClient = eodhd.NewClient(a.Config.EODHD.APIKey,
			eodhd.WithBaseURL(a.Config.EODHD.BaseURL),
			eodhd.WithTimeout(a.Config.EODHD.GetTimeout()),
			eodhd.WithRateLimit(a.Config.EODHD.RateLimit),
			eodhd.WithLogger(a.Logger),
		)
		if !a.EODHDClient.HasAPIKey() {
			a.Logger.Warn().Msg("EODHD_API_KEY not set, chart enrichment will produce no assets")
		}
	}
	return nil
}

func (a *App) initServices() error {
	cfg := a.Config

	a.LLMService = llm.NewProviderFactory(&cfg.Gemini, &cfg.Claude, &cfg.LLM, a.Logger)
	a.NewsService = news.NewService(a.SearchClient, cfg.Search, a.Logger)
	a.SummaryService = summary.NewService(a.LLMService, cfg.Summary, a.Logger)
	a.EntityExtractor = entities.NewExtractor(a.Logger)

	var backend interfaces.AssetBackend
	switch cfg.Enrichment.Backend {
	case common.EnrichmentBackendChart:
		backend = assets.NewChartBackend(a.EODHDClient, cfg.EODHD, cfg.Enrichment.AssetDir, a.Logger)
	case common.EnrichmentBackendImage, "":
		backend = assets.NewImageBackend(a.SearchClient, &http.Client{Timeout: cfg.Enrichment.GetTimeout()}, cfg.Enrichment.AssetDir, a.Logger)
	default:
		return fmt.Errorf("unknown enrichment backend %q", cfg.Enrichment.Backend)
	}
	a.AssetService = assets.NewService(backend, cfg.Enrichment, a.Logger)

	a.PDFService = pdf.NewService(cfg.Document, a.Logger)
	a.DeliveryService = delivery.NewService(cfg.Telegram, a.Logger)

	a.Orchestrator = digest.NewOrchestrator(
		a.NewsService,
		a.SummaryService,
		a.EntityExtractor,
		a.AssetService,
		a.PDFService,
		a.DeliveryService,
		cfg,
		a.Logger,
	)

	a.SchedulerService = scheduler.NewService(a.Logger)
	return nil
}

// RunOnce executes a single digest run
func (a *App) RunOnce(ctx context.Context) error {
	_, err := a.Orchestrator.Run(ctx)
	return err
}

// RunScheduled runs the digest on the configured cron schedule until ctx is cancelled.
// Failed runs are logged; the schedule keeps going.
func (a *App) RunScheduled(ctx context.Context) error {
	if err := a.SchedulerService.Start(ctx, a.Config.Schedule.Cron, a.RunOnce); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}

	var wg sync.WaitGroup
	if a.Config.Schedule.RunOnStart {
		wg.Add(1)
		common.SafeGo(a.Logger, "initial-digest-run", &wg, a.SchedulerService.TriggerNow)
	}

	<-ctx.Done()
	a.Logger.Info().Msg("Shutdown requested, stopping scheduler")
	if err := a.SchedulerService.Stop(); err != nil {
		a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
	}
	wg.Wait()

	status := a.SchedulerService.Status()
	event := a.Logger.Info().
		Str("schedule", status.Schedule).
		Int("runs", status.Runs).
		Int("skipped", status.Skipped)
	if status.LastRun != nil {
		event = event.Str("last_run", status.LastRun.Format(time.RFC3339))
	}
	if status.LastError != "" {
		event = event.Str("last_error", status.LastError)
	}
	event.Msg("Scheduler summary")
	return nil
}

// Close stops background work and releases clients
func (a *App) Close() error {
	if a.SchedulerService != nil && a.SchedulerService.IsRunning() {
		if err := a.SchedulerService.Stop(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to stop scheduler service")
		}
	}

	if a.LLMService != nil {
		if err := a.LLMService.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Failed to close LLM service")
		}
	}

	a.Logger.Info().Msg("Application closed")
	return nil
}
