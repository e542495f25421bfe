package digest

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketdigest/internal/common"
	"github.com/ternarybob/marketdigest/internal/interfaces"
	"github.com/ternarybob/marketdigest/internal/models"
)

// TimestampFormat is used in the document title and delivery caption
const TimestampFormat = "2006-01-02 15:04:05"

// RunResult summarizes one pipeline run
type RunResult struct {
	RunID      string
	Timestamp  time.Time
	Batch      models.RawNewsBatch
	Report     models.FinalReport
	Candidates []models.Candidate
	Assets     []models.Asset
	Document   *models.Document
	Receipt    models.DeliveryReceipt
}

// Orchestrator runs the digest stages in order
type Orchestrator struct {
	news      interfaces.NewsIngestor
	summary   interfaces.SummaryService
	extractor interfaces.EntityExtractor
	assets    interfaces.AssetService
	pdf       interfaces.PDFService
	delivery  interfaces.DeliveryService
	config    *common.Config
	logger    arbor.ILogger
	now       func() time.Time
}

// NewOrchestrator creates a new digest orchestrator
func NewOrchestrator(
	news interfaces.NewsIngestor,
	summary interfaces.SummaryService,
	extractor interfaces.EntityExtractor,
	assets interfaces.AssetService,
	pdf interfaces.PDFService,
	delivery interfaces.DeliveryService,
	config *common.Config,
	logger arbor.ILogger,
) *Orchestrator {
	return &Orchestrator{
		news:      news,
		summary:   summary,
		extractor: extractor,
		assets:    assets,
		pdf:       pdf,
		delivery:  delivery,
		config:    config,
		logger:    logger,
		now:       time.Now,
	}
}

// Title returns the document title for a run timestamp
func Title(ts time.Time) string {
	return fmt.Sprintf("Daily Market Summary (%s)", ts.Format(TimestampFormat))
}

// Caption returns the delivery caption for a run timestamp
func Caption(ts time.Time) string {
	return fmt.Sprintf("Updated Daily Market Summary %s", ts.Format(TimestampFormat))
}

// OutputPath is where the run's document is saved
func (o *Orchestrator) OutputPath() string {
	return filepath.Join(o.config.Document.OutputDir, o.config.Document.FileName)
}

// Run executes ingest, summarize, extract, enrich, synthesize, save, deliver
// and cleanup. Generation, synthesis and save errors are fatal; everything
// else degrades and the run continues.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	result := &RunResult{
		RunID:     uuid.New().String(),
		Timestamp: o.now(),
	}
	logger := o.logger.WithCorrelationId(result.RunID)
	started := time.Now()

	logger.Info().Str("run_id", result.RunID).Msg("Digest run started")

	result.Batch = o.news.Ingest(ctx)
	if result.Batch.Placeholder {
		logger.Warn().Msg("Continuing with placeholder news batch")
	} else {
		logger.Info().Int("results", result.Batch.ResultCount).Msg("News ingested")
	}

	report, err := o.summary.Summarize(ctx, result.Batch)
	if err != nil {
		logger.Error().Err(err).Msg("Summarization failed")
		return result, fmt.Errorf("summarize: %w", err)
	}
	result.Report = report

	result.Candidates = o.extractor.Extract(report)
	logger.Info().Strs("candidates", candidateStrings(result.Candidates)).Msg("Candidates extracted")

	result.Assets = o.assets.EnrichAll(ctx, result.Candidates)
	if o.config.Enrichment.Cleanup {
		defer o.assets.Cleanup(result.Assets)
	}

	doc, err := o.pdf.Synthesize(interfaces.SynthesisRequest{
		Title:  Title(result.Timestamp),
		Text:   report.Text,
		Assets: result.Assets,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Document synthesis failed")
		return result, fmt.Errorf("synthesize: %w", err)
	}
	result.Document = doc

	if err := o.pdf.Save(doc, o.OutputPath()); err != nil {
		logger.Error().Err(err).Msg("Document save failed")
		return result, fmt.Errorf("save: %w", err)
	}

	receipt, err := o.delivery.Deliver(ctx, doc, Caption(result.Timestamp))
	result.Receipt = receipt
	if err != nil {
		logger.Warn().Err(err).Msg("Delivery failed, document kept locally")
	}

	logger.Info().
		Str("path", doc.Path).
		Int("pages", doc.PageCount()).
		Int("assets", len(result.Assets)).
		Str("delivery", string(receipt.Status)).
		Dur("duration", time.Since(started)).
		Msg("Digest run complete")

	return result, nil
}

func candidateStrings(candidates []models.Candidate) []string {
	out := make([]string, len(candidates))
	for i, c := range candidates {
		out[i] = string(c)
	}
	return out
}
