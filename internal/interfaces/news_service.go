package interfaces

import (
	"context"

	"github.com/ternarybob/marketdigest/internal/models"
)

// NewsIngestor captures the raw news batch for one run.
// Ingestion never fails: an upstream error yields the placeholder batch.
type NewsIngestor interface {
	Ingest(ctx context.Context) models.RawNewsBatch
}

// SummaryService runs the two-stage analysis and writing pipeline.
type SummaryService interface {
	Summarize(ctx context.Context, batch models.RawNewsBatch) (models.FinalReport, error)
}

// EntityExtractor derives enrichment candidates from a final report.
type EntityExtractor interface {
	Extract(report models.FinalReport) []models.Candidate
}
