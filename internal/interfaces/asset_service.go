package interfaces

import (
	"context"

	"github.com/ternarybob/marketdigest/internal/models"
)

// AssetBackend retrieves one visual asset for a candidate.
// A nil asset with a non-nil error means the candidate is skipped.
type AssetBackend interface {
	Name() string
	Enrich(ctx context.Context, candidate models.Candidate) (*models.Asset, error)
}

// AssetService enriches every candidate independently and returns the assets
// that were produced, in candidate order.
type AssetService interface {
	EnrichAll(ctx context.Context, candidates []models.Candidate) []models.Asset
	Cleanup(assets []models.Asset)
}
