package assets

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketdigest/internal/common"
	"github.com/ternarybob/marketdigest/internal/interfaces"
	"github.com/ternarybob/marketdigest/internal/models"
)

// Service fans candidates out to the configured backend
type Service struct {
	backend interfaces.AssetBackend
	config  common.EnrichmentConfig
	logger  arbor.ILogger
}

var _ interfaces.AssetService = (*Service)(nil)

// NewService creates a new asset enrichment service
func NewService(backend interfaces.AssetBackend, config common.EnrichmentConfig, logger arbor.ILogger) *Service {
	return &Service{
		backend: backend,
		config:  config,
		logger:  logger,
	}
}

// EnrichAll enriches every candidate concurrently. Each candidate runs under
// its own timeout; a failure, timeout or panic leaves only that slot empty.
func (s *Service) EnrichAll(ctx context.Context, candidates []models.Candidate) []models.Asset {
	results := make([]*models.Asset, len(candidates))
	timeout := s.config.GetTimeout()

	var wg sync.WaitGroup
	for i, candidate := range candidates {
		wg.Add(1)
		common.SafeGo(s.logger, fmt.Sprintf("enrich-%s", candidate), &wg, func() {
			candidateCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			asset, err := s.backend.Enrich(candidateCtx, candidate)
			if err != nil {
				s.logger.Warn().
					Err(err).
					Str("candidate", string(candidate)).
					Str("backend", s.backend.Name()).
					Msg("Enrichment failed, candidate skipped")
				return
			}
			results[i] = asset
		})
	}
	wg.Wait()

	assets := make([]models.Asset, 0, len(candidates))
	for _, asset := range results {
		if asset != nil {
			assets = append(assets, *asset)
		}
	}

	s.logger.Info().
		Int("candidates", len(candidates)).
		Int("assets", len(assets)).
		Str("backend", s.backend.Name()).
		Msg("Enrichment complete")

	return assets
}

// Cleanup removes asset files from disk
func (s *Service) Cleanup(assets []models.Asset) {
	for _, asset := range assets {
		if err := os.Remove(asset.Path); err != nil && !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Str("path", asset.Path).Msg("Failed to remove asset")
		}
	}
}
