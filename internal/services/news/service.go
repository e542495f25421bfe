package news

import (
	"context"
	"encoding/json"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketdigest/internal/common"
	"github.com/ternarybob/marketdigest/internal/interfaces"
	"github.com/ternarybob/marketdigest/internal/models"
	"github.com/ternarybob/marketdigest/internal/tavily"
)

// Searcher is the subset of the Tavily client used for ingestion
type Searcher interface {
	Search(ctx context.Context, request tavily.SearchRequest) (*tavily.SearchResponse, error)
}

// Service pulls the day's market news from the search API
type Service struct {
	searcher Searcher
	config   common.SearchConfig
	logger   arbor.ILogger
}

var _ interfaces.NewsIngestor = (*Service)(nil)

// NewService creates a new news ingestion service
func NewService(searcher Searcher, config common.SearchConfig, logger arbor.ILogger) *Service {
	return &Service{
		searcher: searcher,
		config:   config,
		logger:   logger,
	}
}

// batchResult is the serialized form of one search hit
type batchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score,omitempty"`
	PublishedDate string  `json:"published_date,omitempty"`
}

// Ingest runs the configured query once. Any failure degrades to the
// placeholder batch so the pipeline can continue.
func (s *Service) Ingest(ctx context.Context) models.RawNewsBatch {
	ctx, cancel := context.WithTimeout(ctx, s.config.GetTimeout())
	defer cancel()

	resp, err := s.searcher.Search(ctx, tavily.SearchRequest{
		Query:       s.config.Query,
		SearchDepth: tavily.SearchDepth(s.config.SearchDepth),
		MaxResults:  s.config.MaxResults,
	})
	if err != nil {
		s.logger.Warn().Err(err).Str("query", s.config.Query).Msg("News search failed, using placeholder batch")
		return models.NewPlaceholderBatch(s.config.Query)
	}

	results := make([]batchResult, 0, len(resp.Results))
	for _, r := range resp.Results {
		results = append(results, batchResult{
			Title:         r.Title,
			URL:           r.URL,
			Content:       r.Content,
			Score:         r.Score,
			PublishedDate: r.PublishedDate,
		})
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		s.logger.Warn().Err(err).Msg("Failed to serialize news results, using placeholder batch")
		return models.NewPlaceholderBatch(s.config.Query)
	}

	s.logger.Info().
		Str("query", s.config.Query).
		Int("results", len(results)).
		Msg("News batch ingested")

	return models.RawNewsBatch{
		Text:        string(data),
		Query:       s.config.Query,
		ResultCount: len(results),
		CapturedAt:  time.Now(),
	}
}
