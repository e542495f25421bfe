package entities

import (
	"regexp"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketdigest/internal/interfaces"
	"github.com/ternarybob/marketdigest/internal/models"
)

// MaxCandidates caps the number of candidates handed to enrichment.
const MaxCandidates = 2

// tickerPattern matches word-bounded runs of 1-5 uppercase ASCII letters.
// Acronyms such as "US" or "CEO" match too. \b is ASCII-only, so a
// non-ASCII letter counts as a boundary: "ÉTATS" yields "TATS".
var tickerPattern = regexp.MustCompile(`\b[A-Z]{1,5}\b`)

// FallbackCandidates is used when the summary yields no matches.
var FallbackCandidates = []models.Candidate{"S&P 500", "NASDAQ Composite"}

// Extractor derives enrichment candidates from the English summary
type Extractor struct {
	logger arbor.ILogger
}

var _ interfaces.EntityExtractor = (*Extractor)(nil)

// NewExtractor creates a new entity extractor
func NewExtractor(logger arbor.ILogger) *Extractor {
	return &Extractor{logger: logger}
}

// Extract returns up to MaxCandidates distinct tokens in order of first
// appearance, or the fallback pair when none are found.
func (e *Extractor) Extract(report models.FinalReport) []models.Candidate {
	matches := tickerPattern.FindAllString(report.EnglishSummary(), -1)

	seen := make(map[string]struct{}, len(matches))
	candidates := make([]models.Candidate, 0, MaxCandidates)
	for _, m := range matches {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		candidates = append(candidates, models.Candidate(m))
		if len(candidates) == MaxCandidates {
			break
		}
	}

	if len(candidates) == 0 {
		e.logger.Info().Msg("No ticker-like tokens in summary, using fallback candidates")
		return append([]models.Candidate(nil), FallbackCandidates...)
	}

	e.logger.Debug().Int("matches", len(matches)).Int("candidates", len(candidates)).Msg("Candidates extracted")
	return candidates
}
