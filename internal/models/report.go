package models

import (
	"fmt"
	"strings"
	"time"
)

// HeadingMarker delimits the English summary from the translation sections.
const HeadingMarker = "---"

// PlaceholderNewsText replaces the raw batch when ingestion fails.
const PlaceholderNewsText = "No search results found due to an error."

// TranslationLanguages is the fixed, ordered set of translation targets.
var TranslationLanguages = []string{"Arabic", "Hindi", "Hebrew"}

// TranslationHeading returns the literal heading for a translation section,
// e.g. "--- ARABIC TRANSLATION ---".
func TranslationHeading(language string) string {
	return fmt.Sprintf("%s %s TRANSLATION %s", HeadingMarker, strings.ToUpper(language), HeadingMarker)
}

// RawNewsBatch is the serialized ingestion output consumed by the analysis stage.
type RawNewsBatch struct {
	Text        string    `json:"text"`
	Query       string    `json:"query"`
	ResultCount int       `json:"result_count"`
	Placeholder bool      `json:"placeholder"` // Ingestion failed and PlaceholderNewsText was substituted
	CapturedAt  time.Time `json:"captured_at"`
}

// NewPlaceholderBatch builds the substitute batch used when ingestion fails.
func NewPlaceholderBatch(query string) RawNewsBatch {
	return RawNewsBatch{
		Text:        PlaceholderNewsText,
		Query:       query,
		Placeholder: true,
		CapturedAt:  time.Now(),
	}
}

// AnalysisReport is the bullet-point output of the analysis stage.
type AnalysisReport struct {
	Text      string    `json:"text"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// FinalReport is the English summary followed by the labeled translations.
type FinalReport struct {
	Text      string    `json:"text"`
	Provider  string    `json:"provider"`
	Model     string    `json:"model"`
	CreatedAt time.Time `json:"created_at"`
}

// EnglishSummary returns the text preceding the first heading marker.
func (r FinalReport) EnglishSummary() string {
	if idx := strings.Index(r.Text, HeadingMarker); idx >= 0 {
		return r.Text[:idx]
	}
	return r.Text
}

// Candidate is a short symbol or topic label extracted from the summary.
type Candidate string

// AssetKind is the retrieval strategy that produced an asset.
type AssetKind string

const (
	AssetKindImage AssetKind = "image"
	AssetKindChart AssetKind = "chart"
)

// Asset is a locally persisted visual tied to one candidate.
type Asset struct {
	Label     Candidate `json:"label"`
	Kind      AssetKind `json:"kind"`
	Path      string    `json:"path"`
	ImageType string    `json:"image_type"` // jpeg, png or gif
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	SourceURL string    `json:"source_url,omitempty"`
}

// DeliveryStatus is the outcome of a delivery attempt.
type DeliveryStatus string

const (
	DeliveryStatusSent    DeliveryStatus = "sent"
	DeliveryStatusSkipped DeliveryStatus = "skipped"
	DeliveryStatusFailed  DeliveryStatus = "failed"
)

// DeliveryReceipt records a delivery attempt. It is logged, never persisted.
type DeliveryReceipt struct {
	Status     DeliveryStatus `json:"status"`
	StatusCode int            `json:"status_code,omitempty"`
	Detail     string         `json:"detail,omitempty"`
	Caption    string         `json:"caption,omitempty"`
}
