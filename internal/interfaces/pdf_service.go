package interfaces

import "github.com/ternarybob/marketdigest/internal/models"

// SynthesisRequest is the input to document synthesis.
type SynthesisRequest struct {
	Title  string
	Text   string
	Assets []models.Asset
}

// PDFService lays out report text and assets into a paginated PDF document
type PDFService interface {
	// Synthesize builds the finalized document. Layout is a pure function of the request.
	Synthesize(request SynthesisRequest) (*models.Document, error)

	// Save writes the finalized document bytes to path and records the path on the document
	Save(doc *models.Document, path string) error
}
