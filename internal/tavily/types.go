// Package tavily provides a client for the Tavily search API.
// It serves both news ingestion and image lookups.
package tavily

import "fmt"

// APIError represents an error from the Tavily API.
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Tavily API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// SearchDepth controls the Tavily search depth.
type SearchDepth string

const (
	SearchDepthBasic    SearchDepth = "basic"
	SearchDepthAdvanced SearchDepth = "advanced"
)
