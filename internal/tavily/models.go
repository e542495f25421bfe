package tavily

import (
	"encoding/json"
	"fmt"
)

// SearchRequest is the body of a /search call.
type SearchRequest struct {
	Query         string      `json:"query"`
	SearchDepth   SearchDepth `json:"search_depth,omitempty"`
	MaxResults    int         `json:"max_results,omitempty"`
	IncludeImages bool        `json:"include_images,omitempty"`
	Topic         string      `json:"topic,omitempty"` // "general" or "news"
}

// Result is a single search hit.
type Result struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date,omitempty"`
}

// Image is an image search hit. The API returns either a bare URL string or an
// object with a description, depending on request flags.
type Image struct {
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// UnmarshalJSON accepts both the string and the object form.
func (i *Image) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		i.URL = s
		return nil
	}
	type imageAlias Image
	var alias imageAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return fmt.Errorf("unsupported image entry: %w", err)
	}
	*i = Image(alias)
	return nil
}

// SearchResponse is the body returned by /search.
type SearchResponse struct {
	Query        string   `json:"query"`
	Answer       string   `json:"answer,omitempty"`
	Results      []Result `json:"results"`
	Images       []Image  `json:"images"`
	ResponseTime float64  `json:"response_time"`
}

// FirstImageURL returns the first non-empty image URL, or "".
func (r *SearchResponse) FirstImageURL() string {
	for _, img := range r.Images {
		if img.URL != "" {
			return img.URL
		}
	}
	return ""
}
