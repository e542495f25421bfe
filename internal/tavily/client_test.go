package tavily

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_SendsRequestAndDecodesResults(t *testing.T) {
	var got SearchRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/search", r.URL.Path)
		assert.Equal(t, "Bearer tvly-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"query": "markets",
			"results": [{"title": "Stocks rally", "url": "https://news.example/a", "content": "S&P gains", "score": 0.9}],
			"images": ["https://img.example/1.png", {"url": "https://img.example/2.jpg", "description": "chart"}]
		}`))
	}))
	defer srv.Close()

	client := NewClient("tvly-test", WithBaseURL(srv.URL))
	resp, err := client.Search(context.Background(), SearchRequest{
		Query:         "markets",
		SearchDepth:   SearchDepthBasic,
		MaxResults:    5,
		IncludeImages: true,
	})
	require.NoError(t, err)

	assert.Equal(t, "markets", got.Query)
	assert.Equal(t, SearchDepthBasic, got.SearchDepth)
	assert.Equal(t, 5, got.MaxResults)
	assert.True(t, got.IncludeImages)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Stocks rally", resp.Results[0].Title)
	require.Len(t, resp.Images, 2)
	assert.Equal(t, "https://img.example/2.jpg", resp.Images[1].URL)
	assert.Equal(t, "https://img.example/1.png", resp.FirstImageURL())
}

func TestSearch_NonOKReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"detail":"invalid key"}`))
	}))
	defer srv.Close()

	client := NewClient("bad", WithBaseURL(srv.URL))
	_, err := client.Search(context.Background(), SearchRequest{Query: "markets"})
	require.Error(t, err)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "/search", apiErr.Endpoint)
}

func TestSearch_EmptyQuery(t *testing.T) {
	client := NewClient("key")
	_, err := client.Search(context.Background(), SearchRequest{})
	assert.Error(t, err)
}

func TestFirstImageURL_NoImages(t *testing.T) {
	resp := &SearchResponse{Images: []Image{{URL: ""}}}
	assert.Equal(t, "", resp.FirstImageURL())
}
