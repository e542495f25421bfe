package assets

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketdigest/internal/interfaces"
	"github.com/ternarybob/marketdigest/internal/models"
	"github.com/ternarybob/marketdigest/internal/tavily"
)

const maxImageBytes = 20 << 20

// Searcher is the subset of the Tavily client used for image lookups
type Searcher interface {
	Search(ctx context.Context, request tavily.SearchRequest) (*tavily.SearchResponse, error)
}

// ImageBackend downloads the first image returned by a search for the candidate.
// When the search returns no images, the top result page's preview image is used.
type ImageBackend struct {
	searcher   Searcher
	httpClient *http.Client
	dir        string
	logger     arbor.ILogger
}

var _ interfaces.AssetBackend = (*ImageBackend)(nil)

// NewImageBackend creates an image search backend writing into dir
func NewImageBackend(searcher Searcher, httpClient *http.Client, dir string, logger arbor.ILogger) *ImageBackend {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &ImageBackend{
		searcher:   searcher,
		httpClient: httpClient,
		dir:        dir,
		logger:     logger,
	}
}

func (b *ImageBackend) Name() string { return string(models.AssetKindImage) }

// ImageQuery is the search query issued for a candidate
func ImageQuery(candidate models.Candidate) string {
	return fmt.Sprintf("latest financial chart for %s", candidate)
}

// Enrich searches for an image, downloads it and checks it decodes
func (b *ImageBackend) Enrich(ctx context.Context, candidate models.Candidate) (*models.Asset, error) {
	resp, err := b.searcher.Search(ctx, tavily.SearchRequest{
		Query:         ImageQuery(candidate),
		SearchDepth:   tavily.SearchDepthBasic,
		MaxResults:    1,
		IncludeImages: true,
	})
	if err != nil {
		return nil, fmt.Errorf("image search failed: %w", err)
	}

	imageURL := resp.FirstImageURL()
	if imageURL == "" && len(resp.Results) > 0 {
		imageURL = b.previewImage(ctx, resp.Results[0].URL)
	}
	if imageURL == "" {
		return nil, fmt.Errorf("no images found for %q", candidate)
	}

	data, err := b.download(ctx, imageURL)
	if err != nil {
		return nil, err
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("unsupported image from %s: %w", imageURL, err)
	}

	ext := format
	if format == "jpeg" {
		ext = "jpg"
	}

	path, err := writeAsset(b.dir, "image", candidate, ext, data)
	if err != nil {
		return nil, err
	}

	b.logger.Debug().Str("candidate", string(candidate)).Str("path", path).Str("format", format).Msg("Image asset saved")

	return &models.Asset{
		Label:     candidate,
		Kind:      models.AssetKindImage,
		Path:      path,
		ImageType: format,
		Width:     cfg.Width,
		Height:    cfg.Height,
		SourceURL: imageURL,
	}, nil
}

// previewImage returns the og:image of a result page, or "" when the page
// cannot be fetched or declares none
func (b *ImageBackend) previewImage(ctx context.Context, pageURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return ""
	}
	resp, err := b.httpClient.Do(req)
	if err != nil {
		b.logger.Debug().Err(err).Str("url", pageURL).Msg("Preview page fetch failed")
		return ""
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return ""
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return ""
	}

	for _, selector := range []string{`meta[property="og:image"]`, `meta[name="twitter:image"]`} {
		content, ok := doc.Find(selector).First().Attr("content")
		if !ok || strings.TrimSpace(content) == "" {
			continue
		}
		ref, err := url.Parse(strings.TrimSpace(content))
		if err != nil {
			continue
		}
		return resp.Request.URL.ResolveReference(ref).String()
	}
	return ""
}

func (b *ImageBackend) download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("image download failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image download returned status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read image body: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("image download returned empty body")
	}
	return data, nil
}
