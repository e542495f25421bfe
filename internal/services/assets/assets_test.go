package assets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketdigest/internal/common"
	"github.com/ternarybob/marketdigest/internal/eodhd"
	"github.com/ternarybob/marketdigest/internal/models"
	"github.com/ternarybob/marketdigest/internal/tavily"
)

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "image_AAPL.jpg", FileName("image", "AAPL", "jpg"))
	assert.Equal(t, "chart_BRK.B.png", FileName("chart", "BRK.B", "png"))

	sp := FileName("image", "S&P 500", "png")
	assert.Regexp(t, `^image_S_P_500_[0-9a-f]{8}\.png$`, sp)
	assert.NotEqual(t, sp, FileName("image", "S P 500", "png"))
	assert.Equal(t, sp, FileName("image", "S&P 500", "png"))
}

func newImageServer(t *testing.T, body []byte, status int, withImages bool) *httptest.Server {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			w.Header().Set("Content-Type", "application/json")
			if !withImages {
				w.Write([]byte(`{"results": [], "images": []}`))
				return
			}
			fmt.Fprintf(w, `{"results": [], "images": ["%s/img/chart"]}`, srv.URL)
		case "/img/chart":
			w.WriteHeader(status)
			w.Write(body)
		default:
			http.NotFound(w, r)
		}
	}))
	return srv
}

func TestImageBackend_Success(t *testing.T) {
	srv := newImageServer(t, testPNG(t, 40, 20), http.StatusOK, true)
	defer srv.Close()

	dir := t.TempDir()
	backend := NewImageBackend(tavily.NewClient("tvly-test", tavily.WithBaseURL(srv.URL)), srv.Client(), dir, arbor.NewLogger())

	asset, err := backend.Enrich(context.Background(), "NVDA")
	require.NoError(t, err)

	assert.Equal(t, models.Candidate("NVDA"), asset.Label)
	assert.Equal(t, models.AssetKindImage, asset.Kind)
	assert.Equal(t, "png", asset.ImageType)
	assert.Equal(t, 40, asset.Width)
	assert.Equal(t, 20, asset.Height)
	assert.Equal(t, filepath.Join(dir, "image_NVDA.png"), asset.Path)
	assert.FileExists(t, asset.Path)
}

func TestImageBackend_Failures(t *testing.T) {
	tests := []struct {
		name       string
		body       []byte
		status     int
		withImages bool
	}{
		{"no images", nil, http.StatusOK, false},
		{"download error status", []byte("gone"), http.StatusNotFound, true},
		{"unsupported image", []byte("<html>not an image</html>"), http.StatusOK, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newImageServer(t, tt.body, tt.status, tt.withImages)
			defer srv.Close()

			dir := t.TempDir()
			backend := NewImageBackend(tavily.NewClient("tvly-test", tavily.WithBaseURL(srv.URL)), srv.Client(), dir, arbor.NewLogger())

			asset, err := backend.Enrich(context.Background(), "NVDA")
			assert.Error(t, err)
			assert.Nil(t, asset)

			entries, _ := os.ReadDir(dir)
			assert.Empty(t, entries)
		})
	}
}

func TestImageBackend_PreviewImageFallback(t *testing.T) {
	preview := testPNG(t, 30, 30)
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			fmt.Fprintf(w, `{"results": [{"title": "Apple earnings", "url": "%s/article"}], "images": []}`, srv.URL)
		case "/article":
			w.Write([]byte(`<html><head><meta property="og:image" content="/static/preview.png"></head><body></body></html>`))
		case "/static/preview.png":
			w.Write(preview)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	backend := NewImageBackend(tavily.NewClient("tvly-test", tavily.WithBaseURL(srv.URL)), srv.Client(), t.TempDir(), arbor.NewLogger())

	asset, err := backend.Enrich(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, srv.URL+"/static/preview.png", asset.SourceURL)
	assert.Equal(t, 30, asset.Width)
}

func TestImageQuery(t *testing.T) {
	assert.Equal(t, "latest financial chart for S&P 500", ImageQuery("S&P 500"))
}

type fakeIntraday struct {
	bars    eodhd.IntradayResponse
	err     error
	symbols []string
}

func (f *fakeIntraday) GetIntraday(ctx context.Context, symbol string, opts ...eodhd.QueryOption) (eodhd.IntradayResponse, error) {
	f.symbols = append(f.symbols, symbol)
	return f.bars, f.err
}

func bars(closes ...float64) eodhd.IntradayResponse {
	start := time.Date(2026, 10, 12, 13, 30, 0, 0, time.UTC)
	out := make(eodhd.IntradayResponse, 0, len(closes))
	for i := range closes {
		c := closes[i]
		out = append(out, eodhd.IntradayData{Time: start.Add(time.Duration(i) * time.Hour), Close: &c})
	}
	return out
}

func TestChartBackend_ResolveSymbol(t *testing.T) {
	backend := NewChartBackend(&fakeIntraday{}, common.NewDefaultConfig().EODHD, t.TempDir(), arbor.NewLogger())

	assert.Equal(t, "GSPC.INDX", backend.ResolveSymbol("S&P 500"))
	assert.Equal(t, "IXIC.INDX", backend.ResolveSymbol("NASDAQ Composite"))
	assert.Equal(t, "AAPL.US", backend.ResolveSymbol("AAPL"))
	assert.Equal(t, "BHP.AU", backend.ResolveSymbol("BHP.AU"))
}

func TestChartBackend_Enrich(t *testing.T) {
	dir := t.TempDir()
	source := &fakeIntraday{bars: bars(100, 101.5, 99.8, 102.2)}
	backend := NewChartBackend(source, common.NewDefaultConfig().EODHD, dir, arbor.NewLogger())

	asset, err := backend.Enrich(context.Background(), "S&P 500")
	require.NoError(t, err)

	assert.Equal(t, []string{"GSPC.INDX"}, source.symbols)
	assert.Equal(t, models.AssetKindChart, asset.Kind)
	assert.Equal(t, "png", asset.ImageType)
	assert.FileExists(t, asset.Path)

	f, err := os.Open(asset.Path)
	require.NoError(t, err)
	defer f.Close()
	cfg, format, err := image.DecodeConfig(f)
	require.NoError(t, err)
	assert.Equal(t, "png", format)
	assert.Equal(t, chartWidth, cfg.Width)
}

func TestChartBackend_Failures(t *testing.T) {
	tests := []struct {
		name   string
		source *fakeIntraday
	}{
		{"api error", &fakeIntraday{err: &eodhd.APIError{StatusCode: 404, Message: "not found"}}},
		{"empty series", &fakeIntraday{}},
		{"single point", &fakeIntraday{bars: bars(100)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := NewChartBackend(tt.source, common.NewDefaultConfig().EODHD, t.TempDir(), arbor.NewLogger())
			asset, err := backend.Enrich(context.Background(), "AAPL")
			assert.Error(t, err)
			assert.Nil(t, asset)
		})
	}
}

// scriptedBackend behaves per candidate: ok, fail, panic or hang
type scriptedBackend struct {
	dir string
}

func (b *scriptedBackend) Name() string { return "scripted" }

func (b *scriptedBackend) Enrich(ctx context.Context, candidate models.Candidate) (*models.Asset, error) {
	switch candidate {
	case "FAIL":
		return nil, errors.New("lookup failed")
	case "PANIC":
		panic("backend exploded")
	case "HANG":
		<-ctx.Done()
		return nil, ctx.Err()
	}
	path, err := writeAsset(b.dir, "image", candidate, "png", []byte("png"))
	if err != nil {
		return nil, err
	}
	return &models.Asset{Label: candidate, Kind: models.AssetKindImage, Path: path, ImageType: "png"}, nil
}

func TestEnrichAll_MixedOutcomes(t *testing.T) {
	dir := t.TempDir()
	config := common.EnrichmentConfig{AssetDir: dir, Timeout: "100ms"}
	service := NewService(&scriptedBackend{dir: dir}, config, arbor.NewLogger())

	assets := service.EnrichAll(context.Background(), []models.Candidate{"AAPL", "FAIL", "PANIC", "HANG", "MSFT"})

	require.Len(t, assets, 2)
	assert.Equal(t, models.Candidate("AAPL"), assets[0].Label)
	assert.Equal(t, models.Candidate("MSFT"), assets[1].Label)
}

func TestEnrichAll_AllFail(t *testing.T) {
	config := common.EnrichmentConfig{AssetDir: t.TempDir(), Timeout: "1s"}
	service := NewService(&scriptedBackend{}, config, arbor.NewLogger())

	assets := service.EnrichAll(context.Background(), []models.Candidate{"FAIL", "FAIL"})
	assert.Empty(t, assets)
}

func TestCleanup(t *testing.T) {
	dir := t.TempDir()
	config := common.EnrichmentConfig{AssetDir: dir, Timeout: "1s"}
	service := NewService(&scriptedBackend{dir: dir}, config, arbor.NewLogger())

	assets := service.EnrichAll(context.Background(), []models.Candidate{"AAPL"})
	require.Len(t, assets, 1)
	require.FileExists(t, assets[0].Path)

	service.Cleanup(append(assets, models.Asset{Path: filepath.Join(dir, "missing.png")}))
	assert.NoFileExists(t, assets[0].Path)
}
