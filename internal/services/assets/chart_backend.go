package assets

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ternarybob/marketdigest/internal/common"
	"github.com/ternarybob/marketdigest/internal/eodhd"
	"github.com/ternarybob/marketdigest/internal/interfaces"
	"github.com/ternarybob/marketdigest/internal/models"
)

// IntradaySource is the subset of the EODHD client used for charts
type IntradaySource interface {
	GetIntraday(ctx context.Context, symbol string, opts ...eodhd.QueryOption) (eodhd.IntradayResponse, error)
}

// symbolAliases maps index labels to EODHD symbols
var symbolAliases = map[models.Candidate]string{
	"S&P 500":          "GSPC.INDX",
	"NASDAQ Composite": "IXIC.INDX",
	"DOW":              "DJI.INDX",
}

// ChartBackend renders an intraday price chart for the candidate
type ChartBackend struct {
	source IntradaySource
	config common.EODHDConfig
	dir    string
	logger arbor.ILogger
	now    func() time.Time
}

var _ interfaces.AssetBackend = (*ChartBackend)(nil)

// NewChartBackend creates a chart backend writing into dir
func NewChartBackend(source IntradaySource, config common.EODHDConfig, dir string, logger arbor.ILogger) *ChartBackend {
	return &ChartBackend{
		source: source,
		config: config,
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

func (b *ChartBackend) Name() string { return string(models.AssetKindChart) }

// ResolveSymbol maps a candidate to an EODHD symbol
func (b *ChartBackend) ResolveSymbol(candidate models.Candidate) string {
	if symbol, ok := symbolAliases[candidate]; ok {
		return symbol
	}
	label := strings.ToUpper(strings.TrimSpace(string(candidate)))
	if strings.Contains(label, ".") || b.config.Exchange == "" {
		return label
	}
	return label + "." + b.config.Exchange
}

// Enrich fetches the intraday series and renders it as a PNG
func (b *ChartBackend) Enrich(ctx context.Context, candidate models.Candidate) (*models.Asset, error) {
	symbol := b.ResolveSymbol(candidate)
	to := b.now().UTC()
	from := to.AddDate(0, 0, -b.config.WindowDays)

	bars, err := b.source.GetIntraday(ctx, symbol,
		eodhd.WithDateRange(from, to),
		eodhd.WithInterval(b.config.Interval),
	)
	if err != nil {
		return nil, fmt.Errorf("intraday fetch for %s failed: %w", symbol, err)
	}

	times, closes := bars.Closes()
	png, err := RenderPriceChart(fmt.Sprintf("%s (%s)", candidate, symbol), times, closes)
	if err != nil {
		return nil, err
	}

	path, err := writeAsset(b.dir, "chart", candidate, "png", png)
	if err != nil {
		return nil, err
	}

	b.logger.Debug().Str("candidate", string(candidate)).Str("symbol", symbol).Int("points", len(closes)).Msg("Chart asset saved")

	return &models.Asset{
		Label:     candidate,
		Kind:      models.AssetKindChart,
		Path:      path,
		ImageType: "png",
		Width:     chartWidth,
		Height:    chartHeight,
		SourceURL: symbol,
	}, nil
}

const (
	chartWidth  = 900
	chartHeight = 400
)

// RenderPriceChart renders a single close-price line. Returns raw PNG bytes.
func RenderPriceChart(title string, times []time.Time, closes []float64) ([]byte, error) {
	if len(closes) < 2 {
		return nil, fmt.Errorf("need at least 2 data points, got %d", len(closes))
	}

	series := chart.TimeSeries{
		Name: "Close",
		Style: chart.Style{
			StrokeColor: drawing.ColorFromHex("2563eb"),
			StrokeWidth: 2.0,
		},
		XValues: times,
		YValues: closes,
	}

	graph := chart.Chart{
		Title:  title,
		Width:  chartWidth,
		Height: chartHeight,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 02 15:04")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: []chart.Series{series},
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}
