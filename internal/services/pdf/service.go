package pdf

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketdigest/internal/common"
	"github.com/ternarybob/marketdigest/internal/interfaces"
	"github.com/ternarybob/marketdigest/internal/models"
)

// Page geometry in points (US Letter)
const (
	PageWidth      = 612.0
	PageHeight     = 792.0
	Margin         = 40.0
	BreakThreshold = 100.0 // distance from the bottom edge that triggers a page break

	TitleSize   = 14.0
	BodySize    = 10.0
	LeadingRate = 1.2

	AssetBoxWidth  = 500.0
	AssetBoxHeight = 360.0

	fallbackFamily = "Helvetica"
)

// Service lays out report text and assets into a paginated PDF
type Service struct {
	config common.DocumentConfig
	logger arbor.ILogger

	fontOnce  sync.Once
	fontBytes []byte
	fontErr   error
	warnOnce  sync.Once
}

// Compile-time assertion
var _ interfaces.PDFService = (*Service)(nil)

// NewService creates a new PDF service
func NewService(config common.DocumentConfig, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		logger: logger,
	}
}

// layout carries the state of one synthesis
type layout struct {
	pdf      *fpdf.Fpdf
	family   string
	fallback bool
	tr       func(string) string
	pages    []models.Page
	region   []placedLine
	cursor   float64
}

type placedLine struct {
	text string
	y    float64
}

// Synthesize builds the finalized document
func (s *Service) Synthesize(request interfaces.SynthesisRequest) (*models.Document, error) {
	pdf := fpdf.New("P", "pt", "Letter", "")
	pdf.SetMargins(Margin, Margin, Margin)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle(request.Title, true)
	pdf.SetCreator("marketdigest", true)

	l := &layout{
		pdf:    pdf,
		family: s.registerFont(pdf),
		tr:     func(s string) string { return s },
	}
	if l.family == fallbackFamily {
		l.fallback = true
		l.tr = pdf.UnicodeTranslatorFromDescriptor("")
	}

	l.startPage()

	// Title in the bold core font, then one blank line
	pdf.SetFont(fallbackFamily, "B", TitleSize)
	pdf.Text(Margin, l.cursor+TitleSize, pdf.UnicodeTranslatorFromDescriptor("")(request.Title))
	l.pages[0].Lines = append(l.pages[0].Lines, request.Title, "")
	l.cursor += 2 * TitleSize * LeadingRate
	l.applyBodyFont()

	leading := BodySize * LeadingRate
	width := PageWidth - 2*Margin
	for _, raw := range strings.Split(strings.ReplaceAll(request.Text, "\r\n", "\n"), "\n") {
		for _, line := range l.wrap(plainText(raw), width) {
			l.region = append(l.region, placedLine{text: line, y: l.cursor})
			l.cursor += leading
			if l.cursor > PageHeight-BreakThreshold {
				l.flush()
				l.startPage()
				l.applyBodyFont()
			}
		}
	}
	l.flush()

	for _, asset := range request.Assets {
		if err := l.addAssetPage(asset); err != nil {
			s.logger.Warn().Err(err).Str("label", string(asset.Label)).Str("path", asset.Path).Msg("Asset skipped, image could not be registered")
		}
	}

	if pdf.Err() {
		return nil, fmt.Errorf("failed to lay out PDF: %w", pdf.Error())
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to generate PDF output: %w", err)
	}

	doc := &models.Document{
		Title:     request.Title,
		Pages:     l.pages,
		Content:   buf.Bytes(),
		Font:      l.family,
		Fallback:  l.fallback,
		CreatedAt: time.Now(),
	}

	s.logger.Debug().
		Int("pages", doc.PageCount()).
		Int("text_pages", doc.TextPageCount()).
		Int("asset_pages", doc.AssetPageCount()).
		Int("pdf_size", buf.Len()).
		Str("font", l.family).
		Msg("PDF synthesized")

	return doc, nil
}

// Save writes the finalized bytes to path and verifies the written file
func (s *Service) Save(doc *models.Document, path string) error {
	if doc == nil || len(doc.Content) == 0 {
		return fmt.Errorf("document has no content")
	}
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, doc.Content, 0644); err != nil {
		return fmt.Errorf("failed to write PDF: %w", err)
	}
	doc.Path = path

	if err := Validate(path); err != nil {
		s.logger.Warn().Err(err).Str("path", path).Msg("Saved PDF failed validation")
	}

	s.logger.Info().Str("path", path).Int("pages", doc.PageCount()).Msg("PDF saved")
	return nil
}

// registerFont loads the configured TrueType font, returning the family to use
func (s *Service) registerFont(pdf *fpdf.Fpdf) string {
	s.fontOnce.Do(func() {
		if s.config.FontPath == "" {
			s.fontErr = fmt.Errorf("no font path configured")
			return
		}
		s.fontBytes, s.fontErr = os.ReadFile(s.config.FontPath)
		if s.fontErr == nil {
			s.fontErr = checkFont(s.fontFamily(), s.fontBytes)
		}
	})

	err := s.fontErr
	if err == nil {
		pdf.AddUTF8FontFromBytes(s.fontFamily(), "", s.fontBytes)
		pdf.SetFont(s.fontFamily(), "", BodySize)
		if pdf.Err() {
			err = pdf.Error()
			pdf.ClearError()
		}
	}

	if err != nil {
		s.warnOnce.Do(func() {
			s.logger.Warn().Err(err).Str("font_path", s.config.FontPath).Msg("Preferred font unavailable, falling back to Helvetica; non-Latin text will not render")
		})
		return fallbackFamily
	}
	return s.fontFamily()
}

// checkFont registers data on a scratch document. fpdf reports unparseable
// TrueType data only when the family is first selected.
func checkFont(family string, data []byte) error {
	scratch := fpdf.New("P", "pt", "Letter", "")
	scratch.AddUTF8FontFromBytes(family, "", data)
	scratch.SetFont(family, "", BodySize)
	if scratch.Err() {
		return fmt.Errorf("font could not be parsed: %w", scratch.Error())
	}
	return nil
}

func (s *Service) fontFamily() string {
	if s.config.FontFamily == "" {
		return "DejaVu"
	}
	return s.config.FontFamily
}

func (l *layout) startPage() {
	l.pdf.AddPage()
	l.pages = append(l.pages, models.Page{
		Number: len(l.pages) + 1,
		Kind:   models.PageKindText,
		Font:   l.family,
	})
	l.cursor = Margin
}

func (l *layout) applyBodyFont() {
	l.pdf.SetFont(l.family, "", BodySize)
}

// flush draws the accumulated region on the current page
func (l *layout) flush() {
	page := &l.pages[len(l.pages)-1]
	for _, line := range l.region {
		l.pdf.Text(Margin, line.y+BodySize, line.text)
		page.Lines = append(page.Lines, line.text)
	}
	l.region = l.region[:0]
}

// wrap greedily breaks text into lines no wider than width. Text is
// translated first in fallback mode, so widths are measured on the bytes
// that will actually be drawn.
func (l *layout) wrap(line string, width float64) []string {
	line = l.tr(line)
	if strings.TrimSpace(line) == "" {
		return []string{""}
	}

	var (
		lines   []string
		current string
	)
	for _, word := range strings.Fields(line) {
		candidate := word
		if current != "" {
			candidate = current + " " + word
		}
		if l.pdf.GetStringWidth(candidate) <= width {
			current = candidate
			continue
		}
		if current != "" {
			lines = append(lines, current)
			current = ""
		}
		for l.pdf.GetStringWidth(word) > width {
			head, rest := l.breakWord(word, width)
			lines = append(lines, head)
			word = rest
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	return lines
}

// breakWord splits an over-long word at the widest prefix that fits
func (l *layout) breakWord(word string, width float64) (string, string) {
	units := l.units(word)
	n := 1
	for n < len(units) && l.pdf.GetStringWidth(strings.Join(units[:n+1], "")) <= width {
		n++
	}
	return strings.Join(units[:n], ""), strings.Join(units[n:], "")
}

// units splits a word into drawable characters: runes for UTF-8 fonts,
// single bytes for translated core-font text
func (l *layout) units(word string) []string {
	if l.fallback {
		out := make([]string, len(word))
		for i := 0; i < len(word); i++ {
			out[i] = word[i : i+1]
		}
		return out
	}
	out := make([]string, 0, len(word))
	for _, r := range word {
		out = append(out, string(r))
	}
	return out
}

// addAssetPage appends one page showing the asset scaled into the asset box
func (l *layout) addAssetPage(asset models.Asset) error {
	info := l.pdf.RegisterImageOptions(asset.Path, fpdf.ImageOptions{ImageType: asset.ImageType})
	if l.pdf.Err() || info == nil {
		err := l.pdf.Error()
		l.pdf.ClearError()
		if err == nil {
			err = fmt.Errorf("image not registered")
		}
		return err
	}

	w, h := fitBox(info.Width(), info.Height(), AssetBoxWidth, AssetBoxHeight)
	header := fmt.Sprintf("Related Images Found: %s", asset.Label)

	l.pdf.AddPage()
	l.pdf.SetFont(fallbackFamily, "B", TitleSize)
	l.pdf.Text(Margin, Margin+TitleSize, l.pdf.UnicodeTranslatorFromDescriptor("")(header))
	top := Margin + 2*TitleSize*LeadingRate
	l.pdf.ImageOptions(asset.Path, Margin, top, w, h, false, fpdf.ImageOptions{ImageType: asset.ImageType}, 0, "")

	a := asset
	l.pages = append(l.pages, models.Page{
		Number: len(l.pages) + 1,
		Kind:   models.PageKindAsset,
		Header: header,
		Asset:  &a,
	})
	return nil
}

// fitBox scales (w, h) to fit inside (maxW, maxH) preserving aspect ratio
func fitBox(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return maxW, maxH
	}
	scale := maxW / w
	if h*scale > maxH {
		scale = maxH / h
	}
	return w * scale, h * scale
}
