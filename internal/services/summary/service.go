package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketdigest/internal/common"
	"github.com/ternarybob/marketdigest/internal/interfaces"
	"github.com/ternarybob/marketdigest/internal/models"
)

const (
	rawDataStart = "--- RAW NEWS DATA ---"
	rawDataEnd   = "--- END OF RAW NEWS DATA ---"
)

// ErrEmptyOutput is wrapped when a stage returns only whitespace.
var ErrEmptyOutput = errors.New("empty generation output")

// Service runs the analysis stage followed by the writing stage.
type Service struct {
	llm     interfaces.LLMService
	config  common.SummaryConfig
	analyst AgentProfile
	writer  AgentProfile
	logger  arbor.ILogger
}

var _ interfaces.SummaryService = (*Service)(nil)

// NewService creates a new summary service
func NewService(llm interfaces.LLMService, config common.SummaryConfig, logger arbor.ILogger) *Service {
	return &Service{
		llm:     llm,
		config:  config,
		analyst: AnalystProfile(),
		writer:  WriterProfile(),
		logger:  logger,
	}
}

// Summarize turns the raw batch into the final multilingual report.
func (s *Service) Summarize(ctx context.Context, batch models.RawNewsBatch) (models.FinalReport, error) {
	analysis, err := s.analyze(ctx, batch)
	if err != nil {
		return models.FinalReport{}, err
	}

	s.logger.Info().
		Str("provider", analysis.Provider).
		Int("length", len(analysis.Text)).
		Msg("Analysis stage complete")

	report, err := s.write(ctx, analysis)
	if err != nil {
		return models.FinalReport{}, err
	}

	s.logger.Info().
		Str("provider", report.Provider).
		Int("length", len(report.Text)).
		Msg("Writing stage complete")

	return report, nil
}

func (s *Service) analyze(ctx context.Context, batch models.RawNewsBatch) (models.AnalysisReport, error) {
	resp, err := s.generate(ctx, s.analyst, AnalysisPrompt(batch))
	if err != nil {
		return models.AnalysisReport{}, &UpstreamGenerationError{Stage: StageAnalysis, Err: err}
	}

	return models.AnalysisReport{
		Text:      resp.Text,
		Provider:  resp.Provider,
		Model:     resp.Model,
		CreatedAt: time.Now(),
	}, nil
}

func (s *Service) write(ctx context.Context, analysis models.AnalysisReport) (models.FinalReport, error) {
	resp, err := s.generate(ctx, s.writer, WritingPrompt(analysis, s.config.WordLimit))
	if err != nil {
		return models.FinalReport{}, &UpstreamGenerationError{Stage: StageWriting, Err: err}
	}

	if err := ValidateHeadings(resp.Text); err != nil {
		return models.FinalReport{}, &UpstreamGenerationError{Stage: StageWriting, Err: err}
	}

	return models.FinalReport{
		Text:      resp.Text,
		Provider:  resp.Provider,
		Model:     resp.Model,
		CreatedAt: time.Now(),
	}, nil
}

func (s *Service) generate(ctx context.Context, profile AgentProfile, prompt string) (*interfaces.ContentResponse, error) {
	resp, err := s.llm.GenerateContent(ctx, &interfaces.ContentRequest{
		SystemInstruction: profile.SystemInstruction(),
		Messages: []interfaces.Message{
			{Role: "user", Content: prompt},
		},
	})
	if err != nil {
		return nil, err
	}
	if resp == nil || strings.TrimSpace(resp.Text) == "" {
		return nil, ErrEmptyOutput
	}
	return resp, nil
}

// AnalysisPrompt embeds the raw batch verbatim between the data markers.
func AnalysisPrompt(batch models.RawNewsBatch) string {
	return "Analyze the following raw financial news data. Identify the top 3-5 most significant " +
		"market-moving stories, key stock performances, and any major economic announcements. " +
		"Here is the raw data to analyze:\n\n" +
		rawDataStart + "\n" + batch.Text + "\n" + rawDataEnd
}

// WritingPrompt asks for the English summary and the three labeled translations.
func WritingPrompt(analysis models.AnalysisReport, wordLimit int) string {
	headings := make([]string, 0, len(models.TranslationLanguages))
	for _, lang := range models.TranslationLanguages {
		headings = append(headings, models.TranslationHeading(lang))
	}

	return fmt.Sprintf(
		"Review the analyst report below and write a final, compelling summary for the public. "+
			"The summary must be less than %d words. After the summary, translate the English summary "+
			"into Arabic, Hindi, and Hebrew. Return a single block of text with the English summary first, "+
			"then each translation under its own heading, exactly as written and in this order:\n%s\n\n"+
			"Analyst report:\n%s",
		wordLimit, strings.Join(headings, "\n"), analysis.Text)
}

// ValidateHeadings checks that every translation heading is present and in order.
func ValidateHeadings(text string) error {
	pos := 0
	for _, lang := range models.TranslationLanguages {
		heading := models.TranslationHeading(lang)
		idx := strings.Index(text[pos:], heading)
		if idx < 0 {
			if strings.Contains(text, heading) {
				return fmt.Errorf("heading %q out of order", heading)
			}
			return fmt.Errorf("missing heading %q", heading)
		}
		pos += idx + len(heading)
	}
	return nil
}
