package delivery

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketdigest/internal/common"
	"github.com/ternarybob/marketdigest/internal/interfaces"
	"github.com/ternarybob/marketdigest/internal/models"
)

// SendError is returned when Telegram rejects a sendDocument call
type SendError struct {
	StatusCode  int
	Description string
}

func (e *SendError) Error() string {
	return fmt.Sprintf("telegram sendDocument failed: %s (status: %d)", e.Description, e.StatusCode)
}

// apiResponse is the Telegram Bot API response envelope
type apiResponse struct {
	OK          bool   `json:"ok"`
	Description string `json:"description,omitempty"`
	ErrorCode   int    `json:"error_code,omitempty"`
}

// Service sends documents to a Telegram chat via the Bot API
type Service struct {
	config common.TelegramConfig
	client *http.Client
	logger arbor.ILogger
}

var _ interfaces.DeliveryService = (*Service)(nil)

// NewService creates a new Telegram delivery service
func NewService(config common.TelegramConfig, logger arbor.ILogger) *Service {
	return &Service{
		config: config,
		client: &http.Client{Timeout: config.GetTimeout()},
		logger: logger,
	}
}

// Deliver uploads the saved document with the given caption. A missing bot
// token or chat id skips delivery without error.
func (s *Service) Deliver(ctx context.Context, doc *models.Document, caption string) (models.DeliveryReceipt, error) {
	if !s.config.Configured() {
		s.logger.Info().Msg("Telegram not configured, delivery skipped")
		return models.DeliveryReceipt{
			Status:  models.DeliveryStatusSkipped,
			Detail:  "bot token or chat id not configured",
			Caption: caption,
		}, nil
	}

	body, contentType, err := s.buildBody(doc, caption)
	if err != nil {
		return failed(caption, 0, err.Error()), err
	}

	endpoint := fmt.Sprintf("%s/bot%s/sendDocument", strings.TrimRight(s.config.BaseURL, "/"), s.config.BotToken)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		err = fmt.Errorf("failed to create request: %s", s.redact(err))
		return failed(caption, 0, err.Error()), err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		// The request URL embeds the bot token
		err = fmt.Errorf("sendDocument request failed: %s", s.redact(err))
		return failed(caption, 0, err.Error()), err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode != http.StatusOK {
		sendErr := &SendError{StatusCode: resp.StatusCode, Description: describe(resp, respBody)}
		s.logger.Warn().Int("status", resp.StatusCode).Str("description", sendErr.Description).Msg("Telegram rejected document")
		return failed(caption, resp.StatusCode, sendErr.Description), sendErr
	}

	s.logger.Info().Str("chat_id", s.config.ChatID).Str("path", doc.Path).Msg("Document delivered to Telegram")
	return models.DeliveryReceipt{
		Status:     models.DeliveryStatusSent,
		StatusCode: resp.StatusCode,
		Caption:    caption,
	}, nil
}

// buildBody encodes the multipart form with chat_id, caption and document
func (s *Service) buildBody(doc *models.Document, caption string) (*bytes.Buffer, string, error) {
	if doc == nil {
		return nil, "", fmt.Errorf("no document to deliver")
	}

	content := doc.Content
	name := "daily_market_summary.pdf"
	if doc.Path != "" {
		data, err := os.ReadFile(doc.Path)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read document: %w", err)
		}
		content = data
		name = filepath.Base(doc.Path)
	}
	if len(content) == 0 {
		return nil, "", fmt.Errorf("document is empty")
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	if err := writer.WriteField("chat_id", s.config.ChatID); err != nil {
		return nil, "", err
	}
	if err := writer.WriteField("caption", caption); err != nil {
		return nil, "", err
	}
	part, err := writer.CreateFormFile("document", name)
	if err != nil {
		return nil, "", err
	}
	if _, err := part.Write(content); err != nil {
		return nil, "", err
	}
	if err := writer.Close(); err != nil {
		return nil, "", err
	}
	return body, writer.FormDataContentType(), nil
}

func (s *Service) redact(err error) string {
	return strings.ReplaceAll(err.Error(), s.config.BotToken, "<redacted>")
}

func describe(resp *http.Response, body []byte) string {
	var parsed apiResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Description != "" {
		return parsed.Description
	}
	return resp.Status
}

func failed(caption string, status int, detail string) models.DeliveryReceipt {
	return models.DeliveryReceipt{
		Status:     models.DeliveryStatusFailed,
		StatusCode: status,
		Detail:     detail,
		Caption:    caption,
	}
}
