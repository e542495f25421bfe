package delivery

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketdigest/internal/common"
	"github.com/ternarybob/marketdigest/internal/models"
)

func savedDoc(t *testing.T) *models.Document {
	t.Helper()
	path := filepath.Join(t.TempDir(), "daily_market_summary.pdf")
	require.NoError(t, os.WriteFile(path, []byte("%PDF-1.3 test"), 0644))
	return &models.Document{Path: path}
}

func TestDeliver_SkippedWhenUnconfigured(t *testing.T) {
	tests := []struct {
		name   string
		config common.TelegramConfig
	}{
		{"no token", common.TelegramConfig{ChatID: "42"}},
		{"no chat id", common.TelegramConfig{BotToken: "123:abc"}},
		{"nothing", common.TelegramConfig{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewService(tt.config, arbor.NewLogger())
			receipt, err := service.Deliver(context.Background(), savedDoc(t), "caption")
			require.NoError(t, err)
			assert.Equal(t, models.DeliveryStatusSkipped, receipt.Status)
		})
	}
}

func TestDeliver_Sent(t *testing.T) {
	doc := savedDoc(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/bot123:abc/sendDocument", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "42", r.FormValue("chat_id"))
		assert.Equal(t, "Updated Daily Market Summary 2026-10-19 07:00", r.FormValue("caption"))

		file, header, err := r.FormFile("document")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "daily_market_summary.pdf", header.Filename)
		data, _ := io.ReadAll(file)
		assert.Equal(t, "%PDF-1.3 test", string(data))

		w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	service := NewService(common.TelegramConfig{BotToken: "123:abc", ChatID: "42", BaseURL: srv.URL, Timeout: "5s"}, arbor.NewLogger())
	receipt, err := service.Deliver(context.Background(), doc, "Updated Daily Market Summary 2026-10-19 07:00")
	require.NoError(t, err)

	assert.Equal(t, models.DeliveryStatusSent, receipt.Status)
	assert.Equal(t, http.StatusOK, receipt.StatusCode)
	assert.FileExists(t, doc.Path)
}

func TestDeliver_FailedOnNonOK(t *testing.T) {
	doc := savedDoc(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"ok":false,"error_code":400,"description":"Bad Request: chat not found"}`))
	}))
	defer srv.Close()

	service := NewService(common.TelegramConfig{BotToken: "123:abc", ChatID: "42", BaseURL: srv.URL}, arbor.NewLogger())
	receipt, err := service.Deliver(context.Background(), doc, "caption")
	require.Error(t, err)

	var sendErr *SendError
	require.True(t, errors.As(err, &sendErr))
	assert.Equal(t, http.StatusBadRequest, sendErr.StatusCode)
	assert.Equal(t, "Bad Request: chat not found", sendErr.Description)
	assert.Equal(t, models.DeliveryStatusFailed, receipt.Status)
	assert.FileExists(t, doc.Path)
}

func TestDeliver_NetworkErrorRedactsToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	baseURL := srv.URL
	srv.Close()

	service := NewService(common.TelegramConfig{BotToken: "123:secret", ChatID: "42", BaseURL: baseURL}, arbor.NewLogger())
	receipt, err := service.Deliver(context.Background(), savedDoc(t), "caption")
	require.Error(t, err)

	assert.NotContains(t, err.Error(), "123:secret")
	assert.Equal(t, models.DeliveryStatusFailed, receipt.Status)
}
