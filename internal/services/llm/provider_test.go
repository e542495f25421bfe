package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketdigest/internal/common"
	"github.com/ternarybob/marketdigest/internal/interfaces"
	"google.golang.org/genai"
)

func newTestFactory(provider common.LLMProvider) *ProviderFactory {
	config := common.NewDefaultConfig()
	config.LLM.DefaultProvider = provider
	return NewProviderFactory(&config.Gemini, &config.Claude, &config.LLM, arbor.NewLogger())
}

func TestDetectProvider(t *testing.T) {
	factory := newTestFactory(common.LLMProviderGemini)

	tests := []struct {
		model string
		want  ProviderType
	}{
		{"", ProviderGemini},
		{"claude-sonnet-4-20250514", ProviderClaude},
		{"anthropic/claude-opus", ProviderClaude},
		{"gemini-3-flash-preview", ProviderGemini},
		{"google/gemini-pro", ProviderGemini},
		{"something-else", ProviderGemini},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, factory.DetectProvider(tt.model))
		})
	}

	claudeDefault := newTestFactory(common.LLMProviderClaude)
	assert.Equal(t, ProviderClaude, claudeDefault.DetectProvider(""))
}

func TestNormalizeModel(t *testing.T) {
	factory := newTestFactory(common.LLMProviderGemini)

	assert.Equal(t, "claude-opus", factory.NormalizeModel("anthropic/claude-opus"))
	assert.Equal(t, "gemini-pro", factory.NormalizeModel("google/gemini-pro"))
	assert.Equal(t, "gemini-3-flash-preview", factory.NormalizeModel("gemini-3-flash-preview"))
}

func TestGenerateContent_MissingKey(t *testing.T) {
	factory := newTestFactory(common.LLMProviderClaude)

	_, err := factory.GenerateContent(context.Background(), &interfaces.ContentRequest{
		Messages: []interfaces.Message{{Role: "user", Content: "hello"}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key is not configured")
}

func TestConvertMessages(t *testing.T) {
	messages := []interfaces.Message{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "hello"},
		{Role: "assistant", Content: "hi"},
	}

	contents, system, err := convertMessagesToGemini(messages)
	require.NoError(t, err)
	assert.Equal(t, "be brief", system)
	require.Len(t, contents, 2)
	assert.Equal(t, "model", contents[1].Role)

	claudeMessages, system, err := convertMessagesToClaude(messages)
	require.NoError(t, err)
	assert.Equal(t, "be brief", system)
	assert.Len(t, claudeMessages, 2)

	_, _, err = convertMessagesToGemini([]interfaces.Message{{Role: "assistant", Content: "x"}})
	assert.Error(t, err)
	_, _, err = convertMessagesToClaude(nil)
	assert.Error(t, err)
}

func TestExtractGeminiText(t *testing.T) {
	_, err := extractGeminiText(nil)
	assert.Error(t, err)

	_, err = extractGeminiText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "  "}}}}},
	})
	assert.Error(t, err)

	text, err := extractGeminiText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{
			{Text: "thinking", Thought: true},
			{Text: "Markets "},
			{Text: "rallied"},
		}}}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Markets rallied", text)
}
