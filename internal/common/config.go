package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string           `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig    `toml:"logging"`
	Search      SearchConfig     `toml:"search"`
	LLM         LLMConfig        `toml:"llm"`
	Gemini      GeminiConfig     `toml:"gemini"`
	Claude      ClaudeConfig     `toml:"claude"`
	Summary     SummaryConfig    `toml:"summary"`
	Enrichment  EnrichmentConfig `toml:"enrichment"`
	EODHD       EODHDConfig      `toml:"eodhd"`
	Document    DocumentConfig   `toml:"document"`
	Telegram    TelegramConfig   `toml:"telegram"`
	Schedule    ScheduleConfig   `toml:"schedule"`
}

type LoggingConfig struct {
	Level      string   `toml:"level" validate:"oneof=debug info warn error"` // "debug", "info", "warn", "error"
	Output     []string `toml:"output"`                                       // "stdout", "file"
	TimeFormat string   `toml:"time_format"`                                  // Time format for logs (default: "15:04:05")
}

// SearchConfig contains the Tavily search configuration used for news ingestion
// and image lookups
type SearchConfig struct {
	APIKey      string `toml:"api_key"`
	BaseURL     string `toml:"base_url" validate:"required,url"`
	Query       string `toml:"query" validate:"required"`                    // Ingestion query
	SearchDepth string `toml:"search_depth" validate:"oneof=basic advanced"` // "basic" or "advanced"
	MaxResults  int    `toml:"max_results" validate:"min=1,max=20"`
	Timeout     string `toml:"timeout"`    // Duration string (default: "30s")
	RateLimit   int    `toml:"rate_limit"` // Requests per second
}

// GetTimeout parses and returns the timeout duration
func (c *SearchConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// LLMProvider represents the AI provider type
type LLMProvider string

const (
	// LLMProviderGemini uses Google Gemini API
	LLMProviderGemini LLMProvider = "gemini"
	// LLMProviderClaude uses Anthropic Claude API
	LLMProviderClaude LLMProvider = "claude"
)

// LLMConfig selects the generation provider used by both summarization stages
type LLMConfig struct {
	DefaultProvider LLMProvider `toml:"default_provider" validate:"oneof=gemini claude"`
}

// GeminiConfig contains Google Gemini API configuration
type GeminiConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	Timeout     string  `toml:"timeout"`     // Operation timeout as duration string (default: "5m")
	Temperature float32 `toml:"temperature"` // Completion temperature (default: 0.7)
}

// ClaudeConfig contains Anthropic Claude API configuration
type ClaudeConfig struct {
	APIKey      string  `toml:"api_key"`
	Model       string  `toml:"model"`
	MaxTokens   int     `toml:"max_tokens"`
	Timeout     string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// SummaryConfig controls the writing stage prompt
type SummaryConfig struct {
	WordLimit int `toml:"word_limit" validate:"gt=0"` // Soft ceiling on the English summary (default: 500)
}

// EnrichmentBackend selects how assets are retrieved for candidates
type EnrichmentBackend string

const (
	// EnrichmentBackendImage downloads the first image search result
	EnrichmentBackendImage EnrichmentBackend = "image"
	// EnrichmentBackendChart renders an intraday price chart
	EnrichmentBackendChart EnrichmentBackend = "chart"
)

// EnrichmentConfig contains asset enrichment configuration
type EnrichmentConfig struct {
	Backend  EnrichmentBackend `toml:"backend" validate:"oneof=image chart"`
	AssetDir string            `toml:"asset_dir" validate:"required"`
	Timeout  string            `toml:"timeout"` // Per-candidate timeout (default: "30s")
	Cleanup  bool              `toml:"cleanup"` // Remove asset files after delivery
}

// GetTimeout parses and returns the per-candidate timeout
func (c *EnrichmentConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// EODHDConfig holds EODHD API configuration for the chart backend
type EODHDConfig struct {
	APIKey     string `toml:"api_key"`
	BaseURL    string `toml:"base_url" validate:"required,url"`
	Exchange   string `toml:"exchange"`                             // Suffix appended to bare tickers (default: "US")
	Interval   string `toml:"interval" validate:"oneof=1m 5m 1h"`   // Intraday interval
	WindowDays int    `toml:"window_days" validate:"min=1,max=120"` // Lookback window
	RateLimit  int    `toml:"rate_limit"`
	Timeout    string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// DocumentConfig controls PDF output
type DocumentConfig struct {
	OutputDir  string `toml:"output_dir" validate:"required"`
	FileName   string `toml:"file_name" validate:"required"`
	FontPath   string `toml:"font_path"`   // UTF-8 TrueType font for non-Latin translations
	FontFamily string `toml:"font_family"` // Family name the font is registered under
}

// TelegramConfig holds the optional delivery destination
type TelegramConfig struct {
	BotToken string `toml:"bot_token"`
	ChatID   string `toml:"chat_id"`
	BaseURL  string `toml:"base_url" validate:"required,url"`
	Timeout  string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *TelegramConfig) GetTimeout() time.Duration {
	return parseDuration(c.Timeout, 30*time.Second)
}

// Configured reports whether both delivery identifiers are present
func (c *TelegramConfig) Configured() bool {
	return c.BotToken != "" && c.ChatID != ""
}

// ScheduleConfig enables periodic runs
type ScheduleConfig struct {
	Enabled    bool   `toml:"enabled"`
	Cron       string `toml:"cron" validate:"required_if=Enabled true"` // 5-field cron expression
	RunOnStart bool   `toml:"run_on_start"`                             // Run once immediately, then follow the schedule
}

// NewDefaultConfig creates a configuration with default values
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:      "info",
			Output:     []string{"stdout"},
			TimeFormat: "15:04:05",
		},
		Search: SearchConfig{
			BaseURL:     "https://api.tavily.com",
			Query:       "US financial markets news last 24 hours",
			SearchDepth: "basic",
			MaxResults:  5,
			Timeout:     "30s",
			RateLimit:   5,
		},
		LLM: LLMConfig{
			DefaultProvider: LLMProviderGemini,
		},
		Gemini: GeminiConfig{
			Model:       "gemini-3-flash-preview",
			Timeout:     "5m",
			Temperature: 0.7,
		},
		Claude: ClaudeConfig{
			Model:       "claude-sonnet-4-20250514",
			MaxTokens:   8192,
			Timeout:     "5m",
			Temperature: 0.7,
		},
		Summary: SummaryConfig{
			WordLimit: 500,
		},
		Enrichment: EnrichmentConfig{
			Backend:  EnrichmentBackendImage,
			AssetDir: "./data/assets",
			Timeout:  "30s",
			Cleanup:  true,
		},
		EODHD: EODHDConfig{
			BaseURL:    "https://eodhd.com/api",
			Exchange:   "US",
			Interval:   "1h",
			WindowDays: 5,
			RateLimit:  10,
			Timeout:    "30s",
		},
		Document: DocumentConfig{
			OutputDir:  "./data/reports",
			FileName:   "daily_market_summary.pdf",
			FontPath:   "./fonts/DejaVuSans.ttf",
			FontFamily: "DejaVu",
		},
		Telegram: TelegramConfig{
			BaseURL: "https://api.telegram.org",
			Timeout: "30s",
		},
		Schedule: ScheduleConfig{
			Enabled: false,
			Cron:    "0 7 * * 1-5", // 07:00 on weekdays
		},
	}
}

// LoadFromFiles loads configuration with priority: default -> file1 -> file2 -> ... -> env
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// firstEnv returns the first non-empty environment variable among names
func firstEnv(names ...string) string {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			return v
		}
	}
	return ""
}

// applyEnvOverrides applies environment variable overrides to config.
// MARKETDIGEST_ prefixed names take priority over the provider-standard names.
func applyEnvOverrides(config *Config) {
	if env := firstEnv("MARKETDIGEST_ENV", "GO_ENV"); env != "" {
		config.Environment = env
	}

	// Logging
	if level := os.Getenv("MARKETDIGEST_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("MARKETDIGEST_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Search
	if apiKey := firstEnv("MARKETDIGEST_TAVILY_API_KEY", "TAVILY_API_KEY"); apiKey != "" {
		config.Search.APIKey = apiKey
	}
	if query := os.Getenv("MARKETDIGEST_SEARCH_QUERY"); query != "" {
		config.Search.Query = query
	}
	if maxResults := os.Getenv("MARKETDIGEST_SEARCH_MAX_RESULTS"); maxResults != "" {
		if mr, err := strconv.Atoi(maxResults); err == nil {
			config.Search.MaxResults = mr
		}
	}

	// LLM
	if provider := os.Getenv("MARKETDIGEST_LLM_DEFAULT_PROVIDER"); provider != "" {
		config.LLM.DefaultProvider = LLMProvider(provider)
	}
	if apiKey := firstEnv("MARKETDIGEST_GEMINI_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY"); apiKey != "" {
		config.Gemini.APIKey = apiKey
	}
	if model := os.Getenv("MARKETDIGEST_GEMINI_MODEL"); model != "" {
		config.Gemini.Model = model
	}
	if apiKey := firstEnv("MARKETDIGEST_CLAUDE_API_KEY", "ANTHROPIC_API_KEY"); apiKey != "" {
		config.Claude.APIKey = apiKey
	}
	if model := os.Getenv("MARKETDIGEST_CLAUDE_MODEL"); model != "" {
		config.Claude.Model = model
	}

	// Enrichment
	if backend := os.Getenv("MARKETDIGEST_ENRICHMENT_BACKEND"); backend != "" {
		config.Enrichment.Backend = EnrichmentBackend(backend)
	}
	if assetDir := os.Getenv("MARKETDIGEST_ENRICHMENT_ASSET_DIR"); assetDir != "" {
		config.Enrichment.AssetDir = assetDir
	}
	if cleanup := os.Getenv("MARKETDIGEST_ENRICHMENT_CLEANUP"); cleanup != "" {
		if c, err := strconv.ParseBool(cleanup); err == nil {
			config.Enrichment.Cleanup = c
		}
	}
	if apiKey := firstEnv("MARKETDIGEST_EODHD_API_KEY", "EODHD_API_KEY"); apiKey != "" {
		config.EODHD.APIKey = apiKey
	}

	// Document
	if outputDir := os.Getenv("MARKETDIGEST_DOCUMENT_OUTPUT_DIR"); outputDir != "" {
		config.Document.OutputDir = outputDir
	}
	if fontPath := os.Getenv("MARKETDIGEST_DOCUMENT_FONT_PATH"); fontPath != "" {
		config.Document.FontPath = fontPath
	}

	// Delivery
	if token := firstEnv("MARKETDIGEST_TELEGRAM_BOT_TOKEN", "TELEGRAM_BOT_TOKEN"); token != "" {
		config.Telegram.BotToken = token
	}
	if chatID := firstEnv("MARKETDIGEST_TELEGRAM_CHAT_ID", "TELEGRAM_CHAT_ID"); chatID != "" {
		config.Telegram.ChatID = chatID
	}

	// Schedule
	if cronExpr := os.Getenv("MARKETDIGEST_SCHEDULE_CRON"); cronExpr != "" {
		config.Schedule.Cron = cronExpr
	}
	if enabled := os.Getenv("MARKETDIGEST_SCHEDULE_ENABLED"); enabled != "" {
		if e, err := strconv.ParseBool(enabled); err == nil {
			config.Schedule.Enabled = e
		}
	}
	if runOnStart := os.Getenv("MARKETDIGEST_SCHEDULE_RUN_ON_START"); runOnStart != "" {
		if r, err := strconv.ParseBool(runOnStart); err == nil {
			config.Schedule.RunOnStart = r
		}
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config
func ApplyFlagOverrides(config *Config, once bool) {
	if once {
		config.Schedule.Enabled = false
	}
}

// Validate checks field constraints and the schedule expression.
func (c *Config) Validate() error {
	validate := validator.New()
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if c.Schedule.Enabled {
		if err := ValidateJobSchedule(c.Schedule.Cron); err != nil {
			return fmt.Errorf("invalid schedule: %w", err)
		}
	}
	return nil
}

// ValidateCredentials checks the mandatory credentials: the search key and the key
// for the selected generation provider. A missing credential is a fatal startup error.
func (c *Config) ValidateCredentials() error {
	if c.Search.APIKey == "" {
		return fmt.Errorf("TAVILY_API_KEY is not set (set TAVILY_API_KEY, MARKETDIGEST_TAVILY_API_KEY or search.api_key)")
	}
	switch c.LLM.DefaultProvider {
	case LLMProviderClaude:
		if c.Claude.APIKey == "" {
			return fmt.Errorf("ANTHROPIC_API_KEY is not set (required by llm.default_provider = %q)", c.LLM.DefaultProvider)
		}
	default:
		if c.Gemini.APIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is not set (required by llm.default_provider = %q)", c.LLM.DefaultProvider)
		}
	}
	return nil
}

// ValidateJobSchedule validates a cron schedule expression and ensures minimum 5-minute interval
func ValidateJobSchedule(schedule string) error {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	if _, err := parser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}

	parts := strings.Fields(schedule)
	if len(parts) < 5 {
		return fmt.Errorf("invalid cron format: expected 5 fields")
	}

	minuteField := parts[0]
	if minuteField == "*" {
		return fmt.Errorf("schedule must have minimum 5-minute interval (every minute is not allowed)")
	}
	if strings.HasPrefix(minuteField, "*/") {
		interval, err := strconv.Atoi(strings.TrimPrefix(minuteField, "*/"))
		if err == nil && interval < 5 {
			return fmt.Errorf("schedule interval must be at least 5 minutes, got %d", interval)
		}
	}

	return nil
}

func parseDuration(value string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
