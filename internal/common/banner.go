package common

import (
	"fmt"
	"os"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/banner"
)

// PrintBanner displays the application startup banner to stderr.
func PrintBanner(config *Config, logger arbor.ILogger) {
	lineColor := banner.ColorCyan
	textColor := banner.ColorBold + banner.ColorWhite
	width := 60
	hr := lineColor + strings.Repeat("═", width) + banner.ColorReset

	mode := "single run"
	if config.Schedule.Enabled {
		mode = "scheduled (" + config.Schedule.Cron + ")"
	}
	delivery := "disabled"
	if config.Telegram.Configured() {
		delivery = "telegram"
	}

	fmt.Fprintf(os.Stderr, "\n%s\n", hr)
	fmt.Fprintf(os.Stderr, "%s  MARKETDIGEST  Daily Market Summary%s\n", textColor, banner.ColorReset)
	fmt.Fprintf(os.Stderr, "%s\n\n", hr)

	kvLines := [][2]string{
		{"Version", GetVersion()},
		{"Build", GetBuild()},
		{"Commit", GetGitCommit()},
		{"Environment", config.Environment},
		{"Mode", mode},
		{"Provider", string(config.LLM.DefaultProvider)},
		{"Enrichment", string(config.Enrichment.Backend)},
		{"Delivery", delivery},
	}
	for _, kv := range kvLines {
		fmt.Fprintf(os.Stderr, "%s  %-14s %s%s\n", textColor, kv[0], kv[1], banner.ColorReset)
	}
	fmt.Fprintf(os.Stderr, "\n%s\n\n", hr)

	logger.Info().
		Str("version", GetVersion()).
		Str("environment", config.Environment).
		Str("mode", mode).
		Str("provider", string(config.LLM.DefaultProvider)).
		Str("enrichment", string(config.Enrichment.Backend)).
		Str("delivery", delivery).
		Msg("Application started")
}
