package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketdigest/internal/app"
	"github.com/ternarybob/marketdigest/internal/common"
)

// configPaths is a custom flag type that allows multiple -config flags
type configPaths []string

func (c *configPaths) String() string {
	return fmt.Sprintf("%v", *c)
}

func (c *configPaths) Set(value string) error {
	*c = append(*c, value)
	return nil
}

var (
	// Command-line flags
	configFiles  configPaths // Multiple -config flags supported
	runOnce      = flag.Bool("once", false, "Run a single digest and exit (ignores schedule.enabled)")
	showVersion  = flag.Bool("version", false, "Print version information")
	showVersionV = flag.Bool("v", false, "Print version information (shorthand)")
)

func init() {
	flag.Var(&configFiles, "config", "Configuration file path (can be specified multiple times, later files override earlier ones)")
	flag.Var(&configFiles, "c", "Configuration file path (shorthand)")
}

func main() {
	os.Exit(run())
}

func run() int {
	common.InstallCrashHandler("")
	defer common.RecoverWithCrashFile()

	flag.Parse()

	if *showVersion || *showVersionV {
		fmt.Printf("marketdigest version %s\n", common.GetFullVersion())
		return 0
	}

	// Startup sequence:
	// 1. Load config (defaults -> file1 -> file2 -> ... -> env)
	// 2. Apply CLI overrides
	// 3. Validate config and credentials
	// 4. Initialize logger and print banner
	if len(configFiles) == 0 {
		if _, err := os.Stat("marketdigest.toml"); err == nil {
			configFiles = append(configFiles, "marketdigest.toml")
		} else if _, err := os.Stat("deployments/local/marketdigest.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/marketdigest.toml")
		}
	}

	config, err := common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration files")
		return 1
	}

	common.ApplyFlagOverrides(config, *runOnce)

	if err := config.Validate(); err != nil {
		arbor.NewLogger().Error().Err(err).Msg("Configuration is invalid")
		return 1
	}
	if err := config.ValidateCredentials(); err != nil {
		arbor.NewLogger().Error().Err(err).Msg("Missing mandatory credential")
		return 1
	}

	logger := common.SetupLogger(config)
	common.PrintBanner(config, logger)

	logger.Debug().
		Str("log_level", config.Logging.Level).
		Strs("log_output", config.Logging.Output).
		Str("llm_provider", string(config.LLM.DefaultProvider)).
		Str("enrichment_backend", string(config.Enrichment.Backend)).
		Msg("Resolved configuration (sanitized)")

	application, err := app.New(config, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to initialize application")
		return 1
	}
	defer application.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if config.Schedule.Enabled {
		logger.Info().Str("cron", config.Schedule.Cron).Msg("Running on schedule - Press Ctrl+C to stop")
		if err := application.RunScheduled(ctx); err != nil {
			logger.Error().Err(err).Msg("Scheduler failed")
			return 1
		}
		return 0
	}

	if err := application.RunOnce(ctx); err != nil {
		logger.Error().Err(err).Msg("Digest run failed")
		return 1
	}
	return 0
}
