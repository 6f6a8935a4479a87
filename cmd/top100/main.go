package main

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/automaxprocs/maxprocs"

	"top100/internal/config"
)

const programName = "top100"

// newLogger builds the process logger from LOG_FORMAT and LOG_LEVEL and
// installs it as the default.
func newLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	if err := level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level, AddSource: level == slog.LevelDebug}

	var handler slog.Handler
	if strings.EqualFold(cfg.LogFormat, "json") {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler).With("component", programName)
	slog.SetDefault(logger)
	return logger
}

func commonRun(cfg *config.Config) *slog.Logger {
	logger := newLogger(cfg)
	if _, err := maxprocs.Set(maxprocs.Logger(func(format string, v ...any) {
		logger.Info(fmt.Sprintf(format, v...))
	})); err != nil {
		logger.Error("failed to set GOMAXPROCS", "error", err)
	}
	return logger
}

func main() {
	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:          programName,
		Short:        "Top100 awardee platform server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return serveRun(cmd.Context(), cfg)
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&cfg.DatabaseURL, "database-url", cfg.DatabaseURL, "PostgreSQL connection string")

	rootCmd.AddCommand(serveCommand(cfg))
	rootCmd.AddCommand(migrateCommand(cfg))
	rootCmd.AddCommand(seedCommand(cfg))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
