// Package main provides the tracekeep CLI.
// It captures Java-style stack traces from console output into numbered
// report files and lets users list, view, browse and publish them.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tracekeep/src/config"
	"tracekeep/src/logger"
	"tracekeep/src/store"
)

const programName = "tracekeep"

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

var (
	// Application configuration, loaded before any command runs
	appConfig *config.Config

	configPath string
	reportDir  string
	verbose    bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   programName,
	Short: "tracekeep - capture stack traces from console output",
	Long: `tracekeep watches a program's console output, reassembles multi-line
stack traces and saves each one as a numbered report file with a header
describing the environment it was captured in.

Lines that are not part of a stack trace are passed through unchanged.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd.Context(), configPath)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}
		if reportDir != "" {
			cfg.ReportDir = reportDir
		}
		if verbose {
			cfg.Log.Level = "debug"
		}
		appConfig = cfg
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&reportDir, "dir", "d", "", "report directory (overrides config)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
}

func loadConfig(ctx context.Context, path string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromEnv()
	}
	return config.Load(ctx, path)
}

// newLogger builds the zap-backed process logger. The returned func flushes it.
func newLogger(cfg *config.Config) (logger.Logger, func(), error) {
	zl, err := logger.NewZapLogger(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, nil, err
	}
	return zl, func() { _ = zl.Sync() }, nil
}

// openIndex connects the Postgres index when a DSN is configured and falls
// back to an in-memory index otherwise.
func openIndex(ctx context.Context, cfg *config.Config, log logger.Logger) (store.Index, error) {
	if cfg.PostgresDSN == "" {
		log.Debug("No database configured, indexing reports in memory")
		return store.NewInMemoryIndex(), nil
	}

	idx, err := store.NewPostgresIndex(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := idx.EnsureSchema(ctx); err != nil {
		idx.Close()
		return nil, err
	}
	log.Info("Indexing reports in Postgres")
	return idx, nil
}

// openReadIndex returns the Postgres index for read-only commands, or nil when
// none is configured or reachable. Listings still work from the files alone.
func openReadIndex(ctx context.Context, cfg *config.Config) store.Index {
	if cfg.PostgresDSN == "" {
		return nil
	}
	idx, err := store.NewPostgresIndex(ctx, cfg.PostgresDSN)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: report index unavailable: %v\n", err)
		return nil
	}
	return idx
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}
