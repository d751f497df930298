// Package cli implements the optimizer command tree. The bare command runs
// the long-lived service; subcommands drive one-shot operations against the
// same wiring.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/lmittmann/tint"
	"github.com/spf13/cobra"
	"github.com/vietddude/stylelog"

	"github.com/adsctl/optimizer/internal/control"
	"github.com/adsctl/optimizer/internal/core/config"
)

var (
	cfgPath string
	isDebug bool
	account string
)

var rootCmd = &cobra.Command{
	Use:   "optimizer",
	Short: "Ads campaign optimization service",
	Long:  `Optimizer mirrors campaign performance locally, trains per-account models on it and turns them into bid, budget and health recommendations.`,
	Run:   runServe,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "config file (default is config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&isDebug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&account, "account", "", "account ID (defaults to the first configured account)")
}

// loadConfig loads configuration and initializes logging from it.
func loadConfig() *config.AppConfig {
	_ = godotenv.Load()

	cfg, err := config.Load(cfgPath)
	if err != nil {
		stylelog.InitDefault()
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	slogLevel := slog.LevelInfo
	if isDebug || cfg.Logging.Level == "debug" {
		slogLevel = slog.LevelDebug
	}

	stylelog.InitDefault(&tint.Options{
		Level:      slogLevel,
		TimeFormat: time.RFC3339,
	})

	return cfg
}

// newApp initializes the application from config.
func newApp(cfg *config.AppConfig) *control.Optimizer {
	app, err := control.New(cfg)
	if err != nil {
		slog.Error("Failed to initialize optimizer", "error", err)
		os.Exit(1)
	}
	return app
}

// resolveAccount picks the --account flag or falls back to the first
// configured account.
func resolveAccount(cfg *config.AppConfig) string {
	if account != "" {
		return account
	}
	if len(cfg.Accounts) > 0 {
		return cfg.Accounts[0].ID
	}
	slog.Error("No account given and none configured")
	os.Exit(1)
	return ""
}

func runServe(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	app := newApp(cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if err := app.Start(ctx); err != nil {
		slog.Error("Failed to start optimizer", "error", err)
		os.Exit(1)
	}

	slog.Info("Optimizer started", "config", cfgPath)

	sig := <-sigChan
	slog.Info("Received signal, shutting down...", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()

	if err := app.Stop(shutdownCtx); err != nil {
		slog.Error("Error during shutdown", "error", err)
		os.Exit(1)
	}
}
