package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/yapay-ai/usage-reconciler/internal/config"
	"github.com/yapay-ai/usage-reconciler/pkg/alerts"
	"github.com/yapay-ai/usage-reconciler/pkg/ingest"
	"github.com/yapay-ai/usage-reconciler/pkg/storage"
	"github.com/yapay-ai/usage-reconciler/pkg/vendors"
)

// Version is set at build time via ldflags.
var Version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "usagerec",
	Short: "Usage Reconciler - AI tool usage ingestion and period reconciliation",
	Long: `Usage Reconciler ingests per-user usage exports from AI tool vendors,
normalizes weekly and monthly reporting periods into canonical monthly records,
supersedes re-uploaded data instead of appending, and validates stored data
for duplicate counting across overlapping files.`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.usagerec/config.yaml)")
}

// loadConfig loads the configuration.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgFile)
}

// newLogger creates a structured logger from config.
func newLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	var handler slog.Handler
	if cfg.Logging.Format == "text" {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}

// initRegistry creates a vendor registry: builtins plus any spec files
// found in the configured vendors directory (file specs override builtins).
func initRegistry(cfg *config.Config) (*vendors.Registry, error) {
	return vendors.LoadDir(cfg.Vendors.Dir)
}

// initStorage creates a storage backend from config.
func initStorage(cfg *config.Config) (storage.Storage, error) {
	return storage.NewSQLite(cfg.Storage.Path)
}

// initNotifiers creates alert notifiers from config.
func initNotifiers(cfg *config.Config) []alerts.Notifier {
	var notifiers []alerts.Notifier

	if cfg.Alerts.Slack.Enabled && cfg.Alerts.Slack.WebhookURL != "" {
		notifiers = append(notifiers, alerts.NewSlackNotifier(
			cfg.Alerts.Slack.WebhookURL,
			cfg.Alerts.Slack.Channel,
		))
	}

	if cfg.Alerts.Webhook.Enabled && cfg.Alerts.Webhook.URL != "" {
		notifiers = append(notifiers, alerts.NewWebhookNotifier(
			cfg.Alerts.Webhook.URL,
			cfg.Alerts.Webhook.Secret,
		))
	}

	return notifiers
}

// initIngestor creates a fully wired ingestor.
func initIngestor(cfg *config.Config) (*ingest.Ingestor, storage.Storage, error) {
	logger := newLogger(cfg)

	registry, err := initRegistry(cfg)
	if err != nil {
		return nil, nil, err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return nil, nil, err
	}

	notifiers := initNotifiers(cfg)
	budgetMgr := ingest.NewBudgetManager(store, notifiers, logger)
	ingestor := ingest.NewIngestor(registry, store, budgetMgr, logger)

	return ingestor, store, nil
}
