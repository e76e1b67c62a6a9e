package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yapay-ai/usage-reconciler/pkg/storage"
	"github.com/yapay-ai/usage-reconciler/pkg/vendors"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file.csv> [file.csv...]",
	Short: "Ingest vendor usage exports",
	Long: `Normalize one or more vendor CSV exports into canonical monthly records
and write them to storage, superseding previously stored data for the same
user, month, and tool.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringP("vendor", "v", "", "Vendor kind (openai, blueflame, anthropic; default from config)")
	ingestCmd.Flags().BoolP("force", "f", false, "Reprocess a file that was already ingested")
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	vendor, _ := cmd.Flags().GetString("vendor")
	force, _ := cmd.Flags().GetBool("force")
	if vendor == "" {
		vendor = cfg.Defaults.Vendor
	}

	ing, store, err := initIngestor(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	for _, path := range args {
		result, err := ing.IngestFile(cmd.Context(), path, vendors.Kind(vendor), force)
		if errors.Is(err, storage.ErrAlreadyProcessed) {
			fmt.Printf("Skipped %s: already processed (use --force to reprocess)\n", path)
			continue
		}
		if err != nil {
			return fmt.Errorf("ingest %s: %w", path, err)
		}

		kind := "monthly"
		if result.Weekly {
			kind = "weekly"
		}
		fmt.Printf("Ingested %s (%s, %s):\n", result.FileSource, result.Vendor, kind)
		fmt.Printf("  Records:  %d\n", result.RecordsWritten)
		fmt.Printf("  Dropped:  %d\n", result.RowsDropped)
		fmt.Printf("  Usage:    %.0f\n", result.TotalUsage)
		fmt.Printf("  Cost:     $%.2f\n", result.TotalCostUSD)
		if len(result.CategoryViolations) > 0 {
			fmt.Printf("  Warning:  %d row(s) where sub-category counts exceed the declared total\n",
				len(result.CategoryViolations))
		}
	}

	return nil
}
