package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/yapay-ai/usage-reconciler/pkg/model"
	"github.com/yapay-ai/usage-reconciler/pkg/normalize"
	"github.com/yapay-ai/usage-reconciler/pkg/tabular"
	"github.com/yapay-ai/usage-reconciler/pkg/validate"
)

var compareCmd = &cobra.Command{
	Use:   "compare --monthly <file.csv> --weekly <file.csv> [--weekly ...]",
	Short: "Compare weekly exports against a monthly export before ingesting",
	Long: `Normalize candidate weekly and monthly exports without persisting
anything, then compare per-user aggregates. Mismatches beyond the tolerance
point at missing weeks, double counting, or vendor export problems. Use this
before ingesting overlapping files.`,
	RunE: runCompare,
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().String("monthly", "", "Monthly export CSV")
	compareCmd.Flags().StringArray("weekly", nil, "Weekly export CSV (repeatable)")
	compareCmd.Flags().StringP("vendor", "v", "", "Vendor kind (default from config)")
	compareCmd.Flags().Float64("tolerance", 0, "Mismatch tolerance in percent (default from config)")
	compareCmd.Flags().Bool("json", false, "Emit the report as JSON")
	_ = compareCmd.MarkFlagRequired("monthly")
	_ = compareCmd.MarkFlagRequired("weekly")
}

func runCompare(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	monthlyPath, _ := cmd.Flags().GetString("monthly")
	weeklyPaths, _ := cmd.Flags().GetStringArray("weekly")
	vendor, _ := cmd.Flags().GetString("vendor")
	tolerance, _ := cmd.Flags().GetFloat64("tolerance")
	asJSON, _ := cmd.Flags().GetBool("json")

	if vendor == "" {
		vendor = cfg.Defaults.Vendor
	}
	if tolerance <= 0 {
		tolerance = cfg.Validation.TolerancePct
	}

	registry, err := initRegistry(cfg)
	if err != nil {
		return err
	}
	spec, err := registry.Get(vendor)
	if err != nil {
		return err
	}

	logger := newLogger(cfg)
	normalizer := normalize.New(spec, logger)

	normalizeFile := func(path string) ([]model.UsageRecord, error) {
		tbl, err := tabular.ReadCSVFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		res, err := normalizer.Normalize(tbl, filepath.Base(path))
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", path, err)
		}
		return res.Records, nil
	}

	var weeklyBatches [][]model.UsageRecord
	for _, path := range weeklyPaths {
		records, err := normalizeFile(path)
		if err != nil {
			return err
		}
		weeklyBatches = append(weeklyBatches, records)
	}

	monthlyBatch, err := normalizeFile(monthlyPath)
	if err != nil {
		return err
	}

	report := validate.CompareWeeklyMonthly(weeklyBatches, monthlyBatch, tolerance)

	if asJSON {
		data, err := report.JSON()
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}

	fmt.Print(report.String())
	return nil
}
