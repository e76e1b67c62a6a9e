package cli

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/yapay-ai/usage-reconciler/pkg/ingest"
	"github.com/yapay-ai/usage-reconciler/pkg/model"
	"github.com/yapay-ai/usage-reconciler/pkg/period"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate usage and cost reports",
	Long:  `Generate aggregated usage reports by tool, feature, department, and month.`,
	RunE:  runReport,
}

func init() {
	rootCmd.AddCommand(reportCmd)
	reportCmd.Flags().StringP("month", "M", "", "Report month (YYYY-MM; default all data)")
	reportCmd.Flags().StringP("tool", "t", "", "Filter by tool")
	reportCmd.Flags().StringP("email", "e", "", "Filter by user email")
	reportCmd.Flags().StringP("department", "d", "", "Filter by department")
	reportCmd.Flags().String("feature", "", "Filter by feature")
	reportCmd.Flags().Bool("detailed", false, "Show individual records")
	reportCmd.Flags().Bool("weekly", false, "Break monthly records down into ISO weeks")
	reportCmd.Flags().String("allocation", string(period.AllocateEvenByDay),
		"Weekly allocation method (even_by_day, business_days, proportional_to_reference)")
	reportCmd.Flags().String("reference-tool", "", "Tool whose weekly data shapes proportional allocation")
}

func runReport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	month, _ := cmd.Flags().GetString("month")
	tool, _ := cmd.Flags().GetString("tool")
	email, _ := cmd.Flags().GetString("email")
	department, _ := cmd.Flags().GetString("department")
	feature, _ := cmd.Flags().GetString("feature")
	detailed, _ := cmd.Flags().GetBool("detailed")

	filter := model.ReportFilter{
		Tool:       tool,
		Email:      email,
		Department: department,
		Feature:    feature,
	}
	if month != "" {
		start, err := time.Parse("2006-01", month)
		if err != nil {
			return fmt.Errorf("invalid month %q, want YYYY-MM", month)
		}
		filter.StartTime = start
		filter.EndTime = period.NextMonth(start)
	}

	ing, store, err := initIngestor(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	summary, err := ing.Report(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("generate report: %w", err)
	}

	scope := "all data"
	if month != "" {
		scope = month
	}
	fmt.Printf("=== Usage Report (%s) ===\n\n", scope)
	fmt.Printf("Total Usage:   %.0f\n", summary.TotalUsage)
	fmt.Printf("Total Cost:    $%.2f\n", summary.TotalCostUSD)
	fmt.Printf("Records:       %d\n", summary.RecordCount)
	fmt.Printf("Unique Users:  %d\n", summary.UniqueUsers)

	if len(summary.ByTool) > 0 {
		fmt.Printf("\nCost by Tool:\n")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  TOOL\tCOST\n")
		for name, cost := range summary.ByTool {
			fmt.Fprintf(w, "  %s\t$%.2f\n", name, cost)
		}
		w.Flush()
	}

	if len(summary.ByFeature) > 0 {
		fmt.Printf("\nUsage by Feature:\n")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  FEATURE\tUSAGE\n")
		for name, usage := range summary.ByFeature {
			fmt.Fprintf(w, "  %s\t%.0f\n", name, usage)
		}
		w.Flush()
	}

	if len(summary.ByDepartment) > 0 {
		fmt.Printf("\nCost by Department:\n")
		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "  DEPARTMENT\tCOST\n")
		for name, cost := range summary.ByDepartment {
			fmt.Fprintf(w, "  %s\t$%.2f\n", name, cost)
		}
		w.Flush()
	}

	weekly, _ := cmd.Flags().GetBool("weekly")
	if weekly {
		if err := printWeeklyBreakdown(cmd, ing, filter); err != nil {
			return err
		}
	}

	if detailed {
		records, err := ing.Query(cmd.Context(), filter)
		if err != nil {
			return fmt.Errorf("query records: %w", err)
		}

		if len(records) > 0 {
			fmt.Printf("\nDetailed Records:\n")
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintf(w, "  MONTH\tEMAIL\tDEPARTMENT\tFEATURE\tUSAGE\tCOST\tSOURCE\n")
			for _, r := range records {
				fmt.Fprintf(w, "  %s\t%s\t%s\t%s\t%.0f\t$%.2f\t%s\n",
					r.Date.Format("2006-01"),
					r.Email, r.Department, r.FeatureUsed,
					r.UsageCount, r.CostUSD, r.FileSource,
				)
			}
			w.Flush()
		}
	}

	return nil
}

// printWeeklyBreakdown re-slices monthly records into ISO weeks under the
// selected allocation method and prints the result.
func printWeeklyBreakdown(cmd *cobra.Command, ing *ingest.Ingestor, filter model.ReportFilter) error {
	method, _ := cmd.Flags().GetString("allocation")
	referenceTool, _ := cmd.Flags().GetString("reference-tool")

	records, err := ing.Query(cmd.Context(), filter)
	if err != nil {
		return fmt.Errorf("query records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	var reference []model.UsageRecord
	if period.AllocationMethod(method) == period.AllocateProportionalToReference {
		if referenceTool == "" {
			return fmt.Errorf("proportional allocation needs --reference-tool")
		}
		refFilter := filter
		refFilter.Tool = referenceTool
		reference, err = ing.Query(cmd.Context(), refFilter)
		if err != nil {
			return fmt.Errorf("query reference records: %w", err)
		}
	}

	weeks, err := period.AllocateMonthlyToWeekly(records, period.AllocationMethod(method), reference)
	if err != nil {
		return err
	}

	fmt.Printf("\nWeekly Breakdown (%s):\n", method)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  WEEK OF\tEMAIL\tFEATURE\tUSAGE\tCOST\n")
	for _, r := range weeks {
		fmt.Fprintf(w, "  %s\t%s\t%s\t%.1f\t$%.2f\n",
			r.Date.Format("2006-01-02"), r.Email, r.FeatureUsed, r.UsageCount, r.CostUSD)
	}
	w.Flush()

	return nil
}
