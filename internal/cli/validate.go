package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/yapay-ai/usage-reconciler/pkg/alerts"
	"github.com/yapay-ai/usage-reconciler/pkg/model"
	"github.com/yapay-ai/usage-reconciler/pkg/validate"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check stored data for duplicate counting",
	Long: `Scan persisted usage records for duplicate clusters: rows sharing the
same user, month, feature, and tool that were counted more than once,
typically because overlapping weekly and monthly exports were both ingested.
Findings are advisory; nothing is modified.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringP("tool", "t", "", "Restrict the check to one tool")
	validateCmd.Flags().StringP("email", "e", "", "Restrict the check to one user")
	validateCmd.Flags().Bool("json", false, "Emit the report as JSON")
}

func runValidate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	tool, _ := cmd.Flags().GetString("tool")
	email, _ := cmd.Flags().GetString("email")
	asJSON, _ := cmd.Flags().GetBool("json")

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	logger := newLogger(cfg)
	validator := validate.New(store, logger)
	report, err := validator.Validate(cmd.Context(), model.ReportFilter{Tool: tool, Email: email})
	if err != nil {
		return fmt.Errorf("validate stored data: %w", err)
	}

	if len(report.Clusters) > 0 {
		alert := alerts.NewValidationAlert("", len(report.Clusters),
			fmt.Sprintf("%d duplicate cluster(s) found in stored usage data", len(report.Clusters)))
		for _, notifier := range initNotifiers(cfg) {
			if sendErr := notifier.Send(cmd.Context(), alert); sendErr != nil {
				logger.Error("send validation alert failed", "notifier", notifier.Name(), "error", sendErr)
			}
		}
	}

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
