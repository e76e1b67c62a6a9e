package cli

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "Manage ingested files",
}

var filesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List ingested files still represented in storage",
	RunE:  runFilesList,
}

var filesDeleteCmd = &cobra.Command{
	Use:   "delete <file_source>",
	Short: "Delete all records from one ingested file",
	Args:  cobra.ExactArgs(1),
	RunE:  runFilesDelete,
}

func init() {
	rootCmd.AddCommand(filesCmd)
	filesCmd.AddCommand(filesListCmd)
	filesCmd.AddCommand(filesDeleteCmd)
}

func runFilesList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	sources, err := store.ListFileSources(cmd.Context())
	if err != nil {
		return fmt.Errorf("list files: %w", err)
	}

	if len(sources) == 0 {
		fmt.Println("No files ingested yet. Use 'usagerec ingest' to add one.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "FILE\tRECORDS\tUSAGE\tCOST\tFROM\tTO\n")
	for _, s := range sources {
		fmt.Fprintf(w, "%s\t%d\t%.0f\t$%.2f\t%s\t%s\n",
			s.Name, s.RecordCount, s.TotalUsage, s.TotalCost,
			s.FirstDate.Format("2006-01-02"), s.LastDate.Format("2006-01-02"),
		)
	}
	w.Flush()

	return nil
}

func runFilesDelete(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	store, err := initStorage(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	deleted, err := store.DeleteByFileSource(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("delete %s: %w", args[0], err)
	}

	fmt.Printf("Deleted %d record(s) from %s\n", deleted, args[0])
	return nil
}
