package cli

import (
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var vendorsCmd = &cobra.Command{
	Use:   "vendors",
	Short: "Manage vendor export specs",
}

var vendorsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List vendor specs and their cost models",
	RunE:  runVendorsList,
}

func init() {
	rootCmd.AddCommand(vendorsCmd)
	vendorsCmd.AddCommand(vendorsListCmd)
}

func runVendorsList(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	registry, err := initRegistry(cfg)
	if err != nil {
		return err
	}

	specs := registry.All()
	if len(specs) == 0 {
		fmt.Println("No vendors configured. Check vendors directory in config.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "VENDOR\tTOOL\tLAYOUT\tFEATURE\tCOST/UNIT\tLICENSE\n")

	for _, s := range specs {
		license := "-"
		if s.LicenseCostUSD > 0 {
			license = fmt.Sprintf("$%.2f/mo", s.LicenseCostUSD)
		}
		if len(s.Features) == 0 {
			features := make([]string, 0, len(s.MetricFeatures))
			for _, feature := range s.MetricFeatures {
				features = append(features, feature)
			}
			sort.Strings(features)
			for _, feature := range features {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t-\t%s\n",
					s.Kind, s.Tool, s.Layout, feature, license)
			}
			continue
		}
		for _, f := range s.Features {
			unit := "-"
			if f.CostPerUnit > 0 {
				unit = fmt.Sprintf("$%.4f", f.CostPerUnit)
			}
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
				s.Kind, s.Tool, s.Layout, f.Feature, unit, license)
		}
	}
	w.Flush()

	return nil
}
