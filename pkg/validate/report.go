package validate

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
)

// JSON renders the report for machine consumers.
func (r *ValidationReport) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// String renders a human-readable summary.
func (r *ValidationReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Validation: %s (%d records checked)\n", r.Status, r.CheckedRecords)
	if len(r.Clusters) == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, "\n%d duplicate cluster(s):\n", len(r.Clusters))
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tDATE\tFEATURE\tTOOL\tROWS\tTOTAL\tUNIQUE\tSOURCES")
	for _, c := range r.Clusters {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%.1f\t%.1f\t%s\n",
			c.Email, c.Date.Format("2006-01-02"), c.Feature, c.Tool,
			c.RowCount, c.TotalUsage, c.UniqueUsage, strings.Join(c.FileSources, ","))
	}
	w.Flush()

	fmt.Fprintln(&b, "\nPer-user impact:")
	w = tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tCLUSTERS\tTOTAL\tUNIQUE\tDELTA\tFACTOR")
	for _, u := range r.Users {
		fmt.Fprintf(w, "%s\t%d\t%.1f\t%.1f\t%.1f\t%.2fx\n",
			u.Email, u.ClusterCount, u.TotalMessages, u.UniqueMessages, u.Delta, u.DuplicationFactor)
	}
	w.Flush()
	return b.String()
}

// JSON renders the report for machine consumers.
func (r *ComparisonReport) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// String renders a human-readable summary.
func (r *ComparisonReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Weekly vs monthly: %s (%d users, tolerance %.1f%%)\n",
		r.Status, r.UsersCompared, r.TolerancePct)
	if len(r.Discrepancies) == 0 {
		return b.String()
	}

	fmt.Fprintf(&b, "\n%d discrepancies:\n", len(r.Discrepancies))
	w := tabwriter.NewWriter(&b, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "EMAIL\tCATEGORY\tWEEKLY\tMONTHLY\tDIFF\tNOTE")
	for _, d := range r.Discrepancies {
		fmt.Fprintf(w, "%s\t%s\t%.1f\t%.1f\t%.1f%%\t%s\n",
			d.Email, d.Category, d.WeeklyTotal, d.MonthlyTotal, d.DiffPct, d.Note)
	}
	w.Flush()
	return b.String()
}
