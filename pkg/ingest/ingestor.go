package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/yapay-ai/usage-reconciler/pkg/model"
	"github.com/yapay-ai/usage-reconciler/pkg/normalize"
	"github.com/yapay-ai/usage-reconciler/pkg/storage"
	"github.com/yapay-ai/usage-reconciler/pkg/tabular"
	"github.com/yapay-ai/usage-reconciler/pkg/validate"
	"github.com/yapay-ai/usage-reconciler/pkg/vendors"
)

// Ingestor is the main entry point for turning vendor exports into
// persisted usage records.
type Ingestor struct {
	registry *vendors.Registry
	storage  storage.Storage
	budget   *BudgetManager
	logger   *slog.Logger
}

// NewIngestor creates an ingestor with the given dependencies.
func NewIngestor(registry *vendors.Registry, store storage.Storage, budget *BudgetManager, logger *slog.Logger) *Ingestor {
	return &Ingestor{
		registry: registry,
		storage:  store,
		budget:   budget,
		logger:   logger,
	}
}

// Result summarizes one completed ingestion.
type Result struct {
	FileSource         string                       `json:"file_source"`
	Vendor             vendors.Kind                 `json:"vendor"`
	Weekly             bool                         `json:"weekly"`
	RecordsWritten     int                          `json:"records_written"`
	RowsDropped        int                          `json:"rows_dropped"`
	TotalUsage         float64                      `json:"total_usage"`
	TotalCostUSD       float64                      `json:"total_cost_usd"`
	CategoryViolations []validate.CategoryViolation `json:"category_violations,omitempty"`
}

// IngestFile reads a CSV export from disk and ingests it under the given
// vendor. The base filename becomes the file_source tag.
func (g *Ingestor) IngestFile(ctx context.Context, path string, kind vendors.Kind, force bool) (*Result, error) {
	tbl, err := tabular.ReadCSVFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return g.IngestTable(ctx, tbl, filepath.Base(path), kind, force)
}

// IngestTable normalizes an already-parsed table and writes the result.
// Category-sum findings are advisory: they are attached to the result and
// logged, never block the write.
func (g *Ingestor) IngestTable(ctx context.Context, tbl tabular.Table, filename string, kind vendors.Kind, force bool) (*Result, error) {
	spec, err := g.registry.Get(string(kind))
	if err != nil {
		return nil, err
	}

	res, err := normalize.New(spec, g.logger).Normalize(tbl, filename)
	if err != nil {
		return nil, fmt.Errorf("normalize %s: %w", filename, err)
	}
	if len(res.Records) == 0 {
		return nil, fmt.Errorf("normalize %s: no usable rows", filename)
	}

	result := &Result{
		FileSource:  filename,
		Vendor:      kind,
		Weekly:      res.Weekly,
		RowsDropped: res.RowsDropped,
	}

	if subs := spec.SubFeatures(); spec.PrimaryFeature != "" && len(subs) > 0 {
		result.CategoryViolations = validate.CheckCategoryTotals(res.Records, spec.PrimaryFeature, subs)
		for _, v := range result.CategoryViolations {
			g.logger.Warn("sub-category counts exceed declared total",
				"file", filename,
				"email", v.Email,
				"date", v.Date.Format("2006-01-02"),
				"total", v.Total,
				"sub_total", v.SubTotal,
			)
		}
	}

	written, err := g.storage.WriteBatch(ctx, res.Records, filename, force)
	if err != nil {
		return nil, err
	}
	result.RecordsWritten = written
	for _, r := range res.Records {
		result.TotalUsage += r.UsageCount
		result.TotalCostUSD += r.CostUSD
	}

	g.logger.Info("file ingested",
		"file", filename,
		"vendor", kind,
		"weekly", res.Weekly,
		"records", written,
		"dropped", res.RowsDropped,
		"usage", result.TotalUsage,
		"cost_usd", result.TotalCostUSD,
	)

	if g.budget != nil && result.TotalCostUSD > 0 {
		if checkErr := g.budget.RecordSpend(ctx, result.TotalCostUSD); checkErr != nil {
			g.logger.Error("budget check failed", "error", checkErr)
		}
	}

	return result, nil
}

// Report generates a usage summary for the given filter.
func (g *Ingestor) Report(ctx context.Context, filter ReportFilter) (*UsageSummary, error) {
	return g.storage.AggregateUsage(ctx, filter)
}

// Query returns individual usage records for the given filter.
func (g *Ingestor) Query(ctx context.Context, filter ReportFilter) ([]model.UsageRecord, error) {
	return g.storage.QueryUsage(ctx, filter)
}

// CheckBudget returns an error if any budget is exceeded.
func (g *Ingestor) CheckBudget(ctx context.Context) error {
	if g.budget == nil {
		return nil
	}
	return g.budget.CheckAll(ctx)
}
