package storage

import (
	"context"
	"errors"

	"github.com/yapay-ai/usage-reconciler/pkg/model"
)

// ErrAlreadyProcessed signals that a file_source is already fully represented
// in storage and the caller did not ask to force reprocessing. It is an
// expected, recoverable condition, not a write failure.
var ErrAlreadyProcessed = errors.New("file already processed")

// Storage defines the persistence layer for usage records and spend budgets.
type Storage interface {
	// WriteBatch supersedes and persists one normalized upload. Existing
	// records in the batch's coverage footprint (tool_source, month,
	// user_id) are deleted and the new records inserted, atomically.
	// Returns ErrAlreadyProcessed when fileSource is already stored and
	// force is false.
	WriteBatch(ctx context.Context, records []model.UsageRecord, fileSource string, force bool) (int, error)

	// QueryUsage retrieves usage records matching the given filter.
	QueryUsage(ctx context.Context, filter model.ReportFilter) ([]model.UsageRecord, error)

	// AggregateUsage returns usage and cost totals for a filter.
	AggregateUsage(ctx context.Context, filter model.ReportFilter) (*model.UsageSummary, error)

	// ListFileSources describes every ingested upload still represented.
	ListFileSources(ctx context.Context) ([]model.FileSourceInfo, error)

	// DeleteByFileSource removes all records from one upload (admin path).
	DeleteByFileSource(ctx context.Context, fileSource string) (int64, error)

	// SetBudget creates or updates a budget.
	SetBudget(ctx context.Context, budget *model.Budget) error

	// GetBudget retrieves a budget by name.
	GetBudget(ctx context.Context, name string) (*model.Budget, error)

	// ListBudgets returns all configured budgets.
	ListBudgets(ctx context.Context) ([]model.Budget, error)

	// UpdateBudgetSpend atomically updates the current spend for a budget.
	UpdateBudgetSpend(ctx context.Context, name string, amount float64) error

	// Close releases resources.
	Close() error
}
