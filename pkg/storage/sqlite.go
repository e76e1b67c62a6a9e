package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/yapay-ai/usage-reconciler/pkg/model"

	_ "modernc.org/sqlite"
)

// SQLite implements the Storage interface using an SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates an SQLite database at the given path.
func NewSQLite(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Enable WAL mode for concurrent reads
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// coverage is one (tool_source, month, user_id) triple an upload claims
// authority over.
type coverage struct {
	tool  string
	user  string
	month time.Time
}

// WriteBatch supersedes then inserts one upload in a single transaction.
// The delete phase targets exactly the batch's coverage triples, so a partial
// re-upload never wipes unrelated users or months from the same tool.
func (s *SQLite) WriteBatch(ctx context.Context, records []model.UsageRecord, fileSource string, force bool) (int, error) {
	if !force {
		var existing int
		err := s.db.QueryRowContext(ctx,
			"SELECT COUNT(*) FROM usage_records WHERE file_source = ?", fileSource,
		).Scan(&existing)
		if err != nil {
			return 0, fmt.Errorf("check file source: %w", err)
		}
		if existing > 0 {
			return 0, fmt.Errorf("%s: %w", fileSource, ErrAlreadyProcessed)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin write: %w", err)
	}

	seen := make(map[coverage]bool)
	for _, rec := range records {
		month := time.Date(rec.Date.Year(), rec.Date.Month(), 1, 0, 0, 0, 0, time.UTC)
		key := coverage{tool: rec.ToolSource, user: rec.UserID, month: month}
		if seen[key] {
			continue
		}
		seen[key] = true

		_, err := tx.ExecContext(ctx,
			`DELETE FROM usage_records WHERE tool_source = ? AND user_id = ? AND date >= ? AND date < ?`,
			key.tool, key.user, key.month, key.month.AddDate(0, 1, 0),
		)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("supersede %s/%s/%s: %w", key.tool, key.user, key.month.Format("2006-01"), err)
		}
	}

	for _, rec := range records {
		if rec.ID == "" {
			rec.ID = uuid.New().String()
		}
		if rec.Department == "" {
			rec.Department = "Unknown"
		}
		if rec.FileSource == "" {
			rec.FileSource = fileSource
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO usage_records (id, user_id, user_name, email, department, date, feature_used, usage_count, cost_usd, tool_source, file_source)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.ID, rec.UserID, rec.UserName, rec.Email, rec.Department,
			rec.Date, rec.FeatureUsed, rec.UsageCount, rec.CostUSD,
			rec.ToolSource, rec.FileSource,
		)
		if err != nil {
			_ = tx.Rollback()
			return 0, fmt.Errorf("insert usage record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit write: %w", err)
	}
	return len(records), nil
}

func (s *SQLite) QueryUsage(ctx context.Context, filter model.ReportFilter) ([]model.UsageRecord, error) {
	query := "SELECT id, user_id, user_name, email, department, date, feature_used, usage_count, cost_usd, tool_source, file_source FROM usage_records"
	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY date, email, feature_used"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage: %w", err)
	}
	defer rows.Close()

	var records []model.UsageRecord
	for rows.Next() {
		var r model.UsageRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.UserName, &r.Email, &r.Department,
			&r.Date, &r.FeatureUsed, &r.UsageCount, &r.CostUSD, &r.ToolSource, &r.FileSource); err != nil {
			return nil, fmt.Errorf("scan usage row: %w", err)
		}
		r.Date = r.Date.UTC()
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLite) AggregateUsage(ctx context.Context, filter model.ReportFilter) (*model.UsageSummary, error) {
	query := `SELECT
		COALESCE(SUM(usage_count), 0),
		COALESCE(SUM(cost_usd), 0),
		COUNT(*),
		COUNT(DISTINCT email)
	FROM usage_records`
	where, args := buildWhereClause(filter)
	if where != "" {
		query += " WHERE " + where
	}

	summary := &model.UsageSummary{}
	err := s.db.QueryRowContext(ctx, query, args...).Scan(
		&summary.TotalUsage,
		&summary.TotalCostUSD,
		&summary.RecordCount,
		&summary.UniqueUsers,
	)
	if err != nil {
		return nil, fmt.Errorf("aggregate usage: %w", err)
	}

	// Cost breakdowns for the spend views, usage breakdown per feature.
	summary.ByTool, err = s.aggregateByField(ctx, "tool_source", "cost_usd", where, args)
	if err != nil {
		return nil, err
	}
	summary.ByFeature, err = s.aggregateByField(ctx, "feature_used", "usage_count", where, args)
	if err != nil {
		return nil, err
	}
	summary.ByDepartment, err = s.aggregateByField(ctx, "department", "cost_usd", where, args)
	if err != nil {
		return nil, err
	}

	return summary, nil
}

func (s *SQLite) aggregateByField(ctx context.Context, field, measure, where string, args []any) (map[string]float64, error) {
	query := fmt.Sprintf("SELECT %s, COALESCE(SUM(%s), 0) FROM usage_records", field, measure)
	if where != "" {
		query += " WHERE " + where
	}
	query += fmt.Sprintf(" GROUP BY %s", field)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("aggregate by %s: %w", field, err)
	}
	defer rows.Close()

	result := make(map[string]float64)
	for rows.Next() {
		var name string
		var total float64
		if err := rows.Scan(&name, &total); err != nil {
			return nil, fmt.Errorf("scan %s aggregate: %w", field, err)
		}
		result[name] = total
	}
	return result, rows.Err()
}

func (s *SQLite) ListFileSources(ctx context.Context) ([]model.FileSourceInfo, error) {
	// Date min/max are folded in Go: aggregate expressions lose the column's
	// declared type, which the driver needs to return time.Time values.
	rows, err := s.db.QueryContext(ctx,
		`SELECT file_source, usage_count, cost_usd, date FROM usage_records ORDER BY file_source`)
	if err != nil {
		return nil, fmt.Errorf("list file sources: %w", err)
	}
	defer rows.Close()

	byName := make(map[string]*model.FileSourceInfo)
	var order []string
	for rows.Next() {
		var name string
		var usage, cost float64
		var date time.Time
		if err := rows.Scan(&name, &usage, &cost, &date); err != nil {
			return nil, fmt.Errorf("scan file source row: %w", err)
		}
		date = date.UTC()

		info := byName[name]
		if info == nil {
			info = &model.FileSourceInfo{Name: name, FirstDate: date, LastDate: date}
			byName[name] = info
			order = append(order, name)
		}
		info.RecordCount++
		info.TotalUsage += usage
		info.TotalCost += cost
		if date.Before(info.FirstDate) {
			info.FirstDate = date
		}
		if date.After(info.LastDate) {
			info.LastDate = date
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sources := make([]model.FileSourceInfo, 0, len(order))
	for _, name := range order {
		sources = append(sources, *byName[name])
	}
	return sources, nil
}

func (s *SQLite) DeleteByFileSource(ctx context.Context, fileSource string) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM usage_records WHERE file_source = ?", fileSource)
	if err != nil {
		return 0, fmt.Errorf("delete by file source: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("check rows affected: %w", err)
	}
	return deleted, nil
}

func (s *SQLite) SetBudget(ctx context.Context, budget *model.Budget) error {
	if budget.ID == "" {
		budget.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if budget.CreatedAt.IsZero() {
		budget.CreatedAt = now
	}
	budget.UpdatedAt = now

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO budgets (id, name, limit_usd, period, current_spend, alert_threshold_pct, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET
		   limit_usd = excluded.limit_usd,
		   period = excluded.period,
		   alert_threshold_pct = excluded.alert_threshold_pct,
		   updated_at = excluded.updated_at`,
		budget.ID, budget.Name, budget.LimitUSD, budget.Period,
		budget.CurrentSpend, budget.AlertThresholdPct, budget.CreatedAt, budget.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("set budget: %w", err)
	}
	return nil
}

func (s *SQLite) GetBudget(ctx context.Context, name string) (*model.Budget, error) {
	var b model.Budget
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, limit_usd, period, current_spend, alert_threshold_pct, created_at, updated_at
		 FROM budgets WHERE name = ?`, name,
	).Scan(&b.ID, &b.Name, &b.LimitUSD, &b.Period, &b.CurrentSpend,
		&b.AlertThresholdPct, &b.CreatedAt, &b.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("budget %q not found", name)
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return &b, nil
}

func (s *SQLite) ListBudgets(ctx context.Context) ([]model.Budget, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, limit_usd, period, current_spend, alert_threshold_pct, created_at, updated_at
		 FROM budgets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []model.Budget
	for rows.Next() {
		var b model.Budget
		if err := rows.Scan(&b.ID, &b.Name, &b.LimitUSD, &b.Period, &b.CurrentSpend,
			&b.AlertThresholdPct, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan budget row: %w", err)
		}
		budgets = append(budgets, b)
	}
	return budgets, rows.Err()
}

func (s *SQLite) UpdateBudgetSpend(ctx context.Context, name string, amount float64) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE budgets SET current_spend = current_spend + ?, updated_at = ? WHERE name = ?`,
		amount, time.Now().UTC(), name,
	)
	if err != nil {
		return fmt.Errorf("update budget spend: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("budget %q not found", name)
	}
	return nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

// buildWhereClause constructs a SQL WHERE clause from a ReportFilter.
func buildWhereClause(filter model.ReportFilter) (string, []any) {
	var conditions []string
	var args []any

	if filter.Tool != "" {
		conditions = append(conditions, "tool_source = ?")
		args = append(args, filter.Tool)
	}
	if filter.Email != "" {
		conditions = append(conditions, "email = ?")
		args = append(args, strings.ToLower(filter.Email))
	}
	if filter.Department != "" {
		conditions = append(conditions, "department = ?")
		args = append(args, filter.Department)
	}
	if filter.Feature != "" {
		conditions = append(conditions, "feature_used = ?")
		args = append(args, filter.Feature)
	}
	if filter.FileSource != "" {
		conditions = append(conditions, "file_source = ?")
		args = append(args, filter.FileSource)
	}
	if !filter.StartTime.IsZero() {
		conditions = append(conditions, "date >= ?")
		args = append(args, filter.StartTime)
	}
	if !filter.EndTime.IsZero() {
		conditions = append(conditions, "date < ?")
		args = append(args, filter.EndTime)
	}

	return strings.Join(conditions, " AND "), args
}
