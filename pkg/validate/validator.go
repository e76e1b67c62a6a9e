package validate

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/yapay-ai/usage-reconciler/pkg/model"
	"github.com/yapay-ai/usage-reconciler/pkg/storage"
)

// Status is the overall outcome of a validation run.
type Status string

const (
	StatusPass       Status = "PASS"
	StatusWarning    Status = "WARNING"
	StatusFail       Status = "FAIL"
	StatusError      Status = "ERROR"
	StatusDuplicates Status = "DUPLICATES_FOUND"
)

// DuplicateCluster is a group of stored records sharing the same
// (email, date, feature, tool) identity. More than one row in a cluster
// means the same activity was counted more than once, typically because
// overlapping weekly and monthly files were both ingested.
type DuplicateCluster struct {
	Email       string    `json:"email"`
	Date        time.Time `json:"date"`
	Feature     string    `json:"feature"`
	Tool        string    `json:"tool"`
	RowCount    int       `json:"row_count"`
	FileSources []string  `json:"file_sources"`
	TotalUsage  float64   `json:"total_usage"`
	UniqueUsage float64   `json:"unique_usage"`
}

// UserDuplication summarizes duplicate impact for one user: what a naive
// sum over their duplicate-bearing clusters reports versus the
// deduplicated truth.
type UserDuplication struct {
	Email             string  `json:"email"`
	ClusterCount      int     `json:"cluster_count"`
	TotalMessages     float64 `json:"total_messages"`
	UniqueMessages    float64 `json:"unique_messages"`
	Delta             float64 `json:"delta"`
	DuplicationFactor float64 `json:"duplication_factor"`
}

// ValidationReport is the advisory result of a persisted-data check.
// It never implies any mutation of stored data.
type ValidationReport struct {
	Status         Status             `json:"status"`
	CheckedRecords int                `json:"checked_records"`
	Clusters       []DuplicateCluster `json:"clusters,omitempty"`
	Users          []UserDuplication  `json:"users,omitempty"`
	GeneratedAt    time.Time          `json:"generated_at"`
}

// Validator runs consistency checks over persisted usage data.
type Validator struct {
	store  storage.Storage
	logger *slog.Logger
}

// New creates a validator backed by the given store.
func New(store storage.Storage, logger *slog.Logger) *Validator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Validator{store: store, logger: logger}
}

type clusterKey struct {
	email   string
	date    time.Time
	feature string
	tool    string
}

// Validate scans stored records matching the filter for duplicate
// clusters. Two rows with the same (email, date, feature, tool) identity
// should never coexist after a supersede, so any cluster found here points
// at overlapping uploads that were ingested under different coverage.
func (v *Validator) Validate(ctx context.Context, filter model.ReportFilter) (*ValidationReport, error) {
	report := &ValidationReport{
		Status:      StatusPass,
		GeneratedAt: time.Now().UTC(),
	}

	records, err := v.store.QueryUsage(ctx, filter)
	if err != nil {
		report.Status = StatusError
		return report, fmt.Errorf("query usage for validation: %w", err)
	}
	report.CheckedRecords = len(records)

	groups := make(map[clusterKey][]model.UsageRecord)
	for _, r := range records {
		key := clusterKey{email: r.Email, date: r.Date, feature: r.FeatureUsed, tool: r.ToolSource}
		groups[key] = append(groups[key], r)
	}

	userTotals := make(map[string]*UserDuplication)
	for key, rows := range groups {
		if len(rows) < 2 {
			continue
		}
		cluster := DuplicateCluster{
			Email:    key.email,
			Date:     key.date,
			Feature:  key.feature,
			Tool:     key.tool,
			RowCount: len(rows),
		}
		for _, r := range rows {
			cluster.TotalUsage += r.UsageCount
			if r.UsageCount > cluster.UniqueUsage {
				cluster.UniqueUsage = r.UsageCount
			}
			cluster.FileSources = append(cluster.FileSources, r.FileSource)
		}
		sort.Strings(cluster.FileSources)
		report.Clusters = append(report.Clusters, cluster)

		user := userTotals[key.email]
		if user == nil {
			user = &UserDuplication{Email: key.email}
			userTotals[key.email] = user
		}
		user.ClusterCount++
		user.TotalMessages += cluster.TotalUsage
		user.UniqueMessages += cluster.UniqueUsage
	}

	for _, user := range userTotals {
		user.Delta = user.TotalMessages - user.UniqueMessages
		if user.UniqueMessages > 0 {
			user.DuplicationFactor = user.TotalMessages / user.UniqueMessages
		}
		report.Users = append(report.Users, *user)
	}

	sort.Slice(report.Clusters, func(i, j int) bool {
		a, b := report.Clusters[i], report.Clusters[j]
		if a.Email != b.Email {
			return a.Email < b.Email
		}
		if !a.Date.Equal(b.Date) {
			return a.Date.Before(b.Date)
		}
		return a.Feature < b.Feature
	})
	sort.Slice(report.Users, func(i, j int) bool {
		return report.Users[i].Email < report.Users[j].Email
	})

	if len(report.Clusters) > 0 {
		report.Status = StatusDuplicates
		v.logger.Warn("duplicate clusters found",
			"clusters", len(report.Clusters),
			"users", len(report.Users))
	}

	return report, nil
}
