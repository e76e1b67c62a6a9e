package validate_test

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yapay-ai/usage-reconciler/pkg/model"
	"github.com/yapay-ai/usage-reconciler/pkg/storage"
	"github.com/yapay-ai/usage-reconciler/pkg/validate"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T) *storage.SQLite {
	t.Helper()
	db, err := storage.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func april(day int) time.Time {
	return time.Date(2025, time.April, day, 0, 0, 0, 0, time.UTC)
}

func usage(userID, email string, date time.Time, feature string, count float64) model.UsageRecord {
	return model.UsageRecord{
		UserID:      userID,
		Email:       email,
		Department:  "Unknown",
		Date:        date,
		FeatureUsed: feature,
		UsageCount:  count,
		ToolSource:  "ChatGPT",
	}
}

func TestValidate_CleanData(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	_, err := db.WriteBatch(ctx, []model.UsageRecord{
		usage("u1", "alice@acme.com", april(1), "ChatGPT Messages", 100),
		usage("u2", "bob@acme.com", april(1), "ChatGPT Messages", 50),
	}, "april.csv", false)
	require.NoError(t, err)

	report, err := validate.New(db, testLogger()).Validate(ctx, model.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, validate.StatusPass, report.Status)
	assert.Equal(t, 2, report.CheckedRecords)
	assert.Empty(t, report.Clusters)
}

func TestValidate_DuplicationArithmetic(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	// Same email under different user IDs survives superseding: the weekly
	// export identified the user by email, the monthly one by account ID.
	_, err := db.WriteBatch(ctx, []model.UsageRecord{
		usage("alice@acme.com", "alice@acme.com", april(1), "ChatGPT Messages", 100),
	}, "weekly.csv", false)
	require.NoError(t, err)
	_, err = db.WriteBatch(ctx, []model.UsageRecord{
		usage("u1", "alice@acme.com", april(1), "ChatGPT Messages", 100),
	}, "monthly.csv", false)
	require.NoError(t, err)

	report, err := validate.New(db, testLogger()).Validate(ctx, model.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, validate.StatusDuplicates, report.Status)

	require.Len(t, report.Clusters, 1)
	cluster := report.Clusters[0]
	assert.Equal(t, "alice@acme.com", cluster.Email)
	assert.Equal(t, 2, cluster.RowCount)
	assert.Equal(t, []string{"monthly.csv", "weekly.csv"}, cluster.FileSources)

	require.Len(t, report.Users, 1)
	user := report.Users[0]
	assert.InDelta(t, 200.0, user.TotalMessages, 1e-9)
	assert.InDelta(t, 100.0, user.UniqueMessages, 1e-9)
	assert.InDelta(t, 100.0, user.Delta, 1e-9)
	assert.InDelta(t, 2.0, user.DuplicationFactor, 1e-9)
}

func TestValidate_MultipleClustersPerUser(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	_, err := db.WriteBatch(ctx, []model.UsageRecord{
		usage("alice@acme.com", "alice@acme.com", april(1), "ChatGPT Messages", 100),
		usage("alice@acme.com", "alice@acme.com", april(1), "Tool Messages", 40),
	}, "weekly.csv", false)
	require.NoError(t, err)
	_, err = db.WriteBatch(ctx, []model.UsageRecord{
		usage("u1", "alice@acme.com", april(1), "ChatGPT Messages", 110),
		usage("u1", "alice@acme.com", april(1), "Tool Messages", 40),
	}, "monthly.csv", false)
	require.NoError(t, err)

	report, err := validate.New(db, testLogger()).Validate(ctx, model.ReportFilter{})
	require.NoError(t, err)
	assert.Len(t, report.Clusters, 2)

	require.Len(t, report.Users, 1)
	user := report.Users[0]
	assert.Equal(t, 2, user.ClusterCount)
	// Unique counts one value per cluster: max(100,110) + max(40,40).
	assert.InDelta(t, 290.0, user.TotalMessages, 1e-9)
	assert.InDelta(t, 150.0, user.UniqueMessages, 1e-9)
}

func TestValidate_DifferentDatesNotDuplicates(t *testing.T) {
	db := newTestStore(t)
	ctx := context.Background()

	_, err := db.WriteBatch(ctx, []model.UsageRecord{
		usage("alice@acme.com", "alice@acme.com", april(7), "ChatGPT Messages", 30),
	}, "week1.csv", false)
	require.NoError(t, err)
	_, err = db.WriteBatch(ctx, []model.UsageRecord{
		usage("u1", "alice@acme.com", april(14), "ChatGPT Messages", 30),
	}, "week2.csv", false)
	require.NoError(t, err)

	report, err := validate.New(db, testLogger()).Validate(ctx, model.ReportFilter{})
	require.NoError(t, err)
	assert.Equal(t, validate.StatusPass, report.Status)
}

func TestValidationReport_Render(t *testing.T) {
	report := &validate.ValidationReport{
		Status:         validate.StatusDuplicates,
		CheckedRecords: 4,
		Clusters: []validate.DuplicateCluster{
			{
				Email: "alice@acme.com", Date: april(1), Feature: "ChatGPT Messages",
				Tool: "ChatGPT", RowCount: 2, TotalUsage: 200, UniqueUsage: 100,
				FileSources: []string{"monthly.csv", "weekly.csv"},
			},
		},
		Users: []validate.UserDuplication{
			{Email: "alice@acme.com", ClusterCount: 1, TotalMessages: 200, UniqueMessages: 100, Delta: 100, DuplicationFactor: 2.0},
		},
	}

	text := report.String()
	assert.Contains(t, text, "DUPLICATES_FOUND")
	assert.Contains(t, text, "alice@acme.com")
	assert.Contains(t, text, "2.00x")

	data, err := report.JSON()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"duplication_factor": 2`)
}
