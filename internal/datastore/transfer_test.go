package datastore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/records"
)

func TestTransfer(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := openTestStore(t)
	dst := openTestStore(t)

	sessions, specimens := fixtureTables(t)
	_, err := src.ReplaceAll(ctx, sessions, specimens)
	require.NoError(t, err)
	require.NoError(t, src.UpsertMetrics(ctx, []MonthlyMetric{
		{YearMonth: "2024-05", MetricName: "total_collections", MetricValue: 3, Category: "summary", CalculatedAt: time.Now().UTC()},
	}))

	// stale target rows are replaced
	one, _ := fixtureTables(t)
	one.Rows = one.Rows[2:]
	_, err = dst.ReplaceAll(ctx, one, records.NewSpecimenTable(nil))
	require.NoError(t, err)

	stats, err := Transfer(ctx, src.Gorm(), dst.Gorm(), Tables(), 2)
	require.NoError(t, err)
	require.Len(t, stats, 3)
	assert.Equal(t, SessionsTableName, stats[0].Table)
	assert.Equal(t, int64(3), stats[0].Copied)
	assert.Equal(t, int64(5), stats[1].Copied)
	assert.Equal(t, int64(1), stats[2].Copied)
	for _, s := range stats {
		assert.Equal(t, s.Source, s.Copied, s.Table)
	}

	counts, err := dst.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, TableCounts{Sessions: 3, Specimens: 5}, counts)

	var stored Specimen
	require.NoError(t, dst.Gorm().Where("SpecimenID = ?", "a").First(&stored).Error)
	assert.Equal(t, "Anopheles gambiae complex", stored.SpeciesGroup)

	metrics, err := dst.Metrics(ctx, "2024-05")
	require.NoError(t, err)
	require.Len(t, metrics, 1)
	assert.InDelta(t, 3, metrics[0].MetricValue, 0)

	// running again is idempotent
	_, err = Transfer(ctx, src.Gorm(), dst.Gorm(), Tables(), 0)
	require.NoError(t, err)
	counts, err = dst.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, TableCounts{Sessions: 3, Specimens: 5}, counts)
}

func TestTransferMissingSourceTable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	src := openTestStore(t)
	dst := openTestStore(t)

	sessions, specimens := fixtureTables(t)
	_, err := dst.ReplaceAll(ctx, sessions, specimens)
	require.NoError(t, err)
	require.NoError(t, src.Gorm().Exec("DROP VIEW IF EXISTS "+SpecimenListView).Error)
	require.NoError(t, src.Gorm().Exec("DROP VIEW IF EXISTS "+SurveillanceView).Error)
	require.NoError(t, src.Gorm().Migrator().DropTable(&Specimen{}))

	_, err = Transfer(ctx, src.Gorm(), dst.Gorm(), Tables(), 2)
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryDatabase))

	counts, err := dst.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, TableCounts{Sessions: 3, Specimens: 5}, counts, "failed transfer rolls back")
}
