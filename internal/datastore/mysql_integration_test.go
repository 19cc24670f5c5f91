//go:build integration

package datastore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcmysql "github.com/testcontainers/testcontainers-go/modules/mysql"

	"github.com/vectorcam/vectorinsight/internal/conf"
)

// startMySQL runs a disposable MySQL server and returns settings pointing at it.
func startMySQL(t *testing.T) *conf.Settings {
	t.Helper()
	ctx := context.Background()

	container, err := tcmysql.Run(ctx, "mysql:8.4",
		tcmysql.WithDatabase("vectorinsight"),
		tcmysql.WithUsername("vector"),
		tcmysql.WithPassword("vector"),
	)
	testcontainers.CleanupContainer(t, container)
	require.NoError(t, err)

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "3306/tcp")
	require.NoError(t, err)

	s := &conf.Settings{}
	s.Database.Type = conf.DatabaseMySQL
	s.Database.BatchSize = 2
	s.Database.MySQL = conf.MySQLSettings{
		Host:     host,
		Port:     port.Port(),
		Username: "vector",
		Password: "vector",
		Database: "vectorinsight",
	}
	return s
}

func TestMySQLStoreRoundTrip(t *testing.T) {
	settings := startMySQL(t)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	store := New(settings, quietLogger())
	require.NoError(t, store.Open())
	t.Cleanup(func() { _ = store.Close() })

	sessions, specimens := fixtureTables(t)
	counts, err := store.ReplaceAll(ctx, sessions, specimens)
	require.NoError(t, err)
	assert.Equal(t, TableCounts{Sessions: 3, Specimens: 5}, counts)

	// reload replaces the previous contents
	counts, err = store.ReplaceAll(ctx, sessions, specimens)
	require.NoError(t, err)
	assert.Equal(t, TableCounts{Sessions: 3, Specimens: 5}, counts)

	var n int64
	require.NoError(t, store.Gorm().Table(SurveillanceView).Count(&n).Error)
	assert.Equal(t, int64(3), n)

	audit, err := store.SessionTypeAudit(ctx)
	require.NoError(t, err)
	require.Len(t, audit, 2)
	assert.Equal(t, "2024-03-10", audit[0].FirstDate)

	res, err := store.PurgeDataCollection(ctx)
	require.NoError(t, err)
	assert.Equal(t, PurgeResult{Sessions: 1, Specimens: 1}, res)

	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.UpsertMetrics(ctx, []MonthlyMetric{
		{YearMonth: "2024-05", MetricName: "total_specimens", MetricValue: 4, Category: "summary", CalculatedAt: at},
	}))
	require.NoError(t, store.UpsertMetrics(ctx, []MonthlyMetric{
		{YearMonth: "2024-05", MetricName: "total_specimens", MetricValue: 5, Category: "summary", CalculatedAt: at},
	}))
	rows, err := store.Metrics(ctx, "2024-05")
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.InDelta(t, 5, rows[0].MetricValue, 0)
}

func TestTransferSQLiteToMySQL(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dst := New(startMySQL(t), quietLogger())
	require.NoError(t, dst.Open())
	t.Cleanup(func() { _ = dst.Close() })

	src := openTestStore(t)
	sessions, specimens := fixtureTables(t)
	_, err := src.ReplaceAll(ctx, sessions, specimens)
	require.NoError(t, err)

	stats, err := Transfer(ctx, src.Gorm(), dst.Gorm(), Tables(), 2)
	require.NoError(t, err)
	require.Len(t, stats, 3)

	counts, err := dst.Counts(ctx)
	require.NoError(t, err)
	assert.Equal(t, TableCounts{Sessions: 3, Specimens: 5}, counts)

	var n int64
	require.NoError(t, dst.Gorm().Table(SpecimenListView).Count(&n).Error)
	assert.Equal(t, int64(5), n)
}
