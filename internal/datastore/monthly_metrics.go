package datastore

import (
	"context"
	"time"

	"gorm.io/gorm/clause"

	"github.com/vectorcam/vectorinsight/internal/errors"
	obsmetrics "github.com/vectorcam/vectorinsight/internal/observability/metrics"
)

var metricKey = []clause.Column{{Name: "year_month"}, {Name: "metric_name"}, {Name: "category"}}

// UpsertMetrics inserts rows, replacing the value, JSON payload and
// calculation time of rows that share a (year_month, metric_name, category) key.
func (ds *DataStore) UpsertMetrics(ctx context.Context, rows []MonthlyMetric) error {
	if err := ds.ready("upsert_metrics"); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}

	start := time.Now()
	err := ds.DB.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   metricKey,
			DoUpdates: clause.AssignmentColumns([]string{"metric_value", "metric_json", "calculated_at"}),
		}).
		CreateInBatches(rows, ds.batchSize()).Error
	ds.observe(obsmetrics.OpUpsert, MetricsTableName, start, err)
	if err != nil {
		return dbError(err, "upsert_metrics", errors.PriorityHigh, "rows", len(rows))
	}
	return nil
}

// Metrics returns the stored metrics of yearMonth ordered by category and
// name. An empty yearMonth returns every month, newest first.
func (ds *DataStore) Metrics(ctx context.Context, yearMonth string) ([]MonthlyMetric, error) {
	if err := ds.ready("query_metrics"); err != nil {
		return nil, err
	}

	q := ds.DB.WithContext(ctx).Model(&MonthlyMetric{})
	if yearMonth != "" {
		q = q.Where(&MonthlyMetric{YearMonth: yearMonth})
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: "year_month"}, Desc: true}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "category"}}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "metric_name"}})

	var out []MonthlyMetric
	start := time.Now()
	err := q.Find(&out).Error
	ds.observe(obsmetrics.OpDbQuery, MetricsTableName, start, err)
	if err != nil {
		return nil, dbError(err, "query_metrics", "", "year_month", yearMonth)
	}
	return out, nil
}

// MetricMonths lists the months that have stored metrics, newest first.
func (ds *DataStore) MetricMonths(ctx context.Context) ([]string, error) {
	if err := ds.ready("metric_months"); err != nil {
		return nil, err
	}
	var months []string
	err := ds.DB.WithContext(ctx).Model(&MonthlyMetric{}).
		Distinct().
		Order(clause.OrderByColumn{Column: clause.Column{Name: "year_month"}, Desc: true}).
		Pluck("year_month", &months).Error
	if err != nil {
		return nil, dbError(err, "metric_months", "")
	}
	return months, nil
}
