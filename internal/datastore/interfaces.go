// Package datastore persists cleaned tables, derived metrics and the
// visualization views in a relational store through GORM.
package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/vectorcam/vectorinsight/internal/conf"
	"github.com/vectorcam/vectorinsight/internal/logger"
	obsmetrics "github.com/vectorcam/vectorinsight/internal/observability/metrics"
	"github.com/vectorcam/vectorinsight/internal/records"
)

// Metrics is a type alias for the observability datastore metrics.
type Metrics = obsmetrics.DatastoreMetrics

// Interface is the store used by the pipeline and the CLI.
type Interface interface {
	Open() error
	Close() error
	// SetMetrics attaches Prometheus metrics; nil disables recording.
	SetMetrics(m *Metrics)
	// Gorm exposes the connection to packages that own their own tables.
	Gorm() *gorm.DB

	ReplaceAll(ctx context.Context, sessions *records.SessionTable, specimens *records.SpecimenTable) (TableCounts, error)
	Counts(ctx context.Context) (TableCounts, error)

	UpsertMetrics(ctx context.Context, rows []MonthlyMetric) error
	Metrics(ctx context.Context, yearMonth string) ([]MonthlyMetric, error)
	MetricMonths(ctx context.Context) ([]string, error)

	SessionTypeAudit(ctx context.Context) ([]SessionTypeCount, error)
	PurgeDataCollection(ctx context.Context) (PurgeResult, error)
}

// DataStore implements Interface on top of an open GORM connection.
// SQLiteStore and MySQLStore embed it and add engine-specific Open and Close.
type DataStore struct {
	DB       *gorm.DB
	Settings *conf.Settings

	log     logger.Logger
	metrics *Metrics
}

// TableCounts are the row counts of the two data tables.
type TableCounts struct {
	Sessions  int64
	Specimens int64
}

// New returns a store for the configured engine. The store is not opened.
func New(settings *conf.Settings, log logger.Logger) Interface {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, time.UTC)
	}
	ds := DataStore{Settings: settings, log: log.Module("datastore")}

	switch settings.Database.Type {
	case conf.DatabaseMySQL:
		return &MySQLStore{DataStore: ds}
	default:
		return &SQLiteStore{DataStore: ds}
	}
}

// SetMetrics attaches Prometheus metrics to the store.
func (ds *DataStore) SetMetrics(m *Metrics) {
	ds.metrics = m
}

// Gorm returns the underlying connection.
func (ds *DataStore) Gorm() *gorm.DB {
	return ds.DB
}

func (ds *DataStore) gormConfig() *gorm.Config {
	return &gorm.Config{
		Logger:                 logger.NewGormLoggerAdapter(ds.log, ds.Settings.Database.SlowQuery),
		SkipDefaultTransaction: true,
		NowFunc:                func() time.Time { return time.Now().UTC() },
	}
}

func (ds *DataStore) batchSize() int {
	if n := ds.Settings.Database.BatchSize; n > 0 {
		return n
	}
	return conf.DefaultBatchSize
}

func (ds *DataStore) ready(operation string) error {
	if ds.DB == nil {
		return stateError(errNotOpen, operation)
	}
	return nil
}

// observe records the outcome of one operation on table.
func (ds *DataStore) observe(operation, table string, start time.Time, err error) {
	if ds.metrics == nil {
		return
	}
	ds.metrics.RecordDbOperationDuration(operation, table, time.Since(start).Seconds())
	if err != nil {
		ds.metrics.RecordDbOperation(operation, table, obsmetrics.StatusError)
		ds.metrics.RecordDbOperationError(operation, table, categorizeError(err))
		return
	}
	ds.metrics.RecordDbOperation(operation, table, obsmetrics.StatusSuccess)
}

// observeTx records a transaction outcome.
func (ds *DataStore) observeTx(operation string, start time.Time, err error) {
	if ds.metrics == nil {
		return
	}
	ds.metrics.RecordTransactionDuration(operation, time.Since(start).Seconds())
	if err != nil {
		ds.metrics.RecordTransaction("rollback")
		return
	}
	ds.metrics.RecordTransaction("committed")
}
