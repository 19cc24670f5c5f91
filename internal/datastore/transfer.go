package datastore

import (
	"context"
	"slices"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/vectorcam/vectorinsight/internal/errors"
)

// Table is one table taking part in a transfer.
type Table struct {
	Name  string
	model any
	copy  func(ctx context.Context, src, dst *gorm.DB, batchSize int) (int64, error)
}

// TableOf describes the table holding model T. It is used by packages that
// own tables on the same connection.
func TableOf[T any](name string) Table {
	return Table{Name: name, model: new(T), copy: copyRows[T]}
}

// Tables returns the tables owned by the store, parents first.
func Tables() []Table {
	return []Table{
		TableOf[SurveillanceSession](SessionsTableName),
		TableOf[Specimen](SpecimensTableName),
		TableOf[MonthlyMetric](MetricsTableName),
	}
}

// TableStats reports one copied table.
type TableStats struct {
	Table    string
	Source   int64
	Copied   int64
	Duration time.Duration
}

// Transfer replaces the contents of tables in dst with the rows in src,
// preserving primary keys. Tables are cleared in reverse order and copied in
// order inside one transaction on dst; a count mismatch rolls it back. Both
// schemas must already exist.
func Transfer(ctx context.Context, src, dst *gorm.DB, tables []Table, batchSize int) ([]TableStats, error) {
	if batchSize <= 0 {
		batchSize = 500
	}

	stats := make([]TableStats, 0, len(tables))
	err := dst.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, t := range slices.Backward(tables) {
			if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(t.model).Error; err != nil {
				return transferError(err, "clear_table", t.Name)
			}
		}

		for _, t := range tables {
			start := time.Now()
			var source int64
			if err := src.WithContext(ctx).Model(t.model).Count(&source).Error; err != nil {
				return transferError(err, "count_source", t.Name)
			}
			copied, err := t.copy(ctx, src, tx, batchSize)
			if err != nil {
				return transferError(err, "copy_rows", t.Name)
			}

			var target int64
			if err := tx.Model(t.model).Count(&target).Error; err != nil {
				return transferError(err, "count_target", t.Name)
			}
			if target != source {
				return errors.Newf("table %s has %d rows in the target, expected %d", t.Name, target, source).
					Component("datastore").
					Category(errors.CategoryDatabase).
					Context("operation", "verify_transfer").
					Build()
			}
			stats = append(stats, TableStats{Table: t.Name, Source: source, Copied: copied, Duration: time.Since(start)})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return stats, nil
}

func copyRows[T any](ctx context.Context, src, dst *gorm.DB, batchSize int) (int64, error) {
	var (
		rows   []T
		copied int64
	)
	res := src.WithContext(ctx).FindInBatches(&rows, batchSize, func(_ *gorm.DB, _ int) error {
		if err := dst.Omit(clause.Associations).CreateInBatches(&rows, batchSize).Error; err != nil {
			return err
		}
		copied += int64(len(rows))
		return nil
	})
	return copied, res.Error
}

func transferError(err error, operation, table string) error {
	return errors.New(err).
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", operation).
		Context("table", table).
		Build()
}
