package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/logger"
	obsmetrics "github.com/vectorcam/vectorinsight/internal/observability/metrics"
	"github.com/vectorcam/vectorinsight/internal/records"
)

const dialectMySQL = "mysql"

// migrate creates missing tables and the views on a freshly opened store.
func (ds *DataStore) migrate(dbType string) error {
	start := time.Now()
	if err := ds.DB.AutoMigrate(&SurveillanceSession{}, &Specimen{}, &MonthlyMetric{}); err != nil {
		return dbError(err, "auto_migrate", errors.PriorityCritical, "db_type", dbType)
	}
	if err := createViews(ds.DB); err != nil {
		return dbError(err, "create_views", errors.PriorityHigh, "db_type", dbType)
	}
	ds.log.Debug("database migration completed",
		logger.String("db_type", dbType),
		logger.Duration("duration", time.Since(start)))
	return nil
}

func (ds *DataStore) closeDB() error {
	if err := ds.ready("close"); err != nil {
		return err
	}
	sqlDB, err := ds.DB.DB()
	if err != nil {
		return dbError(err, "close", "")
	}
	if err := sqlDB.Close(); err != nil {
		return dbError(err, "close", "")
	}
	return nil
}

func dropViews(db *gorm.DB) error {
	for _, v := range []string{SurveillanceView, SpecimenListView} {
		if err := db.Migrator().DropView(v); err != nil {
			return err
		}
	}
	return nil
}

// createViews (re)creates the read-only views used by dashboards. SiteName
// is the first non-empty of village, parish and health centre.
func createViews(db *gorm.DB) error {
	if err := dropViews(db); err != nil {
		return err
	}

	surveillance := db.Model(&SurveillanceSession{}).Select(
		"SessionCollectorName AS CollectorName, SessionCollectionDate, SessionID, SiteDistrict, " +
			"COALESCE(NULLIF(SiteVillageName, ''), NULLIF(SiteParish, ''), NULLIF(SiteHealthCenter, ''), '') AS SiteName, " +
			"SessionCollectionMethod")
	if err := db.Migrator().CreateView(SurveillanceView, gorm.ViewOption{Query: surveillance}); err != nil {
		return err
	}

	specimens := db.Model(&Specimen{}).Select("SpecimenID, SessionID, Species")
	return db.Migrator().CreateView(SpecimenListView, gorm.ViewOption{Query: specimens})
}

// ReplaceAll replaces both data tables with the given cleaned tables and
// recreates the views. On SQLite the drop, recreate and reload run in one
// transaction. MySQL commits DDL implicitly, so the schema is migrated first
// and only the delete and reload are transactional.
func (ds *DataStore) ReplaceAll(ctx context.Context, sessions *records.SessionTable, specimens *records.SpecimenTable) (TableCounts, error) {
	if err := ds.ready("replace_all"); err != nil {
		return TableCounts{}, err
	}

	sessionRows := sessionModels(sessions)
	specimenRows := specimenModels(specimens)
	db := ds.DB.WithContext(ctx)
	start := time.Now()

	var err error
	if db.Dialector.Name() == dialectMySQL {
		err = ds.replaceMySQL(db, sessionRows, specimenRows)
	} else {
		err = ds.replaceSQLite(db, sessionRows, specimenRows)
	}
	ds.observeTx(obsmetrics.OpReplace, start, err)
	if err != nil {
		return TableCounts{}, err
	}

	if ds.metrics != nil {
		ds.metrics.RecordRowsWritten(SessionsTableName, len(sessionRows))
		ds.metrics.RecordRowsWritten(SpecimensTableName, len(specimenRows))
	}
	ds.log.Info("replaced tables",
		logger.Int("sessions", len(sessionRows)),
		logger.Int("specimens", len(specimenRows)),
		logger.Duration("duration", time.Since(start)))

	return ds.Counts(ctx)
}

func (ds *DataStore) replaceSQLite(db *gorm.DB, sessions []SurveillanceSession, specimens []Specimen) error {
	return db.Transaction(func(tx *gorm.DB) error {
		if err := dropViews(tx); err != nil {
			return dbError(err, "drop_views", errors.PriorityHigh)
		}
		if err := tx.Migrator().DropTable(&Specimen{}, &SurveillanceSession{}); err != nil {
			return dbError(err, "drop_tables", errors.PriorityHigh)
		}
		if err := tx.AutoMigrate(&SurveillanceSession{}, &Specimen{}); err != nil {
			return dbError(err, "create_tables", errors.PriorityHigh)
		}
		if err := ds.insert(tx, sessions, specimens); err != nil {
			return err
		}
		if err := createViews(tx); err != nil {
			return dbError(err, "create_views", errors.PriorityHigh)
		}
		return nil
	})
}

func (ds *DataStore) replaceMySQL(db *gorm.DB, sessions []SurveillanceSession, specimens []Specimen) error {
	if err := db.AutoMigrate(&SurveillanceSession{}, &Specimen{}); err != nil {
		return dbError(err, "create_tables", errors.PriorityHigh)
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		all := tx.Session(&gorm.Session{AllowGlobalUpdate: true})
		if err := all.Delete(&Specimen{}).Error; err != nil {
			return dbError(err, "delete", errors.PriorityHigh, "table", SpecimensTableName)
		}
		if err := all.Delete(&SurveillanceSession{}).Error; err != nil {
			return dbError(err, "delete", errors.PriorityHigh, "table", SessionsTableName)
		}
		return ds.insert(tx, sessions, specimens)
	})
	if err != nil {
		return err
	}
	if err := createViews(db); err != nil {
		return dbError(err, "create_views", errors.PriorityHigh)
	}
	return nil
}

func (ds *DataStore) insert(tx *gorm.DB, sessions []SurveillanceSession, specimens []Specimen) error {
	batch := ds.batchSize()

	if len(sessions) > 0 {
		start := time.Now()
		err := tx.CreateInBatches(sessions, batch).Error
		ds.observe(obsmetrics.OpDbInsert, SessionsTableName, start, err)
		if err != nil {
			return dbError(err, "insert", errors.PriorityHigh, "table", SessionsTableName, "rows", len(sessions))
		}
	}
	if len(specimens) > 0 {
		start := time.Now()
		err := tx.CreateInBatches(specimens, batch).Error
		ds.observe(obsmetrics.OpDbInsert, SpecimensTableName, start, err)
		if err != nil {
			return dbError(err, "insert", errors.PriorityHigh, "table", SpecimensTableName, "rows", len(specimens))
		}
	}
	return nil
}

// Counts returns the current row counts of both data tables.
func (ds *DataStore) Counts(ctx context.Context) (TableCounts, error) {
	if err := ds.ready("counts"); err != nil {
		return TableCounts{}, err
	}
	db := ds.DB.WithContext(ctx)
	var c TableCounts

	start := time.Now()
	err := db.Model(&SurveillanceSession{}).Count(&c.Sessions).Error
	ds.observe(obsmetrics.OpDbQuery, SessionsTableName, start, err)
	if err != nil {
		return TableCounts{}, dbError(err, "count", "", "table", SessionsTableName)
	}

	start = time.Now()
	err = db.Model(&Specimen{}).Count(&c.Specimens).Error
	ds.observe(obsmetrics.OpDbQuery, SpecimensTableName, start, err)
	if err != nil {
		return TableCounts{}, dbError(err, "count", "", "table", SpecimensTableName)
	}

	if ds.metrics != nil {
		ds.metrics.UpdateTableRowCount(SessionsTableName, c.Sessions)
		ds.metrics.UpdateTableRowCount(SpecimensTableName, c.Specimens)
	}
	return c, nil
}
