package datastore

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/logger"
	obsmetrics "github.com/vectorcam/vectorinsight/internal/observability/metrics"
)

// SessionTypeDataCollection marks non-surveillance test sessions.
const SessionTypeDataCollection = "DATA_COLLECTION"

// SessionTypeCount is one row of the session type audit.
type SessionTypeCount struct {
	SessionType string
	Count       int64
	FirstDate   string
	LastDate    string
}

// PurgeResult reports what PurgeDataCollection deleted.
type PurgeResult struct {
	Sessions  int64
	Specimens int64
}

// SessionTypeAudit reports how many sessions of each type are stored and
// the date range they cover, largest type first.
func (ds *DataStore) SessionTypeAudit(ctx context.Context) ([]SessionTypeCount, error) {
	if err := ds.ready("session_type_audit"); err != nil {
		return nil, err
	}

	type auditRow struct {
		SessionType string
		Count       int64
		FirstDate   *string
		LastDate    *string
	}
	var rows []auditRow

	start := time.Now()
	err := ds.DB.WithContext(ctx).Model(&SurveillanceSession{}).
		Select("SessionType AS session_type, COUNT(*) AS count, " +
			"MIN(SessionCollectionDate) AS first_date, MAX(SessionCollectionDate) AS last_date").
		Group("SessionType").
		Order("count DESC").
		Scan(&rows).Error
	ds.observe(obsmetrics.OpDbQuery, SessionsTableName, start, err)
	if err != nil {
		return nil, dbError(err, "session_type_audit", "")
	}

	out := make([]SessionTypeCount, len(rows))
	for i, r := range rows {
		out[i] = SessionTypeCount{
			SessionType: r.SessionType,
			Count:       r.Count,
			FirstDate:   datePart(r.FirstDate),
			LastDate:    datePart(r.LastDate),
		}
	}
	return out, nil
}

// datePart keeps the YYYY-MM-DD prefix of a driver-formatted timestamp.
func datePart(v *string) string {
	if v == nil {
		return ""
	}
	if len(*v) >= len(time.DateOnly) {
		return (*v)[:len(time.DateOnly)]
	}
	return *v
}

// PurgeDataCollection deletes DATA_COLLECTION sessions and then every
// specimen whose SessionID no longer matches a stored session. Specimens
// without a SessionID are kept.
func (ds *DataStore) PurgeDataCollection(ctx context.Context) (PurgeResult, error) {
	if err := ds.ready("purge_data_collection"); err != nil {
		return PurgeResult{}, err
	}

	var res PurgeResult
	start := time.Now()
	err := ds.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		del := tx.Where("UPPER(TRIM(SessionType)) = ?", SessionTypeDataCollection).Delete(&SurveillanceSession{})
		if del.Error != nil {
			return dbError(del.Error, "purge_sessions", errors.PriorityHigh)
		}
		res.Sessions = del.RowsAffected

		remaining := tx.Model(&SurveillanceSession{}).Select("SessionID").Where("SessionID IS NOT NULL")
		del = tx.Where("SessionID NOT IN (?)", remaining).Delete(&Specimen{})
		if del.Error != nil {
			return dbError(del.Error, "purge_specimens", errors.PriorityHigh)
		}
		res.Specimens = del.RowsAffected
		return nil
	})
	ds.observeTx(obsmetrics.OpPurge, start, err)
	if err != nil {
		return PurgeResult{}, err
	}

	ds.log.Info("purged DATA_COLLECTION sessions",
		logger.Int64("sessions", res.Sessions),
		logger.Int64("specimens", res.Specimens))
	return res, nil
}
