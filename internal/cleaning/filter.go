package cleaning

import (
	"strings"

	"github.com/vectorcam/vectorinsight/internal/dataset"
	"github.com/vectorcam/vectorinsight/internal/logger"
)

// SessionTypeSurveillance is the only session type kept by the filter.
const SessionTypeSurveillance = "SURVEILLANCE"

var sessionTypeColumns = []string{"SessionType", "session_type", "sessionType"}

// FilterSurveillanceSessions keeps the rows of f whose session type is
// SURVEILLANCE after trimming and upper-casing. The session type column of
// the result holds the normalized values. A frame without a session type
// column is returned unchanged.
func (c *Cleaner) FilterSurveillanceSessions(f *dataset.Frame) *dataset.Frame {
	col := ""
	for _, name := range sessionTypeColumns {
		if f.Has(name) {
			col = name
			break
		}
	}
	if col == "" {
		c.log.Warn("no session type column found, skipping session filter",
			logger.Int("records", f.Len()))
		return f
	}

	out := f.Clone()
	idx := out.Index(col)
	for _, rec := range out.Records {
		rec[idx] = strings.ToUpper(strings.TrimSpace(rec[idx]))
	}

	order, counts := out.ValueCounts(col)
	for _, value := range order {
		c.log.Debug("session type count", logger.String("session_type", value), logger.Int("count", counts[value]))
	}

	kept := out.Filter(func(row int) bool { return out.Records[row][idx] == SessionTypeSurveillance })
	c.log.Info("filtered sessions by type",
		logger.String("column", col),
		logger.Int("total", f.Len()),
		logger.Int("kept", kept.Len()),
		logger.Int("excluded", f.Len()-kept.Len()))

	if kept.Len() == 0 && f.Len() > 0 {
		c.log.Warn("no SURVEILLANCE sessions left after filtering", logger.String("column", col))
	}
	return kept
}
