// Package fieldteam tracks field collectors: who is registered, when they
// were trained and what they submitted. It shares the pipeline's store and
// derives submissions from the Surveillance and SpecimenList views.
package fieldteam

import (
	"context"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/vectorcam/vectorinsight/internal/datastore"
	"github.com/vectorcam/vectorinsight/internal/errors"
	"github.com/vectorcam/vectorinsight/internal/logger"
)

// ErrAlreadyRegistered is returned when a collector name already exists.
var ErrAlreadyRegistered = errors.NewStd("collector already registered")

// Tracker manages field team tables on an open store connection.
type Tracker struct {
	db  *gorm.DB
	log logger.Logger
	now func() time.Time
}

// NewTracker returns a tracker on db. A nil log discards output.
func NewTracker(db *gorm.DB, log logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewSlogLogger(nil, logger.LogLevelInfo, time.UTC)
	}
	return &Tracker{
		db:  db,
		log: log.Module("fieldteam"),
		now: func() time.Time { return time.Now().UTC() },
	}
}

func trackerError(err error, operation string, context ...any) error {
	b := errors.New(err).
		Component("fieldteam").
		Category(errors.CategoryDatabase).
		Context("operation", operation)
	for i := 0; i+1 < len(context); i += 2 {
		if key, ok := context[i].(string); ok {
			b = b.Context(key, context[i+1])
		}
	}
	return b.Build()
}

// EnsureSchema creates the field team tables when they are missing.
func (t *Tracker) EnsureSchema(ctx context.Context) error {
	if err := t.db.WithContext(ctx).AutoMigrate(&Collector{}, &TrainingRecord{}, &SubmissionLog{}); err != nil {
		return trackerError(err, "ensure_schema")
	}
	return nil
}

// RegisterCollector inserts c. Role, status and registration date get their
// defaults when empty. An existing name yields ErrAlreadyRegistered and the
// stored row.
func (t *Tracker) RegisterCollector(ctx context.Context, c Collector) (Collector, error) {
	c.CollectorName = strings.TrimSpace(c.CollectorName)
	if c.CollectorName == "" {
		return Collector{}, errors.ValidationError("collector name is required")
	}

	db := t.db.WithContext(ctx)
	var existing Collector
	err := db.Where(&Collector{CollectorName: c.CollectorName}).Limit(1).Find(&existing).Error
	if err != nil {
		return Collector{}, trackerError(err, "lookup_collector", "collector", c.CollectorName)
	}
	if existing.CollectorID != 0 {
		return existing, errors.New(ErrAlreadyRegistered).
			Component("fieldteam").
			Category(errors.CategoryConflict).
			Priority(errors.PriorityLow).
			Context("collector", c.CollectorName).
			Build()
	}

	if c.Role == "" {
		c.Role = DefaultRole
	}
	if c.Status == "" {
		c.Status = DefaultStatus
	}
	if c.DateRegistered.IsZero() {
		c.DateRegistered = dateOf(t.now())
	}
	c.CollectorID = 0
	if err := db.Create(&c).Error; err != nil {
		return Collector{}, trackerError(err, "register_collector", "collector", c.CollectorName)
	}

	t.log.Info("registered collector", logger.String("collector", c.CollectorName))
	return c, nil
}

// Training describes a training record to add.
type Training struct {
	CollectorName string
	Date          time.Time
	Type          string
	TrainerName   string
	Topics        string
	Score         *float64
	Certification string
	Notes         string
}

// AddTrainingRecord stores a training record, registering the collector
// first when the name is unknown.
func (t *Tracker) AddTrainingRecord(ctx context.Context, tr Training) (TrainingRecord, error) {
	if tr.Date.IsZero() {
		return TrainingRecord{}, errors.ValidationError("training date is required")
	}

	collector, err := t.RegisterCollector(ctx, Collector{CollectorName: tr.CollectorName})
	switch {
	case errors.Is(err, ErrAlreadyRegistered):
	case err != nil:
		return TrainingRecord{}, err
	default:
		t.log.Warn("collector not found, registered before adding training",
			logger.String("collector", collector.CollectorName))
	}

	if tr.Type == "" {
		tr.Type = DefaultTrainingType
	}
	if tr.Certification == "" {
		tr.Certification = DefaultCertification
	}
	rec := TrainingRecord{
		CollectorID:         collector.CollectorID,
		TrainingDate:        dateOf(tr.Date),
		TrainingType:        tr.Type,
		TrainerName:         tr.TrainerName,
		TopicsCovered:       tr.Topics,
		AssessmentScore:     tr.Score,
		CertificationStatus: tr.Certification,
		Notes:               tr.Notes,
	}
	if err := t.db.WithContext(ctx).Omit("Collector").Create(&rec).Error; err != nil {
		return TrainingRecord{}, trackerError(err, "add_training", "collector", collector.CollectorName)
	}

	t.log.Info("added training record",
		logger.String("collector", collector.CollectorName),
		logger.String("type", rec.TrainingType))
	return rec, nil
}

// surveillanceRow is the projection of the Surveillance view used here.
type surveillanceRow struct {
	CollectorName           string     `gorm:"column:CollectorName"`
	SessionCollectionDate   *time.Time `gorm:"column:SessionCollectionDate"`
	SessionID               *int64     `gorm:"column:SessionID"`
	SiteDistrict            string     `gorm:"column:SiteDistrict"`
	SiteName                string     `gorm:"column:SiteName"`
	SessionCollectionMethod string     `gorm:"column:SessionCollectionMethod"`
}

func (t *Tracker) surveillance(ctx context.Context) ([]surveillanceRow, error) {
	var rows []surveillanceRow
	err := t.db.WithContext(ctx).Table(datastore.SurveillanceView).
		Where("CollectorName IS NOT NULL AND CollectorName <> ''").
		Find(&rows).Error
	if err != nil {
		return nil, trackerError(err, "read_surveillance_view")
	}
	return rows, nil
}

// AutoRegisterFromSurveillance registers every collector named in the
// Surveillance view with the district and site of their first session. It
// returns how many were new.
func (t *Tracker) AutoRegisterFromSurveillance(ctx context.Context) (int, error) {
	rows, err := t.surveillance(ctx)
	if err != nil {
		return 0, err
	}

	seen := make(map[string]struct{})
	registered := 0
	for _, r := range rows {
		name := strings.TrimSpace(r.CollectorName)
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		_, err := t.RegisterCollector(ctx, Collector{CollectorName: name, District: r.SiteDistrict, Site: r.SiteName})
		switch {
		case errors.Is(err, ErrAlreadyRegistered):
		case err != nil:
			return registered, err
		default:
			registered++
		}
	}

	t.log.Info("auto-registered collectors", logger.Int("new", registered), logger.Int("seen", len(seen)))
	return registered, nil
}

type submissionKey struct {
	collector string
	date      time.Time
	district  string
	site      string
	method    string
}

// UpdateSubmissionLogs rebuilds submission_logs from the views. Sessions
// are grouped by collector, collection day, district, site and method;
// houses are distinct sessions and specimens are counted per session.
// Sessions without a collection date are skipped.
func (t *Tracker) UpdateSubmissionLogs(ctx context.Context) (int, error) {
	rows, err := t.surveillance(ctx)
	if err != nil {
		return 0, err
	}
	perSession, err := t.specimensPerSession(ctx)
	if err != nil {
		return 0, err
	}

	var order []submissionKey
	houses := make(map[submissionKey]map[int64]struct{})
	skipped := 0
	for _, r := range rows {
		if r.SessionCollectionDate == nil {
			skipped++
			continue
		}
		k := submissionKey{
			collector: strings.TrimSpace(r.CollectorName),
			date:      dateOf(*r.SessionCollectionDate),
			district:  r.SiteDistrict,
			site:      r.SiteName,
			method:    r.SessionCollectionMethod,
		}
		if _, ok := houses[k]; !ok {
			houses[k] = make(map[int64]struct{})
			order = append(order, k)
		}
		if r.SessionID != nil {
			houses[k][*r.SessionID] = struct{}{}
		}
	}

	logs := make([]SubmissionLog, 0, len(order))
	for _, k := range order {
		specimens := 0
		for id := range houses[k] {
			specimens += perSession[id]
		}
		logs = append(logs, SubmissionLog{
			CollectorName:    k.collector,
			SubmissionDate:   k.date,
			District:         k.district,
			Site:             k.site,
			CollectionMethod: k.method,
			NumHouses:        len(houses[k]),
			NumSpecimens:     specimens,
		})
	}

	err = t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&SubmissionLog{}).Error; err != nil {
			return err
		}
		if len(logs) == 0 {
			return nil
		}
		return tx.CreateInBatches(logs, 200).Error
	})
	if err != nil {
		return 0, trackerError(err, "update_submission_logs", "logs", len(logs))
	}

	if skipped > 0 {
		t.log.Debug("sessions without collection date skipped", logger.Int("count", skipped))
	}
	t.log.Info("updated submission logs", logger.Int("records", len(logs)))
	return len(logs), nil
}

func (t *Tracker) specimensPerSession(ctx context.Context) (map[int64]int, error) {
	type countRow struct {
		SessionID int64
		N         int
	}
	var rows []countRow
	err := t.db.WithContext(ctx).Table(datastore.SpecimenListView).
		Select("SessionID AS session_id, COUNT(SpecimenID) AS n").
		Where("SessionID IS NOT NULL").
		Group("SessionID").
		Scan(&rows).Error
	if err != nil {
		return nil, trackerError(err, "count_specimens")
	}
	out := make(map[int64]int, len(rows))
	for _, r := range rows {
		out[r.SessionID] = r.N
	}
	return out, nil
}

// UpdateResult reports what Update changed.
type UpdateResult struct {
	Registered int
	Logs       int
}

// Update is the pipeline step: it ensures the schema, registers new
// collectors and rebuilds the submission logs.
func (t *Tracker) Update(ctx context.Context) (UpdateResult, error) {
	if err := t.EnsureSchema(ctx); err != nil {
		return UpdateResult{}, err
	}
	registered, err := t.AutoRegisterFromSurveillance(ctx)
	if err != nil {
		return UpdateResult{}, err
	}
	logs, err := t.UpdateSubmissionLogs(ctx)
	if err != nil {
		return UpdateResult{Registered: registered}, err
	}
	return UpdateResult{Registered: registered, Logs: logs}, nil
}

// dateOf truncates ts to midnight UTC of its calendar day.
func dateOf(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
