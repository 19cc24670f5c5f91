package fieldteam

import (
	"context"
	"math"
	"sort"
	"time"
)

// Activity statuses, by days since the last submission.
const (
	ActivityActive        = "Active (< 7 days)"
	ActivityInactive      = "Inactive (7-30 days)"
	ActivityDormant       = "Dormant (> 30 days)"
	ActivityNoSubmissions = "No Submissions"
)

// Training statuses, by days since the last training.
const (
	TrainingRecent     = "Recent (< 90 days)"
	TrainingDue        = "Due for Refresher (90-180 days)"
	TrainingNeeded     = "Needs Training (> 180 days)"
	TrainingNoRecord   = "No Training Record"
	activeDays         = 7
	inactiveDays       = 30
	recentTrainingDays = 90
	dueTrainingDays    = 180
)

// CollectorSummary is one collector's activity and training overview.
type CollectorSummary struct {
	CollectorName  string
	District       string
	Site           string
	Role           string
	Status         string
	DateRegistered time.Time

	LastTrainingDate   *time.Time
	LastTrainingType   string
	LastSubmissionDate *time.Time
	SubmissionDays     int
	TotalHouses        int
	TotalSpecimens     int

	DaysSinceSubmission *int
	DaysSinceTraining   *int
	ActivityStatus      string
	TrainingStatus      string
}

// NeedsAttention reports whether the collector needs follow-up: not active
// recently, or due for training. Collectors without a training record are
// not flagged on training alone.
func (s CollectorSummary) NeedsAttention() bool {
	switch s.ActivityStatus {
	case ActivityInactive, ActivityDormant, ActivityNoSubmissions:
		return true
	}
	return s.TrainingStatus == TrainingDue || s.TrainingStatus == TrainingNeeded
}

// ActivityStatus classifies days since the last submission; nil means none.
func ActivityStatus(days *int) string {
	switch {
	case days == nil:
		return ActivityNoSubmissions
	case *days < activeDays:
		return ActivityActive
	case *days < inactiveDays:
		return ActivityInactive
	default:
		return ActivityDormant
	}
}

// TrainingStatus classifies days since the last training; nil means none.
func TrainingStatus(days *int) string {
	switch {
	case days == nil:
		return TrainingNoRecord
	case *days < recentTrainingDays:
		return TrainingRecent
	case *days < dueTrainingDays:
		return TrainingDue
	default:
		return TrainingNeeded
	}
}

func daysBetween(now time.Time, then *time.Time) *int {
	if then == nil {
		return nil
	}
	d := int(math.Floor(now.Sub(*then).Hours() / 24))
	return &d
}

// CollectorSummary reports every registered collector as of now, most
// recent submitter first and collectors without submissions last.
func (t *Tracker) CollectorSummary(ctx context.Context, now time.Time) ([]CollectorSummary, error) {
	db := t.db.WithContext(ctx)

	var collectors []Collector
	if err := db.Order("collector_name").Find(&collectors).Error; err != nil {
		return nil, trackerError(err, "list_collectors")
	}
	var trainings []TrainingRecord
	if err := db.Order("training_date").Find(&trainings).Error; err != nil {
		return nil, trackerError(err, "list_training")
	}
	var logs []SubmissionLog
	if err := db.Find(&logs).Error; err != nil {
		return nil, trackerError(err, "list_submission_logs")
	}

	lastTraining := make(map[uint]TrainingRecord)
	for _, tr := range trainings {
		if prev, ok := lastTraining[tr.CollectorID]; !ok || !tr.TrainingDate.Before(prev.TrainingDate) {
			lastTraining[tr.CollectorID] = tr
		}
	}

	type activity struct {
		last      *time.Time
		days      map[time.Time]struct{}
		houses    int
		specimens int
	}
	byName := make(map[string]*activity)
	for _, l := range logs {
		a := byName[l.CollectorName]
		if a == nil {
			a = &activity{days: make(map[time.Time]struct{})}
			byName[l.CollectorName] = a
		}
		d := dateOf(l.SubmissionDate)
		if a.last == nil || d.After(*a.last) {
			a.last = &d
		}
		a.days[d] = struct{}{}
		a.houses += l.NumHouses
		a.specimens += l.NumSpecimens
	}

	out := make([]CollectorSummary, 0, len(collectors))
	for _, c := range collectors {
		s := CollectorSummary{
			CollectorName:  c.CollectorName,
			District:       c.District,
			Site:           c.Site,
			Role:           c.Role,
			Status:         c.Status,
			DateRegistered: c.DateRegistered,
		}
		if tr, ok := lastTraining[c.CollectorID]; ok {
			d := tr.TrainingDate
			s.LastTrainingDate = &d
			s.LastTrainingType = tr.TrainingType
		}
		if a := byName[c.CollectorName]; a != nil {
			s.LastSubmissionDate = a.last
			s.SubmissionDays = len(a.days)
			s.TotalHouses = a.houses
			s.TotalSpecimens = a.specimens
		}
		s.DaysSinceSubmission = daysBetween(now, s.LastSubmissionDate)
		s.DaysSinceTraining = daysBetween(now, s.LastTrainingDate)
		s.ActivityStatus = ActivityStatus(s.DaysSinceSubmission)
		s.TrainingStatus = TrainingStatus(s.DaysSinceTraining)
		out = append(out, s)
	}

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i].LastSubmissionDate, out[j].LastSubmissionDate
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return a.After(*b)
		}
	})
	return out, nil
}

// CollectorsNeedingAttention filters CollectorSummary to collectors that
// need follow-up.
func (t *Tracker) CollectorsNeedingAttention(ctx context.Context, now time.Time) ([]CollectorSummary, error) {
	all, err := t.CollectorSummary(ctx, now)
	if err != nil {
		return nil, err
	}
	var out []CollectorSummary
	for _, s := range all {
		if s.NeedsAttention() {
			out = append(out, s)
		}
	}
	return out, nil
}

// DailySubmission aggregates the submission logs of one day.
type DailySubmission struct {
	Date        time.Time
	Collectors  int
	Submissions int
	Houses      int
	Specimens   int
}

// DailySubmissionSummary aggregates submission logs per day between from
// and to inclusive. Nil bounds are open.
func (t *Tracker) DailySubmissionSummary(ctx context.Context, from, to *time.Time) ([]DailySubmission, error) {
	q := t.db.WithContext(ctx).Model(&SubmissionLog{})
	if from != nil {
		q = q.Where("submission_date >= ?", dateOf(*from))
	}
	if to != nil {
		q = q.Where("submission_date <= ?", dateOf(*to))
	}
	var logs []SubmissionLog
	if err := q.Order("submission_date").Find(&logs).Error; err != nil {
		return nil, trackerError(err, "daily_submission_summary")
	}

	var out []DailySubmission
	collectors := make(map[string]struct{})
	for _, l := range logs {
		d := dateOf(l.SubmissionDate)
		if len(out) == 0 || !out[len(out)-1].Date.Equal(d) {
			out = append(out, DailySubmission{Date: d})
			clear(collectors)
		}
		day := &out[len(out)-1]
		if _, ok := collectors[l.CollectorName]; !ok {
			collectors[l.CollectorName] = struct{}{}
			day.Collectors++
		}
		day.Submissions++
		day.Houses += l.NumHouses
		day.Specimens += l.NumSpecimens
	}
	return out, nil
}
