package fieldteam

import (
	"time"

	"github.com/vectorcam/vectorinsight/internal/datastore"
)

// Defaults applied to new collectors.
const (
	DefaultRole          = "Village Health Team Member"
	DefaultStatus        = "Active"
	DefaultTrainingType  = "Initial Training"
	DefaultCertification = "Certified"
)

// Collector is a registered field collector.
type Collector struct {
	CollectorID    uint      `gorm:"column:collector_id;primaryKey;autoIncrement"`
	CollectorName  string    `gorm:"column:collector_name;size:255;not null;uniqueIndex:idx_collector_name"`
	District       string    `gorm:"column:district;size:128"`
	Site           string    `gorm:"column:site;size:255"`
	Role           string    `gorm:"column:role;size:128;default:Village Health Team Member"`
	PhoneNumber    string    `gorm:"column:phone_number;size:64"`
	Email          string    `gorm:"column:email;size:255"`
	DateRegistered time.Time `gorm:"column:date_registered"`
	Status         string    `gorm:"column:status;size:32;default:Active"`
	Notes          string    `gorm:"column:notes;type:text"`
}

// TableName overrides the default table name
func (Collector) TableName() string { return "field_collectors" }

// TrainingRecord is one training event attended by a collector.
type TrainingRecord struct {
	TrainingID          uint      `gorm:"column:training_id;primaryKey;autoIncrement"`
	CollectorID         uint      `gorm:"column:collector_id;not null;index"`
	Collector           Collector `gorm:"foreignKey:CollectorID;references:CollectorID"`
	TrainingDate        time.Time `gorm:"column:training_date;not null"`
	TrainingType        string    `gorm:"column:training_type;size:128"`
	TrainerName         string    `gorm:"column:trainer_name;size:255"`
	TopicsCovered       string    `gorm:"column:topics_covered;type:text"`
	AssessmentScore     *float64  `gorm:"column:assessment_score"`
	CertificationStatus string    `gorm:"column:certification_status;size:64"`
	Notes               string    `gorm:"column:notes;type:text"`
}

// TableName overrides the default table name
func (TrainingRecord) TableName() string { return "training_records" }

// SubmissionLog aggregates one collector's sessions for one day, site and
// collection method.
type SubmissionLog struct {
	LogID            uint      `gorm:"column:log_id;primaryKey;autoIncrement"`
	CollectorName    string    `gorm:"column:collector_name;size:255;not null;index"`
	SubmissionDate   time.Time `gorm:"column:submission_date;not null;index"`
	District         string    `gorm:"column:district;size:128"`
	Site             string    `gorm:"column:site;size:255"`
	CollectionMethod string    `gorm:"column:collection_method;size:64"`
	NumHouses        int       `gorm:"column:num_houses;default:0"`
	NumSpecimens     int       `gorm:"column:num_specimens;default:0"`
	DataQualityScore *float64  `gorm:"column:data_quality_score"`
	Notes            string    `gorm:"column:notes;type:text"`
}

// TableName overrides the default table name
func (SubmissionLog) TableName() string { return "submission_logs" }

// Tables returns the field team tables, parents first.
func Tables() []datastore.Table {
	return []datastore.Table{
		datastore.TableOf[Collector]("field_collectors"),
		datastore.TableOf[TrainingRecord]("training_records"),
		datastore.TableOf[SubmissionLog]("submission_logs"),
	}
}
