package datastore

import (
	"time"

	"github.com/vectorcam/vectorinsight/internal/records"
)

// Table and view names read by the visualization layer.
const (
	SessionsTableName  = "surveillance_sessions"
	SpecimensTableName = "specimens"
	MetricsTableName   = "monthly_metrics"

	SurveillanceView = "Surveillance"
	SpecimenListView = "SpecimenList"
)

// SurveillanceSession is a cleaned surveillance row. Column names keep the
// upstream CamelCase so existing dashboards can query them unchanged.
type SurveillanceSession struct {
	RowID uint `gorm:"column:RowID;primaryKey;autoIncrement"`

	ID                 *int64 `gorm:"column:ID"`
	SessionID          *int64 `gorm:"column:SessionID;index:idx_sessions_session"`
	SessionFrontendID  string `gorm:"column:SessionFrontendID;size:128"`
	SessionHouseNumber string `gorm:"column:SessionHouseNumber;size:128"`
	SessionType        string `gorm:"column:SessionType;size:64"`

	SessionCollectorTitle string `gorm:"column:SessionCollectorTitle;size:128"`
	SessionCollectorName  string `gorm:"column:SessionCollectorName;size:255"`

	SessionCollectionDate    *time.Time `gorm:"column:SessionCollectionDate;index:idx_sessions_date"`
	SessionCollectionMethod  string     `gorm:"column:SessionCollectionMethod;size:64;index:idx_sessions_method"`
	SessionSpecimenCondition string     `gorm:"column:SessionSpecimenCondition;size:128"`
	SessionCreatedAt         *time.Time `gorm:"column:SessionCreatedAt"`
	SessionCompletedAt       *time.Time `gorm:"column:SessionCompletedAt"`
	SessionSubmittedAt       *time.Time `gorm:"column:SessionSubmittedAt"`
	SessionUpdatedAt         *time.Time `gorm:"column:SessionUpdatedAt"`
	SessionNotes             string     `gorm:"column:SessionNotes;type:text"`

	NumPeopleSleptInHouse   *float64 `gorm:"column:NumPeopleSleptInHouse"`
	WasIrsConducted         string   `gorm:"column:WasIrsConducted;size:64"`
	MonthsSinceIrs          *float64 `gorm:"column:MonthsSinceIrs"`
	NumLlinsAvailable       *float64 `gorm:"column:NumLlinsAvailable"`
	LlinType                string   `gorm:"column:LlinType;size:128"`
	LlinBrand               string   `gorm:"column:LlinBrand;size:128"`
	NumPeopleSleptUnderLlin *float64 `gorm:"column:NumPeopleSleptUnderLlin"`

	SiteID           *int64 `gorm:"column:SiteID"`
	SiteDistrict     string `gorm:"column:SiteDistrict;size:128"`
	SiteSubCounty    string `gorm:"column:SiteSubCounty;size:128"`
	SiteParish       string `gorm:"column:SiteParish;size:128"`
	SiteSentinelSite string `gorm:"column:SiteSentinelSite;size:128"`
	SiteHealthCenter string `gorm:"column:SiteHealthCenter;size:128"`
	SiteVillageName  string `gorm:"column:SiteVillageName;size:128"`

	ProgramID      *int64 `gorm:"column:ProgramID"`
	ProgramName    string `gorm:"column:ProgramName;size:255"`
	ProgramCountry string `gorm:"column:ProgramCountry;size:128"`

	CreatedAt *time.Time `gorm:"column:CreatedAt;autoCreateTime:false"`
	UpdatedAt *time.Time `gorm:"column:UpdatedAt;autoUpdateTime:false"`

	CollectionYear      *int64  `gorm:"column:CollectionYear"`
	CollectionMonth     *int64  `gorm:"column:CollectionMonth"`
	CollectionYearMonth string  `gorm:"column:CollectionYearMonth;size:7"`
	CollectionQuarter   *int64  `gorm:"column:CollectionQuarter"`
	LlinUsageRate       float64 `gorm:"column:LlinUsageRate"`
	DataQualityFlag     string  `gorm:"column:DataQualityFlag;size:64"`
}

// TableName overrides the default table name
func (SurveillanceSession) TableName() string { return SessionsTableName }

// Specimen is a cleaned specimen row, logically linked to its session by SessionID.
type Specimen struct {
	RowID uint `gorm:"column:RowID;primaryKey;autoIncrement"`

	SpecimenID    string `gorm:"column:SpecimenID;size:128"`
	SessionID     *int64 `gorm:"column:SessionID;index:idx_specimens_session"`
	Species       string `gorm:"column:Species;size:128;index:idx_specimens_species"`
	Sex           string `gorm:"column:Sex;size:32"`
	AbdomenStatus string `gorm:"column:AbdomenStatus;size:64"`

	CapturedAt       *time.Time `gorm:"column:CapturedAt"`
	ImageID          *int64     `gorm:"column:ImageID"`
	ImageURL         string     `gorm:"column:ImageUrl;type:text"`
	ImageSubmittedAt *time.Time `gorm:"column:ImageSubmittedAt"`
	ImageUpdatedAt   *time.Time `gorm:"column:ImageUpdatedAt"`

	SessionType             string     `gorm:"column:SessionType;size:64"`
	SessionCollectionMethod string     `gorm:"column:SessionCollectionMethod;size:64"`
	SessionCollectionDate   *time.Time `gorm:"column:SessionCollectionDate"`
	SessionCreatedAt        *time.Time `gorm:"column:SessionCreatedAt"`
	SessionCompletedAt      *time.Time `gorm:"column:SessionCompletedAt"`
	SessionSubmittedAt      *time.Time `gorm:"column:SessionSubmittedAt"`
	SessionUpdatedAt        *time.Time `gorm:"column:SessionUpdatedAt"`

	SiteID         *int64 `gorm:"column:SiteID"`
	SiteDistrict   string `gorm:"column:SiteDistrict;size:128"`
	SiteSubCounty  string `gorm:"column:SiteSubCounty;size:128"`
	ProgramID      *int64 `gorm:"column:ProgramID"`
	ProgramCountry string `gorm:"column:ProgramCountry;size:128"`

	CaptureYear      *int64 `gorm:"column:CaptureYear"`
	CaptureMonth     *int64 `gorm:"column:CaptureMonth"`
	CaptureYearMonth string `gorm:"column:CaptureYearMonth;size:7"`
	CaptureQuarter   *int64 `gorm:"column:CaptureQuarter"`
	SpeciesGroup     string `gorm:"column:SpeciesGroup;size:64"`
	IsFed            bool   `gorm:"column:IsFed"`
	IsUnfed          bool   `gorm:"column:IsUnfed"`
	DataQualityFlag  string `gorm:"column:DataQualityFlag;size:64"`
}

// TableName overrides the default table name
func (Specimen) TableName() string { return SpecimensTableName }

// MonthlyMetric is one persisted metric value. A (YearMonth, MetricName,
// Category) triple identifies a row; writes replace the previous value.
type MonthlyMetric struct {
	ID           uint      `gorm:"column:id;primaryKey;autoIncrement"`
	YearMonth    string    `gorm:"column:year_month;size:7;not null;uniqueIndex:idx_metric_key"`
	MetricName   string    `gorm:"column:metric_name;size:128;not null;uniqueIndex:idx_metric_key"`
	MetricValue  float64   `gorm:"column:metric_value"`
	MetricJSON   string    `gorm:"column:metric_json;type:text"`
	Category     string    `gorm:"column:category;size:64;not null;uniqueIndex:idx_metric_key"`
	CalculatedAt time.Time `gorm:"column:calculated_at;autoCreateTime:false"`
}

// TableName overrides the default table name
func (MonthlyMetric) TableName() string { return MetricsTableName }

func sessionModel(s *records.Session) SurveillanceSession {
	return SurveillanceSession{
		ID:                       s.ID,
		SessionID:                s.SessionID,
		SessionFrontendID:        s.SessionFrontendID,
		SessionHouseNumber:       s.SessionHouseNumber,
		SessionType:              s.SessionType,
		SessionCollectorTitle:    s.SessionCollectorTitle,
		SessionCollectorName:     s.SessionCollectorName,
		SessionCollectionDate:    s.SessionCollectionDate,
		SessionCollectionMethod:  s.SessionCollectionMethod,
		SessionSpecimenCondition: s.SessionSpecimenCondition,
		SessionCreatedAt:         s.SessionCreatedAt,
		SessionCompletedAt:       s.SessionCompletedAt,
		SessionSubmittedAt:       s.SessionSubmittedAt,
		SessionUpdatedAt:         s.SessionUpdatedAt,
		SessionNotes:             s.SessionNotes,
		NumPeopleSleptInHouse:    s.NumPeopleSleptInHouse,
		WasIrsConducted:          s.WasIrsConducted,
		MonthsSinceIrs:           s.MonthsSinceIrs,
		NumLlinsAvailable:        s.NumLlinsAvailable,
		LlinType:                 s.LlinType,
		LlinBrand:                s.LlinBrand,
		NumPeopleSleptUnderLlin:  s.NumPeopleSleptUnderLlin,
		SiteID:                   s.SiteID,
		SiteDistrict:             s.SiteDistrict,
		SiteSubCounty:            s.SiteSubCounty,
		SiteParish:               s.SiteParish,
		SiteSentinelSite:         s.SiteSentinelSite,
		SiteHealthCenter:         s.SiteHealthCenter,
		SiteVillageName:          s.SiteVillageName,
		ProgramID:                s.ProgramID,
		ProgramName:              s.ProgramName,
		ProgramCountry:           s.ProgramCountry,
		CreatedAt:                s.CreatedAt,
		UpdatedAt:                s.UpdatedAt,
		CollectionYear:           s.CollectionYear,
		CollectionMonth:          s.CollectionMonth,
		CollectionYearMonth:      s.CollectionYearMonth,
		CollectionQuarter:        s.CollectionQuarter,
		LlinUsageRate:            s.LlinUsageRate,
		DataQualityFlag:          s.DataQualityFlag,
	}
}

func specimenModel(s *records.Specimen) Specimen {
	return Specimen{
		SpecimenID:              s.SpecimenID,
		SessionID:               s.SessionID,
		Species:                 s.Species,
		Sex:                     s.Sex,
		AbdomenStatus:           s.AbdomenStatus,
		CapturedAt:              s.CapturedAt,
		ImageID:                 s.ImageID,
		ImageURL:                s.ImageURL,
		ImageSubmittedAt:        s.ImageSubmittedAt,
		ImageUpdatedAt:          s.ImageUpdatedAt,
		SessionType:             s.SessionType,
		SessionCollectionMethod: s.SessionCollectionMethod,
		SessionCollectionDate:   s.SessionCollectionDate,
		SessionCreatedAt:        s.SessionCreatedAt,
		SessionCompletedAt:      s.SessionCompletedAt,
		SessionSubmittedAt:      s.SessionSubmittedAt,
		SessionUpdatedAt:        s.SessionUpdatedAt,
		SiteID:                  s.SiteID,
		SiteDistrict:            s.SiteDistrict,
		SiteSubCounty:           s.SiteSubCounty,
		ProgramID:               s.ProgramID,
		ProgramCountry:          s.ProgramCountry,
		CaptureYear:             s.CaptureYear,
		CaptureMonth:            s.CaptureMonth,
		CaptureYearMonth:        s.CaptureYearMonth,
		CaptureQuarter:          s.CaptureQuarter,
		SpeciesGroup:            s.SpeciesGroup,
		IsFed:                   s.IsFed,
		IsUnfed:                 s.IsUnfed,
		DataQualityFlag:         s.DataQualityFlag,
	}
}

func sessionModels(t *records.SessionTable) []SurveillanceSession {
	if t == nil {
		return nil
	}
	out := make([]SurveillanceSession, len(t.Rows))
	for i := range t.Rows {
		out[i] = sessionModel(&t.Rows[i])
	}
	return out
}

func specimenModels(t *records.SpecimenTable) []Specimen {
	if t == nil {
		return nil
	}
	out := make([]Specimen, len(t.Rows))
	for i := range t.Rows {
		out[i] = specimenModel(&t.Rows[i])
	}
	return out
}
