package records

import "time"

// Specimen is one captured individual, linked to its session by SessionID.
type Specimen struct {
	SpecimenID    string
	SessionID     *int64
	Species       string
	Sex           string
	AbdomenStatus string

	CapturedAt       *time.Time
	ImageID          *int64
	ImageURL         string
	ImageSubmittedAt *time.Time
	ImageUpdatedAt   *time.Time

	// Denormalized session copies
	SessionType             string
	SessionCollectionMethod string
	SessionCollectionDate   *time.Time
	SessionCreatedAt        *time.Time
	SessionCompletedAt      *time.Time
	SessionSubmittedAt      *time.Time
	SessionUpdatedAt        *time.Time

	SiteID         *int64
	SiteDistrict   string
	SiteSubCounty  string
	ProgramID      *int64
	ProgramCountry string

	// Derived by the cleaner
	CaptureYear      *int64
	CaptureMonth     *int64
	CaptureYearMonth string
	CaptureQuarter   *int64
	SpeciesGroup     string
	IsFed            bool
	IsUnfed          bool
	DataQualityFlag  string

	Extra map[string]string
}

// SpecimenSchema lists every recognised specimen column.
var SpecimenSchema = newSchema(
	func(s *Specimen) *map[string]string { return &s.Extra },

	stringCol("SpecimenID", "", func(s *Specimen) *string { return &s.SpecimenID }),
	intCol("SessionID", func(s *Specimen) **int64 { return &s.SessionID }),
	stringCol("Species", FillUnknown, func(s *Specimen) *string { return &s.Species }),
	stringCol("Sex", FillUnknown, func(s *Specimen) *string { return &s.Sex }),
	stringCol("AbdomenStatus", FillUnknown, func(s *Specimen) *string { return &s.AbdomenStatus }),

	timeCol("CapturedAt", func(s *Specimen) **time.Time { return &s.CapturedAt }),
	intCol("ImageID", func(s *Specimen) **int64 { return &s.ImageID }),
	stringCol("ImageUrl", "", func(s *Specimen) *string { return &s.ImageURL }),
	timeCol("ImageSubmittedAt", func(s *Specimen) **time.Time { return &s.ImageSubmittedAt }),
	timeCol("ImageUpdatedAt", func(s *Specimen) **time.Time { return &s.ImageUpdatedAt }),

	stringCol("SessionType", "", func(s *Specimen) *string { return &s.SessionType }),
	stringCol("SessionCollectionMethod", FillUnknown, func(s *Specimen) *string { return &s.SessionCollectionMethod }),
	timeCol("SessionCollectionDate", func(s *Specimen) **time.Time { return &s.SessionCollectionDate }),
	timeCol("SessionCreatedAt", func(s *Specimen) **time.Time { return &s.SessionCreatedAt }),
	timeCol("SessionCompletedAt", func(s *Specimen) **time.Time { return &s.SessionCompletedAt }),
	timeCol("SessionSubmittedAt", func(s *Specimen) **time.Time { return &s.SessionSubmittedAt }),
	timeCol("SessionUpdatedAt", func(s *Specimen) **time.Time { return &s.SessionUpdatedAt }),

	intCol("SiteID", func(s *Specimen) **int64 { return &s.SiteID }),
	stringCol("SiteDistrict", FillUnknown, func(s *Specimen) *string { return &s.SiteDistrict }),
	stringCol("SiteSubCounty", "", func(s *Specimen) *string { return &s.SiteSubCounty }),
	intCol("ProgramID", func(s *Specimen) **int64 { return &s.ProgramID }),
	stringCol("ProgramCountry", FillUnknown, func(s *Specimen) *string { return &s.ProgramCountry }),

	derived(intCol("CaptureYear", func(s *Specimen) **int64 { return &s.CaptureYear })),
	derived(intCol("CaptureMonth", func(s *Specimen) **int64 { return &s.CaptureMonth })),
	derived(stringCol("CaptureYearMonth", "", func(s *Specimen) *string { return &s.CaptureYearMonth })),
	derived(intCol("CaptureQuarter", func(s *Specimen) **int64 { return &s.CaptureQuarter })),
	derived(stringCol("SpeciesGroup", "", func(s *Specimen) *string { return &s.SpeciesGroup })),
	derivedBool("IsFed", func(s *Specimen) *bool { return &s.IsFed }),
	derivedBool("IsUnfed", func(s *Specimen) *bool { return &s.IsUnfed }),
	derived(stringCol("DataQualityFlag", "", func(s *Specimen) *string { return &s.DataQualityFlag })),
)

// SpecimenTable is a cleaned specimen table.
type SpecimenTable = Table[Specimen]

// NewSpecimenTable returns an empty specimen table whose source header is header.
func NewSpecimenTable(header []string) *SpecimenTable {
	return NewTable(SpecimenSchema, header)
}
