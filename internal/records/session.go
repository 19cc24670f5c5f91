package records

import "time"

// FillUnknown is the default written into missing categorical cells.
const FillUnknown = "Unknown"

// Session is one household or site visit. Pointer fields are nullable; an
// empty string is a null text value.
type Session struct {
	ID                 *int64
	SessionID          *int64
	SessionFrontendID  string
	SessionHouseNumber string
	SessionType        string

	SessionCollectorTitle string
	SessionCollectorName  string

	SessionCollectionDate    *time.Time
	SessionCollectionMethod  string
	SessionSpecimenCondition string
	SessionCreatedAt         *time.Time
	SessionCompletedAt       *time.Time
	SessionSubmittedAt       *time.Time
	SessionUpdatedAt         *time.Time
	SessionNotes             string

	NumPeopleSleptInHouse   *float64
	WasIrsConducted         string
	MonthsSinceIrs          *float64
	NumLlinsAvailable       *float64
	LlinType                string
	LlinBrand               string
	NumPeopleSleptUnderLlin *float64

	SiteID           *int64
	SiteDistrict     string
	SiteSubCounty    string
	SiteParish       string
	SiteSentinelSite string
	SiteHealthCenter string
	SiteVillageName  string

	ProgramID      *int64
	ProgramName    string
	ProgramCountry string

	CreatedAt *time.Time
	UpdatedAt *time.Time

	// Derived by the cleaner
	CollectionYear      *int64
	CollectionMonth     *int64
	CollectionYearMonth string
	CollectionQuarter   *int64
	LlinUsageRate       float64
	DataQualityFlag     string

	// Extra holds cells of unrecognised columns, keyed by header name.
	Extra map[string]string
}

// SessionSchema lists every recognised surveillance column with its kind
// and fill default.
var SessionSchema = newSchema(
	func(s *Session) *map[string]string { return &s.Extra },

	intCol("ID", func(s *Session) **int64 { return &s.ID }),
	intCol("SessionID", func(s *Session) **int64 { return &s.SessionID }),
	stringCol("SessionFrontendID", "", func(s *Session) *string { return &s.SessionFrontendID }),
	stringCol("SessionHouseNumber", "", func(s *Session) *string { return &s.SessionHouseNumber }),
	stringCol("SessionType", "", func(s *Session) *string { return &s.SessionType }),

	stringCol("SessionCollectorTitle", "", func(s *Session) *string { return &s.SessionCollectorTitle }),
	stringCol("SessionCollectorName", "", func(s *Session) *string { return &s.SessionCollectorName }),

	timeCol("SessionCollectionDate", func(s *Session) **time.Time { return &s.SessionCollectionDate }),
	stringCol("SessionCollectionMethod", FillUnknown, func(s *Session) *string { return &s.SessionCollectionMethod }),
	stringCol("SessionSpecimenCondition", FillUnknown, func(s *Session) *string { return &s.SessionSpecimenCondition }),
	timeCol("SessionCreatedAt", func(s *Session) **time.Time { return &s.SessionCreatedAt }),
	timeCol("SessionCompletedAt", func(s *Session) **time.Time { return &s.SessionCompletedAt }),
	timeCol("SessionSubmittedAt", func(s *Session) **time.Time { return &s.SessionSubmittedAt }),
	timeCol("SessionUpdatedAt", func(s *Session) **time.Time { return &s.SessionUpdatedAt }),
	stringCol("SessionNotes", "", func(s *Session) *string { return &s.SessionNotes }),

	floatCol("NumPeopleSleptInHouse", func(s *Session) **float64 { return &s.NumPeopleSleptInHouse }),
	stringCol("WasIrsConducted", FillUnknown, func(s *Session) *string { return &s.WasIrsConducted }),
	floatCol("MonthsSinceIrs", func(s *Session) **float64 { return &s.MonthsSinceIrs }),
	floatCol("NumLlinsAvailable", func(s *Session) **float64 { return &s.NumLlinsAvailable }),
	stringCol("LlinType", FillUnknown, func(s *Session) *string { return &s.LlinType }),
	stringCol("LlinBrand", FillUnknown, func(s *Session) *string { return &s.LlinBrand }),
	floatCol("NumPeopleSleptUnderLlin", func(s *Session) **float64 { return &s.NumPeopleSleptUnderLlin }),

	intCol("SiteID", func(s *Session) **int64 { return &s.SiteID }),
	stringCol("SiteDistrict", FillUnknown, func(s *Session) *string { return &s.SiteDistrict }),
	stringCol("SiteSubCounty", "", func(s *Session) *string { return &s.SiteSubCounty }),
	stringCol("SiteParish", "", func(s *Session) *string { return &s.SiteParish }),
	stringCol("SiteSentinelSite", "", func(s *Session) *string { return &s.SiteSentinelSite }),
	stringCol("SiteHealthCenter", "", func(s *Session) *string { return &s.SiteHealthCenter }),
	stringCol("SiteVillageName", "", func(s *Session) *string { return &s.SiteVillageName }),

	intCol("ProgramID", func(s *Session) **int64 { return &s.ProgramID }),
	stringCol("ProgramName", "", func(s *Session) *string { return &s.ProgramName }),
	stringCol("ProgramCountry", FillUnknown, func(s *Session) *string { return &s.ProgramCountry }),

	timeCol("CreatedAt", func(s *Session) **time.Time { return &s.CreatedAt }),
	timeCol("UpdatedAt", func(s *Session) **time.Time { return &s.UpdatedAt }),

	derived(intCol("CollectionYear", func(s *Session) **int64 { return &s.CollectionYear })),
	derived(intCol("CollectionMonth", func(s *Session) **int64 { return &s.CollectionMonth })),
	derived(stringCol("CollectionYearMonth", "", func(s *Session) *string { return &s.CollectionYearMonth })),
	derived(intCol("CollectionQuarter", func(s *Session) **int64 { return &s.CollectionQuarter })),
	derivedValueFloat("LlinUsageRate", func(s *Session) *float64 { return &s.LlinUsageRate }),
	derived(stringCol("DataQualityFlag", "", func(s *Session) *string { return &s.DataQualityFlag })),
)

// SessionTable is a cleaned surveillance table.
type SessionTable = Table[Session]

// NewSessionTable returns an empty session table whose source header is header.
func NewSessionTable(header []string) *SessionTable {
	return NewTable(SessionSchema, header)
}
