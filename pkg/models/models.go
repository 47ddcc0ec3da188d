// Package models holds the relational tables records are written to. Column
// names follow records.Schemas; tables are named singular.
package models

import (
	"time"

	"github.com/travigo/populate/pkg/records"
)

type Position struct {
	Easting   *int
	Northing  *int
	Latitude  *float64
	Longitude *float64
}

type Region struct {
	Code     string `gorm:"primaryKey"`
	Name     string
	Modified *time.Time
}

type AdminArea struct {
	Code      string `gorm:"primaryKey"`
	Name      string
	ShortName *string
	AtcoCode  string
	RegionRef *string `gorm:"index"`
	Modified  *time.Time
}

type District struct {
	Code         string `gorm:"primaryKey"`
	Name         string
	AdminAreaRef *string `gorm:"index"`
	Modified     *time.Time
}

type Locality struct {
	Code         string `gorm:"primaryKey"`
	Name         string
	ParentRef    *string `gorm:"index"`
	AdminAreaRef *string `gorm:"index"`
	DistrictRef  *string `gorm:"index"`
	Position     `gorm:"embedded"`
	Modified     *time.Time
}

type StopArea struct {
	Code         string `gorm:"primaryKey"`
	Name         string
	StopAreaType string
	AdminAreaRef *string `gorm:"index"`
	LocalityRef  *string `gorm:"index"`
	Active       bool
	Position     `gorm:"embedded"`
	Modified     *time.Time
}

type StopPoint struct {
	AtcoCode     string `gorm:"primaryKey"`
	NaptanCode   *string
	Name         string
	ShortName    *string
	Landmark     *string
	Street       *string
	Crossing     *string
	Indicator    *string
	ShortInd     *string
	StopType     string
	Bearing      *string
	Active       bool
	LocalityRef  *string `gorm:"index"`
	AdminAreaRef *string `gorm:"index"`
	StopAreaRef  *string `gorm:"index"`
	Position     `gorm:"embedded"`
	Modified     *time.Time
}

type Operator struct {
	Code        string `gorm:"primaryKey"`
	Name        string
	LicenceName *string
	Mode        *string
	Website     *string
	Email       *string
	Phone       *string
	Address     *string
	Twitter     *string
}

type LocalOperator struct {
	RegionRef   string `gorm:"primaryKey"`
	Code        string `gorm:"primaryKey"`
	OperatorRef string `gorm:"index"`
	Name        *string
}

// Organisation is a serviced organisation such as a school, local to a
// region.
type Organisation struct {
	RegionRef string `gorm:"primaryKey"`
	Code      string `gorm:"primaryKey"`
	Name      *string
}

type OrganisationPeriod struct {
	RegionRef string    `gorm:"primaryKey"`
	OrgRef    string    `gorm:"primaryKey"`
	StartDate time.Time `gorm:"primaryKey"`
	EndDate   time.Time `gorm:"primaryKey"`
	Working   bool      `gorm:"primaryKey"`
}

type OrganisationExcludedDate struct {
	RegionRef string    `gorm:"primaryKey"`
	OrgRef    string    `gorm:"primaryKey"`
	Date      time.Time `gorm:"primaryKey"`
	Working   bool      `gorm:"primaryKey"`
}

type Service struct {
	Code             string `gorm:"primaryKey"`
	Line             *string
	Description      *string
	Mode             string
	RegionRef        *string `gorm:"index"`
	LocalOperatorRef *string
	StartDate        *time.Time
	EndDate          *time.Time
	Filename         *string
	Modified         *time.Time
}

type JourneyPattern struct {
	ID          string  `gorm:"primaryKey"`
	ServiceRef  *string `gorm:"index"`
	Origin      *string
	Destination *string

	// Direction is true when the pattern runs against its service.
	Direction bool
	StartDate *time.Time
	EndDate   *time.Time
}

type JourneyLink struct {
	ID             string  `gorm:"primaryKey"`
	PatternRef     *string `gorm:"index"`
	StartRef       *string
	EndRef         *string
	RunTime        int
	WaitStart      int
	WaitEnd        int
	TimingPoint    bool
	PrincipalPoint bool
	StoppingStart  bool
	StoppingEnd    bool
	Sequence       int
}

type Journey struct {
	ID          string `gorm:"primaryKey"`
	Code        string
	PrivateCode *string
	PatternRef  *string `gorm:"index"`
	StartRun    *string
	EndRun      *string
	Departure   string
	Destination *string
	Days        int
	Weeks       *int
}

type BankHoliday struct {
	Name string `gorm:"primaryKey"`
}

type JourneyOrganisation struct {
	JourneyRef  string `gorm:"primaryKey"`
	RegionRef   string `gorm:"primaryKey"`
	OrgRef      string `gorm:"primaryKey"`
	Operational bool   `gorm:"primaryKey"`
	Working     bool   `gorm:"primaryKey"`
}

type JourneySpecialPeriod struct {
	JourneyRef  string    `gorm:"primaryKey"`
	DateStart   time.Time `gorm:"primaryKey"`
	DateEnd     time.Time `gorm:"primaryKey"`
	Operational bool      `gorm:"primaryKey"`
}

type JourneyBankHoliday struct {
	JourneyRef  string `gorm:"primaryKey"`
	HolidayRef  string `gorm:"primaryKey"`
	Operational bool   `gorm:"primaryKey"`
}

var constructors = map[records.Type]func() interface{}{
	records.TypeRegion:                   func() interface{} { return &Region{} },
	records.TypeAdminArea:                func() interface{} { return &AdminArea{} },
	records.TypeDistrict:                 func() interface{} { return &District{} },
	records.TypeLocality:                 func() interface{} { return &Locality{} },
	records.TypeStopArea:                 func() interface{} { return &StopArea{} },
	records.TypeStopPoint:                func() interface{} { return &StopPoint{} },
	records.TypeOperator:                 func() interface{} { return &Operator{} },
	records.TypeLocalOperator:            func() interface{} { return &LocalOperator{} },
	records.TypeOrganisation:             func() interface{} { return &Organisation{} },
	records.TypeOrganisationPeriod:       func() interface{} { return &OrganisationPeriod{} },
	records.TypeOrganisationExcludedDate: func() interface{} { return &OrganisationExcludedDate{} },
	records.TypeService:                  func() interface{} { return &Service{} },
	records.TypeJourneyPattern:           func() interface{} { return &JourneyPattern{} },
	records.TypeJourneyLink:              func() interface{} { return &JourneyLink{} },
	records.TypeJourney:                  func() interface{} { return &Journey{} },
	records.TypeBankHoliday:              func() interface{} { return &BankHoliday{} },
	records.TypeJourneyOrganisation:      func() interface{} { return &JourneyOrganisation{} },
	records.TypeJourneySpecialPeriod:     func() interface{} { return &JourneySpecialPeriod{} },
	records.TypeJourneyBankHoliday:       func() interface{} { return &JourneyBankHoliday{} },
}

// New returns a pointer to an empty model for the record type, or nil when
// the type has no table.
func New(recordType records.Type) interface{} {
	constructor, exists := constructors[recordType]
	if !exists {
		return nil
	}

	return constructor()
}

// All returns one model per table in load order.
func All() []interface{} {
	var all []interface{}
	for _, recordType := range records.Order {
		if model := New(recordType); model != nil {
			all = append(all, model)
		}
	}

	return all
}
