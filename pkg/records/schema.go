package records

const (
	TypeRegion                   Type = "Region"
	TypeAdminArea                Type = "AdminArea"
	TypeDistrict                 Type = "District"
	TypeLocality                 Type = "Locality"
	TypeStopArea                 Type = "StopArea"
	TypeStopPoint                Type = "StopPoint"
	TypeOperator                 Type = "Operator"
	TypeLocalOperator            Type = "LocalOperator"
	TypeOrganisation             Type = "Organisation"
	TypeOrganisationPeriod       Type = "OrganisationPeriod"
	TypeOrganisationExcludedDate Type = "OrganisationExcludedDate"
	TypeService                  Type = "Service"
	TypeJourneyPattern           Type = "JourneyPattern"
	TypeJourneyLink              Type = "JourneyLink"
	TypeJourney                  Type = "Journey"
	TypeBankHoliday              Type = "BankHoliday"
	TypeJourneyOrganisation      Type = "JourneyOrganisation"
	TypeJourneySpecialPeriod     Type = "JourneySpecialPeriod"
	TypeJourneyBankHoliday       Type = "JourneyBankHoliday"
)

// Order is the referential dependency order records are validated and
// written in.
var Order = []Type{
	TypeRegion,
	TypeAdminArea,
	TypeDistrict,
	TypeLocality,
	TypeStopArea,
	TypeStopPoint,
	TypeOperator,
	TypeLocalOperator,
	TypeOrganisation,
	TypeOrganisationPeriod,
	TypeOrganisationExcludedDate,
	TypeService,
	TypeJourneyPattern,
	TypeJourneyLink,
	TypeJourney,
	TypeBankHoliday,
	TypeJourneyOrganisation,
	TypeJourneySpecialPeriod,
	TypeJourneyBankHoliday,
}

// Reference describes a *_ref column (or column group) pointing at another
// record type's key.
type Reference struct {
	Columns []string
	Target  Type

	// Required references drop the owning record when they cannot be
	// resolved instead of being nulled.
	Required bool

	// Clear lists the columns nulled when the reference is unresolved.
	// Defaults to Columns.
	Clear []string
}

func (r Reference) ClearColumns() []string {
	if len(r.Clear) > 0 {
		return r.Clear
	}

	return r.Columns
}

type Schema struct {
	Type    Type
	Table   string
	Key     []string
	Columns []string
	Refs    []Reference
}

// UpdateColumns are the non-key columns overwritten on upsert.
func (s Schema) UpdateColumns() []string {
	var columns []string
	for _, column := range s.Columns {
		isKey := false
		for _, key := range s.Key {
			if key == column {
				isKey = true
				break
			}
		}

		if !isKey {
			columns = append(columns, column)
		}
	}

	return columns
}

// Normalise returns a copy of the record holding exactly the schema columns,
// with missing columns set to nil.
func (s Schema) Normalise(record Record) Record {
	normalised := make(Record, len(s.Columns))
	for _, column := range s.Columns {
		normalised[column] = record[column]
	}

	return normalised
}

var Schemas = map[Type]Schema{}

func register(schema Schema) {
	Schemas[schema.Type] = schema
}

func init() {
	register(Schema{
		Type:    TypeRegion,
		Table:   "region",
		Key:     []string{"code"},
		Columns: []string{"code", "name", "modified"},
	})
	register(Schema{
		Type:    TypeAdminArea,
		Table:   "admin_area",
		Key:     []string{"code"},
		Columns: []string{"code", "name", "short_name", "atco_code", "region_ref", "modified"},
		Refs: []Reference{
			{Columns: []string{"region_ref"}, Target: TypeRegion},
		},
	})
	register(Schema{
		Type:    TypeDistrict,
		Table:   "district",
		Key:     []string{"code"},
		Columns: []string{"code", "name", "admin_area_ref", "modified"},
		Refs: []Reference{
			{Columns: []string{"admin_area_ref"}, Target: TypeAdminArea},
		},
	})
	register(Schema{
		Type:  TypeLocality,
		Table: "locality",
		Key:   []string{"code"},
		Columns: []string{
			"code", "name", "parent_ref", "admin_area_ref", "district_ref",
			"easting", "northing", "latitude", "longitude", "modified",
		},
		Refs: []Reference{
			{Columns: []string{"parent_ref"}, Target: TypeLocality},
			{Columns: []string{"admin_area_ref"}, Target: TypeAdminArea},
			{Columns: []string{"district_ref"}, Target: TypeDistrict},
		},
	})
	register(Schema{
		Type:  TypeStopArea,
		Table: "stop_area",
		Key:   []string{"code"},
		Columns: []string{
			"code", "name", "stop_area_type", "admin_area_ref", "locality_ref", "active",
			"easting", "northing", "latitude", "longitude", "modified",
		},
		Refs: []Reference{
			{Columns: []string{"admin_area_ref"}, Target: TypeAdminArea},
			{Columns: []string{"locality_ref"}, Target: TypeLocality},
		},
	})
	register(Schema{
		Type:  TypeStopPoint,
		Table: "stop_point",
		Key:   []string{"atco_code"},
		Columns: []string{
			"atco_code", "naptan_code", "name", "short_name", "landmark", "street", "crossing",
			"indicator", "short_ind", "stop_type", "bearing", "active",
			"locality_ref", "admin_area_ref", "stop_area_ref",
			"easting", "northing", "latitude", "longitude", "modified",
		},
		Refs: []Reference{
			{Columns: []string{"locality_ref"}, Target: TypeLocality},
			{Columns: []string{"admin_area_ref"}, Target: TypeAdminArea, Required: true},
			{Columns: []string{"stop_area_ref"}, Target: TypeStopArea},
		},
	})
	register(Schema{
		Type:    TypeOperator,
		Table:   "operator",
		Key:     []string{"code"},
		Columns: []string{"code", "name", "licence_name", "mode", "website", "email", "phone", "address", "twitter"},
	})
	register(Schema{
		Type:    TypeLocalOperator,
		Table:   "local_operator",
		Key:     []string{"region_ref", "code"},
		Columns: []string{"region_ref", "code", "operator_ref", "name"},
		Refs: []Reference{
			{Columns: []string{"region_ref"}, Target: TypeRegion, Required: true},
			{Columns: []string{"operator_ref"}, Target: TypeOperator, Required: true},
		},
	})
	register(Schema{
		Type:    TypeOrganisation,
		Table:   "organisation",
		Key:     []string{"region_ref", "code"},
		Columns: []string{"region_ref", "code", "name"},
		Refs: []Reference{
			{Columns: []string{"region_ref"}, Target: TypeRegion, Required: true},
		},
	})
	register(Schema{
		Type:    TypeOrganisationPeriod,
		Table:   "organisation_period",
		Key:     []string{"region_ref", "org_ref", "start_date", "end_date", "working"},
		Columns: []string{"region_ref", "org_ref", "start_date", "end_date", "working"},
		Refs: []Reference{
			{Columns: []string{"region_ref", "org_ref"}, Target: TypeOrganisation, Required: true},
		},
	})
	register(Schema{
		Type:    TypeOrganisationExcludedDate,
		Table:   "organisation_excluded_date",
		Key:     []string{"region_ref", "org_ref", "date", "working"},
		Columns: []string{"region_ref", "org_ref", "date", "working"},
		Refs: []Reference{
			{Columns: []string{"region_ref", "org_ref"}, Target: TypeOrganisation, Required: true},
		},
	})
	register(Schema{
		Type:  TypeService,
		Table: "service",
		Key:   []string{"code"},
		Columns: []string{
			"code", "line", "description", "mode", "region_ref", "local_operator_ref",
			"start_date", "end_date", "filename", "modified",
		},
		Refs: []Reference{
			{Columns: []string{"region_ref"}, Target: TypeRegion},
			{Columns: []string{"region_ref", "local_operator_ref"}, Target: TypeLocalOperator, Clear: []string{"local_operator_ref"}},
		},
	})
	register(Schema{
		Type:  TypeJourneyPattern,
		Table: "journey_pattern",
		Key:   []string{"id"},
		Columns: []string{
			"id", "service_ref", "origin", "destination", "direction", "start_date", "end_date",
		},
		Refs: []Reference{
			{Columns: []string{"service_ref"}, Target: TypeService},
		},
	})
	register(Schema{
		Type:  TypeJourneyLink,
		Table: "journey_link",
		Key:   []string{"id"},
		Columns: []string{
			"id", "pattern_ref", "start_ref", "end_ref", "run_time", "wait_start", "wait_end",
			"timing_point", "principal_point", "stopping_start", "stopping_end", "sequence",
		},
		Refs: []Reference{
			{Columns: []string{"pattern_ref"}, Target: TypeJourneyPattern},
			{Columns: []string{"start_ref"}, Target: TypeStopPoint},
			{Columns: []string{"end_ref"}, Target: TypeStopPoint},
		},
	})
	register(Schema{
		Type:  TypeJourney,
		Table: "journey",
		Key:   []string{"id"},
		Columns: []string{
			"id", "code", "private_code", "pattern_ref", "start_run", "end_run",
			"departure", "destination", "days", "weeks",
		},
		Refs: []Reference{
			{Columns: []string{"pattern_ref"}, Target: TypeJourneyPattern},
			{Columns: []string{"start_run"}, Target: TypeJourneyLink},
			{Columns: []string{"end_run"}, Target: TypeJourneyLink},
		},
	})
	register(Schema{
		Type:    TypeBankHoliday,
		Table:   "bank_holiday",
		Key:     []string{"name"},
		Columns: []string{"name"},
	})
	register(Schema{
		Type:    TypeJourneyOrganisation,
		Table:   "journey_organisation",
		Key:     []string{"journey_ref", "region_ref", "org_ref", "operational", "working"},
		Columns: []string{"journey_ref", "region_ref", "org_ref", "operational", "working"},
		Refs: []Reference{
			{Columns: []string{"journey_ref"}, Target: TypeJourney, Required: true},
			{Columns: []string{"region_ref", "org_ref"}, Target: TypeOrganisation, Required: true},
		},
	})
	register(Schema{
		Type:    TypeJourneySpecialPeriod,
		Table:   "journey_special_period",
		Key:     []string{"journey_ref", "date_start", "date_end", "operational"},
		Columns: []string{"journey_ref", "date_start", "date_end", "operational"},
		Refs: []Reference{
			{Columns: []string{"journey_ref"}, Target: TypeJourney, Required: true},
		},
	})
	register(Schema{
		Type:    TypeJourneyBankHoliday,
		Table:   "journey_bank_holiday",
		Key:     []string{"journey_ref", "holiday_ref", "operational"},
		Columns: []string{"journey_ref", "holiday_ref", "operational"},
		Refs: []Reference{
			{Columns: []string{"journey_ref"}, Target: TypeJourney, Required: true},
			{Columns: []string{"holiday_ref"}, Target: TypeBankHoliday, Required: true},
		},
	})
}
