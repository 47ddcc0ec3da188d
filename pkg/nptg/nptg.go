// Package nptg maps the National Public Transport Gazetteer onto regions,
// administrative areas, districts and localities.
package nptg

import (
	"github.com/travigo/populate/pkg/engine"
	"github.com/travigo/populate/pkg/fields"
	"github.com/travigo/populate/pkg/records"
)

// ReservedAtcoAreaCodes are national, non-geographic areas (coach, rail,
// air and ferry) that have no place in the area hierarchy.
var ReservedAtcoAreaCodes = []string{"900", "910", "920", "930"}

// NoDistrict is the district code the gazetteer uses for localities that
// belong to no district.
const NoDistrict = "310"

func district(code string) string {
	if code == NoDistrict {
		return ""
	}

	return code
}

func modified() engine.Extractor {
	return engine.Time(engine.Attr("ModificationDateTime"), fields.DateTime)
}

var Definition = &engine.Definition{
	Name: "NPTG",
	Rules: []engine.Rule{
		{
			Type:   records.TypeRegion,
			Select: engine.Path("//Regions/Region"),
			Fields: []engine.Field{
				{Column: "code", Extract: engine.Map(engine.Text("RegionCode"), fields.Upper), Required: true},
				{Column: "name", Extract: engine.Map(engine.Text("Name"), fields.Capitalise), Required: true},
				{Column: "modified", Extract: modified()},
			},
		},
		{
			Type:   records.TypeAdminArea,
			Select: engine.Path("//AdministrativeAreas/AdministrativeArea"),
			Filter: engine.Not(engine.In(engine.Text("AtcoAreaCode"), ReservedAtcoAreaCodes...)),
			Fields: []engine.Field{
				{Column: "code", Extract: engine.Text("AdministrativeAreaCode"), Required: true},
				{Column: "name", Extract: engine.Map(engine.Text("Name"), fields.Capitalise), Required: true},
				{Column: "short_name", Extract: engine.Map(engine.Text("ShortName"), fields.Capitalise)},
				{Column: "atco_code", Extract: engine.Text("AtcoAreaCode")},
				{Column: "region_ref", Extract: engine.Map(engine.Text("ancestor::Region/RegionCode"), fields.Upper)},
				{Column: "modified", Extract: modified()},
			},
		},
		{
			Type:   records.TypeDistrict,
			Select: engine.Path("//NptgDistricts/NptgDistrict"),
			Filter: engine.Not(engine.In(engine.Text("NptgDistrictCode"), NoDistrict)),
			Fields: []engine.Field{
				{Column: "code", Extract: engine.Text("NptgDistrictCode"), Required: true},
				{Column: "name", Extract: engine.Map(engine.Text("Name"), fields.Capitalise), Required: true},
				{Column: "admin_area_ref", Extract: engine.Text("ancestor::AdministrativeArea/AdministrativeAreaCode")},
				{Column: "modified", Extract: modified()},
			},
		},
		{
			Type:   records.TypeLocality,
			Select: engine.Path("//NptgLocalities/NptgLocality"),
			Fields: []engine.Field{
				{Column: "code", Extract: engine.Map(engine.Text("NptgLocalityCode"), fields.Upper), Required: true},
				{Column: "name", Extract: engine.Map(engine.Text("Descriptor/LocalityName"), fields.Capitalise), Required: true},
				{Column: "parent_ref", Extract: engine.Map(engine.Text("ParentNptgLocalityRef"), fields.Upper)},
				{Column: "admin_area_ref", Extract: engine.Text("AdministrativeAreaRef")},
				{Column: "district_ref", Extract: engine.Map(engine.Text("NptgDistrictRef"), district)},
				{Column: "modified", Extract: modified()},
			},
			Derive: engine.Coordinates("Location"),
		},
	},
}
