// Package naptan maps NaPTAN stop points and stop areas.
package naptan

import (
	"fmt"
	"strings"

	"github.com/travigo/populate/pkg/engine"
	"github.com/travigo/populate/pkg/fields"
	"github.com/travigo/populate/pkg/records"
)

// StopTypes are the classifications imported; rail, air, ferry and taxi
// points are left out.
var StopTypes = []string{"BCT", "BCS", "BCQ", "BST", "PLT", "TMU", "MET"}

// IncludeInactive is the parameter that keeps inactive and pending records.
const IncludeInactive = "include_inactive"

// stopAreaType corrects the on-street pair code NaPTAN misspells as GBPS.
func stopAreaType(value string) string {
	value = fields.Upper(value)
	if value == "GBPS" {
		return "GPBS"
	}

	return value
}

func validate(c *engine.Context) error {
	schemaVersion := engine.NodeText(c.Root, engine.Path("/*/@SchemaVersion"))
	if !strings.HasPrefix(schemaVersion, "2.") {
		return fmt.Errorf("SchemaVersion must be 2.x but is %q", schemaVersion)
	}

	return nil
}

func active() engine.Predicate {
	return engine.Any(
		engine.In(engine.Attr("Status"), "active"),
		engine.Not(engine.Exists(engine.Attr("Status"))),
		engine.ParamIs(IncludeInactive, "true"),
	)
}

func modified() engine.Extractor {
	return engine.Time(engine.Attr("ModificationDateTime"), fields.DateTime)
}

var Definition = &engine.Definition{
	Name:     "NaPTAN",
	Validate: validate,
	Rules: []engine.Rule{
		{
			Type:   records.TypeStopArea,
			Select: engine.Path("//StopAreas/StopArea"),
			Filter: active(),
			Fields: []engine.Field{
				{Column: "code", Extract: engine.Map(engine.Text("StopAreaCode"), fields.Upper), Required: true},
				{Column: "name", Extract: engine.Map(engine.Text("Name"), fields.Capitalise), Required: true},
				{Column: "stop_area_type", Extract: engine.Map(engine.Text("StopAreaType"), stopAreaType)},
				{Column: "admin_area_ref", Extract: engine.Text("AdministrativeAreaRef")},
				{Column: "active", Extract: engine.Bool(engine.Default(engine.Attr("Status"), "active"), "active")},
				{Column: "modified", Extract: modified()},
			},
			Derive: engine.Coordinates("Location"),
		},
		{
			Type:   records.TypeStopPoint,
			Select: engine.Path("//StopPoints/StopPoint"),
			Filter: engine.All(
				active(),
				engine.In(engine.Text("StopClassification/StopType"), StopTypes...),
			),
			Fields: []engine.Field{
				{Column: "atco_code", Extract: engine.Map(engine.Text("AtcoCode"), fields.Upper), Required: true},
				{Column: "naptan_code", Extract: engine.Map(engine.Text("NaptanCode"), fields.Lower)},
				{Column: "name", Extract: engine.Map(engine.Text("Descriptor/CommonName"), fields.Capitalise), Required: true},
				{Column: "short_name", Extract: engine.Map(engine.Text("Descriptor/ShortCommonName"), fields.Capitalise)},
				{Column: "landmark", Extract: engine.Map(engine.Text("Descriptor/Landmark"), fields.Descriptor)},
				{Column: "street", Extract: engine.Map(engine.Text("Descriptor/Street"), fields.Descriptor)},
				{Column: "crossing", Extract: engine.Map(engine.Text("Descriptor/Crossing"), fields.Descriptor)},
				{Column: "indicator", Extract: engine.Map(engine.Text("Descriptor/Indicator"), fields.Squash)},
				{Column: "short_ind", Extract: engine.Map(engine.Text("Descriptor/Indicator"), fields.ShortIndicator)},
				{Column: "stop_type", Extract: engine.Text("StopClassification/StopType")},
				{Column: "bearing", Extract: engine.Map(engine.Text("StopClassification//CompassPoint"), fields.Upper)},
				{Column: "active", Extract: engine.Bool(engine.Default(engine.Attr("Status"), "active"), "active")},
				{Column: "locality_ref", Extract: engine.Map(engine.Text("Place/NptgLocalityRef"), fields.Upper)},
				{Column: "admin_area_ref", Extract: engine.Text("AdministrativeAreaRef"), Required: true},
				{Column: "stop_area_ref", Extract: engine.Map(engine.Text("StopAreas/StopAreaRef"), fields.Upper)},
				{Column: "modified", Extract: modified()},
			},
			Derive: engine.Coordinates("Place/Location"),
		},
	},
	Finalise: []func(c *engine.Context) error{
		stopAreaLocalities,
	},
}

// stopAreaLocalities sets each stop area's locality to the one most of its
// member stops belong to. Ties go to the lowest locality code.
func stopAreaLocalities(c *engine.Context) error {
	counts := map[string]map[string]int{}

	for _, stopPoint := range c.Document.Get(records.TypeStopPoint) {
		stopArea, locality := stopPoint.String("stop_area_ref"), stopPoint.String("locality_ref")
		if stopArea == "" || locality == "" {
			continue
		}

		if counts[stopArea] == nil {
			counts[stopArea] = map[string]int{}
		}
		counts[stopArea][locality]++
	}

	for _, stopArea := range c.Document.Get(records.TypeStopArea) {
		best, bestCount := "", 0
		for locality, count := range counts[stopArea.String("code")] {
			if count > bestCount || (count == bestCount && locality < best) {
				best, bestCount = locality, count
			}
		}

		if best != "" {
			stopArea["locality_ref"] = best
		} else {
			stopArea["locality_ref"] = nil
		}
	}

	return nil
}
