// Package travelinenoc maps the Traveline National Operator Codes database
// onto operators and their per-region local operator codes.
package travelinenoc

import (
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/travigo/populate/pkg/engine"
	"github.com/travigo/populate/pkg/fields"
	"github.com/travigo/populate/pkg/records"
)

// RegionColumns maps the NOCLinesRecord region columns to TNDS region codes.
var RegionColumns = []struct {
	Column string
	Region string
}{
	{"LO", "L"},
	{"SW", "SW"},
	{"WM", "WM"},
	{"WA", "W"},
	{"YO", "Y"},
	{"NW", "NW"},
	{"NE", "NE"},
	{"SC", "S"},
	{"SE", "SE"},
	{"EA", "EA"},
	{"EM", "EM"},
}

var modes = map[string]string{
	"underground": "metro",
	"drt":         "bus",
	"permit":      "bus",
	"ct operator": "bus",
}

var (
	websiteRegex = regexp.MustCompile("#(.+)#")
	emailRegex   = regexp.MustCompile(`^[^@]+@[^@]+\.[^@]+$`)
	phoneRegex   = regexp.MustCompile(`^[\d ]+$`)
	addressRegex = regexp.MustCompile(`^[a-zA-Z\d ,]+$`)
)

// nocCode strips the "=" some codes are prefixed with in the source data.
func nocCode(value string) string {
	return fields.Upper(strings.TrimLeft(value, "="))
}

func mode(value string) string {
	value = fields.Lower(value)
	if mapped, exists := modes[value]; exists {
		return mapped
	}

	return value
}

func website(value string) string {
	if match := websiteRegex.FindStringSubmatch(value); len(match) > 1 {
		return strings.TrimSpace(match[1])
	}

	return ""
}

// publicName evaluates then against the PublicNameRecord a NOC line links
// to through its NOCTableRecord.
func publicName(then engine.Extractor) engine.Extractor {
	return engine.Lookup("table", engine.Map(engine.Text("NOCCODE"), nocCode),
		engine.Lookup("publicNames", engine.Text("PubNmId"), then))
}

var contactColumns = func() []engine.Extractor {
	var extractors []engine.Extractor
	for _, column := range []string{"LostPropEnq", "DisruptEnq", "ComplEnq", "FareEnq", "TTRteEnq"} {
		extractors = append(extractors, publicName(engine.Map(engine.Text(column), fields.Squash)))
	}

	return extractors
}()

// contactDetails classifies the enquiry columns of the public name record as
// an email address, phone number or postal address. Later columns win.
func contactDetails(c *engine.Context, n *xmlquery.Node, record records.Record) bool {
	for _, contact := range contactColumns {
		value, ok := engine.AsString(contact(c, n))
		if !ok {
			continue
		}

		if emailRegex.MatchString(value) {
			record["email"] = value
		} else if phoneRegex.MatchString(value) {
			record["phone"] = value
		} else if addressRegex.MatchString(value) {
			record["address"] = value
		}
	}

	return true
}

var regionColumnPaths = func() map[string]engine.Extractor {
	paths := map[string]engine.Extractor{}
	for _, regionColumn := range RegionColumns {
		paths[regionColumn.Column] = engine.Map(engine.Text(regionColumn.Column), fields.Upper)
	}

	return paths
}()

// localOperators adds the region-specific codes an operator trades under.
func localOperators(c *engine.Context, n *xmlquery.Node, operator records.Record) {
	for _, regionColumn := range RegionColumns {
		code, ok := engine.AsString(regionColumnPaths[regionColumn.Column](c, n))
		if !ok {
			continue
		}

		c.Document.Add(records.TypeLocalOperator, records.Record{
			"region_ref":   regionColumn.Region,
			"code":         code,
			"operator_ref": operator["code"],
			"name":         operator["name"],
		})
	}
}

var Definition = &engine.Definition{
	Name: "NOC",
	Indexes: []engine.Index{
		{Name: "table", Select: engine.Path("//NOCTable/NOCTableRecord"), Key: engine.Map(engine.Text("NOCCODE"), nocCode)},
		{Name: "publicNames", Select: engine.Path("//PublicName/PublicNameRecord"), Key: engine.Text("PubNmId")},
	},
	Rules: []engine.Rule{
		{
			Type:   records.TypeOperator,
			Select: engine.Path("//NOCLines/NOCLinesRecord"),
			Fields: []engine.Field{
				{Column: "code", Extract: engine.Map(engine.Text("NOCCODE"), nocCode), Required: true},
				{Column: "name", Extract: engine.Map(engine.FirstOf(
					publicName(engine.Text("OperatorPublicName")),
					engine.Text("PubNm"),
				), fields.Squash), Required: true},
				{Column: "licence_name", Extract: engine.Lookup("table", engine.Map(engine.Text("NOCCODE"), nocCode),
					engine.Map(engine.Text("VOSA_PSVLicenseName"), fields.Squash))},
				{Column: "mode", Extract: engine.Map(engine.Text("Mode"), mode)},
				{Column: "website", Extract: publicName(engine.Map(engine.Text("Website"), website))},
				{Column: "twitter", Extract: publicName(engine.Map(engine.Text("Twitter"), fields.Squash))},
			},
			Derive: contactDetails,
			Emit:   localOperators,
		},
	},
}
