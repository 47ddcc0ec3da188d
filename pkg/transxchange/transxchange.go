// Package transxchange maps TNDS TransXChange timetables onto services,
// journey patterns, links, journeys and their operating calendars.
package transxchange

import (
	"errors"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/travigo/populate/pkg/engine"
	"github.com/travigo/populate/pkg/fields"
	"github.com/travigo/populate/pkg/identity"
	"github.com/travigo/populate/pkg/records"
	"golang.org/x/exp/slices"
)

const (
	// RegionParam is the TNDS region the file was published for.
	RegionParam = "region"

	// ScopeParam distinguishes files whose natural ids may collide. Defaults
	// to the source name.
	ScopeParam = "scope"
)

var ErrNoRegion = errors.New("TNDS region not set")

// Modes are the service modes imported. A file containing any other mode is
// skipped whole.
var Modes = []string{"bus", "coach", "tram", "metro"}

var (
	servicesPath    = engine.Path("//Services/Service")
	modePath        = engine.Path("Mode")
	privateCodePath = engine.Path("PrivateCode")
	serviceCodePath = engine.Path("ServiceCode")
	directionPath   = engine.Path("Direction")
	routeRefPath    = engine.Path("RouteRef")
	ancestorService = engine.Path("ancestor::Service")
	operatingPath   = engine.Path("OperatingProfile")
	originPath      = engine.Path("StandardService/Origin")
	destinationPath = engine.Path("StandardService/Destination")
)

// ServiceCode derives the code a service is stored under. The private code
// is preferred over the service code and either is prefixed with the region
// unless it already starts with it.
func ServiceCode(region string, privateCode string, serviceCode string) string {
	code := strings.TrimSpace(privateCode)
	if code == "" {
		code = strings.TrimSpace(serviceCode)
	}

	if code == "" {
		return ""
	}

	if strings.HasPrefix(code, region) {
		return code
	}

	return region + "-" + code
}

// Mode normalises a service mode. Services without one are buses.
func Mode(value string) string {
	value = fields.Lower(value)

	switch value {
	case "":
		return "bus"
	case "underground":
		return "metro"
	}

	return value
}

func region(c *engine.Context) string {
	return fields.Upper(c.Param(RegionParam))
}

func scope(c *engine.Context) string {
	if scope := c.Param(ScopeParam); scope != "" {
		return scope
	}

	return c.Document.Source
}

func serviceCode(c *engine.Context, service *xmlquery.Node) string {
	return ServiceCode(region(c), engine.NodeText(service, privateCodePath), engine.NodeText(service, serviceCodePath))
}

// importableModes gates the file on every service having an imported mode.
func importableModes(c *engine.Context, root *xmlquery.Node) bool {
	for _, service := range xmlquery.QuerySelectorAll(root, servicesPath) {
		if !slices.Contains(Modes, Mode(engine.NodeText(service, modePath))) {
			return false
		}
	}

	return true
}

func validate(c *engine.Context) error {
	if region(c) == "" {
		return ErrNoRegion
	}

	return nil
}

func regionExtractor() engine.Extractor {
	return func(c *engine.Context, n *xmlquery.Node) (interface{}, bool) {
		value := region(c)

		return value, value != ""
	}
}

func serviceCodeExtractor(c *engine.Context, n *xmlquery.Node) (interface{}, bool) {
	service := n
	if n.Data != "Service" {
		service = engine.Node(n, ancestorService)
	}

	if service == nil {
		return nil, false
	}

	code := serviceCode(c, service)

	return code, code != ""
}

func sourceExtractor(c *engine.Context, n *xmlquery.Node) (interface{}, bool) {
	return c.Document.Source, c.Document.Source != ""
}

// NewDefinition builds the TNDS rule table minting identifiers through
// resolver.
func NewDefinition(resolver *identity.Resolver) *engine.Definition {
	return &engine.Definition{
		Name: "TNDS",
		Indexes: []engine.Index{
			{Name: "operators", Select: engine.Path("//Operators/Operator"), Key: engine.Attr("id")},
			{Name: "routes", Select: engine.Path("//Routes/Route"), Key: engine.Attr("id")},
			{Name: "sections", Select: engine.Path("//JourneyPatternSections/JourneyPatternSection"), Key: engine.Attr("id")},
			{Name: "patterns", Select: engine.Path("//JourneyPattern"), Key: engine.Attr("id")},
			{Name: "services", Select: servicesPath, Key: engine.Text("ServiceCode")},
		},
		Validate: validate,
		Gate:     importableModes,
		Rules: []engine.Rule{
			{
				Type:   records.TypeLocalOperator,
				Select: engine.Path("//Operators/Operator"),
				Fields: []engine.Field{
					{Column: "region_ref", Extract: regionExtractor(), Required: true},
					{Column: "code", Extract: engine.Map(engine.FirstOf(
						engine.Text("OperatorCode"),
						engine.Text("NationalOperatorCode"),
					), fields.Upper), Required: true},
					{Column: "operator_ref", Extract: engine.Map(engine.Text("NationalOperatorCode"), fields.Upper)},
					{Column: "name", Extract: engine.Map(engine.FirstOf(
						engine.Text("OperatorShortName"),
						engine.Text("TradingName"),
						engine.Text("OperatorNameOnLicence"),
					), fields.Squash)},
				},
			},
			{
				Type:   records.TypeOrganisation,
				Select: engine.Path("//ServicedOrganisations/ServicedOrganisation"),
				Fields: []engine.Field{
					{Column: "region_ref", Extract: regionExtractor(), Required: true},
					{Column: "code", Extract: engine.Text("OrganisationCode"), Required: true},
					{Column: "name", Extract: engine.Map(engine.Text("Name"), fields.Squash)},
				},
				Emit: organisationDates,
			},
			{
				Type:   records.TypeService,
				Select: servicesPath,
				Fields: []engine.Field{
					{Column: "code", Extract: serviceCodeExtractor, Required: true},
					{Column: "line", Extract: engine.Map(engine.Text("Lines/Line/LineName"), fields.Squash)},
					{Column: "description", Extract: engine.Map(engine.FirstOf(
						engine.Text("Description"),
						engine.Text("Lines/Line/OutboundDescription/Description"),
					), fields.Squash)},
					{Column: "mode", Extract: func(c *engine.Context, n *xmlquery.Node) (interface{}, bool) {
						return Mode(engine.NodeText(n, modePath)), true
					}},
					{Column: "region_ref", Extract: regionExtractor()},
					{Column: "local_operator_ref", Extract: engine.Lookup("operators", engine.Text("RegisteredOperatorRef"),
						engine.Map(engine.FirstOf(engine.Text("OperatorCode"), engine.Text("NationalOperatorCode")), fields.Upper))},
					{Column: "start_date", Extract: engine.Time(engine.Text("OperatingPeriod/StartDate"), fields.Date)},
					{Column: "end_date", Extract: engine.Time(engine.Text("OperatingPeriod/EndDate"), fields.Date)},
					{Column: "filename", Extract: sourceExtractor},
					{Column: "modified", Extract: engine.Time(engine.Attr("ModificationDateTime"), fields.DateTime)},
				},
			},
			{
				Type:   records.TypeJourneyPattern,
				Select: engine.Path("//Services/Service/StandardService/JourneyPattern"),
				Filter: engine.Exists(engine.Attr("id")),
				Fields: []engine.Field{
					{Column: "service_ref", Extract: serviceCodeExtractor, Required: true},
					{Column: "start_date", Extract: engine.Time(engine.Text("ancestor::Service/OperatingPeriod/StartDate"), fields.Date)},
					{Column: "end_date", Extract: engine.Time(engine.Text("ancestor::Service/OperatingPeriod/EndDate"), fields.Date)},
				},
				Derive: func(c *engine.Context, n *xmlquery.Node, record records.Record) bool {
					record["id"] = resolver.Register(identity.TypeJourneyPattern, scope(c), n.SelectAttr("id"))
					patternDirection(c, n, record)

					return true
				},
				Emit: func(c *engine.Context, n *xmlquery.Node, record records.Record) {
					journeyLinks(c, resolver, n, record)
				},
			},
		},
		Finalise: []func(c *engine.Context) error{
			func(c *engine.Context) error {
				return journeys(c, resolver)
			},
		},
	}
}

// normaliseDirection folds the TransXChange direction values onto outbound
// or inbound.
func normaliseDirection(direction string) string {
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "inbound", "anticlockwise":
		return "inbound"
	case "":
		return ""
	}

	return "outbound"
}

// patternDirection resolves a pattern's direction from the pattern, its
// route, then its service, and sets origin and destination from the
// service, swapped when the pattern runs against the service's direction.
func patternDirection(c *engine.Context, n *xmlquery.Node, record records.Record) {
	service := engine.Node(n, ancestorService)

	direction := normaliseDirection(engine.NodeText(n, directionPath))
	if direction == "" {
		if route := c.Lookup("routes", engine.NodeText(n, routeRefPath)); route != nil {
			direction = normaliseDirection(engine.NodeText(route, directionPath))
		}
	}

	serviceDirection := normaliseDirection(engine.NodeText(service, directionPath))
	if serviceDirection == "" {
		serviceDirection = "outbound"
	}

	if direction == "" {
		direction = serviceDirection
	}

	origin := fields.Destination(engine.NodeText(service, originPath))
	destination := fields.Destination(engine.NodeText(service, destinationPath))

	reversed := direction != serviceDirection
	if reversed {
		origin, destination = destination, origin
	}

	record["direction"] = reversed
	record["origin"] = nullable(origin)
	record["destination"] = nullable(destination)
}

func nullable(value string) interface{} {
	if value == "" {
		return nil
	}

	return value
}

var (
	workingRanges     = engine.Path("WorkingDays/DateRange")
	holidayRanges     = engine.Path("Holidays/DateRange")
	workingExclusions = engine.Path("WorkingDays//DateExclusion")
	holidayExclusions = engine.Path("Holidays//DateExclusion")
	startDatePath     = engine.Path("StartDate")
	endDatePath       = engine.Path("EndDate")
)

// organisationDates adds the working and holiday periods of a serviced
// organisation and the dates excluded from them.
func organisationDates(c *engine.Context, n *xmlquery.Node, organisation records.Record) {
	for _, working := range []bool{true, false} {
		ranges, exclusions := workingRanges, workingExclusions
		if !working {
			ranges, exclusions = holidayRanges, holidayExclusions
		}

		for _, dateRange := range xmlquery.QuerySelectorAll(n, ranges) {
			start := fields.Date(engine.NodeText(dateRange, startDatePath))
			end := fields.Date(engine.NodeText(dateRange, endDatePath))
			if start.IsZero() {
				continue
			}
			if end.IsZero() {
				end = start
			}

			c.Document.Add(records.TypeOrganisationPeriod, records.Record{
				"region_ref": organisation["region_ref"],
				"org_ref":    organisation["code"],
				"start_date": start,
				"end_date":   end,
				"working":    working,
			})
		}

		for _, exclusion := range xmlquery.QuerySelectorAll(n, exclusions) {
			date := fields.Date(exclusion.InnerText())
			if date.IsZero() {
				continue
			}

			c.Document.Add(records.TypeOrganisationExcludedDate, records.Record{
				"region_ref": organisation["region_ref"],
				"org_ref":    organisation["code"],
				"date":       date,
				"working":    working,
			})
		}
	}
}
