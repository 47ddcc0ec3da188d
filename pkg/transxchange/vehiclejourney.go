package transxchange

import (
	"encoding/xml"
	"fmt"
	"time"

	"github.com/antchfx/xmlquery"
	"github.com/jinzhu/copier"
	"github.com/rs/zerolog/log"
	"github.com/travigo/populate/pkg/calendar"
	"github.com/travigo/populate/pkg/engine"
	"github.com/travigo/populate/pkg/fields"
	"github.com/travigo/populate/pkg/identity"
	"github.com/travigo/populate/pkg/records"

	iso8601 "github.com/senseyeio/duration"
)

type VehicleJourney struct {
	PrivateCode        string
	VehicleJourneyCode string
	ServiceRef         string
	LineRef            string
	JourneyPatternRef  string
	VehicleJourneyRef  string
	DepartureTime      string
	DestinationDisplay string

	Frequency *Frequency

	StartDeadRun *DeadRun
	EndDeadRun   *DeadRun

	OperatingProfile *OperatingProfile
}

type Frequency struct {
	EndTime  string
	Interval *FrequencyInterval
}

type FrequencyInterval struct {
	ScheduledFrequency string
}

// DeadRun marks where a short working joins or leaves its pattern.
type DeadRun struct {
	JourneyPatternTimingLinkRef string `xml:"ShortWorking>JourneyPatternTimingLinkRef"`
}

type OperatingProfile struct {
	XMLValue string `xml:",innerxml"`
}

var (
	vehicleJourneysPath    = engine.Path("//VehicleJourneys/VehicleJourney")
	destinationDisplayPath = engine.Path("DestinationDisplay")
)

// profile returns the journey's own operating profile as a calendar source.
// A nil journey has none.
func (v *VehicleJourney) profile() calendar.Source {
	return func() *calendar.Profile {
		if v == nil || v.OperatingProfile == nil {
			return nil
		}

		return parseProfile(v.OperatingProfile.XMLValue, v.VehicleJourneyCode)
	}
}

// nodeProfile returns the OperatingProfile child of a pattern or service
// element as a calendar source.
func nodeProfile(n *xmlquery.Node) calendar.Source {
	return func() *calendar.Profile {
		if n == nil {
			return nil
		}

		operatingProfile := engine.Node(n, operatingPath)
		if operatingProfile == nil {
			return nil
		}

		return parseProfile(operatingProfile.OutputXML(false), n.SelectAttr("id"))
	}
}

func parseProfile(innerXML string, owner string) *calendar.Profile {
	profile, err := calendar.ParseProfile(innerXML)
	if err != nil {
		log.Warn().Err(err).Str("owner", owner).Msg("Failed to parse OperatingProfile")
		return nil
	}

	return profile
}

// expandFrequencies duplicates frequency based journeys for every departure
// between the first and the end time.
func expandFrequencies(vehicleJourneys []*VehicleJourney) []*VehicleJourney {
	expanded := vehicleJourneys

	for _, vehicleJourney := range vehicleJourneys {
		if vehicleJourney.Frequency == nil || vehicleJourney.Frequency.Interval == nil {
			continue
		}

		departureTime, err := time.Parse(time.TimeOnly, fields.ClockTime(vehicleJourney.DepartureTime))
		if err != nil {
			continue
		}
		endTime, err := time.Parse(time.TimeOnly, fields.ClockTime(vehicleJourney.Frequency.EndTime))
		if err != nil {
			continue
		}
		// The block runs past midnight; departures keep their clock time
		if endTime.Before(departureTime) {
			endTime = endTime.Add(24 * time.Hour)
		}
		interval, err := iso8601.ParseISO8601(vehicleJourney.Frequency.Interval.ScheduledFrequency)
		if err != nil || !interval.Shift(departureTime).After(departureTime) {
			log.Debug().Str("journey", vehicleJourney.VehicleJourneyCode).Msg("Unusable journey frequency")
			continue
		}

		for departure := interval.Shift(departureTime); !departure.After(endTime); departure = interval.Shift(departure) {
			var copiedJourney VehicleJourney
			err := copier.CopyWithOption(&copiedJourney, *vehicleJourney, copier.Option{IgnoreEmpty: true, DeepCopy: true})
			if err != nil {
				log.Error().Err(err).Msgf("Failed to copy VehicleJourney %s", vehicleJourney.VehicleJourneyCode)
				continue
			}

			copiedJourney.Frequency = nil
			copiedJourney.DepartureTime = departure.Format(time.TimeOnly)
			copiedJourney.VehicleJourneyCode = fmt.Sprintf("%s-%s", vehicleJourney.VehicleJourneyCode, copiedJourney.DepartureTime)

			expanded = append(expanded, &copiedJourney)
		}
	}

	return expanded
}

// journeys decodes every vehicle journey and adds it with its calendar.
func journeys(c *engine.Context, resolver *identity.Resolver) error {
	var vehicleJourneys []*VehicleJourney
	byCode := map[string]*VehicleJourney{}

	for _, node := range xmlquery.QuerySelectorAll(c.Root, vehicleJourneysPath) {
		var vehicleJourney VehicleJourney
		if err := xml.Unmarshal([]byte(node.OutputXML(true)), &vehicleJourney); err != nil {
			log.Error().Err(err).Str("source", c.Document.Source).Msg("Failed to decode VehicleJourney")
			continue
		}

		vehicleJourneys = append(vehicleJourneys, &vehicleJourney)
		if _, exists := byCode[vehicleJourney.VehicleJourneyCode]; !exists {
			byCode[vehicleJourney.VehicleJourneyCode] = &vehicleJourney
		}
	}

	for _, vehicleJourney := range expandFrequencies(vehicleJourneys) {
		if err := c.Err(); err != nil {
			return err
		}

		addJourney(c, resolver, vehicleJourney, byCode)
	}

	return nil
}

func addJourney(c *engine.Context, resolver *identity.Resolver, vehicleJourney *VehicleJourney, byCode map[string]*VehicleJourney) {
	code := vehicleJourney.VehicleJourneyCode
	departure := fields.ClockTime(vehicleJourney.DepartureTime)
	if code == "" || departure == "" {
		log.Debug().
			Str("source", c.Document.Source).
			Str("journey", code).
			Msg("VehicleJourney without code or departure time skipped")
		return
	}

	var referenced *VehicleJourney
	if vehicleJourney.VehicleJourneyRef != "" && vehicleJourney.VehicleJourneyRef != code {
		referenced = byCode[vehicleJourney.VehicleJourneyRef]
	}

	patternRef := vehicleJourney.JourneyPatternRef
	if patternRef == "" && referenced != nil {
		patternRef = referenced.JourneyPatternRef
	}

	pattern := c.Lookup("patterns", patternRef)

	var service *xmlquery.Node
	if pattern != nil {
		service = engine.Node(pattern, ancestorService)
	}
	if service == nil {
		service = c.Lookup("services", vehicleJourney.ServiceRef)
	}

	journeyScope := scope(c)
	journey := records.Record{
		"id":           resolver.Register(identity.TypeJourney, journeyScope, code),
		"code":         code,
		"private_code": nullable(vehicleJourney.PrivateCode),
		"pattern_ref":  lookup(resolver, identity.TypeJourneyPattern, journeyScope, patternRef),
		"start_run":    deadRun(resolver, journeyScope, patternRef, vehicleJourney.StartDeadRun),
		"end_run":      deadRun(resolver, journeyScope, patternRef, vehicleJourney.EndDeadRun),
		"departure":    departure,
	}

	destination := fields.Destination(vehicleJourney.DestinationDisplay)
	if destination == "" && pattern != nil {
		destination = fields.Destination(engine.NodeText(pattern, destinationDisplayPath))
	}
	journey["destination"] = nullable(destination)

	profile := calendar.Resolve(
		vehicleJourney.profile(),
		referenced.profile(),
		nodeProfile(pattern),
		nodeProfile(service),
	)
	operating := calendar.Derive(profile, region(c))

	journey["days"] = operating.Days
	if operating.Weeks != nil {
		journey["weeks"] = *operating.Weeks
	} else {
		journey["weeks"] = nil
	}

	c.Document.Add(records.TypeJourney, journey)
	addCalendar(c, journey["id"], operating)
}

// addCalendar adds the association rows carrying the exceptions of a
// journey's calendar.
func addCalendar(c *engine.Context, journeyID interface{}, operating calendar.Calendar) {
	for _, organisation := range operating.Organisations {
		c.Document.Add(records.TypeJourneyOrganisation, records.Record{
			"journey_ref": journeyID,
			"region_ref":  region(c),
			"org_ref":     organisation.Code,
			"operational": organisation.Operational,
			"working":     organisation.Working,
		})
	}

	for _, special := range operating.SpecialDays {
		c.Document.Add(records.TypeJourneySpecialPeriod, records.Record{
			"journey_ref": journeyID,
			"date_start":  special.Start,
			"date_end":    special.End,
			"operational": special.Operational,
		})
	}

	for _, holiday := range operating.BankHolidays {
		c.Document.Add(records.TypeBankHoliday, records.Record{"name": holiday.Name})
		c.Document.Add(records.TypeJourneyBankHoliday, records.Record{
			"journey_ref": journeyID,
			"holiday_ref": holiday.Name,
			"operational": holiday.Operational,
		})
	}
}

func lookup(resolver *identity.Resolver, recordType string, scope string, naturalID string) interface{} {
	if naturalID == "" {
		return nil
	}

	if id, found := resolver.Lookup(recordType, scope, naturalID); found {
		return id
	}

	return nil
}

func deadRun(resolver *identity.Resolver, scope string, patternRef string, run *DeadRun) interface{} {
	if run == nil || run.JourneyPatternTimingLinkRef == "" || patternRef == "" {
		return nil
	}

	return lookup(resolver, identity.TypeJourneyLink, scope, linkID(patternRef, run.JourneyPatternTimingLinkRef))
}
