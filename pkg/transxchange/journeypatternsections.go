package transxchange

import (
	"strconv"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/rs/zerolog/log"
	"github.com/travigo/populate/pkg/engine"
	"github.com/travigo/populate/pkg/fields"
	"github.com/travigo/populate/pkg/identity"
	"github.com/travigo/populate/pkg/records"
)

var (
	sectionRefsPath  = engine.Path("JourneyPatternSectionRefs")
	timingLinksPath  = engine.Path("JourneyPatternTimingLink")
	runTimePath      = engine.Path("RunTime")
	fromStopPath     = engine.Path("From/StopPointRef")
	toStopPath       = engine.Path("To/StopPointRef")
	fromWaitPath     = engine.Path("From/WaitTime")
	toWaitPath       = engine.Path("To/WaitTime")
	fromActivityPath = engine.Path("From/Activity")
	toActivityPath   = engine.Path("To/Activity")
	fromTimingPath   = engine.Path("From/TimingStatus")
)

// TimingStatus reports whether a timing status marks a timing point and a
// principal point. Both the abbreviated and the spelt out forms are used in
// the wild.
func TimingStatus(status string) (timing bool, principal bool) {
	switch strings.TrimSpace(status) {
	case "PTP", "principalTimingPoint":
		return true, true
	case "PPT", "principalPoint":
		return false, true
	case "TIP", "timeInfoPoint":
		return true, false
	}

	return false, false
}

func stopping(activity string) bool {
	return strings.TrimSpace(activity) != "pass"
}

// linkID is the natural id of a link within a pattern. Sections are shared
// between patterns, so the pattern id is part of it.
func linkID(patternID string, timingLinkID string) string {
	return patternID + "/" + timingLinkID
}

// journeyLinks adds a link for every timing link in the pattern's sections,
// numbered in order across the sections.
func journeyLinks(c *engine.Context, resolver *identity.Resolver, n *xmlquery.Node, pattern records.Record) {
	patternID := n.SelectAttr("id")
	sequence := 0

	for _, sectionRef := range xmlquery.QuerySelectorAll(n, sectionRefsPath) {
		sectionID := strings.TrimSpace(sectionRef.InnerText())

		section := c.Lookup("sections", sectionID)
		if section == nil {
			log.Debug().
				Str("source", c.Document.Source).
				Str("pattern", patternID).
				Str("section", sectionID).
				Msg("Journey pattern section not found")
			continue
		}

		for _, timingLink := range xmlquery.QuerySelectorAll(section, timingLinksPath) {
			sequence++

			timingLinkID := timingLink.SelectAttr("id")
			if timingLinkID == "" {
				timingLinkID = sectionID + "#" + strconv.Itoa(sequence)
			}

			timing, principal := TimingStatus(engine.NodeText(timingLink, fromTimingPath))

			c.Document.Add(records.TypeJourneyLink, records.Record{
				"id":              resolver.Register(identity.TypeJourneyLink, scope(c), linkID(patternID, timingLinkID)),
				"pattern_ref":     pattern["id"],
				"start_ref":       nullable(fields.Upper(engine.NodeText(timingLink, fromStopPath))),
				"end_ref":         nullable(fields.Upper(engine.NodeText(timingLink, toStopPath))),
				"run_time":        fields.Seconds(engine.NodeText(timingLink, runTimePath)),
				"wait_start":      fields.Seconds(engine.NodeText(timingLink, fromWaitPath)),
				"wait_end":        fields.Seconds(engine.NodeText(timingLink, toWaitPath)),
				"timing_point":    timing,
				"principal_point": principal,
				"stopping_start":  stopping(engine.NodeText(timingLink, fromActivityPath)),
				"stopping_end":    stopping(engine.NodeText(timingLink, toActivityPath)),
				"sequence":        sequence,
			})
		}
	}
}
