package fields

import (
	"strings"
	"unicode"
)

var indicatorAbbreviations = map[string]string{
	"adjacent":   "adj",
	"adj":        "adj",
	"after":      "aft",
	"aft":        "aft",
	"arrivals":   "arr",
	"arr":        "arr",
	"at":         "at",
	"before":     "pre",
	"by":         "by",
	"corner":     "cnr",
	"cnr":        "cnr",
	"departures": "dep",
	"dep":        "dep",
	"entrance":   "ent",
	"ent":        "ent",
	"in":         "in",
	"inside":     "in",
	"near":       "nr",
	"nr":         "nr",
	"on":         "on",
	"opp":        "opp",
	"opposite":   "opp",
	"o/s":        "o/s",
	"os":         "o/s",
	"outside":    "o/s",
}

var indicatorCompass = map[string]string{}

var indicatorPrefixes = map[string]bool{
	"bay":      true,
	"gate":     true,
	"platform": true,
	"stance":   true,
	"stand":    true,
	"stop":     true,
}

var indicatorFiller = map[string]bool{
	"and": true,
	"of":  true,
	"the": true,
	"to":  true,
}

func init() {
	longForms := map[string][]string{
		"N":  {"north"},
		"NE": {"northeast", "north-east"},
		"E":  {"east"},
		"SE": {"southeast", "south-east"},
		"S":  {"south"},
		"SW": {"southwest", "south-west"},
		"W":  {"west"},
		"NW": {"northwest", "north-west"},
	}

	for point, words := range longForms {
		short := strings.ToLower(point)
		for _, word := range []string{short + "b", short + "/b", short + "-bound"} {
			indicatorCompass[word] = point
		}
		for _, word := range words {
			indicatorCompass[word] = point
			indicatorCompass[word+"bound"] = point
		}
	}
}

// ShortIndicator abbreviates a stop indicator ("Opposite", "Stop A",
// "Stand 12 Northbound") into the short form shown on stop flags ("opp",
// "A", "12 ->N").
func ShortIndicator(indicator string) string {
	words := strings.FieldsFunc(Lower(indicator), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '/' && r != '-'
	})

	var parts []string
	for _, word := range words {
		if indicatorFiller[word] || indicatorPrefixes[word] {
			continue
		}

		if point, exists := indicatorCompass[word]; exists {
			parts = append(parts, "->"+point)
		} else if short, exists := indicatorAbbreviations[word]; exists {
			parts = append(parts, short)
		} else if isIndicatorCode(word) {
			parts = append(parts, strings.ToUpper(word))
		} else {
			parts = append(parts, Capitalise(strings.ToUpper(word)))
		}
	}

	if len(parts) == 0 {
		return Squash(indicator)
	}

	return strings.Join(parts, " ")
}

// Stop letters and bay numbers such as "A", "12" or "B2".
func isIndicatorCode(word string) bool {
	if len(word) <= 2 {
		return true
	}

	for _, r := range word {
		if unicode.IsDigit(r) {
			return true
		}
	}

	return false
}
