// Package fields holds the per-field normalisation functions shared by every
// feed definition. All of them are total: malformed input yields an empty or
// zero result instead of an error.
package fields

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	nonWordRegex          = regexp.MustCompile(`^[\W_]*$`)
	bracketedCodeRegex    = regexp.MustCompile(`\s*[\(\[](?:[A-Z]{1,4}|[A-Z0-9/\-]*[0-9][A-Z0-9/\-]*)[\)\]]`)
	edgeSeparatorRegex    = regexp.MustCompile(`^[\s\-,./:;]+|[\s\-,./:;]+$`)
	repeatedPhraseRegexes = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(bus station)\s+bus station\b`),
		regexp.MustCompile(`(?i)\b(interchange)\s+interchange\b`),
		regexp.MustCompile(`(?i)\b(town centre)\s+town centre\b`),
	}
)

// Upper trims the value and folds it to upper case, the canonical form for
// ATCO, NOC and area codes.
func Upper(value string) string {
	return strings.ToUpper(strings.TrimSpace(value))
}

// Lower trims the value and folds it to lower case.
func Lower(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}

// Squash collapses every run of whitespace into a single space and trims the
// ends.
func Squash(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// Capitalise title-cases names that arrive fully upper-cased. Anything that
// already contains a lower case letter is left alone.
func Capitalise(value string) string {
	value = Squash(value)

	if value == "" || hasLower(value) {
		return value
	}

	// Casers carry state so one is made per call.
	return cases.Title(language.BritishEnglish).String(strings.ToLower(value))
}

// Descriptor cleans up the optional landmark/street/crossing style
// descriptors on stops.
func Descriptor(value string) string {
	value = Squash(value)

	if nonWordRegex.MatchString(value) || strings.EqualFold(value, "none") {
		return ""
	}

	return Capitalise(value)
}

// Destination tidies destination displays and origin/destination names from
// timetables.
func Destination(value string) string {
	value = Squash(value)
	value = bracketedCodeRegex.ReplaceAllString(value, "")

	for _, repeated := range repeatedPhraseRegexes {
		value = repeated.ReplaceAllString(value, "$1")
	}

	value = edgeSeparatorRegex.ReplaceAllString(value, "")

	return Capitalise(value)
}

func hasLower(value string) bool {
	for _, r := range value {
		if unicode.IsLower(r) {
			return true
		}
	}

	return false
}
