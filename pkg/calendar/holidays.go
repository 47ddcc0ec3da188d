package calendar

import "golang.org/x/exp/slices"

// BankHolidays lists every concrete holiday name a journey can reference.
var BankHolidays = []string{
	"ChristmasDay",
	"BoxingDay",
	"GoodFriday",
	"NewYearsDay",
	"Jan2ndScotland",
	"LateSummerBankHolidayNotScotland",
	"AugustBankHolidayScotland",
	"MayDay",
	"EasterMonday",
	"SpringBank",
	"StAndrewsDay",
	"ChristmasEve",
	"NewYearsEve",
	"ChristmasDayHoliday",
	"BoxingDayHoliday",
	"NewYearsDayHoliday",
	"Jan2ndScotlandHoliday",
	"StAndrewsDayHoliday",
}

// holidayGroups expand the grouping elements allowed in BankHolidayOperation.
var holidayGroups = map[string][]string{
	"AllBankHolidays": {
		"ChristmasDay",
		"BoxingDay",
		"GoodFriday",
		"NewYearsDay",
		"Jan2ndScotland",
		"LateSummerBankHolidayNotScotland",
		"AugustBankHolidayScotland",
		"MayDay",
		"EasterMonday",
		"SpringBank",
		"StAndrewsDay",
		"ChristmasDayHoliday",
		"BoxingDayHoliday",
		"NewYearsDayHoliday",
	},
	"EarlyRunOff": {
		"ChristmasEve",
		"NewYearsEve",
	},
	"AllHolidaysExceptChristmas": {
		"NewYearsDay",
		"Jan2ndScotland",
		"GoodFriday",
		"EasterMonday",
		"MayDay",
		"SpringBank",
		"LateSummerBankHolidayNotScotland",
		"AugustBankHolidayScotland",
		"StAndrewsDay",
	},
	"HolidayMondays": {
		"EasterMonday",
		"MayDay",
		"SpringBank",
		"LateSummerBankHolidayNotScotland",
		"AugustBankHolidayScotland",
	},
	"Christmas": {
		"ChristmasDay",
		"BoxingDay",
	},
	"DisplacementHolidays": {
		"ChristmasDayHoliday",
		"BoxingDayHoliday",
		"NewYearsDayHoliday",
		"Jan2ndScotlandHoliday",
		"StAndrewsDayHoliday",
	},
}

var scotlandOnly = []string{
	"Jan2ndScotland",
	"Jan2ndScotlandHoliday",
	"AugustBankHolidayScotland",
	"StAndrewsDay",
	"StAndrewsDayHoliday",
}

var notScotland = []string{
	"LateSummerBankHolidayNotScotland",
}

// ScotlandRegion is the TNDS region code whose holidays differ from the rest
// of Great Britain.
const ScotlandRegion = "S"

// Expand resolves a holiday element name to the concrete holidays it stands
// for in the given region. Group names are filtered to the holidays observed
// in the region; a single named holiday is returned as is.
func Expand(name string, region string) []string {
	group, isGroup := holidayGroups[name]
	if !isGroup {
		return []string{name}
	}

	excluded := scotlandOnly
	if region == ScotlandRegion {
		excluded = notScotland
	}

	expanded := make([]string, 0, len(group))
	for _, holiday := range group {
		if !slices.Contains(excluded, holiday) {
			expanded = append(expanded, holiday)
		}
	}

	return expanded
}

// IsGroup reports whether name is a holiday group rather than a holiday.
func IsGroup(name string) bool {
	_, isGroup := holidayGroups[name]

	return isGroup
}
