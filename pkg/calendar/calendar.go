package calendar

import (
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/exp/slices"
)

const (
	Monday = 1 << iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// Daily is the day mask for a journey running every day of the week.
const Daily = Monday | Tuesday | Wednesday | Thursday | Friday | Saturday | Sunday

var dayTokens = map[string]int{
	"Monday":           Monday,
	"Tuesday":          Tuesday,
	"Wednesday":        Wednesday,
	"Thursday":         Thursday,
	"Friday":           Friday,
	"Saturday":         Saturday,
	"Sunday":           Sunday,
	"MondayToFriday":   Monday | Tuesday | Wednesday | Thursday | Friday,
	"MondayToSaturday": Monday | Tuesday | Wednesday | Thursday | Friday | Saturday,
	"MondayToSunday":   Daily,
	"Weekend":          Saturday | Sunday,
	"NotMonday":        Daily &^ Monday,
	"NotTuesday":       Daily &^ Tuesday,
	"NotWednesday":     Daily &^ Wednesday,
	"NotThursday":      Daily &^ Thursday,
	"NotFriday":        Daily &^ Friday,
	"NotSaturday":      Daily &^ Saturday,
	"NotSunday":        Daily &^ Sunday,
}

var weekTokens = map[string]int{
	"first":  1,
	"second": 2,
	"third":  4,
	"fourth": 8,
	"fifth":  16,
	"last":   32,
	"1":      1,
	"2":      2,
	"3":      4,
	"4":      8,
	"5":      16,
}

// Calendar is the derived operating pattern of a journey.
type Calendar struct {
	Days int

	// Weeks is nil when the journey runs in every week of the month.
	Weeks *int

	SpecialDays   []SpecialDays
	BankHolidays  []BankHoliday
	Organisations []ServicedOrganisation
}

// Source yields a candidate profile, or nil when it has none.
type Source func() *Profile

// Resolve returns the first profile the sources yield, in order. A journey's
// own profile takes precedence over the one it inherits from its pattern or
// service.
func Resolve(sources ...Source) *Profile {
	for _, source := range sources {
		if source == nil {
			continue
		}

		if profile := source(); profile != nil {
			return profile
		}
	}

	return nil
}

// Derive converts a profile into a calendar for the given TNDS region. A nil
// profile runs daily with no exceptions.
func Derive(profile *Profile, region string) Calendar {
	if profile == nil {
		return Calendar{Days: Daily}
	}

	calendar := Calendar{
		Days:          deriveDays(profile),
		Weeks:         deriveWeeks(profile.WeeksOfMonth),
		SpecialDays:   slices.Clone(profile.SpecialDays),
		Organisations: dedupeOrganisations(profile.ServicedOrganisations),
	}

	for _, other := range profile.OtherPublicHolidays {
		calendar.SpecialDays = append(calendar.SpecialDays, SpecialDays{
			DateRange:   DateRange{Start: other.Date, End: other.Date},
			Operational: other.Operational,
			Note:        other.Description,
		})
	}

	seen := map[BankHoliday]bool{}
	for _, holiday := range profile.BankHolidays {
		for _, name := range Expand(holiday.Name, region) {
			if !slices.Contains(BankHolidays, name) {
				log.Debug().Str("holiday", name).Msg("Unknown bank holiday ignored")
				continue
			}

			expanded := BankHoliday{Name: name, Operational: holiday.Operational}
			if seen[expanded] {
				continue
			}
			seen[expanded] = true

			calendar.BankHolidays = append(calendar.BankHolidays, expanded)
		}
	}

	return calendar
}

func deriveDays(profile *Profile) int {
	if profile.HolidaysOnly {
		return 0
	}

	if len(profile.DaysOfWeek) == 0 {
		return Daily
	}

	days := 0
	for _, token := range profile.DaysOfWeek {
		mask, known := dayTokens[token]
		if !known {
			log.Debug().Str("day", token).Msg("Unknown day of week ignored")
			continue
		}

		days |= mask
	}

	return days
}

func deriveWeeks(tokens []string) *int {
	weeks := 0
	for _, token := range tokens {
		weeks |= weekTokens[strings.ToLower(strings.TrimSpace(token))]
	}

	if weeks == 0 {
		return nil
	}

	return &weeks
}

func dedupeOrganisations(organisations []ServicedOrganisation) []ServicedOrganisation {
	var deduped []ServicedOrganisation
	for _, organisation := range organisations {
		if !slices.Contains(deduped, organisation) {
			deduped = append(deduped, organisation)
		}
	}

	return deduped
}
