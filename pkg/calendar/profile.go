// Package calendar turns TransXChange OperatingProfile elements into the
// day, week and exception data stored against journeys.
package calendar

import (
	"encoding/xml"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/populate/pkg/fields"
	"golang.org/x/net/html/charset"
)

type DateRange struct {
	Start time.Time
	End   time.Time
}

type SpecialDays struct {
	DateRange
	Operational bool
	Note        string
}

type BankHoliday struct {
	Name        string
	Operational bool
}

type OtherPublicHoliday struct {
	Date        time.Time
	Description string
	Operational bool
}

type ServicedOrganisation struct {
	Code        string
	Operational bool

	// Working is true for the organisation's WorkingDays, false for its
	// Holidays.
	Working bool
}

// Profile is the parsed content of one OperatingProfile.
type Profile struct {
	DaysOfWeek   []string
	HolidaysOnly bool
	WeeksOfMonth []string

	SpecialDays           []SpecialDays
	BankHolidays          []BankHoliday
	OtherPublicHolidays   []OtherPublicHoliday
	ServicedOrganisations []ServicedOrganisation
}

// ParseProfile reads the inner XML of an OperatingProfile element.
func ParseProfile(innerXML string) (*Profile, error) {
	profile := &Profile{}
	elementChain := []string{}

	d := xml.NewDecoder(strings.NewReader(innerXML))
	d.CharsetReader = charset.NewReaderLabel

	for {
		tok, err := d.Token()
		if tok == nil || err == io.EOF {
			break
		} else if err != nil {
			return nil, err
		}

		switch ty := tok.(type) {
		case xml.StartElement:
			elementChain = append(elementChain, ty.Name.Local)

			consumed, err := profile.startElement(d, &ty, elementChain)
			if err != nil {
				return nil, err
			}

			// DecodeElement swallows the matching end element
			if consumed {
				elementChain = elementChain[:len(elementChain)-1]
			}
		case xml.EndElement:
			if len(elementChain) > 0 {
				elementChain = elementChain[:len(elementChain)-1]
			}
		}
	}

	return profile, nil
}

func (p *Profile) startElement(d *xml.Decoder, start *xml.StartElement, elementChain []string) (bool, error) {
	depth := len(elementChain)

	switch elementChain[0] {
	case "RegularDayType":
		if depth == 2 && elementChain[1] == "HolidaysOnly" {
			p.HolidaysOnly = true
		}

		if depth == 3 && elementChain[1] == "DaysOfWeek" {
			p.DaysOfWeek = append(p.DaysOfWeek, elementChain[2])
		}
	case "PeriodicDayType":
		if depth != 3 || elementChain[1] != "WeekOfMonth" {
			break
		}

		if elementChain[2] != "WeekNumber" {
			p.WeeksOfMonth = append(p.WeeksOfMonth, elementChain[2])
			break
		}

		var weekNumber string
		if err := d.DecodeElement(&weekNumber, start); err != nil {
			return false, err
		}
		p.WeeksOfMonth = append(p.WeeksOfMonth, strings.TrimSpace(weekNumber))

		return true, nil
	case "SpecialDaysOperation":
		if depth != 3 || elementChain[2] != "DateRange" {
			break
		}

		var dateRange struct {
			StartDate string
			EndDate   string
			Note      string
		}
		if err := d.DecodeElement(&dateRange, start); err != nil {
			return false, err
		}

		special := SpecialDays{
			DateRange: DateRange{
				Start: fields.Date(dateRange.StartDate),
				End:   fields.Date(dateRange.EndDate),
			},
			Operational: elementChain[1] == "DaysOfOperation",
			Note:        strings.TrimSpace(dateRange.Note),
		}
		if special.End.IsZero() {
			special.End = special.Start
		}

		if special.Start.IsZero() {
			log.Debug().Str("start", dateRange.StartDate).Msg("Special days range without a start date ignored")
		} else {
			p.SpecialDays = append(p.SpecialDays, special)
		}

		return true, nil
	case "BankHolidayOperation":
		if depth != 3 {
			break
		}

		operational := elementChain[1] == "DaysOfOperation"
		if !operational && elementChain[1] != "DaysOfNonOperation" {
			break
		}

		if elementChain[2] != "OtherPublicHoliday" {
			p.BankHolidays = append(p.BankHolidays, BankHoliday{Name: elementChain[2], Operational: operational})
			break
		}

		var otherPublicHoliday struct {
			Description string
			Date        string
		}
		if err := d.DecodeElement(&otherPublicHoliday, start); err != nil {
			return false, err
		}

		date := fields.Date(otherPublicHoliday.Date)
		if !date.IsZero() {
			p.OtherPublicHolidays = append(p.OtherPublicHolidays, OtherPublicHoliday{
				Date:        date,
				Description: strings.TrimSpace(otherPublicHoliday.Description),
				Operational: operational,
			})
		}

		return true, nil
	case "ServicedOrganisationDayType":
		if depth != 4 || elementChain[3] != "ServicedOrganisationRef" {
			break
		}

		working := elementChain[2] == "WorkingDays"
		if !working && elementChain[2] != "Holidays" {
			break
		}

		var code string
		if err := d.DecodeElement(&code, start); err != nil {
			return false, err
		}

		code = strings.TrimSpace(code)
		if code != "" {
			p.ServicedOrganisations = append(p.ServicedOrganisations, ServicedOrganisation{
				Code:        code,
				Operational: elementChain[1] == "DaysOfOperation",
				Working:     working,
			})
		}

		return true, nil
	}

	return false, nil
}
