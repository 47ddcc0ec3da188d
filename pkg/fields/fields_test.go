package fields

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCaseFolding(t *testing.T) {
	assert.Equal(t, "490000077E", Upper(" 490000077e "))
	assert.Equal(t, "nwmaddg", Lower("NWMADDG "))
	assert.Equal(t, "", Upper("   "))
}

func TestCapitalise(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"HIGH STREET", "High Street"},
		{"High St", "High St"},
		{"  MARKET   PLACE ", "Market Place"},
		{"", ""},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			assert.Equal(t, test.expected, Capitalise(test.input))
		})
	}
}

func TestDescriptor(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"---", ""},
		{"*", ""},
		{"None", ""},
		{"NONE", ""},
		{"CHURCH LANE", "Church Lane"},
		{"Church  Lane", "Church Lane"},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			assert.Equal(t, test.expected, Descriptor(test.input))
		})
	}
}

func TestShortIndicator(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Opposite", "opp"},
		{"opp", "opp"},
		{"Near", "nr"},
		{"adjacent to", "adj"},
		{"Outside", "o/s"},
		{"Stop A", "A"},
		{"Stand 12", "12"},
		{"Bay B2", "B2"},
		{"Northbound", "->N"},
		{"Stop 3 Southbound", "3 ->S"},
		{"opp north-eastbound", "opp ->NE"},
		{"Stop", "Stop"},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			assert.Equal(t, test.expected, ShortIndicator(test.input))
		})
	}
}

func TestDestination(t *testing.T) {
	assert.Equal(t, "Leeds Bus Station", Destination("LEEDS BUS STATION (Y12)"))
	assert.Equal(t, "Leeds Bus Station", Destination("Leeds Bus Station Bus Station"))
	assert.Equal(t, "Town Centre", Destination(" Town Centre - "))
	assert.Equal(t, "Leeds (City Centre)", Destination("Leeds (City Centre)"))
}

func TestSeconds(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"PT2M30S", 150},
		{"PT1H", 3600},
		{"PT0S", 0},
		{"", 0},
		{"ten minutes", 0},
	}

	for _, test := range tests {
		t.Run(test.input, func(t *testing.T) {
			assert.Equal(t, test.expected, Seconds(test.input))
		})
	}
}

func TestDates(t *testing.T) {
	assert.Equal(t, time.Date(2024, time.May, 27, 0, 0, 0, 0, time.UTC), Date("2024-05-27"))
	assert.True(t, Date("27/05/2024").IsZero())

	assert.Equal(t, 2019, DateTime("2019-03-01T10:11:12").Year())
	assert.Equal(t, 2019, DateTime("2019-03-01T10:11:12+01:00").Year())
	assert.True(t, DateTime("yesterday").IsZero())

	assert.Equal(t, "07:05:00", ClockTime("07:05:00"))
	assert.Equal(t, "07:05:00", ClockTime("07:05"))
	assert.Equal(t, "", ClockTime("7am"))
}

func TestProjectionMatchesOSWorkedExample(t *testing.T) {
	// OSGB36 52°39′27.2531″N 1°43′4.5177″E
	lat := degrees(52 + 39.0/60 + 27.2531/3600)
	lon := degrees(1 + 43.0/60 + 4.5177/3600)

	easting, northing := project(lat, lon)

	assert.InDelta(t, 651409.903, easting, 0.01)
	assert.InDelta(t, 313177.270, northing, 0.01)
}

func TestCoordinateRoundTrip(t *testing.T) {
	points := [][2]float64{
		{651410, 313177},
		{530000, 180000},
		{429157, 433804},
		{325784, 673546},
		{213400, 75600},
	}

	for _, point := range points {
		lat, lon, ok := ToLatLong(point[0], point[1])
		require.True(t, ok)

		easting, northing := ToEastingNorthing(lat, lon)

		assert.InDelta(t, point[0], easting, 1)
		assert.InDelta(t, point[1], northing, 1)
	}
}

func TestCoordinates(t *testing.T) {
	t.Run("grid only", func(t *testing.T) {
		position, ok := Coordinates("530000", "180000", "", "")
		require.True(t, ok)

		assert.Equal(t, 530000, position.Easting)
		assert.InDelta(t, 51.5, position.Latitude, 0.1)
		assert.InDelta(t, -0.13, position.Longitude, 0.1)
	})

	t.Run("wgs84 only", func(t *testing.T) {
		lat, lon, ok := ToLatLong(429157, 433804)
		require.True(t, ok)

		position, ok := Coordinates("", "", formatFloat(lat), formatFloat(lon))
		require.True(t, ok)

		assert.InDelta(t, 429157, position.Easting, 1)
		assert.InDelta(t, 433804, position.Northing, 1)
	})

	t.Run("both", func(t *testing.T) {
		position, ok := Coordinates("429157", "433804", "53.79", "-1.55")
		require.True(t, ok)

		assert.Equal(t, Position{Easting: 429157, Northing: 433804, Latitude: 53.79, Longitude: -1.55}, position)
	})

	t.Run("neither", func(t *testing.T) {
		_, ok := Coordinates("", "", "", "")
		assert.False(t, ok)

		_, ok = Coordinates("abc", "def", "0", "0")
		assert.False(t, ok)
	})
}

func formatFloat(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}
