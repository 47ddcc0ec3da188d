package naptan

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/populate/pkg/engine"
	"github.com/travigo/populate/pkg/records"
)

const stops = `<?xml version="1.0" encoding="UTF-8"?>
<NaPTAN xmlns="http://www.naptan.org.uk/" SchemaVersion="2.4" ModificationDateTime="2024-01-01T00:00:00">
  <StopPoints>
    <StopPoint Status="active" ModificationDateTime="2023-05-02T10:11:12">
      <AtcoCode>450012345</AtcoCode>
      <NaptanCode>WYJGDTM</NaptanCode>
      <Descriptor>
        <CommonName>Infirmary Street</CommonName>
        <Landmark>---</Landmark>
        <Street>PARK ROW</Street>
        <Indicator>Stop Z4</Indicator>
      </Descriptor>
      <Place>
        <NptgLocalityRef>E0057900</NptgLocalityRef>
        <Location>
          <Translation>
            <Easting>429800</Easting>
            <Northing>433700</Northing>
            <Longitude>-1.5493</Longitude>
            <Latitude>53.7972</Latitude>
          </Translation>
        </Location>
      </Place>
      <StopClassification>
        <StopType>BCT</StopType>
        <OnStreet><Bus><BusStopType>MKD</BusStopType><MarkedPoint><Bearing><CompassPoint>n</CompassPoint></Bearing></MarkedPoint></Bus></OnStreet>
      </StopClassification>
      <StopAreas>
        <StopAreaRef>450g00000001</StopAreaRef>
        <StopAreaRef>450G00000002</StopAreaRef>
      </StopAreas>
      <AdministrativeAreaRef>099</AdministrativeAreaRef>
    </StopPoint>
    <StopPoint Status="inactive">
      <AtcoCode>450099999</AtcoCode>
      <Descriptor><CommonName>Closed Stop</CommonName><Indicator>opposite</Indicator></Descriptor>
      <StopClassification><StopType>BCT</StopType></StopClassification>
      <AdministrativeAreaRef>099</AdministrativeAreaRef>
    </StopPoint>
    <StopPoint Status="active">
      <AtcoCode>9100LEEDS</AtcoCode>
      <Descriptor><CommonName>Leeds Rail Station</CommonName></Descriptor>
      <StopClassification><StopType>RLY</StopType></StopClassification>
      <AdministrativeAreaRef>110</AdministrativeAreaRef>
    </StopPoint>
  </StopPoints>
  <StopAreas>
    <StopArea Status="active">
      <StopAreaCode>450G00000001</StopAreaCode>
      <Name>Leeds City Bus Station</Name>
      <AdministrativeAreaRef>099</AdministrativeAreaRef>
      <StopAreaType>GBPS</StopAreaType>
      <Location>
        <Translation><Easting>430500</Easting><Northing>433400</Northing></Translation>
      </Location>
    </StopArea>
  </StopAreas>
</NaPTAN>`

func transform(t *testing.T, params engine.Params) *records.Document {
	document, err := Definition.Transform(context.Background(), "Stops.xml", strings.NewReader(stops), params)
	require.NoError(t, err)

	return document
}

func TestStopPoints(t *testing.T) {
	stopPoints := transform(t, engine.Params{}).Get(records.TypeStopPoint)
	require.Len(t, stopPoints, 1, "inactive and rail stops are left out")

	stop := stopPoints[0]
	assert.Equal(t, "450012345", stop["atco_code"])
	assert.Equal(t, "wyjgdtm", stop["naptan_code"])
	assert.Equal(t, "Infirmary Street", stop["name"])
	assert.Nil(t, stop["landmark"])
	assert.Equal(t, "Park Row", stop["street"])
	assert.Equal(t, "Stop Z4", stop["indicator"])
	assert.Equal(t, "Z4", stop["short_ind"])
	assert.Equal(t, "N", stop["bearing"])
	assert.Equal(t, true, stop["active"])
	assert.Equal(t, "450G00000001", stop["stop_area_ref"])
	assert.Equal(t, "E0057900", stop["locality_ref"])
	assert.Equal(t, 429800, stop["easting"])
	assert.Equal(t, 53.7972, stop["latitude"])
	assert.NotNil(t, stop["modified"])
}

func TestIncludeInactive(t *testing.T) {
	stopPoints := transform(t, engine.Params{IncludeInactive: "true"}).Get(records.TypeStopPoint)
	require.Len(t, stopPoints, 2)

	assert.Equal(t, false, stopPoints[1]["active"])
	assert.Equal(t, "opp", stopPoints[1]["short_ind"])
}

func TestStopAreas(t *testing.T) {
	stopAreas := transform(t, engine.Params{}).Get(records.TypeStopArea)
	require.Len(t, stopAreas, 1)

	area := stopAreas[0]
	assert.Equal(t, "GPBS", area["stop_area_type"])
	assert.Equal(t, "E0057900", area["locality_ref"])
	assert.NotNil(t, area["latitude"])
}

func TestSchemaVersion(t *testing.T) {
	_, err := Definition.Transform(context.Background(), "Stops.xml",
		strings.NewReader(strings.Replace(stops, `SchemaVersion="2.4"`, `SchemaVersion="1.1"`, 1)), engine.Params{})
	assert.ErrorContains(t, err, "SchemaVersion")
}

func TestStopAreaType(t *testing.T) {
	tests := []struct {
		value    string
		expected string
	}{
		{value: "GBPS", expected: "GPBS"},
		{value: "gbps", expected: "GPBS"},
		{value: "GPBS", expected: "GPBS"},
		{value: "gcls", expected: "GCLS"},
	}

	for _, test := range tests {
		t.Run(test.value, func(t *testing.T) {
			assert.Equal(t, test.expected, stopAreaType(test.value))
		})
	}
}

func TestStopPointWithoutAdminArea(t *testing.T) {
	document := strings.Replace(stops, "<AdministrativeAreaRef>099</AdministrativeAreaRef>", "", 1)

	result, err := Definition.Transform(context.Background(), "Stops.xml", strings.NewReader(document), engine.Params{})
	require.NoError(t, err)

	assert.Empty(t, result.Get(records.TypeStopPoint))
}
