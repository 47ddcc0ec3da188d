package travelinenoc

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travigo/populate/pkg/engine"
	"github.com/travigo/populate/pkg/records"
)

const nocDatabase = `<?xml version="1.0" encoding="UTF-8"?>
<travelinedata generationDate="2024-05-01">
  <NOCLines>
    <NOCLinesRecord>
      <NOCCODE>=FLDS</NOCCODE>
      <PubNm>First Leeds (old)</PubNm>
      <Licence>PB0000123</Licence>
      <Mode>Bus</Mode>
      <YO>FLDS</YO>
      <NW></NW>
      <SC>flds</SC>
    </NOCLinesRecord>
    <NOCLinesRecord>
      <NOCCODE>TFLO</NOCCODE>
      <PubNm>London Underground</PubNm>
      <Mode>Underground</Mode>
      <LO>LUL</LO>
    </NOCLinesRecord>
    <NOCLinesRecord>
      <NOCCODE>BLNK</NOCCODE>
      <PubNm> </PubNm>
      <YO>BLNK</YO>
    </NOCLinesRecord>
  </NOCLines>
  <NOCTable>
    <NOCTableRecord>
      <NOCCODE>FLDS</NOCCODE>
      <OperatorPublicName>First Leeds</OperatorPublicName>
      <VOSA_PSVLicenseName>FIRST WEST YORKSHIRE LTD</VOSA_PSVLicenseName>
      <OpId>1</OpId>
      <PubNmId>100</PubNmId>
    </NOCTableRecord>
  </NOCTable>
  <PublicName>
    <PublicNameRecord>
      <PubNmId>100</PubNmId>
      <OperatorPublicName>First West Yorkshire</OperatorPublicName>
      <TTRteEnq>0113 123 4567</TTRteEnq>
      <ComplEnq>customer.services@firstgroup.com</ComplEnq>
      <LostPropEnq>Hunslet Park Depot, Leeds</LostPropEnq>
      <Twitter>@FirstWestYorks</Twitter>
      <Website>First#https://www.firstbus.co.uk/leeds#</Website>
    </PublicNameRecord>
  </PublicName>
</travelinedata>`

func transform(t *testing.T) *records.Document {
	document, err := Definition.Transform(context.Background(), "NOC_DB.xml", strings.NewReader(nocDatabase), engine.Params{})
	require.NoError(t, err)

	return document
}

func TestOperators(t *testing.T) {
	operators := transform(t).Get(records.TypeOperator)
	require.Len(t, operators, 2, "operators without a name are dropped")

	first := operators[0]
	assert.Equal(t, "FLDS", first["code"])
	assert.Equal(t, "First West Yorkshire", first["name"])
	assert.Equal(t, "FIRST WEST YORKSHIRE LTD", first["licence_name"])
	assert.Equal(t, "bus", first["mode"])
	assert.Equal(t, "https://www.firstbus.co.uk/leeds", first["website"])
	assert.Equal(t, "@FirstWestYorks", first["twitter"])
	assert.Equal(t, "customer.services@firstgroup.com", first["email"])
	assert.Equal(t, "0113 123 4567", first["phone"])
	assert.Equal(t, "Hunslet Park Depot, Leeds", first["address"])

	underground := operators[1]
	assert.Equal(t, "London Underground", underground["name"])
	assert.Equal(t, "metro", underground["mode"])
	assert.Nil(t, underground["website"])
	assert.Nil(t, underground["email"])
}

func TestLocalOperators(t *testing.T) {
	localOperators := transform(t).Get(records.TypeLocalOperator)
	require.Len(t, localOperators, 3)

	assert.Equal(t, records.Record{"region_ref": "Y", "code": "FLDS", "operator_ref": "FLDS", "name": "First West Yorkshire"}, localOperators[0])
	assert.Equal(t, "S", localOperators[1]["region_ref"])
	assert.Equal(t, "FLDS", localOperators[1]["code"])
	assert.Equal(t, records.Record{"region_ref": "L", "code": "LUL", "operator_ref": "TFLO", "name": "London Underground"}, localOperators[2])
}
