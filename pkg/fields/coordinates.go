package fields

import (
	"math"
	"strconv"
	"strings"

	"github.com/paulcager/osgridref"
)

// Position holds both coordinate pairs for a stop or locality.
type Position struct {
	Easting   int
	Northing  int
	Latitude  float64
	Longitude float64
}

// Coordinates fills in whichever pair (national grid or WGS84) is missing
// from the source. The second result is false when neither pair is usable.
func Coordinates(easting, northing, latitude, longitude string) (Position, bool) {
	e, eOK := parseFloat(easting)
	n, nOK := parseFloat(northing)
	lat, latOK := parseFloat(latitude)
	lon, lonOK := parseFloat(longitude)

	gridOK := eOK && nOK && (e != 0 || n != 0)
	wgsOK := latOK && lonOK && (lat != 0 || lon != 0)

	switch {
	case gridOK && wgsOK:
		return Position{Easting: round(e), Northing: round(n), Latitude: lat, Longitude: lon}, true
	case gridOK:
		lat, lon, ok := ToLatLong(e, n)
		if !ok {
			return Position{}, false
		}
		return Position{Easting: round(e), Northing: round(n), Latitude: lat, Longitude: lon}, true
	case wgsOK:
		e, n := ToEastingNorthing(lat, lon)
		return Position{Easting: round(e), Northing: round(n), Latitude: lat, Longitude: lon}, true
	}

	return Position{}, false
}

// ToLatLong converts an OSGB36 national grid easting/northing to latitude
// and longitude.
func ToLatLong(easting, northing float64) (float64, float64, bool) {
	gridRef, err := osgridref.ParseOsGridRef(
		strconv.FormatFloat(easting, 'f', -1, 64) + "," + strconv.FormatFloat(northing, 'f', -1, 64),
	)
	if err != nil {
		return 0, 0, false
	}

	lat, lon := gridRef.ToLatLon()

	return lat, lon, true
}

// Airy 1830 (OSGB36) and WGS84 ellipsoids.
const (
	airyA  = 6377563.396
	airyB  = 6356256.909
	wgs84A = 6378137.0
	wgs84B = 6356752.314245
)

// National Grid projection constants.
const (
	gridF0 = 0.9996012717
	gridN0 = -100000.0
	gridE0 = 400000.0
)

var (
	gridLat0 = degrees(49)
	gridLon0 = degrees(-2)
)

// WGS84 to OSGB36 Helmert parameters: translations in metres, scale in ppm,
// rotations in arc seconds.
const (
	helmertTX = -446.448
	helmertTY = 125.157
	helmertTZ = -542.060
	helmertS  = 20.4894
	helmertRX = -0.1502
	helmertRY = -0.2470
	helmertRZ = -0.8421
)

// Whether osgridref hands back WGS84 or OSGB36 latitudes, decided from the
// OS worked example point (OSGB36 52.657570N, WGS84 52.657978N). The inverse
// below mirrors it so conversions round trip.
var gridLatLongIsWGS84 = func() bool {
	lat, _, ok := ToLatLong(651410, 313177)

	return ok && math.Abs(lat-52.657978) < math.Abs(lat-52.657570)
}()

// ToEastingNorthing converts a latitude/longitude to an OSGB36 national grid
// easting/northing in metres.
func ToEastingNorthing(latitude, longitude float64) (float64, float64) {
	lat, lon := degrees(latitude), degrees(longitude)

	if gridLatLongIsWGS84 {
		x, y, z := toCartesian(lat, lon, wgs84A, wgs84B)
		x, y, z = helmert(x, y, z)
		lat, lon = fromCartesian(x, y, z, airyA, airyB)
	}

	return project(lat, lon)
}

func toCartesian(lat, lon, a, b float64) (float64, float64, float64) {
	e2 := 1 - (b*b)/(a*a)
	sinLat := math.Sin(lat)
	nu := a / math.Sqrt(1-e2*sinLat*sinLat)

	x := nu * math.Cos(lat) * math.Cos(lon)
	y := nu * math.Cos(lat) * math.Sin(lon)
	z := (1 - e2) * nu * sinLat

	return x, y, z
}

func helmert(x, y, z float64) (float64, float64, float64) {
	s := 1 + helmertS/1e6
	rx := arcSeconds(helmertRX)
	ry := arcSeconds(helmertRY)
	rz := arcSeconds(helmertRZ)

	return helmertTX + x*s - y*rz + z*ry,
		helmertTY + x*rz + y*s - z*rx,
		helmertTZ - x*ry + y*rx + z*s
}

// Bowring's closed form, accurate to well under a millimetre at ground level.
func fromCartesian(x, y, z, a, b float64) (float64, float64) {
	e2 := (a*a - b*b) / (a * a)
	eps2 := (a*a - b*b) / (b * b)
	p := math.Hypot(x, y)
	r := math.Hypot(p, z)

	tanBeta := (b * z) / (a * p) * (1 + eps2*b/r)
	sinBeta := tanBeta / math.Sqrt(1+tanBeta*tanBeta)
	cosBeta := sinBeta / tanBeta

	lat := math.Atan2(z+eps2*b*sinBeta*sinBeta*sinBeta, p-e2*a*cosBeta*cosBeta*cosBeta)
	lon := math.Atan2(y, x)

	return lat, lon
}

// Transverse Mercator projection onto the National Grid.
func project(lat, lon float64) (float64, float64) {
	a, b := airyA, airyB
	e2 := 1 - (b*b)/(a*a)
	n := (a - b) / (a + b)
	n2, n3 := n*n, n*n*n

	sinLat, cosLat := math.Sin(lat), math.Cos(lat)
	nu := a * gridF0 / math.Sqrt(1-e2*sinLat*sinLat)
	rho := a * gridF0 * (1 - e2) / math.Pow(1-e2*sinLat*sinLat, 1.5)
	eta2 := nu/rho - 1

	dLat, sLat := lat-gridLat0, lat+gridLat0
	ma := (1 + n + (5.0/4)*n2 + (5.0/4)*n3) * dLat
	mb := (3*n + 3*n2 + (21.0/8)*n3) * math.Sin(dLat) * math.Cos(sLat)
	mc := ((15.0/8)*n2 + (15.0/8)*n3) * math.Sin(2*dLat) * math.Cos(2*sLat)
	md := (35.0 / 24) * n3 * math.Sin(3*dLat) * math.Cos(3*sLat)
	m := b * gridF0 * (ma - mb + mc - md)

	cos3 := cosLat * cosLat * cosLat
	cos5 := cos3 * cosLat * cosLat
	tan2 := math.Tan(lat) * math.Tan(lat)
	tan4 := tan2 * tan2

	i := m + gridN0
	ii := (nu / 2) * sinLat * cosLat
	iii := (nu / 24) * sinLat * cos3 * (5 - tan2 + 9*eta2)
	iiia := (nu / 720) * sinLat * cos5 * (61 - 58*tan2 + tan4)
	iv := nu * cosLat
	v := (nu / 6) * cos3 * (nu/rho - tan2)
	vi := (nu / 120) * cos5 * (5 - 18*tan2 + tan4 + 14*eta2 - 58*tan2*eta2)

	dLon := lon - gridLon0
	dLon2 := dLon * dLon

	northing := i + ii*dLon2 + iii*dLon2*dLon2 + iiia*dLon2*dLon2*dLon2
	easting := gridE0 + iv*dLon + v*dLon2*dLon + vi*dLon2*dLon2*dLon

	return easting, northing
}

func degrees(value float64) float64 {
	return value * math.Pi / 180
}

func arcSeconds(value float64) float64 {
	return degrees(value / 3600)
}

func parseFloat(value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(parsed) || math.IsInf(parsed, 0) {
		return 0, false
	}

	return parsed, true
}

func round(value float64) int {
	return int(math.Round(value))
}
