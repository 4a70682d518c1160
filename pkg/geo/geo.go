package geo

import (
	"math"
)

// EarthRadiusKm is the mean Earth radius used by every spherical calculation in this package.
const EarthRadiusKm = 6371.0

// DefaultBeamDistanceKm is the distance DestinationPoint callers use when none is given.
const DefaultBeamDistanceKm = 10000.0

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// Point represents a geographic coordinate.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Distance calculates the Haversine distance between two points in kilometers.
func Distance(p1, p2 Point) float64 {
	dLat := (p2.Lat - p1.Lat) * degToRad
	dLon := (p2.Lon - p1.Lon) * degToRad
	lat1 := p1.Lat * degToRad
	lat2 := p2.Lat * degToRad

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLon/2)*math.Sin(dLon/2)*math.Cos(lat1)*math.Cos(lat2)
	// Clamp against rounding just above 1 for antipodal pairs
	a = math.Min(1, math.Max(0, a))
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return EarthRadiusKm * c
}

// BearingBetween calculates the initial great-circle bearing from origin to destination,
// rounded to the nearest whole degree in [0, 360).
// Coincident points are undefined and yield 0.
func BearingBetween(origin, destination Point) float64 {
	lat1 := origin.Lat * degToRad
	lat2 := destination.Lat * degToRad
	dLon := (destination.Lon - origin.Lon) * degToRad

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	brng := math.Atan2(y, x)

	deg := math.Round(math.Mod(brng*radToDeg+360.0, 360.0))
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// DestinationPoint calculates the point reached from origin after travelling distanceKm along
// the given initial bearing (degrees). Longitude is normalized into (-180, 180].
func DestinationPoint(origin Point, bearing, distanceKm float64) Point {
	lat1 := origin.Lat * degToRad
	lon1 := origin.Lon * degToRad
	brng := bearing * degToRad
	delta := distanceKm / EarthRadiusKm

	sinLat2 := math.Sin(lat1)*math.Cos(delta) +
		math.Cos(lat1)*math.Sin(delta)*math.Cos(brng)
	// Asin is NaN outside [-1, 1]; rounding can push us there at the poles
	sinLat2 = math.Min(1, math.Max(-1, sinLat2))
	lat2 := math.Asin(sinLat2)
	lon2 := lon1 + math.Atan2(math.Sin(brng)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*sinLat2)

	return Point{
		Lat: lat2 * radToDeg,
		Lon: NormalizeLongitude(lon2 * radToDeg),
	}
}

// NormalizeLongitude maps any longitude into (-180, 180].
func NormalizeLongitude(lon float64) float64 {
	n := math.Mod(lon+540.0, 360.0)
	if n < 0 {
		n += 360
	}
	n -= 180
	if n == -180 {
		return 180
	}
	return n
}

// NormalizeBearing maps any angle into [0, 360).
func NormalizeBearing(deg float64) float64 {
	n := math.Mod(deg, 360.0)
	if n < 0 {
		n += 360
	}
	if n >= 360 {
		n = 0
	}
	return n
}

// CircularDistance returns the shorter angular separation between two bearings, in [0, 180].
func CircularDistance(a, b float64) float64 {
	d := math.Abs(NormalizeBearing(a) - NormalizeBearing(b))
	return math.Min(d, 360-d)
}

// NormalizeAngle normalizes an angle difference to the range [-180, 180].
func NormalizeAngle(angleDeg float64) float64 {
	for angleDeg > 180 {
		angleDeg -= 360
	}
	for angleDeg < -180 {
		angleDeg += 360
	}
	return angleDeg
}
