// Package geo provides great-circle distance and bounding box helpers for
// locating places around a search center.
package geo

import "math"

const (
	// EarthRadiusMiles is the mean Earth radius used for all distance
	// calculations.
	EarthRadiusMiles = 3958.8
	// MetersPerDegree approximates the length of one degree of latitude.
	MetersPerDegree = 111000.0
)

// Box is a rectangular latitude/longitude region, in degrees.
type Box struct {
	South float64
	West  float64
	North float64
	East  float64
}

// Distance returns the great-circle distance in miles between two
// coordinates, using the spherical law of cosines, rounded to one decimal
// place. Inputs must be finite.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := radians(lat1)
	phi2 := radians(lat2)
	dLambda := radians(lon2 - lon1)

	c := math.Sin(phi1)*math.Sin(phi2) + math.Cos(phi1)*math.Cos(phi2)*math.Cos(dLambda)
	// Rounding error can push c just outside the domain of Acos.
	if c > 1 {
		c = 1
	} else if c < -1 {
		c = -1
	}
	return math.Round(math.Acos(c)*EarthRadiusMiles*10) / 10
}

// BoundingBox returns the box that extends radiusMeters from the center in
// each direction. The conversion treats a degree as MetersPerDegree for both
// axes, which over-covers longitude away from the equator.
func BoundingBox(lat, lon, radiusMeters float64) Box {
	d := radiusMeters / MetersPerDegree
	return Box{
		South: lat - d,
		West:  lon - d,
		North: lat + d,
		East:  lon + d,
	}
}

// Contains reports whether the coordinate lies inside the box.
func (b Box) Contains(lat, lon float64) bool {
	return lat >= b.South && lat <= b.North && lon >= b.West && lon <= b.East
}

// ValidCoordinate reports whether lat and lon are finite and within the
// ranges of latitude and longitude.
func ValidCoordinate(lat, lon float64) bool {
	if math.IsNaN(lat) || math.IsNaN(lon) || math.IsInf(lat, 0) || math.IsInf(lon, 0) {
		return false
	}
	return lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
