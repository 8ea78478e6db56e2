// Package geo computes great-circle distances and resolves free-text
// addresses to coordinates.
package geo

import "math"

const (
	earthRadiusKm = 6371.0
	kmToMiles     = 0.621371
)

// Coordinates is a latitude/longitude pair in degrees
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Valid reports whether the pair is within the WGS84 range
func (c Coordinates) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// HaversineKm returns the great-circle distance in kilometres
func HaversineKm(a, b Coordinates) float64 {
	dLat := toRadians(b.Lat - a.Lat)
	dLng := toRadians(b.Lng - a.Lng)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(a.Lat))*math.Cos(toRadians(b.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusKm * c
}

// DistanceMiles returns the great-circle distance in miles rounded to one decimal
func DistanceMiles(a, b Coordinates) float64 {
	return math.Round(HaversineKm(a, b)*kmToMiles*10) / 10
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
