// Package geo provides the minimal geodetic types shared by the sensor and
// envelope packages: positions in latitude/longitude/altitude and
// spherical-earth range calculations.
package geo

import (
	"math"

	"github.com/ellenhp/UnderSeaModelingLibrary/internal/units"
)

// Position is a geodetic location. Latitude and Longitude are in degrees,
// Altitude is meters relative to the sea surface (negative below).
type Position struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Altitude  float64 `json:"altitude"`
}

// GreatCircle returns the surface distance in meters between a and b on a
// spherical earth, ignoring altitude.
func GreatCircle(a, b Position) float64 {
	lat1 := units.DegreesToRadians(a.Latitude)
	lat2 := units.DegreesToRadians(b.Latitude)
	dLat := lat2 - lat1
	dLon := units.DegreesToRadians(b.Longitude - a.Longitude)

	sinLat := math.Sin(0.5 * dLat)
	sinLon := math.Sin(0.5 * dLon)
	h := sinLat*sinLat + math.Cos(lat1)*math.Cos(lat2)*sinLon*sinLon
	return 2.0 * units.EarthRadius * math.Asin(math.Min(1.0, math.Sqrt(h)))
}

// SlantRange returns the straight-line distance in meters between a and b,
// combining surface distance with the altitude difference.
func SlantRange(a, b Position) float64 {
	surface := GreatCircle(a, b)
	dAlt := b.Altitude - a.Altitude
	return math.Hypot(surface, dAlt)
}
