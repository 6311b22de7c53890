// Package units provides shared acoustic constants and conversions.
package units

import "math"

// SoundSpeed is the nominal speed of sound in sea water (m/s) used for
// travel-time conversions when no profile is available.
const SoundSpeed = 1500.0

// EarthRadius is the mean radius of the earth (meters) used for
// spherical-earth range calculations.
const EarthRadius = 6371000.0

// MetersPerDegreeLat converts meters of great-circle distance into
// degrees of latitude (1 degree = 60 nautical miles).
const MetersPerDegreeLat = 1.0 / (1852.0 * 60.0)

// TwoPi shows up in every Gaussian normalization in the envelope model.
const TwoPi = 2.0 * math.Pi

// LinearToDB converts a linear power ratio to decibels.
// Returns -inf for non-positive input.
func LinearToDB(linear float64) float64 {
	return 10.0 * math.Log10(linear)
}

// DBToLinear converts decibels to a linear power ratio.
func DBToLinear(db float64) float64 {
	return math.Pow(10.0, db/10.0)
}

// DegreesToRadians converts an angle in degrees to radians.
func DegreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

// RadiansToDegrees converts an angle in radians to degrees.
func RadiansToDegrees(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
