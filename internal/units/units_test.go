package units

import (
	"math"
	"testing"
)

func TestLinearToDBRoundTrip(t *testing.T) {
	for _, db := range []float64{-60, -20, -3, 0, 3, 20, 60} {
		got := LinearToDB(DBToLinear(db))
		if math.Abs(got-db) > 1e-9 {
			t.Errorf("round trip for %v dB = %v", db, got)
		}
	}
}

func TestLinearToDBNonPositive(t *testing.T) {
	if v := LinearToDB(0); !math.IsInf(v, -1) {
		t.Errorf("LinearToDB(0) = %v, want -Inf", v)
	}
}

func TestAngleConversions(t *testing.T) {
	if got := DegreesToRadians(180); math.Abs(got-math.Pi) > 1e-12 {
		t.Errorf("DegreesToRadians(180) = %v", got)
	}
	if got := RadiansToDegrees(math.Pi / 2); math.Abs(got-90) > 1e-12 {
		t.Errorf("RadiansToDegrees(pi/2) = %v", got)
	}
}

func TestMetersPerDegreeLat(t *testing.T) {
	// One degree of latitude is 60 nautical miles.
	if got := 1.0 / MetersPerDegreeLat; math.Abs(got-111120.0) > 1e-6 {
		t.Errorf("degree of latitude = %v m, want 111120", got)
	}
}
