package geo

import (
	"math"
	"testing"

	"github.com/ellenhp/UnderSeaModelingLibrary/internal/units"
)

func TestGreatCircleZero(t *testing.T) {
	p := Position{Latitude: 10, Longitude: 20, Altitude: -100}
	if d := GreatCircle(p, p); d != 0 {
		t.Errorf("distance to self = %v", d)
	}
}

func TestGreatCircleOneDegreeLat(t *testing.T) {
	a := Position{Latitude: 0, Longitude: 0}
	b := Position{Latitude: 1, Longitude: 0}
	got := GreatCircle(a, b)
	want := units.EarthRadius * math.Pi / 180.0
	if math.Abs(got-want) > 1.0 {
		t.Errorf("one degree of latitude = %v m, want %v", got, want)
	}
}

func TestSlantRangeVertical(t *testing.T) {
	a := Position{Latitude: 5, Longitude: 5, Altitude: -30}
	b := Position{Latitude: 5, Longitude: 5, Altitude: -230}
	if got := SlantRange(a, b); math.Abs(got-200) > 1e-9 {
		t.Errorf("vertical slant range = %v, want 200", got)
	}
}

func TestSlantRangeCombines(t *testing.T) {
	a := Position{Latitude: 0, Longitude: 0, Altitude: 0}
	b := Position{Latitude: 0, Longitude: 0.01, Altitude: -400}
	surface := GreatCircle(a, b)
	want := math.Hypot(surface, 400)
	if got := SlantRange(a, b); math.Abs(got-want) > 1e-9 {
		t.Errorf("slant range = %v, want %v", got, want)
	}
}
