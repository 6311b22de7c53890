// Package sensors models the sensor-facing collaborators of the envelope
// engine: beam patterns, scattering strength, orientation, and the sensor
// pair that owns a reverberation run and publishes completed envelopes to
// listeners.
package sensors

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/ellenhp/UnderSeaModelingLibrary/internal/seq"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/units"
)

// Orientation is the pointing of a sensor array. Angles in radians; Heading
// is clockwise from true north.
type Orientation struct {
	Heading float64
	Pitch   float64
	Roll    float64
}

// BeamPattern evaluates the gain of one beam toward a given direction at
// each frequency of the shared axis. Implementations are immutable and safe
// for concurrent use.
type BeamPattern interface {
	// BeamLevel returns the linear gain toward depression/elevation angle
	// de and azimuth az (radians), steered by orient, at each frequency.
	BeamLevel(de, az float64, orient Orientation, freq *seq.Vector) []float64

	// DirectivityIndex returns the pattern's directivity index in dB at
	// each frequency.
	DirectivityIndex(freq *seq.Vector) []float64
}

// OmniPattern is an omnidirectional beam with unit gain everywhere.
type OmniPattern struct{}

func (OmniPattern) BeamLevel(de, az float64, orient Orientation, freq *seq.Vector) []float64 {
	level := make([]float64, freq.Len())
	for i := range level {
		level[i] = 1.0
	}
	return level
}

func (OmniPattern) DirectivityIndex(freq *seq.Vector) []float64 {
	return make([]float64, freq.Len())
}

// SinePattern is a frequency-independent sine-projection pattern: gain is
// the squared projection of the arrival direction onto the array normal
// steered to (Pitch, Heading). Gain never goes negative.
type SinePattern struct{}

func (SinePattern) BeamLevel(de, az float64, orient Orientation, freq *seq.Vector) []float64 {
	theta := math.Pi/2 - de
	sint := math.Sin(0.5*(theta-(math.Pi/2-orient.Pitch)) + 1e-10)
	sinp := math.Sin(0.5*(az-orient.Heading) + 1e-10)
	dotnorm := 1.0 - 2.0*(sint*sint+
		math.Sin(theta)*math.Cos(orient.Pitch)*sinp*sinp)
	gain := math.Max(0, dotnorm)

	level := make([]float64, freq.Len())
	for i := range level {
		level[i] = gain
	}
	return level
}

func (SinePattern) DirectivityIndex(freq *seq.Vector) []float64 {
	level := make([]float64, freq.Len())
	for i := range level {
		level[i] = units.LinearToDB(2.0)
	}
	return level
}

// GainMatrix evaluates a set of beam patterns toward one direction and packs
// the results into the frequency-by-beam matrix consumed by
// Collection.AddContribution.
func GainMatrix(patterns []BeamPattern, de, az float64, orient Orientation, freq *seq.Vector) *mat.Dense {
	gain := mat.NewDense(freq.Len(), len(patterns), nil)
	for b, p := range patterns {
		level := p.BeamLevel(de, az, orient, freq)
		for f := 0; f < freq.Len(); f++ {
			gain.Set(f, b, level[f])
		}
	}
	return gain
}
