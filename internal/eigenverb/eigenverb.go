// Package eigenverb implements the reverberation envelope accumulation
// engine: the per-(azimuth, source beam, receiver beam) intensity-vs-time
// store and the Gaussian contribution model that fills it from overlapping
// source/receiver eigenverb pairs.
package eigenverb

import (
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/geo"
)

// Eigenverb is the footprint of a single ray bundle's interaction with an
// ocean boundary, produced by an external propagator. The engine reads but
// never mutates it. Energy is expressed on the engine's shared frequency
// axis before any contribution is added.
type Eigenverb struct {
	// Position of the boundary interaction.
	Position geo.Position

	// Direction is the heading of the footprint's major axis (radians,
	// clockwise from true north).
	Direction float64

	// Azimuth is the launch azimuth of the ray bundle relative to true
	// north (radians). Used to select the receiver azimuth bucket.
	Azimuth float64

	// Time is the one-way travel time from the sensor to the boundary
	// interaction (sec).
	Time float64

	// Grazing is the grazing angle at the boundary (radians).
	Grazing float64

	// Energy is the ray-bundle energy at each frequency (linear units).
	Energy []float64

	// Length2 and Width2 are the squared spatial spreading of the
	// footprint along and across its major axis (m^2).
	Length2 float64
	Width2  float64

	// Boundary interaction counts along the path.
	Surface  int
	Bottom   int
	Caustics int
}

// Collections group eigenverbs by the sensor and boundary that produced
// them.
type Collections map[int64][]*Eigenverb
