package sensors

import (
	"math"

	"github.com/ellenhp/UnderSeaModelingLibrary/internal/seq"
)

// ScatteringModel computes the boundary scattering strength coupling a
// source grazing angle to a receiver grazing angle at each frequency of the
// shared axis. Results are linear power ratios, never negative.
type ScatteringModel interface {
	Scattering(srcGrazing, rcvGrazing float64, freq *seq.Vector) []float64
}

// LambertScattering is Lambert's rule for diffuse bottom scattering:
// strength = mu * sin(grazing_src) * sin(grazing_rcv). The classic Mackenzie
// coefficient is mu = 10^(-2.7), frequency independent.
type LambertScattering struct {
	// Mu is the linear scattering coefficient. Zero value selects the
	// Mackenzie default.
	Mu float64
}

// MackenzieMu is the default Lambert coefficient (-27 dB).
const MackenzieMu = 2.0e-3

func (l LambertScattering) Scattering(srcGrazing, rcvGrazing float64, freq *seq.Vector) []float64 {
	mu := l.Mu
	if mu == 0 {
		mu = MackenzieMu
	}
	strength := mu * math.Sin(srcGrazing) * math.Sin(rcvGrazing)
	if strength < 0 {
		strength = 0
	}
	out := make([]float64, freq.Len())
	for i := range out {
		out[i] = strength
	}
	return out
}
