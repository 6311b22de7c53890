package eigenverb

import (
	"math"

	"github.com/ellenhp/UnderSeaModelingLibrary/internal/seq"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/units"
)

// supportSigmas bounds the temporal support of each contribution. Beyond
// this many standard deviations the Gaussian is treated as exactly zero and
// never evaluated.
const supportSigmas = 5.0

// envelopeModel computes the bounded-support Gaussian contribution for one
// source/receiver eigenverb pair. A single instance is owned by a Collection
// and is only invoked while the collection's write lock is held, so its
// scratch buffers are reused across pairs without further synchronization.
type envelopeModel struct {
	freq           *seq.Vector
	travelTime     *seq.Vector
	pulseLength    float64
	threshold      float64
	reverbDuration float64

	// Results of the most recent compute call.
	peak     []float64 // per-frequency peak intensity, zero when thresholded
	shape    []float64 // normalized time shape over [binFirst, binLast]
	binFirst int
	binLast  int
}

func newEnvelopeModel(freq, travelTime *seq.Vector, pulseLength, threshold, reverbDuration float64) *envelopeModel {
	return &envelopeModel{
		freq:           freq,
		travelTime:     travelTime,
		pulseLength:    pulseLength,
		threshold:      threshold,
		reverbDuration: reverbDuration,
		peak:           make([]float64, freq.Len()),
		shape:          make([]float64, travelTime.Len()),
	}
}

// compute evaluates the contribution of one eigenverb pair. It returns false
// when the pair contributes nothing: combined travel time outside the
// reverberation window, degenerate footprint overlap, or every frequency
// below the intensity threshold. On success, peak holds the per-frequency
// peak intensities and shape the common unit-peak time profile over
// [binFirst, binLast].
func (m *envelopeModel) compute(src, rcv *Eigenverb, scatter []float64, xs2, ys2, initialTime float64) bool {
	sigma := m.duration(src, rcv)
	center := src.Time + rcv.Time - initialTime
	halfWidth := supportSigmas * sigma

	// Reject pairs whose support misses the reverberation window entirely
	// before touching any per-frequency state.
	if center+halfWidth < 0 || center-halfWidth > m.reverbDuration {
		return false
	}
	if !m.findSupport(center, halfWidth) {
		return false
	}

	// Overlap of the two elliptical Gaussian footprints. The receiver
	// footprint is rotated into the source frame; the cross term of the
	// combined covariance is dropped because callers supply only squared
	// offsets along the receiver's principal axes.
	alpha := src.Direction - rcv.Direction
	sinA, cosA := math.Sincos(alpha)
	along := src.Length2 + rcv.Length2*cosA*cosA + rcv.Width2*sinA*sinA
	across := src.Width2 + rcv.Length2*sinA*sinA + rcv.Width2*cosA*cosA
	coupling := (rcv.Length2 - rcv.Width2) * sinA * cosA
	det := along*across - coupling*coupling
	if det <= 0 || along <= 0 || across <= 0 {
		return false
	}
	falloff := math.Exp(-0.5 * (xs2/along + ys2/across))
	norm := units.TwoPi / math.Sqrt(det) * falloff / (sigma * math.Sqrt(units.TwoPi))

	any := false
	for f := 0; f < m.freq.Len(); f++ {
		s := scatter[f]
		if s <= 0 {
			m.peak[f] = 0
			continue
		}
		p := norm * src.Energy[f] * rcv.Energy[f] * s
		if p < m.threshold {
			m.peak[f] = 0
			continue
		}
		m.peak[f] = p
		any = true
	}
	if !any {
		return false
	}

	for t := m.binFirst; t <= m.binLast; t++ {
		arg := (m.travelTime.At(t) - center) / sigma
		m.shape[t-m.binFirst] = math.Exp(-0.5 * arg * arg)
	}
	return true
}

// duration combines the transmitted pulse length with the temporal spreading
// of both footprints projected onto the propagation path through their
// grazing angles. Defines the standard deviation of the envelope pulse.
func (m *envelopeModel) duration(src, rcv *Eigenverb) float64 {
	sigma2 := 0.25 * m.pulseLength * m.pulseLength
	sinS := math.Sin(src.Grazing)
	sinR := math.Sin(rcv.Grazing)
	sigma2 += src.Width2 * sinS * sinS / (units.SoundSpeed * units.SoundSpeed)
	sigma2 += rcv.Width2 * sinR * sinR / (units.SoundSpeed * units.SoundSpeed)
	return math.Sqrt(sigma2)
}

// findSupport clips [center-halfWidth, center+halfWidth] onto the travel
// time axis. Bins strictly outside the interval are never written.
func (m *envelopeModel) findSupport(center, halfWidth float64) bool {
	tMin := center - halfWidth
	tMax := center + halfWidth
	if tMax < m.travelTime.First() || tMin > m.travelTime.Last() {
		return false
	}
	first := m.travelTime.Find(tMin)
	if m.travelTime.At(first) < tMin {
		first++
	}
	last := m.travelTime.Find(tMax)
	if m.travelTime.At(last) > tMax {
		last--
	}
	if first > last {
		return false
	}
	m.binFirst = first
	m.binLast = last
	return true
}
