package eigenverb

import (
	"fmt"
	"math"
	"sync"

	"gonum.org/v1/gonum/mat"

	"github.com/ellenhp/UnderSeaModelingLibrary/internal/geo"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/seq"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/units"
)

// CollectionConfig carries the construction-time scenario parameters for a
// Collection. Axis vectors are shared by reference and must outlive the
// collection; they are never mutated.
type CollectionConfig struct {
	Frequencies *seq.Vector // envelope frequencies (Hz)
	TravelTimes *seq.Vector // two-way travel times (sec)

	ReverbDuration float64 // length of the reverberation window (sec)
	PulseLength    float64 // transmitted pulse duration (sec)
	Threshold      float64 // minimum peak intensity for a contribution

	NumAzimuths int // receiver azimuth buckets
	NumSrcBeams int // source beams
	NumRcvBeams int // receiver beams

	InitialTime float64 // arrival time of the fastest eigenray (sec)

	SourceID   int64
	ReceiverID int64

	SourcePosition   geo.Position
	ReceiverPosition geo.Position

	// ReceiverHeading orients the azimuth buckets (radians, clockwise from
	// true north).
	ReceiverHeading float64
}

// Collection stores the reverberation envelope time series for every
// combination of receiver azimuth, source beam and receiver beam. Each cell
// is an N_f x N_t intensity matrix (frequency rows, travel-time columns)
// held in one flat buffer so a whole-grid operation touches contiguous
// memory. A single RWMutex guards the grid and the positional metadata:
// writers (AddContribution, SetEnvelope, DeadReckon, metadata setters) take
// the exclusive lock, readers (Envelope, snapshot export) the shared lock.
type Collection struct {
	freq           *seq.Vector
	travelTime     *seq.Vector
	reverbDuration float64
	pulseLength    float64
	threshold      float64
	numAzimuths    int
	numSrcBeams    int
	numRcvBeams    int
	sourceID       int64
	receiverID     int64

	mu              sync.RWMutex
	initialTime     float64
	slantRange      float64
	srcPosition     geo.Position
	rcvPosition     geo.Position
	receiverHeading float64
	data            []float64 // len = A*S*R*N_f*N_t
	model           *envelopeModel
}

// NewCollection allocates the full A x S x R grid of zeroed envelope
// matrices. Returns ErrConfiguration when the scenario parameters are
// inconsistent.
func NewCollection(cfg CollectionConfig) (*Collection, error) {
	if cfg.Frequencies == nil || cfg.Frequencies.Len() == 0 {
		return nil, fmt.Errorf("%w: empty frequency axis", ErrConfiguration)
	}
	if cfg.TravelTimes == nil || cfg.TravelTimes.Len() == 0 {
		return nil, fmt.Errorf("%w: empty travel time axis", ErrConfiguration)
	}
	if cfg.Frequencies.First() <= 0 {
		return nil, fmt.Errorf("%w: frequencies must be positive, first is %v",
			ErrConfiguration, cfg.Frequencies.First())
	}
	if cfg.TravelTimes.First() < 0 {
		return nil, fmt.Errorf("%w: travel times must be non-negative, first is %v",
			ErrConfiguration, cfg.TravelTimes.First())
	}
	if cfg.PulseLength <= 0 {
		return nil, fmt.Errorf("%w: pulse length %v must be positive",
			ErrConfiguration, cfg.PulseLength)
	}
	if cfg.ReverbDuration <= 0 {
		return nil, fmt.Errorf("%w: reverb duration %v must be positive",
			ErrConfiguration, cfg.ReverbDuration)
	}
	if cfg.Threshold < 0 {
		return nil, fmt.Errorf("%w: threshold %v must be non-negative",
			ErrConfiguration, cfg.Threshold)
	}
	if cfg.NumAzimuths < 1 || cfg.NumSrcBeams < 1 || cfg.NumRcvBeams < 1 {
		return nil, fmt.Errorf("%w: counts azimuths=%d src_beams=%d rcv_beams=%d must be >= 1",
			ErrConfiguration, cfg.NumAzimuths, cfg.NumSrcBeams, cfg.NumRcvBeams)
	}

	size := cfg.NumAzimuths * cfg.NumSrcBeams * cfg.NumRcvBeams *
		cfg.Frequencies.Len() * cfg.TravelTimes.Len()
	c := &Collection{
		freq:            cfg.Frequencies,
		travelTime:      cfg.TravelTimes,
		reverbDuration:  cfg.ReverbDuration,
		pulseLength:     cfg.PulseLength,
		threshold:       cfg.Threshold,
		numAzimuths:     cfg.NumAzimuths,
		numSrcBeams:     cfg.NumSrcBeams,
		numRcvBeams:     cfg.NumRcvBeams,
		sourceID:        cfg.SourceID,
		receiverID:      cfg.ReceiverID,
		initialTime:     cfg.InitialTime,
		srcPosition:     cfg.SourcePosition,
		rcvPosition:     cfg.ReceiverPosition,
		receiverHeading: cfg.ReceiverHeading,
		slantRange:      geo.SlantRange(cfg.SourcePosition, cfg.ReceiverPosition),
		data:            make([]float64, size),
	}
	c.model = newEnvelopeModel(c.freq, c.travelTime, c.pulseLength, c.threshold, c.reverbDuration)
	return c, nil
}

// Immutable metadata accessors.

func (c *Collection) SourceID() int64          { return c.sourceID }
func (c *Collection) ReceiverID() int64        { return c.receiverID }
func (c *Collection) Frequencies() *seq.Vector { return c.freq }
func (c *Collection) TravelTimes() *seq.Vector { return c.travelTime }
func (c *Collection) PulseLength() float64     { return c.pulseLength }
func (c *Collection) Threshold() float64       { return c.threshold }
func (c *Collection) ReverbDuration() float64  { return c.reverbDuration }
func (c *Collection) NumAzimuths() int         { return c.numAzimuths }
func (c *Collection) NumSrcBeams() int         { return c.numSrcBeams }
func (c *Collection) NumRcvBeams() int         { return c.numRcvBeams }

// Mutable metadata, guarded by the grid lock so intensity and metadata reads
// are never torn across a dead-reckoning update.

// InitialTime returns the start time offset used when interpreting the
// travel time axis.
func (c *Collection) InitialTime() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.initialTime
}

// SetInitialTime replaces the start time offset.
func (c *Collection) SetInitialTime(t float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.initialTime = t
}

// SlantRange returns the cached source-to-receiver range (meters).
func (c *Collection) SlantRange() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slantRange
}

// SourcePosition returns the source position when eigenverbs were obtained.
func (c *Collection) SourcePosition() geo.Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.srcPosition
}

// SetSourcePosition updates the cached source position.
func (c *Collection) SetSourcePosition(p geo.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.srcPosition = p
}

// ReceiverPosition returns the receiver position when eigenverbs were
// obtained.
func (c *Collection) ReceiverPosition() geo.Position {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rcvPosition
}

// SetReceiverPosition updates the cached receiver position.
func (c *Collection) SetReceiverPosition(p geo.Position) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rcvPosition = p
}

// ReceiverHeading returns the heading that orients the azimuth buckets.
func (c *Collection) ReceiverHeading() float64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.receiverHeading
}

// cellOffset maps (azimuth, src beam, rcv beam) to the start of that cell's
// N_f x N_t block in the flat buffer.
func (c *Collection) cellOffset(azimuth, srcBeam, rcvBeam int) int {
	cell := (azimuth*c.numSrcBeams+srcBeam)*c.numRcvBeams + rcvBeam
	return cell * c.freq.Len() * c.travelTime.Len()
}

func (c *Collection) checkIndex(azimuth, srcBeam, rcvBeam int) error {
	if azimuth < 0 || azimuth >= c.numAzimuths {
		return fmt.Errorf("%w: azimuth %d not in [0,%d)", ErrIndexOutOfRange, azimuth, c.numAzimuths)
	}
	if srcBeam < 0 || srcBeam >= c.numSrcBeams {
		return fmt.Errorf("%w: src beam %d not in [0,%d)", ErrIndexOutOfRange, srcBeam, c.numSrcBeams)
	}
	if rcvBeam < 0 || rcvBeam >= c.numRcvBeams {
		return fmt.Errorf("%w: rcv beam %d not in [0,%d)", ErrIndexOutOfRange, rcvBeam, c.numRcvBeams)
	}
	return nil
}

// Envelope returns a copy of the intensity time series for one combination
// of parameters. Rows are envelope frequencies, columns travel times. The
// copy is a self-consistent snapshot of that one cell; cells read in
// separate calls may interleave with writers.
func (c *Collection) Envelope(azimuth, srcBeam, rcvBeam int) (*mat.Dense, error) {
	if err := c.checkIndex(azimuth, srcBeam, rcvBeam); err != nil {
		return nil, err
	}
	nf, nt := c.freq.Len(), c.travelTime.Len()
	out := make([]float64, nf*nt)

	c.mu.RLock()
	off := c.cellOffset(azimuth, srcBeam, rcvBeam)
	copy(out, c.data[off:off+nf*nt])
	c.mu.RUnlock()

	return mat.NewDense(nf, nt, out), nil
}

// SetEnvelope replaces one cell's contents wholesale. The matrix must be
// exactly N_f x N_t.
func (c *Collection) SetEnvelope(azimuth, srcBeam, rcvBeam int, intensities *mat.Dense) error {
	if err := c.checkIndex(azimuth, srcBeam, rcvBeam); err != nil {
		return err
	}
	nf, nt := c.freq.Len(), c.travelTime.Len()
	rows, cols := intensities.Dims()
	if rows != nf || cols != nt {
		return fmt.Errorf("%w: matrix is %dx%d, want %dx%d", ErrShapeMismatch, rows, cols, nf, nt)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	off := c.cellOffset(azimuth, srcBeam, rcvBeam)
	for f := 0; f < nf; f++ {
		copy(c.data[off+f*nt:off+(f+1)*nt], intensities.RawRowView(f))
	}
	return nil
}

// AddContribution accumulates the intensity contribution of a single
// source/receiver eigenverb pair, looping over every source and receiver
// beam to apply the beam gains. The eigenverbs must already be expressed on
// the collection's frequency axis; srcBeam and rcvBeam are frequency-by-beam
// gain matrices and scatter is the per-frequency scattering strength. xs2
// and ys2 are the squared offsets from the receiver footprint to the source
// footprint along the receiver's principal axes.
//
// The whole multi-cell update happens under one exclusive lock acquisition,
// so a reader never observes a partially applied contribution. Pairs below
// the intensity threshold or outside the reverberation window are skipped
// without error.
func (c *Collection) AddContribution(src, rcv *Eigenverb,
	srcBeam, rcvBeam *mat.Dense, scatter []float64, xs2, ys2 float64) error {

	nf, nt := c.freq.Len(), c.travelTime.Len()
	if len(src.Energy) != nf || len(rcv.Energy) != nf {
		return fmt.Errorf("%w: eigenverb energy lengths %d/%d, want %d",
			ErrShapeMismatch, len(src.Energy), len(rcv.Energy), nf)
	}
	if len(scatter) != nf {
		return fmt.Errorf("%w: scatter length %d, want %d", ErrShapeMismatch, len(scatter), nf)
	}
	if rows, cols := srcBeam.Dims(); rows != nf || cols != c.numSrcBeams {
		return fmt.Errorf("%w: src beam matrix is %dx%d, want %dx%d",
			ErrShapeMismatch, rows, cols, nf, c.numSrcBeams)
	}
	if rows, cols := rcvBeam.Dims(); rows != nf || cols != c.numRcvBeams {
		return fmt.Errorf("%w: rcv beam matrix is %dx%d, want %dx%d",
			ErrShapeMismatch, rows, cols, nf, c.numRcvBeams)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.model.compute(src, rcv, scatter, xs2, ys2, c.initialTime) {
		return nil
	}
	azimuth := c.azimuthBucket(rcv.Azimuth)

	first, last := c.model.binFirst, c.model.binLast
	for s := 0; s < c.numSrcBeams; s++ {
		for r := 0; r < c.numRcvBeams; r++ {
			off := c.cellOffset(azimuth, s, r)
			for f := 0; f < nf; f++ {
				peak := c.model.peak[f]
				if peak == 0 {
					continue
				}
				gain := srcBeam.At(f, s) * rcvBeam.At(f, r)
				if gain <= 0 {
					continue
				}
				row := c.data[off+f*nt : off+(f+1)*nt]
				level := peak * gain
				for t := first; t <= last; t++ {
					row[t] += level * c.model.shape[t-first]
				}
			}
		}
	}
	return nil
}

// azimuthBucket maps a launch azimuth onto one of the receiver's azimuth
// buckets, relative to the receiver heading. Callers hold the lock.
func (c *Collection) azimuthBucket(azimuth float64) int {
	rel := math.Mod(azimuth-c.receiverHeading, units.TwoPi)
	if rel < 0 {
		rel += units.TwoPi
	}
	bucket := int(rel / (units.TwoPi / float64(c.numAzimuths)))
	if bucket >= c.numAzimuths {
		bucket = c.numAzimuths - 1
	}
	return bucket
}

// DeadReckon absorbs a small sensor displacement without rerunning
// propagation. The stored intensities are untouched; only the initial time
// offset used when interpreting the travel time axis shifts, by the change
// in slant range over the nominal sound speed. A closing range moves
// arrivals earlier. No-op when deltaTime is zero or the range is unchanged.
func (c *Collection) DeadReckon(deltaTime, slantRange, prevRange float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if deltaTime == 0 || slantRange == prevRange {
		return
	}
	c.initialTime += (slantRange - prevRange) / units.SoundSpeed
	c.slantRange = slantRange
}
