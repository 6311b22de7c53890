package sensors

import (
	"fmt"
	"sync"

	"github.com/ellenhp/UnderSeaModelingLibrary/internal/eigenverb"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/geo"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/monitoring"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/seq"
)

// WavefrontListener is the narrow capability interface between a sensor pair
// and the propagator driving it. The propagator depends only on this
// interface, never on a concrete sensor type.
type WavefrontListener interface {
	// WavefrontReady is invoked when the propagator has produced the
	// eigenverb collections for one sensor.
	WavefrontReady(sensorID int64, verbs []*eigenverb.Eigenverb)

	// WavefrontAborted is invoked when propagation fails or is cancelled.
	WavefrontAborted(sensorID int64, err error)
}

// Sensor describes one side of a sensor pair.
type Sensor struct {
	ID          int64
	Description string
	Position    geo.Position
	Orientation Orientation

	// MinActiveFreq and MaxActiveFreq bound the band this sensor can
	// transmit or receive (Hz).
	MinActiveFreq float64
	MaxActiveFreq float64
}

// SensorPair couples a source and a receiver for one reverberation run. It
// owns the envelope frequency axis (the intersection of the two sensors'
// active bands) and fans completed envelope snapshots out to registered
// listeners without blocking the producer.
type SensorPair struct {
	Source   Sensor
	Receiver Sensor

	mu        sync.Mutex
	listeners []chan *eigenverb.Snapshot
	verbs     eigenverb.Collections
	lastErr   error
}

// SensorPair receives wavefront results on behalf of both of its sensors.
var _ WavefrontListener = (*SensorPair)(nil)

// WavefrontReady stores the eigenverb set the propagator produced for one
// sensor, replacing any earlier set and clearing a prior abort.
func (p *SensorPair) WavefrontReady(sensorID int64, verbs []*eigenverb.Eigenverb) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.verbs == nil {
		p.verbs = make(eigenverb.Collections)
	}
	p.verbs[sensorID] = verbs
	p.lastErr = nil
}

// WavefrontAborted records a failed propagation attempt. Previously delivered
// eigenverb sets stay available.
func (p *SensorPair) WavefrontAborted(sensorID int64, err error) {
	p.mu.Lock()
	p.lastErr = err
	p.mu.Unlock()
	monitoring.Logf("sensor pair %d/%d: wavefront aborted for sensor %d: %v",
		p.Source.ID, p.Receiver.ID, sensorID, err)
}

// Eigenverbs returns the most recent eigenverb set delivered for sensorID,
// or nil when none has arrived.
func (p *SensorPair) Eigenverbs(sensorID int64) []*eigenverb.Eigenverb {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.verbs[sensorID]
}

// LastError reports the most recent wavefront abort, nil after a successful
// delivery.
func (p *SensorPair) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

// EnvelopeFrequencies intersects the full frequency axis with both sensors'
// active bands. The engine never re-filters frequencies, so this is the one
// place band membership is decided. Returns an error when the bands do not
// overlap on any axis value.
func (p *SensorPair) EnvelopeFrequencies(full *seq.Vector) (*seq.Vector, error) {
	lo := p.Source.MinActiveFreq
	if p.Receiver.MinActiveFreq > lo {
		lo = p.Receiver.MinActiveFreq
	}
	hi := p.Source.MaxActiveFreq
	if p.Receiver.MaxActiveFreq < hi {
		hi = p.Receiver.MaxActiveFreq
	}

	var kept []float64
	for i := 0; i < full.Len(); i++ {
		f := full.At(i)
		if f >= lo && f <= hi {
			kept = append(kept, f)
		}
	}
	if len(kept) == 0 {
		return nil, fmt.Errorf("sensors %d/%d share no frequencies in [%g,%g]",
			p.Source.ID, p.Receiver.ID, lo, hi)
	}
	return seq.FromSlice(kept)
}

// SlantRange returns the current source-to-receiver range in meters.
func (p *SensorPair) SlantRange() float64 {
	return geo.SlantRange(p.Source.Position, p.Receiver.Position)
}

// AddListener registers a subscriber for completed envelope snapshots and
// returns its delivery channel. The channel is buffered so a slow subscriber
// does not stall the accumulation thread; snapshots it cannot keep up with
// are dropped.
func (p *SensorPair) AddListener(buffer int) <-chan *eigenverb.Snapshot {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan *eigenverb.Snapshot, buffer)
	p.mu.Lock()
	p.listeners = append(p.listeners, ch)
	p.mu.Unlock()
	return ch
}

// Publish captures an immutable snapshot of the collection and delivers it
// to every registered listener. Delivery is non-blocking; full subscriber
// queues drop the update.
func (p *SensorPair) Publish(c *eigenverb.Collection) {
	snap := c.Snapshot()
	p.mu.Lock()
	listeners := make([]chan *eigenverb.Snapshot, len(p.listeners))
	copy(listeners, p.listeners)
	p.mu.Unlock()

	for _, ch := range listeners {
		select {
		case ch <- snap:
		default:
			monitoring.Logf("sensor pair %d/%d: listener queue full, dropping envelope update",
				p.Source.ID, p.Receiver.ID)
		}
	}
}
