package sensors

import (
	"errors"
	"testing"
	"time"

	"github.com/ellenhp/UnderSeaModelingLibrary/internal/eigenverb"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/geo"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/seq"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/testutil"
)

var errPropagation = errors.New("propagation aborted")

func testPair(t *testing.T) *SensorPair {
	t.Helper()
	return &SensorPair{
		Source: Sensor{
			ID:            1,
			Position:      geo.Position{Latitude: 0, Longitude: 0, Altitude: -50},
			MinActiveFreq: 500,
			MaxActiveFreq: 2000,
		},
		Receiver: Sensor{
			ID:            2,
			Position:      geo.Position{Latitude: 0.01, Longitude: 0, Altitude: -80},
			MinActiveFreq: 1000,
			MaxActiveFreq: 3000,
		},
	}
}

func TestEnvelopeFrequenciesIntersectsBands(t *testing.T) {
	p := testPair(t)
	full, _ := seq.Linear(250, 250, 12) // 250..3000
	got, err := p.EnvelopeFrequencies(full)
	testutil.AssertNoError(t, err)

	// Overlap is [1000, 2000]: 1000, 1250, ..., 2000.
	if got.Len() != 5 {
		t.Fatalf("kept %d frequencies, want 5", got.Len())
	}
	if got.First() != 1000 || got.Last() != 2000 {
		t.Errorf("band = [%v,%v], want [1000,2000]", got.First(), got.Last())
	}
}

func TestEnvelopeFrequenciesDisjointBands(t *testing.T) {
	p := testPair(t)
	p.Receiver.MinActiveFreq = 5000
	p.Receiver.MaxActiveFreq = 9000
	full, _ := seq.Linear(250, 250, 12)
	if _, err := p.EnvelopeFrequencies(full); err == nil {
		t.Error("disjoint bands accepted")
	}
}

func TestSlantRange(t *testing.T) {
	p := testPair(t)
	want := geo.SlantRange(p.Source.Position, p.Receiver.Position)
	testutil.AssertInDelta(t, p.SlantRange(), want, 0)
}

func publishTestCollection(t *testing.T, p *SensorPair) *eigenverb.Collection {
	t.Helper()
	freq, _ := seq.Linear(1000, 250, 2)
	travel, _ := seq.Linear(0, 0.5, 6)
	c, err := eigenverb.NewCollection(eigenverb.CollectionConfig{
		Frequencies:    freq,
		TravelTimes:    travel,
		ReverbDuration: 3,
		PulseLength:    0.25,
		Threshold:      1e-12,
		NumAzimuths:    1,
		NumSrcBeams:    1,
		NumRcvBeams:    1,
		SourceID:       p.Source.ID,
		ReceiverID:     p.Receiver.ID,
	})
	testutil.AssertNoError(t, err)
	p.Publish(c)
	return c
}

func TestPublishDeliversSnapshot(t *testing.T) {
	p := testPair(t)
	ch := p.AddListener(2)

	publishTestCollection(t, p)

	select {
	case snap := <-ch:
		if snap.SourceID != 1 || snap.ReceiverID != 2 {
			t.Errorf("snapshot ids = %d/%d", snap.SourceID, snap.ReceiverID)
		}
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
}

func TestPublishDropsWhenQueueFull(t *testing.T) {
	p := testPair(t)
	ch := p.AddListener(1)

	publishTestCollection(t, p)
	publishTestCollection(t, p) // queue full, must not block

	select {
	case <-ch:
	case <-time.After(time.Second):
		t.Fatal("no snapshot delivered")
	}
	select {
	case <-ch:
		t.Error("second snapshot should have been dropped")
	default:
	}
}

func TestPublishWithoutListeners(t *testing.T) {
	p := testPair(t)
	// Must not panic or block.
	publishTestCollection(t, p)
}

func TestWavefrontReadyStoresVerbs(t *testing.T) {
	p := testPair(t)
	var listener WavefrontListener = p

	verbs := []*eigenverb.Eigenverb{
		{Time: 0.5, Energy: []float64{1e-3, 2e-3}},
		{Time: 0.8, Energy: []float64{3e-3, 4e-3}},
	}
	listener.WavefrontReady(p.Source.ID, verbs)

	got := p.Eigenverbs(p.Source.ID)
	if len(got) != 2 || got[1].Time != 0.8 {
		t.Errorf("stored verbs = %v", got)
	}
	if p.Eigenverbs(p.Receiver.ID) != nil {
		t.Error("receiver set should be empty")
	}
	testutil.AssertNoError(t, p.LastError())
}

func TestWavefrontAbortedRecordsError(t *testing.T) {
	p := testPair(t)
	p.WavefrontReady(p.Source.ID, []*eigenverb.Eigenverb{{Time: 0.5}})

	p.WavefrontAborted(p.Receiver.ID, errPropagation)
	testutil.AssertError(t, p.LastError())

	// Earlier deliveries survive an abort; a later delivery clears it.
	if p.Eigenverbs(p.Source.ID) == nil {
		t.Error("source set lost after abort")
	}
	p.WavefrontReady(p.Receiver.ID, []*eigenverb.Eigenverb{{Time: 0.7}})
	testutil.AssertNoError(t, p.LastError())
}
