package eigenverb

import (
	"compress/gzip"
	"encoding/gob"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ellenhp/UnderSeaModelingLibrary/internal/geo"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/monitoring"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/seq"
)

// snapshotVersion identifies the on-disk layout of Snapshot artifacts.
const snapshotVersion = 1

// Snapshot is the self-describing export of a Collection: every metadata
// scalar, both coordinate axes, and the full 5-D intensity array indexed
// [azimuth, source beam, receiver beam, frequency, time] flattened in that
// order.
type Snapshot struct {
	Version int

	SourceID   int64
	ReceiverID int64

	SourcePosition   geo.Position
	ReceiverPosition geo.Position
	ReceiverHeading  float64

	SlantRange     float64
	InitialTime    float64
	PulseLength    float64
	Threshold      float64
	ReverbDuration float64

	NumAzimuths int
	NumSrcBeams int
	NumRcvBeams int

	Frequencies []float64
	TravelTimes []float64

	Intensity []float64
}

// Snapshot captures the collection under one shared lock acquisition so the
// result is internally consistent: no writer can interleave between the
// metadata and the intensity array.
func (c *Collection) Snapshot() *Snapshot {
	snap := &Snapshot{
		Version:        snapshotVersion,
		SourceID:       c.sourceID,
		ReceiverID:     c.receiverID,
		PulseLength:    c.pulseLength,
		Threshold:      c.threshold,
		ReverbDuration: c.reverbDuration,
		NumAzimuths:    c.numAzimuths,
		NumSrcBeams:    c.numSrcBeams,
		NumRcvBeams:    c.numRcvBeams,
		Frequencies:    c.freq.Values(),
		TravelTimes:    c.travelTime.Values(),
	}

	c.mu.RLock()
	snap.SourcePosition = c.srcPosition
	snap.ReceiverPosition = c.rcvPosition
	snap.ReceiverHeading = c.receiverHeading
	snap.SlantRange = c.slantRange
	snap.InitialTime = c.initialTime
	snap.Intensity = make([]float64, len(c.data))
	copy(snap.Intensity, c.data)
	c.mu.RUnlock()

	return snap
}

// WriteSnapshot exports the collection to a gob+gzip artifact at path. The
// file is written to a temporary name in the same directory and renamed into
// place, so a failed export never leaves a partial file behind.
func (c *Collection) WriteSnapshot(path string) error {
	snap := c.Snapshot()

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("creating snapshot temp file in %s: %w", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		if rmErr := os.Remove(tmpName); rmErr != nil && !os.IsNotExist(rmErr) {
			monitoring.Logf("snapshot: could not remove temp file %s: %v", tmpName, rmErr)
		}
	}

	gz := gzip.NewWriter(tmp)
	if err := gob.NewEncoder(gz).Encode(snap); err != nil {
		cleanup()
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := gz.Close(); err != nil {
		cleanup()
		return fmt.Errorf("flushing snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("closing snapshot temp file: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("finalizing snapshot %s: %w", path, err)
	}
	return nil
}

// ReadSnapshot loads a snapshot artifact from disk.
func ReadSnapshot(path string) (*Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening snapshot %s: %w", path, err)
	}
	defer f.Close()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot %s: %w", path, err)
	}
	defer gz.Close()

	var snap Snapshot
	if err := gob.NewDecoder(gz).Decode(&snap); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	if snap.Version != snapshotVersion {
		return nil, fmt.Errorf("snapshot %s: unsupported version %d", path, snap.Version)
	}
	return &snap, nil
}

// Restore rebuilds a live Collection from a snapshot, for offline analysis
// of exported runs.
func (s *Snapshot) Restore() (*Collection, error) {
	freq, err := seq.FromSlice(s.Frequencies)
	if err != nil {
		return nil, fmt.Errorf("snapshot frequency axis: %w", err)
	}
	travel, err := seq.FromSlice(s.TravelTimes)
	if err != nil {
		return nil, fmt.Errorf("snapshot travel time axis: %w", err)
	}
	c, err := NewCollection(CollectionConfig{
		Frequencies:      freq,
		TravelTimes:      travel,
		ReverbDuration:   s.ReverbDuration,
		PulseLength:      s.PulseLength,
		Threshold:        s.Threshold,
		NumAzimuths:      s.NumAzimuths,
		NumSrcBeams:      s.NumSrcBeams,
		NumRcvBeams:      s.NumRcvBeams,
		InitialTime:      s.InitialTime,
		SourceID:         s.SourceID,
		ReceiverID:       s.ReceiverID,
		SourcePosition:   s.SourcePosition,
		ReceiverPosition: s.ReceiverPosition,
		ReceiverHeading:  s.ReceiverHeading,
	})
	if err != nil {
		return nil, err
	}
	if len(s.Intensity) != len(c.data) {
		return nil, fmt.Errorf("%w: snapshot intensity length %d, want %d",
			ErrShapeMismatch, len(s.Intensity), len(c.data))
	}
	copy(c.data, s.Intensity)
	c.slantRange = s.SlantRange
	return c, nil
}

// WriteASC exports the envelopes as a human-readable text table, one row per
// (azimuth, source beam, receiver beam, frequency) with the full time
// series. Intended for spot checks, not bulk interchange.
func (c *Collection) WriteASC(path string) error {
	snap := c.Snapshot()

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating ASC export %s: %w", path, err)
	}
	defer f.Close()

	fmt.Fprintf(f, "# Reverberation envelopes source=%d receiver=%d\n", snap.SourceID, snap.ReceiverID)
	fmt.Fprintf(f, "# pulse_length=%g threshold=%g initial_time=%g slant_range=%g\n",
		snap.PulseLength, snap.Threshold, snap.InitialTime, snap.SlantRange)
	fmt.Fprintf(f, "# Format: azimuth src_beam rcv_beam freq_hz intensity[%d]\n", len(snap.TravelTimes))

	nf, nt := len(snap.Frequencies), len(snap.TravelTimes)
	idx := 0
	for a := 0; a < snap.NumAzimuths; a++ {
		for s := 0; s < snap.NumSrcBeams; s++ {
			for r := 0; r < snap.NumRcvBeams; r++ {
				for fi := 0; fi < nf; fi++ {
					fmt.Fprintf(f, "%d %d %d %g", a, s, r, snap.Frequencies[fi])
					row := snap.Intensity[idx : idx+nt]
					idx += nt
					for _, v := range row {
						fmt.Fprintf(f, " %.12g", v)
					}
					fmt.Fprintln(f)
				}
			}
		}
	}
	return nil
}
