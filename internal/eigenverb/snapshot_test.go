package eigenverb

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/ellenhp/UnderSeaModelingLibrary/internal/geo"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/seq"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/testutil"
)

func populatedCollection(t *testing.T) *Collection {
	t.Helper()
	freq, _ := seq.Linear(500, 250, 2)
	travel, _ := seq.Linear(0, 0.5, 8)
	c, err := NewCollection(CollectionConfig{
		Frequencies:      freq,
		TravelTimes:      travel,
		ReverbDuration:   4,
		PulseLength:      0.2,
		Threshold:        1e-14,
		NumAzimuths:      2,
		NumSrcBeams:      1,
		NumRcvBeams:      2,
		InitialTime:      0.1,
		SourceID:         21,
		ReceiverID:       22,
		SourcePosition:   geo.Position{Latitude: 30, Longitude: -70, Altitude: -40},
		ReceiverPosition: geo.Position{Latitude: 30.02, Longitude: -70, Altitude: -60},
	})
	testutil.AssertNoError(t, err)

	src, rcv := testPair(2, 0.004, c.PulseLength(), 2.0)
	testutil.AssertNoError(t,
		c.AddContribution(src, rcv, ones(2, 1), ones(2, 2), []float64{1.0, 0.5}, 0.1, 0.2))
	return c
}

func TestSnapshotRoundTrip(t *testing.T) {
	c := populatedCollection(t)
	path := filepath.Join(t.TempDir(), "envelopes.snap.gz")

	testutil.AssertNoError(t, c.WriteSnapshot(path))

	loaded, err := ReadSnapshot(path)
	testutil.AssertNoError(t, err)

	want := c.Snapshot()
	if diff := cmp.Diff(want, loaded, cmpopts.EquateApprox(0, 1e-15)); diff != "" {
		t.Errorf("snapshot round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestSnapshotRestore(t *testing.T) {
	c := populatedCollection(t)
	path := filepath.Join(t.TempDir(), "envelopes.snap.gz")
	testutil.AssertNoError(t, c.WriteSnapshot(path))

	snap, err := ReadSnapshot(path)
	testutil.AssertNoError(t, err)
	restored, err := snap.Restore()
	testutil.AssertNoError(t, err)

	if restored.SourceID() != c.SourceID() || restored.ReceiverID() != c.ReceiverID() {
		t.Error("restored ids mismatch")
	}
	testutil.AssertInDelta(t, restored.InitialTime(), c.InitialTime(), 0)
	testutil.AssertInDelta(t, restored.SlantRange(), c.SlantRange(), 0)

	for a := 0; a < c.NumAzimuths(); a++ {
		for s := 0; s < c.NumSrcBeams(); s++ {
			for r := 0; r < c.NumRcvBeams(); r++ {
				want, _ := c.Envelope(a, s, r)
				got, err := restored.Envelope(a, s, r)
				testutil.AssertNoError(t, err)
				testutil.AssertMatrixInDelta(t, got, want, 1e-15)
			}
		}
	}
}

func TestWriteSnapshotBadPath(t *testing.T) {
	c := populatedCollection(t)
	dir := filepath.Join(t.TempDir(), "missing", "nested")
	err := c.WriteSnapshot(filepath.Join(dir, "envelopes.snap.gz"))
	testutil.AssertError(t, err)
}

func TestWriteSnapshotLeavesNoPartialFile(t *testing.T) {
	c := populatedCollection(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "envelopes.snap.gz")
	testutil.AssertNoError(t, c.WriteSnapshot(path))

	entries, err := os.ReadDir(dir)
	testutil.AssertNoError(t, err)
	if len(entries) != 1 || entries[0].Name() != "envelopes.snap.gz" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Errorf("export dir contents = %v, want only envelopes.snap.gz", names)
	}
}

func TestReadSnapshotMissingFile(t *testing.T) {
	_, err := ReadSnapshot(filepath.Join(t.TempDir(), "nope.snap.gz"))
	testutil.AssertError(t, err)
}

func TestWriteASC(t *testing.T) {
	c := populatedCollection(t)
	path := filepath.Join(t.TempDir(), "envelopes.asc")
	testutil.AssertNoError(t, c.WriteASC(path))

	f, err := os.Open(path)
	testutil.AssertNoError(t, err)
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)
	header, rows := 0, 0
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "#") {
			header++
			continue
		}
		rows++
		// azimuth src rcv freq + 8 time bins
		if fields := strings.Fields(line); len(fields) != 4+8 {
			t.Errorf("row has %d fields: %q", len(fields), line)
		}
	}
	testutil.AssertNoError(t, scanner.Err())
	if header != 3 {
		t.Errorf("header lines = %d, want 3", header)
	}
	// 2 azimuths x 1 src beam x 2 rcv beams x 2 frequencies
	if rows != 8 {
		t.Errorf("data rows = %d, want 8", rows)
	}
}
