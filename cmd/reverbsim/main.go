// Command reverbsim runs a synthetic bistatic reverberation scenario: it
// builds a sensor pair, generates wedge-style eigenverb sets for each
// azimuth, accumulates their envelope contributions concurrently, applies a
// dead-reckoning step, and exports the results (snapshot, ASC text, debug
// charts). Each run is recorded in the runs database.
package main

import (
	"flag"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/ellenhp/UnderSeaModelingLibrary/internal/config"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/eigenverb"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/geo"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/monitor"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/monitoring"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/reverbdb"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/sensors"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/seq"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/units"
	"github.com/ellenhp/UnderSeaModelingLibrary/internal/version"
)

func main() {
	scenarioPath := flag.String("scenario", "", "Scenario JSON file (defaults to a built-in monostatic scenario)")
	outDir := flag.String("out", "reverbsim-out", "Output directory for snapshot, ASC and charts")
	dbPath := flag.String("db", "", "Runs database path (overrides scenario runs_db; default <out>/runs.db)")
	seed := flag.Int64("seed", 1, "Seed for the synthetic eigenverb generator")
	plots := flag.Bool("plots", true, "Render HTML chart and PNG heatmap for the first store cell")
	listRuns := flag.Int("list", 0, "List the N most recent recorded runs and exit")
	showVersion := flag.Bool("version", false, "Print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("reverbsim %s (%s, built %s)\n", version.Version, version.GitSHA, version.BuildTime)
		return
	}

	scn := config.DefaultScenario()
	if *scenarioPath != "" {
		loaded, err := config.Load(*scenarioPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "load scenario: %v\n", err)
			os.Exit(1)
		}
		scn = loaded
	}
	if scn.OutputDir != "" && *outDir == "reverbsim-out" {
		*outDir = scn.OutputDir
	}
	if *dbPath == "" {
		*dbPath = scn.RunsDB
	}
	if *dbPath == "" {
		*dbPath = filepath.Join(*outDir, "runs.db")
	}
	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create output dir: %v\n", err)
		os.Exit(1)
	}

	runs, err := reverbdb.Open(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open runs db %s: %v\n", *dbPath, err)
		os.Exit(1)
	}
	defer runs.Close()

	if *listRuns > 0 {
		recs, err := runs.ListRuns(*listRuns)
		if err != nil {
			fmt.Fprintf(os.Stderr, "list runs: %v\n", err)
			os.Exit(1)
		}
		for _, r := range recs {
			fmt.Printf("%s  %-9s  src=%d rcv=%d  %dx%dx%d grid  started %s\n",
				r.RunID, r.Status, r.SourceID, r.ReceiverID,
				r.NumAzimuths, r.NumSrcBeams, r.NumRcvBeams,
				r.StartedAt.Format(time.RFC3339))
		}
		return
	}

	if err := run(scn, runs, *outDir, *seed, *plots); err != nil {
		fmt.Fprintf(os.Stderr, "reverbsim: %v\n", err)
		os.Exit(1)
	}
}

func run(scn *config.Scenario, runs *reverbdb.DB, outDir string, seed int64, plots bool) error {
	pair := &sensors.SensorPair{
		Source:   sensorFromConfig(scn.Source),
		Receiver: sensorFromConfig(scn.Receiver),
	}

	fullFreq, err := seq.Linear(scn.FreqFirst, scn.FreqStep, scn.FreqCount)
	if err != nil {
		return fmt.Errorf("frequency axis: %w", err)
	}
	freq, err := pair.EnvelopeFrequencies(fullFreq)
	if err != nil {
		return err
	}
	numTimes := int(scn.ReverbDuration/scn.TimeStep) + 1
	travel, err := seq.Linear(0, scn.TimeStep, numTimes)
	if err != nil {
		return fmt.Errorf("travel time axis: %w", err)
	}

	slant := pair.SlantRange()
	coll, err := eigenverb.NewCollection(eigenverb.CollectionConfig{
		Frequencies:      freq,
		TravelTimes:      travel,
		ReverbDuration:   scn.ReverbDuration,
		PulseLength:      scn.PulseLength,
		Threshold:        scn.Threshold,
		NumAzimuths:      scn.NumAzimuths,
		NumSrcBeams:      scn.NumSrcBeams,
		NumRcvBeams:      scn.NumRcvBeams,
		InitialTime:      slant / units.SoundSpeed,
		SourceID:         pair.Source.ID,
		ReceiverID:       pair.Receiver.ID,
		SourcePosition:   pair.Source.Position,
		ReceiverPosition: pair.Receiver.Position,
		ReceiverHeading:  pair.Receiver.Orientation.Heading,
	})
	if err != nil {
		return err
	}

	runID := reverbdb.NewRunID()
	started := time.Now().UTC()
	rec := reverbdb.RunRecord{
		RunID:       runID,
		SourceID:    pair.Source.ID,
		ReceiverID:  pair.Receiver.ID,
		NumAzimuths: scn.NumAzimuths,
		NumSrcBeams: scn.NumSrcBeams,
		NumRcvBeams: scn.NumRcvBeams,
		NumFreqs:    freq.Len(),
		NumTimes:    travel.Len(),
		PulseLength: scn.PulseLength,
		Threshold:   scn.Threshold,
		StartedAt:   started,
	}
	if err := runs.InsertRun(rec); err != nil {
		return fmt.Errorf("record run: %w", err)
	}

	updates := pair.AddListener(1)

	snapshotPath := filepath.Join(outDir, runID+".snap.gz")
	if err := accumulate(scn, pair, coll, seed); err != nil {
		_ = runs.CompleteRun(runID, "", err.Error(), time.Now().UTC())
		return err
	}

	// Small along-track displacement of the receiver, absorbed without
	// rerunning propagation.
	moved := pair.Receiver.Position
	moved.Latitude += 50 * units.MetersPerDegreeLat
	coll.SetReceiverPosition(moved)
	coll.DeadReckon(1.0, geo.SlantRange(pair.Source.Position, moved), slant)

	pair.Publish(coll)
	snap := <-updates
	monitoring.Logf("envelope update: initial time %.3fs, slant range %.1fm, %d intensity samples",
		snap.InitialTime, snap.SlantRange, len(snap.Intensity))

	if err := coll.WriteSnapshot(snapshotPath); err != nil {
		_ = runs.CompleteRun(runID, "", err.Error(), time.Now().UTC())
		return err
	}
	if err := coll.WriteASC(filepath.Join(outDir, runID+".asc")); err != nil {
		_ = runs.CompleteRun(runID, snapshotPath, err.Error(), time.Now().UTC())
		return err
	}
	if plots {
		if err := monitor.WriteEnvelopeChart(coll, 0, 0, 0, filepath.Join(outDir, runID+".html")); err != nil {
			return err
		}
		if err := monitor.PlotEnvelopeGrid(coll, 0, 0, 0, filepath.Join(outDir, runID+".png")); err != nil {
			return err
		}
	}

	if err := runs.CompleteRun(runID, snapshotPath, "", time.Now().UTC()); err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	monitoring.Logf("run %s complete: %d azimuths x %d src beams x %d rcv beams, %d freqs x %d times, output in %s",
		runID, scn.NumAzimuths, scn.NumSrcBeams, scn.NumRcvBeams, freq.Len(), travel.Len(), outDir)
	return nil
}

// accumulate generates synthetic eigenverb sets for each azimuth and adds
// their contributions from one goroutine per azimuth.
func accumulate(scn *config.Scenario, pair *sensors.SensorPair, coll *eigenverb.Collection, seed int64) error {
	freq := coll.Frequencies()
	scatterModel := sensors.LambertScattering{}
	srcPatterns := make([]sensors.BeamPattern, scn.NumSrcBeams)
	for i := range srcPatterns {
		srcPatterns[i] = sensors.OmniPattern{}
	}
	rcvPatterns := make([]sensors.BeamPattern, scn.NumRcvBeams)
	for i := range rcvPatterns {
		rcvPatterns[i] = sensors.SinePattern{}
	}

	perAzimuth := scn.NumEigenverbs / scn.NumAzimuths
	if perAzimuth < 1 {
		perAzimuth = 1
	}

	// Stand in for the propagator: generate wedge-style sets for both
	// sensors and deliver them through the wavefront listener path.
	rng := rand.New(rand.NewSource(seed))
	srcVerbs := make([]*eigenverb.Eigenverb, 0, scn.NumAzimuths*perAzimuth)
	rcvVerbs := make([]*eigenverb.Eigenverb, 0, scn.NumAzimuths*perAzimuth)
	for a := 0; a < scn.NumAzimuths; a++ {
		azimuth := coll.ReceiverHeading() +
			(float64(a)+0.5)*units.TwoPi/float64(scn.NumAzimuths)
		for i := 0; i < perAzimuth; i++ {
			src, rcv := syntheticPair(rng, scn, coll, azimuth, i, perAzimuth)
			srcVerbs = append(srcVerbs, src)
			rcvVerbs = append(rcvVerbs, rcv)
		}
	}
	pair.WavefrontReady(pair.Source.ID, srcVerbs)
	pair.WavefrontReady(pair.Receiver.ID, rcvVerbs)

	srcSet := pair.Eigenverbs(pair.Source.ID)
	rcvSet := pair.Eigenverbs(pair.Receiver.ID)

	var wg sync.WaitGroup
	errs := make([]error, scn.NumAzimuths)
	for a := 0; a < scn.NumAzimuths; a++ {
		wg.Add(1)
		go func(a int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(seed + 1 + int64(a)))
			for i := a * perAzimuth; i < (a+1)*perAzimuth; i++ {
				src, rcv := srcSet[i], rcvSet[i]

				srcGain := sensors.GainMatrix(srcPatterns, -src.Grazing, src.Azimuth,
					pair.Source.Orientation, freq)
				rcvGain := sensors.GainMatrix(rcvPatterns, -rcv.Grazing, rcv.Azimuth,
					pair.Receiver.Orientation, freq)
				scatter := scatterModel.Scattering(src.Grazing, rcv.Grazing, freq)

				// Offsets between footprint centers, jittered around a
				// partial overlap.
				xs2 := rng.Float64() * src.Length2 * 0.25
				ys2 := rng.Float64() * src.Width2 * 0.25
				if err := coll.AddContribution(src, rcv, srcGain, rcvGain, scatter, xs2, ys2); err != nil {
					errs[a] = err
					return
				}
			}
		}(a)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// syntheticPair builds one source/receiver eigenverb pair on a sloping
// bottom: later interactions arrive at shallower grazing angles with larger,
// weaker footprints.
func syntheticPair(rng *rand.Rand, scn *config.Scenario, coll *eigenverb.Collection,
	azimuth float64, i, n int) (*eigenverb.Eigenverb, *eigenverb.Eigenverb) {

	frac := (float64(i) + 0.5) / float64(n)
	// One-way times chosen so the two-way sum lands inside the window.
	oneWay := coll.InitialTime()/2 + frac*(scn.ReverbDuration*0.4)
	grazing := units.DegreesToRadians(45 - 45*frac*0.9)
	length2 := 400 * (1 + 4*frac)
	width2 := 100 * (1 + 4*frac)
	energy := make([]float64, coll.Frequencies().Len())
	for f := range energy {
		// Higher frequencies attenuate faster with range.
		energy[f] = 1e-3 * math.Exp(-frac*(1+0.2*float64(f))) * (0.9 + 0.2*rng.Float64())
	}

	src := &eigenverb.Eigenverb{
		Direction: azimuth,
		Azimuth:   azimuth,
		Time:      oneWay,
		Grazing:   grazing,
		Energy:    energy,
		Length2:   length2,
		Width2:    width2,
		Bottom:    1,
	}
	rcvEnergy := make([]float64, len(energy))
	copy(rcvEnergy, energy)
	rcv := &eigenverb.Eigenverb{
		Direction: azimuth + rng.NormFloat64()*0.05,
		Azimuth:   azimuth,
		Time:      oneWay * (1 + 0.02*rng.Float64()),
		Grazing:   grazing,
		Energy:    rcvEnergy,
		Length2:   length2 * 1.1,
		Width2:    width2 * 1.1,
		Bottom:    1,
	}
	return src, rcv
}

func sensorFromConfig(sc config.SensorConfig) sensors.Sensor {
	return sensors.Sensor{
		ID:            sc.ID,
		Description:   sc.Description,
		Position:      sc.Position,
		Orientation:   sensors.Orientation{Heading: units.DegreesToRadians(sc.HeadingDeg)},
		MinActiveFreq: sc.MinActiveFreq,
		MaxActiveFreq: sc.MaxActiveFreq,
	}
}
