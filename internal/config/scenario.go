// Package config loads and validates reverberation scenario parameters from
// JSON. The same schema drives the reverbsim command and test fixtures.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ellenhp/UnderSeaModelingLibrary/internal/geo"
)

// SensorConfig describes one side of the sensor pair.
type SensorConfig struct {
	ID            int64        `json:"id"`
	Description   string       `json:"description,omitempty"`
	Position      geo.Position `json:"position"`
	HeadingDeg    float64      `json:"heading_deg"`
	MinActiveFreq float64      `json:"min_active_freq"`
	MaxActiveFreq float64      `json:"max_active_freq"`
}

// Scenario is the root configuration for one reverberation run. Fields
// omitted from the JSON file keep their zero values and are caught by
// Validate, so partial configs fail loudly rather than silently.
type Scenario struct {
	// Frequency axis: FreqFirst, FreqFirst+FreqStep, ... (Hz).
	FreqFirst float64 `json:"freq_first"`
	FreqStep  float64 `json:"freq_step"`
	FreqCount int     `json:"freq_count"`

	// Travel time axis resolution and reverberation window (sec).
	TimeStep       float64 `json:"time_step"`
	ReverbDuration float64 `json:"reverb_duration"`

	PulseLength float64 `json:"pulse_length"`
	Threshold   float64 `json:"threshold"`

	NumAzimuths int `json:"num_azimuths"`
	NumSrcBeams int `json:"num_src_beams"`
	NumRcvBeams int `json:"num_rcv_beams"`

	Source   SensorConfig `json:"source"`
	Receiver SensorConfig `json:"receiver"`

	// NumEigenverbs controls the synthetic eigenverb sets generated per
	// sensor in simulation runs.
	NumEigenverbs int `json:"num_eigenverbs"`

	OutputDir string `json:"output_dir,omitempty"`
	RunsDB    string `json:"runs_db,omitempty"`
}

// DefaultScenario returns a small monostatic-style scenario usable without
// any config file.
func DefaultScenario() *Scenario {
	return &Scenario{
		FreqFirst:      1000.0,
		FreqStep:       500.0,
		FreqCount:      3,
		TimeStep:       0.05,
		ReverbDuration: 7.0,
		PulseLength:    0.25,
		Threshold:      1e-15,
		NumAzimuths:    4,
		NumSrcBeams:    1,
		NumRcvBeams:    2,
		NumEigenverbs:  64,
		Source: SensorConfig{
			ID:            1,
			Description:   "source",
			Position:      geo.Position{Latitude: 0, Longitude: 0, Altitude: -100},
			MinActiveFreq: 500,
			MaxActiveFreq: 4000,
		},
		Receiver: SensorConfig{
			ID:            2,
			Description:   "receiver",
			Position:      geo.Position{Latitude: 0.005, Longitude: 0, Altitude: -100},
			MinActiveFreq: 500,
			MaxActiveFreq: 4000,
		},
	}
}

// Load reads a Scenario from a JSON file. The file must have a .json
// extension and stay under 1MB.
func Load(path string) (*Scenario, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("scenario file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat scenario file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024
	if info.Size() > maxFileSize {
		return nil, fmt.Errorf("scenario file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	s := DefaultScenario()
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("failed to parse scenario JSON: %w", err)
	}
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return s, nil
}

// Validate checks the scenario for internally inconsistent parameters.
func (s *Scenario) Validate() error {
	if s.FreqFirst <= 0 || s.FreqStep <= 0 || s.FreqCount < 1 {
		return fmt.Errorf("frequency axis first=%g step=%g count=%d is invalid",
			s.FreqFirst, s.FreqStep, s.FreqCount)
	}
	if s.TimeStep <= 0 {
		return fmt.Errorf("time step %g must be positive", s.TimeStep)
	}
	if s.ReverbDuration <= s.TimeStep {
		return fmt.Errorf("reverb duration %g must exceed time step %g",
			s.ReverbDuration, s.TimeStep)
	}
	if s.PulseLength <= 0 {
		return fmt.Errorf("pulse length %g must be positive", s.PulseLength)
	}
	if s.Threshold < 0 {
		return fmt.Errorf("threshold %g must be non-negative", s.Threshold)
	}
	if s.NumAzimuths < 1 || s.NumSrcBeams < 1 || s.NumRcvBeams < 1 {
		return fmt.Errorf("counts azimuths=%d src_beams=%d rcv_beams=%d must be >= 1",
			s.NumAzimuths, s.NumSrcBeams, s.NumRcvBeams)
	}
	if s.NumEigenverbs < 1 {
		return fmt.Errorf("num_eigenverbs %d must be >= 1", s.NumEigenverbs)
	}
	if s.Source.ID == s.Receiver.ID {
		return fmt.Errorf("source and receiver must have distinct ids, both are %d", s.Source.ID)
	}
	for _, sensor := range []SensorConfig{s.Source, s.Receiver} {
		if sensor.MinActiveFreq >= sensor.MaxActiveFreq {
			return fmt.Errorf("sensor %d active band [%g,%g] is empty",
				sensor.ID, sensor.MinActiveFreq, sensor.MaxActiveFreq)
		}
	}
	return nil
}
