package workload

import (
	"bytes"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// WorkloadSpec describes how to synthesize the request stream and weights of a run.
// Loaded from YAML via LoadWorkloadSpec(path).
type WorkloadSpec struct {
	Seed    int64      `yaml:"seed"`
	Horizon int        `yaml:"horizon"` // T
	Library int        `yaml:"library"` // N
	Stream  StreamSpec `yaml:"stream"`
	Weights WeightSpec `yaml:"weights"`
}

// StreamSpec parameterizes the request distribution.
type StreamSpec struct {
	Distribution string  `yaml:"distribution"`
	Alpha        float64 `yaml:"alpha,omitempty"` // zipf exponent
	Bound        int     `yaml:"bound,omitempty"` // round-robin cycle length
}

// WeightSpec selects the utility weight generator.
type WeightSpec struct {
	Type string `yaml:"type"`
}

// Valid value registries.
var (
	validDistributions = map[string]bool{
		"uniform": true, "zipf": true, "round_robin": true,
	}
	validWeightTypes = map[string]bool{
		"": true, "uniform": true, "random": true, "time_varying": true,
	}
)

// LoadWorkloadSpec reads and parses a YAML workload specification file.
// Uses strict parsing: unrecognized keys (typos) are rejected.
func LoadWorkloadSpec(path string) (*WorkloadSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading workload spec: %w", err)
	}
	var spec WorkloadSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil {
		return nil, fmt.Errorf("parsing workload spec: %w", err)
	}
	return &spec, nil
}

// Validate checks that all fields in the spec are valid.
func (s *WorkloadSpec) Validate() error {
	if s.Horizon <= 0 {
		return fmt.Errorf("horizon must be positive, got %d", s.Horizon)
	}
	if s.Library <= 0 {
		return fmt.Errorf("library must be positive, got %d", s.Library)
	}
	if !validDistributions[s.Stream.Distribution] {
		return fmt.Errorf("stream: unknown distribution %q; valid: uniform, zipf, round_robin", s.Stream.Distribution)
	}
	switch s.Stream.Distribution {
	case "zipf":
		if math.IsNaN(s.Stream.Alpha) || math.IsInf(s.Stream.Alpha, 0) || s.Stream.Alpha < 0 {
			return fmt.Errorf("stream.alpha must be a non-negative finite number, got %f", s.Stream.Alpha)
		}
	case "round_robin":
		if s.Stream.Bound <= 0 || s.Stream.Bound > s.Library {
			return fmt.Errorf("stream.bound must be within [1 .. %d], got %d", s.Library, s.Stream.Bound)
		}
	}
	if !validWeightTypes[s.Weights.Type] {
		return fmt.Errorf("weights: unknown type %q; valid: uniform, random, time_varying", s.Weights.Type)
	}
	return nil
}
