package workload

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeSpec(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "workload.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadWorkloadSpec_ValidYAML_LoadsCorrectly(t *testing.T) {
	path := writeSpec(t, `
seed: 42
horizon: 1000
library: 50
stream:
  distribution: zipf
  alpha: 0.8
weights:
  type: random
`)

	spec, err := LoadWorkloadSpec(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if spec.Seed != 42 {
		t.Errorf("seed = %d, want 42", spec.Seed)
	}
	if spec.Horizon != 1000 || spec.Library != 50 {
		t.Errorf("horizon/library = %d/%d, want 1000/50", spec.Horizon, spec.Library)
	}
	if spec.Stream.Distribution != "zipf" || spec.Stream.Alpha != 0.8 {
		t.Errorf("stream = %+v, want zipf alpha 0.8", spec.Stream)
	}
	if spec.Weights.Type != "random" {
		t.Errorf("weights.type = %q, want random", spec.Weights.Type)
	}
	if err := spec.Validate(); err != nil {
		t.Errorf("unexpected validation error: %v", err)
	}
}

func TestLoadWorkloadSpec_UnknownField_Rejected(t *testing.T) {
	path := writeSpec(t, `
seed: 1
horizon: 10
library: 5
stream:
  distribution: uniform
  alfa: 0.8
`)
	if _, err := LoadWorkloadSpec(path); err == nil {
		t.Fatal("expected error for unknown field 'alfa'")
	}
}

func TestLoadWorkloadSpec_MissingFile(t *testing.T) {
	_, err := LoadWorkloadSpec(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil || !strings.Contains(err.Error(), "reading workload spec") {
		t.Errorf("expected read error, got %v", err)
	}
}

func TestWorkloadSpec_Validate_Errors(t *testing.T) {
	valid := WorkloadSpec{Horizon: 10, Library: 5, Stream: StreamSpec{Distribution: "uniform"}}
	tests := []struct {
		name   string
		mutate func(*WorkloadSpec)
		want   string
	}{
		{"zero horizon", func(s *WorkloadSpec) { s.Horizon = 0 }, "horizon"},
		{"negative library", func(s *WorkloadSpec) { s.Library = -1 }, "library"},
		{"unknown distribution", func(s *WorkloadSpec) { s.Stream.Distribution = "normal" }, "unknown distribution"},
		{"negative alpha", func(s *WorkloadSpec) { s.Stream = StreamSpec{Distribution: "zipf", Alpha: -1} }, "alpha"},
		{"bound too large", func(s *WorkloadSpec) { s.Stream = StreamSpec{Distribution: "round_robin", Bound: 6} }, "bound"},
		{"unknown weights", func(s *WorkloadSpec) { s.Weights.Type = "gaussian" }, "weights"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec := valid
			tt.mutate(&spec)
			err := spec.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid spec rejected: %v", err)
	}
}
