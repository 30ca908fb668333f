package workload

import (
	"fmt"

	"github.com/inference-sim/cachesim/sim"
)

// Workload is a generated request stream with its utility weights.
type Workload struct {
	Stream  *sim.RequestStream
	Weights *sim.Weights
}

// Generate synthesizes the stream and weights described by spec.
// Deterministic given the same spec and seed: the stream draws from the
// stream subsystem and the weights from their own, so changing the weight
// type never changes the requests.
func Generate(spec *WorkloadSpec) (*Workload, error) {
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("invalid workload spec: %w", err)
	}

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(spec.Seed))

	stream, err := GenerateStream(spec.Stream, spec.Library, spec.Horizon, rng)
	if err != nil {
		return nil, err
	}
	weights, err := GenerateWeights(spec.Weights, spec.Library, spec.Horizon, rng.ForSubsystem(sim.SubsystemWeights))
	if err != nil {
		return nil, fmt.Errorf("generating weights: %w", err)
	}
	return &Workload{Stream: stream, Weights: weights}, nil
}

// GenerateStream draws T requests over n items.
func GenerateStream(spec StreamSpec, n, horizon int, rng *sim.PartitionedRNG) (*sim.RequestStream, error) {
	sampler, err := NewItemSampler(spec, n)
	if err != nil {
		return nil, fmt.Errorf("stream distribution: %w", err)
	}
	streamRNG := rng.ForSubsystem(sim.SubsystemStream)
	items := make([]int, horizon)
	for t := range items {
		items[t] = sampler.Sample(t, streamRNG)
	}
	return sim.NewRequestStream(n, items)
}
