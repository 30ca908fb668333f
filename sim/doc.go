// Package sim provides the shared data model of the online caching benchmark.
//
// # Reading Guide
//
// Start with these files to understand the inputs every policy consumes:
//   - request.go: RequestStream, the immutable sequence of one-hot requests
//   - weights.go: static or time-varying per-item utility weights
//   - config.go: run parameters and their fail-fast validation
//
// # Architecture
//
// The sim package defines value types and the error taxonomy; the algorithms
// live in sub-packages:
//   - sim/policy/: BSCH hindsight optimum, LRU, ARC, OGA with box+budget projection
//   - sim/metalearn/: exponentiated-gradient meta-learner over OGA experts
//   - sim/bench/: benchmark driver (concurrent fan-out, EG fan-in, report)
//   - sim/trace/: per-policy run records and regret summaries
//   - sim/workload/: request stream and weight generation, YAML workload specs
//   - sim/store/: persisted arrays keyed by policy name
//   - sim/metrics/: Prometheus collector for benchmark runs
//
// # Determinism
//
// Every random draw goes through PartitionedRNG. Given the same SimulationKey
// and configuration, streams, weights and EG expert selections are identical
// across runs regardless of how the driver schedules its workers.
package sim
