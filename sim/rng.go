package sim

import (
	"fmt"
	"hash/fnv"
	"math/rand"
)

// SimulationKey is the seed a benchmark run is reproduced from. The same key
// and configuration give the same request stream, weights and EG selections.
type SimulationKey int64

func NewSimulationKey(seed int64) SimulationKey {
	return SimulationKey(seed)
}

// Random subsystems. Each draws from its own source so adding draws to one
// never shifts another.
const (
	SubsystemStream  = "stream" // seeded with the key itself, so --seed alone fixes a stream
	SubsystemWeights = "weights"
	SubsystemCache   = "cache" // random initial OGA cache
)

// SubsystemMetaLearner names the source of the i-th EG learner of a sweep.
func SubsystemMetaLearner(i int) string {
	return fmt.Sprintf("metalearner_%d", i)
}

// PartitionedRNG hands out one *rand.Rand per subsystem, seeded with the key
// XOR a hash of the subsystem name (the stream subsystem uses the key as is).
//
// It is not safe for concurrent use: derive sources on the coordinating
// goroutine and give each to a single worker.
type PartitionedRNG struct {
	key     SimulationKey
	sources map[string]*rand.Rand
}

func NewPartitionedRNG(key SimulationKey) *PartitionedRNG {
	return &PartitionedRNG{key: key, sources: make(map[string]*rand.Rand)}
}

// ForSubsystem returns the source for name, creating it on first use. Later
// calls with the same name continue the same sequence.
func (p *PartitionedRNG) ForSubsystem(name string) *rand.Rand {
	if src, ok := p.sources[name]; ok {
		return src
	}
	src := rand.New(rand.NewSource(p.seedFor(name)))
	p.sources[name] = src
	return src
}

func (p *PartitionedRNG) Key() SimulationKey {
	return p.key
}

func (p *PartitionedRNG) seedFor(name string) int64 {
	if name == SubsystemStream {
		return int64(p.key)
	}
	return int64(p.key) ^ nameHash(name)
}

// nameHash is the 64-bit FNV-1a hash of name.
func nameHash(name string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(name))
	return int64(h.Sum64())
}
