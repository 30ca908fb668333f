package sim

import (
	"fmt"
	"math"
)

// Policy family names accepted in Config.Policies.
const (
	PolicyBSCH = "bsch"
	PolicyLRU  = "lru"
	PolicyARC  = "arc"
	PolicyOGA  = "oga"
	PolicyEG   = "eg"
)

// ValidPolicies is the set of recognized policy family names.
var ValidPolicies = map[string]bool{PolicyBSCH: true, PolicyLRU: true, PolicyARC: true, PolicyOGA: true, PolicyEG: true}

// DefaultPolicies is used when Config.Policies is empty.
var DefaultPolicies = []string{PolicyBSCH, PolicyLRU, PolicyOGA, PolicyEG}

// Config groups the parameters of one benchmark run.
type Config struct {
	Horizon  int // T, number of timeslots (must be > 0)
	Library  int // N, number of distinct items (must be > 0)
	Capacity int // C, cache capacity (0 < C < N)

	LearningRates []float64 // one OGA expert per fixed rate (each > 0)
	DynamicRate   bool      // add an OGA expert with the per-timeslot diameter/Lipschitz rate

	MetaLearningRates []float64 // one EG meta-learner per rate (each > 0)
	AutoMetaRate      bool      // add an EG meta-learner whose rate is derived from the utility bound

	SkipFinalUpdate    bool // OGA skips the cache update after the last request
	RandomInitialCache bool // OGA experts start from a random feasible configuration instead of zero
	TrackCacheHistory  bool // record the T×N cache configuration of every policy
	TrackDistance      bool // record the Euclidean distance to the BSCH configuration

	Policies []string // policy families to run; empty means DefaultPolicies
	Seed     int64
}

// EnabledPolicies returns the policy families this run executes.
func (c Config) EnabledPolicies() map[string]bool {
	names := c.Policies
	if len(names) == 0 {
		names = DefaultPolicies
	}
	enabled := make(map[string]bool, len(names))
	for _, name := range names {
		enabled[name] = true
	}
	return enabled
}

// Validate checks every range constraint. It is called before any simulation runs,
// so a failing configuration never produces partial results.
func (c Config) Validate() error {
	if c.Horizon <= 0 {
		return fmt.Errorf("%w: horizon T must be positive, got %d", ErrInvalidConfig, c.Horizon)
	}
	if c.Library <= 0 {
		return fmt.Errorf("%w: library size N must be positive, got %d", ErrInvalidConfig, c.Library)
	}
	if c.Capacity <= 0 || c.Capacity >= c.Library {
		return fmt.Errorf("%w: capacity C must be within [1 .. %d], got %d", ErrInvalidConfig, c.Library-1, c.Capacity)
	}
	for _, name := range c.Policies {
		if !ValidPolicies[name] {
			return fmt.Errorf("%w: unknown policy %q", ErrInvalidConfig, name)
		}
	}
	enabled := c.EnabledPolicies()
	if enabled[PolicyOGA] || enabled[PolicyEG] {
		if len(c.LearningRates) == 0 && !c.DynamicRate {
			return fmt.Errorf("%w: the set of OGA learning rates must not be empty", ErrInvalidConfig)
		}
		if err := ValidateRates("learning rate", c.LearningRates); err != nil {
			return err
		}
	}
	if enabled[PolicyEG] {
		if len(c.MetaLearningRates) == 0 && !c.AutoMetaRate {
			return fmt.Errorf("%w: the set of EG learning rates must not be empty", ErrInvalidConfig)
		}
		if err := ValidateRates("EG learning rate", c.MetaLearningRates); err != nil {
			return err
		}
	}
	return nil
}

// ValidateRates checks that every rate is positive, finite and distinct.
func ValidateRates(name string, rates []float64) error {
	seen := make(map[float64]bool, len(rates))
	for i, r := range rates {
		if math.IsNaN(r) || math.IsInf(r, 0) || r <= 0 {
			return fmt.Errorf("%w: %s[%d] must be a positive finite number, got %f", ErrInvalidConfig, name, i, r)
		}
		if seen[r] {
			return fmt.Errorf("%w: duplicate %s %g", ErrInvalidConfig, name, r)
		}
		seen[r] = true
	}
	return nil
}
