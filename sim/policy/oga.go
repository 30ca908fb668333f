package policy

import (
	"errors"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/floats"
)

// === Pure OGA operations ===

// Construct returns the zero cache configuration of a library of n items.
func Construct(n int) []float64 {
	return make([]float64, n)
}

// Utility returns Σ w_i·x_i·y_i, the utility of configuration y for request x.
func Utility(x, y, w []float64) float64 {
	u := 0.0
	for i := range x {
		u += w[i] * x[i] * y[i]
	}
	return u
}

// Gradient returns w ⊙ x. The utility is linear in the cache configuration,
// so the gradient does not depend on it.
func Gradient(x, w []float64) []float64 {
	g := make([]float64, len(x))
	floats.MulTo(g, w, x)
	return g
}

// Ascend returns y + rate·g. The result may lie outside the feasible set.
func Ascend(y, g []float64, rate float64) []float64 {
	z := make([]float64, len(y))
	floats.AddScaledTo(z, y, rate, g)
	return z
}

// Diameter returns the diameter of {y ∈ [0,1]^n : Σy ≤ c}:
// sqrt(2c) when c ≤ n/2, sqrt(2(n−c)) otherwise. Returns 0 for c outside (0, n].
func Diameter(n, c int) float64 {
	half := float64(n) / 2
	switch {
	case c > 0 && float64(c) <= half:
		return math.Sqrt(2 * float64(c))
	case float64(c) > half && c <= n:
		return math.Sqrt(2 * float64(n-c))
	default:
		return 0
	}
}

// LipschitzBound returns ‖w ⊙ x‖₂, the Lipschitz constant of the utility for
// request x. For a one-hot request this is the weight of the requested item.
func LipschitzBound(x, w []float64) float64 {
	return floats.Norm(Gradient(x, w), 2)
}

// DynamicLearningRate returns diam / (l·sqrt(horizon)).
// A zero bound means a zero gradient; the rate is then irrelevant and 0 is returned.
func DynamicLearningRate(diam, l float64, horizon int) float64 {
	if l == 0 || horizon <= 0 {
		return 0
	}
	return diam / (l * math.Sqrt(float64(horizon)))
}

// === Learning-rate schedules ===

// RateSchedule yields the learning rate used at a timeslot.
type RateSchedule interface {
	Rate(x, w []float64) float64
	String() string
}

// FixedRate is a caller-supplied constant learning rate.
type FixedRate float64

func (r FixedRate) Rate(_, _ []float64) float64 { return float64(r) }

func (r FixedRate) String() string { return strconv.FormatFloat(float64(r), 'g', -1, 64) }

// DynamicRate recomputes diam(F) / (L_t·sqrt(T)) from every request.
type DynamicRate struct {
	Diameter float64
	Horizon  int
}

// NewDynamicRate creates the dynamic schedule for library n, capacity c and horizon T.
func NewDynamicRate(n, c, horizon int) DynamicRate {
	return DynamicRate{Diameter: Diameter(n, c), Horizon: horizon}
}

func (r DynamicRate) Rate(x, w []float64) float64 {
	return DynamicLearningRate(r.Diameter, LipschitzBound(x, w), r.Horizon)
}

func (r DynamicRate) String() string { return "dynamic" }

// === OGA policy ===

// OGAConfig parameterizes an OGA instance.
type OGAConfig struct {
	Library         int
	Capacity        int
	Horizon         int
	Schedule        RateSchedule
	SkipFinalUpdate bool      // leave the cache untouched after the request at Horizon−1
	Initial         []float64 // starting configuration; nil means the zero vector
}

// OGA is the fractional online-gradient-ascent cache.
type OGA struct {
	cfg       OGAConfig
	cache     []float64
	x, g, z   []float64
	projector *Projector
	lastRate  float64
}

// NewOGA creates an OGA cache. Panics on a configuration the caller should have validated.
func NewOGA(cfg OGAConfig) *OGA {
	if cfg.Schedule == nil {
		panic("NewOGA: nil learning-rate schedule")
	}
	if cfg.Horizon <= 0 {
		panic(fmt.Sprintf("NewOGA: horizon must be positive, got %d", cfg.Horizon))
	}
	if cfg.Initial != nil && len(cfg.Initial) != cfg.Library {
		panic(fmt.Sprintf("NewOGA: initial configuration has %d entries, want %d", len(cfg.Initial), cfg.Library))
	}
	o := &OGA{
		cfg:       cfg,
		cache:     make([]float64, cfg.Library),
		x:         make([]float64, cfg.Library),
		g:         make([]float64, cfg.Library),
		z:         make([]float64, cfg.Library),
		projector: NewProjector(cfg.Library, cfg.Capacity),
	}
	o.Reset()
	return o
}

// Name returns "oga[<rate>]" or "oga[dynamic]".
func (o *OGA) Name() string { return "oga[" + o.cfg.Schedule.String() + "]" }

// Schedule returns the learning-rate schedule of this instance.
func (o *OGA) Schedule() RateSchedule { return o.cfg.Schedule }

// LastRate returns the learning rate applied by the most recent update.
func (o *OGA) LastRate() float64 { return o.lastRate }

func (o *OGA) Reset() {
	if o.cfg.Initial != nil {
		copy(o.cache, o.cfg.Initial)
	} else {
		clear(o.cache)
	}
	o.lastRate = 0
}

// Step records the utility of the current configuration, then ascends along the
// gradient of the request and projects back onto the feasible set.
func (o *OGA) Step(t, item int, w []float64) (Outcome, error) {
	o.x[item] = 1
	defer func() { o.x[item] = 0 }()

	out := Outcome{Utility: Utility(o.x, o.cache, w), Hit: o.cache[item] > 0}
	if o.cfg.SkipFinalUpdate && t == o.cfg.Horizon-1 {
		return out, nil
	}

	o.lastRate = o.cfg.Schedule.Rate(o.x, w)
	floats.MulTo(o.g, w, o.x)
	floats.AddScaledTo(o.z, o.cache, o.lastRate, o.g)
	if err := o.projector.Project(o.cache, o.z); err != nil {
		var perr *ProjectionError
		if errors.As(err, &perr) {
			perr.Timeslot = t
		}
		return out, fmt.Errorf("%s: %w", o.Name(), err)
	}
	return out, nil
}

func (o *OGA) Cache() []float64 {
	return append([]float64(nil), o.cache...)
}
