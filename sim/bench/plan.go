package bench

import (
	"github.com/inference-sim/cachesim/sim"
	"github.com/inference-sim/cachesim/sim/metalearn"
	"github.com/inference-sim/cachesim/sim/policy"
	"github.com/inference-sim/cachesim/sim/workload"
)

// PolicySpec describes one independent policy task.
type PolicySpec struct {
	Name   string
	Family string
	New    func(s *sim.RequestStream, w *sim.Weights) policy.Policy
}

// MetaSpec describes one EG task over a set of expert policies.
type MetaSpec struct {
	Name    string
	Rate    float64 // ignored when Auto is set
	Auto    bool    // derive the rate from the observed utility bound
	Experts []string
}

// Plan lists the tasks of a benchmark. Policies run concurrently; meta-learners
// run after every policy finished, since they consume the expert traces.
type Plan struct {
	Policies     []PolicySpec
	MetaLearners []MetaSpec
}

// AutoMetaName is the key of the EG instance whose rate is derived from the data.
const AutoMetaName = "eg[auto]"

// NewPlan builds the plan of a validated configuration.
// OGA experts are scheduled whenever EG is enabled, even if OGA itself is not listed.
func NewPlan(cfg sim.Config) *Plan {
	enabled := cfg.EnabledPolicies()
	p := &Plan{}

	if enabled[sim.PolicyBSCH] {
		p.Policies = append(p.Policies, PolicySpec{
			Name:   sim.PolicyBSCH,
			Family: sim.PolicyBSCH,
			New: func(s *sim.RequestStream, w *sim.Weights) policy.Policy {
				return policy.NewBSCH(s, w, cfg.Capacity)
			},
		})
	}
	if enabled[sim.PolicyLRU] {
		p.Policies = append(p.Policies, PolicySpec{
			Name:   sim.PolicyLRU,
			Family: sim.PolicyLRU,
			New: func(s *sim.RequestStream, _ *sim.Weights) policy.Policy {
				return policy.NewLRU(s.Library(), cfg.Capacity)
			},
		})
	}
	if enabled[sim.PolicyARC] {
		p.Policies = append(p.Policies, PolicySpec{
			Name:   sim.PolicyARC,
			Family: sim.PolicyARC,
			New: func(s *sim.RequestStream, _ *sim.Weights) policy.Policy {
				return policy.NewARC(s.Library(), cfg.Capacity)
			},
		})
	}

	var experts []string
	if enabled[sim.PolicyOGA] || enabled[sim.PolicyEG] {
		var initial []float64
		if cfg.RandomInitialCache {
			rng := sim.NewPartitionedRNG(sim.NewSimulationKey(cfg.Seed))
			initial = workload.RandomCache(cfg.Library, cfg.Capacity, rng.ForSubsystem(sim.SubsystemCache))
		}
		schedules := make([]policy.RateSchedule, 0, len(cfg.LearningRates)+1)
		for _, r := range cfg.LearningRates {
			schedules = append(schedules, policy.FixedRate(r))
		}
		if cfg.DynamicRate {
			schedules = append(schedules, policy.NewDynamicRate(cfg.Library, cfg.Capacity, cfg.Horizon))
		}
		for _, sched := range schedules {
			sched := sched
			name := "oga[" + sched.String() + "]"
			p.Policies = append(p.Policies, PolicySpec{
				Name:   name,
				Family: sim.PolicyOGA,
				New: func(s *sim.RequestStream, _ *sim.Weights) policy.Policy {
					return policy.NewOGA(policy.OGAConfig{
						Library:         s.Library(),
						Capacity:        cfg.Capacity,
						Horizon:         s.Len(),
						Schedule:        sched,
						SkipFinalUpdate: cfg.SkipFinalUpdate,
						Initial:         initial,
					})
				},
			})
			experts = append(experts, name)
		}
	}

	if enabled[sim.PolicyEG] {
		for _, r := range cfg.MetaLearningRates {
			p.MetaLearners = append(p.MetaLearners, MetaSpec{Name: metalearn.Name(r), Rate: r, Experts: experts})
		}
		if cfg.AutoMetaRate {
			p.MetaLearners = append(p.MetaLearners, MetaSpec{Name: AutoMetaName, Auto: true, Experts: experts})
		}
	}
	return p
}

// Names returns every task name in plan order.
func (p *Plan) Names() []string {
	names := make([]string, 0, len(p.Policies)+len(p.MetaLearners))
	for _, s := range p.Policies {
		names = append(names, s.Name)
	}
	for _, m := range p.MetaLearners {
		names = append(names, m.Name)
	}
	return names
}
