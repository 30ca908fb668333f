package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/inference-sim/cachesim/sim"
	"github.com/inference-sim/cachesim/sim/workload"
)

// BenchmarkFile is the YAML form of a benchmark run (--config).
// Fields absent from the file keep their flag defaults; flags set explicitly on
// the command line override the file.
type BenchmarkFile struct {
	Seed     int64 `yaml:"seed"`
	Horizon  int   `yaml:"horizon"`
	Library  int   `yaml:"library"`
	Capacity int   `yaml:"capacity"`

	LearningRates []float64 `yaml:"learning_rates"`
	DynamicRate   bool      `yaml:"dynamic_rate"`
	EGRates       []float64 `yaml:"eg_rates"`
	AutoEGRate    bool      `yaml:"auto_eg_rate"`

	SkipFinalUpdate   bool `yaml:"skip_final_update"`
	RandomInitCache   bool `yaml:"random_initial_cache"`
	TrackCacheHistory bool `yaml:"track_cache_history"`
	TrackDistance     bool `yaml:"track_distance"`

	Policies []string `yaml:"policies"`
	Workers  int      `yaml:"workers"`

	Stream  workload.StreamSpec `yaml:"stream"`
	Weights workload.WeightSpec `yaml:"weights"`
}

// flagsBenchmarkFile captures the current flag values.
func flagsBenchmarkFile() BenchmarkFile {
	return BenchmarkFile{
		Seed:              seed,
		Horizon:           horizon,
		Library:           library,
		Capacity:          capacity,
		LearningRates:     learningRates,
		DynamicRate:       dynamicRate,
		EGRates:           egRates,
		AutoEGRate:        autoEGRate,
		SkipFinalUpdate:   skipFinalUpdate,
		RandomInitCache:   randomInit,
		TrackCacheHistory: trackCache,
		TrackDistance:     trackDistance,
		Policies:          policies,
		Workers:           workers,
		Stream:            streamSpecFromFlags(),
		Weights:           workload.WeightSpec{Type: weightType},
	}
}

func streamSpecFromFlags() workload.StreamSpec {
	return workload.StreamSpec{Distribution: distribution, Alpha: zipfAlpha, Bound: roundRobinBound}
}

// loadBenchmarkFile decodes path over base. Unknown keys are rejected.
func loadBenchmarkFile(path string, base BenchmarkFile) (BenchmarkFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("reading benchmark config: %w", err)
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&base); err != nil {
		return base, fmt.Errorf("parsing benchmark config %s: %w", path, err)
	}
	return base, nil
}

// applyChangedFlags writes every explicitly set flag over bf.
func applyChangedFlags(cmd *cobra.Command, bf *BenchmarkFile) {
	flags := cmd.Flags()
	if flags.Changed("seed") {
		bf.Seed = seed
	}
	if flags.Changed("horizon") {
		bf.Horizon = horizon
	}
	if flags.Changed("library") {
		bf.Library = library
	}
	if flags.Changed("capacity") {
		bf.Capacity = capacity
	}
	if flags.Changed("rates") {
		bf.LearningRates = learningRates
	}
	if flags.Changed("dynamic-rate") {
		bf.DynamicRate = dynamicRate
	}
	if flags.Changed("eg-rates") {
		bf.EGRates = egRates
	}
	if flags.Changed("auto-eg-rate") {
		bf.AutoEGRate = autoEGRate
	}
	if flags.Changed("skip-final-update") {
		bf.SkipFinalUpdate = skipFinalUpdate
	}
	if flags.Changed("random-init") {
		bf.RandomInitCache = randomInit
	}
	if flags.Changed("track-cache") {
		bf.TrackCacheHistory = trackCache
	}
	if flags.Changed("track-distance") {
		bf.TrackDistance = trackDistance
	}
	if flags.Changed("policies") {
		bf.Policies = policies
	}
	if flags.Changed("workers") {
		bf.Workers = workers
	}
	if flags.Changed("distribution") {
		bf.Stream.Distribution = distribution
	}
	if flags.Changed("zipf-alpha") {
		bf.Stream.Alpha = zipfAlpha
	}
	if flags.Changed("round-robin-bound") {
		bf.Stream.Bound = roundRobinBound
	}
	if flags.Changed("weights") {
		bf.Weights.Type = weightType
	}
}

// resolveBenchmarkFile merges flag defaults, the optional config file and the
// explicitly set flags, in that order of precedence.
func resolveBenchmarkFile(cmd *cobra.Command, configPath string) (BenchmarkFile, error) {
	bf := flagsBenchmarkFile()
	if configPath != "" {
		var err error
		if bf, err = loadBenchmarkFile(configPath, bf); err != nil {
			return bf, err
		}
		applyChangedFlags(cmd, &bf)
	}
	return bf, nil
}

// SimConfig converts the file into the benchmark configuration.
func (bf BenchmarkFile) SimConfig() sim.Config {
	return sim.Config{
		Horizon:            bf.Horizon,
		Library:            bf.Library,
		Capacity:           bf.Capacity,
		LearningRates:      bf.LearningRates,
		DynamicRate:        bf.DynamicRate,
		MetaLearningRates:  bf.EGRates,
		AutoMetaRate:       bf.AutoEGRate,
		SkipFinalUpdate:    bf.SkipFinalUpdate,
		RandomInitialCache: bf.RandomInitCache,
		TrackCacheHistory:  bf.TrackCacheHistory,
		TrackDistance:      bf.TrackDistance,
		Policies:           bf.Policies,
		Seed:               bf.Seed,
	}
}

// WorkloadSpec returns the synthetic workload described by the file.
func (bf BenchmarkFile) WorkloadSpec() *workload.WorkloadSpec {
	return &workload.WorkloadSpec{
		Seed:    bf.Seed,
		Horizon: bf.Horizon,
		Library: bf.Library,
		Stream:  bf.Stream,
		Weights: bf.Weights,
	}
}
