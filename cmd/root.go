package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	// CLI flags for the synthetic workload and the benchmark
	seed            int64     // Seed for stream, weight and EG expert generation
	horizon         int       // Number of timeslots T
	library         int       // Number of distinct items N
	capacity        int       // Cache capacity C
	distribution    string    // Request distribution (uniform, zipf, round_robin)
	zipfAlpha       float64   // Zipf exponent
	roundRobinBound int       // Cycle length of the round-robin stream
	weightType      string    // Utility weights (uniform, random, time_varying)
	learningRates   []float64 // Fixed OGA learning rates
	dynamicRate     bool      // Add the OGA expert with per-timeslot diameter/Lipschitz rate
	egRates         []float64 // EG learning rates
	autoEGRate      bool      // Add the EG meta-learner with the theoretical rate
	skipFinalUpdate bool      // OGA skips the update after the last request
	randomInit      bool      // OGA experts start from a random feasible cache
	trackCache      bool      // Record the T×N cache history of every policy
	trackDistance   bool      // Record the distance to the BSCH configuration
	policies        []string  // Policy families to run
	workers         int       // Maximum concurrent policy tasks

	configPath  string // YAML benchmark file
	inputsDir   string // Results directory holding a previously generated workload
	outputDir   string // Results directory to write artifacts to
	resultsDir  string // Results directory read by eg and analyse
	metricsFile string // Prometheus textfile output
	experts     []string
	logLevel    string // Log verbosity level
)

var rootCmd = &cobra.Command{
	Use:   "cachesim",
	Short: "Benchmark online caching policies against the best static cache in hindsight",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level, err := logrus.ParseLevel(logLevel)
		if err != nil {
			logrus.Fatalf("Invalid log level: %s", logLevel)
		}
		logrus.SetLevel(level)
	},
}

// runCmd executes the benchmark
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run BSCH, LRU, OGA and EG over one request stream",
	Run: func(cmd *cobra.Command, args []string) {
		bf, err := resolveBenchmarkFile(cmd, configPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		opts := runOptions{Inputs: inputsDir, Output: outputDir, MetricsFile: metricsFile}
		if err := runBenchmark(cmd.Context(), bf, opts, os.Stdout); err != nil {
			logrus.Fatalf("benchmark failed: %v", err)
		}
	},
}

// Execute runs the CLI root command; interrupts cancel the running benchmark.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

// registerWorkloadFlags adds the synthetic workload flags shared by run and generate.
func registerWorkloadFlags(cmd *cobra.Command) {
	cmd.Flags().Int64Var(&seed, "seed", 42, "Seed for stream, weight and EG expert generation")
	cmd.Flags().IntVar(&horizon, "horizon", 10000, "Number of timeslots T")
	cmd.Flags().IntVar(&library, "library", 1000, "Number of distinct items N")
	cmd.Flags().StringVar(&distribution, "distribution", "zipf", "Request distribution (uniform, zipf, round_robin)")
	cmd.Flags().Float64Var(&zipfAlpha, "zipf-alpha", 0.8, "Zipf exponent of the request distribution")
	cmd.Flags().IntVar(&roundRobinBound, "round-robin-bound", 1, "Cycle length of the round_robin distribution")
	cmd.Flags().StringVar(&weightType, "weights", "uniform", "Utility weights (uniform, random, time_varying)")
}

// registerRunFlags adds the benchmark flags of the run command.
func registerRunFlags(cmd *cobra.Command) {
	registerWorkloadFlags(cmd)
	cmd.Flags().IntVar(&capacity, "capacity", 100, "Cache capacity C")
	cmd.Flags().Float64SliceVar(&learningRates, "rates", []float64{0.05, 0.1, 0.3, 1.0}, "Comma-separated fixed OGA learning rates")
	cmd.Flags().BoolVar(&dynamicRate, "dynamic-rate", false, "Add an OGA expert with the per-timeslot diameter/Lipschitz rate")
	cmd.Flags().Float64SliceVar(&egRates, "eg-rates", []float64{0.01}, "Comma-separated EG learning rates")
	cmd.Flags().BoolVar(&autoEGRate, "auto-eg-rate", false, "Add an EG meta-learner with the theoretical learning rate")
	cmd.Flags().BoolVar(&skipFinalUpdate, "skip-final-update", false, "OGA skips the cache update after the last request")
	cmd.Flags().BoolVar(&randomInit, "random-init", false, "Start OGA experts from a random feasible cache drawn from --seed")
	cmd.Flags().BoolVar(&trackCache, "track-cache", false, "Record the cache configuration of every policy at every timeslot")
	cmd.Flags().BoolVar(&trackDistance, "track-distance", false, "Record the distance of every cache to the BSCH configuration")
	cmd.Flags().StringSliceVar(&policies, "policies", nil, "Policy families to run (bsch, lru, arc, oga, eg); default bsch,lru,oga,eg")
	cmd.Flags().IntVar(&workers, "workers", 0, "Maximum concurrent policy tasks (0 = unbounded)")
	cmd.Flags().StringVar(&configPath, "config", "", "YAML benchmark file; explicit flags override its values")
	cmd.Flags().StringVar(&inputsDir, "inputs", "", "Results directory with a stream and weights saved by generate")
	cmd.Flags().StringVar(&outputDir, "output", "", "Results directory to save the stream, weights and every trace to")
	cmd.Flags().StringVar(&metricsFile, "metrics-file", "", "Write Prometheus metrics in text format to this file")
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log", "info", "Log level (trace, debug, info, warn, error, fatal, panic)")

	registerRunFlags(runCmd)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(egCmd)
	rootCmd.AddCommand(analyseCmd)
}
