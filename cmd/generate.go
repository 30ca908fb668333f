package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/cachesim/sim/store"
	"github.com/inference-sim/cachesim/sim/workload"
)

var workloadSpecPath string

// generateCmd synthesizes a request stream and its weights into a results directory.
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a request stream and utility weights",
	Run: func(cmd *cobra.Command, args []string) {
		spec, err := resolveWorkloadSpec(cmd, workloadSpecPath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := generateWorkload(spec, outputDir); err != nil {
			logrus.Fatalf("generation failed: %v", err)
		}
		logrus.Infof("stream of %d requests over %d items saved to %s", spec.Horizon, spec.Library, outputDir)
	},
}

// resolveWorkloadSpec loads the optional spec file and applies explicitly set flags over it.
func resolveWorkloadSpec(cmd *cobra.Command, path string) (*workload.WorkloadSpec, error) {
	bf := flagsBenchmarkFile()
	if path == "" {
		return bf.WorkloadSpec(), nil
	}
	spec, err := workload.LoadWorkloadSpec(path)
	if err != nil {
		return nil, err
	}
	flags := cmd.Flags()
	if flags.Changed("seed") {
		spec.Seed = seed
	}
	if flags.Changed("horizon") {
		spec.Horizon = horizon
	}
	if flags.Changed("library") {
		spec.Library = library
	}
	if flags.Changed("distribution") {
		spec.Stream.Distribution = distribution
	}
	if flags.Changed("zipf-alpha") {
		spec.Stream.Alpha = zipfAlpha
	}
	if flags.Changed("round-robin-bound") {
		spec.Stream.Bound = roundRobinBound
	}
	if flags.Changed("weights") {
		spec.Weights.Type = weightType
	}
	return spec, nil
}

func generateWorkload(spec *workload.WorkloadSpec, dir string) error {
	wl, err := workload.Generate(spec)
	if err != nil {
		return err
	}
	st, err := store.Open(dir)
	if err != nil {
		return err
	}
	if err := st.SaveStream(wl.Stream); err != nil {
		return err
	}
	return st.SaveWeights(wl.Weights)
}

func init() {
	registerWorkloadFlags(generateCmd)
	generateCmd.Flags().StringVar(&workloadSpecPath, "workload-spec", "", "YAML workload specification; explicit flags override its values")
	generateCmd.Flags().StringVar(&outputDir, "output", "", "Results directory to write the stream and weights to")
	_ = generateCmd.MarkFlagRequired("output")
}
