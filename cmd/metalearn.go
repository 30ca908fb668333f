package cmd

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/cachesim/sim"
	"github.com/inference-sim/cachesim/sim/bench"
	"github.com/inference-sim/cachesim/sim/metalearn"
	"github.com/inference-sim/cachesim/sim/store"
)

// egCmd reruns the EG meta-learner over OGA traces saved by a previous run.
var egCmd = &cobra.Command{
	Use:   "eg",
	Short: "Run EG meta-learners over saved OGA expert traces",
	Run: func(cmd *cobra.Command, args []string) {
		if err := runMetaLearners(resultsDir, experts, egRates, autoEGRate, seed, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("meta learner failed: %v", err)
		}
	},
}

// savedExperts returns the OGA runs in st, in lexical order.
func savedExperts(st *store.Store) ([]string, error) {
	names, err := st.Policies()
	if err != nil {
		return nil, err
	}
	var oga []string
	for _, name := range names {
		if strings.HasPrefix(name, sim.PolicyOGA+"[") {
			oga = append(oga, name)
		}
	}
	return oga, nil
}

// runMetaLearners loads the expert traces under dir and runs EG once per rate,
// plus once at the theoretical rate when auto is set. Each result is saved
// back under dir.
func runMetaLearners(dir string, names []string, rates []float64, auto bool, seed int64, out io.Writer) error {
	if len(rates) == 0 && !auto {
		return fmt.Errorf("%w: the set of EG learning rates must not be empty", sim.ErrInvalidConfig)
	}
	if err := sim.ValidateRates("EG learning rate", rates); err != nil {
		return err
	}
	st, err := store.Open(dir)
	if err != nil {
		return err
	}
	if len(names) == 0 {
		if names, err = savedExperts(st); err != nil {
			return err
		}
	}
	if len(names) == 0 {
		return fmt.Errorf("%w: no OGA expert traces under %s", sim.ErrInvalidConfig, dir)
	}
	traces := make([][]float64, len(names))
	for i, name := range names {
		run, err := st.LoadRun(name)
		if err != nil {
			return err
		}
		traces[i] = run.Utility
	}
	u, err := metalearn.Experts(traces)
	if err != nil {
		return err
	}
	horizon, k := u.Dims()
	logrus.Infof("EG over %d experts %v, T=%d", k, names, horizon)

	type task struct {
		name string
		rate float64
	}
	var tasks []task
	for _, r := range rates {
		tasks = append(tasks, task{metalearn.Name(r), r})
	}
	if auto {
		tasks = append(tasks, task{bench.AutoMetaName, metalearn.AutoRate(u)})
	}

	rng := sim.NewPartitionedRNG(sim.NewSimulationKey(seed))
	for i, tk := range tasks {
		start := time.Now()
		res, err := metalearn.Run(u, tk.rate, rng.ForSubsystem(sim.SubsystemMetaLearner(i)))
		if err != nil {
			return fmt.Errorf("%s: %w", tk.name, err)
		}
		logrus.Infof("[%.2fs] %s meta learner", time.Since(start).Seconds(), tk.name)
		if err := st.SaveMetaLearner(tk.name, res); err != nil {
			return fmt.Errorf("saving %s: %w", tk.name, err)
		}
		final := res.Final()
		fmt.Fprintf(out, "Utility accumulated by %s (rate %g): %.2f (expected %.2f)\n", tk.name, tk.rate, res.Total(), res.ExpectedTotal())
		for j, name := range names {
			fmt.Fprintf(out, "  %s: final weight %.4f\n", name, final[j])
		}
	}
	return nil
}

func init() {
	egCmd.Flags().StringVar(&resultsDir, "results", "", "Results directory written by run --output")
	egCmd.Flags().StringSliceVar(&experts, "experts", nil, "Saved OGA runs to combine; default every saved oga[...] run")
	egCmd.Flags().Float64SliceVar(&egRates, "eg-rates", []float64{0.01}, "Comma-separated EG learning rates")
	egCmd.Flags().BoolVar(&autoEGRate, "auto-eg-rate", false, "Add an EG meta-learner with the theoretical learning rate")
	egCmd.Flags().Int64Var(&seed, "seed", 42, "Seed for EG expert selection")
	_ = egCmd.MarkFlagRequired("results")
}
