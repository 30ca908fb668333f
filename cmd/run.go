package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/inference-sim/cachesim/sim"
	"github.com/inference-sim/cachesim/sim/bench"
	"github.com/inference-sim/cachesim/sim/metrics"
	"github.com/inference-sim/cachesim/sim/store"
	"github.com/inference-sim/cachesim/sim/workload"
)

// runOptions holds the artifact locations of a benchmark run.
type runOptions struct {
	Inputs      string // load stream and weights from here instead of generating them
	Output      string
	MetricsFile string
}

// loadWorkload returns the saved workload under dir, or synthesizes one from bf.
// A saved stream fixes the horizon and library size of the run.
func loadWorkload(bf *BenchmarkFile, dir string) (*workload.Workload, error) {
	if dir == "" {
		return workload.Generate(bf.WorkloadSpec())
	}
	st, err := store.Open(dir)
	if err != nil {
		return nil, err
	}
	s, err := st.LoadStream()
	if err != nil {
		return nil, err
	}
	w, err := st.LoadWeights()
	if err != nil {
		return nil, err
	}
	if bf.Horizon != s.Len() || bf.Library != s.Library() {
		logrus.Infof("using the saved stream: T=%d, N=%d", s.Len(), s.Library())
	}
	bf.Horizon, bf.Library = s.Len(), s.Library()
	return &workload.Workload{Stream: s, Weights: w}, nil
}

// runBenchmark runs every policy of bf and prints the report to out. Failed
// policies are reported and returned as an aggregated error after the
// successful ones were saved.
func runBenchmark(ctx context.Context, bf BenchmarkFile, opts runOptions, out io.Writer) error {
	wl, err := loadWorkload(&bf, opts.Inputs)
	if err != nil {
		return err
	}
	b, err := bench.New(bf.SimConfig(), wl.Stream, wl.Weights)
	if err != nil {
		return err
	}
	b.Workers = bf.Workers
	if opts.MetricsFile != "" {
		if b.Metrics, err = metrics.NewCollector(); err != nil {
			return err
		}
	}

	logrus.Infof("benchmarking T=%d, N=%d, C=%d", bf.Horizon, bf.Library, bf.Capacity)
	report, runErr := b.Run(ctx)
	printReport(out, report)

	if opts.Output != "" {
		if err := saveReport(opts.Output, wl, report); err != nil {
			runErr = multierr.Append(runErr, err)
		} else {
			logrus.Infof("results saved to %s", opts.Output)
		}
	}
	if opts.MetricsFile != "" {
		if err := b.Metrics.WriteTextfile(opts.MetricsFile); err != nil {
			runErr = multierr.Append(runErr, err)
		}
	}
	return runErr
}

// saveReport writes the inputs and every successful trace under dir.
func saveReport(dir string, wl *workload.Workload, report *bench.Report) error {
	st, err := store.Open(dir)
	if err != nil {
		return err
	}
	if err := st.SaveStream(wl.Stream); err != nil {
		return err
	}
	if err := st.SaveWeights(wl.Weights); err != nil {
		return err
	}
	for _, res := range report.Succeeded() {
		if res.MetaLearner != nil {
			err = st.SaveMetaLearner(res.Name, res.MetaLearner)
		} else {
			err = st.SaveRun(res.Run)
		}
		if err != nil {
			return fmt.Errorf("saving %s: %w", res.Name, err)
		}
	}
	return nil
}

// printReport writes one row per task.
func printReport(out io.Writer, report *bench.Report) {
	if report == nil {
		return
	}
	fmt.Fprintf(out, "Utility accumulated by the best static cache in hindsight: %.2f\n", report.Hindsight)
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POLICY\tUTILITY\tHIT RATIO\tREGRET VS BSCH\tREGRET VS LRU\tELAPSED")
	for _, res := range report.Results {
		if res.Err != nil {
			fmt.Fprintf(tw, "%s\tFAILED: %v\t\t\t\t\n", res.Name, res.Err)
			continue
		}
		s := res.Summary
		hitRatio := "-"
		if res.Family != sim.PolicyEG {
			hitRatio = fmt.Sprintf("%.4f", s.HitRatio)
		}
		fmt.Fprintf(tw, "%s\t%.2f\t%s\t%.2f\t%.2f\t%.2fs\n",
			res.Name, s.Total, hitRatio, s.RegretVsBSCH, s.RegretVsLRU, s.Elapsed.Seconds())
	}
	tw.Flush()
}
