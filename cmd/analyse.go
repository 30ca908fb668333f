package cmd

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"text/tabwriter"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/inference-sim/cachesim/sim"
	"github.com/inference-sim/cachesim/sim/store"
	"github.com/inference-sim/cachesim/sim/trace"
)

var curvesPath string

// analyseCmd compares the traces saved by run and eg.
var analyseCmd = &cobra.Command{
	Use:   "analyse",
	Short: "Compare saved traces: cumulative utility and regret against BSCH and LRU",
	Run: func(cmd *cobra.Command, args []string) {
		if err := analyseResults(resultsDir, curvesPath, cmd.OutOrStdout()); err != nil {
			logrus.Fatalf("analysis failed: %v", err)
		}
	},
}

// loadTraces returns every saved policy run followed by every saved EG result.
func loadTraces(st *store.Store) ([]*trace.Run, error) {
	names, err := st.Policies()
	if err != nil {
		return nil, err
	}
	var runs []*trace.Run
	for _, name := range names {
		run, err := st.LoadRun(name)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	metaNames, err := st.MetaLearners()
	if err != nil {
		return nil, err
	}
	for _, name := range metaNames {
		res, err := st.LoadMetaLearner(name)
		if err != nil {
			return nil, err
		}
		runs = append(runs, &trace.Run{Policy: name, Utility: res.Utility})
	}
	return runs, nil
}

func findRun(runs []*trace.Run, name string) *trace.Run {
	for _, r := range runs {
		if r.Policy == name {
			return r
		}
	}
	return nil
}

// analyseResults summarizes the traces under dir and, when curvesPath is set,
// writes their cumulative utility as CSV with one column per policy.
func analyseResults(dir, curvesPath string, out io.Writer) error {
	st, err := store.Open(dir)
	if err != nil {
		return err
	}
	runs, err := loadTraces(st)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		return fmt.Errorf("%w: no traces under %s", store.ErrNotFound, dir)
	}
	horizon := len(runs[0].Utility)
	for _, r := range runs {
		if len(r.Utility) != horizon {
			return fmt.Errorf("%w: %s has %d timeslots, want %d", sim.ErrInvalidConfig, r.Policy, len(r.Utility), horizon)
		}
	}

	bsch, lru := findRun(runs, sim.PolicyBSCH), findRun(runs, sim.PolicyLRU)
	if bsch == nil {
		logrus.Warnf("no %s trace under %s; regret against BSCH is reported as 0", sim.PolicyBSCH, dir)
	}
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "POLICY\tUTILITY\tMEAN\tREGRET VS BSCH\tREGRET VS LRU")
	for _, r := range runs {
		s := trace.Summarize(r, bsch, lru)
		fmt.Fprintf(tw, "%s\t%.2f\t%.4f\t%.2f\t%.2f\n", s.Policy, s.Total, s.MeanUtility, s.RegretVsBSCH, s.RegretVsLRU)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	if curvesPath == "" {
		return nil
	}
	f, err := os.Create(curvesPath)
	if err != nil {
		return fmt.Errorf("creating curves file: %w", err)
	}
	defer f.Close()
	if err := writeCurves(f, runs); err != nil {
		return err
	}
	return f.Close()
}

// writeCurves writes one row per timeslot with the cumulative utility of every run.
func writeCurves(w io.Writer, runs []*trace.Run) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(runs)+1)
	header = append(header, "timeslot")
	cumulative := make([][]float64, len(runs))
	for i, r := range runs {
		header = append(header, r.Policy)
		cumulative[i] = r.Cumulative()
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	row := make([]string, len(runs)+1)
	for t := range cumulative[0] {
		row[0] = strconv.Itoa(t)
		for i := range runs {
			row[i+1] = strconv.FormatFloat(cumulative[i][t], 'g', -1, 64)
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func init() {
	analyseCmd.Flags().StringVar(&resultsDir, "results", "", "Results directory written by run --output and eg")
	analyseCmd.Flags().StringVar(&curvesPath, "curves", "", "Write cumulative utility per timeslot as CSV to this file")
	_ = analyseCmd.MarkFlagRequired("results")
}
