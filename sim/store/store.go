package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/inference-sim/cachesim/sim"
	"github.com/inference-sim/cachesim/sim/metalearn"
	"github.com/inference-sim/cachesim/sim/trace"
)

// Directory layout under the results root.
const (
	inputsDir      = "inputs"
	policiesDir    = "policies"
	metaLearnerDir = "metalearner"
	fileExt        = ".json.gz"
)

// ErrNotFound reports an artifact that was never saved.
var ErrNotFound = errors.New("artifact not found")

// Store reads and writes the artifacts of benchmark runs under one directory.
type Store struct {
	root string
}

// Open creates the results directory if needed.
func Open(root string) (*Store, error) {
	for _, dir := range []string{inputsDir, policiesDir, metaLearnerDir} {
		if err := os.MkdirAll(filepath.Join(root, dir), 0750); err != nil {
			return nil, fmt.Errorf("failed to create results directory: %w", err)
		}
	}
	return &Store{root: root}, nil
}

// Root returns the results directory.
func (s *Store) Root() string { return s.root }

func (s *Store) path(parts ...string) string {
	return filepath.Join(append([]string{s.root}, parts...)...) + fileExt
}

func (s *Store) save(a *Array, parts ...string) error {
	path := s.path(parts...)
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	return writeArray(path, a)
}

func (s *Store) load(parts ...string) (*Array, error) {
	a, err := readArray(s.path(parts...))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, filepath.Join(parts...))
	}
	return a, err
}

// === Inputs ===

// SaveStream writes the request stream as T item indices with the library size in meta.
func (s *Store) SaveStream(stream *sim.RequestStream) error {
	a, err := IntArray([]int{stream.Len()}, stream.Items())
	if err != nil {
		return err
	}
	a.Meta = map[string]string{"library": strconv.Itoa(stream.Library())}
	return s.save(a, inputsDir, "request_stream")
}

// LoadStream reads a stream written by SaveStream, re-validating every request.
func (s *Store) LoadStream() (*sim.RequestStream, error) {
	a, err := s.load(inputsDir, "request_stream")
	if err != nil {
		return nil, err
	}
	items, err := a.Ints()
	if err != nil {
		return nil, fmt.Errorf("request stream: %w", err)
	}
	n, err := strconv.Atoi(a.Meta["library"])
	if err != nil {
		return nil, fmt.Errorf("request stream: library size: %w", err)
	}
	return sim.NewRequestStream(n, items)
}

// SaveWeights writes static weights with shape [N] and time-varying weights with shape [T, N].
func (s *Store) SaveWeights(w *sim.Weights) error {
	m := w.Matrix()
	rows, cols := m.Dims()
	shape := []int{cols}
	if w.IsTimeVarying() {
		shape = []int{rows, cols}
	}
	a, err := FloatArray(shape, m.RawMatrix().Data)
	if err != nil {
		return err
	}
	return s.save(a, inputsDir, "weights")
}

// LoadWeights reads weights written by SaveWeights.
func (s *Store) LoadWeights() (*sim.Weights, error) {
	a, err := s.load(inputsDir, "weights")
	if err != nil {
		return nil, err
	}
	data, err := a.Floats()
	if err != nil {
		return nil, fmt.Errorf("weights: %w", err)
	}
	switch len(a.Shape) {
	case 1:
		return sim.NewStaticWeights(data)
	case 2:
		m, err := a.Matrix()
		if err != nil {
			return nil, fmt.Errorf("weights: %w", err)
		}
		return sim.NewTimeVaryingWeights(m)
	default:
		return nil, fmt.Errorf("weights: unsupported shape %v", a.Shape)
	}
}

// === Policy runs ===

// SaveRun writes the utility trace of a run and every optional output it carries.
func (s *Store) SaveRun(run *trace.Run) error {
	horizon := len(run.Utility)
	utility, err := FloatArray([]int{horizon}, run.Utility)
	if err != nil {
		return err
	}
	utility.Meta = map[string]string{"elapsed": run.Elapsed.String()}
	if err := s.save(utility, policiesDir, run.Policy, "utility"); err != nil {
		return err
	}
	if run.Hits != nil {
		a, err := BoolArray([]int{len(run.Hits)}, run.Hits)
		if err != nil {
			return err
		}
		if err := s.save(a, policiesDir, run.Policy, "hits"); err != nil {
			return err
		}
	}
	if run.CacheHistory != nil {
		r, c := run.CacheHistory.Dims()
		a, err := FloatArray([]int{r, c}, mat.DenseCopyOf(run.CacheHistory).RawMatrix().Data)
		if err != nil {
			return err
		}
		if err := s.save(a, policiesDir, run.Policy, "state"); err != nil {
			return err
		}
	}
	if run.Distance != nil {
		a, err := FloatArray([]int{len(run.Distance)}, run.Distance)
		if err != nil {
			return err
		}
		if err := s.save(a, policiesDir, run.Policy, "distance"); err != nil {
			return err
		}
	}
	return nil
}

// LoadRun reads the run saved under policy. Optional outputs that were not
// saved stay nil.
func (s *Store) LoadRun(policy string) (*trace.Run, error) {
	a, err := s.load(policiesDir, policy, "utility")
	if err != nil {
		return nil, err
	}
	run := &trace.Run{Policy: policy}
	if run.Utility, err = a.Floats(); err != nil {
		return nil, fmt.Errorf("%s utility: %w", policy, err)
	}
	if elapsed, ok := a.Meta["elapsed"]; ok {
		if run.Elapsed, err = time.ParseDuration(elapsed); err != nil {
			return nil, fmt.Errorf("%s elapsed: %w", policy, err)
		}
	}
	if a, err := s.load(policiesDir, policy, "hits"); err == nil {
		if run.Hits, err = a.Bools(); err != nil {
			return nil, fmt.Errorf("%s hits: %w", policy, err)
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if a, err := s.load(policiesDir, policy, "state"); err == nil {
		if run.CacheHistory, err = a.Matrix(); err != nil {
			return nil, fmt.Errorf("%s state: %w", policy, err)
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if a, err := s.load(policiesDir, policy, "distance"); err == nil {
		if run.Distance, err = a.Floats(); err != nil {
			return nil, fmt.Errorf("%s distance: %w", policy, err)
		}
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	return run, nil
}

// Policies lists the saved policy runs in lexical order.
func (s *Store) Policies() ([]string, error) {
	return s.list(policiesDir)
}

// MetaLearners lists the saved EG results in lexical order.
func (s *Store) MetaLearners() ([]string, error) {
	return s.list(metaLearnerDir)
}

func (s *Store) list(dir string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.root, dir))
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)
	return names, nil
}

// === Meta-learner ===

// SaveMetaLearner writes an EG result under name.
func (s *Store) SaveMetaLearner(name string, res *metalearn.Result) error {
	horizon := len(res.Utility)
	utility, err := FloatArray([]int{horizon}, res.Utility)
	if err != nil {
		return err
	}
	utility.Meta = map[string]string{"rate": strconv.FormatFloat(res.Rate, 'g', -1, 64)}
	expected, err := FloatArray([]int{horizon}, res.Expected)
	if err != nil {
		return err
	}
	selected, err := IntArray([]int{horizon}, res.Selected)
	if err != nil {
		return err
	}
	r, c := res.Weights.Dims()
	weights, err := FloatArray([]int{r, c}, mat.DenseCopyOf(res.Weights).RawMatrix().Data)
	if err != nil {
		return err
	}
	for file, a := range map[string]*Array{"utility": utility, "expected": expected, "selected": selected, "weights": weights} {
		if err := s.save(a, metaLearnerDir, name, file); err != nil {
			return err
		}
	}
	return nil
}

// LoadMetaLearner reads an EG result saved under name.
func (s *Store) LoadMetaLearner(name string) (*metalearn.Result, error) {
	res := &metalearn.Result{}
	a, err := s.load(metaLearnerDir, name, "utility")
	if err != nil {
		return nil, err
	}
	if res.Utility, err = a.Floats(); err != nil {
		return nil, fmt.Errorf("%s utility: %w", name, err)
	}
	if res.Rate, err = strconv.ParseFloat(a.Meta["rate"], 64); err != nil {
		return nil, fmt.Errorf("%s rate: %w", name, err)
	}
	if a, err = s.load(metaLearnerDir, name, "expected"); err != nil {
		return nil, err
	}
	if res.Expected, err = a.Floats(); err != nil {
		return nil, fmt.Errorf("%s expected: %w", name, err)
	}
	if a, err = s.load(metaLearnerDir, name, "selected"); err != nil {
		return nil, err
	}
	if res.Selected, err = a.Ints(); err != nil {
		return nil, fmt.Errorf("%s selected: %w", name, err)
	}
	if a, err = s.load(metaLearnerDir, name, "weights"); err != nil {
		return nil, err
	}
	if res.Weights, err = a.Matrix(); err != nil {
		return nil, fmt.Errorf("%s weights: %w", name, err)
	}
	return res, nil
}
