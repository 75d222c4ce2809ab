// Package forest is a small random-forest regressor: bootstrapped CART trees trained in
// parallel, averaged at prediction time.
package forest

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
)

var (
	ErrNoSamples  = errors.New("forest: no training samples")
	ErrNotTrained = errors.New("forest: not trained")
)

// Config holds the forest hyperparameters.
type Config struct {
	Trees           int    // Number of trees (default: 100)
	MaxDepth        int    // Maximum tree depth (default: 10)
	MinSamplesSplit int    // Smallest node that may be split (default: 5)
	MinSamplesLeaf  int    // Smallest allowed leaf (default: 2)
	NoBootstrap     bool   // Train every tree on the full sample
	Seed            uint64 // RNG seed; zero selects 42
	Workers         int    // Trees trained concurrently (default: GOMAXPROCS)
}

// DefaultConfig returns the forest defaults.
func DefaultConfig() Config {
	return Config{
		Trees:           100,
		MaxDepth:        10,
		MinSamplesSplit: 5,
		MinSamplesLeaf:  2,
		Seed:            42,
		Workers:         runtime.GOMAXPROCS(0),
	}
}

// WithDefaults fills every unset field from DefaultConfig.
func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.Trees <= 0 {
		c.Trees = d.Trees
	}
	if c.MaxDepth <= 0 {
		c.MaxDepth = d.MaxDepth
	}
	if c.MinSamplesSplit < 2 {
		c.MinSamplesSplit = d.MinSamplesSplit
	}
	if c.MinSamplesLeaf < 1 {
		c.MinSamplesLeaf = d.MinSamplesLeaf
	}
	if c.Seed == 0 {
		c.Seed = d.Seed
	}
	if c.Workers <= 0 {
		c.Workers = d.Workers
	}
	return c
}

// Forest is a trained random-forest regressor. It is read-only after Train and safe for
// concurrent prediction.
type Forest struct {
	cfg      Config
	features int
	trees    []*tree
}

func New(cfg Config) *Forest {
	return &Forest{cfg: cfg.WithDefaults()}
}

// Train fits the forest. Each tree draws its bootstrap sample from its own PCG stream keyed by
// the seed and the tree index, so the result does not depend on goroutine scheduling.
func (f *Forest) Train(x [][]float64, y []float64) error {
	if len(x) == 0 {
		return ErrNoSamples
	}
	if len(x) != len(y) {
		return fmt.Errorf("forest: %d rows but %d targets", len(x), len(y))
	}
	features := len(x[0])
	for i, row := range x {
		if len(row) != features {
			return fmt.Errorf("forest: row %d has %d features, want %d", i, len(row), features)
		}
	}

	trees := make([]*tree, f.cfg.Trees)
	var g errgroup.Group
	g.SetLimit(f.cfg.Workers)
	for i := range trees {
		g.Go(func() error {
			r := rand.New(rand.NewPCG(f.cfg.Seed, uint64(i)))
			trees[i] = growTree(f.cfg, x, y, f.sample(r, len(x)), features)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.features = features
	f.trees = trees
	return nil
}

func (f *Forest) sample(r *rand.Rand, n int) []int {
	idx := make([]int, n)
	for i := range idx {
		if f.cfg.NoBootstrap {
			idx[i] = i
		} else {
			idx[i] = r.IntN(n)
		}
	}
	return idx
}

// Predict averages the trees' predictions for one row.
func (f *Forest) Predict(row []float64) (float64, error) {
	if len(f.trees) == 0 {
		return 0, ErrNotTrained
	}
	if len(row) != f.features {
		return 0, fmt.Errorf("forest: row has %d features, want %d", len(row), f.features)
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(f.trees)), nil
}

// FeatureImportances returns the mean per-tree share of impurity decrease for each feature.
// The values sum to 1. If no tree ever split, every feature gets an equal share.
func (f *Forest) FeatureImportances() []float64 {
	out := make([]float64, f.features)
	if f.features == 0 {
		return out
	}
	for _, t := range f.trees {
		var total float64
		for _, v := range t.importance {
			total += v
		}
		if total <= 0 {
			continue
		}
		for j, v := range t.importance {
			out[j] += v / total
		}
	}

	var total float64
	for _, v := range out {
		total += v
	}
	for j := range out {
		if total > 0 {
			out[j] /= total
		} else {
			out[j] = 1 / float64(f.features)
		}
	}
	return out
}
