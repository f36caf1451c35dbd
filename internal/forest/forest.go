// Package forest implements a seeded random forest regressor over gonum matrices.
//
// Trees are CART regression trees grown on bootstrap samples with
// squared-error splits. Every tree draws its seed from the forest seed before
// fitting starts, so a given seed always yields the same forest no matter how
// many workers grow the trees.
package forest

import (
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"
)

// Defaults mirror a conventional random forest regressor.
const (
	DefaultTrees           = 100
	DefaultSeed            = 42
	DefaultMinSamplesSplit = 2
	DefaultMinSamplesLeaf  = 1
)

// Sentinel errors.
var (
	// ErrNoSamples is returned when fitting on an empty matrix.
	ErrNoSamples = errors.New("no training samples")

	// ErrDimensionMismatch is returned when matrix and vector shapes disagree.
	ErrDimensionMismatch = errors.New("dimension mismatch")

	// ErrNotFitted is returned when predicting with an unfitted regressor.
	ErrNotFitted = errors.New("regressor not fitted")

	// ErrNonFinite is returned when training data holds NaN or infinite values.
	ErrNonFinite = errors.New("non-finite training value")
)

// Regressor is a random forest of regression trees.
type Regressor struct {
	numTrees        int
	seed            uint64
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int // 0 means all features
	bootstrap       bool
	workers         int

	trees       []*tree
	numFeatures int
}

// Option configures a Regressor.
type Option func(*Regressor)

// WithTrees sets the number of trees in the forest.
func WithTrees(n int) Option {
	return func(r *Regressor) {
		if n > 0 {
			r.numTrees = n
		}
	}
}

// WithSeed sets the random seed.
func WithSeed(seed uint64) Option {
	return func(r *Regressor) {
		r.seed = seed
	}
}

// WithMinSamplesSplit sets the minimum node size eligible for splitting.
func WithMinSamplesSplit(n int) Option {
	return func(r *Regressor) {
		if n >= 2 {
			r.minSamplesSplit = n
		}
	}
}

// WithMinSamplesLeaf sets the minimum number of samples on each side of a split.
func WithMinSamplesLeaf(n int) Option {
	return func(r *Regressor) {
		if n >= 1 {
			r.minSamplesLeaf = n
		}
	}
}

// WithMaxFeatures limits how many features are examined per split.
func WithMaxFeatures(n int) Option {
	return func(r *Regressor) {
		if n >= 0 {
			r.maxFeatures = n
		}
	}
}

// WithBootstrap toggles bootstrap sampling of the training rows.
func WithBootstrap(enabled bool) Option {
	return func(r *Regressor) {
		r.bootstrap = enabled
	}
}

// WithWorkers bounds the number of trees grown concurrently.
func WithWorkers(n int) Option {
	return func(r *Regressor) {
		if n > 0 {
			r.workers = n
		}
	}
}

// New creates an unfitted Regressor.
func New(opts ...Option) *Regressor {
	r := &Regressor{
		numTrees:        DefaultTrees,
		seed:            DefaultSeed,
		minSamplesSplit: DefaultMinSamplesSplit,
		minSamplesLeaf:  DefaultMinSamplesLeaf,
		bootstrap:       true,
		workers:         runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Fit grows the forest on rows of x against targets y.
// Any previously fitted trees are discarded.
func (r *Regressor) Fit(x mat.Matrix, y mat.Vector) error {
	rows, cols := x.Dims()
	if rows == 0 || cols == 0 {
		return ErrNoSamples
	}
	if y.Len() != rows {
		return fmt.Errorf("%w: %d rows, %d targets", ErrDimensionMismatch, rows, y.Len())
	}

	if err := checkFinite(x, y); err != nil {
		return err
	}

	ds := newDataset(x, y)

	maxFeatures := r.maxFeatures
	if maxFeatures == 0 || maxFeatures > cols {
		maxFeatures = cols
	}

	// Draw per-tree seeds up front so results do not depend on scheduling.
	master := rand.New(rand.NewPCG(r.seed, r.seed))
	seeds := make([]uint64, r.numTrees)
	for i := range seeds {
		seeds[i] = master.Uint64()
	}

	params := growParams{
		minSamplesSplit: r.minSamplesSplit,
		minSamplesLeaf:  r.minSamplesLeaf,
		maxFeatures:     maxFeatures,
		bootstrap:       r.bootstrap,
	}

	trees := make([]*tree, r.numTrees)
	var g errgroup.Group
	g.SetLimit(r.workers)
	for i := range trees {
		g.Go(func() error {
			trees[i] = growTree(ds, params, seeds[i])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	r.trees = trees
	r.numFeatures = cols
	return nil
}

// Fitted reports whether Fit has completed successfully.
func (r *Regressor) Fitted() bool {
	return r != nil && len(r.trees) > 0
}

// NumFeatures returns the number of columns the forest was fitted on.
func (r *Regressor) NumFeatures() int {
	return r.numFeatures
}

// PredictRow returns the forest's mean prediction for a single feature row.
func (r *Regressor) PredictRow(row []float64) (float64, error) {
	if !r.Fitted() {
		return 0, ErrNotFitted
	}
	if len(row) != r.numFeatures {
		return 0, fmt.Errorf("%w: got %d features, want %d", ErrDimensionMismatch, len(row), r.numFeatures)
	}

	var sum float64
	for _, t := range r.trees {
		sum += t.predict(row)
	}
	return sum / float64(len(r.trees)), nil
}

// Predict returns one prediction per row of x.
func (r *Regressor) Predict(x mat.Matrix) (*mat.VecDense, error) {
	if !r.Fitted() {
		return nil, ErrNotFitted
	}
	rows, cols := x.Dims()
	if cols != r.numFeatures {
		return nil, fmt.Errorf("%w: got %d features, want %d", ErrDimensionMismatch, cols, r.numFeatures)
	}

	if rows == 0 {
		return &mat.VecDense{}, nil
	}

	out := mat.NewVecDense(rows, nil)
	row := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(row, i, x)
		v, err := r.PredictRow(row)
		if err != nil {
			return nil, err
		}
		out.SetVec(i, v)
	}
	return out, nil
}

func checkFinite(x mat.Matrix, y mat.Vector) error {
	rows, cols := x.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			if v := x.At(i, j); math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%w: row %d, column %d", ErrNonFinite, i, j)
			}
		}
		if v := y.AtVec(i); math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: target %d", ErrNonFinite, i)
		}
	}
	return nil
}
