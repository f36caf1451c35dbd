package forest

import (
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// dataset is a row-major copy of the training data.
type dataset struct {
	x    []float64
	y    []float64
	rows int
	cols int
}

func newDataset(x mat.Matrix, y mat.Vector) *dataset {
	rows, cols := x.Dims()
	ds := &dataset{
		x:    make([]float64, rows*cols),
		y:    make([]float64, rows),
		rows: rows,
		cols: cols,
	}
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			ds.x[i*cols+j] = x.At(i, j)
		}
		ds.y[i] = y.AtVec(i)
	}
	return ds
}

func (d *dataset) at(row, col int) float64 {
	return d.x[row*d.cols+col]
}

type growParams struct {
	minSamplesSplit int
	minSamplesLeaf  int
	maxFeatures     int
	bootstrap       bool
}

// node is a tree node; leaves have feature == -1.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

type tree struct {
	nodes []node
}

func (t *tree) predict(row []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.feature < 0 {
			return n.value
		}
		if row[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

// grower holds per-tree state while building.
type grower struct {
	ds     *dataset
	params growParams
	rng    *rand.Rand
	tree   *tree
	yBuf   []float64
}

func growTree(ds *dataset, params growParams, seed uint64) *tree {
	rng := rand.New(rand.NewPCG(seed, ^seed))

	samples := make([]int, ds.rows)
	if params.bootstrap {
		for i := range samples {
			samples[i] = rng.IntN(ds.rows)
		}
	} else {
		for i := range samples {
			samples[i] = i
		}
	}

	g := &grower{
		ds:     ds,
		params: params,
		rng:    rng,
		tree:   &tree{},
		yBuf:   make([]float64, 0, ds.rows),
	}
	g.build(samples)
	return g.tree
}

// build appends the subtree for samples and returns its node index.
func (g *grower) build(samples []int) int {
	idx := len(g.tree.nodes)
	g.tree.nodes = append(g.tree.nodes, node{feature: -1, value: g.mean(samples)})

	if len(samples) < g.params.minSamplesSplit || g.pure(samples) {
		return idx
	}

	feature, threshold, ok := g.bestSplit(samples)
	if !ok {
		return idx
	}

	var left, right []int
	for _, s := range samples {
		if g.ds.at(s, feature) <= threshold {
			left = append(left, s)
		} else {
			right = append(right, s)
		}
	}
	if len(left) == 0 || len(right) == 0 {
		return idx
	}

	l := g.build(left)
	r := g.build(right)

	g.tree.nodes[idx].feature = feature
	g.tree.nodes[idx].threshold = threshold
	g.tree.nodes[idx].left = l
	g.tree.nodes[idx].right = r
	return idx
}

func (g *grower) mean(samples []int) float64 {
	g.yBuf = g.yBuf[:0]
	for _, s := range samples {
		g.yBuf = append(g.yBuf, g.ds.y[s])
	}
	return stat.Mean(g.yBuf, nil)
}

func (g *grower) pure(samples []int) bool {
	first := g.ds.y[samples[0]]
	for _, s := range samples[1:] {
		if g.ds.y[s] != first {
			return false
		}
	}
	return true
}

// bestSplit scans the candidate features in a seeded random order and picks
// the threshold maximizing sum(left)^2/nl + sum(right)^2/nr, which is
// equivalent to minimizing the summed squared error of the children.
func (g *grower) bestSplit(samples []int) (int, float64, bool) {
	n := len(samples)
	features := g.rng.Perm(g.ds.cols)[:g.params.maxFeatures]

	var total float64
	for _, s := range samples {
		total += g.ds.y[s]
	}

	sorted := make([]int, n)
	bestFeature, bestThreshold := -1, 0.0
	bestScore := 0.0
	found := false

	for _, f := range features {
		copy(sorted, samples)
		slices.SortStableFunc(sorted, func(a, b int) int {
			va, vb := g.ds.at(a, f), g.ds.at(b, f)
			switch {
			case va < vb:
				return -1
			case va > vb:
				return 1
			default:
				return 0
			}
		})

		var leftSum float64
		for k := 1; k < n; k++ {
			leftSum += g.ds.y[sorted[k-1]]

			lo, hi := g.ds.at(sorted[k-1], f), g.ds.at(sorted[k], f)
			if lo == hi {
				continue
			}
			if k < g.params.minSamplesLeaf || n-k < g.params.minSamplesLeaf {
				continue
			}

			rightSum := total - leftSum
			score := leftSum*leftSum/float64(k) + rightSum*rightSum/float64(n-k)
			if !found || score > bestScore {
				threshold := lo + (hi-lo)/2
				if threshold == hi {
					threshold = lo
				}
				bestFeature, bestThreshold, bestScore = f, threshold, score
				found = true
			}
		}
	}

	return bestFeature, bestThreshold, found
}
