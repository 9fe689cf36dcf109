package volmodel

import (
	"context"
	"errors"
	"math/rand/v2"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

// DefaultTrees is the forest size used when none is configured.
const DefaultTrees = 100

// ProgressFunc is called after each tree is grown.
type ProgressFunc func(done, total int)

// Forest is a bagged ensemble of regression trees. Every split considers all
// features and leaves may hold a single sample.
type Forest struct {
	Trees   int
	MinLeaf int
	Seed    uint64

	// Progress, when set, is called from a single goroutine at a time.
	Progress ProgressFunc

	trees []*tree
}

// Fit grows the trees on bootstrap samples of X, y.
func (f *Forest) Fit(ctx context.Context, X [][]float64, y []float64) error {
	if len(X) == 0 || len(X) != len(y) {
		return errors.New("training data is empty or mismatched")
	}

	n := f.Trees
	if n <= 0 {
		n = DefaultTrees
	}
	minLeaf := f.MinLeaf
	if minLeaf <= 0 {
		minLeaf = 1
	}

	trees := make([]*tree, n)
	var mu sync.Mutex
	done := 0

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i := range trees {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			rng := rand.New(rand.NewPCG(f.Seed, uint64(i)))
			idx := make([]int, len(X))
			for j := range idx {
				idx[j] = rng.IntN(len(X))
			}
			trees[i] = growTree(X, y, idx, minLeaf)

			mu.Lock()
			done++
			if f.Progress != nil {
				f.Progress(done, n)
			}
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	f.trees = trees
	return nil
}

// Predict averages the trees' predictions for x.
func (f *Forest) Predict(x []float64) float64 {
	if len(f.trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.trees {
		sum += t.predict(x)
	}
	return sum / float64(len(f.trees))
}

// PredictAll predicts every row of X.
func (f *Forest) PredictAll(X [][]float64) []float64 {
	out := make([]float64, len(X))
	for i, x := range X {
		out[i] = f.Predict(x)
	}
	return out
}

// node is a leaf when left is -1.
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

func (t *tree) predict(x []float64) float64 {
	i := 0
	for {
		n := t.nodes[i]
		if n.left < 0 {
			return n.value
		}
		if x[n.feature] <= n.threshold {
			i = n.left
		} else {
			i = n.right
		}
	}
}

func growTree(X [][]float64, y []float64, idx []int, minLeaf int) *tree {
	t := &tree{}
	t.build(X, y, idx, minLeaf)
	return t
}

// build appends the subtree for idx and returns its node index.
func (t *tree) build(X [][]float64, y []float64, idx []int, minLeaf int) int {
	self := len(t.nodes)
	values := make([]float64, len(idx))
	for i, j := range idx {
		values[i] = y[j]
	}
	t.nodes = append(t.nodes, node{left: -1, right: -1, value: stat.Mean(values, nil)})

	feature, threshold, ok := bestSplit(X, y, idx, minLeaf)
	if !ok {
		return self
	}

	var left, right []int
	for _, j := range idx {
		if X[j][feature] <= threshold {
			left = append(left, j)
		} else {
			right = append(right, j)
		}
	}

	l := t.build(X, y, left, minLeaf)
	r := t.build(X, y, right, minLeaf)
	t.nodes[self].feature = feature
	t.nodes[self].threshold = threshold
	t.nodes[self].left = l
	t.nodes[self].right = r
	return self
}

// bestSplit finds the feature and threshold with the largest reduction in
// squared error. It reports false when the node cannot be split.
func bestSplit(X [][]float64, y []float64, idx []int, minLeaf int) (int, float64, bool) {
	n := len(idx)
	if n < 2*minLeaf {
		return 0, 0, false
	}

	var total, totalSq float64
	for _, j := range idx {
		total += y[j]
		totalSq += y[j] * y[j]
	}
	parent := totalSq - total*total/float64(n)
	if parent <= 1e-12 {
		return 0, 0, false
	}

	bestGain := 0.0
	bestFeature, bestThreshold := -1, 0.0
	order := make([]int, n)

	for f := range X[idx[0]] {
		copy(order, idx)
		sort.Slice(order, func(a, b int) bool { return X[order[a]][f] < X[order[b]][f] })

		var leftSum, leftSq float64
		for k := 0; k < n-1; k++ {
			v := y[order[k]]
			leftSum += v
			leftSq += v * v

			cur, next := X[order[k]][f], X[order[k+1]][f]
			if cur == next {
				continue
			}
			nl, nr := float64(k+1), float64(n-k-1)
			if k+1 < minLeaf || n-k-1 < minLeaf {
				continue
			}
			rightSum, rightSq := total-leftSum, totalSq-leftSq
			sse := (leftSq - leftSum*leftSum/nl) + (rightSq - rightSum*rightSum/nr)
			if gain := parent - sse; gain > bestGain {
				bestGain = gain
				bestFeature = f
				bestThreshold = (cur + next) / 2
			}
		}
	}

	if bestFeature < 0 {
		return 0, 0, false
	}
	return bestFeature, bestThreshold, true
}
