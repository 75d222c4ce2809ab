package forest

import (
	"sort"
)

const leafNode = -1

type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	value     float64
}

// tree is a CART regression tree stored as a flat node slice; index 0 is the root.
type tree struct {
	nodes      []node
	importance []float64
}

type treeBuilder struct {
	cfg Config
	x   [][]float64
	y   []float64
	t   *tree
}

func growTree(cfg Config, x [][]float64, y []float64, sample []int, features int) *tree {
	b := &treeBuilder{
		cfg: cfg,
		x:   x,
		y:   y,
		t:   &tree{importance: make([]float64, features)},
	}
	b.split(sample, 0)
	return b.t
}

// split appends the node for idx and recurses. It returns the node's index.
func (b *treeBuilder) split(idx []int, depth int) int {
	sum, sumSq := 0.0, 0.0
	for _, i := range idx {
		sum += b.y[i]
		sumSq += b.y[i] * b.y[i]
	}
	n := float64(len(idx))
	mean := sum / n

	self := len(b.t.nodes)
	b.t.nodes = append(b.t.nodes, node{feature: leafNode, value: mean})

	if depth >= b.cfg.MaxDepth || len(idx) < b.cfg.MinSamplesSplit || len(idx) < 2*b.cfg.MinSamplesLeaf {
		return self
	}
	impurity := sumSq/n - mean*mean
	if impurity <= 0 {
		return self
	}

	feature, threshold, gain, ok := b.bestSplit(idx, sum, sumSq)
	if !ok {
		return self
	}

	var left, right []int
	for _, i := range idx {
		if b.x[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}
	b.t.importance[feature] += gain

	l := b.split(left, depth+1)
	r := b.split(right, depth+1)
	b.t.nodes[self] = node{feature: feature, threshold: threshold, left: l, right: r, value: mean}
	return self
}

// bestSplit scans every feature for the threshold with the largest drop in summed squared
// error. Ties keep the earlier feature so the result is independent of scheduling.
func (b *treeBuilder) bestSplit(idx []int, sum, sumSq float64) (int, float64, float64, bool) {
	n := len(idx)
	parentSSE := sumSq - sum*sum/float64(n)
	minLeaf := b.cfg.MinSamplesLeaf

	bestFeature, bestThreshold, bestGain := -1, 0.0, 0.0
	order := make([]int, n)
	for f := range b.t.importance {
		copy(order, idx)
		sort.SliceStable(order, func(i, j int) bool { return b.x[order[i]][f] < b.x[order[j]][f] })

		leftSum, leftSq := 0.0, 0.0
		for k := 0; k < n-1; k++ {
			v := b.y[order[k]]
			leftSum += v
			leftSq += v * v

			nl := k + 1
			nr := n - nl
			if nl < minLeaf || nr < minLeaf {
				continue
			}
			cur, next := b.x[order[k]][f], b.x[order[k+1]][f]
			if cur == next {
				continue
			}
			rightSum := sum - leftSum
			rightSq := sumSq - leftSq
			sse := (leftSq - leftSum*leftSum/float64(nl)) + (rightSq - rightSum*rightSum/float64(nr))
			if gain := parentSSE - sse; gain > bestGain+1e-12 {
				bestFeature, bestThreshold, bestGain = f, cur+(next-cur)/2, gain
			}
		}
	}
	return bestFeature, bestThreshold, bestGain, bestFeature >= 0
}

func (t *tree) predict(row []float64) float64 {
	i := 0
	for {
		nd := t.nodes[i]
		if nd.feature == leafNode {
			return nd.value
		}
		if row[nd.feature] <= nd.threshold {
			i = nd.left
		} else {
			i = nd.right
		}
	}
}
