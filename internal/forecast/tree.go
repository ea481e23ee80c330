package forecast

import (
	"math"
	"math/rand"
	"sort"
)

// treeNode is one node of a flattened regression tree. Leaves carry
// Feature == -1 and the mean target of their partition.
type treeNode struct {
	Feature   int     `json:"f"`
	Threshold float64 `json:"t"`
	Left      int     `json:"l"`
	Right     int     `json:"r"`
	Value     float64 `json:"v"`
}

// RegressionTree is a CART regressor stored as a node array so it
// round-trips through the artifact store without pointer fixups.
type RegressionTree struct {
	Nodes []treeNode `json:"nodes"`
}

func (t *RegressionTree) Predict(x []float64) float64 {
	if len(t.Nodes) == 0 {
		return 0
	}
	i := 0
	for {
		n := t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if n.Feature < len(x) && x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

type treeParams struct {
	maxDepth       int
	minSamplesLeaf int
}

// fitTree grows a variance-minimizing CART tree over the given sample
// indices.
func fitTree(rows [][]float64, targets []float64, idx []int, p treeParams) *RegressionTree {
	t := &RegressionTree{}
	t.grow(rows, targets, idx, 0, p)
	return t
}

func (t *RegressionTree) grow(rows [][]float64, targets []float64, idx []int, depth int, p treeParams) int {
	node := treeNode{Feature: -1, Left: -1, Right: -1, Value: meanAt(targets, idx)}
	pos := len(t.Nodes)
	t.Nodes = append(t.Nodes, node)

	if depth >= p.maxDepth || len(idx) < 2*p.minSamplesLeaf {
		return pos
	}

	feature, threshold, ok := bestSplit(rows, targets, idx, p.minSamplesLeaf)
	if !ok {
		return pos
	}

	var left, right []int
	for _, i := range idx {
		if rows[i][feature] <= threshold {
			left = append(left, i)
		} else {
			right = append(right, i)
		}
	}

	t.Nodes[pos].Feature = feature
	t.Nodes[pos].Threshold = threshold
	t.Nodes[pos].Left = t.grow(rows, targets, left, depth+1, p)
	t.Nodes[pos].Right = t.grow(rows, targets, right, depth+1, p)
	return pos
}

// bestSplit scans every feature and midpoint threshold for the split
// with the lowest weighted child variance.
func bestSplit(rows [][]float64, targets []float64, idx []int, minLeaf int) (int, float64, bool) {
	bestScore := math.Inf(1)
	bestFeature, bestThreshold := -1, 0.0

	nFeatures := len(rows[idx[0]])
	values := make([]float64, 0, len(idx))

	for f := 0; f < nFeatures; f++ {
		values = values[:0]
		for _, i := range idx {
			values = append(values, rows[i][f])
		}
		sort.Float64s(values)

		for k := 1; k < len(values); k++ {
			if values[k] == values[k-1] {
				continue
			}
			threshold := (values[k] + values[k-1]) / 2

			var nl, nr int
			var sl, sr, ssl, ssr float64
			for _, i := range idx {
				y := targets[i]
				if rows[i][f] <= threshold {
					nl++
					sl += y
					ssl += y * y
				} else {
					nr++
					sr += y
					ssr += y * y
				}
			}
			if nl < minLeaf || nr < minLeaf {
				continue
			}

			score := (ssl - sl*sl/float64(nl)) + (ssr - sr*sr/float64(nr))
			if score < bestScore {
				bestScore = score
				bestFeature = f
				bestThreshold = threshold
			}
		}
	}

	return bestFeature, bestThreshold, bestFeature >= 0
}

func meanAt(targets []float64, idx []int) float64 {
	if len(idx) == 0 {
		return 0
	}
	var sum float64
	for _, i := range idx {
		sum += targets[i]
	}
	return sum / float64(len(idx))
}

// ForestModel is a bagged ensemble of regression trees. Bootstrap
// sampling is driven by a fixed seed so repeated training runs on
// identical data produce identical forests.
type ForestModel struct {
	Trees []*RegressionTree `json:"trees"`
}

func FitForest(rows [][]float64, targets []float64, nTrees int, seed int64) *ForestModel {
	rng := rand.New(rand.NewSource(seed))
	params := treeParams{maxDepth: 10, minSamplesLeaf: 2}

	forest := &ForestModel{Trees: make([]*RegressionTree, 0, nTrees)}
	for b := 0; b < nTrees; b++ {
		idx := make([]int, len(rows))
		for i := range idx {
			idx[i] = rng.Intn(len(rows))
		}
		forest.Trees = append(forest.Trees, fitTree(rows, targets, idx, params))
	}
	return forest
}

func (f *ForestModel) Predict(x []float64) float64 {
	if len(f.Trees) == 0 {
		return 0
	}
	var sum float64
	for _, t := range f.Trees {
		sum += t.Predict(x)
	}
	return sum / float64(len(f.Trees))
}

// BoostedModel is a gradient-boosted ensemble of shallow trees fitted
// to squared-error residuals. Fitting is deterministic.
type BoostedModel struct {
	Base         float64           `json:"base"`
	LearningRate float64           `json:"learning_rate"`
	Trees        []*RegressionTree `json:"trees"`
}

func FitBoosted(rows [][]float64, targets []float64, nTrees int) *BoostedModel {
	params := treeParams{maxDepth: 3, minSamplesLeaf: 2}

	model := &BoostedModel{
		Base:         mean(targets),
		LearningRate: 0.1,
		Trees:        make([]*RegressionTree, 0, nTrees),
	}

	idx := make([]int, len(rows))
	for i := range idx {
		idx[i] = i
	}

	current := make([]float64, len(targets))
	for i := range current {
		current[i] = model.Base
	}

	residuals := make([]float64, len(targets))
	for b := 0; b < nTrees; b++ {
		for i := range targets {
			residuals[i] = targets[i] - current[i]
		}

		tree := fitTree(rows, residuals, idx, params)
		model.Trees = append(model.Trees, tree)

		for i, row := range rows {
			current[i] += model.LearningRate * tree.Predict(row)
		}
	}

	return model
}

func (m *BoostedModel) Predict(x []float64) float64 {
	y := m.Base
	for _, t := range m.Trees {
		y += m.LearningRate * t.Predict(x)
	}
	return y
}
