// Package tree implements CART decision trees for classification and
// regression. Both trees accept per-sample weights, which AdaBoost uses, and
// the regressor exposes its leaves so gradient boosting can overwrite leaf
// outputs.
package tree

import (
	"math"
	"math/rand/v2"
	"slices"
	"sort"
)

// node is one entry of the flattened tree. Leaves have feature == -1.
type node struct {
	feature   int
	threshold float64
	left      int
	right     int
	depth     int
	nSamples  int
	weight    float64
	impurity  float64
	// value is the class distribution for classifiers and the weighted mean
	// target for regressors.
	value []float64
}

func (n *node) isLeaf() bool { return n.feature < 0 }

// splitCriterion accumulates the target statistics of a node and of the
// left partition while a feature's sorted samples are scanned.
type splitCriterion interface {
	// init computes the statistics of samples, which all start on the right.
	init(samples []int)
	// reset moves every sample back to the right partition.
	reset()
	// moveLeft moves sample s from the right partition to the left.
	moveLeft(s int)
	nodeImpurity() float64
	childrenImpurity() (left, right float64)
	weights() (left, right float64)
	nodeValue() []float64
	// pure reports whether no split can lower the impurity.
	pure() bool
}

// params holds the hyperparameters shared by both trees.
type params struct {
	criterion           string
	maxDepth            int
	minSamplesSplit     int
	minSamplesLeaf      int
	minImpurityDecrease float64
	maxFeatures         int
	randomState         int
}

// Option configures a decision tree.
type Option func(*params)

// WithCriterion sets the impurity measure: "gini" or "entropy" for the
// classifier, "squared_error" for the regressor.
func WithCriterion(c string) Option { return func(p *params) { p.criterion = c } }

// WithMaxDepth limits the depth of the tree. 0 means unlimited.
func WithMaxDepth(d int) Option { return func(p *params) { p.maxDepth = d } }

// WithMinSamplesSplit sets the fewest samples a node needs to be split.
func WithMinSamplesSplit(n int) Option { return func(p *params) { p.minSamplesSplit = n } }

// WithMinSamplesLeaf sets the fewest samples allowed in a leaf.
func WithMinSamplesLeaf(n int) Option { return func(p *params) { p.minSamplesLeaf = n } }

// WithMinImpurityDecrease rejects splits whose weighted impurity decrease
// is below v.
func WithMinImpurityDecrease(v float64) Option {
	return func(p *params) { p.minImpurityDecrease = v }
}

// WithMaxFeatures sets how many randomly drawn features each split
// considers. 0 means all features.
func WithMaxFeatures(k int) Option { return func(p *params) { p.maxFeatures = k } }

// WithRandomState seeds the feature subsampling.
func WithRandomState(seed int) Option { return func(p *params) { p.randomState = seed } }

func defaultParams(criterion string) params {
	return params{criterion: criterion, minSamplesSplit: 2, minSamplesLeaf: 1}
}

func (p *params) get() map[string]interface{} {
	return map[string]interface{}{
		"criterion":             p.criterion,
		"max_depth":             p.maxDepth,
		"min_samples_split":     p.minSamplesSplit,
		"min_samples_leaf":      p.minSamplesLeaf,
		"min_impurity_decrease": p.minImpurityDecrease,
		"max_features":          p.maxFeatures,
		"random_state":          p.randomState,
	}
}

// builder grows a tree depth-first.
type builder struct {
	params
	cols        [][]float64
	crit        splitCriterion
	rng         *rand.Rand
	totalWeight float64

	nodes       []node
	importances []float64
}

type split struct {
	feature   int
	threshold float64
	decrease  float64
	pos       int
	order     []int
}

func newBuilder(p params, cols [][]float64, crit splitCriterion, totalWeight float64) *builder {
	return &builder{
		params:      p,
		cols:        cols,
		crit:        crit,
		rng:         rand.New(rand.NewPCG(uint64(p.randomState), 0x9e3779b97f4a7c15)),
		totalWeight: totalWeight,
		importances: make([]float64, len(cols)),
	}
}

// build grows the subtree over samples and returns its node id.
func (b *builder) build(samples []int, depth int) int {
	b.crit.init(samples)
	lw, rw := b.crit.weights()
	id := len(b.nodes)
	b.nodes = append(b.nodes, node{
		feature:  -1,
		left:     -1,
		right:    -1,
		depth:    depth,
		nSamples: len(samples),
		weight:   lw + rw,
		impurity: b.crit.nodeImpurity(),
		value:    b.crit.nodeValue(),
	})

	n := len(samples)
	if (b.maxDepth > 0 && depth >= b.maxDepth) ||
		n < b.minSamplesSplit ||
		n < 2*b.minSamplesLeaf ||
		b.crit.pure() {
		return id
	}

	best, ok := b.bestSplit(samples, b.nodes[id].impurity, lw+rw)
	if !ok {
		return id
	}
	b.importances[best.feature] += best.decrease

	left := slices.Clone(best.order[:best.pos])
	right := slices.Clone(best.order[best.pos:])
	l := b.build(left, depth+1)
	r := b.build(right, depth+1)
	nd := &b.nodes[id]
	nd.feature, nd.threshold, nd.left, nd.right = best.feature, best.threshold, l, r
	return id
}

// candidateFeatures returns every feature, or maxFeatures of them drawn at random.
func (b *builder) candidateFeatures() []int {
	p := len(b.cols)
	if b.maxFeatures <= 0 || b.maxFeatures >= p {
		out := make([]int, p)
		for i := range out {
			out[i] = i
		}
		return out
	}
	return b.rng.Perm(p)[:b.maxFeatures]
}

// bestSplit scans every candidate threshold and keeps the split with the
// largest weighted impurity decrease; ties keep the first one found.
func (b *builder) bestSplit(samples []int, impurity, weight float64) (split, bool) {
	// gains below this are rounding noise
	best := split{feature: -1, decrease: 1e-10 * weight / b.totalWeight * impurity}
	n := len(samples)
	for _, f := range b.candidateFeatures() {
		col := b.cols[f]
		order := slices.Clone(samples)
		sort.SliceStable(order, func(i, j int) bool { return col[order[i]] < col[order[j]] })
		if col[order[0]] == col[order[n-1]] {
			continue
		}

		b.crit.reset()
		for i := 0; i < n-1; i++ {
			b.crit.moveLeft(order[i])
			lo, hi := col[order[i]], col[order[i+1]]
			if lo == hi {
				continue
			}
			nLeft := i + 1
			if nLeft < b.minSamplesLeaf || n-nLeft < b.minSamplesLeaf {
				continue
			}
			wl, wr := b.crit.weights()
			if wl <= 0 || wr <= 0 {
				continue
			}
			il, ir := b.crit.childrenImpurity()
			decrease := weight / b.totalWeight * (impurity - (wl*il+wr*ir)/weight)
			if decrease > best.decrease {
				threshold := lo + (hi-lo)/2
				if threshold >= hi || math.IsInf(threshold, 0) {
					threshold = lo
				}
				best = split{feature: f, threshold: threshold, decrease: decrease, pos: nLeft, order: order}
			}
		}
	}
	if best.feature < 0 || best.decrease < b.minImpurityDecrease {
		return best, false
	}
	return best, true
}

// apply returns the leaf id reached by row.
func apply(nodes []node, row func(j int) float64) int {
	id := 0
	for !nodes[id].isLeaf() {
		if row(nodes[id].feature) <= nodes[id].threshold {
			id = nodes[id].left
		} else {
			id = nodes[id].right
		}
	}
	return id
}

// normalizedImportances scales the accumulated decreases to sum to one.
func normalizedImportances(raw []float64) []float64 {
	out := slices.Clone(raw)
	var total float64
	for _, v := range out {
		total += v
	}
	if total <= 0 {
		return out
	}
	for i := range out {
		out[i] /= total
	}
	return out
}

func treeDepth(nodes []node) int {
	d := 0
	for i := range nodes {
		d = max(d, nodes[i].depth)
	}
	return d
}

func leafCount(nodes []node) int {
	c := 0
	for i := range nodes {
		if nodes[i].isLeaf() {
			c++
		}
	}
	return c
}
