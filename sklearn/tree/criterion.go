package tree

import "math"

// classCriterion measures gini or entropy impurity over weighted class counts.
type classCriterion struct {
	y        []int
	w        []float64
	nClasses int
	entropy  bool

	total, left []float64
	wTotal      float64
	wLeft       float64
}

func newClassCriterion(y []int, w []float64, nClasses int, entropy bool) *classCriterion {
	return &classCriterion{
		y:        y,
		w:        w,
		nClasses: nClasses,
		entropy:  entropy,
		total:    make([]float64, nClasses),
		left:     make([]float64, nClasses),
	}
}

func (c *classCriterion) init(samples []int) {
	clear(c.total)
	c.wTotal = 0
	for _, s := range samples {
		c.total[c.y[s]] += c.w[s]
		c.wTotal += c.w[s]
	}
	c.reset()
}

func (c *classCriterion) reset() {
	clear(c.left)
	c.wLeft = 0
}

func (c *classCriterion) moveLeft(s int) {
	c.left[c.y[s]] += c.w[s]
	c.wLeft += c.w[s]
}

func (c *classCriterion) impurity(counts []float64, weight float64, minus []float64) float64 {
	if weight <= 0 {
		return 0
	}
	var acc float64
	for k := 0; k < c.nClasses; k++ {
		v := counts[k]
		if minus != nil {
			v -= minus[k]
		}
		if v <= 0 {
			continue
		}
		p := v / weight
		if c.entropy {
			acc -= p * math.Log2(p)
		} else {
			acc += p * p
		}
	}
	if c.entropy {
		return acc
	}
	return 1 - acc
}

func (c *classCriterion) nodeImpurity() float64 {
	return c.impurity(c.total, c.wTotal, nil)
}

func (c *classCriterion) childrenImpurity() (float64, float64) {
	return c.impurity(c.left, c.wLeft, nil), c.impurity(c.total, c.wTotal-c.wLeft, c.left)
}

func (c *classCriterion) weights() (float64, float64) {
	return c.wLeft, c.wTotal - c.wLeft
}

func (c *classCriterion) nodeValue() []float64 {
	out := make([]float64, c.nClasses)
	if c.wTotal <= 0 {
		return out
	}
	for k, v := range c.total {
		out[k] = v / c.wTotal
	}
	return out
}

func (c *classCriterion) pure() bool {
	nonZero := 0
	for _, v := range c.total {
		if v > 0 {
			nonZero++
		}
	}
	return nonZero <= 1
}

// mseCriterion measures the weighted variance of a continuous target.
type mseCriterion struct {
	y []float64
	w []float64

	wTotal, sumTotal, sqTotal float64
	wLeft, sumLeft, sqLeft    float64
}

func newMSECriterion(y, w []float64) *mseCriterion {
	return &mseCriterion{y: y, w: w}
}

func (c *mseCriterion) init(samples []int) {
	c.wTotal, c.sumTotal, c.sqTotal = 0, 0, 0
	for _, s := range samples {
		wy := c.w[s] * c.y[s]
		c.wTotal += c.w[s]
		c.sumTotal += wy
		c.sqTotal += wy * c.y[s]
	}
	c.reset()
}

func (c *mseCriterion) reset() {
	c.wLeft, c.sumLeft, c.sqLeft = 0, 0, 0
}

func (c *mseCriterion) moveLeft(s int) {
	wy := c.w[s] * c.y[s]
	c.wLeft += c.w[s]
	c.sumLeft += wy
	c.sqLeft += wy * c.y[s]
}

func variance(w, sum, sq float64) float64 {
	if w <= 0 {
		return 0
	}
	mean := sum / w
	return math.Max(sq/w-mean*mean, 0)
}

func (c *mseCriterion) nodeImpurity() float64 {
	return variance(c.wTotal, c.sumTotal, c.sqTotal)
}

func (c *mseCriterion) childrenImpurity() (float64, float64) {
	return variance(c.wLeft, c.sumLeft, c.sqLeft),
		variance(c.wTotal-c.wLeft, c.sumTotal-c.sumLeft, c.sqTotal-c.sqLeft)
}

func (c *mseCriterion) weights() (float64, float64) {
	return c.wLeft, c.wTotal - c.wLeft
}

func (c *mseCriterion) nodeValue() []float64 {
	if c.wTotal <= 0 {
		return []float64{0}
	}
	return []float64{c.sumTotal / c.wTotal}
}

func (c *mseCriterion) pure() bool {
	if c.wTotal <= 0 {
		return true
	}
	return c.nodeImpurity() <= 1e-14*(c.sqTotal/c.wTotal)
}
