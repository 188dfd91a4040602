package ensemble

import (
	"math"

	"github.com/mlps/physlearn/pkg/errors"
)

// lossFunction is the objective a gradient booster descends. raw holds K
// scores per sample laid out row-major; K is 1 except for multinomial.
type lossFunction interface {
	k() int
	// initRaw returns the constant starting score per output.
	initRaw(y []float64) []float64
	// negGradient writes the pseudo-residuals of output c into r.
	negGradient(y, raw []float64, c int, r []float64)
	// leafValue returns the Newton step for a leaf holding samples.
	leafValue(samples []int, y, raw, residual []float64, c int) float64
	loss(y, raw []float64, idx []int) float64
}

// squaredLoss fits the mean; tree leaves already hold mean residuals.
type squaredLoss struct{}

func (squaredLoss) k() int { return 1 }

func (squaredLoss) initRaw(y []float64) []float64 {
	var s float64
	for _, v := range y {
		s += v
	}
	return []float64{s / float64(len(y))}
}

func (squaredLoss) negGradient(y, raw []float64, _ int, r []float64) {
	for i := range y {
		r[i] = y[i] - raw[i]
	}
}

func (squaredLoss) leafValue(samples []int, _, _, residual []float64, _ int) float64 {
	var s float64
	for _, i := range samples {
		s += residual[i]
	}
	return s / float64(len(samples))
}

func (squaredLoss) loss(y, raw []float64, idx []int) float64 {
	var s float64
	for _, i := range idx {
		d := y[i] - raw[i]
		s += d * d
	}
	return s / float64(len(idx))
}

// binomialLoss is the log-loss on y ∈ {0, 1} with raw log-odds.
type binomialLoss struct{}

func (binomialLoss) k() int { return 1 }

func (binomialLoss) initRaw(y []float64) []float64 {
	var pos float64
	for _, v := range y {
		pos += v
	}
	p := errors.ClipValue(pos/float64(len(y)), 1e-15, 1-1e-15)
	return []float64{math.Log(p / (1 - p))}
}

func (binomialLoss) negGradient(y, raw []float64, _ int, r []float64) {
	for i := range y {
		r[i] = y[i] - errors.Sigmoid(raw[i])
	}
}

func (binomialLoss) leafValue(samples []int, y, _, residual []float64, _ int) float64 {
	var num, den float64
	for _, i := range samples {
		p := y[i] - residual[i]
		num += residual[i]
		den += p * (1 - p)
	}
	if math.Abs(den) < 1e-150 {
		return 0
	}
	return num / den
}

func (binomialLoss) loss(y, raw []float64, idx []int) float64 {
	var s float64
	for _, i := range idx {
		// log(1 + e^raw) − y·raw
		s += softplus(raw[i]) - y[i]*raw[i]
	}
	return s / float64(len(idx))
}

func softplus(x float64) float64 {
	if x > 0 {
		return x + math.Log1p(math.Exp(-x))
	}
	return math.Log1p(math.Exp(x))
}

// multinomialLoss is the softmax cross-entropy over K classes; y holds
// class indices.
type multinomialLoss struct{ nClasses int }

func (m multinomialLoss) k() int { return m.nClasses }

func (m multinomialLoss) initRaw(y []float64) []float64 {
	counts := make([]float64, m.nClasses)
	for _, v := range y {
		counts[int(v)]++
	}
	raw := make([]float64, m.nClasses)
	for c := range raw {
		p := errors.ClipValue(counts[c]/float64(len(y)), 1e-15, 1)
		raw[c] = math.Log(p)
	}
	return raw
}

func (m multinomialLoss) negGradient(y, raw []float64, c int, r []float64) {
	K := m.nClasses
	prob := make([]float64, K)
	for i := range y {
		errors.Softmax(prob, raw[i*K:(i+1)*K])
		t := 0.0
		if int(y[i]) == c {
			t = 1
		}
		r[i] = t - prob[c]
	}
}

func (m multinomialLoss) leafValue(samples []int, y, _, residual []float64, c int) float64 {
	var num, den float64
	for _, i := range samples {
		num += residual[i]
		a := math.Abs(residual[i])
		den += a * (1 - a)
	}
	if math.Abs(den) < 1e-150 {
		return 0
	}
	K := float64(m.nClasses)
	return (K - 1) / K * num / den
}

func (m multinomialLoss) loss(y, raw []float64, idx []int) float64 {
	K := m.nClasses
	var s float64
	for _, i := range idx {
		row := raw[i*K : (i+1)*K]
		s += errors.LogSumExp(row) - row[int(y[i])]
	}
	return s / float64(len(idx))
}
