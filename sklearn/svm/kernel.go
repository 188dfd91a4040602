package svm

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"

	"github.com/mlps/physlearn/core/parallel"
	"github.com/mlps/physlearn/pkg/errors"
)

// Kernel evaluates an inner product in feature space.
type Kernel interface {
	Eval(a, b []float64) float64
	Name() string
}

type linearKernel struct{}

func (linearKernel) Eval(a, b []float64) float64 { return floats.Dot(a, b) }
func (linearKernel) Name() string                 { return "linear" }

type rbfKernel struct{ gamma float64 }

func (k rbfKernel) Eval(a, b []float64) float64 {
	var d float64
	for i := range a {
		t := a[i] - b[i]
		d += t * t
	}
	return math.Exp(-k.gamma * d)
}
func (rbfKernel) Name() string { return "rbf" }

type polyKernel struct {
	gamma, coef0 float64
	degree       int
}

func (k polyKernel) Eval(a, b []float64) float64 {
	return math.Pow(k.gamma*floats.Dot(a, b)+k.coef0, float64(k.degree))
}
func (polyKernel) Name() string { return "poly" }

// resolveGamma turns "scale", "auto" or an explicit value into a number.
// "scale" is 1/(p·Var(X)) over every element of X; "auto" is 1/p.
func resolveGamma(mode string, value float64, rows [][]float64) (float64, error) {
	p := len(rows[0])
	switch mode {
	case "scale":
		all := make([]float64, 0, len(rows)*p)
		for _, r := range rows {
			all = append(all, r...)
		}
		_, sd := stat.PopMeanStdDev(all, nil)
		v := sd * sd
		if v == 0 {
			return 1, nil
		}
		return 1 / (float64(p) * v), nil
	case "auto":
		return 1 / float64(p), nil
	case "":
		if value <= 0 {
			return 0, errors.NewValidationError("gamma", "must be positive", value)
		}
		return value, nil
	}
	return 0, errors.NewValidationError("gamma", `must be "scale", "auto" or a positive number`, mode)
}

func newKernel(name string, gamma float64, degree int, coef0 float64) (Kernel, error) {
	switch name {
	case "linear":
		return linearKernel{}, nil
	case "rbf":
		return rbfKernel{gamma: gamma}, nil
	case "poly":
		if degree < 1 {
			return nil, errors.NewValidationError("degree", "must be at least 1", degree)
		}
		return polyKernel{gamma: gamma, coef0: coef0, degree: degree}, nil
	}
	return nil, errors.NewValidationError("kernel", "unsupported kernel", name)
}

// gram computes the symmetric n×n kernel matrix in row-major order.
func gram(k Kernel, rows [][]float64) []float64 {
	n := len(rows)
	K := make([]float64, n*n)
	parallel.Parallelize(n, func(start, end int) {
		for i := start; i < end; i++ {
			for j := 0; j <= i; j++ {
				K[i*n+j] = k.Eval(rows[i], rows[j])
			}
		}
	})
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			K[i*n+j] = K[j*n+i]
		}
	}
	return K
}
