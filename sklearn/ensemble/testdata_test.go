package ensemble

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
)

// wave samples y = sin(2πx0) + 0.5·x1 on a grid.
func wave(n int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(n, 2, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x0 := float64(i) / float64(n)
		x1 := math.Mod(float64(i)*0.618, 1)
		X.Set(i, 0, x0)
		X.Set(i, 1, x1)
		y.Set(i, 0, math.Sin(2*math.Pi*x0)+0.5*x1)
	}
	return X, y
}

// noise returns features and a target that are independent of each other.
func noise(n int, seed uint64) (*mat.Dense, *mat.Dense) {
	r := rand.New(rand.NewPCG(seed, 1))
	X := mat.NewDense(n, 3, nil)
	y := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < 3; j++ {
			X.Set(i, j, r.NormFloat64())
		}
		y.Set(i, 0, r.NormFloat64())
	}
	return X, y
}

// blobs places k well separated clusters of m points on a line.
func blobs(k, m int) (*mat.Dense, *mat.Dense) {
	X := mat.NewDense(k*m, 2, nil)
	y := mat.NewDense(k*m, 1, nil)
	for c := 0; c < k; c++ {
		for i := 0; i < m; i++ {
			row := c*m + i
			X.Set(row, 0, float64(10*c)+float64(i)/float64(m))
			X.Set(row, 1, math.Mod(float64(row)*0.37, 1))
			y.Set(row, 0, float64(c))
		}
	}
	return X, y
}
