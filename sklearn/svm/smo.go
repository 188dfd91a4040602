package svm

import "math"

const tau = 1e-12

// machine is one trained binary SVM: f(x) = Σ coef_i K(sv_i, x) − rho.
type machine struct {
	svIndex []int
	coef    []float64
	rho     float64
	iters   int
	// converged is false when the iteration limit stopped SMO.
	converged bool
}

// solveSMO trains a binary C-SVM on labels y ∈ {−1, +1} with the kernel
// matrix K. Working pairs are the maximal violating pair; training stops
// when the violation drops below tol or after maxIter updates.
func solveSMO(K []float64, y []float64, C, tol float64, maxIter int) machine {
	n := len(y)
	alpha := make([]float64, n)
	G := make([]float64, n)
	for i := range G {
		G[i] = -1
	}
	q := func(i, j int) float64 { return y[i] * y[j] * K[i*n+j] }

	iter := 0
	converged := false
	for ; maxIter < 0 || iter < maxIter; iter++ {
		i, j := -1, -1
		gmax, gmin := math.Inf(-1), math.Inf(1)
		for t := 0; t < n; t++ {
			v := -y[t] * G[t]
			up := (y[t] > 0 && alpha[t] < C) || (y[t] < 0 && alpha[t] > 0)
			low := (y[t] > 0 && alpha[t] > 0) || (y[t] < 0 && alpha[t] < C)
			if up && v > gmax {
				gmax, i = v, t
			}
			if low && v < gmin {
				gmin, j = v, t
			}
		}
		if i < 0 || j < 0 || gmax-gmin < tol {
			converged = true
			break
		}

		oldI, oldJ := alpha[i], alpha[j]
		if y[i] != y[j] {
			quad := K[i*n+i] + K[j*n+j] - 2*K[i*n+j]
			if quad <= 0 {
				quad = tau
			}
			delta := (-G[i] - G[j]) / quad
			diff := alpha[i] - alpha[j]
			alpha[i] += delta
			alpha[j] += delta
			if diff > 0 {
				if alpha[j] < 0 {
					alpha[j], alpha[i] = 0, diff
				}
			} else if alpha[i] < 0 {
				alpha[i], alpha[j] = 0, -diff
			}
			if diff > 0 {
				if alpha[i] > C {
					alpha[i], alpha[j] = C, C-diff
				}
			} else if alpha[j] > C {
				alpha[j], alpha[i] = C, C+diff
			}
		} else {
			quad := K[i*n+i] + K[j*n+j] - 2*K[i*n+j]
			if quad <= 0 {
				quad = tau
			}
			delta := (G[i] - G[j]) / quad
			sum := alpha[i] + alpha[j]
			alpha[i] -= delta
			alpha[j] += delta
			if sum > C {
				if alpha[i] > C {
					alpha[i], alpha[j] = C, sum-C
				}
			} else if alpha[j] < 0 {
				alpha[j], alpha[i] = 0, sum
			}
			if sum > C {
				if alpha[j] > C {
					alpha[j], alpha[i] = C, sum-C
				}
			} else if alpha[i] < 0 {
				alpha[i], alpha[j] = 0, sum
			}
		}

		di, dj := alpha[i]-oldI, alpha[j]-oldJ
		for t := 0; t < n; t++ {
			G[t] += q(i, t)*di + q(j, t)*dj
		}
	}

	m := machine{rho: rho(alpha, G, y, C), iters: iter, converged: converged}
	for t, a := range alpha {
		if a > 0 {
			m.svIndex = append(m.svIndex, t)
			m.coef = append(m.coef, a*y[t])
		}
	}
	return m
}

// rho averages y·G over free support vectors, falling back to the middle
// of the feasible interval when every alpha sits at a bound.
func rho(alpha, G, y []float64, C float64) float64 {
	ub, lb := math.Inf(1), math.Inf(-1)
	var sum float64
	free := 0
	for t := range alpha {
		yG := y[t] * G[t]
		switch {
		case alpha[t] >= C:
			if y[t] < 0 {
				ub = math.Min(ub, yG)
			} else {
				lb = math.Max(lb, yG)
			}
		case alpha[t] <= 0:
			if y[t] > 0 {
				ub = math.Min(ub, yG)
			} else {
				lb = math.Max(lb, yG)
			}
		default:
			free++
			sum += yG
		}
	}
	if free > 0 {
		return sum / float64(free)
	}
	return (ub + lb) / 2
}
