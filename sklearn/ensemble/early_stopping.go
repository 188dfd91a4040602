package ensemble

import "math"

// EarlyStopping tracks a validation loss and signals when it has not
// improved by more than Tol for Rounds consecutive stages.
type EarlyStopping struct {
	Rounds          int     // stages without improvement before stopping
	Tol             float64 // minimum decrease that counts as improvement
	BestScore       float64 // lowest loss seen
	BestIteration   int     // 0-based stage of BestScore
	RoundsNoImprove int
	Enabled         bool
}

// NewEarlyStopping returns a disabled tracker when rounds <= 0.
func NewEarlyStopping(rounds int, tol float64) *EarlyStopping {
	if rounds <= 0 {
		return &EarlyStopping{Enabled: false, BestIteration: -1}
	}
	return &EarlyStopping{
		Rounds:        rounds,
		Tol:           tol,
		BestScore:     math.Inf(1),
		BestIteration: -1,
		Enabled:       true,
	}
}

// Update records the loss of stage iteration and reports whether training
// should stop.
func (es *EarlyStopping) Update(iteration int, loss float64) bool {
	if !es.Enabled {
		return false
	}
	if loss < es.BestScore-es.Tol {
		es.BestScore = loss
		es.BestIteration = iteration
		es.RoundsNoImprove = 0
	} else {
		if loss < es.BestScore {
			es.BestScore = loss
			es.BestIteration = iteration
		}
		es.RoundsNoImprove++
	}
	return es.ShouldStop()
}

// ShouldStop reports whether the patience is exhausted.
func (es *EarlyStopping) ShouldStop() bool {
	return es.Enabled && es.RoundsNoImprove >= es.Rounds
}
