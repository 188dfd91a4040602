package model_selection

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/pkg/log"
)

// ParamGrid maps a hyperparameter name to the values to try.
type ParamGrid map[string][]interface{}

// Candidates expands the grid into every combination. Keys are visited in
// sorted order with the last key varying fastest.
func (g ParamGrid) Candidates() ([]map[string]interface{}, error) {
	keys := slices.Sorted(maps.Keys(g))
	if len(keys) == 0 {
		return []map[string]interface{}{{}}, nil
	}
	for _, k := range keys {
		if len(g[k]) == 0 {
			return nil, errors.NewValidationError(k, "parameter grid entry has no values", g[k])
		}
	}
	out := []map[string]interface{}{{}}
	for _, k := range keys {
		next := make([]map[string]interface{}, 0, len(out)*len(g[k]))
		for _, partial := range out {
			for _, v := range g[k] {
				c := maps.Clone(partial)
				c[k] = v
				next = append(next, c)
			}
		}
		out = next
	}
	return out, nil
}

// SearchResult is the cross-validated score of one candidate.
type SearchResult struct {
	Params         map[string]interface{}
	MeanTestScore  float64
	StdTestScore   float64
	MeanTrainScore float64
	TestScores     []float64
	Rank           int
}

// FormatParams renders params as "k=v" pairs in key order.
func FormatParams(params map[string]interface{}) string {
	keys := slices.Sorted(maps.Keys(params))
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = fmt.Sprintf("%s=%v", k, params[k])
	}
	return strings.Join(parts, " ")
}

// GridSearchCV evaluates every candidate of a ParamGrid by cross-validation.
type GridSearchCV struct {
	Estimator model.Model
	Grid      ParamGrid
	CV        Splitter
	Scoring   string
	// Refit fits the best candidate on all data after the search.
	Refit bool

	opts []CVOption

	Results       []SearchResult
	BestIndex     int
	BestParams    map[string]interface{}
	BestScore     float64
	BestEstimator model.Model
}

// NewGridSearchCV creates a search with refit enabled.
func NewGridSearchCV(est model.Model, grid ParamGrid, cv Splitter, scoring string, opts ...CVOption) *GridSearchCV {
	return &GridSearchCV{Estimator: est, Grid: grid, CV: cv, Scoring: scoring, Refit: true, opts: opts}
}

// Fit runs the search. The best candidate has the highest mean test score;
// ties go to the earlier candidate.
func (gs *GridSearchCV) Fit(ctx context.Context, X, y mat.Matrix) error {
	candidates, err := gs.Grid.Candidates()
	if err != nil {
		return err
	}
	cfg := defaultCVConfig()
	for _, o := range gs.opts {
		o(cfg)
	}
	logger := cfg.logger

	gs.Results = make([]SearchResult, len(candidates))
	gs.BestIndex = -1
	for i, params := range candidates {
		est, err := model.CloneModel(gs.Estimator)
		if err != nil {
			return err
		}
		if err := est.SetParams(params); err != nil {
			return errors.Wrapf(err, "candidate %d (%s)", i, FormatParams(params))
		}
		res, err := CrossValidate(ctx, est, X, y, gs.CV, gs.Scoring, gs.opts...)
		if err != nil {
			return errors.Wrapf(err, "candidate %d (%s)", i, FormatParams(params))
		}
		gs.Results[i] = SearchResult{
			Params:         params,
			MeanTestScore:  res.MeanTestScore(),
			StdTestScore:   res.StdTestScore(),
			MeanTrainScore: res.MeanTrainScore(),
			TestScores:     res.TestScores,
		}
		if gs.BestIndex < 0 || res.MeanTestScore() > gs.Results[gs.BestIndex].MeanTestScore {
			gs.BestIndex = i
		}
		logger.Info("candidate scored",
			log.CandidateKey, i,
			log.HyperParamsKey, FormatParams(params),
			log.ScoreKey, res.MeanTestScore(),
			log.ScoreStdKey, res.StdTestScore(),
		)
	}
	rank(gs.Results)

	best := gs.Results[gs.BestIndex]
	gs.BestParams = best.Params
	gs.BestScore = best.MeanTestScore

	if gs.Refit {
		est, err := model.CloneModel(gs.Estimator)
		if err != nil {
			return err
		}
		if err := est.SetParams(best.Params); err != nil {
			return err
		}
		if err := est.Fit(X, y); err != nil {
			return errors.Wrap(err, "refit best candidate")
		}
		gs.BestEstimator = est
	}
	return nil
}

// Predict uses the refitted best estimator.
func (gs *GridSearchCV) Predict(X mat.Matrix) (mat.Matrix, error) {
	if gs.BestEstimator == nil {
		return nil, errors.NewNotFittedError("GridSearchCV", "Predict")
	}
	return gs.BestEstimator.Predict(X)
}

// rank assigns 1-based ranks by descending mean test score; equal scores
// share the lowest rank.
func rank(results []SearchResult) {
	order := make([]int, len(results))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return results[order[a]].MeanTestScore > results[order[b]].MeanTestScore
	})
	for pos, idx := range order {
		r := pos + 1
		if pos > 0 && results[order[pos-1]].MeanTestScore == results[idx].MeanTestScore {
			r = results[order[pos-1]].Rank
		}
		results[idx].Rank = r
	}
}
