// Package svm implements a kernel support vector classifier trained by
// sequential minimal optimization.
package svm

import (
	"fmt"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/core/parallel"
	"github.com/mlps/physlearn/metrics"
	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/pkg/log"
)

// SVC is a C-support vector classifier. Two classes train one machine with
// Classes()[1] as the positive side; more classes train one machine per
// class against the rest and predict the largest decision value.
type SVC struct {
	state *model.StateManager

	c           float64
	kernel      string
	gammaMode   string
	gammaValue  float64
	degree      int
	coef0       float64
	tol         float64
	maxIter     int
	randomState int

	classes_  []float64
	gamma_    float64
	kern      Kernel
	machines  []machine
	svRows    [][]float64
	svIndices []int
}

// Option configures an SVC.
type Option func(*SVC)

// WithC sets the soft-margin penalty.
func WithC(c float64) Option { return func(s *SVC) { s.c = c } }

// WithKernel selects "linear", "rbf" or "poly".
func WithKernel(k string) Option { return func(s *SVC) { s.kernel = k } }

// WithGamma sets an explicit kernel coefficient.
func WithGamma(g float64) Option {
	return func(s *SVC) { s.gammaMode, s.gammaValue = "", g }
}

// WithGammaMode selects "scale" or "auto".
func WithGammaMode(mode string) Option { return func(s *SVC) { s.gammaMode = mode } }

// WithDegree sets the polynomial degree.
func WithDegree(d int) Option { return func(s *SVC) { s.degree = d } }

// WithCoef0 sets the independent term of the polynomial kernel.
func WithCoef0(c float64) Option { return func(s *SVC) { s.coef0 = c } }

// WithTol sets the KKT violation tolerance that stops SMO.
func WithTol(t float64) Option { return func(s *SVC) { s.tol = t } }

// WithMaxIter caps SMO updates per machine; -1 means no cap.
func WithMaxIter(n int) Option { return func(s *SVC) { s.maxIter = n } }

// WithRandomState seeds the order in which training samples are visited.
func WithRandomState(seed int) Option { return func(s *SVC) { s.randomState = seed } }

// NewSVC creates an RBF SVC with C=1, gamma="scale", degree=3 and tol=1e-3.
func NewSVC(opts ...Option) *SVC {
	s := &SVC{
		state:     model.NewStateManager(),
		c:         1,
		kernel:    "rbf",
		gammaMode: "scale",
		degree:    3,
		tol:       1e-3,
		maxIter:   -1,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Fit trains the classifier.
func (s *SVC) Fit(X, y mat.Matrix) error {
	if s.c <= 0 {
		return errors.NewValidationError("C", "must be positive", s.c)
	}
	if s.tol <= 0 {
		return errors.NewValidationError("tol", "must be positive", s.tol)
	}
	n, p, err := model.ValidateXY("SVC.Fit", X, y)
	if err != nil {
		return err
	}
	if err := errors.CheckMatrix("SVC.Fit", X, 0); err != nil {
		return err
	}
	labels := model.Column(y, 0)
	classes := model.UniqueLabels(labels)
	if len(classes) < 2 {
		return errors.NewValueError("SVC.Fit", "need samples of at least two classes")
	}

	// Visit samples in a seeded order; SMO ties resolve by position.
	order := rand.New(rand.NewPCG(uint64(s.randomState), 0x5851f42d4c957f2d)).Perm(n)
	rows := make([][]float64, n)
	for i, o := range order {
		rows[i] = mat.Row(nil, o, X)
	}
	gamma, err := resolveGamma(s.gammaMode, s.gammaValue, rows)
	if err != nil {
		return err
	}
	kern, err := newKernel(s.kernel, gamma, s.degree, s.coef0)
	if err != nil {
		return err
	}
	K := gram(kern, rows)

	targets := classes[1:]
	if len(classes) > 2 {
		targets = classes
	}
	machines := make([]machine, len(targets))
	logger := log.GetLoggerWithName("svm")
	for m, positive := range targets {
		yb := make([]float64, n)
		for i, o := range order {
			yb[i] = -1
			if labels[o] == positive {
				yb[i] = 1
			}
		}
		machines[m] = solveSMO(K, yb, s.c, s.tol, s.maxIter)
		if !machines[m].converged {
			errors.Warn(errors.NewConvergenceWarning("SVC", machines[m].iters,
				fmt.Sprintf("SMO stopped at max_iter for class %v", positive)))
		}
		logger.Debug("svc machine trained",
			log.ModelNameKey, "SVC",
			log.IterationKey, machines[m].iters,
			"positive_class", positive,
			"n_support", len(machines[m].svIndex))
	}

	s.compact(machines, rows, order)
	s.classes_ = classes
	s.gamma_ = gamma
	s.kern = kern
	s.state.SetDimensions(p, n)
	s.state.SetFitted()
	return nil
}

// compact keeps only the rows that are support vectors of some machine and
// re-indexes every machine against them.
func (s *SVC) compact(machines []machine, rows [][]float64, order []int) {
	pos := map[int]int{}
	var orig []int
	for _, m := range machines {
		for _, i := range m.svIndex {
			if _, ok := pos[i]; !ok {
				pos[i] = 0
				orig = append(orig, i)
			}
		}
	}
	slices.SortFunc(orig, func(a, b int) int { return order[a] - order[b] })
	s.svRows = make([][]float64, len(orig))
	s.svIndices = make([]int, len(orig))
	for k, i := range orig {
		pos[i] = k
		s.svRows[k] = rows[i]
		s.svIndices[k] = order[i]
	}
	for m := range machines {
		for k, i := range machines[m].svIndex {
			machines[m].svIndex[k] = pos[i]
		}
	}
	s.machines = machines
}

func (s *SVC) check(method string, X mat.Matrix) error {
	if err := s.state.RequireFitted("SVC", method); err != nil {
		return err
	}
	if _, _, err := model.ValidateX("SVC."+method, X); err != nil {
		return err
	}
	return s.state.CheckFeatures("SVC."+method, X)
}

// DecisionFunction returns signed distances to the separating surfaces:
// n×1 for two classes, n×K (one column per class) otherwise.
func (s *SVC) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	if err := s.check("DecisionFunction", X); err != nil {
		return nil, err
	}
	r, _ := X.Dims()
	out := mat.NewDense(r, len(s.machines), nil)
	parallel.ParallelizeWithThreshold(r, 64, func(start, end int) {
		kx := make([]float64, len(s.svRows))
		for i := start; i < end; i++ {
			x := mat.Row(nil, i, X)
			for k, sv := range s.svRows {
				kx[k] = s.kern.Eval(sv, x)
			}
			for m, mc := range s.machines {
				v := -mc.rho
				for k, idx := range mc.svIndex {
					v += mc.coef[k] * kx[idx]
				}
				out.Set(i, m, v)
			}
		}
	})
	return out, nil
}

// Predict returns a class label per row.
func (s *SVC) Predict(X mat.Matrix) (mat.Matrix, error) {
	d, err := s.DecisionFunction(X)
	if err != nil {
		return nil, err
	}
	r, c := d.Dims()
	out := mat.NewVecDense(r, nil)
	for i := 0; i < r; i++ {
		if c == 1 {
			if d.At(i, 0) > 0 {
				out.SetVec(i, s.classes_[1])
			} else {
				out.SetVec(i, s.classes_[0])
			}
			continue
		}
		best := 0
		for k := 1; k < c; k++ {
			if d.At(i, k) > d.At(i, best) {
				best = k
			}
		}
		out.SetVec(i, s.classes_[best])
	}
	return out, nil
}

// Score returns the accuracy on (X, y).
func (s *SVC) Score(X, y mat.Matrix) (float64, error) {
	pred, err := s.Predict(X)
	if err != nil {
		return 0, err
	}
	return metrics.Accuracy(model.ColumnVector(y), model.ColumnVector(pred))
}

// Classes returns the training labels in ascending order.
func (s *SVC) Classes() []float64 { return slices.Clone(s.classes_) }

// SupportVectors returns the support vectors as rows, in training order.
func (s *SVC) SupportVectors() (*mat.Dense, error) {
	if err := s.state.RequireFitted("SVC", "SupportVectors"); err != nil {
		return nil, err
	}
	if len(s.svRows) == 0 {
		return &mat.Dense{}, nil
	}
	p, _ := s.state.GetDimensions()
	out := mat.NewDense(len(s.svRows), p, nil)
	for k, r := range s.svRows {
		out.SetRow(k, r)
	}
	return out, nil
}

// SupportIndices returns the training row index of every support vector.
func (s *SVC) SupportIndices() []int { return slices.Clone(s.svIndices) }

// Gamma returns the kernel coefficient resolved during Fit.
func (s *SVC) Gamma() float64 { return s.gamma_ }

// GetParams returns the hyperparameters. gamma is a string for "scale"
// and "auto" and a number otherwise.
func (s *SVC) GetParams() map[string]interface{} {
	var gamma interface{} = s.gammaMode
	if s.gammaMode == "" {
		gamma = s.gammaValue
	}
	return map[string]interface{}{
		"C":            s.c,
		"kernel":       s.kernel,
		"gamma":        gamma,
		"degree":       s.degree,
		"coef0":        s.coef0,
		"tol":          s.tol,
		"max_iter":     s.maxIter,
		"random_state": s.randomState,
	}
}

// SetParams updates the hyperparameters and resets the fitted state.
func (s *SVC) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		var err error
		switch k {
		case "C":
			s.c, err = model.ParamFloat(k, v)
		case "kernel":
			s.kernel, err = model.ParamString(k, v)
		case "gamma":
			if str, ok := v.(string); ok && (str == "scale" || str == "auto") {
				s.gammaMode = str
				break
			}
			s.gammaMode = ""
			s.gammaValue, err = model.ParamFloat(k, v)
		case "degree":
			s.degree, err = model.ParamInt(k, v)
		case "coef0":
			s.coef0, err = model.ParamFloat(k, v)
		case "tol":
			s.tol, err = model.ParamFloat(k, v)
		case "max_iter":
			s.maxIter, err = model.ParamInt(k, v)
		case "random_state":
			s.randomState, err = model.ParamInt(k, v)
		default:
			err = model.UnknownParam("SVC", k, v)
		}
		if err != nil {
			return err
		}
	}
	s.state.Reset()
	return nil
}

// Clone returns an unfitted SVC with the same hyperparameters.
func (s *SVC) Clone() model.Estimator {
	return &SVC{
		state:       model.NewStateManager(),
		c:           s.c,
		kernel:      s.kernel,
		gammaMode:   s.gammaMode,
		gammaValue:  s.gammaValue,
		degree:      s.degree,
		coef0:       s.coef0,
		tol:         s.tol,
		maxIter:     s.maxIter,
		randomState: s.randomState,
	}
}

func (s *SVC) String() string {
	return fmt.Sprintf("SVC(C=%g, kernel=%s, gamma=%v)", s.c, s.kernel, s.GetParams()["gamma"])
}
