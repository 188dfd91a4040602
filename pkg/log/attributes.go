package log

// Model and operation context.
const (
	// ModelNameKey identifies the estimator type, e.g. "Lasso" or "SVC".
	ModelNameKey = "model.name"

	// OperationKey is the operation being performed. See the Operation* values.
	OperationKey = "ml.operation"

	// ComponentKey identifies the package or command emitting the record.
	ComponentKey = "ml.component"

	// PhaseKey is the workflow phase. See the Phase* values.
	PhaseKey = "ml.phase"
)

// Data shape.
const (
	SamplesKey  = "data.samples"
	FeaturesKey = "data.features"
	ClassesKey  = "data.classes"
	PathKey     = "data.path"

	// RemovedKey counts rows dropped by a cleaning step.
	RemovedKey = "data.removed"

	// ColumnKey names a dataset column.
	ColumnKey = "data.column"
)

// Metrics and timing.
const (
	DurationMsKey = "perf.duration_ms"
	ScoreKey      = "metrics.score"
	ScoreStdKey   = "metrics.score_std"
	ScoringKey    = "metrics.scoring"
	AccuracyKey   = "metrics.accuracy"
	R2ScoreKey    = "metrics.r2_score"
	LossKey       = "metrics.loss"
)

// Iterative training and model selection.
const (
	IterationKey = "training.iteration"

	// StageKey is a boosting stage, 1-based.
	StageKey = "boost.stage"

	// DepthKey is a tree depth in the boosting diagnostic.
	DepthKey = "boost.depth"

	FoldKey        = "cv.fold"
	NFoldsKey      = "cv.n_folds"
	CandidateKey   = "grid.candidate"
	HyperParamsKey = "model.hyperparams"
	AlphaKey       = "hyperparams.alpha"
	RandomSeedKey  = "config.random_seed"
)

// Error context.
const (
	ErrorCodeKey  = "error.code"
	ErrorTypeKey  = "error.type"
	StacktraceKey = "error.stacktrace"
)

// Standard attribute values.
const (
	OperationFit          = "fit"
	OperationPredict      = "predict"
	OperationTransform    = "transform"
	OperationFitTransform = "fit_transform"
	OperationScore        = "score"
	OperationLoad         = "load"
	OperationClean        = "clean"
	OperationPlot         = "plot"

	PhaseTraining      = "training"
	PhaseValidation    = "validation"
	PhasePreprocessing = "preprocessing"
	PhaseReporting     = "reporting"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorSingularMatrix    = "SINGULAR_MATRIX"
)
