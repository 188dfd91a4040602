// Package physlearn is a machine-learning toolkit for tabular data from the
// physical sciences, written on gonum with a scikit-learn-like API.
//
// A typical workflow loads a CSV file, cleans it, cross-validates a model
// and renders diagnostics:
//
//	d, err := dataset.LoadCSV("materials.csv", dataset.LoadOptions{Target: "phase", Drop: []string{"id"}})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	d, err = d.DropNA()
//	...
//	d, _, err = d.ZScoreFilter(dataset.DefaultZThreshold, false)
//	...
//	clf := tree.NewDecisionTreeClassifier(tree.WithMaxDepth(3))
//	cv := model_selection.NewStratifiedKFold(5, true, 42)
//	res, err := model_selection.CrossValidate(ctx, clf, d.X, d.YMatrix(), cv, "accuracy")
//
// # Packages
//
//   - dataset: CSV loading, missing values, z-score outlier filter, class balance
//   - preprocessing: StandardScaler, MinMaxScaler and a scaler → estimator Pipeline
//   - metrics: classification and regression metrics and named scorers
//   - sklearn/tree: CART decision trees (gini, entropy, squared error)
//   - sklearn/svm: SVC with linear, RBF and polynomial kernels (SMO)
//   - sklearn/ensemble: AdaBoost (SAMME) and gradient boosted trees
//   - sklearn/linear_model: LinearRegression, Ridge, Lasso and regularization paths
//   - sklearn/model_selection: KFold, StratifiedKFold, CrossValidate, GridSearchCV, learning and validation curves
//   - diagnostics: cross-validated score per boosting stage for several tree depths
//   - plot: PNG/SVG figures with gonum/plot
//   - core/model, core/parallel: estimator interfaces, fitted state and row-chunk parallelism
//   - pkg/errors, pkg/log: typed errors with stack traces, warnings and zerolog logging
//
// The physlearn command (cmd/physlearn) runs each workflow step from a YAML
// config, environment variables or flags.
//
// # Reproducibility
//
// Every randomized component takes a seed. Cross-validation folds may run
// concurrently, but scores are stored by fold index, so repeated runs with
// the same seed give identical results.
package physlearn
