package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mlps/physlearn/internal/experiment"
	"github.com/mlps/physlearn/internal/report"
	"github.com/mlps/physlearn/sklearn/model_selection"
	"github.com/mlps/physlearn/plot"
)

func newDescribeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Summarize the raw dataset",
		Long: `Print summary statistics, missing-value counts and, for classification,
the class balance (also drawn to class_balance.<format>). Regression
datasets get the correlation of every feature with the target instead.`,
		Example: `  physlearn describe --data materials.csv --target phase`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			d, err := experiment.Load(cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			report.Describe(w, d.Describe())
			report.Missing(w, d.MissingReport())
			if !cfg.Classification() {
				report.Correlations(w, d.Features, d.Correlations())
				return nil
			}
			balance := d.ClassBalance()
			report.ClassBalance(w, balance)
			return plot.ClassBalanceBars(balance, plot.Options{}, figurePath(cfg, "class_balance"))
		},
	}
}

func newCleanCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Clean the dataset and report what each step removed",
		Example: `  physlearn clean --data materials.csv --target phase --missing median --out clean.csv`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			p, err := experiment.Prepare(cfg)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			report.Cleaning(w, p.Steps)
			report.Describe(w, p.Data.Describe())
			if out == "" {
				return nil
			}
			if err := p.Data.SaveCSV(out); err != nil {
				return err
			}
			fmt.Fprintf(w, "cleaned data written to %s\n", out)
			return nil
		},
	}
	cmd.Flags().StringVar(&out, "out", "", "write the cleaned dataset to this CSV file")
	return cmd
}

func newCVCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "cv",
		Short:   "Cross-validate the configured estimator",
		Example: `  physlearn cv --data materials.csv --target phase --model svm --scaler standard --set C=10`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			p, err := experiment.Prepare(cfg)
			if err != nil {
				return err
			}
			res, err := experiment.CrossValidate(cmd.Context(), cfg, p.Data)
			if err != nil {
				return err
			}
			report.CrossValidation(cmd.OutOrStdout(), cfg.Model.Name, res)
			return nil
		},
	}
}

func newGridCmd() *cobra.Command {
	var entries []string
	cmd := &cobra.Command{
		Use:   "grid",
		Short: "Grid-search estimator parameters by cross-validation",
		Example: `  physlearn grid --data materials.csv --target phase --model svm \
    --grid C=0.1,1,10 --grid kernel=linear,rbf`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			if len(entries) > 0 {
				grid, err := parseGrid(entries)
				if err != nil {
					return err
				}
				cfg.Grid = grid
			}
			p, err := experiment.Prepare(cfg)
			if err != nil {
				return err
			}
			gs, err := experiment.GridSearch(cmd.Context(), cfg, p.Data)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			report.GridSearch(w, gs.Results)
			fmt.Fprintf(w, "best: %s (%s %.4f)\n", model_selection.FormatParams(gs.BestParams), gs.Scoring, gs.BestScore)
			return nil
		},
	}
	cmd.Flags().StringArrayVar(&entries, "grid", nil, "parameter values as key=v1,v2,... (repeatable)")
	return cmd
}

func newBoostCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "boost",
		Short: "Cross-validated score per boosting stage for several tree depths",
		Long: `Fit a boosted ensemble for every depth in --depths on every fold and score
it after each stage. Prints the best stage per depth and draws the
fold-averaged curves, with a trailing moving average of width --window,
to boosting.<format>.`,
		Example: `  physlearn boost --data materials.csv --target phase --depths 1,2,4 --n-estimators 200`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			p, err := experiment.Prepare(cfg)
			if err != nil {
				return err
			}
			diag, err := experiment.BoostingDepth(cmd.Context(), cfg, p.Data)
			if err != nil {
				return err
			}
			report.Boosting(cmd.OutOrStdout(), diag)
			return plot.BoostingCurves(diag, plot.Options{}, figurePath(cfg, "boosting"))
		},
	}
	f := cmd.Flags()
	f.String("ensemble", "adaboost", "adaboost or gbt")
	f.StringSlice("depths", []string{"1", "2", "3"}, "base tree depths")
	f.Int("n-estimators", 100, "boosting stages")
	f.Float64("learning-rate", 0.1, "shrinkage per stage")
	f.Int("window", 5, "moving-average width; 1 disables smoothing")
	return cmd
}

func newLearningCurveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "learning-curve",
		Short:   "Score the estimator on growing training sets",
		Example: `  physlearn learning-curve --data materials.csv --target phase --train-sizes 0.2,0.5,1`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			p, err := experiment.Prepare(cfg)
			if err != nil {
				return err
			}
			res, err := experiment.LearningCurve(cmd.Context(), cfg, p.Data)
			if err != nil {
				return err
			}
			xs := make([]string, len(res.TrainSizes))
			for i, n := range res.TrainSizes {
				xs[i] = strconv.Itoa(n)
			}
			report.Curve(cmd.OutOrStdout(), "Learning curve", "train samples", xs, &res.CurveResult)
			return plot.LearningCurve(res, plot.Options{}, figurePath(cfg, "learning_curve"))
		},
	}
	cmd.Flags().StringSlice("train-sizes", nil, "fractions (<= 1) or row counts of the training folds")
	return cmd
}

func newValidationCurveCmd() *cobra.Command {
	var param string
	var values []string
	cmd := &cobra.Command{
		Use:   "validation-curve",
		Short: "Score the estimator across values of one parameter",
		Example: `  physlearn validation-curve --data gaps.csv --target gap --task regression \
    --model ridge --param alpha --values 0.01,0.1,1,10 --log-x`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			if param != "" {
				cfg.Curve.Param = param
			}
			if len(values) > 0 {
				cfg.Curve.Values = parseValues(values)
			}
			p, err := experiment.Prepare(cfg)
			if err != nil {
				return err
			}
			res, err := experiment.ValidationCurve(cmd.Context(), cfg, p.Data)
			if err != nil {
				return err
			}
			xs := make([]string, len(res.Values))
			for i, v := range res.Values {
				xs[i] = fmt.Sprint(v)
			}
			report.Curve(cmd.OutOrStdout(), "Validation curve", res.Param, xs, &res.CurveResult)
			return plot.ValidationCurve(res, plot.Options{LogX: cfg.Curve.LogX}, figurePath(cfg, "validation_curve"))
		},
	}
	f := cmd.Flags()
	f.StringVar(&param, "param", "", "estimator parameter to sweep")
	f.StringSliceVar(&values, "values", nil, "parameter values")
	f.Bool("log-x", false, "logarithmic x axis")
	return cmd
}

func newPathCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "path",
		Short: "Ridge or Lasso coefficients across the regularization strength",
		Example: `  physlearn path --data gaps.csv --target gap --task regression --kind lasso --scaler standard`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			p, err := experiment.Prepare(cfg)
			if err != nil {
				return err
			}
			path, err := experiment.RegularizationPath(cfg, p.Data)
			if err != nil {
				return err
			}
			report.Path(cmd.OutOrStdout(), path)
			return plot.RegularizationPath(path, p.Data.Features, plot.Options{}, figurePath(cfg, "regularization_path"))
		},
	}
	f := cmd.Flags()
	f.String("kind", "lasso", "lasso or ridge")
	f.Int("alphas", 30, "number of log-spaced alphas")
	return cmd
}

func newPredictCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Fit on a training split and evaluate on the held-out rows",
		Long: `Split the cleaned data by --test-size, fit the estimator and score it on
the held-out rows. Linear models report their coefficients and tree models
their feature importances, drawn to coefficients.<format> or
importances.<format>. Regression also draws predicted_vs_true.<format>.`,
		Example: `  physlearn predict --data gaps.csv --target gap --task regression --model lasso --set alpha=0.05`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := GetConfig(cmd.Context())
			p, err := experiment.Prepare(cfg)
			if err != nil {
				return err
			}
			h, err := experiment.FitHoldout(cfg, p.Data)
			if err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			report.Scores(w, "Held-out evaluation", []string{h.Scoring}, []float64{h.Score})

			if kind, values, ok := experiment.Explain(h.Estimator); ok {
				report.Coefficients(w, kind, p.Data.Features, values)
				draw := plot.CoefficientBars
				if kind == "importances" {
					draw = plot.FeatureImportanceBars
				}
				if err := draw(p.Data.Features, values, plot.Options{}, figurePath(cfg, kind)); err != nil {
					return err
				}
			}
			if cfg.Classification() {
				return nil
			}
			return plot.PredictedVsTrue(h.YTrue, h.YPred, plot.Options{}, figurePath(cfg, "predicted_vs_true"))
		},
	}
	cmd.Flags().Float64("test-size", 0.25, "held-out fraction")
	return cmd
}
