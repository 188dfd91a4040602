// Package cli provides the physlearn command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/mlps/physlearn/internal/config"
	"github.com/mlps/physlearn/pkg/log"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	GitCommit = "unknown"
)

type configKey struct{}

// NewRootCmd creates the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	var cfgFile string
	var set []string

	rootCmd := &cobra.Command{
		Use:   "physlearn",
		Short: "Tabular machine-learning workflows for the physical sciences",
		Long: `physlearn loads a CSV dataset, cleans it (missing values, z-score
outliers, class balance), fits trees, SVMs, boosted ensembles or linear
models under k-fold cross-validation and reports scores as tables and
figures.

Settings come from defaults, then --config, then PHYSLEARN_* environment
variables (PHYSLEARN_CV__FOLDS=10), then flags.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "version" {
				return nil
			}
			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			if err := applySet(cfg, set); err != nil {
				return err
			}
			if _, err := log.SetupLogger(cfg.Log.Level, cfg.Log.Format, cmd.ErrOrStderr()); err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgFile, "config", "c", "", "YAML config file")
	pf.StringP("data", "d", "", "input CSV file")
	pf.StringP("target", "y", "", "target column")
	pf.StringSlice("drop", nil, "columns to ignore")
	pf.StringSlice("features", nil, "feature columns to keep (default: all)")
	pf.String("delimiter", ",", "CSV field delimiter")
	pf.String("task", config.TaskClassification, "classification or regression")
	pf.String("missing", "drop", "missing values: drop, mean, median or none")
	pf.Float64("z-threshold", 3, "remove rows with |z| above this; 0 disables")
	pf.Int("folds", 5, "cross-validation folds")
	pf.Int("seed", 42, "random seed")
	pf.Int("n-jobs", 0, "concurrent fold fits (0 = one per CPU)")
	pf.String("scoring", "", "scorer name (default: accuracy or r2)")
	pf.StringP("model", "m", "tree", "estimator: tree, svm, adaboost, gbt, linear, ridge or lasso")
	pf.String("scaler", "none", "feature scaler: none, standard or minmax")
	pf.StringArrayVar(&set, "set", nil, "estimator parameter as key=value (repeatable)")
	pf.StringP("output-dir", "o", "figures", "directory for figures")
	pf.String("format", "png", "figure format: png, svg or pdf")
	pf.String("log-level", "info", "debug, info, warn or error")
	pf.String("log-format", "console", "json or console")

	rootCmd.AddCommand(
		newDescribeCmd(),
		newCleanCmd(),
		newCVCmd(),
		newGridCmd(),
		newBoostCmd(),
		newLearningCurveCmd(),
		newValidationCurveCmd(),
		newPathCmd(),
		newPredictCmd(),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// GetConfig retrieves the config stored by the root command, or the
// defaults when none is set.
func GetConfig(ctx context.Context) *config.Config {
	if c, ok := ctx.Value(configKey{}).(*config.Config); ok {
		return c
	}
	return config.Default()
}

func figurePath(cfg *config.Config, name string) string {
	return filepath.Join(cfg.Output.Dir, name+"."+cfg.Output.Format)
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "physlearn %s (%s)\n", Version, GitCommit)
		},
	}
}
