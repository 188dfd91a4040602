package experiment

import (
	"fmt"

	"github.com/mlps/physlearn/dataset"
	"github.com/mlps/physlearn/internal/config"
	"github.com/mlps/physlearn/pkg/log"
)

// logs serves the "experiment" logger; tests swap in a capturing provider.
var logs log.LoggerProvider = log.DefaultProvider{}

// Step records the dataset shape after one cleaning step.
type Step struct {
	Name    string
	Rows    int
	Columns int
	Removed string
}

// Prepared is a loaded dataset with its cleaning history.
type Prepared struct {
	Raw  *dataset.Dataset
	Data *dataset.Dataset

	Steps          []Step
	DroppedColumns []string
	// Outliers holds the source row indices removed by the z-score filter.
	Outliers []int
	// ClassRatio is the minority/majority class ratio; 1 for regression.
	ClassRatio float64
	Imbalanced bool
}

// Load reads cfg.Data.Path and keeps cfg.Data.Features when set.
func Load(cfg *config.Config) (*dataset.Dataset, error) {
	if err := cfg.ValidateData(); err != nil {
		return nil, err
	}
	opts := dataset.LoadOptions{Target: cfg.Data.Target, Drop: cfg.Data.Drop}
	if r := []rune(cfg.Data.Delimiter); len(r) == 1 {
		opts.Delimiter = r[0]
	}
	if r := []rune(cfg.Data.Comment); len(r) > 0 {
		opts.Comment = r[0]
	}
	d, err := dataset.LoadCSV(cfg.Data.Path, opts)
	if err != nil {
		return nil, err
	}
	if len(cfg.Data.Features) > 0 {
		return d.Select(cfg.Data.Features)
	}
	return d, nil
}

// Prepare loads the dataset and cleans it per cfg.Clean.
func Prepare(cfg *config.Config) (*Prepared, error) {
	d, err := Load(cfg)
	if err != nil {
		return nil, err
	}
	return Clean(cfg, d)
}

// Clean applies, in order: dropping feature columns whose missing ratio is
// above clean.max_missing_ratio, the missing-value strategy, the z-score
// filter and, for classification, the class-balance check. Rows removed
// at any step leave features and target together.
func Clean(cfg *config.Config, d *dataset.Dataset) (*Prepared, error) {
	logger := logs.GetLoggerWithName("experiment")
	p := &Prepared{Raw: d, ClassRatio: 1}
	p.record("load", d, "")

	if cfg.Clean.MaxMissingRatio < 1 {
		out, dropped, err := d.DropColumnsAbove(cfg.Clean.MaxMissingRatio)
		if err != nil {
			return nil, err
		}
		d, p.DroppedColumns = out, dropped
		p.record("drop sparse columns", d, fmt.Sprintf("%d columns", len(dropped)))
		if len(dropped) > 0 {
			logger.Info("sparse columns dropped", "columns", dropped, "max_ratio", cfg.Clean.MaxMissingRatio)
		}
	}

	if cfg.Clean.Missing != "none" {
		before := d.NRows()
		out, err := d.Impute(dataset.ImputeStrategy(cfg.Clean.Missing))
		if err != nil {
			return nil, err
		}
		d = out
		p.record("missing: "+cfg.Clean.Missing, d, fmt.Sprintf("%d rows", before-d.NRows()))
		logger.Info("missing values handled",
			"strategy", cfg.Clean.Missing,
			log.RemovedKey, before-d.NRows(),
			log.SamplesKey, d.NRows(),
		)
	}

	if cfg.Clean.ZThreshold > 0 {
		out, removed, err := d.ZScoreFilter(cfg.Clean.ZThreshold, cfg.Clean.ZScoreTarget)
		if err != nil {
			return nil, err
		}
		d, p.Outliers = out, removed
		p.record(fmt.Sprintf("z-score > %g", cfg.Clean.ZThreshold), d, fmt.Sprintf("%d rows", len(removed)))
		logger.Info("outliers removed",
			log.RemovedKey, len(removed),
			log.SamplesKey, d.NRows(),
			"threshold", cfg.Clean.ZThreshold,
		)
	}

	if cfg.Classification() && cfg.Clean.MinClassRatio > 0 {
		p.ClassRatio, p.Imbalanced = d.CheckBalance(cfg.Clean.MinClassRatio)
	}
	p.Data = d
	return p, nil
}

func (p *Prepared) record(name string, d *dataset.Dataset, removed string) {
	p.Steps = append(p.Steps, Step{Name: name, Rows: d.NRows(), Columns: d.NFeatures(), Removed: removed})
}
