package dataset

import (
	"io"
	"math"
	"os"
	"slices"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/pkg/errors"
	"github.com/mlps/physlearn/pkg/log"
)

// DefaultNAValues are the tokens read as missing.
var DefaultNAValues = []string{"", "NA", "NaN", "nan", "?", "<nil>"}

// LoadOptions controls CSV parsing.
type LoadOptions struct {
	// Target is the target column. Required.
	Target string
	// Drop lists columns to ignore, such as identifiers or free text.
	Drop []string
	// Delimiter defaults to ','.
	Delimiter rune
	// NAValues defaults to DefaultNAValues.
	NAValues []string
	// Comment, when non-zero, skips lines starting with it.
	Comment rune
}

// LoadCSV reads a CSV file with a header row.
func LoadCSV(path string, opts LoadOptions) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open dataset %s", path)
	}
	defer f.Close()

	d, err := ReadCSV(f, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "load dataset %s", path)
	}
	log.GetLoggerWithName("dataset").Info("dataset loaded",
		log.PathKey, path,
		log.SamplesKey, d.NRows(),
		log.FeaturesKey, d.NFeatures(),
	)
	return d, nil
}

// ReadCSV parses CSV with a header row from r. Every column other than the
// target and the dropped columns must be numeric; missing tokens become NaN.
// A non-numeric target is label-encoded with classes in sorted order.
func ReadCSV(r io.Reader, opts LoadOptions) (*Dataset, error) {
	if opts.Target == "" {
		return nil, errors.NewValidationError("target", "target column is required", opts.Target)
	}
	na := opts.NAValues
	if len(na) == 0 {
		na = DefaultNAValues
	}
	loadOpts := []dataframe.LoadOption{
		dataframe.HasHeader(true),
		dataframe.NaNValues(na),
		dataframe.DetectTypes(true),
		dataframe.DefaultType(series.Float),
	}
	if opts.Delimiter != 0 {
		loadOpts = append(loadOpts, dataframe.WithDelimiter(opts.Delimiter))
	}
	if opts.Comment != 0 {
		loadOpts = append(loadOpts, dataframe.WithComments(opts.Comment))
	}

	df := dataframe.ReadCSV(r, loadOpts...)
	if df.Err != nil {
		// gota refuses header-only input before we can count rows
		if strings.Contains(df.Err.Error(), "empty DataFrame") {
			return nil, errors.NewModelError("ReadCSV", "no data rows", errors.ErrEmptyData)
		}
		return nil, errors.NewDataError("ReadCSV", "", -1, df.Err.Error())
	}
	return fromDataFrame(df, opts)
}

// FromDataFrame converts an already loaded gota DataFrame.
func FromDataFrame(df dataframe.DataFrame, target string, drop ...string) (*Dataset, error) {
	if df.Err != nil {
		return nil, errors.NewDataError("FromDataFrame", "", -1, df.Err.Error())
	}
	return fromDataFrame(df, LoadOptions{Target: target, Drop: drop})
}

func fromDataFrame(df dataframe.DataFrame, opts LoadOptions) (*Dataset, error) {
	names := df.Names()
	if !slices.Contains(names, opts.Target) {
		return nil, errors.NewDataError("ReadCSV", opts.Target, -1, "target column not found")
	}
	for _, d := range opts.Drop {
		if !slices.Contains(names, d) {
			return nil, errors.NewDataError("ReadCSV", d, -1, "dropped column not found")
		}
	}
	n := df.Nrow()
	if n == 0 {
		return nil, errors.NewModelError("ReadCSV", "no data rows", errors.ErrEmptyData)
	}

	var features []string
	for _, name := range names {
		if name != opts.Target && !slices.Contains(opts.Drop, name) {
			features = append(features, name)
		}
	}
	if len(features) == 0 {
		return nil, errors.NewDataError("ReadCSV", "", -1, "no feature columns")
	}

	X := mat.NewDense(n, len(features), nil)
	for j, name := range features {
		col, err := numericColumn(df.Col(name))
		if err != nil {
			return nil, err
		}
		X.SetCol(j, col)
	}

	y, classes, err := targetColumn(df.Col(opts.Target))
	if err != nil {
		return nil, err
	}

	index := make([]int, n)
	for i := range index {
		index[i] = i
	}
	return &Dataset{
		Features: features,
		Target:   opts.Target,
		X:        X,
		Y:        mat.NewVecDense(n, y),
		Index:    index,
		Classes:  classes,
	}, nil
}

// numericColumn returns the column as float64 with NaN for missing values.
func numericColumn(s series.Series) ([]float64, error) {
	switch s.Type() {
	case series.Float, series.Int, series.Bool:
		out := s.Float()
		for i, isNA := range s.IsNaN() {
			if isNA {
				out[i] = math.NaN()
			}
		}
		return out, nil
	default:
		missing := s.IsNaN()
		for i, rec := range s.Records() {
			if missing[i] {
				continue
			}
			if _, err := strconv.ParseFloat(strings.TrimSpace(rec), 64); err != nil {
				return nil, errors.NewDataError("ReadCSV", s.Name, i, "non-numeric value "+strconv.Quote(rec))
			}
		}
		out := make([]float64, s.Len())
		for i, rec := range s.Records() {
			if missing[i] {
				out[i] = math.NaN()
				continue
			}
			out[i], _ = strconv.ParseFloat(strings.TrimSpace(rec), 64)
		}
		return out, nil
	}
}

// targetColumn returns numeric targets as-is and label-encodes string ones.
func targetColumn(s series.Series) ([]float64, []string, error) {
	if s.Type() != series.String {
		y, err := numericColumn(s)
		return y, nil, err
	}
	if y, err := numericColumn(s); err == nil {
		return y, nil, nil
	}

	missing := s.IsNaN()
	records := s.Records()
	seen := make(map[string]struct{})
	for i, rec := range records {
		if !missing[i] {
			seen[rec] = struct{}{}
		}
	}
	classes := make([]string, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Strings(classes)
	code := make(map[string]float64, len(classes))
	for i, c := range classes {
		code[c] = float64(i)
	}

	y := make([]float64, len(records))
	for i, rec := range records {
		if missing[i] {
			y[i] = math.NaN()
			continue
		}
		y[i] = code[rec]
	}
	errors.Warn(errors.NewDataConversionWarning(s.Name, "string", "float64",
		"target label-encoded as "+strings.Join(classes, ",")))
	return y, classes, nil
}

func formatLabel(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
