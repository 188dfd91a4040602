package dataset

import (
	"io"
	"math"
	"os"
	"path/filepath"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
)

// IndexColumn names the source-row column written by DataFrame.
const IndexColumn = "source_row"

// DataFrame returns the rows as a gota DataFrame: the source row index,
// the features in order, then the target. Values are kept as shortest
// round-trip text with NaN as "NA"; a label-encoded target is written
// back as its class names.
func (d *Dataset) DataFrame() dataframe.DataFrame {
	cols := make([]series.Series, 0, d.NFeatures()+2)
	cols = append(cols, series.New(d.Index, series.Int, IndexColumn))
	for j, name := range d.Features {
		cols = append(cols, series.New(records(model.Column(d.X, j)), series.String, name))
	}
	if len(d.Classes) > 0 {
		labels := make([]string, d.NRows())
		for i, v := range d.Targets() {
			labels[i] = d.ClassName(v)
		}
		cols = append(cols, series.New(labels, series.String, d.Target))
	} else {
		cols = append(cols, series.New(records(d.Targets()), series.String, d.Target))
	}
	return dataframe.New(cols...)
}

// WriteCSV writes DataFrame() as CSV with a header row.
func (d *Dataset) WriteCSV(w io.Writer) error {
	df := d.DataFrame()
	if df.Err != nil {
		return errors.Wrap(df.Err, "build data frame")
	}
	if err := df.WriteCSV(w); err != nil {
		return errors.Wrap(err, "write csv")
	}
	return nil
}

// SaveCSV writes the dataset to path, creating the parent directory.
func (d *Dataset) SaveCSV(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "create %s", filepath.Dir(path))
	}
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create %s", path)
	}
	if err := d.WriteCSV(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func records(col []float64) []string {
	out := make([]string, len(col))
	for i, v := range col {
		if math.IsNaN(v) {
			out[i] = "NA"
			continue
		}
		out[i] = formatLabel(v)
	}
	return out
}
