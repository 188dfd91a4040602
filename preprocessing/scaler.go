// Package preprocessing は特徴量のスケーリングと、スケーラーと推定器を
// ひとつのモデルとして扱う Pipeline を提供します。
package preprocessing

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
)

// Scaler は Pipeline に組み込めるスケーラー
type Scaler interface {
	model.InverseTransformer
	model.ParamGetter
	model.ParamSetter

	// CloneScaler は同じ設定を持つ未学習のスケーラーを返す
	CloneScaler() Scaler
}

// StandardScaler はデータを平均0、標準偏差1に変換する
type StandardScaler struct {
	state *model.StateManager

	// Mean は各特徴量の平均値
	Mean []float64

	// Scale は各特徴量の標準偏差（母標準偏差）
	Scale []float64

	// WithMean は平均を引くかどうか (デフォルト: true)
	WithMean bool

	// WithStd は標準偏差で割るかどうか (デフォルト: true)
	WithStd bool
}

// NewStandardScaler は新しいStandardScalerを作成する
//
//	scaler := preprocessing.NewStandardScaler(true, true)
//	XScaled, err := scaler.FitTransform(X)
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		state:    model.NewStateManager(),
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// NewStandardScalerDefault はデフォルト設定でStandardScalerを作成する
func NewStandardScalerDefault() *StandardScaler {
	return NewStandardScaler(true, true)
}

// IsFitted は学習済みかどうかを返す
func (s *StandardScaler) IsFitted() bool { return s.state.IsFitted() }

// Fit は訓練データから平均と標準偏差を計算する
func (s *StandardScaler) Fit(X mat.Matrix) error {
	r, c, err := model.ValidateX("StandardScaler.Fit", X)
	if err != nil {
		return err
	}
	if err := errors.CheckMatrix("StandardScaler.Fit", X, 0); err != nil {
		return err
	}

	s.Mean = make([]float64, c)
	s.Scale = make([]float64, c)
	for j := 0; j < c; j++ {
		mean, std := stat.PopMeanStdDev(model.Column(X, j), nil)
		if s.WithMean {
			s.Mean[j] = mean
		}
		s.Scale[j] = 1.0
		// 定数列はそのまま残す
		if s.WithStd && std > 1e-8 {
			s.Scale[j] = std
		}
	}

	s.state.SetDimensions(c, r)
	s.state.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータを標準化する
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	return s.apply("Transform", X, func(v float64, j int) float64 {
		return (v - s.Mean[j]) / s.Scale[j]
	})
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform は標準化されたデータを元のスケールに戻す
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	return s.apply("InverseTransform", X, func(v float64, j int) float64 {
		return v*s.Scale[j] + s.Mean[j]
	})
}

func (s *StandardScaler) apply(method string, X mat.Matrix, f func(v float64, j int) float64) (mat.Matrix, error) {
	if err := s.state.RequireFitted("StandardScaler", method); err != nil {
		return nil, err
	}
	if _, _, err := model.ValidateX("StandardScaler."+method, X); err != nil {
		return nil, err
	}
	if err := s.state.CheckFeatures("StandardScaler."+method, X); err != nil {
		return nil, err
	}
	return mapElements(X, f), nil
}

// GetParams はスケーラーのパラメータを取得する
func (s *StandardScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"with_mean": s.WithMean,
		"with_std":  s.WithStd,
	}
}

// SetParams はスケーラーのパラメータを設定する。学習状態はリセットされる
func (s *StandardScaler) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		b, ok := v.(bool)
		if !ok {
			return errors.NewValidationError(k, "must be a bool", v)
		}
		switch k {
		case "with_mean":
			s.WithMean = b
		case "with_std":
			s.WithStd = b
		default:
			return errors.NewValidationError(k, "unknown StandardScaler parameter", v)
		}
	}
	s.state.Reset()
	return nil
}

// CloneScaler は未学習のコピーを返す
func (s *StandardScaler) CloneScaler() Scaler {
	return NewStandardScaler(s.WithMean, s.WithStd)
}

// String はスケーラーの文字列表現を返す
func (s *StandardScaler) String() string {
	if !s.IsFitted() {
		return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t)", s.WithMean, s.WithStd)
	}
	nFeatures, _ := s.state.GetDimensions()
	return fmt.Sprintf("StandardScaler(with_mean=%t, with_std=%t, n_features=%d)",
		s.WithMean, s.WithStd, nFeatures)
}

// MinMaxScaler はデータを指定した範囲（デフォルト[0,1]）にスケーリングする
type MinMaxScaler struct {
	state *model.StateManager

	// DataMin は学習データの最小値
	DataMin []float64

	// DataMax は学習データの最大値
	DataMax []float64

	// Scale は各特徴量の幅 (max - min)。定数列では 1
	Scale []float64

	// FeatureRange はスケーリング後の範囲 [min, max]
	FeatureRange [2]float64
}

// NewMinMaxScaler は新しいMinMaxScalerを作成する
//
//	scaler := preprocessing.NewMinMaxScaler([2]float64{0.0, 1.0})
//	XScaled, err := scaler.FitTransform(X)
func NewMinMaxScaler(featureRange [2]float64) *MinMaxScaler {
	return &MinMaxScaler{
		state:        model.NewStateManager(),
		FeatureRange: featureRange,
	}
}

// NewMinMaxScalerDefault はデフォルト設定([0,1]範囲)でMinMaxScalerを作成する
func NewMinMaxScalerDefault() *MinMaxScaler {
	return NewMinMaxScaler([2]float64{0.0, 1.0})
}

// IsFitted は学習済みかどうかを返す
func (m *MinMaxScaler) IsFitted() bool { return m.state.IsFitted() }

// Fit は訓練データから最小値・最大値を計算する
func (m *MinMaxScaler) Fit(X mat.Matrix) error {
	if m.FeatureRange[1] <= m.FeatureRange[0] {
		return errors.NewValidationError("feature_range", "min must be below max", m.FeatureRange)
	}
	r, c, err := model.ValidateX("MinMaxScaler.Fit", X)
	if err != nil {
		return err
	}
	if err := errors.CheckMatrix("MinMaxScaler.Fit", X, 0); err != nil {
		return err
	}

	m.DataMin = make([]float64, c)
	m.DataMax = make([]float64, c)
	m.Scale = make([]float64, c)
	for j := 0; j < c; j++ {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range model.Column(X, j) {
			lo = math.Min(lo, v)
			hi = math.Max(hi, v)
		}
		m.DataMin[j] = lo
		m.DataMax[j] = hi
		m.Scale[j] = 1.0
		if hi-lo > 1e-8 {
			m.Scale[j] = hi - lo
		}
	}

	m.state.SetDimensions(c, r)
	m.state.SetFitted()
	return nil
}

// Transform は学習済みの統計情報を使ってデータをスケーリングする
func (m *MinMaxScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	width := m.FeatureRange[1] - m.FeatureRange[0]
	return m.apply("Transform", X, func(v float64, j int) float64 {
		return (v-m.DataMin[j])/m.Scale[j]*width + m.FeatureRange[0]
	})
}

// FitTransform は訓練データで学習し、同じデータを変換する
func (m *MinMaxScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := m.Fit(X); err != nil {
		return nil, err
	}
	return m.Transform(X)
}

// InverseTransform はスケーリングされたデータを元の範囲に戻す
func (m *MinMaxScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	width := m.FeatureRange[1] - m.FeatureRange[0]
	return m.apply("InverseTransform", X, func(v float64, j int) float64 {
		return (v-m.FeatureRange[0])/width*m.Scale[j] + m.DataMin[j]
	})
}

func (m *MinMaxScaler) apply(method string, X mat.Matrix, f func(v float64, j int) float64) (mat.Matrix, error) {
	if err := m.state.RequireFitted("MinMaxScaler", method); err != nil {
		return nil, err
	}
	if _, _, err := model.ValidateX("MinMaxScaler."+method, X); err != nil {
		return nil, err
	}
	if err := m.state.CheckFeatures("MinMaxScaler."+method, X); err != nil {
		return nil, err
	}
	return mapElements(X, f), nil
}

// GetParams はスケーラーのパラメータを取得する
func (m *MinMaxScaler) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"feature_range": m.FeatureRange,
	}
}

// SetParams はスケーラーのパラメータを設定する
func (m *MinMaxScaler) SetParams(params map[string]interface{}) error {
	for k, v := range params {
		if k != "feature_range" {
			return errors.NewValidationError(k, "unknown MinMaxScaler parameter", v)
		}
		switch r := v.(type) {
		case [2]float64:
			m.FeatureRange = r
		case []float64:
			if len(r) != 2 {
				return errors.NewValidationError(k, "must have two elements", v)
			}
			m.FeatureRange = [2]float64{r[0], r[1]}
		default:
			return errors.NewValidationError(k, "must be [min, max]", v)
		}
	}
	m.state.Reset()
	return nil
}

// CloneScaler は未学習のコピーを返す
func (m *MinMaxScaler) CloneScaler() Scaler {
	return NewMinMaxScaler(m.FeatureRange)
}

// String はスケーラーの文字列表現を返す
func (m *MinMaxScaler) String() string {
	if !m.IsFitted() {
		return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f])",
			m.FeatureRange[0], m.FeatureRange[1])
	}
	nFeatures, _ := m.state.GetDimensions()
	return fmt.Sprintf("MinMaxScaler(feature_range=[%.1f, %.1f], n_features=%d)",
		m.FeatureRange[0], m.FeatureRange[1], nFeatures)
}

func mapElements(X mat.Matrix, f func(v float64, j int) float64) *mat.Dense {
	r, c := X.Dims()
	out := mat.NewDense(r, c, nil)
	out.Apply(func(i, j int, _ float64) float64 {
		return f(X.At(i, j), j)
	}, out)
	return out
}
