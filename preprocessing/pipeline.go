package preprocessing

import (
	"fmt"
	"maps"
	"strings"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
)

// ScalerParamPrefix marks Pipeline parameters that belong to the scaler.
const ScalerParamPrefix = "scaler__"

// Pipeline はスケーラーと推定器をひとつのモデルにまとめる。
// Fit ではスケーラーを学習データだけで学習するため、交差検証の各 fold で
// テスト側の統計量が漏れない
type Pipeline struct {
	Scaler    Scaler
	Estimator model.Model
}

// NewPipeline は scaler → estimator のパイプラインを作成する
func NewPipeline(scaler Scaler, estimator model.Model) *Pipeline {
	return &Pipeline{Scaler: scaler, Estimator: estimator}
}

// Fit はスケーラーを学習・変換してから推定器を学習する
func (p *Pipeline) Fit(X, y mat.Matrix) error {
	Xt, err := p.Scaler.FitTransform(X)
	if err != nil {
		return errors.Wrap(err, "pipeline: scale")
	}
	return p.Estimator.Fit(Xt, y)
}

func (p *Pipeline) transform(X mat.Matrix) (mat.Matrix, error) {
	Xt, err := p.Scaler.Transform(X)
	if err != nil {
		return nil, errors.Wrap(err, "pipeline: scale")
	}
	return Xt, nil
}

// Predict はスケーリング後のデータで予測する
func (p *Pipeline) Predict(X mat.Matrix) (mat.Matrix, error) {
	Xt, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	return p.Estimator.Predict(Xt)
}

// Score は推定器自身のスコア（分類は正解率、回帰は R²）を返す
func (p *Pipeline) Score(X, y mat.Matrix) (float64, error) {
	sc, ok := p.Estimator.(model.Scorer)
	if !ok {
		return 0, errors.Wrapf(errors.ErrNotImplemented, "%T.Score", p.Estimator)
	}
	Xt, err := p.transform(X)
	if err != nil {
		return 0, err
	}
	return sc.Score(Xt, y)
}

// PredictProba は推定器が分類器のときだけ使える
func (p *Pipeline) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	clf, ok := p.Estimator.(model.Classifier)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotImplemented, "%T.PredictProba", p.Estimator)
	}
	Xt, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	return clf.PredictProba(Xt)
}

// Classes は推定器が分類器でなければ nil を返す
func (p *Pipeline) Classes() []float64 {
	if clf, ok := p.Estimator.(model.Classifier); ok {
		return clf.Classes()
	}
	return nil
}

// DecisionFunction は推定器が判定値を持つときだけ使える
func (p *Pipeline) DecisionFunction(X mat.Matrix) (mat.Matrix, error) {
	df, ok := p.Estimator.(model.DecisionFunctioner)
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotImplemented, "%T.DecisionFunction", p.Estimator)
	}
	Xt, err := p.transform(X)
	if err != nil {
		return nil, err
	}
	return df.DecisionFunction(Xt)
}

// GetParams は推定器のパラメータと、接頭辞付きのスケーラーパラメータを返す
func (p *Pipeline) GetParams() map[string]interface{} {
	params := maps.Clone(p.Estimator.GetParams())
	for k, v := range p.Scaler.GetParams() {
		params[ScalerParamPrefix+k] = v
	}
	return params
}

// SetParams は "scaler__" 付きのキーをスケーラーへ、それ以外を推定器へ渡す
func (p *Pipeline) SetParams(params map[string]interface{}) error {
	scalerParams := make(map[string]interface{})
	estParams := make(map[string]interface{})
	for k, v := range params {
		if name, ok := strings.CutPrefix(k, ScalerParamPrefix); ok {
			scalerParams[name] = v
		} else {
			estParams[k] = v
		}
	}
	if len(scalerParams) > 0 {
		if err := p.Scaler.SetParams(scalerParams); err != nil {
			return err
		}
	}
	if len(estParams) > 0 {
		return p.Estimator.SetParams(estParams)
	}
	return nil
}

// Clone は未学習のパイプラインを返す
func (p *Pipeline) Clone() model.Estimator {
	return &Pipeline{Scaler: p.Scaler.CloneScaler(), Estimator: p.Estimator.Clone().(model.Model)}
}

// String は "scaler → estimator" 形式の表現を返す
func (p *Pipeline) String() string {
	return fmt.Sprintf("Pipeline(%v → %T)", p.Scaler, p.Estimator)
}
