// Package model は physlearn の推定器が満たすインターフェースと、
// 学習状態の管理・係数のエクスポートといった共通部品を提供します。
package model

import "gonum.org/v1/gonum/mat"

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit は X (n×p) と y (n×1) でモデルを学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は n×1 の予測を返す
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Estimator は学習と予測の両方ができるモデル
type Estimator interface {
	Fitter
	Predictor
}

// Scorer はモデル固有のスコア（分類は正解率、回帰は R²）を計算する
type Scorer interface {
	Score(X, y mat.Matrix) (float64, error)
}

// Regressor は回帰モデル
type Regressor interface {
	Estimator
	Scorer
}

// Classifier は分類モデル
type Classifier interface {
	Estimator
	Scorer

	// PredictProba は n×K のクラス確率を返す。列の順序は Classes() と一致する
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes は学習時に見たクラスラベルを昇順で返す
	Classes() []float64
}

// DecisionFunctioner は確率を持たない分類器（SVC など）の判定値を返す
type DecisionFunctioner interface {
	DecisionFunction(X mat.Matrix) (mat.Matrix, error)
}

// WeightedFitter はサンプル重み付きで学習できるモデル。AdaBoost が使う
type WeightedFitter interface {
	FitWeighted(X, y mat.Matrix, sampleWeight []float64) error
}

// ParamGetter はハイパーパラメータを返す
type ParamGetter interface {
	GetParams() map[string]interface{}
}

// ParamSetter はハイパーパラメータを設定する
type ParamSetter interface {
	SetParams(params map[string]interface{}) error
}

// Cloner は同じハイパーパラメータを持つ未学習のコピーを返す。
// 交差検証では fold ごとに Clone したモデルを学習させる
type Cloner interface {
	Clone() Estimator
}

// Model は交差検証やグリッドサーチに渡せるモデル
type Model interface {
	Estimator
	Cloner
	ParamGetter
	ParamSetter
}

// StagedPredictor はブースティングの各段階での予測を順に返す
type StagedPredictor interface {
	// NStages は学習済みの段階数
	NStages() int

	// StagedPredict は段階 1..NStages() の予測 (n×1) を順に fn に渡す。
	// yPred は呼び出し後に再利用されるため保持する場合はコピーすること
	StagedPredict(X mat.Matrix, fn func(stage int, yPred mat.Matrix) error) error
}

// FeatureImportancer は正規化済みの特徴量重要度を返す
type FeatureImportancer interface {
	FeatureImportances() ([]float64, error)
}

// LinearModel は線形モデルのインターフェース
type LinearModel interface {
	// Coef は学習された係数を返す
	Coef() []float64
	// Intercept は学習された切片を返す
	Intercept() float64
}

// Transformer learns a feature mapping on training rows and applies it to
// any rows with the same columns.
type Transformer interface {
	Fit(X mat.Matrix) error
	Transform(X mat.Matrix) (mat.Matrix, error)
	FitTransform(X mat.Matrix) (mat.Matrix, error)
}

// InverseTransformer maps transformed rows back to the original units.
type InverseTransformer interface {
	Transformer
	InverseTransform(X mat.Matrix) (mat.Matrix, error)
}
