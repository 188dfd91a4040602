// Package metrics は回帰・分類の評価指標と、交差検証で使うスコアラーを提供する。
package metrics

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/mlps/physlearn/core/model"
	"github.com/mlps/physlearn/pkg/errors"
)

// checkPair は nil・空・長さ不一致を検証する
func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "nil vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

// rawValues は VecDense の値をスライスとして取り出す（ストライド対応）
func rawValues(v *mat.VecDense) []float64 {
	out := make([]float64, v.Len())
	for i := range out {
		out[i] = v.AtVec(i)
	}
	return out
}

// residuals は yTrue - yPred を返す
func residuals(yTrue, yPred *mat.VecDense) []float64 {
	r := rawValues(yTrue)
	floats.Sub(r, rawValues(yPred))
	return r
}

// MSE は平均二乗誤差（Mean Squared Error）を計算する
func MSE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MSE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	r := residuals(yTrue, yPred)
	return floats.Dot(r, r) / float64(n), nil
}

// MSEMatrix は n×1 行列の入力に対してMSEを計算する
func MSEMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yt, yp, err := columnPair("MSEMatrix", yTrue, yPred, true)
	if err != nil {
		return 0, err
	}
	return MSE(yt, yp)
}

// columnPair は行列の入力を VecDense に変換する。strict の場合は 1 列以外をエラーにし、
// そうでなければ先頭列を使う
func columnPair(op string, yTrue, yPred mat.Matrix, strict bool) (*mat.VecDense, *mat.VecDense, error) {
	if yTrue == nil || yPred == nil {
		return nil, nil, errors.NewValueError(op, "nil matrix")
	}
	rTrue, cTrue := yTrue.Dims()
	rPred, cPred := yPred.Dims()
	if rTrue == 0 || cTrue == 0 || rPred == 0 || cPred == 0 {
		return nil, nil, errors.NewValueError(op, "empty matrix")
	}
	if rTrue != rPred {
		return nil, nil, errors.NewDimensionError(op, rTrue, rPred, 0)
	}
	if strict {
		yt, err := model.VecFromMatrix(op, yTrue)
		if err != nil {
			return nil, nil, err
		}
		yp, err := model.VecFromMatrix(op, yPred)
		if err != nil {
			return nil, nil, err
		}
		return yt, yp, nil
	}
	yt := mat.NewVecDense(rTrue, nil)
	yp := mat.NewVecDense(rPred, nil)
	for i := 0; i < rTrue; i++ {
		yt.SetVec(i, yTrue.At(i, 0))
		yp.SetVec(i, yPred.At(i, 0))
	}
	return yt, yp, nil
}

// RMSE は平方根平均二乗誤差（Root Mean Squared Error）を計算する
func RMSE(yTrue, yPred *mat.VecDense) (float64, error) {
	mse, err := MSE(yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(mse), nil
}

// MAE は平均絶対誤差（Mean Absolute Error）を計算する
func MAE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	return floats.Norm(residuals(yTrue, yPred), 1) / float64(n), nil
}

// R2Score は決定係数（R²）を計算する。yTrue が定数の場合はエラー
func R2Score(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("R2Score", yTrue, yPred); err != nil {
		return 0, err
	}
	yt := rawValues(yTrue)
	mean := stat.Mean(yt, nil)
	var tss float64
	for _, v := range yt {
		tss += (v - mean) * (v - mean)
	}
	if tss == 0 {
		return 0, errors.NewValueError("R2Score", "total sum of squares is zero (no variance in yTrue)")
	}
	r := residuals(yTrue, yPred)
	return 1 - floats.Dot(r, r)/tss, nil
}

// MAPE は平均絶対パーセンテージ誤差を計算する。yTrue が 0 の要素は除外する
func MAPE(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("MAPE", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	var sum float64
	valid := 0
	for i := 0; i < n; i++ {
		t := yTrue.AtVec(i)
		if t == 0 {
			continue
		}
		sum += math.Abs(t-yPred.AtVec(i)) / math.Abs(t)
		valid++
	}
	if valid == 0 {
		return 0, errors.NewValueError("MAPE", "all yTrue values are zero")
	}
	return sum / float64(valid) * 100, nil
}

// ExplainedVarianceScore は 1 - Var(yTrue - yPred) / Var(yTrue) を計算する
func ExplainedVarianceScore(yTrue, yPred *mat.VecDense) (float64, error) {
	if _, err := checkPair("ExplainedVarianceScore", yTrue, yPred); err != nil {
		return 0, err
	}
	varTrue := stat.PopVariance(rawValues(yTrue), nil)
	if varTrue == 0 {
		return 0, errors.NewValueError("ExplainedVarianceScore", "no variance in yTrue")
	}
	return 1 - stat.PopVariance(residuals(yTrue, yPred), nil)/varTrue, nil
}
