package metrics

import (
	"math"
	"slices"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mlps/physlearn/pkg/errors"
)

// logLossEps は log(0) を避けるための確率のクリップ幅
const logLossEps = 1e-15

func checkBinaryLabels(op string, y *mat.VecDense) error {
	for i := 0; i < y.Len(); i++ {
		if v := y.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be 0 or 1")
		}
	}
	return nil
}

// Accuracy は正解率を計算する。多クラスラベルも扱える
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ClassificationError は誤分類率 (1 - 正解率) を計算する
func ClassificationError(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("ClassificationError", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	wrong := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) != yPred.AtVec(i) {
			wrong++
		}
	}
	return float64(wrong) / float64(n), nil
}

// BinaryLogLoss は二値交差エントロピーを計算する。yPred は陽性クラスの確率
func BinaryLogLoss(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}
	var loss float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yPred.AtVec(i), logLossEps, 1-logLossEps)
		if yTrue.AtVec(i) == 1 {
			loss -= math.Log(p)
		} else {
			loss -= math.Log(1 - p)
		}
	}
	return loss / float64(n), nil
}

// AUC は ROC 曲線下面積を Mann-Whitney の U 統計量として計算する。
// 同順位には平均順位を与える。片方のクラスしか無い場合は 0.5 を返し
// UndefinedMetricWarning を出す
func AUC(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yPred)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("AUC", yTrue); err != nil {
		return 0, err
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return yPred.AtVec(order[a]) < yPred.AtVec(order[b])
	})

	ranks := make([]float64, n)
	for i := 0; i < n; {
		j := i
		for j+1 < n && yPred.AtVec(order[j+1]) == yPred.AtVec(order[i]) {
			j++
		}
		avg := float64(i+j)/2 + 1
		for k := i; k <= j; k++ {
			ranks[order[k]] = avg
		}
		i = j + 1
	}

	var nPos, nNeg, rankSum float64
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			nPos++
			rankSum += ranks[i]
		} else {
			nNeg++
		}
	}
	if nPos == 0 || nNeg == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("roc_auc", "only one class present in yTrue", 0.5))
		return 0.5, nil
	}
	return (rankSum - nPos*(nPos+1)/2) / (nPos * nNeg), nil
}

// AUCMatrix は行列入力の先頭列に対して AUC を計算する
func AUCMatrix(yTrue, yPred mat.Matrix) (float64, error) {
	yt, yp, err := columnPair("AUCMatrix", yTrue, yPred, false)
	if err != nil {
		return 0, err
	}
	return AUC(yt, yp)
}

// ConfusionMatrix は混同行列を返す。行が真のラベル、列が予測ラベルで、
// labels は両者に現れたラベルの昇順
func ConfusionMatrix(yTrue, yPred *mat.VecDense) (*mat.Dense, []float64, error) {
	n, err := checkPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return nil, nil, err
	}
	seen := make(map[float64]struct{})
	for i := 0; i < n; i++ {
		seen[yTrue.AtVec(i)] = struct{}{}
		seen[yPred.AtVec(i)] = struct{}{}
	}
	labels := make([]float64, 0, len(seen))
	for l := range seen {
		labels = append(labels, l)
	}
	sort.Float64s(labels)
	index := make(map[float64]int, len(labels))
	for i, l := range labels {
		index[l] = i
	}
	cm := mat.NewDense(len(labels), len(labels), nil)
	for i := 0; i < n; i++ {
		r, c := index[yTrue.AtVec(i)], index[yPred.AtVec(i)]
		cm.Set(r, c, cm.At(r, c)+1)
	}
	return cm, labels, nil
}

// isBinary は全ラベルが {0,1} に含まれるかを返す
func isBinary(labels []float64) bool {
	for _, l := range labels {
		if l != 0 && l != 1 {
			return false
		}
	}
	return true
}

// perClass は混同行列からクラス毎の適合率・再現率を計算する。
// 分母が 0 のクラスは 0 とし、warn が真のクラスだけ UndefinedMetricWarning を出す
func perClass(metric string, cm *mat.Dense, warn func(c int) bool) (precision, recall []float64) {
	k, _ := cm.Dims()
	precision = make([]float64, k)
	recall = make([]float64, k)
	for c := 0; c < k; c++ {
		tp := cm.At(c, c)
		var predicted, actual float64
		for j := 0; j < k; j++ {
			predicted += cm.At(j, c)
			actual += cm.At(c, j)
		}
		if predicted > 0 {
			precision[c] = tp / predicted
		} else if warn(c) && (metric == "precision" || metric == "f1") {
			errors.Warn(errors.NewUndefinedMetricWarning(metric, "no predicted samples for a label", 0))
		}
		if actual > 0 {
			recall[c] = tp / actual
		} else if warn(c) && (metric == "recall" || metric == "f1") {
			errors.Warn(errors.NewUndefinedMetricWarning(metric, "no true samples for a label", 0))
		}
	}
	return precision, recall
}

func f1(p, r float64) float64 {
	if p+r == 0 {
		return 0
	}
	return 2 * p * r / (p + r)
}

// averaged は二値なら陽性ラベル 1 の値、多クラスならマクロ平均を返す
func averaged(op string, yTrue, yPred *mat.VecDense, pick func(p, r float64) float64) (float64, error) {
	cm, labels, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, op)
	}
	metric := map[string]string{"Precision": "precision", "Recall": "recall", "F1Score": "f1"}[op]
	if isBinary(labels) {
		pos := slices.Index(labels, 1)
		if pos < 0 {
			// 陽性ラベルが一度も現れない
			errors.Warn(errors.NewUndefinedMetricWarning(metric, "positive label 1 absent", 0))
			return 0, nil
		}
		precision, recall := perClass(metric, cm, func(c int) bool { return c == pos })
		return pick(precision[pos], recall[pos]), nil
	}
	precision, recall := perClass(metric, cm, func(int) bool { return true })
	var sum float64
	for i := range labels {
		sum += pick(precision[i], recall[i])
	}
	return sum / float64(len(labels)), nil
}

// Precision は適合率を計算する（二値: 陽性ラベル 1、多クラス: マクロ平均）
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	return averaged("Precision", yTrue, yPred, func(p, _ float64) float64 { return p })
}

// Recall は再現率を計算する（二値: 陽性ラベル 1、多クラス: マクロ平均）
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	return averaged("Recall", yTrue, yPred, func(_, r float64) float64 { return r })
}

// F1Score は F1 を計算する（二値: 陽性ラベル 1、多クラス: クラス毎 F1 のマクロ平均）
func F1Score(yTrue, yPred *mat.VecDense) (float64, error) {
	return averaged("F1Score", yTrue, yPred, f1)
}
