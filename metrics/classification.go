// Package metrics provides the evaluation measures used across the
// library: classification accuracy, confusion matrices, log-loss, and the
// silhouette score for clusterings.
package metrics

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mtaniguchi/statlearn/pkg/errors"
)

// Accuracy returns the fraction of exactly matching labels.
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError("Accuracy", "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError("Accuracy", n, yPred.Len(), 0)
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ConfusionMatrix returns the labels present in either vector (ascending)
// and the count matrix indexed [true][pred].
func ConfusionMatrix(yTrue, yPred *mat.VecDense) ([]int, [][]int, error) {
	n := yTrue.Len()
	if n == 0 {
		return nil, nil, errors.NewValueError("ConfusionMatrix", "empty vector")
	}
	if yPred.Len() != n {
		return nil, nil, errors.NewDimensionError("ConfusionMatrix", n, yPred.Len(), 0)
	}

	classMap := make(map[int]bool)
	for i := 0; i < n; i++ {
		classMap[int(yTrue.AtVec(i))] = true
		classMap[int(yPred.AtVec(i))] = true
	}
	labels := make([]int, 0, len(classMap))
	for c := range classMap {
		labels = append(labels, c)
	}
	sort.Ints(labels)

	idx := make(map[int]int, len(labels))
	for i, c := range labels {
		idx[c] = i
	}

	cm := make([][]int, len(labels))
	for i := range cm {
		cm[i] = make([]int, len(labels))
	}
	for i := 0; i < n; i++ {
		cm[idx[int(yTrue.AtVec(i))]][idx[int(yPred.AtVec(i))]]++
	}
	return labels, cm, nil
}

// LogLoss returns the mean negative log-probability that probas assigns to
// the true labels. yTrue holds class indices into the columns of probas.
// Probabilities are clipped to [eps, 1-eps] with eps = 1e-15.
func LogLoss(yTrue *mat.VecDense, probas mat.Matrix) (float64, error) {
	n := yTrue.Len()
	rows, cols := probas.Dims()
	if n == 0 {
		return 0, errors.NewValueError("LogLoss", "empty vector")
	}
	if rows != n {
		return 0, errors.NewDimensionError("LogLoss", n, rows, 0)
	}

	const eps = 1e-15
	loss := 0.0
	for i := 0; i < n; i++ {
		c := int(yTrue.AtVec(i))
		if c < 0 || c >= cols {
			return 0, errors.Newf("statlearn: LogLoss: class index %d outside [0, %d)", c, cols)
		}
		p := probas.At(i, c)
		if p < eps {
			p = eps
		} else if p > 1-eps {
			p = 1 - eps
		}
		loss -= math.Log(p)
	}
	return loss / float64(n), nil
}
