// Package neighbors implements a K-Nearest-Neighbors classifier: Euclidean
// distances to the stored training set, the k closest points, and a
// majority vote with optional inverse-distance weighting.
package neighbors

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/mtaniguchi/statlearn/core/model"
	"github.com/mtaniguchi/statlearn/pkg/errors"
)

// KNNClassifier classifies each query point by a vote among its k nearest
// training samples. Ties between classes go to the lowest class label.
type KNNClassifier struct {
	model.BaseEstimator

	// Hyperparameters
	nNeighbors int
	weights    string // "uniform" or "distance"

	// Fitted parameters
	x_         *mat.Dense
	y_         []int
	classes_   []int
	nFeatures_ int
}

// KNNOption is a functional option for KNNClassifier.
type KNNOption func(*KNNClassifier)

// NewKNNClassifier creates a KNNClassifier with default settings.
func NewKNNClassifier(opts ...KNNOption) *KNNClassifier {
	knn := &KNNClassifier{
		nNeighbors: 5,
		weights:    "uniform",
	}
	for _, opt := range opts {
		opt(knn)
	}
	return knn
}

// WithNNeighbors sets k.
func WithNNeighbors(k int) KNNOption {
	return func(knn *KNNClassifier) {
		knn.nNeighbors = k
	}
}

// WithWeights sets the vote weighting, "uniform" or "distance".
func WithWeights(weights string) KNNOption {
	return func(knn *KNNClassifier) {
		knn.weights = weights
	}
}

// Fit stores the training data and extracts the class labels.
func (knn *KNNClassifier) Fit(X, y mat.Matrix) error {
	rows, cols := X.Dims()
	yr, yc := y.Dims()

	if rows == 0 || cols == 0 {
		return errors.Wrap(errors.ErrEmptyData, "KNNClassifier.Fit")
	}
	if yr != rows {
		return errors.NewDimensionError("KNNClassifier.Fit", rows, yr, 0)
	}
	if yc != 1 {
		return errors.NewValueError("KNNClassifier.Fit", "y must be a column vector")
	}
	if knn.nNeighbors < 1 {
		return errors.NewValidationError("n_neighbors", "must be at least 1", knn.nNeighbors)
	}
	if knn.nNeighbors > rows {
		return errors.NewValidationError("n_neighbors", "cannot exceed the number of training samples", knn.nNeighbors)
	}
	if knn.weights != "uniform" && knn.weights != "distance" {
		return errors.NewValidationError("weights", "must be 'uniform' or 'distance'", knn.weights)
	}

	knn.x_ = mat.DenseCopyOf(X)
	knn.y_ = make([]int, rows)
	classMap := make(map[int]bool)
	for i := 0; i < rows; i++ {
		label := int(y.At(i, 0))
		knn.y_[i] = label
		classMap[label] = true
	}

	knn.classes_ = make([]int, 0, len(classMap))
	for class := range classMap {
		knn.classes_ = append(knn.classes_, class)
	}
	sort.Ints(knn.classes_)

	knn.nFeatures_ = cols
	knn.SetFitted()
	return nil
}

// Kneighbors returns, for each row of X, the distances to and indices of
// its k nearest training samples, nearest first.
func (knn *KNNClassifier) Kneighbors(X mat.Matrix) (*mat.Dense, [][]int, error) {
	if !knn.IsFitted() {
		return nil, nil, errors.NewNotFittedError("KNNClassifier", "Kneighbors")
	}
	rows, cols := X.Dims()
	if cols != knn.nFeatures_ {
		return nil, nil, errors.NewDimensionError("KNNClassifier.Kneighbors", knn.nFeatures_, cols, 1)
	}

	nTrain, _ := knn.x_.Dims()
	dists := mat.NewDense(rows, knn.nNeighbors, nil)
	indices := make([][]int, rows)

	for i := 0; i < rows; i++ {
		sample := mat.Row(nil, i, X)

		order := make([]int, nTrain)
		all := make([]float64, nTrain)
		for j := 0; j < nTrain; j++ {
			order[j] = j
			all[j] = euclideanDistance(sample, knn.x_.RawRowView(j))
		}
		// Stable tie-break on training index.
		sort.SliceStable(order, func(a, b int) bool {
			return all[order[a]] < all[order[b]]
		})

		indices[i] = order[:knn.nNeighbors]
		for j := 0; j < knn.nNeighbors; j++ {
			dists.Set(i, j, all[order[j]])
		}
	}

	return dists, indices, nil
}

// Predict returns the majority-vote class of each row of X.
func (knn *KNNClassifier) Predict(X mat.Matrix) (mat.Matrix, error) {
	probas, err := knn.PredictProba(X)
	if err != nil {
		return nil, err
	}

	rows, _ := probas.Dims()
	predictions := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		best, bestP := 0, probas.At(i, 0)
		for c := 1; c < len(knn.classes_); c++ {
			// Strict inequality keeps the lowest label on ties.
			if p := probas.At(i, c); p > bestP {
				best, bestP = c, p
			}
		}
		predictions.Set(i, 0, float64(knn.classes_[best]))
	}
	return predictions, nil
}

// PredictProba returns the vote shares over classes for each row of X.
func (knn *KNNClassifier) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	dists, indices, err := knn.Kneighbors(X)
	if err != nil {
		return nil, err
	}

	rows, _ := X.Dims()
	classIdx := make(map[int]int, len(knn.classes_))
	for i, c := range knn.classes_ {
		classIdx[c] = i
	}

	probas := mat.NewDense(rows, len(knn.classes_), nil)
	for i := 0; i < rows; i++ {
		total := 0.0
		for j, trainIdx := range indices[i] {
			w := 1.0
			if knn.weights == "distance" {
				d := dists.At(i, j)
				if d == 0 {
					// Exact hit dominates the vote.
					w = math.Inf(1)
				} else {
					w = 1 / d
				}
			}
			c := classIdx[knn.y_[trainIdx]]
			if math.IsInf(w, 1) {
				for cc := 0; cc < len(knn.classes_); cc++ {
					probas.Set(i, cc, 0)
				}
				probas.Set(i, c, 1)
				total = 1
				break
			}
			probas.Set(i, c, probas.At(i, c)+w)
			total += w
		}
		if total > 0 && total != 1 {
			for c := 0; c < len(knn.classes_); c++ {
				probas.Set(i, c, probas.At(i, c)/total)
			}
		}
	}

	return probas, nil
}

// Score returns the mean accuracy of Predict on X against y.
func (knn *KNNClassifier) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := knn.Predict(X)
	if err != nil {
		return 0, err
	}

	rows, _ := X.Dims()
	yr, _ := y.Dims()
	if yr != rows {
		return 0, errors.NewDimensionError("KNNClassifier.Score", rows, yr, 0)
	}

	correct := 0
	for i := 0; i < rows; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(rows), nil
}

// Classes returns the class labels seen during fitting.
func (knn *KNNClassifier) Classes() []int {
	return append([]int(nil), knn.classes_...)
}

// euclideanDistance computes the Euclidean distance between two vectors.
func euclideanDistance(a, b []float64) float64 {
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
