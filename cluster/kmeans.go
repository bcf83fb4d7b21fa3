// Package cluster implements K-Means clustering with Lloyd's algorithm:
// full-batch assignment and centroid update, k-means++ or random
// initialization, and multiple restarts.
package cluster

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/mtaniguchi/statlearn/core/model"
	"github.com/mtaniguchi/statlearn/core/parallel"
	"github.com/mtaniguchi/statlearn/pkg/errors"
)

// KMeans partitions samples into nClusters groups by alternating nearest-
// center assignment and centroid updates until the assignments stop
// changing or the inertia improvement falls below tol.
type KMeans struct {
	model.BaseEstimator

	// Hyperparameters
	nClusters   int
	init        string // "k-means++" or "random"
	maxIter     int
	nInit       int     // restarts; best inertia wins
	tol         float64 // minimum inertia improvement per iteration
	randomState int64

	// Fitted parameters
	clusterCenters_ [][]float64
	labels_         []int
	inertia_        float64
	nIter_          int

	mu         sync.RWMutex
	rng        *rand.Rand
	nFeatures_ int
}

// KMeansOption is a functional option for KMeans.
type KMeansOption func(*KMeans)

// NewKMeans creates a KMeans model with default settings.
func NewKMeans(options ...KMeansOption) *KMeans {
	km := &KMeans{
		nClusters:   8,
		init:        "k-means++",
		maxIter:     300,
		nInit:       10,
		tol:         1e-4,
		randomState: -1,
	}
	for _, opt := range options {
		opt(km)
	}

	if km.randomState >= 0 {
		km.rng = rand.New(rand.NewSource(km.randomState))
	} else {
		km.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return km
}

// WithNClusters sets the number of clusters.
func WithNClusters(n int) KMeansOption {
	return func(km *KMeans) {
		km.nClusters = n
	}
}

// WithInit sets the initialization method, "k-means++" or "random".
func WithInit(init string) KMeansOption {
	return func(km *KMeans) {
		km.init = init
	}
}

// WithMaxIter sets the iteration cap per restart.
func WithMaxIter(maxIter int) KMeansOption {
	return func(km *KMeans) {
		km.maxIter = maxIter
	}
}

// WithNInit sets the number of restarts.
func WithNInit(nInit int) KMeansOption {
	return func(km *KMeans) {
		km.nInit = nInit
	}
}

// WithTol sets the minimum inertia improvement that counts as progress.
func WithTol(tol float64) KMeansOption {
	return func(km *KMeans) {
		km.tol = tol
	}
}

// WithRandomState sets the RNG seed.
func WithRandomState(seed int64) KMeansOption {
	return func(km *KMeans) {
		km.randomState = seed
		if seed >= 0 {
			km.rng = rand.New(rand.NewSource(seed))
		}
	}
}

// Fit runs Lloyd's algorithm nInit times and keeps the solution with the
// lowest inertia.
func (km *KMeans) Fit(X, y mat.Matrix) error {
	km.mu.Lock()
	defer km.mu.Unlock()

	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.Wrap(errors.ErrEmptyData, "KMeans.Fit")
	}
	if rows < km.nClusters {
		return errors.Newf("statlearn: KMeans.Fit: %d samples for %d clusters", rows, km.nClusters)
	}

	km.nFeatures_ = cols

	bestInertia := math.Inf(1)
	var bestCenters [][]float64
	var bestLabels []int
	var bestNIter int

	for run := 0; run < km.nInit; run++ {
		centers, labels, inertia, nIter := km.lloydRun(X)
		if inertia < bestInertia {
			bestInertia = inertia
			bestCenters = centers
			bestLabels = labels
			bestNIter = nIter
		}
	}

	km.clusterCenters_ = bestCenters
	km.labels_ = bestLabels
	km.inertia_ = bestInertia
	km.nIter_ = bestNIter

	km.SetFitted()
	return nil
}

// lloydRun is a single restart of Lloyd's algorithm.
func (km *KMeans) lloydRun(X mat.Matrix) ([][]float64, []int, float64, int) {
	rows, cols := X.Dims()

	centers := km.initializeCenters(X)
	labels := make([]int, rows)
	counts := make([]int, km.nClusters)

	prevInertia := math.Inf(1)
	var finalIter int

	for iter := 0; iter < km.maxIter; iter++ {
		finalIter = iter

		// Assignment step.
		inertia := km.assign(X, centers, labels)

		// Update step: recompute each centroid as the mean of its members.
		for c := range centers {
			counts[c] = 0
			for j := 0; j < cols; j++ {
				centers[c][j] = 0
			}
		}
		for i := 0; i < rows; i++ {
			c := labels[i]
			counts[c]++
			sample := mat.Row(nil, i, X)
			for j := 0; j < cols; j++ {
				centers[c][j] += sample[j]
			}
		}
		for c := range centers {
			if counts[c] == 0 {
				// Empty cluster: reseed from the point farthest from
				// its assigned center.
				idx := km.farthestPoint(X, centers, labels)
				sample := mat.Row(nil, idx, X)
				copy(centers[c], sample)
				labels[idx] = c
				continue
			}
			for j := 0; j < cols; j++ {
				centers[c][j] /= float64(counts[c])
			}
		}

		if prevInertia-inertia < km.tol {
			break
		}
		prevInertia = inertia
	}

	finalInertia := km.assign(X, centers, labels)
	return centers, labels, finalInertia, finalIter + 1
}

// assign writes each sample's nearest-center index into labels and returns
// the resulting inertia.
func (km *KMeans) assign(X mat.Matrix, centers [][]float64, labels []int) float64 {
	rows, _ := X.Dims()
	partial := make([]float64, rows)

	const parallelThreshold = 2048
	parallel.ParallelizeWithThreshold(rows, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			sample := mat.Row(nil, i, X)
			best, bestDist := 0, math.Inf(1)
			for c, center := range centers {
				d := euclideanDistance(sample, center)
				if d < bestDist {
					best, bestDist = c, d
				}
			}
			labels[i] = best
			partial[i] = bestDist * bestDist
		}
	})

	inertia := 0.0
	for _, v := range partial {
		inertia += v
	}
	return inertia
}

func (km *KMeans) farthestPoint(X mat.Matrix, centers [][]float64, labels []int) int {
	rows, _ := X.Dims()
	worst, worstDist := 0, -1.0
	for i := 0; i < rows; i++ {
		sample := mat.Row(nil, i, X)
		d := euclideanDistance(sample, centers[labels[i]])
		if d > worstDist {
			worst, worstDist = i, d
		}
	}
	return worst
}

// initializeCenters seeds the centroids with k-means++ or uniform sampling.
func (km *KMeans) initializeCenters(X mat.Matrix) [][]float64 {
	rows, cols := X.Dims()

	if km.init == "random" {
		centers := make([][]float64, km.nClusters)
		for i := range centers {
			centers[i] = make([]float64, cols)
			copy(centers[i], mat.Row(nil, km.rng.Intn(rows), X))
		}
		return centers
	}

	return km.initKMeansPlusPlus(X)
}

// initKMeansPlusPlus picks each next center with probability proportional
// to the squared distance from the nearest already-chosen center.
func (km *KMeans) initKMeansPlusPlus(X mat.Matrix) [][]float64 {
	rows, cols := X.Dims()
	centers := make([][]float64, km.nClusters)

	centers[0] = make([]float64, cols)
	copy(centers[0], mat.Row(nil, km.rng.Intn(rows), X))

	for c := 1; c < km.nClusters; c++ {
		distances := make([]float64, rows)
		totalDistance := 0.0

		for i := 0; i < rows; i++ {
			sample := mat.Row(nil, i, X)
			minDist := math.Inf(1)
			for j := 0; j < c; j++ {
				if d := euclideanDistance(sample, centers[j]); d < minDist {
					minDist = d
				}
			}
			distances[i] = minDist * minDist
			totalDistance += distances[i]
		}

		target := km.rng.Float64() * totalDistance
		cumSum := 0.0
		selectedIdx := 0
		for i := 0; i < rows; i++ {
			cumSum += distances[i]
			if cumSum >= target {
				selectedIdx = i
				break
			}
		}

		centers[c] = make([]float64, cols)
		copy(centers[c], mat.Row(nil, selectedIdx, X))
	}

	return centers
}

// Predict assigns each row of X to its nearest fitted center.
func (km *KMeans) Predict(X mat.Matrix) (mat.Matrix, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if !km.IsFitted() {
		return nil, errors.NewNotFittedError("KMeans", "Predict")
	}
	rows, cols := X.Dims()
	if cols != km.nFeatures_ {
		return nil, errors.NewDimensionError("KMeans.Predict", km.nFeatures_, cols, 1)
	}

	predictions := mat.NewDense(rows, 1, nil)
	for i := 0; i < rows; i++ {
		sample := mat.Row(nil, i, X)
		best, bestDist := 0, math.Inf(1)
		for c, center := range km.clusterCenters_ {
			if d := euclideanDistance(sample, center); d < bestDist {
				best, bestDist = c, d
			}
		}
		predictions.Set(i, 0, float64(best))
	}
	return predictions, nil
}

// Transform maps each row of X to its distances from the fitted centers.
func (km *KMeans) Transform(X mat.Matrix) (mat.Matrix, error) {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if !km.IsFitted() {
		return nil, errors.NewNotFittedError("KMeans", "Transform")
	}
	rows, cols := X.Dims()
	if cols != km.nFeatures_ {
		return nil, errors.NewDimensionError("KMeans.Transform", km.nFeatures_, cols, 1)
	}

	distances := mat.NewDense(rows, km.nClusters, nil)
	for i := 0; i < rows; i++ {
		sample := mat.Row(nil, i, X)
		for c := 0; c < km.nClusters; c++ {
			distances.Set(i, c, euclideanDistance(sample, km.clusterCenters_[c]))
		}
	}
	return distances, nil
}

// FitPredict fits the model and returns the training labels.
func (km *KMeans) FitPredict(X, y mat.Matrix) (mat.Matrix, error) {
	if err := km.Fit(X, y); err != nil {
		return nil, err
	}
	return km.Predict(X)
}

// ClusterCenters returns a copy of the fitted cluster centers.
func (km *KMeans) ClusterCenters() [][]float64 {
	km.mu.RLock()
	defer km.mu.RUnlock()

	centers := make([][]float64, len(km.clusterCenters_))
	for i := range km.clusterCenters_ {
		centers[i] = append([]float64(nil), km.clusterCenters_[i]...)
	}
	return centers
}

// Labels returns a copy of the training-sample cluster labels.
func (km *KMeans) Labels() []int {
	km.mu.RLock()
	defer km.mu.RUnlock()

	if km.labels_ == nil {
		return nil
	}
	return append([]int(nil), km.labels_...)
}

// Inertia returns the within-cluster sum of squared distances.
func (km *KMeans) Inertia() float64 {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.inertia_
}

// NIterations returns the iteration count of the winning restart.
func (km *KMeans) NIterations() int {
	km.mu.RLock()
	defer km.mu.RUnlock()
	return km.nIter_
}

// euclideanDistance computes the Euclidean distance between two vectors.
func euclideanDistance(a, b []float64) float64 {
	if len(a) != len(b) {
		return math.Inf(1)
	}
	sum := 0.0
	for i := range a {
		diff := a[i] - b[i]
		sum += diff * diff
	}
	return math.Sqrt(sum)
}
