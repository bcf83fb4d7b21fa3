package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mtaniguchi/statlearn/core/parallel"
	"github.com/mtaniguchi/statlearn/pkg/errors"
)

// SilhouetteSamples returns the silhouette coefficient of each sample:
// (b-a)/max(a,b), where a is the mean distance to the sample's own cluster
// and b the mean distance to the nearest other cluster. Samples in
// singleton clusters score 0.
func SilhouetteSamples(X mat.Matrix, labels []int) ([]float64, error) {
	n, _ := X.Dims()
	if n == 0 {
		return nil, errors.NewValueError("SilhouetteSamples", "empty matrix")
	}
	if len(labels) != n {
		return nil, errors.NewDimensionError("SilhouetteSamples", n, len(labels), 0)
	}

	nClusters := 0
	for _, l := range labels {
		if l < 0 {
			return nil, errors.NewValueError("SilhouetteSamples", "negative cluster label")
		}
		if l+1 > nClusters {
			nClusters = l + 1
		}
	}
	if nClusters < 2 {
		return nil, errors.NewValueError("SilhouetteSamples", "need at least 2 clusters")
	}

	counts := make([]int, nClusters)
	for _, l := range labels {
		counts[l]++
	}

	scores := make([]float64, n)

	const parallelThreshold = 512
	parallel.ParallelizeWithThreshold(n, parallelThreshold, func(start, end int) {
		sums := make([]float64, nClusters)
		for i := start; i < end; i++ {
			own := labels[i]
			if counts[own] < 2 {
				scores[i] = 0
				continue
			}

			for c := range sums {
				sums[c] = 0
			}
			xi := mat.Row(nil, i, X)
			for j := 0; j < n; j++ {
				if j == i {
					continue
				}
				xj := mat.Row(nil, j, X)
				d := 0.0
				for k := range xi {
					diff := xi[k] - xj[k]
					d += diff * diff
				}
				sums[labels[j]] += math.Sqrt(d)
			}

			a := sums[own] / float64(counts[own]-1)
			b := math.Inf(1)
			for c := 0; c < nClusters; c++ {
				if c == own || counts[c] == 0 {
					continue
				}
				if m := sums[c] / float64(counts[c]); m < b {
					b = m
				}
			}

			scores[i] = (b - a) / math.Max(a, b)
		}
	})

	return scores, nil
}

// Silhouette returns the mean silhouette coefficient of the clustering.
func Silhouette(X mat.Matrix, labels []int) (float64, error) {
	scores, err := SilhouetteSamples(X, labels)
	if err != nil {
		return 0, err
	}
	sum := 0.0
	for _, s := range scores {
		sum += s
	}
	return sum / float64(len(scores)), nil
}

// Partitioner is the interface EstimateK needs from a clustering algorithm.
type Partitioner interface {
	Fit(X, y mat.Matrix) error
	Labels() []int
}

// KScore pairs a candidate k with its silhouette score.
type KScore struct {
	K     int
	Score float64
}

// EstimateK evaluates the silhouette score for k = 2..kmax using the
// clusterer built by newPartitioner and returns all scores plus the best k.
func EstimateK(X mat.Matrix, kmax int, newPartitioner func(k int) Partitioner) ([]KScore, int, error) {
	if kmax < 2 {
		return nil, 0, errors.NewValidationError("kmax", "must be at least 2", kmax)
	}

	scores := make([]KScore, 0, kmax-1)
	bestK, bestScore := -1, math.Inf(-1)

	for k := 2; k <= kmax; k++ {
		p := newPartitioner(k)
		if err := p.Fit(X, nil); err != nil {
			return nil, 0, errors.Wrapf(err, "EstimateK: k=%d", k)
		}
		s, err := Silhouette(X, p.Labels())
		if err != nil {
			return nil, 0, errors.Wrapf(err, "EstimateK: k=%d", k)
		}
		scores = append(scores, KScore{K: k, Score: s})
		if s > bestScore {
			bestK, bestScore = k, s
		}
	}

	return scores, bestK, nil
}
