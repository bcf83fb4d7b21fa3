package cluster

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/mtaniguchi/statlearn/core/model"
	"github.com/mtaniguchi/statlearn/dataset"
)

var _ model.Clusterer = (*KMeans)(nil)

func TestKMeansTwoSeparatedBlobs(t *testing.T) {
	X, truth, err := dataset.Blobs([][]float64{{0, 0}, {10, 10}}, 50, 0.5, 1)
	if err != nil {
		t.Fatalf("Blobs() error = %v", err)
	}

	km := NewKMeans(
		WithNClusters(2),
		WithRandomState(1),
		WithNInit(5),
	)
	if err := km.Fit(X, nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	labels := km.Labels()
	if len(labels) != 100 {
		t.Fatalf("got %d labels, want 100", len(labels))
	}

	// Clusters are label-permutation invariant: every point from one blob
	// must share a label, and the two blobs must differ.
	for i := 1; i < 50; i++ {
		if labels[i] != labels[0] {
			t.Fatalf("blob 0 split across clusters at %d", i)
		}
		if labels[50+i] != labels[50] {
			t.Fatalf("blob 1 split across clusters at %d", 50+i)
		}
	}
	if labels[0] == labels[50] {
		t.Fatal("blobs merged into one cluster")
	}
	_ = truth

	// Centers sit near the blob centers.
	centers := km.ClusterCenters()
	near := func(c []float64, x, y float64) bool {
		return math.Hypot(c[0]-x, c[1]-y) < 1.0
	}
	if !(near(centers[0], 0, 0) && near(centers[1], 10, 10)) &&
		!(near(centers[0], 10, 10) && near(centers[1], 0, 0)) {
		t.Errorf("centers = %v, want near (0,0) and (10,10)", centers)
	}

	if km.Inertia() <= 0 {
		t.Errorf("inertia = %v, want > 0", km.Inertia())
	}
}

func TestKMeansPredictAndTransform(t *testing.T) {
	X := mat.NewDense(6, 2, []float64{
		0, 0, 0.1, 0, 0, 0.1,
		5, 5, 5.1, 5, 5, 5.1,
	})

	km := NewKMeans(WithNClusters(2), WithRandomState(7), WithNInit(3))
	if err := km.Fit(X, nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	pred, err := km.Predict(mat.NewDense(2, 2, []float64{0, 0, 5, 5}))
	if err != nil {
		t.Fatalf("Predict() error = %v", err)
	}
	if pred.At(0, 0) == pred.At(1, 0) {
		t.Error("distant queries assigned to the same cluster")
	}

	dists, err := km.Transform(mat.NewDense(1, 2, []float64{0, 0}))
	if err != nil {
		t.Fatalf("Transform() error = %v", err)
	}
	r, c := dists.Dims()
	if r != 1 || c != 2 {
		t.Fatalf("Transform dims = (%d, %d), want (1, 2)", r, c)
	}
	// One center is near, the other is about 5*sqrt(2) away.
	near := math.Min(dists.At(0, 0), dists.At(0, 1))
	far := math.Max(dists.At(0, 0), dists.At(0, 1))
	if near > 1 || far < 5 {
		t.Errorf("distances = (%v, %v)", near, far)
	}
}

func TestKMeansDeterministicWithSeed(t *testing.T) {
	X, _, err := dataset.Blobs([][]float64{{0, 0}, {4, 4}, {8, 0}}, 30, 0.6, 5)
	if err != nil {
		t.Fatalf("Blobs() error = %v", err)
	}

	run := func() float64 {
		km := NewKMeans(WithNClusters(3), WithRandomState(99), WithNInit(4))
		if err := km.Fit(X, nil); err != nil {
			t.Fatalf("Fit() error = %v", err)
		}
		return km.Inertia()
	}

	if a, b := run(), run(); a != b {
		t.Errorf("seeded runs differ: %v vs %v", a, b)
	}
}

func TestKMeansErrors(t *testing.T) {
	km := NewKMeans(WithNClusters(5), WithRandomState(1))

	// Fewer samples than clusters.
	X := mat.NewDense(3, 2, []float64{0, 0, 1, 1, 2, 2})
	if err := km.Fit(X, nil); err == nil {
		t.Error("Fit() with too few samples should fail")
	}

	// Unfitted model.
	if _, err := km.Predict(X); err == nil {
		t.Error("Predict() before Fit should fail")
	}

	// Dimension mismatch after fitting.
	km2 := NewKMeans(WithNClusters(2), WithRandomState(1))
	if err := km2.Fit(X, nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, err := km2.Predict(mat.NewDense(1, 3, []float64{0, 0, 0})); err == nil {
		t.Error("Predict() with wrong width should fail")
	}
}

func TestKMeansEmptyClusterReseed(t *testing.T) {
	// All rows identical: every random init duplicates the centers, so the
	// assignment step leaves cluster 1 empty and the update step must
	// reseed it instead of dividing by a zero count.
	same := mat.NewDense(4, 2, []float64{3, 3, 3, 3, 3, 3, 3, 3})

	km := NewKMeans(
		WithNClusters(2),
		WithInit("random"),
		WithRandomState(1),
		WithNInit(1),
	)
	if err := km.Fit(same, nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if km.Inertia() != 0 {
		t.Errorf("inertia = %v, want 0 for identical points", km.Inertia())
	}
	for i, l := range km.Labels() {
		if l < 0 || l >= 2 {
			t.Fatalf("labels[%d] = %d outside [0, 2)", i, l)
		}
	}

	// A point mass plus one outlier: restarts that duplicate the mass as
	// both centers empty out cluster 1, and the reseed must hand it the
	// farthest point. Either way the converged partition isolates the
	// outlier exactly.
	data := make([]float64, 0, 32)
	for i := 0; i < 15; i++ {
		data = append(data, 0, 0)
	}
	data = append(data, 10, 10)
	X := mat.NewDense(16, 2, data)

	km = NewKMeans(
		WithNClusters(2),
		WithInit("random"),
		WithRandomState(1),
		WithNInit(10),
	)
	if err := km.Fit(X, nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	labels := km.Labels()
	for i := 1; i < 15; i++ {
		if labels[i] != labels[0] {
			t.Fatalf("point mass split across clusters at %d", i)
		}
	}
	if labels[15] == labels[0] {
		t.Error("outlier merged into the point-mass cluster")
	}
	if km.Inertia() != 0 {
		t.Errorf("inertia = %v, want exactly 0", km.Inertia())
	}
}

func TestKMeansRandomInit(t *testing.T) {
	X, _, err := dataset.Blobs([][]float64{{0, 0}, {10, 10}}, 40, 0.5, 2)
	if err != nil {
		t.Fatalf("Blobs() error = %v", err)
	}

	km := NewKMeans(
		WithNClusters(2),
		WithInit("random"),
		WithRandomState(3),
		WithNInit(10),
		WithMaxIter(100),
		WithTol(1e-6),
	)
	if err := km.Fit(X, nil); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	labels := km.Labels()
	if labels[0] == labels[40] {
		t.Error("random init failed to separate distant blobs")
	}
	if km.NIterations() < 1 {
		t.Errorf("iterations = %d, want >= 1", km.NIterations())
	}
}
