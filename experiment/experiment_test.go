package experiment

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"
)

func TestDiffInMeansHandComputed(t *testing.T) {
	// Equal variances of 1 in both arms, means 4 and 2:
	// se = sqrt(1/3 + 1/3), t = 2/se, Welch df = 4.
	treated := []float64{3, 4, 5}
	control := []float64{1, 2, 3}

	eff, err := DiffInMeans(treated, control)
	if err != nil {
		t.Fatalf("DiffInMeans() error = %v", err)
	}

	if math.Abs(eff.Estimate-2) > 1e-12 {
		t.Errorf("estimate = %v, want 2", eff.Estimate)
	}
	wantSE := math.Sqrt(2.0 / 3.0)
	if math.Abs(eff.StdErr-wantSE) > 1e-12 {
		t.Errorf("se = %v, want %v", eff.StdErr, wantSE)
	}
	if math.Abs(eff.DF-4) > 1e-9 {
		t.Errorf("df = %v, want 4", eff.DF)
	}
	// t = 2.449..., p (two-sided, t_4) is about 0.0705.
	if eff.PValue < 0.06 || eff.PValue > 0.08 {
		t.Errorf("p-value = %v, want about 0.07", eff.PValue)
	}
	if eff.NTreated != 3 || eff.NControl != 3 {
		t.Errorf("arm sizes = (%d, %d), want (3, 3)", eff.NTreated, eff.NControl)
	}
}

func TestDiffInMeansErrors(t *testing.T) {
	tests := []struct {
		name             string
		treated, control []float64
	}{
		{"treated too small", []float64{1}, []float64{1, 2}},
		{"control too small", []float64{1, 2}, []float64{}},
		{"both arms degenerate", []float64{2, 2}, []float64{2, 2}},
		{"treated arm degenerate", []float64{5, 5, 5}, []float64{1, 2, 3}},
		{"control arm degenerate", []float64{1, 2, 3}, []float64{5, 5, 5}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := DiffInMeans(tt.treated, tt.control); err == nil {
				t.Error("DiffInMeans() should fail")
			}
		})
	}
}

func TestTwoProportions(t *testing.T) {
	// 60/100 vs 50/100: pooled p = 0.55.
	eff, err := TwoProportions(60, 100, 50, 100)
	if err != nil {
		t.Fatalf("TwoProportions() error = %v", err)
	}

	if math.Abs(eff.Estimate-0.1) > 1e-12 {
		t.Errorf("estimate = %v, want 0.1", eff.Estimate)
	}
	wantSE := math.Sqrt(0.55 * 0.45 * 0.02)
	if math.Abs(eff.StdErr-wantSE) > 1e-12 {
		t.Errorf("se = %v, want %v", eff.StdErr, wantSE)
	}
	// z = 1.4213, two-sided p around 0.155.
	if eff.PValue < 0.14 || eff.PValue > 0.17 {
		t.Errorf("p-value = %v, want about 0.155", eff.PValue)
	}
	if !math.IsNaN(eff.DF) {
		t.Errorf("df = %v, want NaN for a z-test", eff.DF)
	}
}

func TestTwoProportionsErrors(t *testing.T) {
	if _, err := TwoProportions(5, 0, 1, 10); err == nil {
		t.Error("zero arm size should fail")
	}
	if _, err := TwoProportions(11, 10, 1, 10); err == nil {
		t.Error("successes above n should fail")
	}
	if _, err := TwoProportions(0, 10, 0, 10); err == nil {
		t.Error("degenerate pooled proportion should fail")
	}
}

func TestAdjustedMatchesDiffInMeansWithoutCovariates(t *testing.T) {
	y := []float64{1.2, 2.1, 0.8, 1.9, 3.4, 4.1, 3.0, 3.9}
	treat := []int{0, 0, 0, 0, 1, 1, 1, 1}

	adj, err := Adjusted(y, treat, nil)
	if err != nil {
		t.Fatalf("Adjusted() error = %v", err)
	}

	dim, err := DiffInMeans(y[4:], y[:4])
	if err != nil {
		t.Fatalf("DiffInMeans() error = %v", err)
	}

	// Without covariates the OLS treatment coefficient is exactly the
	// difference in means.
	if math.Abs(adj.Estimate-dim.Estimate) > 1e-10 {
		t.Errorf("adjusted estimate = %v, diff-in-means = %v", adj.Estimate, dim.Estimate)
	}
	if adj.NTreated != 4 || adj.NControl != 4 {
		t.Errorf("arm sizes = (%d, %d), want (4, 4)", adj.NTreated, adj.NControl)
	}
	if !(adj.StdErr > 0) {
		t.Errorf("robust se = %v, want > 0", adj.StdErr)
	}
}

func TestAdjustedWithCovariates(t *testing.T) {
	// Outcome depends strongly on the covariate; adjusting should keep
	// the effect estimate near its true value of 1.
	n := 40
	y := make([]float64, n)
	treat := make([]int, n)
	cov := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		x := float64(i%10) - 4.5
		cov.Set(i, 0, x)
		treat[i] = i % 2
		y[i] = 2*x + float64(treat[i])
	}

	eff, err := Adjusted(y, treat, cov)
	if err != nil {
		t.Fatalf("Adjusted() error = %v", err)
	}
	if math.Abs(eff.Estimate-1) > 1e-8 {
		t.Errorf("estimate = %v, want 1", eff.Estimate)
	}
}

func TestAdjustedValidation(t *testing.T) {
	if _, err := Adjusted(nil, nil, nil); err == nil {
		t.Error("empty data should fail")
	}
	if _, err := Adjusted([]float64{1, 2}, []int{0, 2}, nil); err == nil {
		t.Error("non-binary treatment should fail")
	}
	if _, err := Adjusted([]float64{1, 2, 3}, []int{0, 0, 0}, nil); err == nil {
		t.Error("single-arm data should fail")
	}
}

func TestSubgroups(t *testing.T) {
	y := []float64{1, 2, 3, 4, 5, 6, 2, 3, 4, 6, 7, 8}
	treat := []int{0, 0, 0, 1, 1, 1, 0, 0, 0, 1, 1, 1}
	group := []int{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1}

	effects, err := Subgroups(y, treat, group)
	if err != nil {
		t.Fatalf("Subgroups() error = %v", err)
	}
	if len(effects) != 2 {
		t.Fatalf("got %d subgroup effects, want 2", len(effects))
	}
	if effects[0].Group != 0 || effects[1].Group != 1 {
		t.Errorf("groups = (%d, %d), want (0, 1)", effects[0].Group, effects[1].Group)
	}
	if math.Abs(effects[0].Effect.Estimate-3) > 1e-12 {
		t.Errorf("group 0 estimate = %v, want 3", effects[0].Effect.Estimate)
	}
	if math.Abs(effects[1].Effect.Estimate-4) > 1e-12 {
		t.Errorf("group 1 estimate = %v, want 4", effects[1].Effect.Estimate)
	}
}
