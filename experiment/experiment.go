// Package experiment implements the analysis of a two-arm randomized
// experiment: difference-in-means treatment effects with Welch standard
// errors, a two-proportion z-test, regression-adjusted effects with HC1
// standard errors, and per-subgroup effects.
package experiment

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mtaniguchi/statlearn/pkg/errors"
	"github.com/mtaniguchi/statlearn/regression"
)

// Effect is an estimated average treatment effect with its inference.
type Effect struct {
	Estimate float64
	StdErr   float64
	Stat     float64 // t or z statistic
	PValue   float64 // two-sided
	DF       float64 // degrees of freedom; NaN for z-based inference
	NTreated int
	NControl int
}

// DiffInMeans estimates the average treatment effect as the difference of
// arm means, with a Welch standard error and Welch-Satterthwaite degrees of
// freedom.
func DiffInMeans(treated, control []float64) (Effect, error) {
	if len(treated) < 2 || len(control) < 2 {
		return Effect{}, errors.NewValueError("experiment.DiffInMeans",
			"each arm needs at least 2 observations")
	}

	mt := stat.Mean(treated, nil)
	mc := stat.Mean(control, nil)
	vt := stat.Variance(treated, nil)
	vc := stat.Variance(control, nil)
	if vt == 0 || vc == 0 {
		return Effect{}, errors.NewValueError("experiment.DiffInMeans",
			"each arm needs nonzero variance")
	}

	nt := float64(len(treated))
	nc := float64(len(control))

	se := math.Sqrt(vt/nt + vc/nc)
	tstat := (mt - mc) / se

	// Welch-Satterthwaite degrees of freedom.
	num := (vt/nt + vc/nc) * (vt/nt + vc/nc)
	den := (vt/nt)*(vt/nt)/(nt-1) + (vc/nc)*(vc/nc)/(nc-1)
	df := num / den

	tdist := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: df}
	p := 2 * tdist.CDF(-math.Abs(tstat))

	return Effect{
		Estimate: mt - mc,
		StdErr:   se,
		Stat:     tstat,
		PValue:   p,
		DF:       df,
		NTreated: len(treated),
		NControl: len(control),
	}, nil
}

// TwoProportions runs a two-sided pooled z-test for the difference of two
// proportions, successT/nT minus successC/nC.
func TwoProportions(successT, nT, successC, nC int) (Effect, error) {
	if nT <= 0 || nC <= 0 {
		return Effect{}, errors.NewValueError("experiment.TwoProportions", "arm sizes must be positive")
	}
	if successT < 0 || successT > nT || successC < 0 || successC > nC {
		return Effect{}, errors.NewValueError("experiment.TwoProportions", "successes outside [0, n]")
	}

	pt := float64(successT) / float64(nT)
	pc := float64(successC) / float64(nC)
	pooled := float64(successT+successC) / float64(nT+nC)

	se := math.Sqrt(pooled * (1 - pooled) * (1/float64(nT) + 1/float64(nC)))
	if se == 0 {
		return Effect{}, errors.NewValueError("experiment.TwoProportions", "degenerate pooled proportion")
	}

	z := (pt - pc) / se
	p := 2 * distuv.UnitNormal.CDF(-math.Abs(z))

	return Effect{
		Estimate: pt - pc,
		StdErr:   se,
		Stat:     z,
		PValue:   p,
		DF:       math.NaN(),
		NTreated: nT,
		NControl: nC,
	}, nil
}

// Adjusted estimates the treatment effect by OLS of y on the treatment
// dummy and covariates, using HC1 robust standard errors and a normal
// reference distribution. covariates may be nil.
func Adjusted(y []float64, treat []int, covariates *mat.Dense) (Effect, error) {
	n := len(y)
	if n == 0 {
		return Effect{}, errors.Wrap(errors.ErrEmptyData, "experiment.Adjusted")
	}
	if len(treat) != n {
		return Effect{}, errors.NewDimensionError("experiment.Adjusted", n, len(treat), 0)
	}

	nCov := 0
	if covariates != nil {
		cr, cc := covariates.Dims()
		if cr != n {
			return Effect{}, errors.NewDimensionError("experiment.Adjusted", n, cr, 0)
		}
		nCov = cc
	}

	nt, nc := 0, 0
	X := mat.NewDense(n, 1+nCov, nil)
	yv := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		switch treat[i] {
		case 1:
			nt++
			X.Set(i, 0, 1)
		case 0:
			nc++
		default:
			return Effect{}, errors.NewValueError("experiment.Adjusted", "treatment indicator must be 0 or 1")
		}
		for j := 0; j < nCov; j++ {
			X.Set(i, j+1, covariates.At(i, j))
		}
		yv.Set(i, 0, y[i])
	}
	if nt == 0 || nc == 0 {
		return Effect{}, errors.NewValueError("experiment.Adjusted", "both arms must be populated")
	}

	ols := regression.NewOLS()
	if err := ols.Fit(X, yv); err != nil {
		return Effect{}, errors.Wrap(err, "experiment.Adjusted")
	}

	coef, err := ols.Coef()
	if err != nil {
		return Effect{}, err
	}
	se, err := ols.RobustStdErr()
	if err != nil {
		return Effect{}, err
	}

	// Coefficient 0 is the intercept; 1 is the treatment dummy.
	est := coef[1]
	z := est / se[1]
	p := 2 * distuv.UnitNormal.CDF(-math.Abs(z))

	return Effect{
		Estimate: est,
		StdErr:   se[1],
		Stat:     z,
		PValue:   p,
		DF:       math.NaN(),
		NTreated: nt,
		NControl: nc,
	}, nil
}

// SubgroupEffect pairs a subgroup label with its estimated effect.
type SubgroupEffect struct {
	Group  int
	Effect Effect
}

// Subgroups estimates a difference-in-means effect separately within each
// subgroup label, returned in ascending label order. Subgroups too small
// for inference are skipped.
func Subgroups(y []float64, treat, group []int) ([]SubgroupEffect, error) {
	n := len(y)
	if len(treat) != n || len(group) != n {
		return nil, errors.NewDimensionError("experiment.Subgroups", n, len(treat), 0)
	}

	byGroup := make(map[int][2][]float64)
	for i := 0; i < n; i++ {
		arms := byGroup[group[i]]
		switch treat[i] {
		case 1:
			arms[1] = append(arms[1], y[i])
		case 0:
			arms[0] = append(arms[0], y[i])
		default:
			return nil, errors.NewValueError("experiment.Subgroups", "treatment indicator must be 0 or 1")
		}
		byGroup[group[i]] = arms
	}

	labels := make([]int, 0, len(byGroup))
	for g := range byGroup {
		labels = append(labels, g)
	}
	sort.Ints(labels)

	var out []SubgroupEffect
	for _, g := range labels {
		arms := byGroup[g]
		eff, err := DiffInMeans(arms[1], arms[0])
		if err != nil {
			continue
		}
		out = append(out, SubgroupEffect{Group: g, Effect: eff})
	}
	return out, nil
}
