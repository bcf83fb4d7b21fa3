// Package regression implements ordinary least squares with classical and
// heteroskedasticity-robust (HC1) covariance estimates. It is the
// regression-adjustment backend of the experiment package.
package regression

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mtaniguchi/statlearn/core/model"
	"github.com/mtaniguchi/statlearn/core/parallel"
	"github.com/mtaniguchi/statlearn/pkg/errors"
)

// OLS is a linear regression model fit by the normal equations. The
// intercept is always the first coefficient.
type OLS struct {
	model.BaseEstimator

	// Fitted parameters
	coef_      []float64 // intercept followed by slopes
	residuals_ []float64
	cov_       *mat.SymDense // classical covariance
	covHC1_    *mat.SymDense // HC1 sandwich covariance
	nFeatures_ int
	nObs_      int
	r2_        float64
}

// NewOLS creates an empty OLS model.
func NewOLS() *OLS {
	return &OLS{}
}

// Fit solves the normal equations (X'X) b = X'y on the intercept-augmented
// design and stores both covariance estimates.
func (o *OLS) Fit(X, y mat.Matrix) error {
	n, p := X.Dims()
	yr, yc := y.Dims()

	if n == 0 || p == 0 {
		return errors.Wrap(errors.ErrEmptyData, "OLS.Fit")
	}
	if yr != n {
		return errors.NewDimensionError("OLS.Fit", n, yr, 0)
	}
	if yc != 1 {
		return errors.NewValueError("OLS.Fit", "y must be a column vector")
	}
	if n <= p+1 {
		return errors.NewValueError("OLS.Fit", "need more observations than coefficients")
	}

	// Intercept column first: Xa = [1, X].
	q := p + 1
	Xa := mat.NewDense(n, q, nil)

	const parallelThreshold = 1000
	parallel.ParallelizeWithThreshold(n, parallelThreshold, func(start, end int) {
		for i := start; i < end; i++ {
			Xa.Set(i, 0, 1.0)
			for j := 0; j < p; j++ {
				Xa.Set(i, j+1, X.At(i, j))
			}
		}
	})

	xtx := mat.NewSymDense(q, nil)
	xty := mat.NewVecDense(q, nil)
	for j1 := 0; j1 < q; j1++ {
		s := 0.0
		for i := 0; i < n; i++ {
			s += Xa.At(i, j1) * y.At(i, 0)
		}
		xty.SetVec(j1, s)
		for j2 := j1; j2 < q; j2++ {
			s = 0.0
			for i := 0; i < n; i++ {
				s += Xa.At(i, j1) * Xa.At(i, j2)
			}
			xtx.SetSym(j1, j2, s)
		}
	}

	var chol mat.Cholesky
	if !chol.Factorize(xtx) {
		return errors.Wrap(errors.ErrSingularMatrix, "OLS.Fit: X'X")
	}

	var beta mat.VecDense
	if err := chol.SolveVecTo(&beta, xty); err != nil {
		return errors.Wrap(err, "OLS.Fit: normal equations")
	}

	var xtxInv mat.SymDense
	if err := chol.InverseTo(&xtxInv); err != nil {
		return errors.Wrap(err, "OLS.Fit: inverting X'X")
	}

	// Residuals, RSS and TSS.
	o.residuals_ = make([]float64, n)
	rss := 0.0
	ybar := 0.0
	for i := 0; i < n; i++ {
		ybar += y.At(i, 0)
	}
	ybar /= float64(n)
	tss := 0.0
	for i := 0; i < n; i++ {
		fit := 0.0
		for j := 0; j < q; j++ {
			fit += Xa.At(i, j) * beta.AtVec(j)
		}
		e := y.At(i, 0) - fit
		o.residuals_[i] = e
		rss += e * e
		d := y.At(i, 0) - ybar
		tss += d * d
	}

	dof := float64(n - q)
	sigma2 := rss / dof

	// Classical covariance: sigma^2 (X'X)^-1.
	cov := mat.NewSymDense(q, nil)
	for j1 := 0; j1 < q; j1++ {
		for j2 := j1; j2 < q; j2++ {
			cov.SetSym(j1, j2, sigma2*xtxInv.At(j1, j2))
		}
	}

	// HC1 sandwich: (X'X)^-1 X' diag(e^2) X (X'X)^-1 scaled by n/(n-q).
	meat := mat.NewSymDense(q, nil)
	for j1 := 0; j1 < q; j1++ {
		for j2 := j1; j2 < q; j2++ {
			s := 0.0
			for i := 0; i < n; i++ {
				s += o.residuals_[i] * o.residuals_[i] * Xa.At(i, j1) * Xa.At(i, j2)
			}
			meat.SetSym(j1, j2, s)
		}
	}
	var tmp, sand mat.Dense
	tmp.Mul(&xtxInv, meat)
	sand.Mul(&tmp, &xtxInv)
	hc1 := mat.NewSymDense(q, nil)
	scale := float64(n) / dof
	for j1 := 0; j1 < q; j1++ {
		for j2 := j1; j2 < q; j2++ {
			hc1.SetSym(j1, j2, scale*sand.At(j1, j2))
		}
	}

	o.coef_ = make([]float64, q)
	for j := 0; j < q; j++ {
		o.coef_[j] = beta.AtVec(j)
	}
	o.cov_ = cov
	o.covHC1_ = hc1
	o.nFeatures_ = p
	o.nObs_ = n
	if tss > 0 {
		o.r2_ = 1 - rss/tss
	} else {
		o.r2_ = math.NaN()
	}

	o.SetFitted()
	return nil
}

// Predict returns fitted values for the rows of X.
func (o *OLS) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !o.IsFitted() {
		return nil, errors.NewNotFittedError("OLS", "Predict")
	}

	n, p := X.Dims()
	if p != o.nFeatures_ {
		return nil, errors.NewDimensionError("OLS.Predict", o.nFeatures_, p, 1)
	}

	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		fit := o.coef_[0]
		for j := 0; j < p; j++ {
			fit += X.At(i, j) * o.coef_[j+1]
		}
		out.Set(i, 0, fit)
	}
	return out, nil
}

// Coef returns the fitted coefficients, intercept first.
func (o *OLS) Coef() ([]float64, error) {
	if !o.IsFitted() {
		return nil, errors.NewNotFittedError("OLS", "Coef")
	}
	return append([]float64(nil), o.coef_...), nil
}

// StdErr returns the classical coefficient standard errors.
func (o *OLS) StdErr() ([]float64, error) {
	if !o.IsFitted() {
		return nil, errors.NewNotFittedError("OLS", "StdErr")
	}
	return diagSqrt(o.cov_), nil
}

// RobustStdErr returns the HC1 heteroskedasticity-robust standard errors.
func (o *OLS) RobustStdErr() ([]float64, error) {
	if !o.IsFitted() {
		return nil, errors.NewNotFittedError("OLS", "RobustStdErr")
	}
	return diagSqrt(o.covHC1_), nil
}

// Residuals returns a copy of the fitted residuals.
func (o *OLS) Residuals() ([]float64, error) {
	if !o.IsFitted() {
		return nil, errors.NewNotFittedError("OLS", "Residuals")
	}
	return append([]float64(nil), o.residuals_...), nil
}

// R2 returns the coefficient of determination of the fit.
func (o *OLS) R2() (float64, error) {
	if !o.IsFitted() {
		return 0, errors.NewNotFittedError("OLS", "R2")
	}
	return o.r2_, nil
}

// Score returns R^2 on held-out data.
func (o *OLS) Score(X, y mat.Matrix) (float64, error) {
	pred, err := o.Predict(X)
	if err != nil {
		return 0, err
	}

	n, _ := y.Dims()
	ybar := 0.0
	for i := 0; i < n; i++ {
		ybar += y.At(i, 0)
	}
	ybar /= float64(n)

	rss, tss := 0.0, 0.0
	for i := 0; i < n; i++ {
		e := y.At(i, 0) - pred.At(i, 0)
		rss += e * e
		d := y.At(i, 0) - ybar
		tss += d * d
	}
	if tss == 0 {
		return math.NaN(), nil
	}
	return 1 - rss/tss, nil
}

func diagSqrt(s *mat.SymDense) []float64 {
	n, _ := s.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = math.Sqrt(s.At(i, i))
	}
	return out
}
