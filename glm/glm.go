package glm

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mtaniguchi/statlearn/core/model"
	"github.com/mtaniguchi/statlearn/pkg/errors"
)

// GLM is a count-regression model with log link. The design matrix must
// include an explicit intercept column if one is wanted.
type GLM struct {
	model.BaseEstimator

	// Hyperparameters
	fam     *Family
	maxIter int
	tol     float64 // convergence threshold on max |delta beta|

	// Fitted parameters
	coef_     []float64
	stdErr_   []float64
	logLik_   float64
	deviance_ float64
	pearson_  float64
	nIter_    int
	nObs_     int
	nParams_  int
}

// GLMOption is a functional option for GLM.
type GLMOption func(*GLM)

// NewGLM creates a GLM for the given family.
func NewGLM(fam *Family, opts ...GLMOption) *GLM {
	g := &GLM{
		fam:     fam,
		maxIter: 100,
		tol:     1e-8,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// WithGLMMaxIter sets the IRLS iteration cap.
func WithGLMMaxIter(maxIter int) GLMOption {
	return func(g *GLM) {
		g.maxIter = maxIter
	}
}

// WithGLMTol sets the coefficient-change threshold for convergence.
func WithGLMTol(tol float64) GLMOption {
	return func(g *GLM) {
		g.tol = tol
	}
}

// Fit estimates the coefficients by IRLS: at each step the working
// response linpred + (y-mu)/mu is regressed on X with weights mu^2/V(mu).
func (g *GLM) Fit(X, y mat.Matrix) error {
	n, p := X.Dims()
	yr, yc := y.Dims()

	if n == 0 || p == 0 {
		return errors.NewValueError("GLM.Fit", "empty design matrix")
	}
	if yr != n {
		return errors.NewDimensionError("GLM.Fit", n, yr, 0)
	}
	if yc != 1 {
		return errors.NewValueError("GLM.Fit", "y must be a column vector")
	}
	if g.fam.TypeCode == NegBinomialFamily && g.fam.alpha <= 0 {
		return errors.NewValidationError("alpha", "must be positive for the negative binomial family", g.fam.alpha)
	}

	yv := make([]float64, n)
	for i := 0; i < n; i++ {
		v := y.At(i, 0)
		if v < 0 || math.IsNaN(v) {
			return errors.NewValueError("GLM.Fit", "count responses must be nonnegative")
		}
		yv[i] = v
	}

	beta := make([]float64, p)
	linpred := make([]float64, n)
	mn := make([]float64, n)
	va := make([]float64, n)
	w := make([]float64, n)
	adjy := make([]float64, n)

	xtwx := mat.NewSymDense(p, nil)
	xtwy := mat.NewVecDense(p, nil)
	var next mat.VecDense

	converged := false
	for iter := 0; iter < g.maxIter; iter++ {
		g.nIter_ = iter + 1

		for i := 0; i < n; i++ {
			lp := 0.0
			for j := 0; j < p; j++ {
				lp += X.At(i, j) * beta[j]
			}
			linpred[i] = lp
		}

		if iter == 0 {
			// Starting means: shift the data away from zero.
			for i := range mn {
				mn[i] = yv[i] + 0.5
				linpred[i] = math.Log(mn[i])
			}
		} else {
			for i := range mn {
				mn[i] = math.Exp(linpred[i])
			}
		}

		g.fam.Variance(mn, va)

		// Log link: d eta / d mu = 1/mu, so the WLS weight is mu^2/V(mu)
		// and the adjusted response is linpred + (y-mu)/mu.
		for i := 0; i < n; i++ {
			w[i] = mn[i] * mn[i] / va[i]
			adjy[i] = linpred[i] + (yv[i]-mn[i])/mn[i]
		}

		for j1 := 0; j1 < p; j1++ {
			s := 0.0
			for i := 0; i < n; i++ {
				s += w[i] * X.At(i, j1) * adjy[i]
			}
			xtwy.SetVec(j1, s)

			for j2 := j1; j2 < p; j2++ {
				s = 0.0
				for i := 0; i < n; i++ {
					s += w[i] * X.At(i, j1) * X.At(i, j2)
				}
				xtwx.SetSym(j1, j2, s)
			}
		}

		var chol mat.Cholesky
		if !chol.Factorize(xtwx) {
			return errors.Wrap(errors.ErrSingularMatrix, "GLM.Fit: weighted moment matrix")
		}
		if err := chol.SolveVecTo(&next, xtwy); err != nil {
			return errors.Wrap(err, "GLM.Fit: WLS solve")
		}

		maxDelta := 0.0
		for j := 0; j < p; j++ {
			d := math.Abs(next.AtVec(j) - beta[j])
			if d > maxDelta {
				maxDelta = d
			}
			beta[j] = next.AtVec(j)
		}
		if maxDelta < g.tol {
			converged = true
			break
		}
	}

	if !converged {
		errors.Warn(errors.NewConvergenceWarning("GLM/"+g.fam.Name, g.maxIter, ""))
	}

	// Final fitted means and summaries at the converged coefficients.
	for i := 0; i < n; i++ {
		lp := 0.0
		for j := 0; j < p; j++ {
			lp += X.At(i, j) * beta[j]
		}
		mn[i] = math.Exp(lp)
	}
	g.fam.Variance(mn, va)

	g.pearson_ = 0
	for i := 0; i < n; i++ {
		r := yv[i] - mn[i]
		g.pearson_ += r * r / va[i]
		w[i] = mn[i] * mn[i] / va[i]
	}

	// Standard errors from the inverse weighted moment matrix at the fit.
	for j1 := 0; j1 < p; j1++ {
		for j2 := j1; j2 < p; j2++ {
			s := 0.0
			for i := 0; i < n; i++ {
				s += w[i] * X.At(i, j1) * X.At(i, j2)
			}
			xtwx.SetSym(j1, j2, s)
		}
	}

	g.stdErr_ = make([]float64, p)
	var chol mat.Cholesky
	if chol.Factorize(xtwx) {
		var cov mat.SymDense
		if err := chol.InverseTo(&cov); err == nil {
			for j := 0; j < p; j++ {
				g.stdErr_[j] = math.Sqrt(cov.At(j, j))
			}
		}
	} else {
		for j := range g.stdErr_ {
			g.stdErr_[j] = math.NaN()
		}
	}

	g.coef_ = beta
	g.logLik_ = g.fam.LogLike(yv, mn)
	g.deviance_ = g.fam.Deviance(yv, mn)
	g.nObs_ = n
	g.nParams_ = p

	g.SetFitted()
	return nil
}

// Predict returns the fitted means exp(X beta) as a column vector.
func (g *GLM) Predict(X mat.Matrix) (mat.Matrix, error) {
	if !g.IsFitted() {
		return nil, errors.NewNotFittedError("GLM", "Predict")
	}

	n, p := X.Dims()
	if p != g.nParams_ {
		return nil, errors.NewDimensionError("GLM.Predict", g.nParams_, p, 1)
	}

	out := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		lp := 0.0
		for j := 0; j < p; j++ {
			lp += X.At(i, j) * g.coef_[j]
		}
		out.Set(i, 0, math.Exp(lp))
	}
	return out, nil
}

// Coef returns a copy of the fitted coefficients.
func (g *GLM) Coef() ([]float64, error) {
	if !g.IsFitted() {
		return nil, errors.NewNotFittedError("GLM", "Coef")
	}
	return append([]float64(nil), g.coef_...), nil
}

// StdErr returns a copy of the coefficient standard errors.
func (g *GLM) StdErr() ([]float64, error) {
	if !g.IsFitted() {
		return nil, errors.NewNotFittedError("GLM", "StdErr")
	}
	return append([]float64(nil), g.stdErr_...), nil
}

// LogLik returns the log-likelihood at the fitted coefficients.
func (g *GLM) LogLik() (float64, error) {
	if !g.IsFitted() {
		return 0, errors.NewNotFittedError("GLM", "LogLik")
	}
	return g.logLik_, nil
}

// Deviance returns the model deviance at the fitted coefficients.
func (g *GLM) Deviance() (float64, error) {
	if !g.IsFitted() {
		return 0, errors.NewNotFittedError("GLM", "Deviance")
	}
	return g.deviance_, nil
}

// PearsonChi2 returns the Pearson chi-squared statistic.
func (g *GLM) PearsonChi2() (float64, error) {
	if !g.IsFitted() {
		return 0, errors.NewNotFittedError("GLM", "PearsonChi2")
	}
	return g.pearson_, nil
}

// Dispersion returns the Pearson chi-squared statistic divided by the
// residual degrees of freedom, a standard overdispersion diagnostic.
func (g *GLM) Dispersion() (float64, error) {
	if !g.IsFitted() {
		return 0, errors.NewNotFittedError("GLM", "Dispersion")
	}
	df := g.nObs_ - g.nParams_
	if df <= 0 {
		return math.NaN(), nil
	}
	return g.pearson_ / float64(df), nil
}

// AIC returns Akaike's information criterion for the fitted model.
func (g *GLM) AIC() (float64, error) {
	if !g.IsFitted() {
		return 0, errors.NewNotFittedError("GLM", "AIC")
	}
	return 2*float64(g.nParams_) - 2*g.logLik_, nil
}

// BIC returns the Bayesian information criterion for the fitted model.
func (g *GLM) BIC() (float64, error) {
	if !g.IsFitted() {
		return 0, errors.NewNotFittedError("GLM", "BIC")
	}
	return float64(g.nParams_)*math.Log(float64(g.nObs_)) - 2*g.logLik_, nil
}

// NIterations returns the number of IRLS iterations used.
func (g *GLM) NIterations() int {
	return g.nIter_
}
