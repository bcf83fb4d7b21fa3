// Package choice implements the conditional (multinomial) logit model for
// discrete-choice panels: the exact negative log-likelihood with its
// analytic gradient, maximum-likelihood fitting through gonum's
// unconstrained optimizers, and a log-posterior adapter for MCMC sampling.
package choice

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"

	"github.com/mtaniguchi/statlearn/core/model"
	"github.com/mtaniguchi/statlearn/dataset"
	"github.com/mtaniguchi/statlearn/pkg/errors"
)

// ConditionalLogit is a multinomial logit choice model over a fixed
// respondent x task x alternative panel. The probability of alternative j
// in a task is softmax_j(x_j' beta); tasks are treated as independent.
type ConditionalLogit struct {
	model.BaseEstimator

	// Hyperparameters
	maxIter int       // optimizer major-iteration cap
	tol     float64   // gradient norm tolerance
	start   []float64 // optional starting coefficients

	// Fitted parameters
	coef_   []float64
	stdErr_ []float64
	logLik_ float64
	nIter_  int
	nObs_   int
	nAttr_  int
}

// ConditionalLogitOption is a functional option for ConditionalLogit.
type ConditionalLogitOption func(*ConditionalLogit)

// NewConditionalLogit creates a ConditionalLogit with default settings.
func NewConditionalLogit(opts ...ConditionalLogitOption) *ConditionalLogit {
	cl := &ConditionalLogit{
		maxIter: 200,
		tol:     1e-8,
	}
	for _, opt := range opts {
		opt(cl)
	}
	return cl
}

// WithCLMaxIter sets the optimizer's major-iteration cap.
func WithCLMaxIter(maxIter int) ConditionalLogitOption {
	return func(cl *ConditionalLogit) {
		cl.maxIter = maxIter
	}
}

// WithCLTol sets the gradient norm below which the fit is converged.
func WithCLTol(tol float64) ConditionalLogitOption {
	return func(cl *ConditionalLogit) {
		cl.tol = tol
	}
}

// WithCLStart sets the starting coefficient vector.
func WithCLStart(start []float64) ConditionalLogitOption {
	return func(cl *ConditionalLogit) {
		cl.start = append([]float64(nil), start...)
	}
}

// NegLogLik evaluates the negative log-likelihood of beta on the panel.
// Each task contributes logsumexp(u) - u_chosen, with the row max
// subtracted before exponentiation.
func NegLogLik(panel *dataset.ChoicePanel, beta []float64) (float64, error) {
	if len(beta) != panel.NAttr {
		return 0, errors.NewDimensionError("choice.NegLogLik", panel.NAttr, len(beta), 1)
	}

	nll := 0.0
	util := make([]float64, panel.NAlt)

	for r := 0; r < panel.NResp; r++ {
		for t := 0; t < panel.NTask; t++ {
			maxU := math.Inf(-1)
			for j := 0; j < panel.NAlt; j++ {
				x := panel.Alternative(r, t, j)
				u := 0.0
				for k, b := range beta {
					u += b * x[k]
				}
				util[j] = u
				if u > maxU {
					maxU = u
				}
			}

			sumExp := 0.0
			for j := range util {
				sumExp += math.Exp(util[j] - maxU)
			}
			nll += maxU + math.Log(sumExp) - util[panel.Choice(r, t)]
		}
	}

	if math.IsNaN(nll) || math.IsInf(nll, 0) {
		return 0, errors.NewNumericalInstabilityError("choice.NegLogLik", []float64{nll}, 0)
	}
	return nll, nil
}

// Gradient writes the gradient of the negative log-likelihood at beta into
// grad: sum over tasks of sum_j (p_j - 1{j chosen}) x_j.
func Gradient(panel *dataset.ChoicePanel, beta, grad []float64) error {
	if len(beta) != panel.NAttr {
		return errors.NewDimensionError("choice.Gradient", panel.NAttr, len(beta), 1)
	}
	if len(grad) != len(beta) {
		return errors.NewDimensionError("choice.Gradient", len(beta), len(grad), 1)
	}

	for k := range grad {
		grad[k] = 0
	}
	util := make([]float64, panel.NAlt)

	for r := 0; r < panel.NResp; r++ {
		for t := 0; t < panel.NTask; t++ {
			maxU := math.Inf(-1)
			for j := 0; j < panel.NAlt; j++ {
				x := panel.Alternative(r, t, j)
				u := 0.0
				for k, b := range beta {
					u += b * x[k]
				}
				util[j] = u
				if u > maxU {
					maxU = u
				}
			}

			sumExp := 0.0
			for j := range util {
				util[j] = math.Exp(util[j] - maxU)
				sumExp += util[j]
			}

			chosen := panel.Choice(r, t)
			for j := 0; j < panel.NAlt; j++ {
				w := util[j] / sumExp
				if j == chosen {
					w -= 1
				}
				x := panel.Alternative(r, t, j)
				for k := range grad {
					grad[k] += w * x[k]
				}
			}
		}
	}

	return nil
}

// Fit maximizes the panel likelihood with L-BFGS. Standard errors come from
// the inverse of a finite-difference Hessian of the negative
// log-likelihood at the optimum.
func (cl *ConditionalLogit) Fit(panel *dataset.ChoicePanel) error {
	if err := panel.Validate(); err != nil {
		return errors.Wrap(err, "ConditionalLogit.Fit")
	}

	nAttr := panel.NAttr
	start := make([]float64, nAttr)
	if cl.start != nil {
		if len(cl.start) != nAttr {
			return errors.NewDimensionError("ConditionalLogit.Fit", nAttr, len(cl.start), 1)
		}
		copy(start, cl.start)
	}

	nll := func(beta []float64) float64 {
		v, err := NegLogLik(panel, beta)
		if err != nil {
			return math.Inf(1)
		}
		return v
	}

	problem := optimize.Problem{
		Func: nll,
		Grad: func(grad, beta []float64) {
			if err := Gradient(panel, beta, grad); err != nil {
				for k := range grad {
					grad[k] = math.NaN()
				}
			}
		},
	}

	settings := &optimize.Settings{
		MajorIterations:   cl.maxIter,
		GradientThreshold: cl.tol,
	}

	result, err := optimize.Minimize(problem, start, settings, &optimize.LBFGS{})
	if err != nil {
		return errors.Wrap(err, "ConditionalLogit.Fit: optimization failed")
	}
	if result.Status == optimize.IterationLimit {
		errors.Warn(errors.NewConvergenceWarning("ConditionalLogit", cl.maxIter, ""))
	}

	cl.coef_ = append([]float64(nil), result.X...)
	cl.logLik_ = -result.F
	cl.nIter_ = result.Stats.MajorIterations
	cl.nObs_ = panel.NObs()
	cl.nAttr_ = nAttr
	cl.stdErr_ = cl.observedInfoStdErr(nll, result.X)

	cl.SetFitted()
	return nil
}

// observedInfoStdErr inverts the finite-difference Hessian of the negative
// log-likelihood. A non-positive-definite Hessian yields NaN standard
// errors and a warning rather than a failed fit.
func (cl *ConditionalLogit) observedInfoStdErr(nll func([]float64) float64, beta []float64) []float64 {
	n := len(beta)
	hess := mat.NewSymDense(n, nil)
	fd.Hessian(hess, nll, beta, nil)

	se := make([]float64, n)
	var chol mat.Cholesky
	if !chol.Factorize(hess) {
		errors.Warn(errors.NewConvergenceWarning("ConditionalLogit", cl.nIter_,
			"observed information matrix is not positive definite"))
		for k := range se {
			se[k] = math.NaN()
		}
		return se
	}

	var cov mat.SymDense
	if err := chol.InverseTo(&cov); err != nil {
		for k := range se {
			se[k] = math.NaN()
		}
		return se
	}
	for k := 0; k < n; k++ {
		se[k] = math.Sqrt(cov.At(k, k))
	}
	return se
}

// Probabilities returns the fitted choice probabilities as an
// (observations x alternatives) matrix, observations in resp-major order.
func (cl *ConditionalLogit) Probabilities(panel *dataset.ChoicePanel) (*mat.Dense, error) {
	if !cl.IsFitted() {
		return nil, errors.NewNotFittedError("ConditionalLogit", "Probabilities")
	}
	if panel.NAttr != cl.nAttr_ {
		return nil, errors.NewDimensionError("ConditionalLogit.Probabilities", cl.nAttr_, panel.NAttr, 1)
	}

	probs := mat.NewDense(panel.NObs(), panel.NAlt, nil)
	util := make([]float64, panel.NAlt)

	for r := 0; r < panel.NResp; r++ {
		for t := 0; t < panel.NTask; t++ {
			maxU := math.Inf(-1)
			for j := 0; j < panel.NAlt; j++ {
				x := panel.Alternative(r, t, j)
				u := 0.0
				for k, b := range cl.coef_ {
					u += b * x[k]
				}
				util[j] = u
				if u > maxU {
					maxU = u
				}
			}

			sum := 0.0
			for j := range util {
				util[j] = math.Exp(util[j] - maxU)
				sum += util[j]
			}
			row := r*panel.NTask + t
			for j := range util {
				probs.Set(row, j, util[j]/sum)
			}
		}
	}

	return probs, nil
}

// Predict returns the highest-probability alternative for each observation.
func (cl *ConditionalLogit) Predict(panel *dataset.ChoicePanel) ([]int, error) {
	probs, err := cl.Probabilities(panel)
	if err != nil {
		return nil, err
	}

	nObs, nAlt := probs.Dims()
	pred := make([]int, nObs)
	for i := 0; i < nObs; i++ {
		best, bestP := 0, probs.At(i, 0)
		for j := 1; j < nAlt; j++ {
			if p := probs.At(i, j); p > bestP {
				best, bestP = j, p
			}
		}
		pred[i] = best
	}
	return pred, nil
}

// Coef returns a copy of the fitted coefficients.
func (cl *ConditionalLogit) Coef() ([]float64, error) {
	if !cl.IsFitted() {
		return nil, errors.NewNotFittedError("ConditionalLogit", "Coef")
	}
	return append([]float64(nil), cl.coef_...), nil
}

// StdErr returns a copy of the coefficient standard errors.
func (cl *ConditionalLogit) StdErr() ([]float64, error) {
	if !cl.IsFitted() {
		return nil, errors.NewNotFittedError("ConditionalLogit", "StdErr")
	}
	return append([]float64(nil), cl.stdErr_...), nil
}

// LogLik returns the maximized log-likelihood.
func (cl *ConditionalLogit) LogLik() (float64, error) {
	if !cl.IsFitted() {
		return 0, errors.NewNotFittedError("ConditionalLogit", "LogLik")
	}
	return cl.logLik_, nil
}

// AIC returns Akaike's information criterion for the fitted model.
func (cl *ConditionalLogit) AIC() (float64, error) {
	if !cl.IsFitted() {
		return 0, errors.NewNotFittedError("ConditionalLogit", "AIC")
	}
	return 2*float64(cl.nAttr_) - 2*cl.logLik_, nil
}

// BIC returns the Bayesian information criterion for the fitted model.
func (cl *ConditionalLogit) BIC() (float64, error) {
	if !cl.IsFitted() {
		return 0, errors.NewNotFittedError("ConditionalLogit", "BIC")
	}
	return float64(cl.nAttr_)*math.Log(float64(cl.nObs_)) - 2*cl.logLik_, nil
}

// NIterations returns the number of optimizer major iterations used.
func (cl *ConditionalLogit) NIterations() int {
	return cl.nIter_
}
