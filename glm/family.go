// Package glm implements count regression with a log link: Poisson and
// negative binomial (NB2) families fit by iteratively reweighted least
// squares.
package glm

import (
	"math"
)

// FamilyType is the numeric code of a GLM family.
type FamilyType uint8

// Supported families.
const (
	PoissonFamily FamilyType = iota
	NegBinomialFamily
)

// Family bundles the log-likelihood, deviance and variance functions of a
// count-regression family. All functions take fitted means under the log
// link.
type Family struct {
	// Name of the family.
	Name string

	// TypeCode is the numeric code for the family.
	TypeCode FamilyType

	// LogLike returns the exact log-likelihood of the observations y
	// given fitted means mn.
	LogLike func(y, mn []float64) float64

	// Deviance returns the model deviance of y given fitted means mn.
	Deviance func(y, mn []float64) float64

	// Variance writes the variance function V(mn) into va.
	Variance func(mn, va []float64)

	// Dispersion parameter; only used by the negative binomial family.
	alpha float64
}

// Alpha returns the family's dispersion parameter (zero for Poisson).
func (f *Family) Alpha() float64 {
	return f.alpha
}

// NewPoissonFamily returns the Poisson family.
func NewPoissonFamily() *Family {
	return &Family{
		Name:     "Poisson",
		TypeCode: PoissonFamily,
		LogLike: func(y, mn []float64) float64 {
			var ll float64
			for i := range y {
				g, _ := math.Lgamma(y[i] + 1)
				ll += y[i]*math.Log(mn[i]) - mn[i] - g
			}
			return ll
		},
		Deviance: func(y, mn []float64) float64 {
			var dev float64
			for i := range y {
				if y[i] > 0 {
					dev += 2 * (y[i]*math.Log(y[i]/mn[i]) - (y[i] - mn[i]))
				} else {
					dev += 2 * mn[i]
				}
			}
			return dev
		},
		Variance: func(mn, va []float64) {
			copy(va, mn)
		},
	}
}

// NewNegBinomialFamily returns the NB2 negative binomial family with
// dispersion alpha (variance mu + alpha*mu^2). alpha must be positive.
func NewNegBinomialFamily(alpha float64) *Family {
	c3, _ := math.Lgamma(1 / alpha)

	return &Family{
		Name:     "NegBinomial",
		TypeCode: NegBinomialFamily,
		alpha:    alpha,
		LogLike: func(y, mn []float64) float64 {
			var ll float64
			for i := range y {
				c1, _ := math.Lgamma(y[i] + 1/alpha)
				c2, _ := math.Lgamma(y[i] + 1)

				am := alpha * mn[i]
				v := y[i]*math.Log(am/(1+am)) - math.Log(1+am)/alpha
				ll += v + c1 - c2 - c3
			}
			return ll
		},
		Deviance: func(y, mn []float64) float64 {
			var dev float64
			for i := range y {
				z2 := (y[i] + 1/alpha) * math.Log((1+alpha*y[i])/(1+alpha*mn[i]))
				if y[i] > 0 {
					dev += 2 * (y[i]*math.Log(y[i]/mn[i]) - z2)
				} else {
					dev += -2 * z2
				}
			}
			return dev
		},
		Variance: func(mn, va []float64) {
			for i := range mn {
				va[i] = mn[i] + alpha*mn[i]*mn[i]
			}
		},
	}
}
