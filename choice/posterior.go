package choice

import (
	"math"

	"github.com/mtaniguchi/statlearn/dataset"
)

// LogPosterior returns the unnormalized log-posterior of the conditional
// logit coefficients under independent Normal(priorMu, priorSigma) priors,
// in the form the sampler package consumes. Points where the likelihood is
// not finite map to -Inf so a Metropolis step rejects them.
func LogPosterior(panel *dataset.ChoicePanel, priorMu, priorSigma float64) func(beta []float64) float64 {
	return func(beta []float64) float64 {
		nll, err := NegLogLik(panel, beta)
		if err != nil {
			return math.Inf(-1)
		}

		lp := -nll
		for _, b := range beta {
			z := (b - priorMu) / priorSigma
			lp -= 0.5 * z * z
		}
		if math.IsNaN(lp) {
			return math.Inf(-1)
		}
		return lp
	}
}
