package dataset

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/mtaniguchi/statlearn/pkg/errors"
)

// SimulateChoicePanel draws a synthetic choice panel under a conditional
// logit model with true coefficients coef. Attributes are iid standard
// normal and each choice is drawn from the implied softmax probabilities.
func SimulateChoicePanel(coef []float64, nResp, nTask, nAlt int, seed uint64) (*ChoicePanel, error) {
	panel, err := NewChoicePanel(nResp, nTask, nAlt, len(coef))
	if err != nil {
		return nil, err
	}

	src := rand.NewPCG(seed, seed)
	rng := rand.New(src)
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	util := make([]float64, nAlt)
	for r := 0; r < nResp; r++ {
		for t := 0; t < nTask; t++ {
			maxU := math.Inf(-1)
			for j := 0; j < nAlt; j++ {
				u := 0.0
				for k := range coef {
					x := norm.Rand()
					panel.Set(r, t, j, k, x)
					u += coef[k] * x
				}
				util[j] = u
				if u > maxU {
					maxU = u
				}
			}

			// Softmax with the row max subtracted, then inverse-CDF draw.
			sum := 0.0
			for j := range util {
				util[j] = math.Exp(util[j] - maxU)
				sum += util[j]
			}
			target := rng.Float64() * sum
			cum := 0.0
			chosen := nAlt - 1
			for j := range util {
				cum += util[j]
				if cum >= target {
					chosen = j
					break
				}
			}
			panel.SetChoice(r, t, chosen)
		}
	}

	return panel, nil
}

// Blobs draws nPer isotropic Gaussian points around each center and returns
// the stacked sample matrix together with the generating labels.
func Blobs(centers [][]float64, nPer int, std float64, seed uint64) (*mat.Dense, []int, error) {
	if len(centers) == 0 || nPer <= 0 {
		return nil, nil, errors.NewValueError("Blobs", "need at least one center and nPer > 0")
	}
	dim := len(centers[0])
	for _, c := range centers {
		if len(c) != dim {
			return nil, nil, errors.NewDimensionError("Blobs", dim, len(c), 1)
		}
	}

	norm := distuv.Normal{Mu: 0, Sigma: std, Src: rand.NewPCG(seed, seed)}

	n := len(centers) * nPer
	X := mat.NewDense(n, dim, nil)
	labels := make([]int, n)

	row := 0
	for ci, c := range centers {
		for i := 0; i < nPer; i++ {
			for d := 0; d < dim; d++ {
				X.Set(row, d, c[d]+norm.Rand())
			}
			labels[row] = ci
			row++
		}
	}

	return X, labels, nil
}

// SimulateCounts draws count responses from a Poisson (alpha == 0) or
// negative binomial (alpha > 0) regression with log link. X is filled with
// iid standard normal covariates; the first coefficient is the intercept
// applied to a constant column.
func SimulateCounts(beta []float64, n int, alpha float64, seed uint64) (*mat.Dense, *mat.VecDense, error) {
	if n <= 0 || len(beta) == 0 {
		return nil, nil, errors.NewValueError("SimulateCounts", "need n > 0 and at least one coefficient")
	}
	if alpha < 0 {
		return nil, nil, errors.NewValidationError("alpha", "must be nonnegative", alpha)
	}

	src := rand.NewPCG(seed, seed)
	norm := distuv.Normal{Mu: 0, Sigma: 1, Src: src}

	p := len(beta)
	X := mat.NewDense(n, p, nil)
	y := mat.NewVecDense(n, nil)

	for i := 0; i < n; i++ {
		lp := beta[0]
		X.Set(i, 0, 1)
		for j := 1; j < p; j++ {
			x := norm.Rand()
			X.Set(i, j, x)
			lp += beta[j] * x
		}
		mu := math.Exp(lp)

		if alpha == 0 {
			y.SetVec(i, distuv.Poisson{Lambda: mu, Src: src}.Rand())
			continue
		}

		// Gamma-Poisson mixture: lambda ~ Gamma(1/alpha, scale alpha*mu).
		g := distuv.Gamma{Alpha: 1 / alpha, Beta: 1 / (alpha * mu), Src: src}
		y.SetVec(i, distuv.Poisson{Lambda: g.Rand(), Src: src}.Rand())
	}

	return X, y, nil
}
