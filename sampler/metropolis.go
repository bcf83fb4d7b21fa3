// Package sampler implements a random-walk Metropolis-Hastings sampler over
// an arbitrary log-target density, with burn-in, thinning and posterior
// summaries of the resulting chain.
package sampler

import (
	"context"
	"math"
	"math/rand"
	"time"

	"github.com/mtaniguchi/statlearn/pkg/errors"
)

// LogTarget evaluates the unnormalized log-density at a parameter vector.
// Points outside the support must return -Inf.
type LogTarget func(x []float64) float64

// MetropolisHastings is a random-walk Metropolis sampler with independent
// Gaussian proposal increments per dimension.
type MetropolisHastings struct {
	target LogTarget

	// Hyperparameters
	scale       []float64 // per-dimension proposal standard deviation
	burnIn      int       // draws discarded from the front of the chain
	thin        int       // keep every thin-th draw after burn-in
	randomState int64     // RNG seed, -1 for time-based

	rng *rand.Rand
}

// MHOption is a functional option for MetropolisHastings.
type MHOption func(*MetropolisHastings)

// NewMetropolisHastings creates a sampler for the given log-target.
func NewMetropolisHastings(target LogTarget, opts ...MHOption) *MetropolisHastings {
	mh := &MetropolisHastings{
		target:      target,
		burnIn:      0,
		thin:        1,
		randomState: -1,
	}
	for _, opt := range opts {
		opt(mh)
	}

	if mh.randomState >= 0 {
		mh.rng = rand.New(rand.NewSource(mh.randomState))
	} else {
		mh.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return mh
}

// WithMHScale sets the per-dimension proposal standard deviations.
func WithMHScale(scale []float64) MHOption {
	return func(mh *MetropolisHastings) {
		mh.scale = append([]float64(nil), scale...)
	}
}

// WithMHBurnIn sets the number of initial draws to discard.
func WithMHBurnIn(burnIn int) MHOption {
	return func(mh *MetropolisHastings) {
		mh.burnIn = burnIn
	}
}

// WithMHThin keeps only every thin-th post-burn-in draw.
func WithMHThin(thin int) MHOption {
	return func(mh *MetropolisHastings) {
		mh.thin = thin
	}
}

// WithMHRandomState sets the RNG seed.
func WithMHRandomState(seed int64) MHOption {
	return func(mh *MetropolisHastings) {
		mh.randomState = seed
	}
}

// Run draws nKeep stored samples starting from init. The total number of
// Metropolis steps is burnIn + nKeep*thin. The context is checked between
// steps so long chains can be cancelled.
func (mh *MetropolisHastings) Run(ctx context.Context, init []float64, nKeep int) (*Chain, error) {
	dim := len(init)
	if dim == 0 {
		return nil, errors.NewValueError("MetropolisHastings.Run", "empty initial state")
	}
	if nKeep <= 0 {
		return nil, errors.NewValidationError("nKeep", "must be positive", nKeep)
	}
	if mh.thin < 1 {
		return nil, errors.NewValidationError("thin", "must be at least 1", mh.thin)
	}

	scale := mh.scale
	if scale == nil {
		scale = make([]float64, dim)
		for k := range scale {
			scale[k] = 1.0
		}
	}
	if len(scale) != dim {
		return nil, errors.NewDimensionError("MetropolisHastings.Run", dim, len(scale), 1)
	}

	current := append([]float64(nil), init...)
	curLP := mh.target(current)
	if math.IsNaN(curLP) || math.IsInf(curLP, 0) {
		return nil, errors.NewNumericalInstabilityError("MetropolisHastings.Run", []float64{curLP}, 0)
	}

	chain := newChain(dim, nKeep)
	proposal := make([]float64, dim)

	total := mh.burnIn + nKeep*mh.thin
	for step := 0; step < total; step++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		for k := range proposal {
			proposal[k] = current[k] + mh.rng.NormFloat64()*scale[k]
		}

		// Symmetric proposal: accept with probability exp(lp' - lp).
		// A -Inf log-target always rejects, so the chain never leaves
		// the support.
		propLP := mh.target(proposal)
		if !math.IsNaN(propLP) && math.Log(mh.rng.Float64()) < propLP-curLP {
			copy(current, proposal)
			curLP = propLP
			chain.accepted++
		}
		chain.proposed++

		if step >= mh.burnIn && (step-mh.burnIn)%mh.thin == mh.thin-1 {
			chain.append(current, curLP)
		}
	}

	return chain, nil
}
