package sampler

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/mtaniguchi/statlearn/pkg/errors"
)

// Chain holds the stored draws of one sampler run in column-major form so
// per-parameter summaries touch contiguous memory.
type Chain struct {
	dim    int
	draws  [][]float64 // draws[k] is the trace of parameter k
	logps  []float64
	length int

	accepted int
	proposed int
}

func newChain(dim, capacity int) *Chain {
	draws := make([][]float64, dim)
	for k := range draws {
		draws[k] = make([]float64, 0, capacity)
	}
	return &Chain{
		dim:   dim,
		draws: draws,
		logps: make([]float64, 0, capacity),
	}
}

func (c *Chain) append(x []float64, logp float64) {
	for k, v := range x {
		c.draws[k] = append(c.draws[k], v)
	}
	c.logps = append(c.logps, logp)
	c.length++
}

// Len returns the number of stored draws.
func (c *Chain) Len() int {
	return c.length
}

// Dim returns the parameter dimension.
func (c *Chain) Dim() int {
	return c.dim
}

// Trace returns a copy of the stored trace of parameter k.
func (c *Chain) Trace(k int) ([]float64, error) {
	if k < 0 || k >= c.dim {
		return nil, errors.NewDimensionError("Chain.Trace", c.dim, k, 1)
	}
	return append([]float64(nil), c.draws[k]...), nil
}

// LogProbs returns a copy of the log-target values of the stored draws.
func (c *Chain) LogProbs() []float64 {
	return append([]float64(nil), c.logps...)
}

// AcceptanceRate returns the fraction of proposals accepted, including
// burn-in and thinned steps.
func (c *Chain) AcceptanceRate() float64 {
	if c.proposed == 0 {
		return 0
	}
	return float64(c.accepted) / float64(c.proposed)
}

// Mean returns the posterior mean of parameter k.
func (c *Chain) Mean(k int) (float64, error) {
	if k < 0 || k >= c.dim {
		return 0, errors.NewDimensionError("Chain.Mean", c.dim, k, 1)
	}
	if c.length == 0 {
		return 0, errors.ErrEmptyData
	}
	return stat.Mean(c.draws[k], nil), nil
}

// StdDev returns the posterior standard deviation of parameter k.
func (c *Chain) StdDev(k int) (float64, error) {
	if k < 0 || k >= c.dim {
		return 0, errors.NewDimensionError("Chain.StdDev", c.dim, k, 1)
	}
	if c.length < 2 {
		return 0, errors.ErrEmptyData
	}
	return stat.StdDev(c.draws[k], nil), nil
}

// Quantile returns the p-quantile of parameter k's trace.
func (c *Chain) Quantile(k int, p float64) (float64, error) {
	if k < 0 || k >= c.dim {
		return 0, errors.NewDimensionError("Chain.Quantile", c.dim, k, 1)
	}
	if c.length == 0 {
		return 0, errors.ErrEmptyData
	}
	if p < 0 || p > 1 {
		return 0, errors.NewValidationError("p", "must be in [0, 1]", p)
	}
	sorted := append([]float64(nil), c.draws[k]...)
	sort.Float64s(sorted)
	return stat.Quantile(p, stat.Empirical, sorted, nil), nil
}

// ParamSummary condenses one parameter's trace.
type ParamSummary struct {
	Mean   float64
	StdDev float64
	Q025   float64
	Median float64
	Q975   float64
}

// Summary returns the per-parameter posterior summaries. The chain must
// hold at least two draws.
func (c *Chain) Summary() ([]ParamSummary, error) {
	if c.length < 2 {
		return nil, errors.ErrEmptyData
	}

	out := make([]ParamSummary, c.dim)
	for k := 0; k < c.dim; k++ {
		sorted := append([]float64(nil), c.draws[k]...)
		sort.Float64s(sorted)
		out[k] = ParamSummary{
			Mean:   stat.Mean(sorted, nil),
			StdDev: stat.StdDev(sorted, nil),
			Q025:   stat.Quantile(0.025, stat.Empirical, sorted, nil),
			Median: stat.Quantile(0.5, stat.Empirical, sorted, nil),
			Q975:   stat.Quantile(0.975, stat.Empirical, sorted, nil),
		}
	}
	return out, nil
}
