// Package diagnostics renders convergence diagnostics for MCMC chains:
// per-parameter trace plots and posterior histograms.
package diagnostics

import (
	"fmt"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/mtaniguchi/statlearn/pkg/errors"
	"github.com/mtaniguchi/statlearn/sampler"
)

// TracePlot saves a trace plot of parameter k of the chain to path. A
// well-mixed chain shows stationary noise without trends.
func TracePlot(chain *sampler.Chain, k int, path string) error {
	trace, err := chain.Trace(k)
	if err != nil {
		return err
	}
	if len(trace) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "diagnostics.TracePlot")
	}

	pts := make(plotter.XYs, len(trace))
	for i, v := range trace {
		pts[i].X = float64(i)
		pts[i].Y = v
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Trace of parameter %d", k)
	p.X.Label.Text = "draw"
	p.Y.Label.Text = "value"

	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "diagnostics.TracePlot")
	}
	p.Add(line)

	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving trace plot to %s", path)
	}
	return nil
}

// Histogram saves a posterior histogram of parameter k of the chain to
// path, using nBins bins.
func Histogram(chain *sampler.Chain, k, nBins int, path string) error {
	trace, err := chain.Trace(k)
	if err != nil {
		return err
	}
	if len(trace) == 0 {
		return errors.Wrap(errors.ErrEmptyData, "diagnostics.Histogram")
	}
	if nBins < 1 {
		return errors.NewValidationError("nBins", "must be at least 1", nBins)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Posterior of parameter %d", k)
	p.X.Label.Text = "value"
	p.Y.Label.Text = "frequency"

	hist, err := plotter.NewHist(plotter.Values(trace), nBins)
	if err != nil {
		return errors.Wrap(err, "diagnostics.Histogram")
	}
	p.Add(hist)

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "saving histogram to %s", path)
	}
	return nil
}
