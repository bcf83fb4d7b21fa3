// Package dataset holds the in-memory data containers used by the
// estimators: the respondent x task x alternative choice panel consumed by
// the conditional logit model, plus small synthetic generators and a CSV
// loader for long-format choice data.
package dataset

import (
	"math"

	"github.com/mtaniguchi/statlearn/pkg/errors"
)

// ChoicePanel is a fixed-shape discrete-choice panel. Each of NResp
// respondents answers NTask choice tasks; each task offers NAlt
// alternatives described by NAttr attributes, and exactly one alternative
// is chosen.
type ChoicePanel struct {
	NResp int
	NTask int
	NAlt  int
	NAttr int

	// x is the attribute array in resp-major order:
	// x[((r*NTask+t)*NAlt+j)*NAttr+k].
	x []float64

	// choice[r*NTask+t] is the index of the chosen alternative.
	choice []int
}

// NewChoicePanel allocates a zero-filled panel of the given shape.
func NewChoicePanel(nResp, nTask, nAlt, nAttr int) (*ChoicePanel, error) {
	if nResp <= 0 || nTask <= 0 || nAlt < 2 || nAttr <= 0 {
		return nil, errors.NewValueError("NewChoicePanel",
			"panel needs positive dimensions and at least 2 alternatives")
	}
	return &ChoicePanel{
		NResp:  nResp,
		NTask:  nTask,
		NAlt:   nAlt,
		NAttr:  nAttr,
		x:      make([]float64, nResp*nTask*nAlt*nAttr),
		choice: make([]int, nResp*nTask),
	}, nil
}

// At returns the attribute value x[r, t, j, k].
func (p *ChoicePanel) At(r, t, j, k int) float64 {
	return p.x[((r*p.NTask+t)*p.NAlt+j)*p.NAttr+k]
}

// Set assigns the attribute value x[r, t, j, k].
func (p *ChoicePanel) Set(r, t, j, k int, v float64) {
	p.x[((r*p.NTask+t)*p.NAlt+j)*p.NAttr+k] = v
}

// Alternative returns the attribute row of alternative j in task (r, t).
// The returned slice aliases the panel's storage.
func (p *ChoicePanel) Alternative(r, t, j int) []float64 {
	base := ((r*p.NTask+t)*p.NAlt + j) * p.NAttr
	return p.x[base : base+p.NAttr]
}

// Choice returns the chosen alternative index for task (r, t).
func (p *ChoicePanel) Choice(r, t int) int {
	return p.choice[r*p.NTask+t]
}

// SetChoice records the chosen alternative index for task (r, t).
func (p *ChoicePanel) SetChoice(r, t, j int) {
	p.choice[r*p.NTask+t] = j
}

// NObs returns the number of choice observations (respondents x tasks).
func (p *ChoicePanel) NObs() int {
	return p.NResp * p.NTask
}

// Validate checks the panel for out-of-range choices and non-finite
// attribute values.
func (p *ChoicePanel) Validate() error {
	for i, c := range p.choice {
		if c < 0 || c >= p.NAlt {
			return errors.Newf("statlearn: ChoicePanel: choice %d out of range [0, %d) at observation %d", c, p.NAlt, i)
		}
	}
	for i, v := range p.x {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewNumericalInstabilityError("ChoicePanel.Validate", []float64{v}, i)
		}
	}
	return nil
}
