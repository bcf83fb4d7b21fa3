package model

// EstimatorState represents the training state of an estimator.
type EstimatorState int

const (
	// NotFitted is the state of an estimator before Fit has been called.
	NotFitted EstimatorState = iota
	// Fitted is the state of an estimator after a successful Fit.
	Fitted
)

// BaseEstimator is embedded by every estimator in this library and tracks
// whether the estimator has been fitted.
type BaseEstimator struct {
	state EstimatorState
}

// IsFitted reports whether the estimator has been fitted.
func (e *BaseEstimator) IsFitted() bool {
	return e.state == Fitted
}

// SetFitted marks the estimator as fitted.
func (e *BaseEstimator) SetFitted() {
	e.state = Fitted
}

// Reset returns the estimator to the unfitted state.
func (e *BaseEstimator) Reset() {
	e.state = NotFitted
}
