// Package model provides the base estimator type and the interfaces shared
// by the estimators in this library.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter is the interface for models that learn from data.
type Fitter interface {
	// Fit trains the model on the design matrix X and target y.
	Fit(X, y mat.Matrix) error
}

// Predictor is the interface for fitted models that produce predictions.
type Predictor interface {
	// Predict returns predictions for the rows of X.
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Transformer is the interface for fitted models that map inputs to a new
// representation.
type Transformer interface {
	// Transform maps the rows of X into the fitted representation.
	Transform(X mat.Matrix) (mat.Matrix, error)
}

// Scorer is the interface for models that can score themselves on held-out
// data.
type Scorer interface {
	// Score returns a model-specific goodness measure (accuracy for
	// classifiers, R^2 for regressors).
	Score(X, y mat.Matrix) (float64, error)
}

// Classifier combines the interfaces implemented by classification models.
type Classifier interface {
	Fitter
	Predictor
	Scorer

	// PredictProba returns per-class probability estimates for each row of X.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the unique class labels seen during fitting.
	Classes() []int
}

// Clusterer is the interface for partitioning models.
type Clusterer interface {
	Fitter
	Predictor

	// ClusterCenters returns the fitted cluster centers.
	ClusterCenters() [][]float64

	// Labels returns the cluster assignment of each training sample.
	Labels() []int
}

// ParameterGetter is the interface for models that expose their
// hyperparameters.
type ParameterGetter interface {
	GetParams() map[string]interface{}
}
