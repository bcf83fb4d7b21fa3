// Package preprocessing provides input standardization for the
// distance-based estimators.
package preprocessing

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/mtaniguchi/statlearn/core/model"
	"github.com/mtaniguchi/statlearn/pkg/errors"
)

// StandardScaler centers each feature at zero mean and scales it to unit
// standard deviation. Constant features get scale 1 so transforming them is
// a no-op after centering.
type StandardScaler struct {
	model.BaseEstimator

	// Mean holds the per-feature means.
	Mean []float64

	// Scale holds the per-feature standard deviations.
	Scale []float64

	// NFeatures is the number of features seen at fit time.
	NFeatures int

	// WithMean controls whether the mean is subtracted.
	WithMean bool

	// WithStd controls whether features are divided by their std dev.
	WithStd bool
}

// NewStandardScaler creates a StandardScaler.
func NewStandardScaler(withMean, withStd bool) *StandardScaler {
	return &StandardScaler{
		WithMean: withMean,
		WithStd:  withStd,
	}
}

// Fit computes the per-feature mean and standard deviation of X.
func (s *StandardScaler) Fit(X mat.Matrix) error {
	rows, cols := X.Dims()
	if rows == 0 || cols == 0 {
		return errors.Wrap(errors.ErrEmptyData, "StandardScaler.Fit")
	}

	s.Mean = make([]float64, cols)
	s.Scale = make([]float64, cols)
	s.NFeatures = cols

	for j := 0; j < cols; j++ {
		sum := 0.0
		for i := 0; i < rows; i++ {
			sum += X.At(i, j)
		}
		s.Mean[j] = sum / float64(rows)

		ss := 0.0
		for i := 0; i < rows; i++ {
			d := X.At(i, j) - s.Mean[j]
			ss += d * d
		}
		sd := math.Sqrt(ss / float64(rows))
		if sd == 0 {
			sd = 1
		}
		s.Scale[j] = sd
	}

	s.SetFitted()
	return nil
}

// Transform standardizes the rows of X with the fitted statistics.
func (s *StandardScaler) Transform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "Transform")
	}

	rows, cols := X.Dims()
	if cols != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.Transform", s.NFeatures, cols, 1)
	}

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := X.At(i, j)
			if s.WithMean {
				v -= s.Mean[j]
			}
			if s.WithStd {
				v /= s.Scale[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

// FitTransform fits the scaler and transforms X in one call.
func (s *StandardScaler) FitTransform(X mat.Matrix) (mat.Matrix, error) {
	if err := s.Fit(X); err != nil {
		return nil, err
	}
	return s.Transform(X)
}

// InverseTransform maps standardized values back to the original scale.
func (s *StandardScaler) InverseTransform(X mat.Matrix) (mat.Matrix, error) {
	if !s.IsFitted() {
		return nil, errors.NewNotFittedError("StandardScaler", "InverseTransform")
	}

	rows, cols := X.Dims()
	if cols != s.NFeatures {
		return nil, errors.NewDimensionError("StandardScaler.InverseTransform", s.NFeatures, cols, 1)
	}

	out := mat.NewDense(rows, cols, nil)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			v := X.At(i, j)
			if s.WithStd {
				v *= s.Scale[j]
			}
			if s.WithMean {
				v += s.Mean[j]
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}
