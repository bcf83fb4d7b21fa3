package errors

import (
	"strings"
	"testing"
)

func TestTypedErrorsSurviveWrapping(t *testing.T) {
	wrapped := Wrap(NewNotFittedError("KMeans", "Predict"), "segmenting")

	var nf *NotFittedError
	if !As(wrapped, &nf) {
		t.Fatal("As() failed to find NotFittedError through Wrap")
	}
	if nf.ModelName != "KMeans" || nf.Method != "Predict" {
		t.Errorf("NotFittedError = %+v", nf)
	}

	var de *DimensionError
	if As(wrapped, &de) {
		t.Error("As() matched the wrong error type")
	}
}

func TestSentinelsSurviveWrapping(t *testing.T) {
	err := Wrapf(ErrSingularMatrix, "solving normal equations for %s", "OLS")
	if !Is(err, ErrSingularMatrix) {
		t.Error("Is() failed to match ErrSingularMatrix through Wrapf")
	}
	if Is(err, ErrEmptyData) {
		t.Error("Is() matched the wrong sentinel")
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want []string
	}{
		{
			"not fitted",
			NewNotFittedError("GLM", "Predict"),
			[]string{"GLM", "not fitted", "Predict"},
		},
		{
			"dimension rows",
			NewDimensionError("OLS.Fit", 10, 7, 0),
			[]string{"OLS.Fit", "rows", "10", "7"},
		},
		{
			"dimension features",
			NewDimensionError("KNNClassifier.Predict", 2, 3, 1),
			[]string{"features", "2", "3"},
		},
		{
			"validation",
			NewValidationError("n_clusters", "must be positive", -1),
			[]string{"n_clusters", "must be positive", "-1"},
		},
		{
			"value",
			NewValueError("GLM.Fit", "negative response"),
			[]string{"GLM.Fit", "negative response"},
		},
		{
			"numerical instability",
			NewNumericalInstabilityError("ConditionalLogit.NegLogLik", []float64{1, 2, 3, 4, 5, 6}, 3),
			[]string{"ConditionalLogit.NegLogLik", "iteration 3", "..."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, sub := range tt.want {
				if !strings.Contains(msg, sub) {
					t.Errorf("message %q missing %q", msg, sub)
				}
			}
		})
	}
}

func TestWarnUsesInstalledHandler(t *testing.T) {
	var got error
	SetWarningHandler(func(w error) { got = w })
	defer SetWarningHandler(func(w error) {})

	w := NewConvergenceWarning("IRLS", 100, "")
	Warn(w)

	var cw *ConvergenceWarning
	if !As(got, &cw) {
		t.Fatalf("handler received %v, want ConvergenceWarning", got)
	}
	if cw.Algorithm != "IRLS" || cw.Iterations != 100 {
		t.Errorf("ConvergenceWarning = %+v", cw)
	}
	if !strings.Contains(cw.Error(), "failed to converge after 100 iterations") {
		t.Errorf("message = %q", cw.Error())
	}
}

func TestZerologSinkTakesPrecedence(t *testing.T) {
	handlerCalled, sinkCalled := false, false
	SetWarningHandler(func(error) { handlerCalled = true })
	SetZerologWarnFunc(func(error) { sinkCalled = true })
	defer func() {
		SetZerologWarnFunc(nil)
		SetWarningHandler(func(error) {})
	}()

	Warn(NewConvergenceWarning("KMeans", 300, "inertia still moving"))

	if !sinkCalled {
		t.Error("zerolog sink not called")
	}
	if handlerCalled {
		t.Error("plain handler called despite installed sink")
	}
}
