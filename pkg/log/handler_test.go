package log

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/mtaniguchi/statlearn/pkg/errors"
)

func TestWithStacktracesAddsStacktraceAttr(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WithStacktraces(slog.NewJSONHandler(&buf, nil)))

	logger.Error("fit failed", ErrAttrKey, errors.NewNotFittedError("GLM", "Predict"))

	out := buf.String()
	if !strings.Contains(out, `"`+StacktraceAttrKey+`"`) {
		t.Errorf("output missing %s attribute: %s", StacktraceAttrKey, out)
	}
	if !strings.Contains(out, "not fitted") {
		t.Errorf("output missing the error message: %s", out)
	}
}

func TestWithStacktracesLeavesPlainRecordsAlone(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(WithStacktraces(slog.NewJSONHandler(&buf, nil)))

	logger.Info("fit converged", "iterations", 12)

	if out := buf.String(); strings.Contains(out, StacktraceAttrKey) {
		t.Errorf("stacktrace attribute added to a record without an error: %s", out)
	}
}
