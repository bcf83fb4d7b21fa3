package log

import (
	"os"

	"github.com/rs/zerolog"

	"github.com/mtaniguchi/statlearn/pkg/errors"
)

// InstallZerologWarnSink routes library warnings (ConvergenceWarning and
// friends) through a zerolog logger. Warning types implementing
// zerolog.LogObjectMarshaler are emitted as structured objects.
func InstallZerologWarnSink() {
	logger := zerolog.New(os.Stderr).With().Timestamp().Logger()

	errors.SetZerologWarnFunc(func(warning error) {
		ev := logger.Warn()
		if obj, ok := warning.(zerolog.LogObjectMarshaler); ok {
			ev = ev.EmbedObject(obj)
		}
		ev.Msg(warning.Error())
	})
}
