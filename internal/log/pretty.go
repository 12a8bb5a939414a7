package log

import (
	"io"
	"log/slog"

	cblog "github.com/charmbracelet/log"
)

// SetupPrettyLogger installs a charmbracelet/log handler as the slog default
// and returns it so callers can adjust the level.
func SetupPrettyLogger(writerForLogger io.Writer, debug bool) *cblog.Logger {
	logHandler := cblog.NewWithOptions(
		writerForLogger,
		cblog.Options{
			Level:           cblog.InfoLevel,
			ReportTimestamp: true,
			Prefix:          "fwhook",
		},
	)
	if debug {
		logHandler.SetLevel(cblog.DebugLevel)
	}
	slog.SetDefault(slog.New(logHandler))

	return logHandler
}
