package cli

import (
	"io"
	"log/slog"

	"github.com/charmbracelet/log"
)

// newLogger returns a slog.Logger rendered by charmbracelet/log. Unknown
// levels fall back to warn.
func newLogger(w io.Writer, level string) *slog.Logger {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		lvl = log.WarnLevel
	}
	handler := log.NewWithOptions(w, log.Options{
		Level:           lvl,
		Prefix:          "coffer",
		ReportTimestamp: lvl <= log.DebugLevel,
	})
	return slog.New(handler)
}
