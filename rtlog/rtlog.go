// Package rtlog builds the relay's activity logger: a slog.Logger backed
// by a rolling daily log file, the way apps/rtcmlogger/config.Config and
// apps/proxy/tcpprox.go set up logging (dailylogger.Writer feeding a
// go-tools/logger.LoggerT there; slog.Logger here, since the rest of this
// codebase has moved on to log/slog the way apps/rtcmlogger/config/config.go
// already does for its error reporting).
package rtlog

import (
	"io"
	"log/slog"
	"os"

	"github.com/goblimey/go-tools/dailylogger"
)

// Options configures New.
type Options struct {
	// Directory is where today's log file is written.  Empty means stderr
	// only, which is what unit tests and short-lived tools want.
	Directory string

	// FilePrefix and FileSuffix name today's file as <prefix><date><suffix>,
	// matching dailylogger.New's own convention (tcpprox.go uses "data." and
	// ".rtcm" for its RTCM capture; the activity log here uses its own
	// prefix/suffix pair).
	FilePrefix string
	FileSuffix string

	// Level sets the minimum level that reaches the log.  Zero value is
	// slog.LevelInfo.
	Level slog.Level

	// AlsoStderr mirrors every record to stderr in addition to the daily
	// file.  Useful when running interactively.
	AlsoStderr bool
}

// New builds a structured logger per opts.  When opts.Directory is empty
// the logger writes only to stderr.
func New(opts Options) *slog.Logger {
	var w io.Writer = os.Stderr
	if opts.Directory != "" {
		daily := dailylogger.New(opts.Directory, opts.FilePrefix, opts.FileSuffix)
		if opts.AlsoStderr {
			w = io.MultiWriter(daily, os.Stderr)
		} else {
			w = daily
		}
	}

	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: opts.Level})
	return slog.New(handler)
}
