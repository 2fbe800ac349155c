// Package report is the single reporting sink for treesync. Informational
// messages and failures from every component go through a Reporter, which
// writes leveled, coloured lines through slog and tint.
package report

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// LevelSuccess sits between info and warn and is printed as "OK".
const LevelSuccess = slog.LevelInfo + 2

// ANSI 8-bit colour for the OK level.
const colorSuccess = 10

// Options configures a Reporter.
type Options struct {
	// Verbose enables debug messages.
	Verbose bool
	// NoColor disables ANSI colours. NO_COLOR in the environment has the
	// same effect.
	NoColor bool
	// TimeFormat defaults to time.TimeOnly.
	TimeFormat string
}

// Reporter writes human-readable messages. It is safe for concurrent use.
type Reporter struct {
	log *slog.Logger
}

// New returns a Reporter writing to w.
func New(w io.Writer, opts Options) *Reporter {
	level := slog.LevelInfo
	if opts.Verbose {
		level = slog.LevelDebug
	}
	timeFormat := opts.TimeFormat
	if timeFormat == "" {
		timeFormat = time.TimeOnly
	}
	noColor := opts.NoColor || os.Getenv("NO_COLOR") != ""

	h := tint.NewHandler(w, &tint.Options{
		Level:       level,
		TimeFormat:  timeFormat,
		NoColor:     noColor,
		ReplaceAttr: replaceLevel,
	})
	return &Reporter{log: slog.New(h)}
}

// Discard returns a Reporter that drops everything.
func Discard() *Reporter {
	return &Reporter{log: slog.New(tint.NewHandler(io.Discard, &tint.Options{NoColor: true}))}
}

func replaceLevel(groups []string, a slog.Attr) slog.Attr {
	if a.Key != slog.LevelKey || len(groups) != 0 {
		return a
	}
	if level, ok := a.Value.Any().(slog.Level); ok && level == LevelSuccess {
		return tint.Attr(colorSuccess, slog.String(a.Key, "OK"))
	}
	return a
}

// With returns a Reporter whose messages carry the given component name,
// e.g. "Translate" or "Watch".
func (r *Reporter) With(component string) *Reporter {
	return &Reporter{log: r.log.With(slog.String("component", component))}
}

func (r *Reporter) emit(level slog.Level, format string, args []any) {
	if !r.log.Enabled(context.Background(), level) {
		return
	}
	r.log.Log(context.Background(), level, fmt.Sprintf(format, args...))
}

// Info reports progress.
func (r *Reporter) Info(format string, args ...any) { r.emit(slog.LevelInfo, format, args) }

// Success reports a completed step.
func (r *Reporter) Success(format string, args ...any) { r.emit(LevelSuccess, format, args) }

// Warn reports something the user should look at that does not fail the run.
func (r *Reporter) Warn(format string, args ...any) { r.emit(slog.LevelWarn, format, args) }

// Error reports a failure.
func (r *Reporter) Error(format string, args ...any) { r.emit(slog.LevelError, format, args) }

// Debug reports details shown only with --verbose.
func (r *Reporter) Debug(format string, args ...any) { r.emit(slog.LevelDebug, format, args) }

// Logf adapts the Reporter to printf-style callbacks such as
// translate.Options.OnLog. Messages are emitted at debug level.
func (r *Reporter) Logf(format string, args ...any) { r.Debug(format, args...) }
