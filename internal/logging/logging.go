// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package logging builds the leveled logger shared by every stage and a
// small timer for reporting how long a stage took.
package logging

import (
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// TimeFormat is the timestamp layout, e.g. "14:32:01.45".
const TimeFormat = "15:04:05.00"

// New returns a logger writing to w. verbose lowers the level to debug.
func New(w io.Writer, verbose bool) *log.Logger {
	level := log.InfoLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      TimeFormat,
		Level:           level,
	})
}

// Discard returns a logger that drops everything. Tests use it.
func Discard() *log.Logger {
	return log.New(io.Discard)
}

// Timer remembers when a stage started.
type Timer struct {
	logger *log.Logger
	start  time.Time
}

// Start begins timing a stage.
func Start(l *log.Logger) *Timer {
	if l == nil {
		l = log.Default()
	}
	return &Timer{logger: l, start: time.Now()}
}

// Elapsed returns the time since Start, rounded to milliseconds.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start).Round(time.Millisecond)
}

// Done logs msg at info level with the elapsed time and any extra pairs.
func (t *Timer) Done(msg string, keyvals ...any) {
	t.logger.Info(msg, append(keyvals, "elapsed", t.Elapsed())...)
}
