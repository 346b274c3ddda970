package middleware

import (
	"io"
	"time"

	"github.com/shrek82/jrepo/logger"
)

// SlowLog filters a repository logger down to the calls that exceed a
// threshold. Install it with core.WithLogger; every dispatched
// operation is timed by the repo and reported through Op.
type SlowLog struct {
	Threshold time.Duration
	inner     logger.Logger
}

func NewSlowLog(threshold time.Duration, inner logger.Logger) *SlowLog {
	if inner == nil {
		inner = logger.NewStdLogger()
	}
	return &SlowLog{Threshold: threshold, inner: inner}
}

// Op forwards the call only when it ran longer than the threshold.
func (m *SlowLog) Op(op string, duration time.Duration, args ...any) {
	if duration >= m.Threshold {
		m.inner.Op(op, duration, args...)
	}
}

func (m *SlowLog) Info(format string, args ...any)  { m.inner.Info(format, args...) }
func (m *SlowLog) Warn(format string, args ...any)  { m.inner.Warn(format, args...) }
func (m *SlowLog) Error(format string, args ...any) { m.inner.Error(format, args...) }

func (m *SlowLog) SetLevel(level logger.LogLevel) { m.inner.SetLevel(level) }

func (m *SlowLog) SetFormat(format logger.LogFormat) { m.inner.SetFormat(format) }

func (m *SlowLog) SetOutput(w io.Writer) { m.inner.SetOutput(w) }

func (m *SlowLog) WithFields(fields map[string]any) logger.Logger {
	return &SlowLog{Threshold: m.Threshold, inner: m.inner.WithFields(fields)}
}
