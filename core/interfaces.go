package core

import "time"

// Logger is a minimal structured logging interface.  hooks.SlogLogger adapts
// log/slog to it.
type Logger interface {
	Debug(msg string, fields ...interface{})
	Info(msg string, fields ...interface{})
	Warn(msg string, fields ...interface{})
	Error(msg string, fields ...interface{})
}

// Hook is an optional observer invoked around codec phases (decode events,
// encode drain iterations).  Implementations must be safe for concurrent use.
type Hook interface {
	BeforePhase(phase string)
	AfterPhase(phase string, d time.Duration, err error)
}

// MetricsCollector receives performance observations from the engines.
type MetricsCollector interface {
	RecordPhase(phase string, d time.Duration)
	RecordThroughput(bytes int64)
	RecordError(phase string, category string)
}
