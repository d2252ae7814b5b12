// Package hooks provides production-ready Hook, Logger, and metrics
// implementations for the codec engines.
package hooks

import (
	"log/slog"
	"sync"
	"time"

	"github.com/Skryldev/go-jpegxl/core"
)

// ── Structured logger adapter ─────────────────────────────────────────────────

// SlogLogger wraps the standard library slog.Logger to satisfy core.Logger.
type SlogLogger struct {
	log *slog.Logger
}

// NewSlogLogger creates a logger backed by slog.
func NewSlogLogger(l *slog.Logger) *SlogLogger { return &SlogLogger{log: l} }

func (s *SlogLogger) Debug(msg string, fields ...interface{}) { s.log.Debug(msg, fields...) }
func (s *SlogLogger) Info(msg string, fields ...interface{})  { s.log.Info(msg, fields...) }
func (s *SlogLogger) Warn(msg string, fields ...interface{})  { s.log.Warn(msg, fields...) }
func (s *SlogLogger) Error(msg string, fields ...interface{}) { s.log.Error(msg, fields...) }

// ── Logging hook ──────────────────────────────────────────────────────────────

// LoggingHook logs before/after each codec phase.
type LoggingHook struct {
	logger core.Logger
}

// NewLoggingHook creates a LoggingHook.
func NewLoggingHook(l core.Logger) *LoggingHook { return &LoggingHook{logger: l} }

func (h *LoggingHook) BeforePhase(phase string) {
	h.logger.Debug("codec.phase.start", "phase", phase)
}

func (h *LoggingHook) AfterPhase(phase string, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("codec.phase.error",
			"phase", phase,
			"duration_ms", d.Milliseconds(),
			"error", err.Error(),
		)
		return
	}
	h.logger.Debug("codec.phase.done",
		"phase", phase,
		"duration_ms", d.Milliseconds(),
	)
}

// ── In-memory metrics collector ───────────────────────────────────────────────

// InMemoryMetrics is a thread-safe core.MetricsCollector that keeps simple
// aggregates, useful for tests and lightweight monitoring.
type InMemoryMetrics struct {
	mu         sync.Mutex
	phaseTime  map[string]time.Duration
	phaseCount map[string]int64
	errCount   map[string]int64
	throughput int64
}

// NewInMemoryMetrics creates an empty collector.
func NewInMemoryMetrics() *InMemoryMetrics {
	return &InMemoryMetrics{
		phaseTime:  make(map[string]time.Duration),
		phaseCount: make(map[string]int64),
		errCount:   make(map[string]int64),
	}
}

func (m *InMemoryMetrics) RecordPhase(phase string, d time.Duration) {
	m.mu.Lock()
	m.phaseTime[phase] += d
	m.phaseCount[phase]++
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordThroughput(bytes int64) {
	m.mu.Lock()
	m.throughput += bytes
	m.mu.Unlock()
}

func (m *InMemoryMetrics) RecordError(phase string, category string) {
	m.mu.Lock()
	m.errCount[phase+"/"+category]++
	m.mu.Unlock()
}

// PhaseCount returns how many times a phase completed successfully.
func (m *InMemoryMetrics) PhaseCount(phase string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.phaseCount[phase]
}

// ErrorCount returns the number of recorded errors for phase/category.
func (m *InMemoryMetrics) ErrorCount(phase, category string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.errCount[phase+"/"+category]
}

// Throughput returns the total bytes processed.
func (m *InMemoryMetrics) Throughput() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.throughput
}

var (
	_ core.Logger           = (*SlogLogger)(nil)
	_ core.Hook             = (*LoggingHook)(nil)
	_ core.MetricsCollector = (*InMemoryMetrics)(nil)
)
