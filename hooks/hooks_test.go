package hooks

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestInMemoryMetrics(t *testing.T) {
	m := NewInMemoryMetrics()
	m.RecordPhase("decode", 10*time.Millisecond)
	m.RecordPhase("decode", 5*time.Millisecond)
	m.RecordThroughput(1024)
	m.RecordThroughput(512)
	m.RecordError("decode", "decode")

	if got := m.PhaseCount("decode"); got != 2 {
		t.Errorf("PhaseCount = %d, want 2", got)
	}
	if got := m.Throughput(); got != 1536 {
		t.Errorf("Throughput = %d, want 1536", got)
	}
	if got := m.ErrorCount("decode", "decode"); got != 1 {
		t.Errorf("ErrorCount = %d, want 1", got)
	}
	if got := m.ErrorCount("encode", "encode"); got != 0 {
		t.Errorf("ErrorCount for unrecorded phase = %d, want 0", got)
	}
}

func TestInMemoryMetrics_Concurrent(t *testing.T) {
	m := NewInMemoryMetrics()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordPhase("encode", time.Millisecond)
			m.RecordThroughput(10)
		}()
	}
	wg.Wait()
	if got := m.PhaseCount("encode"); got != 50 {
		t.Errorf("PhaseCount = %d, want 50", got)
	}
	if got := m.Throughput(); got != 500 {
		t.Errorf("Throughput = %d, want 500", got)
	}
}

func TestLoggingHook(t *testing.T) {
	var buf bytes.Buffer
	logger := NewSlogLogger(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	h := NewLoggingHook(logger)

	h.BeforePhase("encode")
	h.AfterPhase("encode", 3*time.Millisecond, nil)
	out := buf.String()
	if !strings.Contains(out, "codec.phase.start") || !strings.Contains(out, "codec.phase.done") {
		t.Errorf("log output missing phase records: %q", out)
	}

	buf.Reset()
	h.AfterPhase("decode", time.Millisecond, errors.New("boom"))
	if !strings.Contains(buf.String(), "codec.phase.error") {
		t.Errorf("error log missing: %q", buf.String())
	}
	if !strings.Contains(buf.String(), "boom") {
		t.Errorf("error cause missing: %q", buf.String())
	}
}
