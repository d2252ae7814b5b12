package pool_test

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Skryldev/go-jpegxl/config"
	"github.com/Skryldev/go-jpegxl/core"
	"github.com/Skryldev/go-jpegxl/encoder"
	apperrors "github.com/Skryldev/go-jpegxl/errors"
	"github.com/Skryldev/go-jpegxl/hooks"
	"github.com/Skryldev/go-jpegxl/pool"
)

// ── Test helpers ──────────────────────────────────────────────────────────────

func newFrame(w, h int) *core.FrameBuffer {
	fb := core.NewFrameBuffer(w, h, core.DefaultPixelFormat())
	for i := range fb.Data {
		fb.Data[i] = byte(i)
	}
	return fb
}

func encodeSample(t *testing.T, fb *core.FrameBuffer) []byte {
	t.Helper()
	out, err := encoder.EncodeFrame(fb, encoder.Options{Lossless: true, Speed: encoder.SpeedFalcon})
	if err != nil {
		t.Fatalf("encode sample: %v", err)
	}
	return out
}

func newPool(t *testing.T) *pool.Pool {
	t.Helper()
	cfg := config.Default()
	cfg.WorkerCount = 2
	cfg.QueueSize = 16
	p := pool.New(cfg)
	p.Start()
	t.Cleanup(p.Stop)
	return p
}

// ── Async jobs ────────────────────────────────────────────────────────────────

func TestPool_DecodeJob(t *testing.T) {
	p := newPool(t)
	src := newFrame(4, 4)
	compressed := encodeSample(t, src)

	results := make(chan pool.JobResult, 1)
	id, err := p.Submit(pool.Job{Kind: pool.JobDecode, Data: compressed, ResultCh: results})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if id == "" {
		t.Error("Submit should assign a job ID")
	}

	r := <-results
	if r.Err != nil {
		t.Fatalf("job failed: %v", r.Err)
	}
	if r.JobID != id {
		t.Errorf("JobID = %q, want %q", r.JobID, id)
	}
	if !bytes.Equal(r.Frame.Data, src.Data) {
		t.Error("decoded pixels mismatch")
	}
	if got := p.CompletedCount(); got != 1 {
		t.Errorf("CompletedCount = %d, want 1", got)
	}
}

func TestPool_EncodeJob(t *testing.T) {
	p := newPool(t)

	results := make(chan pool.JobResult, 1)
	if _, err := p.Submit(pool.Job{
		Kind:   pool.JobEncode,
		Frames: []*core.FrameBuffer{newFrame(4, 4)},
		Options: &encoder.Options{
			Lossless: true,
			Speed:    encoder.SpeedFalcon,
		},
		ResultCh: results,
	}); err != nil {
		t.Fatalf("Submit: %v", err)
	}

	r := <-results
	if r.Err != nil {
		t.Fatalf("job failed: %v", r.Err)
	}
	if len(r.Encoded) == 0 {
		t.Error("encode job produced no bytes")
	}
}

func TestPool_JobError(t *testing.T) {
	p := newPool(t)

	results := make(chan pool.JobResult, 1)
	if _, err := p.Submit(pool.Job{Kind: pool.JobDecode, Data: []byte("garbage"), ResultCh: results}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	r := <-results
	if !apperrors.IsKind(r.Err, apperrors.KindInvalidInput) {
		t.Errorf("Err = %v, want KindInvalidInput", r.Err)
	}
	if got := p.ErrorCount(); got != 1 {
		t.Errorf("ErrorCount = %d, want 1", got)
	}
}

func TestPool_QueueFull(t *testing.T) {
	cfg := config.Default()
	cfg.QueueSize = 1
	p := pool.New(cfg)
	// Deliberately not started: nothing drains the queue.

	if _, err := p.Submit(pool.Job{Data: []byte{1}}); err != nil {
		t.Fatalf("first submit: %v", err)
	}
	_, err := p.Submit(pool.Job{Data: []byte{2}})
	if !errors.Is(err, apperrors.ErrPoolQueueFull) {
		t.Errorf("err = %v, want ErrPoolQueueFull", err)
	}
}

func TestPool_StopDrainsQueue(t *testing.T) {
	cfg := config.Default()
	cfg.WorkerCount = 1
	cfg.QueueSize = 16
	p := pool.New(cfg)
	p.Start()

	const jobs = 8
	results := make(chan pool.JobResult, jobs)
	for i := 0; i < jobs; i++ {
		if _, err := p.Submit(pool.Job{Kind: pool.JobDecode, Data: []byte("not an image"), ResultCh: results}); err != nil {
			t.Fatalf("Submit %d: %v", i, err)
		}
	}
	p.Stop()

	// Every accepted job must have delivered its result by the time Stop
	// returns, even the ones still queued when shutdown was signaled.
	for i := 0; i < jobs; i++ {
		select {
		case <-results:
		default:
			t.Fatalf("job %d was dropped at shutdown", i)
		}
	}
}

func TestPool_MaxImageBytes(t *testing.T) {
	cfg := config.Default()
	cfg.WorkerCount = 1
	cfg.MaxImageBytes = 4
	p := pool.New(cfg)
	p.Start()
	t.Cleanup(p.Stop)

	results := make(chan pool.JobResult, 1)
	if _, err := p.Submit(pool.Job{Kind: pool.JobDecode, Data: make([]byte, 10), ResultCh: results}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	r := <-results
	if !apperrors.IsKind(r.Err, apperrors.KindInvalidInput) {
		t.Errorf("Err = %v, want KindInvalidInput", r.Err)
	}
}

func TestPool_JobTimeout(t *testing.T) {
	cfg := config.Default()
	cfg.WorkerCount = 1
	cfg.JobTimeout = time.Nanosecond
	p := pool.New(cfg)
	p.Start()
	t.Cleanup(p.Stop)

	results := make(chan pool.JobResult, 1)
	if _, err := p.Submit(pool.Job{Kind: pool.JobDecode, Data: []byte{0xFF, 0x0A}, ResultCh: results}); err != nil {
		t.Fatalf("Submit: %v", err)
	}
	r := <-results
	if r.Err == nil {
		t.Error("expired timeout should fail the job")
	}
}

// ── Batch fan-out ─────────────────────────────────────────────────────────────

func TestPool_DecodeBatch(t *testing.T) {
	p := newPool(t)

	srcs := []*core.FrameBuffer{newFrame(4, 4), newFrame(8, 8), newFrame(2, 6)}
	inputs := make([][]byte, len(srcs))
	for i, s := range srcs {
		inputs[i] = encodeSample(t, s)
	}
	inputs = append(inputs, []byte("not an image"))

	results, errs := p.DecodeBatch(context.Background(), inputs)
	for i := range srcs {
		if errs[i] != nil {
			t.Fatalf("batch[%d]: %v", i, errs[i])
		}
		if !bytes.Equal(results[i].Frame.Data, srcs[i].Data) {
			t.Errorf("batch[%d] pixel mismatch", i)
		}
	}
	if errs[len(srcs)] == nil {
		t.Error("garbage input should fail its slot without affecting others")
	}
}

func TestPool_EncodeBatch(t *testing.T) {
	p := newPool(t)
	m := hooks.NewInMemoryMetrics()
	p.SetMetrics(m)

	frames := []*core.FrameBuffer{newFrame(4, 4), newFrame(4, 4)}
	outputs, errs := p.EncodeBatch(context.Background(), frames, nil)
	for i, err := range errs {
		if err != nil {
			t.Fatalf("batch[%d]: %v", i, err)
		}
		if len(outputs[i]) == 0 {
			t.Errorf("batch[%d] produced no bytes", i)
		}
	}
	if m.PhaseCount("pool.encode") != 2 {
		t.Errorf("PhaseCount = %d, want 2", m.PhaseCount("pool.encode"))
	}
}

func TestPool_BatchCanceledContext(t *testing.T) {
	p := newPool(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, errs := p.DecodeBatch(ctx, [][]byte{{0xFF, 0x0A}})
	if errs[0] == nil {
		t.Error("canceled context should fail the batch slot")
	}
}
