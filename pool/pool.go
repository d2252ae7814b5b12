// Package pool runs codec work across a fixed set of workers.  Each worker
// owns its native handles outright, so no session is ever shared between
// goroutines; jobs are distributed over a bounded queue.
package pool

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/Skryldev/go-jpegxl/config"
	"github.com/Skryldev/go-jpegxl/core"
	"github.com/Skryldev/go-jpegxl/decoder"
	"github.com/Skryldev/go-jpegxl/encoder"
	apperrors "github.com/Skryldev/go-jpegxl/errors"
)

// JobKind selects the operation a Job performs.
type JobKind int

const (
	JobDecode JobKind = iota
	JobEncode
)

// Job is one unit of codec work.  Data is the input for decode jobs; Frames
// (plus optional Options) for encode jobs.
type Job struct {
	ID   string
	Kind JobKind
	Ctx  context.Context

	Data []byte

	Frames  []*core.FrameBuffer
	Options *encoder.Options

	ResultCh chan JobResult
}

// JobResult carries the outcome of an async Job.
type JobResult struct {
	JobID string

	Info  *core.BasicInfo
	Frame *core.FrameBuffer

	Encoded []byte

	Err error
}

// Pool is the async orchestrator.  It is safe for concurrent use.
type Pool struct {
	cfg     config.Config
	logger  core.Logger
	metrics core.MetricsCollector

	jobQueue chan Job
	wg       sync.WaitGroup
	once     sync.Once
	shutdown chan struct{}

	// Atomic counters for lightweight internal metrics.
	completedCount int64
	errorCount     int64
}

// New creates a Pool with the given config.  Call Start() before submitting
// jobs; call Stop() when done.
func New(cfg config.Config) *Pool {
	queueSize := cfg.QueueSize
	if queueSize <= 0 {
		queueSize = 64
	}
	return &Pool{
		cfg:      cfg,
		jobQueue: make(chan Job, queueSize),
		shutdown: make(chan struct{}),
	}
}

// SetLogger attaches a structured logger.
func (p *Pool) SetLogger(l core.Logger) { p.logger = l }

// SetMetrics attaches a metrics collector.
func (p *Pool) SetMetrics(m core.MetricsCollector) { p.metrics = m }

// Start launches the workers.  It is idempotent.
func (p *Pool) Start() {
	p.once.Do(func() {
		workerCount := p.cfg.WorkerCount
		if workerCount <= 0 {
			workerCount = runtime.NumCPU()
		}
		for i := 0; i < workerCount; i++ {
			p.wg.Add(1)
			go p.worker()
		}
	})
}

// Stop signals all workers and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	close(p.shutdown)
	p.wg.Wait()
}

// Submit enqueues an async job.  A missing ID is filled in; a full queue
// fails immediately instead of blocking.
func (p *Pool) Submit(job Job) (string, error) {
	if job.ID == "" {
		job.ID = uuid.NewString()
	}
	if job.Ctx == nil {
		job.Ctx = context.Background()
	}
	select {
	case p.jobQueue <- job:
		return job.ID, nil
	default:
		return "", apperrors.Wrap(apperrors.CategoryPool, "pool.submit", apperrors.ErrPoolQueueFull)
	}
}

// DecodeBatch decodes multiple images concurrently (fan-out / fan-in).
// Results and errors are positional.
func (p *Pool) DecodeBatch(ctx context.Context, inputs [][]byte) ([]JobResult, []error) {
	results := make([]JobResult, len(inputs))
	errs := make([]error, len(inputs))
	var wg sync.WaitGroup

	for i, data := range inputs {
		wg.Add(1)
		go func(idx int, in []byte) {
			defer wg.Done()
			r := p.runDecode(ctx, in)
			results[idx] = r
			errs[idx] = r.Err
		}(i, data)
	}
	wg.Wait()
	return results, errs
}

// EncodeBatch encodes each frame as a separate image, concurrently.
func (p *Pool) EncodeBatch(ctx context.Context, frames []*core.FrameBuffer, opts *encoder.Options) ([][]byte, []error) {
	outputs := make([][]byte, len(frames))
	errs := make([]error, len(frames))
	var wg sync.WaitGroup

	for i, frame := range frames {
		wg.Add(1)
		go func(idx int, fb *core.FrameBuffer) {
			defer wg.Done()
			r := p.runEncode(ctx, []*core.FrameBuffer{fb}, opts)
			outputs[idx] = r.Encoded
			errs[idx] = r.Err
		}(i, frame)
	}
	wg.Wait()
	return outputs, errs
}

// ── worker internals ──────────────────────────────────────────────────────────

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case <-p.shutdown:
			// Jobs accepted before the shutdown signal still get processed;
			// Submit promised them a result.
			for {
				select {
				case job := <-p.jobQueue:
					p.processJob(job)
				default:
					return
				}
			}
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			p.processJob(job)
		}
	}
}

func (p *Pool) processJob(job Job) {
	ctx := job.Ctx
	if timeout := p.cfg.JobTimeout; timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	var result JobResult
	switch job.Kind {
	case JobEncode:
		result = p.runEncode(ctx, job.Frames, job.Options)
	default:
		result = p.runDecode(ctx, job.Data)
	}
	result.JobID = job.ID

	if result.Err != nil {
		atomic.AddInt64(&p.errorCount, 1)
		if p.logger != nil {
			p.logger.Error("pool.job.error", "job_id", job.ID, "error", result.Err.Error())
		}
	} else {
		atomic.AddInt64(&p.completedCount, 1)
	}

	if job.ResultCh != nil {
		job.ResultCh <- result
	}
}

func (p *Pool) runDecode(ctx context.Context, data []byte) JobResult {
	if err := ctx.Err(); err != nil {
		return JobResult{Err: apperrors.Wrap(apperrors.CategoryPool, "pool.decode", err)}
	}
	if max := p.cfg.MaxImageBytes; max > 0 && int64(len(data)) > max {
		return JobResult{Err: apperrors.New(apperrors.CategoryPool, apperrors.KindInvalidInput, "pool.decode")}
	}

	start := time.Now()
	d, err := decoder.New(decoder.WithThreads(p.cfg.Threads))
	if err != nil {
		return JobResult{Err: err}
	}
	defer d.Close()

	info, frame, err := d.Decode(data)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordError("pool.decode", string(apperrors.CategoryDecode))
		}
		return JobResult{Err: err}
	}
	if p.metrics != nil {
		p.metrics.RecordPhase("pool.decode", time.Since(start))
		p.metrics.RecordThroughput(int64(len(data)))
	}
	return JobResult{Info: info, Frame: frame}
}

func (p *Pool) runEncode(ctx context.Context, frames []*core.FrameBuffer, opts *encoder.Options) JobResult {
	if err := ctx.Err(); err != nil {
		return JobResult{Err: apperrors.Wrap(apperrors.CategoryPool, "pool.encode", err)}
	}
	if len(frames) == 0 {
		return JobResult{Err: apperrors.Wrap(apperrors.CategoryPool, "pool.encode", apperrors.ErrEmptyInput)}
	}

	o, err := p.encodeOptions(opts)
	if err != nil {
		return JobResult{Err: err}
	}

	start := time.Now()
	out, err := encoder.EncodeFrames(frames, o)
	if err != nil {
		if p.metrics != nil {
			p.metrics.RecordError("pool.encode", string(apperrors.CategoryEncode))
		}
		return JobResult{Err: err}
	}
	if p.metrics != nil {
		p.metrics.RecordPhase("pool.encode", time.Since(start))
		p.metrics.RecordThroughput(int64(len(out)))
	}
	return JobResult{Encoded: out}
}

// encodeOptions resolves per-job options against the pool's config defaults.
func (p *Pool) encodeOptions(opts *encoder.Options) (encoder.Options, error) {
	if opts != nil {
		return *opts, nil
	}
	o := encoder.Options{
		Distance:       p.cfg.DefaultDistance,
		Threads:        p.cfg.Threads,
		InitBufferSize: p.cfg.InitBufferSize,
	}
	if p.cfg.DefaultSpeed != "" {
		s, err := encoder.ParseSpeed(p.cfg.DefaultSpeed)
		if err != nil {
			return encoder.Options{}, apperrors.Wrap(apperrors.CategoryConfig, "pool.options", err)
		}
		o.Speed = s
	}
	return o, nil
}

// CompletedCount returns the total number of successfully finished jobs.
func (p *Pool) CompletedCount() int64 { return atomic.LoadInt64(&p.completedCount) }

// ErrorCount returns the total number of failed jobs.
func (p *Pool) ErrorCount() int64 { return atomic.LoadInt64(&p.errorCount) }
