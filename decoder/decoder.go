// Package decoder drives the native engine's pull-based decode event loop
// and exposes it as a safe, resumable API: one-shot decoding of a complete
// buffer, or a streaming session fed chunk by chunk.
//
// A Decoder owns exactly one native runtime handle and is strictly
// sequential: calls must not overlap.  It may be moved between goroutines
// between calls; no internal locking is provided.
package decoder

import (
	"time"

	"github.com/Skryldev/go-jpegxl/core"
	apperrors "github.com/Skryldev/go-jpegxl/errors"
	"github.com/Skryldev/go-jpegxl/internal/libjxl"
)

type options struct {
	pixelFormat     *core.PixelFormat
	iccProfile      bool
	keepOrientation bool
	unpremulAlpha   bool
	coalescing      bool
	threads         int
	resizable       bool
	logger          core.Logger
	hooks           []core.Hook
	metrics         core.MetricsCollector
}

// Option configures a Decoder at construction time.
type Option func(*options)

// WithPixelFormat fixes the output pixel layout.  Without it the decoder
// infers a layout from the image's own bit depth and channel count.
func WithPixelFormat(f core.PixelFormat) Option {
	return func(o *options) { o.pixelFormat = &f }
}

// WithICCProfile controls whether the embedded ICC profile is extracted.
func WithICCProfile(retrieve bool) Option {
	return func(o *options) { o.iccProfile = retrieve }
}

// WithKeepOrientation skips reorientation and reports the orientation tag in
// BasicInfo instead.
func WithKeepOrientation() Option {
	return func(o *options) { o.keepOrientation = true }
}

// WithUnpremultipliedAlpha requests unpremultiplied alpha output.
func WithUnpremultipliedAlpha() Option {
	return func(o *options) { o.unpremulAlpha = true }
}

// WithoutCoalescing disables animation frame coalescing.
func WithoutCoalescing() Option {
	return func(o *options) { o.coalescing = false }
}

// WithThreads sets the native worker pool size; 0 uses the engine default.
func WithThreads(n int) Option {
	return func(o *options) { o.threads = n }
}

// WithResizableRunner uses the resizable worker pool, which sizes itself to
// each image's dimensions once known.
func WithResizableRunner() Option {
	return func(o *options) { o.resizable = true }
}

// WithLogger attaches a structured logger.
func WithLogger(l core.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithHook registers an observer around decode operations.
func WithHook(h core.Hook) Option {
	return func(o *options) { o.hooks = append(o.hooks, h) }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m core.MetricsCollector) Option {
	return func(o *options) { o.metrics = m }
}

// Decoder is a reusable decode session factory bound to one native runtime
// handle.  Reset between images re-initializes native state without
// reallocating the handle.
type Decoder struct {
	opts options

	raw       *libjxl.Decoder
	runner    libjxl.ParallelRunner
	resizable *libjxl.ResizableRunner

	session *Session
	closed  bool
}

// New creates a Decoder.
func New(opts ...Option) (*Decoder, error) {
	o := options{iccProfile: true, coalescing: true}
	for _, opt := range opts {
		opt(&o)
	}

	raw, err := libjxl.NewDecoder()
	if err != nil {
		return nil, err
	}

	d := &Decoder{opts: o, raw: raw}
	if o.resizable {
		r, err := libjxl.NewResizableRunner()
		if err != nil {
			raw.Destroy()
			return nil, err
		}
		d.runner, d.resizable = r, r
	} else {
		r, err := libjxl.NewThreadRunner(o.threads)
		if err != nil {
			raw.Destroy()
			return nil, err
		}
		d.runner = r
	}

	if err := d.setup(); err != nil {
		d.Close()
		return nil, err
	}
	return d, nil
}

// setup (re)applies subscriptions and options after creation or a native
// reset, which clears them.
func (d *Decoder) setup() error {
	if err := d.raw.SubscribeEvents(true, d.opts.iccProfile, true, true); err != nil {
		return err
	}
	if err := d.raw.SetParallelRunner(d.runner); err != nil {
		return err
	}
	d.raw.SetKeepOrientation(d.opts.keepOrientation)
	d.raw.SetUnpremultiplyAlpha(d.opts.unpremulAlpha)
	d.raw.SetCoalescing(d.opts.coalescing)
	return nil
}

// Close destroys the native handle and its worker pool.  The pool must
// outlive the handle, so the handle goes first.  Safe to call twice.
func (d *Decoder) Close() {
	if d.closed {
		return
	}
	d.closed = true
	d.session = nil
	d.raw.Destroy()
	if d.runner != nil {
		d.runner.Destroy()
	}
}

// Reset makes the Decoder reusable for a new image.  The native handle is
// kept; only its internal state is re-initialized.
func (d *Decoder) Reset() error {
	if d.closed {
		return apperrors.New(apperrors.CategoryDecode, apperrors.KindUninitialized, "decoder.reset")
	}
	d.session = nil
	d.raw.Reset()
	return d.setup()
}

// NewSession starts a streaming decode.  Only one session may be active per
// Decoder; starting a new one resets the previous.
func (d *Decoder) NewSession() (*Session, error) {
	if d.closed {
		return nil, apperrors.New(apperrors.CategoryDecode, apperrors.KindUninitialized, "decoder.session")
	}
	if d.session != nil {
		if err := d.Reset(); err != nil {
			return nil, err
		}
	}
	d.session = &Session{d: d}
	return d.session, nil
}

// Decode decodes a complete image from data, allocating the output frame
// buffer.  Zero-length input fails with the invalid-input kind; input that
// begins a valid signature but ends early fails with the truncated kind.
func (d *Decoder) Decode(data []byte) (*core.BasicInfo, *core.FrameBuffer, error) {
	return d.decode(data, nil)
}

// DecodeInto decodes into a caller-supplied buffer.  The buffer length is
// validated against the engine-reported size before any pointer crosses the
// native boundary.
func (d *Decoder) DecodeInto(data []byte, buf []byte) (*core.BasicInfo, *core.FrameBuffer, error) {
	if len(buf) == 0 {
		return nil, nil, apperrors.Wrap(apperrors.CategoryDecode, "decode.into", apperrors.ErrEmptyInput)
	}
	return d.decode(data, buf)
}

func (d *Decoder) decode(data []byte, into []byte) (*core.BasicInfo, *core.FrameBuffer, error) {
	start := time.Now()
	d.beforePhase("decode")

	info, frame, err := d.decodeInner(data, into)

	elapsed := time.Since(start)
	d.afterPhase("decode", elapsed, err)
	if d.opts.metrics != nil {
		if err != nil {
			d.opts.metrics.RecordError("decode", string(apperrors.CategoryDecode))
		} else {
			d.opts.metrics.RecordPhase("decode", elapsed)
			d.opts.metrics.RecordThroughput(int64(len(data)))
		}
	}
	return info, frame, err
}

func (d *Decoder) decodeInner(data []byte, into []byte) (*core.BasicInfo, *core.FrameBuffer, error) {
	if len(data) == 0 {
		return nil, nil, apperrors.New(apperrors.CategoryDecode, apperrors.KindInvalidInput, "decode")
	}
	// Distinguish "not this format" from "this format but incomplete" before
	// the event loop starts.
	switch libjxl.SignatureCheck(data) {
	case core.SignatureInvalid:
		return nil, nil, apperrors.New(apperrors.CategoryDecode, apperrors.KindInvalidInput, "decode")
	case core.SignatureNeedMoreBytes:
		return nil, nil, apperrors.New(apperrors.CategoryDecode, apperrors.KindTruncatedInput, "decode")
	}

	s, err := d.NewSession()
	if err != nil {
		return nil, nil, err
	}
	s.into = into
	if err := s.Feed(data); err != nil {
		return nil, nil, err
	}
	s.CloseInput()

	for {
		ev, err := s.Next()
		if err != nil {
			return nil, nil, err
		}
		switch ev {
		case core.EventFullFrame, core.EventFinished:
			if s.frame == nil {
				return nil, nil, apperrors.New(apperrors.CategoryDecode, apperrors.KindTruncatedInput, "decode")
			}
			return s.info, s.frame, nil
		case core.EventNeedMoreInput:
			// Input is closed, so the loop cannot make progress.
			return nil, nil, apperrors.New(apperrors.CategoryDecode, apperrors.KindTruncatedInput, "decode")
		}
	}
}

func (d *Decoder) beforePhase(phase string) {
	for _, h := range d.opts.hooks {
		h.BeforePhase(phase)
	}
	if d.opts.logger != nil {
		d.opts.logger.Debug("decode.start", "phase", phase)
	}
}

func (d *Decoder) afterPhase(phase string, elapsed time.Duration, err error) {
	for _, h := range d.opts.hooks {
		h.AfterPhase(phase, elapsed, err)
	}
	if d.opts.logger == nil {
		return
	}
	if err != nil {
		d.opts.logger.Error("decode.error", "phase", phase, "error", err.Error())
	} else {
		d.opts.logger.Debug("decode.done", "phase", phase, "duration_ms", elapsed.Milliseconds())
	}
}

// inferPixelFormat picks an output layout matching the image's own storage:
// bit depth maps to the narrowest sample type that holds it, channel count is
// color channels plus alpha.
func inferPixelFormat(info *core.BasicInfo) core.PixelFormat {
	channels := int(info.NumColorChannels)
	if info.HasAlpha {
		channels++
	}
	var dt core.DataType
	switch {
	case info.ExponentBitsPerSample > 0 && info.BitsPerSample <= 16:
		dt = core.TypeFloat16
	case info.ExponentBitsPerSample > 0:
		dt = core.TypeFloat32
	case info.BitsPerSample <= 8:
		dt = core.TypeUint8
	default:
		dt = core.TypeUint16
	}
	return core.PixelFormat{NumChannels: channels, DataType: dt}
}
