// Package encoder configures the native engine's multi-stage encode pipeline
// and drains compressed output through a growable-buffer loop.
//
// An Encoder owns exactly one native runtime handle and is strictly
// sequential: calls must not overlap.  It may be moved between goroutines
// between calls; no internal locking is provided.
package encoder

import (
	"time"

	"github.com/Skryldev/go-jpegxl/core"
	apperrors "github.com/Skryldev/go-jpegxl/errors"
	"github.com/Skryldev/go-jpegxl/internal/libjxl"
)

// Encoder is one encode session.  Frames are added in presentation order;
// Encode drains the compressed container.  After a successful Encode the
// session resets itself and can encode the next image; after any native
// error it is closed for good and must be recreated.
type Encoder struct {
	opts Options

	raw       *libjxl.Encoder
	runner    libjxl.ParallelRunner
	resizable *libjxl.ResizableRunner

	started    bool
	frameCount int
	boxesOpen  bool

	width, height int
	frameFormat   core.PixelFormat

	closed bool
	// setupErr records why a post-encode rearm failed, so calls on the
	// resulting closed session report the cause instead of a bare
	// uninitialized error.
	setupErr error
}

// New creates an encode session with the given options.  The worker pool is
// attached here and is immutable for the life of the session.
func New(opts Options) (*Encoder, error) {
	if err := opts.normalize(); err != nil {
		return nil, err
	}

	raw, err := libjxl.NewEncoder()
	if err != nil {
		return nil, err
	}
	e := &Encoder{opts: opts, raw: raw}

	if opts.ResizableRunner {
		r, err := libjxl.NewResizableRunner()
		if err != nil {
			raw.Destroy()
			return nil, err
		}
		e.runner, e.resizable = r, r
	} else {
		r, err := libjxl.NewThreadRunner(opts.Threads)
		if err != nil {
			raw.Destroy()
			return nil, err
		}
		e.runner = r
	}

	if err := e.setup(); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// setup (re)applies session-wide native options after creation or reset.
func (e *Encoder) setup() error {
	if err := e.raw.SetParallelRunner(e.runner); err != nil {
		return err
	}
	if e.opts.UseContainer {
		if err := e.raw.UseContainer(true); err != nil {
			return err
		}
	}
	return nil
}

// Close destroys the native handle and its worker pool.  The pool must
// outlive the handle, so the handle goes first.  Safe to call twice.
func (e *Encoder) Close() {
	if e.closed {
		return
	}
	e.closed = true
	e.raw.Destroy()
	if e.runner != nil {
		e.runner.Destroy()
	}
}

// SetColorEncoding overrides the color encoding to embed.  Only allowed
// before the first frame; options are frozen once encoding starts.
func (e *Encoder) SetColorEncoding(ce *core.ColorEncoding) error {
	if e.closed {
		return e.closedErr("encode.set_color")
	}
	if e.started {
		return apperrors.Wrap(apperrors.CategoryEncode, "encode.set_color", apperrors.ErrEncoderStarted)
	}
	e.opts.Color = ce
	return nil
}

// AddMetadata attaches an Exif or XMP box to the output container.  Must be
// called before the first frame; enables container output implicitly.
func (e *Encoder) AddMetadata(boxType string, data []byte, compress bool) error {
	if e.closed {
		return e.closedErr("encode.add_metadata")
	}
	if e.started {
		return apperrors.Wrap(apperrors.CategoryEncode, "encode.add_metadata", apperrors.ErrEncoderStarted)
	}
	if len(boxType) != 4 {
		return apperrors.New(apperrors.CategoryEncode, apperrors.KindInvalidInput, "encode.add_metadata")
	}
	if len(data) == 0 {
		return apperrors.Wrap(apperrors.CategoryEncode, "encode.add_metadata", apperrors.ErrEmptyInput)
	}
	if !e.opts.UseContainer {
		e.opts.UseContainer = true
		if err := e.raw.UseContainer(true); err != nil {
			return err
		}
	}
	if !e.boxesOpen {
		if err := e.raw.UseBoxes(); err != nil {
			return err
		}
		e.boxesOpen = true
	}
	if boxType == "Exif" {
		// The Exif box payload starts with a 4-byte TIFF header offset.
		data = append([]byte{0, 0, 0, 0}, data...)
	}
	return e.fatal(e.raw.AddBox(boxType, data, compress))
}

// AddFrame feeds one frame.  The first frame fixes the image geometry,
// pixel layout, and every encoder option; subsequent frames must match and
// are only legal for animated sessions.  The frame's buffer is borrowed for
// the duration of the call.
func (e *Encoder) AddFrame(frame *core.FrameBuffer) error {
	return e.AddFrameWithDuration(frame, 1)
}

// AddFrameWithDuration is AddFrame with an explicit duration in timebase
// ticks (animated sessions only; ignored for still images).
func (e *Encoder) AddFrameWithDuration(frame *core.FrameBuffer, ticks uint32) error {
	if e.closed {
		return e.closedErr("encode.add_frame")
	}
	if err := frame.Validate(); err != nil {
		return apperrors.Wrap(apperrors.CategoryEncode, "encode.add_frame", err)
	}

	if !e.started {
		if err := e.fatal(e.beginImage(frame)); err != nil {
			return err
		}
	} else {
		if e.opts.Animation == nil {
			return apperrors.Wrap(apperrors.CategoryEncode, "encode.add_frame", apperrors.ErrEncoderStarted)
		}
		if frame.Width != e.width || frame.Height != e.height || frame.Format != e.frameFormat {
			return apperrors.Wrap(apperrors.CategoryEncode, "encode.add_frame", apperrors.ErrBufferSizeMismatch)
		}
	}

	if e.opts.Animation != nil {
		if err := e.fatal(e.raw.SetFrameDuration(ticks)); err != nil {
			return err
		}
	}
	if err := e.fatal(e.raw.AddImageFrame(frame.Format, frame.Data)); err != nil {
		return err
	}
	e.frameCount++
	return nil
}

// beginImage pushes the image-wide header derived from the first frame and
// freezes the options.
func (e *Encoder) beginImage(frame *core.FrameBuffer) error {
	bits, exponent := sampleBits(frame.Format.DataType)
	hasAlpha := frame.Format.NumChannels == 2 || frame.Format.NumChannels == 4
	colorChannels := uint32(frame.Format.NumChannels)
	if hasAlpha {
		colorChannels--
	}

	info := libjxl.EncodeInfo{
		Width:                 uint32(frame.Width),
		Height:                uint32(frame.Height),
		BitsPerSample:         bits,
		ExponentBitsPerSample: exponent,
		NumColorChannels:      colorChannels,
		HasAlpha:              hasAlpha,
		UsesOriginalProfile:   e.opts.UsesOriginalProfile,
	}
	if e.opts.Animation != nil {
		info.Animation = &libjxl.AnimationInfo{
			TPSNumerator:   e.opts.Animation.TPSNumerator,
			TPSDenominator: e.opts.Animation.TPSDenominator,
			NumLoops:       e.opts.Animation.NumLoops,
		}
	}
	if err := e.raw.SetBasicInfo(info); err != nil {
		return err
	}

	color := e.opts.Color
	if color == nil {
		color = core.SRGB(colorChannels == 1)
	}
	if err := e.raw.SetColorEncoding(color); err != nil {
		return err
	}

	if err := e.raw.SetEffort(int(e.opts.Speed)); err != nil {
		return err
	}
	if err := e.raw.SetDistance(e.opts.Distance); err != nil {
		return err
	}
	if err := e.raw.SetLossless(e.opts.Lossless); err != nil {
		return err
	}
	if e.opts.DecodingSpeed > 0 {
		if err := e.raw.SetDecodingSpeed(e.opts.DecodingSpeed); err != nil {
			return err
		}
	}

	if e.resizable != nil {
		e.resizable.SetDimensions(uint32(frame.Width), uint32(frame.Height))
	}

	e.started = true
	e.width, e.height = frame.Width, frame.Height
	e.frameFormat = frame.Format
	return nil
}

// Encode closes the input, drains the native pipeline into a growable
// buffer, and returns the compressed container bytes with ownership
// transferred to the caller.  On success the session resets for reuse; on
// any native error it is aborted with no partial output.
func (e *Encoder) Encode() ([]byte, error) {
	start := time.Now()
	e.beforePhase("encode")

	data, err := e.encodeInner()

	elapsed := time.Since(start)
	e.afterPhase("encode", elapsed, err)
	if e.opts.Metrics != nil {
		if err != nil {
			e.opts.Metrics.RecordError("encode", string(apperrors.CategoryEncode))
		} else {
			e.opts.Metrics.RecordPhase("encode", elapsed)
			e.opts.Metrics.RecordThroughput(int64(len(data)))
		}
	}
	return data, err
}

func (e *Encoder) encodeInner() ([]byte, error) {
	if e.closed {
		return nil, e.closedErr("encode")
	}
	if !e.started || e.frameCount == 0 {
		return nil, apperrors.New(apperrors.CategoryEncode, apperrors.KindUninitialized, "encode")
	}

	if e.boxesOpen {
		e.raw.CloseBoxes()
		e.boxesOpen = false
	}
	e.raw.CloseInput()

	if err := e.fatal(e.raw.InitOutput(e.opts.InitBufferSize)); err != nil {
		return nil, err
	}
	for {
		switch st := e.raw.ProcessOutput(); st {
		case libjxl.EncSuccess:
			data := e.raw.TakeOutput()
			e.reset()
			return data, nil
		case libjxl.EncNeedMoreOutput:
			// Grow and retry the same step; bytes already written stay put.
			if err := e.fatal(e.raw.GrowOutput()); err != nil {
				return nil, err
			}
		default:
			return nil, e.fatal(e.raw.LastError("encode.drain"))
		}
	}
}

// reset rearms the session for the next image after a successful encode.
func (e *Encoder) reset() {
	e.raw.Reset()
	e.started = false
	e.frameCount = 0
	e.width, e.height = 0, 0
	// Session-wide options survive a native reset only if reapplied.
	if err := e.setup(); err != nil {
		e.setupErr = apperrors.Wrap(apperrors.CategoryEncode, "encode.reset", err)
		if e.opts.Logger != nil {
			e.opts.Logger.Error("encode.reset.error", "error", err.Error())
		}
		e.Close()
	}
}

// closedErr reports why the session is unusable: the recorded rearm failure
// when one exists, the plain uninitialized kind otherwise.
func (e *Encoder) closedErr(op string) error {
	if e.setupErr != nil {
		return apperrors.Wrap(apperrors.CategoryEncode, op, e.setupErr)
	}
	return apperrors.New(apperrors.CategoryEncode, apperrors.KindUninitialized, op)
}

// fatal closes the session when err is a native failure, per the
// no-partial-output contract.  Non-native contract errors (frozen options,
// size mismatches) pass through without poisoning the session.
func (e *Encoder) fatal(err error) error {
	if err == nil {
		return nil
	}
	switch apperrors.KindOf(err) {
	case apperrors.KindGeneric, apperrors.KindAllocationFailed,
		apperrors.KindInvalidInput, apperrors.KindNotImplemented:
		e.Close()
	}
	return err
}

func (e *Encoder) beforePhase(phase string) {
	for _, h := range e.opts.Hooks {
		h.BeforePhase(phase)
	}
	if e.opts.Logger != nil {
		e.opts.Logger.Debug("encode.start", "phase", phase, "frames", e.frameCount)
	}
}

func (e *Encoder) afterPhase(phase string, elapsed time.Duration, err error) {
	for _, h := range e.opts.Hooks {
		h.AfterPhase(phase, elapsed, err)
	}
	if e.opts.Logger == nil {
		return
	}
	if err != nil {
		e.opts.Logger.Error("encode.error", "phase", phase, "error", err.Error())
	} else {
		e.opts.Logger.Debug("encode.done", "phase", phase, "duration_ms", elapsed.Milliseconds())
	}
}

// sampleBits maps a sample type to the bit depth the native header expects.
func sampleBits(t core.DataType) (bits, exponent uint32) {
	switch t {
	case core.TypeUint8:
		return 8, 0
	case core.TypeUint16:
		return 16, 0
	case core.TypeFloat16:
		return 16, 5
	default:
		return 32, 8
	}
}

// EncodeFrame is the one-shot convenience: a fresh session, one frame, one
// drain, teardown on every path.
func EncodeFrame(frame *core.FrameBuffer, opts Options) ([]byte, error) {
	e, err := New(opts)
	if err != nil {
		return nil, err
	}
	defer e.Close()
	if err := e.AddFrame(frame); err != nil {
		return nil, err
	}
	return e.Encode()
}

// EncodeFrames encodes a multi-frame (animated) image in presentation
// order.  opts.Animation defaults to a 10 ticks-per-second timebase when
// unset and more than one frame is supplied.
func EncodeFrames(frames []*core.FrameBuffer, opts Options) ([]byte, error) {
	if len(frames) == 0 {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "encode.frames", apperrors.ErrEmptyInput)
	}
	if len(frames) > 1 && opts.Animation == nil {
		opts.Animation = &Animation{TPSNumerator: 10, TPSDenominator: 1}
	}
	e, err := New(opts)
	if err != nil {
		return nil, err
	}
	defer e.Close()
	for _, f := range frames {
		if err := e.AddFrame(f); err != nil {
			return nil, err
		}
	}
	return e.Encode()
}
