package decoder

import (
	"github.com/Skryldev/go-jpegxl/core"
	apperrors "github.com/Skryldev/go-jpegxl/errors"
	"github.com/Skryldev/go-jpegxl/internal/libjxl"
	"github.com/Skryldev/go-jpegxl/utils"
)

type sessionState int

const (
	stateAwaitingInput sessionState = iota
	stateFinished
	stateClosed
)

// Session is one streaming decode: a lazy, finite, non-restartable sequence
// of events driven by alternating Feed and Next calls.  When Next reports
// EventNeedMoreInput the caller supplies the next chunk and the loop resumes
// from the same cursor; there is no backward seeking.
//
// A session that hits any native error is left closed and must not be
// reused; Reset the owning Decoder instead.
type Session struct {
	d *Decoder

	// pending holds bytes fed but not yet consumed by the native engine.
	pending []byte
	// attached reports whether pending is currently handed to the engine.
	attached bool
	// inputClosed is the caller's end-of-stream declaration; nativeClosed is
	// set once the engine has been told, which must happen after the final
	// chunk is attached because the engine rejects input set after its close.
	inputClosed  bool
	nativeClosed bool

	state sessionState
	err   error

	info      *core.BasicInfo
	color     *core.ColorEncoding
	frame     *core.FrameBuffer
	outFormat core.PixelFormat

	// into is an optional caller-supplied output buffer.
	into []byte
}

// Feed appends the next chunk of compressed input.  The chunk is copied, so
// the caller may reuse its slice immediately.
func (s *Session) Feed(chunk []byte) error {
	if s.err != nil {
		return s.err
	}
	if s.state != stateAwaitingInput {
		return apperrors.Wrap(apperrors.CategoryDecode, "session.feed", apperrors.ErrSessionClosed)
	}
	if s.inputClosed {
		return apperrors.New(apperrors.CategoryDecode, apperrors.KindUninitialized, "session.feed")
	}
	if len(chunk) == 0 {
		return apperrors.Wrap(apperrors.CategoryDecode, "session.feed", apperrors.ErrEmptyInput)
	}
	if len(s.pending) == 0 {
		s.pending = utils.CloneBytes(chunk)
	} else {
		s.pending = append(s.pending, chunk...)
	}
	return nil
}

// CloseInput declares the end of the input stream.  After this, an engine
// request for more input means the codestream is truncated.  The native
// close is deferred to Next so it lands after the final chunk is attached.
func (s *Session) CloseInput() {
	if s.state != stateAwaitingInput {
		return
	}
	s.inputClosed = true
}

// BasicInfo returns the metadata snapshot, available after EventBasicInfo.
func (s *Session) BasicInfo() *core.BasicInfo { return s.info }

// ColorEncoding returns the image's color description, available after
// EventColorEncoding: either an ICC blob or a structured encoding, never
// both.  Nil when ICC retrieval is disabled or not yet reached.
func (s *Session) ColorEncoding() *core.ColorEncoding { return s.color }

// Frame returns the most recently completed frame, available after
// EventFullFrame.  Animated images overwrite it on each full-frame event, so
// callers keeping earlier frames must copy them out between events.
func (s *Session) Frame() *core.FrameBuffer { return s.frame }

// Next advances the event loop until something reportable happens.  After
// EventFinished (or any error) the sequence is over; further calls fail with
// the uninitialized kind.
func (s *Session) Next() (core.Event, error) {
	if s.err != nil {
		return 0, s.err
	}
	switch s.state {
	case stateFinished, stateClosed:
		return 0, apperrors.Wrap(apperrors.CategoryDecode, "session.next", apperrors.ErrSessionClosed)
	}

	raw := s.d.raw
	for {
		if !s.nativeClosed {
			if len(s.pending) > 0 && !s.attached {
				if err := raw.SetInput(s.pending); err != nil {
					return 0, s.fail(apperrors.Wrap(apperrors.CategoryDecode, "session.next", err))
				}
				s.attached = true
			}
			if s.inputClosed {
				// The last chunk is in; the engine may now see end of stream.
				// After this point the chunk stays attached: the engine
				// rejects any further SetInput.
				raw.CloseInput()
				s.nativeClosed = true
			}
		}
		st := raw.ProcessInput()
		if s.attached && !s.nativeClosed {
			remaining := raw.ReleaseInput()
			s.pending = s.pending[len(s.pending)-remaining:]
			s.attached = false
		}

		switch st {
		case libjxl.DecError:
			return 0, s.fail(libjxl.TranslateDecoder("session.next", st))

		case libjxl.DecNeedMoreInput:
			if s.inputClosed {
				return 0, s.fail(apperrors.New(apperrors.CategoryDecode, apperrors.KindTruncatedInput, "session.next"))
			}
			return core.EventNeedMoreInput, nil

		case libjxl.DecBasicInfo:
			info, err := raw.BasicInfo()
			if err != nil {
				return 0, s.fail(err)
			}
			s.info = info
			if s.d.resizable != nil {
				s.d.resizable.SetDimensions(info.Width, info.Height)
			}
			if s.d.opts.pixelFormat != nil {
				s.outFormat = *s.d.opts.pixelFormat
			} else {
				s.outFormat = inferPixelFormat(info)
			}
			return core.EventBasicInfo, nil

		case libjxl.DecColorEncoding:
			if err := s.captureColor(); err != nil {
				return 0, s.fail(err)
			}
			return core.EventColorEncoding, nil

		case libjxl.DecFrame:
			return core.EventFrameHeader, nil

		case libjxl.DecNeedImageOutBuffer:
			if err := s.prepareOutput(); err != nil {
				return 0, s.fail(err)
			}
			// Internal bookkeeping, not a caller-visible event.

		case libjxl.DecFullImage:
			if err := s.captureFrame(); err != nil {
				return 0, s.fail(err)
			}
			return core.EventFullFrame, nil

		case libjxl.DecSuccess:
			s.state = stateFinished
			return core.EventFinished, nil

		default:
			return 0, s.fail(libjxl.TranslateDecoder("session.next", st))
		}
	}
}

func (s *Session) captureColor() error {
	structured, err := s.d.raw.EncodedColorProfile()
	if err != nil {
		return err
	}
	if structured != nil {
		s.color = structured
		return nil
	}
	icc, err := s.d.raw.ICCProfile()
	if err != nil {
		return err
	}
	if len(icc) > 0 {
		s.color = &core.ColorEncoding{ICC: icc}
	}
	return nil
}

// prepareOutput sizes and registers the pixel output buffer.  A too-small
// caller-supplied buffer is rejected here, before any pointer reaches the
// native engine.
func (s *Session) prepareOutput() error {
	size, err := s.d.raw.ImageOutBufferSize(s.outFormat)
	if err != nil {
		return err
	}
	if s.into != nil && len(s.into) < size {
		return apperrors.Wrap(apperrors.CategoryDecode, "session.out_buffer", apperrors.ErrBufferSizeMismatch)
	}
	return s.d.raw.SetImageOutBuffer(s.outFormat, size)
}

func (s *Session) captureFrame() error {
	size := s.d.raw.OutputSize()
	if size == 0 || s.info == nil {
		return apperrors.New(apperrors.CategoryDecode, apperrors.KindUninitialized, "session.frame")
	}
	var data []byte
	if s.into != nil {
		data = s.into[:size]
	} else {
		data = make([]byte, size)
	}
	s.d.raw.TakeOutput(data)
	s.frame = &core.FrameBuffer{
		Data:   data,
		Width:  int(s.info.Width),
		Height: int(s.info.Height),
		Format: s.outFormat,
	}
	return nil
}

// fail closes the session permanently and records err for later calls.
func (s *Session) fail(err error) error {
	s.state = stateClosed
	s.err = err
	return err
}
