package libjxl

/*
#include <stdlib.h>
#include <string.h>
#include <jxl/encode.h>
*/
import "C"

import (
	"unsafe"

	"github.com/Skryldev/go-jpegxl/core"
	apperrors "github.com/Skryldev/go-jpegxl/errors"
)

// AnimationInfo describes the timebase of an animated encode session.
type AnimationInfo struct {
	TPSNumerator   uint32
	TPSDenominator uint32
	NumLoops       uint32
}

// EncodeInfo is everything the native encoder needs to know about the image
// before the first frame is added.
type EncodeInfo struct {
	Width  uint32
	Height uint32

	BitsPerSample         uint32
	ExponentBitsPerSample uint32

	NumColorChannels    uint32
	HasAlpha            bool
	UsesOriginalProfile bool

	// Animation is nil for still images.
	Animation *AnimationInfo
}

// Encoder wraps one native encoder runtime handle plus the growable C output
// buffer the drain loop writes into.  Already-written bytes are never
// dropped: growing reallocates in place and resumes at the write offset.
type Encoder struct {
	h  *C.JxlEncoder
	fs *C.JxlEncoderFrameSettings

	out  unsafe.Pointer
	cap  C.size_t
	used C.size_t
}

// NewEncoder allocates a native encoder handle.
func NewEncoder() (*Encoder, error) {
	h := C.JxlEncoderCreate(nil)
	if h == nil {
		return nil, apperrors.New(apperrors.CategoryEncode, apperrors.KindAllocationFailed, "encoder.create")
	}
	return &Encoder{h: h}, nil
}

// Destroy releases the handle and the output buffer.  Called exactly once by
// the owning session's teardown path.  Frame settings are owned by the
// handle and die with it.
func (e *Encoder) Destroy() {
	if e.h == nil {
		return
	}
	e.freeOutput()
	C.JxlEncoderDestroy(e.h)
	e.h = nil
	e.fs = nil
}

// Reset re-initializes the native state without reallocating the handle.
func (e *Encoder) Reset() {
	e.freeOutput()
	C.JxlEncoderReset(e.h)
	e.fs = nil
}

// SetParallelRunner attaches a native worker pool.  Immutable afterward.
func (e *Encoder) SetParallelRunner(r ParallelRunner) error {
	if C.JxlEncoderSetParallelRunner(e.h, r.fn(), r.opaque()) != C.JXL_ENC_SUCCESS {
		return e.LastError("encoder.set_runner")
	}
	return nil
}

// UseContainer selects the ISOBMFF container format over a bare codestream.
func (e *Encoder) UseContainer(use bool) error {
	if C.JxlEncoderUseContainer(e.h, jxlBool(use)) != C.JXL_ENC_SUCCESS {
		return e.LastError("encoder.use_container")
	}
	return nil
}

// SetBasicInfo declares image geometry and sample layout.  Must precede the
// first frame.
func (e *Encoder) SetBasicInfo(info EncodeInfo) error {
	var ci C.JxlBasicInfo
	C.JxlEncoderInitBasicInfo(&ci)
	ci.xsize = C.uint32_t(info.Width)
	ci.ysize = C.uint32_t(info.Height)
	ci.bits_per_sample = C.uint32_t(info.BitsPerSample)
	ci.exponent_bits_per_sample = C.uint32_t(info.ExponentBitsPerSample)
	ci.num_color_channels = C.uint32_t(info.NumColorChannels)
	ci.uses_original_profile = jxlBool(info.UsesOriginalProfile)
	if info.HasAlpha {
		ci.num_extra_channels = 1
		ci.alpha_bits = ci.bits_per_sample
		ci.alpha_exponent_bits = ci.exponent_bits_per_sample
	}
	if info.Animation != nil {
		ci.have_animation = C.JXL_TRUE
		ci.animation.tps_numerator = C.uint32_t(info.Animation.TPSNumerator)
		ci.animation.tps_denominator = C.uint32_t(info.Animation.TPSDenominator)
		ci.animation.num_loops = C.uint32_t(info.Animation.NumLoops)
	}
	if C.JxlEncoderSetBasicInfo(e.h, &ci) != C.JXL_ENC_SUCCESS {
		return e.LastError("encoder.set_basic_info")
	}
	return nil
}

// SetColorEncoding embeds the color description: an ICC blob when the
// encoding carries one, the structured form otherwise.
func (e *Encoder) SetColorEncoding(ce *core.ColorEncoding) error {
	if ce.IsICC() {
		if C.JxlEncoderSetICCProfile(e.h, (*C.uint8_t)(unsafe.Pointer(&ce.ICC[0])), C.size_t(len(ce.ICC))) != C.JXL_ENC_SUCCESS {
			return e.LastError("encoder.set_icc")
		}
		return nil
	}
	cc := colorEncodingToC(ce)
	if C.JxlEncoderSetColorEncoding(e.h, &cc) != C.JXL_ENC_SUCCESS {
		return e.LastError("encoder.set_color_encoding")
	}
	return nil
}

// frameSettings lazily creates the per-session frame settings object.  It is
// owned by the encoder handle and reclaimed with it.
func (e *Encoder) frameSettings() *C.JxlEncoderFrameSettings {
	if e.fs == nil {
		e.fs = C.JxlEncoderFrameSettingsCreate(e.h, nil)
	}
	return e.fs
}

// SetEffort sets the encode effort tier, 1 (lightning) to 9 (tortoise).
func (e *Encoder) SetEffort(effort int) error {
	if C.JxlEncoderFrameSettingsSetOption(e.frameSettings(), C.JXL_ENC_FRAME_SETTING_EFFORT, C.int64_t(effort)) != C.JXL_ENC_SUCCESS {
		return e.LastError("encoder.set_effort")
	}
	return nil
}

// SetDecodingSpeed trades quality for decode speed, 0 (best) to 4 (fastest).
func (e *Encoder) SetDecodingSpeed(tier int) error {
	if C.JxlEncoderFrameSettingsSetOption(e.frameSettings(), C.JXL_ENC_FRAME_SETTING_DECODING_SPEED, C.int64_t(tier)) != C.JXL_ENC_SUCCESS {
		return e.LastError("encoder.set_decoding_speed")
	}
	return nil
}

// SetDistance sets the Butteraugli distance; 0 is mathematically lossless.
func (e *Encoder) SetDistance(distance float32) error {
	if C.JxlEncoderSetFrameDistance(e.frameSettings(), C.float(distance)) != C.JXL_ENC_SUCCESS {
		return e.LastError("encoder.set_distance")
	}
	return nil
}

// SetLossless enables true lossless mode (requires the original profile).
func (e *Encoder) SetLossless(lossless bool) error {
	if C.JxlEncoderSetFrameLossless(e.frameSettings(), jxlBool(lossless)) != C.JXL_ENC_SUCCESS {
		return e.LastError("encoder.set_lossless")
	}
	return nil
}

// SetFrameDuration sets the duration, in timebase ticks, of the next frame.
// Only meaningful for animated sessions.
func (e *Encoder) SetFrameDuration(ticks uint32) error {
	var fh C.JxlFrameHeader
	C.JxlEncoderInitFrameHeader(&fh)
	fh.duration = C.uint32_t(ticks)
	if C.JxlEncoderSetFrameHeader(e.frameSettings(), &fh) != C.JXL_ENC_SUCCESS {
		return e.LastError("encoder.set_frame_header")
	}
	return nil
}

// AddImageFrame feeds one frame of raw pixels.  The native engine copies the
// buffer during the call, so pixels is only borrowed until return.
func (e *Encoder) AddImageFrame(f core.PixelFormat, pixels []byte) error {
	if len(pixels) == 0 {
		return apperrors.ErrEmptyInput
	}
	pf := pixelFormat(f)
	st := C.JxlEncoderAddImageFrame(e.frameSettings(), &pf,
		unsafe.Pointer(&pixels[0]), C.size_t(len(pixels)))
	if st != C.JXL_ENC_SUCCESS {
		return e.LastError("encoder.add_frame")
	}
	return nil
}

// UseBoxes enables metadata box output; must precede the first AddBox.
func (e *Encoder) UseBoxes() error {
	if C.JxlEncoderUseBoxes(e.h) != C.JXL_ENC_SUCCESS {
		return e.LastError("encoder.use_boxes")
	}
	return nil
}

// AddBox appends a metadata box (e.g. "Exif", "xml ") to the container.
func (e *Encoder) AddBox(boxType string, contents []byte, compress bool) error {
	if len(boxType) != 4 {
		return apperrors.New(apperrors.CategoryEncode, apperrors.KindInvalidInput, "encoder.add_box")
	}
	if len(contents) == 0 {
		return apperrors.ErrEmptyInput
	}
	var bt C.JxlBoxType
	for i := 0; i < 4; i++ {
		bt[i] = C.char(boxType[i])
	}
	st := C.JxlEncoderAddBox(e.h, &bt[0],
		(*C.uint8_t)(unsafe.Pointer(&contents[0])), C.size_t(len(contents)), jxlBool(compress))
	if st != C.JXL_ENC_SUCCESS {
		return e.LastError("encoder.add_box")
	}
	return nil
}

// CloseBoxes declares that no further metadata boxes will be added.
func (e *Encoder) CloseBoxes() {
	C.JxlEncoderCloseBoxes(e.h)
}

// CloseInput declares that no further frames will be added; the drain loop
// can then run to completion.
func (e *Encoder) CloseInput() {
	C.JxlEncoderCloseInput(e.h)
}

// InitOutput allocates the drain buffer.  size must be positive.
func (e *Encoder) InitOutput(size int) error {
	e.freeOutput()
	if size <= 0 {
		size = 64 * 1024
	}
	e.out = C.malloc(C.size_t(size))
	if e.out == nil {
		return apperrors.New(apperrors.CategoryEncode, apperrors.KindAllocationFailed, "encoder.out_alloc")
	}
	e.cap = C.size_t(size)
	e.used = 0
	return nil
}

// ProcessOutput runs one drain step, writing compressed bytes after the ones
// already produced.  On EncNeedMoreOutput the caller grows the buffer and
// retries the same step.
func (e *Encoder) ProcessOutput() EncoderStatus {
	next := (*C.uint8_t)(unsafe.Add(e.out, uintptr(e.used)))
	avail := e.cap - e.used
	st := C.JxlEncoderProcessOutput(e.h, &next, &avail)
	e.used = e.cap - avail
	return EncoderStatus(st)
}

// GrowOutput doubles the drain buffer, preserving every byte written so far.
func (e *Encoder) GrowOutput() error {
	newCap := e.cap * 2
	grown := C.realloc(e.out, newCap)
	if grown == nil {
		return apperrors.New(apperrors.CategoryEncode, apperrors.KindAllocationFailed, "encoder.out_grow")
	}
	e.out = grown
	e.cap = newCap
	return nil
}

// TakeOutput copies the compressed bytes into Go memory, frees the C buffer,
// and returns the result with full ownership transferred to the caller.
func (e *Encoder) TakeOutput() []byte {
	if e.out == nil {
		return nil
	}
	data := C.GoBytes(e.out, C.int(e.used))
	e.freeOutput()
	return data
}

// LastError reads the detailed native error code for the previous call.
func (e *Encoder) LastError(op string) error {
	if err := translateEncoderError(op, C.JxlEncoderGetError(e.h)); err != nil {
		return err
	}
	// The call failed but the engine reports no detail; keep the failure.
	return apperrors.New(apperrors.CategoryEncode, apperrors.KindGeneric, op)
}

func (e *Encoder) freeOutput() {
	if e.out != nil {
		C.free(e.out)
		e.out = nil
		e.cap = 0
		e.used = 0
	}
}
