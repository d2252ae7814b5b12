package libjxl

/*
#include <stdlib.h>
#include <string.h>
#include <jxl/decode.h>
*/
import "C"

import (
	"unsafe"

	"github.com/Skryldev/go-jpegxl/core"
	apperrors "github.com/Skryldev/go-jpegxl/errors"
)

// Decoder wraps one native decoder runtime handle.  It owns two pieces of C
// memory besides the handle itself: a copy of the current input chunk (the
// native engine holds the pointer until ReleaseInput) and the pixel output
// buffer (held until the frame completes).  Both are freed on Destroy and on
// Reset, so no exit path leaks.
type Decoder struct {
	h *C.JxlDecoder

	input    unsafe.Pointer
	inputLen C.size_t

	out    unsafe.Pointer
	outLen C.size_t
}

// NewDecoder allocates a native decoder handle.
func NewDecoder() (*Decoder, error) {
	h := C.JxlDecoderCreate(nil)
	if h == nil {
		return nil, apperrors.New(apperrors.CategoryDecode, apperrors.KindAllocationFailed, "decoder.create")
	}
	return &Decoder{h: h}, nil
}

// Destroy releases the handle and all C memory owned by it.  Called exactly
// once by the owning session's teardown path.
func (d *Decoder) Destroy() {
	if d.h == nil {
		return
	}
	d.freeInput()
	d.freeOutput()
	C.JxlDecoderDestroy(d.h)
	d.h = nil
}

// Reset re-initializes the native state without reallocating the handle,
// making the session reusable for a new image.
func (d *Decoder) Reset() {
	d.freeInput()
	d.freeOutput()
	C.JxlDecoderReset(d.h)
}

// SubscribeEvents selects which decode events the loop will report.
func (d *Decoder) SubscribeEvents(basicInfo, colorEncoding, frame, fullImage bool) error {
	var events C.int
	if basicInfo {
		events |= C.JXL_DEC_BASIC_INFO
	}
	if colorEncoding {
		events |= C.JXL_DEC_COLOR_ENCODING
	}
	if frame {
		events |= C.JXL_DEC_FRAME
	}
	if fullImage {
		events |= C.JXL_DEC_FULL_IMAGE
	}
	if C.JxlDecoderSubscribeEvents(d.h, events) != C.JXL_DEC_SUCCESS {
		return apperrors.New(apperrors.CategoryDecode, apperrors.KindGeneric, "decoder.subscribe")
	}
	return nil
}

// SetParallelRunner attaches a native worker pool.  Must happen before the
// first ProcessInput call and cannot be changed mid-session.
func (d *Decoder) SetParallelRunner(r ParallelRunner) error {
	if C.JxlDecoderSetParallelRunner(d.h, r.fn(), r.opaque()) != C.JXL_DEC_SUCCESS {
		return apperrors.New(apperrors.CategoryRunner, apperrors.KindGeneric, "decoder.set_runner")
	}
	return nil
}

// SetKeepOrientation tells the engine to skip reorientation and report the
// orientation tag in BasicInfo instead.
func (d *Decoder) SetKeepOrientation(keep bool) {
	C.JxlDecoderSetKeepOrientation(d.h, jxlBool(keep))
}

// SetUnpremultiplyAlpha requests unpremultiplied alpha output.
func (d *Decoder) SetUnpremultiplyAlpha(unpremul bool) {
	C.JxlDecoderSetUnpremultiplyAlpha(d.h, jxlBool(unpremul))
}

// SetCoalescing controls whether animation frames are coalesced.
func (d *Decoder) SetCoalescing(coalesce bool) {
	C.JxlDecoderSetCoalescing(d.h, jxlBool(coalesce))
}

// SetInput copies chunk into C memory and hands it to the native engine.
// Exactly one chunk may be outstanding; call ReleaseInput before feeding the
// next one.
func (d *Decoder) SetInput(chunk []byte) error {
	if len(chunk) == 0 {
		return apperrors.ErrEmptyInput
	}
	d.freeInput()
	d.input = C.CBytes(chunk)
	d.inputLen = C.size_t(len(chunk))
	if C.JxlDecoderSetInput(d.h, (*C.uint8_t)(d.input), d.inputLen) != C.JXL_DEC_SUCCESS {
		d.freeInput()
		return apperrors.New(apperrors.CategoryDecode, apperrors.KindUninitialized, "decoder.set_input")
	}
	return nil
}

// ReleaseInput detaches the current input chunk and returns how many of its
// bytes the engine has not consumed yet.  The caller re-feeds the unconsumed
// tail ahead of the next chunk.
func (d *Decoder) ReleaseInput() int {
	if d.input == nil {
		return 0
	}
	remaining := int(C.JxlDecoderReleaseInput(d.h))
	d.freeInput()
	return remaining
}

// CloseInput marks the end of the input stream, letting the engine
// distinguish a truncated stream from one still being fed.
func (d *Decoder) CloseInput() {
	C.JxlDecoderCloseInput(d.h)
}

// ProcessInput advances the native event loop one step.
func (d *Decoder) ProcessInput() DecoderStatus {
	return DecoderStatus(C.JxlDecoderProcessInput(d.h))
}

// BasicInfo reads the metadata snapshot.  Valid only at or after the
// basic-info event.
func (d *Decoder) BasicInfo() (*core.BasicInfo, error) {
	var info C.JxlBasicInfo
	if C.JxlDecoderGetBasicInfo(d.h, &info) != C.JXL_DEC_SUCCESS {
		return nil, apperrors.New(apperrors.CategoryDecode, apperrors.KindUninitialized, "decoder.basic_info")
	}
	return &core.BasicInfo{
		Width:                 uint32(info.xsize),
		Height:                uint32(info.ysize),
		BitsPerSample:         uint32(info.bits_per_sample),
		ExponentBitsPerSample: uint32(info.exponent_bits_per_sample),
		NumColorChannels:      uint32(info.num_color_channels),
		NumExtraChannels:      uint32(info.num_extra_channels),
		HasAlpha:              info.alpha_bits > 0,
		AlphaPremultiplied:    info.alpha_premultiplied == C.JXL_TRUE,
		Orientation:           uint32(info.orientation),
		HaveAnimation:         info.have_animation == C.JXL_TRUE,
		HavePreview:           info.have_preview == C.JXL_TRUE,
		IntensityTarget:       float32(info.intensity_target),
		UsesOriginalProfile:   info.uses_original_profile == C.JXL_TRUE,
	}, nil
}

// ICCProfile extracts the embedded ICC profile as a Go-owned byte slice.
// Valid only at or after the color-encoding event.
func (d *Decoder) ICCProfile() ([]byte, error) {
	var size C.size_t
	if C.JxlDecoderGetICCProfileSize(d.h, C.JXL_COLOR_PROFILE_TARGET_DATA, &size) != C.JXL_DEC_SUCCESS {
		return nil, apperrors.New(apperrors.CategoryDecode, apperrors.KindUninitialized, "decoder.icc_size")
	}
	if size == 0 {
		return nil, nil
	}
	buf := C.malloc(size)
	if buf == nil {
		return nil, apperrors.New(apperrors.CategoryDecode, apperrors.KindAllocationFailed, "decoder.icc_alloc")
	}
	defer C.free(buf)
	if C.JxlDecoderGetColorAsICCProfile(d.h, C.JXL_COLOR_PROFILE_TARGET_DATA, (*C.uint8_t)(buf), size) != C.JXL_DEC_SUCCESS {
		return nil, apperrors.New(apperrors.CategoryDecode, apperrors.KindGeneric, "decoder.icc_read")
	}
	return C.GoBytes(buf, C.int(size)), nil
}

// EncodedColorProfile extracts the structured color encoding, when the image
// carries one instead of (or besides) an ICC blob.  Returns nil without
// error when only an ICC representation exists.
func (d *Decoder) EncodedColorProfile() (*core.ColorEncoding, error) {
	var ce C.JxlColorEncoding
	st := C.JxlDecoderGetColorAsEncodedProfile(d.h, C.JXL_COLOR_PROFILE_TARGET_DATA, &ce)
	if st != C.JXL_DEC_SUCCESS {
		// Not an error: many images only embed an ICC profile.
		return nil, nil
	}
	return colorEncodingFromC(&ce), nil
}

// ImageOutBufferSize asks the engine how many bytes the next frame occupies
// in the given pixel format.
func (d *Decoder) ImageOutBufferSize(f core.PixelFormat) (int, error) {
	pf := pixelFormat(f)
	var size C.size_t
	if C.JxlDecoderImageOutBufferSize(d.h, &pf, &size) != C.JXL_DEC_SUCCESS {
		return 0, apperrors.New(apperrors.CategoryDecode, apperrors.KindUninitialized, "decoder.out_size")
	}
	return int(size), nil
}

// SetImageOutBuffer allocates a C-side output buffer of the given size and
// registers it with the engine.  The engine writes pixels into it until the
// full-image event; TakeOutput then copies them out.
func (d *Decoder) SetImageOutBuffer(f core.PixelFormat, size int) error {
	d.freeOutput()
	d.out = C.malloc(C.size_t(size))
	if d.out == nil {
		return apperrors.New(apperrors.CategoryDecode, apperrors.KindAllocationFailed, "decoder.out_alloc")
	}
	d.outLen = C.size_t(size)
	pf := pixelFormat(f)
	if C.JxlDecoderSetImageOutBuffer(d.h, &pf, d.out, d.outLen) != C.JXL_DEC_SUCCESS {
		d.freeOutput()
		return apperrors.New(apperrors.CategoryDecode, apperrors.KindUninitialized, "decoder.set_out")
	}
	return nil
}

// TakeOutput copies the decoded pixels into dst and frees the C buffer.
// dst must be at least as large as the registered output buffer.
func (d *Decoder) TakeOutput(dst []byte) int {
	if d.out == nil {
		return 0
	}
	n := int(d.outLen)
	copy(dst, unsafe.Slice((*byte)(d.out), n))
	d.freeOutput()
	return n
}

// OutputSize reports the size of the currently registered output buffer.
func (d *Decoder) OutputSize() int { return int(d.outLen) }

func (d *Decoder) freeInput() {
	if d.input != nil {
		C.free(d.input)
		d.input = nil
		d.inputLen = 0
	}
}

func (d *Decoder) freeOutput() {
	if d.out != nil {
		C.free(d.out)
		d.out = nil
		d.outLen = 0
	}
}
