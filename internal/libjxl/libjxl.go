// Package libjxl is the foreign handle layer over the native JPEG XL
// reference codec.  Every raw pointer that crosses the cgo boundary is
// created and destroyed here; the decoder and encoder engines above operate
// only on the typed wrappers this package exports.
//
// Ownership rules: each handle is owned by exactly one engine session and
// destroyed exactly once on teardown.  Parallel runners must outlive the
// codec object they are attached to, so engines destroy the codec handle
// first and the runner second.  Input chunks are copied into C memory so the
// native engine never retains a Go pointer past a call.
package libjxl

/*
#cgo pkg-config: libjxl libjxl_threads
#include <stdlib.h>
#include <string.h>
#include <jxl/decode.h>
#include <jxl/encode.h>
#include <jxl/types.h>
*/
import "C"

import (
	"unsafe"

	"github.com/Skryldev/go-jpegxl/core"
)

// SignatureCheck inspects a byte prefix for the JPEG XL signature.  It is
// usable on as little as 2 bytes; shorter (or empty) input reports
// SignatureNeedMoreBytes without touching native code.
func SignatureCheck(data []byte) core.SignatureResult {
	if len(data) == 0 {
		return core.SignatureNeedMoreBytes
	}
	sig := C.JxlSignatureCheck((*C.uint8_t)(unsafe.Pointer(&data[0])), C.size_t(len(data)))
	switch sig {
	case C.JXL_SIG_NOT_ENOUGH_BYTES:
		return core.SignatureNeedMoreBytes
	case C.JXL_SIG_CODESTREAM, C.JXL_SIG_CONTAINER:
		return core.SignatureValid
	default:
		return core.SignatureInvalid
	}
}

// pixelFormat converts the portable descriptor into the C struct the native
// calls expect.
func pixelFormat(f core.PixelFormat) C.JxlPixelFormat {
	return C.JxlPixelFormat{
		num_channels: C.uint32_t(f.NumChannels),
		data_type:    dataType(f.DataType),
		endianness:   endianness(f.Endianness),
		align:        C.size_t(f.Align),
	}
}

func dataType(t core.DataType) C.JxlDataType {
	switch t {
	case core.TypeUint8:
		return C.JXL_TYPE_UINT8
	case core.TypeUint16:
		return C.JXL_TYPE_UINT16
	case core.TypeFloat16:
		return C.JXL_TYPE_FLOAT16
	default:
		return C.JXL_TYPE_FLOAT
	}
}

func endianness(e core.Endianness) C.JxlEndianness {
	switch e {
	case core.EndianLittle:
		return C.JXL_LITTLE_ENDIAN
	case core.EndianBig:
		return C.JXL_BIG_ENDIAN
	default:
		return C.JXL_NATIVE_ENDIAN
	}
}

func jxlBool(b bool) C.JXL_BOOL {
	if b {
		return C.JXL_TRUE
	}
	return C.JXL_FALSE
}

// colorEncodingToC builds the C color encoding struct from a structured
// core.ColorEncoding.  ICC-based encodings do not pass through here; they use
// the dedicated ICC entry points.
func colorEncodingToC(ce *core.ColorEncoding) C.JxlColorEncoding {
	var out C.JxlColorEncoding

	switch ce.Space {
	case core.ColorSpaceGray:
		out.color_space = C.JXL_COLOR_SPACE_GRAY
	case core.ColorSpaceXYB:
		out.color_space = C.JXL_COLOR_SPACE_XYB
	case core.ColorSpaceUnknown:
		out.color_space = C.JXL_COLOR_SPACE_UNKNOWN
	default:
		out.color_space = C.JXL_COLOR_SPACE_RGB
	}

	switch ce.WhitePoint {
	case core.WhitePointE:
		out.white_point = C.JXL_WHITE_POINT_E
	case core.WhitePointDCI:
		out.white_point = C.JXL_WHITE_POINT_DCI
	case core.WhitePointCustom:
		out.white_point = C.JXL_WHITE_POINT_CUSTOM
	default:
		out.white_point = C.JXL_WHITE_POINT_D65
	}

	switch ce.Primaries {
	case core.Primaries2100:
		out.primaries = C.JXL_PRIMARIES_2100
	case core.PrimariesP3:
		out.primaries = C.JXL_PRIMARIES_P3
	case core.PrimariesCustom:
		out.primaries = C.JXL_PRIMARIES_CUSTOM
	default:
		out.primaries = C.JXL_PRIMARIES_SRGB
	}

	switch ce.TransferFunction {
	case core.TransferLinear:
		out.transfer_function = C.JXL_TRANSFER_FUNCTION_LINEAR
	case core.Transfer709:
		out.transfer_function = C.JXL_TRANSFER_FUNCTION_709
	case core.TransferPQ:
		out.transfer_function = C.JXL_TRANSFER_FUNCTION_PQ
	case core.TransferHLG:
		out.transfer_function = C.JXL_TRANSFER_FUNCTION_HLG
	case core.TransferDCI:
		out.transfer_function = C.JXL_TRANSFER_FUNCTION_DCI
	case core.TransferGamma:
		out.transfer_function = C.JXL_TRANSFER_FUNCTION_GAMMA
		out.gamma = C.double(ce.Gamma)
	case core.TransferUnknown:
		out.transfer_function = C.JXL_TRANSFER_FUNCTION_UNKNOWN
	default:
		out.transfer_function = C.JXL_TRANSFER_FUNCTION_SRGB
	}

	switch ce.RenderingIntent {
	case core.IntentRelative:
		out.rendering_intent = C.JXL_RENDERING_INTENT_RELATIVE
	case core.IntentSaturation:
		out.rendering_intent = C.JXL_RENDERING_INTENT_SATURATION
	case core.IntentAbsolute:
		out.rendering_intent = C.JXL_RENDERING_INTENT_ABSOLUTE
	default:
		out.rendering_intent = C.JXL_RENDERING_INTENT_PERCEPTUAL
	}

	return out
}

// colorEncodingFromC converts a decoded structured color encoding back into
// the portable representation.
func colorEncodingFromC(in *C.JxlColorEncoding) *core.ColorEncoding {
	out := &core.ColorEncoding{Gamma: float64(in.gamma)}

	switch in.color_space {
	case C.JXL_COLOR_SPACE_GRAY:
		out.Space = core.ColorSpaceGray
	case C.JXL_COLOR_SPACE_XYB:
		out.Space = core.ColorSpaceXYB
	case C.JXL_COLOR_SPACE_UNKNOWN:
		out.Space = core.ColorSpaceUnknown
	default:
		out.Space = core.ColorSpaceRGB
	}

	switch in.white_point {
	case C.JXL_WHITE_POINT_E:
		out.WhitePoint = core.WhitePointE
	case C.JXL_WHITE_POINT_DCI:
		out.WhitePoint = core.WhitePointDCI
	case C.JXL_WHITE_POINT_CUSTOM:
		out.WhitePoint = core.WhitePointCustom
	default:
		out.WhitePoint = core.WhitePointD65
	}

	switch in.primaries {
	case C.JXL_PRIMARIES_2100:
		out.Primaries = core.Primaries2100
	case C.JXL_PRIMARIES_P3:
		out.Primaries = core.PrimariesP3
	case C.JXL_PRIMARIES_CUSTOM:
		out.Primaries = core.PrimariesCustom
	default:
		out.Primaries = core.PrimariesSRGB
	}

	switch in.transfer_function {
	case C.JXL_TRANSFER_FUNCTION_LINEAR:
		out.TransferFunction = core.TransferLinear
	case C.JXL_TRANSFER_FUNCTION_709:
		out.TransferFunction = core.Transfer709
	case C.JXL_TRANSFER_FUNCTION_PQ:
		out.TransferFunction = core.TransferPQ
	case C.JXL_TRANSFER_FUNCTION_HLG:
		out.TransferFunction = core.TransferHLG
	case C.JXL_TRANSFER_FUNCTION_DCI:
		out.TransferFunction = core.TransferDCI
	case C.JXL_TRANSFER_FUNCTION_GAMMA:
		out.TransferFunction = core.TransferGamma
	case C.JXL_TRANSFER_FUNCTION_UNKNOWN:
		out.TransferFunction = core.TransferUnknown
	default:
		out.TransferFunction = core.TransferSRGB
	}

	switch in.rendering_intent {
	case C.JXL_RENDERING_INTENT_RELATIVE:
		out.RenderingIntent = core.IntentRelative
	case C.JXL_RENDERING_INTENT_SATURATION:
		out.RenderingIntent = core.IntentSaturation
	case C.JXL_RENDERING_INTENT_ABSOLUTE:
		out.RenderingIntent = core.IntentAbsolute
	default:
		out.RenderingIntent = core.IntentPerceptual
	}

	return out
}
