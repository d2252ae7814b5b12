package libjxl

/*
#include <jxl/decode.h>
#include <jxl/encode.h>
*/
import "C"

import (
	apperrors "github.com/Skryldev/go-jpegxl/errors"
)

// DecoderStatus is the event tag returned by the native decode loop.
type DecoderStatus int

const (
	DecSuccess            = DecoderStatus(C.JXL_DEC_SUCCESS)
	DecError              = DecoderStatus(C.JXL_DEC_ERROR)
	DecNeedMoreInput      = DecoderStatus(C.JXL_DEC_NEED_MORE_INPUT)
	DecNeedImageOutBuffer = DecoderStatus(C.JXL_DEC_NEED_IMAGE_OUT_BUFFER)
	DecBasicInfo          = DecoderStatus(C.JXL_DEC_BASIC_INFO)
	DecColorEncoding      = DecoderStatus(C.JXL_DEC_COLOR_ENCODING)
	DecFrame              = DecoderStatus(C.JXL_DEC_FRAME)
	DecFullImage          = DecoderStatus(C.JXL_DEC_FULL_IMAGE)
)

// EncoderStatus is the tri-state result of the encoder drain step.
type EncoderStatus int

const (
	EncSuccess        = EncoderStatus(C.JXL_ENC_SUCCESS)
	EncError          = EncoderStatus(C.JXL_ENC_ERROR)
	EncNeedMoreOutput = EncoderStatus(C.JXL_ENC_NEED_MORE_OUTPUT)
)

// TranslateDecoder maps a native decoder status to the structured taxonomy.
// Event tags (basic info, frame, ...) are not errors and return nil; any
// status this wrapper does not model maps to the generic kind with the raw
// code attached, so new native versions never fail to translate.
func TranslateDecoder(op string, st DecoderStatus) error {
	switch st {
	case DecSuccess, DecNeedMoreInput, DecNeedImageOutBuffer,
		DecBasicInfo, DecColorEncoding, DecFrame, DecFullImage:
		return nil
	case DecError:
		return apperrors.New(apperrors.CategoryDecode, apperrors.KindInvalidInput, op)
	default:
		return apperrors.Native(apperrors.CategoryDecode, op, int32(st))
	}
}

// translateEncoderError maps the detailed JxlEncoderError code captured after
// a failed encoder call.
func translateEncoderError(op string, code C.JxlEncoderError) error {
	switch code {
	case C.JXL_ENC_ERR_OK:
		return nil
	case C.JXL_ENC_ERR_OOM:
		return apperrors.New(apperrors.CategoryEncode, apperrors.KindAllocationFailed, op)
	case C.JXL_ENC_ERR_BAD_INPUT:
		return apperrors.New(apperrors.CategoryEncode, apperrors.KindInvalidInput, op)
	case C.JXL_ENC_ERR_NOT_SUPPORTED, C.JXL_ENC_ERR_JBRD:
		return apperrors.New(apperrors.CategoryEncode, apperrors.KindNotImplemented, op)
	default:
		return apperrors.Native(apperrors.CategoryEncode, op, int32(code))
	}
}
