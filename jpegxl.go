// Package jpegxl is a memory-safe binding to the libjxl JPEG XL codec.
//
// The package-level functions cover the common one-shot cases; the decoder
// and encoder subpackages expose reusable sessions, streaming input, and the
// full option surface.
package jpegxl

import (
	"context"
	"io"

	"github.com/Skryldev/go-jpegxl/config"
	"github.com/Skryldev/go-jpegxl/core"
	"github.com/Skryldev/go-jpegxl/decoder"
	"github.com/Skryldev/go-jpegxl/encoder"
	apperrors "github.com/Skryldev/go-jpegxl/errors"
	"github.com/Skryldev/go-jpegxl/internal/libjxl"
	"github.com/Skryldev/go-jpegxl/utils"
)

// Re-exported core types, so simple callers need only this package.
type (
	BasicInfo   = core.BasicInfo
	FrameBuffer = core.FrameBuffer
	PixelFormat = core.PixelFormat
	DataType    = core.DataType
)

// SignatureResult reports what a signature check concluded.
type SignatureResult = core.SignatureResult

const (
	SignatureInvalid       = core.SignatureInvalid
	SignatureValid         = core.SignatureValid
	SignatureNeedMoreBytes = core.SignatureNeedMoreBytes
)

// CheckSignature reports whether data begins a JPEG XL stream.  Two bytes are
// enough for a verdict on the bare codestream; fewer, or an ambiguous
// container prefix, reports SignatureNeedMoreBytes.
func CheckSignature(data []byte) SignatureResult {
	return libjxl.SignatureCheck(data)
}

// Decode decodes a complete image from data using a throwaway decoder with
// default options.
func Decode(data []byte) (*BasicInfo, *FrameBuffer, error) {
	return DecodeWith(data)
}

// DecodeWith decodes a complete image with explicit decoder options.
func DecodeWith(data []byte, opts ...decoder.Option) (*BasicInfo, *FrameBuffer, error) {
	d, err := decoder.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	defer d.Close()
	return d.Decode(data)
}

// DecodeReader streams r into a decode session chunk by chunk with default
// limits, so the whole compressed image never has to sit in one contiguous
// Go allocation before decoding starts.
func DecodeReader(ctx context.Context, r io.Reader, opts ...decoder.Option) (*BasicInfo, *FrameBuffer, error) {
	return DecodeReaderConfig(ctx, config.Default(), r, opts...)
}

// DecodeReaderConfig is DecodeReader with explicit streaming limits: input is
// capped at cfg.MaxImageBytes and fed in cfg.ChunkSize chunks.
func DecodeReaderConfig(ctx context.Context, cfg config.Config, r io.Reader, opts ...decoder.Option) (*BasicInfo, *FrameBuffer, error) {
	d, err := decoder.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	defer d.Close()

	s, err := d.NewSession()
	if err != nil {
		return nil, nil, err
	}

	if cfg.MaxImageBytes > 0 {
		r = &utils.LimitedReader{R: r, Max: cfg.MaxImageBytes}
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = 32 * 1024
	}
	chunk := make([]byte, chunkSize)
	for {
		if err := ctx.Err(); err != nil {
			return nil, nil, apperrors.Wrap(apperrors.CategoryDecode, "decode.reader", err)
		}
		n, rerr := r.Read(chunk)
		if n > 0 {
			if err := s.Feed(chunk[:n]); err != nil {
				return nil, nil, err
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return nil, nil, apperrors.Wrap(apperrors.CategoryDecode, "decode.reader", rerr)
		}

		// Advance the event loop on what we have so far.
		finished := false
		for !finished {
			ev, err := s.Next()
			if err != nil {
				return nil, nil, err
			}
			if ev == core.EventNeedMoreInput {
				break
			}
			finished = ev == core.EventFinished
		}
		if finished {
			if s.Frame() == nil {
				return nil, nil, apperrors.New(apperrors.CategoryDecode, apperrors.KindTruncatedInput, "decode.reader")
			}
			return s.BasicInfo(), s.Frame(), nil
		}
	}
	s.CloseInput()

	for {
		ev, err := s.Next()
		if err != nil {
			return nil, nil, err
		}
		switch ev {
		case core.EventFullFrame, core.EventFinished:
			if s.Frame() == nil {
				return nil, nil, apperrors.New(apperrors.CategoryDecode, apperrors.KindTruncatedInput, "decode.reader")
			}
			return s.BasicInfo(), s.Frame(), nil
		case core.EventNeedMoreInput:
			return nil, nil, apperrors.New(apperrors.CategoryDecode, apperrors.KindTruncatedInput, "decode.reader")
		}
	}
}

// Encode compresses a single frame with the given options.
func Encode(frame *FrameBuffer, opts encoder.Options) ([]byte, error) {
	return encoder.EncodeFrame(frame, opts)
}

// EncodeAnimation compresses frames as one animated image.  opts.Animation
// supplies the timebase; a nil value gets a 10 ticks/second default.
func EncodeAnimation(frames []*FrameBuffer, opts encoder.Options) ([]byte, error) {
	return encoder.EncodeFrames(frames, opts)
}

// EncodeReader drains r into memory with default limits and compresses it as
// a single frame of raw pixels in the given format.
func EncodeReader(ctx context.Context, r io.Reader, width, height int, format PixelFormat, opts encoder.Options) ([]byte, error) {
	return EncodeReaderConfig(ctx, config.Default(), r, width, height, format, opts)
}

// EncodeReaderConfig is EncodeReader with explicit streaming limits: input is
// capped at cfg.MaxImageBytes and drained in cfg.ChunkSize chunks.
func EncodeReaderConfig(ctx context.Context, cfg config.Config, r io.Reader, width, height int, format PixelFormat, opts encoder.Options) ([]byte, error) {
	if cfg.MaxImageBytes > 0 {
		r = &utils.LimitedReader{R: r, Max: cfg.MaxImageBytes}
	}
	buf, err := utils.DrainReader(ctx, r, cfg.ChunkSize)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryEncode, "encode.reader", err)
	}
	pixels := utils.CloneBytes(buf.Bytes())
	utils.ReleaseBuffer(buf)

	frame := &core.FrameBuffer{Data: pixels, Width: width, Height: height, Format: format}
	return encoder.EncodeFrame(frame, opts)
}
