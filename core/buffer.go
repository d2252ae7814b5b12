package core

import (
	apperrors "github.com/Skryldev/go-jpegxl/errors"
)

// NewFrameBuffer allocates a tightly sized frame buffer for the given
// dimensions and format.  The returned buffer is owned by the caller.
func NewFrameBuffer(width, height int, format PixelFormat) *FrameBuffer {
	return &FrameBuffer{
		Data:   make([]byte, format.BufferSize(width, height)),
		Width:  width,
		Height: height,
		Format: format,
	}
}

// Validate checks that the byte length matches the declared dimensions and
// format, stride included.  Engines call this before any pointer crosses the
// native boundary, so a layout mismatch is a checked error rather than
// undefined behavior.
func (b *FrameBuffer) Validate() error {
	if b == nil || len(b.Data) == 0 {
		return apperrors.ErrEmptyInput
	}
	if b.Width <= 0 || b.Height <= 0 {
		return apperrors.ErrInvalidDimensions
	}
	if b.Format.NumChannels < 1 || b.Format.NumChannels > 4 {
		return apperrors.ErrUnsupportedPixelFormat
	}
	if b.Format.DataType.BytesPerSample() == 0 {
		return apperrors.ErrUnsupportedPixelFormat
	}
	if len(b.Data) != b.Format.BufferSize(b.Width, b.Height) {
		return apperrors.ErrBufferSizeMismatch
	}
	return nil
}
