// Package imageconv converts between the standard library's image.Image and
// raw frame buffers.  Pure data transformation; no native calls.
package imageconv

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"

	"github.com/Skryldev/go-jpegxl/core"
	apperrors "github.com/Skryldev/go-jpegxl/errors"
)

// FromImage flattens img into a tightly packed frame buffer.  NRGBA, NRGBA64,
// and Gray images convert without loss; everything else is normalized to
// 8-bit NRGBA first.
func FromImage(img image.Image) (*core.FrameBuffer, error) {
	if img == nil {
		return nil, apperrors.Wrap(apperrors.CategoryInput, "imageconv.from", apperrors.ErrEmptyInput)
	}
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return nil, apperrors.Wrap(apperrors.CategoryInput, "imageconv.from", apperrors.ErrInvalidDimensions)
	}

	switch src := img.(type) {
	case *image.NRGBA:
		return packRows(src.Pix, src.Stride, w, h, core.PixelFormat{NumChannels: 4, DataType: core.TypeUint8}), nil
	case *image.Gray:
		return packRows(src.Pix, src.Stride, w, h, core.PixelFormat{NumChannels: 1, DataType: core.TypeUint8}), nil
	case *image.Gray16:
		// Pix stores big-endian uint16 samples.
		return packRows(src.Pix, src.Stride, w, h,
			core.PixelFormat{NumChannels: 1, DataType: core.TypeUint16, Endianness: core.EndianBig}), nil
	case *image.NRGBA64:
		return packRows(src.Pix, src.Stride, w, h,
			core.PixelFormat{NumChannels: 4, DataType: core.TypeUint16, Endianness: core.EndianBig}), nil
	}

	// Fallback: normalize through x/image/draw.
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), img, bounds.Min, draw.Src)
	return packRows(dst.Pix, dst.Stride, w, h, core.PixelFormat{NumChannels: 4, DataType: core.TypeUint8}), nil
}

// packRows copies pixel rows out of a possibly padded source into a tightly
// packed frame buffer.
func packRows(pix []byte, stride, w, h int, format core.PixelFormat) *core.FrameBuffer {
	rowBytes := format.RowBytes(w)
	out := make([]byte, rowBytes*h)
	for y := 0; y < h; y++ {
		copy(out[y*rowBytes:(y+1)*rowBytes], pix[y*stride:y*stride+rowBytes])
	}
	return &core.FrameBuffer{Data: out, Width: w, Height: h, Format: format}
}

// ToImage wraps a decoded frame buffer in the matching image.Image type.
// Supported layouts: 1/2/3/4-channel uint8 and 1/4-channel big-endian
// uint16.  Float formats have no stdlib counterpart and are rejected.
func ToImage(fb *core.FrameBuffer) (image.Image, error) {
	if err := fb.Validate(); err != nil {
		return nil, apperrors.Wrap(apperrors.CategoryInput, "imageconv.to", err)
	}

	w, h := fb.Width, fb.Height
	switch fb.Format.DataType {
	case core.TypeUint8:
		switch fb.Format.NumChannels {
		case 1:
			img := image.NewGray(image.Rect(0, 0, w, h))
			unpackRows(img.Pix, img.Stride, fb)
			return img, nil
		case 2:
			return grayAlphaToNRGBA(fb), nil
		case 3:
			return rgbToNRGBA(fb), nil
		case 4:
			img := image.NewNRGBA(image.Rect(0, 0, w, h))
			unpackRows(img.Pix, img.Stride, fb)
			return img, nil
		}
	case core.TypeUint16:
		if fb.Format.Endianness != core.EndianBig {
			break
		}
		switch fb.Format.NumChannels {
		case 1:
			img := image.NewGray16(image.Rect(0, 0, w, h))
			unpackRows(img.Pix, img.Stride, fb)
			return img, nil
		case 4:
			img := image.NewNRGBA64(image.Rect(0, 0, w, h))
			unpackRows(img.Pix, img.Stride, fb)
			return img, nil
		}
	}
	return nil, apperrors.Wrap(apperrors.CategoryInput, "imageconv.to",
		fmt.Errorf("%w: %d-channel %s", apperrors.ErrUnsupportedPixelFormat,
			fb.Format.NumChannels, fb.Format.DataType))
}

// unpackRows copies frame rows into a stdlib image's padded Pix layout.
func unpackRows(pix []byte, stride int, fb *core.FrameBuffer) {
	rowBytes := fb.Format.RowBytes(fb.Width)
	packed := fb.Width * fb.Format.BytesPerPixel()
	for y := 0; y < fb.Height; y++ {
		copy(pix[y*stride:y*stride+packed], fb.Data[y*rowBytes:y*rowBytes+packed])
	}
}

func rgbToNRGBA(fb *core.FrameBuffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	rowBytes := fb.Format.RowBytes(fb.Width)
	for y := 0; y < fb.Height; y++ {
		row := fb.Data[y*rowBytes:]
		for x := 0; x < fb.Width; x++ {
			o := y*img.Stride + x*4
			img.Pix[o+0] = row[x*3+0]
			img.Pix[o+1] = row[x*3+1]
			img.Pix[o+2] = row[x*3+2]
			img.Pix[o+3] = 0xFF
		}
	}
	return img
}

func grayAlphaToNRGBA(fb *core.FrameBuffer) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Width, fb.Height))
	rowBytes := fb.Format.RowBytes(fb.Width)
	for y := 0; y < fb.Height; y++ {
		row := fb.Data[y*rowBytes:]
		for x := 0; x < fb.Width; x++ {
			o := y*img.Stride + x*4
			g, a := row[x*2], row[x*2+1]
			img.Pix[o+0] = g
			img.Pix[o+1] = g
			img.Pix[o+2] = g
			img.Pix[o+3] = a
		}
	}
	return img
}
