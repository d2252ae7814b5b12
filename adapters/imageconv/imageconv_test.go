package imageconv

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/Skryldev/go-jpegxl/core"
	apperrors "github.com/Skryldev/go-jpegxl/errors"
)

func TestFromImage_NRGBA(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 3; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 10), G: uint8(y * 10), B: 7, A: 255})
		}
	}

	fb, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if fb.Width != 3 || fb.Height != 2 {
		t.Errorf("dimensions %dx%d, want 3x2", fb.Width, fb.Height)
	}
	if fb.Format.NumChannels != 4 || fb.Format.DataType != core.TypeUint8 {
		t.Errorf("format %+v, want 4-channel uint8", fb.Format)
	}
	// Pixel (2, 1) = R 20, G 10, B 7, A 255.
	o := (1*3 + 2) * 4
	if fb.Data[o] != 20 || fb.Data[o+1] != 10 || fb.Data[o+2] != 7 || fb.Data[o+3] != 255 {
		t.Errorf("pixel (2,1) = %v", fb.Data[o:o+4])
	}
}

func TestFromImage_Gray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(1, 1, color.Gray{Y: 200})

	fb, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if fb.Format.NumChannels != 1 {
		t.Errorf("NumChannels = %d, want 1", fb.Format.NumChannels)
	}
	if fb.Data[3] != 200 {
		t.Errorf("pixel (1,1) = %d, want 200", fb.Data[3])
	}
}

func TestFromImage_SubImage(t *testing.T) {
	// Sub-images have a stride wider than their row, exercising the
	// row-packing path.
	base := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for i := range base.Pix {
		base.Pix[i] = byte(i)
	}
	sub := base.SubImage(image.Rect(2, 2, 6, 6)).(*image.NRGBA)

	fb, err := FromImage(sub)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if fb.Width != 4 || fb.Height != 4 {
		t.Fatalf("dimensions %dx%d, want 4x4", fb.Width, fb.Height)
	}
	if len(fb.Data) != 4*4*4 {
		t.Errorf("len(Data) = %d, want 64", len(fb.Data))
	}
	// First byte of the packed buffer is base pixel (2, 2).
	want := base.Pix[2*base.Stride+2*4]
	if fb.Data[0] != want {
		t.Errorf("Data[0] = %d, want %d", fb.Data[0], want)
	}
}

func TestFromImage_FallbackConversion(t *testing.T) {
	// YCbCr has no direct mapping and goes through the draw fallback.
	img := image.NewYCbCr(image.Rect(0, 0, 4, 4), image.YCbCrSubsampleRatio420)

	fb, err := FromImage(img)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if fb.Format.NumChannels != 4 || fb.Format.DataType != core.TypeUint8 {
		t.Errorf("fallback format %+v, want 4-channel uint8", fb.Format)
	}
}

func TestFromImage_Rejections(t *testing.T) {
	if _, err := FromImage(nil); !errors.Is(err, apperrors.ErrEmptyInput) {
		t.Errorf("nil image: err = %v, want ErrEmptyInput", err)
	}
	empty := image.NewNRGBA(image.Rect(0, 0, 0, 0))
	if _, err := FromImage(empty); !errors.Is(err, apperrors.ErrInvalidDimensions) {
		t.Errorf("empty image: err = %v, want ErrInvalidDimensions", err)
	}
}

func TestToImage_RoundTrip_NRGBA(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 5, 3))
	for i := range src.Pix {
		src.Pix[i] = byte(i * 7)
	}
	fb, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}

	back, err := ToImage(fb)
	if err != nil {
		t.Fatalf("ToImage: %v", err)
	}
	got, ok := back.(*image.NRGBA)
	if !ok {
		t.Fatalf("ToImage returned %T, want *image.NRGBA", back)
	}
	for i := range src.Pix {
		if got.Pix[i] != src.Pix[i] {
			t.Fatalf("Pix[%d] = %d, want %d", i, got.Pix[i], src.Pix[i])
		}
	}
}

func TestToImage_RoundTrip_Gray16(t *testing.T) {
	src := image.NewGray16(image.Rect(0, 0, 2, 2))
	src.SetGray16(0, 0, color.Gray16{Y: 0xABCD})
	fb, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage: %v", err)
	}
	if fb.Format.Endianness != core.EndianBig {
		t.Fatalf("Endianness = %v, want EndianBig", fb.Format.Endianness)
	}

	back, err := ToImage(fb)
	if err != nil {
		t.Fatalf("ToImage: %v", err)
	}
	got, ok := back.(*image.Gray16)
	if !ok {
		t.Fatalf("ToImage returned %T, want *image.Gray16", back)
	}
	if got.Gray16At(0, 0).Y != 0xABCD {
		t.Errorf("pixel (0,0) = %#04x, want 0xABCD", got.Gray16At(0, 0).Y)
	}
}

func TestToImage_RGB(t *testing.T) {
	fb := &core.FrameBuffer{
		Data:   []byte{10, 20, 30, 40, 50, 60},
		Width:  2,
		Height: 1,
		Format: core.PixelFormat{NumChannels: 3, DataType: core.TypeUint8},
	}
	img, err := ToImage(fb)
	if err != nil {
		t.Fatalf("ToImage: %v", err)
	}
	nrgba := img.(*image.NRGBA)
	if c := nrgba.NRGBAAt(1, 0); c.R != 40 || c.G != 50 || c.B != 60 || c.A != 255 {
		t.Errorf("pixel (1,0) = %+v, want {40 50 60 255}", c)
	}
}

func TestToImage_GrayAlpha(t *testing.T) {
	fb := &core.FrameBuffer{
		Data:   []byte{100, 200},
		Width:  1,
		Height: 1,
		Format: core.PixelFormat{NumChannels: 2, DataType: core.TypeUint8},
	}
	img, err := ToImage(fb)
	if err != nil {
		t.Fatalf("ToImage: %v", err)
	}
	nrgba := img.(*image.NRGBA)
	if c := nrgba.NRGBAAt(0, 0); c.R != 100 || c.G != 100 || c.B != 100 || c.A != 200 {
		t.Errorf("pixel (0,0) = %+v, want {100 100 100 200}", c)
	}
}

func TestToImage_RejectsFloat(t *testing.T) {
	fb := &core.FrameBuffer{
		Data:   make([]byte, 16),
		Width:  1,
		Height: 1,
		Format: core.PixelFormat{NumChannels: 4, DataType: core.TypeFloat32},
	}
	_, err := ToImage(fb)
	if !errors.Is(err, apperrors.ErrUnsupportedPixelFormat) {
		t.Errorf("err = %v, want ErrUnsupportedPixelFormat", err)
	}
}
