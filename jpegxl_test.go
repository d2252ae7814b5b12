package jpegxl_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	jpegxl "github.com/Skryldev/go-jpegxl"
	"github.com/Skryldev/go-jpegxl/config"
	"github.com/Skryldev/go-jpegxl/core"
	"github.com/Skryldev/go-jpegxl/encoder"
	apperrors "github.com/Skryldev/go-jpegxl/errors"
)

// ── Test helpers ──────────────────────────────────────────────────────────────

// newRedFrame builds a solid red w x h frame, 4-channel 8-bit.
func newRedFrame(w, h int) *core.FrameBuffer {
	fb := core.NewFrameBuffer(w, h, core.DefaultPixelFormat())
	for i := 0; i < len(fb.Data); i += 4 {
		fb.Data[i] = 0xFF
		fb.Data[i+3] = 0xFF
	}
	return fb
}

func encodeLossless(t *testing.T, fb *core.FrameBuffer) []byte {
	t.Helper()
	out, err := jpegxl.Encode(fb, encoder.Options{Lossless: true, Speed: encoder.SpeedFalcon})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if len(out) == 0 {
		t.Fatal("encode produced no bytes")
	}
	return out
}

// ── Round trips ───────────────────────────────────────────────────────────────

func TestLosslessRoundTrip(t *testing.T) {
	src := newRedFrame(4, 4)
	compressed := encodeLossless(t, src)

	info, frame, err := jpegxl.Decode(compressed)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Width != 4 || info.Height != 4 {
		t.Errorf("dimensions %dx%d, want 4x4", info.Width, info.Height)
	}
	if !info.HasAlpha {
		t.Error("HasAlpha = false, want true for 4-channel input")
	}
	if len(frame.Data) != 64 {
		t.Fatalf("len(frame.Data) = %d, want 64", len(frame.Data))
	}
	if !bytes.Equal(frame.Data, src.Data) {
		t.Error("lossless round trip changed pixel data")
	}
}

func TestLossyRoundTrip(t *testing.T) {
	src := newRedFrame(16, 16)
	compressed, err := jpegxl.Encode(src, encoder.Options{Distance: 1.0, Speed: encoder.SpeedFalcon})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	info, frame, err := jpegxl.Decode(compressed)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if info.Width != 16 || info.Height != 16 {
		t.Errorf("dimensions %dx%d, want 16x16", info.Width, info.Height)
	}
	if len(frame.Data) != 16*16*4 {
		t.Errorf("len(frame.Data) = %d, want %d", len(frame.Data), 16*16*4)
	}
}

func TestDecodeReader(t *testing.T) {
	src := newRedFrame(8, 8)
	compressed := encodeLossless(t, src)

	info, frame, err := jpegxl.DecodeReader(context.Background(), bytes.NewReader(compressed))
	if err != nil {
		t.Fatalf("DecodeReader: %v", err)
	}
	if info.Width != 8 || info.Height != 8 {
		t.Errorf("dimensions %dx%d, want 8x8", info.Width, info.Height)
	}
	if !bytes.Equal(frame.Data, src.Data) {
		t.Error("streaming round trip changed pixel data")
	}
}

func TestDecodeReader_OneByteAtATime(t *testing.T) {
	compressed := encodeLossless(t, newRedFrame(4, 4))

	// iotest-style single-byte reader exercises resumable input.
	r := &oneByteReader{data: compressed}
	_, frame, err := jpegxl.DecodeReader(context.Background(), r)
	if err != nil {
		t.Fatalf("DecodeReader: %v", err)
	}
	if len(frame.Data) != 64 {
		t.Errorf("len(frame.Data) = %d, want 64", len(frame.Data))
	}
}

type oneByteReader struct {
	data []byte
	off  int
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if r.off >= len(r.data) {
		return 0, io.EOF
	}
	p[0] = r.data[r.off]
	r.off++
	return 1, nil
}

func TestDecodeReaderConfig_SizeLimit(t *testing.T) {
	compressed := encodeLossless(t, newRedFrame(8, 8))

	cfg := config.Default()
	cfg.MaxImageBytes = 4
	if _, _, err := jpegxl.DecodeReaderConfig(context.Background(), cfg, bytes.NewReader(compressed)); err == nil {
		t.Error("input over the size cap should fail")
	}

	// A generous cap lets the same stream through.
	cfg.MaxImageBytes = int64(len(compressed))
	cfg.ChunkSize = 7
	if _, _, err := jpegxl.DecodeReaderConfig(context.Background(), cfg, bytes.NewReader(compressed)); err != nil {
		t.Fatalf("DecodeReaderConfig within cap: %v", err)
	}
}

func TestEncodeReader(t *testing.T) {
	src := newRedFrame(4, 4)
	compressed, err := jpegxl.EncodeReader(context.Background(), bytes.NewReader(src.Data),
		4, 4, core.DefaultPixelFormat(), encoder.Options{Lossless: true, Speed: encoder.SpeedFalcon})
	if err != nil {
		t.Fatalf("EncodeReader: %v", err)
	}

	_, frame, err := jpegxl.Decode(compressed)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !bytes.Equal(frame.Data, src.Data) {
		t.Error("round trip through reader changed pixel data")
	}
}

func TestEncodeReaderConfig_SizeLimit(t *testing.T) {
	src := newRedFrame(4, 4)
	cfg := config.Default()
	cfg.MaxImageBytes = 8
	_, err := jpegxl.EncodeReaderConfig(context.Background(), cfg, bytes.NewReader(src.Data),
		4, 4, core.DefaultPixelFormat(), encoder.Options{Lossless: true})
	if err == nil {
		t.Error("pixel stream over the size cap should fail")
	}
}

// ── Error taxonomy ────────────────────────────────────────────────────────────

func TestDecode_EmptyInput(t *testing.T) {
	_, _, err := jpegxl.Decode(nil)
	if !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Errorf("err = %v, want KindInvalidInput", err)
	}
}

func TestDecode_Garbage(t *testing.T) {
	_, _, err := jpegxl.Decode([]byte("definitely not an image"))
	if !apperrors.IsKind(err, apperrors.KindInvalidInput) {
		t.Errorf("err = %v, want KindInvalidInput", err)
	}
}

func TestDecode_Truncated(t *testing.T) {
	compressed := encodeLossless(t, newRedFrame(8, 8))

	_, _, err := jpegxl.Decode(compressed[:len(compressed)/2])
	if !apperrors.IsKind(err, apperrors.KindTruncatedInput) {
		t.Errorf("err = %v, want KindTruncatedInput", err)
	}
}

// ── Signature checks ──────────────────────────────────────────────────────────

func TestCheckSignature(t *testing.T) {
	compressed := encodeLossless(t, newRedFrame(4, 4))

	tests := []struct {
		name string
		data []byte
		want jpegxl.SignatureResult
	}{
		{"full stream", compressed, jpegxl.SignatureValid},
		{"first two bytes", compressed[:2], jpegxl.SignatureValid},
		{"one byte", compressed[:1], jpegxl.SignatureNeedMoreBytes},
		{"empty", nil, jpegxl.SignatureNeedMoreBytes},
		{"jpeg magic", []byte{0xFF, 0xD8, 0xFF, 0xE0}, jpegxl.SignatureInvalid},
		{"text", []byte("hello world!"), jpegxl.SignatureInvalid},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := jpegxl.CheckSignature(tt.data); got != tt.want {
				t.Errorf("CheckSignature = %v, want %v", got, tt.want)
			}
		})
	}
}

// ── Animation ─────────────────────────────────────────────────────────────────

func TestEncodeAnimation(t *testing.T) {
	frames := []*core.FrameBuffer{newRedFrame(4, 4), newRedFrame(4, 4), newRedFrame(4, 4)}
	compressed, err := jpegxl.EncodeAnimation(frames, encoder.Options{
		Lossless:  true,
		Speed:     encoder.SpeedFalcon,
		Animation: &encoder.Animation{TPSNumerator: 10, TPSDenominator: 1},
	})
	if err != nil {
		t.Fatalf("EncodeAnimation: %v", err)
	}

	info, frame, err := jpegxl.Decode(compressed)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !info.HaveAnimation {
		t.Error("HaveAnimation = false, want true")
	}
	if frame == nil {
		t.Fatal("no frame decoded")
	}
}
