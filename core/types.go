package core

// DataType identifies the sample type of a pixel buffer.
type DataType int

const (
	// TypeUint8 is 8-bit unsigned integer samples.
	TypeUint8 DataType = iota
	// TypeUint16 is 16-bit unsigned integer samples.
	TypeUint16
	// TypeFloat16 is 16-bit IEEE half-float samples.
	TypeFloat16
	// TypeFloat32 is 32-bit float samples.
	TypeFloat32
)

// BytesPerSample returns the storage size of one sample.
func (t DataType) BytesPerSample() int {
	switch t {
	case TypeUint8:
		return 1
	case TypeUint16, TypeFloat16:
		return 2
	case TypeFloat32:
		return 4
	}
	return 0
}

func (t DataType) String() string {
	switch t {
	case TypeUint8:
		return "uint8"
	case TypeUint16:
		return "uint16"
	case TypeFloat16:
		return "float16"
	case TypeFloat32:
		return "float32"
	}
	return "unknown"
}

// Endianness selects the byte order of multi-byte samples.
type Endianness int

const (
	// EndianNative uses the host byte order.
	EndianNative Endianness = iota
	// EndianLittle forces little-endian sample storage.
	EndianLittle
	// EndianBig forces big-endian sample storage.
	EndianBig
)

// PixelFormat describes the in-memory layout of a pixel buffer handed to or
// received from the native engine.  It is a plain value; copying is cheap.
type PixelFormat struct {
	// NumChannels is the interleaved channel count (1 = gray, 2 = gray+alpha,
	// 3 = RGB, 4 = RGBA).
	NumChannels int
	// DataType is the per-sample storage type.
	DataType DataType
	// Endianness applies to multi-byte sample types only.
	Endianness Endianness
	// Align pads each row up to a multiple of this many bytes.  0 or 1
	// means tightly packed.
	Align int
}

// DefaultPixelFormat is 4-channel uint8, native endian, unaligned: the same
// default libjxl assumes for RGBA output.
func DefaultPixelFormat() PixelFormat {
	return PixelFormat{NumChannels: 4, DataType: TypeUint8}
}

// BytesPerPixel returns the packed size of one pixel.
func (f PixelFormat) BytesPerPixel() int {
	return f.NumChannels * f.DataType.BytesPerSample()
}

// RowBytes returns the stride of one row of width pixels, including any
// alignment padding.
func (f PixelFormat) RowBytes(width int) int {
	row := width * f.BytesPerPixel()
	if f.Align > 1 {
		if rem := row % f.Align; rem != 0 {
			row += f.Align - rem
		}
	}
	return row
}

// BufferSize returns the exact byte length a frame of the given dimensions
// occupies in this format.
func (f PixelFormat) BufferSize(width, height int) int {
	if width <= 0 || height <= 0 {
		return 0
	}
	return f.RowBytes(width) * height
}

// FrameBuffer is one frame's worth of raw pixels plus the layout that makes
// the bytes meaningful.  Buffers supplied by the caller are borrowed for the
// duration of a single call; buffers allocated by an engine are owned by the
// caller once returned.
type FrameBuffer struct {
	Data   []byte
	Width  int
	Height int
	Format PixelFormat
}

// BasicInfo is the metadata snapshot the decoder captures once per session,
// available before full pixel decode completes.  Read-only afterward.
type BasicInfo struct {
	Width  uint32
	Height uint32

	BitsPerSample         uint32
	ExponentBitsPerSample uint32

	NumColorChannels   uint32
	NumExtraChannels   uint32
	HasAlpha           bool
	AlphaPremultiplied bool

	// Orientation is the EXIF-style orientation tag (1-8).
	Orientation uint32

	HaveAnimation bool
	HavePreview   bool

	IntensityTarget     float32
	UsesOriginalProfile bool
}

// SignatureResult is the outcome of probing a byte prefix for the JPEG XL
// signature.
type SignatureResult int

const (
	// SignatureInvalid means the bytes are definitely not JPEG XL.
	SignatureInvalid SignatureResult = iota
	// SignatureValid means the bytes start a JPEG XL codestream or container.
	SignatureValid
	// SignatureNeedMoreBytes means the prefix is too short to decide.
	SignatureNeedMoreBytes
)

func (s SignatureResult) String() string {
	switch s {
	case SignatureInvalid:
		return "invalid"
	case SignatureValid:
		return "valid"
	case SignatureNeedMoreBytes:
		return "need-more-bytes"
	}
	return "unknown"
}

// Event is one step of the decoder's pull-based event loop, surfaced to
// streaming callers.
type Event int

const (
	// EventNeedMoreInput asks the caller for the next input chunk.
	EventNeedMoreInput Event = iota
	// EventBasicInfo signals that BasicInfo is now available.
	EventBasicInfo
	// EventColorEncoding signals that the color encoding is now available.
	EventColorEncoding
	// EventFrameHeader signals the start of a new frame.
	EventFrameHeader
	// EventFullFrame signals that a complete frame has been decoded.
	EventFullFrame
	// EventFinished signals the end of the codestream; no further events.
	EventFinished
)

func (e Event) String() string {
	switch e {
	case EventNeedMoreInput:
		return "need-more-input"
	case EventBasicInfo:
		return "basic-info"
	case EventColorEncoding:
		return "color-encoding"
	case EventFrameHeader:
		return "frame-header"
	case EventFullFrame:
		return "full-frame"
	case EventFinished:
		return "finished"
	}
	return "unknown"
}
