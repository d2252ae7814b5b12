package errors

import (
	"errors"
	"fmt"
)

// Category classifies error origins for targeted handling and monitoring.
type Category string

const (
	CategoryDecode    Category = "decode"
	CategoryEncode    Category = "encode"
	CategorySignature Category = "signature"
	CategoryRunner    Category = "runner"
	CategoryConfig    Category = "config"
	CategoryPool      Category = "pool"
	CategoryInput     Category = "input"
)

// Kind is the open taxonomy of codec failure modes.  New native library
// versions may introduce status codes this wrapper does not model yet; those
// surface as KindGeneric with the raw code attached rather than breaking
// callers.
type Kind int

const (
	// KindGeneric is any native failure without a more specific mapping.
	KindGeneric Kind = iota
	// KindInvalidInput means the input is not this format or is malformed.
	KindInvalidInput
	// KindTruncatedInput means the input starts a valid codestream but ends
	// before it completes.
	KindTruncatedInput
	// KindUninitialized means the session was used before setup or after
	// teardown.
	KindUninitialized
	// KindAllocationFailed means the native engine could not allocate.
	KindAllocationFailed
	// KindNotImplemented means the native engine reported an unsupported
	// feature for this input or option combination.
	KindNotImplemented
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "invalid input"
	case KindTruncatedInput:
		return "truncated input"
	case KindUninitialized:
		return "uninitialized"
	case KindAllocationFailed:
		return "allocation failed"
	case KindNotImplemented:
		return "not implemented"
	default:
		return "generic error"
	}
}

// CodecError is the structured error type used throughout the module.
// NativeCode carries the raw status from the native engine, when one exists,
// for diagnostics.
type CodecError struct {
	Category   Category
	Kind       Kind
	Op         string // operation name
	NativeCode int32
	Err        error
}

func (e *CodecError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s: %v", e.Category, e.Op, e.Kind, e.Err)
	}
	if e.Kind == KindGeneric && e.NativeCode != 0 {
		return fmt.Sprintf("[%s] %s: %s (native code %d)", e.Category, e.Op, e.Kind, e.NativeCode)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Category, e.Op, e.Kind)
}

func (e *CodecError) Unwrap() error { return e.Err }

// New creates a CodecError of the given kind.
func New(category Category, kind Kind, op string) *CodecError {
	return &CodecError{Category: category, Kind: kind, Op: op}
}

// Native creates a KindGeneric CodecError carrying a raw native status code.
func Native(category Category, op string, code int32) *CodecError {
	return &CodecError{Category: category, Kind: KindGeneric, Op: op, NativeCode: code}
}

// Wrap attaches category and operation context to an existing error.
// Returns nil when err is nil.
func Wrap(category Category, op string, err error) error {
	if err == nil {
		return nil
	}
	var ce *CodecError
	if errors.As(err, &ce) {
		return &CodecError{Category: category, Kind: ce.Kind, Op: op, NativeCode: ce.NativeCode, Err: err}
	}
	return &CodecError{Category: category, Kind: KindGeneric, Op: op, Err: err}
}

// KindOf extracts the Kind from err, or KindGeneric when err is not a
// CodecError.
func KindOf(err error) Kind {
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return KindGeneric
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce.Kind == kind
	}
	return false
}

// IsCategory reports whether err belongs to the given category.
func IsCategory(err error, cat Category) bool {
	var ce *CodecError
	if errors.As(err, &ce) {
		return ce.Category == cat
	}
	return false
}

// Sentinel errors for common failure modes outside the native boundary.
var (
	ErrEmptyInput             = errors.New("empty input")
	ErrInvalidDimensions      = errors.New("invalid dimensions")
	ErrBufferSizeMismatch     = errors.New("buffer length does not match dimensions and pixel format")
	ErrUnsupportedPixelFormat = errors.New("unsupported pixel format")
	ErrSessionClosed          = errors.New("session is closed")
	ErrEncoderStarted         = errors.New("encoder options are frozen once the first frame is added")
	ErrPoolQueueFull          = errors.New("worker pool queue full")
)
