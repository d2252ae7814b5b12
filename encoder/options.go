package encoder

import (
	"fmt"

	"github.com/Skryldev/go-jpegxl/core"
	apperrors "github.com/Skryldev/go-jpegxl/errors"
)

// Speed is the encode effort tier.  Lower tiers finish faster and compress
// worse; the names follow the native engine's.
type Speed int

const (
	SpeedLightning Speed = 1
	SpeedThunder   Speed = 2
	SpeedFalcon    Speed = 3
	SpeedCheetah   Speed = 4
	SpeedHare      Speed = 5
	SpeedWombat    Speed = 6
	SpeedSquirrel  Speed = 7
	SpeedKitten    Speed = 8
	SpeedTortoise  Speed = 9
)

func (s Speed) String() string {
	names := [...]string{"lightning", "thunder", "falcon", "cheetah", "hare",
		"wombat", "squirrel", "kitten", "tortoise"}
	if s >= SpeedLightning && s <= SpeedTortoise {
		return names[s-1]
	}
	return "unknown"
}

// ParseSpeed maps a tier name (as used in config files) to its Speed value.
func ParseSpeed(name string) (Speed, error) {
	for s := SpeedLightning; s <= SpeedTortoise; s++ {
		if s.String() == name {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown speed tier %q", name)
}

// Animation declares the timebase of a multi-frame session.  Frames are
// accepted in presentation order; reordering is not supported.
type Animation struct {
	// TPSNumerator / TPSDenominator define ticks per second.
	TPSNumerator   uint32
	TPSDenominator uint32
	// NumLoops is 0 for infinite looping.
	NumLoops uint32
}

// Options configures an encode session.  All fields are fixed once the first
// frame is added; later changes are rejected, not silently deferred.
type Options struct {
	// Speed is the effort tier; zero value defaults to SpeedSquirrel.
	Speed Speed
	// Distance is the Butteraugli distance: 0 is mathematically lossless,
	// 1 visually lossless, larger is lossier.  Ignored when Lossless is set.
	Distance float32
	// Lossless forces distance 0 and implies UsesOriginalProfile.
	Lossless bool

	// Threads sizes the native worker pool; 0 uses the engine default.
	Threads int
	// ResizableRunner selects the pool that sizes itself per image.
	ResizableRunner bool

	// Color is embedded in the output; nil defaults to sRGB (gray variant
	// for 1-2 channel input).
	Color *core.ColorEncoding

	// UseContainer wraps the codestream in the ISOBMFF container.  Required
	// for metadata boxes; enabled implicitly when they are used.
	UseContainer bool
	// UsesOriginalProfile keeps the original color profile through the
	// pipeline instead of the internal XYB representation.
	UsesOriginalProfile bool

	// DecodingSpeed trades quality for decode speed, 0 (best) to 4.
	DecodingSpeed int

	// InitBufferSize seeds the growable output buffer; 0 picks a default.
	InitBufferSize int

	// Animation must be set for multi-frame sessions.
	Animation *Animation

	Logger  core.Logger
	Hooks   []core.Hook
	Metrics core.MetricsCollector
}

func (o *Options) normalize() error {
	if o.Speed == 0 {
		o.Speed = SpeedSquirrel
	}
	if o.Speed < SpeedLightning || o.Speed > SpeedTortoise {
		return apperrors.Wrap(apperrors.CategoryConfig, "options",
			fmt.Errorf("speed tier %d out of range", o.Speed))
	}
	if o.Distance < 0 || o.Distance > 25 {
		return apperrors.Wrap(apperrors.CategoryConfig, "options",
			fmt.Errorf("distance %g out of range [0, 25]", o.Distance))
	}
	if o.DecodingSpeed < 0 || o.DecodingSpeed > 4 {
		return apperrors.Wrap(apperrors.CategoryConfig, "options",
			fmt.Errorf("decoding speed %d out of range [0, 4]", o.DecodingSpeed))
	}
	if o.Lossless {
		o.Distance = 0
		o.UsesOriginalProfile = true
	}
	if o.Animation != nil && o.Animation.TPSDenominator == 0 {
		o.Animation.TPSDenominator = 1
	}
	if o.Animation != nil && o.Animation.TPSNumerator == 0 {
		o.Animation.TPSNumerator = 10
	}
	return nil
}
