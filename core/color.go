package core

// ColorSpace is the structured color model of an image.
type ColorSpace int

const (
	ColorSpaceRGB ColorSpace = iota
	ColorSpaceGray
	ColorSpaceXYB
	ColorSpaceUnknown
)

// WhitePoint identifies the reference white of a structured color encoding.
type WhitePoint int

const (
	WhitePointD65 WhitePoint = iota
	WhitePointCustom
	WhitePointE
	WhitePointDCI
)

// Primaries identifies the color primaries of a structured color encoding.
type Primaries int

const (
	PrimariesSRGB Primaries = iota
	PrimariesCustom
	Primaries2100
	PrimariesP3
)

// TransferFunction identifies the tone curve of a structured color encoding.
type TransferFunction int

const (
	TransferSRGB TransferFunction = iota
	TransferLinear
	Transfer709
	TransferPQ
	TransferHLG
	TransferDCI
	TransferGamma
	TransferUnknown
)

// RenderingIntent is the ICC rendering intent.
type RenderingIntent int

const (
	IntentPerceptual RenderingIntent = iota
	IntentRelative
	IntentSaturation
	IntentAbsolute
)

// ColorEncoding describes how pixel values map to colors.  Exactly one of
// the two representations is populated: ICC holds a raw profile blob, or the
// structured fields describe the encoding directly.  Which one a decode
// session produces depends on what the source image embeds.
type ColorEncoding struct {
	// ICC is the raw ICC profile.  When non-nil the structured fields are
	// meaningless.
	ICC []byte

	Space            ColorSpace
	WhitePoint       WhitePoint
	Primaries        Primaries
	TransferFunction TransferFunction
	// Gamma is only meaningful when TransferFunction is TransferGamma.
	Gamma           float64
	RenderingIntent RenderingIntent
}

// IsICC reports whether the encoding is an opaque ICC profile.
func (c *ColorEncoding) IsICC() bool { return c != nil && len(c.ICC) > 0 }

// SRGB returns the standard sRGB encoding, gray when isGray is set.
func SRGB(isGray bool) *ColorEncoding {
	space := ColorSpaceRGB
	if isGray {
		space = ColorSpaceGray
	}
	return &ColorEncoding{
		Space:            space,
		WhitePoint:       WhitePointD65,
		Primaries:        PrimariesSRGB,
		TransferFunction: TransferSRGB,
		RenderingIntent:  IntentRelative,
	}
}

// LinearSRGB returns sRGB primaries with a linear transfer function.
func LinearSRGB(isGray bool) *ColorEncoding {
	c := SRGB(isGray)
	c.TransferFunction = TransferLinear
	return c
}
