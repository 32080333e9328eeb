// Package raster implements the typed pixel image model used for tile color
// and elevation data: a closed pixel-format enum, bilinear sampling with
// no-data propagation, sRGB encode/decode, sharpen/convolve filters, and the
// mosaic/composite assembly used to build a single tile's imagery from
// several overlapping sources.
package raster

import "fmt"

// Format is a closed enumeration of supported pixel layouts. Every format
// stores a 4-channel (R,G,B,A) or 1-channel (R) sample internally; the
// format only governs how values are externally encoded/decoded and how
// many channels carry meaning.
type Format int

const (
	R8Unorm Format = iota
	R8G8Unorm
	R8G8B8Unorm
	R8G8B8A8Unorm
	R8G8B8Srgb
	R8G8B8A8Srgb
	R16Unorm
	R32Float
	R64Float
)

func (f Format) String() string {
	switch f {
	case R8Unorm:
		return "r8-unorm"
	case R8G8Unorm:
		return "r8g8-unorm"
	case R8G8B8Unorm:
		return "r8g8b8-unorm"
	case R8G8B8A8Unorm:
		return "r8g8b8a8-unorm"
	case R8G8B8Srgb:
		return "r8g8b8-srgb"
	case R8G8B8A8Srgb:
		return "r8g8b8a8-srgb"
	case R16Unorm:
		return "r16-unorm"
	case R32Float:
		return "r32-float"
	case R64Float:
		return "r64-float"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Channels returns the number of meaningful channels for f (1 for the
// single-channel formats used by elevation/mask data, otherwise 2, 3 or 4).
func (f Format) Channels() int {
	switch f {
	case R8Unorm, R16Unorm, R32Float, R64Float:
		return 1
	case R8G8Unorm:
		return 2
	case R8G8B8Unorm, R8G8B8Srgb:
		return 3
	case R8G8B8A8Unorm, R8G8B8A8Srgb:
		return 4
	default:
		return 0
	}
}

// HasAlpha reports whether f carries a discrete alpha channel.
func (f Format) HasAlpha() bool {
	return f == R8G8Unorm || f == R8G8B8A8Unorm || f == R8G8B8A8Srgb
}

// IsSRGB reports whether f's color channels are gamma-encoded. Alpha is
// never gamma-converted even on an sRGB format.
func (f Format) IsSRGB() bool {
	return f == R8G8B8Srgb || f == R8G8B8A8Srgb
}

// IsFloat reports whether f stores raw (non-normalized) float samples,
// as used by elevation data.
func (f Format) IsFloat() bool {
	return f == R32Float || f == R64Float
}

// BytesPerChannel returns the on-the-wire storage width for one channel.
func (f Format) BytesPerChannel() int {
	switch f {
	case R8Unorm, R8G8Unorm, R8G8B8Unorm, R8G8B8A8Unorm, R8G8B8Srgb, R8G8B8A8Srgb:
		return 1
	case R16Unorm:
		return 2
	case R32Float:
		return 4
	case R64Float:
		return 8
	default:
		return 0
	}
}
