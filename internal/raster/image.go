package raster

import "math"

// NoData is the sentinel returned for a no-data sample.
const NoData = math.MaxFloat64

// Image is a 2D grid of samples in a fixed Format. Values are always held
// internally as linear (not gamma-encoded) float64 per channel, in [0,1] for
// the *Unorm/*Srgb formats and in raw units for the float formats; encoding
// happens only at the Format boundary (e.g. sRGB piecewise encode/decode).
type Image struct {
	format      Format
	width       int
	height      int
	pix         []float64 // width*height*4, channel order R,G,B,A
	hasNoData   bool
	noDataValue float64
}

// NewImage allocates a zero-filled image of the given format and size.
func NewImage(format Format, width, height int) *Image {
	return &Image{
		format: format,
		width:  width,
		height: height,
		pix:    make([]float64, width*height*4),
	}
}

func (img *Image) Format() Format { return img.format }
func (img *Image) Width() int    { return img.width }
func (img *Image) Height() int   { return img.height }

// SetNoDataValue marks img as carrying a single-channel no-data sentinel
// (used by elevation rasters, where channel R == noDataValue means "no data").
func (img *Image) SetNoDataValue(v float64) {
	img.hasNoData = true
	img.noDataValue = v
}

func (img *Image) NoDataValue() float64 {
	if !img.hasNoData {
		return NoData
	}
	return img.noDataValue
}

func (img *Image) HasNoDataValue() bool { return img.hasNoData }

func (img *Image) offset(x, y int) int { return (y*img.width + x) * 4 }

// At returns the raw R,G,B,A sample at (x, y). Out-of-bounds coordinates are
// clamped to the edge.
func (img *Image) At(x, y int) (r, g, b, a float64) {
	x = clampInt(x, 0, img.width-1)
	y = clampInt(y, 0, img.height-1)
	o := img.offset(x, y)
	return img.pix[o], img.pix[o+1], img.pix[o+2], img.pix[o+3]
}

// Set writes the R,G,B,A sample at (x, y). Coordinates must be in-bounds.
func (img *Image) Set(x, y int, r, g, b, a float64) {
	o := img.offset(x, y)
	img.pix[o], img.pix[o+1], img.pix[o+2], img.pix[o+3] = r, g, b, a
}

// IsNoData reports whether the sample at (x, y) carries the no-data
// sentinel in its first channel.
func (img *Image) IsNoData(x, y int) bool {
	if !img.hasNoData {
		return false
	}
	r, _, _, _ := img.At(x, y)
	return r == img.noDataValue
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampF(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// SampleBilinear samples img at normalized coordinates (u, v) in [0,1],
// with (0,0) at the top-left. It uses clamp-to-edge addressing, and
// propagates no-data: if any of the four contributing texels is no-data,
// the sample itself is reported as no-data.
func (img *Image) SampleBilinear(u, v float64) (r, g, b, a float64, ok bool) {
	if img.width == 0 || img.height == 0 {
		return 0, 0, 0, 0, false
	}
	u = clampF(u, 0, 1)
	v = clampF(v, 0, 1)

	fx := u*float64(img.width) - 0.5
	fy := v*float64(img.height) - 0.5

	x0 := int(math.Floor(fx))
	y0 := int(math.Floor(fy))
	x1, y1 := x0+1, y0+1

	tx := fx - float64(x0)
	ty := fy - float64(y0)

	if img.hasNoData {
		for _, p := range [][2]int{{x0, y0}, {x1, y0}, {x0, y1}, {x1, y1}} {
			if img.IsNoData(clampInt(p[0], 0, img.width-1), clampInt(p[1], 0, img.height-1)) {
				return 0, 0, 0, 0, false
			}
		}
	}

	r00, g00, b00, a00 := img.At(x0, y0)
	r10, g10, b10, a10 := img.At(x1, y0)
	r01, g01, b01, a01 := img.At(x0, y1)
	r11, g11, b11, a11 := img.At(x1, y1)

	lerp := func(a, b, t float64) float64 { return a + (b-a)*t }
	mix2 := func(v00, v10, v01, v11 float64) float64 {
		top := lerp(v00, v10, tx)
		bot := lerp(v01, v11, tx)
		return lerp(top, bot, ty)
	}

	return mix2(r00, r10, r01, r11),
		mix2(g00, g10, g01, g11),
		mix2(b00, b10, b01, b11),
		mix2(a00, a10, a01, a11),
		true
}

// Clone returns a deep copy of img.
func (img *Image) Clone() *Image {
	out := &Image{
		format:      img.format,
		width:       img.width,
		height:      img.height,
		pix:         make([]float64, len(img.pix)),
		hasNoData:   img.hasNoData,
		noDataValue: img.noDataValue,
	}
	copy(out.pix, img.pix)
	return out
}
