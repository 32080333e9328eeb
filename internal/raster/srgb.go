package raster

import "math"

// SRGBEncode converts a linear color component in [0,1] to its sRGB-encoded
// equivalent using the piecewise transfer function (not the gamma-2.2
// approximation). Alpha is never passed through this function.
func SRGBEncode(linear float64) float64 {
	linear = clampF(linear, 0, 1)
	if linear <= 0.0031308 {
		return linear * 12.92
	}
	return 1.055*math.Pow(linear, 1.0/2.4) - 0.055
}

// SRGBDecode converts an sRGB-encoded color component in [0,1] back to
// linear space.
func SRGBDecode(encoded float64) float64 {
	encoded = clampF(encoded, 0, 1)
	if encoded <= 0.04045 {
		return encoded / 12.92
	}
	return math.Pow((encoded+0.055)/1.055, 2.4)
}

// ToLinear returns a copy of img with its color channels (R,G,B) decoded
// from sRGB into linear space. Alpha and non-sRGB formats are returned
// unchanged. The result keeps img's Format tag; callers that need to persist
// the conversion should also change the format they write out under.
func (img *Image) ToLinear() *Image {
	if !img.format.IsSRGB() {
		return img.Clone()
	}
	out := img.Clone()
	for i := 0; i < out.width*out.height; i++ {
		o := i * 4
		out.pix[o] = SRGBDecode(out.pix[o])
		out.pix[o+1] = SRGBDecode(out.pix[o+1])
		out.pix[o+2] = SRGBDecode(out.pix[o+2])
		// alpha (index o+3) passes through unconverted
	}
	return out
}

// ToSRGB returns a copy of img with its color channels (R,G,B) encoded from
// linear into sRGB space. Alpha is never gamma-converted.
func (img *Image) ToSRGB() *Image {
	out := img.Clone()
	for i := 0; i < out.width*out.height; i++ {
		o := i * 4
		out.pix[o] = SRGBEncode(out.pix[o])
		out.pix[o+1] = SRGBEncode(out.pix[o+1])
		out.pix[o+2] = SRGBEncode(out.pix[o+2])
	}
	return out
}
