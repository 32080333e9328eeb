package raster

import "image/color"

// GeneratePlaceholder synthesizes a flat-tinted, softly-blurred fallback
// texture for a tile whose data source has nothing to offer (e.g. a root
// tile with no backing layer), so the pager always has something to hand
// the render model rather than leaving a hole. Grounded on the same
// tint-then-blur pattern used to finish hand-authored ground textures: a
// solid tint color is blurred so it doesn't read as a hard-edged placeholder
// once the render model scales it up.
func GeneratePlaceholder(width, height int, tint color.NRGBA, blurSigma float32) *Image {
	img := NewImage(R8G8B8A8Srgb, width, height)
	r := float64(tint.R) / 255.0
	g := float64(tint.G) / 255.0
	b := float64(tint.B) / 255.0
	a := float64(tint.A) / 255.0
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, r, g, b, a)
		}
	}
	if blurSigma <= 0 {
		return img
	}
	return img.GaussianBlur(blurSigma)
}
