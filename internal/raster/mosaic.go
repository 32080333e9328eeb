package raster

import "github.com/terrapage/terrapage/internal/spatial"

// CompositeOver blends src onto dst in place, back-to-front, using
// out = mix(out, src, src.a * opacity). This mirrors the straight
// (non-premultiplied) alpha-over blend the tile compositor has always used,
// generalized here to accept a layer opacity multiplier.
func CompositeOver(dst, src *Image, opacity float64) {
	if dst == nil || src == nil || dst.width != src.width || dst.height != src.height {
		return
	}
	for y := 0; y < dst.height; y++ {
		for x := 0; x < dst.width; x++ {
			sr, sg, sb, sa := src.At(x, y)
			if sa <= 0 {
				continue
			}
			dr, dg, db, da := dst.At(x, y)
			w := sa * opacity
			mix := func(o, s float64) float64 { return o + (s-o)*w }
			dst.Set(x, y, mix(dr, sr), mix(dg, sg), mix(db, sb), mix(da, sa))
		}
	}
}

// Candidate is one input to a mosaic assembly: an image plus the opacity and
// extent it should be composited with.
type Candidate struct {
	Image   *Image
	Extent  spatial.Extent
	Opacity float64
}

// Mosaic resamples each candidate onto targetExtent at (width, height) and
// composites them back-to-front in the order given (first = bottommost),
// matching the layer stack's draw order. Each candidate may be in a
// different SRS than targetExtent (e.g. a mercator image layer composited
// into a geodetic tile): per spec, every destination sample point is
// transformed into that candidate's own SRS, via one SRSOperation resolved
// once per candidate rather than re-resolved per pixel, before sampling.
func Mosaic(candidates []Candidate, targetExtent spatial.Extent, width, height int, format Format) *Image {
	out := NewImage(format, width, height)
	for _, c := range candidates {
		if c.Image == nil || !c.Extent.Valid() {
			continue
		}
		g := GeoImage{Image: c.Image, Extent: c.Extent}
		op := targetExtent.SRS.To(c.Extent.SRS)
		resampled := g.ResampleInto(targetExtent, width, height, op)
		opacity := c.Opacity
		if opacity <= 0 {
			opacity = 1
		}
		CompositeOver(out, resampled.Image, opacity)
	}
	return out
}
