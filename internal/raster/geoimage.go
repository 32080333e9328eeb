package raster

import "github.com/terrapage/terrapage/internal/spatial"

// GeoImage pairs a color raster with the geospatial extent it covers.
type GeoImage struct {
	Image  *Image
	Extent spatial.Extent
}

// GeoHeightfield pairs a single-channel (R32Float/R64Float) elevation raster
// with the geospatial extent it covers.
type GeoHeightfield struct {
	Image  *Image
	Extent spatial.Extent
}

// HeightAt samples the heightfield at a geospatial (x, y) point, returning
// (height, true) or (0, false) for a no-data or out-of-extent sample.
func (h GeoHeightfield) HeightAt(x, y float64) (float64, bool) {
	if !h.Extent.Valid() || h.Image == nil {
		return 0, false
	}
	if x < h.Extent.MinX || x > h.Extent.MaxX || y < h.Extent.MinY || y > h.Extent.MaxY {
		return 0, false
	}
	u := (x - h.Extent.MinX) / h.Extent.Width()
	v := 1.0 - (y-h.Extent.MinY)/h.Extent.Height()
	r, _, _, _, ok := h.Image.SampleBilinear(u, v)
	return r, ok
}

// ColorAt samples the color image at a point (x, y) given in g.Extent's own
// SRS.
func (g GeoImage) ColorAt(x, y float64) (r, gg, b, a float64, ok bool) {
	if !g.Extent.Valid() || g.Image == nil {
		return 0, 0, 0, 0, false
	}
	if x < g.Extent.MinX || x > g.Extent.MaxX || y < g.Extent.MinY || y > g.Extent.MaxY {
		return 0, 0, 0, 0, false
	}
	u := (x - g.Extent.MinX) / g.Extent.Width()
	v := 1.0 - (y-g.Extent.MinY)/g.Extent.Height()
	return g.Image.SampleBilinear(u, v)
}

// ColorAtTransformed samples the color image at a point (x, y) given in a
// foreign SRS, transforming it into g.Extent's SRS via op (op.to must equal
// g.Extent.SRS) once per call before sampling. Used by Mosaic so a candidate
// in a different profile/SRS than the target extent is read correctly
// instead of having the target's raw coordinates misapplied to its own grid.
func (g GeoImage) ColorAtTransformed(x, y float64, op spatial.SRSOperation) (r, gg, b, a float64, ok bool) {
	p, err := op.Transform(spatial.GeodeticPoint{Lon: x, Lat: y})
	if err != nil {
		return 0, 0, 0, 0, false
	}
	return g.ColorAt(p.Lon, p.Lat)
}

// Crop resamples g onto the given sub-extent (which must be contained within
// g.Extent and share its SRS) at the requested output size, using bilinear
// sampling.
func (g GeoImage) Crop(sub spatial.Extent, width, height int) GeoImage {
	return g.resample(sub, width, height, nil)
}

// ResampleInto resamples g onto dst (given in dst.SRS, which may differ from
// g.Extent.SRS) at the requested output size, transforming each destination
// sample point into g's own SRS via op before sampling. op must transform
// dst.SRS to g.Extent.SRS.
func (g GeoImage) ResampleInto(dst spatial.Extent, width, height int, op spatial.SRSOperation) GeoImage {
	return g.resample(dst, width, height, &op)
}

func (g GeoImage) resample(dst spatial.Extent, width, height int, op *spatial.SRSOperation) GeoImage {
	out := NewImage(g.Image.format, width, height)
	if g.Image.hasNoData {
		out.SetNoDataValue(g.Image.noDataValue)
	}
	for py := 0; py < height; py++ {
		wy := dst.MaxY - (float64(py)+0.5)/float64(height)*dst.Height()
		for px := 0; px < width; px++ {
			wx := dst.MinX + (float64(px)+0.5)/float64(width)*dst.Width()

			var r, gg, b, a float64
			var ok bool
			if op != nil {
				r, gg, b, a, ok = g.ColorAtTransformed(wx, wy, *op)
			} else {
				r, gg, b, a, ok = g.ColorAt(wx, wy)
			}
			if !ok {
				if g.Image.hasNoData {
					out.Set(px, py, g.Image.noDataValue, 0, 0, 0)
				}
				continue
			}
			out.Set(px, py, r, gg, b, a)
		}
	}
	return GeoImage{Image: out, Extent: dst}
}

// CropHeightfield is the GeoHeightfield analogue of GeoImage.Crop.
func (h GeoHeightfield) Crop(sub spatial.Extent, width, height int) GeoHeightfield {
	out := NewImage(h.Image.format, width, height)
	if h.Image.hasNoData {
		out.SetNoDataValue(h.Image.noDataValue)
	}
	for py := 0; py < height; py++ {
		wy := sub.MaxY - (float64(py)+0.5)/float64(height)*sub.Height()
		for px := 0; px < width; px++ {
			wx := sub.MinX + (float64(px)+0.5)/float64(width)*sub.Width()
			v, ok := h.HeightAt(wx, wy)
			if !ok {
				if h.Image.hasNoData {
					out.Set(px, py, h.Image.noDataValue, 0, 0, 0)
				}
				continue
			}
			out.Set(px, py, v, 0, 0, 0)
		}
	}
	return GeoHeightfield{Image: out, Extent: sub}
}
