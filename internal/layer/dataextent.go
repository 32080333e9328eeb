package layer

import "github.com/terrapage/terrapage/internal/spatial"

// DataExtent describes a region within which a layer actually has data,
// optionally bounded to a LOD range. A layer with no DataExtents is assumed
// to have data everywhere within its profile.
type DataExtent struct {
	Extent   spatial.Extent
	MinLevel uint32
	HasMax   bool
	MaxLevel uint32
}

// Contains reports whether lod falls within the extent's optional LOD window.
func (d DataExtent) Contains(lod uint32) bool {
	if lod < d.MinLevel {
		return false
	}
	if d.HasMax && lod > d.MaxLevel {
		return false
	}
	return true
}

// ExtentIndex is a simple spatial index over a layer's DataExtents. A literal
// R-tree/quadtree library's exact API could not be safely verified offline,
// so this uses a linear scan over spatial.Extent.Intersects; for the
// DataExtent counts a single layer realistically carries (tens to low
// hundreds), this is not a meaningful cost compared to the I/O the layer
// source itself performs per candidate.
type ExtentIndex struct {
	extents []DataExtent
}

func NewExtentIndex(extents []DataExtent) *ExtentIndex {
	return &ExtentIndex{extents: extents}
}

// Empty reports whether the layer declared no DataExtents at all (meaning:
// assume data everywhere).
func (idx *ExtentIndex) Empty() bool { return idx == nil || len(idx.extents) == 0 }

// Intersecting returns every DataExtent overlapping ext and valid at lod.
func (idx *ExtentIndex) Intersecting(ext spatial.Extent, lod uint32) []DataExtent {
	if idx.Empty() {
		return nil
	}
	var out []DataExtent
	for _, d := range idx.extents {
		if !d.Contains(lod) {
			continue
		}
		if d.Extent.SRS.HorizontallyEquivalentTo(ext.SRS) && d.Extent.Intersects(ext) {
			out = append(out, d)
		}
	}
	return out
}

// HasDataAt reports whether ext/lod is covered by any declared DataExtent,
// or true unconditionally if the layer declared none.
func (idx *ExtentIndex) HasDataAt(ext spatial.Extent, lod uint32) bool {
	if idx.Empty() {
		return true
	}
	return len(idx.Intersecting(ext, lod)) > 0
}

// MaxLevelAt reports the highest MaxLevel declared among extents
// intersecting ext, ignoring any LOD window (used by BestAvailableTileKey to
// find the deepest LOD the layer claims to have data at, regardless of the
// level being queried). found is false if nothing intersects ext at all;
// unbounded is true if any intersecting extent declared no MaxLevel, in
// which case level is meaningless.
func (idx *ExtentIndex) MaxLevelAt(ext spatial.Extent) (level uint32, unbounded, found bool) {
	if idx.Empty() {
		return 0, true, true
	}
	for _, d := range idx.extents {
		if !d.Extent.SRS.HorizontallyEquivalentTo(ext.SRS) || !d.Extent.Intersects(ext) {
			continue
		}
		found = true
		if !d.HasMax {
			unbounded = true
			continue
		}
		if !unbounded && d.MaxLevel > level {
			level = d.MaxLevel
		}
	}
	return level, unbounded, found
}
