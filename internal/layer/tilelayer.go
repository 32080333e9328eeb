package layer

import (
	"github.com/terrapage/terrapage/internal/profile"
)

// TileLayer is the shared configuration for any layer that produces data
// tile-by-tile against a Profile: tiling geometry, the LOD window it
// participates in, and its declared DataExtents.
type TileLayer struct {
	Base

	profile  profile.Profile
	tileSize int
	minLevel uint32
	maxLevel uint32
	hasMax   bool
	index    *ExtentIndex
}

// NewTileLayer constructs a TileLayer. maxLevel is only meaningful if
// hasMax is true; an ElevationLayer intentionally leaves hasMax false so
// ancestor fallback searches can run past any nominal maxLevel (see
// SPEC_FULL.md §9's resolution of that Open Question).
func NewTileLayer(base Base, p profile.Profile, tileSize int, minLevel, maxLevel uint32, hasMax bool, extents []DataExtent) TileLayer {
	return TileLayer{
		Base:     base,
		profile:  p,
		tileSize: tileSize,
		minLevel: minLevel,
		maxLevel: maxLevel,
		hasMax:   hasMax,
		index:    NewExtentIndex(extents),
	}
}

func (t *TileLayer) Profile() profile.Profile { return t.profile }
func (t *TileLayer) TileSize() int            { return t.tileSize }
func (t *TileLayer) MinLevel() uint32         { return t.minLevel }

// MaxLevel returns the layer's configured maximum LOD and whether one was
// declared at all.
func (t *TileLayer) MaxLevel() (uint32, bool) { return t.maxLevel, t.hasMax }

// InLevelRange reports whether lod is within [minLevel, maxLevel].
func (t *TileLayer) InLevelRange(lod uint32) bool {
	if lod < t.minLevel {
		return false
	}
	if t.hasMax && lod > t.maxLevel {
		return false
	}
	return true
}

// HasDataAt reports whether the layer has declared data intersecting key's
// extent at key's LOD; a layer with no DataExtents is assumed to cover its
// whole profile.
func (t *TileLayer) HasDataAt(key profile.TileKey) bool {
	return t.index.HasDataAt(key.Extent(), key.Level)
}

func (t *TileLayer) Index() *ExtentIndex { return t.index }

// BestAvailableTileKey is the "where is data?" oracle (SPEC_FULL.md §4.D):
// it maps key into the layer's own profile, finds the deepest LOD the
// layer's declared DataExtents claim to cover there, and translates that
// back into an ancestor key of key (in key's own profile) at which the
// layer is expected to actually have data. Returns an invalid key if key
// falls outside the layer's level range or its extents don't reach there at all.
func (t *TileLayer) BestAvailableTileKey(key profile.TileKey) profile.TileKey {
	local := key.IntersectingKeys(t.profile)
	if len(local) == 0 {
		return profile.TileKey{}
	}
	localLevel := local[0].Level
	if localLevel < t.minLevel || (t.hasMax && localLevel > t.maxLevel) {
		return profile.TileKey{}
	}

	var maxDeclared uint32
	unbounded, found := false, false
	for _, lk := range local {
		lvl, ub, f := t.index.MaxLevelAt(lk.Extent())
		if !f {
			continue
		}
		found = true
		if ub {
			unbounded = true
			continue
		}
		if lvl > maxDeclared {
			maxDeclared = lvl
		}
	}
	if !found {
		return profile.TileKey{}
	}

	bestLocalLevel := localLevel
	if !unbounded && maxDeclared < localLevel {
		bestLocalLevel = maxDeclared
	}

	// delta accounts for the two profiles addressing the same ground
	// resolution at different nominal LODs.
	delta := int64(key.Level) - int64(localLevel)
	best := int64(bestLocalLevel) - delta
	if best < 0 {
		best = 0
	}
	if best > int64(key.Level) {
		best = int64(key.Level)
	}
	return key.CreateAncestorKey(uint32(best))
}

// MayHaveData reports whether BestAvailableTileKey found anything at all.
func (t *TileLayer) MayHaveData(key profile.TileKey) bool {
	return t.BestAvailableTileKey(key).Valid()
}
