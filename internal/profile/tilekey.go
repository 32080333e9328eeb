package profile

import (
	"fmt"
	"math"
	"sync"

	"github.com/terrapage/terrapage/internal/spatial"
)

// TileKey uniquely identifies a single tile relative to a Profile. Y
// increases downward: row 0 is the top of the profile.
type TileKey struct {
	Level   uint32
	X, Y    uint32
	Profile Profile
}

// Invalid returns the zero-value invalid key.
func Invalid() TileKey { return TileKey{} }

// Valid reports whether the key's profile is valid.
func (k TileKey) Valid() bool { return k.Profile.Valid() }

func (k TileKey) String() string {
	if !k.Valid() {
		return "invalid"
	}
	return fmt.Sprintf("%d/%d/%d", k.Level, k.X, k.Y)
}

// Equal reports whether two keys address the same tile in equivalent profiles.
func (k TileKey) Equal(o TileKey) bool {
	return k.Valid() == o.Valid() && k.Level == o.Level && k.X == o.X && k.Y == o.Y && k.Profile.EquivalentTo(o.Profile)
}

// Extent returns the geospatial extent of the tile addressed by k.
func (k TileKey) Extent() spatial.Extent {
	if !k.Valid() {
		return spatial.Extent{}
	}
	return k.Profile.TileExtent(k.Level, k.X, k.Y)
}

// Quadrant returns which quadrant (0: NW, 1: NE, 2: SW, 3: SE) this key
// occupies within its parent.
func (k TileKey) Quadrant() int {
	if k.Level == 0 {
		return 0
	}
	xEven := k.X&1 == 0
	yEven := k.Y&1 == 0
	switch {
	case xEven && yEven:
		return 0
	case xEven:
		return 2
	case yEven:
		return 1
	default:
		return 3
	}
}

// quadrantScaleBias holds the 0.5x scale-bias matrices for each quadrant,
// indexed as in Quadrant: 0 NW, 1 NE, 2 SW, 3 SE.
var quadrantScaleBias = [4]spatial.Matrix3{
	spatial.ScaleBias3(0.5, 0.5, 0.0, 0.5),
	spatial.ScaleBias3(0.5, 0.5, 0.5, 0.5),
	spatial.ScaleBias3(0.5, 0.5, 0.0, 0.0),
	spatial.ScaleBias3(0.5, 0.5, 0.5, 0.0),
}

// ScaleBiasMatrix returns the 3x3 scale-bias matrix mapping this key's
// texture coordinates into its parent's sub-region. Identity at level 0.
func (k TileKey) ScaleBiasMatrix() spatial.Matrix3 {
	if k.Level == 0 {
		return spatial.Identity3()
	}
	return quadrantScaleBias[k.Quadrant()]
}

// ScaleBiasToAncestor returns the 3x3 scale-bias matrix mapping k's texture
// coordinates into the sub-region occupied by its ancestor at ancestorLevel.
// Identity if ancestorLevel >= k.Level. Composed by folding ScaleBiasMatrix
// level-by-level from the ancestor down to k, the same rule TileNode.inheritFrom
// applies for a single parent-to-child step.
func (k TileKey) ScaleBiasToAncestor(ancestorLevel uint32) spatial.Matrix3 {
	if ancestorLevel >= k.Level {
		return spatial.Identity3()
	}
	var chain []TileKey
	for cur := k; cur.Level > ancestorLevel; cur = cur.CreateParentKey() {
		chain = append(chain, cur)
	}
	m := spatial.Identity3()
	for i := len(chain) - 1; i >= 0; i-- {
		m = chain[i].ScaleBiasMatrix().Mul(m)
	}
	return m
}

// CreateChildKey returns the child key in the given quadrant (0..3).
func (k TileKey) CreateChildKey(quadrant int) TileKey {
	xx, yy := k.X*2, k.Y*2
	switch quadrant {
	case 1:
		xx++
	case 2:
		yy++
	case 3:
		xx++
		yy++
	}
	return TileKey{Level: k.Level + 1, X: xx, Y: yy, Profile: k.Profile}
}

// CreateParentKey returns this key's parent, or an invalid key at level 0.
func (k TileKey) CreateParentKey() TileKey {
	if k.Level == 0 {
		return TileKey{}
	}
	return TileKey{Level: k.Level - 1, X: k.X / 2, Y: k.Y / 2, Profile: k.Profile}
}

// CreateAncestorKey returns the ancestor of k at ancestorLOD, or an invalid
// key if ancestorLOD is greater than k.Level.
func (k TileKey) CreateAncestorKey(ancestorLOD uint32) TileKey {
	if ancestorLOD > k.Level {
		return TileKey{}
	}
	xx, yy := k.X, k.Y
	for l := k.Level; l > ancestorLOD; l-- {
		xx /= 2
		yy /= 2
	}
	return TileKey{Level: ancestorLOD, X: xx, Y: yy, Profile: k.Profile}
}

// CreateNeighborKey returns the key at the same LOD offset by (xoffset,
// yoffset) tiles, wrapping around the grid in both dimensions.
func (k TileKey) CreateNeighborKey(xoffset, yoffset int) TileKey {
	if !k.Valid() {
		return TileKey{}
	}
	tx, ty := k.Profile.NumTiles(k.Level)

	sx := int(k.X) + xoffset
	var x uint32
	switch {
	case sx < 0:
		x = uint32(int(tx) + sx)
	case sx >= int(tx):
		x = uint32(sx) - tx
	default:
		x = uint32(sx)
	}

	sy := int(k.Y) + yoffset
	var y uint32
	switch {
	case sy < 0:
		y = uint32(int(ty) + sy)
	case sy >= int(ty):
		y = uint32(sy) - ty
	default:
		y = uint32(sy)
	}

	return TileKey{Level: k.Level, X: x % tx, Y: y % ty, Profile: k.Profile}
}

// QuadKey returns the Bing/quad-tree style string encoding of (level, x, y).
func (k TileKey) QuadKey() string {
	buf := make([]byte, 0, k.Level+1)
	for i := int(k.Level); i >= 0; i-- {
		digit := byte('0')
		mask := uint32(1) << uint(i)
		if k.X&mask != 0 {
			digit++
		}
		if k.Y&mask != 0 {
			digit += 2
		}
		buf = append(buf, digit)
	}
	return string(buf)
}

// ParseQuadKey reconstructs a TileKey from a QuadKey string in the given profile.
func ParseQuadKey(s string, p Profile) (TileKey, error) {
	if s == "" {
		return TileKey{Level: 0, X: 0, Y: 0, Profile: p}, nil
	}
	var x, y uint32
	level := uint32(len(s) - 1)
	for i, c := range s {
		shift := uint(len(s) - 1 - i)
		switch c {
		case '0':
		case '1':
			x |= 1 << shift
		case '2':
			y |= 1 << shift
		case '3':
			x |= 1 << shift
			y |= 1 << shift
		default:
			return TileKey{}, fmt.Errorf("profile: invalid quadkey digit %q", c)
		}
	}
	return TileKey{Level: level, X: x, Y: y, Profile: p}, nil
}

// CreateTileKeyContainingPoint returns the key at the given level containing
// (x, y), expressed in the profile's own SRS units.
func CreateTileKeyContainingPoint(x, y float64, level uint32, p Profile) TileKey {
	if !p.Valid() {
		return TileKey{}
	}
	ext := p.Extent()
	if x < ext.MinX || x > ext.MaxX || y < ext.MinY || y > ext.MaxY {
		return TileKey{}
	}
	tilesX, tilesY := p.NumTiles(level)

	rx := (x - ext.MinX) / ext.Width()
	tileX := uint32(rx * float64(tilesX))
	if tileX >= tilesX {
		tileX = tilesX - 1
	}

	ry := (y - ext.MinY) / ext.Height()
	tileY := uint32((1.0 - ry) * float64(tilesY))
	if tileY >= tilesY {
		tileY = tilesY - 1
	}

	return TileKey{Level: level, X: tileX, Y: tileY, Profile: p}
}

// IntersectCache is an explicit, single-slot memoization cache for
// IntersectingKeys, meant to be owned one-per-worker (see
// internal/concurrent.WorkerContext) rather than shared across goroutines.
// This stands in for the source's implicit thread-local cache: Go has no
// language-level thread-local storage, so the design note in SPEC_FULL.md
// ("replace thread-local singletons with per-worker context") is applied
// here by making the cache an explicit value the caller must own.
type IntersectCache struct {
	mu          sync.Mutex
	key         TileKey
	profileHash uint64
	result      []TileKey
	valid       bool
}

// IntersectingKeys returns the keys in targetProfile whose extents intersect
// this key's extent, estimating the matching LOD by span comparison. See
// SPEC_FULL.md §4.B for the full algorithm description.
func (k TileKey) IntersectingKeys(target Profile) []TileKey {
	return k.intersectingKeys(target)
}

// IntersectingKeysCached is identical to IntersectingKeys but consults cache
// first, matching the one-entry-memoization behavior the spec describes.
func (k TileKey) IntersectingKeysCached(target Profile, cache *IntersectCache) []TileKey {
	if cache == nil {
		return k.intersectingKeys(target)
	}
	h := profileHash(target)

	cache.mu.Lock()
	if cache.valid && cache.key.Equal(k) && cache.profileHash == h {
		result := cache.result
		cache.mu.Unlock()
		return result
	}
	cache.mu.Unlock()

	result := k.intersectingKeys(target)

	cache.mu.Lock()
	cache.key = k
	cache.profileHash = h
	cache.result = result
	cache.valid = true
	cache.mu.Unlock()

	return result
}

func (k TileKey) intersectingKeys(target Profile) []TileKey {
	if k.Profile.EquivalentTo(target) {
		return []TileKey{k}
	}
	if !k.Valid() || !target.Valid() {
		return nil
	}

	geoSRS := k.Profile.SRS().GeoSRS()
	op := k.Profile.SRS().To(geoSRS)
	sourceGeoExt, err := k.Extent().Transform(op)
	if err != nil {
		return nil
	}

	targetGeoExt := target.GeodeticExtent()
	if !sourceGeoExt.Intersects(targetGeoExt) {
		return nil
	}

	targetLOD := estimateTargetLOD(sourceGeoExt, geoSRS, target)

	geoToTarget := geoSRS.To(target.SRS())
	targetExt, err := sourceGeoExt.Transform(geoToTarget)
	if err != nil {
		return nil
	}

	return collectIntersecting(targetExt, targetLOD, target)
}

func estimateTargetLOD(sourceGeoExt spatial.Extent, geoSRS spatial.SRS, target Profile) uint32 {
	dlon := sourceGeoExt.Width()
	dlat := sourceGeoExt.Height()
	targetGeoExt := target.GeodeticExtent()

	if targetGeoExt.Width() <= dlon && targetGeoExt.Height() <= dlat {
		// the source extent is not smaller than the whole target: LOD 0 covers it.
		return 0
	}

	cx := (sourceGeoExt.MinX + sourceGeoExt.MaxX) / 2.0
	cy := (sourceGeoExt.MinY + sourceGeoExt.MaxY) / 2.0

	geoToTarget := geoSRS.To(target.SRS())

	clampLat := func(v float64) float64 {
		if v > 90 {
			return 90
		}
		if v < -90 {
			return -90
		}
		return v
	}

	xa, errA := geoToTarget.Transform(spatial.GeodeticPoint{Lon: cx + dlon/2.0, Lat: cy})
	xb, errB := geoToTarget.Transform(spatial.GeodeticPoint{Lon: cx - dlon/2.0, Lat: cy})
	ya, errC := geoToTarget.Transform(spatial.GeodeticPoint{Lon: cx, Lat: clampLat(cy + dlat/2.0)})
	yb, errD := geoToTarget.Transform(spatial.GeodeticPoint{Lon: cx, Lat: clampLat(cy - dlat/2.0)})
	if errA != nil || errB != nil || errC != nil || errD != nil {
		return 0
	}

	dxb := math.Hypot(xa.Lon-xb.Lon, xa.Lat-xb.Lat)
	dyb := math.Hypot(ya.Lon-yb.Lon, ya.Lat-yb.Lat)

	dims0X, dims0Y := target.TileDimensions(0)

	xe := math.Abs(math.Log2(dims0X / math.Max(dxb, 1e-12)))
	ye := math.Abs(math.Log2(dims0Y / math.Max(dyb, 1e-12)))

	var lod float64
	if target.SRS().IsGeographic() {
		lod = roundHalfAwayFromZero(ye)
	} else {
		lod = roundHalfAwayFromZero((xe + ye) * 0.5)
	}

	if lod < 0 {
		lod = 0
	}
	if lod > 30 {
		lod = 30
	}
	return uint32(lod)
}

// roundHalfAwayFromZero resolves the LOD-rounding open question from
// SPEC_FULL.md §9: ties round away from zero for both geodetic and
// projected targets.
func roundHalfAwayFromZero(v float64) float64 {
	if v >= 0 {
		return math.Floor(v + 0.5)
	}
	return math.Ceil(v - 0.5)
}

func collectIntersecting(targetExt spatial.Extent, lod uint32, target Profile) []TileKey {
	if target.IsComposite() {
		var out []TileKey
		for _, sp := range target.Subprofiles() {
			out = append(out, collectIntersecting(targetExt, lod, sp)...)
		}
		return out
	}

	targetProfileExt := target.Extent()
	dimsX, dimsY := target.TileDimensions(lod)
	tilesX, tilesY := target.NumTiles(lod)

	colMin := clampInt(int(math.Floor((targetExt.MinX-targetProfileExt.MinX)/dimsX)), 0, int(tilesX)-1)
	colMax := clampInt(int(math.Floor((targetExt.MaxX-targetProfileExt.MinX)/dimsX)), 0, int(tilesX)-1)
	rowMin := clampInt(int(math.Floor((targetProfileExt.MaxY-targetExt.MaxY)/dimsY)), 0, int(tilesY)-1)
	rowMax := clampInt(int(math.Floor((targetProfileExt.MaxY-targetExt.MinY)/dimsY)), 0, int(tilesY)-1)

	var out []TileKey
	for col := colMin; col <= colMax; col++ {
		for row := rowMin; row <= rowMax; row++ {
			ik := TileKey{Level: lod, X: uint32(col), Y: uint32(row), Profile: target}
			if ik.Extent().Intersects(targetExt) {
				out = append(out, ik)
			}
		}
	}
	return out
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// profileHash is a cheap structural hash used only for cache-key comparison,
// not for cryptographic or persistence purposes.
func profileHash(p Profile) uint64 {
	h := uint64(1469598103934665603) // FNV offset basis
	mix := func(v uint64) {
		h ^= v
		h *= 1099511628211
	}
	mix(uint64(p.numTilesBaseX))
	mix(uint64(p.numTilesBaseY))
	for _, r := range p.srs.String() {
		mix(uint64(r))
	}
	for _, sp := range p.subprofiles {
		mix(profileHash(sp))
	}
	return h
}
