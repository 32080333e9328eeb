// Package profile implements the quadtree addressing scheme (Profile and
// TileKey) that the rest of the pager uses to name, locate, and relate tiles.
package profile

import (
	"fmt"
	"math"

	"github.com/terrapage/terrapage/internal/spatial"
)

// Profile describes a quadtree tiling structure along with its geospatial
// reference. Profiles are for tiling purposes: any vertical datum on the SRS
// is ignored for tiling and equivalence.
type Profile struct {
	wellKnownName  string
	srs            spatial.SRS
	extent         spatial.Extent
	geodeticExtent spatial.Extent
	numTilesBaseX  uint32
	numTilesBaseY  uint32
	subprofiles    []Profile
}

// New constructs an explicit profile.
func New(srs spatial.SRS, bounds spatial.Extent, xTilesAtRoot, yTilesAtRoot uint32, subprofiles ...Profile) Profile {
	p := Profile{
		srs:           srs,
		extent:        bounds,
		numTilesBaseX: xTilesAtRoot,
		numTilesBaseY: yTilesAtRoot,
		subprofiles:   subprofiles,
	}
	if xTilesAtRoot == 0 {
		p.numTilesBaseX = 1
	}
	if yTilesAtRoot == 0 {
		p.numTilesBaseY = 1
	}
	op := srs.To(srs.GeoSRS())
	geo, err := p.extent.Transform(op)
	if err == nil {
		p.geodeticExtent = geo
	} else {
		p.geodeticExtent = bounds
	}
	return p
}

// WellKnown constructs a profile from a recognized alias:
// global-geodetic, spherical-mercator, plate-carree, moon.
func WellKnown(name string) (Profile, error) {
	return wellKnownProfile(name)
}

// Valid reports whether the profile is properly initialized.
func (p Profile) Valid() bool { return p.srs.Valid() && (p.numTilesBaseX > 0 || p.IsComposite()) }

// Extent returns the profile's extent in its own SRS.
func (p Profile) Extent() spatial.Extent { return p.extent }

// GeodeticExtent returns the profile's extent transformed into geographic coordinates.
func (p Profile) GeodeticExtent() spatial.Extent { return p.geodeticExtent }

// SRS returns the profile's spatial reference system.
func (p Profile) SRS() spatial.SRS { return p.srs }

// WellKnownName returns the alias this profile was constructed from, if any.
func (p Profile) WellKnownName() string { return p.wellKnownName }

// IsComposite reports whether this profile is the disjoint union of subprofiles.
func (p Profile) IsComposite() bool { return len(p.subprofiles) > 0 }

// Subprofiles returns the composite profile's components (empty for a non-composite profile).
func (p Profile) Subprofiles() []Profile { return p.subprofiles }

// EquivalentTo reports whether p and other tile the same space. Vertical
// datum is never considered.
func (p Profile) EquivalentTo(other Profile) bool {
	if p.numTilesBaseX != other.numTilesBaseX || p.numTilesBaseY != other.numTilesBaseY {
		return false
	}
	if !p.srs.HorizontallyEquivalentTo(other.srs) {
		return false
	}
	if len(p.subprofiles) != len(other.subprofiles) {
		return false
	}
	for i := range p.subprofiles {
		if !p.subprofiles[i].EquivalentTo(other.subprofiles[i]) {
			return false
		}
	}
	const eps = 1e-9
	return math.Abs(p.extent.MinX-other.extent.MinX) < eps &&
		math.Abs(p.extent.MinY-other.extent.MinY) < eps &&
		math.Abs(p.extent.MaxX-other.extent.MaxX) < eps &&
		math.Abs(p.extent.MaxY-other.extent.MaxY) < eps
}

// TileDimensions returns the (width, height) of a tile at the given LOD, in
// the profile's SRS units.
func (p Profile) TileDimensions(lod uint32) (width, height float64) {
	div := math.Pow(2, float64(lod))
	return p.extent.Width() / (float64(p.numTilesBaseX) * div), p.extent.Height() / (float64(p.numTilesBaseY) * div)
}

// NumTiles returns the tile count in x and y at the given LOD.
func (p Profile) NumTiles(lod uint32) (x, y uint32) {
	div := uint32(math.Pow(2, float64(lod)))
	return p.numTilesBaseX * div, p.numTilesBaseY * div
}

// TileExtent returns the geospatial extent of a tile at (lod, tileX, tileY) in this profile.
func (p Profile) TileExtent(lod, tileX, tileY uint32) spatial.Extent {
	width, height := p.TileDimensions(lod)
	xmin := p.extent.MinX + width*float64(tileX)
	ymax := p.extent.MaxY - height*float64(tileY)
	return spatial.Extent{SRS: p.srs, MinX: xmin, MinY: ymax - height, MaxX: xmin + width, MaxY: ymax}
}

// RootKeys returns the keys at LOD 0 (equivalent to AllKeysAtLOD(0)).
func (p Profile) RootKeys() []TileKey { return p.AllKeysAtLOD(0) }

// AllKeysAtLOD enumerates every key at the given LOD. For a composite
// profile, this concatenates the results from every subprofile.
func (p Profile) AllKeysAtLOD(lod uint32) []TileKey {
	if p.IsComposite() {
		var out []TileKey
		for _, sp := range p.subprofiles {
			out = append(out, sp.AllKeysAtLOD(lod)...)
		}
		return out
	}
	nx, ny := p.NumTiles(lod)
	out := make([]TileKey, 0, nx*ny)
	for y := uint32(0); y < ny; y++ {
		for x := uint32(0); x < nx; x++ {
			out = append(out, TileKey{Level: lod, X: x, Y: y, Profile: p})
		}
	}
	return out
}

// LevelOfDetailForHorizResolution returns the closest LOD whose tile
// resolution (LOD-0 tile width / (tileSize-1), halved per level) matches the
// given target resolution,
// expressed in the profile's SRS units.
func (p Profile) LevelOfDetailForHorizResolution(resolution float64, tileSize int) uint32 {
	if resolution <= 0 || tileSize <= 1 {
		return 0
	}
	baseWidth, _ := p.TileDimensions(0)
	col0Res := baseWidth / float64(tileSize-1)
	level := math.Log2(col0Res / resolution)
	if level < 0 {
		return 0
	}
	return uint32(math.Round(level))
}

func (p Profile) String() string {
	if p.wellKnownName != "" {
		return p.wellKnownName
	}
	return fmt.Sprintf("profile(srs=%s,%dx%d)", p.srs, p.numTilesBaseX, p.numTilesBaseY)
}
