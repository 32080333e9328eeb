package layer

import (
	"context"

	"github.com/terrapage/terrapage/internal/profile"
	"github.com/terrapage/terrapage/internal/raster"
)

// Tiled is implemented by anything addressable by TileKey against a Profile
// (TileLayer satisfies it). It stands in for a common Layer->TileLayer base
// class: callers that only need tiling geometry depend on this interface
// instead of a concrete ancestor type.
type Tiled interface {
	Profile() profile.Profile
	TileSize() int
	InLevelRange(lod uint32) bool
}

// ImageSource is the capability tag for anything that can produce color
// imagery for a tile. ImageLayer's LayerSource field (and ImageLayer itself)
// satisfy it.
type ImageSource interface {
	GetImage(ctx context.Context, key profile.TileKey) (*raster.GeoImage, error)
}

// HeightfieldSource is the capability tag for anything that can produce
// elevation data for a tile.
type HeightfieldSource interface {
	GetHeightfield(ctx context.Context, key profile.TileKey) (*raster.GeoHeightfield, error)
}

// LayerSource is the pluggable backend an ImageLayer/ElevationLayer wraps: a
// concrete format reader (MBTiles, WMTS, a procedural generator) that knows
// how to fetch a single tile's raw data. A source returning status.NotFound
// tells the layer there's simply no data for that key (not an error worth
// surfacing); any other status propagates per the usual policy.
type LayerSource interface {
	ImageSource
}

// ElevationSource is the LayerSource analogue for elevation data.
type ElevationSource interface {
	HeightfieldSource
}
