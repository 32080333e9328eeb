package layer

import (
	"context"
	"log/slog"

	"github.com/terrapage/terrapage/internal/concurrent"
	"github.com/terrapage/terrapage/internal/profile"
	"github.com/terrapage/terrapage/internal/raster"
	"github.com/terrapage/terrapage/internal/spatial"
	"github.com/terrapage/terrapage/internal/status"
)

// ImageLayer produces color imagery for a tile from a LayerSource, falling
// back to ancestor tiles when the source has no data at the requested LOD
// directly, and remapping across profiles when queried in a foreign
// profile's grid.
type ImageLayer struct {
	TileLayer
	Source        LayerSource
	Opacity       float64
	MaxAncestorUp uint32 // how many levels up to search for fallback data; 0 = unlimited
}

func NewImageLayer(base Base, p profile.Profile, tileSize int, minLevel, maxLevel uint32, hasMax bool, extents []DataExtent, source LayerSource) *ImageLayer {
	return &ImageLayer{
		TileLayer: NewTileLayer(base, p, tileSize, minLevel, maxLevel, hasMax, extents),
		Source:    source,
		Opacity:   1.0,
	}
}

// GetImage implements layer.ImageSource: it resolves key's color data and
// discards the fallback scale-bias matrix, for callers (another layer's
// RGBSource, a LayerSource composed of layers) that only want the raw
// per-tile image. TileModelFactory-facing callers should use
// GetImageWithMatrix instead so ancestor fallback is represented correctly.
func (l *ImageLayer) GetImage(ctx context.Context, key profile.TileKey) (*raster.GeoImage, error) {
	img, _, err := l.GetImageWithMatrix(ctx, nil, key)
	return img, err
}

// GetImageWithMatrix resolves the color data for key: a direct fetch if the
// source has data at key's own LOD, the nearest ancestor with data
// otherwise (with matrix encoding the scale-bias from key down into that
// ancestor's sub-region), or, when key is expressed in a foreign profile,
// the cross-profile assembly in assembleImage. Returns status.NotFound if
// nothing is available anywhere.
func (l *ImageLayer) GetImageWithMatrix(ctx context.Context, wc *concurrent.WorkerContext, key profile.TileKey) (*raster.GeoImage, spatial.Matrix3, error) {
	if l.Source == nil {
		return nil, spatial.Identity3(), status.New(status.ConfigurationError, "image layer %q has no source", l.UID())
	}

	if !l.Profile().EquivalentTo(key.Profile) {
		return l.assembleImage(ctx, wc, key)
	}

	if !l.InLevelRange(key.Level) {
		return nil, spatial.Identity3(), status.New(status.NotFound, "key %s outside layer level range", key)
	}

	if l.HasDataAt(key) {
		img, err := l.Source.GetImage(ctx, key)
		if err == nil {
			return img, spatial.Identity3(), nil
		}
		if status.CodeOf(err) != status.NotFound {
			return nil, spatial.Identity3(), err
		}
	}

	return l.fetchFromAncestor(ctx, key)
}

// fetchFromAncestor walks up key's own profile looking for the nearest
// ancestor with data, returning that ancestor's image as-is (not
// resampled) plus the scale-bias matrix mapping key's texture coordinates
// into the ancestor's sub-region, per SPEC_FULL.md §3's TileModel.matrix.
func (l *ImageLayer) fetchFromAncestor(ctx context.Context, key profile.TileKey) (*raster.GeoImage, spatial.Matrix3, error) {
	up := uint32(0)
	cur := key
	for cur.Level > l.minLevel {
		select {
		case <-ctx.Done():
			return nil, spatial.Identity3(), status.Wrap(status.Canceled, ctx.Err(), "ancestor search for %s canceled", key)
		default:
		}
		if l.MaxAncestorUp > 0 && up >= l.MaxAncestorUp {
			break
		}
		cur = cur.CreateParentKey()
		up++
		if !cur.Valid() {
			break
		}
		if !l.HasDataAt(cur) {
			continue
		}
		ancestorImg, err := l.Source.GetImage(ctx, cur)
		if err != nil {
			if status.CodeOf(err) == status.NotFound {
				continue
			}
			return nil, spatial.Identity3(), err
		}
		return ancestorImg, key.ScaleBiasToAncestor(cur.Level), nil
	}
	return nil, spatial.Identity3(), status.New(status.NotFound, "no data for %s in layer %q up to ancestor chain", key, l.UID())
}

// assembleImage implements SPEC_FULL.md §4.D's assembleImage: key is
// expressed in a foreign profile, so it is remapped onto l's own grid via
// IntersectingKeys, each covering sub-key is fetched (with its own ancestor
// fallback), and the results are mosaiced (cross-SRS aware, see raster.Mosaic)
// back into key's footprint at l.TileSize() resolution.
func (l *ImageLayer) assembleImage(ctx context.Context, wc *concurrent.WorkerContext, key profile.TileKey) (*raster.GeoImage, spatial.Matrix3, error) {
	var local []profile.TileKey
	if wc != nil {
		local = key.IntersectingKeysCached(l.Profile(), wc.IntersectCache())
	} else {
		local = key.IntersectingKeys(l.Profile())
	}

	var candidates []raster.Candidate
	for _, lk := range local {
		select {
		case <-ctx.Done():
			return nil, spatial.Identity3(), status.Wrap(status.Canceled, ctx.Err(), "assemble for %s canceled", key)
		default:
		}
		if !l.InLevelRange(lk.Level) {
			continue
		}
		img, _, err := l.GetImageWithMatrix(ctx, wc, lk)
		if err != nil {
			if status.CodeOf(err) == status.NotFound {
				continue
			}
			return nil, spatial.Identity3(), err
		}
		candidates = append(candidates, raster.Candidate{Image: img.Image, Extent: img.Extent, Opacity: 1})
	}
	if len(candidates) == 0 {
		return nil, spatial.Identity3(), status.New(status.NotFound, "no data for %s in layer %q across intersecting keys", key, l.UID())
	}

	mosaic := raster.Mosaic(candidates, key.Extent(), l.TileSize(), l.TileSize(), candidates[0].Image.Format())
	return &raster.GeoImage{Image: mosaic, Extent: key.Extent()}, spatial.Identity3(), nil
}

// ColorContribution is one image layer's final contribution to a tile's
// color: the (possibly mosaiced) image, its display opacity, and the
// scale-bias matrix mapping the tile's texture coordinates into it (identity
// unless the image came from a single layer's ancestor fallback).
type ColorContribution struct {
	Image   *raster.GeoImage
	Opacity float64
	Matrix  spatial.Matrix3
}

// Candidates implements the single-vs-multi-candidate distinction from
// SPEC_FULL.md §4.E steps 3-4: layers whose BestAvailableTileKey(key) finds
// nothing are dropped first. With exactly one remaining candidate, its
// image and fallback matrix are returned as-is (no further
// compositing). With more than one, every candidate is fetched (each with
// its own ancestor fallback) and composited into a single RGBA mosaic at
// key's own extent, collapsing back to one entry with an identity matrix
// since the composited result now exactly covers key.
func Candidates(ctx context.Context, wc *concurrent.WorkerContext, layers []*ImageLayer, key profile.TileKey, size int) ([]ColorContribution, error) {
	var eligible []*ImageLayer
	for _, l := range layers {
		if l.MayHaveData(key) {
			eligible = append(eligible, l)
		}
	}

	switch len(eligible) {
	case 0:
		return nil, nil
	case 1:
		// Per SPEC_FULL.md §4.E step 3: a single candidate is fetched with no
		// further fallback beyond what GetImageWithMatrix already does; any
		// failure is dropped from the tile rather than failing it outright,
		// but one other than resource-unavailable/canceled/not-found is logged.
		l := eligible[0]
		img, matrix, err := l.GetImageWithMatrix(ctx, wc, key)
		if err != nil {
			code := status.CodeOf(err)
			if code != status.ResourceUnavailable && code != status.Canceled && code != status.NotFound {
				slog.Warn("image layer fetch failed", "layer", l.UID(), "key", key.String(), "error", err)
			}
			return nil, nil
		}
		return []ColorContribution{{Image: img, Opacity: l.Opacity, Matrix: matrix}}, nil
	default:
		var raw []raster.Candidate
		for _, l := range eligible {
			img, _, err := l.GetImageWithMatrix(ctx, wc, key)
			if err != nil {
				if status.CodeOf(err) == status.NotFound {
					continue
				}
				return nil, err
			}
			raw = append(raw, raster.Candidate{Image: img.Image, Extent: img.Extent, Opacity: l.Opacity})
		}
		if len(raw) == 0 {
			return nil, nil
		}
		mosaic := raster.Mosaic(raw, key.Extent(), size, size, raw[0].Image.Format())
		return []ColorContribution{{
			Image:   &raster.GeoImage{Image: mosaic, Extent: key.Extent()},
			Opacity: 1,
			Matrix:  spatial.Identity3(),
		}}, nil
	}
}
