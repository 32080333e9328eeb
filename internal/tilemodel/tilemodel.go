// Package tilemodel composes the per-tile data product (color imagery plus
// elevation) that the pager hands off to the render model, by querying a
// layer.Map's current layer stack for a given profile.TileKey.
package tilemodel

import (
	"context"

	"github.com/terrapage/terrapage/internal/concurrent"
	"github.com/terrapage/terrapage/internal/layer"
	"github.com/terrapage/terrapage/internal/profile"
	"github.com/terrapage/terrapage/internal/raster"
	"github.com/terrapage/terrapage/internal/spatial"
	"github.com/terrapage/terrapage/internal/status"
)

// TileModel is the fully-assembled data for one tile: composited color
// imagery from every contributing image layer, and elevation from the
// first elevation layer with data, each independently optional. ColorMatrix
// and ElevationMatrix encode the scale-bias applied to texture coordinates
// when the corresponding data came from an ancestor fallback (identity
// otherwise), per SPEC_FULL.md §3's TileModel.colorLayers[*].matrix /
// elevation.matrix.
type TileModel struct {
	Key             profile.TileKey
	Color           *raster.GeoImage
	ColorMatrix     spatial.Matrix3
	Elevation       *raster.GeoHeightfield
	ElevationMatrix spatial.Matrix3
	SourceRevision  int // layer.Map.Revision() at creation time, for staleness checks
}

// Options configures tile-model assembly.
type Options struct {
	TileSize   int
	ColorFmt   raster.Format
	NoDataFill float64
}

func DefaultOptions() Options {
	return Options{TileSize: 256, ColorFmt: raster.R8G8B8A8Srgb, NoDataFill: 0}
}

// Create assembles a TileModel for key from m's current layer stack. Both
// Color and Elevation are nil (not an error) if no layer had anything to
// contribute; only an actual fetch error or cancellation is returned as an
// error. wc is the calling worker's IntersectingKeys memoization slot (see
// internal/concurrent.WorkerContext); nil is accepted and simply disables
// that cache.
func Create(ctx context.Context, wc *concurrent.WorkerContext, m *layer.Map, key profile.TileKey, opts Options) (*TileModel, error) {
	if opts.TileSize <= 0 {
		opts.TileSize = 256
	}

	tm := &TileModel{Key: key, SourceRevision: m.Revision(), ColorMatrix: spatial.Identity3(), ElevationMatrix: spatial.Identity3()}

	imageLayers := m.ImageLayers()
	if len(imageLayers) > 0 {
		contributions, err := layer.Candidates(ctx, wc, imageLayers, key, opts.TileSize)
		if err != nil {
			return nil, err
		}
		if len(contributions) > 0 {
			c := contributions[0]
			tm.Color = c.Image
			tm.ColorMatrix = c.Matrix
		}
	}

	for _, el := range m.ElevationLayers() {
		select {
		case <-ctx.Done():
			return nil, status.Wrap(status.Canceled, ctx.Err(), "tile model assembly for %s canceled", key)
		default:
		}
		el.NoDataFill = opts.NoDataFill
		hf, matrix, err := el.GetHeightfieldWithMatrix(ctx, key)
		if err != nil {
			if status.CodeOf(err) == status.NotFound {
				continue
			}
			return nil, err
		}
		tm.Elevation = hf
		tm.ElevationMatrix = matrix
		break
	}

	return tm, nil
}

// Stale reports whether m's layer stack has changed since tm was created.
func (tm *TileModel) Stale(m *layer.Map) bool {
	return m.Revision() != tm.SourceRevision
}
