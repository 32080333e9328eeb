package layer

import (
	"context"

	"github.com/terrapage/terrapage/internal/profile"
	"github.com/terrapage/terrapage/internal/raster"
	"github.com/terrapage/terrapage/internal/spatial"
	"github.com/terrapage/terrapage/internal/status"
)

// decodedNoDataValue is the sentinel a decoded RGB-packed heightfield's
// out-of-range samples are set to, chosen well outside
// [elevationMinValid, elevationMaxValid] so it can never collide with a
// legitimately decoded height.
const decodedNoDataValue = -999999.0

const (
	elevationMinValid = -9999.0
	elevationMaxValid = 999999.0
)

// Encoding identifies how an elevation source's RGB image channels pack a
// height value, for sources that only expose color imagery (e.g. an MBTiles
// archive holding Mapbox Terrain-RGB or Terrarium tiles) rather than a raw
// float heightfield.
type Encoding int

const (
	// EncodingRaw means the source already returns floating-point height
	// samples (an ElevationSource), no decode step needed.
	EncodingRaw Encoding = iota
	EncodingMapboxTerrainRGB
	EncodingTerrarium
)

// DecodeMapboxTerrainRGB converts Mapbox Terrain-RGB 8-bit channels to
// meters: height = -10000 + (R*256*256 + G*256 + B) * 0.1.
func DecodeMapboxTerrainRGB(r, g, b uint8) float64 {
	return -10000.0 + (float64(r)*65536.0+float64(g)*256.0+float64(b))*0.1
}

// DecodeTerrarium converts Terrarium-encoded 8-bit channels to meters:
// height = (R*256 + G + B/256) - 32768.
func DecodeTerrarium(r, g, b uint8) float64 {
	return float64(r)*256.0 + float64(g) + float64(b)/256.0 - 32768.0
}

// decode converts one RGB-encoded pixel to meters and clamps it to
// [elevationMinValid, elevationMaxValid]; a sample outside that range
// becomes decodedNoDataValue (SPEC_FULL.md §3: "Clamp to [-9999, 999999];
// outside -> noDataValue"), e.g. a black Mapbox pixel decodes to -10000,
// which must not be returned as a real height.
func decode(enc Encoding, r, g, b float64) float64 {
	r8, g8, b8 := uint8(r*255.0+0.5), uint8(g*255.0+0.5), uint8(b*255.0+0.5)
	var h float64
	switch enc {
	case EncodingMapboxTerrainRGB:
		h = DecodeMapboxTerrainRGB(r8, g8, b8)
	case EncodingTerrarium:
		h = DecodeTerrarium(r8, g8, b8)
	default:
		h = r
	}
	if h < elevationMinValid || h > elevationMaxValid {
		return decodedNoDataValue
	}
	return h
}

// ElevationLayer produces elevation data for a tile, with the same
// ancestor-fallback behavior as ImageLayer. Unlike ImageLayer, maxLevel is
// intentionally allowed to be absent (hasMax=false) so the fallback search
// can walk arbitrarily far up the ancestor chain: elevation data is commonly
// sparser than imagery and a hard LOD ceiling would otherwise strand
// high-zoom tiles with no terrain at all.
type ElevationLayer struct {
	TileLayer
	Source       ElevationSource
	RGBSource    ImageSource // alternative: a color source plus Encoding
	Encoding     Encoding
	NoDataFill   float64 // height substituted when a sample comes back no-data
}

func NewElevationLayer(base Base, p profile.Profile, tileSize int, minLevel uint32, extents []DataExtent, source ElevationSource) *ElevationLayer {
	return &ElevationLayer{
		TileLayer: NewTileLayer(base, p, tileSize, minLevel, 0, false, extents),
		Source:    source,
	}
}

// GetHeightfield implements layer.ElevationSource: same as
// GetHeightfieldWithMatrix but discards the fallback scale-bias matrix.
func (l *ElevationLayer) GetHeightfield(ctx context.Context, key profile.TileKey) (*raster.GeoHeightfield, error) {
	hf, _, err := l.GetHeightfieldWithMatrix(ctx, key)
	return hf, err
}

// GetHeightfieldWithMatrix resolves elevation for key, decoding an
// RGB-encoded source if one is configured, substituting NoDataFill for any
// no-data sample, and otherwise following the same ancestor-fallback rule
// as ImageLayer: the returned matrix maps key's texture coordinates into the
// ancestor's sub-region (identity on a direct hit).
func (l *ElevationLayer) GetHeightfieldWithMatrix(ctx context.Context, key profile.TileKey) (*raster.GeoHeightfield, spatial.Matrix3, error) {
	if l.Source == nil && l.RGBSource == nil {
		return nil, spatial.Identity3(), status.New(status.ConfigurationError, "elevation layer %q has no source", l.UID())
	}

	hf, err := l.fetchDirect(ctx, key)
	if err == nil {
		return l.fillNoData(hf), spatial.Identity3(), nil
	}
	if status.CodeOf(err) != status.NotFound {
		return nil, spatial.Identity3(), err
	}

	return l.fetchFromAncestor(ctx, key)
}

func (l *ElevationLayer) fetchDirect(ctx context.Context, key profile.TileKey) (*raster.GeoHeightfield, error) {
	if !l.HasDataAt(key) {
		return nil, status.New(status.NotFound, "no declared data at %s", key)
	}
	if l.Source != nil {
		return l.Source.GetHeightfield(ctx, key)
	}
	img, err := l.RGBSource.GetImage(ctx, key)
	if err != nil {
		return nil, err
	}
	return decodeImageToHeightfield(img, l.Encoding), nil
}

func (l *ElevationLayer) fetchFromAncestor(ctx context.Context, key profile.TileKey) (*raster.GeoHeightfield, spatial.Matrix3, error) {
	cur := key
	for cur.Level > l.minLevel {
		select {
		case <-ctx.Done():
			return nil, spatial.Identity3(), status.Wrap(status.Canceled, ctx.Err(), "ancestor search for %s canceled", key)
		default:
		}
		cur = cur.CreateParentKey()
		if !cur.Valid() {
			break
		}
		hf, err := l.fetchDirect(ctx, cur)
		if err != nil {
			if status.CodeOf(err) == status.NotFound {
				continue
			}
			return nil, spatial.Identity3(), err
		}
		return l.fillNoData(hf), key.ScaleBiasToAncestor(cur.Level), nil
	}
	return nil, spatial.Identity3(), status.New(status.NotFound, "no elevation data for %s up to ancestor chain", key)
}

func (l *ElevationLayer) fillNoData(hf *raster.GeoHeightfield) *raster.GeoHeightfield {
	if hf == nil || !hf.Image.HasNoDataValue() {
		return hf
	}
	for y := 0; y < hf.Image.Height(); y++ {
		for x := 0; x < hf.Image.Width(); x++ {
			if hf.Image.IsNoData(x, y) {
				hf.Image.Set(x, y, l.NoDataFill, 0, 0, 0)
			}
		}
	}
	return hf
}

func decodeImageToHeightfield(img *raster.GeoImage, enc Encoding) *raster.GeoHeightfield {
	w, h := img.Image.Width(), img.Image.Height()
	out := raster.NewImage(raster.R32Float, w, h)
	out.SetNoDataValue(decodedNoDataValue)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, g, b, _ := img.Image.At(x, y)
			out.Set(x, y, decode(enc, r, g, b), 0, 0, 0)
		}
	}
	return &raster.GeoHeightfield{Image: out, Extent: img.Extent}
}
