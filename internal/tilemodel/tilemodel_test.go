package tilemodel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/terrapage/terrapage/internal/layer"
	"github.com/terrapage/terrapage/internal/profile"
	"github.com/terrapage/terrapage/internal/raster"
	"github.com/terrapage/terrapage/internal/status"
)

type fakeImageSource struct{ fill [4]float64 }

func (f *fakeImageSource) GetImage(ctx context.Context, key profile.TileKey) (*raster.GeoImage, error) {
	img := raster.NewImage(raster.R8G8B8A8Unorm, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, f.fill[0], f.fill[1], f.fill[2], f.fill[3])
		}
	}
	return &raster.GeoImage{Image: img, Extent: key.Extent()}, nil
}

type emptyElevationSource struct{}

func (emptyElevationSource) GetHeightfield(ctx context.Context, key profile.TileKey) (*raster.GeoHeightfield, error) {
	return nil, status.New(status.NotFound, "no elevation")
}

func TestCreateComposesColorLayers(t *testing.T) {
	p := profile.MustWellKnown("global-geodetic")
	key := p.RootKeys()[0]

	m := layer.NewMap()
	red := layer.NewImageLayer(layer.NewBase("red", "red", layer.KindImage), p, 4, 0, 10, true, nil, &fakeImageSource{fill: [4]float64{1, 0, 0, 1}})
	m.AddImageLayer(red)

	tm, err := Create(context.Background(), nil, m, key, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, tm.Color)
	require.Nil(t, tm.Elevation)

	r, _, _, _ := tm.Color.Image.At(0, 0)
	require.InDelta(t, 1.0, r, 1e-6)
}

func TestCreateNoLayersProducesEmptyModel(t *testing.T) {
	p := profile.MustWellKnown("global-geodetic")
	key := p.RootKeys()[0]
	m := layer.NewMap()

	tm, err := Create(context.Background(), nil, m, key, DefaultOptions())
	require.NoError(t, err)
	require.Nil(t, tm.Color)
	require.Nil(t, tm.Elevation)
}

func TestCreateColorFromAncestorCarriesScaleBiasMatrix(t *testing.T) {
	p := profile.MustWellKnown("global-geodetic")
	root := p.RootKeys()[0]
	child := root.CreateChildKey(0)

	rootImg := raster.NewImage(raster.R8G8B8A8Unorm, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			rootImg.Set(x, y, 0, 1, 0, 1)
		}
	}
	src := &rootOnlyImageSource{rootKey: root, img: &raster.GeoImage{Image: rootImg, Extent: root.Extent()}}

	m := layer.NewMap()
	l := layer.NewImageLayer(layer.NewBase("img", "img", layer.KindImage), p, 4, 0, 10, true, nil, src)
	m.AddImageLayer(l)

	tm, err := Create(context.Background(), nil, m, child, DefaultOptions())
	require.NoError(t, err)
	require.NotNil(t, tm.Color)
	require.False(t, tm.ColorMatrix.Identity())
	require.InDelta(t, 0.5, tm.ColorMatrix.At(0, 0), 1e-9)
}

type rootOnlyImageSource struct {
	rootKey profile.TileKey
	img     *raster.GeoImage
}

func (s *rootOnlyImageSource) GetImage(ctx context.Context, key profile.TileKey) (*raster.GeoImage, error) {
	if !key.Equal(s.rootKey) {
		return nil, status.New(status.NotFound, "no tile %s", key)
	}
	return s.img, nil
}

func TestStaleDetectsMapRevisionChange(t *testing.T) {
	p := profile.MustWellKnown("global-geodetic")
	key := p.RootKeys()[0]
	m := layer.NewMap()

	tm, err := Create(context.Background(), nil, m, key, DefaultOptions())
	require.NoError(t, err)
	require.False(t, tm.Stale(m))

	l := layer.NewImageLayer(layer.NewBase("x", "x", layer.KindImage), p, 4, 0, 10, true, nil, &fakeImageSource{})
	m.AddImageLayer(l)
	require.True(t, tm.Stale(m))
}
