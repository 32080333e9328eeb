package raster

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/terrapage/terrapage/internal/spatial"
)

func TestSRGBRoundTrip(t *testing.T) {
	for _, v := range []float64{0, 0.001, 0.0031308, 0.01, 0.2, 0.5, 0.9, 1.0} {
		enc := SRGBEncode(v)
		dec := SRGBDecode(enc)
		require.InDelta(t, v, dec, 1e-5)
	}
}

func TestSRGBMonotonic(t *testing.T) {
	prev := -1.0
	for i := 0; i <= 10; i++ {
		v := float64(i) / 10.0
		enc := SRGBEncode(v)
		require.Greater(t, enc, prev)
		prev = enc
	}
}

func TestBilinearSampleMidpoint(t *testing.T) {
	img := NewImage(R8G8B8A8Unorm, 2, 2)
	img.Set(0, 0, 0, 0, 0, 1)
	img.Set(1, 0, 1, 0, 0, 1)
	img.Set(0, 1, 0, 1, 0, 1)
	img.Set(1, 1, 0, 0, 1, 1)

	r, g, b, a, ok := img.SampleBilinear(0.5, 0.5)
	require.True(t, ok)
	require.InDelta(t, 0.25, r, 1e-9)
	require.InDelta(t, 0.25, g, 1e-9)
	require.InDelta(t, 0.25, b, 1e-9)
	require.InDelta(t, 1.0, a, 1e-9)
}

func TestBilinearSampleNoDataPropagation(t *testing.T) {
	img := NewImage(R32Float, 2, 2)
	img.SetNoDataValue(-9999)
	img.Set(0, 0, 100, 0, 0, 0)
	img.Set(1, 0, 100, 0, 0, 0)
	img.Set(0, 1, -9999, 0, 0, 0)
	img.Set(1, 1, 100, 0, 0, 0)

	_, _, _, _, ok := img.SampleBilinear(0.75, 0.75)
	require.False(t, ok)

	r, _, _, _, ok := img.SampleBilinear(0.99, 0.01)
	require.True(t, ok)
	require.InDelta(t, 100.0, r, 1e-6)
}

func TestCompositeOverFullOpacityReplacesFullyOpaqueDest(t *testing.T) {
	dst := NewImage(R8G8B8A8Unorm, 1, 1)
	dst.Set(0, 0, 0, 0, 0, 1)

	src := NewImage(R8G8B8A8Unorm, 1, 1)
	src.Set(0, 0, 1, 1, 1, 1)

	CompositeOver(dst, src, 1.0)
	r, g, b, a := dst.At(0, 0)
	require.InDelta(t, 1.0, r, 1e-9)
	require.InDelta(t, 1.0, g, 1e-9)
	require.InDelta(t, 1.0, b, 1e-9)
	require.InDelta(t, 1.0, a, 1e-9)
}

func TestCompositeOverSkipsTransparentSource(t *testing.T) {
	dst := NewImage(R8G8B8A8Unorm, 1, 1)
	dst.Set(0, 0, 0.2, 0.3, 0.4, 1)

	src := NewImage(R8G8B8A8Unorm, 1, 1)
	src.Set(0, 0, 1, 1, 1, 0)

	CompositeOver(dst, src, 1.0)
	r, g, b, _ := dst.At(0, 0)
	require.InDelta(t, 0.2, r, 1e-9)
	require.InDelta(t, 0.3, g, 1e-9)
	require.InDelta(t, 0.4, b, 1e-9)
}

func TestMosaicBackToFrontOrder(t *testing.T) {
	srs := spatial.Get("spherical-mercator")
	ext := spatial.Extent{SRS: srs, MinX: 0, MinY: 0, MaxX: 10, MaxY: 10}

	bottom := NewImage(R8G8B8A8Unorm, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			bottom.Set(x, y, 1, 0, 0, 1)
		}
	}
	top := NewImage(R8G8B8A8Unorm, 4, 4)
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			top.Set(x, y, 0, 1, 0, 0.5)
		}
	}

	out := Mosaic([]Candidate{
		{Image: bottom, Extent: ext, Opacity: 1},
		{Image: top, Extent: ext, Opacity: 1},
	}, ext, 4, 4, R8G8B8A8Unorm)

	r, g, _, _ := out.At(0, 0)
	require.InDelta(t, 0.5, r, 1e-6)
	require.InDelta(t, 0.5, g, 1e-6)
}

func TestGeoHeightfieldHeightAtOutOfBounds(t *testing.T) {
	img := NewImage(R32Float, 2, 2)
	hf := GeoHeightfield{Image: img, Extent: spatial.Extent{SRS: spatial.Get("wgs84"), MinX: 0, MinY: 0, MaxX: 1, MaxY: 1}}
	_, ok := hf.HeightAt(5, 5)
	require.False(t, ok)
}

func TestGeneratePlaceholderFillsTint(t *testing.T) {
	img := GeneratePlaceholder(4, 4, color.NRGBA{R: 200, G: 150, B: 100, A: 255}, 0)
	r, g, b, a := img.At(2, 2)
	require.InDelta(t, 200.0/255.0, r, 1e-6)
	require.InDelta(t, 150.0/255.0, g, 1e-6)
	require.InDelta(t, 100.0/255.0, b, 1e-6)
	require.InDelta(t, 1.0, a, 1e-6)
}

func TestFormatChannels(t *testing.T) {
	require.Equal(t, 1, R8Unorm.Channels())
	require.Equal(t, 4, R8G8B8A8Srgb.Channels())
	require.True(t, R8G8B8A8Srgb.IsSRGB())
	require.False(t, R8G8B8A8Unorm.IsSRGB())
}
