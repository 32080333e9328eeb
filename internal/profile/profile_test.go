package profile

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWellKnownProfilesValid(t *testing.T) {
	for _, name := range []string{"global-geodetic", "spherical-mercator", "plate-carree", "moon"} {
		p, err := WellKnown(name)
		require.NoError(t, err, name)
		require.True(t, p.Valid(), name)
		require.Equal(t, name, p.WellKnownName())
	}
}

func TestWellKnownUnrecognized(t *testing.T) {
	_, err := WellKnown("nonsense")
	require.Error(t, err)
}

func TestGlobalGeodeticRootKeys(t *testing.T) {
	p := MustWellKnown("global-geodetic")
	roots := p.RootKeys()
	require.Len(t, roots, 2)
	for _, k := range roots {
		require.Equal(t, uint32(0), k.Level)
	}
}

func TestSphericalMercatorSingleRoot(t *testing.T) {
	p := MustWellKnown("spherical-mercator")
	roots := p.RootKeys()
	require.Len(t, roots, 1)
}

func TestTileExtentContainment(t *testing.T) {
	p := MustWellKnown("global-geodetic")
	ext := p.Extent()
	for _, k := range p.AllKeysAtLOD(2) {
		te := k.Extent()
		require.True(t, te.Valid())
		require.GreaterOrEqual(t, te.MinX, ext.MinX-1e-9)
		require.LessOrEqual(t, te.MaxX, ext.MaxX+1e-9)
		require.GreaterOrEqual(t, te.MinY, ext.MinY-1e-9)
		require.LessOrEqual(t, te.MaxY, ext.MaxY+1e-9)
	}
}

func TestTileExtentCoverageUnion(t *testing.T) {
	p := MustWellKnown("spherical-mercator")
	var totalArea float64
	ext := p.Extent()
	for _, k := range p.AllKeysAtLOD(3) {
		te := k.Extent()
		totalArea += te.Width() * te.Height()
	}
	require.InDelta(t, ext.Width()*ext.Height(), totalArea, 1e-3)
}

func TestEquivalentTo(t *testing.T) {
	a := MustWellKnown("global-geodetic")
	b := MustWellKnown("global-geodetic")
	require.True(t, a.EquivalentTo(b))

	c := MustWellKnown("spherical-mercator")
	require.False(t, a.EquivalentTo(c))
}

func TestLevelOfDetailForHorizResolution(t *testing.T) {
	p := MustWellKnown("global-geodetic")
	lod := p.LevelOfDetailForHorizResolution(0.1, 257)
	require.Greater(t, lod, uint32(0))
}
