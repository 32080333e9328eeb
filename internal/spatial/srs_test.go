package spatial

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSRSIdentityTransform(t *testing.T) {
	wgs84 := Get("wgs84")
	op := wgs84.To(wgs84)

	p := GeodeticPoint{Lon: 12.3, Lat: 45.6, Height: 7}
	got, err := op.Transform(p)
	require.NoError(t, err)
	require.Equal(t, p, got)
}

func TestSRSMercatorRoundTrip(t *testing.T) {
	wgs84 := Get("wgs84")
	merc := Get("spherical-mercator")

	p := GeodeticPoint{Lon: -73.9857, Lat: 40.7484}
	toMerc := wgs84.To(merc)
	m, err := toMerc.Transform(p)
	require.NoError(t, err)

	toGeo := merc.To(wgs84)
	back, err := toGeo.Transform(m)
	require.NoError(t, err)

	require.InDelta(t, p.Lon, back.Lon, 1e-9)
	require.InDelta(t, p.Lat, back.Lat, 1e-9)
}

func TestHorizontallyEquivalentTo(t *testing.T) {
	require.True(t, Get("wgs84").HorizontallyEquivalentTo(Get("epsg:4326")))
	require.False(t, Get("wgs84").HorizontallyEquivalentTo(Get("spherical-mercator")))
}

func TestExtentSplitAntimeridian(t *testing.T) {
	e := Extent{SRS: Get("wgs84"), MinX: 170, MinY: -10, MaxX: -170, MaxY: 10}
	require.True(t, e.CrossesAntimeridian())

	parts := e.SplitAntimeridian()
	require.Len(t, parts, 2)
}
