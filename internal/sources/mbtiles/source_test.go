package mbtiles

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/require"

	"github.com/terrapage/terrapage/internal/profile"
	"github.com/terrapage/terrapage/internal/status"
)

// buildFixture creates a minimal MBTiles-shaped SQLite database at dbPath,
// containing a single solid-red PNG tile at z=1,x=0,y=0 (XYZ), stored at its
// TMS row, plus a metadata table matching those bounds.
func buildFixture(t *testing.T, dbPath string) {
	t.Helper()

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE tiles (
		zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, tile_data BLOB)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE metadata (name TEXT, value TEXT)`)
	require.NoError(t, err)

	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			img.Set(x, y, color.NRGBA{R: 200, G: 20, B: 20, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))

	// z=1,x=0,y=0 in XYZ; tmsRow = (1<<1 - 1) - 0 = 1.
	_, err = db.Exec(`INSERT INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (1, 0, 1, ?)`,
		buf.Bytes())
	require.NoError(t, err)

	rows := map[string]string{
		"name":    "Test Tileset",
		"format":  "png",
		"minzoom": "0",
		"maxzoom": "1",
		"bounds":  "-180.000000,-85.051129,180.000000,85.051129",
		"center":  "0.000000,0.000000,0",
		"type":    "baselayer",
	}
	for name, value := range rows {
		_, err = db.Exec(`INSERT INTO metadata (name, value) VALUES (?, ?)`, name, value)
		require.NoError(t, err)
	}
}

func TestSourceOpenAndMetadata(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.mbtiles")
	buildFixture(t, dbPath)

	src, err := Open(dbPath)
	require.NoError(t, err)
	defer src.Close()

	meta := src.Metadata()
	require.Equal(t, "Test Tileset", meta.Name)
	require.Equal(t, "png", meta.Format)
	require.Equal(t, 0, meta.MinZoom)
	require.Equal(t, 1, meta.MaxZoom)
	require.InDelta(t, -180.0, meta.Bounds[0], 0.001)
	require.InDelta(t, 85.051129, meta.Bounds[3], 0.001)
}

func TestSourceOpenRejectsMissingTilesTable(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "empty.mbtiles")

	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE something_else (id INTEGER)`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = Open(dbPath)
	require.Error(t, err)
	require.Equal(t, status.ConfigurationError, status.CodeOf(err))
}

func TestSourceGetImageDecodesStoredTile(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.mbtiles")
	buildFixture(t, dbPath)

	src, err := Open(dbPath)
	require.NoError(t, err)
	defer src.Close()

	merc := profile.MustWellKnown("spherical-mercator")
	key := profile.TileKey{Level: 1, X: 0, Y: 0, Profile: merc}

	img, err := src.GetImage(context.Background(), key)
	require.NoError(t, err)
	require.NotNil(t, img)
	require.Equal(t, key.Extent(), img.Extent)
	require.Equal(t, 4, img.Image.Width())
	require.Equal(t, 4, img.Image.Height())
}

func TestSourceGetImageNotFound(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.mbtiles")
	buildFixture(t, dbPath)

	src, err := Open(dbPath)
	require.NoError(t, err)
	defer src.Close()

	merc := profile.MustWellKnown("spherical-mercator")
	key := profile.TileKey{Level: 5, X: 3, Y: 3, Profile: merc}

	_, err = src.GetImage(context.Background(), key)
	require.Error(t, err)
	require.Equal(t, status.NotFound, status.CodeOf(err))
}

func TestSourceGetImageCanceledContext(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.mbtiles")
	buildFixture(t, dbPath)

	src, err := Open(dbPath)
	require.NoError(t, err)
	defer src.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	merc := profile.MustWellKnown("spherical-mercator")
	key := profile.TileKey{Level: 1, X: 0, Y: 0, Profile: merc}

	_, err = src.GetImage(ctx, key)
	require.Error(t, err)
	require.Equal(t, status.Canceled, status.CodeOf(err))
}

func TestZXYTmsRowConversion(t *testing.T) {
	// z=1 grid is 2x2; XYZ y=0 (top) is TMS row 1, XYZ y=1 (bottom) is TMS row 0.
	require.Equal(t, uint32(1), ZXY{Z: 1, X: 0, Y: 0}.tmsRow())
	require.Equal(t, uint32(0), ZXY{Z: 1, X: 0, Y: 1}.tmsRow())
}

func TestMetadataCoveredTiles(t *testing.T) {
	m := Metadata{
		MinZoom: 0,
		MaxZoom: 1,
		Bounds:  [4]float64{-180, -85.051129, 180, 85.051129},
	}
	tiles := m.CoveredTiles()
	require.NotEmpty(t, tiles)

	var sawZoom0, sawZoom1 bool
	for _, tile := range tiles {
		if tile.Z == 0 {
			sawZoom0 = true
		}
		if tile.Z == 1 {
			sawZoom1 = true
		}
	}
	require.True(t, sawZoom0)
	require.True(t, sawZoom1)
}

func TestMetadataToMapOmitsZeroFields(t *testing.T) {
	m := Metadata{Name: "X"}
	got := m.ToMap()
	require.Equal(t, "X", got["name"])
	_, hasBounds := got["bounds"]
	require.False(t, hasBounds)
}
