package cmd

import (
	"bytes"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/stretchr/testify/require"
)

func buildCoverageFixture(t *testing.T, path string) {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE tiles (
		zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, tile_data BLOB)`)
	require.NoError(t, err)
	_, err = db.Exec(`CREATE TABLE metadata (name TEXT, value TEXT)`)
	require.NoError(t, err)

	rows := map[string]string{
		"name":    "Fixture",
		"format":  "png",
		"minzoom": "0",
		"maxzoom": "1",
		"bounds":  "-180.000000,-85.051129,180.000000,85.051129",
	}
	for name, value := range rows {
		_, err = db.Exec(`INSERT INTO metadata (name, value) VALUES (?, ?)`, name, value)
		require.NoError(t, err)
	}
}

func TestCoverageCommandReportsTileTotal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.mbtiles")
	buildCoverageFixture(t, path)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"coverage", path})

	require.NoError(t, rootCmd.Execute())
	require.Contains(t, buf.String(), "tiles covered across zoom 0-1")
}

func TestCoverageCommandPerZoom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixture.mbtiles")
	buildCoverageFixture(t, path)

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"coverage", "--per-zoom", path})

	require.NoError(t, rootCmd.Execute())
	require.Contains(t, buf.String(), "z0")
	require.Contains(t, buf.String(), "z1")
}
