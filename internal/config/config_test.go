package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCompactTimeRoundTrip(t *testing.T) {
	original := CompactTime{Time: time.Date(2026, 3, 5, 14, 30, 0, 0, time.UTC)}

	data, err := json.Marshal(original)
	require.NoError(t, err)
	require.Equal(t, `"20260305T143000Z"`, string(data))

	var decoded CompactTime
	require.NoError(t, json.Unmarshal(data, &decoded))
	require.True(t, original.Time.Equal(decoded.Time))
}

func TestCompactTimeUnmarshalRejectsUnquoted(t *testing.T) {
	var decoded CompactTime
	err := decoded.UnmarshalJSON([]byte(`20260305T143000Z`))
	require.Error(t, err)
}

func TestLoaderReadsMapAndTerrainSections(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	contents := `
terrain:
  tile_size: 33
  max_level: 18
  concurrency: 8
map:
  layers:
    - name: basemap
      uri: mbtiles://./basemap.mbtiles
      min_level: 0
      max_level: 14
      cache_policy: read_only
      opacity: 1.0
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(contents), 0o644))

	loader := NewLoader(cfgPath)
	terrain, m, err := loader.Load()
	require.NoError(t, err)

	require.Equal(t, uint32(33), terrain.TileSize)
	require.Equal(t, uint32(18), terrain.MaxLevel)
	require.Equal(t, 8, terrain.Concurrency)
	// Unspecified fields keep the default.
	require.Equal(t, 0.02, terrain.SkirtRatio)

	require.Len(t, m.Layers, 1)
	require.Equal(t, "basemap", m.Layers[0].Name)
	require.Equal(t, CacheReadOnly, m.Layers[0].CachePolicy)
	require.Equal(t, uint32(14), m.Layers[0].MaxLevel)
	require.InDelta(t, 1.0, m.Layers[0].Opacity, 0.0001)

	require.Equal(t, cfgPath, loader.ConfigFileUsed())
}

func TestLoaderMissingFileFallsBackToDefaults(t *testing.T) {
	dir := t.TempDir()
	loader := NewLoader(filepath.Join(dir, "does-not-exist.yaml"))

	terrain, m, err := loader.Load()
	require.NoError(t, err)
	require.Equal(t, DefaultTerrainConfig(), terrain)
	require.Empty(t, m.Layers)
}

func TestLookupEnvPrefixFallback(t *testing.T) {
	t.Setenv("ROCKY_FILE_PATH", "/opt/shaders")
	v, ok := LookupEnv("file_path")
	require.True(t, ok)
	require.Equal(t, "/opt/shaders", v)

	t.Setenv("BING_KEY", "bare-value")
	v, ok = LookupEnv("bing_key")
	require.True(t, ok)
	require.Equal(t, "bare-value", v)

	_, ok = LookupEnv("nonexistent_key")
	require.False(t, ok)
}
