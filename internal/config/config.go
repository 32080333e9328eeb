// Package config loads the layer/map/terrain settings schema spec.md §6
// names, via viper, matching the teacher's config-file conventions
// (config.yaml default, --config override, ROCKY_<NAME> env fallback).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// CachePolicy controls how aggressively a layer's fetched tiles are cached
// by the external IO layer; the core never persists anything itself.
type CachePolicy string

const (
	CacheNone     CachePolicy = "no_cache"
	CacheReadOnly CachePolicy = "read_only"
	CacheReadWrite CachePolicy = "read_write"
	CacheOnly     CachePolicy = "cache_only"
)

// LayerConfig is the serialized form of a single layer.
type LayerConfig struct {
	Name        string      `json:"name" yaml:"name" mapstructure:"name"`
	URI         string      `json:"uri,omitempty" yaml:"uri,omitempty" mapstructure:"uri"`
	Connection  string      `json:"connection,omitempty" yaml:"connection,omitempty" mapstructure:"connection"`
	MinLevel    uint32      `json:"min_level" yaml:"min_level" mapstructure:"min_level"`
	MaxLevel    uint32      `json:"max_level" yaml:"max_level" mapstructure:"max_level"`
	CachePolicy CachePolicy `json:"cache_policy" yaml:"cache_policy" mapstructure:"cache_policy"`
	Opacity     float64     `json:"opacity" yaml:"opacity" mapstructure:"opacity"`
}

// MapConfig is the serialized form of a map: an ordered layer list.
type MapConfig struct {
	Layers []LayerConfig `json:"layers" yaml:"layers" mapstructure:"layers"`
}

// TerrainConfig is the serialized form of the terrain engine's tuning
// knobs, every field spec.md §6's Terrain row names.
type TerrainConfig struct {
	TileSize           uint32  `json:"tile_size" yaml:"tile_size" mapstructure:"tile_size"`
	MinTileRangeFactor float64 `json:"min_tile_range_factor" yaml:"min_tile_range_factor" mapstructure:"min_tile_range_factor"`
	PixelError         float64 `json:"pixel_error" yaml:"pixel_error" mapstructure:"pixel_error"`
	MaxLevel           uint32  `json:"max_level" yaml:"max_level" mapstructure:"max_level"`
	MinLevel           uint32  `json:"min_level" yaml:"min_level" mapstructure:"min_level"`
	TilePixelSize      uint32  `json:"tile_pixel_size" yaml:"tile_pixel_size" mapstructure:"tile_pixel_size"`
	SkirtRatio         float64 `json:"skirt_ratio" yaml:"skirt_ratio" mapstructure:"skirt_ratio"`
	BackgroundColor    string  `json:"background_color" yaml:"background_color" mapstructure:"background_color"`
	Concurrency        int     `json:"concurrency" yaml:"concurrency" mapstructure:"concurrency"`
	WireOverlay        bool    `json:"wire_overlay" yaml:"wire_overlay" mapstructure:"wire_overlay"`
	Lighting           bool    `json:"lighting" yaml:"lighting" mapstructure:"lighting"`
	TileCacheSize      int     `json:"tile_cache_size" yaml:"tile_cache_size" mapstructure:"tile_cache_size"`
}

// DefaultTerrainConfig mirrors the defaults a bare rocky terrain uses when
// no settings file overrides them.
func DefaultTerrainConfig() TerrainConfig {
	return TerrainConfig{
		TileSize:           17,
		MinTileRangeFactor: 7.0,
		PixelError:         2.5,
		MaxLevel:           22,
		TilePixelSize:      256,
		SkirtRatio:         0.02,
		BackgroundColor:    "#000000ff",
		Concurrency:        6,
		Lighting:           true,
		TileCacheSize:      128,
	}
}

// envPrefix matches the teacher's viper.SetEnvPrefix convention, adapted
// from "WATERCOLORMAP" to this project's own name.
const envPrefix = "ROCKY"

// Loader reads terrain/map settings from a config file (YAML or JSON,
// viper auto-detects by extension). Viper's AutomaticEnv is enabled with
// the ROCKY prefix, so only ROCKY_<NAME> environment variables are
// consulted; the bare <NAME> fallback belongs to LookupEnv, not Loader.
type Loader struct {
	v *viper.Viper
}

// NewLoader constructs a Loader rooted at path, or searching "." for a
// "config.yaml"/"config.json" file when path is empty (the teacher's
// --config flag default).
func NewLoader(path string) *Loader {
	v := viper.New()
	if path != "" {
		ext := filepath.Ext(path)
		v.AddConfigPath(filepath.Dir(path))
		v.SetConfigName(strings.TrimSuffix(filepath.Base(path), ext))
		if ext != "" {
			v.SetConfigType(strings.TrimPrefix(ext, "."))
		}
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
	}
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	return &Loader{v: v}
}

// Load reads the config file (if present; a missing file is not an error,
// since defaults plus environment variables may fully supply settings) and
// unmarshals the terrain and map sections.
func (l *Loader) Load() (TerrainConfig, MapConfig, error) {
	if err := l.v.ReadInConfig(); err != nil {
		if _, notFound := err.(viper.ConfigFileNotFoundError); !notFound {
			return TerrainConfig{}, MapConfig{}, fmt.Errorf("config: reading config file: %w", err)
		}
	}

	terrain := DefaultTerrainConfig()
	if err := l.v.UnmarshalKey("terrain", &terrain); err != nil {
		return TerrainConfig{}, MapConfig{}, fmt.Errorf("config: unmarshaling terrain settings: %w", err)
	}

	var m MapConfig
	if err := l.v.UnmarshalKey("map", &m); err != nil {
		return TerrainConfig{}, MapConfig{}, fmt.Errorf("config: unmarshaling map settings: %w", err)
	}

	return terrain, m, nil
}

// ConfigFileUsed reports the path viper actually resolved, empty if none
// was found.
func (l *Loader) ConfigFileUsed() string { return l.v.ConfigFileUsed() }

// LookupEnv implements the ROCKY_<NAME> -> <NAME> fallback spec.md §6
// describes for AZURE_KEY/BING_KEY/ROCKY_FILE_PATH-style lookups outside
// viper's own config tree.
func LookupEnv(name string) (string, bool) {
	name = strings.ToUpper(name)
	if v, ok := os.LookupEnv(envPrefix + "_" + name); ok {
		return v, true
	}
	return os.LookupEnv(name)
}
