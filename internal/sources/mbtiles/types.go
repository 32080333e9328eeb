// Package mbtiles adapts an MBTiles SQLite tile database into a
// layer.ImageSource, the one concrete data-source adapter the core ships
// (spec.md names the LayerSource contract in the abstract; this is a
// reference implementation of it, used only by its own tests and the CLI).
package mbtiles

import "fmt"

// Metadata mirrors the fixed key/value rows an MBTiles database stores in
// its "metadata" table.
type Metadata struct {
	Name        string
	Format      string // png, jpg, webp, pbf
	Attribution string
	Description string
	Type        string // "baselayer" or "overlay"
	Version     string
	Bounds      [4]float64 // minLon, minLat, maxLon, maxLat
	Center      [3]float64 // lon, lat, zoom
	MinZoom     int
	MaxZoom     int
}

// ToMap renders m back to the metadata table's string-keyed row form, used
// when writing a cache database (cache_policy: read_write/cache_only).
func (m Metadata) ToMap() map[string]string {
	result := make(map[string]string)
	if m.Name != "" {
		result["name"] = m.Name
	}
	if m.Format != "" {
		result["format"] = m.Format
	}
	if m.MinZoom > 0 {
		result["minzoom"] = fmt.Sprintf("%d", m.MinZoom)
	}
	if m.MaxZoom > 0 {
		result["maxzoom"] = fmt.Sprintf("%d", m.MaxZoom)
	}
	if m.Bounds != [4]float64{} {
		result["bounds"] = fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", m.Bounds[0], m.Bounds[1], m.Bounds[2], m.Bounds[3])
	}
	if m.Center != [3]float64{} {
		result["center"] = fmt.Sprintf("%.6f,%.6f,%d", m.Center[0], m.Center[1], int(m.Center[2]))
	}
	if m.Attribution != "" {
		result["attribution"] = m.Attribution
	}
	if m.Description != "" {
		result["description"] = m.Description
	}
	if m.Type != "" {
		result["type"] = m.Type
	}
	if m.Version != "" {
		result["version"] = m.Version
	}
	return result
}
