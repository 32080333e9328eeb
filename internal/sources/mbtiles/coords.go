package mbtiles

import (
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/maptile"
)

// ZXY is a slippy-map tile coordinate (XYZ, Y increasing downward), the
// addressing scheme MBTiles stores internally as TMS (Y increasing upward)
// and that GetImage must convert to and from.
type ZXY struct {
	Z uint32
	X uint32
	Y uint32
}

func (c ZXY) String() string { return fmt.Sprintf("z%d_x%d_y%d", c.Z, c.X, c.Y) }

// tmsRow converts c's XYZ row to the TMS row MBTiles stores.
func (c ZXY) tmsRow() uint32 {
	return (uint32(1)<<c.Z - 1) - c.Y
}

// tileRange covers the geographic bbox [minLon, minLat, maxLon, maxLat] at
// zoom z, using maptile.At the same way the teacher's TilesInBBox does.
func tileRange(minLon, minLat, maxLon, maxLat float64, z uint32) (minX, maxX, minY, maxY uint32) {
	zoom := maptile.Zoom(z)
	minTile := maptile.At(orb.Point{minLon, minLat}, zoom)
	maxTile := maptile.At(orb.Point{maxLon, maxLat}, zoom)

	minX, maxX = minTile.X, maxTile.X
	if minX > maxX {
		minX, maxX = maxX, minX
	}
	minY, maxY = minTile.Y, maxTile.Y
	if minY > maxY {
		minY, maxY = maxY, minY
	}
	return minX, maxX, minY, maxY
}

// CoveredTiles enumerates every ZXY the metadata's bounds cover across
// [minZoom, maxZoom], for coverage reporting (the CLI's "coverage"
// subcommand) or for precomputing a layer.DataExtent per zoom band.
func (m Metadata) CoveredTiles() []ZXY {
	var out []ZXY
	for z := m.MinZoom; z <= m.MaxZoom; z++ {
		minX, maxX, minY, maxY := tileRange(m.Bounds[0], m.Bounds[1], m.Bounds[2], m.Bounds[3], uint32(z))
		for x := minX; x <= maxX; x++ {
			for y := minY; y <= maxY; y++ {
				out = append(out, ZXY{Z: uint32(z), X: x, Y: y})
			}
		}
	}
	return out
}
