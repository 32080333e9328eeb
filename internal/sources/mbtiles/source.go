package mbtiles

import (
	"bytes"
	"compress/gzip"
	"context"
	"database/sql"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/terrapage/terrapage/internal/profile"
	"github.com/terrapage/terrapage/internal/raster"
	"github.com/terrapage/terrapage/internal/spatial"
	"github.com/terrapage/terrapage/internal/status"
)

// Source reads tiles out of an MBTiles SQLite database and exposes them as
// a layer.ImageSource. It assumes the database's internal zoom/x/y grid is
// the spherical-mercator profile's own grid (the common case for MBTiles,
// which the spec itself is silent on); TileKeys from any other profile are
// rejected with status.ConfigurationError.
type Source struct {
	db   *sql.DB
	path string
	meta Metadata
}

// Open opens path read-only (MBTiles databases are long-lived caches, never
// written to by the core) and loads its metadata table.
func Open(path string) (*Source, error) {
	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, status.Wrap(status.ConfigurationError, err, "opening mbtiles database %q", path)
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='tiles'").Scan(&count); err != nil {
		db.Close()
		return nil, status.Wrap(status.ConfigurationError, err, "verifying mbtiles schema in %q", path)
	}
	if count == 0 {
		db.Close()
		return nil, status.New(status.ConfigurationError, "mbtiles database %q has no tiles table", path)
	}

	s := &Source{db: db, path: path}
	meta, err := readMetadata(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.meta = meta
	return s, nil
}

// Close releases the underlying database handle.
func (s *Source) Close() error {
	if err := s.db.Close(); err != nil {
		return status.Wrap(status.GeneralError, err, "closing mbtiles database %q", s.path)
	}
	return nil
}

// Metadata returns the database's metadata table, parsed once at Open.
func (s *Source) Metadata() Metadata { return s.meta }

// GetImage implements layer.ImageSource: it converts key to the database's
// TMS row, fetches and decodes the stored tile, and wraps it as a GeoImage
// covering key's own extent.
func (s *Source) GetImage(ctx context.Context, key profile.TileKey) (*raster.GeoImage, error) {
	select {
	case <-ctx.Done():
		return nil, status.Wrap(status.Canceled, ctx.Err(), "mbtiles fetch for %s canceled", key)
	default:
	}

	if merc := profile.MustWellKnown("spherical-mercator"); !key.Profile.EquivalentTo(merc) {
		return nil, status.New(status.ConfigurationError, "mbtiles source serves only spherical-mercator keys, got %s", key)
	}

	coord := ZXY{Z: key.Level, X: key.X, Y: key.Y}
	tmsY := coord.tmsRow()

	var raw []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT tile_data FROM tiles WHERE zoom_level=? AND tile_column=? AND tile_row=?",
		coord.Z, coord.X, tmsY,
	).Scan(&raw)
	if err == sql.ErrNoRows {
		return nil, status.New(status.NotFound, "no mbtiles tile at %s", key)
	}
	if err != nil {
		return nil, status.Wrap(status.GeneralError, err, "querying mbtiles tile %s", key)
	}

	decoded, err := ungzipIfNeeded(raw)
	if err != nil {
		return nil, status.Wrap(status.GeneralError, err, "decompressing mbtiles tile %s", key)
	}

	img, _, err := image.Decode(bytes.NewReader(decoded))
	if err != nil {
		return nil, status.Wrap(status.GeneralError, err, "decoding mbtiles tile %s", key)
	}

	return &raster.GeoImage{Image: toRasterImage(img), Extent: key.Extent()}, nil
}

func toRasterImage(src image.Image) *raster.Image {
	nrgba, ok := src.(*image.NRGBA)
	if !ok {
		b := src.Bounds()
		converted := image.NewNRGBA(b)
		draw.Draw(converted, b, src, b.Min, draw.Src)
		nrgba = converted
	}
	return raster.FromNRGBA(nrgba, raster.R8G8B8A8Srgb)
}

func ungzipIfNeeded(data []byte) ([]byte, error) {
	if len(data) < 2 || data[0] != 0x1f || data[1] != 0x8b {
		return data, nil
	}
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer gr.Close()
	return io.ReadAll(gr)
}

func readMetadata(db *sql.DB) (Metadata, error) {
	rows, err := db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return Metadata{}, status.Wrap(status.GeneralError, err, "reading mbtiles metadata")
	}
	defer rows.Close()

	raw := make(map[string]string)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return Metadata{}, status.Wrap(status.GeneralError, err, "scanning mbtiles metadata row")
		}
		raw[name] = value
	}
	if err := rows.Err(); err != nil {
		return Metadata{}, status.Wrap(status.GeneralError, err, "iterating mbtiles metadata")
	}

	meta := Metadata{
		Name:        raw["name"],
		Format:      raw["format"],
		Attribution: raw["attribution"],
		Description: raw["description"],
		Type:        raw["type"],
		Version:     raw["version"],
	}
	if v, ok := raw["minzoom"]; ok {
		if i, err := strconv.Atoi(v); err == nil {
			meta.MinZoom = i
		}
	}
	if v, ok := raw["maxzoom"]; ok {
		if i, err := strconv.Atoi(v); err == nil {
			meta.MaxZoom = i
		}
	}
	if v, ok := raw["bounds"]; ok {
		parts := strings.Split(v, ",")
		if len(parts) == 4 {
			for i, part := range parts {
				if f, err := strconv.ParseFloat(strings.TrimSpace(part), 64); err == nil {
					meta.Bounds[i] = f
				}
			}
		}
	}
	if v, ok := raw["center"]; ok {
		parts := strings.Split(v, ",")
		if len(parts) == 3 {
			for i, part := range parts {
				if f, err := strconv.ParseFloat(strings.TrimSpace(part), 64); err == nil {
					meta.Center[i] = f
				}
			}
		}
	}

	return meta, nil
}

// DataExtent returns the metadata's bounds as an extent, rather than
// scanning the tiles table. The zoom range is not included, and the
// extent's SRS is left unset.
func (s *Source) DataExtent() spatial.Extent {
	b := s.meta.Bounds
	return spatial.Extent{MinX: b[0], MinY: b[1], MaxX: b[2], MaxY: b[3]}
}
