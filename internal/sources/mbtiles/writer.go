package mbtiles

import (
	"bytes"
	"compress/gzip"
	"database/sql"
	"image/png"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/terrapage/terrapage/internal/profile"
	"github.com/terrapage/terrapage/internal/raster"
	"github.com/terrapage/terrapage/internal/status"
)

// DefaultBatchSize is the number of tiles buffered before a CacheWriter
// flushes to disk.
const DefaultBatchSize = 100

type cacheEntry struct {
	key profile.TileKey
	png []byte
}

// CacheWriter persists GeoImages to an MBTiles database in batches; the
// database reads back through the plain Source type. No layer writes
// through it: the config.CacheReadWrite and config.CacheOnly policies are
// parsed but not wired to a CacheWriter.
type CacheWriter struct {
	db        *sql.DB
	path      string
	batch     []cacheEntry
	batchSize int
	mu        sync.Mutex
}

// NewCacheWriter creates (or reopens) an MBTiles database at path and
// ensures its schema and metadata row are present.
func NewCacheWriter(path string, meta Metadata) (*CacheWriter, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, status.Wrap(status.ConfigurationError, err, "opening mbtiles cache database %q", path)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = 50000",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, status.Wrap(status.GeneralError, err, "setting pragma %q on %q", pragma, path)
		}
	}

	if err := createCacheSchema(db); err != nil {
		db.Close()
		return nil, err
	}
	if err := insertCacheMetadata(db, meta); err != nil {
		db.Close()
		return nil, err
	}

	return &CacheWriter{db: db, path: path, batch: make([]cacheEntry, 0, DefaultBatchSize), batchSize: DefaultBatchSize}, nil
}

func createCacheSchema(db *sql.DB) error {
	schema := `
		CREATE TABLE IF NOT EXISTS metadata (
			name TEXT NOT NULL,
			value TEXT
		);

		CREATE TABLE IF NOT EXISTS tiles (
			zoom_level INTEGER NOT NULL,
			tile_column INTEGER NOT NULL,
			tile_row INTEGER NOT NULL,
			tile_data BLOB NOT NULL
		);

		CREATE UNIQUE INDEX IF NOT EXISTS tile_index ON tiles (zoom_level, tile_column, tile_row);
	`
	if _, err := db.Exec(schema); err != nil {
		return status.Wrap(status.GeneralError, err, "creating mbtiles cache schema")
	}
	return nil
}

func insertCacheMetadata(db *sql.DB, meta Metadata) error {
	if _, err := db.Exec("DELETE FROM metadata"); err != nil {
		return status.Wrap(status.GeneralError, err, "clearing mbtiles cache metadata")
	}
	stmt, err := db.Prepare("INSERT INTO metadata (name, value) VALUES (?, ?)")
	if err != nil {
		return status.Wrap(status.GeneralError, err, "preparing mbtiles cache metadata insert")
	}
	defer stmt.Close()

	for name, value := range meta.ToMap() {
		if _, err := stmt.Exec(name, value); err != nil {
			return status.Wrap(status.GeneralError, err, "inserting mbtiles cache metadata %q", name)
		}
	}
	return nil
}

// PutImage encodes img as PNG and queues it for write under key, flushing
// automatically once the batch fills.
func (w *CacheWriter) PutImage(key profile.TileKey, img *raster.GeoImage) error {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img.Image.ToNRGBA()); err != nil {
		return status.Wrap(status.GeneralError, err, "encoding tile %s for cache write", key)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.batch = append(w.batch, cacheEntry{key: key, png: buf.Bytes()})
	if len(w.batch) >= w.batchSize {
		return w.flushLocked()
	}
	return nil
}

// Flush writes any buffered tiles to the database.
func (w *CacheWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *CacheWriter) flushLocked() error {
	if len(w.batch) == 0 {
		return nil
	}

	tx, err := w.db.Begin()
	if err != nil {
		return status.Wrap(status.GeneralError, err, "beginning mbtiles cache write transaction")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare("INSERT OR REPLACE INTO tiles (zoom_level, tile_column, tile_row, tile_data) VALUES (?, ?, ?, ?)")
	if err != nil {
		return status.Wrap(status.GeneralError, err, "preparing mbtiles cache tile insert")
	}
	defer stmt.Close()

	for _, entry := range w.batch {
		coord := ZXY{Z: entry.key.Level, X: entry.key.X, Y: entry.key.Y}
		compressed, err := gzipCompress(entry.png)
		if err != nil {
			return status.Wrap(status.GeneralError, err, "compressing cached tile %s", entry.key)
		}
		if _, err := stmt.Exec(coord.Z, coord.X, coord.tmsRow(), compressed); err != nil {
			return status.Wrap(status.GeneralError, err, "writing cached tile %s", entry.key)
		}
	}

	if err := tx.Commit(); err != nil {
		return status.Wrap(status.GeneralError, err, "committing mbtiles cache write transaction")
	}
	w.batch = w.batch[:0]
	return nil
}

// Close flushes any remaining tiles and closes the database.
func (w *CacheWriter) Close() error {
	if err := w.Flush(); err != nil {
		w.db.Close()
		return err
	}
	if err := w.db.Close(); err != nil {
		return status.Wrap(status.GeneralError, err, "closing mbtiles cache database %q", w.path)
	}
	return nil
}

func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	if _, err := gw.Write(data); err != nil {
		gw.Close()
		return nil, err
	}
	if err := gw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
