package spatial

import (
	"fmt"
	"math"
	"strings"
	"sync"
)

// Kind classifies the coordinate space an SRS operates in.
type Kind int

const (
	KindGeographic Kind = iota
	KindProjected
	KindGeocentric
)

// SRS is an opaque handle to a spatial reference system, backed by a string
// definition (a well-known alias in this implementation; WKT/proj-string
// pass-through is accepted but only the recognized aliases carry transform
// support).
type SRS struct {
	def       string
	kind      Kind
	ellipsoid Ellipsoid
}

var (
	registryMu sync.Mutex
	registry   = map[string]SRS{}
)

func register(alias string, s SRS) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[alias] = s
}

func init() {
	register("wgs84", SRS{def: "wgs84", kind: KindGeographic, ellipsoid: WGS84})
	register("epsg:4326", SRS{def: "wgs84", kind: KindGeographic, ellipsoid: WGS84})
	register("global-geodetic", SRS{def: "wgs84", kind: KindGeographic, ellipsoid: WGS84})
	register("plate-carree", SRS{def: "plate-carree", kind: KindGeographic, ellipsoid: WGS84})
	register("spherical-mercator", SRS{def: "spherical-mercator", kind: KindProjected, ellipsoid: WGS84})
	register("epsg:3857", SRS{def: "spherical-mercator", kind: KindProjected, ellipsoid: WGS84})
	register("geocentric", SRS{def: "geocentric", kind: KindGeocentric, ellipsoid: WGS84})
	moonEllipsoid := NewEllipsoid(1737400.0, 1737400.0)
	register("moon", SRS{def: "moon", kind: KindGeographic, ellipsoid: moonEllipsoid})
}

// Get resolves a well-known SRS alias (case-insensitive). Unknown strings are
// treated as an opaque geographic definition on the WGS84 ellipsoid, which
// keeps callers from hard failing on an unrecognized WKT/proj string while
// still making the lack of real transform support visible through
// horizontallyEquivalentTo returning false for anything but an exact string match.
func Get(def string) SRS {
	key := strings.ToLower(strings.TrimSpace(def))
	registryMu.Lock()
	s, ok := registry[key]
	registryMu.Unlock()
	if ok {
		return s
	}
	return SRS{def: def, kind: KindGeographic, ellipsoid: WGS84}
}

func (s SRS) String() string          { return s.def }
func (s SRS) IsGeographic() bool      { return s.kind == KindGeographic }
func (s SRS) IsProjected() bool       { return s.kind == KindProjected }
func (s SRS) IsGeocentric() bool      { return s.kind == KindGeocentric }
func (s SRS) Ellipsoid() Ellipsoid    { return s.ellipsoid }
func (s SRS) Valid() bool             { return s.def != "" }

// Bounds returns the legal coordinate-space bounds for this SRS (degrees for
// geographic, meters for projected).
func (s SRS) Bounds() Extent {
	switch s.def {
	case "spherical-mercator":
		const r = 20037508.342789244
		return Extent{SRS: s, MinX: -r, MinY: -r, MaxX: r, MaxY: r}
	case "plate-carree":
		return Extent{SRS: s, MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}
	default:
		return Extent{SRS: s, MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}
	}
}

// GeoSRS returns the horizontal-only geodetic equivalent of s (itself, if s
// is already geographic).
func (s SRS) GeoSRS() SRS {
	if s.IsGeographic() {
		return s
	}
	return Get("wgs84")
}

// HorizontallyEquivalentTo reports whether s and other address the same
// horizontal coordinate space (ignoring vertical datum), which in this
// implementation means they resolve to the same definition string.
func (s SRS) HorizontallyEquivalentTo(other SRS) bool {
	return s.def == other.def
}

// SRSOperation is a transform from one SRS to another. It may be a no-op.
type SRSOperation struct {
	from, to SRS
	noop     bool
}

// To builds an SRSOperation from s to other.
func (s SRS) To(other SRS) SRSOperation {
	if s.HorizontallyEquivalentTo(other) {
		return SRSOperation{from: s, to: other, noop: true}
	}
	return SRSOperation{from: s, to: other}
}

// Transform maps a single point from the operation's source SRS to its
// destination SRS. Height passes through unchanged except geographic<->geocentric
// transforms, which properly fold it into/out of the ellipsoid normal.
func (op SRSOperation) Transform(p GeodeticPoint) (GeodeticPoint, error) {
	if op.noop {
		return p, nil
	}
	return transformPoint(op.from, op.to, p)
}

// TransformArray maps a slice of points in place, reusing the same resolved
// operation rather than re-resolving a transform per point.
func (op SRSOperation) TransformArray(pts []GeodeticPoint) error {
	if op.noop {
		return nil
	}
	for i := range pts {
		out, err := transformPoint(op.from, op.to, pts[i])
		if err != nil {
			return err
		}
		pts[i] = out
	}
	return nil
}

func transformPoint(from, to SRS, p GeodeticPoint) (GeodeticPoint, error) {
	// Normalize through geographic WGS84 degrees as the pivot space.
	geo, err := toGeographic(from, p)
	if err != nil {
		return GeodeticPoint{}, err
	}
	return fromGeographic(to, geo)
}

func toGeographic(from SRS, p GeodeticPoint) (GeodeticPoint, error) {
	switch {
	case from.IsGeographic():
		return p, nil
	case from.def == "spherical-mercator":
		lon, lat := mercatorToLonLat(p.Lon, p.Lat)
		return GeodeticPoint{Lon: lon, Lat: lat, Height: p.Height}, nil
	case from.IsGeocentric():
		return from.ellipsoid.GeocentricToGeodetic(GeocentricPoint{X: p.Lon, Y: p.Lat, Z: p.Height}), nil
	default:
		return GeodeticPoint{}, fmt.Errorf("spatial: no transform from %q to geographic", from.def)
	}
}

func fromGeographic(to SRS, geo GeodeticPoint) (GeodeticPoint, error) {
	switch {
	case to.IsGeographic():
		return geo, nil
	case to.def == "spherical-mercator":
		x, y := lonLatToMercator(geo.Lon, geo.Lat)
		return GeodeticPoint{Lon: x, Lat: y, Height: geo.Height}, nil
	case to.IsGeocentric():
		g := to.ellipsoid.GeodeticToGeocentric(geo)
		return GeodeticPoint{Lon: g.X, Lat: g.Y, Height: g.Z}, nil
	default:
		return GeodeticPoint{}, fmt.Errorf("spatial: no transform from geographic to %q", to.def)
	}
}

// lonLatToMercator converts WGS84 degrees to spherical Web Mercator meters.
func lonLatToMercator(lon, lat float64) (float64, float64) {
	const earthRadius = 6378137.0
	x := earthRadius * lon * math.Pi / 180.0
	latRad := lat * math.Pi / 180.0
	y := earthRadius * math.Log(math.Tan(math.Pi/4.0+latRad/2.0))
	return x, y
}

// mercatorToLonLat converts spherical Web Mercator meters back to WGS84 degrees.
func mercatorToLonLat(x, y float64) (float64, float64) {
	const earthRadius = 6378137.0
	lon := (x / earthRadius) * 180.0 / math.Pi
	lat := (math.Atan(math.Exp(y/earthRadius)) - math.Pi/4.0) * 2.0 * 180.0 / math.Pi
	return lon, lat
}
