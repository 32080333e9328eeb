package profile

import (
	"fmt"
	"strings"

	"github.com/terrapage/terrapage/internal/spatial"
)

func wellKnownProfile(name string) (Profile, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	switch key {
	case "global-geodetic":
		p := New(spatial.Get("wgs84"), spatial.Extent{SRS: spatial.Get("wgs84"), MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}, 2, 1)
		p.wellKnownName = key
		return p, nil
	case "spherical-mercator":
		srs := spatial.Get("spherical-mercator")
		p := New(srs, srs.Bounds(), 1, 1)
		p.wellKnownName = key
		return p, nil
	case "plate-carree":
		srs := spatial.Get("plate-carree")
		p := New(srs, spatial.Extent{SRS: srs, MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}, 2, 1)
		p.wellKnownName = key
		return p, nil
	case "moon":
		srs := spatial.Get("moon")
		p := New(srs, spatial.Extent{SRS: srs, MinX: -180, MinY: -90, MaxX: 180, MaxY: 90}, 2, 1)
		p.wellKnownName = key
		return p, nil
	default:
		return Profile{}, fmt.Errorf("profile: unrecognized well-known name %q", name)
	}
}

// MustWellKnown is a convenience wrapper for use in package-level var
// initializers and tests; it panics on an unrecognized name.
func MustWellKnown(name string) Profile {
	p, err := wellKnownProfile(name)
	if err != nil {
		panic(err)
	}
	return p
}
