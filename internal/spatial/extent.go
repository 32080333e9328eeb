package spatial

import "math"

// Extent is an axis-aligned rectangle expressed in a given SRS's units.
type Extent struct {
	SRS                    SRS
	MinX, MinY, MaxX, MaxY float64
}

// Valid reports whether the extent has a well-formed SRS and non-inverted bounds.
func (e Extent) Valid() bool {
	return e.SRS.Valid() && e.MaxX >= e.MinX && e.MaxY >= e.MinY
}

func (e Extent) Width() float64  { return e.MaxX - e.MinX }
func (e Extent) Height() float64 { return e.MaxY - e.MinY }

// Intersects reports whether e and o overlap. Both extents must already be
// in the same SRS; callers are responsible for transforming first.
func (e Extent) Intersects(o Extent) bool {
	if !e.Valid() || !o.Valid() {
		return false
	}
	return e.MinX <= o.MaxX && e.MaxX >= o.MinX && e.MinY <= o.MaxY && e.MaxY >= o.MinY
}

// Union returns the smallest extent containing both e and o. If one side is
// invalid, the other is returned unchanged.
func (e Extent) Union(o Extent) Extent {
	if !e.Valid() {
		return o
	}
	if !o.Valid() {
		return e
	}
	return Extent{
		SRS:  e.SRS,
		MinX: math.Min(e.MinX, o.MinX),
		MinY: math.Min(e.MinY, o.MinY),
		MaxX: math.Max(e.MaxX, o.MaxX),
		MaxY: math.Max(e.MaxY, o.MaxY),
	}
}

// Transform maps e into another SRS via op, producing the axis-aligned
// bounding box of the four corners after transform (a conservative envelope,
// since a general reprojection need not preserve rectangularity).
func (e Extent) Transform(op SRSOperation) (Extent, error) {
	corners := []GeodeticPoint{
		{Lon: e.MinX, Lat: e.MinY},
		{Lon: e.MaxX, Lat: e.MinY},
		{Lon: e.MinX, Lat: e.MaxY},
		{Lon: e.MaxX, Lat: e.MaxY},
	}
	if err := op.TransformArray(corners); err != nil {
		return Extent{}, err
	}

	out := Extent{SRS: op.to, MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}
	for _, c := range corners {
		out.MinX = math.Min(out.MinX, c.Lon)
		out.MinY = math.Min(out.MinY, c.Lat)
		out.MaxX = math.Max(out.MaxX, c.Lon)
		out.MaxY = math.Max(out.MaxY, c.Lat)
	}
	return out, nil
}

// CrossesAntimeridian reports whether a geographic extent straddles +/-180 longitude.
func (e Extent) CrossesAntimeridian() bool {
	return e.SRS.IsGeographic() && e.MinX > e.MaxX
}

// SplitAntimeridian splits a geographic extent crossing +/-180 into west and
// east halves. If the extent does not cross, it returns e unchanged as the
// sole element.
func (e Extent) SplitAntimeridian() []Extent {
	if !e.CrossesAntimeridian() {
		return []Extent{e}
	}
	west := Extent{SRS: e.SRS, MinX: e.MinX, MinY: e.MinY, MaxX: 180, MaxY: e.MaxY}
	east := Extent{SRS: e.SRS, MinX: -180, MinY: e.MinY, MaxX: e.MaxX, MaxY: e.MaxY}
	return []Extent{west, east}
}
