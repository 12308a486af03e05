// Package corridor derives the zone of influence around the road corridor
// geometry.
package corridor

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"

	"github.com/geoandina/hazmap/internal/geomop"
)

// Named failures; the buffer zone is a hard prerequisite for every later
// stage, so these abort the run.
var (
	ErrEmptyCorridor = eris.New("corridor: empty corridor geometry")
	ErrBadDistance   = eris.New("corridor: buffer distance must be positive")
	ErrNotBufferable = eris.New("corridor: geometry type cannot be buffered")
)

// arcSegments is the number of chords used to approximate a full circle in
// round caps and joins.
const arcSegments = 32

// Buffer returns the polygon enclosing all locations within distance meters
// of the corridor geometry, built as the union of one capsule per corridor
// segment (plus the corridor area itself for polygonal corridors). The
// distance is planar, so the corridor must be in a projected CRS.
func Buffer(corridor geom.Geom, distance float64) (geom.Polygon, error) {
	if distance <= 0 {
		return nil, ErrBadDistance
	}
	if corridor == nil {
		return nil, ErrEmptyCorridor
	}
	switch corridor.(type) {
	case geom.LineString, geom.MultiLineString, geom.Polygon, geom.MultiPolygon:
	default:
		return nil, ErrNotBufferable
	}

	segs := geomop.Segments(corridor)
	var zone geom.Polygon
	for _, seg := range segs {
		c := capsule(seg[0], seg[1], distance)
		if c == nil {
			continue
		}
		if zone == nil {
			zone = c
		} else {
			zone = geomop.AsPolygon(zone.Union(c))
		}
	}
	if zone == nil {
		return nil, ErrEmptyCorridor
	}

	// A polygonal corridor contributes its own interior as well.
	switch t := corridor.(type) {
	case geom.Polygon:
		zone = geomop.AsPolygon(zone.Union(t))
	case geom.MultiPolygon:
		for _, p := range t {
			zone = geomop.AsPolygon(zone.Union(p))
		}
	}
	return zone, nil
}

// capsule builds the buffer polygon of a single segment: a rectangle with a
// sampled semicircular cap at each end. Returns nil for zero-length segments
// shorter than the sampling can resolve; neighbouring capsules cover them.
func capsule(a, b geom.Point, d float64) geom.Polygon {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return circle(a, d)
	}
	ux, uy := dx/length, dy/length
	// Left normal of the direction of travel.
	nx, ny := -uy, ux

	half := arcSegments / 2
	ring := make([]geom.Point, 0, 2*half+4)

	ring = append(ring, geom.Point{X: a.X + nx*d, Y: a.Y + ny*d})
	ring = append(ring, geom.Point{X: b.X + nx*d, Y: b.Y + ny*d})
	// Cap around b, sweeping from the left normal through the heading to the
	// right normal.
	start := math.Atan2(ny, nx)
	for i := 1; i < half; i++ {
		ang := start - float64(i)*math.Pi/float64(half)
		ring = append(ring, geom.Point{X: b.X + d*math.Cos(ang), Y: b.Y + d*math.Sin(ang)})
	}
	ring = append(ring, geom.Point{X: b.X - nx*d, Y: b.Y - ny*d})
	ring = append(ring, geom.Point{X: a.X - nx*d, Y: a.Y - ny*d})
	// Cap around a.
	start = math.Atan2(-ny, -nx)
	for i := 1; i < half; i++ {
		ang := start - float64(i)*math.Pi/float64(half)
		ring = append(ring, geom.Point{X: a.X + d*math.Cos(ang), Y: a.Y + d*math.Sin(ang)})
	}

	return geom.Polygon{ring}
}

func circle(c geom.Point, d float64) geom.Polygon {
	ring := make([]geom.Point, 0, arcSegments)
	for i := 0; i < arcSegments; i++ {
		ang := 2 * math.Pi * float64(i) / float64(arcSegments)
		ring = append(ring, geom.Point{X: c.X + d*math.Cos(ang), Y: c.Y + d*math.Sin(ang)})
	}
	return geom.Polygon{ring}
}
