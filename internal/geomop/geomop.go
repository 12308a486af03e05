// Package geomop supplies the small planar-geometry helpers the pipeline
// needs beyond what github.com/ctessum/geom exposes directly.
package geomop

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
)

// AsPolygon flattens the result of a polygon boolean operation into a single
// multi-ring Polygon. Returns nil when the operation produced no area.
func AsPolygon(p geom.Polygonal) geom.Polygon {
	if p == nil {
		return nil
	}
	var out geom.Polygon
	for _, poly := range p.Polygons() {
		out = append(out, poly...)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// Centroid returns the centroid of a geometry: the point itself, the
// length-weighted midpoint of line geometries, or the area centroid of
// polygonal geometries.
func Centroid(g geom.Geom) (geom.Point, error) {
	switch t := g.(type) {
	case geom.Point:
		return t, nil
	case geom.LineString:
		return lineCentroid([]geom.LineString{t})
	case geom.MultiLineString:
		return lineCentroid(t)
	case geom.Polygonal:
		if t.Area() == 0 {
			return geom.Point{}, eris.New("geomop: zero-area polygon")
		}
		return t.Centroid(), nil
	default:
		return geom.Point{}, eris.Errorf("geomop: no centroid for %T", g)
	}
}

func lineCentroid(lines []geom.LineString) (geom.Point, error) {
	var cx, cy, length float64
	for _, ls := range lines {
		for i := 1; i < len(ls); i++ {
			a, b := ls[i-1], ls[i]
			l := math.Hypot(b.X-a.X, b.Y-a.Y)
			cx += (a.X + b.X) / 2 * l
			cy += (a.Y + b.Y) / 2 * l
			length += l
		}
	}
	if length == 0 {
		return geom.Point{}, eris.New("geomop: zero-length line")
	}
	return geom.Point{X: cx / length, Y: cy / length}, nil
}

// Segments flattens a line or polygon geometry into its constituent segments.
func Segments(g geom.Geom) [][2]geom.Point {
	var segs [][2]geom.Point
	addLine := func(pts []geom.Point, closed bool) {
		for i := 1; i < len(pts); i++ {
			segs = append(segs, [2]geom.Point{pts[i-1], pts[i]})
		}
		if closed && len(pts) > 2 && pts[0] != pts[len(pts)-1] {
			segs = append(segs, [2]geom.Point{pts[len(pts)-1], pts[0]})
		}
	}
	switch t := g.(type) {
	case geom.LineString:
		addLine(t, false)
	case geom.MultiLineString:
		for _, ls := range t {
			addLine(ls, false)
		}
	case geom.Polygon:
		for _, ring := range t {
			addLine(ring, true)
		}
	case geom.MultiPolygon:
		for _, p := range t {
			for _, ring := range p {
				addLine(ring, true)
			}
		}
	}
	return segs
}

// DistanceToSegment returns the planar distance from p to segment ab.
func DistanceToSegment(p, a, b geom.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l2 := dx*dx + dy*dy
	if l2 == 0 {
		return math.Hypot(p.X-a.X, p.Y-a.Y)
	}
	t := ((p.X-a.X)*dx + (p.Y-a.Y)*dy) / l2
	t = math.Max(0, math.Min(1, t))
	return math.Hypot(p.X-(a.X+t*dx), p.Y-(a.Y+t*dy))
}
