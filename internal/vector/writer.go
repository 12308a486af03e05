package vector

import (
	"math"
	"os"
	"strings"

	"github.com/ctessum/geom"
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
)

// PolygonRecord is one output polygon with its attribute values, ordered to
// match the field list passed to WritePolygons.
type PolygonRecord struct {
	Geom  geom.Polygon
	Attrs []interface{}
}

// WritePolygons writes a polygon shapefile with the given attribute schema.
// Ring orientation is normalized to the shapefile convention (outer rings
// clockwise). When prjText is non-empty a .prj sidecar is written alongside,
// so the layer reloads in the same CRS without re-derivation.
func WritePolygons(path string, fields []shp.Field, recs []PolygonRecord, prjText string) error {
	w, err := shp.Create(path, shp.POLYGON)
	if err != nil {
		return eris.Wrapf(err, "vector: create shapefile %s", path)
	}
	defer w.Close()

	w.SetFields(fields)

	for row, rec := range recs {
		if len(rec.Attrs) != len(fields) {
			return eris.Errorf("vector: record %d has %d attributes, schema has %d",
				row, len(rec.Attrs), len(fields))
		}
		w.Write(toShpPolygon(rec.Geom))
		for col, val := range rec.Attrs {
			if err := w.WriteAttribute(row, col, val); err != nil {
				return eris.Wrapf(err, "vector: write attribute row %d col %d", row, col)
			}
		}
	}

	if prjText != "" {
		if err := WritePRJ(path, prjText); err != nil {
			return err
		}
	}
	return nil
}

// WritePRJ writes the CRS sidecar next to an output file, replacing the
// file's extension with .prj.
func WritePRJ(path, prjText string) error {
	base := path
	if i := strings.LastIndex(base, "."); i > strings.LastIndex(base, "/") {
		base = base[:i]
	}
	prjPath := base + ".prj"
	if err := os.WriteFile(prjPath, []byte(prjText+"\n"), 0o644); err != nil {
		return eris.Wrapf(err, "vector: write %s", prjPath)
	}
	return nil
}

// toShpPolygon converts a geometry to a shapefile polygon. The first ring of
// each polygon is treated as exterior and written clockwise; subsequent rings
// counter-clockwise (holes).
func toShpPolygon(p geom.Polygon) *shp.Polygon {
	out := &shp.Polygon{}
	box := shp.Box{MinX: math.Inf(1), MinY: math.Inf(1), MaxX: math.Inf(-1), MaxY: math.Inf(-1)}

	for ri, ring := range p {
		pts := make([]geom.Point, len(ring))
		copy(pts, ring)
		wantClockwise := ri == 0
		if ringIsClockwise(pts) != wantClockwise {
			reversePoints(pts)
		}
		// Shapefile rings are explicitly closed.
		if len(pts) > 0 && pts[0] != pts[len(pts)-1] {
			pts = append(pts, pts[0])
		}

		out.Parts = append(out.Parts, out.NumPoints)
		out.NumParts++
		for _, pt := range pts {
			out.Points = append(out.Points, shp.Point{X: pt.X, Y: pt.Y})
			out.NumPoints++
			box.MinX = math.Min(box.MinX, pt.X)
			box.MinY = math.Min(box.MinY, pt.Y)
			box.MaxX = math.Max(box.MaxX, pt.X)
			box.MaxY = math.Max(box.MaxY, pt.Y)
		}
	}
	out.Box = box
	return out
}

// ringIsClockwise uses the signed shoelace area; shapefile convention is
// y-up, so negative signed area means clockwise.
func ringIsClockwise(ring []geom.Point) bool {
	var sum float64
	for i := 0; i < len(ring); i++ {
		j := (i + 1) % len(ring)
		sum += (ring[j].X - ring[i].X) * (ring[j].Y + ring[i].Y)
	}
	return sum > 0
}

func reversePoints(pts []geom.Point) {
	for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
		pts[i], pts[j] = pts[j], pts[i]
	}
}
