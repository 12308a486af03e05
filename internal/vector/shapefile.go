package vector

import (
	"os"
	"strings"

	"github.com/ctessum/geom"
	ctshp "github.com/ctessum/geom/encoding/shp"
	"github.com/ctessum/geom/proj"
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ReadShapefile reads all features and attributes of a shapefile into a Layer.
// The spatial reference is taken from the .prj sidecar when present; features
// with nil or unsupported geometry are skipped with a logged count.
func ReadShapefile(path string) (*Layer, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "vector: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	layer := &Layer{}
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		g := shapeToGeom(shape)
		if g == nil {
			skipped++
			continue
		}
		attrs := make(map[string]string, len(names))
		for i, name := range names {
			val := strings.TrimSpace(strings.TrimRight(reader.Attribute(i), "\x00"))
			attrs[name] = val
		}
		layer.Features = append(layer.Features, Feature{Geom: g, Fields: attrs})
	}
	if skipped > 0 {
		zap.L().Debug("vector: skipped shapefile records",
			zap.String("path", path),
			zap.Int("skipped", skipped),
		)
	}

	sr, prj, err := readSR(path)
	if err != nil {
		return nil, err
	}
	layer.SR = sr
	layer.PRJ = prj

	return layer, nil
}

// readSR parses the .prj sidecar into a spatial reference. A missing sidecar
// is not an error here; CRS resolution policy lives in the normalizer.
func readSR(shpPath string) (*proj.SR, string, error) {
	prjPath := strings.TrimSuffix(shpPath, ".shp") + ".prj"
	raw, err := os.ReadFile(prjPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", nil
		}
		return nil, "", eris.Wrapf(err, "vector: read %s", prjPath)
	}

	text := strings.TrimSpace(string(raw))

	// Sidecars written after a reprojection carry proj4 text instead of WKT.
	if strings.HasPrefix(text, "+") {
		sr, err := proj.Parse(text)
		if err != nil {
			return nil, "", eris.Wrapf(err, "vector: parse proj4 CRS of %s", shpPath)
		}
		return sr, text, nil
	}

	dec, err := ctshp.NewDecoder(shpPath)
	if err != nil {
		return nil, "", eris.Wrapf(err, "vector: open %s for CRS", shpPath)
	}
	defer dec.Close()
	sr, err := dec.SR()
	if err != nil {
		return nil, "", eris.Wrapf(err, "vector: parse CRS of %s", shpPath)
	}
	return sr, text, nil
}

// shapeToGeom converts a go-shp shape to a geometry. Returns nil for nil or
// unsupported shapes.
func shapeToGeom(shape shp.Shape) geom.Geom {
	switch s := shape.(type) {
	case *shp.Point:
		return geom.Point{X: s.X, Y: s.Y}
	case *shp.PointZ:
		return geom.Point{X: s.X, Y: s.Y}
	case *shp.PolyLine:
		return polyLineToGeom(s.NumParts, s.Parts, s.Points)
	case *shp.PolyLineZ:
		return polyLineToGeom(s.NumParts, s.Parts, s.Points)
	case *shp.Polygon:
		return polygonToGeom(s.NumParts, s.Parts, s.Points)
	case *shp.PolygonZ:
		return polygonToGeom(s.NumParts, s.Parts, s.Points)
	default:
		return nil
	}
}

func polyLineToGeom(numParts int32, parts []int32, points []shp.Point) geom.Geom {
	if numParts == 0 || len(points) == 0 {
		return nil
	}
	var mls geom.MultiLineString
	for i := int32(0); i < numParts; i++ {
		start, end := partRange(i, numParts, parts, len(points))
		ls := make(geom.LineString, 0, end-start)
		for j := start; j < end; j++ {
			ls = append(ls, geom.Point{X: points[j].X, Y: points[j].Y})
		}
		if len(ls) >= 2 {
			mls = append(mls, ls)
		}
	}
	if len(mls) == 0 {
		return nil
	}
	if len(mls) == 1 {
		return mls[0]
	}
	return mls
}

func polygonToGeom(numParts int32, parts []int32, points []shp.Point) geom.Geom {
	if numParts == 0 || len(points) == 0 {
		return nil
	}
	var poly geom.Polygon
	for i := int32(0); i < numParts; i++ {
		start, end := partRange(i, numParts, parts, len(points))
		ring := make([]geom.Point, 0, end-start)
		for j := start; j < end; j++ {
			ring = append(ring, geom.Point{X: points[j].X, Y: points[j].Y})
		}
		if len(ring) >= 3 {
			poly = append(poly, ring)
		}
	}
	if len(poly) == 0 {
		return nil
	}
	return poly
}

func partRange(i, numParts int32, parts []int32, total int) (int, int) {
	start := int(parts[i])
	end := total
	if i+1 < numParts {
		end = int(parts[i+1])
	}
	return start, end
}
