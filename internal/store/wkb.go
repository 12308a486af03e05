package store

import (
	ctgeom "github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
)

// Audit geometries are stored in the run's working CRS, which has no EPSG
// code of its own, so the SRID is left at zero and the CRS travels with the
// run record.

// EncodePointWKB converts a working-CRS coordinate to EWKB bytes.
func EncodePointWKB(x, y float64) ([]byte, error) {
	g := geom.NewPointFlat(geom.XY, []float64{x, y})
	data, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode point WKB")
	}
	return data, nil
}

// EncodePolygonWKB converts a polygon to EWKB bytes. Returns nil, nil for
// empty polygons.
func EncodePolygonWKB(p ctgeom.Polygon) ([]byte, error) {
	if len(p) == 0 {
		return nil, nil
	}

	poly := geom.NewPolygon(geom.XY)
	for _, ring := range p {
		if len(ring) < 3 {
			continue
		}
		flat := make([]float64, 0, (len(ring)+1)*2)
		for _, pt := range ring {
			flat = append(flat, pt.X, pt.Y)
		}
		// EWKB rings are explicitly closed.
		if ring[0] != ring[len(ring)-1] {
			flat = append(flat, ring[0].X, ring[0].Y)
		}
		if err := poly.Push(geom.NewLinearRingFlat(geom.XY, flat)); err != nil {
			return nil, eris.Wrap(err, "store: polygon ring")
		}
	}
	if poly.NumLinearRings() == 0 {
		return nil, nil
	}

	data, err := ewkb.Marshal(poly, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode polygon WKB")
	}
	return data, nil
}
