// Package vector reads and writes the vector layers the pipeline consumes and
// produces: shapefiles with CRS sidecars and XLSX point tables.
package vector

import (
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
)

// Feature is one geometry with its attribute row, attribute values as the
// source encodes them (strings; numeric parsing happens downstream).
type Feature struct {
	Geom   geom.Geom
	Fields map[string]string
}

// Layer is a feature collection with its spatial reference. PRJ carries the
// raw .prj sidecar text so exports can reuse it verbatim; it is empty when the
// CRS came from configuration instead of a sidecar file.
type Layer struct {
	Features []Feature
	SR       *proj.SR
	PRJ      string
}
