// Package raster holds the regular-grid raster model shared by the
// interpolator, the reclassifier and the exporter, plus the ESRI ASCII grid
// codec used for serialization.
package raster

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
)

// Grid defines a regular raster grid: square cells of CellSize anchored at a
// lower-left origin. Row 0 is the bottom row; the ASCII codec handles the
// top-down order of the file format.
type Grid struct {
	OriginX  float64
	OriginY  float64
	CellSize float64
	Cols     int
	Rows     int
}

// GridFromBounds covers the given bounds with ceil-sized cols/rows so the
// grid never truncates the zone.
func GridFromBounds(b *geom.Bounds, cellSize float64) (Grid, error) {
	if cellSize <= 0 {
		return Grid{}, eris.New("raster: cell size must be positive")
	}
	w, h := b.Max.X-b.Min.X, b.Max.Y-b.Min.Y
	if w <= 0 || h <= 0 {
		return Grid{}, eris.New("raster: empty bounds")
	}
	return Grid{
		OriginX:  b.Min.X,
		OriginY:  b.Min.Y,
		CellSize: cellSize,
		Cols:     int(math.Max(1, math.Ceil(w/cellSize))),
		Rows:     int(math.Max(1, math.Ceil(h/cellSize))),
	}, nil
}

// Center returns the coordinate of a cell center.
func (g Grid) Center(col, row int) geom.Point {
	return geom.Point{
		X: g.OriginX + (float64(col)+0.5)*g.CellSize,
		Y: g.OriginY + (float64(row)+0.5)*g.CellSize,
	}
}

// CellAt returns the col/row containing a coordinate, or false when outside.
func (g Grid) CellAt(p geom.Point) (int, int, bool) {
	col := int(math.Floor((p.X - g.OriginX) / g.CellSize))
	row := int(math.Floor((p.Y - g.OriginY) / g.CellSize))
	if col < 0 || col >= g.Cols || row < 0 || row >= g.Rows {
		return 0, 0, false
	}
	return col, row, true
}

// Raster is a grid with one value per cell. Data is row-major from the
// bottom row up.
type Raster struct {
	Grid   Grid
	NoData float64
	Data   []float64
}

// New allocates a raster with every cell set to the nodata sentinel.
func New(g Grid, noData float64) *Raster {
	data := make([]float64, g.Cols*g.Rows)
	for i := range data {
		data[i] = noData
	}
	return &Raster{Grid: g, NoData: noData, Data: data}
}

// At returns the value of a cell.
func (r *Raster) At(col, row int) float64 {
	return r.Data[row*r.Grid.Cols+col]
}

// Set assigns the value of a cell.
func (r *Raster) Set(col, row int, v float64) {
	r.Data[row*r.Grid.Cols+col] = v
}

// IsNoData reports whether v is the raster's nodata sentinel.
func (r *Raster) IsNoData(v float64) bool {
	return v == r.NoData || math.IsNaN(v)
}
