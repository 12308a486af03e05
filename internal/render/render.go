// Package render draws quick-look PNG maps of run products.
package render

import (
	"github.com/ctessum/geom"
	"github.com/fogleman/gg"
	colorful "github.com/lucasb-eyer/go-colorful"
	"github.com/rotisserie/eris"

	"github.com/geoandina/hazmap/internal/hazard"
	"github.com/geoandina/hazmap/internal/model"
	"github.com/geoandina/hazmap/internal/raster"
	"github.com/geoandina/hazmap/internal/voronoi"
)

// Semaforo-style hazard palette, green through red.
var classHex = map[int]string{
	hazard.ClassVeryLow:  "#1a9641",
	hazard.ClassLow:      "#a6d96a",
	hazard.ClassMedium:   "#ffffbf",
	hazard.ClassHigh:     "#fdae61",
	hazard.ClassVeryHigh: "#d7191c",
}

// Options controls output image geometry.
type Options struct {
	Width  int     // pixels, image height follows the data aspect ratio
	Margin float64 // fraction of the data extent left blank around it
}

// DefaultOptions renders at 1200 px with a 5 percent margin.
func DefaultOptions() Options {
	return Options{Width: 1200, Margin: 0.05}
}

// classColor returns the palette color for a class, gray for anything else.
func classColor(class int) colorful.Color {
	hex, ok := classHex[class]
	if !ok {
		hex = "#bdbdbd"
	}
	c, err := colorful.Hex(hex)
	if err != nil {
		return colorful.Color{R: 0.7, G: 0.7, B: 0.7}
	}
	return c
}

// canvas maps data coordinates onto a gg context with a flipped y axis.
type canvas struct {
	dc     *gg.Context
	minX   float64
	minY   float64
	scale  float64
	height float64
}

func newCanvas(b *geom.Bounds, opts Options) (*canvas, error) {
	dx := b.Max.X - b.Min.X
	dy := b.Max.Y - b.Min.Y
	if dx <= 0 || dy <= 0 {
		return nil, eris.New("render: degenerate extent")
	}
	mx, my := dx*opts.Margin, dy*opts.Margin
	dx += 2 * mx
	dy += 2 * my

	w := opts.Width
	if w <= 0 {
		w = DefaultOptions().Width
	}
	scale := float64(w) / dx
	h := int(dy * scale)
	if h < 1 {
		h = 1
	}

	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	return &canvas{
		dc:     dc,
		minX:   b.Min.X - mx,
		minY:   b.Min.Y - my,
		scale:  scale,
		height: float64(h),
	}, nil
}

func (c *canvas) px(x, y float64) (float64, float64) {
	return (x - c.minX) * c.scale, c.height - (y-c.minY)*c.scale
}

func (c *canvas) tracePolygon(p geom.Polygon) {
	for _, ring := range p {
		if len(ring) < 3 {
			continue
		}
		x, y := c.px(ring[0].X, ring[0].Y)
		c.dc.MoveTo(x, y)
		for _, pt := range ring[1:] {
			x, y = c.px(pt.X, pt.Y)
			c.dc.LineTo(x, y)
		}
		c.dc.ClosePath()
	}
}

func (c *canvas) strokeZone(zone geom.Polygon) {
	c.tracePolygon(zone)
	c.dc.SetRGB(0.2, 0.2, 0.2)
	c.dc.SetLineWidth(2)
	c.dc.Stroke()
	c.dc.ClearPath()
}

func (c *canvas) drawPoints(points []model.CriticalPoint) {
	for _, p := range points {
		x, y := c.px(p.X, p.Y)
		c.dc.DrawCircle(x, y, 4)
		c.dc.SetColor(classColor(p.HazNum))
		c.dc.FillPreserve()
		c.dc.SetRGB(0, 0, 0)
		c.dc.SetLineWidth(1)
		c.dc.Stroke()
		c.dc.ClearPath()
	}
}

// VoronoiMap renders the tessellated hazard cells with the corridor outline
// and the contributing points.
func VoronoiMap(path string, cells []voronoi.Cell, zone geom.Polygon, points []model.CriticalPoint, opts Options) error {
	cv, err := newCanvas(zone.Bounds(), opts)
	if err != nil {
		return err
	}
	for _, cell := range cells {
		cv.tracePolygon(cell.Geom)
		cv.dc.SetColor(classColor(cell.HazNum))
		cv.dc.Fill()
		cv.dc.ClearPath()
	}
	cv.strokeZone(zone)
	cv.drawPoints(points)
	if err := cv.dc.SavePNG(path); err != nil {
		return eris.Wrapf(err, "render: saving %s", path)
	}
	return nil
}

// RasterMap renders a discrete hazard raster, one filled square per cell.
func RasterMap(path string, r *raster.Raster, zone geom.Polygon, points []model.CriticalPoint, opts Options) error {
	g := r.Grid
	b := &geom.Bounds{
		Min: geom.Point{X: g.OriginX, Y: g.OriginY},
		Max: geom.Point{
			X: g.OriginX + float64(g.Cols)*g.CellSize,
			Y: g.OriginY + float64(g.Rows)*g.CellSize,
		},
	}
	cv, err := newCanvas(b, opts)
	if err != nil {
		return err
	}
	side := g.CellSize * cv.scale
	for row := 0; row < g.Rows; row++ {
		for col := 0; col < g.Cols; col++ {
			v := r.At(col, row)
			if r.IsNoData(v) {
				continue
			}
			x, y := cv.px(g.OriginX+float64(col)*g.CellSize, g.OriginY+float64(row+1)*g.CellSize)
			cv.dc.DrawRectangle(x, y, side, side)
			cv.dc.SetColor(classColor(int(v)))
			cv.dc.Fill()
			cv.dc.ClearPath()
		}
	}
	cv.strokeZone(zone)
	cv.drawPoints(points)
	if err := cv.dc.SavePNG(path); err != nil {
		return eris.Wrapf(err, "render: saving %s", path)
	}
	return nil
}
