// Package interp produces the continuous hazard-proxy raster by
// inverse-distance-weighted interpolation over the grid covering the buffer
// zone.
package interp

import (
	"context"
	"runtime"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"

	"github.com/geoandina/hazmap/internal/raster"
)

// ErrNoPoints marks interpolation with an empty sample set.
var ErrNoPoints = eris.New("interp: interpolation needs at least 1 point")

// Power is the fixed IDW distance exponent (weight = 1/d^2).
const Power = 2

// coincidentTol is the distance below which a cell center is treated as
// coinciding with a sample point; the point's value is returned directly
// instead of dividing by a near-zero distance.
const coincidentTol = 1e-9

// Sample is one input point with the continuous value to interpolate,
// canonically FS_min.
type Sample struct {
	X, Y float64
	V    float64
}

// IDW interpolates the samples onto the grid. Cells whose centers fall
// outside the zone are left at the nodata sentinel and excluded from
// computation, bounding cost to the corridor's zone of influence. Rows are
// processed in parallel; per-cell results do not depend on scheduling.
func IDW(ctx context.Context, samples []Sample, zone geom.Polygon, grid raster.Grid, noData float64) (*raster.Raster, error) {
	if len(samples) == 0 {
		return nil, ErrNoPoints
	}

	out := raster.New(grid, noData)

	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for row := 0; row < grid.Rows; row++ {
		row := row
		g.Go(func() error {
			for col := 0; col < grid.Cols; col++ {
				center := grid.Center(col, row)
				if center.Within(zone) == geom.Outside {
					continue
				}
				out.Set(col, row, interpolate(samples, center))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// interpolate computes the inverse-distance-squared weighted average of all
// samples at p, with the exact-match rule for coincident points.
func interpolate(samples []Sample, p geom.Point) float64 {
	var num, den float64
	for _, s := range samples {
		dx, dy := p.X-s.X, p.Y-s.Y
		d2 := dx*dx + dy*dy
		if d2 < coincidentTol*coincidentTol {
			return s.V
		}
		w := 1.0 / d2
		num += w * s.V
		den += w
	}
	return num / den
}
