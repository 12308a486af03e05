// Package voronoi partitions the buffer zone into one cell per critical
// point. Boundary closure uses phantom sites placed outside the zone's
// bounding box; phantom cells are discarded before attribution, so every
// returned cell belongs to a real point.
package voronoi

import (
	"context"
	"fmt"
	"runtime"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geoandina/hazmap/internal/geomop"
	"github.com/geoandina/hazmap/internal/model"
)

var (
	// ErrTooFewSites marks the degenerate case of fewer than two valid
	// points: a zonation with a single trivial cell would be misleading, so
	// the stage fails explicitly instead.
	ErrTooFewSites = eris.New("voronoi: tessellation needs at least 2 points")
	// ErrDuplicateSites marks coincident point coordinates, which make the
	// diagram undefined.
	ErrDuplicateSites = eris.New("voronoi: duplicate site coordinates")
)

// site is one entry of the tessellation arena. Phantom sites exist only to
// bound the cells of real sites near the zone edge.
type site struct {
	x, y    float64
	idx     int // index into the input points, -1 for phantoms
	phantom bool
}

// Cell is a Voronoi cell clipped to the buffer zone, attributed to its
// source point.
type Cell struct {
	PointID string
	FSMin   float64
	HazNum  int
	Geom    geom.Polygon
}

// Tessellate computes the clipped Voronoi diagram of the points over the
// buffer zone. pad is the phantom-site offset beyond the zone's bounding box;
// callers use three buffer distances, far enough that phantoms cannot
// out-compete real sites inside the zone.
func Tessellate(ctx context.Context, points []model.CriticalPoint, zone geom.Polygon, pad float64) ([]Cell, error) {
	if len(points) < 2 {
		return nil, ErrTooFewSites
	}
	if pad <= 0 {
		return nil, eris.New("voronoi: phantom offset must be positive")
	}

	sites := make([]site, 0, len(points)+8)
	seen := make(map[[2]float64]bool, len(points))
	for i, p := range points {
		key := [2]float64{p.X, p.Y}
		if seen[key] {
			return nil, eris.Wrapf(ErrDuplicateSites, "point %s at (%g, %g)", p.ID, p.X, p.Y)
		}
		seen[key] = true
		sites = append(sites, site{x: p.X, y: p.Y, idx: i})
	}
	sites = append(sites, phantomSites(zone.Bounds(), pad)...)

	// Arena rectangle: every unclipped cell is bounded by it.
	arena := arenaRing(zone.Bounds(), 2*pad)

	cells := make([]geom.Polygon, len(sites))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for i := range sites {
		i := i
		g.Go(func() error {
			cells[i] = cellOf(sites, i, arena)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]Cell, 0, len(points))
	var empty int
	for i, s := range sites {
		if s.phantom {
			continue
		}
		clipped := geomop.AsPolygon(cells[i].Intersection(zone))
		if len(clipped) == 0 {
			empty++
			continue
		}
		p := points[s.idx]
		out = append(out, Cell{PointID: p.ID, FSMin: p.FSMin, HazNum: p.HazNum, Geom: clipped})
	}
	if empty > 0 {
		zap.L().Warn("voronoi: cells outside buffer zone dropped", zap.Int("count", empty))
	}
	return out, nil
}

// cellOf clips the arena rectangle by the perpendicular bisector against
// every competing site. Each intermediate polygon is convex, so a single
// half-plane pass per competitor is exact.
func cellOf(sites []site, i int, arena []geom.Point) geom.Polygon {
	cell := make([]geom.Point, len(arena))
	copy(cell, arena)
	si := sites[i]
	for j, sj := range sites {
		if j == i || len(cell) == 0 {
			continue
		}
		cell = clipHalfPlane(cell, si, sj)
	}
	if len(cell) < 3 {
		return nil
	}
	return geom.Polygon{cell}
}

// clipHalfPlane keeps the part of a convex ring closer to a than to b.
func clipHalfPlane(ring []geom.Point, a, b site) []geom.Point {
	dx, dy := b.x-a.x, b.y-a.y
	mx, my := (a.x+b.x)/2, (a.y+b.y)/2
	side := func(p geom.Point) float64 {
		return (p.X-mx)*dx + (p.Y-my)*dy
	}

	out := make([]geom.Point, 0, len(ring)+1)
	for i := 0; i < len(ring); i++ {
		cur, next := ring[i], ring[(i+1)%len(ring)]
		sc, sn := side(cur), side(next)
		if sc <= 0 {
			out = append(out, cur)
		}
		if (sc < 0 && sn > 0) || (sc > 0 && sn < 0) {
			t := sc / (sc - sn)
			out = append(out, geom.Point{
				X: cur.X + t*(next.X-cur.X),
				Y: cur.Y + t*(next.Y-cur.Y),
			})
		}
	}
	return out
}

// phantomSites places synthetic sites at the corners and edge midpoints of
// the zone's bounding box, offset outward by pad.
func phantomSites(b *geom.Bounds, pad float64) []site {
	xmin, ymin := b.Min.X-pad, b.Min.Y-pad
	xmax, ymax := b.Max.X+pad, b.Max.Y+pad
	xmid, ymid := (b.Min.X+b.Max.X)/2, (b.Min.Y+b.Max.Y)/2

	coords := [][2]float64{
		{xmin, ymin}, {xmin, ymax}, {xmax, ymin}, {xmax, ymax},
		{xmid, ymin}, {xmid, ymax}, {xmin, ymid}, {xmax, ymid},
	}
	sites := make([]site, len(coords))
	for i, c := range coords {
		sites[i] = site{x: c[0], y: c[1], idx: -1, phantom: true}
	}
	return sites
}

func arenaRing(b *geom.Bounds, pad float64) []geom.Point {
	return []geom.Point{
		{X: b.Min.X - pad, Y: b.Min.Y - pad},
		{X: b.Max.X + pad, Y: b.Min.Y - pad},
		{X: b.Max.X + pad, Y: b.Max.Y + pad},
		{X: b.Min.X - pad, Y: b.Max.Y + pad},
	}
}

// String implements fmt.Stringer for diagnostics.
func (c Cell) String() string {
	return fmt.Sprintf("cell %s (class %d)", c.PointID, c.HazNum)
}
