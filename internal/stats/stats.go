// Package stats computes the summary statistics reported after a
// classification run.
package stats

import (
	"math"
	"sort"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"gonum.org/v1/gonum/floats"

	"github.com/geoandina/hazmap/internal/hazard"
	"github.com/geoandina/hazmap/internal/model"
	"github.com/geoandina/hazmap/internal/voronoi"
)

// criticalFS is the Factor-of-Safety threshold below which a point is at
// imminent failure.
const criticalFS = 1.0

// ClassShare describes one hazard class's footprint in points and area.
type ClassShare struct {
	Class       int
	Name        string
	Count       int
	Percent     float64 // share of classified points
	Area        float64 // summed Voronoi cell area, CRS units squared
	AreaPercent float64 // share of total tessellated area
}

// FSStats are the distribution moments of the per-point FS_min values.
type FSStats struct {
	N      int
	Mean   float64
	Median float64
	Min    float64
	Max    float64
}

// Summary is the aggregate picture of one run.
type Summary struct {
	ValidPoints    int
	ExcludedPoints int
	FS             FSStats
	CriticalIDs    []string // points with FS_min below 1.0
	Classes        []ClassShare
	PctHighOrWorse float64 // share of points in classes 4 and 5
	Predominant    int     // class holding the largest tessellated area
	ZoneArea       float64
	CellCount      int
	// Misplaced counts points that do not fall inside their own Voronoi
	// cell, a consistency check on the tessellation.
	Misplaced int
}

type cellSpatial struct {
	geom.Polygonal
	cell *voronoi.Cell
}

// Compute summarizes a completed run. The zone polygon is the buffered
// corridor the cells were clipped to.
func Compute(points []model.CriticalPoint, report model.NormalizeReport, cells []voronoi.Cell, zone geom.Polygon, scheme hazard.Scheme) *Summary {
	s := &Summary{
		ValidPoints:    len(points),
		ExcludedPoints: len(report.Excluded),
		ZoneArea:       zone.Area(),
		CellCount:      len(cells),
	}

	var fs []float64
	counts := map[int]int{}
	for _, p := range points {
		counts[p.HazNum]++
		if math.IsNaN(p.FSMin) {
			continue
		}
		fs = append(fs, p.FSMin)
		if p.FSMin < criticalFS {
			s.CriticalIDs = append(s.CriticalIDs, p.ID)
		}
	}
	s.FS = fsStats(fs)

	areas := map[int]float64{}
	var totalArea float64
	for i := range cells {
		a := cells[i].Geom.Area()
		areas[cells[i].HazNum] += a
		totalArea += a
	}

	for class := hazard.ClassVeryLow; class <= hazard.ClassVeryHigh; class++ {
		share := ClassShare{
			Class: class,
			Name:  scheme.Name(class),
			Count: counts[class],
			Area:  areas[class],
		}
		if len(points) > 0 {
			share.Percent = 100 * float64(share.Count) / float64(len(points))
		}
		if totalArea > 0 {
			share.AreaPercent = 100 * share.Area / totalArea
		}
		s.Classes = append(s.Classes, share)
		if class >= hazard.ClassHigh {
			s.PctHighOrWorse += share.Percent
		}
		if share.Area > areas[s.Predominant] {
			s.Predominant = class
		}
	}

	s.Misplaced = countMisplaced(points, cells)
	return s
}

func fsStats(fs []float64) FSStats {
	if len(fs) == 0 {
		return FSStats{}
	}
	st := FSStats{
		N:    len(fs),
		Mean: floats.Sum(fs) / float64(len(fs)),
		Min:  floats.Min(fs),
		Max:  floats.Max(fs),
	}
	sorted := append([]float64(nil), fs...)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		st.Median = (sorted[mid-1] + sorted[mid]) / 2
	} else {
		st.Median = sorted[mid]
	}
	return st
}

// countMisplaced verifies each point lands inside the Voronoi cell keyed to
// its ID, using an index over cell bounds to avoid the quadratic scan.
func countMisplaced(points []model.CriticalPoint, cells []voronoi.Cell) int {
	if len(cells) == 0 {
		return 0
	}
	tree := rtree.NewTree(25, 50)
	for i := range cells {
		tree.Insert(&cellSpatial{Polygonal: cells[i].Geom, cell: &cells[i]})
	}
	misplaced := 0
	for _, p := range points {
		pt := geom.Point{X: p.X, Y: p.Y}
		home := false
		for _, it := range tree.SearchIntersect(pt.Bounds()) {
			c := it.(*cellSpatial).cell
			if c.PointID == p.ID && pt.Within(c.Geom) != geom.Outside {
				home = true
				break
			}
		}
		if !home {
			misplaced++
		}
	}
	return misplaced
}
