package raster

import "github.com/geoandina/hazmap/internal/hazard"

// Reclassify maps a continuous raster to the discrete five-class raster by
// applying the scheme cell-wise. Nodata cells pass through unchanged, mapped
// to the discrete nodata sentinel. The same Scheme.Classify call also derives
// point-level classes, keeping the two representations consistent.
func Reclassify(cont *Raster, scheme hazard.Scheme) *Raster {
	out := New(cont.Grid, float64(hazard.NoData))
	for i, v := range cont.Data {
		if cont.IsNoData(v) {
			continue
		}
		out.Data[i] = float64(scheme.Classify(v))
	}
	return out
}
