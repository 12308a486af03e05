package pipeline

import (
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/ctessum/geom"
	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"

	"github.com/geoandina/hazmap/internal/normalize"
	"github.com/geoandina/hazmap/internal/raster"
	"github.com/geoandina/hazmap/internal/render"
	"github.com/geoandina/hazmap/internal/report"
	"github.com/geoandina/hazmap/internal/stats"
	"github.com/geoandina/hazmap/internal/vector"
	"github.com/geoandina/hazmap/internal/voronoi"
)

// Output product file names.
const (
	fileContinuous = "fs_continuo.asc"
	fileDiscrete   = "amenaza.asc"
	fileVoronoi    = "amenaza_voronoi.shp"
	fileMapVoronoi = "mapa_voronoi.png"
	fileMapRaster  = "mapa_amenaza.png"
	fileReport     = "informe_tecnico.txt"
)

// export writes the selected products into a staging directory and promotes
// them into the output directory only once every product has been written.
func (p *Pipeline) export(runID string, norm *normalize.Result, zone geom.Polygon, cells []voronoi.Cell, continuous, discrete *raster.Raster, summary *stats.Summary) ([]string, error) {
	cfg := p.cfg
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		return nil, eris.Wrapf(err, "pipeline: creating %s", cfg.Output.Dir)
	}
	stage, err := os.MkdirTemp(cfg.Output.Dir, ".staging-")
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: creating staging dir")
	}
	defer os.RemoveAll(stage)

	if cfg.WantsProduct("raster") {
		if err := p.exportRasters(stage, norm.PRJ, continuous, discrete); err != nil {
			return nil, err
		}
	}
	if cfg.WantsProduct("voronoi") {
		if err := p.exportVoronoi(filepath.Join(stage, fileVoronoi), cells, norm.PRJ); err != nil {
			return nil, err
		}
	}
	if cfg.WantsProduct("maps") {
		opts := render.Options{Width: cfg.Output.MapWidth, Margin: 0.05}
		if err := render.VoronoiMap(filepath.Join(stage, fileMapVoronoi), cells, zone, norm.Points, opts); err != nil {
			return nil, err
		}
		if err := render.RasterMap(filepath.Join(stage, fileMapRaster), discrete, zone, norm.Points, opts); err != nil {
			return nil, err
		}
	}
	if cfg.WantsProduct("report") {
		meta := report.Meta{
			RunID:          runID,
			PointsPath:     cfg.Input.Points,
			CorridorPath:   cfg.Input.Corridor,
			BufferDistance: cfg.Buffer.Distance,
			CellSize:       cfg.Raster.CellSize,
			SchemeVersion:  p.scheme.Version,
			GeneratedAt:    time.Now(),
		}
		if err := report.WriteFile(filepath.Join(stage, fileReport), meta, summary); err != nil {
			return nil, err
		}
	}

	return promote(stage, cfg.Output.Dir)
}

func (p *Pipeline) exportRasters(stage, prj string, continuous, discrete *raster.Raster) error {
	for _, out := range []struct {
		name string
		r    *raster.Raster
	}{
		{fileContinuous, continuous},
		{fileDiscrete, discrete},
	} {
		path := filepath.Join(stage, out.name)
		if err := raster.WriteASC(path, out.r); err != nil {
			return err
		}
		if prj != "" {
			if err := vector.WritePRJ(path, prj); err != nil {
				return err
			}
		}
	}
	return nil
}

func (p *Pipeline) exportVoronoi(path string, cells []voronoi.Cell, prj string) error {
	fields := []shp.Field{
		shp.StringField("ID", 32),
		shp.FloatField("FS_MIN", 12, 3),
		shp.NumberField("AMENAZA", 2),
		shp.StringField("CLASE", 16),
	}
	recs := make([]vector.PolygonRecord, 0, len(cells))
	for _, c := range cells {
		fs := c.FSMin
		if math.IsNaN(fs) {
			fs = p.cfg.Raster.NoData
		}
		recs = append(recs, vector.PolygonRecord{
			Geom:  c.Geom,
			Attrs: []interface{}{c.PointID, fs, c.HazNum, p.scheme.Name(c.HazNum)},
		})
	}
	return vector.WritePolygons(path, fields, recs, prj)
}

// promote moves every staged file into the output directory, overwriting
// products of earlier runs.
func promote(stage, outDir string) ([]string, error) {
	entries, err := os.ReadDir(stage)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: reading staging dir")
	}
	var files []string
	for _, e := range entries {
		dst := filepath.Join(outDir, e.Name())
		if err := os.Rename(filepath.Join(stage, e.Name()), dst); err != nil {
			return nil, eris.Wrapf(err, "pipeline: promoting %s", e.Name())
		}
		files = append(files, dst)
	}
	return files, nil
}
