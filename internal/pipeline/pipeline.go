// Package pipeline orchestrates a full classification run: read, normalize,
// buffer, tessellate, interpolate, reclassify, export.
package pipeline

import (
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"strings"
	"time"

	"github.com/ctessum/geom"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/geoandina/hazmap/internal/config"
	"github.com/geoandina/hazmap/internal/corridor"
	"github.com/geoandina/hazmap/internal/hazard"
	"github.com/geoandina/hazmap/internal/interp"
	"github.com/geoandina/hazmap/internal/model"
	"github.com/geoandina/hazmap/internal/normalize"
	"github.com/geoandina/hazmap/internal/raster"
	"github.com/geoandina/hazmap/internal/stats"
	"github.com/geoandina/hazmap/internal/store"
	"github.com/geoandina/hazmap/internal/vector"
	"github.com/geoandina/hazmap/internal/voronoi"
)

// phantomPadFactor scales the buffer distance into the tessellation padding
// that keeps boundary cells closed.
const phantomPadFactor = 3

// Pipeline runs the hazard classification end to end.
type Pipeline struct {
	cfg    *config.Config
	scheme hazard.Scheme
	store  store.Store // nil disables the run registry
}

// Result reports what a run produced.
type Result struct {
	RunID     string
	Summary   *stats.Summary
	Normalize model.NormalizeReport
	OutputDir string
	Files     []string
}

// New validates the configuration and resolves the classification scheme.
func New(cfg *config.Config, st store.Store) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	scheme := hazard.Default()
	if cfg.Scheme.File != "" {
		var err error
		scheme, err = hazard.Load(cfg.Scheme.File)
		if err != nil {
			return nil, err
		}
	}
	return &Pipeline{cfg: cfg, scheme: scheme, store: st}, nil
}

// Run executes the pipeline. Output files land in the configured directory
// only when the whole run succeeds; a failing run leaves no partial
// products behind.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	runID, finalize, err := p.openRun(ctx)
	if err != nil {
		return nil, err
	}
	res, err := p.run(ctx, runID)
	finalize(ctx, res, err)
	return res, err
}

// Analyze runs the analysis phases and returns the summary without writing
// products or touching the run registry.
func (p *Pipeline) Analyze(ctx context.Context) (*stats.Summary, model.NormalizeReport, error) {
	a, err := p.analyze(ctx)
	if err != nil {
		return nil, model.NormalizeReport{}, err
	}
	return a.summary, a.norm.Report, nil
}

// analysis holds the intermediate products shared by Run and Analyze.
type analysis struct {
	norm       *normalize.Result
	zone       geom.Polygon
	cells      []voronoi.Cell
	continuous *raster.Raster
	discrete   *raster.Raster
	summary    *stats.Summary
}

func (p *Pipeline) analyze(ctx context.Context) (*analysis, error) {
	cfg := p.cfg

	points, err := p.readPoints()
	if err != nil {
		return nil, err
	}
	corridorLayer, err := vector.ReadShapefile(cfg.Input.Corridor)
	if err != nil {
		return nil, err
	}

	norm, err := normalize.Normalize(points, corridorLayer, cfg.Fields, p.scheme)
	if err != nil {
		return nil, err
	}

	zone, err := corridor.Buffer(norm.Corridor, cfg.Buffer.Distance)
	if err != nil {
		return nil, err
	}
	grid, err := raster.GridFromBounds(zone.Bounds(), cfg.Raster.CellSize)
	if err != nil {
		return nil, err
	}

	// Tessellation and interpolation are independent; each runs only when a
	// requested product needs its output, so a degenerate input fails only
	// the stages actually in play.
	needCells := cfg.WantsProduct("voronoi") || cfg.WantsProduct("maps") || cfg.WantsProduct("report")
	needRaster := cfg.WantsProduct("raster") || cfg.WantsProduct("maps")

	a := &analysis{norm: norm, zone: zone}
	g, gctx := errgroup.WithContext(ctx)
	if needCells {
		g.Go(func() error {
			var err error
			a.cells, err = voronoi.Tessellate(gctx, norm.Points, zone, phantomPadFactor*cfg.Buffer.Distance)
			return err
		})
	}
	if needRaster {
		g.Go(func() error {
			samples := fsSamples(norm.Points)
			var err error
			a.continuous, err = interp.IDW(gctx, samples, zone, grid, cfg.Raster.NoData)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if needRaster {
		a.discrete = raster.Reclassify(a.continuous, p.scheme)
		if nd := cfg.Raster.DiscreteNoData; nd != a.discrete.NoData {
			for i, v := range a.discrete.Data {
				if a.discrete.IsNoData(v) {
					a.discrete.Data[i] = nd
				}
			}
			a.discrete.NoData = nd
		}
	}

	a.summary = stats.Compute(norm.Points, norm.Report, a.cells, zone, p.scheme)
	if a.summary.Misplaced > 0 {
		zap.L().Warn("pipeline: points outside their assigned cells",
			zap.Int("count", a.summary.Misplaced))
	}
	return a, nil
}

func (p *Pipeline) run(ctx context.Context, runID string) (*Result, error) {
	start := time.Now()

	a, err := p.analyze(ctx)
	if err != nil {
		return nil, err
	}
	if p.store != nil {
		if err := p.recordAudits(ctx, runID, a.norm, a.cells); err != nil {
			return nil, err
		}
	}

	files, err := p.export(runID, a.norm, a.zone, a.cells, a.continuous, a.discrete, a.summary)
	if err != nil {
		return nil, err
	}

	zap.L().Info("pipeline: run complete",
		zap.String("run_id", runID),
		zap.Int("points", len(a.norm.Points)),
		zap.Int("cells", len(a.cells)),
		zap.Int("files", len(files)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return &Result{
		RunID:     runID,
		Summary:   a.summary,
		Normalize: a.norm.Report,
		OutputDir: p.cfg.Output.Dir,
		Files:     files,
	}, nil
}

// openRun registers the run and returns the finalizer that records its
// terminal state.
func (p *Pipeline) openRun(ctx context.Context) (string, func(context.Context, *Result, error), error) {
	params := model.RunParams{
		PointsPath:     p.cfg.Input.Points,
		CorridorPath:   p.cfg.Input.Corridor,
		BufferDistance: p.cfg.Buffer.Distance,
		CellSize:       p.cfg.Raster.CellSize,
		Field:          p.cfg.Fields.FSMin,
		SchemeVersion:  p.scheme.Version,
	}

	if p.store == nil {
		return uuid.New().String(), func(context.Context, *Result, error) {}, nil
	}

	run, err := p.store.CreateRun(ctx, p.cfg.Input.Region, params)
	if err != nil {
		return "", nil, err
	}
	finalize := func(ctx context.Context, res *Result, runErr error) {
		if runErr != nil {
			if err := p.store.FailRun(ctx, run.ID, runErr); err != nil {
				zap.L().Error("pipeline: recording run failure", zap.Error(err))
			}
			return
		}
		summaryJSON, err := json.Marshal(res.Summary)
		if err != nil {
			zap.L().Error("pipeline: marshal summary", zap.Error(err))
			return
		}
		if err := p.store.CompleteRun(ctx, run.ID, string(summaryJSON)); err != nil {
			zap.L().Error("pipeline: recording run completion", zap.Error(err))
		}
	}
	return run.ID, finalize, nil
}

// readPoints dispatches on input type; spreadsheets are an alternative to
// shapefiles for the point layer.
func (p *Pipeline) readPoints() (*vector.Layer, error) {
	path := p.cfg.Input.Points
	if strings.EqualFold(filepath.Ext(path), ".xlsx") {
		x := p.cfg.Input.XLSX
		return vector.ReadXLSX(path, vector.XLSXOptions{
			Sheet:  x.Sheet,
			XField: x.XField,
			YField: x.YField,
			Proj4:  x.Proj4,
		})
	}
	return vector.ReadShapefile(path)
}

func (p *Pipeline) recordAudits(ctx context.Context, runID string, norm *normalize.Result, cells []voronoi.Cell) error {
	cellByID := make(map[string]geom.Polygon, len(cells))
	for _, c := range cells {
		cellByID[c.PointID] = c.Geom
	}

	audits := make([]model.PointAudit, 0, len(norm.Points)+len(norm.Report.Excluded))
	for _, pt := range norm.Points {
		wkb, err := store.EncodePointWKB(pt.X, pt.Y)
		if err != nil {
			return err
		}
		cellWKB, err := store.EncodePolygonWKB(cellByID[pt.ID])
		if err != nil {
			return err
		}
		audits = append(audits, model.PointAudit{
			PointID:   pt.ID,
			FSMin:     pt.FSMin,
			HazNum:    pt.HazNum,
			HazSource: pt.HazSource,
			Geom:      wkb,
			CellGeom:  cellWKB,
		})
	}
	for _, ex := range norm.Report.Excluded {
		audits = append(audits, model.PointAudit{
			PointID:  ex.ID,
			Excluded: true,
			Reason:   ex.Reason,
		})
	}
	return p.store.RecordPointAudits(ctx, runID, audits)
}

func fsSamples(points []model.CriticalPoint) []interp.Sample {
	var samples []interp.Sample
	for _, pt := range points {
		if math.IsNaN(pt.FSMin) {
			continue
		}
		samples = append(samples, interp.Sample{X: pt.X, Y: pt.Y, V: pt.FSMin})
	}
	return samples
}
