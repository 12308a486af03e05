package main

import (
	"math"
	"path/filepath"
	"strconv"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geoandina/hazmap/internal/raster"
	"github.com/geoandina/hazmap/internal/render"
	"github.com/geoandina/hazmap/internal/vector"
	"github.com/geoandina/hazmap/internal/voronoi"
)

var renderDir string

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Re-render map images from existing run products",
	Long:  "Reads the Voronoi shapefile and hazard raster from a run's output directory and regenerates the PNG maps. Useful after tweaking map width without repeating the analysis.",
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := renderDir
		if dir == "" {
			dir = cfg.Output.Dir
		}
		opts := render.Options{Width: cfg.Output.MapWidth, Margin: 0.05}

		cells, extent, err := loadCells(filepath.Join(dir, "amenaza_voronoi.shp"))
		if err != nil {
			return err
		}
		if err := render.VoronoiMap(filepath.Join(dir, "mapa_voronoi.png"), cells, extent, nil, opts); err != nil {
			return err
		}

		r, err := raster.ReadASC(filepath.Join(dir, "amenaza.asc"))
		if err != nil {
			return err
		}
		if err := render.RasterMap(filepath.Join(dir, "mapa_amenaza.png"), r, extent, nil, opts); err != nil {
			return err
		}

		zap.L().Info("maps rendered", zap.String("dir", dir))
		return nil
	},
}

// loadCells reads a previously exported Voronoi layer back into cells, along
// with the rectangular extent used for the map frame.
func loadCells(path string) ([]voronoi.Cell, geom.Polygon, error) {
	layer, err := vector.ReadShapefile(path)
	if err != nil {
		return nil, nil, err
	}
	if len(layer.Features) == 0 {
		return nil, nil, eris.Errorf("render: %s has no features", path)
	}

	var cells []voronoi.Cell
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, f := range layer.Features {
		poly, ok := f.Geom.(geom.Polygon)
		if !ok {
			continue
		}
		haz, err := strconv.Atoi(f.Fields["AMENAZA"])
		if err != nil {
			return nil, nil, eris.Wrapf(err, "render: AMENAZA attribute of %s", f.Fields["ID"])
		}
		fs := math.NaN()
		if v, err := strconv.ParseFloat(f.Fields["FS_MIN"], 64); err == nil {
			fs = v
		}
		cells = append(cells, voronoi.Cell{
			PointID: f.Fields["ID"],
			FSMin:   fs,
			HazNum:  haz,
			Geom:    poly,
		})
		pb := poly.Bounds()
		minX = math.Min(minX, pb.Min.X)
		minY = math.Min(minY, pb.Min.Y)
		maxX = math.Max(maxX, pb.Max.X)
		maxY = math.Max(maxY, pb.Max.Y)
	}
	if len(cells) == 0 {
		return nil, nil, eris.Errorf("render: %s has no polygon features", path)
	}

	extent := geom.Polygon{{
		{X: minX, Y: minY},
		{X: maxX, Y: minY},
		{X: maxX, Y: maxY},
		{X: minX, Y: maxY},
	}}
	return cells, extent, nil
}

func init() {
	renderCmd.Flags().StringVar(&renderDir, "dir", "", "output directory to re-render (defaults to output.dir)")
	rootCmd.AddCommand(renderCmd)
}
