package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geoandina/hazmap/internal/pipeline"
	"github.com/geoandina/hazmap/internal/store"
)

var (
	runPoints   string
	runCorridor string
	runRegion   string
	runOut      string
	runBuffer   float64
	runCellSize float64
	runScheme   string
	runProducts []string
	runNoStore  bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the hazard classification pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Flags override the config file.
		if runPoints != "" {
			cfg.Input.Points = runPoints
		}
		if runCorridor != "" {
			cfg.Input.Corridor = runCorridor
		}
		if runRegion != "" {
			cfg.Input.Region = runRegion
		}
		if runOut != "" {
			cfg.Output.Dir = runOut
		}
		if cmd.Flags().Changed("buffer") {
			cfg.Buffer.Distance = runBuffer
		}
		if cmd.Flags().Changed("cell-size") {
			cfg.Raster.CellSize = runCellSize
		}
		if runScheme != "" {
			cfg.Scheme.File = runScheme
		}
		if len(runProducts) > 0 {
			cfg.Output.Products = runProducts
		}

		var st store.Store
		if !runNoStore {
			s, err := initStore(ctx)
			if err != nil {
				return eris.Wrap(err, "init store")
			}
			defer s.Close()
			st = s
		}

		p, err := pipeline.New(cfg, st)
		if err != nil {
			return err
		}
		result, err := p.Run(ctx)
		if err != nil {
			return eris.Wrap(err, "pipeline run")
		}

		zap.L().Info("classification complete",
			zap.String("run_id", result.RunID),
			zap.Int("valid_points", result.Summary.ValidPoints),
			zap.Int("cells", result.Summary.CellCount),
			zap.Strings("files", result.Files),
		)

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	runCmd.Flags().StringVar(&runPoints, "points", "", "critical points layer (.shp or .xlsx)")
	runCmd.Flags().StringVar(&runCorridor, "corridor", "", "road corridor layer (.shp)")
	runCmd.Flags().StringVar(&runRegion, "region", "", "region tag recorded with the run")
	runCmd.Flags().StringVar(&runOut, "out", "", "output directory")
	runCmd.Flags().Float64Var(&runBuffer, "buffer", 100, "corridor buffer distance in meters")
	runCmd.Flags().Float64Var(&runCellSize, "cell-size", 5, "raster cell size in meters")
	runCmd.Flags().StringVar(&runScheme, "scheme", "", "classification scheme YAML (built-in when empty)")
	runCmd.Flags().StringSliceVar(&runProducts, "products", nil, "products to generate (raster, voronoi, maps, report)")
	runCmd.Flags().BoolVar(&runNoStore, "no-store", false, "skip the run registry")
	rootCmd.AddCommand(runCmd)
}
