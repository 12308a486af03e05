package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geoandina/hazmap/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "hazmap",
	Short: "Landslide hazard classification for road corridors",
	Long: `Classifies landslide hazard along a road corridor from geotechnical
critical points. A run buffers the corridor into its zone of influence,
tessellates the zone into Voronoi cells, interpolates the factor of safety
onto a raster grid and reclassifies it into the five hazard classes, then
exports rasters, the cell layer, quick-look maps and a technical report.

Settings are read from hazmap.yaml in the working directory and can be
overridden with HAZMAP_* environment variables or per-command flags.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
