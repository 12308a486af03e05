package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/geoandina/hazmap/internal/pipeline"
)

var (
	statsPoints   string
	statsCorridor string
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Compute run statistics without writing products",
	Long:  "Runs the analysis phases (normalize, buffer, tessellate, interpolate) and prints the summary statistics as JSON. Nothing is written to disk or the run registry.",
	RunE: func(cmd *cobra.Command, args []string) error {
		if statsPoints != "" {
			cfg.Input.Points = statsPoints
		}
		if statsCorridor != "" {
			cfg.Input.Corridor = statsCorridor
		}

		p, err := pipeline.New(cfg, nil)
		if err != nil {
			return err
		}
		summary, normReport, err := p.Analyze(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "stats")
		}

		if len(normReport.Warnings) > 0 {
			zap.L().Warn("schema warnings", zap.Strings("warnings", normReport.Warnings))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	},
}

func init() {
	statsCmd.Flags().StringVar(&statsPoints, "points", "", "critical points layer (.shp or .xlsx)")
	statsCmd.Flags().StringVar(&statsCorridor, "corridor", "", "road corridor layer (.shp)")
	rootCmd.AddCommand(statsCmd)
}
