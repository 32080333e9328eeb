package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/terrapage/terrapage/internal/sources/mbtiles"
)

var coverageCmd = &cobra.Command{
	Use:   "coverage <mbtiles-path>",
	Short: "Report the zoom-level tile coverage of an MBTiles layer source",
	Args:  cobra.ExactArgs(1),
	RunE:  runCoverage,
}

func init() {
	rootCmd.AddCommand(coverageCmd)
	coverageCmd.Flags().Bool("per-zoom", false, "Print a tile count per zoom level instead of just the total")
	if err := viper.BindPFlag("coverage.per_zoom", coverageCmd.Flags().Lookup("per-zoom")); err != nil {
		panic(fmt.Sprintf("failed to bind flag: %v", err))
	}
}

func runCoverage(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	src, err := mbtiles.Open(args[0])
	if err != nil {
		return err
	}
	defer src.Close()

	meta := src.Metadata()
	logger.Info("opened mbtiles source", "path", args[0], "name", meta.Name,
		"min_zoom", meta.MinZoom, "max_zoom", meta.MaxZoom)

	tiles := meta.CoveredTiles()
	out := cmd.OutOrStdout()

	if viper.GetBool("coverage.per_zoom") {
		counts := make(map[uint32]int)
		for _, t := range tiles {
			counts[t.Z]++
		}
		for z := uint32(meta.MinZoom); z <= uint32(meta.MaxZoom); z++ {
			fmt.Fprintf(out, "z%-3d %d tiles\n", z, counts[z])
		}
	}

	fmt.Fprintf(out, "%d tiles covered across zoom %d-%d\n", len(tiles), meta.MinZoom, meta.MaxZoom)
	return nil
}
