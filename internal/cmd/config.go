package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terrapage/terrapage/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Inspect and validate terrain/map settings files",
}

var configValidateCmd = &cobra.Command{
	Use:   "validate <path>",
	Short: "Load a config file and report the resolved terrain and map settings",
	Args:  cobra.ExactArgs(1),
	RunE:  runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	loader := config.NewLoader(args[0])
	terrain, m, err := loader.Load()
	if err != nil {
		return fmt.Errorf("config invalid: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "config file: %s\n", loader.ConfigFileUsed())
	fmt.Fprintf(out, "terrain: tile_size=%d max_level=%d min_level=%d concurrency=%d tile_cache_size=%d\n",
		terrain.TileSize, terrain.MaxLevel, terrain.MinLevel, terrain.Concurrency, terrain.TileCacheSize)
	fmt.Fprintf(out, "layers: %d\n", len(m.Layers))
	for _, l := range m.Layers {
		fmt.Fprintf(out, "  - %s (uri=%s levels=[%d,%d] cache=%s opacity=%g)\n",
			l.Name, l.URI, l.MinLevel, l.MaxLevel, l.CachePolicy, l.Opacity)
	}
	return nil
}
