package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terrapage/terrapage/internal/profile"
)

var profileCmd = &cobra.Command{
	Use:   "profile <name> [level]",
	Short: "Inspect a well-known profile's tile grid",
	Long: `Print a well-known profile's SRS, root tile dimensions, and (when a
level is given) every key at that level: global-geodetic, spherical-mercator,
plate-carree, moon.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: runProfile,
}

func init() {
	rootCmd.AddCommand(profileCmd)
}

func runProfile(cmd *cobra.Command, args []string) error {
	p, err := profile.WellKnown(args[0])
	if err != nil {
		return err
	}

	ext := p.Extent()
	fmt.Fprintf(cmd.OutOrStdout(), "profile %q: srs=%s extent=[%g,%g,%g,%g]\n",
		args[0], p.SRS().String(), ext.MinX, ext.MinY, ext.MaxX, ext.MaxY)

	if len(args) == 1 {
		nx, ny := p.NumTiles(0)
		fmt.Fprintf(cmd.OutOrStdout(), "root tiles: %dx%d\n", nx, ny)
		return nil
	}

	var level uint32
	if _, err := fmt.Sscanf(args[1], "%d", &level); err != nil {
		return fmt.Errorf("invalid level %q: %w", args[1], err)
	}

	keys := p.AllKeysAtLOD(level)
	for _, k := range keys {
		fmt.Fprintln(cmd.OutOrStdout(), k.String())
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d keys at level %d\n", len(keys), level)
	return nil
}
