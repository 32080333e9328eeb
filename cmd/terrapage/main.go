// Command terrapage inspects profiles, validates terrain/map settings, and
// reports MBTiles layer coverage. It is not a tile server: rendering and GPU
// upload are the embedding engine's job, not this CLI's.
package main

import "github.com/terrapage/terrapage/internal/cmd"

func main() {
	cmd.Execute()
}
