package cmd

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestProfileCommandPrintsRootTiles(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"profile", "spherical-mercator"})

	require.NoError(t, rootCmd.Execute())
	require.Contains(t, buf.String(), "spherical-mercator")
	require.Contains(t, buf.String(), "root tiles:")
}

func TestProfileCommandUnknownName(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"profile", "nonsense"})

	require.Error(t, rootCmd.Execute())
}

func TestProfileCommandListsKeysAtLevel(t *testing.T) {
	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	rootCmd.SetArgs([]string{"profile", "global-geodetic", "1"})

	require.NoError(t, rootCmd.Execute())
	require.Contains(t, buf.String(), "keys at level 1")
}
