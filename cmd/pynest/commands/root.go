// Package commands wires the pynest command line interface.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "pynest",
	Short: "2D irregular-shape nesting",
	Long: `PyNest nests irregular part polygons into a container polygon using
no-fit polygons and a genetic algorithm.`,
	Run: nil, // forces help output
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(nestCmd)
}
