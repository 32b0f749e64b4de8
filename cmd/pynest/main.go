// PyNest — 2D irregular-shape nesting
//
// Nests part polygons into a container polygon using no-fit polygons and a
// genetic algorithm, reading and writing DXF.
//
// Build:
//
//	go build -o pynest ./cmd/pynest
package main

import "github.com/CeranaStudio/pynest/cmd/pynest/commands"

func main() {
	commands.Execute()
}
