package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/CeranaStudio/pynest/internal/engine"
	"github.com/CeranaStudio/pynest/internal/export"
	"github.com/CeranaStudio/pynest/internal/importer"
	"github.com/CeranaStudio/pynest/internal/model"
)

var nestFlags struct {
	containerPath string
	partsPath     string
	outPath       string
	pdfPath       string
	reportPath    string
	labelsPath    string

	curveTolerance float64
	spacing        float64
	rotations      int
	population     int
	mutation       int
	generations    int
	seed           int64
	workers        int
	exploreConcave bool
	useHoles       bool
	quiet          bool
}

var nestCmd = &cobra.Command{
	Use:   "nest",
	Short: "Nest parts from a DXF file into a container",
	Long: `Reads the container and part polygons from DXF files, searches for a
dense nesting and writes the result as DXF.

Example:
  pynest nest --container sheet.dxf --parts parts.dxf --out nested.dxf
  pynest nest --container sheet.dxf --parts parts.dxf --spacing 2 --rotations 4 --out nested.dxf`,
	RunE: runNest,
}

func init() {
	f := nestCmd.Flags()
	f.StringVar(&nestFlags.containerPath, "container", "", "DXF file with the container polygon (required)")
	f.StringVar(&nestFlags.partsPath, "parts", "", "DXF file with the part polygons (required)")
	f.StringVar(&nestFlags.outPath, "out", "nested.dxf", "output DXF path")
	f.StringVar(&nestFlags.pdfPath, "pdf", "", "optional layout PDF path")
	f.StringVar(&nestFlags.reportPath, "report", "", "optional xlsx placement report path")
	f.StringVar(&nestFlags.labelsPath, "labels", "", "optional QR label sheet PDF path")

	defaults := model.DefaultNestConfig()
	f.Float64Var(&nestFlags.curveTolerance, "curve-tolerance", defaults.CurveTolerance, "maximum chord error when flattening curves")
	f.Float64Var(&nestFlags.spacing, "spacing", defaults.Spacing, "clearance between parts and to the container")
	f.IntVar(&nestFlags.rotations, "rotations", defaults.Rotations, "number of allowed rotations per part")
	f.IntVar(&nestFlags.population, "population", defaults.PopulationSize, "GA population size")
	f.IntVar(&nestFlags.mutation, "mutation", defaults.MutationRate, "per-gene mutation percentage")
	f.IntVar(&nestFlags.generations, "generations", defaults.MaxGenerations, "maximum GA generations")
	f.Int64Var(&nestFlags.seed, "seed", defaults.Seed, "PRNG seed")
	f.IntVar(&nestFlags.workers, "workers", defaults.Workers, "parallel evaluation workers")
	f.BoolVar(&nestFlags.exploreConcave, "explore-concave", defaults.ExploreConcave, "explore concave pockets when computing NFPs")
	f.BoolVar(&nestFlags.useHoles, "use-holes", defaults.UseHoles, "allow placing parts inside holes of other parts (experimental)")
	f.BoolVar(&nestFlags.quiet, "quiet", false, "suppress per-generation progress output")

	nestCmd.MarkFlagRequired("container")
	nestCmd.MarkFlagRequired("parts")
}

func runNest(cmd *cobra.Command, args []string) error {
	cfg := model.NestConfig{
		CurveTolerance: nestFlags.curveTolerance,
		Spacing:        nestFlags.spacing,
		Rotations:      nestFlags.rotations,
		PopulationSize: nestFlags.population,
		MutationRate:   nestFlags.mutation,
		MaxGenerations: nestFlags.generations,
		ExploreConcave: nestFlags.exploreConcave,
		UseHoles:       nestFlags.useHoles,
		Seed:           nestFlags.seed,
		Workers:        nestFlags.workers,
	}

	containerImport := importer.ImportDXF(nestFlags.containerPath, cfg.CurveTolerance)
	if len(containerImport.Errors) > 0 {
		return fmt.Errorf("container: %s", containerImport.Errors[0])
	}
	printWarnings(containerImport.Warnings)
	container := containerImport.Polygons[0]
	// additional loops in the container file are holes
	for i := range containerImport.Polygons[1:] {
		child := containerImport.Polygons[i+1]
		container.Children = append(container.Children, &child)
	}

	partsImport := importer.ImportDXF(nestFlags.partsPath, cfg.CurveTolerance)
	if len(partsImport.Errors) > 0 {
		return fmt.Errorf("parts: %s", partsImport.Errors[0])
	}
	printWarnings(partsImport.Warnings)

	nester, err := engine.New(cfg)
	if err != nil {
		return err
	}
	if !nestFlags.quiet {
		nester.OnProgress(func(gen int, best, util float64) {
			fmt.Printf("generation %3d  best fitness %10.2f  utilization %5.1f%%\n", gen, best, util*100)
		})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	result, err := nester.Run(ctx, container, partsImport.Polygons)
	if err != nil {
		return err
	}
	if result.Cancelled {
		fmt.Println("cancelled; writing best result so far")
	}
	fmt.Printf("placed %d / %d parts, utilization %.1f%%, bounding width %.1f\n",
		result.PlacedCount(), result.PlacedCount()+len(result.Unplaced),
		result.Utilization*100, result.BoundsWidth)
	for _, id := range result.Unplaced {
		fmt.Printf("unplaced: %s\n", id)
	}

	if err := export.WriteDXF(nestFlags.outPath, container, partsImport.Polygons, result); err != nil {
		return fmt.Errorf("write DXF: %w", err)
	}
	fmt.Printf("wrote %s\n", nestFlags.outPath)

	if nestFlags.pdfPath != "" {
		if err := export.ExportPDF(nestFlags.pdfPath, container, partsImport.Polygons, result); err != nil {
			return fmt.Errorf("write PDF: %w", err)
		}
		fmt.Printf("wrote %s\n", nestFlags.pdfPath)
	}
	if nestFlags.reportPath != "" {
		if err := export.ExportReport(nestFlags.reportPath, result); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
		fmt.Printf("wrote %s\n", nestFlags.reportPath)
	}
	if nestFlags.labelsPath != "" && result.PlacedCount() > 0 {
		if err := export.ExportLabels(nestFlags.labelsPath, result); err != nil {
			return fmt.Errorf("write labels: %w", err)
		}
		fmt.Printf("wrote %s\n", nestFlags.labelsPath)
	}
	return nil
}

func printWarnings(warnings []string) {
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}
}
