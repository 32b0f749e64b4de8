// Package export writes nesting results to output formats: a nested-layout
// DXF, a layout PDF, an xlsx placement report and QR-coded part labels.
package export

import (
	"fmt"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/drawing"

	"github.com/CeranaStudio/pynest/internal/geometry"
	"github.com/CeranaStudio/pynest/internal/model"
)

// WriteDXF writes the container outline and every placed part, translated
// and rotated into its final position, to a DXF file. The container goes on
// layer CONTAINER, parts on layer PARTS.
func WriteDXF(path string, container model.Polygon, parts []model.Polygon, result *model.NestResult) error {
	drawing := dxf.NewDrawing()

	if _, err := drawing.AddLayer("CONTAINER", dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("add container layer: %w", err)
	}
	if err := writeOutline(drawing, container.Outline); err != nil {
		return err
	}
	for _, child := range container.Children {
		if err := writeOutline(drawing, child.Outline); err != nil {
			return err
		}
	}

	if _, err := drawing.AddLayer("PARTS", dxf.DefaultColor, dxf.DefaultLineType, true); err != nil {
		return fmt.Errorf("add parts layer: %w", err)
	}
	byID := make(map[string]model.Polygon, len(parts))
	for _, p := range parts {
		byID[p.ID] = p
	}
	for _, pl := range result.Placements {
		poly, ok := byID[pl.PartID]
		if !ok {
			return fmt.Errorf("placement references unknown part %q", pl.PartID)
		}
		outline := geometry.Rotate(poly.Outline, pl.Rotation).Translate(pl.DX, pl.DY)
		if err := writeOutline(drawing, outline); err != nil {
			return err
		}
		for _, child := range poly.Children {
			hole := geometry.Rotate(child.Outline, pl.Rotation).Translate(pl.DX, pl.DY)
			if err := writeOutline(drawing, hole); err != nil {
				return err
			}
		}
	}

	return drawing.SaveAs(path)
}

func writeOutline(d *drawing.Drawing, outline model.Outline) error {
	if len(outline) < 2 {
		return nil
	}
	vertices := make([][]float64, len(outline))
	for i, p := range outline {
		vertices[i] = []float64{p.X, p.Y}
	}
	if _, err := d.LwPolyline(true, vertices...); err != nil {
		return fmt.Errorf("write polyline: %w", err)
	}
	return nil
}
