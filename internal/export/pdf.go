package export

import (
	"fmt"
	"math"

	"github.com/go-pdf/fpdf"

	"github.com/CeranaStudio/pynest/internal/geometry"
	"github.com/CeranaStudio/pynest/internal/model"
)

// partColor represents an RGB color for a placed part.
type partColor struct {
	R, G, B int
}

var partColors = []partColor{
	{R: 76, G: 175, B: 80},  // green
	{R: 33, G: 150, B: 243}, // blue
	{R: 255, G: 152, B: 0},  // orange
	{R: 156, G: 39, B: 176}, // purple
	{R: 0, G: 188, B: 212},  // cyan
	{R: 244, G: 67, B: 54},  // red
	{R: 255, G: 235, B: 59}, // yellow
	{R: 121, G: 85, B: 72},  // brown
}

// Page layout constants (A4 landscape in mm).
const (
	pageWidth    = 297.0
	pageHeight   = 210.0
	marginLeft   = 15.0
	marginRight  = 15.0
	marginTop    = 15.0
	marginBottom = 15.0
	headerHeight = 12.0
	statsHeight  = 20.0
	drawAreaTop  = marginTop + headerHeight + 5.0
)

// ExportPDF renders the nested layout to a one-page PDF: the container
// outline with every placed part drawn to scale, plus a summary block.
func ExportPDF(path string, container model.Polygon, parts []model.Polygon, result *model.NestResult) error {
	if len(container.Outline) < 3 {
		return fmt.Errorf("no container to export")
	}

	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.SetAutoPageBreak(false, marginBottom)
	pdf.AddPage()

	cb := container.Outline.Bounds()

	pdf.SetFont("Helvetica", "B", 14)
	pdf.SetXY(marginLeft, marginTop)
	title := fmt.Sprintf("Nested layout (%.0f x %.0f)", cb.Width, cb.Height)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, headerHeight, title, "", 0, "L", false, 0, "")

	pdf.SetFont("Helvetica", "", 10)
	pdf.SetXY(marginLeft, marginTop+headerHeight)
	stats := fmt.Sprintf("Placed: %d / %d | Utilization: %.1f%% | Bounding width: %.1f | Fitness: %.2f",
		result.PlacedCount(), result.PlacedCount()+len(result.Unplaced),
		result.Utilization*100, result.BoundsWidth, result.Fitness)
	pdf.CellFormat(pageWidth-marginLeft-marginRight, 5, stats, "", 0, "L", false, 0, "")

	drawWidth := pageWidth - marginLeft - marginRight
	drawHeight := pageHeight - drawAreaTop - marginBottom - statsHeight
	scale := math.Min(drawWidth/cb.Width, drawHeight/cb.Height)

	offsetX := marginLeft + (drawWidth-cb.Width*scale)/2
	offsetY := drawAreaTop

	// PDF y grows downward; flip so the layout reads like the input
	project := func(p model.Point) fpdf.PointType {
		return fpdf.PointType{
			X: offsetX + (p.X-cb.X)*scale,
			Y: offsetY + (cb.MaxY()-p.Y)*scale,
		}
	}

	drawOutline := func(outline model.Outline, style string) {
		pts := make([]fpdf.PointType, len(outline))
		for i, p := range outline {
			pts[i] = project(p)
		}
		pdf.Polygon(pts, style)
	}

	pdf.SetFillColor(245, 245, 245)
	pdf.SetDrawColor(100, 100, 100)
	pdf.SetLineWidth(0.4)
	drawOutline(container.Outline, "FD")
	for _, child := range container.Children {
		pdf.SetFillColor(255, 255, 255)
		drawOutline(child.Outline, "FD")
	}

	byID := make(map[string]model.Polygon, len(parts))
	for _, p := range parts {
		byID[p.ID] = p
	}
	pdf.SetLineWidth(0.2)
	for i, pl := range result.Placements {
		poly, ok := byID[pl.PartID]
		if !ok {
			continue
		}
		c := partColors[i%len(partColors)]
		pdf.SetFillColor(c.R, c.G, c.B)
		pdf.SetDrawColor(60, 60, 60)
		outline := geometry.Rotate(poly.Outline, pl.Rotation).Translate(pl.DX, pl.DY)
		drawOutline(outline, "FD")
	}

	if len(result.Unplaced) > 0 {
		pdf.SetFont("Helvetica", "I", 9)
		pdf.SetTextColor(180, 60, 60)
		pdf.SetXY(marginLeft, pageHeight-marginBottom-statsHeight+5)
		pdf.CellFormat(drawWidth, 5,
			fmt.Sprintf("Unplaced parts: %d", len(result.Unplaced)), "", 0, "L", false, 0, "")
	}

	return pdf.OutputFileAndClose(path)
}
