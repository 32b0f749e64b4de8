package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/CeranaStudio/pynest/internal/model"
)

// ExportReport writes an xlsx placement report: one row per part with its
// placement, then a summary block with the run totals.
func ExportReport(path string, result *model.NestResult) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	headers := []string{"Part ID", "Placed", "X", "Y", "Rotation"}
	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("report header: %w", err)
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return fmt.Errorf("report header: %w", err)
		}
	}

	row := 2
	for _, pl := range result.Placements {
		values := []any{pl.PartID, "yes", pl.DX, pl.DY, pl.Rotation}
		if err := setRow(f, sheet, row, values); err != nil {
			return err
		}
		row++
	}
	for _, id := range result.Unplaced {
		values := []any{id, "no", nil, nil, nil}
		if err := setRow(f, sheet, row, values); err != nil {
			return err
		}
		row++
	}

	row++
	summary := [][]any{
		{"Placed parts", result.PlacedCount()},
		{"Unplaced parts", len(result.Unplaced)},
		{"Utilization", result.Utilization},
		{"Bounding width", result.BoundsWidth},
		{"Fitness", result.Fitness},
		{"Generations", result.Generations},
	}
	for _, line := range summary {
		if err := setRow(f, sheet, row, line); err != nil {
			return err
		}
		row++
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, sheet string, row int, values []any) error {
	for i, v := range values {
		if v == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("report row %d: %w", row, err)
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("report row %d: %w", row, err)
		}
	}
	return nil
}
