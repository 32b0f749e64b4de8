package engine

import (
	"context"
	"fmt"

	"github.com/CeranaStudio/pynest/internal/model"
)

// ComparisonScenario defines a named configuration to compare.
type ComparisonScenario struct {
	Name   string
	Config model.NestConfig
}

// ComparisonResult holds the nesting result and computed statistics for a
// single scenario.
type ComparisonResult struct {
	Scenario      ComparisonScenario
	Result        *model.NestResult
	Err           error
	PlacedCount   int
	UnplacedCount int
	WastePercent  float64
}

// CompareScenarios nests the same input under each scenario and returns the
// results in scenario order, enabling side-by-side comparison of different
// parameters (rotation counts, spacing, generation limits).
func CompareScenarios(ctx context.Context, scenarios []ComparisonScenario, container model.Polygon, parts []model.Polygon) []ComparisonResult {
	results := make([]ComparisonResult, 0, len(scenarios))

	for _, scenario := range scenarios {
		cr := ComparisonResult{Scenario: scenario}
		nester, err := New(scenario.Config)
		if err != nil {
			cr.Err = err
			results = append(results, cr)
			continue
		}
		result, err := nester.Run(ctx, container, parts)
		if err != nil {
			cr.Err = err
			results = append(results, cr)
			continue
		}
		cr.Result = result
		cr.PlacedCount = result.PlacedCount()
		cr.UnplacedCount = len(result.Unplaced)
		cr.WastePercent = 100 * (1 - result.Utilization)
		results = append(results, cr)
	}

	return results
}

// BuildDefaultScenarios generates comparison scenarios based on the given
// settings, varying key parameters to show what-if alternatives.
func BuildDefaultScenarios(base model.NestConfig) []ComparisonScenario {
	scenarios := []ComparisonScenario{
		{Name: "current settings", Config: base},
	}

	noRotation := base
	noRotation.Rotations = 1
	scenarios = append(scenarios, ComparisonScenario{Name: "no rotation", Config: noRotation})

	fineRotation := base
	fineRotation.Rotations = 8
	scenarios = append(scenarios, ComparisonScenario{Name: "8 rotations", Config: fineRotation})

	if base.Spacing > 0 {
		noSpacing := base
		noSpacing.Spacing = 0
		scenarios = append(scenarios, ComparisonScenario{Name: "no spacing", Config: noSpacing})
	}

	longer := base
	longer.MaxGenerations = base.MaxGenerations * 2
	scenarios = append(scenarios, ComparisonScenario{
		Name:   fmt.Sprintf("%d generations", longer.MaxGenerations),
		Config: longer,
	})

	return scenarios
}
