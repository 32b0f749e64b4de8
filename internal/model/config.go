package model

import (
	"fmt"
	"runtime"
)

// NestConfig holds all tunables of a nesting run. Construct it with
// DefaultNestConfig and override fields, or with NestConfigFromMap when the
// options arrive as a key/value dictionary.
type NestConfig struct {
	// CurveTolerance is the maximum chord error accepted when curved input
	// geometry is flattened to polylines at the ingest boundary.
	CurveTolerance float64 `json:"curve_tolerance"`
	// Spacing is the mandatory clearance between any two placed parts and
	// between a part and the container edge.
	Spacing float64 `json:"spacing"`
	// Rotations is the size of the allowed rotation set per part; the
	// allowed angles are k*360/Rotations for k in [0, Rotations).
	Rotations int `json:"rotations"`
	// PopulationSize is the GA population size; must be at least 2.
	PopulationSize int `json:"population_size"`
	// MutationRate is the per-gene mutation percentage, clamped to [1, 50].
	MutationRate int `json:"mutation_rate"`
	// MaxGenerations is the hard upper bound on GA generations.
	MaxGenerations int `json:"max_generations"`
	// ExploreConcave enables pocket-seeded NFP orbits for concave shapes.
	ExploreConcave bool `json:"explore_concave"`
	// UseHoles allows parts to be placed inside holes of other parts.
	// Experimental.
	UseHoles bool `json:"use_holes"`
	// Seed is the deterministic PRNG seed. The same seed with the same
	// inputs produces the same result.
	Seed int64 `json:"seed"`
	// Workers is the parallel evaluation degree within one generation.
	// Zero means one worker per CPU.
	Workers int `json:"workers"`
}

// DefaultNestConfig returns the configuration defaults.
func DefaultNestConfig() NestConfig {
	return NestConfig{
		CurveTolerance: 0.3,
		Spacing:        0,
		Rotations:      4,
		PopulationSize: 10,
		MutationRate:   10,
		MaxGenerations: 100,
		ExploreConcave: false,
		UseHoles:       false,
		Seed:           42,
		Workers:        runtime.NumCPU(),
	}
}

// Validate checks hard constraints and normalises soft ones: the mutation
// rate is clamped to [1, 50] and a zero worker count falls back to NumCPU.
func (c *NestConfig) Validate() error {
	if c.CurveTolerance <= 0 {
		return fmt.Errorf("curve_tolerance must be positive, got %g", c.CurveTolerance)
	}
	if c.Spacing < 0 {
		return fmt.Errorf("spacing must not be negative, got %g", c.Spacing)
	}
	if c.Rotations < 1 {
		return fmt.Errorf("rotations must be at least 1, got %d", c.Rotations)
	}
	if c.PopulationSize < 2 {
		return fmt.Errorf("population_size must be at least 2, got %d", c.PopulationSize)
	}
	if c.MaxGenerations < 1 {
		return fmt.Errorf("max_generations must be at least 1, got %d", c.MaxGenerations)
	}
	if c.MutationRate < 1 {
		c.MutationRate = 1
	}
	if c.MutationRate > 50 {
		c.MutationRate = 50
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	return nil
}

// NestConfigFromMap builds a NestConfig from a loosely typed option
// dictionary. Unknown keys are rejected so misspelled options surface
// immediately instead of silently falling back to defaults.
func NestConfigFromMap(options map[string]any) (NestConfig, error) {
	cfg := DefaultNestConfig()
	for key, value := range options {
		switch key {
		case "curve_tolerance":
			f, err := toFloat(value)
			if err != nil {
				return cfg, fmt.Errorf("option %s: %w", key, err)
			}
			cfg.CurveTolerance = f
		case "spacing":
			f, err := toFloat(value)
			if err != nil {
				return cfg, fmt.Errorf("option %s: %w", key, err)
			}
			cfg.Spacing = f
		case "rotations":
			n, err := toInt(value)
			if err != nil {
				return cfg, fmt.Errorf("option %s: %w", key, err)
			}
			cfg.Rotations = n
		case "population_size":
			n, err := toInt(value)
			if err != nil {
				return cfg, fmt.Errorf("option %s: %w", key, err)
			}
			cfg.PopulationSize = n
		case "mutation_rate":
			n, err := toInt(value)
			if err != nil {
				return cfg, fmt.Errorf("option %s: %w", key, err)
			}
			cfg.MutationRate = n
		case "max_generations":
			n, err := toInt(value)
			if err != nil {
				return cfg, fmt.Errorf("option %s: %w", key, err)
			}
			cfg.MaxGenerations = n
		case "explore_concave":
			b, err := toBool(value)
			if err != nil {
				return cfg, fmt.Errorf("option %s: %w", key, err)
			}
			cfg.ExploreConcave = b
		case "use_holes":
			b, err := toBool(value)
			if err != nil {
				return cfg, fmt.Errorf("option %s: %w", key, err)
			}
			cfg.UseHoles = b
		case "seed":
			n, err := toInt(value)
			if err != nil {
				return cfg, fmt.Errorf("option %s: %w", key, err)
			}
			cfg.Seed = int64(n)
		case "workers":
			n, err := toInt(value)
			if err != nil {
				return cfg, fmt.Errorf("option %s: %w", key, err)
			}
			cfg.Workers = n
		default:
			return cfg, fmt.Errorf("unknown option %q", key)
		}
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	}
	return 0, fmt.Errorf("expected number, got %T", v)
}

func toInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case float64:
		if t == float64(int(t)) {
			return int(t), nil
		}
		return 0, fmt.Errorf("expected integer, got %g", t)
	}
	return 0, fmt.Errorf("expected integer, got %T", v)
}

func toBool(v any) (bool, error) {
	if b, ok := v.(bool); ok {
		return b, nil
	}
	return false, fmt.Errorf("expected boolean, got %T", v)
}
