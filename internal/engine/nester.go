// Package engine contains the nesting core: the greedy placement worker,
// the genetic algorithm driving it, and the orchestrating Nester that owns
// configuration, part identity and the NFP cache.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"

	"github.com/CeranaStudio/pynest/internal/clip"
	"github.com/CeranaStudio/pynest/internal/geometry"
	"github.com/CeranaStudio/pynest/internal/model"
	"github.com/CeranaStudio/pynest/internal/nfp"
)

// containerID is the NFP cache identity of the container polygon.
const containerID = -1

// ErrInvalidInput reports unusable geometry or an empty part list. It is
// surfaced before any GA work starts.
var ErrInvalidInput = errors.New("engine: invalid input")

// ProgressFunc receives per-generation progress: the generation number, the
// best fitness so far and the utilization of the best placement.
type ProgressFunc func(generation int, bestFitness, utilization float64)

// StatsFunc receives per-generation population fitness statistics.
type StatsFunc func(generation int, stats Stats)

// Nester wires the whole pipeline: it validates and normalises the input
// polygons, applies spacing offsets, assigns part identity, owns the NFP
// cache and the PRNG, runs the GA and reports the best placement found.
type Nester struct {
	cfg      model.NestConfig
	progress ProgressFunc
	stats    StatsFunc
}

// New creates a Nester, validating the configuration.
func New(cfg model.NestConfig) (*Nester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Nester{cfg: cfg}, nil
}

// OnProgress registers the per-generation progress callback.
func (n *Nester) OnProgress(fn ProgressFunc) { n.progress = fn }

// OnStats registers the per-generation statistics callback.
func (n *Nester) OnStats(fn StatsFunc) { n.stats = fn }

// Run nests the given parts into the container and returns the best
// placement found. Cancelling the context stops the search cooperatively
// and returns the best result so far with the Cancelled flag set.
func (n *Nester) Run(ctx context.Context, container model.Polygon, partPolys []model.Polygon) (*model.NestResult, error) {
	if len(partPolys) == 0 {
		return nil, fmt.Errorf("%w: empty part list", ErrInvalidInput)
	}
	if err := validateOutline(container.Outline); err != nil {
		return nil, fmt.Errorf("%w: container: %v", ErrInvalidInput, err)
	}
	for i, p := range partPolys {
		if err := validateOutline(p.Outline); err != nil {
			return nil, fmt.Errorf("%w: part %d: %v", ErrInvalidInput, i, err)
		}
	}

	// normalise the container so its min corner sits at the origin
	cb := container.Outline.Bounds()
	containerOutline := geometry.EnsureCCW(container.Outline.Translate(-cb.X, -cb.Y))
	containerArea := geometry.Area(containerOutline)

	var containerHoles []model.Outline
	for _, child := range container.Children {
		if len(child.Outline) >= 3 {
			containerHoles = append(containerHoles, child.Outline.Translate(-cb.X, -cb.Y))
		}
	}

	// spacing is realised by insetting the container and outsetting each
	// part by half the clearance
	half := n.cfg.Spacing / 2
	nestContainer := containerOutline
	if half > 0 {
		inset, err := clip.Offset(containerOutline, -half)
		if err != nil {
			// container vanished: the run is infeasible but still reports
			nestContainer = nil
		} else {
			nestContainer = inset
		}
		for i, hole := range containerHoles {
			if grown, err := clip.Offset(geometry.EnsureCCW(hole), half); err == nil {
				containerHoles[i] = geometry.EnsureCW(grown)
			}
		}
	}

	parts := make([]*part, len(partPolys))
	for i, poly := range partPolys {
		parts[i] = n.buildPart(i, poly, containerOutline.Bounds(), half)
	}

	worker := &placementWorker{
		container:      nestContainer,
		containerHoles: containerHoles,
		parts:          parts,
		cache:          nfp.NewCache(),
		cfg:            n.cfg,
	}
	ga := &geneticNester{
		cfg: nestSettings{
			populationSize: n.cfg.PopulationSize,
			mutationRate:   n.cfg.MutationRate,
			maxGenerations: n.cfg.MaxGenerations,
			workers:        n.cfg.Workers,
		},
		parts:         parts,
		worker:        worker,
		rng:           rand.New(rand.NewSource(n.cfg.Seed)),
		containerArea: containerArea,
		progress:      n.progress,
		stats:         n.stats,
	}
	outcome := ga.run(ctx)

	result := &model.NestResult{
		Fitness:     outcome.best.fitness,
		BoundsWidth: outcome.best.width,
		Generations: outcome.generations,
		Cancelled:   outcome.cancelled,
	}
	if containerArea > 0 {
		result.Utilization = outcome.best.placedArea / containerArea
	}
	placed := make(map[int]bool, len(outcome.best.placements))
	for _, pl := range outcome.best.placements {
		// translate back into the input coordinate frame
		pl.DX += cb.X
		pl.DY += cb.Y
		result.Placements = append(result.Placements, pl)
		placed[pl.Index] = true
	}
	for _, p := range parts {
		if !placed[p.index] {
			result.Unplaced = append(result.Unplaced, p.id)
		}
	}
	return result, nil
}

// buildPart derives the engine representation of one part: spacing-adjusted
// outline, allowed rotations filtered to those fitting the container
// bounds, and a cached geometry variant per allowed angle.
func (n *Nester) buildPart(index int, poly model.Polygon, containerBounds model.Bounds, half float64) *part {
	id := poly.ID
	if id == "" {
		id = uuid.New().String()[:8]
	}
	outline := geometry.EnsureCCW(geometry.Dedupe(poly.Outline, n.cfg.CurveTolerance))

	p := &part{
		id:    id,
		index: index,
		area:  geometry.Area(outline),
	}

	nestOutline := outline
	if half > 0 {
		if grown, err := clip.Offset(outline, half); err == nil {
			nestOutline = grown
		}
	}
	p.outline = nestOutline
	for _, child := range poly.Children {
		if len(child.Outline) < 3 {
			continue
		}
		hole := geometry.EnsureCW(geometry.Dedupe(child.Outline, n.cfg.CurveTolerance))
		if half > 0 {
			if shrunk, err := clip.Offset(geometry.EnsureCCW(hole), -half); err == nil {
				hole = geometry.EnsureCW(shrunk)
			}
		}
		p.holes = append(p.holes, hole)
	}

	p.rotations = n.allowedRotations(nestOutline, containerBounds)
	p.variants = make(map[float64]*variant, len(p.rotations))
	for _, angle := range p.rotations {
		rotated := geometry.Rotate(nestOutline, angle)
		v := &variant{outline: rotated, bounds: rotated.Bounds()}
		for _, hole := range p.holes {
			v.holes = append(v.holes, geometry.Rotate(hole, angle))
		}
		p.variants[angle] = v
	}
	if p.variants[0] == nil {
		// the initial individual always starts unrotated
		v := &variant{outline: nestOutline, bounds: nestOutline.Bounds()}
		v.holes = append(v.holes, p.holes...)
		p.variants[0] = v
	}
	return p
}

// allowedRotations returns the rotation angles k*360/rotations whose rotated
// bounds fit inside the container bounds. When none fit the part keeps
// angle 0 so it still participates (and fails placement visibly).
func (n *Nester) allowedRotations(outline model.Outline, containerBounds model.Bounds) []float64 {
	var allowed []float64
	for k := 0; k < n.cfg.Rotations; k++ {
		angle := float64(k) * 360 / float64(n.cfg.Rotations)
		b := geometry.Rotate(outline, angle).Bounds()
		if b.Width <= containerBounds.Width+geometry.Epsilon &&
			b.Height <= containerBounds.Height+geometry.Epsilon {
			allowed = append(allowed, angle)
		}
	}
	if len(allowed) == 0 {
		allowed = []float64{0}
	}
	return allowed
}

func validateOutline(o model.Outline) error {
	if len(o) < 3 {
		return errors.New("fewer than three vertices")
	}
	if !geometry.IsFinite(o) {
		return errors.New("non-finite coordinate")
	}
	if !geometry.IsSimple(o) {
		return errors.New("self-intersecting polygon")
	}
	return nil
}
