package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CeranaStudio/pynest/internal/geometry"
	"github.com/CeranaStudio/pynest/internal/model"
	"github.com/CeranaStudio/pynest/internal/nfp"
)

func makePart(index int, id string, outline model.Outline) *part {
	outline = geometry.EnsureCCW(outline)
	p := &part{
		id:        id,
		index:     index,
		area:      geometry.Area(outline),
		outline:   outline,
		rotations: []float64{0},
		variants:  map[float64]*variant{},
	}
	p.variants[0] = &variant{outline: outline, bounds: outline.Bounds()}
	return p
}

func makeWorker(container model.Outline, parts ...*part) *placementWorker {
	return &placementWorker{
		container: container,
		parts:     parts,
		cache:     nfp.NewCache(),
		cfg:       model.DefaultNestConfig(),
	}
}

func TestPlaceSinglePartAnchorsAtOrigin(t *testing.T) {
	w := makeWorker(squareOutline(100), makePart(0, "p0", squareOutline(10)))
	ind := &individual{order: []int{0}, rotations: []float64{0}}

	rec := w.place(context.Background(), ind)

	require.Len(t, rec.placements, 1)
	assert.Empty(t, rec.unplaced)
	assert.InDelta(t, 0, rec.placements[0].DX, 1e-9)
	assert.InDelta(t, 0, rec.placements[0].DY, 1e-9)
	assert.InDelta(t, 10, rec.width, 1e-9)
	assert.InDelta(t, 20, rec.fitness, 1e-9)
}

func TestPlaceTightTiling(t *testing.T) {
	w := makeWorker(squareOutline(100),
		makePart(0, "p0", squareOutline(50)),
		makePart(1, "p1", squareOutline(50)))
	ind := &individual{order: []int{0, 1}, rotations: []float64{0, 0}}

	rec := w.place(context.Background(), ind)

	require.Len(t, rec.placements, 2)
	// touching placement survives the integer clipper: the second part
	// stacks above the first, minimising bounding width
	assert.InDelta(t, 0, rec.placements[1].DX, 1e-6)
	assert.InDelta(t, 50, rec.placements[1].DY, 1e-6)
	assert.InDelta(t, 50, rec.width, 1e-6)
	assert.InDelta(t, 100, rec.fitness, 1e-6)
}

func TestPlaceOversizePartAddsAreaPenalty(t *testing.T) {
	w := makeWorker(squareOutline(100), makePart(0, "big", squareOutline(200)))
	ind := &individual{order: []int{0}, rotations: []float64{0}}

	rec := w.place(context.Background(), ind)

	assert.Empty(t, rec.placements)
	assert.Equal(t, []int{0}, rec.unplaced)
	assert.InDelta(t, 40000, rec.fitness, 1e-6)
}

func TestPlaceWithoutContainer(t *testing.T) {
	w := makeWorker(nil, makePart(0, "p0", squareOutline(10)))
	ind := &individual{order: []int{0}, rotations: []float64{0}}

	rec := w.place(context.Background(), ind)

	assert.Empty(t, rec.placements)
	assert.Equal(t, []int{0}, rec.unplaced)
}

func TestPlaceDeterministic(t *testing.T) {
	build := func() (*placementWorker, *individual) {
		w := makeWorker(squareOutline(100),
			makePart(0, "p0", squareOutline(40)),
			makePart(1, "p1", squareOutline(30)),
			makePart(2, "p2", squareOutline(30)))
		return w, &individual{order: []int{0, 1, 2}, rotations: []float64{0, 0, 0}}
	}

	w1, i1 := build()
	w2, i2 := build()
	assert.Equal(t, w1.place(context.Background(), i1), w2.place(context.Background(), i2))
}

func TestPlaceThirdPartAvoidsBoth(t *testing.T) {
	w := makeWorker(squareOutline(100),
		makePart(0, "p0", squareOutline(50)),
		makePart(1, "p1", squareOutline(50)),
		makePart(2, "p2", squareOutline(50)))
	ind := &individual{order: []int{0, 1, 2}, rotations: []float64{0, 0, 0}}

	rec := w.place(context.Background(), ind)

	require.Len(t, rec.placements, 3)
	outlines := make([]model.Outline, 3)
	for i, pl := range rec.placements {
		outlines[i] = w.parts[pl.Index].outline.Translate(pl.DX, pl.DY)
	}
	for i := 0; i < 3; i++ {
		for j := i + 1; j < 3; j++ {
			assert.False(t, geometry.ProperOverlap(outlines[i], outlines[j]),
				"parts %d and %d overlap", i, j)
		}
	}
}
