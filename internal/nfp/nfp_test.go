package nfp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CeranaStudio/pynest/internal/geometry"
	"github.com/CeranaStudio/pynest/internal/model"
)

func square(size float64) model.Outline {
	return model.Outline{
		{X: 0, Y: 0}, {X: size, Y: 0}, {X: size, Y: size}, {X: 0, Y: size},
	}
}

func lShape() model.Outline {
	return model.Outline{
		{X: 0, Y: 0}, {X: 100, Y: 0}, {X: 100, Y: 50},
		{X: 50, Y: 50}, {X: 50, Y: 100}, {X: 0, Y: 100},
	}
}

func containsPoint(o model.Outline, p model.Point) bool {
	for _, q := range o {
		if geometry.SamePoint(p, q) {
			return true
		}
	}
	return false
}

func TestInnerRectangleFastPath(t *testing.T) {
	loops, err := Calculate(square(100), square(10), true, false)
	require.NoError(t, err)
	require.Len(t, loops, 1)

	b := loops[0].Bounds()
	assert.InDelta(t, 0, b.X, 1e-9)
	assert.InDelta(t, 0, b.Y, 1e-9)
	assert.InDelta(t, 90, b.Width, 1e-9)
	assert.InDelta(t, 90, b.Height, 1e-9)
}

func TestInnerRectangleOffsetPart(t *testing.T) {
	// a part whose own coordinates start away from the origin shifts the
	// translation space accordingly
	part := square(10).Translate(40, 40)
	loops, err := Calculate(square(100), part, true, false)
	require.NoError(t, err)

	b := loops[0].Bounds()
	assert.InDelta(t, -40, b.X, 1e-9)
	assert.InDelta(t, -40, b.Y, 1e-9)
	assert.InDelta(t, 90, b.Width, 1e-9)
}

func TestInnerRectangleNoFit(t *testing.T) {
	_, err := Calculate(square(100), square(200), true, false)
	assert.ErrorIs(t, err, ErrNoFit)
}

func TestInnerRectangleExactFit(t *testing.T) {
	loops, err := Calculate(square(100), square(100), true, false)
	require.NoError(t, err)
	require.Len(t, loops, 1)

	// degenerate single-position region at the origin
	b := loops[0].Bounds()
	assert.InDelta(t, 0, b.X, 1e-9)
	assert.InDelta(t, 0, b.Width, 1e-9)
	assert.InDelta(t, 0, b.Height, 1e-9)
}

func TestOuterConvexMinkowski(t *testing.T) {
	loops, err := Calculate(square(50), square(50), false, false)
	require.NoError(t, err)
	require.Len(t, loops, 1)

	b := loops[0].Bounds()
	assert.InDelta(t, -50, b.X, 1e-9)
	assert.InDelta(t, -50, b.Y, 1e-9)
	assert.InDelta(t, 100, b.Width, 1e-9)
	assert.InDelta(t, 100, b.Height, 1e-9)
	// a sum of two squares is a square again
	assert.InDelta(t, 100*100, geometry.Area(loops[0]), 1e-6)
	assert.True(t, containsPoint(loops[0], model.Point{X: 50, Y: 0}) ||
		geometry.PointInPolygon(model.Point{X: 50, Y: 0}, loops[0]))
}

func TestOuterConvexTriangleSquare(t *testing.T) {
	triangle := model.Outline{{X: 0, Y: 0}, {X: 10, Y: 0}, {X: 5, Y: 10}}
	loops, err := Calculate(triangle, square(10), false, false)
	require.NoError(t, err)
	require.Len(t, loops, 1)

	// Minkowski sum of a triangle and a reflected square has up to 7 edges
	assert.GreaterOrEqual(t, len(loops[0]), 5)
	assert.Greater(t, geometry.Area(loops[0]), 0.0)
}

// Every vertex of the outer NFP is a touching, non-overlapping placement of
// the moving polygon.
func TestOuterNFPVerticesTouchWithoutOverlap(t *testing.T) {
	a := square(50)
	b := square(30)
	loops, err := Calculate(a, b, false, false)
	require.NoError(t, err)

	for _, loop := range loops {
		for _, v := range loop {
			placed := b.Translate(v.X, v.Y)
			assert.False(t, geometry.ProperOverlap(a, placed),
				"placement at (%v, %v) overlaps", v.X, v.Y)
			assert.True(t, geometry.Intersects(a, placed),
				"placement at (%v, %v) does not touch", v.X, v.Y)
		}
	}
}

// The sliding algorithm must agree with the Minkowski fast path on convex
// input.
func TestOrbitMatchesMinkowskiForSquares(t *testing.T) {
	a := square(50)
	b := square(30)
	loops, err := orbit(a, b, false, false)
	require.NoError(t, err)
	require.Len(t, loops, 1)

	bounds := loops[0].Bounds()
	assert.InDelta(t, -30, bounds.X, 1e-6)
	assert.InDelta(t, -30, bounds.Y, 1e-6)
	assert.InDelta(t, 80, bounds.Width, 1e-6)
	assert.InDelta(t, 80, bounds.Height, 1e-6)
}

func TestInnerSlidingLShape(t *testing.T) {
	// an 80x30 rectangle only fits in the bottom arm of the L
	part := model.Outline{{X: 0, Y: 0}, {X: 80, Y: 0}, {X: 80, Y: 30}, {X: 0, Y: 30}}
	loops, err := Calculate(lShape(), part, true, false)
	require.NoError(t, err)
	require.NotEmpty(t, loops)

	b := loops[0].Bounds()
	assert.InDelta(t, 0, b.X, 1e-6)
	assert.InDelta(t, 0, b.Y, 1e-6)
	assert.InDelta(t, 20, b.Width, 1e-6)
	assert.InDelta(t, 20, b.Height, 1e-6)

	// every vertex of the region keeps the part inside the container
	for _, v := range loops[0] {
		placed := part.Translate(v.X, v.Y)
		for _, corner := range placed {
			assert.True(t, geometry.PointInPolygon(corner, lShape()),
				"corner %v outside container for translation %v", corner, v)
		}
	}
}

func TestInnerSlidingTooBig(t *testing.T) {
	part := model.Outline{{X: 0, Y: 0}, {X: 90, Y: 0}, {X: 90, Y: 90}, {X: 0, Y: 90}}
	_, err := Calculate(lShape(), part, true, false)
	assert.ErrorIs(t, err, ErrNoFit)
}

func TestDegenerateInput(t *testing.T) {
	_, err := Calculate(model.Outline{{X: 0, Y: 0}, {X: 1, Y: 1}}, square(1), false, false)
	assert.ErrorIs(t, err, ErrDegenerate)

	_, err = Calculate(square(1), model.Outline{}, true, false)
	assert.ErrorIs(t, err, ErrDegenerate)
}

func TestOutputLoopsAreNormalised(t *testing.T) {
	loops, err := Calculate(square(50), square(30), false, false)
	require.NoError(t, err)

	for _, loop := range loops {
		// counter-clockwise
		assert.Greater(t, geometry.Area(loop), 0.0)
		// open ring: no repeated closing vertex
		assert.False(t, geometry.SamePoint(loop[0], loop[len(loop)-1]))
		// no consecutive duplicates
		for i := 1; i < len(loop); i++ {
			assert.False(t, geometry.SamePoint(loop[i-1], loop[i]))
		}
	}
}
