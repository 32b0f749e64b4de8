package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"

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

func TestAreaSign(t *testing.T) {
	ccw := square(10)
	assert.InDelta(t, 100, Area(ccw), 1e-12)
	assert.InDelta(t, -100, Area(Reverse(ccw)), 1e-12)
}

func TestCentroid(t *testing.T) {
	c := Centroid(square(10))
	assert.InDelta(t, 5, c.X, 1e-12)
	assert.InDelta(t, 5, c.Y, 1e-12)
}

func TestRotateClosure(t *testing.T) {
	// rotating by r then -r returns the polygon within epsilon
	for _, angle := range []float64{45, 90, 137.5, 270} {
		back := Rotate(Rotate(lShape(), angle), -angle)
		require.Len(t, back, len(lShape()))
		for i, p := range lShape() {
			assert.True(t, scalar.EqualWithinAbs(p.X, back[i].X, 1e-9), "angle %v x[%d]", angle, i)
			assert.True(t, scalar.EqualWithinAbs(p.Y, back[i].Y, 1e-9), "angle %v y[%d]", angle, i)
		}
	}
}

func TestRotateQuarterTurn(t *testing.T) {
	r := Rotate(model.Outline{{X: 1, Y: 0}}, 90)
	assert.True(t, scalar.EqualWithinAbs(0, r[0].X, 1e-12))
	assert.True(t, scalar.EqualWithinAbs(1, r[0].Y, 1e-12))
}

func TestContains(t *testing.T) {
	s := square(10)

	inside, boundary := Contains(model.Point{X: 5, Y: 5}, s)
	assert.True(t, inside)
	assert.False(t, boundary)

	inside, boundary = Contains(model.Point{X: 10, Y: 5}, s)
	assert.False(t, inside)
	assert.True(t, boundary)

	inside, boundary = Contains(model.Point{X: 0, Y: 0}, s)
	assert.False(t, inside)
	assert.True(t, boundary)

	inside, boundary = Contains(model.Point{X: 11, Y: 5}, s)
	assert.False(t, inside)
	assert.False(t, boundary)

	// boundary counts as inside for the public predicate
	assert.True(t, PointInPolygon(model.Point{X: 10, Y: 5}, s))
}

func TestContainsConcave(t *testing.T) {
	l := lShape()
	assert.True(t, PointInPolygon(model.Point{X: 25, Y: 75}, l))
	// the missing quadrant
	assert.False(t, PointInPolygon(model.Point{X: 75, Y: 75}, l))
}

func TestSegmentIntersection(t *testing.T) {
	p, ok := SegmentIntersection(
		model.Point{X: 0, Y: 0}, model.Point{X: 10, Y: 10},
		model.Point{X: 0, Y: 10}, model.Point{X: 10, Y: 0})
	require.True(t, ok)
	assert.InDelta(t, 5, p.X, 1e-12)
	assert.InDelta(t, 5, p.Y, 1e-12)

	_, ok = SegmentIntersection(
		model.Point{X: 0, Y: 0}, model.Point{X: 1, Y: 0},
		model.Point{X: 0, Y: 1}, model.Point{X: 1, Y: 1})
	assert.False(t, ok)
}

func TestIntersects(t *testing.T) {
	a := square(10)
	b := square(10).Translate(5, 5)
	c := square(10).Translate(20, 0)

	assert.True(t, Intersects(a, b))
	assert.False(t, Intersects(a, c))
	// containment counts
	small := square(2).Translate(4, 4)
	assert.True(t, Intersects(a, small))
}

func TestProperOverlap(t *testing.T) {
	a := square(10)

	assert.True(t, ProperOverlap(a, square(10).Translate(5, 5)))
	// edge-to-edge touching is not an overlap
	assert.False(t, ProperOverlap(a, square(10).Translate(10, 0)))
	// vertex touching is not an overlap
	assert.False(t, ProperOverlap(a, square(10).Translate(10, 10)))
	assert.False(t, ProperOverlap(a, square(10).Translate(25, 0)))
}

func TestIsSimple(t *testing.T) {
	assert.True(t, IsSimple(square(10)))
	assert.True(t, IsSimple(lShape()))

	bowtie := model.Outline{
		{X: 0, Y: 0}, {X: 10, Y: 10}, {X: 10, Y: 0}, {X: 0, Y: 10},
	}
	assert.False(t, IsSimple(bowtie))
}

func TestIsConvex(t *testing.T) {
	assert.True(t, IsConvex(square(10)))
	assert.False(t, IsConvex(lShape()))
}

func TestIsRectangle(t *testing.T) {
	assert.True(t, IsRectangle(square(10), Epsilon))
	assert.False(t, IsRectangle(lShape(), Epsilon))

	tilted := Rotate(square(10), 45)
	assert.False(t, IsRectangle(tilted, Epsilon))
}

func TestDedupe(t *testing.T) {
	o := model.Outline{
		{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 10, Y: 0}, {X: 10, Y: 10},
		{X: 10, Y: 10}, {X: 0, Y: 10}, {X: 0, Y: 1e-12},
	}
	d := Dedupe(o, Epsilon)
	assert.Len(t, d, 4)
}

func TestIsFinite(t *testing.T) {
	assert.True(t, IsFinite(square(1)))
	assert.False(t, IsFinite(model.Outline{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: math.NaN()}}))
	assert.False(t, IsFinite(model.Outline{{X: 0, Y: 0}, {X: math.Inf(1), Y: 0}, {X: 1, Y: 1}}))
}
