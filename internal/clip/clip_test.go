package clip

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

func TestOffsetOutward(t *testing.T) {
	grown, err := Offset(square(10), 2)
	require.NoError(t, err)

	b := grown.Bounds()
	assert.InDelta(t, -2, b.X, 1e-6)
	assert.InDelta(t, -2, b.Y, 1e-6)
	assert.InDelta(t, 14, b.Width, 1e-6)
	assert.InDelta(t, 14, b.Height, 1e-6)
	// miter joins keep a square a square
	assert.InDelta(t, 14*14, geometry.Area(grown), 1e-3)
}

func TestOffsetInward(t *testing.T) {
	shrunk, err := Offset(square(10), -2)
	require.NoError(t, err)

	b := shrunk.Bounds()
	assert.InDelta(t, 2, b.X, 1e-6)
	assert.InDelta(t, 6, b.Width, 1e-6)
	assert.InDelta(t, 6, b.Height, 1e-6)
}

func TestOffsetInwardConsumesPolygon(t *testing.T) {
	_, err := Offset(square(10), -6)
	assert.ErrorIs(t, err, ErrEmptyResult)
}

func TestOffsetZeroIsIdentity(t *testing.T) {
	o := square(10)
	same, err := Offset(o, 0)
	require.NoError(t, err)
	assert.Equal(t, o, same)
}

func TestUnionMergesOverlappingSquares(t *testing.T) {
	merged, err := Union([]model.Outline{square(10), square(10).Translate(5, 0)})
	require.NoError(t, err)
	require.Len(t, merged, 1)

	assert.InDelta(t, 150, geometry.Area(merged[0]), 1e-3)
	b := merged[0].Bounds()
	assert.InDelta(t, 15, b.Width, 1e-6)
	assert.InDelta(t, 10, b.Height, 1e-6)
}

func TestUnionKeepsDisjointSquares(t *testing.T) {
	merged, err := Union([]model.Outline{square(10), square(10).Translate(20, 0)})
	require.NoError(t, err)
	assert.Len(t, merged, 2)
}

func TestDifferenceCutsHole(t *testing.T) {
	outer := square(10)
	inner := square(4).Translate(3, 3)

	result, err := Difference([]model.Outline{outer}, []model.Outline{inner})
	require.NoError(t, err)
	require.Len(t, result, 2)

	// outer loop counter-clockwise, hole clockwise
	assert.Greater(t, geometry.Area(result[0]), 0.0)
	assert.Less(t, geometry.Area(result[1]), 0.0)
	total := geometry.Area(result[0]) + geometry.Area(result[1])
	assert.InDelta(t, 100-16, total, 1e-3)
}

func TestDifferenceFullyForbidden(t *testing.T) {
	result, err := Difference([]model.Outline{square(10)}, []model.Outline{square(20).Translate(-5, -5)})
	require.NoError(t, err)
	assert.Empty(t, result)
}

func TestDifferenceWithoutClips(t *testing.T) {
	result, err := Difference([]model.Outline{square(10)}, nil)
	require.NoError(t, err)
	require.Len(t, result, 1)
	assert.InDelta(t, 100, geometry.Area(result[0]), 1e-3)
}
