// Package clip bridges the floating point world of the nesting engine to the
// integer Clipper library. It covers the three boolean operations the engine
// needs: polygon offsetting for spacing, union for merging no-fit regions,
// and difference for carving forbidden regions out of feasible ones.
package clip

import (
	"errors"
	"math"

	clipper "github.com/ctessum/go.clipper"

	"github.com/CeranaStudio/pynest/internal/geometry"
	"github.com/CeranaStudio/pynest/internal/model"
)

// scale converts world coordinates to Clipper integers. 1e7 keeps seven
// decimal digits of precision while leaving headroom for coordinates in the
// hundreds of thousands on 64-bit ints.
const scale = 1e7

// miterLimit matches the offset join behaviour of the reference tooling.
const miterLimit = 2.0

// ErrEmptyResult is returned when a clipping operation that must produce
// geometry comes back empty, e.g. an inward offset that consumed the whole
// polygon.
var ErrEmptyResult = errors.New("clip: operation produced no geometry")

// ErrRangeExceeded is returned when coordinates cannot be represented at the
// fixed integer scale.
var ErrRangeExceeded = errors.New("clip: coordinate exceeds integer range")

// maxCoord bounds the scaled integer magnitude accepted by the bridge.
const maxCoord = float64(1) << 53

func toClipper(o model.Outline) ([]*clipper.Point, error) {
	path := make([]*clipper.Point, len(o))
	for i, p := range o {
		x := math.Round(p.X * scale)
		y := math.Round(p.Y * scale)
		if math.Abs(x) > maxCoord || math.Abs(y) > maxCoord {
			return nil, ErrRangeExceeded
		}
		path[i] = &clipper.Point{X: int(x), Y: int(y)}
	}
	return path, nil
}

func fromClipper(path []*clipper.Point) model.Outline {
	o := make(model.Outline, len(path))
	for i, p := range path {
		o[i] = model.Point{X: float64(p.X) / scale, Y: float64(p.Y) / scale}
	}
	return o
}

func toClipperAll(outlines []model.Outline) ([][]*clipper.Point, error) {
	paths := make([][]*clipper.Point, 0, len(outlines))
	for _, o := range outlines {
		if len(o) < 3 {
			continue
		}
		path, err := toClipper(o)
		if err != nil {
			return nil, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// treeOutlines flattens a solution tree into outlines. Outer loops come back
// counter-clockwise, holes clockwise, outer loops first.
func treeOutlines(tree *clipper.PolyTree) []model.Outline {
	var outers, holes []model.Outline
	var walk func(node *clipper.PolyNode)
	walk = func(node *clipper.PolyNode) {
		if len(node.Contour) >= 3 {
			o := fromClipper(node.Contour)
			if node.IsHole() {
				holes = append(holes, geometry.EnsureCW(o))
			} else {
				outers = append(outers, geometry.EnsureCCW(o))
			}
		}
		for _, child := range node.Childs {
			walk(child)
		}
	}
	for _, child := range tree.Childs {
		walk(child)
	}
	return append(outers, holes...)
}

// Offset grows (positive delta) or shrinks (negative delta) the outline,
// using miter joins. When the offset splits the polygon, the largest piece
// by area is returned. Returns ErrEmptyResult if the polygon vanishes.
func Offset(o model.Outline, delta float64) (model.Outline, error) {
	if len(o) < 3 {
		return nil, ErrEmptyResult
	}
	if delta == 0 {
		return o.Clone(), nil
	}
	path, err := toClipper(geometry.EnsureCCW(o))
	if err != nil {
		return nil, err
	}
	result := clipper.OffsetPolygons([][]*clipper.Point{path}, delta*scale, clipper.MiterJoin, miterLimit, true)
	if len(result) == 0 {
		return nil, ErrEmptyResult
	}
	best := result[0]
	bestArea := intAbs(clipper.Area(best))
	for _, candidate := range result[1:] {
		if a := intAbs(clipper.Area(candidate)); a > bestArea {
			best = candidate
			bestArea = a
		}
	}
	if len(best) < 3 {
		return nil, ErrEmptyResult
	}
	return geometry.EnsureCCW(fromClipper(best)), nil
}

// Union merges the outlines into their non-overlapping outline set. Outer
// loops come back counter-clockwise and precede any hole loops, which come
// back clockwise.
func Union(outlines []model.Outline) ([]model.Outline, error) {
	subject, err := toClipperAll(outlines)
	if err != nil {
		return nil, err
	}
	if len(subject) == 0 {
		return nil, ErrEmptyResult
	}
	c := clipper.NewClipper()
	c.AddPolygons(subject, clipper.Subject)
	tree := new(clipper.PolyTree)
	if !c.Execute2(clipper.Union, tree, clipper.NonZero, clipper.NonZero) {
		return nil, ErrEmptyResult
	}
	merged := treeOutlines(tree)
	if len(merged) == 0 {
		return nil, ErrEmptyResult
	}
	return merged, nil
}

// Difference subtracts the clip outlines from the subject outlines. An empty
// result is not an error here: a fully forbidden region is a legitimate
// outcome.
func Difference(subject, clips []model.Outline) ([]model.Outline, error) {
	subjectPaths, err := toClipperAll(subject)
	if err != nil {
		return nil, err
	}
	if len(subjectPaths) == 0 {
		return nil, nil
	}
	clipPaths, err := toClipperAll(clips)
	if err != nil {
		return nil, err
	}
	c := clipper.NewClipper()
	c.AddPolygons(subjectPaths, clipper.Subject)
	if len(clipPaths) > 0 {
		c.AddPolygons(clipPaths, clipper.Clip)
	}
	tree := new(clipper.PolyTree)
	if !c.Execute2(clipper.Difference, tree, clipper.NonZero, clipper.NonZero) {
		return nil, nil
	}
	return treeOutlines(tree), nil
}

func intAbs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
