// Package nfp computes no-fit polygons: the loci of translations of a moving
// polygon B that leave it touching but not overlapping a stationary polygon
// A (outer NFP), or fully contained in A (inner NFP). Results are polygons
// in translation space. A single-flight cache keyed by polygon identity and
// rotation shares results across placement workers.
package nfp

import (
	"errors"
	"math"
	"sort"

	"github.com/CeranaStudio/pynest/internal/clip"
	"github.com/CeranaStudio/pynest/internal/geometry"
	"github.com/CeranaStudio/pynest/internal/model"
)

// ErrNoFit reports that no valid touching placement exists, or that the
// sliding algorithm could not close an orbit. Callers treat the pair as
// non-placeable.
var ErrNoFit = errors.New("nfp: no fit")

// ErrDegenerate reports input that is not a usable polygon.
var ErrDegenerate = errors.New("nfp: degenerate polygon")

// Calculate computes the NFP of the moving polygon b against the stationary
// polygon a, both already rotated to their final orientation. With inside
// set the result is the inner NFP: translations keeping b inside a.
//
// Loops come back normalised: deduplicated, open (no repeated last vertex)
// and counter-clockwise; hole loops of a concave-explored outer NFP stay
// clockwise so downstream clipping sees them as holes. The rectangular inner
// fast path is the exception: it returns its four corners as computed, so
// when b spans a exactly in width or height some corners coincide.
func Calculate(a, b model.Outline, inside, exploreConcave bool) ([]model.Outline, error) {
	a = geometry.EnsureCCW(geometry.Dedupe(a, geometry.Epsilon))
	b = geometry.EnsureCCW(geometry.Dedupe(b, geometry.Epsilon))
	if len(a) < 3 || len(b) < 3 {
		return nil, ErrDegenerate
	}

	if inside {
		if geometry.IsRectangle(a, geometry.Epsilon) {
			loop, err := rectangleInner(a, b)
			if err != nil {
				return nil, err
			}
			return []model.Outline{loop}, nil
		}
		loops, err := orbit(a, b, true, exploreConcave)
		if err != nil {
			return nil, err
		}
		return normalizeLoops(loops, true), nil
	}

	if geometry.IsConvex(a) && geometry.IsConvex(b) {
		return []model.Outline{minkowskiConvex(a, b)}, nil
	}
	loops, err := orbit(a, b, false, exploreConcave)
	if err != nil {
		return nil, err
	}
	if exploreConcave && len(loops) > 1 {
		// pocket orbits overlap the main loop; merge them into one region
		merged, err := clip.Union(loops)
		if err == nil {
			loops = merged
		}
	}
	return normalizeLoops(loops, false), nil
}

// rectangleInner is the fast path for a rectangular container: the inner
// NFP is the container bounds shrunk by the part bounds.
func rectangleInner(a, b model.Outline) (model.Outline, error) {
	ba := a.Bounds()
	bb := b.Bounds()
	w := ba.Width - bb.Width
	h := ba.Height - bb.Height
	if w < -geometry.Epsilon || h < -geometry.Epsilon {
		return nil, ErrNoFit
	}
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	x := ba.X - bb.X
	y := ba.Y - bb.Y
	return model.Outline{
		{X: x, Y: y},
		{X: x + w, Y: y},
		{X: x + w, Y: y + h},
		{X: x, Y: y + h},
	}, nil
}

// minkowskiConvex computes the outer NFP of two convex polygons as the
// Minkowski sum of a and the reflection of b, by merging the edge sequences
// of both polygons in angular order.
func minkowskiConvex(a, b model.Outline) model.Outline {
	nb := make(model.Outline, len(b))
	for i, p := range b {
		nb[i] = model.Point{X: -p.X, Y: -p.Y}
	}
	nb = geometry.EnsureCCW(nb)

	type edge struct {
		d     model.Point
		angle float64
	}
	edgesOf := func(o model.Outline) []edge {
		start := minYIndex(o)
		n := len(o)
		edges := make([]edge, 0, n)
		for i := 0; i < n; i++ {
			from := o[(start+i)%n]
			to := o[(start+i+1)%n]
			d := pointSub(to, from)
			edges = append(edges, edge{d: d, angle: edgeAngle(d)})
		}
		return edges
	}

	ea := edgesOf(a)
	eb := edgesOf(nb)
	merged := make([]edge, 0, len(ea)+len(eb))
	merged = append(merged, ea...)
	merged = append(merged, eb...)
	sort.SliceStable(merged, func(i, j int) bool { return merged[i].angle < merged[j].angle })

	pos := pointAdd(a[minYIndex(a)], nb[minYIndex(nb)])
	result := make(model.Outline, 0, len(merged))
	for _, e := range merged[:len(merged)-1] {
		result = append(result, pos)
		pos = pointAdd(pos, e.d)
	}
	result = append(result, pos)
	return geometry.Dedupe(result, geometry.Epsilon)
}

// edgeAngle maps an edge vector to [0, 2*pi) measured from the positive x
// axis. Starting each convex polygon at its lowest vertex keeps the edge
// angle sequence monotone, which makes the merge a plain sort.
func edgeAngle(d model.Point) float64 {
	a := math.Atan2(d.Y, d.X)
	if a < 0 {
		a += 2 * math.Pi
	}
	return a
}

func normalizeLoops(loops []model.Outline, forceCCW bool) []model.Outline {
	result := make([]model.Outline, 0, len(loops))
	for i, loop := range loops {
		loop = geometry.Dedupe(loop, geometry.Epsilon)
		if len(loop) < 3 {
			continue
		}
		if forceCCW || i == 0 {
			loop = geometry.EnsureCCW(loop)
		}
		result = append(result, loop)
	}
	return result
}
