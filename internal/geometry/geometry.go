// Package geometry provides pure polygon algebra on model outlines: areas,
// bounds, rotation, point containment and intersection tests. All functions
// are side-effect free.
package geometry

import (
	"math"

	"github.com/CeranaStudio/pynest/internal/model"
)

// Epsilon is the tolerance used for floating point equality throughout the
// geometric kernel.
const Epsilon = 1e-9

// AlmostEqual reports whether a and b are equal within Epsilon.
func AlmostEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// AlmostEqualTol reports whether a and b are equal within tol.
func AlmostEqualTol(a, b, tol float64) bool {
	return math.Abs(a-b) < tol
}

// SamePoint reports whether p and q coincide within Epsilon.
func SamePoint(p, q model.Point) bool {
	return AlmostEqual(p.X, q.X) && AlmostEqual(p.Y, q.Y)
}

// WithinDistance reports whether p and q are closer than d.
func WithinDistance(p, q model.Point, d float64) bool {
	dx := p.X - q.X
	dy := p.Y - q.Y
	return dx*dx+dy*dy < d*d
}

// Area returns the signed area of the outline using the shoelace formula.
// Positive area means counter-clockwise winding.
func Area(o model.Outline) float64 {
	area := 0.0
	n := len(o)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		area += o[i].X * o[j].Y
		area -= o[j].X * o[i].Y
	}
	return area / 2
}

// Centroid returns the area centroid of the outline.
func Centroid(o model.Outline) model.Point {
	n := len(o)
	if n == 0 {
		return model.Point{}
	}
	var cx, cy, area float64
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		cross := o[i].X*o[j].Y - o[j].X*o[i].Y
		cx += (o[i].X + o[j].X) * cross
		cy += (o[i].Y + o[j].Y) * cross
		area += cross
	}
	if AlmostEqual(area, 0) {
		// degenerate: fall back to the vertex average
		var sx, sy float64
		for _, p := range o {
			sx += p.X
			sy += p.Y
		}
		return model.Point{X: sx / float64(n), Y: sy / float64(n)}
	}
	area /= 2
	return model.Point{X: cx / (6 * area), Y: cy / (6 * area)}
}

// Rotate returns the outline rotated around the origin by the given angle in
// degrees, counter-clockwise.
func Rotate(o model.Outline, degrees float64) model.Outline {
	radians := degrees * math.Pi / 180
	sin := math.Sin(radians)
	cos := math.Cos(radians)
	rotated := make(model.Outline, len(o))
	for i, p := range o {
		rotated[i] = model.Point{
			X: p.X*cos - p.Y*sin,
			Y: p.X*sin + p.Y*cos,
		}
	}
	return rotated
}

// Reverse returns the outline with its winding direction flipped.
func Reverse(o model.Outline) model.Outline {
	result := make(model.Outline, len(o))
	for i, p := range o {
		result[len(o)-1-i] = p
	}
	return result
}

// EnsureCCW returns the outline wound counter-clockwise.
func EnsureCCW(o model.Outline) model.Outline {
	if Area(o) < 0 {
		return Reverse(o)
	}
	return o
}

// EnsureCW returns the outline wound clockwise.
func EnsureCW(o model.Outline) model.Outline {
	if Area(o) > 0 {
		return Reverse(o)
	}
	return o
}

// Dedupe removes consecutive vertices closer than tol, including a
// coincident closing vertex.
func Dedupe(o model.Outline, tol float64) model.Outline {
	if len(o) == 0 {
		return o
	}
	result := make(model.Outline, 0, len(o))
	result = append(result, o[0])
	for _, p := range o[1:] {
		if !WithinDistance(p, result[len(result)-1], tol) {
			result = append(result, p)
		}
	}
	for len(result) > 1 && WithinDistance(result[0], result[len(result)-1], tol) {
		result = result[:len(result)-1]
	}
	return result
}

// OnSegment reports whether p lies strictly inside the segment a-b,
// excluding the endpoints.
func OnSegment(a, b, p model.Point) bool {
	// vertical and horizontal range rejections
	if AlmostEqual(a.X, b.X) && AlmostEqual(p.X, a.X) {
		if !AlmostEqual(p.Y, a.Y) && !AlmostEqual(p.Y, b.Y) &&
			p.Y < math.Max(a.Y, b.Y) && p.Y > math.Min(a.Y, b.Y) {
			return true
		}
		return false
	}
	if AlmostEqual(a.Y, b.Y) && AlmostEqual(p.Y, a.Y) {
		if !AlmostEqual(p.X, a.X) && !AlmostEqual(p.X, b.X) &&
			p.X < math.Max(a.X, b.X) && p.X > math.Min(a.X, b.X) {
			return true
		}
		return false
	}
	// out of range
	if (p.X < a.X && p.X < b.X) || (p.X > a.X && p.X > b.X) ||
		(p.Y < a.Y && p.Y < b.Y) || (p.Y > a.Y && p.Y > b.Y) {
		return false
	}
	// endpoint
	if SamePoint(p, a) || SamePoint(p, b) {
		return false
	}
	cross := (p.Y-a.Y)*(b.X-a.X) - (p.X-a.X)*(b.Y-a.Y)
	if math.Abs(cross) > Epsilon {
		return false
	}
	dot := (p.X-a.X)*(b.X-a.X) + (p.Y-a.Y)*(b.Y-a.Y)
	if dot < 0 || AlmostEqual(dot, 0) {
		return false
	}
	len2 := (b.X-a.X)*(b.X-a.X) + (b.Y-a.Y)*(b.Y-a.Y)
	if dot > len2 || AlmostEqual(dot, len2) {
		return false
	}
	return true
}

// Contains classifies p against the outline: inside reports strict interior
// containment, boundary reports that p lies on an edge or vertex within
// Epsilon. At most one of the two is true.
func Contains(p model.Point, o model.Outline) (inside, boundary bool) {
	if len(o) < 3 {
		return false, false
	}
	n := len(o)
	for i := 0; i < n; i++ {
		j := (i + 1) % n
		if SamePoint(p, o[i]) || OnSegment(o[i], o[j], p) {
			return false, true
		}
	}
	// ray cast
	in := false
	for i, j := 0, n-1; i < n; j, i = i, i+1 {
		xi, yi := o[i].X, o[i].Y
		xj, yj := o[j].X, o[j].Y
		if (yi > p.Y) != (yj > p.Y) &&
			p.X < (xj-xi)*(p.Y-yi)/(yj-yi)+xi {
			in = !in
		}
	}
	return in, false
}

// PointInPolygon reports whether p lies inside the outline; points on the
// boundary count as inside.
func PointInPolygon(p model.Point, o model.Outline) bool {
	inside, boundary := Contains(p, o)
	return inside || boundary
}

// SegmentIntersection returns the intersection point of segments a1-a2 and
// b1-b2 when they cross, including endpoint touches. Collinear overlaps
// report no intersection; their shared extent is already covered by the
// segment endpoints.
func SegmentIntersection(a1, a2, b1, b2 model.Point) (model.Point, bool) {
	d1x := a2.X - a1.X
	d1y := a2.Y - a1.Y
	d2x := b2.X - b1.X
	d2y := b2.Y - b1.Y
	denom := d1x*d2y - d1y*d2x
	if math.Abs(denom) < Epsilon {
		return model.Point{}, false
	}
	t := ((b1.X-a1.X)*d2y - (b1.Y-a1.Y)*d2x) / denom
	u := ((b1.X-a1.X)*d1y - (b1.Y-a1.Y)*d1x) / denom
	if t < -Epsilon || t > 1+Epsilon || u < -Epsilon || u > 1+Epsilon {
		return model.Point{}, false
	}
	return model.Point{X: a1.X + t*d1x, Y: a1.Y + t*d1y}, true
}

// Intersects reports whether the two outlines intersect: any pair of edges
// crosses, or one outline lies fully inside the other. Touching boundaries
// count as intersecting.
func Intersects(a, b model.Outline) bool {
	na, nb := len(a), len(b)
	for i := 0; i < na; i++ {
		for j := 0; j < nb; j++ {
			if _, ok := SegmentIntersection(a[i], a[(i+1)%na], b[j], b[(j+1)%nb]); ok {
				return true
			}
		}
	}
	// full enclosure in either direction
	if na > 0 && PointInPolygon(a[0], b) {
		return true
	}
	if nb > 0 && PointInPolygon(b[0], a) {
		return true
	}
	return false
}

// ProperOverlap reports whether the interiors of the two outlines intersect.
// Shared boundary contact alone does not count.
func ProperOverlap(a, b model.Outline) bool {
	na, nb := len(a), len(b)
	for i := 0; i < na; i++ {
		a1, a2 := a[i], a[(i+1)%na]
		for j := 0; j < nb; j++ {
			b1, b2 := b[j], b[(j+1)%nb]
			p, ok := SegmentIntersection(a1, a2, b1, b2)
			if !ok {
				continue
			}
			// a crossing strictly interior to both segments means the
			// boundaries pass through each other
			if strictlyInteriorOnSegment(a1, a2, p) && strictlyInteriorOnSegment(b1, b2, p) {
				if !collinearTouch(a1, a2, b1, b2) {
					return true
				}
			}
		}
	}
	// vertex or edge midpoint strictly inside the other polygon
	for i := 0; i < na; i++ {
		if in, _ := Contains(a[i], b); in {
			return true
		}
		mid := midpoint(a[i], a[(i+1)%na])
		if in, _ := Contains(mid, b); in {
			return true
		}
	}
	for j := 0; j < nb; j++ {
		if in, _ := Contains(b[j], a); in {
			return true
		}
		mid := midpoint(b[j], b[(j+1)%nb])
		if in, _ := Contains(mid, a); in {
			return true
		}
	}
	return false
}

func midpoint(a, b model.Point) model.Point {
	return model.Point{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
}

func strictlyInteriorOnSegment(a, b, p model.Point) bool {
	return !SamePoint(p, a) && !SamePoint(p, b)
}

func collinearTouch(a1, a2, b1, b2 model.Point) bool {
	c1 := (b1.Y-a1.Y)*(a2.X-a1.X) - (b1.X-a1.X)*(a2.Y-a1.Y)
	c2 := (b2.Y-a1.Y)*(a2.X-a1.X) - (b2.X-a1.X)*(a2.Y-a1.Y)
	return math.Abs(c1) < Epsilon && math.Abs(c2) < Epsilon
}

// IsSimple reports whether the outline is free of self-intersections.
// Adjacent edges sharing a vertex are not counted.
func IsSimple(o model.Outline) bool {
	n := len(o)
	if n < 3 {
		return false
	}
	for i := 0; i < n; i++ {
		a1, a2 := o[i], o[(i+1)%n]
		for j := i + 1; j < n; j++ {
			if j == i || (j+1)%n == i || j == (i+1)%n {
				continue
			}
			b1, b2 := o[j], o[(j+1)%n]
			p, ok := SegmentIntersection(a1, a2, b1, b2)
			if !ok {
				continue
			}
			if strictlyInteriorOnSegment(a1, a2, p) || strictlyInteriorOnSegment(b1, b2, p) {
				return false
			}
		}
	}
	return true
}

// IsConvex reports whether the outline is convex. Collinear vertices are
// tolerated.
func IsConvex(o model.Outline) bool {
	n := len(o)
	if n < 3 {
		return false
	}
	sign := 0
	for i := 0; i < n; i++ {
		a := o[i]
		b := o[(i+1)%n]
		c := o[(i+2)%n]
		cross := (b.X-a.X)*(c.Y-b.Y) - (b.Y-a.Y)*(c.X-b.X)
		if math.Abs(cross) < Epsilon {
			continue
		}
		if cross > 0 {
			if sign < 0 {
				return false
			}
			sign = 1
		} else {
			if sign > 0 {
				return false
			}
			sign = -1
		}
	}
	return true
}

// IsRectangle reports whether the outline is an axis-aligned rectangle
// within tol.
func IsRectangle(o model.Outline, tol float64) bool {
	if len(o) != 4 {
		return false
	}
	b := o.Bounds()
	for _, p := range o {
		onX := AlmostEqualTol(p.X, b.X, tol) || AlmostEqualTol(p.X, b.MaxX(), tol)
		onY := AlmostEqualTol(p.Y, b.Y, tol) || AlmostEqualTol(p.Y, b.MaxY(), tol)
		if !onX || !onY {
			return false
		}
	}
	return true
}

// IsFinite reports whether every coordinate of the outline is a finite
// number.
func IsFinite(o model.Outline) bool {
	for _, p := range o {
		if math.IsNaN(p.X) || math.IsInf(p.X, 0) || math.IsNaN(p.Y) || math.IsInf(p.Y, 0) {
			return false
		}
	}
	return true
}
