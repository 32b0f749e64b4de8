// Package importer reads nesting geometry from DXF files. Each closed shape
// (LWPOLYLINE, CIRCLE, or chain of connected LINEs/ARCs) becomes one
// polygon; curved entities are flattened to polylines within the configured
// chord tolerance.
package importer

import (
	"fmt"
	"math"

	"github.com/yofu/dxf"
	"github.com/yofu/dxf/entity"

	"github.com/CeranaStudio/pynest/internal/geometry"
	"github.com/CeranaStudio/pynest/internal/model"
)

// segment represents a line segment between two points, used for chaining
// disconnected LINE and ARC entities into closed outlines.
type segment struct {
	start model.Point
	end   model.Point
}

// ImportResult holds the outcome of reading one DXF file.
type ImportResult struct {
	Polygons []model.Polygon
	Errors   []string
	Warnings []string
}

// chainTolerance is the endpoint distance under which two loose segments
// are considered connected.
const chainTolerance = 0.01

// ImportDXF reads every closed shape from the DXF file at path. Arcs,
// circles and polyline bulges are flattened so the chord error stays below
// curveTolerance.
func ImportDXF(path string, curveTolerance float64) ImportResult {
	result := ImportResult{}

	drawing, err := dxf.Open(path)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("cannot open DXF file: %v", err))
		return result
	}

	entities := drawing.Entities()
	if len(entities) == 0 {
		result.Errors = append(result.Errors, "DXF file contains no entities")
		return result
	}

	var outlines []model.Outline
	var segments []segment

	for _, ent := range entities {
		switch e := ent.(type) {
		case *entity.LwPolyline:
			outline := lwPolylineToOutline(e, curveTolerance)
			if len(outline) >= 3 {
				outlines = append(outlines, outline)
			} else {
				result.Warnings = append(result.Warnings,
					"skipped LWPOLYLINE with fewer than 3 vertices")
			}

		case *entity.Circle:
			outlines = append(outlines, circleToOutline(e, curveTolerance))

		case *entity.Arc:
			pts := arcToPoints(e, curveTolerance)
			if len(pts) >= 2 {
				segments = append(segments, pointsToSegments(pts)...)
			}

		case *entity.Line:
			segments = append(segments, segment{
				start: model.Point{X: e.Start[0], Y: e.Start[1]},
				end:   model.Point{X: e.End[0], Y: e.End[1]},
			})

		default:
			// unsupported entity types are skipped
		}
	}

	for _, chained := range chainSegments(segments, chainTolerance) {
		if len(chained) >= 3 {
			outlines = append(outlines, chained)
		}
	}

	if len(outlines) == 0 {
		result.Errors = append(result.Errors, "no closed shapes found in DXF file")
		return result
	}

	shapeNum := 0
	for _, outline := range outlines {
		outline = geometry.Dedupe(outline, curveTolerance)
		b := outline.Bounds()
		if len(outline) < 3 || b.Width < 0.01 || b.Height < 0.01 {
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("skipped degenerate shape (%.2f x %.2f)", b.Width, b.Height))
			continue
		}
		shapeNum++
		poly := model.NewPolygon(geometry.EnsureCCW(outline))
		poly.ID = fmt.Sprintf("dxf-%d", shapeNum)
		result.Polygons = append(result.Polygons, poly)
	}

	return result
}

// arcSegments returns the number of chords needed to keep the sagitta of an
// arc of the given radius and sweep below tol.
func arcSegments(radius, sweep, tol float64) int {
	if radius <= 0 || sweep == 0 {
		return 1
	}
	if tol >= radius {
		return 2
	}
	maxStep := 2 * math.Acos(1-tol/radius)
	n := int(math.Ceil(math.Abs(sweep) / maxStep))
	if n < 2 {
		n = 2
	}
	return n
}

// lwPolylineToOutline converts an LWPOLYLINE entity to an outline. Bulge
// values on vertices produce interpolated arc segments.
func lwPolylineToOutline(lw *entity.LwPolyline, tol float64) model.Outline {
	var outline model.Outline

	for i := 0; i < len(lw.Vertices); i++ {
		v := lw.Vertices[i]
		current := model.Point{X: v[0], Y: v[1]}

		bulge := 0.0
		if i < len(lw.Bulges) {
			bulge = lw.Bulges[i]
		}

		if math.Abs(bulge) > 1e-9 {
			nextIdx := (i + 1) % len(lw.Vertices)
			next := model.Point{X: lw.Vertices[nextIdx][0], Y: lw.Vertices[nextIdx][1]}
			arcPts := bulgeArcPoints(current, next, bulge, tol)
			// all but the last point; the next vertex follows naturally
			outline = append(outline, arcPts[:len(arcPts)-1]...)
		} else {
			outline = append(outline, current)
		}
	}

	return outline
}

// bulgeArcPoints generates points along the arc defined by two endpoints
// and a DXF bulge factor (the tangent of a quarter of the included angle).
func bulgeArcPoints(p1, p2 model.Point, bulge, tol float64) model.Outline {
	mx := (p1.X + p2.X) / 2
	my := (p1.Y + p2.Y) / 2
	dx := p2.X - p1.X
	dy := p2.Y - p1.Y
	chordLen := math.Sqrt(dx*dx + dy*dy)
	if chordLen < 1e-9 {
		return model.Outline{p1, p2}
	}

	sagitta := math.Abs(bulge) * chordLen / 2
	radius := (chordLen*chordLen/(4*sagitta) + sagitta) / 2

	perpX := -dy / chordLen
	perpY := dx / chordLen
	dist := radius - sagitta
	if bulge < 0 {
		perpX, perpY = -perpX, -perpY
	}
	cx := mx + perpX*dist
	cy := my + perpY*dist

	startAngle := math.Atan2(p1.Y-cy, p1.X-cx)
	endAngle := math.Atan2(p2.Y-cy, p2.X-cx)
	if bulge < 0 {
		if endAngle > startAngle {
			endAngle -= 2 * math.Pi
		}
	} else {
		if endAngle < startAngle {
			endAngle += 2 * math.Pi
		}
	}

	numSegments := arcSegments(radius, endAngle-startAngle, tol)
	var pts model.Outline
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startAngle + t*(endAngle-startAngle)
		pts = append(pts, model.Point{
			X: cx + radius*math.Cos(angle),
			Y: cy + radius*math.Sin(angle),
		})
	}
	return pts
}

// circleToOutline approximates a circle as a regular polygon fine enough to
// stay within the chord tolerance.
func circleToOutline(c *entity.Circle, tol float64) model.Outline {
	cx, cy, r := c.Center[0], c.Center[1], c.Radius
	numSegments := arcSegments(r, 2*math.Pi, tol)
	if numSegments < 3 {
		numSegments = 3
	}
	outline := make(model.Outline, numSegments)
	for i := 0; i < numSegments; i++ {
		angle := 2 * math.Pi * float64(i) / float64(numSegments)
		outline[i] = model.Point{
			X: cx + r*math.Cos(angle),
			Y: cy + r*math.Sin(angle),
		}
	}
	return outline
}

// arcToPoints flattens a DXF ARC entity to a polyline.
func arcToPoints(a *entity.Arc, tol float64) []model.Point {
	cx, cy := a.Circle.Center[0], a.Circle.Center[1]
	r := a.Circle.Radius
	startRad := a.Angle[0] * math.Pi / 180
	endRad := a.Angle[1] * math.Pi / 180
	if endRad < startRad {
		endRad += 2 * math.Pi
	}

	numSegments := arcSegments(r, endRad-startRad, tol)
	pts := make([]model.Point, 0, numSegments+1)
	for i := 0; i <= numSegments; i++ {
		t := float64(i) / float64(numSegments)
		angle := startRad + t*(endRad-startRad)
		pts = append(pts, model.Point{
			X: cx + r*math.Cos(angle),
			Y: cy + r*math.Sin(angle),
		})
	}
	return pts
}

func pointsToSegments(pts []model.Point) []segment {
	segments := make([]segment, 0, len(pts)-1)
	for i := 0; i < len(pts)-1; i++ {
		segments = append(segments, segment{start: pts[i], end: pts[i+1]})
	}
	return segments
}

// chainSegments links loose segments into closed outlines by matching
// endpoints within tol. Open chains are dropped.
func chainSegments(segments []segment, tol float64) []model.Outline {
	var outlines []model.Outline
	used := make([]bool, len(segments))

	for i := range segments {
		if used[i] {
			continue
		}
		used[i] = true
		chain := model.Outline{segments[i].start, segments[i].end}

		for {
			tail := chain[len(chain)-1]
			extended := false
			for j := range segments {
				if used[j] {
					continue
				}
				if pointsClose(tail, segments[j].start, tol) {
					chain = append(chain, segments[j].end)
					used[j] = true
					extended = true
					break
				}
				if pointsClose(tail, segments[j].end, tol) {
					chain = append(chain, segments[j].start)
					used[j] = true
					extended = true
					break
				}
			}
			if !extended {
				break
			}
			if pointsClose(chain[len(chain)-1], chain[0], tol) {
				// closed: drop the duplicated final vertex
				outlines = append(outlines, chain[:len(chain)-1])
				break
			}
		}
	}
	return outlines
}

func pointsClose(a, b model.Point, tol float64) bool {
	dx := a.X - b.X
	dy := a.Y - b.Y
	return dx*dx+dy*dy <= tol*tol
}
