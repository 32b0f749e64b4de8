// Package model defines the core data types shared by the nesting engine:
// points, polygons, parts, placements and results.
package model

import "github.com/google/uuid"

// Point represents a 2D coordinate in world units.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Outline represents a closed polygon as an ordered sequence of vertices.
// The outline is implicitly closed: the last vertex connects back to the
// first, and the last vertex is never a repeat of the first. Solids wind
// counter-clockwise, holes clockwise.
type Outline []Point

// Bounds is an axis-aligned bounding box.
type Bounds struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// MaxX returns the right edge of the box.
func (b Bounds) MaxX() float64 { return b.X + b.Width }

// MaxY returns the top edge of the box.
func (b Bounds) MaxY() float64 { return b.Y + b.Height }

// Merge returns the smallest box covering both b and other.
func (b Bounds) Merge(other Bounds) Bounds {
	minX := b.X
	if other.X < minX {
		minX = other.X
	}
	minY := b.Y
	if other.Y < minY {
		minY = other.Y
	}
	maxX := b.MaxX()
	if other.MaxX() > maxX {
		maxX = other.MaxX()
	}
	maxY := b.MaxY()
	if other.MaxY() > maxY {
		maxY = other.MaxY()
	}
	return Bounds{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Bounds returns the axis-aligned bounding box of the outline.
func (o Outline) Bounds() Bounds {
	if len(o) == 0 {
		return Bounds{}
	}
	minX, maxX := o[0].X, o[0].X
	minY, maxY := o[0].Y, o[0].Y
	for _, p := range o[1:] {
		if p.X < minX {
			minX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}
	return Bounds{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Translate returns a copy of the outline shifted by dx, dy.
func (o Outline) Translate(dx, dy float64) Outline {
	result := make(Outline, len(o))
	for i, p := range o {
		result[i] = Point{X: p.X + dx, Y: p.Y + dy}
	}
	return result
}

// Clone returns a deep copy of the outline.
func (o Outline) Clone() Outline {
	result := make(Outline, len(o))
	copy(result, o)
	return result
}

// Polygon is an identified outline with optional nested child loops.
// Children of a solid are holes; children of a hole are islands. The tree
// owns its children and carries no upward pointers.
type Polygon struct {
	ID       string     `json:"id"`
	Outline  Outline    `json:"outline"`
	Children []*Polygon `json:"children,omitempty"`
}

// NewPolygon creates a polygon with a fresh stable ID.
func NewPolygon(outline Outline) Polygon {
	return Polygon{
		ID:      uuid.New().String()[:8],
		Outline: outline,
	}
}

// Placement records the final position of a single part: the translation of
// the part's outline from its input coordinates, and the rotation applied
// around the origin before translating.
type Placement struct {
	PartID   string  `json:"part_id"`
	Index    int     `json:"index"`
	DX       float64 `json:"dx"`
	DY       float64 `json:"dy"`
	Rotation float64 `json:"rotation"`
}

// NestResult is the outcome of one nesting run: the best placement set ever
// observed, its fitness, and bookkeeping about how the run ended.
type NestResult struct {
	Placements  []Placement `json:"placements"`
	Unplaced    []string    `json:"unplaced"`
	Fitness     float64     `json:"fitness"`
	BoundsWidth float64     `json:"bounds_width"`
	Utilization float64     `json:"utilization"`
	Generations int         `json:"generations"`
	Cancelled   bool        `json:"cancelled"`
}

// PlacedCount returns the number of parts that found a position.
func (r NestResult) PlacedCount() int { return len(r.Placements) }
