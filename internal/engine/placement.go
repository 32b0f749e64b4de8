package engine

import (
	"context"
	"math"
	"sort"

	"github.com/CeranaStudio/pynest/internal/clip"
	"github.com/CeranaStudio/pynest/internal/geometry"
	"github.com/CeranaStudio/pynest/internal/model"
	"github.com/CeranaStudio/pynest/internal/nfp"
)

// part is the engine's working representation of one input part: the
// original area for fitness accounting, the spacing-adjusted nesting
// outline, and one precomputed variant per allowed rotation.
type part struct {
	id        string
	index     int
	area      float64
	outline   model.Outline
	holes     []model.Outline
	rotations []float64
	variants  map[float64]*variant
}

// variant caches the rotated geometry of a part for one allowed angle.
type variant struct {
	outline model.Outline
	holes   []model.Outline
	bounds  model.Bounds
}

// individual is one GA candidate: a placement order and a rotation per
// position, aligned by index.
type individual struct {
	order     []int
	rotations []float64
	record    fitnessRecord
	evaluated bool
}

func (ind *individual) clone() *individual {
	c := &individual{
		order:     make([]int, len(ind.order)),
		rotations: make([]float64, len(ind.rotations)),
	}
	copy(c.order, ind.order)
	copy(c.rotations, ind.rotations)
	return c
}

func (ind *individual) cloneEvaluated() *individual {
	c := ind.clone()
	c.record = ind.record
	c.evaluated = ind.evaluated
	return c
}

// fitnessRecord is the outcome of evaluating one individual.
type fitnessRecord struct {
	placements []model.Placement
	unplaced   []int
	fitness    float64
	width      float64
	placedArea float64
}

// placedPart tracks an already placed part during one evaluation.
type placedPart struct {
	p     *part
	angle float64
	t     model.Point
}

// forbiddenRegion is the translated outer NFP of one placed part (or a
// container hole island): translations inside it would overlap. Exempt
// loops carve feasible pockets back out, e.g. hole placements.
type forbiddenRegion struct {
	outers []model.Outline
	holes  []model.Outline
	exempt []model.Outline
}

func (r *forbiddenRegion) loops() []model.Outline {
	all := make([]model.Outline, 0, len(r.outers)+len(r.holes))
	all = append(all, r.outers...)
	all = append(all, r.holes...)
	return all
}

// contains reports whether t lies strictly inside the region, outside any
// of its holes and exempt pockets. Boundary contact does not count.
func (r *forbiddenRegion) contains(t model.Point) bool {
	in := false
	for _, outer := range r.outers {
		if inside, _ := geometry.Contains(t, outer); inside {
			in = true
			break
		}
	}
	if !in {
		return false
	}
	for _, hole := range r.holes {
		if inside, boundary := geometry.Contains(t, hole); inside || boundary {
			return false
		}
	}
	for _, ex := range r.exempt {
		if inside, boundary := geometry.Contains(t, ex); inside || boundary {
			return false
		}
	}
	return true
}

// placementWorker greedily places the parts of one individual inside the
// container, in order, at the position minimising the bounding width of
// everything placed so far. It reads shared state only: the container, the
// part list and the NFP cache.
type placementWorker struct {
	container      model.Outline
	containerHoles []model.Outline
	parts          []*part
	cache          *nfp.Cache
	cfg            model.NestConfig
}

// place evaluates one individual. It is deterministic: the same individual
// against the same worker state always yields an identical record.
func (w *placementWorker) place(ctx context.Context, ind *individual) fitnessRecord {
	var rec fitnessRecord
	var placed []placedPart
	var merged model.Bounds
	hasMerged := false

	for pos, idx := range ind.order {
		if ctx != nil && ctx.Err() != nil {
			// cooperative cancel: everything not yet placed counts unplaced
			for _, rest := range ind.order[pos:] {
				rec.unplaced = append(rec.unplaced, rest)
			}
			break
		}

		p := w.parts[idx]
		angle := ind.rotations[pos]
		v := p.variants[angle]
		if v == nil || len(v.outline) < 3 {
			rec.unplaced = append(rec.unplaced, idx)
			continue
		}

		inner, err := w.innerNFP(p, angle)
		if err != nil || len(inner) == 0 {
			rec.unplaced = append(rec.unplaced, idx)
			continue
		}
		feasible, regions := splitInner(inner)
		if len(feasible) == 0 {
			rec.unplaced = append(rec.unplaced, idx)
			continue
		}
		regions = append(regions, w.placedRegions(placed, p, angle)...)

		candidates := w.candidates(feasible, regions)
		best, ok := choosePosition(candidates, v.bounds, merged, hasMerged)
		if !ok {
			rec.unplaced = append(rec.unplaced, idx)
			continue
		}

		placed = append(placed, placedPart{p: p, angle: angle, t: best})
		tb := translatedBounds(v.bounds, best)
		if hasMerged {
			merged = merged.Merge(tb)
		} else {
			merged = tb
			hasMerged = true
		}
		rec.placements = append(rec.placements, model.Placement{
			PartID:   p.id,
			Index:    p.index,
			DX:       best.X,
			DY:       best.Y,
			Rotation: angle,
		})
		rec.placedArea += p.area
	}

	for _, idx := range rec.unplaced {
		rec.fitness += w.parts[idx].area
	}
	if hasMerged {
		rec.width = merged.Width
	}
	rec.fitness += 2 * rec.width
	return rec
}

// innerNFP returns the feasible region of the part's reference translation
// inside the container, with forbidden islands for container holes appended
// as clockwise loops.
func (w *placementWorker) innerNFP(p *part, angle float64) ([]model.Outline, error) {
	key := nfp.Key{A: containerID, B: p.index, ARot: 0, BRot: angle, Inside: true}
	return w.cache.GetOrCompute(key, func() ([]model.Outline, error) {
		if len(w.container) < 3 {
			return nil, nfp.ErrNoFit
		}
		v := p.variants[angle]
		loops, err := nfp.Calculate(w.container, v.outline, true, w.cfg.ExploreConcave)
		if err != nil {
			return nil, err
		}
		for _, hole := range w.containerHoles {
			island, err := nfp.Calculate(geometry.EnsureCCW(hole), v.outline, false, w.cfg.ExploreConcave)
			if err != nil {
				continue
			}
			for _, loop := range island {
				loops = append(loops, geometry.EnsureCW(loop))
			}
		}
		return loops, nil
	})
}

// outerNFP returns the outer NFP of the moving part against a placed part,
// in untranslated coordinates.
func (w *placementWorker) outerNFP(q, p *part, qAngle, pAngle float64) ([]model.Outline, error) {
	key := nfp.Key{A: q.index, B: p.index, ARot: qAngle, BRot: pAngle, Inside: false}
	return w.cache.GetOrCompute(key, func() ([]model.Outline, error) {
		return nfp.Calculate(q.variants[qAngle].outline, p.variants[pAngle].outline, false, w.cfg.ExploreConcave)
	})
}

// holeNFP returns the inner NFP of the moving part against one hole of a
// placed part, for hole nesting.
func (w *placementWorker) holeNFP(q, p *part, qAngle, pAngle float64) ([]model.Outline, error) {
	key := nfp.Key{A: q.index, B: p.index, ARot: qAngle, BRot: pAngle, Inside: true}
	return w.cache.GetOrCompute(key, func() ([]model.Outline, error) {
		var loops []model.Outline
		pv := p.variants[pAngle]
		for _, hole := range q.variants[qAngle].holes {
			hb := hole.Bounds()
			if hb.Width < pv.bounds.Width || hb.Height < pv.bounds.Height {
				continue
			}
			found, err := nfp.Calculate(geometry.EnsureCCW(hole), pv.outline, true, w.cfg.ExploreConcave)
			if err != nil {
				continue
			}
			loops = append(loops, found...)
		}
		if len(loops) == 0 {
			return nil, nfp.ErrNoFit
		}
		return loops, nil
	})
}

// placedRegions builds the forbidden regions contributed by the already
// placed parts, translated to their placements.
func (w *placementWorker) placedRegions(placed []placedPart, p *part, angle float64) []forbiddenRegion {
	regions := make([]forbiddenRegion, 0, len(placed))
	for _, q := range placed {
		loops, err := w.outerNFP(q.p, p, q.angle, angle)
		region := forbiddenRegion{}
		if err == nil {
			for _, loop := range loops {
				moved := loop.Translate(q.t.X, q.t.Y)
				if geometry.Area(loop) >= 0 {
					region.outers = append(region.outers, moved)
				} else {
					region.holes = append(region.holes, moved)
				}
			}
		} else {
			// without an NFP the pair cannot be proven safe anywhere near q;
			// block the entire merged bounds neighbourhood
			region.outers = append(region.outers, boundsOutline(blockedBounds(q, p, angle)))
		}
		if w.cfg.UseHoles && len(q.p.variants[q.angle].holes) > 0 {
			if holeLoops, err := w.holeNFP(q.p, p, q.angle, angle); err == nil {
				for _, loop := range holeLoops {
					region.exempt = append(region.exempt, loop.Translate(q.t.X, q.t.Y))
				}
			}
		}
		regions = append(regions, region)
	}
	return regions
}

// candidates collects every candidate translation: vertices of the clipped
// feasible region, plus the exact touching positions the integer clipper
// drops when the remaining region degenerates to a boundary.
func (w *placementWorker) candidates(feasible []model.Outline, regions []forbiddenRegion) []model.Point {
	var clips []model.Outline
	for i := range regions {
		clips = append(clips, regions[i].loops()...)
	}

	var cands []model.Point
	if diff, err := clip.Difference(feasible, clips); err == nil {
		for _, loop := range diff {
			cands = append(cands, loop...)
		}
	}

	usable := func(t model.Point) bool {
		onFeasible := false
		for _, loop := range feasible {
			if geometry.PointInPolygon(t, loop) {
				onFeasible = true
				break
			}
		}
		if !onFeasible {
			return false
		}
		for i := range regions {
			if regions[i].contains(t) {
				return false
			}
		}
		return true
	}

	for _, loop := range feasible {
		for _, p := range loop {
			if usable(p) {
				cands = append(cands, p)
			}
		}
	}
	for i := range regions {
		for _, loop := range regions[i].loops() {
			for _, p := range loop {
				if usable(p) {
					cands = append(cands, p)
				}
			}
		}
		for _, ex := range regions[i].exempt {
			for _, p := range ex {
				if usable(p) {
					cands = append(cands, p)
				}
			}
		}
	}
	// boundary-boundary crossings between the feasible loops and forbidden
	// regions, and between forbidden regions themselves
	var boundaries []model.Outline
	boundaries = append(boundaries, feasible...)
	boundaries = append(boundaries, clips...)
	for i := 0; i < len(boundaries); i++ {
		for j := i + 1; j < len(boundaries); j++ {
			for _, p := range loopIntersections(boundaries[i], boundaries[j]) {
				if usable(p) {
					cands = append(cands, p)
				}
			}
		}
	}
	return dedupePoints(cands)
}

func loopIntersections(a, b model.Outline) []model.Point {
	na, nb := len(a), len(b)
	var points []model.Point
	for i := 0; i < na; i++ {
		for j := 0; j < nb; j++ {
			if p, ok := geometry.SegmentIntersection(a[i], a[(i+1)%na], b[j], b[(j+1)%nb]); ok {
				points = append(points, p)
			}
		}
	}
	return points
}

// choosePosition picks the candidate minimising the bounding width of all
// placed parts; ties break on the candidate's x, then y coordinate.
func choosePosition(cands []model.Point, vb model.Bounds, merged model.Bounds, hasMerged bool) (model.Point, bool) {
	if len(cands) == 0 {
		return model.Point{}, false
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].X != cands[j].X {
			return cands[i].X < cands[j].X
		}
		return cands[i].Y < cands[j].Y
	})
	best := cands[0]
	bestWidth := math.Inf(1)
	for _, c := range cands {
		tb := translatedBounds(vb, c)
		m := tb
		if hasMerged {
			m = merged.Merge(tb)
		}
		if m.Width < bestWidth-geometry.Epsilon {
			bestWidth = m.Width
			best = c
		}
	}
	return best, true
}

// splitInner separates an inner NFP value into feasible loops and island
// regions (clockwise loops are forbidden islands).
func splitInner(loops []model.Outline) ([]model.Outline, []forbiddenRegion) {
	var feasible []model.Outline
	var regions []forbiddenRegion
	for _, loop := range loops {
		if geometry.Area(loop) >= 0 {
			feasible = append(feasible, loop)
		} else {
			regions = append(regions, forbiddenRegion{outers: []model.Outline{loop}})
		}
	}
	return feasible, regions
}

func translatedBounds(b model.Bounds, t model.Point) model.Bounds {
	return model.Bounds{X: b.X + t.X, Y: b.Y + t.Y, Width: b.Width, Height: b.Height}
}

// blockedBounds covers every translation that could bring p's bounds into
// contact with q's placed bounds.
func blockedBounds(q placedPart, p *part, angle float64) model.Bounds {
	qb := translatedBounds(q.p.variants[q.angle].bounds, q.t)
	pb := p.variants[angle].bounds
	return model.Bounds{
		X:      qb.X - pb.MaxX(),
		Y:      qb.Y - pb.MaxY(),
		Width:  qb.Width + pb.Width,
		Height: qb.Height + pb.Height,
	}
}

func boundsOutline(b model.Bounds) model.Outline {
	return model.Outline{
		{X: b.X, Y: b.Y},
		{X: b.MaxX(), Y: b.Y},
		{X: b.MaxX(), Y: b.MaxY()},
		{X: b.X, Y: b.MaxY()},
	}
}

func dedupePoints(points []model.Point) []model.Point {
	result := make([]model.Point, 0, len(points))
	for _, p := range points {
		dup := false
		for _, q := range result {
			if geometry.SamePoint(p, q) {
				dup = true
				break
			}
		}
		if !dup {
			result = append(result, p)
		}
	}
	return result
}
