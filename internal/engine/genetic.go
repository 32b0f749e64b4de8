package engine

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"sync"

	"gonum.org/v1/gonum/stat"
)

// tournamentBias is the probability that a binary tournament returns the
// fitter of the two contestants.
const tournamentBias = 0.75

// Stats summarises the fitness distribution of one generation.
type Stats struct {
	Best  float64
	Worst float64
	Mean  float64
}

// geneticNester searches the space of (permutation, rotation-vector) tuples.
// All randomness flows through one seeded source consumed sequentially in
// the GA loop, so runs are reproducible regardless of evaluation
// parallelism.
type geneticNester struct {
	cfg           nestSettings
	parts         []*part
	worker        *placementWorker
	rng           *rand.Rand
	containerArea float64
	progress      ProgressFunc
	stats         StatsFunc
}

// nestSettings narrows the full config to what the GA loop consumes.
type nestSettings struct {
	populationSize int
	mutationRate   int
	maxGenerations int
	workers        int
}

type gaOutcome struct {
	best        fitnessRecord
	generations int
	cancelled   bool
}

func (g *geneticNester) run(ctx context.Context) gaOutcome {
	pop := g.initialPopulation()
	out := gaOutcome{best: fitnessRecord{fitness: math.Inf(1)}}

	stagnationLimit := g.cfg.maxGenerations / 5
	if stagnationLimit < 20 {
		stagnationLimit = 20
	}
	stagnant := 0

	for gen := 0; gen < g.cfg.maxGenerations; gen++ {
		if ctx.Err() != nil {
			out.cancelled = true
			break
		}
		g.evaluate(ctx, pop)
		if ctx.Err() != nil {
			// records interrupted mid-placement must not compete with
			// fully evaluated ones
			out.cancelled = true
			break
		}
		// rank by fitness with a stable tie-break on individual index
		sort.SliceStable(pop, func(i, j int) bool {
			return pop[i].record.fitness < pop[j].record.fitness
		})
		out.generations = gen + 1

		if pop[0].record.fitness < out.best.fitness {
			out.best = pop[0].record
			stagnant = 0
		} else {
			stagnant++
		}

		if g.progress != nil {
			g.progress(gen, out.best.fitness, g.utilization(out.best))
		}
		if g.stats != nil {
			g.stats(gen, populationStats(pop))
		}
		if ctx.Err() != nil {
			out.cancelled = true
			break
		}
		if stagnant >= stagnationLimit {
			break
		}
		if gen == g.cfg.maxGenerations-1 {
			break
		}
		pop = g.breed(pop)
	}
	return out
}

func (g *geneticNester) utilization(rec fitnessRecord) float64 {
	if g.containerArea <= 0 {
		return 0
	}
	return rec.placedArea / g.containerArea
}

// initialPopulation seeds individual 0 with the parts ordered by area
// descending and zero rotation, and fills the rest with mutated copies.
func (g *geneticNester) initialPopulation() []*individual {
	n := len(g.parts)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return g.parts[order[i]].area > g.parts[order[j]].area
	})

	base := &individual{order: order, rotations: make([]float64, n)}
	pop := make([]*individual, 0, g.cfg.populationSize)
	pop = append(pop, base)
	for len(pop) < g.cfg.populationSize {
		mutant := base.clone()
		g.mutate(mutant)
		pop = append(pop, mutant)
	}
	return pop
}

// evaluate runs the placement worker over every not-yet-evaluated
// individual, up to workers evaluations in flight at once. Results land in
// the individuals themselves, indexed deterministically.
func (g *geneticNester) evaluate(ctx context.Context, pop []*individual) {
	sem := make(chan struct{}, g.cfg.workers)
	var wg sync.WaitGroup
	for _, ind := range pop {
		if ind.evaluated {
			continue
		}
		wg.Add(1)
		go func(ind *individual) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			ind.record = g.worker.place(ctx, ind)
			ind.evaluated = true
		}(ind)
	}
	wg.Wait()
}

// breed produces the next generation: the best individual survives
// unchanged, the rest are tournament-selected, crossed over and mutated
// offspring. pop must already be sorted by rank.
func (g *geneticNester) breed(pop []*individual) []*individual {
	next := make([]*individual, 0, g.cfg.populationSize)
	next = append(next, pop[0].cloneEvaluated())
	for len(next) < g.cfg.populationSize {
		p1 := g.tournament(pop)
		p2 := g.tournament(pop)
		child := g.crossover(p1, p2)
		g.mutate(child)
		next = append(next, child)
	}
	return next
}

// tournament picks two random contestants and returns the better ranked one
// with probability tournamentBias.
func (g *geneticNester) tournament(pop []*individual) *individual {
	i := g.rng.Intn(len(pop))
	j := g.rng.Intn(len(pop))
	better, worse := i, j
	if j < i {
		better, worse = j, i
	}
	if g.rng.Float64() < tournamentBias {
		return pop[better]
	}
	return pop[worse]
}

// crossover applies order-preserving crossover: the child takes parent1's
// prefix up to a random cut, then parent2's remaining genes in parent2's
// order. Rotations travel with their genes.
func (g *geneticNester) crossover(p1, p2 *individual) *individual {
	n := len(p1.order)
	if n < 2 {
		return p1.clone()
	}
	cut := 1 + g.rng.Intn(n-1)

	child := &individual{
		order:     make([]int, 0, n),
		rotations: make([]float64, 0, n),
	}
	taken := make(map[int]bool, n)
	for i := 0; i < cut; i++ {
		child.order = append(child.order, p1.order[i])
		child.rotations = append(child.rotations, p1.rotations[i])
		taken[p1.order[i]] = true
	}
	for i := 0; i < n; i++ {
		if !taken[p2.order[i]] {
			child.order = append(child.order, p2.order[i])
			child.rotations = append(child.rotations, p2.rotations[i])
		}
	}
	return child
}

// mutate swaps adjacent genes and resamples rotations, each with the
// configured per-gene probability.
func (g *geneticNester) mutate(ind *individual) {
	rate := float64(g.cfg.mutationRate) / 100
	n := len(ind.order)
	for i := 0; i < n-1; i++ {
		if g.rng.Float64() < rate {
			ind.order[i], ind.order[i+1] = ind.order[i+1], ind.order[i]
			ind.rotations[i], ind.rotations[i+1] = ind.rotations[i+1], ind.rotations[i]
		}
	}
	for i := 0; i < n; i++ {
		if g.rng.Float64() < rate {
			ind.rotations[i] = g.randomRotation(ind.order[i])
		}
	}
	ind.evaluated = false
}

func (g *geneticNester) randomRotation(partIndex int) float64 {
	allowed := g.parts[partIndex].rotations
	if len(allowed) == 0 {
		return 0
	}
	return allowed[g.rng.Intn(len(allowed))]
}

func populationStats(pop []*individual) Stats {
	fitnesses := make([]float64, len(pop))
	for i, ind := range pop {
		fitnesses[i] = ind.record.fitness
	}
	s := Stats{Best: fitnesses[0], Worst: fitnesses[0]}
	for _, f := range fitnesses {
		if f < s.Best {
			s.Best = f
		}
		if f > s.Worst {
			s.Worst = f
		}
	}
	s.Mean = stat.Mean(fitnesses, nil)
	return s
}
