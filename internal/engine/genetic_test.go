package engine

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/CeranaStudio/pynest/internal/model"
)

func makeTestParts(areas ...float64) []*part {
	parts := make([]*part, len(areas))
	for i, area := range areas {
		parts[i] = &part{
			id:        string(rune('a' + i)),
			index:     i,
			area:      area,
			rotations: []float64{0, 90, 180, 270},
		}
	}
	return parts
}

func makeTestGA(parts []*part, seed int64) *geneticNester {
	return &geneticNester{
		cfg: nestSettings{
			populationSize: 6,
			mutationRate:   10,
			maxGenerations: 10,
			workers:        1,
		},
		parts: parts,
		rng:   rand.New(rand.NewSource(seed)),
	}
}

func assertPermutation(t *testing.T, order []int, n int) {
	t.Helper()
	require.Len(t, order, n)
	seen := make([]bool, n)
	for _, idx := range order {
		require.GreaterOrEqual(t, idx, 0)
		require.Less(t, idx, n)
		require.False(t, seen[idx], "duplicate gene %d", idx)
		seen[idx] = true
	}
}

func TestInitialPopulationSeedsGreedyIndividual(t *testing.T) {
	parts := makeTestParts(100, 900, 400, 2500)
	g := makeTestGA(parts, 1)

	pop := g.initialPopulation()
	require.Len(t, pop, 6)

	// individual 0: parts by area descending, all rotations zero
	assert.Equal(t, []int{3, 1, 2, 0}, pop[0].order)
	assert.Equal(t, []float64{0, 0, 0, 0}, pop[0].rotations)

	for _, ind := range pop {
		assertPermutation(t, ind.order, 4)
	}
}

func TestCrossoverPreservesPermutation(t *testing.T) {
	parts := makeTestParts(1, 2, 3, 4, 5, 6)
	g := makeTestGA(parts, 2)

	p1 := &individual{order: []int{0, 1, 2, 3, 4, 5}, rotations: []float64{0, 90, 180, 270, 0, 90}}
	p2 := &individual{order: []int{5, 4, 3, 2, 1, 0}, rotations: []float64{90, 0, 90, 0, 90, 0}}

	for i := 0; i < 50; i++ {
		child := g.crossover(p1, p2)
		assertPermutation(t, child.order, 6)
		require.Len(t, child.rotations, 6)
	}
}

func TestCrossoverTakesPrefixFromFirstParent(t *testing.T) {
	parts := makeTestParts(1, 2, 3, 4)
	g := makeTestGA(parts, 3)

	p1 := &individual{order: []int{0, 1, 2, 3}, rotations: make([]float64, 4)}
	p2 := &individual{order: []int{3, 2, 1, 0}, rotations: make([]float64, 4)}

	child := g.crossover(p1, p2)
	// the child always starts with p1's first gene
	assert.Equal(t, 0, child.order[0])
}

func TestMutatePreservesPermutation(t *testing.T) {
	parts := makeTestParts(1, 2, 3, 4, 5)
	g := makeTestGA(parts, 4)
	g.cfg.mutationRate = 50

	ind := &individual{order: []int{0, 1, 2, 3, 4}, rotations: make([]float64, 5)}
	for i := 0; i < 50; i++ {
		g.mutate(ind)
		assertPermutation(t, ind.order, 5)
		for pos, rot := range ind.rotations {
			assert.Contains(t, parts[ind.order[pos]].rotations, rot)
		}
	}
}

func TestMutationResamplesFromAllowedSet(t *testing.T) {
	parts := makeTestParts(1, 2)
	parts[0].rotations = []float64{0, 180}
	parts[1].rotations = []float64{0}
	g := makeTestGA(parts, 5)
	g.cfg.mutationRate = 50

	ind := &individual{order: []int{0, 1}, rotations: []float64{0, 0}}
	for i := 0; i < 100; i++ {
		g.mutate(ind)
	}
	for pos, rot := range ind.rotations {
		assert.Contains(t, parts[ind.order[pos]].rotations, rot)
	}
}

func TestTournamentReturnsPopulationMember(t *testing.T) {
	parts := makeTestParts(1, 2, 3)
	g := makeTestGA(parts, 6)

	pop := []*individual{
		{order: []int{0, 1, 2}, rotations: make([]float64, 3)},
		{order: []int{1, 0, 2}, rotations: make([]float64, 3)},
		{order: []int{2, 1, 0}, rotations: make([]float64, 3)},
	}
	for i := 0; i < 20; i++ {
		winner := g.tournament(pop)
		assert.Contains(t, pop, winner)
	}
}

func TestPopulationStats(t *testing.T) {
	pop := []*individual{
		{record: fitnessRecord{fitness: 10}},
		{record: fitnessRecord{fitness: 20}},
		{record: fitnessRecord{fitness: 30}},
	}
	s := populationStats(pop)
	assert.Equal(t, 10.0, s.Best)
	assert.Equal(t, 30.0, s.Worst)
	assert.InDelta(t, 20.0, s.Mean, 1e-12)
}

func TestBreedKeepsElite(t *testing.T) {
	parts := makeTestParts(1, 2, 3)
	g := makeTestGA(parts, 7)

	pop := []*individual{
		{order: []int{2, 1, 0}, rotations: make([]float64, 3), record: fitnessRecord{fitness: 1}, evaluated: true},
		{order: []int{0, 1, 2}, rotations: make([]float64, 3), record: fitnessRecord{fitness: 2}, evaluated: true},
		{order: []int{1, 0, 2}, rotations: make([]float64, 3), record: fitnessRecord{fitness: 3}, evaluated: true},
	}
	sort.SliceStable(pop, func(i, j int) bool { return pop[i].record.fitness < pop[j].record.fitness })

	next := g.breed(pop)
	require.Len(t, next, g.cfg.populationSize)
	assert.Equal(t, pop[0].order, next[0].order)
	assert.True(t, next[0].evaluated, "the elite keeps its evaluation")
	for _, ind := range next[1:] {
		assertPermutation(t, ind.order, 3)
	}
}
