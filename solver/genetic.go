package solver

import (
	"context"
	"fmt"
	"math/rand"

	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"

	"github.com/tomer-shavit/traffic-system/citysim"
	"github.com/tomer-shavit/traffic-system/reporter"
)

// GeneticSolver searches schedule space with a standard generational GA:
// uniform crossover, per-gene mutation, tournament selection, and one-elite
// replacement per generation.
type GeneticSolver struct {
	Base

	PopulationSize int
	MutationRate   float64
	Generations    int
	TournamentSize int
	Workers        int

	rng *rand.Rand
}

func NewGeneticSolver(n, m, t, populationSize int, mutationRate float64, generations, tournamentSize, workers int, rep *reporter.Reporter, rng *rand.Rand) *GeneticSolver {
	if tournamentSize <= 0 {
		tournamentSize = 50
	}
	if workers <= 0 {
		workers = 1
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	return &GeneticSolver{
		Base:           NewBase(n, m, t, rep),
		PopulationSize: populationSize,
		MutationRate:   mutationRate,
		Generations:    generations,
		TournamentSize: tournamentSize,
		Workers:        workers,
		rng:            rng,
	}
}

// Solve runs the full generational search against a batch of numCities
// freshly generated cities, returning the best schedule found.
func (s *GeneticSolver) Solve(numCities, numCars int) (Schedule, error) {
	if s.PopulationSize <= 0 {
		return nil, fmt.Errorf("genetic: population size must be positive, got %d", s.PopulationSize)
	}

	population := s.initializePopulation()
	cities := citysim.GenerateCities(s.N, s.M, numCars, numCities, s.rng)

	var best Schedule
	for gen := 0; gen < s.Generations; gen++ {
		fitness, err := s.evaluatePopulation(population, cities)
		if err != nil {
			return nil, err
		}

		bestIdx := argmax(fitness)
		best = population[bestIdx]

		if s.Reporter != nil {
			s.Reporter.RecordBestSolution(fitness[bestIdx], best)
		}
		if _, err := s.EvaluateSolution(best, cities, true); err != nil {
			return nil, err
		}

		parents := s.tournamentSelect(population, fitness)
		children := s.createChildren(parents)
		children[s.rng.Intn(len(children))] = best
		population = children
	}

	return best, nil
}

func argmax(values []float64) int {
	best := 0
	for i, v := range values {
		if v > values[best] {
			best = i
		}
	}
	return best
}

func (s *GeneticSolver) initializePopulation() []Schedule {
	pop := make([]Schedule, s.PopulationSize)
	for i := range pop {
		pop[i] = s.randomSchedule()
	}
	return pop
}

func (s *GeneticSolver) randomSchedule() Schedule {
	schedule := make(Schedule, s.T)
	for t := range schedule {
		schedule[t] = s.randomAssignment()
	}
	return schedule
}

func (s *GeneticSolver) randomAssignment() citysim.Assignment {
	a := make(citysim.Assignment, s.N)
	for i := range a {
		a[i] = make([]citysim.Direction, s.M)
		for j := range a[i] {
			if s.rng.Float64() < 0.5 {
				a[i][j] = citysim.Horizontal
			} else {
				a[i][j] = citysim.Vertical
			}
		}
	}
	return a
}

func uniformCrossover(rng *rand.Rand, p1, p2 Schedule) Schedule {
	child := make(Schedule, len(p1))
	for t := range p1 {
		a := make(citysim.Assignment, len(p1[t]))
		for i := range a {
			a[i] = make([]citysim.Direction, len(p1[t][i]))
			for j := range a[i] {
				if rng.Float64() < 0.5 {
					a[i][j] = p1[t][i][j]
				} else {
					a[i][j] = p2[t][i][j]
				}
			}
		}
		child[t] = a
	}
	return child
}

func mutate(rng *rand.Rand, rate float64, schedule Schedule) Schedule {
	for t := range schedule {
		for i := range schedule[t] {
			for j := range schedule[t][i] {
				if rng.Float64() < rate {
					if schedule[t][i][j] == citysim.Horizontal {
						schedule[t][i][j] = citysim.Vertical
					} else {
						schedule[t][i][j] = citysim.Horizontal
					}
				}
			}
		}
	}
	return schedule
}

// tournamentSelect draws PopulationSize winners, each from an independent
// tournament of TournamentSize individuals picked without replacement
// within the tournament, but with replacement across tournaments.
func (s *GeneticSolver) tournamentSelect(population []Schedule, fitness []float64) []Schedule {
	selected := make([]Schedule, s.PopulationSize)
	size := s.TournamentSize
	if size > len(population) {
		size = len(population)
	}
	for k := 0; k < s.PopulationSize; k++ {
		indices := s.rng.Perm(len(population))[:size]
		best := indices[0]
		for _, idx := range indices[1:] {
			if fitness[idx] > fitness[best] {
				best = idx
			}
		}
		selected[k] = population[best]
	}
	return selected
}

// createChildren pairs up parents at random and produces two
// uniform-crossover-then-mutate children per pair, filling the next
// generation's population.
func (s *GeneticSolver) createChildren(parents []Schedule) []Schedule {
	children := make([]Schedule, s.PopulationSize)
	for i := 0; i < s.PopulationSize; i += 2 {
		p1, p2 := s.rng.Intn(len(parents)), s.rng.Intn(len(parents))
		for p2 == p1 && len(parents) > 1 {
			p2 = s.rng.Intn(len(parents))
		}
		children[i] = mutate(s.rng, s.MutationRate, uniformCrossover(s.rng, parents[p1], parents[p2]))
		if i+1 < s.PopulationSize {
			children[i+1] = mutate(s.rng, s.MutationRate, uniformCrossover(s.rng, parents[p2], parents[p1]))
		}
	}
	return children
}

type evalResult struct {
	index int
	score float64
}

// evaluatePopulation scores every individual against the same batch of
// cities, in parallel. Each worker gets its own clone of the cities (one
// clone per worker, not per individual) so that "reset between uses on the
// same worker" is always a single-writer guarantee -- concurrent workers
// never touch the same junction maps. Results fan in through a single
// channel via channerics.Merge, the same fan-in shape the teacher's training
// loop uses for its per-worker episode channels.
func (s *GeneticSolver) evaluatePopulation(population []Schedule, cities []*citysim.City) ([]float64, error) {
	fitness := make([]float64, len(population))
	workers := s.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(population) {
		workers = len(population)
	}

	g, ctx := errgroup.WithContext(context.Background())
	g.SetLimit(workers)
	done := ctx.Done()

	chunks := partitionIndices(len(population), workers)
	resultChans := make([]<-chan evalResult, 0, workers)
	for _, chunk := range chunks {
		chunk := chunk
		out := make(chan evalResult, len(chunk))
		resultChans = append(resultChans, out)
		g.Go(func() error {
			defer close(out)
			workerCities := cloneCities(cities)
			for _, idx := range chunk {
				score, err := s.EvaluateSolution(population[idx], workerCities, false)
				if err != nil {
					return err
				}
				select {
				case out <- evalResult{index: idx, score: score}:
				case <-done:
					return ctx.Err()
				}
			}
			return nil
		})
	}

	for res := range channerics.Merge(done, resultChans...) {
		fitness[res.index] = res.score
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return fitness, nil
}

func cloneCities(cities []*citysim.City) []*citysim.City {
	clones := make([]*citysim.City, len(cities))
	for i, c := range cities {
		clones[i] = c.Clone()
	}
	return clones
}

func partitionIndices(n, workers int) [][]int {
	chunks := make([][]int, workers)
	for i := 0; i < n; i++ {
		w := i % workers
		chunks[w] = append(chunks[w], i)
	}
	return chunks
}
