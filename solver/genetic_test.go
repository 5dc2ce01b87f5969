package solver

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tomer-shavit/traffic-system/citysim"
	"github.com/tomer-shavit/traffic-system/reporter"
)

func TestUniformCrossoverPicksFromEitherParent(t *testing.T) {
	Convey("Given two distinct parent schedules", t, func() {
		rng := rand.New(rand.NewSource(1))
		p1 := Schedule{flatAssignment(2, 2, citysim.Horizontal)}
		p2 := Schedule{flatAssignment(2, 2, citysim.Vertical)}

		Convey("every gene in the child matches one parent or the other", func() {
			child := uniformCrossover(rng, p1, p2)
			for i := range child[0] {
				for j := range child[0][i] {
					g := child[0][i][j]
					So(g == p1[0][i][j] || g == p2[0][i][j], ShouldBeTrue)
				}
			}
		})
	})
}

func TestMutateFlipsEveryGeneAtRateOne(t *testing.T) {
	Convey("Given a uniformly horizontal schedule and mutation rate 1.0", t, func() {
		rng := rand.New(rand.NewSource(1))
		schedule := Schedule{flatAssignment(3, 3, citysim.Horizontal)}

		Convey("every gene flips to vertical", func() {
			mutated := mutate(rng, 1.0, schedule)
			for _, row := range mutated[0] {
				for _, d := range row {
					So(d, ShouldEqual, citysim.Vertical)
				}
			}
		})
	})
}

func TestTournamentSelectReturnsPopulationSizeIndividuals(t *testing.T) {
	Convey("Given a population and fitness scores", t, func() {
		s := NewGeneticSolver(2, 2, 1, 6, 0, 1, 3, 1, nil, rand.New(rand.NewSource(3)))
		population := s.initializePopulation()
		fitness := []float64{0.1, 0.9, 0.2, 0.8, 0.3, 0.7}

		Convey("selection produces exactly PopulationSize individuals", func() {
			selected := s.tournamentSelect(population, fitness)
			So(len(selected), ShouldEqual, s.PopulationSize)
		})
	})
}

func TestGeneticSolverElitismIsMonotonic(t *testing.T) {
	Convey("Given a small genetic search over several generations", t, func() {
		rep := reporter.New()
		s := NewGeneticSolver(3, 3, 4, 10, 0.0, 3, 5, 1, rep, rand.New(rand.NewSource(6)))

		best, err := s.Solve(1, 3)

		Convey("Solve succeeds and returns a full-length schedule", func() {
			So(err, ShouldBeNil)
			So(len(best), ShouldEqual, s.T)
		})

		Convey("the recorded best fitness never decreases across generations", func() {
			records := rep.Snapshot().BestSolutions
			So(len(records), ShouldEqual, 3)
			for i := 1; i < len(records); i++ {
				So(records[i].Fitness, ShouldBeGreaterThanOrEqualTo, records[i-1].Fitness)
			}
		})
	})
}

func TestGeneticSolverRejectsNonPositivePopulation(t *testing.T) {
	Convey("Given a solver configured with zero population size", t, func() {
		s := NewGeneticSolver(2, 2, 1, 0, 0.1, 1, 1, 1, nil, rand.New(rand.NewSource(1)))

		Convey("Solve returns an error", func() {
			_, err := s.Solve(1, 1)
			So(err, ShouldNotBeNil)
		})
	})
}
