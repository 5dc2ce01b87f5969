package solver

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tomer-shavit/traffic-system/citysim"
	"github.com/tomer-shavit/traffic-system/reporter"
)

func flatAssignment(n, m int, d citysim.Direction) citysim.Assignment {
	a := make(citysim.Assignment, n)
	for i := range a {
		a[i] = make([]citysim.Direction, m)
		for j := range a[i] {
			a[i][j] = d
		}
	}
	return a
}

func TestEvaluateSolutionEmptyCitiesIsDegenerate(t *testing.T) {
	Convey("Given a base evaluator and no cities", t, func() {
		b := NewBase(8, 8, 10, nil)

		Convey("EvaluateSolution returns the maximum score 4.0 without touching the schedule", func() {
			score, err := b.EvaluateSolution(nil, nil, false)
			So(err, ShouldBeNil)
			So(score, ShouldEqual, 4.0)
		})
	})
}

func TestEvaluateSolutionRejectsShortSchedule(t *testing.T) {
	Convey("Given a schedule shorter than the required horizon", t, func() {
		b := NewBase(4, 4, 10, nil)
		cities := citysim.GenerateCities(4, 4, 5, 1, rand.New(rand.NewSource(1)))
		schedule := make(Schedule, 3)
		for i := range schedule {
			schedule[i] = flatAssignment(4, 4, citysim.Horizontal)
		}

		Convey("EvaluateSolution returns an error", func() {
			_, err := b.EvaluateSolution(schedule, cities, false)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestEvaluateSolutionScoreIsBounded(t *testing.T) {
	Convey("Given a valid schedule and a small city batch", t, func() {
		b := NewBase(4, 4, 10, reporter.New())
		cities := citysim.GenerateCities(4, 4, 6, 2, rand.New(rand.NewSource(2)))
		schedule := make(Schedule, 10)
		for i := range schedule {
			if i%2 == 0 {
				schedule[i] = flatAssignment(4, 4, citysim.Horizontal)
			} else {
				schedule[i] = flatAssignment(4, 4, citysim.Vertical)
			}
		}

		Convey("the combined score falls within [0,4]", func() {
			score, err := b.EvaluateSolution(schedule, cities, true)
			So(err, ShouldBeNil)
			So(score, ShouldBeGreaterThanOrEqualTo, 0)
			So(score, ShouldBeLessThanOrEqualTo, 4)
		})

		Convey("reporting records one sample per series", func() {
			_, err := b.EvaluateSolution(schedule, cities, true)
			So(err, ShouldBeNil)
			snap := b.Reporter.Snapshot()
			So(len(snap.WaitTimes), ShouldEqual, 1)
			So(len(snap.NotReachingCars), ShouldEqual, 1)
			So(len(snap.MovingCars), ShouldEqual, 1)
			So(len(snap.WaitPunishment), ShouldEqual, 1)
			So(len(snap.AllCarsArrive), ShouldEqual, 1)
		})
	})
}

func TestWaitPunishmentSumsSquares(t *testing.T) {
	Convey("Given per-junction wait maps", t, func() {
		waits := [][]map[string]int{
			{
				{"car_a": 2, "car_b": 3},
			},
		}

		Convey("waitPunishment sums the squared individual waits", func() {
			So(waitPunishment(waits), ShouldEqual, 4.0+9.0)
		})
	})
}
