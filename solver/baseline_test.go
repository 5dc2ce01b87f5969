package solver

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/tomer-shavit/traffic-system/citysim"
)

func TestBaselineSolverAlternates(t *testing.T) {
	Convey("Given a baseline solver over a 10-tick horizon", t, func() {
		s := NewBaselineSolver(4, 4, 10, nil)
		schedule := s.Solve()

		Convey("it has exactly T assignments", func() {
			So(len(schedule), ShouldEqual, 10)
		})

		Convey("even ticks are uniformly horizontal, odd ticks uniformly vertical", func() {
			for t, assignment := range schedule {
				want := citysim.Horizontal
				if t%2 == 1 {
					want = citysim.Vertical
				}
				for _, row := range assignment {
					for _, d := range row {
						So(d, ShouldEqual, want)
					}
				}
			}
		})
	})
}
