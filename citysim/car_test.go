package citysim

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func noHighway(Coordinate) []Direction { return nil }

func TestCarPath(t *testing.T) {
	Convey("Given a car built from a fixed-seed rng", t, func() {
		rng := rand.New(rand.NewSource(42))
		source := Coordinate{X: 0, Y: 0}
		dest := Coordinate{X: 3, Y: 4}
		car := NewCar("Car_0", source, dest, 0, noHighway, rng)

		Convey("its path starts at the source and ends at the destination", func() {
			path := car.Path()
			So(path[0], ShouldResemble, source)
			So(path[len(path)-1], ShouldResemble, dest)
		})

		Convey("every step moves monotonically toward the destination", func() {
			path := car.Path()
			for i := 1; i < len(path); i++ {
				So(path[i].X, ShouldBeGreaterThanOrEqualTo, path[i-1].X)
				So(path[i].Y, ShouldBeGreaterThanOrEqualTo, path[i-1].Y)
				So(path[i].X, ShouldBeLessThanOrEqualTo, dest.X)
				So(path[i].Y, ShouldBeLessThanOrEqualTo, dest.Y)
			}
		})

		Convey("each step moves along exactly one axis", func() {
			path := car.Path()
			for i := 1; i < len(path); i++ {
				dx := path[i].X - path[i-1].X
				dy := path[i].Y - path[i-1].Y
				So(dx == 0 || dy == 0, ShouldBeTrue)
				So(dx+dy, ShouldEqual, 1)
			}
		})

		Convey("Advance moves one step at a time and never overruns the path", func() {
			steps := len(car.Path()) - 1
			for i := 0; i < steps+5; i++ {
				car.Advance()
			}
			So(car.CurrentLocation(), ShouldResemble, dest)
		})
	})
}

func TestCarHighwayOverride(t *testing.T) {
	Convey("Given a highway lookup forcing vertical movement everywhere", t, func() {
		rng := rand.New(rand.NewSource(1))
		vertical := func(Coordinate) []Direction { return []Direction{Vertical} }
		car := NewCar("Car_hw", Coordinate{X: 0, Y: 0}, Coordinate{X: 5, Y: 0}, 0, vertical, rng)

		Convey("the path moves straight down the column", func() {
			path := car.Path()
			for _, c := range path {
				So(c.Y, ShouldEqual, 0)
			}
			So(path[len(path)-1].X, ShouldEqual, 5)
		})
	})
}

func TestCarCopy(t *testing.T) {
	Convey("Given a car copied mid-path", t, func() {
		rng := rand.New(rand.NewSource(7))
		car := NewCar("Car_0", Coordinate{X: 0, Y: 0}, Coordinate{X: 2, Y: 2}, 0, noHighway, rng)
		car.Advance()
		cp := CopyCar(car)

		Convey("the copy shares position and identity but is independent", func() {
			So(cp.ID, ShouldEqual, car.ID)
			So(cp.CurrentLocation(), ShouldResemble, car.CurrentLocation())
			cp.Advance()
			So(cp.CurrentLocation(), ShouldNotResemble, car.CurrentLocation())
		})
	})
}
