package citysim

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestHighwayCoordinates(t *testing.T) {
	Convey("Given an 8x8 grid", t, func() {
		lights := makeLights(8, 8)
		grid := NewGrid(lights)

		Convey("a vertical highway column cell reports only Vertical", func() {
			dirs := grid.CheckHighwayDirection(Coordinate{X: 3, Y: 2})
			So(dirs, ShouldResemble, []Direction{Vertical})
		})

		Convey("a horizontal highway row cell reports only Horizontal", func() {
			dirs := grid.CheckHighwayDirection(Coordinate{X: 2, Y: 3})
			So(dirs, ShouldResemble, []Direction{Horizontal})
		})

		Convey("a plain interior cell reports both directions (no forced override)", func() {
			dirs := grid.CheckHighwayDirection(Coordinate{X: 0, Y: 0})
			So(dirs, ShouldResemble, []Direction{Horizontal, Vertical})
		})
	})
}

func TestResolveAllMovesTwoPhase(t *testing.T) {
	Convey("Given a 1x3 grid with a car at (0,0) facing horizontal with a green horizontal light", t, func() {
		lights := makeLights(1, 3)
		grid := NewGrid(lights)
		for i := range lights {
			for j := range lights[i] {
				lights[i][j].SetDirection(Horizontal)
			}
		}
		car := straightCar("mover", 0, 0, 0, 2)
		grid.AddCarToJunction(car, Coordinate{X: 0, Y: 0})

		Convey("after one resolve, the car has moved exactly one cell, not two", func() {
			grid.ResolveAllMoves()
			So(car.CurrentLocation(), ShouldResemble, Coordinate{X: 0, Y: 1})
			So(grid.TotalCarMovements, ShouldEqual, 1)
		})
	})
}

func TestResolveSubGridDropsCarLeavingWindow(t *testing.T) {
	Convey("Given a 1x2 sub-grid with a car at its rightmost edge still heading right", t, func() {
		lights := makeLights(1, 2)
		grid := NewGrid(lights)
		lights[0][0].SetDirection(Horizontal)
		lights[0][1].SetDirection(Horizontal)
		car := straightCar("edge", 0, 1, 0, 3)
		grid.AddCarToJunction(car, Coordinate{X: 0, Y: 1})

		Convey("resolving a tick removes it from the window without re-adding it anywhere", func() {
			grid.ResolveSubGrid()
			So(len(grid.Junction(Coordinate{X: 0, Y: 1}).Cars()), ShouldEqual, 0)
			So(grid.TotalCarMovements, ShouldEqual, 1)
		})
	})
}
