package citysim

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func buildSmallNeighborhood() (*City, *Neighborhood) {
	residential := []Coordinate{{0, 0}}
	industrial := []Coordinate{{7, 7}}
	city := NewCity(8, 8, 1, residential, industrial, rand.New(rand.NewSource(4)))
	city.Cars[0] = NewCar("Car_0", Coordinate{X: 0, Y: 0}, Coordinate{X: 1, Y: 1}, 0, city.Grid.CheckHighwayDirection, rand.New(rand.NewSource(4)))
	city.Grid.AddCarToJunction(city.Cars[0], Coordinate{X: 0, Y: 0})
	n := city.GetNeighborhood(Coordinate{X: 0, Y: 0}, Coordinate{X: 0, Y: 2}, Coordinate{X: 2, Y: 0})
	return city, n
}

func TestNeighborhoodState(t *testing.T) {
	Convey("Given a 3x3 neighborhood window with one car", t, func() {
		_, n := buildSmallNeighborhood()

		Convey("State returns 4 values per junction", func() {
			state := n.State()
			rows, cols := n.Grid.Dims()
			So(len(state), ShouldEqual, rows*cols*stateChannels)
		})

		Convey("ActiveCarsAmount counts the car present in the window", func() {
			So(n.ActiveCarsAmount(), ShouldEqual, 1)
		})
	})
}

func TestDeepCopyNeighborhoodIsIndependent(t *testing.T) {
	Convey("Given a neighborhood deep-copied", t, func() {
		_, n := buildSmallNeighborhood()
		forked := DeepCopyNeighborhood(n)

		Convey("the fork starts with the same active car count", func() {
			So(forked.ActiveCarsAmount(), ShouldEqual, n.ActiveCarsAmount())
		})

		Convey("advancing the fork does not affect the original", func() {
			assignment := allHorizontal(3, 3)
			forked.UpdateNeighborhood(assignment)
			// the original's grid and the fork's grid are distinct objects
			So(forked.Grid, ShouldNotEqual, n.Grid)
			So(n.Cars[0].CurrentLocation(), ShouldResemble, Coordinate{X: 0, Y: 0})
			So(n.ActiveCarsAmount(), ShouldEqual, 1)
		})
	})
}

func TestUpdateNeighborhoodRemovesArrivedCar(t *testing.T) {
	Convey("Given a neighborhood whose only car is already at its destination", t, func() {
		residential := []Coordinate{{0, 0}}
		industrial := []Coordinate{{0, 0}}
		city := NewCity(8, 8, 1, residential, industrial, rand.New(rand.NewSource(8)))
		city.Cars[0] = NewCar("Car_0", Coordinate{X: 1, Y: 1}, Coordinate{X: 1, Y: 1}, 0, city.Grid.CheckHighwayDirection, rand.New(rand.NewSource(8)))
		city.Grid.AddCarToJunction(city.Cars[0], Coordinate{X: 1, Y: 1})
		n := city.GetNeighborhood(Coordinate{X: 0, Y: 0}, Coordinate{X: 0, Y: 2}, Coordinate{X: 2, Y: 0})

		Convey("updating the neighborhood removes it from the grid", func() {
			n.UpdateNeighborhood(allHorizontal(3, 3))
			So(n.ActiveCarsAmount(), ShouldEqual, 0)
		})
	})
}
