package citysim

import (
	"math/rand"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func straightCar(id string, x1, y1, x2, y2 int) *Car {
	rng := rand.New(rand.NewSource(1))
	return NewCar(id, Coordinate{X: x1, Y: y1}, Coordinate{X: x2, Y: y2}, 0, noHighway, rng)
}

func TestJunctionCapacity(t *testing.T) {
	Convey("Given a regular (non-highway) junction with more horizontal cars than its cap", t, func() {
		light := NewTrafficLight() // defaults to Horizontal
		j := NewJunction(light, false, false)

		for i := 0; i < RegularCapacity+5; i++ {
			car := straightCar("h_car", 0, 0, 0, 5)
			car.ID = "h_car_" + string(rune('a'+i))
			j.Add(car)
		}

		Convey("Resolve caps the moving set at RegularCapacity", func() {
			d, movers := j.Resolve()
			So(d, ShouldEqual, Horizontal)
			So(len(movers), ShouldEqual, RegularCapacity)
		})

		Convey("every present car's wait counter increments regardless of selection", func() {
			j.Resolve()
			for _, id := range j.order {
				So(j.wait[id], ShouldEqual, 1)
			}
		})
	})

	Convey("Given a horizontal-highway junction with more horizontal cars than the regular cap", t, func() {
		light := NewTrafficLight()
		j := NewJunction(light, true, false)
		for i := 0; i < RegularCapacity+5; i++ {
			car := straightCar("h_car", 0, 0, 0, 5)
			car.ID = "h_car_" + string(rune('a'+i))
			j.Add(car)
		}

		Convey("Resolve allows up to HighwayCapacity through", func() {
			_, movers := j.Resolve()
			So(len(movers), ShouldEqual, RegularCapacity+5)
		})
	})
}

func TestJunctionResolvePrefersHigherWait(t *testing.T) {
	Convey("Given a junction with two horizontal cars, one with a higher accumulated wait", t, func() {
		light := NewTrafficLight()
		j := NewJunction(light, false, false)

		waited := straightCar("waited", 0, 0, 0, 5)
		waited.ID = "waited"
		fresh := straightCar("fresh", 0, 0, 0, 5)
		fresh.ID = "fresh"

		j.Add(waited)
		j.wait["waited"] = 3
		j.Add(fresh)

		Convey("both still fit under capacity, so both move, but order favors the higher-wait car", func() {
			_, movers := j.Resolve()
			So(len(movers), ShouldEqual, 2)
			So(movers[0].ID, ShouldEqual, "waited")
		})
	})
}

func TestJunctionRemoveMarksArrival(t *testing.T) {
	Convey("Given a car whose current location equals its destination", t, func() {
		light := NewTrafficLight()
		j := NewJunction(light, false, false)
		car := straightCar("arriving", 2, 2, 2, 2)
		j.Add(car)

		Convey("Remove marks it arrived", func() {
			j.Remove(car)
			So(car.Arrived(), ShouldBeTrue)
			So(len(j.Cars()), ShouldEqual, 0)
		})
	})
}

func TestJunctionRemoveLeavesWaitTallyIntact(t *testing.T) {
	Convey("Given a car that has accumulated wait at a junction", t, func() {
		light := NewTrafficLight()
		j := NewJunction(light, false, false)
		car := straightCar("departing", 0, 0, 0, 5)
		j.Add(car)
		j.wait[car.ID] = 4

		Convey("Remove takes the car off the junction but leaves its wait entry for reporting", func() {
			j.Remove(car)
			So(len(j.Cars()), ShouldEqual, 0)
			So(j.Wait(car.ID), ShouldEqual, 4)
			So(j.TotalWait(), ShouldEqual, 4)
		})
	})
}
