package citysim

// stateChannels is the number of values encoded per junction in State():
// vertical-queued count, horizontal-queued count, is-vertical-highway,
// is-horizontal-highway.
const stateChannels = 4

// Neighborhood is a windowed, deep-copied sandbox of a City's state used for
// short rollouts: training the PPO policy on local consequences without
// mutating the real city, and forking further copies mid-rollout.
type Neighborhood struct {
	OriginalNumOfCars int
	Cars              []*Car
	Grid              *Grid
	System            *TrafficSystem
	ShiftX, ShiftY    int
}

func NewNeighborhood(cars []*Car, grid *Grid, system *TrafficSystem, shiftX, shiftY int) *Neighborhood {
	return &Neighborhood{
		OriginalNumOfCars: len(cars),
		Cars:              cars,
		Grid:              grid,
		System:            system,
		ShiftX:            shiftX,
		ShiftY:            shiftY,
	}
}

// DeepCopyNeighborhood forks an independent copy of a neighborhood: the same
// cars (by value, path progress preserved) and highway layout, but a
// fresh grid/lights/traffic system, so the fork can be simulated further
// without affecting the original.
func DeepCopyNeighborhood(other *Neighborhood) *Neighborhood {
	n, m := other.Grid.Dims()
	lights := makeLights(n, m)

	var vertical, horizontal []Coordinate
	for i := 0; i < n; i++ {
		for j := 0; j < m; j++ {
			junction := other.Grid.Junction(Coordinate{X: i, Y: j})
			if junction.IsVHighway {
				vertical = append(vertical, Coordinate{X: i, Y: j})
			}
			if junction.IsHHighway {
				horizontal = append(horizontal, Coordinate{X: i, Y: j})
			}
		}
	}
	grid := NewGridWithHighways(lights, vertical, horizontal)
	system := NewTrafficSystem(lights)

	cars := make([]*Car, 0, len(other.Cars))
	for _, car := range other.Cars {
		cp := CopyCar(car)
		loc := cp.CurrentLocation()
		local := Coordinate{X: loc.X - other.ShiftX, Y: loc.Y - other.ShiftY}
		if local.X >= 0 && local.X < n && local.Y >= 0 && local.Y < m {
			grid.AddCarToJunction(cp, local)
		}
		cars = append(cars, cp)
	}

	return NewNeighborhood(cars, grid, system, other.ShiftX, other.ShiftY)
}

// State encodes the window as a flat row-major sequence of per-junction
// 4-tuples: (vertical-moving cars queued, horizontal-moving cars queued,
// is-vertical-highway, is-horizontal-highway).
func (n *Neighborhood) State() []int {
	rows, cols := n.Grid.Dims()
	state := make([]int, 0, rows*cols*stateChannels)
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			junction := n.Grid.Junction(Coordinate{X: i, Y: j})
			var vCars, hCars int
			for _, car := range junction.Cars() {
				if car.CurrentDirection() == Vertical {
					vCars++
				} else {
					hCars++
				}
			}
			isV, isH := 0, 0
			if junction.IsVHighway {
				isV = 1
			}
			if junction.IsHHighway {
				isH = 1
			}
			state = append(state, vCars, hCars, isV, isH)
		}
	}
	return state
}

// UpdateNeighborhood applies assignment to the window's lights, drops cars
// that have escaped the window or reached their real destination, and
// resolves one tick of movement.
func (n *Neighborhood) UpdateNeighborhood(assignment Assignment) error {
	if err := n.System.Apply(assignment); err != nil {
		return err
	}
	n.removeOutOfWindowOrArrived()
	n.Grid.ResolveSubGrid()
	return nil
}

// removeOutOfWindowOrArrived marks a car arrived if its real (global) path
// position, translated into this window's local frame, has left the window's
// bounds (ResolveSubGrid already took it off the grid), and removes it from
// the window grid if it has reached its real destination.
// Translating before the bounds check matters: cars were inserted into this
// window's grid at their shift-translated local position in the first
// place (see City.GetNeighborhood), so the same translation must be used to
// tell whether they're still inside it.
func (n *Neighborhood) removeOutOfWindowOrArrived() {
	rows, cols := n.Grid.Dims()
	for _, car := range n.Cars {
		loc := car.CurrentLocation()
		local := Coordinate{X: loc.X - n.ShiftX, Y: loc.Y - n.ShiftY}
		outOfWindow := local.X < 0 || local.X >= rows || local.Y < 0 || local.Y >= cols
		if outOfWindow {
			car.SetArrived(true)
			continue
		}
		if loc == car.Destination && !car.Arrived() {
			n.Grid.Junction(local).Remove(car)
		}
	}
}

func (n *Neighborhood) ActiveCarsAmount() int {
	total := 0
	rows, cols := n.Grid.Dims()
	for i := 0; i < rows; i++ {
		for j := 0; j < cols; j++ {
			total += len(n.Grid.Junction(Coordinate{X: i, Y: j}).Cars())
		}
	}
	return total
}
