package citysim

import "sort"

// Capacity limits on how many cars a junction can wave through in one tick,
// depending on whether the moving direction is a highway at this cell.
const (
	HighwayCapacity = 20
	RegularCapacity = 10
)

// Junction holds the cars currently present at one grid cell, their
// accumulated per-car wait counters, and this cell's highway flags.
type Junction struct {
	light *TrafficLight

	cars  map[string]*Car
	order []string // insertion order, used to break wait ties deterministically
	wait  map[string]int

	IsHHighway bool
	IsVHighway bool
}

func NewJunction(light *TrafficLight, isHHighway, isVHighway bool) *Junction {
	return &Junction{
		light:      light,
		cars:       make(map[string]*Car),
		wait:       make(map[string]int),
		IsHHighway: isHHighway,
		IsVHighway: isVHighway,
	}
}

func (j *Junction) Add(car *Car) {
	if _, ok := j.cars[car.ID]; !ok {
		j.order = append(j.order, car.ID)
		j.wait[car.ID] = 0
	}
	j.cars[car.ID] = car
}

// Remove takes car off this junction's present set. Its accumulated wait
// entry is left in place -- the per-junction wait tally is a reporting
// artifact that outlives the car's presence, not a live-occupancy counter.
func (j *Junction) Remove(car *Car) {
	if _, ok := j.cars[car.ID]; !ok {
		return
	}
	delete(j.cars, car.ID)
	for i, id := range j.order {
		if id == car.ID {
			j.order = append(j.order[:i], j.order[i+1:]...)
			break
		}
	}
	if car.CurrentLocation() == car.Destination {
		car.SetArrived(true)
	}
}

func (j *Junction) Reset() {
	j.cars = make(map[string]*Car)
	j.order = nil
	j.wait = make(map[string]int)
}

func (j *Junction) Cars() []*Car {
	cars := make([]*Car, 0, len(j.order))
	for _, id := range j.order {
		cars = append(cars, j.cars[id])
	}
	return cars
}

func (j *Junction) Wait(carID string) int { return j.wait[carID] }

func (j *Junction) TotalWait() int {
	total := 0
	for _, w := range j.wait {
		total += w
	}
	return total
}

func (j *Junction) waitSnapshot() map[string]int {
	snap := make(map[string]int, len(j.wait))
	for k, v := range j.wait {
		snap[k] = v
	}
	return snap
}

func (j *Junction) capacityFor(d Direction) int {
	if (d == Horizontal && j.IsHHighway) || (d == Vertical && j.IsVHighway) {
		return HighwayCapacity
	}
	return RegularCapacity
}

// Resolve selects which present cars may move this tick (those facing the
// light's current green direction, sorted by descending wait and capped at
// the cell's capacity), and advances every present car's wait counter by
// one regardless of whether it was selected to move.
func (j *Junction) Resolve() (Direction, []*Car) {
	d := j.light.Direction()

	candidates := make([]*Car, 0, len(j.order))
	for _, id := range j.order {
		car := j.cars[id]
		if car.CurrentDirection() == d {
			candidates = append(candidates, car)
		}
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return j.wait[candidates[a].ID] > j.wait[candidates[b].ID]
	})
	if limit := j.capacityFor(d); len(candidates) > limit {
		candidates = candidates[:limit]
	}

	for _, id := range j.order {
		j.wait[id]++
	}

	return d, candidates
}
