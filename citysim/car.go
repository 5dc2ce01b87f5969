package citysim

import "math/rand"

// NoiseCarPath is the probability that a freshly computed path step is
// flipped to the other axis, so generated paths aren't perfectly monotone
// in their axis choice even though they stay monotone in position.
const NoiseCarPath = 0.03

// HighwayLookup reports which directions, if any, are a forced highway
// override at a coordinate. A Grid's CheckHighwayDirection satisfies this.
type HighwayLookup func(Coordinate) []Direction

// Car is a single simulated commuter: a fixed source/destination/departure
// time and a precomputed path between them, walked one step per grid tick.
type Car struct {
	ID          string
	Source      Coordinate
	Destination Coordinate
	StartTime   int

	path  []Coordinate
	index int

	arrived bool

	highwayAt HighwayLookup
	rng       *rand.Rand
}

// NewCar builds a car and immediately generates its full path to destination.
func NewCar(id string, source, destination Coordinate, startTime int, highwayAt HighwayLookup, rng *rand.Rand) *Car {
	c := &Car{
		ID:          id,
		Source:      source,
		Destination: destination,
		StartTime:   startTime,
		highwayAt:   highwayAt,
		rng:         rng,
	}
	c.buildPath()
	return c
}

// CopyCar clones a car's identity, path, progress, and arrival flag. The
// clone shares the original's highway lookup and rng; its path is a separate
// copy, so advancing one car never moves the other.
func CopyCar(other *Car) *Car {
	cp := &Car{
		ID:          other.ID,
		Source:      other.Source,
		Destination: other.Destination,
		StartTime:   other.StartTime,
		highwayAt:   other.highwayAt,
		rng:         other.rng,
		index:       other.index,
		arrived:     other.arrived,
	}
	cp.path = append([]Coordinate(nil), other.path...)
	return cp
}

func (c *Car) Path() []Coordinate { return append([]Coordinate(nil), c.path...) }

func (c *Car) CurrentLocation() Coordinate { return c.path[c.index] }

func (c *Car) Arrived() bool { return c.arrived }

func (c *Car) SetArrived(v bool) { c.arrived = v }

// Reset rewinds the car to its source and clears its arrival flag, without
// regenerating its path.
func (c *Car) Reset() {
	c.arrived = false
	c.index = 0
}

// CurrentDirection is the direction of travel from the car's current path
// position to its next one. A car at (or past) the end of its path defaults
// to Horizontal, since it has nowhere left to contend a junction for.
func (c *Car) CurrentDirection() Direction {
	if c.index >= len(c.path)-1 {
		return Horizontal
	}
	cur, next := c.path[c.index], c.path[c.index+1]
	if cur.X == next.X {
		return Horizontal
	}
	return Vertical
}

// Advance moves the car one step further along its path, never past the end.
func (c *Car) Advance() {
	if c.index < len(c.path)-1 {
		c.index++
	}
}

func (c *Car) buildPath() {
	c.path = []Coordinate{c.Source}
	current := c.Source
	for current != c.Destination {
		next := c.chooseNextStep(current)
		if c.rng.Float64() < NoiseCarPath {
			next = c.flipNextStep(current, next)
		}
		c.path = append(c.path, next)
		current = next
	}
}

func (c *Car) chooseNextStep(current Coordinate) Coordinate {
	if hw := c.highwayNextStep(current); c.validStep(hw) {
		return hw
	}
	return c.probabilisticStep(current)
}

func (c *Car) highwayNextStep(current Coordinate) Coordinate {
	dirs := c.highwayAt(current)
	if len(dirs) != 1 {
		return NoCandidate
	}
	if dirs[0] == Vertical {
		return current.Add(1, 0)
	}
	return current.Add(0, 1)
}

func (c *Car) probabilisticStep(current Coordinate) Coordinate {
	stepsX := c.Destination.X - current.X
	stepsY := c.Destination.Y - current.Y
	total := absInt(stepsX) + absInt(stepsY)
	if total == 0 {
		return current
	}
	probX := float64(absInt(stepsX)) / float64(total)
	if c.rng.Float64() < probX {
		return current.Add(signInt(stepsX), 0)
	}
	return current.Add(0, signInt(stepsY))
}

func (c *Car) flipNextStep(current, next Coordinate) Coordinate {
	var flipped Coordinate
	if absInt(current.X-next.X) == 1 {
		// the original step was vertical; flip it to horizontal
		flipped = current.Add(0, 1)
	} else {
		flipped = current.Add(1, 0)
	}
	if flipped.X > c.Destination.X || flipped.Y > c.Destination.Y {
		return next
	}
	return flipped
}

func (c *Car) validStep(coord Coordinate) bool {
	if coord == NoCandidate {
		return false
	}
	return coord.X <= c.Destination.X && coord.Y <= c.Destination.Y
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func signInt(v int) int {
	if v > 0 {
		return 1
	}
	return -1
}
