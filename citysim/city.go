package citysim

import (
	"fmt"
	"math"
	"math/rand"
)

const (
	MaxTimeToStart  = 4
	InfArrivalTime  = 10000
	residentialSize = 2
	industrialSize  = 2
)

// City is the top-level simulated world: an N x M grid of junctions, a
// population of cars commuting from residential to industrial coordinates,
// and the clock driving them forward one tick at a time.
type City struct {
	N, M int
	Time int

	Cars []*Car

	ResidentialCoords []Coordinate
	IndustrialCoords  []Coordinate

	Lights [][]*TrafficLight
	Grid   *Grid
	System *TrafficSystem

	ActiveCars         int
	AllCarsArrivedTime int

	rng *rand.Rand
}

// NewCity builds a city with an explicit residential/industrial coordinate
// set. GenerateCity is the higher-level convenience most callers want.
func NewCity(n, m, numCars int, residential, industrial []Coordinate, rng *rand.Rand) *City {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	lights := makeLights(n, m)
	grid := NewGrid(lights)
	system := NewTrafficSystem(lights)

	city := &City{
		N:                  n,
		M:                  m,
		ResidentialCoords:  residential,
		IndustrialCoords:   industrial,
		Lights:             lights,
		Grid:               grid,
		System:             system,
		AllCarsArrivedTime: InfArrivalTime,
		rng:                rng,
	}
	city.Cars = make([]*Car, numCars)
	for i := 0; i < numCars; i++ {
		city.Cars[i] = city.newCar(i)
	}
	city.ActiveCars = len(city.Cars)
	return city
}

func makeLights(n, m int) [][]*TrafficLight {
	lights := make([][]*TrafficLight, n)
	for i := range lights {
		lights[i] = make([]*TrafficLight, m)
		for j := range lights[i] {
			lights[i][j] = NewTrafficLight()
		}
	}
	return lights
}

func (c *City) newCar(num int) *Car {
	source := c.randomLocation(c.ResidentialCoords)
	dest := c.randomLocation(c.IndustrialCoords)
	start := c.normalDepartureTime(float64(MaxTimeToStart)/2, float64(MaxTimeToStart)/2)
	return NewCar(fmt.Sprintf("Car_%d", num), source, dest, start, c.Grid.CheckHighwayDirection, c.rng)
}

func (c *City) normalDepartureTime(mean, stddev float64) int {
	t := int(math.Round(c.rng.NormFloat64()*stddev + mean))
	return clampInt(t, 0, MaxTimeToStart)
}

// randomLocation picks among coords with a normal distribution centered on
// the middle of the list, so interior coordinates are favored slightly over
// the extremes.
func (c *City) randomLocation(coords []Coordinate) Coordinate {
	n := float64(len(coords))
	idx := int(math.Round(c.rng.NormFloat64()*(n/6) + n/2))
	idx = clampInt(idx, 0, len(coords)-1)
	return coords[idx]
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// GenerateCity builds a city whose residential/industrial coordinates are
// themselves randomly sampled, non-empty subsets of the top-left and
// bottom-right 2x2 corners respectively.
func GenerateCity(n, m, numCars int, rng *rand.Rand) *City {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}

	var possibleResidential []Coordinate
	for i := 0; i < residentialSize; i++ {
		for j := 0; j < residentialSize; j++ {
			possibleResidential = append(possibleResidential, Coordinate{X: i, Y: j})
		}
	}
	var possibleIndustrial []Coordinate
	for i := 0; i < industrialSize; i++ {
		for j := 0; j < industrialSize; j++ {
			possibleIndustrial = append(possibleIndustrial, Coordinate{X: n - 1 - i, Y: m - 1 - j})
		}
	}

	residential := sampleSubset(rng, possibleResidential)
	industrial := sampleSubset(rng, possibleIndustrial)
	return NewCity(n, m, numCars, residential, industrial, rng)
}

func sampleSubset(rng *rand.Rand, coords []Coordinate) []Coordinate {
	count := 1 + rng.Intn(len(coords))
	shuffled := append([]Coordinate(nil), coords...)
	rng.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
	return shuffled[:count]
}

func GenerateCities(n, m, numCars, numCities int, rng *rand.Rand) []*City {
	cities := make([]*City, numCities)
	for i := range cities {
		cities[i] = GenerateCity(n, m, numCars, rng)
	}
	return cities
}

// UpdateCity forwards the city by one tick: apply the assignment, drop cars
// that already reached their destination, resolve movement grid-wide, admit
// cars whose departure time is now, then advance the clock.
func (c *City) UpdateCity(assignment Assignment, debug bool) error {
	if err := c.System.Apply(assignment); err != nil {
		return fmt.Errorf("city: update: %w", err)
	}
	if debug {
		c.Print(assignment)
	}
	c.removeArrivedCars()
	c.Grid.ResolveAllMoves()
	c.insertDepartingCars()
	if c.ActiveCars == 0 && c.AllCarsArrivedTime > c.Time {
		c.AllCarsArrivedTime = c.Time
	}
	c.Time++
	return nil
}

func (c *City) removeArrivedCars() {
	for _, car := range c.Cars {
		if car.CurrentLocation() == car.Destination && !car.Arrived() {
			c.Grid.Junction(car.Destination).Remove(car)
			c.ActiveCars--
		}
	}
}

func (c *City) insertDepartingCars() {
	for _, car := range c.Cars {
		if car.StartTime == c.Time {
			c.Grid.AddCarToJunction(car, car.Source)
		}
	}
}

func (c *City) ActiveCarsAmount() int { return c.ActiveCars }

func (c *City) ResetCity() {
	for _, car := range c.Cars {
		car.Reset()
	}
	c.Grid.Reset()
	c.Time = 0
	c.ActiveCars = len(c.Cars)
	c.AllCarsArrivedTime = InfArrivalTime
}

func (c *City) TotalAvgWaitTime() float64               { return c.Grid.TotalAvgWait() }
func (c *City) TotalCarMovements() int                  { return c.Grid.TotalCarMovements }
func (c *City) AllJunctionWaits() [][]map[string]int    { return c.Grid.AllJunctionWaits() }

// Clone returns an independent city with the same cars (same precomputed
// paths, rewound to their source) and a fresh grid/lights/traffic system, at
// tick zero. Used by the GeneticSolver to give each evaluation worker its own
// serialized copy of a generation's shared cities, so concurrent workers
// never mutate the same junction maps.
func (c *City) Clone() *City {
	lights := makeLights(c.N, c.M)
	grid := NewGrid(lights)
	system := NewTrafficSystem(lights)

	cars := make([]*Car, len(c.Cars))
	for i, car := range c.Cars {
		cp := CopyCar(car)
		cp.Reset()
		cars[i] = cp
	}

	return &City{
		N:                  c.N,
		M:                  c.M,
		ResidentialCoords:  c.ResidentialCoords,
		IndustrialCoords:   c.IndustrialCoords,
		Lights:             lights,
		Grid:               grid,
		System:             system,
		Cars:               cars,
		ActiveCars:         len(cars),
		AllCarsArrivedTime: InfArrivalTime,
		rng:                c.rng,
	}
}

// GetNeighborhood builds a windowed sandbox copy of the city's state between
// the given inclusive corners, translating car positions, lights, and
// highway flags into the window's own local coordinate frame.
func (c *City) GetNeighborhood(topLeft, topRight, bottomLeft Coordinate) *Neighborhood {
	rows := bottomLeft.X - topLeft.X + 1
	cols := topRight.Y - topLeft.Y + 1
	lights := makeLights(rows, cols)

	var vertical, horizontal []Coordinate
	for i := topLeft.X; i <= bottomLeft.X; i++ {
		for j := topLeft.Y; j <= topRight.Y; j++ {
			lights[i-topLeft.X][j-topLeft.Y].SetDirection(c.Lights[i][j].Direction())
			junction := c.Grid.Junction(Coordinate{X: i, Y: j})
			local := Coordinate{X: i - topLeft.X, Y: j - topLeft.Y}
			if junction.IsVHighway {
				vertical = append(vertical, local)
			}
			if junction.IsHHighway {
				horizontal = append(horizontal, local)
			}
		}
	}

	grid := NewGridWithHighways(lights, vertical, horizontal)
	system := NewTrafficSystem(lights)

	var cars []*Car
	for i := topLeft.X; i <= bottomLeft.X; i++ {
		for j := topLeft.Y; j <= topRight.Y; j++ {
			for _, car := range c.Grid.Junction(Coordinate{X: i, Y: j}).Cars() {
				cp := CopyCar(car)
				loc := cp.CurrentLocation()
				local := Coordinate{X: loc.X - topLeft.X, Y: loc.Y - topLeft.Y}
				grid.AddCarToJunction(cp, local)
				cars = append(cars, cp)
			}
		}
	}

	return NewNeighborhood(cars, grid, system, topLeft.X, topLeft.Y)
}

// Print renders an ANSI-colored snapshot of junction occupancy and light
// state, for interactive debugging only -- gated behind UpdateCity's debug
// flag, never called from tests.
func (c *City) Print(assignment Assignment) {
	const (
		green  = "\033[32m"
		yellow = "\033[33m"
		blue   = "\033[34m"
		purple = "\033[35m"
		reset  = "\033[0m"
	)

	fmt.Println("-----------------------------------------------------------------------------")
	fmt.Println("City layout:")
	for i := 0; i < c.N; i++ {
		for j := 0; j < c.M; j++ {
			junction := c.Grid.Junction(Coordinate{X: i, Y: j})
			lightDir := "H"
			if assignment[i][j] == Vertical {
				lightDir = "V"
			}
			var vCars, hCars int
			for _, car := range junction.Cars() {
				if car.CurrentDirection() == Vertical {
					vCars++
				} else {
					hCars++
				}
			}
			dirColor := ""
			if vCars+hCars > 0 {
				if lightDir == "V" {
					dirColor = green
				} else {
					dirColor = yellow
				}
			}
			vColor, hColor := "", ""
			if vCars > 0 {
				vColor = green
			}
			if hCars > 0 {
				hColor = yellow
			}
			coordColor := ""
			if containsCoord(c.ResidentialCoords, i, j) {
				coordColor = blue
			} else if containsCoord(c.IndustrialCoords, i, j) {
				coordColor = purple
			}
			fmt.Printf("[D:%s%s%s, V:%s%2d%s, H:%s%2d%s, %s(i:%d,j:%d)%s]",
				dirColor, lightDir, reset, vColor, vCars, reset, hColor, hCars, reset, coordColor, i, j, reset)
			if j < c.M-1 {
				fmt.Print(" -- ")
			}
		}
		fmt.Println()
	}
}

func containsCoord(coords []Coordinate, x, y int) bool {
	for _, c := range coords {
		if c.X == x && c.Y == y {
			return true
		}
	}
	return false
}
