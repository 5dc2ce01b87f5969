package citysim

import "log"

// Layout constants for deriving a full grid's highway cells. Kept as named
// constants rather than inlined, since get_highway_coordinates in the
// original reads them as named module-level constants too.
const (
	startHighway = 2
	endRef       = 3
	highwayGap   = 4
)

// Grid owns the N x M junction matrix and resolves car movement one tick at
// a time via a two-phase collect-then-commit pass, so a car admitted into a
// cell this tick can't also be advanced out of it in the same tick.
type Grid struct {
	junctions [][]*Junction
	n, m      int

	TotalCarMovements int
}

// NewGrid builds a full city grid, deriving its highway cells from the fixed
// layout constants.
func NewGrid(lights [][]*TrafficLight) *Grid {
	n := len(lights)
	m := 0
	if n > 0 {
		m = len(lights[0])
	}
	vertical, horizontal := highwayCoordinates(n, m)
	return NewGridWithHighways(lights, vertical, horizontal)
}

// NewGridWithHighways builds a grid (or a neighborhood sub-grid) whose
// highway cells are given explicitly, already translated into this grid's
// own coordinate frame.
func NewGridWithHighways(lights [][]*TrafficLight, vertical, horizontal []Coordinate) *Grid {
	n := len(lights)
	m := 0
	if n > 0 {
		m = len(lights[0])
	}
	vSet := toSet(vertical)
	hSet := toSet(horizontal)

	junctions := make([][]*Junction, n)
	for i := 0; i < n; i++ {
		junctions[i] = make([]*Junction, m)
		for j := 0; j < m; j++ {
			c := Coordinate{X: i, Y: j}
			junctions[i][j] = NewJunction(lights[i][j], hSet[c], vSet[c])
		}
	}
	return &Grid{junctions: junctions, n: n, m: m}
}

func toSet(coords []Coordinate) map[Coordinate]bool {
	set := make(map[Coordinate]bool, len(coords))
	for _, c := range coords {
		set[c] = true
	}
	return set
}

// highwayCoordinates derives the vertical- and horizontal-highway cell sets
// for an n x m grid from the fixed layout constants: each is a single-cell-
// wide stripe, contiguous along its own axis, centered in the grid.
func highwayCoordinates(n, m int) (vertical, horizontal []Coordinate) {
	vCols := []int{startHighway, m - endRef}
	vRows := span((n-1)/2, n-highwayGap)
	for _, col := range vCols {
		for _, row := range vRows {
			vertical = append(vertical, Coordinate{X: row, Y: col})
		}
	}

	hRows := []int{startHighway, n - endRef}
	hCols := span((m-1)/2, m-highwayGap)
	for _, row := range hRows {
		for _, col := range hCols {
			horizontal = append(horizontal, Coordinate{X: row, Y: col})
		}
	}
	return vertical, horizontal
}

func span(start, length int) []int {
	if length < 0 {
		length = 0
	}
	out := make([]int, 0, length)
	for i := 0; i < length; i++ {
		out = append(out, start+i)
	}
	return out
}

// CheckHighwayDirection reports which directions are a forced highway
// override at coord. A cell that is both a vertical and a horizontal
// highway, or neither, is not a single-direction override and so behaves as
// a regular intersection (the caller falls back to probabilistic stepping).
func (g *Grid) CheckHighwayDirection(c Coordinate) []Direction {
	j := g.junctions[c.X][c.Y]
	switch {
	case j.IsVHighway && j.IsHHighway:
		return []Direction{Horizontal, Vertical}
	case j.IsVHighway:
		return []Direction{Vertical}
	case j.IsHHighway:
		return []Direction{Horizontal}
	default:
		return []Direction{Horizontal, Vertical}
	}
}

func (g *Grid) Dims() (int, int) { return g.n, g.m }

func (g *Grid) Junction(c Coordinate) *Junction { return g.junctions[c.X][c.Y] }

func (g *Grid) OutOfGrid(c Coordinate) bool {
	return c.X < 0 || c.X >= g.n || c.Y < 0 || c.Y >= g.m
}

// AddCarToJunction admits car into the junction at coord. A coordinate
// outside the grid is a caller bug, not a recoverable condition worth
// propagating an error for on every tick's hot path; it's logged and the car
// is dropped rather than panicking the whole simulation.
func (g *Grid) AddCarToJunction(car *Car, coord Coordinate) {
	if g.OutOfGrid(coord) {
		log.Printf("citysim: dropping car %s at out-of-range junction (%d,%d)", car.ID, coord.X, coord.Y)
		return
	}
	g.junctions[coord.X][coord.Y].Add(car)
}

type mover struct {
	car      *Car
	from, to Coordinate
}

// collectMoves runs phase A (resolve every junction, decide who is moving
// and where) without moving any car yet, so movement decisions are made
// against a single consistent snapshot of the tick. Resolve does advance
// each junction's wait counters. With allowEscape, a car at the last
// row/column is still listed, with a target cell outside the grid.
func (g *Grid) collectMoves(allowEscape bool) []mover {
	var movers []mover
	for i := 0; i < g.n; i++ {
		for j := 0; j < g.m; j++ {
			d, cars := g.junctions[i][j].Resolve()
			for _, car := range cars {
				var to Coordinate
				ok := false
				switch d {
				case Vertical:
					if i < g.n-1 || allowEscape {
						to, ok = Coordinate{X: i + 1, Y: j}, true
					}
				case Horizontal:
					if j < g.m-1 || allowEscape {
						to, ok = Coordinate{X: i, Y: j + 1}, true
					}
				}
				if ok {
					movers = append(movers, mover{car: car, from: Coordinate{X: i, Y: j}, to: to})
				}
			}
		}
	}
	return movers
}

// ResolveAllMoves advances every junction by one tick: phase A collects every
// move decision from a consistent snapshot, phase B commits them all, so a
// car admitted into a cell this tick cannot also be advanced out of it in
// the same tick.
func (g *Grid) ResolveAllMoves() {
	for _, mv := range g.collectMoves(false) {
		g.junctions[mv.from.X][mv.from.Y].Remove(mv.car)
		g.junctions[mv.to.X][mv.to.Y].Add(mv.car)
		mv.car.Advance()
		g.TotalCarMovements++
	}
}

// ResolveSubGrid is the Neighborhood variant of ResolveAllMoves: identical
// two-phase resolution, except a car whose computed destination cell falls
// outside this (smaller) grid is removed from its source without being
// re-added anywhere, rather than that move never being considered at all.
func (g *Grid) ResolveSubGrid() {
	for _, mv := range g.collectMoves(true) {
		g.junctions[mv.from.X][mv.from.Y].Remove(mv.car)
		if !g.OutOfGrid(mv.to) {
			g.junctions[mv.to.X][mv.to.Y].Add(mv.car)
		}
		mv.car.Advance()
		g.TotalCarMovements++
	}
}

func (g *Grid) TotalAvgWait() float64 {
	total := 0
	for i := 0; i < g.n; i++ {
		for j := 0; j < g.m; j++ {
			total += g.junctions[i][j].TotalWait()
		}
	}
	return float64(total) / float64(g.n*g.m)
}

func (g *Grid) AllJunctionWaits() [][]map[string]int {
	waits := make([][]map[string]int, g.n)
	for i := 0; i < g.n; i++ {
		waits[i] = make([]map[string]int, g.m)
		for j := 0; j < g.m; j++ {
			waits[i][j] = g.junctions[i][j].waitSnapshot()
		}
	}
	return waits
}

func (g *Grid) Reset() {
	for i := 0; i < g.n; i++ {
		for j := 0; j < g.m; j++ {
			g.junctions[i][j].Reset()
		}
	}
	g.TotalCarMovements = 0
}
