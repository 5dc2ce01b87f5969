package citysim

import "fmt"

// Assignment is an N x M matrix of directions, applied to a grid's lights for
// a single tick.
type Assignment [][]Direction

// TrafficSystem owns the lights of one grid (or one neighborhood window) and
// validates/applies a tick's assignment to them.
type TrafficSystem struct {
	lights [][]*TrafficLight
}

func NewTrafficSystem(lights [][]*TrafficLight) *TrafficSystem {
	return &TrafficSystem{lights: lights}
}

// Apply sets every light's direction from assignment. The assignment must
// match the system's dimensions exactly and contain only valid directions;
// a shape mismatch is a fatal misconfiguration, not a recoverable error the
// caller can ignore, but it is still returned rather than panicking so
// batch solvers can surface which tick failed.
func (ts *TrafficSystem) Apply(assignment Assignment) error {
	n := len(ts.lights)
	if n == 0 {
		return fmt.Errorf("trafficsystem: apply: system has no lights")
	}
	m := len(ts.lights[0])
	if len(assignment) != n {
		return fmt.Errorf("trafficsystem: apply: assignment has %d rows, want %d", len(assignment), n)
	}
	for i, row := range assignment {
		if len(row) != m {
			return fmt.Errorf("trafficsystem: apply: assignment row %d has %d cols, want %d", i, len(row), m)
		}
		for _, d := range row {
			if d != Horizontal && d != Vertical {
				return fmt.Errorf("trafficsystem: apply: invalid direction %v at row %d", d, i)
			}
		}
	}
	for i := range ts.lights {
		for j := range ts.lights[i] {
			ts.lights[i][j].SetDirection(assignment[i][j])
		}
	}
	return nil
}
