package solver

import (
	"github.com/tomer-shavit/traffic-system/citysim"
	"github.com/tomer-shavit/traffic-system/reporter"
)

// BaselineSolver produces the simplest possible schedule: the whole grid
// alternates between all-horizontal and all-vertical every tick. It exists
// as a reference point other solvers are expected to beat.
type BaselineSolver struct {
	Base
}

func NewBaselineSolver(n, m, t int, rep *reporter.Reporter) *BaselineSolver {
	return &BaselineSolver{Base: NewBase(n, m, t, rep)}
}

func (s *BaselineSolver) Solve() Schedule {
	schedule := make(Schedule, s.T)
	for t := 0; t < s.T; t++ {
		d := citysim.Horizontal
		if t%2 == 1 {
			d = citysim.Vertical
		}
		schedule[t] = uniformAssignment(s.N, s.M, d)
	}
	return schedule
}

func uniformAssignment(n, m int, d citysim.Direction) citysim.Assignment {
	a := make(citysim.Assignment, n)
	for i := range a {
		a[i] = make([]citysim.Direction, m)
		for j := range a[i] {
			a[i][j] = d
		}
	}
	return a
}
