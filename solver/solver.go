// Package solver evaluates and searches for traffic-light schedules: a
// shared normalized fitness function (Base), a fixed-pattern baseline, a
// genetic-algorithm search, and a learned PPO-style policy.
package solver

import (
	"fmt"
	"math"

	"github.com/tomer-shavit/traffic-system/citysim"
	"github.com/tomer-shavit/traffic-system/reporter"
)

// Schedule is a full simulation horizon's worth of tick-by-tick assignments.
type Schedule []citysim.Assignment

// Base implements the normalized four-metric fitness function shared by
// every solver. It is embedded, not used standalone.
type Base struct {
	N, M, T  int
	Reporter *reporter.Reporter
}

func NewBase(n, m, t int, rep *reporter.Reporter) Base {
	return Base{N: n, M: m, T: t, Reporter: rep}
}

// EvaluateSolution runs schedule against each city in turn -- resetting the
// city between uses -- and returns the combined, normalized [0,4] fitness
// score. An empty cities list is a degenerate case (no information to
// evaluate against) and returns the maximum score without touching the
// schedule at all.
func (b *Base) EvaluateSolution(schedule Schedule, cities []*citysim.City, report bool) (float64, error) {
	if len(cities) == 0 {
		return b.evaluate(0, 0, 0, 0, 0, 0, false), nil
	}
	if len(schedule) < b.T {
		return 0, fmt.Errorf("solver: schedule has %d ticks, need at least %d", len(schedule), b.T)
	}

	var (
		totalAvgWait  float64
		notReaching   int
		moves         int
		punishment    float64
		arrivedTimeSum float64
	)
	for _, city := range cities {
		for t := 0; t < b.T; t++ {
			if err := city.UpdateCity(schedule[t], false); err != nil {
				return 0, err
			}
		}
		totalAvgWait += city.TotalAvgWaitTime()
		notReaching += city.ActiveCarsAmount()
		moves += city.TotalCarMovements()
		punishment += waitPunishment(city.AllJunctionWaits())
		arrivedTimeSum += float64(city.AllCarsArrivedTime)
		city.ResetCity()
	}
	if report && b.Reporter != nil {
		b.Reporter.RecordAllCarsArrive(arrivedTimeSum / float64(len(cities)))
	}

	carsAmount := len(cities[0].Cars)
	return b.evaluate(len(cities), carsAmount, notReaching, totalAvgWait, moves, punishment, report), nil
}

func waitPunishment(waits [][]map[string]int) float64 {
	total := 0.0
	for _, row := range waits {
		for _, junctionWaits := range row {
			for _, w := range junctionWaits {
				total += float64(w * w)
			}
		}
	}
	return total
}

func (b *Base) evaluate(citiesAmount, carsAmount, notReaching int, totalAvgWait float64, moves int, punishment float64, report bool) float64 {
	return b.normalizeNotReaching(notReaching, citiesAmount, carsAmount, report) +
		b.normalizeAvgWait(totalAvgWait, citiesAmount, carsAmount, report) +
		b.normalizeMoves(moves, citiesAmount, carsAmount, report) +
		b.normalizePunishment(punishment, citiesAmount, carsAmount, report)
}

func (b *Base) normalizeNotReaching(notReaching, citiesAmount, carsAmount int, report bool) float64 {
	if report && b.Reporter != nil && citiesAmount > 0 {
		b.Reporter.RecordNotReachingCars(float64(notReaching) / float64(citiesAmount))
	}
	if carsAmount == 0 {
		return 1
	}
	max := float64(carsAmount * citiesAmount)
	return 1 / (1 + float64(notReaching)/max)
}

func (b *Base) normalizeAvgWait(totalAvgWait float64, citiesAmount, carsAmount int, report bool) float64 {
	if report && b.Reporter != nil && citiesAmount > 0 {
		b.Reporter.RecordAvgWaitTime(totalAvgWait / float64(citiesAmount))
	}
	if carsAmount == 0 {
		return 1
	}
	max := float64(b.T*carsAmount*citiesAmount) / float64(b.N*b.M)
	return 1 / (1 + totalAvgWait/max)
}

func (b *Base) normalizeMoves(moves, citiesAmount, carsAmount int, report bool) float64 {
	if report && b.Reporter != nil && citiesAmount > 0 {
		b.Reporter.RecordMovingCars(float64(moves) / float64(citiesAmount))
	}
	if carsAmount == 0 {
		return 1
	}
	max := float64(citiesAmount * carsAmount * b.T)
	return float64(moves) / max
}

func (b *Base) normalizePunishment(punishment float64, citiesAmount, carsAmount int, report bool) float64 {
	if report && b.Reporter != nil && citiesAmount > 0 {
		b.Reporter.RecordWaitPunishment(punishment / float64(citiesAmount))
	}
	if carsAmount == 0 {
		return 1
	}
	max := math.Pow(float64(b.T*carsAmount*citiesAmount), 2)
	return 1 / (1 + punishment/max)
}
