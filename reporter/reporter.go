// Package reporter records the per-generation / per-tick metrics solvers
// produce and persists them to disk, one series per file, round-trippable
// by this package alone.
package reporter

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// BestSolutionRecord pairs a fitness score with the schedule that produced
// it. Schedule is stored as whatever concrete type the caller passed in
// (solver.Schedule in practice); this package stays decoupled from the
// solver package and just round-trips it through YAML.
type BestSolutionRecord struct {
	Fitness  float64     `yaml:"fitness"`
	Schedule interface{} `yaml:"schedule"`
}

// Reporter accumulates named metric series over the lifetime of a solver
// run. Zero value is ready to use.
type Reporter struct {
	waitTimes       []float64
	allCarsArrive   []float64
	notReachingCars []float64
	movingCars      []float64
	waitPunishment  []float64
	bestSolutions   []BestSolutionRecord
}

func New() *Reporter { return &Reporter{} }

func (r *Reporter) RecordNotReachingCars(x float64) { r.notReachingCars = append(r.notReachingCars, x) }
func (r *Reporter) RecordWaitPunishment(x float64)  { r.waitPunishment = append(r.waitPunishment, x) }
func (r *Reporter) RecordMovingCars(x float64)      { r.movingCars = append(r.movingCars, x) }
func (r *Reporter) RecordAvgWaitTime(x float64)     { r.waitTimes = append(r.waitTimes, x) }
func (r *Reporter) RecordAllCarsArrive(t float64)   { r.allCarsArrive = append(r.allCarsArrive, t) }

func (r *Reporter) RecordBestSolution(fitness float64, schedule interface{}) {
	r.bestSolutions = append(r.bestSolutions, BestSolutionRecord{Fitness: fitness, Schedule: schedule})
}

// Snapshot is a read-only view of every recorded series, consumed by
// reportserver to push live progress to a dashboard client.
type Snapshot struct {
	WaitTimes       []float64            `json:"wait_times" yaml:"wait_times"`
	AllCarsArrive   []float64            `json:"all_cars_arrive" yaml:"all_cars_arrive"`
	NotReachingCars []float64            `json:"not_reaching_cars" yaml:"not_reaching_cars"`
	MovingCars      []float64            `json:"moving_cars" yaml:"moving_cars"`
	WaitPunishment  []float64            `json:"wait_punishment" yaml:"wait_punishment"`
	BestSolutions   []BestSolutionRecord `json:"best_solutions" yaml:"best_solutions"`
}

func (r *Reporter) Snapshot() Snapshot {
	return Snapshot{
		WaitTimes:       append([]float64(nil), r.waitTimes...),
		AllCarsArrive:   append([]float64(nil), r.allCarsArrive...),
		NotReachingCars: append([]float64(nil), r.notReachingCars...),
		MovingCars:      append([]float64(nil), r.movingCars...),
		WaitPunishment:  append([]float64(nil), r.waitPunishment...),
		BestSolutions:   append([]BestSolutionRecord(nil), r.bestSolutions...),
	}
}

// SaveAllData persists each recorded series to its own YAML file under
// directory, named by experimentID.
func (r *Reporter) SaveAllData(directory, experimentID string) error {
	files := map[string]interface{}{
		fileName("wait_times_check", experimentID):        r.waitTimes,
		fileName("all_cars_arrive_time", experimentID):    r.allCarsArrive,
		fileName("not_reaching_cars", experimentID):       r.notReachingCars,
		fileName("moving_cars_amount", experimentID):      r.movingCars,
		fileName("wait_time_punishment", experimentID):    r.waitPunishment,
		fileName("best_solutions", experimentID):          r.bestSolutions,
	}
	for name, data := range files {
		if err := writeYaml(filepath.Join(directory, name), data); err != nil {
			return fmt.Errorf("reporter: save %s: %w", name, err)
		}
	}
	return nil
}

// LoadAllData reconstructs a Reporter's series from a directory previously
// written by SaveAllData for the same experimentID.
func LoadAllData(directory, experimentID string) (*Reporter, error) {
	r := New()
	targets := []struct {
		name string
		dest interface{}
	}{
		{fileName("wait_times_check", experimentID), &r.waitTimes},
		{fileName("all_cars_arrive_time", experimentID), &r.allCarsArrive},
		{fileName("not_reaching_cars", experimentID), &r.notReachingCars},
		{fileName("moving_cars_amount", experimentID), &r.movingCars},
		{fileName("wait_time_punishment", experimentID), &r.waitPunishment},
		{fileName("best_solutions", experimentID), &r.bestSolutions},
	}
	for _, tgt := range targets {
		raw, err := os.ReadFile(filepath.Join(directory, tgt.name))
		if err != nil {
			return nil, fmt.Errorf("reporter: load %s: %w", tgt.name, err)
		}
		if err := yaml.Unmarshal(raw, tgt.dest); err != nil {
			return nil, fmt.Errorf("reporter: decode %s: %w", tgt.name, err)
		}
	}
	return r, nil
}

func fileName(series, experimentID string) string {
	return fmt.Sprintf("%s_%s.yaml", series, experimentID)
}

func writeYaml(path string, data interface{}) error {
	bytes, err := yaml.Marshal(data)
	if err != nil {
		return err
	}
	return os.WriteFile(path, bytes, 0o644)
}
