package solver

import (
	"fmt"
	"math"
	"math/rand"
	"path/filepath"

	"github.com/tomer-shavit/traffic-system/agent"
	"github.com/tomer-shavit/traffic-system/citysim"
	"github.com/tomer-shavit/traffic-system/reporter"
)

// Neighborhood window dimensions and the PPO-specific simulation knobs.
const (
	neighborhoodRows = 3
	neighborhoodCols = 3
	stateChannels    = 4

	NumSimulations = 6
	MaxIterations  = 100
	warmupTicks    = 8
)

// PPOSolver produces schedules by sliding a learned policy over overlapping
// 3x3 windows of the grid each tick, aggregating the windows' chosen
// per-cell directions by majority vote.
type PPOSolver struct {
	Base

	Agent      *agent.Policy
	allActions []citysim.Assignment
	rng        *rand.Rand

	// CheckpointDir and ExperimentID locate where Train persists the agent
	// and reporter snapshot whenever a city's score beats the running best.
	// Left empty, Train skips persistence entirely.
	CheckpointDir string
	ExperimentID  string
}

func NewPPOSolver(n, m, t int, rep *reporter.Reporter, rng *rand.Rand) *PPOSolver {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	actions := allWindowActions()
	return &PPOSolver{
		Base:       NewBase(n, m, t, rep),
		Agent:      agent.NewPolicy(len(actions), neighborhoodRows*neighborhoodCols*stateChannels, rng),
		allActions: actions,
		rng:        rng,
	}
}

// allWindowActions enumerates every 2^9 direction assignment over a 3x3
// window: bit i of the action index selects Horizontal (0) or Vertical (1)
// for window cell i, in row-major order.
func allWindowActions() []citysim.Assignment {
	cells := neighborhoodRows * neighborhoodCols
	total := 1 << cells
	actions := make([]citysim.Assignment, total)
	for idx := 0; idx < total; idx++ {
		a := make(citysim.Assignment, neighborhoodRows)
		for i := range a {
			a[i] = make([]citysim.Direction, neighborhoodCols)
		}
		for cell := 0; cell < cells; cell++ {
			i, j := cell/neighborhoodCols, cell%neighborhoodCols
			if (idx>>cell)&1 == 0 {
				a[i][j] = citysim.Horizontal
			} else {
				a[i][j] = citysim.Vertical
			}
		}
		actions[idx] = a
	}
	return actions
}

func (s *PPOSolver) windowCorners(i, j int) (topLeft, topRight, bottomLeft citysim.Coordinate) {
	topLeft = citysim.Coordinate{X: i, Y: j}
	topRight = citysim.Coordinate{X: i, Y: j + neighborhoodCols - 1}
	bottomLeft = citysim.Coordinate{X: i + neighborhoodRows - 1, Y: j}
	return
}

// Solve produces a full T-tick schedule for city: at each tick, one action
// is collected per sliding 3x3 window (row-major order) and aggregated by
// majority vote into that tick's global assignment.
func (s *PPOSolver) Solve(city *citysim.City) (Schedule, error) {
	schedule := make(Schedule, 0, s.T)
	for t := 0; t < s.T; t++ {
		var actions []int
		for i := 0; i <= s.N-neighborhoodRows; i++ {
			for j := 0; j <= s.M-neighborhoodCols; j++ {
				topLeft, topRight, bottomLeft := s.windowCorners(i, j)
				neighborhood := city.GetNeighborhood(topLeft, topRight, bottomLeft)
				action, _ := s.Agent.ChooseAction(neighborhood.State())
				actions = append(actions, action)
			}
		}
		assignment := s.voteOnAssignment(actions)
		schedule = append(schedule, assignment)
		if err := city.UpdateCity(assignment, false); err != nil {
			return nil, err
		}
	}
	city.ResetCity()
	return schedule, nil
}

type tally struct{ h, v int }

// voteOnAssignment tallies per-cell H/V votes across the sliding windows, in
// the same row-major window order the actions were collected in, and
// resolves ties to Horizontal.
func (s *PPOSolver) voteOnAssignment(actions []int) citysim.Assignment {
	votes := make([][]tally, s.N)
	for i := range votes {
		votes[i] = make([]tally, s.M)
	}

	idx := 0
	for i := 0; i <= s.N-neighborhoodRows; i++ {
		for j := 0; j <= s.M-neighborhoodCols; j++ {
			action := s.allActions[actions[idx]]
			idx++
			for ni := 0; ni < neighborhoodRows; ni++ {
				for nj := 0; nj < neighborhoodCols; nj++ {
					if action[ni][nj] == citysim.Horizontal {
						votes[i+ni][j+nj].h++
					} else {
						votes[i+ni][j+nj].v++
					}
				}
			}
		}
	}

	assignment := make(citysim.Assignment, s.N)
	for i := range assignment {
		assignment[i] = make([]citysim.Direction, s.M)
		for j := range assignment[i] {
			if votes[i][j].h >= votes[i][j].v {
				assignment[i][j] = citysim.Horizontal
			} else {
				assignment[i][j] = citysim.Vertical
			}
		}
	}
	return assignment
}

// Train runs one pass of neighborhood-level rollouts per generated city:
// a short warm-up lets traffic build up, then a random non-empty window is
// repeatedly rolled out (and the policy trained on its transitions) until
// the window empties out or the iteration cap is hit, after which the full
// city is advanced one tick and the cycle repeats for the rest of the
// horizon. After all T ticks, the resulting policy is scored against the
// whole city via Solve/EvaluateSolution. Whenever a city's score beats the
// running best, the agent and the reporter's recorded metrics are persisted
// to CheckpointDir (a no-op when CheckpointDir is unset).
func (s *PPOSolver) Train(numCities, numCars int) error {
	cities := citysim.GenerateCities(s.N, s.M, numCars, numCities, s.rng)

	bestScore := math.Inf(-1)
	for _, city := range cities {
		for t := 0; t < s.T; t++ {
			if t < warmupTicks {
				if err := city.UpdateCity(s.randomAssignment(), false); err != nil {
					return err
				}
				continue
			}

			neighborhood := s.randomNonEmptyNeighborhood(city)
			counter := 0
			done := false
			for !done {
				counter++
				var err error
				done, err = s.neighborhoodIteration(neighborhood, counter)
				if err != nil {
					return err
				}
			}

			s.Agent.Learn()
			if err := city.UpdateCity(s.randomAssignment(), false); err != nil {
				return err
			}
		}

		city.ResetCity()
		schedule, err := s.Solve(city)
		if err != nil {
			return err
		}
		score, err := s.EvaluateSolution(schedule, []*citysim.City{city}, true)
		if err != nil {
			return err
		}
		if s.Reporter != nil {
			s.Reporter.RecordBestSolution(score, schedule)
		}

		if score > bestScore {
			bestScore = score
			if err := s.persistCheckpoint(); err != nil {
				return err
			}
		}
	}
	return nil
}

// persistCheckpoint saves the agent's weights and the reporter's recorded
// series under CheckpointDir. A no-op when CheckpointDir is unset.
func (s *PPOSolver) persistCheckpoint() error {
	if s.CheckpointDir == "" {
		return nil
	}
	if err := s.Agent.Save(filepath.Join(s.CheckpointDir, "agent.gob")); err != nil {
		return fmt.Errorf("ppo: save agent: %w", err)
	}
	if s.Reporter != nil {
		if err := s.Reporter.SaveAllData(s.CheckpointDir, s.ExperimentID); err != nil {
			return fmt.Errorf("ppo: save reporter data: %w", err)
		}
	}
	return nil
}

func (s *PPOSolver) randomAssignment() citysim.Assignment {
	a := make(citysim.Assignment, s.N)
	for i := range a {
		a[i] = make([]citysim.Direction, s.M)
		for j := range a[i] {
			if s.rng.Float64() < 0.5 {
				a[i][j] = citysim.Horizontal
			} else {
				a[i][j] = citysim.Vertical
			}
		}
	}
	return a
}

func (s *PPOSolver) randomNonEmptyNeighborhood(city *citysim.City) *citysim.Neighborhood {
	for {
		i := s.rng.Intn(s.N - neighborhoodRows + 1)
		j := s.rng.Intn(s.M - neighborhoodCols + 1)
		topLeft, topRight, bottomLeft := s.windowCorners(i, j)
		neighborhood := city.GetNeighborhood(topLeft, topRight, bottomLeft)
		if neighborhood.OriginalNumOfCars > 0 {
			return neighborhood
		}
	}
}

// neighborhoodIteration chooses one action for the window's current state,
// simulates it forward, remembers the transition, and reports whether the
// rollout is done (the window emptied out, or the iteration cap forced an
// early, zero-reward stop).
func (s *PPOSolver) neighborhoodIteration(n *citysim.Neighborhood, iteration int) (done bool, err error) {
	state := n.State()
	action, value := s.Agent.ChooseAction(state)
	reward, done, err := s.evaluateNeighborhood(action, n, false)
	if err != nil {
		return false, err
	}
	if iteration >= MaxIterations {
		reward = 0
		done = true
	}
	s.Agent.Remember(state, action, value, reward, done)
	return done, nil
}

// evaluateNeighborhood simulates NumSimulations ticks of the window forward
// (forking a deep copy after the first tick, so the rollout the agent keeps
// choosing actions against doesn't perturb the caller's neighborhood), then
// scores the resulting state with the shared normalized fitness formula. A
// window that empties out entirely is a terminal, maximum-reward state.
func (s *PPOSolver) evaluateNeighborhood(action int, n *citysim.Neighborhood, report bool) (float64, bool, error) {
	curAction := action
	done := false
	current := n
	for i := 0; i < NumSimulations; i++ {
		if err := current.UpdateNeighborhood(s.allActions[curAction]); err != nil {
			return 0, false, err
		}
		if i == 0 {
			done = current.ActiveCarsAmount() == 0
			current = citysim.DeepCopyNeighborhood(current)
		}
		curAction, _ = s.Agent.ChooseAction(current.State())
	}

	totalAvgWait := current.Grid.TotalAvgWait()
	notReaching := current.ActiveCarsAmount()
	moves := current.Grid.TotalCarMovements
	punishment := waitPunishment(current.Grid.AllJunctionWaits())

	reward := s.evaluate(1, current.OriginalNumOfCars, notReaching, totalAvgWait, moves, punishment, report)
	if done {
		reward = 4.0
	}
	return reward, done, nil
}
