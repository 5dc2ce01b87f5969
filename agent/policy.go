// Package agent implements the learned policy PPOSolver drives its
// sliding-window action choices through: choose an action, remember the
// transition, periodically learn from the batch, and persist/restore
// weights across runs.
package agent

import (
	"encoding/gob"
	"math"
	"math/rand"
	"os"
)

const (
	learningRate = 0.01
	discount     = 0.97
)

type transition struct {
	state   []float64
	action  int
	value   float64
	reward  float64
	done    bool
}

// Policy is a linear softmax policy over a discrete action space, with a
// linear value baseline, trained online via reward-to-go policy gradient
// (REINFORCE with baseline). spec.md treats the policy as an opaque
// collaborator; this is a deliberately simple but genuine learning update
// rather than a stub.
type Policy struct {
	nActions, nInputs int

	weights [][]float64 // nActions x nInputs
	bias    []float64

	valueWeights []float64
	valueBias    float64

	memory []transition
	rng    *rand.Rand
}

func NewPolicy(nActions, nInputs int, rng *rand.Rand) *Policy {
	if rng == nil {
		rng = rand.New(rand.NewSource(1))
	}
	p := &Policy{
		nActions:     nActions,
		nInputs:      nInputs,
		weights:      make([][]float64, nActions),
		bias:         make([]float64, nActions),
		valueWeights: make([]float64, nInputs),
		rng:          rng,
	}
	for a := range p.weights {
		p.weights[a] = make([]float64, nInputs)
		for i := range p.weights[a] {
			p.weights[a][i] = (rng.Float64()*2 - 1) * 0.01
		}
	}
	return p
}

func toFloat(state []int) []float64 {
	f := make([]float64, len(state))
	for i, v := range state {
		f[i] = float64(v)
	}
	return f
}

func (p *Policy) logits(state []float64) []float64 {
	out := make([]float64, p.nActions)
	for a := range out {
		sum := p.bias[a]
		for i, s := range state {
			sum += p.weights[a][i] * s
		}
		out[a] = sum
	}
	return out
}

func softmax(logits []float64) []float64 {
	max := logits[0]
	for _, l := range logits[1:] {
		if l > max {
			max = l
		}
	}
	probs := make([]float64, len(logits))
	sum := 0.0
	for i, l := range logits {
		probs[i] = math.Exp(l - max)
		sum += probs[i]
	}
	for i := range probs {
		probs[i] /= sum
	}
	return probs
}

func (p *Policy) valueOf(state []float64) float64 {
	v := p.valueBias
	for i, s := range state {
		v += p.valueWeights[i] * s
	}
	return v
}

// ChooseAction samples an action from the policy's current distribution
// over state, returning the sampled action and the policy's value estimate
// of the state (both needed by Remember).
func (p *Policy) ChooseAction(state []int) (action int, value float64) {
	f := toFloat(state)
	probs := softmax(p.logits(f))

	r := p.rng.Float64()
	cum := 0.0
	action = len(probs) - 1
	for i, pr := range probs {
		cum += pr
		if r <= cum {
			action = i
			break
		}
	}
	value = p.valueOf(f)
	return action, value
}

// Remember appends one transition to the policy's replay buffer, to be
// consumed by the next Learn call.
func (p *Policy) Remember(state []int, action int, value, reward float64, done bool) {
	p.memory = append(p.memory, transition{
		state:  toFloat(state),
		action: action,
		value:  value,
		reward: reward,
		done:   done,
	})
}

// Learn consumes every remembered transition: computes discounted
// reward-to-go returns per episode boundary (a running return resets to
// zero whenever a transition is marked done), then applies a policy-gradient
// update (the softmax's score-function gradient, scaled by the
// baseline-subtracted advantage) plus a squared-error value update. The
// replay buffer is cleared afterward.
func (p *Policy) Learn() {
	if len(p.memory) == 0 {
		return
	}

	returns := make([]float64, len(p.memory))
	running := 0.0
	for i := len(p.memory) - 1; i >= 0; i-- {
		t := p.memory[i]
		if t.done {
			running = 0
		}
		running = t.reward + discount*running
		returns[i] = running
	}

	for i, t := range p.memory {
		advantage := returns[i] - t.value
		probs := softmax(p.logits(t.state))
		for a := range p.weights {
			indicator := 0.0
			if a == t.action {
				indicator = 1
			}
			grad := (indicator - probs[a]) * advantage
			for j, s := range t.state {
				p.weights[a][j] += learningRate * grad * s
			}
			p.bias[a] += learningRate * grad
		}
		for j, s := range t.state {
			p.valueWeights[j] += learningRate * advantage * s
		}
		p.valueBias += learningRate * advantage
	}

	p.memory = p.memory[:0]
}

type snapshot struct {
	NActions, NInputs int
	Weights           [][]float64
	Bias              []float64
	ValueWeights      []float64
	ValueBias         float64
}

func (p *Policy) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	snap := snapshot{
		NActions:     p.nActions,
		NInputs:      p.nInputs,
		Weights:      p.weights,
		Bias:         p.bias,
		ValueWeights: p.valueWeights,
		ValueBias:    p.valueBias,
	}
	return gob.NewEncoder(f).Encode(snap)
}

func (p *Policy) Load(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var snap snapshot
	if err := gob.NewDecoder(f).Decode(&snap); err != nil {
		return err
	}
	p.nActions, p.nInputs = snap.NActions, snap.NInputs
	p.weights, p.bias = snap.Weights, snap.Bias
	p.valueWeights, p.valueBias = snap.ValueWeights, snap.ValueBias
	return nil
}
