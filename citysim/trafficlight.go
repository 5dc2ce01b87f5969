package citysim

// TrafficLight holds the current green-phase direction of a single junction.
type TrafficLight struct {
	direction Direction
}

func NewTrafficLight() *TrafficLight {
	return &TrafficLight{direction: Horizontal}
}

func (t *TrafficLight) Direction() Direction { return t.direction }

func (t *TrafficLight) SetDirection(d Direction) { t.direction = d }
