package wiring

import (
	"math/rand/v2"

	"github.com/roach88/riskflow/internal/packet"
	"github.com/roach88/riskflow/internal/result"
)

// Step is the view of one (iteration, period) cell handed to component logic.
//
// In and Out resolve against the component currently computing. Collect hands
// observations to the engine's collection buffer; nothing is persisted until
// every component of the step has fired.
type Step struct {
	Iteration int
	Period    int
	Rand      *rand.Rand

	observe func(result.Observation)
	current *Component
}

// NewStep creates the step context for one (iteration, period) cell.
// observe receives every collected observation; it may be nil to discard them.
func NewStep(iteration, period int, rng *rand.Rand, observe func(result.Observation)) *Step {
	return &Step{
		Iteration: iteration,
		Period:    period,
		Rand:      rng,
		observe:   observe,
	}
}

// Component returns the component currently computing, or nil between computations.
func (s *Step) Component() *Component {
	return s.current
}

// In returns the named input channel of the computing component.
// It panics on an undeclared name; the panic surfaces as the component's failure.
func (s *Step) In(name string) *packet.Channel {
	ch, ok := s.current.Input(name)
	if !ok {
		panic("wiring: component " + s.current.name + " has no input channel " + name)
	}
	return ch
}

// Out returns the named output channel of the computing component.
func (s *Step) Out(name string) *packet.Channel {
	ch, ok := s.current.Output(name)
	if !ok {
		panic("wiring: component " + s.current.name + " has no output channel " + name)
	}
	return ch
}

// Emit appends p to the named output channel.
func (s *Step) Emit(channel string, p packet.Packet) error {
	ch, ok := s.current.Output(channel)
	if !ok {
		return newGraphError(ErrCodeUnknownChannel, s.current.name, channel, "emit to undeclared output channel")
	}
	return ch.Append(p)
}

// Collect records an observation. An empty path defaults to the computing
// component's name.
func (s *Step) Collect(obs result.Observation) {
	if s.observe == nil {
		return
	}
	if obs.Path == "" && s.current != nil {
		obs.Path = s.current.name
	}
	s.observe(obs)
}
