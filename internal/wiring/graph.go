package wiring

import (
	"context"
	"log/slog"
)

// Graph holds the components and transmitters of one simulation.
//
// Construction (AddComponent, Wire) happens before Seal. Seal computes the
// topological firing order once; after that the graph is driven step by step
// with Reset and FireStep from a single goroutine.
//
// INVARIANTS:
//   - every transmitter fires at most once between two Reset calls
//   - firing order never changes after Seal
//   - component and transmitter order is declaration order
type Graph struct {
	components   []*Component
	byName       map[string]*Component
	transmitters []*Transmitter
	order        []*Component
	sealed       bool

	step *Step

	logger   *slog.Logger
	observer TransmitObserver
}

// GraphOption configures a Graph.
type GraphOption func(*Graph)

// WithLogger sets the logger used by the graph's transmitters.
func WithLogger(logger *slog.Logger) GraphOption {
	return func(g *Graph) {
		g.logger = logger
	}
}

// WithTransmitObserver registers an observer called after every transmission.
func WithTransmitObserver(fn TransmitObserver) GraphOption {
	return func(g *Graph) {
		g.observer = fn
	}
}

// NewGraph creates an empty graph.
func NewGraph(opts ...GraphOption) *Graph {
	g := &Graph{
		byName: make(map[string]*Component),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// AddComponent adds c to the graph.
func (g *Graph) AddComponent(c *Component) error {
	if g.sealed {
		return newGraphError(ErrCodeSealed, c.name, "", "cannot add component to sealed graph")
	}
	if c.logic == nil {
		return newGraphError(ErrCodeMissingLogic, c.name, "", "component has no logic")
	}
	if _, exists := g.byName[c.name]; exists {
		return newGraphError(ErrCodeDuplicateComponent, c.name, "", "component name already used")
	}
	c.graph = g
	g.components = append(g.components, c)
	g.byName[c.name] = c
	return nil
}

// Component returns the named component.
func (g *Graph) Component(name string) (*Component, bool) {
	c, ok := g.byName[normalizeName(name)]
	return c, ok
}

// Components returns all components in declaration order.
func (g *Graph) Components() []*Component {
	return append([]*Component(nil), g.components...)
}

// Transmitters returns all transmitters in wiring order.
func (g *Graph) Transmitters() []*Transmitter {
	return append([]*Transmitter(nil), g.transmitters...)
}

// Wire connects sender's output channel to receiver's input channel.
func (g *Graph) Wire(sender, source, receiver, target string) (*Transmitter, error) {
	if g.sealed {
		return nil, newGraphError(ErrCodeSealed, sender, source, "cannot wire sealed graph")
	}
	from, ok := g.Component(sender)
	if !ok {
		return nil, newGraphError(ErrCodeUnknownComponent, sender, "", "sender not in graph")
	}
	to, ok := g.Component(receiver)
	if !ok {
		return nil, newGraphError(ErrCodeUnknownComponent, receiver, "", "receiver not in graph")
	}
	src, ok := from.Output(source)
	if !ok {
		return nil, newGraphError(ErrCodeUnknownChannel, from.name, source, "no such output channel")
	}
	dst, ok := to.Input(target)
	if !ok {
		return nil, newGraphError(ErrCodeUnknownChannel, to.name, target, "no such input channel")
	}

	t, err := NewTransmitter(from, src, to, dst)
	if err != nil {
		return nil, err
	}
	t.logger = g.logger
	t.observer = g.observer

	g.transmitters = append(g.transmitters, t)
	return t, nil
}

// SetTransmitObserver replaces the observer on the graph and on every
// transmitter already wired.
func (g *Graph) SetTransmitObserver(fn TransmitObserver) {
	g.observer = fn
	for _, t := range g.transmitters {
		t.observer = fn
	}
}

// Seal computes the firing order. A cycle is returned as *CycleError and
// leaves the graph unsealed.
func (g *Graph) Seal() error {
	if g.sealed {
		return nil
	}
	order, err := topologicalOrder(g.components)
	if err != nil {
		return err
	}
	g.order = order
	g.sealed = true
	return nil
}

// Sealed reports whether Seal succeeded.
func (g *Graph) Sealed() bool {
	return g.sealed
}

// Order returns the firing order computed by Seal.
func (g *Graph) Order() []*Component {
	return append([]*Component(nil), g.order...)
}

// Reset returns every transmitter to idle, clears every channel and forgets
// all notifications of the previous step.
func (g *Graph) Reset() {
	for _, t := range g.transmitters {
		t.Reset()
	}
	for _, c := range g.components {
		c.reset()
	}
}

// FireStep runs one step. Components are visited in topological order; a
// component whose inputs are all satisfied computes and then fires its
// outgoing transmitters in wiring order. Receivers fire synchronously from
// the notification of their last input, so by the time the loop reaches
// them they are usually done already.
//
// The first error aborts the step and is returned unchanged.
func (g *Graph) FireStep(ctx context.Context, step *Step) error {
	if !g.sealed {
		return newGraphError(ErrCodeNotSealed, "", "", "graph must be sealed before firing")
	}
	g.step = step
	defer func() { g.step = nil }()

	for _, c := range g.order {
		if c.state != stateIdle || !c.Ready() {
			continue
		}
		if err := g.fire(ctx, c); err != nil {
			return err
		}
	}
	return nil
}

// fire computes c and transmits all of its outputs.
func (g *Graph) fire(ctx context.Context, c *Component) error {
	if err := c.compute(ctx, g.step); err != nil {
		return err
	}
	for _, t := range c.outgoing {
		if err := t.Transmit(ctx); err != nil {
			return err
		}
	}
	return nil
}
