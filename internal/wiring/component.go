package wiring

import (
	"context"
	"errors"

	"github.com/roach88/riskflow/internal/packet"
)

// Logic is the pluggable computation of a component. Compute runs once per
// step, after every input channel has been filled, and writes its output
// channels through step.Out or step.Emit.
type Logic interface {
	Compute(ctx context.Context, step *Step) error
}

// LogicFunc adapts a function to Logic.
type LogicFunc func(ctx context.Context, step *Step) error

// Compute calls f.
func (f LogicFunc) Compute(ctx context.Context, step *Step) error {
	return f(ctx, step)
}

type fireState uint8

const (
	stateIdle fireState = iota
	stateComputing
	stateDone
)

// Component is a node of the simulation graph.
//
// It owns its named input and output channels, which are declared once and
// cleared by the graph at the start of every step. A component fires when
// every transmitter wired into it has delivered for the current step.
type Component struct {
	name  string
	kind  string
	logic Logic

	inputs      map[string]*packet.Channel
	inputOrder  []*packet.Channel
	outputs     map[string]*packet.Channel
	outputOrder []*packet.Channel

	incoming []*Transmitter
	outgoing []*Transmitter

	notified map[*Transmitter]struct{}
	state    fireState
	graph    *Graph
}

// NewComponent creates a component. kind names the component class and is
// used in diagnostics.
func NewComponent(name, kind string, logic Logic) *Component {
	return &Component{
		name:     normalizeName(name),
		kind:     kind,
		logic:    logic,
		inputs:   make(map[string]*packet.Channel),
		outputs:  make(map[string]*packet.Channel),
		notified: make(map[*Transmitter]struct{}),
	}
}

// Name returns the component name.
func (c *Component) Name() string {
	return c.name
}

// Kind returns the component class.
func (c *Component) Kind() string {
	return c.kind
}

// DeclareInput registers ch as an input channel.
func (c *Component) DeclareInput(ch *packet.Channel) error {
	return c.declare(c.inputs, &c.inputOrder, ch)
}

// DeclareOutput registers ch as an output channel.
func (c *Component) DeclareOutput(ch *packet.Channel) error {
	return c.declare(c.outputs, &c.outputOrder, ch)
}

func (c *Component) declare(set map[string]*packet.Channel, order *[]*packet.Channel, ch *packet.Channel) error {
	name := normalizeName(ch.Name())
	if _, exists := c.inputs[name]; exists {
		return newGraphError(ErrCodeDuplicateChannel, c.name, name, "channel already declared")
	}
	if _, exists := c.outputs[name]; exists {
		return newGraphError(ErrCodeDuplicateChannel, c.name, name, "channel already declared")
	}
	set[name] = ch
	*order = append(*order, ch)
	return nil
}

// In declares and returns a typed input channel. It panics on a duplicate
// name and is meant for component constructors.
func In[T packet.Packet](c *Component, name string) *packet.Channel {
	ch := packet.NewChannel[T](name)
	if err := c.DeclareInput(ch); err != nil {
		panic(err)
	}
	return ch
}

// Out declares and returns a typed output channel. It panics on a duplicate name.
func Out[T packet.Packet](c *Component, name string) *packet.Channel {
	ch := packet.NewChannel[T](name)
	if err := c.DeclareOutput(ch); err != nil {
		panic(err)
	}
	return ch
}

// Input returns the named input channel.
func (c *Component) Input(name string) (*packet.Channel, bool) {
	ch, ok := c.inputs[normalizeName(name)]
	return ch, ok
}

// Output returns the named output channel.
func (c *Component) Output(name string) (*packet.Channel, bool) {
	ch, ok := c.outputs[normalizeName(name)]
	return ch, ok
}

// Inputs returns the input channels in declaration order.
func (c *Component) Inputs() []*packet.Channel {
	return append([]*packet.Channel(nil), c.inputOrder...)
}

// Outputs returns the output channels in declaration order.
func (c *Component) Outputs() []*packet.Channel {
	return append([]*packet.Channel(nil), c.outputOrder...)
}

// outputName returns the name under which c owns ch.
func (c *Component) outputName(ch *packet.Channel) (string, bool) {
	for name, owned := range c.outputs {
		if owned == ch {
			return name, true
		}
	}
	return "", false
}

func (c *Component) ownsInput(ch *packet.Channel) bool {
	for _, owned := range c.inputOrder {
		if owned == ch {
			return true
		}
	}
	return false
}

// Ready reports whether every incoming transmitter has delivered this step.
func (c *Component) Ready() bool {
	return len(c.notified) == len(c.incoming)
}

// Fired reports whether the component has computed in the current step.
func (c *Component) Fired() bool {
	return c.state == stateDone
}

// NotifyTransmitted is called by t after it delivered its batch into one of
// c's input channels. When the last incoming transmitter has delivered, the
// component fires synchronously.
func (c *Component) NotifyTransmitted(ctx context.Context, t *Transmitter) error {
	if t.receiver != c {
		return newGraphError(ErrCodeUnknownTransmitter, c.name, t.senderChannelName, "notified by transmitter wired to %s", t.receiver.name)
	}
	if _, seen := c.notified[t]; seen {
		return newGraphError(ErrCodeDuplicateNotification, c.name, t.senderChannelName, "already notified by %s this step", t.sender.name)
	}
	c.notified[t] = struct{}{}

	if c.Ready() && c.state == stateIdle && c.graph != nil && c.graph.step != nil {
		return c.graph.fire(ctx, c)
	}
	return nil
}

// compute runs the component's logic. Failures are attributed to c unless
// they already carry a component attribution from further down the graph.
func (c *Component) compute(ctx context.Context, step *Step) error {
	if c.state == stateComputing {
		return newGraphError(ErrCodeReentrantFiring, c.name, "", "component fired while computing")
	}
	c.state = stateComputing
	err := c.run(ctx, step)
	if err != nil {
		c.state = stateIdle
		var ce *ComponentError
		var re *RetransmissionError
		var ge *GraphError
		if errors.As(err, &ce) || errors.As(err, &re) || errors.As(err, &ge) {
			return err
		}
		return &ComponentError{Component: c.name, Kind: c.kind, Err: err}
	}
	c.state = stateDone
	return nil
}

// run invokes the logic with c as the computing component. A panic in the
// logic is returned as a *PanicError.
func (c *Component) run(ctx context.Context, step *Step) (err error) {
	prev := step.current
	step.current = c
	defer func() {
		step.current = prev
		if r := recover(); r != nil {
			err = &PanicError{Value: r}
		}
	}()
	return c.logic.Compute(ctx, step)
}

// reset prepares the component for a new step.
func (c *Component) reset() {
	for _, ch := range c.inputOrder {
		ch.Clear()
	}
	for _, ch := range c.outputOrder {
		ch.Clear()
	}
	clear(c.notified)
	c.state = stateIdle
}
