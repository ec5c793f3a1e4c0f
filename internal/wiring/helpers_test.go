package wiring

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/riskflow/internal/packet"
	"github.com/roach88/riskflow/internal/result"
)

type claim struct {
	packet.Envelope
	Amount float64
}

type premium struct {
	packet.Envelope
	Amount float64
}

// newEmitter creates a source component emitting n claims per step on "out".
func newEmitter(name string, n int) *Component {
	c := NewComponent(name, "emitter", LogicFunc(func(ctx context.Context, step *Step) error {
		for i := 0; i < n; i++ {
			if err := step.Emit("out", &claim{Amount: float64(step.Period*10 + i)}); err != nil {
				return err
			}
		}
		return nil
	}))
	Out[*claim](c, "out")
	return c
}

// newRecorder creates a sink component collecting one observation per claim received on "in".
func newRecorder(name string, seen *[]string) *Component {
	c := NewComponent(name, "recorder", LogicFunc(func(ctx context.Context, step *Step) error {
		*seen = append(*seen, name)
		for _, p := range step.In("in").All() {
			step.Collect(result.Observation{Field: "amount", Value: result.Float(p.(*claim).Amount)})
		}
		return nil
	}))
	In[*claim](c, "in")
	return c
}

// newRelay forwards claims from "in" to "out".
func newRelay(name string, seen *[]string) *Component {
	c := NewComponent(name, "relay", LogicFunc(func(ctx context.Context, step *Step) error {
		*seen = append(*seen, name)
		out := step.Out("out")
		for _, p := range step.In("in").All() {
			if err := out.Append(&claim{Amount: p.(*claim).Amount}); err != nil {
				return err
			}
		}
		return nil
	}))
	In[*claim](c, "in")
	Out[*claim](c, "out")
	return c
}

func newFailing(name string, err error) *Component {
	c := NewComponent(name, "failing", LogicFunc(func(ctx context.Context, step *Step) error {
		return err
	}))
	In[*claim](c, "in")
	return c
}

func mustAdd(t *testing.T, g *Graph, cs ...*Component) {
	t.Helper()
	for _, c := range cs {
		require.NoError(t, g.AddComponent(c))
	}
}

func mustWire(t *testing.T, g *Graph, sender, source, receiver, target string) *Transmitter {
	t.Helper()
	tr, err := g.Wire(sender, source, receiver, target)
	require.NoError(t, err)
	return tr
}

func names(cs []*Component) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name()
	}
	return out
}

var errBoom = errors.New("boom")
