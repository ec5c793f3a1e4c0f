package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/riskflow/internal/packet"
	"github.com/roach88/riskflow/internal/result"
	"github.com/roach88/riskflow/internal/wiring"
)

type claim struct {
	packet.Envelope
	Amount float64
}

var errBoom = errors.New("boom")

// newSource emits n claims per step on "outClaims", valued
// iteration*100 + period*10 + i.
func newSource(name string, n int) *wiring.Component {
	c := wiring.NewComponent(name, "source", wiring.LogicFunc(func(ctx context.Context, step *wiring.Step) error {
		for i := 0; i < n; i++ {
			v := float64(step.Iteration*100 + step.Period*10 + i)
			if err := step.Emit("outClaims", &claim{Amount: v}); err != nil {
				return err
			}
		}
		return nil
	}))
	wiring.Out[*claim](c, "outClaims")
	return c
}

// newRandomSource emits n uniformly drawn claims per step.
func newRandomSource(name string, n int) *wiring.Component {
	c := wiring.NewComponent(name, "random-source", wiring.LogicFunc(func(ctx context.Context, step *wiring.Step) error {
		for i := 0; i < n; i++ {
			if err := step.Emit("outClaims", &claim{Amount: step.Rand.Float64()}); err != nil {
				return err
			}
		}
		return nil
	}))
	wiring.Out[*claim](c, "outClaims")
	return c
}

// newCollector records each claim's amount and, with count set, the number
// of claims per step.
func newCollector(name string, count bool) *wiring.Component {
	c := wiring.NewComponent(name, "collector", wiring.LogicFunc(func(ctx context.Context, step *wiring.Step) error {
		in := step.In("inClaims")
		for _, p := range in.All() {
			step.Collect(result.Observation{Field: "amount", Value: result.Float(p.(*claim).Amount)})
		}
		if count {
			step.Collect(result.Observation{Field: "count", Collector: result.CollectorSingle, Value: result.Float(float64(in.Len()))})
		}
		return nil
	}))
	wiring.In[*claim](c, "inClaims")
	return c
}

// newFailingAt collects one observation and fails in the given period.
func newFailingAt(name string, period int) *wiring.Component {
	c := wiring.NewComponent(name, "failing", wiring.LogicFunc(func(ctx context.Context, step *wiring.Step) error {
		step.Collect(result.Observation{Field: "partial", Value: result.Float(1)})
		if step.Period == period {
			return errBoom
		}
		return nil
	}))
	wiring.In[*claim](c, "inClaims")
	return c
}

// pipeline builds and seals source → receiver.
func pipeline(t *testing.T, source, receiver *wiring.Component) *wiring.Graph {
	t.Helper()
	g := wiring.NewGraph()
	require.NoError(t, g.AddComponent(source))
	require.NoError(t, g.AddComponent(receiver))
	_, err := g.Wire(source.Name(), "outClaims", receiver.Name(), "inClaims")
	require.NoError(t, err)
	require.NoError(t, g.Seal())
	return g
}

func testRun(id int64, iterations, periods int) SimulationRun {
	return SimulationRun{ID: id, Token: "run-test", Name: "test", Iterations: iterations, Periods: periods, Seed: 42}
}
