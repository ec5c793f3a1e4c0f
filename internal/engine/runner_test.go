package engine

import (
	"context"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/riskflow/internal/logging"
	"github.com/roach88/riskflow/internal/result"
	"github.com/roach88/riskflow/internal/sink"
	"github.com/roach88/riskflow/internal/wiring"
)

func memorySink() *sink.Generic {
	return sink.NewGeneric(nil, 1000, logging.NewNop())
}

func TestRunner_EndToEnd(t *testing.T) {
	g := pipeline(t, newSource("A", 3), newCollector("B", false))
	s := memorySink()

	out, err := New(testRun(1, 1, 2), g, s, WithLogger(logging.NewNop())).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(2), out.Steps)
	assert.Equal(t, int64(6), out.Records)
	assert.Equal(t, int64(6), out.Rows)
	assert.Equal(t, int64(6), s.Rows())

	rows := s.Memory()
	require.Len(t, rows, 6)
	for i, row := range rows {
		assert.Equal(t, int64(1), row.RunID)
		assert.Equal(t, i/3, row.Period, "row %d", i)
		assert.Equal(t, 0, row.Iteration, "row %d", i)
	}
}

func TestRunner_ZeroCountsCompleteImmediately(t *testing.T) {
	for _, tc := range []struct {
		name                string
		iterations, periods int
	}{
		{"no iterations", 0, 5},
		{"no periods", 5, 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			g := wiring.NewGraph()
			src, dst := newSource("A", 3), newCollector("B", false)
			require.NoError(t, g.AddComponent(src))
			require.NoError(t, g.AddComponent(dst))
			tr, err := g.Wire("A", "outClaims", "B", "inClaims")
			require.NoError(t, err)
			s := memorySink()

			out, err := New(testRun(1, tc.iterations, tc.periods), g, s, WithLogger(logging.NewNop())).Run(context.Background())

			require.NoError(t, err)
			assert.Zero(t, out.Steps)
			assert.Zero(t, out.Records)
			assert.Zero(t, s.Rows())
			assert.False(t, tr.Transmitted(), "no transmitter fires")
		})
	}
}

func TestRunner_NegativeCountsRejected(t *testing.T) {
	g := pipeline(t, newSource("A", 1), newCollector("B", false))

	_, err := New(testRun(1, -1, 1), g, memorySink(), WithLogger(logging.NewNop())).Run(context.Background())

	assert.True(t, HasCode(err, ErrCodeInvalidRun))
}

func TestRunner_UnpersistedRunRejected(t *testing.T) {
	g := pipeline(t, newSource("A", 1), newCollector("B", false))
	s := memorySink()

	out, err := New(NewRun(NewFixedGenerator("no-id"), "test", 2, 2, 1), g, s, WithLogger(logging.NewNop())).Run(context.Background())

	assert.True(t, HasCode(err, ErrCodeInvalidRun))
	assert.Zero(t, out.Steps, "rejected before the first step")
	assert.Zero(t, s.Pending())
}

func TestRunner_GoldenTrace(t *testing.T) {
	g := pipeline(t, newSource("source", 2), newCollector("sink", true))
	s := memorySink()

	_, err := New(testRun(1, 2, 2), g, s, WithLogger(logging.NewNop())).Run(context.Background())
	require.NoError(t, err)

	var b strings.Builder
	for _, row := range s.Memory() {
		b.WriteString(row.Encode())
		b.WriteByte('\n')
	}

	gold := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	gold.Assert(t, "runner_trace", []byte(b.String()))
}

func TestRunner_MappingIDsFollowFirstUse(t *testing.T) {
	g := pipeline(t, newSource("source", 1), newCollector("sink", true))
	r := New(testRun(1, 1, 1), g, memorySink(), WithLogger(logging.NewNop()))

	_, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []result.MappingEntry{{ID: 1, Name: "amount"}, {ID: 2, Name: "count"}},
		r.Mapping().Entries(result.FieldMapping))
	assert.Equal(t, []result.MappingEntry{{ID: 1, Name: result.CollectorAggregated}, {ID: 2, Name: result.CollectorSingle}},
		r.Mapping().Entries(result.CollectorMapping))
}

func TestRunner_DeterministicReplay(t *testing.T) {
	runOnce := func(seed uint64) []result.Row {
		g := pipeline(t, newRandomSource("source", 4), newCollector("sink", false))
		s := memorySink()
		run := testRun(1, 3, 2)
		run.Seed = seed
		_, err := New(run, g, s, WithLogger(logging.NewNop())).Run(context.Background())
		require.NoError(t, err)
		return s.Memory()
	}

	first, second := runOnce(42), runOnce(42)
	require.Len(t, first, 24)
	assert.Equal(t, first, second, "same seed, same records")
	assert.NotEqual(t, first, runOnce(43), "different seed, different records")
}

func TestRunner_ComponentFailureAbortsWithoutPartialStep(t *testing.T) {
	g := pipeline(t, newSource("A", 3), newFailingAt("broken", 1))
	s := memorySink()

	out, err := New(testRun(7, 2, 3), g, s, WithLogger(logging.NewNop())).Run(context.Background())

	require.ErrorIs(t, err, errBoom)
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, int64(7), se.RunID)
	assert.Equal(t, 0, se.Iteration)
	assert.Equal(t, 1, se.Period)
	assert.Equal(t, "broken", se.Component)
	assert.True(t, IsStepError(err))

	assert.Equal(t, int64(1), out.Steps)
	assert.Equal(t, int64(1), out.Records, "only period 0 reached the sink")
	assert.Equal(t, 1, s.Pending())
	assert.Zero(t, out.Rows, "no flush after failure")
	assert.Same(t, err, out.Err)
}

func TestRunner_CycleRejected(t *testing.T) {
	g := wiring.NewGraph()
	a := wiring.NewComponent("a", "loop", wiring.LogicFunc(func(context.Context, *wiring.Step) error { return nil }))
	wiring.In[*claim](a, "inClaims")
	wiring.Out[*claim](a, "outClaims")
	require.NoError(t, g.AddComponent(a))
	_, err := g.Wire("a", "outClaims", "a", "inClaims")
	require.NoError(t, err)

	_, err = New(testRun(1, 1, 1), g, memorySink(), WithLogger(logging.NewNop())).Run(context.Background())

	assert.True(t, HasCode(err, ErrCodeGraphRejected))
	assert.True(t, wiring.IsCycleError(err))
}

func TestRunner_RunsOnce(t *testing.T) {
	g := pipeline(t, newSource("A", 1), newCollector("B", false))
	r := New(testRun(1, 1, 1), g, memorySink(), WithLogger(logging.NewNop()))

	_, err := r.Run(context.Background())
	require.NoError(t, err)
	_, err = r.Run(context.Background())
	assert.True(t, HasCode(err, ErrCodeAlreadyStarted))
}

func TestRunner_CanceledContextStopsBetweenSteps(t *testing.T) {
	g := pipeline(t, newSource("A", 1), newCollector("B", false))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := New(testRun(1, 5, 5), g, memorySink(), WithLogger(logging.NewNop())).Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, out.Steps)
}

func TestRunner_StartSignalsOnce(t *testing.T) {
	g := pipeline(t, newSource("A", 3), newCollector("B", false))

	done := New(testRun(1, 1, 2), g, memorySink(), WithLogger(logging.NewNop())).Start(context.Background())

	out, ok := <-done
	require.True(t, ok)
	assert.NoError(t, out.Err)
	assert.Equal(t, int64(6), out.Rows)

	_, ok = <-done
	assert.False(t, ok, "channel closed after the single outcome")
}

func TestRunner_StartSignalsFailure(t *testing.T) {
	g := pipeline(t, newSource("A", 1), newFailingAt("broken", 0))

	out := <-New(testRun(1, 1, 1), g, memorySink(), WithLogger(logging.NewNop())).Start(context.Background())

	assert.True(t, IsStepError(out.Err))
}

func TestRunner_StartSignalsLogicPanic(t *testing.T) {
	broken := wiring.NewComponent("broken", "panicking", wiring.LogicFunc(func(ctx context.Context, step *wiring.Step) error {
		step.Out("missing")
		return nil
	}))
	wiring.In[*claim](broken, "inClaims")
	g := pipeline(t, newSource("A", 1), broken)

	out, ok := <-New(testRun(3, 2, 2), g, memorySink(), WithLogger(logging.NewNop())).Start(context.Background())

	require.True(t, ok, "an outcome is delivered")
	var se *StepError
	require.ErrorAs(t, out.Err, &se)
	assert.Equal(t, "broken", se.Component)
	assert.Equal(t, 0, se.Iteration)
	assert.Equal(t, 0, se.Period)
	var pe *wiring.PanicError
	assert.ErrorAs(t, out.Err, &pe)
	assert.Zero(t, out.Steps)
}

func TestRunner_Hooks(t *testing.T) {
	g := pipeline(t, newSource("A", 2), newCollector("B", false))
	var (
		steps     []Tick
		transmits []TransmitEvent
		flushes   []FlushEvent
		ends      int
	)
	hooks := Hooks{
		OnStep:     func(_ context.Context, e StepEvent) { steps = append(steps, e.Tick) },
		OnTransmit: func(e TransmitEvent) { transmits = append(transmits, e) },
		OnFlush:    func(_ context.Context, e FlushEvent) { flushes = append(flushes, e) },
	}
	counter := Hooks{OnRunEnd: func(context.Context, Outcome) { ends++ }}

	r := New(testRun(3, 2, 1), g, memorySink(), WithLogger(logging.NewNop()), WithHooks(hooks), WithHooks(counter))
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []Tick{{Seq: 1, Iteration: 0, Period: 0}, {Seq: 2, Iteration: 1, Period: 0}}, steps)
	require.Len(t, transmits, 2)
	assert.Equal(t, TransmitEvent{Sender: "A", Receiver: "B", Channel: "outClaims", Packets: 2}, transmits[0])
	require.Len(t, flushes, 1)
	assert.Equal(t, int64(4), flushes[0].Rows)
	assert.NoError(t, flushes[0].Err)
	assert.Equal(t, 1, ends)
	assert.Equal(t, int64(2), r.Clock().Current())
}

func TestRunner_FlushFailureReported(t *testing.T) {
	g := pipeline(t, newSource("A", 1), newCollector("B", false))
	s := &failingSink{}

	_, err := New(testRun(5, 1, 1), g, s, WithLogger(logging.NewNop())).Run(context.Background())

	assert.True(t, HasCode(err, ErrCodeSinkFailed))
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), "run=5")
}

type failingSink struct{ added int }

func (f *failingSink) AddResults(_ context.Context, records []result.Record) error {
	f.added += len(records)
	return nil
}
func (f *failingSink) Flush(context.Context) error { return errBoom }
func (f *failingSink) Rows() int64                  { return 0 }
