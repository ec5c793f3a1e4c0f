package engine

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync/atomic"
	"time"

	"github.com/roach88/riskflow/internal/result"
	"github.com/roach88/riskflow/internal/wiring"
)

// SimulationRun identifies one full execution. It is created before the run
// starts and never changes while the run executes.
type SimulationRun struct {
	// ID is the persisted run id stamped on every record.
	ID         int64
	Token      string
	Name       string
	Iterations int
	Periods    int
	Seed       uint64
}

// NewRun creates an unpersisted run with a fresh token. Its ID must be set
// before the run is executed.
func NewRun(gen TokenGenerator, name string, iterations, periods int, seed uint64) SimulationRun {
	return SimulationRun{
		Token:      gen.Generate(),
		Name:       name,
		Iterations: iterations,
		Periods:    periods,
		Seed:       seed,
	}
}

// Sink receives each step's records. AddResults must not retain the slice.
// *sink.Generic, *sink.SQLite and *sink.Redis implement it.
type Sink interface {
	AddResults(ctx context.Context, records []result.Record) error
	Flush(ctx context.Context) error
	Rows() int64
}

// Outcome is the completion signal of a run.
type Outcome struct {
	Run SimulationRun
	// Steps is the number of steps fully fired.
	Steps int64
	// Records is the number of records handed to the sink.
	Records int64
	// Rows is the sink's durable row count after the run.
	Rows int64
	Err  error
}

// Runner drives a sealed graph through iterations × periods.
//
// For every step the graph is reset, fired in topological order and its
// collected records handed to the sink as one batch. A step that fails
// contributes nothing to the sink and aborts the run.
//
// INVARIANTS:
//   - steps run in (iteration, period) lexicographic order
//   - iteration i draws from PCG(seed, i), so any iteration replays alone
//   - a runner runs at most once
type Runner struct {
	run     SimulationRun
	graph   *wiring.Graph
	sink    Sink
	mapping *result.Mapping
	clock   *Clock
	hooks   Hooks
	logger  *slog.Logger

	started atomic.Bool
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithHooks adds observability hooks. Repeated use merges them.
func WithHooks(h Hooks) Option {
	return func(r *Runner) {
		r.hooks = r.hooks.Merge(h)
	}
}

// WithMapping supplies the name→id mapping, e.g. to share ids with an
// earlier run. The default is a fresh mapping.
func WithMapping(m *result.Mapping) Option {
	return func(r *Runner) {
		r.mapping = m
	}
}

// New creates a runner. The graph is sealed on Run if it is not yet.
func New(run SimulationRun, graph *wiring.Graph, sink Sink, opts ...Option) *Runner {
	r := &Runner{
		run:     run,
		graph:   graph,
		sink:    sink,
		mapping: result.NewMapping(),
		clock:   NewClock(),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.hooks.OnTransmit != nil {
		onTransmit := r.hooks.OnTransmit
		graph.SetTransmitObserver(func(t *wiring.Transmitter, packets int) {
			onTransmit(TransmitEvent{
				Sender:   t.Sender().Name(),
				Receiver: t.Receiver().Name(),
				Channel:  t.SenderChannelName(),
				Packets:  packets,
			})
		})
	}
	return r
}

// Mapping returns the name→id mapping filled while running.
func (r *Runner) Mapping() *result.Mapping {
	return r.mapping
}

// Clock returns the runner's logical step clock.
func (r *Runner) Clock() *Clock {
	return r.clock
}

// Start runs the simulation on a new goroutine. The returned channel
// receives exactly one Outcome, on success or failure, and is then closed.
func (r *Runner) Start(ctx context.Context) <-chan Outcome {
	done := make(chan Outcome, 1)
	go func() {
		defer close(done)
		out, _ := r.Run(ctx)
		done <- out
	}()
	return done
}

// Run executes every step and flushes the sink. It blocks until the run
// completes or fails; the returned error is also in Outcome.Err.
//
// Zero iterations or periods complete immediately: no step fires and the
// sink receives nothing. The context is checked between steps only.
func (r *Runner) Run(ctx context.Context) (Outcome, error) {
	out := Outcome{Run: r.run}
	if !r.started.CompareAndSwap(false, true) {
		err := &RuntimeError{Code: ErrCodeAlreadyStarted, Message: "runner can only run once", RunID: r.run.ID}
		out.Err = err
		return out, err
	}
	if r.run.ID <= 0 {
		return r.finish(ctx, out, &RuntimeError{
			Code:    ErrCodeInvalidRun,
			Message: "run has no persisted id",
			RunID:   r.run.ID,
		})
	}
	if r.run.Iterations < 0 || r.run.Periods < 0 {
		return r.finish(ctx, out, &RuntimeError{
			Code:    ErrCodeInvalidRun,
			Message: "iterations and periods must not be negative",
			RunID:   r.run.ID,
		})
	}
	if err := r.graph.Seal(); err != nil {
		return r.finish(ctx, out, &RuntimeError{Code: ErrCodeGraphRejected, Message: "graph cannot be ordered", RunID: r.run.ID, Err: err})
	}

	r.logger.Info("simulation starting",
		"run_id", r.run.ID,
		"token", r.run.Token,
		"name", r.run.Name,
		"iterations", r.run.Iterations,
		"periods", r.run.Periods,
		"components", len(r.graph.Components()),
	)

	var (
		records []result.Record
		tick    Tick
	)
	observe := func(obs result.Observation) {
		records = append(records, r.mapping.Resolve(r.run.ID, tick.Iteration, tick.Period, obs))
	}

	for iteration := 0; iteration < r.run.Iterations; iteration++ {
		rng := rand.New(rand.NewPCG(r.run.Seed, uint64(iteration)))
		for period := 0; period < r.run.Periods; period++ {
			if err := ctx.Err(); err != nil {
				return r.finish(ctx, out, err)
			}
			tick = r.clock.Advance(iteration, period)
			records = records[:0]

			r.graph.Reset()
			if err := r.graph.FireStep(ctx, wiring.NewStep(iteration, period, rng, observe)); err != nil {
				return r.finish(ctx, out, &StepError{
					RunID:     r.run.ID,
					Iteration: iteration,
					Period:    period,
					Component: wiring.FailedComponent(err),
					Err:       err,
				})
			}
			out.Steps++

			if len(records) > 0 {
				if err := r.sink.AddResults(ctx, records); err != nil {
					return r.finish(ctx, out, &RuntimeError{Code: ErrCodeSinkFailed, Message: "add results", RunID: r.run.ID, Err: err})
				}
				out.Records += int64(len(records))
			}

			if r.logger.Enabled(ctx, slog.LevelDebug) {
				r.logger.LogAttrs(ctx, slog.LevelDebug, "step fired",
					slog.Int64("seq", tick.Seq),
					slog.Int("iteration", iteration),
					slog.Int("period", period),
					slog.Int("records", len(records)),
				)
			}
			if r.hooks.OnStep != nil {
				r.hooks.OnStep(ctx, StepEvent{RunID: r.run.ID, Tick: tick, Records: len(records)})
			}
		}
	}

	start := time.Now()
	err := r.sink.Flush(ctx)
	if r.hooks.OnFlush != nil {
		r.hooks.OnFlush(ctx, FlushEvent{RunID: r.run.ID, Rows: r.sink.Rows(), Duration: time.Since(start), Err: err})
	}
	if err != nil {
		return r.finish(ctx, out, &RuntimeError{Code: ErrCodeSinkFailed, Message: "final flush", RunID: r.run.ID, Err: err})
	}
	return r.finish(ctx, out, nil)
}

func (r *Runner) finish(ctx context.Context, out Outcome, err error) (Outcome, error) {
	out.Rows = r.sink.Rows()
	out.Err = err
	if err != nil {
		r.logger.Error("simulation failed",
			"run_id", r.run.ID,
			"steps", out.Steps,
			"rows", out.Rows,
			"error", err,
		)
	} else {
		r.logger.Info("simulation completed",
			"run_id", r.run.ID,
			"steps", out.Steps,
			"records", out.Records,
			"rows", out.Rows,
		)
	}
	if r.hooks.OnRunEnd != nil {
		r.hooks.OnRunEnd(ctx, out)
	}
	return out, err
}
