package harness

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roach88/riskflow/internal/components"
	"github.com/roach88/riskflow/internal/engine"
	"github.com/roach88/riskflow/internal/logging"
	"github.com/roach88/riskflow/internal/model"
	"github.com/roach88/riskflow/internal/result"
	"github.com/roach88/riskflow/internal/sink"
)

// scenarioRunID is stamped on every record of a scenario run.
const scenarioRunID = 1

// Harness holds the dependencies of scenario runs.
type Harness struct {
	library *components.Library
	logger  *slog.Logger
}

// Option configures a Harness.
type Option func(*Harness)

// WithLibrary sets the component library models are built from.
func WithLibrary(lib *components.Library) Option {
	return func(h *Harness) {
		h.library = lib
	}
}

// WithLogger sets the logger handed to the runner.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Harness) {
		h.logger = logger
	}
}

// Run executes a scenario and returns the result.
//
// The model is loaded and built the same way the run command does it and
// driven by a real runner. Results go to an in-memory generic sink, so
// nothing is persisted. An error is returned when the scenario cannot run;
// failed assertions are reported on the result.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	h := &Harness{
		library: components.NewLibrary(),
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h.run(context.Background(), scenario)
}

func (h *Harness) run(ctx context.Context, scenario *Scenario) (*Result, error) {
	def, err := model.Load(scenario.Model)
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}
	if scenario.Iterations != nil {
		def.Iterations = *scenario.Iterations
	}
	if scenario.Periods != nil {
		def.Periods = *scenario.Periods
	}
	if scenario.Seed != nil {
		def.Seed = *scenario.Seed
	}

	graph, err := model.Build(def, h.library)
	if err != nil {
		return nil, fmt.Errorf("failed to build model: %w", err)
	}

	token := scenario.Token
	if token == "" {
		token = "scenario-" + scenario.Name
	}
	run := engine.NewRun(engine.NewFixedGenerator(token), def.Name, def.Iterations, def.Periods, def.Seed)
	run.ID = scenarioRunID

	memory := sink.NewGeneric(nil, sink.DefaultBatchSize, h.logger)
	runner := engine.New(run, graph, memory, engine.WithLogger(h.logger))
	out, err := runner.Run(ctx)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", scenario.Name, err)
	}

	res := NewResult()
	res.Steps = out.Steps
	for _, c := range graph.Order() {
		res.Order = append(res.Order, c.Name())
	}
	res.Trace = traceOf(memory.Memory(), runner.Mapping())

	evaluate(res, scenario.Assertions)
	return res, nil
}

// traceOf resolves the ids of rows back to their names.
func traceOf(rows []result.Row, m *result.Mapping) []TraceEvent {
	names := func(kind result.MappingKind) map[int64]string {
		out := make(map[int64]string)
		for _, e := range m.Entries(kind) {
			out[e.ID] = e.Name
		}
		return out
	}
	paths := names(result.PathMapping)
	fields := names(result.FieldMapping)
	collectors := names(result.CollectorMapping)

	trace := make([]TraceEvent, 0, len(rows))
	for _, r := range rows {
		trace = append(trace, TraceEvent{
			Iteration: r.Iteration,
			Period:    r.Period,
			Path:      paths[r.PathID],
			Field:     fields[r.FieldID],
			Collector: collectors[r.CollectorID],
			Value:     r.Value,
		})
	}
	return trace
}
