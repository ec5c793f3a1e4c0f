package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/riskflow/internal/result"
	"github.com/roach88/riskflow/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database  string
	Iteration int // -1 selects all
	Period    int // -1 selects all
	Path      string
}

// TraceRow is one stored result with its names resolved.
type TraceRow struct {
	Iteration int      `json:"iteration"`
	Period    int      `json:"period"`
	Path      string   `json:"path"`
	Field     string   `json:"field"`
	Collector string   `json:"collector"`
	Value     *float64 `json:"value"`
}

// TraceResult holds the rows of one run in production order.
type TraceResult struct {
	RunID int64      `json:"run_id"`
	Rows  []TraceRow `json:"rows"`
	Stats TraceStats `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	Rows  int `json:"rows"`
	Steps int `json:"steps"`
	Nulls int `json:"nulls"`
}

// WriteText prints one line per row.
func (r TraceResult) WriteText(w io.Writer) error {
	rows := make([][]string, len(r.Rows))
	for i, row := range r.Rows {
		value := "null"
		if row.Value != nil {
			value = strconv.FormatFloat(*row.Value, 'g', -1, 64)
		}
		rows[i] = []string{strconv.Itoa(row.Iteration), strconv.Itoa(row.Period), row.Path, row.Field, row.Collector, value}
	}
	if err := writeTable(w, []string{"ITERATION", "PERIOD", "PATH", "FIELD", "COLLECTOR", "VALUE"}, rows); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "%d row(s) in %d step(s), %d null\n", r.Stats.Rows, r.Stats.Steps, r.Stats.Nulls)
	return err
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace <run-id>",
		Short: "List the stored results of a run",
		Long: `List every stored result of a run in production order, with path,
field and collector ids resolved to their names.

Examples:
  riskflow trace --db ./riskflow.db 3
  riskflow trace --db ./riskflow.db 3 --iteration 0 --path net`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().IntVar(&opts.Iteration, "iteration", -1, "only this iteration")
	cmd.Flags().IntVar(&opts.Period, "period", -1, "only this period")
	cmd.Flags().StringVar(&opts.Path, "path", "", "only this component path")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runTrace(opts *TraceOptions, arg string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	runID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || runID <= 0 {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid run id %q", arg))
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := commandContext(cmd)
	if _, err := st.ReadRun(ctx, runID); err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			_ = formatter.Error("E005", fmt.Sprintf("run %d not found", runID), nil)
		}
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	var names [3]map[int64]string
	for _, kind := range []result.MappingKind{result.PathMapping, result.FieldMapping, result.CollectorMapping} {
		entries, err := st.ReadMappings(ctx, runID, kind)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read mappings", err)
		}
		names[kind] = make(map[int64]string, len(entries))
		for _, e := range entries {
			names[kind][e.ID] = e.Name
		}
	}

	rows, err := st.ReadResults(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read results", err)
	}
	formatter.VerboseLog("Read %d row(s) of run %d", len(rows), runID)

	out := TraceResult{RunID: runID, Rows: []TraceRow{}}
	type step struct{ iteration, period int }
	steps := map[step]bool{}
	for _, r := range rows {
		if opts.Iteration >= 0 && r.Iteration != opts.Iteration {
			continue
		}
		if opts.Period >= 0 && r.Period != opts.Period {
			continue
		}
		path := names[result.PathMapping][r.PathID]
		if opts.Path != "" && path != opts.Path {
			continue
		}
		out.Rows = append(out.Rows, TraceRow{
			Iteration: r.Iteration,
			Period:    r.Period,
			Path:      path,
			Field:     names[result.FieldMapping][r.FieldID],
			Collector: names[result.CollectorMapping][r.CollectorID],
			Value:     r.Value,
		})
		steps[step{r.Iteration, r.Period}] = true
		if r.Value == nil {
			out.Stats.Nulls++
		}
	}
	out.Stats.Rows = len(out.Rows)
	out.Stats.Steps = len(steps)
	return formatter.Success(out)
}
