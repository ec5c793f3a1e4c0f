package cli

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/riskflow/internal/store"
)

// ResultsOptions holds flags for the results command.
type ResultsOptions struct {
	*RootOptions
	Database string
}

// ResultsReport is the stored summary of one run.
type ResultsReport struct {
	RunID      int64          `json:"run_id"`
	Token      string         `json:"token"`
	Name       string         `json:"name"`
	Status     string         `json:"status"`
	Iterations int            `json:"iterations"`
	Periods    int            `json:"periods"`
	Seed       uint64         `json:"seed"`
	Rows       int64          `json:"rows"`
	Error      string         `json:"error,omitempty"`
	Fields     []FieldSummary `json:"fields"`
}

// FieldSummary is the aggregate of one (path, field, collector).
type FieldSummary struct {
	Path      string  `json:"path"`
	Field     string  `json:"field"`
	Collector string  `json:"collector"`
	Count     int64   `json:"count"`
	Mean      float64 `json:"mean"`
	Min       float64 `json:"min"`
	Max       float64 `json:"max"`
}

// WriteText prints the run header and one line per field.
func (r ResultsReport) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "Run %d %q (%s): %s, %d row(s)\n", r.RunID, r.Name, r.Token, r.Status, r.Rows)
	if r.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", r.Error)
	}
	rows := make([][]string, len(r.Fields))
	for i, f := range r.Fields {
		rows[i] = []string{
			f.Path,
			f.Field,
			f.Collector,
			strconv.FormatInt(f.Count, 10),
			formatFloat(f.Mean),
			formatFloat(f.Min),
			formatFloat(f.Max),
		}
	}
	return writeTable(w, []string{"PATH", "FIELD", "COLLECTOR", "COUNT", "MEAN", "MIN", "MAX"}, rows)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// NewResultsCommand creates the results command.
func NewResultsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResultsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "results <run-id>",
		Short: "Summarize the stored results of a run",
		Long: `Print the status of a recorded run and the count, mean, minimum and
maximum of every collected field. Only results written to the SQLite
database (generic and sqlite sinks) can be summarized.

Example:
  riskflow results --db ./riskflow.db 3`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResults(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runResults(opts *ResultsOptions, arg string, cmd *cobra.Command) error {
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
	run, err := st.ReadRun(ctx, runID)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error("E005", fmt.Sprintf("run %d not found", runID), nil)
		return WrapExitError(ExitCommandError, "run not found", err)
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	summaries, err := st.SummarizeResults(ctx, runID)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to summarize results", err)
	}

	report := ResultsReport{
		RunID:      run.ID,
		Token:      run.Token,
		Name:       run.Name,
		Status:     run.Status,
		Iterations: run.Iterations,
		Periods:    run.Periods,
		Seed:       run.Seed,
		Rows:       run.Rows,
		Error:      run.Error,
		Fields:     make([]FieldSummary, len(summaries)),
	}
	for i, s := range summaries {
		report.Fields[i] = FieldSummary{
			Path:      s.Path,
			Field:     s.Field,
			Collector: s.Collector,
			Count:     s.Count,
			Mean:      s.Mean,
			Min:       s.Min,
			Max:       s.Max,
		}
	}
	return formatter.Success(report)
}
