package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/riskflow/internal/components"
	"github.com/roach88/riskflow/internal/logging"
	"github.com/roach88/riskflow/internal/model"
	"github.com/roach88/riskflow/internal/wiring"
)

// ValidationResult describes a valid model.
type ValidationResult struct {
	Valid      bool            `json:"valid"`
	Name       string          `json:"name"`
	Iterations int             `json:"iterations"`
	Periods    int             `json:"periods"`
	Seed       uint64          `json:"seed"`
	Components []ComponentInfo `json:"components"`
	Order      []string        `json:"order"`
	Wiring     []string        `json:"wiring"`
}

// ComponentInfo names one component of a validated model.
type ComponentInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// WriteText prints the model header and its firing order.
func (r ValidationResult) WriteText(w io.Writer) error {
	fmt.Fprintf(w, "✓ Model %q valid: %d iteration(s) × %d period(s), seed %d\n", r.Name, r.Iterations, r.Periods, r.Seed)
	fmt.Fprintf(w, "Firing order: %s\n", strings.Join(r.Order, " → "))
	rows := make([][]string, len(r.Components))
	for i, c := range r.Components {
		rows[i] = []string{c.Name, c.Kind}
	}
	return writeTable(w, []string{"COMPONENT", "KIND"}, rows)
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <model-dir>",
		Short: "Check a model without running it",
		Long: `Load a CUE model, build every component and its wiring, and compute
the firing order. Reports the first error with its source position.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(rootOpts, args[0], cmd)
		},
	}
	return cmd
}

func runValidate(opts *RootOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	def, graph, err := loadModel(dir, wiring.WithLogger(logging.NewNop()))
	if err != nil {
		return outputModelError(formatter, err)
	}
	formatter.VerboseLog("Loaded %d CUE file(s) from %s", def.Files, dir)

	res := ValidationResult{
		Valid:      true,
		Name:       def.Name,
		Iterations: def.Iterations,
		Periods:    def.Periods,
		Seed:       def.Seed,
	}
	for _, c := range graph.Components() {
		res.Components = append(res.Components, ComponentInfo{Name: c.Name(), Kind: c.Kind()})
	}
	for _, c := range graph.Order() {
		res.Order = append(res.Order, c.Name())
	}
	for _, w := range def.Wiring {
		res.Wiring = append(res.Wiring, w.String())
	}
	return formatter.Success(res)
}

// loadModel loads and builds the model in dir.
func loadModel(dir string, opts ...wiring.GraphOption) (*model.Definition, *wiring.Graph, error) {
	def, err := model.Load(dir)
	if err != nil {
		return nil, nil, err
	}
	graph, err := model.Build(def, components.NewLibrary(), opts...)
	if err != nil {
		return nil, nil, err
	}
	return def, graph, nil
}

// outputModelError reports a load or build error. A missing or empty model
// directory is a command error; an invalid model is a failure.
func outputModelError(formatter *OutputFormatter, err error) error {
	code := model.Code(err)
	var details any
	var le *model.LoadError
	if errors.As(err, &le) && le.Pos.IsValid() {
		details = map[string]any{"file": le.Pos.Filename(), "line": le.Pos.Line(), "column": le.Pos.Column()}
	}
	_ = formatter.Error(code, err.Error(), details)

	switch code {
	case model.ErrCodeNotFound, model.ErrCodeNoFiles, model.ErrCodeScanError:
		return WrapExitError(ExitCommandError, "cannot load model", err)
	default:
		return WrapExitError(ExitFailure, "invalid model", err)
	}
}
