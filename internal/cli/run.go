package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	backend "github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/roach88/riskflow/internal/config"
	"github.com/roach88/riskflow/internal/engine"
	"github.com/roach88/riskflow/internal/logging"
	"github.com/roach88/riskflow/internal/metrics"
	"github.com/roach88/riskflow/internal/sink"
	"github.com/roach88/riskflow/internal/store"
	"github.com/roach88/riskflow/internal/wiring"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Database    string
	Config      string
	Sink        string
	MetricsAddr string
	Iterations  int

	// TokenGenerator overrides the run token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	TokenGenerator engine.TokenGenerator
}

// RunSummary is the output of a finished run.
type RunSummary struct {
	RunID      int64  `json:"run_id"`
	Token      string `json:"token"`
	Name       string `json:"name"`
	Status     string `json:"status"`
	Sink       string `json:"sink"`
	Iterations int    `json:"iterations"`
	Periods    int    `json:"periods"`
	Steps      int64  `json:"steps"`
	Records    int64  `json:"records"`
	Rows       int64  `json:"rows"`
	Error      string `json:"error,omitempty"`
}

// WriteText prints the summary as key/value lines.
func (s RunSummary) WriteText(w io.Writer) error {
	rows := [][]string{
		{"run", fmt.Sprintf("%d (%s)", s.RunID, s.Token)},
		{"model", s.Name},
		{"status", s.Status},
		{"sink", s.Sink},
		{"steps", fmt.Sprintf("%d of %d×%d", s.Steps, s.Iterations, s.Periods)},
		{"records", fmt.Sprint(s.Records)},
		{"rows", fmt.Sprint(s.Rows)},
	}
	if s.Error != "" {
		rows = append(rows, []string{"error", s.Error})
	}
	return writeTable(w, []string{"SIMULATION", ""}, rows)
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	return newRunCommand(&RunOptions{RootOptions: rootOpts})
}

func newRunCommand(opts *RunOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <model-dir>",
		Short: "Run a simulation",
		Long: `Load a CUE model, run all of its iterations and periods and write the
collected results to the configured result sink.

The run and its name mappings are recorded in a SQLite database, which
is created if it does not exist. The result sink is chosen by the
resultBulkInsert configuration key or the --sink flag.

Example:
  riskflow run --db ./riskflow.db ./models/motor
  riskflow run --config riskflow.yaml --sink redis --metrics-addr :9090 ./models/motor`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSimulation(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (overrides config)")
	cmd.Flags().StringVar(&opts.Config, "config", "", "path to YAML configuration file")
	cmd.Flags().StringVar(&opts.Sink, "sink", "", "result sink name (overrides resultBulkInsert)")
	cmd.Flags().StringVar(&opts.MetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	cmd.Flags().IntVar(&opts.Iterations, "iterations", 0, "override the model's iteration count")

	return cmd
}

func runSimulation(opts *RunOptions, dir string, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	_, cfg, err := config.Load(opts.Config)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid log level", err)
	}
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := logging.NewWriter(cmd.ErrOrStderr(), level)

	if opts.Database != "" {
		cfg.Database = opts.Database
	}
	if opts.Sink != "" {
		cfg.ResultBulkInsert = opts.Sink
	}
	if opts.MetricsAddr != "" {
		cfg.MetricsAddr = opts.MetricsAddr
	}

	logger.Info("loading model", "dir", dir)
	def, graph, err := loadModel(dir, wiring.WithLogger(logger))
	if err != nil {
		return outputModelError(formatter, err)
	}
	if cmd.Flags().Changed("iterations") {
		if opts.Iterations < 0 {
			return NewExitError(ExitCommandError, "--iterations must not be negative")
		}
		def.Iterations = opts.Iterations
	}

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()
	// Bookkeeping outlives cancellation of the run.
	bookCtx := context.WithoutCancel(ctx)

	logger.Info("opening database", "path", cfg.Database)
	st, err := store.Open(cfg.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			logger.Error("error closing database", "error", closeErr)
		}
	}()

	gen := opts.TokenGenerator
	if gen == nil {
		gen = engine.UUIDv7Generator{}
	}
	run := engine.NewRun(gen, def.Name, def.Iterations, def.Periods, def.Seed)
	run.ID, err = st.CreateRun(bookCtx, store.Run{
		Token:      run.Token,
		Name:       run.Name,
		Iterations: run.Iterations,
		Periods:    run.Periods,
		Seed:       run.Seed,
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to record run", err)
	}

	env := sink.Env{
		Store:       st,
		RedisPrefix: cfg.Redis.Prefix,
		BatchSize:   cfg.ResultBatchSize,
		Logger:      logger,
	}
	if cfg.ResultBulkInsert == sink.NameRedis {
		client := backend.NewClient(&backend.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer client.Close()
		env.Redis = client
	}
	bulk := sink.Resolve(cfg.Source(), env)
	defer func() {
		if closeErr := bulk.Close(); closeErr != nil {
			logger.Error("error closing result sink", "sink", bulk.Name(), "error", closeErr)
		}
	}()

	m := metrics.New()
	if cfg.MetricsAddr != "" {
		shutdown := serveMetrics(cfg.MetricsAddr, m, logger)
		defer shutdown()
	}

	runner := engine.New(run, graph, bulk,
		engine.WithLogger(logger),
		engine.WithHooks(m.Hooks()),
	)
	out := <-runner.Start(ctx)

	if err := st.WriteMappings(bookCtx, run.ID, runner.Mapping()); err != nil {
		return WrapExitError(ExitCommandError, "failed to record mappings", err)
	}
	status, errText := store.StatusCompleted, ""
	if out.Err != nil {
		status, errText = store.StatusFailed, out.Err.Error()
	}
	if err := st.FinishRun(bookCtx, run.ID, status, out.Rows, errText); err != nil {
		return WrapExitError(ExitCommandError, "failed to record run status", err)
	}

	summary := RunSummary{
		RunID:      run.ID,
		Token:      run.Token,
		Name:       run.Name,
		Status:     status,
		Sink:       bulk.Name(),
		Iterations: run.Iterations,
		Periods:    run.Periods,
		Steps:      out.Steps,
		Records:    out.Records,
		Rows:       out.Rows,
		Error:      errText,
	}
	if err := formatter.Success(summary); err != nil {
		return err
	}
	if out.Err != nil {
		return WrapExitError(ExitFailure, "simulation failed", out.Err)
	}
	return nil
}

// serveMetrics serves /metrics until the returned shutdown func is called.
func serveMetrics(addr string, m *metrics.Metrics, logger *slog.Logger) (shutdown func()) {
	srv := &http.Server{
		Addr:              addr,
		Handler:           m.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("serving metrics", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server stopped", "error", err)
		}
	}()
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}
}

// commandContext returns the command's context, or Background when unset.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}
