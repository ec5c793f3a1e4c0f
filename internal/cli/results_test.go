package cli

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// simulate runs motorModel into a fresh database and returns its path.
func simulate(t *testing.T) string {
	t.Helper()
	db := filepath.Join(t.TempDir(), "riskflow.db")
	_, logs, err := executeRun(t, "--db", db, writeModelDir(t, motorModel))
	require.NoError(t, err, logs)
	return db
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	buf := &bytes.Buffer{}
	cmd.SetOut(buf)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestResults_SummarizesStoredRun(t *testing.T) {
	db := simulate(t)

	out, err := execute(t, NewResultsCommand(&RootOptions{Format: "json"}), "--db", db, "1")
	require.NoError(t, err)

	var resp struct {
		Status string        `json:"status"`
		Data   ResultsReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	report := resp.Data

	assert.Equal(t, "completed", report.Status)
	assert.Equal(t, "run-token-1", report.Token)
	assert.Equal(t, int64(6*motorRecordsPerStep), report.Rows)

	var keys []string
	for _, f := range report.Fields {
		keys = append(keys, f.Path+"/"+f.Field+"/"+f.Collector)
		assert.Equal(t, int64(6), f.Count, "one value per step for %s", f.Path+"/"+f.Field)
		assert.LessOrEqual(t, f.Min, f.Mean)
		assert.LessOrEqual(t, f.Mean, f.Max)
	}
	assert.Equal(t, []string{
		"ceded/count/AGGREGATED",
		"ceded/ultimate/AGGREGATED",
		"gross/frequency/SINGLE",
		"net/count/AGGREGATED",
		"net/ultimate/AGGREGATED",
	}, keys)
}

func TestResults_Text(t *testing.T) {
	db := simulate(t)

	out, err := execute(t, NewResultsCommand(&RootOptions{Format: "text"}), "--db", db, "1")
	require.NoError(t, err)
	assert.Contains(t, out, `Run 1 "motor" (run-token-1): completed, 30 row(s)`)
	assert.Contains(t, out, "PATH")
	assert.Contains(t, out, "frequency")
}

func TestResults_Errors(t *testing.T) {
	db := simulate(t)

	_, err := execute(t, NewResultsCommand(&RootOptions{Format: "text"}), "--db", db, "42")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
	assert.Contains(t, err.Error(), "run not found")

	_, err = execute(t, NewResultsCommand(&RootOptions{Format: "text"}), "--db", db, "abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid run id")

	_, err = execute(t, NewResultsCommand(&RootOptions{Format: "text"}), "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required flag")
}

func TestTrace_FiltersRows(t *testing.T) {
	db := simulate(t)

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "json"}), "--db", db, "--iteration", "1", "--path", "net", "1")
	require.NoError(t, err)

	var resp struct {
		Data TraceResult `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	trace := resp.Data

	assert.Equal(t, int64(1), trace.RunID)
	assert.Equal(t, TraceStats{Rows: 4, Steps: 2, Nulls: 0}, trace.Stats)
	for i, row := range trace.Rows {
		assert.Equal(t, 1, row.Iteration)
		assert.Equal(t, "net", row.Path)
		assert.Equal(t, "AGGREGATED", row.Collector)
		assert.Equal(t, i/2, row.Period, "rows come in production order")
		require.NotNil(t, row.Value)
	}
	assert.Equal(t, "ultimate", trace.Rows[0].Field)
	assert.Equal(t, "count", trace.Rows[1].Field)
}

func TestTrace_AllRowsText(t *testing.T) {
	db := simulate(t)

	out, err := execute(t, NewTraceCommand(&RootOptions{Format: "text"}), "--db", db, "1")
	require.NoError(t, err)
	assert.Contains(t, out, "ITERATION")
	assert.Contains(t, out, "30 row(s) in 6 step(s), 0 null")
}
