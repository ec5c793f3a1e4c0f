package cli

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutputFormatter_JSONSuccess(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Success(map[string]int{"rows": 12}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	assert.Equal(t, map[string]any{"rows": 12.0}, resp.Data)
	assert.Nil(t, resp.Error)
}

func TestOutputFormatter_JSONError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: buf}

	require.NoError(t, formatter.Error("E110", "invalid wiring", []string{"a.out -> b.in"}))

	var resp CLIResponse
	require.NoError(t, json.Unmarshal(buf.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "E110", resp.Error.Code)
	assert.Equal(t, "invalid wiring", resp.Error.Message)
	assert.NotNil(t, resp.Error.Details)
}

type textOnly struct{ lines []string }

func (t textOnly) WriteText(w io.Writer) error {
	for _, l := range t.lines {
		if _, err := fmt.Fprintln(w, "> "+l); err != nil {
			return err
		}
	}
	return nil
}

func TestOutputFormatter_TextUsesTexter(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Success(textOnly{lines: []string{"a", "b"}}))
	assert.Equal(t, "> a\n> b\n", buf.String())

	buf.Reset()
	require.NoError(t, formatter.Success("model valid"))
	assert.Equal(t, "model valid\n", buf.String())
}

func TestOutputFormatter_TextError(t *testing.T) {
	buf := &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "text", Writer: buf}

	require.NoError(t, formatter.Error("E001", "simulation failed", map[string]string{"step": "0/1"}))
	assert.Contains(t, buf.String(), "Error [E001]: simulation failed")
	assert.NotContains(t, buf.String(), "Details:")

	buf.Reset()
	formatter.Verbose = true
	require.NoError(t, formatter.Error("E001", "simulation failed", map[string]string{"step": "0/1"}))
	assert.Contains(t, buf.String(), "Details:")
}

func TestOutputFormatter_VerboseLogGoesToErrWriter(t *testing.T) {
	out, diag := &bytes.Buffer{}, &bytes.Buffer{}
	formatter := &OutputFormatter{Format: "json", Writer: out, ErrWriter: diag, Verbose: true}

	formatter.VerboseLog("loading %s", "motor.cue")
	assert.Empty(t, out.String())
	assert.Equal(t, "loading motor.cue\n", diag.String())

	formatter.Verbose = false
	formatter.VerboseLog("dropped")
	assert.NotContains(t, diag.String(), "dropped")
}

func TestWriteTable(t *testing.T) {
	buf := &bytes.Buffer{}
	require.NoError(t, writeTable(buf, []string{"path", "rows"}, [][]string{
		{"gross", "12"},
		{"net", "3"},
	}))
	assert.Equal(t, "path   rows\ngross  12\nnet    3\n", buf.String())
}

func TestGetExitCode(t *testing.T) {
	assert.Equal(t, ExitSuccess, GetExitCode(nil))
	assert.Equal(t, ExitFailure, GetExitCode(errors.New("plain")))
	assert.Equal(t, ExitCommandError, GetExitCode(fmt.Errorf("wrapped: %w", NewExitError(ExitCommandError, "no db"))))

	err := WrapExitError(ExitFailure, "simulation failed", errors.New("boom"))
	assert.Equal(t, "simulation failed: boom", err.Error())
}
