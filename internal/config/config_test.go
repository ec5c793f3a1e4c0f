package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_TypedAndRaw(t *testing.T) {
	values, cfg, err := Parse([]byte(`
resultBulkInsert: sqlite
resultBatchSize: "250"
database: /tmp/results.db
redis:
  addr: redis:6379
  db: 2
logLevel: debug
`))
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.ResultBulkInsert)
	assert.Equal(t, 250, cfg.ResultBatchSize, "weakly typed string converts")
	assert.Equal(t, "/tmp/results.db", cfg.Database)
	assert.Equal(t, "redis:6379", cfg.Redis.Addr)
	assert.Equal(t, 2, cfg.Redis.DB)
	assert.Equal(t, "riskflow", cfg.Redis.Prefix, "default kept")
	assert.Equal(t, "debug", cfg.LogLevel)

	v, ok := values.Lookup(KeyResultBulkInsert)
	assert.True(t, ok)
	assert.Equal(t, "sqlite", v)

	_, ok = values.Lookup("redis")
	assert.False(t, ok, "nested mappings are not addressable")
}

func TestParse_Negative(t *testing.T) {
	_, _, err := Parse([]byte("resultBatchSize: -1"))
	assert.Error(t, err)
}

func TestParse_Invalid(t *testing.T) {
	_, _, err := Parse([]byte("resultBulkInsert: [unclosed"))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	values, cfg, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, values)
	assert.Equal(t, Defaults(), cfg)

	path := filepath.Join(t.TempDir(), "riskflow.yaml")
	require.NoError(t, os.WriteFile(path, []byte("resultBulkInsert: redis\n"), 0o644))
	values, cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "redis", cfg.ResultBulkInsert)
	assert.Equal(t, 1000, cfg.ResultBatchSize)

	_, _, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValues_Lookup(t *testing.T) {
	v := Values{"n": 3, "f": 1.5, "b": true, "nil": nil}

	got, ok := v.Lookup("n")
	assert.True(t, ok)
	assert.Equal(t, "3", got)
	got, _ = v.Lookup("f")
	assert.Equal(t, "1.5", got)
	got, _ = v.Lookup("b")
	assert.Equal(t, "true", got)
	_, ok = v.Lookup("nil")
	assert.False(t, ok)
	_, ok = v.Lookup("absent")
	assert.False(t, ok)
}

func TestConfig_Source(t *testing.T) {
	cfg := Defaults()
	_, ok := cfg.Source().Lookup(KeyResultBulkInsert)
	assert.False(t, ok, "no sink configured")

	cfg.ResultBulkInsert = "sqlite"
	got, ok := cfg.Source().Lookup(KeyResultBulkInsert)
	assert.True(t, ok)
	assert.Equal(t, "sqlite", got)
	got, _ = cfg.Source().Lookup(KeyResultBatchSize)
	assert.Equal(t, "1000", got)
}
