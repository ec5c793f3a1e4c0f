// Package testutil provides fixtures shared by the package tests: temporary
// stores, model directories and run tokens.
package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/roach88/riskflow/internal/store"
)

// OpenStore opens a store in a fresh temporary directory. It is closed when
// the test ends.
func OpenStore(t testing.TB) *store.Store {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "riskflow.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

// OpenStoreWithRun opens a temporary store holding one run named name and
// returns the run's id.
func OpenStoreWithRun(t testing.TB, name string) (*store.Store, int64) {
	t.Helper()
	st := OpenStore(t)
	id, err := st.CreateRun(context.Background(), store.Run{Token: "token-" + name, Name: name, Iterations: 1, Periods: 1})
	require.NoError(t, err)
	return st, id
}
