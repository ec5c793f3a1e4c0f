package metrics

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/riskflow/internal/engine"
)

func TestHooks_FeedCollectors(t *testing.T) {
	m := New()
	h := m.Hooks()
	ctx := context.Background()

	h.OnStep(ctx, engine.StepEvent{Records: 3})
	h.OnStep(ctx, engine.StepEvent{Records: 2})
	h.OnTransmit(engine.TransmitEvent{Sender: "gen", Receiver: "agg", Packets: 4})
	h.OnFlush(ctx, engine.FlushEvent{Duration: 10 * time.Millisecond})
	h.OnRunEnd(ctx, engine.Outcome{})
	h.OnRunEnd(ctx, engine.Outcome{Err: errors.New("boom")})

	assert.Equal(t, 2.0, testutil.ToFloat64(m.steps))
	assert.Equal(t, 5.0, testutil.ToFloat64(m.results))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.transmissions.WithLabelValues("gen", "agg")))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.packets.WithLabelValues("gen", "agg")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("completed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.runs.WithLabelValues("failed")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.flushDuration))
}

func TestHandler_ServesMetrics(t *testing.T) {
	m := New()
	m.Hooks().OnStep(context.Background(), engine.StepEvent{Records: 1})

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "riskflow_steps_total 1")

	resp2, err := http.Get(srv.URL + "/other")
	require.NoError(t, err)
	resp2.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp2.StatusCode)
}
