package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollsim/internal/aggregate"
)

type fixedReports uint64

func (f fixedReports) Reports() uint64 { return uint64(f) }

func TestCollectorsReadState(t *testing.T) {
	var st aggregate.State
	m := New(&st, fixedReports(3), 1000)

	assert.Zero(t, testutil.ToFloat64(m.completed))
	st.Complete()
	st.Complete()
	st.ObserveMax(71)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.completed))
	assert.Equal(t, float64(71), testutil.ToFloat64(m.maxZero))
	assert.Equal(t, float64(1000), testutil.ToFloat64(m.target))
	assert.Equal(t, float64(3), testutil.ToFloat64(m.reports))
}

func TestHandlerExposesMetrics(t *testing.T) {
	var st aggregate.State
	st.ObserveMax(64)
	m := New(&st, fixedReports(0), 10)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	for _, name := range []string{
		"rollsim_trials_completed_total",
		"rollsim_trials_target 10",
		"rollsim_max_outcome_zero 64",
		"rollsim_progress_reports_total",
		"go_goroutines",
	} {
		assert.Contains(t, string(body), name)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	var st aggregate.State
	m := New(&st, fixedReports(0), 0)

	ln, err := Listen("127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	_ = resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
