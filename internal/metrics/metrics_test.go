package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveCommand(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveCommand("KD", ResultOK, time.Millisecond)
	m.ObserveCommand("KD", ResultOK, time.Millisecond)
	m.ObserveCommand("KD", ResultError, time.Millisecond)
	m.ObserveCommand("ZZ", ResultUnknown, time.Millisecond)

	assert.InDelta(t, 2, testutil.ToFloat64(m.commands.WithLabelValues("KD", ResultOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.commands.WithLabelValues("KD", ResultError)), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.duration))
}

func TestActiveRequestsAndCache(t *testing.T) {
	t.Parallel()

	m := New()
	m.RequestStarted()
	m.RequestStarted()
	m.RequestFinished()
	assert.InDelta(t, 1, testutil.ToFloat64(m.activeRequests), 0)

	m.ObserveCache(true)
	m.ObserveCache(false)
	m.ObserveCache(true)
	assert.InDelta(t, 2, testutil.ToFloat64(m.cacheHits), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.cacheMisses), 0)
}

func TestHandlerExposition(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveCommand("NC", ResultOK, time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `go_dukpt_commands_total{command="NC",result="ok"} 1`)
	assert.Contains(t, body, "go_dukpt_active_requests 0")
	assert.Contains(t, body, "go_goroutines")
}

func TestServeStopsOnCancel(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	m := New()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Serve(ctx, addr) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/metrics")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	resp.Body.Close()
	assert.True(t, strings.Contains(string(body), "go_dukpt_ipek_cache_hits_total"))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
