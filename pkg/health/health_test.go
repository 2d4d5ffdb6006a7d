package health

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusBody struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func passing(_ context.Context) error { return nil }

func failing(msg string) CheckFunc {
	return func(_ context.Context) error { return errors.New(msg) }
}

func get(t *testing.T, endpoint http.HandlerFunc) (int, statusBody) {
	t.Helper()
	w := httptest.NewRecorder()
	endpoint(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var body statusBody
	require.NoError(t, json.NewDecoder(w.Body).Decode(&body))
	return w.Code, body
}

func TestLiveEndpoint(t *testing.T) {
	tests := []struct {
		name       string
		runs       int
		wantStatus int
		wantChecks map[string]string
	}{
		{name: "healthy before first run", runs: 0, wantStatus: http.StatusOK},
		{name: "below failure threshold", runs: 2, wantStatus: http.StatusOK},
		{
			name:       "at failure threshold",
			runs:       3,
			wantStatus: http.StatusServiceUnavailable,
			wantChecks: map[string]string{"postgres": "connection refused"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New()
			h.Register(Liveness, "postgres", failing("connection refused"))
			for range tt.runs {
				h.probes[Liveness][0].run(context.Background())
			}

			code, body := get(t, h.LiveEndpoint)
			assert.Equal(t, tt.wantStatus, code)
			assert.Equal(t, tt.wantChecks, body.Checks)
		})
	}
}

func TestReadyEndpoint(t *testing.T) {
	h := New()
	h.Register(Readiness, "postgres", passing)
	h.Register(Readiness, "cache", failing("cold"), WithThresholds(1, 1))

	code, body := get(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, map[string]string{"_readiness": "service is not ready"}, body.Checks)

	h.SetReady(true)
	code, body = get(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body.Status)

	h.probes[Readiness][1].run(context.Background())
	code, body = get(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, map[string]string{"cache": "cold"}, body.Checks)
}

func TestReadinessIgnoresLivenessChecks(t *testing.T) {
	h := New()
	h.Register(Liveness, "goroutines", failing("too many"), WithThresholds(1, 1))
	h.SetReady(true)
	h.probes[Liveness][0].run(context.Background())

	code, _ := get(t, h.ReadyEndpoint)
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, h.IsReady())
}

func TestIsReady(t *testing.T) {
	h := New()
	h.Register(Readiness, "db", passing)

	assert.False(t, h.IsReady())
	h.SetReady(true)
	assert.True(t, h.IsReady())
	h.SetReady(false)
	assert.False(t, h.IsReady())
}

func TestProbeRecovery(t *testing.T) {
	down := true
	h := New()
	h.Register(Liveness, "flaky", func(_ context.Context) error {
		if down {
			return errors.New("down")
		}
		return nil
	}, WithThresholds(2, 2))
	p := h.probes[Liveness][0]
	ctx := context.Background()

	assert.Nil(t, p.err())

	p.run(ctx)
	assert.True(t, p.healthy.Load())
	p.run(ctx)
	assert.False(t, p.healthy.Load())
	assert.EqualError(t, p.err(), "down")

	down = false
	p.run(ctx)
	assert.False(t, p.healthy.Load())
	p.run(ctx)
	assert.True(t, p.healthy.Load())
	assert.NoError(t, p.err())
}

func TestWithTimeout(t *testing.T) {
	h := New()
	h.Register(Readiness, "slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	}, WithTimeout(10*time.Millisecond), WithThresholds(1, 1))

	h.probes[Readiness][0].run(context.Background())
	assert.ErrorIs(t, h.probes[Readiness][0].err(), context.DeadlineExceeded)
}

func TestWithThresholdsClampsToOne(t *testing.T) {
	h := New()
	h.Register(Liveness, "x", passing, WithThresholds(0, -5))

	p := h.probes[Liveness][0]
	assert.Equal(t, 1, p.failureThreshold)
	assert.Equal(t, 1, p.successThreshold)
}

func TestStartStop(t *testing.T) {
	h := New()
	h.Register(Liveness, "goroutines", passing)
	h.Register(Readiness, "db", failing("down"), WithThresholds(1, 1))
	h.SetReady(true)

	h.Start(context.Background(), 10*time.Millisecond)
	assert.Eventually(t, func() bool { return !h.IsReady() }, time.Second, 5*time.Millisecond)

	h.Stop()
	h.Stop()
}

func TestConcurrentAccess(t *testing.T) {
	h := New()
	h.Register(Liveness, "concurrent", failing("err"))
	h.Register(Readiness, "concurrent", passing)
	h.SetReady(true)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	h.Start(ctx, time.Millisecond)

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 50 {
				h.IsReady()
				h.LiveEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/livez", nil))
				h.ReadyEndpoint(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", nil))
			}
		}()
	}
	wg.Wait()
	h.Stop()
}
