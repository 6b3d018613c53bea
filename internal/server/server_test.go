package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drowse/internal/api"
	"drowse/internal/config"
	"drowse/internal/containerizer"
	"drowse/internal/orchestrator"
)

type fixture struct {
	handler http.Handler
	ctrl    *orchestrator.Orchestrator
	runtime *containerizer.MemoryRuntime
}

func newFixture(t *testing.T, start bool, tweak ...func(*config.GlobalSleepSettings)) *fixture {
	t.Helper()

	settings := config.DefaultSleepSettings()
	for _, fn := range tweak {
		fn(&settings)
	}
	rt := containerizer.NewMemoryRuntime()
	ctrl, err := orchestrator.New(orchestrator.Config{
		Services: map[string]config.ServiceConfig{
			"translate": {
				Container: "mcp-translate",
				Port:      8101,
				SleepPolicy: &config.SleepPolicy{
					Enabled:           true,
					IdleTimeout:       config.Duration(time.Minute),
					MemoryReservation: "128MB",
				},
			},
		},
		Settings: settings,
		Runtime:  rt,
	})
	require.NoError(t, err)
	if start {
		require.NoError(t, ctrl.Start(context.Background()))
		t.Cleanup(func() { ctrl.Shutdown(context.Background()) })
	}

	srv := New(Config{Address: "127.0.0.1:0", MCPEnabled: true, Version: "test"}, ctrl)
	return &fixture{handler: srv.Handler(), ctrl: ctrl, runtime: rt}
}

func (f *fixture) do(t *testing.T, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t, false)
	rec := f.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, api.HealthInitializing, decode[api.HealthReport](t, rec).Status)

	f = newFixture(t, true)
	rec = f.do(t, http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	report := decode[api.HealthReport](t, rec)
	assert.Equal(t, api.HealthHealthy, report.Status)
	assert.Equal(t, 1, report.ServicesTotal)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
}

func TestStatusCodes(t *testing.T) {
	tests := []struct {
		name       string
		start      bool
		setup      func(f *fixture)
		method     string
		path       string
		wantStatus int
		wantCode   string
	}{
		{
			name:       "not initialized",
			method:     http.MethodPost,
			path:       "/services/translate/start",
			wantStatus: http.StatusServiceUnavailable,
			wantCode:   api.CodeNotInitialized,
		},
		{
			name:       "unknown service",
			start:      true,
			method:     http.MethodGet,
			path:       "/services/nope",
			wantStatus: http.StatusNotFound,
			wantCode:   api.CodeNotFound,
		},
		{
			name:       "unknown service lifecycle",
			start:      true,
			method:     http.MethodPost,
			path:       "/services/nope/wake",
			wantStatus: http.StatusNotFound,
			wantCode:   api.CodeNotFound,
		},
		{
			name:  "adapter failure",
			start: true,
			setup: func(f *fixture) {
				f.runtime.FailOn(containerizer.OpStart, errors.New("image missing"))
			},
			method:     http.MethodPost,
			path:       "/services/translate/start",
			wantStatus: http.StatusInternalServerError,
			wantCode:   api.CodeAdapterFailure,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, tt.start)
			if tt.setup != nil {
				tt.setup(f)
			}
			rec := f.do(t, tt.method, tt.path)
			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode[api.ErrorResponse](t, rec)
			assert.Equal(t, tt.wantCode, body.Code)
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestLifecycleRoutes(t *testing.T) {
	f := newFixture(t, true)

	rec := f.do(t, http.MethodPost, "/services/translate/start")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, api.StateRunning, decode[api.ServiceStatus](t, rec).State)

	rec = f.do(t, http.MethodPost, "/services/translate/access")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotNil(t, decode[api.ServiceStatus](t, rec).LastAccessed)

	rec = f.do(t, http.MethodPost, "/services/translate/sleep")
	require.Equal(t, http.StatusOK, rec.Code)
	st := decode[api.ServiceStatus](t, rec)
	assert.Equal(t, api.StateSleeping, st.State)
	assert.NotNil(t, st.SleepStartTime)

	rec = f.do(t, http.MethodPost, "/services/translate/wake")
	require.Equal(t, http.StatusOK, rec.Code)
	st = decode[api.ServiceStatus](t, rec)
	assert.Equal(t, api.StateRunning, st.State)
	assert.Equal(t, int64(1), st.WakeCount)

	rec = f.do(t, http.MethodGet, "/services")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[[]api.ServiceStatus](t, rec)
	require.Len(t, list, 1)
	assert.Equal(t, "translate", list[0].Name)

	rec = f.do(t, http.MethodGet, "/services/translate/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[api.PerformanceSummary](t, rec)
	assert.Equal(t, 1, summary.WakeTimes.Count)

	rec = f.do(t, http.MethodPost, "/services/translate/stop")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, api.StateStopped, decode[api.ServiceStatus](t, rec).State)
}

func TestWakeTimeout(t *testing.T) {
	f := newFixture(t, true, func(s *config.GlobalSleepSettings) {
		s.WakeTimeout = config.Duration(20 * time.Millisecond)
	})
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/services/translate/start").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/services/translate/sleep").Code)
	f.runtime.SetDelay(500 * time.Millisecond)

	rec := f.do(t, http.MethodPost, "/services/translate/wake")
	assert.Equal(t, http.StatusGatewayTimeout, rec.Code)
	assert.Equal(t, api.CodeWakeTimeout, decode[api.ErrorResponse](t, rec).Code)
}

func TestWakeRequest(t *testing.T) {
	f := newFixture(t, true)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/services/translate/start").Code)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/services/translate/sleep").Code)

	rec := f.do(t, http.MethodPost, "/services/translate/wake-request")
	require.Equal(t, http.StatusAccepted, rec.Code)
	accepted := decode[api.WakeRequestAccepted](t, rec)
	assert.Equal(t, "queued", accepted.Status)
	assert.NotEmpty(t, accepted.ID)
	assert.Equal(t, api.PriorityLow, accepted.Priority)
	assert.Equal(t, api.WakeSourceAPI, accepted.Source)

	require.Eventually(t, func() bool {
		st, err := f.ctrl.GetStatus("translate")
		return err == nil && st.State == api.StateRunning
	}, 2*time.Second, 10*time.Millisecond)
}

func TestMetricsRoutes(t *testing.T) {
	f := newFixture(t, true)
	require.Equal(t, http.StatusOK, f.do(t, http.MethodPost, "/services/translate/start").Code)

	rec := f.do(t, http.MethodGet, "/metrics/system")
	require.Equal(t, http.StatusOK, rec.Code)
	sys := decode[api.SystemMetrics](t, rec)
	assert.Equal(t, 1, sys.TotalServices)
	assert.Equal(t, 1, sys.RunningServices)
	assert.Equal(t, 1.0, sys.RunningRatio)

	rec = f.do(t, http.MethodGet, "/metrics/performance")
	require.Equal(t, http.StatusOK, rec.Code)
	all := decode[map[string]api.PerformanceSummary](t, rec)
	assert.Contains(t, all, "translate")

	rec = f.do(t, http.MethodGet, "/services/translate/prediction")
	require.Equal(t, http.StatusOK, rec.Code)
	p := decode[api.WakePrediction](t, rec)
	assert.Equal(t, "translate", p.Service)

	rec = f.do(t, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)
	assert.Contains(t, text, `drowse_service_state{service="translate",state="running"} 1`)
	assert.Contains(t, text, `drowse_http_requests_total{code="200",method="POST",route="/services/{name}/start"} 1`)
	assert.True(t, strings.Contains(text, "go_goroutines"))
}

func TestServer_StartStop(t *testing.T) {
	f := newFixture(t, true)
	srv := New(Config{Address: "127.0.0.1:0"}, f.ctrl)
	require.NoError(t, srv.Start())

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))

	_, open := <-srv.Err()
	assert.False(t, open)
}
