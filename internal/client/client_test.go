package client

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"drowse/internal/api"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return New(ts.URL)
}

func TestNew_Endpoint(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", DefaultEndpoint},
		{"localhost:9000", "http://localhost:9000"},
		{"https://drowse.example.com/", "https://drowse.example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, New(tt.in).Endpoint())
		})
	}
}

func TestClient_Lifecycle(t *testing.T) {
	var gotMethod, gotPath string
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"translate","state":"running","wake_count":3,"priority":"high"}`))
	})

	st, err := c.WakeService(context.Background(), "translate")
	require.NoError(t, err)
	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, "/services/translate/wake", gotPath)
	assert.Equal(t, api.StateRunning, st.State)
	assert.Equal(t, int64(3), st.WakeCount)
	assert.Equal(t, api.PriorityHigh, st.Priority)

	_, err = c.GetService(context.Background(), "translate")
	require.NoError(t, err)
	assert.Equal(t, http.MethodGet, gotMethod)
	assert.Equal(t, "/services/translate", gotPath)
}

func TestClient_ErrorResponse(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		code      string
		notFound  bool
		timeout   bool
		notInited bool
	}{
		{name: "not found", status: http.StatusNotFound, code: api.CodeNotFound, notFound: true},
		{name: "timeout", status: http.StatusGatewayTimeout, code: api.CodeWakeTimeout, timeout: true},
		{name: "not initialized", status: http.StatusServiceUnavailable, code: api.CodeNotInitialized, notInited: true},
		{name: "adapter", status: http.StatusInternalServerError, code: api.CodeAdapterFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":"boom","code":"` + tt.code + `"}`))
			})

			_, err := c.StartService(context.Background(), "translate")
			require.Error(t, err)

			var apiErr *APIError
			require.True(t, errors.As(err, &apiErr))
			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.code, apiErr.Code)
			assert.Equal(t, "boom", apiErr.Error())
			assert.Equal(t, tt.notFound, IsNotFound(err))
			assert.Equal(t, tt.timeout, IsTimeout(err))
			assert.Equal(t, tt.notInited, api.IsNotInitialized(err))
		})
	}
}

func TestClient_HealthUnhealthyStillDecodes(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"status":"initializing","services_running":0,"services_total":2}`))
	})

	report, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, api.HealthInitializing, report.Status)
	assert.Equal(t, 2, report.ServicesTotal)
}

func TestClient_Unreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	endpoint := ts.URL
	ts.Close()

	_, err := New(endpoint).ListServices(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to reach drowse")
}

func TestClient_RequestWake(t *testing.T) {
	c := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/translate/wake-request", r.URL.Path)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"status":"queued","request_id":"abc","service":"translate","priority":"low","source":"api"}`))
	})

	accepted, err := c.RequestWake(context.Background(), "translate")
	require.NoError(t, err)
	assert.Equal(t, "queued", accepted.Status)
	assert.Equal(t, "abc", accepted.ID)
	assert.Equal(t, api.PriorityLow, accepted.Priority)
}
