package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"drowse/internal/api"
)

// DefaultEndpoint is used when neither --endpoint nor DROWSE_ENDPOINT is set.
const DefaultEndpoint = "http://localhost:8080"

// DefaultTimeout bounds every request. Synchronous wakes can take up to the
// daemon's wake timeout, so this is deliberately generous.
const DefaultTimeout = 2 * time.Minute

// APIError is a non-2xx response from the daemon.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// Unwrap exposes the api sentinel matching the error code, if any.
func (e *APIError) Unwrap() error {
	switch e.Code {
	case api.CodeNotInitialized:
		return api.ErrNotInitialized
	case api.CodeCancelled:
		return api.ErrWakeCancelled
	default:
		return nil
	}
}

// IsNotFound reports whether err is a service.not_found response.
func IsNotFound(err error) bool {
	return hasCode(err, api.CodeNotFound)
}

// IsTimeout reports whether err is a service.wake_timeout response.
func IsTimeout(err error) bool {
	return hasCode(err, api.CodeWakeTimeout)
}

func hasCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Client talks to the drowse REST API.
type Client struct {
	endpoint string
	http     *http.Client
}

// New creates a client for the daemon listening at endpoint.
func New(endpoint string, opts ...Option) *Client {
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	if !strings.Contains(endpoint, "://") {
		endpoint = "http://" + endpoint
	}
	c := &Client{
		endpoint: strings.TrimRight(endpoint, "/"),
		http:     &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint returns the base URL requests are sent to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Health returns the daemon health report. A report is returned for 503
// responses too, since an unhealthy daemon still describes itself.
func (c *Client) Health(ctx context.Context) (api.HealthReport, error) {
	var report api.HealthReport
	err := c.do(ctx, http.MethodGet, "/health", &report)
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable && report.Status != "" {
		return report, nil
	}
	return report, err
}

// ListServices returns every managed service.
func (c *Client) ListServices(ctx context.Context) ([]api.ServiceStatus, error) {
	var out []api.ServiceStatus
	return out, c.do(ctx, http.MethodGet, "/services", &out)
}

// GetService returns one service.
func (c *Client) GetService(ctx context.Context, name string) (api.ServiceStatus, error) {
	var out api.ServiceStatus
	return out, c.do(ctx, http.MethodGet, servicePath(name, ""), &out)
}

// StartService starts a service, waking it if it is sleeping.
func (c *Client) StartService(ctx context.Context, name string) (api.ServiceStatus, error) {
	return c.lifecycle(ctx, name, "start")
}

// StopService stops a service.
func (c *Client) StopService(ctx context.Context, name string) (api.ServiceStatus, error) {
	return c.lifecycle(ctx, name, "stop")
}

// SleepService asks the daemon to put a service to sleep.
func (c *Client) SleepService(ctx context.Context, name string) (api.ServiceStatus, error) {
	return c.lifecycle(ctx, name, "sleep")
}

// WakeService wakes a service and waits for it to be running.
func (c *Client) WakeService(ctx context.Context, name string) (api.ServiceStatus, error) {
	return c.lifecycle(ctx, name, "wake")
}

// RecordAccess marks a running service as recently used.
func (c *Client) RecordAccess(ctx context.Context, name string) (api.ServiceStatus, error) {
	return c.lifecycle(ctx, name, "access")
}

// RequestWake queues an asynchronous wake.
func (c *Client) RequestWake(ctx context.Context, name string) (api.WakeRequestAccepted, error) {
	var out api.WakeRequestAccepted
	return out, c.do(ctx, http.MethodPost, servicePath(name, "wake-request"), &out)
}

// ServiceMetrics returns the performance summary of one service.
func (c *Client) ServiceMetrics(ctx context.Context, name string) (api.PerformanceSummary, error) {
	var out api.PerformanceSummary
	return out, c.do(ctx, http.MethodGet, servicePath(name, "metrics"), &out)
}

// Prediction returns the wake probability of one service.
func (c *Client) Prediction(ctx context.Context, name string) (api.WakePrediction, error) {
	var out api.WakePrediction
	return out, c.do(ctx, http.MethodGet, servicePath(name, "prediction"), &out)
}

// SystemMetrics returns the aggregate lifecycle metrics.
func (c *Client) SystemMetrics(ctx context.Context) (api.SystemMetrics, error) {
	var out api.SystemMetrics
	return out, c.do(ctx, http.MethodGet, "/metrics/system", &out)
}

// PerformanceMetrics returns the performance summary of every service.
func (c *Client) PerformanceMetrics(ctx context.Context) (map[string]api.PerformanceSummary, error) {
	var out map[string]api.PerformanceSummary
	return out, c.do(ctx, http.MethodGet, "/metrics/performance", &out)
}

func (c *Client) lifecycle(ctx context.Context, name, op string) (api.ServiceStatus, error) {
	var out api.ServiceStatus
	return out, c.do(ctx, http.MethodPost, servicePath(name, op), &out)
}

func servicePath(name, op string) string {
	p := "/services/" + url.PathEscape(name)
	if op != "" {
		p += "/" + op
	}
	return p
}

// do sends the request and decodes a JSON body into out. The body of an
// error response is decoded into out as well when it is not an ErrorResponse.
func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach drowse at %s: %w", c.endpoint, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		if out == nil || len(bytes.TrimSpace(body)) == 0 {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
		return nil
	}

	apiErr := &APIError{StatusCode: resp.StatusCode}
	var errBody api.ErrorResponse
	if json.Unmarshal(body, &errBody) == nil && errBody.Code != "" {
		apiErr.Code = errBody.Code
		apiErr.Message = errBody.Error
		return apiErr
	}
	if out != nil {
		_ = json.Unmarshal(body, out)
	}
	apiErr.Message = strings.TrimSpace(string(body))
	return apiErr
}
