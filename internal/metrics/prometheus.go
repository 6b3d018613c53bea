package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"drowse/internal/api"
)

const namespace = "drowse"

// Source is the read side of the lifecycle controller the collector scrapes.
type Source interface {
	ListServices() ([]api.ServiceStatus, error)
	AllPerformanceMetrics() (map[string]api.PerformanceSummary, error)
	GetSystemMetrics() (api.SystemMetrics, error)
}

// Collector exports controller state at scrape time.
type Collector struct {
	source Source

	state        *prometheus.Desc
	wakes        *prometheus.Desc
	sleepSeconds *prometheus.Desc
	requests     *prometheus.Desc
	errors       *prometheus.Desc
	wakeLatency  *prometheus.Desc
	sleepLatency *prometheus.Desc
	cpu          *prometheus.Desc
	memory       *prometheus.Desc
	sleepRatio   *prometheus.Desc
	queueDepth   *prometheus.Desc
	hostMemory   *prometheus.Desc
	hostCPU      *prometheus.Desc
}

// NewCollector creates a Collector reading from source.
func NewCollector(source Source) *Collector {
	svc := []string{"service"}
	return &Collector{
		source:       source,
		state:        prometheus.NewDesc(namespace+"_service_state", "Current lifecycle state of the service (1 for the active state).", []string{"service", "state"}, nil),
		wakes:        prometheus.NewDesc(namespace+"_service_wakes_total", "Successful sleeping to running transitions.", svc, nil),
		sleepSeconds: prometheus.NewDesc(namespace+"_service_sleep_seconds_total", "Time spent asleep over completed sleep cycles.", svc, nil),
		requests:     prometheus.NewDesc(namespace+"_service_requests_total", "Requests recorded for the service.", svc, nil),
		errors:       prometheus.NewDesc(namespace+"_service_errors_total", "Failed lifecycle operations.", svc, nil),
		wakeLatency:  prometheus.NewDesc(namespace+"_service_wake_duration_milliseconds", "Wake operation latency over the rolling window.", svc, nil),
		sleepLatency: prometheus.NewDesc(namespace+"_service_sleep_duration_milliseconds", "Sleep operation latency over the rolling window.", svc, nil),
		cpu:          prometheus.NewDesc(namespace+"_service_cpu_percent", "Last sampled container CPU usage.", svc, nil),
		memory:       prometheus.NewDesc(namespace+"_service_memory_megabytes", "Last sampled container memory usage.", svc, nil),
		sleepRatio:   prometheus.NewDesc(namespace+"_services_sleep_ratio", "Fraction of services currently sleeping.", nil, nil),
		queueDepth:   prometheus.NewDesc(namespace+"_wake_queue_depth", "Wake requests waiting to be processed.", nil, nil),
		hostMemory:   prometheus.NewDesc(namespace+"_host_memory_percent", "Last sampled host memory utilisation.", nil, nil),
		hostCPU:      prometheus.NewDesc(namespace+"_host_cpu_percent", "Last sampled host CPU utilisation.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, d := range []*prometheus.Desc{
		c.state, c.wakes, c.sleepSeconds, c.requests, c.errors, c.wakeLatency,
		c.sleepLatency, c.cpu, c.memory, c.sleepRatio, c.queueDepth, c.hostMemory, c.hostCPU,
	} {
		ch <- d
	}
}

// Collect implements prometheus.Collector. Nothing is emitted while the
// controller is not initialized.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	services, err := c.source.ListServices()
	if err != nil {
		return
	}
	perf, err := c.source.AllPerformanceMetrics()
	if err != nil {
		return
	}

	for _, s := range services {
		for _, st := range api.AllStates {
			v := 0.0
			if s.State == st {
				v = 1
			}
			ch <- prometheus.MustNewConstMetric(c.state, prometheus.GaugeValue, v, s.Name, string(st))
		}
		ch <- prometheus.MustNewConstMetric(c.wakes, prometheus.CounterValue, float64(s.WakeCount), s.Name)
		ch <- prometheus.MustNewConstMetric(c.sleepSeconds, prometheus.CounterValue, s.TotalSleepTime, s.Name)
		ch <- prometheus.MustNewConstMetric(c.cpu, prometheus.GaugeValue, s.CPUUsage, s.Name)
		ch <- prometheus.MustNewConstMetric(c.memory, prometheus.GaugeValue, s.MemoryUsage, s.Name)

		p, ok := perf[s.Name]
		if !ok {
			continue
		}
		ch <- prometheus.MustNewConstMetric(c.requests, prometheus.CounterValue, float64(p.TotalRequests), s.Name)
		ch <- prometheus.MustNewConstMetric(c.errors, prometheus.CounterValue, float64(p.ErrorCount), s.Name)
		ch <- constSummary(c.wakeLatency, p.WakeTimes, s.Name)
		ch <- constSummary(c.sleepLatency, p.SleepTimes, s.Name)
	}

	sys, err := c.source.GetSystemMetrics()
	if err != nil {
		return
	}
	ch <- prometheus.MustNewConstMetric(c.sleepRatio, prometheus.GaugeValue, sys.SleepRatio)
	ch <- prometheus.MustNewConstMetric(c.queueDepth, prometheus.GaugeValue, float64(sys.PendingWakes))
	if sys.System != nil {
		ch <- prometheus.MustNewConstMetric(c.hostMemory, prometheus.GaugeValue, sys.System.MemoryPercent)
		ch <- prometheus.MustNewConstMetric(c.hostCPU, prometheus.GaugeValue, sys.System.CPUPercent)
	}
}

func constSummary(desc *prometheus.Desc, s api.DurationStats, service string) prometheus.Metric {
	quantiles := map[float64]float64{}
	if s.Count > 0 {
		quantiles[0.5] = s.P50
		quantiles[0.95] = s.P95
		quantiles[0.99] = s.P99
	}
	return prometheus.MustNewConstSummary(desc, uint64(s.Count), s.Avg*float64(s.Count), quantiles, service)
}

// HTTPMetrics instruments HTTP handlers with request counts and latencies.
type HTTPMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewHTTPMetrics creates and registers the HTTP request metrics.
func NewHTTPMetrics(reg prometheus.Registerer) *HTTPMetrics {
	m := &HTTPMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "route", "code"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Duration of HTTP requests",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
	reg.MustRegister(m.requests, m.duration)
	return m
}

// Middleware records every request under its chi route pattern.
func (m *HTTPMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}
