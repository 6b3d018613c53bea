// Package metrics keeps the per-service performance record of the lifecycle
// controller and exports it to Prometheus.
//
// PerformanceMetrics holds bounded rolling windows of wake and sleep operation
// durations, request and error counters, the accumulated sleeping and running
// time, and a bounded log of state transitions. It is owned and written by the
// controller only.
//
// Collector turns controller snapshots into Prometheus metrics at scrape
// time, and HTTPMetrics instruments the REST router.
package metrics
