// Package server exposes the lifecycle controller over HTTP.
//
// Routes:
//
//	GET  /health                        controller health
//	GET  /services                      status of every service
//	GET  /services/{name}               status of one service
//	POST /services/{name}/start         start (or wake) a service
//	POST /services/{name}/stop          stop a service
//	POST /services/{name}/sleep         put a service to sleep if allowed
//	POST /services/{name}/wake          wake a sleeping service
//	POST /services/{name}/wake-request  queue an asynchronous wake (202)
//	POST /services/{name}/access        record activity on a running service
//	GET  /services/{name}/metrics       performance summary
//	GET  /services/{name}/prediction    predicted wake probability
//	GET  /metrics/performance           performance summaries of all services
//	GET  /metrics/system                aggregate counts, ratios and pressure
//	GET  /metrics                       Prometheus exposition
//	     /mcp                           MCP streamable HTTP endpoint
//
// Errors are returned as {"error": "...", "code": "..."} with the status code
// derived from the error type: 404 for unknown services, 500 for container
// runtime failures, 503 before the controller is initialized and 504 for wake
// timeouts.
//
// The MCP endpoint exposes the same operations as tools (service_list,
// service_status, service_start, service_stop, service_sleep, service_wake,
// service_wake_request, metrics_system, metrics_performance). Tool failures
// are reported as tool errors, not protocol errors.
package server
