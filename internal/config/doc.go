// Package config loads and validates the drowse configuration file.
//
// A single YAML file describes the HTTP listener, the container runtime,
// the process-wide sleep settings and every managed service:
//
//	server:
//	  address: ":8080"
//	runtime:
//	  type: docker
//	sleep_settings:
//	  sleep_check_interval: 30s
//	  wake_timeout: 30s
//	  resource_thresholds:
//	    high_memory_pressure: 0.85
//	services:
//	  translate:
//	    container: mcp-translate
//	    port: 8101
//	    sleep_policy:
//	      enabled: true
//	      idle_timeout: 300s
//	      min_sleep_time: 60s
//	      memory_reservation: 128MB
//
// Default location: ~/.config/drowse/config.yaml. A missing file yields the
// built-in defaults with no services.
//
// Durations accept Go duration strings ("90s", "5m") or a bare integer
// number of seconds.
//
// Watcher reloads the file on change so sleep_settings can be tuned without
// a restart; service definitions are only read at startup.
package config
