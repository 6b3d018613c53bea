// Package monitor samples host and container resource usage.
//
// Host CPU is computed from the delta of two /proc/stat readings; the
// previous reading is kept between calls so that periodic callers get the
// utilisation over their own interval. The first call samples twice, a short
// gap apart. Host memory comes from /proc/meminfo (MemTotal, MemAvailable).
//
// Container figures are derived from a single runtime stats document, which
// carries both the current and the previous cgroup CPU counters.
package monitor
