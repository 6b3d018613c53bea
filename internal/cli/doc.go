// Package cli holds the presentation side of the drowse command line:
// output format selection, kubectl-style tables for services and metrics,
// progress spinners around blocking calls and user facing error messages
// for connection and API failures.
package cli
