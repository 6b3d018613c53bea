package cli

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"drowse/internal/api"
	"drowse/internal/client"
)

// ConnectionErrorType categorizes the type of connection error.
type ConnectionErrorType int

const (
	// ConnectionErrorUnknown indicates an unclassified connection error.
	ConnectionErrorUnknown ConnectionErrorType = iota
	// ConnectionErrorTLS indicates a TLS/certificate verification error.
	ConnectionErrorTLS
	// ConnectionErrorNetwork indicates a network connectivity error (e.g., refused, unreachable).
	ConnectionErrorNetwork
	// ConnectionErrorTimeout indicates a connection timeout.
	ConnectionErrorTimeout
	// ConnectionErrorDNS indicates a DNS resolution failure.
	ConnectionErrorDNS
)

// String returns a human-readable name for the connection error type.
func (t ConnectionErrorType) String() string {
	switch t {
	case ConnectionErrorTLS:
		return "TLS certificate error"
	case ConnectionErrorNetwork:
		return "Network error"
	case ConnectionErrorTimeout:
		return "Connection timeout"
	case ConnectionErrorDNS:
		return "DNS resolution error"
	default:
		return "Connection error"
	}
}

// ConnectionError indicates a connection failure to the daemon.
type ConnectionError struct {
	Endpoint string
	Type     ConnectionErrorType
	Reason   error
}

func (e *ConnectionError) Error() string {
	msg := fmt.Sprintf("%s: cannot reach drowse at %s", e.Type, e.Endpoint)
	if e.Type == ConnectionErrorNetwork {
		msg += "\n\nIs the daemon running? Start it with:\n  drowse serve --config <file>"
	}
	return msg
}

func (e *ConnectionError) Unwrap() error {
	return e.Reason
}

// ClassifyConnectionError analyzes an error and returns a ConnectionError with the appropriate type.
// Only transport failures are classified; nil is returned for anything else,
// including error responses from the daemon.
func ClassifyConnectionError(err error, endpoint string) *ConnectionError {
	var transportErr *url.Error
	if err == nil || !errors.As(err, &transportErr) {
		return nil
	}

	connErr := &ConnectionError{Endpoint: endpoint, Type: ConnectionErrorUnknown, Reason: err}
	var dnsErr *net.DNSError
	switch {
	case isTLSError(err):
		connErr.Type = ConnectionErrorTLS
	case errors.As(err, &dnsErr):
		connErr.Type = ConnectionErrorDNS
	case isTimeoutError(err):
		connErr.Type = ConnectionErrorTimeout
	case isNetworkError(err.Error()):
		connErr.Type = ConnectionErrorNetwork
	}
	return connErr
}

func isTLSError(err error) bool {
	var certErr *x509.CertificateInvalidError
	var hostErr *x509.HostnameError
	var unknownAuthErr *x509.UnknownAuthorityError
	if errors.As(err, &certErr) || errors.As(err, &hostErr) || errors.As(err, &unknownAuthErr) {
		return true
	}

	errStr := err.Error()
	for _, keyword := range []string{"x509:", "certificate", "tls:", "TLS handshake"} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

func isTimeoutError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var urlErr *url.Error
	if errors.As(err, &urlErr) && urlErr.Timeout() {
		return true
	}
	errStr := err.Error()
	return strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline exceeded")
}

func isNetworkError(errStr string) bool {
	for _, keyword := range []string{
		"connection refused",
		"connection reset",
		"network is unreachable",
		"no route to host",
		"dial tcp",
		"connect:",
	} {
		if strings.Contains(errStr, keyword) {
			return true
		}
	}
	return false
}

// Exit codes returned by the CLI.
const (
	ExitOK          = 0
	ExitError       = 1
	ExitNotFound    = 2
	ExitTimeout     = 3
	ExitUnreachable = 4
)

// ExitCode maps a command error to a process exit code.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return ExitOK
	case client.IsNotFound(err):
		return ExitNotFound
	case client.IsTimeout(err):
		return ExitTimeout
	}
	var connErr *ConnectionError
	if errors.As(err, &connErr) {
		return ExitUnreachable
	}
	return ExitError
}

// FormatError renders an error for the terminal, adding hints for the
// well known API error codes.
func FormatError(err error) string {
	var apiErr *client.APIError
	if !errors.As(err, &apiErr) {
		return fmt.Sprintf("Error: %v", err)
	}
	switch apiErr.Code {
	case api.CodeNotInitialized:
		return fmt.Sprintf("Error: %v\n\nThe daemon is still starting up. Retry in a moment.", err)
	case api.CodeWakeTimeout:
		return fmt.Sprintf("Error: %v\n\nThe service did not become ready in time. Check its container logs.", err)
	default:
		return fmt.Sprintf("Error: %v (%s)", err, apiErr.Code)
	}
}
