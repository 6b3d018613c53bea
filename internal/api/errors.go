package api

import (
	"errors"
	"fmt"
	"time"
)

// NotFoundError represents a resource not found error with contextual information.
type NotFoundError struct {
	// ResourceType categorizes the type of resource that was not found
	ResourceType string

	// ResourceName is the specific identifier of the resource that was not found
	ResourceName string
}

// Error implements the error interface for NotFoundError.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceName)
}

// IsNotFound checks if an error is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// NewServiceNotFoundError creates a service not found error.
func NewServiceNotFoundError(name string) *NotFoundError {
	return &NotFoundError{ResourceType: "service", ResourceName: name}
}

// AdapterError is returned when the container runtime fails during a
// lifecycle transition. The service is left in StateError.
type AdapterError struct {
	Service   string
	Operation string
	Err       error
}

func (e *AdapterError) Error() string {
	return fmt.Sprintf("%s of service %s failed: %v", e.Operation, e.Service, e.Err)
}

func (e *AdapterError) Unwrap() error {
	return e.Err
}

// IsAdapterFailure checks if an error is or wraps an AdapterError.
func IsAdapterFailure(err error) bool {
	var adapterErr *AdapterError
	return errors.As(err, &adapterErr)
}

// TimeoutError is returned when a wake could not complete before its deadline.
type TimeoutError struct {
	Service  string
	Deadline time.Time
	Err      error
}

func (e *TimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("wake of service %s timed out: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("wake of service %s timed out (deadline %s)", e.Service, e.Deadline.Format(time.RFC3339))
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// IsTimeout checks if an error is or wraps a TimeoutError.
func IsTimeout(err error) bool {
	var timeoutErr *TimeoutError
	return errors.As(err, &timeoutErr)
}

var (
	// ErrNotInitialized is returned by lifecycle operations before the controller has started.
	ErrNotInitialized = errors.New("lifecycle controller not initialized")

	// ErrWakeCancelled resolves wake requests still queued at shutdown.
	ErrWakeCancelled = errors.New("wake request cancelled")

	// ErrQueueClosed is returned when enqueueing after shutdown.
	ErrQueueClosed = errors.New("wake queue is shut down")
)

// IsNotInitialized reports whether err is ErrNotInitialized.
func IsNotInitialized(err error) bool {
	return errors.Is(err, ErrNotInitialized)
}

// IsCancelled reports whether err resolves a cancelled wake request.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrWakeCancelled) || errors.Is(err, ErrQueueClosed)
}

// Error codes used in REST error bodies.
const (
	CodeNotFound       = "service.not_found"
	CodeAdapterFailure = "service.adapter_failure"
	CodeWakeTimeout    = "service.wake_timeout"
	CodeNotInitialized = "controller.not_initialized"
	CodeCancelled      = "service.wake_cancelled"
	CodeInternal       = "internal"
)

// ErrorCode maps an error to its REST error code.
func ErrorCode(err error) string {
	switch {
	case IsNotFound(err):
		return CodeNotFound
	case IsTimeout(err):
		return CodeWakeTimeout
	case IsAdapterFailure(err):
		return CodeAdapterFailure
	case IsNotInitialized(err):
		return CodeNotInitialized
	case IsCancelled(err):
		return CodeCancelled
	default:
		return CodeInternal
	}
}
