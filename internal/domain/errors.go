package domain

import "errors"

// Sentinel errors for resource loading
var (
	// ErrTransport indicates the backend could not be reached or returned an error
	ErrTransport = errors.New("transport failure")

	// ErrDecode indicates a backend result did not have the expected shape
	ErrDecode = errors.New("malformed result")

	// ErrAuthFailed indicates the service rejected the configured credentials
	ErrAuthFailed = errors.New("authentication token is invalid")

	// ErrUnknownService indicates no backend is registered under the service id
	ErrUnknownService = errors.New("service not found")

	// ErrServiceDisabled indicates the service exists but is disabled in config
	ErrServiceDisabled = errors.New("service is disabled")

	// ErrDuplicateService indicates a second registration for the same service id
	ErrDuplicateService = errors.New("service already registered")

	// ErrUnsupportedKind indicates a backend cannot serve the requested resource kind
	ErrUnsupportedKind = errors.New("resource kind not supported by service")
)
