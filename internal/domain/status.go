package domain

// Status is the lifecycle state of a Request
type Status int

const (
	// StatusNull means no request has been issued yet
	StatusNull Status = iota

	// StatusLoading means a request is in flight
	StatusLoading

	// StatusReady means the last request completed and a result is available
	StatusReady

	// StatusCanceled means the last request was canceled by its owner
	StatusCanceled

	// StatusFailed means the last request failed; see ErrorString
	StatusFailed
)

// String returns the string representation of Status
func (s Status) String() string {
	switch s {
	case StatusNull:
		return "null"
	case StatusLoading:
		return "loading"
	case StatusReady:
		return "ready"
	case StatusCanceled:
		return "canceled"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal returns true once a request has stopped (ready, canceled or failed)
func (s Status) IsTerminal() bool {
	return s == StatusReady || s == StatusCanceled || s == StatusFailed
}
