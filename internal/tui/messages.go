package tui

import "github.com/mmcdole/tubular/internal/domain"

// Message types for the TUI

// ErrMsg represents an error
type ErrMsg struct {
	Err     error
	Context string
}

// Error implements the error interface
func (e ErrMsg) Error() string {
	if e.Context != "" {
		return e.Context + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

// CollectionChangedMsg signals that the video collection published an event.
// Bursts are coalesced, so Event is the first of possibly several.
type CollectionChangedMsg struct {
	Event domain.Event
}

// ClearStatusMsg clears the footer status
type ClearStatusMsg struct{}
