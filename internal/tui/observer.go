package tui

import "github.com/mmcdole/tubular/internal/domain"

// ChannelObserver adapts domain.Observer to a channel for Bubble Tea.
type ChannelObserver struct {
	ch chan<- domain.Event
}

// NewChannelObserver creates a new channel-based observer.
func NewChannelObserver(ch chan<- domain.Event) *ChannelObserver {
	return &ChannelObserver{ch: ch}
}

// OnEvent forwards ev (non-blocking if full). The model re-reads the
// collection on every message, so a dropped event loses nothing.
func (o *ChannelObserver) OnEvent(ev domain.Event) {
	select {
	case o.ch <- ev:
	default:
	}
}
