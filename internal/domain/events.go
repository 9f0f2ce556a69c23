package domain

// EventType distinguishes collection notifications
type EventType int

const (
	EventStatusChanged EventType = iota
	EventCountChanged
	EventRowsInserted
	EventRowsRemoved
	EventRowsChanged
	EventRowsReset
)

// String returns the string representation of EventType
func (t EventType) String() string {
	switch t {
	case EventStatusChanged:
		return "status-changed"
	case EventCountChanged:
		return "count-changed"
	case EventRowsInserted:
		return "rows-inserted"
	case EventRowsRemoved:
		return "rows-removed"
	case EventRowsChanged:
		return "rows-changed"
	case EventRowsReset:
		return "rows-reset"
	default:
		return "unknown"
	}
}

// Event is a single notification published by a collection.
// Start and End are inclusive row indexes for row events.
type Event struct {
	Type   EventType
	Status Status // EventStatusChanged
	Count  int    // EventCountChanged
	Start  int
	End    int
}

// Observer receives collection events in the order the state changed.
type Observer interface {
	OnEvent(ev Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(ev Event)

func (f ObserverFunc) OnEvent(ev Event) { f(ev) }

// NoOpObserver discards events (for testing/batch operations).
type NoOpObserver struct{}

func (NoOpObserver) OnEvent(Event) {}
