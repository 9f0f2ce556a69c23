package domain

// Store persists search history and per-service preferences.
type Store interface {
	// === Search history ===
	Searches(service string) []string
	AddSearch(service, query string) error
	RemoveSearch(service, query string) error
	ClearSearches(service string) error
	Suggest(service, input string, limit int) []string

	// === Preferences ===
	SearchOrder(service string) (string, bool)
	SetSearchOrder(service, order string) error

	InvalidateAll() error
	Close() error
}
