package domain

import "context"

// ResourceKind identifies the type of record a request lists or searches
type ResourceKind string

const (
	KindPlaylist ResourceKind = "playlist"
	KindVideo    ResourceKind = "video"
	KindComment  ResourceKind = "comment"
	KindUser     ResourceKind = "user"
)

// Valid reports whether k is one of the known resource kinds
func (k ResourceKind) Valid() bool {
	switch k {
	case KindPlaylist, KindVideo, KindComment, KindUser:
		return true
	}
	return false
}

// Common search orders. Backends may accept others; orders are passed through.
const (
	OrderRelevance = "relevance"
	OrderDate      = "date"
	OrderRating    = "rating"
	OrderTitle     = "title"
	OrderViewCount = "viewCount"
)

// ListRequest asks a backend for one page of a resource listing.
// ResourceID is backend-defined: an API path for built-in services,
// an opaque id for plugins.
type ListRequest struct {
	Kind       ResourceKind
	ResourceID string
	Fields     []string
	Filters    map[string]any
	Params     map[string]any
	PageToken  string // empty for the first page
}

// SearchRequest asks a backend for one page of search results.
type SearchRequest struct {
	Kind      ResourceKind
	Query     string
	Order     string
	Fields    []string
	Filters   map[string]any
	Params    map[string]any
	PageToken string
}

// Result is one decoded page. Next is the continuation token; empty means
// there are no further pages.
type Result struct {
	Items []map[string]any `json:"items"`
	Next  string           `json:"next"`
}

// Backend is the synchronous contract every service implementation fulfils.
// Request wraps a Backend to provide the asynchronous lifecycle.
type Backend interface {
	List(ctx context.Context, req ListRequest) (*Result, error)
	Search(ctx context.Context, req SearchRequest) (*Result, error)
}

// Request is a unit of asynchronous work against one service.
// List and Search return immediately; completion is reported to the
// handler installed with OnFinished. Callers must check Status rather
// than expect errors to be returned.
type Request interface {
	Service() string
	List(req ListRequest)
	Search(req SearchRequest)
	Cancel()

	Status() Status
	Result() *Result
	ErrorString() string
	Err() error

	// OnFinished installs the single owner notified of terminal transitions.
	// Passing nil detaches the owner.
	OnFinished(fn func(Request))
}
