// Package youtube is the built-in YouTube Data API v3 backend.
package youtube

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mmcdole/tubular/internal/domain"
	"github.com/mmcdole/tubular/internal/registry"
)

const (
	ServiceID      = "youtube"
	DefaultBaseURL = "https://www.googleapis.com/youtube/v3"

	defaultTimeout  = 30 * time.Second
	defaultPageSize = 20
	maxPageSize     = 50
	maxRetries      = 3
	baseRetryDelay  = 500 * time.Millisecond
)

var searchTypes = map[domain.ResourceKind]string{
	domain.KindVideo:    "video",
	domain.KindPlaylist: "playlist",
	domain.KindUser:     "channel",
}

// Info describes the built-in YouTube service
func Info() registry.ServiceInfo {
	return registry.ServiceInfo{
		ID:   ServiceID,
		Name: "YouTube",
		Kinds: []domain.ResourceKind{
			domain.KindVideo,
			domain.KindPlaylist,
			domain.KindUser,
			domain.KindComment,
		},
		SearchOrders: []string{
			domain.OrderRelevance,
			domain.OrderDate,
			domain.OrderRating,
			domain.OrderTitle,
			domain.OrderViewCount,
		},
	}
}

// APIError is a non-success response from the Data API. Its message is the
// one the API reported.
type APIError struct {
	Status  int
	Reason  string
	Message string
}

func (e *APIError) Error() string { return e.Message }

func (e *APIError) Unwrap() error {
	if e.Status == http.StatusUnauthorized {
		return domain.ErrAuthFailed
	}
	switch e.Reason {
	case "authError", "forbidden", "insufficientPermissions":
		return domain.ErrAuthFailed
	}
	return domain.ErrTransport
}

// Client implements domain.Backend for YouTube
type Client struct {
	baseURL     string
	apiKey      string
	accessToken string
	pageSize    int
	safeSearch  bool
	retryDelay  time.Duration
	httpClient  *http.Client
	logger      *slog.Logger
}

// Option configures a Client
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithPageSize sets the default maxResults, clamped to 1..50
func WithPageSize(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.pageSize = min(n, maxPageSize)
		}
	}
}

func WithSafeSearch(on bool) Option {
	return func(c *Client) { c.safeSearch = on }
}

// WithRetryDelay sets the first backoff delay between retries of 5xx responses
func WithRetryDelay(d time.Duration) Option {
	return func(c *Client) { c.retryDelay = d }
}

// NewClient creates a YouTube client. Either apiKey or accessToken must be
// set; the access token is needed for the signed-in user's resources.
func NewClient(apiKey, accessToken string, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	c := &Client{
		baseURL:     DefaultBaseURL,
		apiKey:      apiKey,
		accessToken: accessToken,
		pageSize:    defaultPageSize,
		retryDelay:  baseRetryDelay,
		httpClient: &http.Client{
			Timeout: defaultTimeout,
		},
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Factory builds the client from registry configuration. It is a
// registry.BackendFactory.
func Factory(cfg registry.Config, logger *slog.Logger) (domain.Backend, error) {
	creds := cfg.CredentialsFor(ServiceID)
	if creds.APIKey == "" && creds.AccessToken == "" {
		return nil, errors.New("youtube api key or access token is required")
	}
	return NewClient(creds.APIKey, creds.AccessToken, logger,
		WithPageSize(cfg.PageSize),
		WithSafeSearch(cfg.SafeSearch),
	), nil
}

// List fetches one page of an API collection. ResourceID is the endpoint
// path ("/videos", "/playlistItems", "/search" for related videos, ...).
// Filters and params become query parameters.
func (c *Client) List(ctx context.Context, req domain.ListRequest) (*domain.Result, error) {
	resource := normalizeResource(req.ResourceID)
	if resource == "" {
		return nil, errors.New("resource id is required")
	}

	q := c.baseQuery(resource, req.Fields, req.PageToken)
	applyValues(q, req.Filters)
	applyValues(q, req.Params)
	if resource == "/search" && q.Get("type") == "" {
		if t, ok := searchTypes[req.Kind]; ok {
			q.Set("type", t)
		}
	}
	return c.fetchPage(ctx, resource, req.Kind, q)
}

// Search runs a /search query for kind. Comments cannot be searched.
func (c *Client) Search(ctx context.Context, req domain.SearchRequest) (*domain.Result, error) {
	t, ok := searchTypes[req.Kind]
	if !ok {
		return nil, fmt.Errorf("%w: cannot search %s", domain.ErrUnsupportedKind, req.Kind)
	}

	q := c.baseQuery("/search", req.Fields, req.PageToken)
	q.Set("q", req.Query)
	q.Set("type", t)
	if req.Order != "" {
		q.Set("order", req.Order)
	}
	if c.safeSearch {
		q.Set("safeSearch", "strict")
	} else {
		q.Set("safeSearch", "none")
	}
	applyValues(q, req.Filters)
	applyValues(q, req.Params)
	return c.fetchPage(ctx, "/search", req.Kind, q)
}

func (c *Client) fetchPage(ctx context.Context, resource string, kind domain.ResourceKind, q url.Values) (*domain.Result, error) {
	body, err := c.doRequest(ctx, resource, q)
	if err != nil {
		return nil, err
	}

	var resp ListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Error("JSON parse error", "error", err, "bodyLen", len(body))
		return nil, fmt.Errorf("%w: %v", domain.ErrDecode, err)
	}

	items := MapItems(resource, kind, resp.Items)
	if kind == domain.KindVideo && (resource == "/search" || resource == "/playlistItems") {
		c.enrichVideos(ctx, items)
	}
	return &domain.Result{Items: items, Next: resp.NextPageToken}, nil
}

// enrichVideos fills duration and view count, which /search and
// /playlistItems do not return. Failure leaves the records as they are.
func (c *Client) enrichVideos(ctx context.Context, items []map[string]any) {
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id, _ := item["id"].(string); id != "" {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return
	}

	q := url.Values{}
	q.Set("part", "contentDetails,statistics")
	q.Set("id", strings.Join(ids, ","))
	q.Set("maxResults", fmt.Sprint(maxPageSize))
	body, err := c.doRequest(ctx, "/videos", q)
	if err != nil {
		c.logger.Warn("youtube fetch video details failed", "error", err)
		return
	}
	var resp ListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		c.logger.Warn("youtube video details parse error", "error", err)
		return
	}

	details := make(map[string]Resource, len(resp.Items))
	for _, r := range resp.Items {
		details[idString(r.ID)] = r
	}
	for _, item := range items {
		id, _ := item["id"].(string)
		r, ok := details[id]
		if !ok {
			continue
		}
		item["duration"] = FormatDuration(r.ContentDetails.Duration)
		item["viewCount"] = r.Statistics.ViewCount
	}
}

func (c *Client) baseQuery(resource string, fields []string, pageToken string) url.Values {
	q := url.Values{}
	q.Set("part", partFor(resource))
	q.Set("maxResults", fmt.Sprint(c.pageSize))
	if len(fields) > 0 {
		q.Set("fields", strings.Join(fields, ","))
	}
	if pageToken != "" {
		q.Set("pageToken", pageToken)
	}
	return q
}

// doRequest performs an authenticated GET against the API.
// Includes retry logic with exponential backoff for 5xx server errors
func (c *Client) doRequest(ctx context.Context, path string, query url.Values) ([]byte, error) {
	if c.apiKey != "" {
		query.Set("key", c.apiKey)
	}
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, query.Encode())

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		if attempt > 0 {
			delay := c.retryDelay * time.Duration(1<<(attempt-1)) // 500ms, 1s, 2s
			c.logger.Debug("retrying request", "attempt", attempt, "delay", delay, "path", path)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Accept", "application/json")
		if c.accessToken != "" {
			req.Header.Set("Authorization", "Bearer "+c.accessToken)
		}

		c.logger.Debug("youtube request", "path", path, "attempt", attempt)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.logger.Error("youtube request failed", "error", err)
			return nil, fmt.Errorf("%w: %v", domain.ErrTransport, err)
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to read response: %v", domain.ErrTransport, err)
		}

		if resp.StatusCode >= 500 && resp.StatusCode < 600 {
			lastErr = &APIError{Status: resp.StatusCode, Reason: errorReason(body), Message: ErrorString(body, resp.StatusCode)}
			c.logger.Warn("youtube server error, will retry",
				"status", resp.StatusCode,
				"attempt", attempt,
				"maxRetries", maxRetries,
				"path", path,
			)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			apiErr := &APIError{Status: resp.StatusCode, Reason: errorReason(body), Message: ErrorString(body, resp.StatusCode)}
			c.logger.Error("youtube request error", "status", resp.StatusCode, "reason", apiErr.Reason, "message", apiErr.Message)
			return nil, apiErr
		}

		return body, nil
	}

	c.logger.Error("youtube request failed after retries", "error", lastErr, "path", path)
	return nil, lastErr
}

func normalizeResource(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	if !strings.HasPrefix(id, "/") {
		id = "/" + id
	}
	return strings.TrimRight(id, "/")
}

func partFor(resource string) string {
	switch resource {
	case "/videos", "/channels":
		return "snippet,contentDetails,statistics"
	case "/playlists", "/playlistItems":
		return "snippet,contentDetails"
	default:
		return "snippet"
	}
}

// applyValues copies filters or params into q. Lists are comma joined.
func applyValues(q url.Values, values map[string]any) {
	for k, value := range values {
		switch v := value.(type) {
		case nil:
		case []string:
			q.Set(k, strings.Join(v, ","))
		default:
			q.Set(k, fmt.Sprint(v))
		}
	}
}
