package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/mmcdole/tubular/internal/domain"
)

// Wire format written to the plugin's stdin
type protocolRequest struct {
	Op         string              `json:"op"` // "list" or "search"
	Kind       domain.ResourceKind `json:"kind"`
	ResourceID string              `json:"resourceId,omitempty"`
	Query      string              `json:"query,omitempty"`
	Order      string              `json:"order,omitempty"`
	Fields     []string            `json:"fields,omitempty"`
	Filters    map[string]any      `json:"filters,omitempty"`
	Params     map[string]any      `json:"params,omitempty"`
	PageToken  string              `json:"pageToken,omitempty"`
}

// Wire format read from the plugin's stdout
type protocolResponse struct {
	Items *[]map[string]any `json:"items"`
	Next  string            `json:"next"`
	Error string            `json:"error"`
}

// Error is a failure reported by the plugin itself
type Error struct {
	Plugin  string
	Message string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Unwrap() error { return domain.ErrTransport }

// Backend implements domain.Backend by running the plugin command once per
// call.
type Backend struct {
	manifest *Manifest
	runner   CmdRunner
	logger   *slog.Logger
}

func New(m *Manifest, runner CmdRunner, logger *slog.Logger) *Backend {
	if runner == nil {
		runner = NewCmdRunner()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Backend{manifest: m, runner: runner, logger: logger}
}

func (b *Backend) List(ctx context.Context, req domain.ListRequest) (*domain.Result, error) {
	return b.call(ctx, protocolRequest{
		Op:         "list",
		Kind:       req.Kind,
		ResourceID: req.ResourceID,
		Fields:     req.Fields,
		Filters:    req.Filters,
		Params:     req.Params,
		PageToken:  req.PageToken,
	})
}

func (b *Backend) Search(ctx context.Context, req domain.SearchRequest) (*domain.Result, error) {
	return b.call(ctx, protocolRequest{
		Op:        "search",
		Kind:      req.Kind,
		Query:     req.Query,
		Order:     req.Order,
		Fields:    req.Fields,
		Filters:   req.Filters,
		Params:    req.Params,
		PageToken: req.PageToken,
	})
}

func (b *Backend) call(ctx context.Context, preq protocolRequest) (*domain.Result, error) {
	if len(b.manifest.Kinds) > 0 && !b.manifest.Info().Supports(preq.Kind) {
		return nil, fmt.Errorf("%w: %s does not serve %s", domain.ErrUnsupportedKind, b.manifest.ID, preq.Kind)
	}

	stdin, err := json.Marshal(preq)
	if err != nil {
		return nil, fmt.Errorf("failed to encode plugin request: %w", err)
	}

	b.logger.Debug("plugin request", "plugin", b.manifest.ID, "op", preq.Op, "kind", preq.Kind)

	out, err := b.runner.Run(ctx, stdin, b.manifest.Command, b.manifest.Args...)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		b.logger.Error("plugin command failed", "plugin", b.manifest.ID, "error", err)
		return nil, fmt.Errorf("%w: plugin %s: %s", domain.ErrTransport, b.manifest.ID, describeExit(err))
	}

	var resp protocolResponse
	if err := json.Unmarshal(out, &resp); err != nil {
		b.logger.Error("plugin output parse error", "plugin", b.manifest.ID, "error", err, "bodyLen", len(out))
		return nil, fmt.Errorf("%w: plugin %s: %v", domain.ErrDecode, b.manifest.ID, err)
	}
	if resp.Error != "" {
		return nil, &Error{Plugin: b.manifest.ID, Message: resp.Error}
	}
	if resp.Items == nil {
		return nil, fmt.Errorf("%w: plugin %s: response has no items", domain.ErrDecode, b.manifest.ID)
	}
	return &domain.Result{Items: *resp.Items, Next: resp.Next}, nil
}

// describeExit prefers the plugin's stderr over the bare exit status
func describeExit(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		if msg := strings.TrimSpace(string(exitErr.Stderr)); msg != "" {
			return msg
		}
	}
	return err.Error()
}
