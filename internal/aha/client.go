// Package aha is a typed client for the Aha! REST API resources exposed as
// MCP tools. Every call goes through a request pipeline.
package aha

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/codex-k8s/aha-mcp-server/internal/pipeline"
)

// Page size bounds.
const (
	DefaultPerPage = 20
	MaxPerPage     = 200
)

// ErrInvalidArgument marks a call rejected before any request was made.
var ErrInvalidArgument = errors.New("invalid argument")

// Executor runs one logical API call. *pipeline.Pipeline satisfies it.
type Executor interface {
	Execute(ctx context.Context, req pipeline.Request) (*pipeline.Response, error)
}

// Client builds request descriptors and decodes responses.
type Client struct {
	exec           Executor
	defaultProduct string
}

// New returns a Client. defaultProduct is used by product-scoped listings
// called without a product.
func New(exec Executor, defaultProduct string) *Client {
	return &Client{exec: exec, defaultProduct: strings.TrimSpace(defaultProduct)}
}

// DefaultProduct returns the configured default product, if any.
func (c *Client) DefaultProduct() string {
	return c.defaultProduct
}

func (c *Client) do(ctx context.Context, method, path string, query pipeline.Query, body any) (*pipeline.Response, error) {
	req, err := pipeline.NewRequest(method, path, query, body)
	if err != nil {
		return nil, err
	}
	return c.exec.Execute(ctx, req)
}

func (c *Client) product(productID string) (string, error) {
	if id := strings.TrimSpace(productID); id != "" {
		return id, nil
	}
	if c.defaultProduct != "" {
		return c.defaultProduct, nil
	}
	return "", fmt.Errorf("%w: product_id is required (no default product configured)", ErrInvalidArgument)
}

// requireID validates and path-escapes a resource identifier.
func requireID(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidArgument, name)
	}
	return url.PathEscape(value), nil
}

// perPage clamps a result limit to the API page size.
func perPage(limit int) int {
	if limit <= 0 {
		return DefaultPerPage
	}
	return min(limit, MaxPerPage)
}

// decodeOne reads a single resource that may or may not be wrapped in an
// envelope keyed by key.
func decodeOne[T any](resp *pipeline.Response, key string) (T, error) {
	var out T
	if resp == nil || len(resp.Body) == 0 {
		return out, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return out, fmt.Errorf("decode %s: %w", key, err)
	}
	raw := json.RawMessage(resp.Body)
	if wrapped, ok := envelope[key]; ok {
		raw = wrapped
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", key, err)
	}
	return out, nil
}

// decodePage reads a listing keyed by key with optional pagination.
func decodePage[T any](resp *pipeline.Response, key string) (Page[T], error) {
	var page Page[T]
	if resp == nil || len(resp.Body) == 0 {
		return page, nil
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		return page, fmt.Errorf("decode %s: %w", key, err)
	}
	if raw, ok := envelope[key]; ok {
		if err := json.Unmarshal(raw, &page.Items); err != nil {
			return page, fmt.Errorf("decode %s: %w", key, err)
		}
	}
	page.Total = len(page.Items)
	if raw, ok := envelope["pagination"]; ok {
		var p pagination
		if err := json.Unmarshal(raw, &p); err == nil && p.TotalRecords > page.Total {
			page.Total = p.TotalRecords
		}
	}
	return page, nil
}

// firstN trims a page to at most limit items without touching Total.
func firstN[T any](page Page[T], limit int) Page[T] {
	if limit > 0 && len(page.Items) > limit {
		page.Items = page.Items[:limit]
	}
	return page
}
