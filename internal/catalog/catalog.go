// Package catalog fetches and searches the product catalog.
//
// Two snapshots are kept: the full catalog from the last successful List
// (used to enrich the cart) and the displayed result set, which List and
// Search both replace. Every request that can replace the displayed set is
// tagged with a sequence number; a response only lands if no newer request
// was issued in the meantime.
package catalog

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"storefront/internal/backend"
	"storefront/internal/model"
)

// Status tags a SearchResult.
type Status string

const (
	StatusOK          Status = "ok"
	StatusRejected    Status = "rejected"
	StatusUnreachable Status = "unreachable"
)

// SearchResult is the outcome of one query.
//
//	ok:          Products are the matches.
//	rejected:    Products is the fallback from the error body, Message is the backend text.
//	             Without a fallback the displayed set is kept and returned.
//	unreachable: Products is nil, the displayed set is kept, Message is generic.
//
// Stale is set when a newer query was issued before this one resolved; a
// stale result changed nothing.
type SearchResult struct {
	Status   Status          `json:"status"`
	Products []model.Product `json:"products"`
	Message  string          `json:"message,omitempty"`
	Seq      uint64          `json:"-"`
	Stale    bool            `json:"-"`
	Err      error           `json:"-"`
}

// Client wraps the backend catalog endpoints.
type Client struct {
	backend backend.Backend
	logger  *slog.Logger

	mu        sync.Mutex
	issued    uint64
	catalog   []model.Product
	displayed []model.Product
}

// New creates a Client.
func New(b backend.Backend, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{backend: b, logger: logger}
}

// List fetches the full catalog. On failure both snapshots are kept.
func (c *Client) List(ctx context.Context) ([]model.Product, error) {
	seq := c.issue()

	products, err := c.backend.ListProducts(ctx)
	if err != nil {
		c.logger.Warn("catalog fetch failed", slog.String("error", err.Error()))
		return nil, err
	}

	c.mu.Lock()
	c.catalog = clone(products)
	if seq == c.issued {
		c.displayed = clone(products)
	}
	c.mu.Unlock()

	c.logger.Debug("catalog fetched", slog.Int("products", len(products)))
	return clone(products), nil
}

// Search runs one query and, unless a newer request has been issued since,
// updates the displayed result set according to the result status.
func (c *Client) Search(ctx context.Context, text string) SearchResult {
	seq := c.issue()

	products, err := c.backend.SearchProducts(ctx, text)
	res := classify(products, err)
	res.Seq = seq

	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.issued {
		res.Stale = true
		c.logger.Debug("discarding stale search result",
			slog.String("text", text),
			slog.Uint64("seq", seq),
			slog.Uint64("latest", c.issued))
		return res
	}

	switch res.Status {
	case StatusOK:
		c.displayed = clone(res.Products)
	case StatusRejected:
		if products == nil {
			res.Products = nonNil(clone(c.displayed))
			break
		}
		c.displayed = clone(res.Products)
	case StatusUnreachable:
		c.logger.Warn("search failed", slog.String("text", text), slog.String("error", err.Error()))
	}
	return res
}

// Catalog returns the last full catalog.
func (c *Client) Catalog() []model.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.catalog)
}

// Displayed returns the result set currently on screen.
func (c *Client) Displayed() []model.Product {
	c.mu.Lock()
	defer c.mu.Unlock()
	return clone(c.displayed)
}

func (c *Client) issue() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.issued++
	return c.issued
}

func classify(products []model.Product, err error) SearchResult {
	switch {
	case err == nil:
		return SearchResult{Status: StatusOK, Products: nonNil(products)}
	case errors.Is(err, model.ErrRejected):
		return SearchResult{
			Status:   StatusRejected,
			Products: nonNil(products),
			Message:  model.UserMessage(err),
			Err:      err,
		}
	default:
		return SearchResult{
			Status:  StatusUnreachable,
			Message: model.UnreachableMessage,
			Err:     err,
		}
	}
}

func nonNil(p []model.Product) []model.Product {
	if p == nil {
		return []model.Product{}
	}
	return p
}

func clone(p []model.Product) []model.Product {
	if p == nil {
		return nil
	}
	out := make([]model.Product, len(p))
	copy(out, p)
	return out
}
