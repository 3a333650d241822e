// Package cart owns the session's authoritative cart lines.
//
// The backend is the source of truth: every successful mutation replaces the
// local lines with the backend's response, and every failure leaves them as
// they were. Readers get copies.
package cart

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"storefront/internal/backend"
	"storefront/internal/model"
	"storefront/internal/reconcile"
	"storefront/internal/session"
)

// Options controls AddOrUpdate.
type Options struct {
	// PreventDuplicate rejects the call locally when the product already has
	// a line. The add-to-cart button sets it; quantity steppers do not.
	PreventDuplicate bool
}

// Store holds the cart lines for one session.
type Store struct {
	backend backend.Backend
	session *session.Session
	logger  *slog.Logger

	mu    sync.RWMutex
	lines []model.CartLine
}

// New creates an empty Store.
func New(b backend.Backend, sess *session.Session, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{backend: b, session: sess, logger: logger}
}

// Load fetches the cart. Without a session token it returns an empty cart
// and no error, so catalog browsing works logged out.
func (s *Store) Load(ctx context.Context) ([]model.CartLine, error) {
	token := s.session.Token()
	if token == "" {
		s.replace(nil)
		return []model.CartLine{}, nil
	}

	lines, err := s.backend.GetCart(ctx, token)
	if err != nil {
		s.logger.Warn("cart fetch failed", slog.String("error", err.Error()))
		return nil, err
	}
	s.replace(lines)
	return s.Lines(), nil
}

// AddOrUpdate sets productID to the absolute quantity qty.
func (s *Store) AddOrUpdate(ctx context.Context, productID string, qty int, opts Options) ([]model.CartLine, error) {
	token := s.session.Token()
	if token == "" {
		return nil, model.NewValidationError(model.CodeNotLoggedIn)
	}
	if opts.PreventDuplicate && s.Quantity(productID) > 0 {
		s.logger.Debug("duplicate add rejected", slog.String("product_id", productID))
		return nil, model.NewValidationError(model.CodeDuplicateItem)
	}
	if qty <= 0 {
		return nil, model.NewValidationError(model.CodeInvalidQuantity)
	}

	lines, err := s.backend.UpsertCartItem(ctx, token, model.CartLine{ProductID: productID, Quantity: qty})
	if err != nil {
		s.logger.Warn("cart update failed",
			slog.String("product_id", productID),
			slog.Int("quantity", qty),
			slog.String("error", err.Error()))
		return nil, err
	}

	s.replace(lines)
	s.logger.Info("cart updated",
		slog.String("product_id", productID),
		slog.Int("quantity", qty),
		slog.Int("lines", len(lines)))
	return s.Lines(), nil
}

// Lines returns a copy of the current cart lines.
func (s *Store) Lines() []model.CartLine {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.CartLine, len(s.lines))
	copy(out, s.lines)
	return out
}

// Quantity returns the quantity of productID, or 0 when absent.
func (s *Store) Quantity(productID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, l := range s.lines {
		if l.ProductID == productID {
			return l.Quantity
		}
	}
	return 0
}

// View merges the current lines with catalog.
func (s *Store) View(catalog []model.Product) *reconcile.MergeResult {
	result := reconcile.Merge(s.Lines(), catalog)
	if !result.Complete() {
		s.logger.Warn("cart references products missing from catalog",
			slog.Any("product_ids", result.Missing))
	}
	return result
}

// Reset drops the local lines (logout).
func (s *Store) Reset() {
	s.replace(nil)
}

func (s *Store) replace(lines []model.CartLine) {
	cp := make([]model.CartLine, len(lines))
	copy(cp, lines)
	s.mu.Lock()
	s.lines = cp
	s.mu.Unlock()
}
