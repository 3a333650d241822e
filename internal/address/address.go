// Package address owns the shopper's saved addresses and the selection.
package address

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"storefront/internal/backend"
	"storefront/internal/model"
	"storefront/internal/session"
)

// Book holds the address list and the selected id.
//
// Selection reports the selected id only while the current list contains
// it, and a list refresh that drops the id clears it. Removing the selected
// address therefore clears the selection with no extra bookkeeping.
type Book struct {
	backend backend.Backend
	session *session.Session
	logger  *slog.Logger

	mu        sync.RWMutex
	addresses []model.Address
	selected  string
}

// New creates an empty Book.
func New(b backend.Backend, sess *session.Session, logger *slog.Logger) *Book {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Book{backend: b, session: sess, logger: logger}
}

// Load fetches the address list. Logged out, the list is empty.
func (b *Book) Load(ctx context.Context) ([]model.Address, error) {
	token := b.session.Token()
	if token == "" {
		b.replace(nil)
		return []model.Address{}, nil
	}

	list, err := b.backend.ListAddresses(ctx, token)
	if err != nil {
		b.logger.Warn("address fetch failed", slog.String("error", err.Error()))
		return nil, err
	}
	b.replace(list)
	return b.Addresses(), nil
}

// Add saves a new address. Empty or blank text is passed through as is.
func (b *Book) Add(ctx context.Context, text string) ([]model.Address, error) {
	token := b.session.Token()
	if token == "" {
		return nil, model.NewValidationError(model.CodeNotLoggedIn)
	}

	list, err := b.backend.AddAddress(ctx, token, text)
	if err != nil {
		b.logger.Warn("address add failed", slog.String("error", err.Error()))
		return nil, err
	}
	b.replace(list)
	b.logger.Info("address added", slog.Int("addresses", len(list)))
	return b.Addresses(), nil
}

// Remove deletes an address by id.
func (b *Book) Remove(ctx context.Context, id string) ([]model.Address, error) {
	token := b.session.Token()
	if token == "" {
		return nil, model.NewValidationError(model.CodeNotLoggedIn)
	}

	list, err := b.backend.DeleteAddress(ctx, token, id)
	if err != nil {
		b.logger.Warn("address delete failed",
			slog.String("address_id", id),
			slog.String("error", err.Error()))
		return nil, err
	}
	b.replace(list)
	b.logger.Info("address deleted",
		slog.String("address_id", id),
		slog.Int("addresses", len(list)))
	return b.Addresses(), nil
}

// Select marks id as the shipping address. No network call.
func (b *Book) Select(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selected = id
}

// Addresses returns a copy of the list.
func (b *Book) Addresses() []model.Address {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]model.Address, len(b.addresses))
	copy(out, b.addresses)
	return out
}

// Selection returns the list together with the effective selection.
func (b *Book) Selection() model.AddressSelection {
	b.mu.RLock()
	defer b.mu.RUnlock()

	sel := model.AddressSelection{Addresses: make([]model.Address, len(b.addresses))}
	copy(sel.Addresses, b.addresses)
	if sel.Has(b.selected) {
		sel.SelectedID = b.selected
	}
	return sel
}

// Reset drops the list and the selection (logout).
func (b *Book) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.addresses = nil
	b.selected = ""
}

func (b *Book) replace(list []model.Address) {
	cp := make([]model.Address, len(list))
	copy(cp, list)
	b.mu.Lock()
	b.addresses = cp
	if !(model.AddressSelection{Addresses: cp}).Has(b.selected) {
		b.selected = ""
	}
	b.mu.Unlock()
}
