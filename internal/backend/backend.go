// Package backend defines the interface over the storefront's HTTP backend.
// The backend owns authentication, the catalog, cart persistence, addresses
// and checkout settlement; this package only describes how to reach it.
package backend

import (
	"context"

	"storefront/internal/model"
)

// Backend is the fixed set of backend operations the storefront consumes.
//
// Errors are always *model.APIError: a structured non-2xx answer wraps
// model.ErrRejected, anything without a usable response wraps
// model.ErrUnreachable.
type Backend interface {
	// ListProducts returns the full catalog.
	ListProducts(ctx context.Context) ([]model.Product, error)

	// SearchProducts runs a substring/category query.
	// On rejection the returned products are the fallback list decoded from
	// the error body (possibly empty) and the error is non-nil.
	SearchProducts(ctx context.Context, text string) ([]model.Product, error)

	// GetCart returns the authoritative cart lines for token.
	GetCart(ctx context.Context, token string) ([]model.CartLine, error)

	// UpsertCartItem sets an absolute quantity and returns the new cart.
	UpsertCartItem(ctx context.Context, token string, line model.CartLine) ([]model.CartLine, error)

	// ListAddresses returns saved addresses in server order.
	ListAddresses(ctx context.Context, token string) ([]model.Address, error)

	// AddAddress appends an address and returns the new full list.
	AddAddress(ctx context.Context, token, text string) ([]model.Address, error)

	// DeleteAddress removes an address and returns the new full list.
	DeleteAddress(ctx context.Context, token, id string) ([]model.Address, error)

	// Checkout settles the current cart against the wallet.
	// A nil error means the backend accepted the order.
	Checkout(ctx context.Context, token string, req *CheckoutRequest) error

	// Login exchanges credentials for a bearer token and wallet balance.
	Login(ctx context.Context, creds *Credentials) (*LoginResult, error)

	// Register creates an account. It does not log in.
	Register(ctx context.Context, creds *Credentials) error
}

// CheckoutRequest carries the selected address. IdempotencyKey is sent as a
// header so a retried submission is recognizable server side.
type CheckoutRequest struct {
	AddressID      string
	IdempotencyKey string
}

// Credentials is a username/password pair.
type Credentials struct {
	Username string
	Password string
}

// LoginResult is what a successful login yields.
type LoginResult struct {
	Token    string
	Username string
	Balance  int64
}
