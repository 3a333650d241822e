package backend

import (
	"context"

	"storefront/internal/model"
)

// Mock implements Backend for testing.
// Each method can be configured via function fields. Unconfigured reads
// return empty results; unconfigured writes fail.
type Mock struct {
	ListProductsFunc   func(ctx context.Context) ([]model.Product, error)
	SearchProductsFunc func(ctx context.Context, text string) ([]model.Product, error)
	GetCartFunc        func(ctx context.Context, token string) ([]model.CartLine, error)
	UpsertCartItemFunc func(ctx context.Context, token string, line model.CartLine) ([]model.CartLine, error)
	ListAddressesFunc  func(ctx context.Context, token string) ([]model.Address, error)
	AddAddressFunc     func(ctx context.Context, token, text string) ([]model.Address, error)
	DeleteAddressFunc  func(ctx context.Context, token, id string) ([]model.Address, error)
	CheckoutFunc       func(ctx context.Context, token string, req *CheckoutRequest) error
	LoginFunc          func(ctx context.Context, creds *Credentials) (*LoginResult, error)
	RegisterFunc       func(ctx context.Context, creds *Credentials) error
}

func (m *Mock) ListProducts(ctx context.Context) ([]model.Product, error) {
	if m.ListProductsFunc != nil {
		return m.ListProductsFunc(ctx)
	}
	return []model.Product{}, nil
}

func (m *Mock) SearchProducts(ctx context.Context, text string) ([]model.Product, error) {
	if m.SearchProductsFunc != nil {
		return m.SearchProductsFunc(ctx, text)
	}
	return []model.Product{}, nil
}

func (m *Mock) GetCart(ctx context.Context, token string) ([]model.CartLine, error) {
	if m.GetCartFunc != nil {
		return m.GetCartFunc(ctx, token)
	}
	return []model.CartLine{}, nil
}

func (m *Mock) UpsertCartItem(ctx context.Context, token string, line model.CartLine) ([]model.CartLine, error) {
	if m.UpsertCartItemFunc != nil {
		return m.UpsertCartItemFunc(ctx, token, line)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) ListAddresses(ctx context.Context, token string) ([]model.Address, error) {
	if m.ListAddressesFunc != nil {
		return m.ListAddressesFunc(ctx, token)
	}
	return []model.Address{}, nil
}

func (m *Mock) AddAddress(ctx context.Context, token, text string) ([]model.Address, error) {
	if m.AddAddressFunc != nil {
		return m.AddAddressFunc(ctx, token, text)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) DeleteAddress(ctx context.Context, token, id string) ([]model.Address, error) {
	if m.DeleteAddressFunc != nil {
		return m.DeleteAddressFunc(ctx, token, id)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) Checkout(ctx context.Context, token string, req *CheckoutRequest) error {
	if m.CheckoutFunc != nil {
		return m.CheckoutFunc(ctx, token, req)
	}
	return model.NewInternalError(nil)
}

func (m *Mock) Login(ctx context.Context, creds *Credentials) (*LoginResult, error) {
	if m.LoginFunc != nil {
		return m.LoginFunc(ctx, creds)
	}
	return nil, model.NewInternalError(nil)
}

func (m *Mock) Register(ctx context.Context, creds *Credentials) error {
	if m.RegisterFunc != nil {
		return m.RegisterFunc(ctx, creds)
	}
	return model.NewInternalError(nil)
}

// Verify Mock implements Backend interface at compile time.
var _ Backend = (*Mock)(nil)
