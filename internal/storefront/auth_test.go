package storefront

import (
	"context"
	"errors"
	"testing"

	"storefront/internal/backend"
	"storefront/internal/model"
	"storefront/internal/session"
)

func TestLogin_LocalValidation(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
		wantMsg  string
	}{
		{"missing username", "", "secret1", "Username is a required field"},
		{"short username", "abc", "secret1", "Username must be at least 6 characters"},
		{"missing password", "crio.do", "", "Password is a required field"},
		{"short password", "crio.do", "abc", "Password must be at least 6 characters"},
	}

	mock := &backend.Mock{
		LoginFunc: func(ctx context.Context, creds *backend.Credentials) (*backend.LoginResult, error) {
			t.Error("Login should not reach the backend")
			return nil, nil
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shop := New(mock, nil, nil, Options{})
			err := shop.Login(context.Background(), tt.username, tt.password)
			if model.ReasonCode(err) != model.CodeInvalidCredentials {
				t.Errorf("code = %q, want %q", model.ReasonCode(err), model.CodeInvalidCredentials)
			}
			if got := model.UserMessage(err); got != tt.wantMsg {
				t.Errorf("message = %q, want %q", got, tt.wantMsg)
			}
		})
	}
}

func TestLogin_PersistsSession(t *testing.T) {
	mock := &backend.Mock{
		LoginFunc: func(ctx context.Context, creds *backend.Credentials) (*backend.LoginResult, error) {
			return &backend.LoginResult{Token: "jwt", Username: creds.Username, Balance: 5000}, nil
		},
	}
	store := session.NewMemoryStore()
	shop := New(mock, session.New(store), nil, Options{})

	if err := shop.Login(context.Background(), "crio.do", "learnbydoing"); err != nil {
		t.Fatalf("Login() error = %v", err)
	}

	for key, want := range map[string]string{"token": "jwt", "username": "crio.do", "balance": "5000"} {
		if got, _ := store.Get(key); got != want {
			t.Errorf("store[%s] = %q, want %q", key, got, want)
		}
	}
}

func TestLogin_RejectedLeavesSessionEmpty(t *testing.T) {
	mock := &backend.Mock{
		LoginFunc: func(ctx context.Context, creds *backend.Credentials) (*backend.LoginResult, error) {
			return nil, model.NewRejectionError(400, "Password is incorrect", nil)
		},
	}
	shop := New(mock, nil, nil, Options{})

	err := shop.Login(context.Background(), "crio.do", "wrongpass")
	if !errors.Is(err, model.ErrRejected) {
		t.Fatalf("Login() error = %v, want ErrRejected", err)
	}
	if shop.Session.LoggedIn() {
		t.Error("session should stay logged out")
	}
}

func TestRegister(t *testing.T) {
	var registered *backend.Credentials
	mock := &backend.Mock{
		RegisterFunc: func(ctx context.Context, creds *backend.Credentials) error {
			registered = creds
			return nil
		},
	}
	shop := New(mock, nil, nil, Options{})
	ctx := context.Background()

	err := shop.Register(ctx, "newuser", "secret1", "secret2")
	if got := model.UserMessage(err); got != "Passwords do not match" {
		t.Errorf("mismatch message = %q", got)
	}
	if registered != nil {
		t.Fatal("Register reached the backend with mismatched passwords")
	}

	if err := shop.Register(ctx, "newuser", "secret1", "secret1"); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if registered.Username != "newuser" || registered.Password != "secret1" {
		t.Errorf("credentials = %+v", registered)
	}
	if shop.Session.LoggedIn() {
		t.Error("Register must not log in")
	}
}

func TestLogout(t *testing.T) {
	mock := &backend.Mock{
		GetCartFunc: func(ctx context.Context, token string) ([]model.CartLine, error) {
			return []model.CartLine{{ProductID: "p1", Quantity: 1}}, nil
		},
		ListAddressesFunc: func(ctx context.Context, token string) ([]model.Address, error) {
			return []model.Address{{ID: "a1"}}, nil
		},
	}
	shop := New(mock, loggedIn(t, 100), nil, Options{})
	shop.Enter(context.Background())
	shop.Addresses.Select("a1")

	if err := shop.Logout(); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}

	if shop.Session.LoggedIn() || shop.Session.Token() != "" {
		t.Error("session should be cleared")
	}
	if b, _ := shop.Session.Balance(); b != 0 {
		t.Errorf("balance = %d, want 0", b)
	}
	if len(shop.Cart.Lines()) != 0 {
		t.Error("cart should be reset")
	}
	if sel := shop.Addresses.Selection(); len(sel.Addresses) != 0 || sel.SelectedID != "" {
		t.Errorf("addresses = %+v, want empty", sel)
	}
}
