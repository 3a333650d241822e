// Package rest implements backend.Backend over the storefront's HTTP API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"storefront/internal/backend"
	"storefront/internal/model"
)

const (
	pathProducts  = "/products"
	pathSearch    = "/products/search"
	pathCart      = "/cart"
	pathCheckout  = "/cart/checkout"
	pathAddresses = "/user/addresses"
	pathLogin     = "/auth/login"
	pathRegister  = "/auth/register"

	userAgent = "Storefront/1.0"

	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 4 << 20
)

// Config holds REST client configuration.
type Config struct {
	// Endpoint is the API root, e.g. https://shop.example.com/api/v1.
	Endpoint string
	Timeout  time.Duration
	// Transport overrides the HTTP transport. Nil uses http.DefaultTransport.
	Transport http.RoundTripper
}

// Client talks to the storefront backend.
// Every method maps failures onto the model error taxonomy: non-2xx answers
// become rejections carrying the backend's message, everything else becomes
// an unreachable error.
type Client struct {
	httpClient *http.Client
	endpoint   string
}

// New creates a REST client.
func New(cfg Config) (*Client, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("endpoint is required")
	}
	if _, err := url.ParseRequestURI(cfg.Endpoint); err != nil {
		return nil, fmt.Errorf("invalid endpoint: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: cfg.Transport,
		},
		endpoint: strings.TrimSuffix(cfg.Endpoint, "/"),
	}, nil
}

// === Catalog ===

func (c *Client) ListProducts(ctx context.Context) ([]model.Product, error) {
	req, err := c.newRequest(ctx, http.MethodGet, pathProducts, nil, "")
	if err != nil {
		return nil, fmt.Errorf("creating products request: %w", err)
	}

	var resp []wireProduct
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return productsFromWire(resp), nil
}

// SearchProducts queries by name or category. When the backend rejects the
// query, the error body is decoded as a product list and returned together
// with the rejection so the caller can display it. A rejection whose body is
// not a product list returns nil products.
func (c *Client) SearchProducts(ctx context.Context, text string) ([]model.Product, error) {
	path := pathSearch + "?value=" + url.QueryEscape(text)
	req, err := c.newRequest(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	var resp []wireProduct
	err = c.do(req, &resp)
	if err == nil {
		return productsFromWire(resp), nil
	}

	var apiErr *model.APIError
	if errors.As(err, &apiErr) && errors.Is(err, model.ErrRejected) {
		var fallback []wireProduct
		if json.Unmarshal(apiErr.Body, &fallback) == nil {
			return productsFromWire(fallback), err
		}
		return nil, err
	}
	return nil, err
}

// === Cart ===

func (c *Client) GetCart(ctx context.Context, token string) ([]model.CartLine, error) {
	req, err := c.newRequest(ctx, http.MethodGet, pathCart, nil, token)
	if err != nil {
		return nil, fmt.Errorf("creating cart request: %w", err)
	}

	var resp []wireCartLine
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return cartLinesFromWire(resp), nil
}

// UpsertCartItem sends the absolute quantity for one product.
func (c *Client) UpsertCartItem(ctx context.Context, token string, line model.CartLine) ([]model.CartLine, error) {
	req, err := c.newRequest(ctx, http.MethodPost, pathCart, cartLineToWire(line), token)
	if err != nil {
		return nil, fmt.Errorf("creating cart update request: %w", err)
	}

	var resp []wireCartLine
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return cartLinesFromWire(resp), nil
}

// Checkout settles the cart. The backend answers {success:true} on 2xx; an
// explicit success:false in a 2xx body is still treated as a rejection.
func (c *Client) Checkout(ctx context.Context, token string, r *backend.CheckoutRequest) error {
	req, err := c.newRequest(ctx, http.MethodPost, pathCheckout, &wireCheckoutRequest{AddressID: r.AddressID}, token)
	if err != nil {
		return fmt.Errorf("creating checkout request: %w", err)
	}
	if r.IdempotencyKey != "" {
		req.Header.Set("Idempotency-Key", r.IdempotencyKey)
	}

	var resp wireStatus
	if err := c.do(req, &resp); err != nil {
		return err
	}
	if resp.Success != nil && !*resp.Success {
		return model.NewRejectionError(http.StatusOK, resp.Message, nil)
	}
	return nil
}

// === Addresses ===

func (c *Client) ListAddresses(ctx context.Context, token string) ([]model.Address, error) {
	req, err := c.newRequest(ctx, http.MethodGet, pathAddresses, nil, token)
	if err != nil {
		return nil, fmt.Errorf("creating addresses request: %w", err)
	}

	var resp []wireAddress
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return addressesFromWire(resp), nil
}

func (c *Client) AddAddress(ctx context.Context, token, text string) ([]model.Address, error) {
	req, err := c.newRequest(ctx, http.MethodPost, pathAddresses, &wireAddAddressRequest{Address: text}, token)
	if err != nil {
		return nil, fmt.Errorf("creating add address request: %w", err)
	}

	var resp []wireAddress
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return addressesFromWire(resp), nil
}

func (c *Client) DeleteAddress(ctx context.Context, token, id string) ([]model.Address, error) {
	path := pathAddresses + "/" + url.PathEscape(id)
	req, err := c.newRequest(ctx, http.MethodDelete, path, nil, token)
	if err != nil {
		return nil, fmt.Errorf("creating delete address request: %w", err)
	}

	var resp []wireAddress
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	return addressesFromWire(resp), nil
}

// === Auth ===

func (c *Client) Login(ctx context.Context, creds *backend.Credentials) (*backend.LoginResult, error) {
	body := &wireCredentials{Username: creds.Username, Password: creds.Password}
	req, err := c.newRequest(ctx, http.MethodPost, pathLogin, body, "")
	if err != nil {
		return nil, fmt.Errorf("creating login request: %w", err)
	}

	var resp wireLoginResponse
	if err := c.do(req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, model.NewUnreachableError(fmt.Errorf("login response without token"))
	}

	username := resp.Username
	if username == "" {
		username = creds.Username
	}
	return &backend.LoginResult{
		Token:    resp.Token,
		Username: username,
		Balance:  int64(resp.Balance),
	}, nil
}

func (c *Client) Register(ctx context.Context, creds *backend.Credentials) error {
	body := &wireCredentials{Username: creds.Username, Password: creds.Password}
	req, err := c.newRequest(ctx, http.MethodPost, pathRegister, body, "")
	if err != nil {
		return fmt.Errorf("creating register request: %w", err)
	}
	return c.do(req, nil)
}

// === HTTP Helpers ===

// newRequest builds a JSON request. token, when non-empty, is sent as a
// bearer credential.
func (c *Client) newRequest(ctx context.Context, method, path string, body interface{}, token string) (*http.Request, error) {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshaling request: %w", err)
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, bodyReader)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req, nil
}

// do executes the request and decodes a 2xx body into result.
func (c *Client) do(req *http.Request, result interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return model.NewUnreachableError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return model.NewUnreachableError(fmt.Errorf("reading response: %w", err))
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.parseError(resp.StatusCode, body)
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return model.NewUnreachableError(fmt.Errorf("parsing %s response: %w", req.URL.Path, err))
		}
	}

	return nil
}

// parseError converts a non-2xx answer to a rejection. The message is the
// backend's own text when the body has one.
func (c *Client) parseError(statusCode int, body []byte) error {
	var status wireStatus
	json.Unmarshal(body, &status) // Best effort parse
	return model.NewRejectionError(statusCode, status.Message, body)
}

// Verify Client implements backend.Backend at compile time.
var _ backend.Backend = (*Client)(nil)
