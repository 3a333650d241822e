// Package handler exposes a storefront session over HTTP: a small JSON API
// and an MCP endpoint with the same operations as tools.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"storefront/internal/model"
	"storefront/internal/storefront"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	shop   *storefront.Shop
	logger *slog.Logger
}

// New creates a Handler serving shop.
func New(shop *storefront.Shop, logger *slog.Logger) *Handler {
	return &Handler{
		shop:   shop,
		logger: logger,
	}
}

// RegisterRoutes registers all HTTP routes with the given ServeMux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /products", h.handleListProducts)
	mux.HandleFunc("GET /products/search", h.handleSearchProducts)

	mux.HandleFunc("GET /cart", h.handleGetCart)
	mux.HandleFunc("POST /cart/items", h.handleAddToCart)
	mux.HandleFunc("PUT /cart/items/{productID}", h.handleUpdateCartItem)

	mux.HandleFunc("GET /addresses", h.handleListAddresses)
	mux.HandleFunc("POST /addresses", h.handleAddAddress)
	mux.HandleFunc("DELETE /addresses/{id}", h.handleDeleteAddress)
	mux.HandleFunc("PUT /addresses/selected", h.handleSelectAddress)

	mux.HandleFunc("POST /checkout", h.handleCheckout)

	mux.Handle("/mcp", h.NewMCPHandler())

	mux.HandleFunc("GET /health", h.handleHealth)
	mux.HandleFunc("GET /healthz", h.handleHealth)
}

// refreshView reloads the cart (and the catalog when it has never been
// fetched) and returns the enriched view.
func (h *Handler) refreshView(ctx context.Context) (*storefront.View, error) {
	if len(h.shop.Catalog.Catalog()) == 0 {
		if _, err := h.shop.Catalog.List(ctx); err != nil {
			return nil, err
		}
	}
	if _, err := h.shop.Cart.Load(ctx); err != nil {
		return nil, err
	}
	return h.shop.CartView(), nil
}

// === Response Helpers ===

// writeJSON sends a JSON response with the given status code.
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", slog.String("error", err.Error()))
	}
}

// writeError sends an error response, extracting status/code from APIError if present.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		h.logger.Error("internal error", slog.String("error", err.Error()))
		apiErr = model.NewInternalError(err)
	}

	status := apiErr.StatusCode
	if status < 400 || status > 599 {
		status = http.StatusBadGateway
	}

	h.writeJSON(w, status, errorResponse{
		Error: errorBody{
			Code:    apiErr.Code,
			Message: apiErr.Message,
		},
	})
}

// errorResponse is the JSON structure for error responses.
type errorResponse struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MaxRequestBodySize limits JSON request bodies to 1MB.
const MaxRequestBodySize = 1 << 20

// decodeJSON reads JSON from request body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, MaxRequestBodySize)

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return model.NewBadRequestError("invalid JSON")
	}
	return nil
}

// handleHealth returns a simple health check response.
// GET /health, GET /healthz
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:   "ok",
		LoggedIn: h.shop.Session.LoggedIn(),
	})
}

type healthResponse struct {
	Status   string `json:"status"`
	LoggedIn bool   `json:"logged_in"`
}
