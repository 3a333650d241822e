package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/storefront"
)

type cartItemRequest struct {
	ProductID        string `json:"product_id"`
	Quantity         int    `json:"quantity"`
	PreventDuplicate bool   `json:"prevent_duplicate,omitempty"`
}

type addressRequest struct {
	Address string `json:"address"`
}

type selectAddressRequest struct {
	ID string `json:"id"`
}

type checkoutRequest struct {
	AddressID string `json:"address_id,omitempty"`
}

type checkoutResponse struct {
	Order *checkout.Result `json:"order"`
	Cart  *storefront.View `json:"cart"`
}

// handleListProducts returns the full catalog.
// GET /products
func (h *Handler) handleListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.shop.Catalog.List(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, products)
}

// handleSearchProducts runs one search. A rejected search still answers 200
// with status "rejected" and the fallback products.
// GET /products/search?value=
func (h *Handler) handleSearchProducts(w http.ResponseWriter, r *http.Request) {
	res := h.shop.Catalog.Search(r.Context(), r.URL.Query().Get("value"))
	if res.Status == catalog.StatusUnreachable {
		h.writeError(w, res.Err)
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// handleGetCart returns the enriched cart with its summary.
// GET /cart
func (h *Handler) handleGetCart(w http.ResponseWriter, r *http.Request) {
	view, err := h.refreshView(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, view)
}

// handleAddToCart adds a product.
// POST /cart/items
func (h *Handler) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req cartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if req.ProductID == "" {
		h.writeError(w, model.NewBadRequestError("product_id is required"))
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	h.logger.InfoContext(ctx, "adding to cart",
		slog.String("product_id", req.ProductID),
		slog.Int("quantity", req.Quantity),
		slog.Bool("prevent_duplicate", req.PreventDuplicate),
	)

	if _, err := h.shop.Cart.AddOrUpdate(ctx, req.ProductID, req.Quantity, cart.Options{PreventDuplicate: req.PreventDuplicate}); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.shop.CartView())
}

// handleUpdateCartItem sets the quantity of a product already in the cart.
// PUT /cart/items/{productID}
func (h *Handler) handleUpdateCartItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	productID := r.PathValue("productID")

	var req cartItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	h.logger.InfoContext(ctx, "updating cart item",
		slog.String("product_id", productID),
		slog.Int("quantity", req.Quantity),
	)

	if _, err := h.shop.Cart.AddOrUpdate(ctx, productID, req.Quantity, cart.Options{}); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.shop.CartView())
}

// handleListAddresses refetches the address book.
// GET /addresses
func (h *Handler) handleListAddresses(w http.ResponseWriter, r *http.Request) {
	if _, err := h.shop.Addresses.Load(r.Context()); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.shop.Addresses.Selection())
}

// handleAddAddress stores a new address.
// POST /addresses
func (h *Handler) handleAddAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}
	if _, err := h.shop.Addresses.Add(r.Context(), req.Address); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, h.shop.Addresses.Selection())
}

// handleDeleteAddress removes an address.
// DELETE /addresses/{id}
func (h *Handler) handleDeleteAddress(w http.ResponseWriter, r *http.Request) {
	if _, err := h.shop.Addresses.Remove(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, h.shop.Addresses.Selection())
}

// handleSelectAddress picks the shipping address. No backend call.
// PUT /addresses/selected
func (h *Handler) handleSelectAddress(w http.ResponseWriter, r *http.Request) {
	var req selectAddressRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if req.ID != "" && !h.shop.Addresses.Selection().Has(req.ID) {
		h.writeError(w, model.NewBadRequestError("unknown address id "+strconv.Quote(req.ID)))
		return
	}
	h.shop.Addresses.Select(req.ID)
	h.writeJSON(w, http.StatusOK, h.shop.Addresses.Selection())
}

// handleCheckout places the order for the current cart.
// POST /checkout
func (h *Handler) handleCheckout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req checkoutRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			h.writeError(w, err)
			return
		}
	}
	addressID := req.AddressID
	if addressID == "" {
		addressID = h.shop.Addresses.Selection().SelectedID
	}
	h.logger.InfoContext(ctx, "placing order", slog.String("address_id", addressID))

	res, err := h.shop.PlaceOrder(ctx, req.AddressID)
	if err != nil && res == nil {
		h.writeError(w, err)
		return
	}
	if err != nil {
		h.logger.WarnContext(ctx, "order placed with follow-up error", slog.String("error", err.Error()))
	}
	h.writeJSON(w, http.StatusOK, checkoutResponse{Order: res, Cart: h.shop.CartView()})
}
