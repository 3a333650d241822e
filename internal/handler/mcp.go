// MCP transport for the storefront daemon using the official MCP Go SDK.
// Every shopper operation is exposed as a tool over the daemon's session.
package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"storefront/internal/cart"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/model"
	"storefront/internal/storefront"
)

// === MCP Tool Input/Output Types ===

// EmptyInput is the input of tools that take no arguments.
type EmptyInput struct{}

// SearchInput is the input schema for search_products.
type SearchInput struct {
	Text string `json:"text" jsonschema:"search text matched against product name and category"`
}

// CartItemInput is the input schema for add_to_cart and update_cart_item.
type CartItemInput struct {
	ProductID string `json:"product_id" jsonschema:"product ID"`
	Quantity  int    `json:"quantity,omitempty" jsonschema:"desired quantity, at least 1; add_to_cart defaults to 1"`
}

// AddressInput is the input schema for add_address.
type AddressInput struct {
	Address string `json:"address" jsonschema:"full shipping address text"`
}

// AddressIDInput is the input schema for delete_address and select_address.
type AddressIDInput struct {
	ID string `json:"id" jsonschema:"address ID"`
}

// CheckoutInput is the input schema for checkout.
type CheckoutInput struct {
	AddressID string `json:"address_id,omitempty" jsonschema:"address to ship to; defaults to the selected address"`
}

// LoginInput is the input schema for login.
type LoginInput struct {
	Username string `json:"username" jsonschema:"account username"`
	Password string `json:"password" jsonschema:"account password"`
}

// ProductsOutput wraps a product list.
type ProductsOutput struct {
	Products []model.Product `json:"products"`
}

// SearchOutput is the result of search_products.
type SearchOutput struct {
	Status   string          `json:"status" jsonschema:"ok, rejected or unreachable"`
	Products []model.Product `json:"products"`
	Message  string          `json:"message,omitempty"`
}

// CartItemOutput is one enriched cart line.
type CartItemOutput struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Category  string `json:"category"`
	Cost      int64  `json:"cost"`
	Quantity  int    `json:"quantity"`
	LineTotal int64  `json:"line_total"`
}

// CartOutput is the enriched cart with its summary.
type CartOutput struct {
	Username  string                 `json:"username,omitempty"`
	Balance   int64                  `json:"balance"`
	Items     []CartItemOutput       `json:"items"`
	Missing   []string               `json:"missing,omitempty"`
	Products  int64                  `json:"products"`
	Subtotal  int64                  `json:"subtotal"`
	Shipping  int64                  `json:"shipping"`
	Total     int64                  `json:"total"`
	Addresses model.AddressSelection `json:"addresses"`
}

// AddressesOutput is the address book with its selection.
type AddressesOutput struct {
	Addresses  []model.Address `json:"addresses"`
	SelectedID string          `json:"selected_id,omitempty"`
}

// CheckoutOutput describes a placed order.
type CheckoutOutput struct {
	AddressID string `json:"address_id"`
	Charged   int64  `json:"charged"`
	Balance   int64  `json:"balance"`
}

// SessionOutput reports who is logged in.
type SessionOutput struct {
	LoggedIn bool   `json:"logged_in"`
	Username string `json:"username,omitempty"`
	Balance  int64  `json:"balance"`
}

// NewMCPServer creates an MCP server with the storefront tools registered.
func (h *Handler) NewMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "storefront",
			Version: "1.0.0",
		},
		&mcp.ServerOptions{
			Instructions: "Storefront shopping session. Browse and search products, manage the cart " +
				"and shipping addresses, then check out against the wallet balance. " +
				"Cart, address and checkout tools require a logged-in session.",
		},
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_products",
		Description: "List the full product catalog.",
	}, h.mcpListProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_products",
		Description: "Search products by name or category. A rejected search still returns fallback products.",
	}, h.mcpSearchProducts)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_cart",
		Description: "Get the cart enriched with product details, totals and the address book.",
	}, h.mcpGetCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_to_cart",
		Description: "Add a product to the cart. Fails if the product is already in the cart.",
	}, h.mcpAddToCart)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "update_cart_item",
		Description: "Set the quantity of a product in the cart.",
	}, h.mcpUpdateCartItem)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_addresses",
		Description: "List saved shipping addresses and the current selection.",
	}, h.mcpListAddresses)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_address",
		Description: "Save a new shipping address.",
	}, h.mcpAddAddress)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "delete_address",
		Description: "Delete a saved shipping address.",
	}, h.mcpDeleteAddress)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "select_address",
		Description: "Select the shipping address used by checkout.",
	}, h.mcpSelectAddress)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "checkout",
		Description: "Place the order for the whole cart, paid from the wallet balance.",
	}, h.mcpCheckout)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "login",
		Description: "Log in and start a session.",
	}, h.mcpLogin)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "logout",
		Description: "End the session and clear the cart and address snapshots.",
	}, h.mcpLogout)

	return server
}

// NewMCPHandler returns an HTTP handler for the MCP endpoint.
// Mount this at /mcp on your mux.
func (h *Handler) NewMCPHandler() http.Handler {
	server := h.NewMCPServer()
	return mcp.NewStreamableHTTPHandler(
		func(r *http.Request) *mcp.Server { return server },
		nil,
	)
}

// === Tool Handlers ===

func (h *Handler) mcpListProducts(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, ProductsOutput, error) {
	products, err := h.shop.Catalog.List(ctx)
	if err != nil {
		return nil, ProductsOutput{}, h.mcpError(err)
	}
	return nil, ProductsOutput{Products: nonNilProducts(products)}, nil
}

func (h *Handler) mcpSearchProducts(ctx context.Context, req *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	res := h.shop.Catalog.Search(ctx, input.Text)
	if res.Status == catalog.StatusUnreachable {
		return nil, SearchOutput{}, h.mcpError(res.Err)
	}
	return nil, SearchOutput{
		Status:   string(res.Status),
		Products: nonNilProducts(res.Products),
		Message:  res.Message,
	}, nil
}

func (h *Handler) mcpGetCart(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, CartOutput, error) {
	view, err := h.refreshView(ctx)
	if err != nil {
		return nil, CartOutput{}, h.mcpError(err)
	}
	return nil, toCartOutput(view), nil
}

func (h *Handler) mcpAddToCart(ctx context.Context, req *mcp.CallToolRequest, input CartItemInput) (*mcp.CallToolResult, CartOutput, error) {
	if input.ProductID == "" {
		return nil, CartOutput{}, fmt.Errorf("product_id is required")
	}
	if input.Quantity == 0 {
		input.Quantity = 1
	}
	if _, err := h.shop.Cart.AddOrUpdate(ctx, input.ProductID, input.Quantity, cart.Options{PreventDuplicate: true}); err != nil {
		return nil, CartOutput{}, h.mcpError(err)
	}
	return nil, toCartOutput(h.shop.CartView()), nil
}

func (h *Handler) mcpUpdateCartItem(ctx context.Context, req *mcp.CallToolRequest, input CartItemInput) (*mcp.CallToolResult, CartOutput, error) {
	if input.ProductID == "" {
		return nil, CartOutput{}, fmt.Errorf("product_id is required")
	}
	if _, err := h.shop.Cart.AddOrUpdate(ctx, input.ProductID, input.Quantity, cart.Options{}); err != nil {
		return nil, CartOutput{}, h.mcpError(err)
	}
	return nil, toCartOutput(h.shop.CartView()), nil
}

func (h *Handler) mcpListAddresses(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, AddressesOutput, error) {
	if _, err := h.shop.Addresses.Load(ctx); err != nil {
		return nil, AddressesOutput{}, h.mcpError(err)
	}
	return nil, h.addressesOutput(), nil
}

func (h *Handler) mcpAddAddress(ctx context.Context, req *mcp.CallToolRequest, input AddressInput) (*mcp.CallToolResult, AddressesOutput, error) {
	if _, err := h.shop.Addresses.Add(ctx, input.Address); err != nil {
		return nil, AddressesOutput{}, h.mcpError(err)
	}
	return nil, h.addressesOutput(), nil
}

func (h *Handler) mcpDeleteAddress(ctx context.Context, req *mcp.CallToolRequest, input AddressIDInput) (*mcp.CallToolResult, AddressesOutput, error) {
	if input.ID == "" {
		return nil, AddressesOutput{}, fmt.Errorf("id is required")
	}
	if _, err := h.shop.Addresses.Remove(ctx, input.ID); err != nil {
		return nil, AddressesOutput{}, h.mcpError(err)
	}
	return nil, h.addressesOutput(), nil
}

func (h *Handler) mcpSelectAddress(ctx context.Context, req *mcp.CallToolRequest, input AddressIDInput) (*mcp.CallToolResult, AddressesOutput, error) {
	if input.ID != "" && !h.shop.Addresses.Selection().Has(input.ID) {
		return nil, AddressesOutput{}, fmt.Errorf("unknown address id %q", input.ID)
	}
	h.shop.Addresses.Select(input.ID)
	return nil, h.addressesOutput(), nil
}

func (h *Handler) mcpCheckout(ctx context.Context, req *mcp.CallToolRequest, input CheckoutInput) (*mcp.CallToolResult, CheckoutOutput, error) {
	res, err := h.shop.PlaceOrder(ctx, input.AddressID)
	if res == nil {
		return nil, CheckoutOutput{}, h.mcpError(err)
	}
	if err != nil {
		h.logger.WarnContext(ctx, "order placed with follow-up error", slog.String("error", err.Error()))
	}
	return nil, toCheckoutOutput(res), nil
}

func (h *Handler) mcpLogin(ctx context.Context, req *mcp.CallToolRequest, input LoginInput) (*mcp.CallToolResult, SessionOutput, error) {
	if err := h.shop.Login(ctx, input.Username, input.Password); err != nil {
		return nil, SessionOutput{}, h.mcpError(err)
	}
	if _, err := h.shop.Enter(ctx); err != nil {
		h.logger.WarnContext(ctx, "post-login refresh incomplete", slog.String("error", err.Error()))
	}
	return nil, h.sessionOutput(), nil
}

func (h *Handler) mcpLogout(ctx context.Context, req *mcp.CallToolRequest, _ EmptyInput) (*mcp.CallToolResult, SessionOutput, error) {
	if err := h.shop.Logout(); err != nil {
		return nil, SessionOutput{}, h.mcpError(err)
	}
	return nil, h.sessionOutput(), nil
}

// mcpError converts storefront errors to MCP-friendly errors.
func (h *Handler) mcpError(err error) error {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("%s: %s", apiErr.Code, apiErr.Message)
	}
	h.logger.Error("mcp internal error", slog.String("error", err.Error()))
	return fmt.Errorf("internal error")
}

func (h *Handler) addressesOutput() AddressesOutput {
	sel := h.shop.Addresses.Selection()
	return AddressesOutput{Addresses: sel.Addresses, SelectedID: sel.SelectedID}
}

func (h *Handler) sessionOutput() SessionOutput {
	balance, _ := h.shop.Session.Balance()
	return SessionOutput{
		LoggedIn: h.shop.Session.LoggedIn(),
		Username: h.shop.Session.Username(),
		Balance:  balance,
	}
}

func toCartOutput(v *storefront.View) CartOutput {
	items := make([]CartItemOutput, len(v.Items))
	for i, it := range v.Items {
		items[i] = CartItemOutput{
			ProductID: it.ID,
			Name:      it.Name,
			Category:  it.Category,
			Cost:      it.Cost,
			Quantity:  it.Quantity,
			LineTotal: it.LineTotal(),
		}
	}
	addrs := v.Addresses
	if addrs.Addresses == nil {
		addrs.Addresses = []model.Address{}
	}
	return CartOutput{
		Username:  v.Username,
		Balance:   v.Balance,
		Items:     items,
		Missing:   v.Missing,
		Products:  v.Summary.Products,
		Subtotal:  v.Summary.Subtotal,
		Shipping:  v.Summary.Shipping,
		Total:     v.Summary.Total,
		Addresses: addrs,
	}
}

func toCheckoutOutput(res *checkout.Result) CheckoutOutput {
	return CheckoutOutput{AddressID: res.AddressID, Charged: res.Charged, Balance: res.Balance}
}

func nonNilProducts(p []model.Product) []model.Product {
	if p == nil {
		return []model.Product{}
	}
	return p
}
