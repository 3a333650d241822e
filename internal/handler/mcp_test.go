package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"storefront/internal/backend"
	"storefront/internal/model"
)

// jsonrpcRequest is a JSON-RPC 2.0 request structure for testing.
type jsonrpcRequest struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id,omitempty"`
	Method  string      `json:"method"`
	Params  interface{} `json:"params,omitempty"`
}

// jsonrpcResponse is a JSON-RPC 2.0 response structure for testing.
type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *jsonrpcError   `json:"error,omitempty"`
}

type jsonrpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// toolCallParams represents the params for tools/call method.
type toolCallParams struct {
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// callToolResult is the expected result structure from a tool call.
type callToolResult struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text,omitempty"`
	} `json:"content"`
	IsError bool `json:"isError,omitempty"`
}

func (r callToolResult) text() string {
	if len(r.Content) == 0 {
		return ""
	}
	return r.Content[0].Text
}

func TestMCPServerCreation(t *testing.T) {
	h, _ := testHandler(t, &backend.Mock{}, 0)
	if h.NewMCPServer() == nil {
		t.Fatal("NewMCPServer returned nil")
	}
	if h.NewMCPHandler() == nil {
		t.Fatal("NewMCPHandler returned nil")
	}
}

func TestMCPInitialize(t *testing.T) {
	_, mux := testHandler(t, &backend.Mock{}, 0)

	resp := postMCP(t, mux, "", jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
		Params:  initializeParams(),
	})

	if resp.Error != nil {
		t.Errorf("Unexpected error: %+v", resp.Error)
	}
	if resp.Result == nil {
		t.Error("Expected result in response")
	}
}

func TestMCPToolsList(t *testing.T) {
	_, mux := testHandler(t, &backend.Mock{}, 0)
	sessionID := initMCPSession(t, mux)

	resp := postMCP(t, mux, sessionID, jsonrpcRequest{JSONRPC: "2.0", ID: 2, Method: "tools/list"})
	if resp.Error != nil {
		t.Fatalf("Unexpected error: %+v", resp.Error)
	}

	var toolsResult struct {
		Tools []struct {
			Name string `json:"name"`
		} `json:"tools"`
	}
	if err := json.Unmarshal(resp.Result, &toolsResult); err != nil {
		t.Fatalf("Failed to parse tools result: %v", err)
	}

	expectedTools := map[string]bool{
		"list_products": false, "search_products": false, "get_cart": false,
		"add_to_cart": false, "update_cart_item": false, "list_addresses": false,
		"add_address": false, "delete_address": false, "select_address": false,
		"checkout": false, "login": false, "logout": false,
	}
	for _, tool := range toolsResult.Tools {
		if _, ok := expectedTools[tool.Name]; ok {
			expectedTools[tool.Name] = true
		}
	}
	for name, found := range expectedTools {
		if !found {
			t.Errorf("Expected tool %q not found in tools list", name)
		}
	}
}

func TestMCPListProducts(t *testing.T) {
	mock := &backend.Mock{
		ListProductsFunc: func(ctx context.Context) ([]model.Product, error) { return testProducts, nil },
	}
	_, mux := testHandler(t, mock, 0)
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "list_products", map[string]interface{}{})
	if result.IsError {
		t.Fatalf("Expected success, got error: %s", result.text())
	}

	var out ProductsOutput
	if err := json.Unmarshal([]byte(result.text()), &out); err != nil {
		t.Fatalf("Failed to parse products: %v", err)
	}
	if len(out.Products) != 2 || out.Products[1].Name != testProducts[1].Name {
		t.Errorf("Products = %+v", out.Products)
	}
}

func TestMCPSearchProducts_Rejected(t *testing.T) {
	mock := &backend.Mock{
		SearchProductsFunc: func(ctx context.Context, text string) ([]model.Product, error) {
			return []model.Product{}, model.NewRejectionError(404, "No products found", nil)
		},
	}
	_, mux := testHandler(t, mock, 0)
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "search_products", map[string]string{"text": "zzz"})
	if result.IsError {
		t.Fatalf("rejected search should not be a tool error: %s", result.text())
	}

	var out SearchOutput
	json.Unmarshal([]byte(result.text()), &out)
	if out.Status != "rejected" || out.Message != "No products found" || len(out.Products) != 0 {
		t.Errorf("out = %+v", out)
	}
}

func TestMCPGetCart(t *testing.T) {
	mock := &backend.Mock{
		ListProductsFunc: func(ctx context.Context) ([]model.Product, error) { return testProducts, nil },
		GetCartFunc: func(ctx context.Context, token string) ([]model.CartLine, error) {
			return []model.CartLine{{ProductID: "p2", Quantity: 3}}, nil
		},
	}
	_, mux := testHandler(t, mock, 5000)
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "get_cart", map[string]interface{}{})
	if result.IsError {
		t.Fatalf("Expected success, got error: %s", result.text())
	}

	var out CartOutput
	if err := json.Unmarshal([]byte(result.text()), &out); err != nil {
		t.Fatalf("Failed to parse cart: %v", err)
	}
	if len(out.Items) != 1 || out.Items[0].LineTotal != 180 {
		t.Errorf("Items = %+v", out.Items)
	}
	if out.Products != 3 || out.Total != 180 || out.Balance != 5000 {
		t.Errorf("out = %+v", out)
	}
}

func TestMCPAddToCart_Duplicate(t *testing.T) {
	mock := &backend.Mock{
		GetCartFunc: func(ctx context.Context, token string) ([]model.CartLine, error) {
			return []model.CartLine{{ProductID: "p1", Quantity: 1}}, nil
		},
		UpsertCartItemFunc: func(ctx context.Context, token string, line model.CartLine) ([]model.CartLine, error) {
			t.Error("duplicate add reached the backend")
			return nil, nil
		},
	}
	h, mux := testHandler(t, mock, 100)
	h.shop.Cart.Load(context.Background())
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "add_to_cart", map[string]interface{}{"product_id": "p1"})
	if !result.IsError {
		t.Fatal("Expected tool error for duplicate item")
	}
	if !strings.Contains(result.text(), model.CodeDuplicateItem) {
		t.Errorf("error text = %q, want %s", result.text(), model.CodeDuplicateItem)
	}
}

func TestMCPUpdateCartItem(t *testing.T) {
	mock := &backend.Mock{
		UpsertCartItemFunc: func(ctx context.Context, token string, line model.CartLine) ([]model.CartLine, error) {
			return []model.CartLine{line}, nil
		},
	}
	_, mux := testHandler(t, mock, 100)
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "update_cart_item", map[string]interface{}{"product_id": "p1", "quantity": 4})
	if result.IsError {
		t.Fatalf("Expected success, got error: %s", result.text())
	}

	result = callTool(t, mux, sessionID, "update_cart_item", map[string]interface{}{"product_id": "p1", "quantity": -1})
	if !result.IsError || !strings.Contains(result.text(), model.CodeInvalidQuantity) {
		t.Errorf("negative quantity result = %+v", result)
	}
}

func TestMCPAddressesAndCheckout(t *testing.T) {
	book := []model.Address{{ID: "a1", Text: "1 Main St"}}
	mock := &backend.Mock{
		ListProductsFunc: func(ctx context.Context) ([]model.Product, error) { return testProducts, nil },
		GetCartFunc: func(ctx context.Context, token string) ([]model.CartLine, error) {
			return []model.CartLine{{ProductID: "p2", Quantity: 1}}, nil
		},
		ListAddressesFunc: func(ctx context.Context, token string) ([]model.Address, error) { return book, nil },
		AddAddressFunc: func(ctx context.Context, token, text string) ([]model.Address, error) {
			book = append(book, model.Address{ID: "a2", Text: text})
			return book, nil
		},
		CheckoutFunc: func(ctx context.Context, token string, req *backend.CheckoutRequest) error {
			if req.AddressID != "a2" {
				t.Errorf("AddressID = %q, want a2", req.AddressID)
			}
			return nil
		},
	}
	h, mux := testHandler(t, mock, 100)
	h.shop.Enter(context.Background())
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "add_address", map[string]string{"address": "2 Side St"})
	var addrs AddressesOutput
	json.Unmarshal([]byte(result.text()), &addrs)
	if len(addrs.Addresses) != 2 {
		t.Fatalf("addresses = %+v", addrs)
	}

	result = callTool(t, mux, sessionID, "select_address", map[string]string{"id": "nope"})
	if !result.IsError {
		t.Error("selecting an unknown address should fail")
	}

	result = callTool(t, mux, sessionID, "checkout", map[string]interface{}{})
	if !result.IsError || !strings.Contains(result.text(), model.CodeNoSelection) {
		t.Errorf("checkout without selection = %+v", result)
	}

	result = callTool(t, mux, sessionID, "select_address", map[string]string{"id": "a2"})
	if result.IsError {
		t.Fatalf("select_address error: %s", result.text())
	}

	result = callTool(t, mux, sessionID, "checkout", map[string]interface{}{})
	if result.IsError {
		t.Fatalf("checkout error: %s", result.text())
	}
	var order CheckoutOutput
	json.Unmarshal([]byte(result.text()), &order)
	if order.Charged != 60 || order.Balance != 40 || order.AddressID != "a2" {
		t.Errorf("order = %+v", order)
	}
}

func TestMCPCheckout_UnknownAddressKeepsSelection(t *testing.T) {
	mock := &backend.Mock{
		ListProductsFunc: func(ctx context.Context) ([]model.Product, error) { return testProducts, nil },
		GetCartFunc: func(ctx context.Context, token string) ([]model.CartLine, error) {
			return []model.CartLine{{ProductID: "p2", Quantity: 1}}, nil
		},
		ListAddressesFunc: func(ctx context.Context, token string) ([]model.Address, error) {
			return []model.Address{{ID: "a1", Text: "1 Main St"}}, nil
		},
		CheckoutFunc: func(ctx context.Context, token string, req *backend.CheckoutRequest) error {
			t.Error("Checkout should not be called")
			return nil
		},
	}
	h, mux := testHandler(t, mock, 100)
	h.shop.Enter(context.Background())
	h.shop.Addresses.Select("a1")
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "checkout", map[string]string{"address_id": "bogus"})
	if !result.IsError || !strings.Contains(result.text(), model.CodeInvalidRequest) {
		t.Errorf("checkout with unknown address = %+v", result)
	}
	if sel := h.shop.Addresses.Selection().SelectedID; sel != "a1" {
		t.Errorf("selected = %q, want a1", sel)
	}
}

func TestMCPAddAddress_BlankText(t *testing.T) {
	var called bool
	mock := &backend.Mock{
		AddAddressFunc: func(ctx context.Context, token, text string) ([]model.Address, error) {
			called = true
			if text != "" {
				t.Errorf("text = %q, want empty", text)
			}
			return []model.Address{{ID: "a1", Text: text}}, nil
		},
	}
	_, mux := testHandler(t, mock, 100)
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "add_address", map[string]string{"address": ""})
	if result.IsError {
		t.Errorf("add_address error: %s", result.text())
	}
	if !called {
		t.Error("backend AddAddress was not called")
	}
}

func TestMCPLoginLogout(t *testing.T) {
	mock := &backend.Mock{
		LoginFunc: func(ctx context.Context, creds *backend.Credentials) (*backend.LoginResult, error) {
			return &backend.LoginResult{Token: "jwt", Username: creds.Username, Balance: 5000}, nil
		},
	}
	_, mux := testHandler(t, mock, 0)
	sessionID := initMCPSession(t, mux)

	result := callTool(t, mux, sessionID, "login", map[string]string{"username": "ab", "password": "learnbydoing"})
	if !result.IsError || !strings.Contains(result.text(), "Username must be at least 6 characters") {
		t.Errorf("short username result = %+v", result)
	}

	result = callTool(t, mux, sessionID, "login", map[string]string{"username": "crio.do", "password": "learnbydoing"})
	var out SessionOutput
	json.Unmarshal([]byte(result.text()), &out)
	if !out.LoggedIn || out.Username != "crio.do" || out.Balance != 5000 {
		t.Errorf("login = %+v", out)
	}

	result = callTool(t, mux, sessionID, "logout", map[string]interface{}{})
	out = SessionOutput{}
	json.Unmarshal([]byte(result.text()), &out)
	if out.LoggedIn || out.Balance != 0 {
		t.Errorf("logout = %+v", out)
	}
}

// callTool invokes a tool and returns its result.
func callTool(t *testing.T, mux *http.ServeMux, sessionID, name string, args interface{}) callToolResult {
	t.Helper()

	raw, _ := json.Marshal(args)
	resp := postMCP(t, mux, sessionID, jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      2,
		Method:  "tools/call",
		Params:  toolCallParams{Name: name, Arguments: raw},
	})

	// Tool errors are returned in the result, not as JSON-RPC errors.
	if resp.Error != nil {
		t.Fatalf("%s: unexpected JSON-RPC error: %+v", name, resp.Error)
	}

	var result callToolResult
	if err := json.Unmarshal(resp.Result, &result); err != nil {
		t.Fatalf("%s: failed to parse result: %v", name, err)
	}
	return result
}

func postMCP(t *testing.T, mux *http.ServeMux, sessionID string, req jsonrpcRequest) jsonrpcResponse {
	t.Helper()

	body, _ := json.Marshal(req)
	httpReq := httptest.NewRequest("POST", "/mcp", bytes.NewReader(body))
	setMCPHeaders(httpReq, sessionID)
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, httpReq)

	if w.Code != http.StatusOK {
		t.Fatalf("Status = %d, want %d\nBody: %s", w.Code, http.StatusOK, w.Body.String())
	}

	jsonData, err := parseSSEResponse(w.Body.String())
	if err != nil {
		t.Fatalf("Failed to parse SSE response: %v", err)
	}

	var resp jsonrpcResponse
	if err := json.Unmarshal(jsonData, &resp); err != nil {
		t.Fatalf("Failed to decode response: %v\nBody: %s", err, string(jsonData))
	}
	return resp
}

func initializeParams() map[string]interface{} {
	return map[string]interface{}{
		"protocolVersion": "2025-06-18",
		"clientInfo":      map[string]string{"name": "test", "version": "1.0"},
		"capabilities":    map[string]interface{}{},
	}
}

// initMCPSession initializes an MCP session and returns the session ID.
func initMCPSession(t *testing.T, mux *http.ServeMux) string {
	t.Helper()

	body, _ := json.Marshal(jsonrpcRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "initialize",
		Params:  initializeParams(),
	})
	httpReq := httptest.NewRequest("POST", "/mcp", bytes.NewReader(body))
	setMCPHeaders(httpReq, "")
	w := httptest.NewRecorder()

	mux.ServeHTTP(w, httpReq)

	if w.Code != http.StatusOK {
		t.Fatalf("Failed to initialize MCP session: %s", w.Body.String())
	}
	sessionID := w.Header().Get("Mcp-Session-Id")

	notify, _ := json.Marshal(jsonrpcRequest{JSONRPC: "2.0", Method: "notifications/initialized"})
	notifyReq := httptest.NewRequest("POST", "/mcp", bytes.NewReader(notify))
	setMCPHeaders(notifyReq, sessionID)
	mux.ServeHTTP(httptest.NewRecorder(), notifyReq)

	return sessionID
}

// setMCPHeaders sets the required headers for MCP Streamable HTTP requests.
func setMCPHeaders(req *http.Request, sessionID string) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json, text/event-stream")
	if sessionID != "" {
		req.Header.Set("Mcp-Session-Id", sessionID)
	}
}

// parseSSEResponse extracts JSON data from SSE formatted response.
// SSE format: "event: message\ndata: {json}\n\n"
func parseSSEResponse(body string) ([]byte, error) {
	for _, line := range strings.Split(body, "\n") {
		if strings.HasPrefix(line, "data: ") {
			return []byte(strings.TrimPrefix(line, "data: ")), nil
		}
	}
	return []byte(body), nil
}
