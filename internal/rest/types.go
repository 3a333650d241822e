package rest

import "storefront/internal/model"

// Wire shapes of the storefront backend. Field names follow the backend's
// JSON, which differs from the domain types in internal/model.

type wireProduct struct {
	ID       string       `json:"_id"`
	Name     string       `json:"name"`
	Category string       `json:"category"`
	Cost     model.Amount `json:"cost"`
	Rating   model.Amount `json:"rating"`
	Image    string       `json:"image"`
}

type wireCartLine struct {
	ProductID string `json:"productId"`
	Qty       int    `json:"qty"`
}

type wireAddress struct {
	ID      string `json:"_id"`
	Address string `json:"address"`
}

type wireAddAddressRequest struct {
	Address string `json:"address"`
}

type wireCheckoutRequest struct {
	AddressID string `json:"addressId"`
}

type wireCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type wireLoginResponse struct {
	Success  bool         `json:"success"`
	Token    string       `json:"token"`
	Username string       `json:"username"`
	Balance  model.Amount `json:"balance"`
}

// wireStatus is both the checkout/register success body and the error body.
type wireStatus struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
}
