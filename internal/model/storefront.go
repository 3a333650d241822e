// Package model defines the storefront domain types and error taxonomy.
package model

// Product is a catalog entry. Cost is in whole currency units.
type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Cost     int64  `json:"cost"`
	Rating   int    `json:"rating"`
	ImageURL string `json:"image_url"`
}

// CartLine is one row of the server-side cart.
type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartItem is a cart line joined with its catalog product.
type CartItem struct {
	Product
	Quantity int `json:"quantity"`
}

// LineTotal is cost times quantity.
func (i CartItem) LineTotal() int64 {
	return i.Cost * int64(i.Quantity)
}

// Address is a saved shipping address; Text is free-form.
type Address struct {
	ID   string `json:"id"`
	Text string `json:"address"`
}

// AddressSelection is the address list plus the selected id.
// SelectedID is empty or references an entry of Addresses.
type AddressSelection struct {
	Addresses  []Address `json:"addresses"`
	SelectedID string    `json:"selected_id,omitempty"`
}

// Has reports whether id is one of the listed addresses.
func (s AddressSelection) Has(id string) bool {
	for _, a := range s.Addresses {
		if a.ID == id {
			return true
		}
	}
	return false
}
