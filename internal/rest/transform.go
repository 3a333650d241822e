package rest

import "storefront/internal/model"

func productsFromWire(in []wireProduct) []model.Product {
	out := make([]model.Product, 0, len(in))
	for _, p := range in {
		out = append(out, model.Product{
			ID:       p.ID,
			Name:     p.Name,
			Category: p.Category,
			Cost:     int64(p.Cost),
			Rating:   int(p.Rating),
			ImageURL: p.Image,
		})
	}
	return out
}

func cartLinesFromWire(in []wireCartLine) []model.CartLine {
	out := make([]model.CartLine, 0, len(in))
	for _, l := range in {
		out = append(out, model.CartLine{ProductID: l.ProductID, Quantity: l.Qty})
	}
	return out
}

func cartLineToWire(l model.CartLine) wireCartLine {
	return wireCartLine{ProductID: l.ProductID, Qty: l.Quantity}
}

func addressesFromWire(in []wireAddress) []model.Address {
	out := make([]model.Address, 0, len(in))
	for _, a := range in {
		out = append(out, model.Address{ID: a.ID, Text: a.Address})
	}
	return out
}
