// Package reconcile joins the server's minimal cart with the product catalog.
// The cart and the catalog come from independent fetches, so a cart line may
// reference a product the catalog snapshot does not (yet) contain. Such lines
// are left out of the enriched view and reported in MergeResult.Missing.
package reconcile

import "storefront/internal/model"

// MergeResult is the enriched cart plus the lines that could not be joined.
type MergeResult struct {
	Items   []model.CartItem // One per joined line, in cart order
	Missing []string         // Product IDs with no catalog match, in cart order
}

// Complete reports whether every cart line found its product.
func (r *MergeResult) Complete() bool {
	return len(r.Missing) == 0
}

// Merge enriches cart lines with catalog attributes.
// Output order follows lines; catalog order is irrelevant.
// The catalog may be a superset, subset or disjoint from the referenced IDs.
func Merge(lines []model.CartLine, catalog []model.Product) *MergeResult {
	byID := make(map[string]model.Product, len(catalog))
	for _, p := range catalog {
		byID[p.ID] = p
	}

	result := &MergeResult{Items: make([]model.CartItem, 0, len(lines))}
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			result.Missing = append(result.Missing, line.ProductID)
			continue
		}
		result.Items = append(result.Items, model.CartItem{
			Product:  product,
			Quantity: line.Quantity,
		})
	}
	return result
}

// TotalValue is Σ cost × quantity over items.
func TotalValue(items []model.CartItem) int64 {
	var total int64
	for _, item := range items {
		total += item.LineTotal()
	}
	return total
}

// TotalItemCount is Σ quantity over items.
func TotalItemCount(items []model.CartItem) int64 {
	var count int64
	for _, item := range items {
		count += int64(item.Quantity)
	}
	return count
}

// Summary is the order summary shown next to the cart.
// Shipping is always free.
type Summary struct {
	Products int64 `json:"products"`
	Subtotal int64 `json:"subtotal"`
	Shipping int64 `json:"shipping"`
	Total    int64 `json:"total"`
}

// Summarize derives the order summary from merged items.
func Summarize(items []model.CartItem) Summary {
	subtotal := TotalValue(items)
	return Summary{
		Products: TotalItemCount(items),
		Subtotal: subtotal,
		Total:    subtotal,
	}
}
