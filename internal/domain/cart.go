package domain

// Cart is the ephemeral checkout context a terminal submits for pricing.
// SubtotalCents is computed by the caller over all lines; the engine only
// recomputes a scoped subtotal when a discount is restricted to part of the
// cart.
type Cart struct {
	Lines         []CartLine `json:"lineItems"`
	SubtotalCents int64      `json:"subtotalCents"`
	CustomerID    *string    `json:"customerId,omitempty"`
}

type CartLine struct {
	ProductID      string `json:"productId"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int64  `json:"unitPriceCents"`
}

func (l CartLine) TotalCents() int64 {
	return int64(l.Quantity) * l.UnitPriceCents
}
