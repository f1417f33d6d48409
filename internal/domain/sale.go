package domain

import "time"

// Sale is a completed transaction as replayed into the central store. ID is
// assigned by the originating terminal so an interrupted sync cannot create
// the sale twice.
type Sale struct {
	ID            string    `json:"id"`
	BranchID      string    `json:"branchId"`
	CustomerID    *string   `json:"customerId,omitempty"`
	TotalCents    int64     `json:"totalCents"`
	DiscountID    *string   `json:"discountId,omitempty"`
	DiscountCents int64     `json:"discountCents"`
	CreatedAt     time.Time `json:"createdAt"`
}
