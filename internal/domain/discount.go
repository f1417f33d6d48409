package domain

import (
	"time"

	"tillpoint/internal/rules"
)

type DiscountType string

const (
	DiscountTypePercentage  DiscountType = "percentage"
	DiscountTypeFixedAmount DiscountType = "fixed_amount"
)

type DiscountScope string

const (
	ScopeAllProducts      DiscountScope = "all_products"
	ScopeCategory         DiscountScope = "category"
	ScopeSpecificProducts DiscountScope = "specific_products"
)

// Discount is a pricing rule. Value is a 0-100 percentage for percentage
// discounts and a currency amount (units, not cents) for fixed_amount ones.
// An empty BranchIDs slice means the rule applies at every branch.
type Discount struct {
	ID               string           `json:"id"`
	Name             string           `json:"name"`
	Type             DiscountType     `json:"type"`
	Value            float64          `json:"value"`
	Scope            DiscountScope    `json:"scope"`
	CategoryIDs      []string         `json:"categoryIds,omitempty"`
	ProductIDs       []string         `json:"productIds,omitempty"`
	BranchIDs        []string         `json:"branchIds,omitempty"`
	StartAt          time.Time        `json:"startAt"`
	EndAt            time.Time        `json:"endAt"`
	IsActive         bool             `json:"isActive"`
	UsageLimit       *int             `json:"usageLimit,omitempty"`
	UsageCount       int              `json:"usageCount"`
	MinPurchaseCents *int64           `json:"minPurchaseCents,omitempty"`
	MaxDiscountCents *int64           `json:"maxDiscountCents,omitempty"`
	CustomerRule     *rules.Condition `json:"customerRule,omitempty"`
	CreatedAt        time.Time        `json:"createdAt"`
}

// AppliesAtBranch reports whether the rule is unrestricted or lists branchID.
func (d Discount) AppliesAtBranch(branchID string) bool {
	if len(d.BranchIDs) == 0 {
		return true
	}
	for _, id := range d.BranchIDs {
		if id == branchID {
			return true
		}
	}
	return false
}

// CurrentAt reports whether the rule is active and now falls inside its window.
func (d Discount) CurrentAt(now time.Time) bool {
	return d.IsActive && !now.Before(d.StartAt) && !now.After(d.EndAt)
}

// UsageExhausted reports whether a usage limit is set and already reached.
func (d Discount) UsageExhausted() bool {
	return d.UsageLimit != nil && d.UsageCount >= *d.UsageLimit
}
