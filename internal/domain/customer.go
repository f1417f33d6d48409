package domain

import (
	"time"

	"tillpoint/internal/rules"
)

type Customer struct {
	ID              string    `json:"id"`
	Email           string    `json:"email"`
	FirstName       string    `json:"firstName,omitempty"`
	LastName        string    `json:"lastName,omitempty"`
	LoyaltyTier     string    `json:"loyaltyTier,omitempty"`
	TotalSpentCents int64     `json:"totalSpentCents"`
	VisitCount      int       `json:"visitCount"`
	CreatedAt       time.Time `json:"createdAt"`
}

// RuleRecord is the flat view discount eligibility conditions evaluate
// against.
func (c Customer) RuleRecord() rules.Record {
	return rules.Record{
		"loyaltyTier":     c.LoyaltyTier,
		"totalSpentCents": float64(c.TotalSpentCents),
		"visits":          float64(c.VisitCount),
	}
}
