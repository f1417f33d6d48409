package discount

import (
	"context"
	"time"

	"tillpoint/internal/domain"
	"tillpoint/internal/rules"
)

type CreateDiscountInput struct {
	Name             string
	Type             domain.DiscountType
	Value            float64
	Scope            domain.DiscountScope
	CategoryIDs      []string
	ProductIDs       []string
	BranchIDs        []string
	StartAt          time.Time
	EndAt            time.Time
	IsActive         bool
	UsageLimit       *int
	MinPurchaseCents *int64
	MaxDiscountCents *int64
	CustomerRule     *rules.Condition
}

type Repository interface {
	List(ctx context.Context) ([]domain.Discount, error)
	GetByID(ctx context.Context, id string) (*domain.Discount, error)
	Create(ctx context.Context, in CreateDiscountInput) (*domain.Discount, error)
	SetActive(ctx context.Context, id string, active bool) error
	// IncrementUsage bumps usage_count by one as a single conditional update
	// and returns the new count. It fails with domain.ErrUsageLimitExceeded
	// when the limit is already reached, so two terminals can never both
	// redeem the last use of a capped discount.
	IncrementUsage(ctx context.Context, id string) (int, error)
	ResetUsage(ctx context.Context, id string) error
}
