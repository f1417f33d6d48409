// Package remote adapts the central postgres store for the sync queue: it
// replays queued mutations and answers connectivity probes.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"tillpoint/internal/syncqueue"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Replayer applies queued terminal mutations to postgres. Every payload
// carries a client-assigned id and writes are upserts keyed on it, so
// replaying a record twice (crash between remote write and local synced
// mark) is a no-op.
type Replayer struct {
	pool *pgxpool.Pool
}

func NewReplayer(pool *pgxpool.Pool) *Replayer {
	return &Replayer{pool: pool}
}

func (r *Replayer) Replay(ctx context.Context, rec syncqueue.Record) error {
	switch rec.EntityType {
	case "product":
		return r.replayProduct(ctx, rec)
	case "customer":
		return r.replayCustomer(ctx, rec)
	case "sale":
		return r.replaySale(ctx, rec)
	default:
		return fmt.Errorf("unknown entity type %q", rec.EntityType)
	}
}

type productPayload struct {
	ID         string `json:"id"`
	SKU        string `json:"sku"`
	Name       string `json:"name"`
	CategoryID string `json:"categoryId"`
	PriceCents int64  `json:"priceCents"`
	Currency   string `json:"currency"`
}

func (r *Replayer) replayProduct(ctx context.Context, rec syncqueue.Record) error {
	if rec.Op == syncqueue.OpDelete {
		return r.deleteByID(ctx, "products", rec.Payload)
	}
	var p productPayload
	if err := json.Unmarshal(rec.Payload, &p); err != nil {
		return fmt.Errorf("decode product payload: %w", err)
	}
	if p.ID == "" {
		return fmt.Errorf("product payload missing id")
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO products (id, sku, name, category_id, price_cents, currency)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (id) DO UPDATE
SET sku = EXCLUDED.sku,
    name = EXCLUDED.name,
    category_id = EXCLUDED.category_id,
    price_cents = EXCLUDED.price_cents,
    currency = EXCLUDED.currency
`, p.ID, p.SKU, p.Name, p.CategoryID, p.PriceCents, p.Currency)
	return err
}

type customerPayload struct {
	ID              string `json:"id"`
	Email           string `json:"email"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	LoyaltyTier     string `json:"loyaltyTier"`
	TotalSpentCents int64  `json:"totalSpentCents"`
	VisitCount      int    `json:"visitCount"`
}

func (r *Replayer) replayCustomer(ctx context.Context, rec syncqueue.Record) error {
	if rec.Op == syncqueue.OpDelete {
		return r.deleteByID(ctx, "customers", rec.Payload)
	}
	var c customerPayload
	if err := json.Unmarshal(rec.Payload, &c); err != nil {
		return fmt.Errorf("decode customer payload: %w", err)
	}
	if c.ID == "" {
		return fmt.Errorf("customer payload missing id")
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO customers (id, email, first_name, last_name, loyalty_tier, total_spent_cents, visit_count)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE
SET email = EXCLUDED.email,
    first_name = EXCLUDED.first_name,
    last_name = EXCLUDED.last_name,
    loyalty_tier = EXCLUDED.loyalty_tier,
    total_spent_cents = EXCLUDED.total_spent_cents,
    visit_count = EXCLUDED.visit_count
`, c.ID, c.Email, c.FirstName, c.LastName, c.LoyaltyTier, c.TotalSpentCents, c.VisitCount)
	return err
}

type salePayload struct {
	ID            string    `json:"id"`
	BranchID      string    `json:"branchId"`
	CustomerID    *string   `json:"customerId,omitempty"`
	TotalCents    int64     `json:"totalCents"`
	DiscountID    *string   `json:"discountId,omitempty"`
	DiscountCents int64     `json:"discountCents"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Sales are immutable once written; a replayed create is dropped by the
// conflict clause instead of updating anything.
func (r *Replayer) replaySale(ctx context.Context, rec syncqueue.Record) error {
	if rec.Op == syncqueue.OpDelete {
		return fmt.Errorf("sales cannot be deleted")
	}
	var s salePayload
	if err := json.Unmarshal(rec.Payload, &s); err != nil {
		return fmt.Errorf("decode sale payload: %w", err)
	}
	if s.ID == "" {
		return fmt.Errorf("sale payload missing id")
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = rec.CreatedAt
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO sales (id, branch_id, customer_id, total_cents, discount_id, discount_cents, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO NOTHING
`, s.ID, s.BranchID, s.CustomerID, s.TotalCents, s.DiscountID, s.DiscountCents, s.CreatedAt)
	return err
}

type idPayload struct {
	ID string `json:"id"`
}

func (r *Replayer) deleteByID(ctx context.Context, table string, payload []byte) error {
	var p idPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return fmt.Errorf("decode delete payload: %w", err)
	}
	if p.ID == "" {
		return fmt.Errorf("delete payload missing id")
	}
	// Deleting an already-deleted row is a successful replay.
	_, err := r.pool.Exec(ctx, `DELETE FROM `+table+` WHERE id = $1`, p.ID)
	return err
}
