// Package seed loads a small demo dataset: two branches, a handful of
// products and customers, and a few representative discount rules.
package seed

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

func Run(ctx context.Context, pool *pgxpool.Pool, logger *log.Logger) error {
	var existing int
	if err := pool.QueryRow(ctx, `SELECT count(*) FROM branches`).Scan(&existing); err != nil {
		return fmt.Errorf("count branches: %w", err)
	}
	if existing > 0 {
		logger.Printf("seed skipped: %d branches already present", existing)
		return nil
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	var downtown, airport string
	if err := tx.QueryRow(ctx, `INSERT INTO branches (name) VALUES ('Downtown') RETURNING id::text`).Scan(&downtown); err != nil {
		return fmt.Errorf("insert branch: %w", err)
	}
	if err := tx.QueryRow(ctx, `INSERT INTO branches (name) VALUES ('Airport') RETURNING id::text`).Scan(&airport); err != nil {
		return fmt.Errorf("insert branch: %w", err)
	}

	var drinks, snacks string
	if err := tx.QueryRow(ctx, `INSERT INTO categories (name) VALUES ('Drinks') RETURNING id::text`).Scan(&drinks); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	if err := tx.QueryRow(ctx, `INSERT INTO categories (name) VALUES ('Snacks') RETURNING id::text`).Scan(&snacks); err != nil {
		return fmt.Errorf("insert category: %w", err)
	}

	var cola string
	if err := tx.QueryRow(ctx, `
INSERT INTO products (sku, name, category_id, price_cents)
VALUES ('DRK-001', 'Cola 330ml', $1, 250)
RETURNING id::text
`, drinks).Scan(&cola); err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO products (sku, name, category_id, price_cents)
VALUES
    ('DRK-002', 'Orange Juice 1L', $1, 450),
    ('SNK-001', 'Salted Peanuts', $2, 320),
    ('SNK-002', 'Dark Chocolate Bar', $2, 380)
`, drinks, snacks); err != nil {
		return fmt.Errorf("insert products: %w", err)
	}

	if _, err := tx.Exec(ctx, `
INSERT INTO customers (email, first_name, last_name, loyalty_tier, total_spent_cents, visit_count)
VALUES
    ('gold@example.com', 'Grace', 'Goldman', 'gold', 420000, 37),
    ('new@example.com', 'Nina', 'Newton', '', 1200, 1)
`); err != nil {
		return fmt.Errorf("insert customers: %w", err)
	}

	now := time.Now().UTC()
	monthOut := now.AddDate(0, 1, 0)
	if _, err := tx.Exec(ctx, `
INSERT INTO discounts (name, dtype, value, scope, start_at, end_at, is_active, min_purchase_cents)
VALUES ('10% off over $50', 'percentage', 10, 'all_products', $1, $2, true, 5000)
`, now, monthOut); err != nil {
		return fmt.Errorf("insert discount: %w", err)
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO discounts (name, dtype, value, scope, category_ids, start_at, end_at, is_active, max_discount_cents)
VALUES ('Drinks happy hour', 'percentage', 25, 'category', $1, $2, $3, true, 1000)
`, []string{drinks}, now, monthOut); err != nil {
		return fmt.Errorf("insert discount: %w", err)
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO discounts (name, dtype, value, scope, product_ids, branch_ids, start_at, end_at, is_active, usage_limit)
VALUES ('Cola launch deal', 'fixed_amount', 1, 'specific_products', $1, $2, $3, $4, true, 100)
`, []string{cola}, []string{downtown}, now, monthOut); err != nil {
		return fmt.Errorf("insert discount: %w", err)
	}
	if _, err := tx.Exec(ctx, `
INSERT INTO discounts (name, dtype, value, scope, start_at, end_at, is_active, customer_rule)
VALUES ('Gold member 15%', 'percentage', 15, 'all_products', $1, $2, true,
        '{"field":"loyaltyTier","op":"eq","value":"gold"}'::jsonb)
`, now, monthOut); err != nil {
		return fmt.Errorf("insert discount: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return err
	}
	logger.Printf("seeded branches %s and %s with demo catalog and discounts", downtown, airport)
	return nil
}
