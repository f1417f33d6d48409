package discount

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tillpoint/internal/domain"
	"tillpoint/internal/rules"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

const discountColumns = `
id::text, name, dtype, value, scope,
coalesce(category_ids, '{}'), coalesce(product_ids, '{}'), coalesce(branch_ids, '{}'),
start_at, end_at, is_active, usage_limit, usage_count,
min_purchase_cents, max_discount_cents, customer_rule, created_at
`

func (r *postgresRepo) List(ctx context.Context) ([]domain.Discount, error) {
	rows, err := r.pool.Query(ctx, `
SELECT `+discountColumns+`
FROM discounts
ORDER BY created_at, id
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var discounts []domain.Discount
	for rows.Next() {
		d, err := scanDiscount(rows)
		if err != nil {
			return nil, err
		}
		discounts = append(discounts, *d)
	}
	return discounts, rows.Err()
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Discount, error) {
	row := r.pool.QueryRow(ctx, `
SELECT `+discountColumns+`
FROM discounts
WHERE id = $1
`, id)
	d, err := scanDiscount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return d, nil
}

func (r *postgresRepo) Create(ctx context.Context, in CreateDiscountInput) (*domain.Discount, error) {
	var ruleJSON []byte
	if in.CustomerRule != nil {
		var err error
		ruleJSON, err = json.Marshal(in.CustomerRule)
		if err != nil {
			return nil, fmt.Errorf("encode customer rule: %w", err)
		}
	}

	row := r.pool.QueryRow(ctx, `
INSERT INTO discounts (
    name, dtype, value, scope, category_ids, product_ids, branch_ids,
    start_at, end_at, is_active, usage_limit, min_purchase_cents,
    max_discount_cents, customer_rule
)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING `+discountColumns+`
`,
		in.Name, string(in.Type), in.Value, string(in.Scope),
		in.CategoryIDs, in.ProductIDs, in.BranchIDs,
		in.StartAt, in.EndAt, in.IsActive, in.UsageLimit,
		in.MinPurchaseCents, in.MaxDiscountCents, ruleJSON,
	)
	return scanDiscount(row)
}

func (r *postgresRepo) SetActive(ctx context.Context, id string, active bool) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE discounts
SET is_active = $1
WHERE id = $2
`, active, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *postgresRepo) IncrementUsage(ctx context.Context, id string) (int, error) {
	var newCount int
	err := r.pool.QueryRow(ctx, `
UPDATE discounts
SET usage_count = usage_count + 1
WHERE id = $1
  AND (usage_limit IS NULL OR usage_count < usage_limit)
RETURNING usage_count
`, id).Scan(&newCount)
	if err == nil {
		return newCount, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, err
	}

	// No row matched: either the id is unknown or the limit was reached.
	var exists bool
	if err := r.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM discounts WHERE id = $1)`, id).Scan(&exists); err != nil {
		return 0, err
	}
	if !exists {
		return 0, domain.ErrNotFound
	}
	return 0, domain.ErrUsageLimitExceeded
}

func (r *postgresRepo) ResetUsage(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `
UPDATE discounts
SET usage_count = 0
WHERE id = $1
`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanDiscount(row pgx.Row) (*domain.Discount, error) {
	var (
		d        domain.Discount
		dtype    string
		scope    string
		ruleJSON []byte
	)
	if err := row.Scan(
		&d.ID,
		&d.Name,
		&dtype,
		&d.Value,
		&scope,
		&d.CategoryIDs,
		&d.ProductIDs,
		&d.BranchIDs,
		&d.StartAt,
		&d.EndAt,
		&d.IsActive,
		&d.UsageLimit,
		&d.UsageCount,
		&d.MinPurchaseCents,
		&d.MaxDiscountCents,
		&ruleJSON,
		&d.CreatedAt,
	); err != nil {
		return nil, err
	}
	d.Type = domain.DiscountType(dtype)
	d.Scope = domain.DiscountScope(scope)
	if len(ruleJSON) > 0 {
		var cond rules.Condition
		if err := json.Unmarshal(ruleJSON, &cond); err != nil {
			return nil, fmt.Errorf("decode customer rule for discount %s: %w", d.ID, err)
		}
		d.CustomerRule = &cond
	}
	return &d, nil
}
