package product

import (
	"context"
	"errors"

	"tillpoint/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type postgresRepo struct {
	pool *pgxpool.Pool
}

func NewPostgres(pool *pgxpool.Pool) Repository {
	return &postgresRepo{pool: pool}
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	err := r.pool.QueryRow(ctx, `
SELECT id::text, sku, name, category_id::text, price_cents, currency, created_at
FROM products
WHERE id = $1
`, id).Scan(&p.ID, &p.SKU, &p.Name, &p.CategoryID, &p.PriceCents, &p.Currency, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) CategoriesByIDs(ctx context.Context, ids []string) (map[string]string, error) {
	if len(ids) == 0 {
		return map[string]string{}, nil
	}
	rows, err := r.pool.Query(ctx, `
SELECT id::text, category_id::text
FROM products
WHERE id = ANY($1)
`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := make(map[string]string, len(ids))
	for rows.Next() {
		var id, categoryID string
		if err := rows.Scan(&id, &categoryID); err != nil {
			return nil, err
		}
		categories[id] = categoryID
	}
	return categories, rows.Err()
}
