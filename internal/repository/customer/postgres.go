package customer

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

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	var c domain.Customer
	err := r.pool.QueryRow(ctx, `
SELECT id::text, email, coalesce(first_name, ''), coalesce(last_name, ''),
       coalesce(loyalty_tier, ''), total_spent_cents, visit_count, created_at
FROM customers
WHERE id = $1
`, id).Scan(
		&c.ID, &c.Email, &c.FirstName, &c.LastName,
		&c.LoyaltyTier, &c.TotalSpentCents, &c.VisitCount, &c.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}
