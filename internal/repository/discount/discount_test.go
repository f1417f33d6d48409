package discount

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"tillpoint/internal/domain"
	"tillpoint/internal/migrate"
	"tillpoint/internal/rules"

	"github.com/jackc/pgx/v5/pgxpool"
)

func TestPostgres_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	repo := NewPostgres(pool)
	limit := 5
	min := int64(5000)
	created, err := repo.Create(ctx, CreateDiscountInput{
		Name:             "Spring promo",
		Type:             domain.DiscountTypePercentage,
		Value:            10,
		Scope:            domain.ScopeAllProducts,
		StartAt:          time.Now().UTC(),
		EndAt:            time.Now().UTC().Add(24 * time.Hour),
		IsActive:         true,
		UsageLimit:       &limit,
		MinPurchaseCents: &min,
		CustomerRule:     &rules.Condition{Field: "loyaltyTier", Op: rules.OpEq, Value: "gold"},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.ID == "" || created.UsageCount != 0 {
		t.Fatalf("unexpected discount %+v", created)
	}

	got, err := repo.GetByID(ctx, created.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Spring promo" || got.Type != domain.DiscountTypePercentage {
		t.Fatalf("unexpected discount %+v", got)
	}
	if got.MinPurchaseCents == nil || *got.MinPurchaseCents != 5000 {
		t.Fatalf("min purchase not round-tripped: %+v", got.MinPurchaseCents)
	}
	if got.CustomerRule == nil || got.CustomerRule.Field != "loyaltyTier" {
		t.Fatalf("customer rule not round-tripped: %+v", got.CustomerRule)
	}
}

func TestPostgres_GetMissing(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	repo := NewPostgres(pool)
	_, err := repo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_IncrementUsageStopsAtLimit(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	repo := NewPostgres(pool)
	limit := 2
	d, err := repo.Create(ctx, CreateDiscountInput{
		Name:       "Two uses only",
		Type:       domain.DiscountTypeFixedAmount,
		Value:      1,
		Scope:      domain.ScopeAllProducts,
		StartAt:    time.Now().UTC(),
		EndAt:      time.Now().UTC().Add(time.Hour),
		IsActive:   true,
		UsageLimit: &limit,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	for want := 1; want <= 2; want++ {
		count, err := repo.IncrementUsage(ctx, d.ID)
		if err != nil {
			t.Fatalf("increment %d: %v", want, err)
		}
		if count != want {
			t.Fatalf("increment %d: count = %d", want, count)
		}
	}
	if _, err := repo.IncrementUsage(ctx, d.ID); !errors.Is(err, domain.ErrUsageLimitExceeded) {
		t.Fatalf("expected ErrUsageLimitExceeded, got %v", err)
	}

	if err := repo.ResetUsage(ctx, d.ID); err != nil {
		t.Fatalf("reset: %v", err)
	}
	count, err := repo.IncrementUsage(ctx, d.ID)
	if err != nil || count != 1 {
		t.Fatalf("increment after reset: count=%d err=%v", count, err)
	}
}

func TestPostgres_IncrementUsageMissing(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	repo := NewPostgres(pool)
	_, err := repo.IncrementUsage(ctx, "00000000-0000-0000-0000-000000000000")
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgres_SetActive(t *testing.T) {
	ctx := context.Background()
	pool := testPool(ctx, t)
	defer pool.Close()

	repo := NewPostgres(pool)
	d, err := repo.Create(ctx, CreateDiscountInput{
		Name:     "Toggle me",
		Type:     domain.DiscountTypePercentage,
		Value:    5,
		Scope:    domain.ScopeAllProducts,
		StartAt:  time.Now().UTC(),
		EndAt:    time.Now().UTC().Add(time.Hour),
		IsActive: true,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.SetActive(ctx, d.ID, false); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	got, err := repo.GetByID(ctx, d.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.IsActive {
		t.Fatal("discount still active after deactivate")
	}

	if err := repo.SetActive(ctx, "00000000-0000-0000-0000-000000000000", true); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func testPool(ctx context.Context, t *testing.T) *pgxpool.Pool {
	t.Helper()
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect db: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("ping db: %v", err)
	}
	if err := migrate.Apply(ctx, pool); err != nil {
		pool.Close()
		t.Fatalf("apply migrations: %v", err)
	}
	if _, err := pool.Exec(ctx, `TRUNCATE discounts CASCADE`); err != nil {
		pool.Close()
		t.Fatalf("truncate: %v", err)
	}
	return pool
}
