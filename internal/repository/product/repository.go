package product

import (
	"context"

	"tillpoint/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// CategoriesByIDs resolves product id -> category id for the given ids.
	// Unknown ids are simply absent from the result.
	CategoriesByIDs(ctx context.Context, ids []string) (map[string]string, error)
}
