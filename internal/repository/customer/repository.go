package customer

import (
	"context"

	"tillpoint/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}
