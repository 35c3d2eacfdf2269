package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("test not found")

// Repository handles test catalog persistence.
type Repository interface {
	Create(ctx context.Context, t *Test) error
	GetByID(ctx context.Context, id uuid.UUID) (*Test, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Test, error)
	List(ctx context.Context, limit, offset int) ([]Test, int, error)
	Update(ctx context.Context, t *Test) error
	Delete(ctx context.Context, id uuid.UUID) error
}
