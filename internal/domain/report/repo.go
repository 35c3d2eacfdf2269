package report

import (
	"context"

	"github.com/google/uuid"
)

// FormatRepository handles report format persistence.
type FormatRepository interface {
	Create(ctx context.Context, f *Format) error
	GetByID(ctx context.Context, id uuid.UUID) (*Format, error)
	GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Format, error)
	List(ctx context.Context, limit, offset int) ([]Format, int, error)
	Update(ctx context.Context, f *Format) error
	Delete(ctx context.Context, id uuid.UUID) error
}
