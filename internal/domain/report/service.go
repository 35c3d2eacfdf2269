package report

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Service provides report format business logic.
type Service struct {
	formats FormatRepository
}

// NewService creates a report service.
func NewService(formats FormatRepository) *Service {
	return &Service{formats: formats}
}

func validateFormat(f *Format) error {
	if f.TestName == "" {
		return fmt.Errorf("test_name is required")
	}
	if len(f.Parameters) == 0 {
		return fmt.Errorf("at least one parameter is required")
	}
	for i, p := range f.Parameters {
		if p.Name == "" {
			return fmt.Errorf("parameter %d: name is required", i)
		}
	}
	return nil
}

func (s *Service) CreateFormat(ctx context.Context, f *Format) error {
	if err := validateFormat(f); err != nil {
		return err
	}
	return s.formats.Create(ctx, f)
}

func (s *Service) GetFormat(ctx context.Context, id uuid.UUID) (*Format, error) {
	return s.formats.GetByID(ctx, id)
}

func (s *Service) ListFormats(ctx context.Context, limit, offset int) ([]Format, int, error) {
	return s.formats.List(ctx, limit, offset)
}

func (s *Service) UpdateFormat(ctx context.Context, f *Format) error {
	if err := validateFormat(f); err != nil {
		return err
	}
	return s.formats.Update(ctx, f)
}

func (s *Service) DeleteFormat(ctx context.Context, id uuid.UUID) error {
	return s.formats.Delete(ctx, id)
}

// FormatsFor returns the formats for the given test IDs keyed by test ID,
// for use with Compose. Unknown IDs are simply absent from the map.
func (s *Service) FormatsFor(ctx context.Context, testIDs []uuid.UUID) (map[uuid.UUID]Format, error) {
	formats, err := s.formats.GetByIDs(ctx, testIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]Format, len(formats))
	for _, f := range formats {
		byID[f.ID] = f
	}
	return byID, nil
}
