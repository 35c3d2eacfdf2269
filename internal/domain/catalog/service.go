package catalog

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/labtrack/labtrack/internal/domain/appointment"
)

// Service provides test catalog business logic. It also backs the
// appointment engine's booking-time test resolution.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validateTest(t *Test) error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if t.Cost < 0 {
		return fmt.Errorf("cost must not be negative")
	}
	return nil
}

func (s *Service) Create(ctx context.Context, t *Test) error {
	if err := validateTest(t); err != nil {
		return err
	}
	return s.repo.Create(ctx, t)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Test, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Test, int, error) {
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) Update(ctx context.Context, t *Test) error {
	if err := validateTest(t); err != nil {
		return err
	}
	return s.repo.Update(ctx, t)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Tests implements appointment.CatalogSource.
func (s *Service) Tests(ctx context.Context, ids []uuid.UUID) ([]appointment.TestInfo, error) {
	tests, err := s.repo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	infos := make([]appointment.TestInfo, 0, len(tests))
	for _, t := range tests {
		infos = append(infos, appointment.TestInfo{ID: t.ID, Name: t.Name, Cost: t.Cost})
	}
	return infos, nil
}
