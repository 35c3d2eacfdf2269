package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/labtrack/labtrack/internal/domain/appointment"
	"github.com/labtrack/labtrack/internal/platform/auth"
)

var validRoles = map[string]bool{
	auth.RolePatient: true,
	auth.RolePhlebo:  true,
	auth.RoleStaff:   true,
	auth.RoleAdmin:   true,
}

// Service provides user directory business logic. It also backs the
// appointment engine's phlebotomist resolution and the notification
// fan-out's role lookups.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func validateUser(u *User) error {
	if u.Name == "" {
		return fmt.Errorf("name is required")
	}
	if u.Email == "" || !strings.Contains(u.Email, "@") {
		return fmt.Errorf("a valid email is required")
	}
	if !validRoles[u.Role] {
		return fmt.Errorf("invalid role %q", u.Role)
	}
	return nil
}

func (s *Service) Create(ctx context.Context, u *User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	return s.repo.Create(ctx, u)
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByEmail(ctx context.Context, email string) (*User, error) {
	return s.repo.GetByEmail(ctx, email)
}

func (s *Service) List(ctx context.Context, role string, limit, offset int) ([]User, int, error) {
	if role != "" && !validRoles[role] {
		return nil, 0, fmt.Errorf("invalid role %q", role)
	}
	return s.repo.List(ctx, role, limit, offset)
}

func (s *Service) Update(ctx context.Context, u *User) error {
	if err := validateUser(u); err != nil {
		return err
	}
	return s.repo.Update(ctx, u)
}

func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	return s.repo.Delete(ctx, id)
}

// Phlebo implements appointment.PhleboDirectory. Only users holding the
// phlebo role resolve into a binding.
func (s *Service) Phlebo(ctx context.Context, id uuid.UUID) (appointment.Binding, error) {
	u, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return appointment.Binding{}, err
	}
	if u.Role != auth.RolePhlebo {
		return appointment.Binding{}, fmt.Errorf("user %s is not a phlebotomist", id)
	}
	return appointment.Binding{ID: u.ID, Name: u.Name}, nil
}

// UserIDsByRole implements notification.Directory.
func (s *Service) UserIDsByRole(ctx context.Context, role string) ([]uuid.UUID, error) {
	return s.repo.IDsByRole(ctx, role)
}
