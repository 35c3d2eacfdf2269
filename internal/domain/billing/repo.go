package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound      = errors.New("bill not found")
	ErrAlreadyBilled = errors.New("appointment already has a bill")
)

// Repository handles bill persistence.
type Repository interface {
	Create(ctx context.Context, b *Bill) error
	GetByID(ctx context.Context, id uuid.UUID) (*Bill, error)
	GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Bill, error)
	List(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]Bill, int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status BillStatus) error
}
