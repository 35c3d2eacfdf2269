package appointment

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrNotFound        = errors.New("appointment not found")
	ErrVersionConflict = errors.New("appointment was modified concurrently, reload and retry")
)

// Filter narrows List results. Nil fields match everything.
type Filter struct {
	PatientID *uuid.UUID
	PhleboID  *uuid.UUID
	Status    *Status
}

// Repository handles appointment persistence. Update is a compare-and-swap
// on Version: it writes only when the stored version still matches
// appt.Version, then increments it.
type Repository interface {
	Create(ctx context.Context, appt *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	List(ctx context.Context, f Filter, limit, offset int) ([]Appointment, int, error)
	Update(ctx context.Context, appt *Appointment) error
}
