package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/labtrack/labtrack/internal/domain/appointment"
)

// AppointmentSource loads the appointment a bill is issued from.
// Satisfied by appointment.Repository.
type AppointmentSource interface {
	GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error)
}

// Service issues and settles bills. Bills carry the prices the
// appointment was booked at, so catalog edits made after booking never
// change an invoice.
type Service struct {
	repo         Repository
	appointments AppointmentSource
}

func NewService(repo Repository, appointments AppointmentSource) *Service {
	return &Service{repo: repo, appointments: appointments}
}

// Issue creates a bill from the appointment's booking snapshot. One bill
// per appointment; cancelled appointments cannot be billed.
func (s *Service) Issue(ctx context.Context, appointmentID uuid.UUID) (*Bill, error) {
	appt, err := s.appointments.GetByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status == appointment.StatusCancelled {
		return nil, fmt.Errorf("cannot bill a cancelled appointment")
	}
	if _, err := s.repo.GetByAppointment(ctx, appointmentID); err == nil {
		return nil, ErrAlreadyBilled
	}

	bill := &Bill{
		AppointmentID: appt.ID,
		PatientID:     appt.PatientID,
		PatientName:   appt.PatientName,
		BillDate:      time.Now(),
		Amount:        appt.TotalCost,
		Status:        BillStatusIssued,
	}
	for i, name := range appt.TestNames {
		item := BillItem{Name: name}
		if i < len(appt.TestCosts) {
			item.Price = appt.TestCosts[i]
		}
		bill.Items = append(bill.Items, item)
	}

	if err := s.repo.Create(ctx, bill); err != nil {
		return nil, err
	}
	return bill, nil
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Bill, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Bill, error) {
	return s.repo.GetByAppointment(ctx, appointmentID)
}

func (s *Service) List(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]Bill, int, error) {
	return s.repo.List(ctx, patientID, limit, offset)
}

// MarkPaid settles an issued bill.
func (s *Service) MarkPaid(ctx context.Context, id uuid.UUID) error {
	return s.repo.UpdateStatus(ctx, id, BillStatusPaid)
}
