package billing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/labtrack/labtrack/internal/domain/appointment"
)

type mockRepo struct {
	bills map[uuid.UUID]*Bill
}

func newMockRepo() *mockRepo {
	return &mockRepo{bills: make(map[uuid.UUID]*Bill)}
}

func (m *mockRepo) Create(ctx context.Context, b *Bill) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	for _, existing := range m.bills {
		if existing.AppointmentID == b.AppointmentID {
			return ErrAlreadyBilled
		}
	}
	m.bills[b.ID] = b
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, ok := m.bills[id]
	if !ok {
		return nil, ErrNotFound
	}
	return b, nil
}

func (m *mockRepo) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Bill, error) {
	for _, b := range m.bills {
		if b.AppointmentID == appointmentID {
			return b, nil
		}
	}
	return nil, ErrNotFound
}

func (m *mockRepo) List(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]Bill, int, error) {
	var out []Bill
	for _, b := range m.bills {
		if patientID == nil || b.PatientID == *patientID {
			out = append(out, *b)
		}
	}
	return out, len(out), nil
}

func (m *mockRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status BillStatus) error {
	b, ok := m.bills[id]
	if !ok {
		return ErrNotFound
	}
	b.Status = status
	return nil
}

type stubAppointments struct {
	appts map[uuid.UUID]*appointment.Appointment
}

func (s *stubAppointments) GetByID(ctx context.Context, id uuid.UUID) (*appointment.Appointment, error) {
	a, ok := s.appts[id]
	if !ok {
		return nil, appointment.ErrNotFound
	}
	return a, nil
}

func newBillingFixture() (*Service, *appointment.Appointment) {
	appt := &appointment.Appointment{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		PatientName: "Asha Rao",
		TestIDs:     []uuid.UUID{uuid.New(), uuid.New()},
		TestNames:   []string{"Complete Blood Count", "Lipid Profile"},
		TestCosts:   []float64{350, 500},
		Date:        time.Now(),
		Status:      appointment.StatusSampleCollected,
		TotalCost:   850,
	}
	svc := NewService(
		newMockRepo(),
		&stubAppointments{appts: map[uuid.UUID]*appointment.Appointment{appt.ID: appt}},
	)
	return svc, appt
}

func TestIssue(t *testing.T) {
	svc, appt := newBillingFixture()

	bill, err := svc.Issue(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bill.Amount != 850 {
		t.Errorf("expected amount 850, got %v", bill.Amount)
	}
	if len(bill.Items) != 2 || bill.Items[0].Name != "Complete Blood Count" || bill.Items[0].Price != 350 {
		t.Errorf("unexpected items: %+v", bill.Items)
	}
	if bill.Status != BillStatusIssued {
		t.Errorf("expected Issued, got %q", bill.Status)
	}
	if bill.PatientName != "Asha Rao" || bill.AppointmentID != appt.ID {
		t.Errorf("snapshot fields wrong: %+v", bill)
	}
}

func TestIssue_UsesBookedPrices(t *testing.T) {
	// Booked when the test cost 350; the catalog has since repriced it
	// to 999. The bill must carry the 350 the patient agreed to.
	appt := &appointment.Appointment{
		ID:          uuid.New(),
		PatientID:   uuid.New(),
		PatientName: "Asha Rao",
		TestIDs:     []uuid.UUID{uuid.New()},
		TestNames:   []string{"Complete Blood Count"},
		TestCosts:   []float64{350},
		Date:        time.Now(),
		Status:      appointment.StatusCompleted,
		TotalCost:   350,
	}
	svc := NewService(
		newMockRepo(),
		&stubAppointments{appts: map[uuid.UUID]*appointment.Appointment{appt.ID: appt}},
	)

	bill, err := svc.Issue(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if bill.Amount != 350 {
		t.Errorf("bill amount %v diverges from booked total 350", bill.Amount)
	}
	if len(bill.Items) != 1 || bill.Items[0].Price != 350 {
		t.Errorf("unexpected items: %+v", bill.Items)
	}
}

func TestIssue_OncePerAppointment(t *testing.T) {
	svc, appt := newBillingFixture()
	ctx := context.Background()

	if _, err := svc.Issue(ctx, appt.ID); err != nil {
		t.Fatalf("first issue: %v", err)
	}
	if _, err := svc.Issue(ctx, appt.ID); !errors.Is(err, ErrAlreadyBilled) {
		t.Errorf("expected ErrAlreadyBilled, got %v", err)
	}
}

func TestIssue_RejectsCancelled(t *testing.T) {
	svc, appt := newBillingFixture()
	appt.Status = appointment.StatusCancelled

	if _, err := svc.Issue(context.Background(), appt.ID); err == nil {
		t.Error("expected error for cancelled appointment")
	}
}

func TestMarkPaid(t *testing.T) {
	svc, appt := newBillingFixture()
	ctx := context.Background()

	bill, err := svc.Issue(ctx, appt.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.MarkPaid(ctx, bill.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	paid, err := svc.Get(ctx, bill.ID)
	if err != nil {
		t.Fatal(err)
	}
	if paid.Status != BillStatusPaid {
		t.Errorf("expected Paid, got %q", paid.Status)
	}

	if err := svc.MarkPaid(ctx, uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
