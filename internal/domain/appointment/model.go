package appointment

import (
	"time"

	"github.com/google/uuid"

	"github.com/labtrack/labtrack/internal/domain/report"
)

// Status is an appointment's position in the collection-to-report flow.
type Status string

const (
	StatusPending         Status = "Pending"
	StatusConfirmed       Status = "Confirmed"
	StatusSampleCollected Status = "Sample Collected"
	StatusReceived        Status = "Received"
	StatusInProcess       Status = "In Process"
	// StatusReporting exists in stored data from older records; no action
	// produces it anymore but it still orders between In Process and
	// Report Uploaded.
	StatusReporting      Status = "Reporting"
	StatusReportUploaded Status = "Report Uploaded"
	StatusCompleted      Status = "Completed"
	StatusCancelled      Status = "Cancelled"
)

// statusOrder positions each active status along the progression.
// Cancelled sits outside the ordering.
var statusOrder = map[Status]int{
	StatusPending:         0,
	StatusConfirmed:       1,
	StatusSampleCollected: 2,
	StatusReceived:        3,
	StatusInProcess:       4,
	StatusReporting:       5,
	StatusReportUploaded:  6,
	StatusCompleted:       7,
}

// Progress returns the percentage shown on the patient's tracker.
func (s Status) Progress() int {
	switch s {
	case StatusConfirmed:
		return 20
	case StatusSampleCollected:
		return 40
	case StatusReceived:
		return 60
	case StatusInProcess, StatusReporting:
		return 80
	case StatusReportUploaded, StatusCompleted:
		return 100
	default:
		return 0
	}
}

// atLeast reports whether s has reached the given point in the
// progression. Cancelled never qualifies.
func (s Status) atLeast(min Status) bool {
	a, ok := statusOrder[s]
	if !ok {
		return false
	}
	return a >= statusOrder[min]
}

// finalized reports whether report side effects have already fired.
func (s Status) finalized() bool {
	return s == StatusCompleted || s == StatusReportUploaded
}

// Appointment maps to the appointment table. PhleboID and PhleboName are
// always set or cleared together in the same write. TestNames, TestCosts,
// and TotalCost are snapshots taken at booking and never recomputed, so
// later catalog edits do not change what the patient agreed to pay.
type Appointment struct {
	ID                uuid.UUID           `db:"id" json:"id"`
	PatientID         uuid.UUID           `db:"patient_id" json:"patientId"`
	PatientName       string              `db:"patient_name" json:"patientName"`
	TestIDs           []uuid.UUID         `db:"test_ids" json:"testIds"`
	TestNames         []string            `db:"test_names" json:"testNames"`
	TestCosts         []float64           `db:"test_costs" json:"testCosts"`
	Date              time.Time           `db:"date" json:"date"`
	Status            Status              `db:"status" json:"status"`
	PhleboID          *uuid.UUID          `db:"phlebo_id" json:"phleboId,omitempty"`
	PhleboName        *string             `db:"phlebo_name" json:"phleboName,omitempty"`
	Address           string              `db:"address" json:"address"`
	Description       string              `db:"description" json:"description,omitempty"`
	TotalCost         float64             `db:"total_cost" json:"totalCost"`
	Notes             string              `db:"notes" json:"notes,omitempty"`
	ReportData        []report.TestReport `db:"report_data" json:"reportData,omitempty"`
	FeedbackSubmitted bool                `db:"feedback_submitted" json:"feedbackSubmitted"`
	Version           int                 `db:"version" json:"version"`
	CreatedAt         time.Time           `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time           `db:"updated_at" json:"updatedAt"`
}

// Assigned reports whether a phlebotomist is currently bound.
func (a *Appointment) Assigned() bool {
	return a.PhleboID != nil && a.PhleboName != nil && *a.PhleboName != ""
}

// Binding is a resolved phlebotomist identity applied to an appointment.
type Binding struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}
