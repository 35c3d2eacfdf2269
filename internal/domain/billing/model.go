package billing

import (
	"time"

	"github.com/google/uuid"
)

// BillStatus is the payment state of an issued bill.
type BillStatus string

const (
	BillStatusIssued BillStatus = "Issued"
	BillStatusPaid   BillStatus = "Paid"
)

// BillItem is one line of a bill, carrying the booked price.
type BillItem struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// Bill maps to the bill table. Items and Amount copy the appointment's
// booking snapshot, not current catalog prices.
type Bill struct {
	ID            uuid.UUID  `db:"id" json:"id"`
	AppointmentID uuid.UUID  `db:"appointment_id" json:"appointmentId"`
	PatientID     uuid.UUID  `db:"patient_id" json:"patientId"`
	PatientName   string     `db:"patient_name" json:"patientName"`
	BillDate      time.Time  `db:"bill_date" json:"billDate"`
	Amount        float64    `db:"amount" json:"amount"`
	Items         []BillItem `db:"items" json:"items"`
	Status        BillStatus `db:"status" json:"status"`
	CreatedAt     time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt     time.Time  `db:"updated_at" json:"updatedAt"`
}
