package catalog

import (
	"time"

	"github.com/google/uuid"
)

// Test maps to the lab_test table: one orderable test with its price.
type Test struct {
	ID        uuid.UUID `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Cost      float64   `db:"cost" json:"cost"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}
