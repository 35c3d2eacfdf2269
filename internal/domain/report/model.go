package report

import (
	"time"

	"github.com/google/uuid"
)

// ReportParameter is one measured row inside a test's report block.
// Value is kept as entered; range checks parse it at display time.
type ReportParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
	Unit  string `json:"unit"`
	Range string `json:"range"`
}

// TestReport is the captured result block for a single test on an
// appointment. Once captured, it is never rebuilt from the format.
type TestReport struct {
	TestID     uuid.UUID         `json:"testId"`
	TestName   string            `json:"testName"`
	Parameters []ReportParameter `json:"parameters"`
}

// FormatParameter describes one row of a report template.
type FormatParameter struct {
	Name        string `json:"name"`
	Unit        string `json:"unit"`
	NormalRange string `json:"normalRange"`
}

// Format maps to the report_format table. Its ID equals the catalog
// test ID it templates.
type Format struct {
	ID         uuid.UUID         `db:"id" json:"id"`
	TestName   string            `db:"test_name" json:"testName"`
	Parameters []FormatParameter `db:"parameters" json:"parameters"`
	CreatedAt  time.Time         `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time         `db:"updated_at" json:"updatedAt"`
}
