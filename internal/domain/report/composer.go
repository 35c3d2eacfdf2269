package report

import (
	"strconv"
	"strings"

	"github.com/google/uuid"
)

// Compose builds the editable report blocks for an appointment's test
// list. An existing block for a test is kept untouched so entered values
// survive later edits to the format; missing blocks are synthesized from
// the format with empty values. Tests without a format are skipped.
// Output order follows testIDs. Calling Compose on its own output is a
// no-op.
func Compose(testIDs []uuid.UUID, formats map[uuid.UUID]Format, existing []TestReport) []TestReport {
	byTest := make(map[uuid.UUID]TestReport, len(existing))
	for _, block := range existing {
		byTest[block.TestID] = block
	}

	out := make([]TestReport, 0, len(testIDs))
	for _, id := range testIDs {
		if block, ok := byTest[id]; ok {
			out = append(out, block)
			continue
		}
		format, ok := formats[id]
		if !ok {
			continue
		}
		block := TestReport{
			TestID:     id,
			TestName:   format.TestName,
			Parameters: make([]ReportParameter, 0, len(format.Parameters)),
		}
		for _, p := range format.Parameters {
			block.Parameters = append(block.Parameters, ReportParameter{
				Name:  p.Name,
				Unit:  p.Unit,
				Range: p.NormalRange,
			})
		}
		out = append(out, block)
	}
	return out
}

// OutOfRange reports whether a parameter value falls outside its
// reference range. Empty or non-numeric values are never flagged.
//
// Threshold ranges keep the comparison direction the lab's report
// templates have always used: ">10" flags values at or below 10,
// "<10" flags values at or above 10.
func OutOfRange(value, normalRange string) bool {
	v, ok := parseValue(value)
	if !ok {
		return false
	}
	r := strings.TrimSpace(normalRange)
	switch {
	case strings.HasPrefix(r, ">"):
		limit, ok := parseValue(r[1:])
		return ok && v <= limit
	case strings.HasPrefix(r, "<"):
		limit, ok := parseValue(r[1:])
		return ok && v >= limit
	default:
		min, max, ok := parseBounds(r)
		return ok && (v < min || v > max)
	}
}

// Marker returns the flag rendered next to an out-of-range value: "H"
// above the upper bound, "L" otherwise, "" when the value is in range.
// Threshold ranges have no upper bound, so the comparison falls back to
// zero and any flagged positive value renders "H", matching how printed
// reports have always shown it.
func Marker(value, normalRange string) string {
	if !OutOfRange(value, normalRange) {
		return ""
	}
	v, _ := parseValue(value)
	upper := 0.0
	if _, max, ok := parseBounds(strings.TrimSpace(normalRange)); ok {
		upper = max
	}
	if v > upper {
		return "H"
	}
	return "L"
}

func parseValue(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return v, err == nil
}

func parseBounds(r string) (min, max float64, ok bool) {
	parts := strings.SplitN(r, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	min, okMin := parseValue(parts[0])
	max, okMax := parseValue(parts[1])
	return min, max, okMin && okMax
}
