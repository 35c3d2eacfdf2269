package report

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
)

type mockFormatRepo struct {
	formats map[uuid.UUID]*Format
}

func newMockFormatRepo() *mockFormatRepo {
	return &mockFormatRepo{formats: make(map[uuid.UUID]*Format)}
}

func (m *mockFormatRepo) Create(ctx context.Context, f *Format) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	m.formats[f.ID] = f
	return nil
}

func (m *mockFormatRepo) GetByID(ctx context.Context, id uuid.UUID) (*Format, error) {
	f, ok := m.formats[id]
	if !ok {
		return nil, fmt.Errorf("not found")
	}
	return f, nil
}

func (m *mockFormatRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Format, error) {
	var out []Format
	for _, id := range ids {
		if f, ok := m.formats[id]; ok {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *mockFormatRepo) List(ctx context.Context, limit, offset int) ([]Format, int, error) {
	var out []Format
	for _, f := range m.formats {
		out = append(out, *f)
	}
	return out, len(out), nil
}

func (m *mockFormatRepo) Update(ctx context.Context, f *Format) error {
	if _, ok := m.formats[f.ID]; !ok {
		return fmt.Errorf("not found")
	}
	m.formats[f.ID] = f
	return nil
}

func (m *mockFormatRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.formats[id]; !ok {
		return fmt.Errorf("not found")
	}
	delete(m.formats, id)
	return nil
}

func TestCreateFormat_Validation(t *testing.T) {
	svc := NewService(newMockFormatRepo())
	ctx := context.Background()

	tests := []struct {
		name   string
		format Format
	}{
		{"missing test name", Format{Parameters: []FormatParameter{{Name: "Hemoglobin"}}}},
		{"no parameters", Format{TestName: "CBC"}},
		{"unnamed parameter", Format{TestName: "CBC", Parameters: []FormatParameter{{Unit: "g/dL"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := svc.CreateFormat(ctx, &tt.format); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestCreateFormat_Valid(t *testing.T) {
	repo := newMockFormatRepo()
	svc := NewService(repo)

	f := Format{
		TestName: "Complete Blood Count",
		Parameters: []FormatParameter{
			{Name: "Hemoglobin", Unit: "g/dL", NormalRange: "13.5-17.5"},
		},
	}
	if err := svc.CreateFormat(context.Background(), &f); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.ID == uuid.Nil {
		t.Error("expected ID to be assigned")
	}
	if _, ok := repo.formats[f.ID]; !ok {
		t.Error("format not persisted")
	}
}

func TestFormatsFor(t *testing.T) {
	repo := newMockFormatRepo()
	svc := NewService(repo)
	ctx := context.Background()

	cbc := Format{TestName: "CBC", Parameters: []FormatParameter{{Name: "Hemoglobin"}}}
	if err := svc.CreateFormat(ctx, &cbc); err != nil {
		t.Fatal(err)
	}

	byID, err := svc.FormatsFor(ctx, []uuid.UUID{cbc.ID, uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(byID) != 1 {
		t.Fatalf("expected 1 format, got %d", len(byID))
	}
	if byID[cbc.ID].TestName != "CBC" {
		t.Errorf("wrong format returned: %+v", byID[cbc.ID])
	}
}
