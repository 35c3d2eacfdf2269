package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
)

type mockRepo struct {
	tests map[uuid.UUID]*Test
}

func newMockRepo() *mockRepo {
	return &mockRepo{tests: make(map[uuid.UUID]*Test)}
}

func (m *mockRepo) Create(ctx context.Context, t *Test) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	m.tests[t.ID] = t
	return nil
}

func (m *mockRepo) GetByID(ctx context.Context, id uuid.UUID) (*Test, error) {
	t, ok := m.tests[id]
	if !ok {
		return nil, ErrNotFound
	}
	return t, nil
}

func (m *mockRepo) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Test, error) {
	var out []Test
	for _, id := range ids {
		if t, ok := m.tests[id]; ok {
			out = append(out, *t)
		}
	}
	return out, nil
}

func (m *mockRepo) List(ctx context.Context, limit, offset int) ([]Test, int, error) {
	var out []Test
	for _, t := range m.tests {
		out = append(out, *t)
	}
	return out, len(out), nil
}

func (m *mockRepo) Update(ctx context.Context, t *Test) error {
	if _, ok := m.tests[t.ID]; !ok {
		return ErrNotFound
	}
	m.tests[t.ID] = t
	return nil
}

func (m *mockRepo) Delete(ctx context.Context, id uuid.UUID) error {
	if _, ok := m.tests[id]; !ok {
		return ErrNotFound
	}
	delete(m.tests, id)
	return nil
}

func TestCreate_Validation(t *testing.T) {
	svc := NewService(newMockRepo())
	ctx := context.Background()

	if err := svc.Create(ctx, &Test{Cost: 350}); err == nil {
		t.Error("expected error for missing name")
	}
	if err := svc.Create(ctx, &Test{Name: "CBC", Cost: -1}); err == nil {
		t.Error("expected error for negative cost")
	}
	if err := svc.Create(ctx, &Test{Name: "CBC", Cost: 350}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestTests_ResolvesBookingProjection(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo)
	ctx := context.Background()

	cbc := &Test{Name: "Complete Blood Count", Cost: 350}
	lipid := &Test{Name: "Lipid Profile", Cost: 500}
	for _, tt := range []*Test{cbc, lipid} {
		if err := svc.Create(ctx, tt); err != nil {
			t.Fatal(err)
		}
	}

	infos, err := svc.Tests(ctx, []uuid.UUID{cbc.ID, lipid.ID, uuid.New()})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 known tests, got %d", len(infos))
	}
	var total float64
	for _, info := range infos {
		total += info.Cost
	}
	if total != 850 {
		t.Errorf("expected combined cost 850, got %v", total)
	}
}
