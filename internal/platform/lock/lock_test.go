package lock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
)

func TestLocalLocker_RunsFunction(t *testing.T) {
	locker := NewLocalLocker()
	id := uuid.New()

	called := false
	err := locker.WithAppointmentLock(context.Background(), id, func(ctx context.Context) error {
		called = true
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !called {
		t.Error("expected function to be called")
	}
}

func TestLocalLocker_PropagatesError(t *testing.T) {
	locker := NewLocalLocker()
	want := errors.New("boom")

	err := locker.WithAppointmentLock(context.Background(), uuid.New(), func(ctx context.Context) error {
		return want
	})
	if !errors.Is(err, want) {
		t.Errorf("expected %v, got %v", want, err)
	}
}

func TestLocalLocker_SerializesSameAppointment(t *testing.T) {
	locker := NewLocalLocker()
	id := uuid.New()

	counter := 0
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = locker.WithAppointmentLock(context.Background(), id, func(ctx context.Context) error {
				// Unprotected increment; the lock must make this safe.
				counter++
				return nil
			})
		}()
	}
	wg.Wait()

	if counter != 50 {
		t.Errorf("expected 50 serialized increments, got %d", counter)
	}
}
