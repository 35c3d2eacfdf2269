package lock

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// localLocker serializes appointment updates within a single process. Used
// when no REDIS_URL is configured, which is fine for single-instance
// deployments and tests.
type localLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

// NewLocalLocker creates an in-process locker.
func NewLocalLocker() Locker {
	return &localLocker{
		locks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (l *localLocker) WithAppointmentLock(ctx context.Context, appointmentID uuid.UUID, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	m, ok := l.locks[appointmentID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[appointmentID] = m
	}
	l.mu.Unlock()

	m.Lock()
	defer m.Unlock()

	return fn(ctx)
}
