package history

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Entry maps to the history_log table. The log is append-only.
type Entry struct {
	ID        uuid.UUID `db:"id" json:"id"`
	User      string    `db:"user_name" json:"user"`
	Action    string    `db:"action" json:"action"`
	Timestamp time.Time `db:"timestamp" json:"timestamp"`
}

// Repository persists history entries.
type Repository interface {
	Insert(ctx context.Context, e *Entry) error
	List(ctx context.Context, limit, offset int) ([]Entry, int, error)
}

// Service records and lists activity log entries. It backs the
// appointment engine's history emission.
type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Record implements appointment.HistoryRecorder.
func (s *Service) Record(ctx context.Context, user, action string) error {
	if action == "" {
		return fmt.Errorf("action is required")
	}
	if user == "" {
		user = "System"
	}
	return s.repo.Insert(ctx, &Entry{User: user, Action: action, Timestamp: time.Now()})
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]Entry, int, error) {
	return s.repo.List(ctx, limit, offset)
}
