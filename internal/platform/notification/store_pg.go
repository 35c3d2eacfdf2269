package notification

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/labtrack/labtrack/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type pgStore struct{ pool *pgxpool.Pool }

// NewPGStore creates a Postgres-backed notification Store.
func NewPGStore(pool *pgxpool.Pool) Store { return &pgStore{pool: pool} }

func (s *pgStore) conn(ctx context.Context) queryable {
	if c := db.ConnFromContext(ctx); c != nil {
		return c
	}
	return s.pool
}

const notificationCols = `id, user_id, title, message, link, is_read, created_at`

func (s *pgStore) scanNotification(row pgx.Row) (*Notification, error) {
	var n Notification
	err := row.Scan(&n.ID, &n.UserID, &n.Title, &n.Message, &n.Link, &n.IsRead, &n.CreatedAt)
	return &n, err
}

func (s *pgStore) Insert(ctx context.Context, n *Notification) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	_, err := s.conn(ctx).Exec(ctx, `
		INSERT INTO notification (id, user_id, title, message, link, is_read, created_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		n.ID, n.UserID, n.Title, n.Message, n.Link, n.IsRead, n.CreatedAt)
	return err
}

func (s *pgStore) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*Notification, error) {
	rows, err := s.conn(ctx).Query(ctx, `
		SELECT `+notificationCols+` FROM notification
		WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []*Notification
	for rows.Next() {
		n, err := s.scanNotification(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, n)
	}
	return items, nil
}

func (s *pgStore) MarkRead(ctx context.Context, id, userID uuid.UUID) error {
	tag, err := s.conn(ctx).Exec(ctx,
		`UPDATE notification SET is_read = TRUE WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("notification %s not found", id)
	}
	return nil
}

func (s *pgStore) MarkAllRead(ctx context.Context, userID uuid.UUID) (int, error) {
	tag, err := s.conn(ctx).Exec(ctx,
		`UPDATE notification SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}

func (s *pgStore) CountUnread(ctx context.Context, userID uuid.UUID) (int, error) {
	var count int
	err := s.conn(ctx).QueryRow(ctx,
		`SELECT COUNT(*) FROM notification WHERE user_id = $1 AND is_read = FALSE`, userID).Scan(&count)
	return count, err
}
