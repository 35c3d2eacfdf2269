package catalog

import (
	"context"
	"errors"
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

type pgRepository struct {
	pool *pgxpool.Pool
}

// NewPGRepository creates a PostgreSQL-backed test catalog repository.
func NewPGRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) conn(ctx context.Context) queryable {
	if conn := db.ConnFromContext(ctx); conn != nil {
		return conn
	}
	return r.pool
}

const testCols = `id, name, cost, created_at, updated_at`

func scanTest(row pgx.Row) (*Test, error) {
	var t Test
	err := row.Scan(&t.ID, &t.Name, &t.Cost, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *pgRepository) Create(ctx context.Context, t *Test) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	query := `
		INSERT INTO lab_test (id, name, cost)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`
	err := r.conn(ctx).QueryRow(ctx, query, t.ID, t.Name, t.Cost).
		Scan(&t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert test: %w", err)
	}
	return nil
}

func (r *pgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Test, error) {
	query := fmt.Sprintf(`SELECT %s FROM lab_test WHERE id = $1`, testCols)
	t, err := scanTest(r.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get test: %w", err)
	}
	return t, nil
}

func (r *pgRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Test, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM lab_test WHERE id = ANY($1)`, testCols)
	rows, err := r.conn(ctx).Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get tests: %w", err)
	}
	defer rows.Close()

	var tests []Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, fmt.Errorf("scan test: %w", err)
		}
		tests = append(tests, *t)
	}
	return tests, rows.Err()
}

func (r *pgRepository) List(ctx context.Context, limit, offset int) ([]Test, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM lab_test`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count tests: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM lab_test ORDER BY name LIMIT $1 OFFSET $2`, testCols)
	rows, err := r.conn(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list tests: %w", err)
	}
	defer rows.Close()

	var tests []Test
	for rows.Next() {
		t, err := scanTest(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan test: %w", err)
		}
		tests = append(tests, *t)
	}
	return tests, total, rows.Err()
}

func (r *pgRepository) Update(ctx context.Context, t *Test) error {
	query := `
		UPDATE lab_test
		SET name = $2, cost = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.conn(ctx).QueryRow(ctx, query, t.ID, t.Name, t.Cost).Scan(&t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("update test: %w", err)
	}
	return nil
}

func (r *pgRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM lab_test WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete test: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
