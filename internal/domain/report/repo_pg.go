package report

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

type pgFormatRepository struct {
	pool *pgxpool.Pool
}

// NewPGFormatRepository creates a PostgreSQL-backed format repository.
func NewPGFormatRepository(pool *pgxpool.Pool) FormatRepository {
	return &pgFormatRepository{pool: pool}
}

func (r *pgFormatRepository) conn(ctx context.Context) queryable {
	if conn := db.ConnFromContext(ctx); conn != nil {
		return conn
	}
	return r.pool
}

const formatCols = `id, test_name, parameters, created_at, updated_at`

func scanFormat(row pgx.Row) (*Format, error) {
	var f Format
	err := row.Scan(&f.ID, &f.TestName, &f.Parameters, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (r *pgFormatRepository) Create(ctx context.Context, f *Format) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	query := `
		INSERT INTO report_format (id, test_name, parameters)
		VALUES ($1, $2, $3)
		RETURNING created_at, updated_at`
	err := r.conn(ctx).QueryRow(ctx, query, f.ID, f.TestName, f.Parameters).
		Scan(&f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert report format: %w", err)
	}
	return nil
}

func (r *pgFormatRepository) GetByID(ctx context.Context, id uuid.UUID) (*Format, error) {
	query := fmt.Sprintf(`SELECT %s FROM report_format WHERE id = $1`, formatCols)
	f, err := scanFormat(r.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("get report format: %w", err)
	}
	return f, nil
}

func (r *pgFormatRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]Format, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := fmt.Sprintf(`SELECT %s FROM report_format WHERE id = ANY($1)`, formatCols)
	rows, err := r.conn(ctx).Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get report formats: %w", err)
	}
	defer rows.Close()

	var formats []Format
	for rows.Next() {
		f, err := scanFormat(rows)
		if err != nil {
			return nil, fmt.Errorf("scan report format: %w", err)
		}
		formats = append(formats, *f)
	}
	return formats, rows.Err()
}

func (r *pgFormatRepository) List(ctx context.Context, limit, offset int) ([]Format, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM report_format`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count report formats: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM report_format ORDER BY test_name LIMIT $1 OFFSET $2`, formatCols)
	rows, err := r.conn(ctx).Query(ctx, query, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list report formats: %w", err)
	}
	defer rows.Close()

	var formats []Format
	for rows.Next() {
		f, err := scanFormat(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan report format: %w", err)
		}
		formats = append(formats, *f)
	}
	return formats, total, rows.Err()
}

func (r *pgFormatRepository) Update(ctx context.Context, f *Format) error {
	query := `
		UPDATE report_format
		SET test_name = $2, parameters = $3, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at`
	err := r.conn(ctx).QueryRow(ctx, query, f.ID, f.TestName, f.Parameters).Scan(&f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update report format: %w", err)
	}
	return nil
}

func (r *pgFormatRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `DELETE FROM report_format WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report format: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("report format not found")
	}
	return nil
}
