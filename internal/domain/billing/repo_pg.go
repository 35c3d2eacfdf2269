package billing

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

// NewPGRepository creates a PostgreSQL-backed bill repository.
func NewPGRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) conn(ctx context.Context) queryable {
	if conn := db.ConnFromContext(ctx); conn != nil {
		return conn
	}
	return r.pool
}

const billCols = `id, appointment_id, patient_id, patient_name, bill_date, amount, items, status,
	created_at, updated_at`

func scanBill(row pgx.Row) (*Bill, error) {
	var b Bill
	err := row.Scan(&b.ID, &b.AppointmentID, &b.PatientID, &b.PatientName, &b.BillDate,
		&b.Amount, &b.Items, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func (r *pgRepository) Create(ctx context.Context, b *Bill) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	query := `
		INSERT INTO bill (id, appointment_id, patient_id, patient_name, bill_date, amount, items, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`
	err := r.conn(ctx).QueryRow(ctx, query,
		b.ID, b.AppointmentID, b.PatientID, b.PatientName, b.BillDate, b.Amount, b.Items, b.Status,
	).Scan(&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrAlreadyBilled
		}
		return fmt.Errorf("insert bill: %w", err)
	}
	return nil
}

func (r *pgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	query := fmt.Sprintf(`SELECT %s FROM bill WHERE id = $1`, billCols)
	b, err := scanBill(r.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get bill: %w", err)
	}
	return b, nil
}

func (r *pgRepository) GetByAppointment(ctx context.Context, appointmentID uuid.UUID) (*Bill, error) {
	query := fmt.Sprintf(`SELECT %s FROM bill WHERE appointment_id = $1`, billCols)
	b, err := scanBill(r.conn(ctx).QueryRow(ctx, query, appointmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get bill by appointment: %w", err)
	}
	return b, nil
}

func (r *pgRepository) List(ctx context.Context, patientID *uuid.UUID, limit, offset int) ([]Bill, int, error) {
	where := ""
	args := []interface{}{}
	if patientID != nil {
		where = " WHERE patient_id = $1"
		args = append(args, *patientID)
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM bill`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count bills: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM bill%s ORDER BY bill_date DESC LIMIT $%d OFFSET $%d`,
		billCols, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list bills: %w", err)
	}
	defer rows.Close()

	var bills []Bill
	for rows.Next() {
		b, err := scanBill(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan bill: %w", err)
		}
		bills = append(bills, *b)
	}
	return bills, total, rows.Err()
}

func (r *pgRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status BillStatus) error {
	tag, err := r.conn(ctx).Exec(ctx,
		`UPDATE bill SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update bill status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
