package appointment

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

// NewPGRepository creates a PostgreSQL-backed appointment repository.
func NewPGRepository(pool *pgxpool.Pool) Repository {
	return &pgRepository{pool: pool}
}

func (r *pgRepository) conn(ctx context.Context) queryable {
	if conn := db.ConnFromContext(ctx); conn != nil {
		return conn
	}
	return r.pool
}

const appointmentCols = `id, patient_id, patient_name, test_ids, test_names, test_costs,
	date, status, phlebo_id, phlebo_name, address, description, total_cost, notes,
	report_data, feedback_submitted, version, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(
		&a.ID, &a.PatientID, &a.PatientName, &a.TestIDs, &a.TestNames, &a.TestCosts, &a.Date, &a.Status,
		&a.PhleboID, &a.PhleboName, &a.Address, &a.Description, &a.TotalCost, &a.Notes,
		&a.ReportData, &a.FeedbackSubmitted, &a.Version, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *pgRepository) Create(ctx context.Context, appt *Appointment) error {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	appt.Version = 1
	query := `
		INSERT INTO appointment (id, patient_id, patient_name, test_ids, test_names,
			test_costs, date, status, phlebo_id, phlebo_name, address, description,
			total_cost, notes, report_data, feedback_submitted, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at`
	err := r.conn(ctx).QueryRow(ctx, query,
		appt.ID, appt.PatientID, appt.PatientName, appt.TestIDs, appt.TestNames,
		appt.TestCosts, appt.Date, appt.Status, appt.PhleboID, appt.PhleboName,
		appt.Address, appt.Description, appt.TotalCost, appt.Notes, appt.ReportData,
		appt.FeedbackSubmitted, appt.Version,
	).Scan(&appt.CreatedAt, &appt.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *pgRepository) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	query := fmt.Sprintf(`SELECT %s FROM appointment WHERE id = $1`, appointmentCols)
	appt, err := scanAppointment(r.conn(ctx).QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return appt, nil
}

func (r *pgRepository) List(ctx context.Context, f Filter, limit, offset int) ([]Appointment, int, error) {
	where := ""
	args := []interface{}{}
	addClause := func(clause string, arg interface{}) {
		args = append(args, arg)
		if where == "" {
			where = " WHERE "
		} else {
			where += " AND "
		}
		where += fmt.Sprintf(clause, len(args))
	}
	if f.PatientID != nil {
		addClause("patient_id = $%d", *f.PatientID)
	}
	if f.PhleboID != nil {
		addClause("phlebo_id = $%d", *f.PhleboID)
	}
	if f.Status != nil {
		addClause("status = $%d", *f.Status)
	}

	var total int
	countQuery := `SELECT COUNT(*) FROM appointment` + where
	if err := r.conn(ctx).QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM appointment%s ORDER BY date DESC LIMIT $%d OFFSET $%d`,
		appointmentCols, where, len(args)+1, len(args)+2)
	args = append(args, limit, offset)

	rows, err := r.conn(ctx).Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var appts []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan appointment: %w", err)
		}
		appts = append(appts, *a)
	}
	return appts, total, rows.Err()
}

// Update performs the merged CAS write: every transitioned field lands in
// one UPDATE guarded by the version the caller loaded. A concurrent
// writer makes the guard miss and the caller gets ErrVersionConflict.
func (r *pgRepository) Update(ctx context.Context, appt *Appointment) error {
	query := `
		UPDATE appointment
		SET status = $3, phlebo_id = $4, phlebo_name = $5, notes = $6, report_data = $7,
			feedback_submitted = $8, version = version + 1, updated_at = NOW()
		WHERE id = $1 AND version = $2
		RETURNING updated_at`
	err := r.conn(ctx).QueryRow(ctx, query,
		appt.ID, appt.Version, appt.Status, appt.PhleboID, appt.PhleboName,
		appt.Notes, appt.ReportData, appt.FeedbackSubmitted,
	).Scan(&appt.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			var exists bool
			if checkErr := r.conn(ctx).QueryRow(ctx,
				`SELECT EXISTS (SELECT 1 FROM appointment WHERE id = $1)`, appt.ID,
			).Scan(&exists); checkErr == nil && !exists {
				return ErrNotFound
			}
			return ErrVersionConflict
		}
		return fmt.Errorf("update appointment: %w", err)
	}
	appt.Version++
	return nil
}
