package scheduling

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/carebook/carebook/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct {
	pool *pgxpool.Pool
}

// NewRepository creates a PostgreSQL-backed appointment repository.
func NewRepository(pool *pgxpool.Pool) AppointmentRepository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const apptCols = `id, patient_id, provider_id, start_ts, end_ts,
	kind, status, pattern, series_id,
	base_cost_cents, covered_cents, patient_cost_cents, coverage, insurance_verified,
	notes, created_at, updated_at`

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	err := row.Scan(&a.ID, &a.PatientID, &a.ProviderID, &a.Start, &a.End,
		&a.Kind, &a.Status, &a.Pattern, &a.SeriesID,
		&a.BaseCostCents, &a.CoveredCents, &a.PatientCostCents, &a.Coverage, &a.InsuranceVerified,
		&a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repoPG) Create(ctx context.Context, a *Appointment) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO appointments (patient_id, provider_id, start_ts, end_ts,
			kind, status, pattern, series_id,
			base_cost_cents, covered_cents, patient_cost_cents, coverage, insurance_verified, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING `+apptCols,
		a.PatientID, a.ProviderID, a.Start, a.End,
		a.Kind, a.Status, a.Pattern, a.SeriesID,
		a.BaseCostCents, a.CoveredCents, a.PatientCostCents, a.Coverage, a.InsuranceVerified, a.Notes)
	created, err := scanAppointment(row)
	if err != nil {
		return fmt.Errorf("create appointment: %w", err)
	}
	*a = *created
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+apptCols+` FROM appointments WHERE id = $1`, id)
	a, err := scanAppointment(row)
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (r *repoPG) ListActiveByProvider(ctx context.Context, providerID uuid.UUID, from, to time.Time) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE provider_id = $1 AND status <> 'cancelled'
			AND start_ts < $3 AND end_ts > $2
		ORDER BY start_ts`, providerID, from, to)
	if err != nil {
		return nil, fmt.Errorf("list provider appointments: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) ListBySeries(ctx context.Context, seriesID uuid.UUID) ([]*Appointment, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+apptCols+` FROM appointments
		WHERE series_id = $1 ORDER BY start_ts`, seriesID)
	if err != nil {
		return nil, fmt.Errorf("list series: %w", err)
	}
	defer rows.Close()
	return collect(rows)
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update appointment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "appointment", ID: id}
	}
	return nil
}

func (r *repoPG) UpdateTimes(ctx context.Context, id uuid.UUID, start, end time.Time, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE appointments SET start_ts = $2, end_ts = $3, status = $4, updated_at = NOW()
		WHERE id = $1`, id, start, end, status)
	if err != nil {
		return fmt.Errorf("update appointment times: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &NotFoundError{Entity: "appointment", ID: id}
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, params SearchParams) ([]*Appointment, int, error) {
	var where []string
	var args []interface{}
	idx := 1
	if params.PatientID != uuid.Nil {
		where = append(where, fmt.Sprintf("patient_id = $%d", idx))
		args = append(args, params.PatientID)
		idx++
	}
	if params.ProviderID != uuid.Nil {
		where = append(where, fmt.Sprintf("provider_id = $%d", idx))
		args = append(args, params.ProviderID)
		idx++
	}
	if params.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", idx))
		args = append(args, params.Status)
		idx++
	}
	if params.From != nil {
		where = append(where, fmt.Sprintf("start_ts >= $%d", idx))
		args = append(args, *params.From)
		idx++
	}
	if params.To != nil {
		where = append(where, fmt.Sprintf("start_ts < $%d", idx))
		args = append(args, *params.To)
		idx++
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM appointments `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count appointments: %w", err)
	}

	sql := fmt.Sprintf(`SELECT %s FROM appointments %s ORDER BY start_ts DESC LIMIT $%d OFFSET $%d`,
		apptCols, clause, idx, idx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search appointments: %w", err)
	}
	defer rows.Close()

	out, err := collect(rows)
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

func collect(rows pgx.Rows) ([]*Appointment, error) {
	var out []*Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan appointment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
