package referral

import (
	"context"
	"fmt"
	"strings"

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

// NewRepository creates a PostgreSQL-backed referral repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repoPG{pool: pool}
}

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const referralCols = `id, patient_id, from_provider_id, to_provider_id,
	status, priority, reason, notes, read, created_at, updated_at`

func scanReferral(row pgx.Row) (*Referral, error) {
	var ref Referral
	err := row.Scan(&ref.ID, &ref.PatientID, &ref.FromProviderID, &ref.ToProviderID,
		&ref.Status, &ref.Priority, &ref.Reason, &ref.Notes, &ref.Read,
		&ref.CreatedAt, &ref.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &ref, nil
}

func (r *repoPG) Create(ctx context.Context, ref *Referral) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO referrals (patient_id, from_provider_id, to_provider_id, status, priority, reason, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+referralCols,
		ref.PatientID, ref.FromProviderID, ref.ToProviderID, ref.Status, ref.Priority, ref.Reason, ref.Notes)
	created, err := scanReferral(row)
	if err != nil {
		return fmt.Errorf("create referral: %w", err)
	}
	*ref = *created
	return nil
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Referral, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+referralCols+` FROM referrals WHERE id = $1`, id)
	ref, err := scanReferral(row)
	if err != nil {
		return nil, fmt.Errorf("get referral: %w", err)
	}
	return ref, nil
}

func (r *repoPG) UpdateStatus(ctx context.Context, id uuid.UUID, status Status) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE referrals SET status = $2, updated_at = NOW() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update referral status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("referral not found")
	}
	return nil
}

func (r *repoPG) MarkRead(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE referrals SET read = TRUE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("mark referral read: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("referral not found")
	}
	return nil
}

func (r *repoPG) Search(ctx context.Context, params SearchParams) ([]*Referral, int, error) {
	var where []string
	var args []interface{}
	idx := 1
	if params.PatientID != uuid.Nil {
		where = append(where, fmt.Sprintf("patient_id = $%d", idx))
		args = append(args, params.PatientID)
		idx++
	}
	if params.ToProviderID != uuid.Nil {
		where = append(where, fmt.Sprintf("to_provider_id = $%d", idx))
		args = append(args, params.ToProviderID)
		idx++
	}
	if params.Status != "" {
		where = append(where, fmt.Sprintf("status = $%d", idx))
		args = append(args, params.Status)
		idx++
	}
	if params.UnreadOnly {
		where = append(where, "read = FALSE")
	}
	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM referrals `+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count referrals: %w", err)
	}

	sql := fmt.Sprintf(`SELECT %s FROM referrals %s
		ORDER BY CASE priority WHEN 'urgent' THEN 0 WHEN 'high' THEN 1 WHEN 'medium' THEN 2 ELSE 3 END,
			created_at DESC
		LIMIT $%d OFFSET $%d`, referralCols, clause, idx, idx+1)
	args = append(args, params.Limit, params.Offset)

	rows, err := r.conn(ctx).Query(ctx, sql, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("search referrals: %w", err)
	}
	defer rows.Close()

	var out []*Referral
	for rows.Next() {
		ref, err := scanReferral(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan referral: %w", err)
		}
		out = append(out, ref)
	}
	return out, total, rows.Err()
}

func (r *repoPG) HasAccepted(ctx context.Context, patientID, providerID uuid.UUID) (bool, error) {
	var exists bool
	err := r.conn(ctx).QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM referrals
			WHERE patient_id = $1 AND to_provider_id = $2 AND status = 'accepted'
		)`, patientID, providerID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check accepted referral: %w", err)
	}
	return exists, nil
}
