package insurance

import (
	"context"
	"errors"
	"fmt"

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

type policyRepoPG struct {
	pool *pgxpool.Pool
}

// NewPolicyRepository creates a PostgreSQL-backed policy repository.
func NewPolicyRepository(pool *pgxpool.Pool) PolicyRepository {
	return &policyRepoPG{pool: pool}
}

func (r *policyRepoPG) conn(ctx context.Context) queryable {
	if tx := db.ConnFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const policyCols = `id, patient_id, coverage_type, provider_name, policy_number,
	card_image_urls, active, created_at, updated_at`

func scanPolicy(row pgx.Row) (*Policy, error) {
	var p Policy
	err := row.Scan(&p.ID, &p.PatientID, &p.Type, &p.ProviderName, &p.PolicyNumber,
		&p.CardImageURLs, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *policyRepoPG) Create(ctx context.Context, p *Policy) error {
	row := r.conn(ctx).QueryRow(ctx, `
		INSERT INTO insurance_policies (patient_id, coverage_type, provider_name,
			policy_number, card_image_urls, active)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+policyCols,
		p.PatientID, p.Type, p.ProviderName, p.PolicyNumber, p.CardImageURLs, p.Active)
	created, err := scanPolicy(row)
	if err != nil {
		return fmt.Errorf("create policy: %w", err)
	}
	*p = *created
	return nil
}

func (r *policyRepoPG) GetByID(ctx context.Context, id uuid.UUID) (*Policy, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+policyCols+` FROM insurance_policies WHERE id = $1`, id)
	p, err := scanPolicy(row)
	if err != nil {
		return nil, fmt.Errorf("get policy: %w", err)
	}
	return p, nil
}

// GetActiveByPatient returns the patient's active policy, or nil when the
// patient has none on file.
func (r *policyRepoPG) GetActiveByPatient(ctx context.Context, patientID uuid.UUID) (*Policy, error) {
	row := r.conn(ctx).QueryRow(ctx, `
		SELECT `+policyCols+` FROM insurance_policies
		WHERE patient_id = $1 AND active = TRUE
		ORDER BY created_at DESC LIMIT 1`, patientID)
	p, err := scanPolicy(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active policy: %w", err)
	}
	return p, nil
}

func (r *policyRepoPG) Update(ctx context.Context, p *Policy) error {
	row := r.conn(ctx).QueryRow(ctx, `
		UPDATE insurance_policies
		SET coverage_type = $2, provider_name = $3, policy_number = $4,
			card_image_urls = $5, active = $6, updated_at = NOW()
		WHERE id = $1
		RETURNING `+policyCols,
		p.ID, p.Type, p.ProviderName, p.PolicyNumber, p.CardImageURLs, p.Active)
	updated, err := scanPolicy(row)
	if err != nil {
		return fmt.Errorf("update policy: %w", err)
	}
	*p = *updated
	return nil
}

func (r *policyRepoPG) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := r.conn(ctx).Exec(ctx, `
		UPDATE insurance_policies SET active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deactivate policy: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("policy not found")
	}
	return nil
}

func (r *policyRepoPG) List(ctx context.Context, limit, offset int) ([]*Policy, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM insurance_policies`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count policies: %w", err)
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+policyCols+` FROM insurance_policies
		ORDER BY created_at DESC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var out []*Policy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan policy: %w", err)
		}
		out = append(out, p)
	}
	return out, total, rows.Err()
}
