package booking

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) GetByID(ctx context.Context, id int64) (*Appointment, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, client_name, service_name, branch, status,
		       products_deducted, revenue_recorded, created_at, updated_at
		FROM appointments WHERE id = $1
	`, id)

	var a Appointment
	var status string
	if err := row.Scan(&a.ID, &a.ClientName, &a.ServiceName, &a.Branch, &status,
		&a.ProductsDeducted, &a.RevenueRecorded, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	a.Status = Normalize(status)
	return &a, nil
}

func (r *Repo) Create(ctx context.Context, a Appointment) (int64, error) {
	status := a.Status
	if status == "" {
		status = StatusBooked
	}
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (client_name, service_name, branch, status)
		VALUES ($1,$2,$3,$4)
		RETURNING id
	`, a.ClientName, a.ServiceName, a.Branch, string(status)).Scan(&id)
	return id, err
}

// The updates below are partial field merges: each touches only its own
// column plus updated_at, never the rest of the row.

func (r *Repo) UpdateStatus(ctx context.Context, id int64, status Status) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE appointments SET status = $2, updated_at = now() WHERE id = $1
	`, id, string(status))
	return err
}

func (r *Repo) SetProductsDeducted(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE appointments SET products_deducted = true, updated_at = now() WHERE id = $1
	`, id)
	return err
}

func (r *Repo) SetRevenueRecorded(ctx context.Context, id int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE appointments SET revenue_recorded = true, updated_at = now() WHERE id = $1
	`, id)
	return err
}

// ListUnreconciled returns completed appointments with at least one side
// effect still unflagged: the rows a reconciliation pass needs to look at.
func (r *Repo) ListUnreconciled(ctx context.Context) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_name, service_name, branch, status,
		       products_deducted, revenue_recorded, created_at, updated_at
		FROM appointments
		WHERE status IN ('completed', 'done')
		  AND (products_deducted = false OR revenue_recorded = false)
		ORDER BY updated_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Appointment
	for rows.Next() {
		var a Appointment
		var status string
		if err := rows.Scan(&a.ID, &a.ClientName, &a.ServiceName, &a.Branch, &status,
			&a.ProductsDeducted, &a.RevenueRecorded, &a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		a.Status = Normalize(status)
		out = append(out, a)
	}
	return out, rows.Err()
}
