package payments

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

func (r *Repo) Create(ctx context.Context, rec Record) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO payments (appointment_id, service_name, amount, branch, created_by, source)
		VALUES ($1,$2,$3,$4,NULLIF($5,''),$6)
	`, rec.AppointmentID, rec.ServiceName, rec.Amount, rec.Branch, rec.CreatedBy, rec.Source)
	return err
}

func (r *Repo) ListByAppointment(ctx context.Context, appointmentID int64) ([]Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, service_name, amount, branch,
		       COALESCE(created_by, ''), source, created_at
		FROM payments
		WHERE appointment_id = $1
		ORDER BY id
	`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.AppointmentID, &rec.ServiceName, &rec.Amount,
			&rec.Branch, &rec.CreatedBy, &rec.Source, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
