package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// FindByName looks a service up by exact, case-sensitive name. Returns
// (nil, nil) when there is no match.
func (r *Repo) FindByName(ctx context.Context, name string) (*ServiceDefinition, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, price, active, created_at
		FROM services WHERE name = $1
	`, name)

	var s ServiceDefinition
	if err := row.Scan(&s.ID, &s.Name, &s.Price, &s.Active, &s.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	rows, err := r.pool.Query(ctx, `
		SELECT product_id, qty
		FROM service_products
		WHERE service_id = $1
		ORDER BY position
	`, s.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var it BOMItem
		if err := rows.Scan(&it.ProductID, &it.Qty); err != nil {
			return nil, err
		}
		s.ProductsUsed = append(s.ProductsUsed, it)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repo) Create(ctx context.Context, name string, price float64, items []BOMItem) (int64, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	if err := tx.QueryRow(ctx, `
		INSERT INTO services (name, price) VALUES ($1,$2) RETURNING id
	`, name, price).Scan(&id); err != nil {
		return 0, err
	}
	for i, it := range items {
		if _, err := tx.Exec(ctx, `
			INSERT INTO service_products (service_id, product_id, qty, position)
			VALUES ($1,$2,$3,$4)
		`, id, it.ProductID, it.Qty, i); err != nil {
			return 0, err
		}
	}
	return id, tx.Commit(ctx)
}
