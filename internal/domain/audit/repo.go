package audit

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// AppendTx writes the audit line inside the adjusting transaction, so the
// entry commits or rolls back together with the quantity it describes.
func AppendTx(ctx context.Context, tx pgx.Tx, e Entry) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO stock_audits (product_id, branch_id, delta, before_qty, after_qty, reason, actor)
		VALUES ($1,$2,$3,$4,$5,NULLIF($6,''),NULLIF($7,''))
	`, e.ProductID, e.BranchID, e.Delta, e.Before, e.After, e.Reason, e.Actor)
	return err
}

func (r *Repo) ListByProduct(ctx context.Context, productID int64, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, branch_id, delta, before_qty, after_qty,
		       COALESCE(reason, ''), COALESCE(actor, ''), created_at
		FROM stock_audits
		WHERE product_id = $1
		ORDER BY id DESC
		LIMIT $2
	`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func (r *Repo) ListRange(ctx context.Context, from, to time.Time) ([]Entry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, product_id, branch_id, delta, before_qty, after_qty,
		       COALESCE(reason, ''), COALESCE(actor, ''), created_at
		FROM stock_audits
		WHERE created_at >= $1 AND created_at < $2
		ORDER BY id
	`, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanEntries(rows)
}

func scanEntries(rows pgx.Rows) ([]Entry, error) {
	var out []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.BranchID, &e.Delta, &e.Before, &e.After,
			&e.Reason, &e.Actor, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
