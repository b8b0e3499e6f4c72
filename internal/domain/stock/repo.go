package stock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sethvargo/go-retry"

	"github.com/salonops/salon-ledger/internal/domain/audit"
	"github.com/salonops/salon-ledger/internal/domain/shared"
	"github.com/salonops/salon-ledger/internal/infra/metrics"
)

const maxRetries = 3

// errLostCreateRace: a concurrent adjuster created the branch row between our
// locked read and insert; retrying will find and lock the row.
var errLostCreateRace = errors.New("lost branch create race")

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Adjust applies a signed delta to the (product, branch) counter and appends
// the audit line in one transaction. The product must already exist; the
// branch row is created at zero on first use. No floor: the result may go
// negative. Concurrent adjusters serialize on the branch row, so deltas
// accumulate rather than overwrite.
func (r *Repo) Adjust(ctx context.Context, productID int64, branchID string, delta int64, actor, reason string) (shared.Adjustment, error) {
	if productID <= 0 || branchID == "" {
		return shared.Adjustment{}, fmt.Errorf("%w: product and branch are required", shared.ErrValidation)
	}

	var adj shared.Adjustment
	b := retry.WithMaxRetries(maxRetries, retry.NewExponential(10*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		a, err := r.adjustOnce(ctx, productID, branchID, delta, actor, reason)
		if err != nil {
			if errors.Is(err, errLostCreateRace) || shared.IsSerializationFailure(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		adj = a
		return nil
	})
	if err != nil {
		if errors.Is(err, errLostCreateRace) || shared.IsSerializationFailure(err) {
			metrics.AdjustmentConflicts.WithLabelValues("primary").Inc()
			return shared.Adjustment{}, fmt.Errorf("%w: %v", shared.ErrConflict, err)
		}
		return shared.Adjustment{}, err
	}
	metrics.AdjustmentsApplied.WithLabelValues("primary").Inc()
	return adj, nil
}

func (r *Repo) adjustOnce(ctx context.Context, productID int64, branchID string, delta int64, actor, reason string) (shared.Adjustment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return shared.Adjustment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var before int64
	err = tx.QueryRow(ctx, `
		SELECT quantity FROM product_branches
		WHERE product_id = $1 AND branch_id = $2
		FOR UPDATE
	`, productID, branchID).Scan(&before)

	switch {
	case err == nil:
		if _, err = tx.Exec(ctx, `
			UPDATE product_branches
			SET quantity = quantity + $3, last_updated = now()
			WHERE product_id = $1 AND branch_id = $2
		`, productID, branchID, delta); err != nil {
			return shared.Adjustment{}, err
		}
	case errors.Is(err, pgx.ErrNoRows):
		before = 0
		var inserted bool
		if err = tx.QueryRow(ctx, `
			INSERT INTO product_branches (product_id, branch_id, quantity)
			VALUES ($1,$2,$3)
			ON CONFLICT (product_id, branch_id) DO NOTHING
			RETURNING true
		`, productID, branchID, delta).Scan(&inserted); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.Adjustment{}, errLostCreateRace
			}
			if shared.IsForeignKeyViolation(err) {
				return shared.Adjustment{}, fmt.Errorf("product %d: %w", productID, shared.ErrNotFound)
			}
			return shared.Adjustment{}, err
		}
	default:
		return shared.Adjustment{}, err
	}

	// Keep the cached total consistent by advancing it by the same delta.
	if _, err = tx.Exec(ctx, `
		UPDATE products SET total_quantity = total_quantity + $2 WHERE id = $1
	`, productID, delta); err != nil {
		return shared.Adjustment{}, err
	}

	after := before + delta
	if err = audit.AppendTx(ctx, tx, audit.Entry{
		ProductID: productID,
		BranchID:  branchID,
		Delta:     delta,
		Before:    before,
		After:     after,
		Reason:    reason,
		Actor:     actor,
	}); err != nil {
		return shared.Adjustment{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return shared.Adjustment{}, err
	}
	return shared.Adjustment{Before: before, After: after}, nil
}

func (r *Repo) Create(ctx context.Context, name string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx, `
		INSERT INTO products (name) VALUES ($1) RETURNING id
	`, name).Scan(&id)
	return id, err
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Product, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, name, total_quantity, created_at FROM products WHERE id = $1
	`, id)

	var p Product
	if err := row.Scan(&p.ID, &p.Name, &p.TotalQuantity, &p.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

// BranchQuantity returns the current counter for the pair (0 if the branch
// row does not exist yet).
func (r *Repo) BranchQuantity(ctx context.Context, productID int64, branchID string) (int64, error) {
	var qty int64
	err := r.pool.QueryRow(ctx, `
		SELECT quantity FROM product_branches
		WHERE product_id = $1 AND branch_id = $2
	`, productID, branchID).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return qty, err
}
