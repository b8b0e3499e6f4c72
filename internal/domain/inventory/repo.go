package inventory

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

var errLostCreateRace = errors.New("lost record create race")

type Repo struct{ pool *pgxpool.Pool }

func NewRepo(pool *pgxpool.Pool) *Repo { return &Repo{pool: pool} }

// Adjust applies a signed delta to the legacy record for (product, branch),
// creating the record on first use. Unlike the primary store, the result is
// clamped at zero: over-deduction is absorbed, not surfaced. The audit line
// records the requested delta and the actual stored before/after.
func (r *Repo) Adjust(ctx context.Context, productID int64, branch string, delta int64, actor, reason string) (shared.Adjustment, error) {
	if productID <= 0 || branch == "" {
		return shared.Adjustment{}, fmt.Errorf("%w: product and branch are required", shared.ErrValidation)
	}

	var adj shared.Adjustment
	b := retry.WithMaxRetries(maxRetries, retry.NewExponential(10*time.Millisecond))
	err := retry.Do(ctx, b, func(ctx context.Context) error {
		a, err := r.adjustOnce(ctx, productID, branch, delta, actor, reason)
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
			metrics.AdjustmentConflicts.WithLabelValues("legacy").Inc()
			return shared.Adjustment{}, fmt.Errorf("%w: %v", shared.ErrConflict, err)
		}
		return shared.Adjustment{}, err
	}
	metrics.AdjustmentsApplied.WithLabelValues("legacy").Inc()
	return adj, nil
}

func (r *Repo) adjustOnce(ctx context.Context, productID int64, branch string, delta int64, actor, reason string) (shared.Adjustment, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return shared.Adjustment{}, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var before, after int64
	err = tx.QueryRow(ctx, `
		SELECT quantity FROM inventory_records
		WHERE product_id = $1 AND branch = $2
		FOR UPDATE
	`, productID, branch).Scan(&before)

	switch {
	case err == nil:
		if err = tx.QueryRow(ctx, `
			UPDATE inventory_records
			SET quantity = GREATEST(0, quantity + $3), last_updated = now()
			WHERE product_id = $1 AND branch = $2
			RETURNING quantity
		`, productID, branch, delta).Scan(&after); err != nil {
			return shared.Adjustment{}, err
		}
	case errors.Is(err, pgx.ErrNoRows):
		// Missing pair is created, not rejected.
		before = 0
		if err = tx.QueryRow(ctx, `
			INSERT INTO inventory_records (product_id, branch, quantity)
			VALUES ($1,$2,GREATEST(0,$3::bigint))
			ON CONFLICT (product_id, branch) DO NOTHING
			RETURNING quantity
		`, productID, branch, delta).Scan(&after); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.Adjustment{}, errLostCreateRace
			}
			return shared.Adjustment{}, err
		}
	default:
		return shared.Adjustment{}, err
	}

	if err = audit.AppendTx(ctx, tx, audit.Entry{
		ProductID: productID,
		BranchID:  branch,
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

// Get returns the record for the pair, or nil if it was never adjusted.
func (r *Repo) Get(ctx context.Context, productID int64, branch string) (*Record, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT id, product_id, branch, quantity, last_updated
		FROM inventory_records
		WHERE product_id = $1 AND branch = $2
	`, productID, branch)

	var rec Record
	if err := row.Scan(&rec.ID, &rec.ProductID, &rec.Branch, &rec.Quantity, &rec.LastUpdated); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
