package stock_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonops/salon-ledger/internal/domain/audit"
	"github.com/salonops/salon-ledger/internal/domain/shared"
	"github.com/salonops/salon-ledger/internal/domain/stock"
	"github.com/salonops/salon-ledger/internal/testutil"
)

func TestAdjust_Accumulation(t *testing.T) {
	pool := testutil.Pool(t, "../../../migrations")
	ctx := context.Background()
	repo := stock.NewRepo(pool)
	audits := audit.NewRepo(pool)

	productID, err := repo.Create(ctx, "colour 7.1")
	require.NoError(t, err)

	const workers = 16
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Adjust(ctx, productID, "soho", 3, "uid-1", "restock")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		require.NoError(t, err)
	}

	qty, err := repo.BranchQuantity(ctx, productID, "soho")
	require.NoError(t, err)
	assert.Equal(t, int64(workers*3), qty, "deltas accumulate, never overwrite")

	p, err := repo.GetByID(ctx, productID)
	require.NoError(t, err)
	assert.Equal(t, int64(workers*3), p.TotalQuantity, "cached total advanced by the same deltas")

	entries, err := audits.ListByProduct(ctx, productID, workers+1)
	require.NoError(t, err)
	require.Len(t, entries, workers, "one audit entry per committed adjustment")
	// Entries come newest first; replayed in commit order the after values
	// reconstruct the final quantity.
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		assert.Equal(t, e.Before+e.Delta, e.After)
	}
	assert.Equal(t, int64(workers*3), entries[0].After)
}

func TestAdjust_NoFloor(t *testing.T) {
	pool := testutil.Pool(t, "../../../migrations")
	ctx := context.Background()
	repo := stock.NewRepo(pool)

	productID, err := repo.Create(ctx, "bleach powder")
	require.NoError(t, err)

	_, err = repo.Adjust(ctx, productID, "mayfair", 5, "uid-1", "restock")
	require.NoError(t, err)

	adj, err := repo.Adjust(ctx, productID, "mayfair", -1000, "uid-1", "shrinkage")
	require.NoError(t, err)
	assert.Equal(t, int64(5), adj.Before)
	assert.Equal(t, int64(-995), adj.After, "primary store surfaces shortages as negatives")
}

func TestAdjust_UnknownProduct(t *testing.T) {
	pool := testutil.Pool(t, "../../../migrations")
	repo := stock.NewRepo(pool)

	_, err := repo.Adjust(context.Background(), 999999999, "soho", 1, "uid-1", "")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestAdjust_Validation(t *testing.T) {
	pool := testutil.Pool(t, "../../../migrations")
	repo := stock.NewRepo(pool)

	_, err := repo.Adjust(context.Background(), 0, "soho", 1, "uid-1", "")
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = repo.Adjust(context.Background(), 1, "", 1, "uid-1", "")
	assert.ErrorIs(t, err, shared.ErrValidation)
}
