package inventory_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salonops/salon-ledger/internal/domain/inventory"
	"github.com/salonops/salon-ledger/internal/testutil"
)

func TestAdjust_LazyCreateAndClamp(t *testing.T) {
	pool := testutil.Pool(t, "../../../migrations")
	ctx := context.Background()
	repo := inventory.NewRepo(pool)

	// Unlike the primary store, an unseen (product, branch) pair is created
	// on first adjustment rather than rejected.
	adj, err := repo.Adjust(ctx, 777001, "soho", 5, "uid-1", "initial stock")
	require.NoError(t, err)
	assert.Equal(t, int64(0), adj.Before)
	assert.Equal(t, int64(5), adj.After)

	adj, err = repo.Adjust(ctx, 777001, "soho", -1000, "uid-1", "over-deduct")
	require.NoError(t, err)
	assert.Equal(t, int64(5), adj.Before)
	assert.Equal(t, int64(0), adj.After, "legacy store clamps at zero")

	rec, err := repo.Get(ctx, 777001, "soho")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, int64(0), rec.Quantity)
}

func TestAdjust_ClampOnCreate(t *testing.T) {
	pool := testutil.Pool(t, "../../../migrations")
	ctx := context.Background()
	repo := inventory.NewRepo(pool)

	adj, err := repo.Adjust(ctx, 777002, "soho", -4, "uid-1", "deduct before stock")
	require.NoError(t, err)
	assert.Equal(t, int64(0), adj.Before)
	assert.Equal(t, int64(0), adj.After)
}

func TestGet_Missing(t *testing.T) {
	pool := testutil.Pool(t, "../../../migrations")
	repo := inventory.NewRepo(pool)

	rec, err := repo.Get(context.Background(), 777999, "nowhere")
	require.NoError(t, err)
	assert.Nil(t, rec)
}
