package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trading/backend/internal/domain/shared"
	"github.com/trading/backend/internal/domain/trade"
)

func TestCartRepositorySaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCartItemRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	line, err := trade.NewCartItem(userID, "WIDGET-1", 2)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, line))

	found, err := repo.FindByUserAndSKU(ctx, userID, "WIDGET-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), found.Quantity)

	// Quantity updates land on the same line
	require.NoError(t, found.SetQuantity(7))
	require.NoError(t, repo.Save(ctx, found))
	lines, err := repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	require.Len(t, lines, 1)
	assert.Equal(t, int64(7), lines[0].Quantity)

	_, err = repo.FindByUserAndSKU(ctx, userID, "NO-SUCH-SKU")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCartRepositoryDelete(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormCartItemRepository(db)
	ctx := context.Background()
	userID := uuid.New()

	for _, sku := range []string{"WIDGET-1", "WIDGET-2"} {
		line, err := trade.NewCartItem(userID, sku, 1)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, line))
	}
	other, err := trade.NewCartItem(uuid.New(), "WIDGET-1", 1)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, other))

	require.NoError(t, repo.Delete(ctx, userID, "WIDGET-1"))
	lines, err := repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, lines, 1)

	require.NoError(t, repo.DeleteByUser(ctx, userID))
	lines, err = repo.FindByUser(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, lines)

	// Other users' carts are untouched
	otherLines, err := repo.FindByUser(ctx, other.UserID)
	require.NoError(t, err)
	assert.Len(t, otherLines, 1)
}
