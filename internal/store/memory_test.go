package store

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portfolioinsight/internal/performance"
)

func TestMemoryPortfolioLifecycle(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	uid := uuid.New()

	p := &Portfolio{ID: uuid.New(), UserID: uid, Name: "Main", CreatedAt: time.Now().UTC()}
	require.NoError(t, m.CreatePortfolio(ctx, p))

	exists, err := m.PortfolioExists(ctx, p.ID, uid)
	require.NoError(t, err)
	assert.True(t, exists)

	// Wrong owner.
	exists, err = m.PortfolioExists(ctx, p.ID, uuid.New())
	require.NoError(t, err)
	assert.False(t, exists)

	portfolios, err := m.Portfolios(ctx, uid)
	require.NoError(t, err)
	require.Len(t, portfolios, 1)
	assert.Equal(t, "Main", portfolios[0].Name)
}

func TestMemoryEnsureAssetIdempotent(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	first, err := m.EnsureAsset(ctx, "AAPL", "Apple Inc.")
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := m.EnsureAsset(ctx, "AAPL", "Apple Inc.")
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, first.ID, second.ID)

	byID, err := m.Asset(ctx, first.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, "AAPL", byID.Symbol)

	missing, err := m.Asset(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestMemoryTransactionsOrderedAndBounded(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()
	portfolioID := uuid.New()

	asset, err := m.EnsureAsset(ctx, "AAPL", "Apple Inc.")
	require.NoError(t, err)

	mk := func(offset int) *performance.Transaction {
		q := decimal.NewFromInt(10)
		p := decimal.NewFromInt(100)
		return &performance.Transaction{
			ID:          uuid.New(),
			PortfolioID: portfolioID,
			AssetID:     asset.ID,
			Symbol:      asset.Symbol,
			Kind:        performance.Buy,
			Date:        time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset),
			Quantity:    q,
			UnitPrice:   p,
			Amount:      q.Mul(p),
		}
	}

	// Insert out of order.
	require.NoError(t, m.CreateTransaction(ctx, mk(20)))
	require.NoError(t, m.CreateTransaction(ctx, mk(0)))
	require.NoError(t, m.CreateTransaction(ctx, mk(10)))

	all, err := m.Transactions(ctx, portfolioID, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].Date.Before(all[1].Date))
	assert.True(t, all[1].Date.Before(all[2].Date))

	// The through bound excludes later trades.
	bounded, err := m.Transactions(ctx, portfolioID, time.Date(2023, 1, 12, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Len(t, bounded, 2)
}
