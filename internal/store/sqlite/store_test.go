package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"snatcher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SqliteStore {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "snatcher-test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestAccountRoundtrip(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	acct := types.Account{ID: "w1", Pubkey: "pk1", KeyPath: "/keys/w1.json", RiskPctPerTrade: 0.02, Balance: 10}
	require.NoError(t, s.UpsertAccount(ctx, acct))

	require.NoError(t, s.UpdateAccountBusy(ctx, "w1", true))
	require.NoError(t, s.UpdateAccountBalance(ctx, "w1", 12.5))
	require.NoError(t, s.AddAccountPnL(ctx, "w1", 3.0))
	require.NoError(t, s.AddAccountPnL(ctx, "w1", -1.0))

	accounts, err := s.ListAccounts(ctx)
	require.NoError(t, err)
	require.Len(t, accounts, 1)
	got := accounts[0]
	assert.True(t, got.Busy)
	assert.Equal(t, 12.5, got.Balance)
	assert.Equal(t, 2.0, got.DailyPnL)
	assert.Equal(t, 2.0, got.TotalPnL)
}

func TestPositionLifecycle(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	now := time.Now()

	pos := types.Position{
		ID: "p1", AccountID: "w1", Mint: "mintA",
		BaseQty: 100, AvgCost: 0.5,
		TPPct: 0.5, SLPct: 0.2, TrailingPct: 0.15,
		Status: types.PositionOpen, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, s.CreatePosition(ctx, pos))

	open, err := s.ListOpenPositions(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, "mintA", open[0].Mint)
	assert.Equal(t, 0.15, open[0].TrailingPct)

	require.NoError(t, s.ClosePosition(ctx, "p1"))
	open, err = s.ListOpenPositions(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	// Re-closing is a no-op, not an error.
	require.NoError(t, s.ClosePosition(ctx, "p1"))
	require.NoError(t, s.ClosePosition(ctx, "does-not-exist"))
}

func TestLedgersAppend(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.AppendTrade(ctx, types.Trade{
		ID: "t1", AccountID: "w1", PositionID: "p1",
		Side: types.SideBuy, Qty: 100, Price: 0.5, Fee: 0.0005,
		TxSig: "sig1", Timestamp: time.Now(),
	}))
	require.NoError(t, s.AppendRealizedPnL(ctx, types.RealizedPnL{
		PositionID: "p1", RealizedBase: 1.2, RealizedQuote: 120, Timestamp: time.Now(),
	}))
}
