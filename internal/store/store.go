// Package store defines the persistence contract consumed by the engine.
// Accounts are read at startup and mutated over time; positions flip
// open→closed exactly once; trades and realized pnl are append-only.
package store

import (
	"context"

	"snatcher/internal/types"
)

type Store interface {
	// Accounts.
	ListAccounts(ctx context.Context) ([]types.Account, error)
	UpsertAccount(ctx context.Context, acct types.Account) error
	UpdateAccountBusy(ctx context.Context, accountID string, busy bool) error
	UpdateAccountBalance(ctx context.Context, accountID string, balance float64) error
	// AddAccountPnL adds a realized delta to both daily and total pnl.
	AddAccountPnL(ctx context.Context, accountID string, delta float64) error

	// Positions.
	CreatePosition(ctx context.Context, pos types.Position) error
	// ClosePosition flips status to closed. Closing an already-closed
	// position is a no-op.
	ClosePosition(ctx context.Context, positionID string) error
	ListOpenPositions(ctx context.Context) ([]types.Position, error)

	// Append-only ledgers.
	AppendTrade(ctx context.Context, trade types.Trade) error
	AppendRealizedPnL(ctx context.Context, pnl types.RealizedPnL) error

	Close() error
}
