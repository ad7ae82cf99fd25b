// Package types defines the shared domain model for the sniper core:
// wallets, positions, trades and the ephemeral event structs that flow
// between the scanner, the engine and the execution gateway.
package types

import "time"

type PositionStatus string

const (
	PositionOpen   PositionStatus = "open"
	PositionClosed PositionStatus = "closed"
)

type TradeSide string

const (
	SideBuy  TradeSide = "buy"
	SideSell TradeSide = "sell"
)

// ExecutionMode controls how aggressively the gateway prices an order.
type ExecutionMode string

const (
	ModeAggressive   ExecutionMode = "aggressive"
	ModeBalanced     ExecutionMode = "balanced"
	ModeConservative ExecutionMode = "conservative"
)

// Account is an independently funded wallet. Busy gating lives in the
// engine's in-memory state; the persisted flag is a best-effort mirror.
type Account struct {
	ID              string
	Pubkey          string
	KeyPath         string  // path to the signing credential
	RiskPctPerTrade float64
	Balance         float64 // base units, advisory (refreshed from the gateway)
	Busy            bool
	DailyPnL        float64
	TotalPnL        float64
}

// Position is one holding of one mint by one account. BaseQty and AvgCost
// are fixed at creation from the confirmed fill and never change; the only
// permitted mutation is flipping Status to closed.
type Position struct {
	ID          string
	AccountID   string
	Mint        string
	BaseQty     float64
	AvgCost     float64
	TPPct       float64
	SLPct       float64
	TrailingPct float64
	Status      PositionStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Trade is an append-only ledger entry, immutable once written.
type Trade struct {
	ID         string
	AccountID  string
	PositionID string
	Side       TradeSide
	Qty        float64
	Price      float64
	Fee        float64
	TxSig      string
	Timestamp  time.Time
}

// RealizedPnL records the outcome of exactly one closed position.
type RealizedPnL struct {
	PositionID    string
	RealizedBase  float64 // base asset (SOL)
	RealizedQuote float64 // quote currency (USD)
	Timestamp     time.Time
}

// ListingCandidate is a newly detected launch event. Ephemeral: evaluated
// once by the safety filter, never persisted.
type ListingCandidate struct {
	Mint                  string    `json:"mint"`
	PoolAddress           string    `json:"poolAddress"`
	Venue                 string    `json:"venue"`
	Timestamp             time.Time `json:"timestamp"`
	LiquidityQuote        float64   `json:"liquidityQuote"`
	CreatorAddress        string    `json:"creatorAddress"`
	LiquidityLocked       bool      `json:"liquidityLocked"`
	MintAuthorityRevoked  bool      `json:"mintAuthorityRevoked"`
	CreatorSupplyFraction float64   `json:"creatorSupplyFraction"`
	Flags                 []string  `json:"flags"`
}

// TradeIntent is the order the engine asks the gateway to execute.
type TradeIntent struct {
	Mint        string        `json:"mint"`
	Route       string        `json:"route"`
	AccountID   string        `json:"accountId"`
	Size        float64       `json:"size"`        // base units
	MaxSlippage float64       `json:"maxSlippage"` // fraction, e.g. 0.05
	Mode        ExecutionMode `json:"mode"`
}

// PriceUpdate is one tick of the price feed for a subscribed mint.
type PriceUpdate struct {
	Mint      string    `json:"mint"`
	Price     float64   `json:"price"`
	Timestamp time.Time `json:"timestamp"`
	Volume24h float64   `json:"volume24h"`
	Change24h float64   `json:"change24h"`
}

// Notification is the payload fanned out to an account's subscribers.
type Notification struct {
	Title string         `json:"title"`
	Body  string         `json:"body"`
	Data  map[string]any `json:"data,omitempty"`
}
