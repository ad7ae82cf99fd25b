// Package model holds the gorm table definitions backing the store.
package model

import "time"

type AccountModel struct {
	ID              string  `gorm:"column:id;primaryKey"`
	Pubkey          string  `gorm:"column:pubkey;not null"`
	KeyPath         string  `gorm:"column:key_path"`
	RiskPctPerTrade float64 `gorm:"column:risk_pct_per_trade"`
	Balance         float64 `gorm:"column:balance"`
	Busy            bool    `gorm:"column:busy"`
	DailyPnL        float64 `gorm:"column:daily_pnl"`
	TotalPnL        float64 `gorm:"column:total_pnl"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (AccountModel) TableName() string { return "accounts" }

type PositionModel struct {
	ID          string  `gorm:"column:id;primaryKey"`
	AccountID   string  `gorm:"column:account_id;index;not null"`
	Mint        string  `gorm:"column:mint;index;not null"`
	BaseQty     float64 `gorm:"column:base_qty"`
	AvgCost     float64 `gorm:"column:avg_cost"`
	TPPct       float64 `gorm:"column:tp_pct"`
	SLPct       float64 `gorm:"column:sl_pct"`
	TrailingPct float64 `gorm:"column:trailing_pct"`
	Status      string  `gorm:"column:status;index;default:open"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func (PositionModel) TableName() string { return "positions" }

type TradeModel struct {
	ID         string  `gorm:"column:id;primaryKey"`
	AccountID  string  `gorm:"column:account_id;index;not null"`
	PositionID string  `gorm:"column:position_id;index;not null"`
	Side       string  `gorm:"column:side;not null"`
	Qty        float64 `gorm:"column:qty"`
	Price      float64 `gorm:"column:price"`
	Fee        float64 `gorm:"column:fee"`
	TxSig      string  `gorm:"column:tx_sig"`
	Timestamp  time.Time
}

func (TradeModel) TableName() string { return "trades" }

type RealizedPnLModel struct {
	ID            int64   `gorm:"column:id;primaryKey;autoIncrement"`
	PositionID    string  `gorm:"column:position_id;index;not null"`
	RealizedBase  float64 `gorm:"column:realized_base"`
	RealizedQuote float64 `gorm:"column:realized_quote"`
	Timestamp     time.Time
}

func (RealizedPnLModel) TableName() string { return "realized_pnl" }
