// Package sqlite implements the store contract on SQLite via gorm.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"snatcher/internal/store"
	"snatcher/internal/store/model"
	"snatcher/internal/types"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type SqliteStore struct {
	db *gorm.DB
}

var _ store.Store = (*SqliteStore)(nil)

func New(path string) (*SqliteStore, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("database path cannot be empty")
	}
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&cache=shared", path)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                                   logger.Default.LogMode(logger.Silent),
		DisableForeignKeyConstraintWhenMigrating: true,
	})
	if err != nil {
		return nil, err
	}
	return newStore(db)
}

// NewFromDB wraps an existing gorm handle; used by tests with an in-memory
// database.
func NewFromDB(db *gorm.DB) (*SqliteStore, error) {
	if db == nil {
		return nil, fmt.Errorf("gorm db cannot be nil")
	}
	return newStore(db)
}

func newStore(db *gorm.DB) (*SqliteStore, error) {
	models := []interface{}{
		&model.AccountModel{},
		&model.PositionModel{},
		&model.TradeModel{},
		&model.RealizedPnLModel{},
	}
	if err := db.AutoMigrate(models...); err != nil {
		return nil, err
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.SetMaxOpenConns(2)
		sqlDB.SetMaxIdleConns(2)
	}
	return &SqliteStore{db: db}, nil
}

func (s *SqliteStore) Close() error {
	if s.db == nil {
		return nil
	}
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *SqliteStore) ListAccounts(ctx context.Context) ([]types.Account, error) {
	var rows []model.AccountModel
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]types.Account, 0, len(rows))
	for _, row := range rows {
		out = append(out, accountFromModel(row))
	}
	return out, nil
}

func (s *SqliteStore) UpsertAccount(ctx context.Context, acct types.Account) error {
	row := model.AccountModel{
		ID:              acct.ID,
		Pubkey:          acct.Pubkey,
		KeyPath:         acct.KeyPath,
		RiskPctPerTrade: acct.RiskPctPerTrade,
		Balance:         acct.Balance,
		Busy:            acct.Busy,
		DailyPnL:        acct.DailyPnL,
		TotalPnL:        acct.TotalPnL,
	}
	return s.db.WithContext(ctx).Save(&row).Error
}

func (s *SqliteStore) UpdateAccountBusy(ctx context.Context, accountID string, busy bool) error {
	return s.db.WithContext(ctx).Model(&model.AccountModel{}).
		Where("id = ?", accountID).
		Update("busy", busy).Error
}

func (s *SqliteStore) UpdateAccountBalance(ctx context.Context, accountID string, balance float64) error {
	return s.db.WithContext(ctx).Model(&model.AccountModel{}).
		Where("id = ?", accountID).
		Update("balance", balance).Error
}

func (s *SqliteStore) AddAccountPnL(ctx context.Context, accountID string, delta float64) error {
	return s.db.WithContext(ctx).Model(&model.AccountModel{}).
		Where("id = ?", accountID).
		Updates(map[string]interface{}{
			"daily_pnl": gorm.Expr("daily_pnl + ?", delta),
			"total_pnl": gorm.Expr("total_pnl + ?", delta),
		}).Error
}

func (s *SqliteStore) CreatePosition(ctx context.Context, pos types.Position) error {
	if pos.ID == "" {
		return fmt.Errorf("position id cannot be empty")
	}
	row := model.PositionModel{
		ID:          pos.ID,
		AccountID:   pos.AccountID,
		Mint:        pos.Mint,
		BaseQty:     pos.BaseQty,
		AvgCost:     pos.AvgCost,
		TPPct:       pos.TPPct,
		SLPct:       pos.SLPct,
		TrailingPct: pos.TrailingPct,
		Status:      string(pos.Status),
		CreatedAt:   pos.CreatedAt,
		UpdatedAt:   pos.UpdatedAt,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *SqliteStore) ClosePosition(ctx context.Context, positionID string) error {
	// Idempotent: already-closed rows are left untouched.
	return s.db.WithContext(ctx).Model(&model.PositionModel{}).
		Where("id = ? AND status = ?", positionID, string(types.PositionOpen)).
		Updates(map[string]interface{}{
			"status":     string(types.PositionClosed),
			"updated_at": time.Now(),
		}).Error
}

func (s *SqliteStore) ListOpenPositions(ctx context.Context) ([]types.Position, error) {
	var rows []model.PositionModel
	err := s.db.WithContext(ctx).
		Where("status = ?", string(types.PositionOpen)).
		Order("created_at").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	out := make([]types.Position, 0, len(rows))
	for _, row := range rows {
		out = append(out, types.Position{
			ID:          row.ID,
			AccountID:   row.AccountID,
			Mint:        row.Mint,
			BaseQty:     row.BaseQty,
			AvgCost:     row.AvgCost,
			TPPct:       row.TPPct,
			SLPct:       row.SLPct,
			TrailingPct: row.TrailingPct,
			Status:      types.PositionStatus(row.Status),
			CreatedAt:   row.CreatedAt,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return out, nil
}

func (s *SqliteStore) AppendTrade(ctx context.Context, trade types.Trade) error {
	row := model.TradeModel{
		ID:         trade.ID,
		AccountID:  trade.AccountID,
		PositionID: trade.PositionID,
		Side:       string(trade.Side),
		Qty:        trade.Qty,
		Price:      trade.Price,
		Fee:        trade.Fee,
		TxSig:      trade.TxSig,
		Timestamp:  trade.Timestamp,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func (s *SqliteStore) AppendRealizedPnL(ctx context.Context, pnl types.RealizedPnL) error {
	row := model.RealizedPnLModel{
		PositionID:    pnl.PositionID,
		RealizedBase:  pnl.RealizedBase,
		RealizedQuote: pnl.RealizedQuote,
		Timestamp:     pnl.Timestamp,
	}
	return s.db.WithContext(ctx).Create(&row).Error
}

func accountFromModel(row model.AccountModel) types.Account {
	return types.Account{
		ID:              row.ID,
		Pubkey:          row.Pubkey,
		KeyPath:         row.KeyPath,
		RiskPctPerTrade: row.RiskPctPerTrade,
		Balance:         row.Balance,
		Busy:            row.Busy,
		DailyPnL:        row.DailyPnL,
		TotalPnL:        row.TotalPnL,
	}
}
