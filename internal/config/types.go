package config

import (
	"strings"

	"snatcher/internal/safety"
)

// Config is the full snatcher configuration.
type Config struct {
	App           AppConfig           `toml:"app"`
	Database      DatabaseConfig      `toml:"database"`
	Executor      ExecutorConfig      `toml:"executor"`
	PriceFeed     PriceFeedConfig     `toml:"price_feed"`
	Scanner       ScannerConfig       `toml:"scanner"`
	Safety        SafetyConfig        `toml:"safety"`
	Strategy      StrategyConfig      `toml:"strategy"`
	Wallets       []WalletConfig      `toml:"wallets"`
	Notifications NotificationsConfig `toml:"notifications"`
}

type AppConfig struct {
	Env      string `toml:"env"`
	LogLevel string `toml:"log_level"`
	LogPath  string `toml:"log_path"`
}

type DatabaseConfig struct {
	Path string `toml:"path"`
}

// ExecutorConfig points at the transaction executor gateway.
type ExecutorConfig struct {
	BaseURL string `toml:"base_url"`
}

type PriceFeedConfig struct {
	BaseURL         string `toml:"base_url"`
	IntervalSeconds int    `toml:"interval_seconds"`
}

// ScannerConfig points at the listing event websocket.
type ScannerConfig struct {
	WSURL string `toml:"ws_url"`
}

// SafetyConfig mirrors safety.Settings in file form. Values are validated
// for shape only; thresholds are taken as configured.
type SafetyConfig struct {
	MinLiquidity                float64  `toml:"min_liquidity"`
	MaxDevSupplyFraction        float64  `toml:"max_dev_supply_fraction"`
	Blacklist                   []string `toml:"blacklist"`
	RequireLiquidityLocked      bool     `toml:"require_liquidity_locked"`
	RequireMintAuthorityRevoked bool     `toml:"require_mint_authority_revoked"`
	MaxCreatorSupplyFraction    float64  `toml:"max_creator_supply_fraction"`
}

// Settings converts the file form to the engine's runtime thresholds.
func (s SafetyConfig) Settings() safety.Settings {
	blacklist := make([]string, 0, len(s.Blacklist))
	for _, mint := range s.Blacklist {
		mint = strings.TrimSpace(mint)
		if mint != "" {
			blacklist = append(blacklist, mint)
		}
	}
	return safety.Settings{
		MinLiquidity:                s.MinLiquidity,
		MaxDevSupplyFraction:        s.MaxDevSupplyFraction,
		Blacklist:                   blacklist,
		RequireLiquidityLocked:      s.RequireLiquidityLocked,
		RequireMintAuthorityRevoked: s.RequireMintAuthorityRevoked,
		MaxCreatorSupplyFraction:    s.MaxCreatorSupplyFraction,
	}
}

// StrategyConfig carries the exit thresholds stamped onto new positions.
type StrategyConfig struct {
	TPPct           float64 `toml:"tp_pct"`
	SLPct           float64 `toml:"sl_pct"`
	TrailingPct     float64 `toml:"trailing_pct"`
	QuoteRate       float64 `toml:"quote_rate"`
	MinPositionSize float64 `toml:"min_position_size"`
}

// WalletConfig declares one trading account. The engine seeds the store
// from these at startup.
type WalletConfig struct {
	ID              string  `toml:"id"`
	Pubkey          string  `toml:"pubkey"`
	KeyPath         string  `toml:"key_path"`
	RiskPctPerTrade float64 `toml:"risk_pct_per_trade"`
}

type NotificationsConfig struct {
	Webhooks []WebhookConfig `toml:"webhooks"`
}

// WebhookConfig binds one push endpoint to one wallet.
type WebhookConfig struct {
	WalletID string `toml:"wallet_id"`
	URL      string `toml:"url"`
}

// keySet tracks which config paths were explicitly set in the file, so
// defaults never override a deliberate zero value.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	if k == nil || path == "" {
		return
	}
	k[strings.ToLower(path)] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if k == nil {
		return false
	}
	_, ok := k[strings.ToLower(path)]
	return ok
}
