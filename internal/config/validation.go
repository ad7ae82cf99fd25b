package config

import (
	"fmt"
	"strings"
)

// validate checks shape only. Threshold plausibility is the operator's
// call; a misconfigured filter should reject listings, not boot.
func validate(c *Config) error {
	if strings.TrimSpace(c.Database.Path) == "" {
		return fmt.Errorf("database.path cannot be empty")
	}
	if strings.TrimSpace(c.Executor.BaseURL) == "" {
		return fmt.Errorf("executor.base_url cannot be empty")
	}
	if strings.TrimSpace(c.PriceFeed.BaseURL) == "" {
		return fmt.Errorf("price_feed.base_url cannot be empty")
	}
	if c.PriceFeed.IntervalSeconds <= 0 {
		return fmt.Errorf("price_feed.interval_seconds must be > 0")
	}
	if err := c.Safety.validate(); err != nil {
		return err
	}
	if err := c.Strategy.validate(); err != nil {
		return err
	}
	if err := validateWallets(c.Wallets); err != nil {
		return err
	}
	return c.Notifications.validate(c.Wallets)
}

func (s *SafetyConfig) validate() error {
	if s.MinLiquidity < 0 {
		return fmt.Errorf("safety.min_liquidity must be >= 0")
	}
	if s.MaxDevSupplyFraction < 0 || s.MaxDevSupplyFraction > 1 {
		return fmt.Errorf("safety.max_dev_supply_fraction must be in [0,1]")
	}
	if s.MaxCreatorSupplyFraction < 0 || s.MaxCreatorSupplyFraction > 1 {
		return fmt.Errorf("safety.max_creator_supply_fraction must be in [0,1]")
	}
	return nil
}

func (s *StrategyConfig) validate() error {
	if s.TPPct <= 0 {
		return fmt.Errorf("strategy.tp_pct must be > 0")
	}
	if s.SLPct <= 0 || s.SLPct >= 1 {
		return fmt.Errorf("strategy.sl_pct must be in (0,1)")
	}
	if s.TrailingPct <= 0 || s.TrailingPct >= 1 {
		return fmt.Errorf("strategy.trailing_pct must be in (0,1)")
	}
	if s.QuoteRate <= 0 {
		return fmt.Errorf("strategy.quote_rate must be > 0")
	}
	if s.MinPositionSize < 0 {
		return fmt.Errorf("strategy.min_position_size must be >= 0")
	}
	return nil
}

func validateWallets(wallets []WalletConfig) error {
	if len(wallets) == 0 {
		return fmt.Errorf("wallets requires at least one entry")
	}
	seen := make(map[string]bool, len(wallets))
	for i, w := range wallets {
		id := strings.TrimSpace(w.ID)
		if id == "" {
			return fmt.Errorf("wallets[%d] missing id", i)
		}
		if seen[id] {
			return fmt.Errorf("duplicate wallet id: %s", id)
		}
		seen[id] = true
		if strings.TrimSpace(w.Pubkey) == "" {
			return fmt.Errorf("wallet %s missing pubkey", id)
		}
		if w.RiskPctPerTrade < 0 || w.RiskPctPerTrade > 1 {
			return fmt.Errorf("wallet %s risk_pct_per_trade must be in [0,1]", id)
		}
	}
	return nil
}

func (n *NotificationsConfig) validate(wallets []WalletConfig) error {
	known := make(map[string]bool, len(wallets))
	for _, w := range wallets {
		known[strings.TrimSpace(w.ID)] = true
	}
	for i, hook := range n.Webhooks {
		if strings.TrimSpace(hook.URL) == "" {
			return fmt.Errorf("notifications.webhooks[%d] missing url", i)
		}
		walletID := strings.TrimSpace(hook.WalletID)
		if walletID == "" {
			return fmt.Errorf("notifications.webhooks[%d] missing wallet_id", i)
		}
		if !known[walletID] {
			return fmt.Errorf("notifications.webhooks[%d] references unknown wallet %s", i, walletID)
		}
	}
	return nil
}
