package config

import "strings"

const (
	defaultAppEnv           = "dev"
	defaultAppLogLevel      = "info"
	defaultAppLogPath       = "/data/logs/snatcher.log"
	defaultDatabasePath     = "/data/db/snatcher.db"
	defaultExecutorBaseURL  = "http://executor:8080"
	defaultFeedBaseURL      = "https://price.jup.ag/v4"
	defaultFeedInterval     = 1
	defaultScannerWSURL     = "ws://scanner:8090/listings"
	defaultMinLiquidity     = 50_000
	defaultMaxDevSupply     = 0.25
	defaultMaxCreatorSupply = 0.3
	defaultTPPct            = 0.5
	defaultSLPct            = 0.2
	defaultTrailingPct      = 0.15
	defaultQuoteRate        = 100
	defaultMinPositionSize  = 0.01
)

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Database.applyDefaults(keys)
	c.Executor.applyDefaults(keys)
	c.PriceFeed.applyDefaults(keys)
	c.Scanner.applyDefaults(keys)
	c.Safety.applyDefaults(keys)
	c.Strategy.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("app.env", &a.Env, defaultAppEnv),
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_path", &a.LogPath, defaultAppLogPath),
	)
}

func (d *DatabaseConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("database.path", &d.Path, defaultDatabasePath),
	)
}

func (e *ExecutorConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("executor.base_url", &e.BaseURL, defaultExecutorBaseURL),
	)
}

func (p *PriceFeedConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("price_feed.base_url", &p.BaseURL, defaultFeedBaseURL),
		fieldDefault{
			key:   "price_feed.interval_seconds",
			need:  func() bool { return p.IntervalSeconds <= 0 },
			apply: func() { p.IntervalSeconds = defaultFeedInterval },
		},
	)
}

func (s *ScannerConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		stringFieldDefault("scanner.ws_url", &s.WSURL, defaultScannerWSURL),
	)
}

func (s *SafetyConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "safety.min_liquidity",
			need:  func() bool { return s.MinLiquidity <= 0 },
			apply: func() { s.MinLiquidity = defaultMinLiquidity },
		},
		fieldDefault{
			key:   "safety.max_dev_supply_fraction",
			need:  func() bool { return s.MaxDevSupplyFraction <= 0 },
			apply: func() { s.MaxDevSupplyFraction = defaultMaxDevSupply },
		},
		fieldDefault{
			key:   "safety.max_creator_supply_fraction",
			need:  func() bool { return s.MaxCreatorSupplyFraction <= 0 },
			apply: func() { s.MaxCreatorSupplyFraction = defaultMaxCreatorSupply },
		},
		boolFieldDefault("safety.require_liquidity_locked", &s.RequireLiquidityLocked, true),
		boolFieldDefault("safety.require_mint_authority_revoked", &s.RequireMintAuthorityRevoked, true),
	)
}

func (s *StrategyConfig) applyDefaults(keys keySet) {
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "strategy.tp_pct",
			need:  func() bool { return s.TPPct <= 0 },
			apply: func() { s.TPPct = defaultTPPct },
		},
		fieldDefault{
			key:   "strategy.sl_pct",
			need:  func() bool { return s.SLPct <= 0 },
			apply: func() { s.SLPct = defaultSLPct },
		},
		fieldDefault{
			key:   "strategy.trailing_pct",
			need:  func() bool { return s.TrailingPct <= 0 },
			apply: func() { s.TrailingPct = defaultTrailingPct },
		},
		fieldDefault{
			key:   "strategy.quote_rate",
			need:  func() bool { return s.QuoteRate <= 0 },
			apply: func() { s.QuoteRate = defaultQuoteRate },
		},
		fieldDefault{
			key:   "strategy.min_position_size",
			need:  func() bool { return s.MinPositionSize <= 0 },
			apply: func() { s.MinPositionSize = defaultMinPositionSize },
		},
	)
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func boolFieldDefault(key string, target *bool, def bool) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
