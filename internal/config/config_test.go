package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalConfig = `
wallets:
  - id: w1
    pubkey: pk1
    key_path: /keys/w1.json
    risk_pct_per_trade: 0.02
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, "dev", cfg.App.Env)
	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, defaultDatabasePath, cfg.Database.Path)
	assert.Equal(t, 1, cfg.PriceFeed.IntervalSeconds)
	assert.Equal(t, 50_000.0, cfg.Safety.MinLiquidity)
	assert.Equal(t, 0.25, cfg.Safety.MaxDevSupplyFraction)
	assert.True(t, cfg.Safety.RequireLiquidityLocked)
	assert.True(t, cfg.Safety.RequireMintAuthorityRevoked)
	assert.Equal(t, 0.5, cfg.Strategy.TPPct)
	assert.Equal(t, 0.2, cfg.Strategy.SLPct)
	assert.Equal(t, 0.15, cfg.Strategy.TrailingPct)
	assert.Equal(t, 100.0, cfg.Strategy.QuoteRate)
	assert.Equal(t, 0.01, cfg.Strategy.MinPositionSize)

	require.Len(t, cfg.Wallets, 1)
	assert.Equal(t, "w1", cfg.Wallets[0].ID)
	assert.Equal(t, 0.02, cfg.Wallets[0].RiskPctPerTrade)
}

func TestLoadExplicitZeroSticks(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
safety:
  min_liquidity: 0
  require_liquidity_locked: false
`))
	require.NoError(t, err)
	// Explicitly disabled filters stay disabled.
	assert.Equal(t, 0.0, cfg.Safety.MinLiquidity)
	assert.False(t, cfg.Safety.RequireLiquidityLocked)
	// Untouched siblings still default.
	assert.True(t, cfg.Safety.RequireMintAuthorityRevoked)
}

func TestLoadRejectsBadShapes(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{"no wallets", `app: {env: prod}`},
		{"duplicate wallet id", minimalConfig + `
  - id: w1
    pubkey: pk2
`},
		{"wallet missing pubkey", `
wallets:
  - id: w1
`},
		{"fraction out of range", minimalConfig + `
safety:
  max_dev_supply_fraction: 1.5
`},
		{"sl out of range", minimalConfig + `
strategy:
  sl_pct: 1.2
`},
		{"webhook unknown wallet", minimalConfig + `
notifications:
  webhooks:
    - wallet_id: ghost
      url: http://hooks/1
`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestSafetySettingsConversion(t *testing.T) {
	cfg, err := Load(writeConfig(t, minimalConfig+`
safety:
  min_liquidity: 75000
  blacklist: [" mintX ", "", "mintY"]
`))
	require.NoError(t, err)
	s := cfg.Safety.Settings()
	assert.Equal(t, 75000.0, s.MinLiquidity)
	assert.Equal(t, []string{"mintX", "mintY"}, s.Blacklist)
}

func TestWatcherReportsInitialSettings(t *testing.T) {
	path := writeConfig(t, minimalConfig+`
safety:
  min_liquidity: 123456
`)
	w, err := NewWatcher(path)
	require.NoError(t, err)
	assert.Equal(t, 123456.0, w.Settings().MinLiquidity)
}
