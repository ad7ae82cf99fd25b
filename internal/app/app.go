// Package app wires the configured components together and supervises
// their lifecycles.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"snatcher/internal/config"
	"snatcher/internal/engine"
	"snatcher/internal/gateway/executor"
	"snatcher/internal/gateway/notifier"
	"snatcher/internal/listing"
	"snatcher/internal/logger"
	"snatcher/internal/pricefeed"
	"snatcher/internal/safety"
	"snatcher/internal/store"
	"snatcher/internal/store/sqlite"
	"snatcher/internal/types"

	"golang.org/x/sync/errgroup"
)

type App struct {
	cfg     *config.Config
	store   store.Store
	feed    *pricefeed.Feed
	engine  *engine.Engine
	scanner *listing.Scanner
	watcher *config.Watcher
}

// NewApp builds the application from a loaded config. cfgPath is watched
// so safety threshold edits apply without a restart.
func NewApp(cfg *config.Config, cfgPath string) (*App, error) {
	if cfg == nil {
		return nil, fmt.Errorf("nil config")
	}

	st, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store failed: %w", err)
	}
	if err := seedAccounts(context.Background(), st, cfg.Wallets); err != nil {
		_ = st.Close()
		return nil, err
	}

	exec, err := executor.NewClient(cfg.Executor.BaseURL)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("building executor client failed: %w", err)
	}

	source, err := pricefeed.NewQuoteSource(cfg.PriceFeed.BaseURL)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("building price source failed: %w", err)
	}
	feed := pricefeed.New(source, time.Duration(cfg.PriceFeed.IntervalSeconds)*time.Second)

	dispatcher := notifier.NewDispatcher()
	for _, hook := range cfg.Notifications.Webhooks {
		dispatcher.Subscribe(hook.WalletID, notifier.NewWebhookSubscriber(hook.URL))
	}

	eng := engine.New(st, exec, feed, dispatcher, cfg.Safety.Settings(), engine.Config{
		TPPct:           cfg.Strategy.TPPct,
		SLPct:           cfg.Strategy.SLPct,
		TrailingPct:     cfg.Strategy.TrailingPct,
		QuoteRate:       cfg.Strategy.QuoteRate,
		MinPositionSize: cfg.Strategy.MinPositionSize,
	})

	watcher, err := config.NewWatcher(cfgPath)
	if err != nil {
		_ = st.Close()
		return nil, fmt.Errorf("watching config failed: %w", err)
	}
	watcher.OnChange(func(s safety.Settings) {
		eng.UpdateSettings(s)
	})

	scanner := listing.NewScanner(cfg.Scanner.WSURL, eng)

	return &App{
		cfg:     cfg,
		store:   st,
		feed:    feed,
		engine:  eng,
		scanner: scanner,
		watcher: watcher,
	}, nil
}

// Run starts the price feed, the engine and the listing scanner and
// blocks until ctx is cancelled or a component fails.
func (a *App) Run(ctx context.Context) error {
	a.feed.Start()
	defer a.feed.Stop()

	if err := a.engine.Start(ctx); err != nil {
		return fmt.Errorf("starting engine failed: %w", err)
	}
	defer a.engine.Stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.scanner.Run(ctx)
	})

	logger.Infof("snatcher running (env=%s, wallets=%d)", a.cfg.App.Env, len(a.cfg.Wallets))
	err := group.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// Close releases the store. Call after Run returns.
func (a *App) Close() {
	if err := a.store.Close(); err != nil {
		logger.Warnf("closing store failed: %v", err)
	}
}

// seedAccounts inserts configured wallets the store does not know yet.
// Existing accounts keep their balance and pnl counters.
func seedAccounts(ctx context.Context, st store.Store, wallets []config.WalletConfig) error {
	existing, err := st.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("listing accounts failed: %w", err)
	}
	known := make(map[string]bool, len(existing))
	for _, a := range existing {
		known[a.ID] = true
	}
	for _, w := range wallets {
		if known[w.ID] {
			continue
		}
		acct := types.Account{
			ID:              w.ID,
			Pubkey:          w.Pubkey,
			KeyPath:         w.KeyPath,
			RiskPctPerTrade: w.RiskPctPerTrade,
		}
		if err := st.UpsertAccount(ctx, acct); err != nil {
			return fmt.Errorf("seeding account %s failed: %w", w.ID, err)
		}
		logger.Infof("seeded account %s (%s)", w.ID, w.Pubkey)
	}
	return nil
}
