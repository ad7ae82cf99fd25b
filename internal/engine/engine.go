// Package engine coordinates listing and price events against per-account
// state. Each account runs its own runner goroutine consuming a private
// FIFO queue, so events for one account can never race while different
// accounts proceed independently. The busy flag is the sole entry gate and
// is flipped with a compare-and-swap before any external call.
package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"snatcher/internal/gateway/executor"
	"snatcher/internal/logger"
	"snatcher/internal/safety"
	"snatcher/internal/store"
	"snatcher/internal/types"
)

// PriceFeed is the subset of the price feed the engine drives.
type PriceFeed interface {
	Subscribe(mint string)
	Unsubscribe(mint string)
	Updates() <-chan types.PriceUpdate
}

// Notifier fans a notification out to an account's subscribers.
// Implementations never return errors; delivery is best-effort.
type Notifier interface {
	Notify(ctx context.Context, accountID string, n types.Notification)
}

// Config carries the strategy constants applied to every new position.
type Config struct {
	TPPct           float64
	SLPct           float64
	TrailingPct     float64
	QuoteRate       float64 // fixed base→quote conversion used for realized pnl
	MinPositionSize float64 // entries sized below this are skipped
}

const (
	defaultQuoteRate   = 100.0
	defaultMinPosition = 0.01
	entryFee           = 0.0005
	exitSlippage       = 0.10
	runnerQueueSize    = 256
	listingQueueSize   = 64
)

func (c *Config) applyDefaults() {
	if c.TPPct <= 0 {
		c.TPPct = 0.5
	}
	if c.SLPct <= 0 {
		c.SLPct = 0.2
	}
	if c.TrailingPct <= 0 {
		c.TrailingPct = 0.15
	}
	if c.QuoteRate <= 0 {
		c.QuoteRate = defaultQuoteRate
	}
	if c.MinPositionSize <= 0 {
		c.MinPositionSize = defaultMinPosition
	}
}

// Engine owns the account runners and multiplexes the two inbound event
// streams into them.
type Engine struct {
	store    store.Store
	exec     executor.Executor
	feed     PriceFeed
	notifier Notifier
	cfg      Config

	settings atomic.Pointer[safety.Settings]
	nowFn    func() time.Time

	mu       sync.Mutex
	runners  map[string]*runner
	watchers map[string]int // mint -> open positions referencing it

	listings chan types.ListingCandidate
	stopCh   chan struct{}
	wg       sync.WaitGroup
	started  bool
}

func New(st store.Store, exec executor.Executor, feed PriceFeed, notifier Notifier, settings safety.Settings, cfg Config) *Engine {
	cfg.applyDefaults()
	e := &Engine{
		store:    st,
		exec:     exec,
		feed:     feed,
		notifier: notifier,
		cfg:      cfg,
		nowFn:    time.Now,
		runners:  make(map[string]*runner),
		watchers: make(map[string]int),
		listings: make(chan types.ListingCandidate, listingQueueSize),
		stopCh:   make(chan struct{}),
	}
	e.settings.Store(&settings)
	return e
}

// Start loads accounts and open positions from the store, restores busy
// state and price subscriptions, and launches the runner goroutines.
func (e *Engine) Start(ctx context.Context) error {
	e.mu.Lock()
	if e.started {
		e.mu.Unlock()
		return fmt.Errorf("engine already started")
	}
	e.started = true
	e.mu.Unlock()

	accounts, err := e.store.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("loading accounts failed: %w", err)
	}
	if len(accounts) == 0 {
		logger.Warnf("engine: no accounts configured")
	}
	for _, acct := range accounts {
		r := newRunner(e, acct)
		e.runners[acct.ID] = r
		logger.Infof("engine: loaded account %s (%s)", acct.ID, acct.Pubkey)
	}

	open, err := e.store.ListOpenPositions(ctx)
	if err != nil {
		return fmt.Errorf("loading open positions failed: %w", err)
	}
	for i := range open {
		pos := open[i]
		r, ok := e.runners[pos.AccountID]
		if !ok {
			logger.Warnf("engine: open position %s references unknown account %s", pos.ID, pos.AccountID)
			continue
		}
		// An account with an open position resumes Busy; the price feed
		// cache is volatile, so every backing mint is re-subscribed here.
		r.restorePosition(pos)
		e.retainMint(pos.Mint)
		logger.Infof("engine: restored open position %s (%s) for account %s", pos.ID, pos.Mint, pos.AccountID)
	}

	for _, r := range e.runners {
		e.wg.Add(1)
		go r.loop()
	}
	e.wg.Add(1)
	go e.dispatchLoop()

	logger.Infof("engine: started with %d accounts, %d open positions", len(accounts), len(open))
	return nil
}

func (e *Engine) Stop() {
	close(e.stopCh)
	e.wg.Wait()
}

// SubmitListing feeds one launch event into the engine. Every account
// runner evaluates it independently.
func (e *Engine) SubmitListing(c types.ListingCandidate) {
	select {
	case e.listings <- c:
	case <-e.stopCh:
	default:
		logger.Warnf("engine: listing queue full, dropping %s", c.Mint)
	}
}

// UpdateSettings swaps the safety thresholds applied to future listings.
func (e *Engine) UpdateSettings(s safety.Settings) {
	e.settings.Store(&s)
	logger.Infof("engine: safety settings updated (minLiquidity=%.0f)", s.MinLiquidity)
}

func (e *Engine) currentSettings() safety.Settings {
	return *e.settings.Load()
}

// AccountSnapshot reports an account's engine-side state.
func (e *Engine) AccountSnapshot(accountID string) (types.Account, bool) {
	e.mu.Lock()
	r, ok := e.runners[accountID]
	e.mu.Unlock()
	if !ok {
		return types.Account{}, false
	}
	return r.snapshot(), true
}

func (e *Engine) dispatchLoop() {
	defer e.wg.Done()
	for {
		select {
		case c := <-e.listings:
			e.fanOut(runnerEvent{listing: &c})
		case upd, ok := <-e.feed.Updates():
			if !ok {
				return
			}
			e.fanOut(runnerEvent{price: &upd})
		case <-e.stopCh:
			return
		}
	}
}

func (e *Engine) fanOut(evt runnerEvent) {
	e.mu.Lock()
	targets := make([]*runner, 0, len(e.runners))
	for _, r := range e.runners {
		targets = append(targets, r)
	}
	e.mu.Unlock()

	for _, r := range targets {
		r.enqueue(evt)
	}
}

// retainMint subscribes the feed on the first open position for a mint.
func (e *Engine) retainMint(mint string) {
	e.mu.Lock()
	e.watchers[mint]++
	first := e.watchers[mint] == 1
	e.mu.Unlock()
	if first {
		e.feed.Subscribe(mint)
	}
}

// releaseMint unsubscribes once no open position references the mint.
func (e *Engine) releaseMint(mint string) {
	e.mu.Lock()
	if e.watchers[mint] == 0 {
		e.mu.Unlock()
		return
	}
	e.watchers[mint]--
	last := e.watchers[mint] == 0
	if last {
		delete(e.watchers, mint)
	}
	e.mu.Unlock()
	if last {
		e.feed.Unsubscribe(mint)
	}
}
