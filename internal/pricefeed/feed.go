// Package pricefeed maintains the set of mints the engine is watching and
// periodically publishes one price update per subscribed mint. The cache is
// volatile; after a restart the engine re-subscribes every mint backing an
// open position.
package pricefeed

import (
	"context"
	"sync"
	"time"

	"snatcher/internal/logger"
	"snatcher/internal/types"

	"golang.org/x/sync/errgroup"
)

// Source fetches the current price for one mint. Implementations must be
// safe for concurrent use; the feed queries all subscribed mints in
// parallel on every tick.
type Source interface {
	FetchPrice(ctx context.Context, mint string) (types.PriceUpdate, error)
}

const (
	defaultInterval   = time.Second
	defaultFetchLimit = 8
	updateBuffer      = 256
)

// Feed polls a Source for every subscribed mint on a fixed tick and
// publishes the results on Updates(). A failed fetch for one mint never
// blocks the others: it is logged and skipped.
type Feed struct {
	source   Source
	interval time.Duration

	mu    sync.Mutex
	subs  map[string]struct{}
	cache map[string]types.PriceUpdate

	updates chan types.PriceUpdate
	stopCh  chan struct{}
	wg      sync.WaitGroup
}

func New(source Source, interval time.Duration) *Feed {
	if interval <= 0 {
		interval = defaultInterval
	}
	return &Feed{
		source:   source,
		interval: interval,
		subs:     make(map[string]struct{}),
		cache:    make(map[string]types.PriceUpdate),
		updates:  make(chan types.PriceUpdate, updateBuffer),
		stopCh:   make(chan struct{}),
	}
}

func (f *Feed) Start() {
	f.wg.Add(1)
	go f.run()
}

func (f *Feed) Stop() {
	close(f.stopCh)
	f.wg.Wait()
}

// Updates returns the stream of price events. The channel is buffered; if
// the consumer falls behind, ticks are dropped rather than stalling the
// feed loop.
func (f *Feed) Updates() <-chan types.PriceUpdate {
	return f.updates
}

// Subscribe adds a mint to the polling set. Re-subscribing is a no-op.
func (f *Feed) Subscribe(mint string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[mint]; ok {
		return
	}
	f.subs[mint] = struct{}{}
	logger.Infof("pricefeed: subscribed %s (%d total)", mint, len(f.subs))
}

// Unsubscribe removes a mint and drops its cached price. Removing an
// unknown mint is a no-op.
func (f *Feed) Unsubscribe(mint string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.subs[mint]; !ok {
		return
	}
	delete(f.subs, mint)
	delete(f.cache, mint)
	logger.Infof("pricefeed: unsubscribed %s (%d remaining)", mint, len(f.subs))
}

// LastPrice returns the cached update for a mint, if any.
func (f *Feed) LastPrice(mint string) (types.PriceUpdate, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	upd, ok := f.cache[mint]
	return upd, ok
}

func (f *Feed) run() {
	defer f.wg.Done()
	ticker := time.NewTicker(f.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			f.poll()
		case <-f.stopCh:
			return
		}
	}
}

func (f *Feed) poll() {
	f.mu.Lock()
	mints := make([]string, 0, len(f.subs))
	for mint := range f.subs {
		mints = append(mints, mint)
	}
	f.mu.Unlock()

	if len(mints) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), f.interval*2)
	defer cancel()

	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(defaultFetchLimit)
	for _, mint := range mints {
		mint := mint
		group.Go(func() error {
			upd, err := f.source.FetchPrice(ctx, mint)
			if err != nil {
				// Isolate: one bad mint must not starve the rest.
				logger.Warnf("pricefeed: fetch %s failed: %v", mint, err)
				return nil
			}
			f.publish(upd)
			return nil
		})
	}
	_ = group.Wait()
}

func (f *Feed) publish(upd types.PriceUpdate) {
	f.mu.Lock()
	if _, ok := f.subs[upd.Mint]; !ok {
		// Unsubscribed while the fetch was in flight.
		f.mu.Unlock()
		return
	}
	f.cache[upd.Mint] = upd
	f.mu.Unlock()

	select {
	case f.updates <- upd:
	default:
		logger.Warnf("pricefeed: update channel full, dropping tick for %s", upd.Mint)
	}
}
