// Package notifier fans result notifications out to the subscribers of an
// account. Delivery is strictly best-effort: a failure to one subscriber
// never blocks the others and never reaches the caller.
package notifier

import (
	"context"
	"errors"
	"sync"

	"snatcher/internal/logger"
	"snatcher/internal/types"
)

// ErrSubscriberGone marks a delivery failure meaning the endpoint no longer
// exists. The dispatcher drops such subscribers instead of retrying them.
var ErrSubscriberGone = errors.New("subscriber gone")

// Subscriber delivers one notification to one endpoint.
type Subscriber interface {
	// Endpoint identifies the subscriber for dedup and removal.
	Endpoint() string

	Push(ctx context.Context, n types.Notification) error
}

// Dispatcher keeps the per-account subscriber registry.
type Dispatcher struct {
	mu   sync.Mutex
	subs map[string][]Subscriber
}

func NewDispatcher() *Dispatcher {
	return &Dispatcher{subs: make(map[string][]Subscriber)}
}

// Subscribe registers a subscriber for an account. Registering the same
// endpoint twice is a no-op.
func (d *Dispatcher) Subscribe(accountID string, sub Subscriber) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, existing := range d.subs[accountID] {
		if existing.Endpoint() == sub.Endpoint() {
			return
		}
	}
	d.subs[accountID] = append(d.subs[accountID], sub)
	logger.Infof("notifier: added subscriber %s for account %s", sub.Endpoint(), accountID)
}

// Unsubscribe removes a subscriber by endpoint.
func (d *Dispatcher) Unsubscribe(accountID, endpoint string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.removeLocked(accountID, endpoint)
}

func (d *Dispatcher) removeLocked(accountID, endpoint string) {
	subs := d.subs[accountID]
	for i, sub := range subs {
		if sub.Endpoint() == endpoint {
			d.subs[accountID] = append(subs[:i], subs[i+1:]...)
			logger.Infof("notifier: removed subscriber %s for account %s", endpoint, accountID)
			return
		}
	}
}

// SubscriberCount reports how many subscribers an account has.
func (d *Dispatcher) SubscriberCount(accountID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.subs[accountID])
}

// Notify delivers a notification to every subscriber of the account,
// concurrently. Failures are logged; a subscriber failing with
// ErrSubscriberGone is removed.
func (d *Dispatcher) Notify(ctx context.Context, accountID string, n types.Notification) {
	d.mu.Lock()
	targets := make([]Subscriber, len(d.subs[accountID]))
	copy(targets, d.subs[accountID])
	d.mu.Unlock()

	if len(targets) == 0 {
		logger.Debugf("notifier: no subscribers for account %s", accountID)
		return
	}

	var wg sync.WaitGroup
	for _, sub := range targets {
		sub := sub
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := sub.Push(ctx, n); err != nil {
				logger.Warnf("notifier: delivery to %s failed: %v", sub.Endpoint(), err)
				if errors.Is(err, ErrSubscriberGone) {
					d.mu.Lock()
					d.removeLocked(accountID, sub.Endpoint())
					d.mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()
}
