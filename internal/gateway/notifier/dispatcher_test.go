package notifier

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"snatcher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSubscriber struct {
	endpoint string
	err      error

	mu       sync.Mutex
	received []types.Notification
}

func (f *fakeSubscriber) Endpoint() string { return f.endpoint }

func (f *fakeSubscriber) Push(_ context.Context, n types.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.received = append(f.received, n)
	return nil
}

func (f *fakeSubscriber) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.received)
}

func TestNotifyFansOutToAllSubscribers(t *testing.T) {
	d := NewDispatcher()
	a := &fakeSubscriber{endpoint: "ep-a"}
	b := &fakeSubscriber{endpoint: "ep-b"}
	d.Subscribe("w1", a)
	d.Subscribe("w1", b)

	d.Notify(context.Background(), "w1", types.Notification{Title: "Entry Filled"})

	assert.Equal(t, 1, a.count())
	assert.Equal(t, 1, b.count())
}

func TestNotifyIsolatesFailures(t *testing.T) {
	d := NewDispatcher()
	failing := &fakeSubscriber{endpoint: "ep-bad", err: fmt.Errorf("connection refused")}
	healthy := &fakeSubscriber{endpoint: "ep-good"}
	d.Subscribe("w1", failing)
	d.Subscribe("w1", healthy)

	// Must not panic or return anything; healthy delivery still happens.
	d.Notify(context.Background(), "w1", types.Notification{Title: "Exit"})

	assert.Equal(t, 1, healthy.count())
	// Transient failure keeps the subscriber registered.
	assert.Equal(t, 2, d.SubscriberCount("w1"))
}

func TestNotifyRemovesGoneSubscribers(t *testing.T) {
	d := NewDispatcher()
	gone := &fakeSubscriber{endpoint: "ep-gone", err: fmt.Errorf("status=410: %w", ErrSubscriberGone)}
	d.Subscribe("w1", gone)

	d.Notify(context.Background(), "w1", types.Notification{Title: "Exit"})
	assert.Equal(t, 0, d.SubscriberCount("w1"))
}

func TestSubscribeDeduplicatesByEndpoint(t *testing.T) {
	d := NewDispatcher()
	d.Subscribe("w1", &fakeSubscriber{endpoint: "ep"})
	d.Subscribe("w1", &fakeSubscriber{endpoint: "ep"})
	assert.Equal(t, 1, d.SubscriberCount("w1"))

	d.Unsubscribe("w1", "ep")
	assert.Equal(t, 0, d.SubscriberCount("w1"))
}

func TestWebhookSubscriberGoneOn410(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer server.Close()

	sub := NewWebhookSubscriber(server.URL)
	err := sub.Push(context.Background(), types.Notification{Title: "t"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSubscriberGone)
}

func TestWebhookSubscriberDelivers(t *testing.T) {
	var got types.Notification
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body := make([]byte, r.ContentLength)
		_, _ = r.Body.Read(body)
		// Content is JSON encoded Notification; just check it arrived.
		got.Title = string(body)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	sub := NewWebhookSubscriber(server.URL)
	err := sub.Push(context.Background(), types.Notification{Title: "Entry Filled", Body: "mint 1 @ 2"})
	require.NoError(t, err)
	assert.Contains(t, got.Title, "Entry Filled")
}
