package pricefeed

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"snatcher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSource struct {
	mu      sync.Mutex
	prices  map[string]float64
	failing map[string]bool
	fetches map[string]int
}

func newStubSource() *stubSource {
	return &stubSource{
		prices:  make(map[string]float64),
		failing: make(map[string]bool),
		fetches: make(map[string]int),
	}
}

func (s *stubSource) FetchPrice(_ context.Context, mint string) (types.PriceUpdate, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches[mint]++
	if s.failing[mint] {
		return types.PriceUpdate{}, fmt.Errorf("source unavailable")
	}
	return types.PriceUpdate{Mint: mint, Price: s.prices[mint], Timestamp: time.Now()}, nil
}

func (s *stubSource) fetchCount(mint string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.fetches[mint]
}

func collect(t *testing.T, f *Feed, want int, timeout time.Duration) []types.PriceUpdate {
	t.Helper()
	var got []types.PriceUpdate
	deadline := time.After(timeout)
	for len(got) < want {
		select {
		case upd := <-f.Updates():
			got = append(got, upd)
		case <-deadline:
			t.Fatalf("timed out waiting for %d updates, got %d", want, len(got))
		}
	}
	return got
}

func TestFeedPublishesSubscribedMints(t *testing.T) {
	src := newStubSource()
	src.prices["mintA"] = 1.5

	f := New(src, 10*time.Millisecond)
	f.Subscribe("mintA")
	f.Start()
	defer f.Stop()

	updates := collect(t, f, 2, time.Second)
	for _, upd := range updates {
		assert.Equal(t, "mintA", upd.Mint)
		assert.Equal(t, 1.5, upd.Price)
	}

	cached, ok := f.LastPrice("mintA")
	require.True(t, ok)
	assert.Equal(t, 1.5, cached.Price)
}

func TestFeedIsolatesFailingMint(t *testing.T) {
	src := newStubSource()
	src.prices["good"] = 2.0
	src.failing["bad"] = true

	f := New(src, 10*time.Millisecond)
	f.Subscribe("good")
	f.Subscribe("bad")
	f.Start()
	defer f.Stop()

	updates := collect(t, f, 3, time.Second)
	for _, upd := range updates {
		assert.Equal(t, "good", upd.Mint)
	}

	// The failing mint keeps being polled but never lands in the cache.
	assert.Greater(t, src.fetchCount("bad"), 0)
	_, ok := f.LastPrice("bad")
	assert.False(t, ok)
}

func TestSubscribeUnsubscribeIdempotent(t *testing.T) {
	src := newStubSource()
	f := New(src, time.Hour)

	f.Subscribe("m1")
	f.Subscribe("m1")
	f.mu.Lock()
	assert.Len(t, f.subs, 1)
	f.mu.Unlock()

	f.Unsubscribe("m1")
	f.Unsubscribe("m1")
	f.Unsubscribe("never-subscribed")
	f.mu.Lock()
	assert.Empty(t, f.subs)
	f.mu.Unlock()
}

func TestUnsubscribeStopsUpdatesAndClearsCache(t *testing.T) {
	src := newStubSource()
	src.prices["m1"] = 3.0

	f := New(src, 10*time.Millisecond)
	f.Subscribe("m1")
	f.Start()
	defer f.Stop()

	collect(t, f, 1, time.Second)
	f.Unsubscribe("m1")
	_, ok := f.LastPrice("m1")
	assert.False(t, ok)

	// Drain anything already buffered, then make sure the stream stays quiet.
	for {
		select {
		case <-f.Updates():
			continue
		case <-time.After(50 * time.Millisecond):
		}
		break
	}
	select {
	case upd := <-f.Updates():
		t.Fatalf("unexpected update after unsubscribe: %+v", upd)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestQuoteSourceParsesResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "mintX", r.URL.Query().Get("ids"))
		fmt.Fprintf(w, `{"data":{"mintX":{"price":0.0042,"volume24h":120000,"change24h":-0.07}}}`)
	}))
	defer server.Close()

	src, err := NewQuoteSource(server.URL)
	require.NoError(t, err)

	upd, err := src.FetchPrice(context.Background(), "mintX")
	require.NoError(t, err)
	assert.Equal(t, "mintX", upd.Mint)
	assert.InDelta(t, 0.0042, upd.Price, 1e-12)
	assert.InDelta(t, 120000, upd.Volume24h, 1e-9)
	assert.InDelta(t, -0.07, upd.Change24h, 1e-12)
}

func TestQuoteSourceMissingQuote(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"data":{}}`)
	}))
	defer server.Close()

	src, err := NewQuoteSource(server.URL)
	require.NoError(t, err)

	_, err = src.FetchPrice(context.Background(), "mintX")
	assert.Error(t, err)
}
