package executor

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"snatcher/internal/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.Handler) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	client, err := NewClient(server.URL)
	require.NoError(t, err)
	return client, server
}

func TestSimulate(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/simulate", r.URL.Path)
		var intent types.TradeIntent
		require.NoError(t, json.NewDecoder(r.Body).Decode(&intent))
		assert.Equal(t, "mintA", intent.Mint)
		fmt.Fprint(w, `{"ok":true,"expectedOutput":123.4,"priceImpact":0.01}`)
	}))

	res, err := client.Simulate(context.Background(), types.TradeIntent{Mint: "mintA"})
	require.NoError(t, err)
	assert.True(t, res.OK)
	assert.Equal(t, 123.4, res.ExpectedOutput)
}

func TestSubmitUnconfirmedIsNotAnError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"signature":"sig1","confirmed":false,"fillQty":0,"fillPrice":0,"error":"blockhash expired"}`)
	}))

	res, err := client.Submit(context.Background(), "signed-tx")
	require.NoError(t, err)
	assert.False(t, res.Confirmed)
	assert.Equal(t, "sig1", res.Signature)
	assert.Equal(t, "blockhash expired", res.Error)
}

func TestPreSignEmptyTransaction(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"transaction":""}`)
	}))

	_, err := client.PreSign(context.Background(), "w1", types.TradeIntent{})
	assert.Error(t, err)
}

func TestBalanceReturnsZeroOnFailure(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	assert.Equal(t, 0.0, client.Balance(context.Background(), "w1"))
}

func TestBalance(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/wallet/w1/balance", r.URL.Path)
		fmt.Fprint(w, `{"balance":42.5}`)
	}))

	assert.Equal(t, 42.5, client.Balance(context.Background(), "w1"))
}

func TestSetBusySwallowsFailure(t *testing.T) {
	var gotPath string
	var gotBody map[string]any
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		http.Error(w, "mirror down", http.StatusBadGateway)
	}))

	// Must not panic or propagate anything.
	client.SetBusy(context.Background(), "w1", true)
	assert.Equal(t, "/wallet/w1/busy", gotPath)
	assert.Equal(t, true, gotBody["busy"])
}
