package rpc

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRegistryCachesList(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `[
			{"address":"EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v","name":"USD Coin","symbol":"USDC","decimals":6,"logoURI":"https://example.com/usdc.png"},
			{"address":"So11111111111111111111111111111111111111112","name":"Wrapped SOL","symbol":"SOL","decimals":9}
		]`)
	}))
	defer server.Close()

	clock := newFakeClock()
	registry := newTokenRegistry(server.URL, time.Hour, clock.Now)

	info, ok := registry.Lookup("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")
	require.True(t, ok)
	assert.Equal(t, "USDC", info.Symbol)
	assert.Equal(t, 6, info.Decimals)

	_, ok = registry.Lookup("UnknownMint1111111111111111111111111111111")
	assert.False(t, ok)

	// both lookups inside the TTL share one fetch
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	clock.Advance(time.Hour + time.Second)
	_, _ = registry.Lookup("So11111111111111111111111111111111111111112")
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestTokenRegistryKeepsServingOnFetchFailure(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `[{"address":"Mint1","name":"One","symbol":"ONE","decimals":0}]`)
	}))
	defer server.Close()

	clock := newFakeClock()
	registry := newTokenRegistry(server.URL, time.Hour, clock.Now)

	_, ok := registry.Lookup("Mint1")
	require.True(t, ok)

	fail.Store(true)
	clock.Advance(2 * time.Hour)

	// refresh fails, the stale index still answers
	info, ok := registry.Lookup("Mint1")
	assert.True(t, ok)
	assert.Equal(t, "ONE", info.Symbol)
}

func TestPriceFeedCachesQuote(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		fmt.Fprint(w, `{"data":{"amount":"142.57","base":"SOL","currency":"USD"}}`)
	}))
	defer server.Close()

	clock := newFakeClock()
	feed := newPriceFeed(server.URL, 5*time.Minute, clock.Now)

	price, err := feed.Price()
	require.NoError(t, err)
	assert.Equal(t, "142.57", price.String())

	_, err = feed.Price()
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	clock.Advance(5*time.Minute + time.Second)
	_, err = feed.Price()
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestPriceFeedServesStaleQuoteWhenSourceDies(t *testing.T) {
	var fail atomic.Bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if fail.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		fmt.Fprint(w, `{"data":{"amount":"100","base":"SOL","currency":"USD"}}`)
	}))
	defer server.Close()

	clock := newFakeClock()
	feed := newPriceFeed(server.URL, time.Minute, clock.Now)

	_, err := feed.Price()
	require.NoError(t, err)

	fail.Store(true)
	clock.Advance(2 * time.Minute)

	price, err := feed.Price()
	require.NoError(t, err)
	assert.Equal(t, "100", price.String())
}
