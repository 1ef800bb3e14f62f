package rpc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

// priceFeed caches the SOL spot price from an external quote service. One
// fetch is shared between concurrent callers and a circuit breaker trips when
// the service keeps failing.
type priceFeed struct {
	url     string
	ttl     time.Duration
	now     func() time.Time
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	flight  singleflight.Group

	mu        sync.RWMutex
	price     decimal.Decimal
	fetchedAt time.Time
}

func newPriceFeed(url string, ttl time.Duration, now func() time.Time) *priceFeed {
	return &priceFeed{
		url:    url,
		ttl:    ttl,
		now:    now,
		client: &http.Client{Timeout: 15 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "price-feed",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				ratio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests > 10 && ratio >= 0.6
			},
		}),
	}
}

type spotPriceResponse struct {
	Data struct {
		Amount   string `json:"amount"`
		Base     string `json:"base"`
		Currency string `json:"currency"`
	} `json:"data"`
}

// Price returns the cached quote when fresh, otherwise fetches a new one.
func (p *priceFeed) Price() (decimal.Decimal, error) {
	p.mu.RLock()
	if !p.fetchedAt.IsZero() && p.now().Sub(p.fetchedAt) < p.ttl {
		price := p.price
		p.mu.RUnlock()
		return price, nil
	}
	p.mu.RUnlock()

	result, err, _ := p.flight.Do("price", func() (interface{}, error) {
		return p.breaker.Execute(func() (interface{}, error) {
			return p.fetch()
		})
	})
	if err != nil {
		// Serve the stale quote if we ever had one.
		p.mu.RLock()
		defer p.mu.RUnlock()
		if !p.fetchedAt.IsZero() {
			return p.price, nil
		}
		return decimal.Zero, err
	}
	return result.(decimal.Decimal), nil
}

func (p *priceFeed) fetch() (decimal.Decimal, error) {
	resp, err := p.client.Get(p.url)
	if err != nil {
		return decimal.Zero, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("price feed returned status %d", resp.StatusCode)
	}

	var body spotPriceResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return decimal.Zero, err
	}

	price, err := decimal.NewFromString(body.Data.Amount)
	if err != nil {
		return decimal.Zero, fmt.Errorf("price feed returned malformed amount %q: %v", body.Data.Amount, err)
	}

	p.mu.Lock()
	p.price = price
	p.fetchedAt = p.now()
	p.mu.Unlock()
	return price, nil
}

// SolPrice exposes the current SOL quote through the manager.
func (m *Manager) SolPrice() (decimal.Decimal, error) {
	return m.price.Price()
}
