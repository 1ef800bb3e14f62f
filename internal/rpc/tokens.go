package rpc

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/adelekeogunsona/solana-web-wallet/internal/logger"
	"github.com/gagliardetto/solana-go"
	"github.com/sony/gobreaker"
	"golang.org/x/sync/singleflight"
)

// TokenInfo is one record of the third-party token registry.
type TokenInfo struct {
	Address  string `json:"address"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoURI"`
}

// tokenRegistry caches the whole token list, indexed by mint, for an hour at
// a time. Refreshes are lazy, collapsed into one in-flight fetch, and guarded
// by a circuit breaker so a flapping registry host cannot pile up requests.
type tokenRegistry struct {
	url     string
	ttl     time.Duration
	now     func() time.Time
	client  *http.Client
	breaker *gobreaker.CircuitBreaker
	flight  singleflight.Group

	mu        sync.RWMutex
	byMint    map[string]TokenInfo
	fetchedAt time.Time
}

func newTokenRegistry(url string, ttl time.Duration, now func() time.Time) *tokenRegistry {
	return &tokenRegistry{
		url:    url,
		ttl:    ttl,
		now:    now,
		client: &http.Client{Timeout: 15 * time.Second},
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name: "token-registry",
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				ratio := float64(counts.TotalFailures) / float64(counts.Requests)
				return counts.Requests > 10 && ratio >= 0.6
			},
		}),
		byMint: make(map[string]TokenInfo),
	}
}

// Lookup returns registry metadata for a mint, refreshing the list first if
// it is stale or empty. Refresh failures are logged and the stale index keeps
// serving.
func (r *tokenRegistry) Lookup(mint string) (TokenInfo, bool) {
	r.refreshIfStale()

	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.byMint[mint]
	return info, ok
}

func (r *tokenRegistry) refreshIfStale() {
	if r.url == "" {
		return
	}

	r.mu.RLock()
	fresh := len(r.byMint) > 0 && r.now().Sub(r.fetchedAt) < r.ttl
	r.mu.RUnlock()
	if fresh {
		return
	}

	_, err, _ := r.flight.Do("refresh", func() (interface{}, error) {
		return r.breaker.Execute(func() (interface{}, error) {
			return nil, r.fetch()
		})
	})
	if err != nil {
		logger.Warn("token registry refresh failed: ", err)
	}
}

func (r *tokenRegistry) fetch() error {
	resp, err := r.client.Get(r.url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token registry returned status %d", resp.StatusCode)
	}

	var list []TokenInfo
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		return err
	}

	byMint := make(map[string]TokenInfo, len(list))
	for _, info := range list {
		byMint[info.Address] = info
	}

	r.mu.Lock()
	r.byMint = byMint
	r.fetchedAt = r.now()
	r.mu.Unlock()
	return nil
}

// TokenBalance is a token account enriched with registry metadata for
// display.
type TokenBalance struct {
	Mint     string  `json:"mint"`
	Name     string  `json:"name"`
	Symbol   string  `json:"symbol"`
	Amount   uint64  `json:"amount"`
	Decimals int     `json:"decimals"`
	UIAmount float64 `json:"uiAmount"`
	LogoURI  string  `json:"logoURI,omitempty"`
	Verified bool    `json:"verified"`
}

// ListTokens returns the owner's token holdings sorted verified-first, then
// by name. Mints missing from the registry show a truncated-mint symbol.
func (m *Manager) ListTokens(owner solana.PublicKey) ([]TokenBalance, error) {
	accounts, err := m.GetTokenAccounts(owner)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(accounts, func(i, j int) bool {
		return accounts[i].Amount > accounts[j].Amount
	})

	tokens := make([]TokenBalance, 0, len(accounts))
	for _, account := range accounts {
		balance := TokenBalance{
			Mint:     account.Mint,
			Amount:   account.Amount,
			Decimals: account.Decimals,
			UIAmount: account.UIAmount,
		}
		if info, ok := m.registry.Lookup(account.Mint); ok {
			balance.Name = info.Name
			balance.Symbol = info.Symbol
			balance.LogoURI = info.LogoURI
			balance.Verified = true
		} else {
			balance.Name = "Unknown Token"
			if len(account.Mint) >= 4 {
				balance.Symbol = account.Mint[:4]
			} else {
				balance.Symbol = account.Mint
			}
		}
		tokens = append(tokens, balance)
	}

	sort.SliceStable(tokens, func(i, j int) bool {
		if tokens[i].Verified != tokens[j].Verified {
			return tokens[i].Verified
		}
		return tokens[i].Name < tokens[j].Name
	})
	return tokens, nil
}
