package rpc

import (
	"context"
	"time"

	"github.com/gagliardetto/solana-go"
)

type cachedBalance struct {
	lamports  uint64
	fetchedAt time.Time
}

// GetBalance returns the lamport balance for an address. Reads within the
// cache TTL are served from memory; concurrent requests for the same address
// collapse into a single network call. Entries are never evicted, only
// treated as stale by timestamp.
func (m *Manager) GetBalance(address string) (uint64, error) {
	pubkey, err := solana.PublicKeyFromBase58(address)
	if err != nil {
		return 0, err
	}

	m.cacheMu.Lock()
	if entry, ok := m.balances[address]; ok && m.cfg.Now().Sub(entry.fetchedAt) < m.cfg.BalanceCacheTTL {
		m.cacheMu.Unlock()
		return entry.lamports, nil
	}
	m.cacheMu.Unlock()

	value, err, _ := m.flight.Do(address, func() (interface{}, error) {
		out, err := m.Execute(func(ctx context.Context, client Client) (interface{}, error) {
			res, err := client.GetBalance(ctx, pubkey, m.cfg.Commitment)
			if err != nil {
				return nil, err
			}
			return res.Value, nil
		})
		if err != nil {
			return nil, err
		}

		lamports := out.(uint64)
		m.cacheMu.Lock()
		m.balances[address] = cachedBalance{lamports: lamports, fetchedAt: m.cfg.Now()}
		m.cacheMu.Unlock()
		return lamports, nil
	})
	if err != nil {
		return 0, err
	}
	return value.(uint64), nil
}
