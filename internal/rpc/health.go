package rpc

import (
	"context"
	"sync"
	"time"

	"github.com/adelekeogunsona/solana-web-wallet/internal/logger"
	solanarpc "github.com/gagliardetto/solana-go/rpc"
)

// HealthTracker keeps the scored endpoint list fresh. It owns two loops: the
// probe cycle, which re-checks and re-ranks every endpoint, and the slot
// poller, which records the chain position seen by the best endpoint purely
// for diagnostics.
type HealthTracker struct {
	dial         DialFunc
	probeTimeout time.Duration
	interval     time.Duration
	slotInterval time.Duration
	commitment   solanarpc.CommitmentType

	mu       sync.RWMutex
	gen      uint64
	statuses []*EndpointStatus // configuration order
	ranked   []*EndpointStatus

	kick chan struct{}
	done chan struct{}
	wg   sync.WaitGroup
}

func newHealthTracker(endpoints []string, dial DialFunc, probeTimeout, interval, slotInterval time.Duration, commitment solanarpc.CommitmentType) *HealthTracker {
	t := &HealthTracker{
		dial:         dial,
		probeTimeout: probeTimeout,
		interval:     interval,
		slotInterval: slotInterval,
		commitment:   commitment,
		kick:         make(chan struct{}, 1),
		done:         make(chan struct{}),
	}
	t.install(endpoints)
	return t
}

// install rebuilds the status list from scratch for a new endpoint set. All
// entries start Unknown (not yet healthy, unreachable latency) until a probe
// cycle scores them.
func (t *HealthTracker) install(endpoints []string) {
	statuses := make([]*EndpointStatus, 0, len(endpoints))
	for _, endpoint := range endpoints {
		statuses = append(statuses, &EndpointStatus{
			Endpoint: endpoint,
			Client:   t.dial(endpoint),
			Latency:  LatencyUnreachable,
		})
	}

	t.mu.Lock()
	t.gen++
	t.statuses = statuses
	t.ranked = rankEndpoints(statuses)
	t.mu.Unlock()
}

func (t *HealthTracker) start() {
	t.wg.Add(2)
	go t.probeLoop()
	go t.slotLoop()
}

func (t *HealthTracker) stop() {
	close(t.done)
	t.wg.Wait()
}

// Reconfigure discards all prior status and connection handles, rebuilds the
// list and triggers an out-of-cycle probe.
func (t *HealthTracker) Reconfigure(endpoints []string) {
	t.install(endpoints)
	select {
	case t.kick <- struct{}{}:
	default:
	}
}

// Ranked returns the current ranked snapshot. The slice and its entries must
// not be modified by the caller.
func (t *HealthTracker) Ranked() []*EndpointStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.ranked
}

// Snapshot returns the statuses in configuration order.
func (t *HealthTracker) Snapshot() []*EndpointStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.statuses
}

// CurrentSlot reports the highest chain position observed by the slot poller.
func (t *HealthTracker) CurrentSlot() uint64 {
	var best uint64
	for _, ep := range t.Snapshot() {
		if ep.LastSlot > best {
			best = ep.LastSlot
		}
	}
	return best
}

// CheckNow runs one full synchronous probe cycle and re-ranks. If the
// endpoint list is swapped while probing, the stale results are discarded.
func (t *HealthTracker) CheckNow() {
	t.mu.RLock()
	gen := t.gen
	current := t.statuses
	t.mu.RUnlock()

	next := make([]*EndpointStatus, 0, len(current))
	for _, ep := range current {
		next = append(next, t.probe(ep))
	}
	ranked := rankEndpoints(next)

	t.mu.Lock()
	if t.gen == gen {
		t.statuses = next
		t.ranked = ranked
	}
	t.mu.Unlock()
}

func (t *HealthTracker) probe(ep *EndpointStatus) *EndpointStatus {
	ctx, cancel := context.WithTimeout(context.Background(), t.probeTimeout)
	defer cancel()

	status := ep.clone()
	status.LastChecked = time.Now()

	start := time.Now()
	if _, err := ep.Client.GetVersion(ctx); err != nil {
		logger.Warn("health probe failed for ", ep.Endpoint, ": ", err)
		status.Healthy = false
		status.Latency = LatencyUnreachable
		return status
	}
	status.Healthy = true
	status.Latency = time.Since(start)
	return status
}

func (t *HealthTracker) probeLoop() {
	defer t.wg.Done()

	// score the initial set right away
	t.CheckNow()

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-t.kick:
			t.CheckNow()
		case <-ticker.C:
			t.CheckNow()
		}
	}
}

// slotLoop polls the current chain position from the best-known endpoint on
// its own interval. Failures are logged and otherwise ignored.
func (t *HealthTracker) slotLoop() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.slotInterval)
	defer ticker.Stop()
	for {
		select {
		case <-t.done:
			return
		case <-ticker.C:
			t.pollSlot()
		}
	}
}

func (t *HealthTracker) pollSlot() {
	var best *EndpointStatus
	for _, ep := range t.Ranked() {
		if ep.Healthy {
			best = ep
			break
		}
	}
	if best == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), t.probeTimeout)
	defer cancel()

	slot, err := best.Client.GetSlot(ctx, t.commitment)
	if err != nil {
		logger.Warn("slot poll failed for ", best.Endpoint, ": ", err)
		return
	}

	updated := best.clone()
	updated.LastSlot = slot
	t.replace(best, updated)
}

// setHealth is the fast path used by the scheduler between probe cycles:
// demotion when a call through an endpoint fails, promotion when a call
// through a previously unhealthy endpoint succeeds. Ranking order is left
// untouched until the next full cycle.
func (t *HealthTracker) setHealth(ep *EndpointStatus, healthy bool) {
	if ep.Healthy == healthy {
		return
	}
	updated := ep.clone()
	updated.Healthy = healthy
	t.replace(ep, updated)
}

// replace swaps one published entry for its updated clone in fresh copies of
// both views. No-op if the entry is no longer present (list was swapped).
func (t *HealthTracker) replace(old, updated *EndpointStatus) {
	t.mu.Lock()
	defer t.mu.Unlock()

	replaceIn := func(list []*EndpointStatus) ([]*EndpointStatus, bool) {
		for i, entry := range list {
			if entry == old {
				next := append([]*EndpointStatus(nil), list...)
				next[i] = updated
				return next, true
			}
		}
		return list, false
	}

	statuses, ok := replaceIn(t.statuses)
	if !ok {
		return
	}
	ranked, _ := replaceIn(t.ranked)
	t.statuses = statuses
	t.ranked = ranked
}
