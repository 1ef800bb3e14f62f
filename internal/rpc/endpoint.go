package rpc

import (
	"math"
	"sort"
	"time"
)

// LatencyUnreachable is the latency recorded for an endpoint whose probe
// failed or timed out.
const LatencyUnreachable = time.Duration(math.MaxInt64)

// EndpointStatus is the scored view of one configured RPC endpoint. Published
// statuses are treated as immutable: health flips and probe results replace
// the entry rather than mutating it in place, so a reader never observes a
// half-updated entry.
type EndpointStatus struct {
	Endpoint    string
	Client      Client
	Healthy     bool
	LastChecked time.Time
	Latency     time.Duration
	LastSlot    uint64
}

func (s *EndpointStatus) clone() *EndpointStatus {
	copied := *s
	return &copied
}

// rankEndpoints returns a new slice ordered healthy-before-unhealthy and,
// within the same health class, by ascending latency. The input order breaks
// ties.
func rankEndpoints(statuses []*EndpointStatus) []*EndpointStatus {
	ranked := append([]*EndpointStatus(nil), statuses...)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Healthy != ranked[j].Healthy {
			return ranked[i].Healthy
		}
		return ranked[i].Latency < ranked[j].Latency
	})
	return ranked
}
