package rpc

import (
	"context"
	"fmt"
	"time"

	"github.com/adelekeogunsona/solana-web-wallet/internal/logger"
)

// Operation is one unit of work against a single endpoint. The scheduler
// picks the endpoint; the operation never holds onto the client.
type Operation func(ctx context.Context, client Client) (interface{}, error)

type jobState int

const (
	jobPending jobState = iota
	jobExecuting
	jobRetrying
	jobSucceeded
	jobFailed
)

type outcome struct {
	value interface{}
	err   error
}

type queuedRequest struct {
	op         Operation
	retryCount int
	state      jobState
	result     chan outcome
}

func (r *queuedRequest) finish(value interface{}, err error) {
	if err != nil {
		r.state = jobFailed
	} else {
		r.state = jobSucceeded
	}
	r.result <- outcome{value: value, err: err}
}

// Execute admits the operation into the FIFO queue and blocks until it
// terminates. Admission order is guaranteed; completion order is not, since
// a retried job re-enters at the back of the queue.
func (m *Manager) Execute(op Operation) (interface{}, error) {
	req := &queuedRequest{op: op, result: make(chan outcome, 1)}
	if err := m.enqueue(req); err != nil {
		return nil, err
	}
	out := <-req.result
	return out.value, out.err
}

func (m *Manager) enqueue(req *queuedRequest) error {
	select {
	case <-m.done:
		return ErrSchedulerClosed
	default:
	}

	select {
	case m.queue <- req:
		return nil
	default:
		return ErrQueueFull
	}
}

// drain is the single queue consumer. One job executes at a time; a failed
// job below its retry budget is re-enqueued at the back after the retry
// delay, with its retry count advanced.
func (m *Manager) drain() {
	defer m.wg.Done()
	for {
		select {
		case <-m.done:
			return
		case req := <-m.queue:
			if !m.throttle() {
				req.finish(nil, ErrSchedulerClosed)
				return
			}

			req.state = jobExecuting
			value, err := m.tryEndpoints(req.op)
			if err == nil {
				req.finish(value, nil)
				continue
			}

			if req.retryCount < m.cfg.MaxRetries {
				req.retryCount++
				req.state = jobRetrying
				m.scheduleRetry(req, err)
				continue
			}
			req.finish(nil, err)
		}
	}
}

func (m *Manager) scheduleRetry(req *queuedRequest, lastErr error) {
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		select {
		case <-m.done:
			req.finish(nil, lastErr)
		case <-time.After(m.cfg.RetryDelay):
			if err := m.enqueue(req); err != nil {
				req.finish(nil, err)
			}
		}
	}()
}

// throttle enforces the batch rate limit: after RequestsPerBatch dispatches,
// the next one waits out BatchDelay. Runs before every dispatch, retries
// included. Returns false when Close interrupts the wait, so the caller
// drops the job instead of dispatching it during shutdown.
func (m *Manager) throttle() bool {
	if m.batchCount >= m.cfg.RequestsPerBatch {
		select {
		case <-m.done:
			return false
		case <-time.After(m.cfg.BatchDelay):
		}
		m.batchCount = 0
	}
	m.batchCount++
	return true
}

// tryEndpoints runs the two-pass failover algorithm. Pass one walks healthy
// endpoints in rank order, demoting each failure. If none succeeds, pass two
// walks every endpoint in configuration order; the first success there is
// promoted back to healthy.
func (m *Manager) tryEndpoints(op Operation) (interface{}, error) {
	var lastErr error

	for _, ep := range m.health.Ranked() {
		if !ep.Healthy {
			continue
		}
		value, err := m.attempt(op, ep)
		if err == nil {
			return value, nil
		}
		lastErr = err
		logger.Warn("RPC call failed on ", ep.Endpoint, ": ", err)
		m.health.setHealth(ep, false)
	}

	for _, ep := range m.health.Snapshot() {
		value, err := m.attempt(op, ep)
		if err == nil {
			m.health.setHealth(ep, true)
			return value, nil
		}
		lastErr = err
	}

	if lastErr == nil {
		return nil, fmt.Errorf("%w: no endpoints configured", ErrAllEndpointsFailed)
	}
	return nil, fmt.Errorf("%w: last error: %v", ErrAllEndpointsFailed, lastErr)
}

func (m *Manager) attempt(op Operation, ep *EndpointStatus) (interface{}, error) {
	ctx, cancel := context.WithTimeout(context.Background(), m.cfg.RequestTimeout)
	defer cancel()
	return op(ctx, ep.Client)
}
