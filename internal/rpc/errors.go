package rpc

import "errors"

var (
	// ErrAllEndpointsFailed is returned once both failover passes have
	// exhausted every configured endpoint. It wraps the last underlying
	// error.
	ErrAllEndpointsFailed = errors.New("all RPC endpoints failed")

	// ErrQueueFull is returned when the request queue is at capacity and a
	// new operation cannot be admitted.
	ErrQueueFull = errors.New("request queue full")

	// ErrSchedulerClosed is returned for operations submitted after Close.
	ErrSchedulerClosed = errors.New("scheduler closed")

	// ErrConfirmationTimeout indicates the submitted transaction was not
	// seen as confirmed within the waiting window. The transaction may
	// still have landed on-chain.
	ErrConfirmationTimeout = errors.New("confirmation timed out")
)
