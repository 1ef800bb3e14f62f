package rpc

import (
	"sync"
	"time"

	solanarpc "github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/viper"
	"golang.org/x/sync/singleflight"
)

// Config carries every scheduler, health and cache tunable. Zero values fall
// back to the defaults below.
type Config struct {
	Endpoints []string

	RequestsPerBatch int
	BatchDelay       time.Duration
	MaxRetries       int
	RetryDelay       time.Duration
	MaxQueueSize     int
	RequestTimeout   time.Duration

	HealthCheckInterval time.Duration
	ProbeTimeout        time.Duration
	SlotPollInterval    time.Duration

	BalanceCacheTTL  time.Duration
	TokenRegistryURL string
	TokenRegistryTTL time.Duration
	PriceFeedURL     string
	PriceCacheTTL    time.Duration

	Commitment solanarpc.CommitmentType

	// test seams
	Dial DialFunc
	Now  func() time.Time
}

func (c *Config) applyDefaults() {
	if c.RequestsPerBatch <= 0 {
		c.RequestsPerBatch = 10
	}
	if c.BatchDelay <= 0 {
		c.BatchDelay = time.Second
	}
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = 2 * time.Second
	}
	if c.MaxQueueSize <= 0 {
		c.MaxQueueSize = 100
	}
	if c.RequestTimeout <= 0 {
		c.RequestTimeout = 30 * time.Second
	}
	if c.HealthCheckInterval <= 0 {
		c.HealthCheckInterval = 30 * time.Second
	}
	if c.ProbeTimeout <= 0 {
		c.ProbeTimeout = 5 * time.Second
	}
	if c.SlotPollInterval <= 0 {
		c.SlotPollInterval = 10 * time.Second
	}
	if c.BalanceCacheTTL <= 0 {
		c.BalanceCacheTTL = 10 * time.Second
	}
	if c.TokenRegistryTTL <= 0 {
		c.TokenRegistryTTL = time.Hour
	}
	if c.PriceCacheTTL <= 0 {
		c.PriceCacheTTL = 5 * time.Minute
	}
	if c.Commitment == "" {
		c.Commitment = solanarpc.CommitmentConfirmed
	}
	if c.Dial == nil {
		c.Dial = defaultDial
	}
	if c.Now == nil {
		c.Now = time.Now
	}
}

// ConfigFromViper reads the scheduler configuration the way the rest of the
// application reads its settings.
func ConfigFromViper() Config {
	return Config{
		Endpoints:           viper.GetStringSlice("rpc_endpoints"),
		RequestsPerBatch:    viper.GetInt("requests_per_batch"),
		BatchDelay:          viper.GetDuration("batch_delay"),
		MaxRetries:          viper.GetInt("max_retries"),
		RetryDelay:          viper.GetDuration("retry_delay"),
		MaxQueueSize:        viper.GetInt("max_queue_size"),
		RequestTimeout:      viper.GetDuration("request_timeout"),
		HealthCheckInterval: viper.GetDuration("health_check_interval"),
		ProbeTimeout:        viper.GetDuration("probe_timeout"),
		SlotPollInterval:    viper.GetDuration("slot_poll_interval"),
		BalanceCacheTTL:     viper.GetDuration("balance_cache_ttl"),
		TokenRegistryURL:    viper.GetString("token_registry_url"),
		TokenRegistryTTL:    viper.GetDuration("token_registry_ttl"),
		PriceFeedURL:        viper.GetString("price_feed_url"),
		PriceCacheTTL:       viper.GetDuration("price_cache_ttl"),
		Commitment:          solanarpc.CommitmentType(viper.GetString("commitment")),
	}
}

// Manager is the single choke point for every chain RPC call: it owns the
// endpoint health tracker, the request queue with rate limiting and retries,
// and the read caches. Construct one per application root and dispose of it
// with Close; there is no package-level instance.
type Manager struct {
	cfg    Config
	health *HealthTracker

	queue     chan *queuedRequest
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup

	// batchCount is touched only by the drain goroutine.
	batchCount int

	cacheMu  sync.Mutex
	balances map[string]cachedBalance
	flight   singleflight.Group

	registry *tokenRegistry
	price    *priceFeed
}

// NewManager builds the scheduler and starts its background loops.
func NewManager(cfg Config) *Manager {
	cfg.applyDefaults()

	m := &Manager{
		cfg:      cfg,
		queue:    make(chan *queuedRequest, cfg.MaxQueueSize),
		done:     make(chan struct{}),
		balances: make(map[string]cachedBalance),
		registry: newTokenRegistry(cfg.TokenRegistryURL, cfg.TokenRegistryTTL, cfg.Now),
		price:    newPriceFeed(cfg.PriceFeedURL, cfg.PriceCacheTTL, cfg.Now),
	}
	m.health = newHealthTracker(
		cfg.Endpoints, cfg.Dial,
		cfg.ProbeTimeout, cfg.HealthCheckInterval, cfg.SlotPollInterval,
		cfg.Commitment,
	)
	m.health.start()

	m.wg.Add(1)
	go m.drain()
	return m
}

// Close stops the drain loop and the health tracker. Queued jobs that have
// not started fail with ErrSchedulerClosed.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		close(m.done)
		m.wg.Wait()
		m.health.stop()

		// fail whatever is still queued
		for {
			select {
			case req := <-m.queue:
				req.finish(nil, ErrSchedulerClosed)
			default:
				return
			}
		}
	})
}

// Reconfigure atomically swaps the endpoint set. Prior status and connection
// handles are discarded and an out-of-cycle probe is triggered.
func (m *Manager) Reconfigure(endpoints []string) {
	m.health.Reconfigure(endpoints)
}

// Health exposes the tracker for status displays.
func (m *Manager) Health() *HealthTracker {
	return m.health
}
