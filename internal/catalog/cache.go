package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/semaphore"
	"golang.org/x/sync/singleflight"
)

// ErrCircuitOpen is returned when the circuit breaker rejects a load.
var ErrCircuitOpen = errors.New("catalog circuit breaker open")

// Cache is a process-wide read-through cache in front of a Loader.
// Entries are immutable snapshots swapped atomically; concurrent misses for
// the same key share one load.
type Cache struct {
	loader Loader
	config *CacheConfig

	mu        sync.RWMutex
	services  map[string]*entry[ServiceCatalog]
	locations map[string]*entry[Location]
	addOns    map[string]*entry[AddOn]

	// generation is bumped on every invalidation so that a load which started
	// before the invalidation never publishes its result.
	generation atomic.Uint64

	sf             singleflight.Group
	warmupSem      *semaphore.Weighted
	circuitBreaker *CircuitBreaker
	metrics        *MetricsRecorder
	logger         *zerolog.Logger
	now            func() time.Time
}

type entry[T any] struct {
	value    atomic.Pointer[T]
	loadedAt atomic.Int64 // unix nanos
}

// NewCache creates a cache in front of loader.
func NewCache(loader Loader, config *CacheConfig) *Cache {
	if config == nil {
		config = DefaultCacheConfig()
	}
	metrics := NewMetricsRecorder()
	logger := log.With().Str("component", "catalog_cache").Logger()

	return &Cache{
		loader:         loader,
		config:         config,
		services:       make(map[string]*entry[ServiceCatalog]),
		locations:      make(map[string]*entry[Location]),
		addOns:         make(map[string]*entry[AddOn]),
		warmupSem:      semaphore.NewWeighted(int64(config.WarmupConcurrency)),
		circuitBreaker: NewCircuitBreaker("catalog_cache", DefaultCircuitBreakerConfig(), metrics, &logger),
		metrics:        metrics,
		logger:         &logger,
		now:            time.Now,
	}
}

// Service returns the snapshot of a service, loading it on miss or expiry.
func (c *Cache) Service(ctx context.Context, serviceID string) (*ServiceCatalog, error) {
	return getOrLoad(c, ctx, "service", serviceID, c.services, c.loader.LoadService)
}

// Location returns a location, loading it on miss or expiry.
func (c *Cache) Location(ctx context.Context, locationID string) (*Location, error) {
	return getOrLoad(c, ctx, "location", locationID, c.locations, c.loader.LoadLocation)
}

// AddOn returns an add-on, loading it on miss or expiry.
func (c *Cache) AddOn(ctx context.Context, addOnID string) (*AddOn, error) {
	return getOrLoad(c, ctx, "add_on", addOnID, c.addOns, c.loader.LoadAddOn)
}

func getOrLoad[T any](
	c *Cache,
	ctx context.Context,
	kind, id string,
	entries map[string]*entry[T],
	load func(context.Context, string) (*T, error),
) (*T, error) {
	c.mu.RLock()
	e, ok := entries[id]
	c.mu.RUnlock()

	if ok {
		if v := e.value.Load(); v != nil && !c.expired(e.loadedAt.Load()) {
			c.metrics.RecordCacheHit(kind)
			return v, nil
		}
	}
	c.metrics.RecordCacheMiss(kind)

	if !c.circuitBreaker.Allow(kind, id) {
		c.logger.Warn().
			Str("kind", kind).
			Str("id", id).
			Str("circuit_state", c.circuitBreaker.State().String()).
			Msg("Circuit breaker rejected catalog load")
		return nil, fmt.Errorf("%s %s: %w", kind, id, ErrCircuitOpen)
	}

	gen := c.generation.Load()
	key := fmt.Sprintf("%s:%s:%d", kind, id, gen)
	val, err, _ := c.sf.Do(key, func() (interface{}, error) {
		// Use a dedicated load context so one caller's cancellation doesn't
		// fail the other waiters.
		loadCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.config.LoadTimeout)
		defer cancel()

		start := c.now()
		v, loadErr := load(loadCtx, id)
		c.metrics.RecordCacheLoad(kind, c.now().Sub(start).Seconds(), loadErr == nil || errors.Is(loadErr, ErrNotFound))
		if loadErr != nil {
			if !errors.Is(loadErr, ErrNotFound) {
				c.circuitBreaker.RecordFailure(kind, id, loadErr)
			}
			return nil, loadErr
		}
		c.circuitBreaker.RecordSuccess()

		c.mu.Lock()
		if c.generation.Load() == gen {
			e, ok := entries[id]
			if !ok {
				e = &entry[T]{}
				entries[id] = e
			}
			e.value.Store(v)
			e.loadedAt.Store(c.now().UnixNano())
		}
		c.mu.Unlock()

		return v, nil
	})
	if err != nil {
		return nil, err
	}
	return val.(*T), nil
}

func (c *Cache) expired(loadedAt int64) bool {
	return c.now().Sub(time.Unix(0, loadedAt)) > c.config.TTL
}

// InvalidateService drops one service snapshot. The next read reloads it.
func (c *Cache) InvalidateService(serviceID string) {
	c.mu.Lock()
	delete(c.services, serviceID)
	c.generation.Add(1)
	c.mu.Unlock()

	c.metrics.RecordInvalidation("service")
	c.metrics.ClearServiceMetrics(serviceID)
	c.logger.Info().Str("service_id", serviceID).Msg("Invalidated service snapshot")
}

// InvalidateAll drops every cached entry.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	for id := range c.services {
		c.metrics.ClearServiceMetrics(id)
	}
	c.services = make(map[string]*entry[ServiceCatalog])
	c.locations = make(map[string]*entry[Location])
	c.addOns = make(map[string]*entry[AddOn])
	c.generation.Add(1)
	c.mu.Unlock()

	c.metrics.RecordInvalidation("all")
	c.logger.Info().Msg("Invalidated catalog cache")
}

// Warmup loads the given services, at most WarmupConcurrency at a time.
// It returns the first load error, after all loads have finished.
func (c *Cache) Warmup(ctx context.Context, serviceIDs []string) error {
	c.logger.Info().Int("services", len(serviceIDs)).Msg("Starting catalog warmup")

	var wg sync.WaitGroup
	errCh := make(chan error, len(serviceIDs))

	for _, id := range serviceIDs {
		if err := c.warmupSem.Acquire(ctx, 1); err != nil {
			c.logger.Warn().Err(err).Str("service_id", id).Msg("Failed to acquire warmup semaphore")
			break
		}

		wg.Add(1)
		go func(serviceID string) {
			defer c.warmupSem.Release(1)
			defer wg.Done()

			if _, err := c.Service(ctx, serviceID); err != nil {
				c.logger.Error().Err(err).Str("service_id", serviceID).Msg("Failed to warm service snapshot")
				errCh <- fmt.Errorf("service %s: %w", serviceID, err)
			}
		}(id)
	}

	wg.Wait()
	close(errCh)

	if err, ok := <-errCh; ok {
		return err
	}

	c.logger.Info().Msg("Catalog warmup completed")
	return nil
}

// GetFreshness returns the load time and staleness of each cached service.
func (c *Cache) GetFreshness() map[string]CacheFreshness {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[string]CacheFreshness, len(c.services))
	for id, e := range c.services {
		if e.value.Load() == nil {
			result[id] = CacheFreshness{IsStale: true}
			continue
		}
		loadedAt := e.loadedAt.Load()
		age := c.now().Sub(time.Unix(0, loadedAt))
		c.metrics.RecordCacheAge(id, age.Seconds())
		result[id] = CacheFreshness{
			LoadedAt: time.Unix(0, loadedAt).Unix(),
			IsStale:  age > c.config.TTL,
		}
	}
	return result
}

// IsHealthy reports whether the cache can reach its backing store.
func (c *Cache) IsHealthy() bool {
	return c.circuitBreaker.State() != CircuitOpen
}

// GetCircuitBreakerState returns the current state of the circuit breaker.
func (c *Cache) GetCircuitBreakerState() CircuitBreakerState {
	return c.circuitBreaker.State()
}

// FailedLoads returns the catalog rows that failed to load since the
// circuit breaker last closed.
func (c *Cache) FailedLoads() []string {
	return c.circuitBreaker.FailedLoads()
}

// ResetCircuitBreaker resets the circuit breaker to closed state.
func (c *Cache) ResetCircuitBreaker() {
	c.circuitBreaker.Reset()
}
