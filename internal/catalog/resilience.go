package catalog

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// CircuitBreakerState represents the state of the circuit breaker.
type CircuitBreakerState int

const (
	// CircuitClosed allows loads to pass through.
	CircuitClosed CircuitBreakerState = iota

	// CircuitOpen rejects loads immediately.
	CircuitOpen

	// CircuitHalfOpen allows a few trial loads to check if the store has recovered.
	CircuitHalfOpen
)

// String returns the string representation of the circuit breaker state.
func (s CircuitBreakerState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// CircuitBreakerConfig holds configuration for the circuit breaker.
type CircuitBreakerConfig struct {
	// MaxFailures is the number of consecutive failures before opening the circuit.
	MaxFailures int

	// ResetTimeout is how long to wait before attempting a reset (half-open state).
	ResetTimeout time.Duration

	// HalfOpenMaxCalls is the number of successful calls needed to close again.
	HalfOpenMaxCalls int
}

// DefaultCircuitBreakerConfig returns the default circuit breaker configuration.
func DefaultCircuitBreakerConfig() *CircuitBreakerConfig {
	return &CircuitBreakerConfig{
		MaxFailures:      5,
		ResetTimeout:     30 * time.Second,
		HalfOpenMaxCalls: 3,
	}
}

// maxFailedLoads bounds the failing loads a breaker remembers.
const maxFailedLoads = 10

// CircuitBreaker stops hammering the catalog store while it is failing. It
// remembers which catalog rows failed to load so health checks can name them.
type CircuitBreaker struct {
	mu              sync.Mutex
	state           CircuitBreakerState
	failureCount    int
	successCount    int
	lastFailureTime time.Time
	failedLoads     []string // "kind:id", oldest first
	config          *CircuitBreakerConfig
	metrics         *MetricsRecorder
	logger          *zerolog.Logger
	name            string
	now             func() time.Time
}

// NewCircuitBreaker creates a circuit breaker for the catalog store.
func NewCircuitBreaker(name string, config *CircuitBreakerConfig, metrics *MetricsRecorder, logger *zerolog.Logger) *CircuitBreaker {
	if config == nil {
		config = DefaultCircuitBreakerConfig()
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &CircuitBreaker{
		state:   CircuitClosed,
		config:  config,
		metrics: metrics,
		logger:  logger,
		name:    name,
		now:     time.Now,
	}
}

// Allow reports whether a load of kind/id should reach the store.
func (cb *CircuitBreaker) Allow(kind, id string) bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		return true
	case CircuitOpen:
		if cb.now().Sub(cb.lastFailureTime) < cb.config.ResetTimeout {
			return false
		}
		cb.transitionTo(CircuitHalfOpen)
		cb.logger.Info().
			Str("circuit_breaker", cb.name).
			Str("kind", kind).
			Str("id", id).
			Msg("Trial catalog load, circuit half-open")
		return true
	case CircuitHalfOpen:
		return cb.successCount < cb.config.HalfOpenMaxCalls
	}
	return false
}

// RecordSuccess records a successful load.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed:
		cb.failureCount = 0
	case CircuitHalfOpen:
		cb.successCount++
		if cb.successCount >= cb.config.HalfOpenMaxCalls {
			cb.transitionTo(CircuitClosed)
			cb.logger.Info().
				Str("circuit_breaker", cb.name).
				Strs("recovered_loads", cb.failedLoads).
				Msg("Catalog store recovered, circuit closed")
			cb.successCount = 0
			cb.failureCount = 0
			cb.failedLoads = nil
		}
	}
}

// RecordFailure records a failed load of kind/id.
func (cb *CircuitBreaker) RecordFailure(kind, id string, err error) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.failureCount++
	cb.lastFailureTime = cb.now()
	cb.rememberFailure(kind + ":" + id)

	cb.logger.Error().
		Err(err).
		Str("circuit_breaker", cb.name).
		Str("kind", kind).
		Str("id", id).
		Int("failure_count", cb.failureCount).
		Msg("Catalog load failed")

	switch cb.state {
	case CircuitClosed:
		if cb.failureCount >= cb.config.MaxFailures {
			cb.transitionTo(CircuitOpen)
			cb.logger.Warn().
				Str("circuit_breaker", cb.name).
				Strs("failed_loads", cb.failedLoads).
				Dur("reset_timeout", cb.config.ResetTimeout).
				Msg("Catalog store failing, circuit open")
		}
	case CircuitHalfOpen:
		cb.transitionTo(CircuitOpen)
		cb.successCount = 0
		cb.logger.Warn().
			Str("circuit_breaker", cb.name).
			Str("kind", kind).
			Str("id", id).
			Msg("Trial catalog load failed, circuit open again")
	}
}

func (cb *CircuitBreaker) rememberFailure(key string) {
	for i, k := range cb.failedLoads {
		if k == key {
			cb.failedLoads = append(cb.failedLoads[:i], cb.failedLoads[i+1:]...)
			break
		}
	}
	cb.failedLoads = append(cb.failedLoads, key)
	if len(cb.failedLoads) > maxFailedLoads {
		cb.failedLoads = cb.failedLoads[len(cb.failedLoads)-maxFailedLoads:]
	}
}

func (cb *CircuitBreaker) transitionTo(state CircuitBreakerState) {
	cb.state = state
	if cb.metrics != nil {
		cb.metrics.RecordCircuitState(cb.name, state)
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitBreakerState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// FailureCount returns the consecutive failure count.
func (cb *CircuitBreaker) FailureCount() int {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.failureCount
}

// FailedLoads returns the catalog rows that failed to load since the
// circuit last closed, as "kind:id", oldest first.
func (cb *CircuitBreaker) FailedLoads() []string {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return append([]string(nil), cb.failedLoads...)
}

// Reset closes the circuit and forgets failures.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.transitionTo(CircuitClosed)
	cb.failureCount = 0
	cb.successCount = 0
	cb.failedLoads = nil
	cb.logger.Info().Str("circuit_breaker", cb.name).Msg("Circuit breaker reset")
}
