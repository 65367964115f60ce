package provider

import (
	"sync"
	"time"
)

// CircuitState is the breaker position for one provider.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

var stateNames = map[CircuitState]string{
	StateClosed:   "closed",
	StateOpen:     "open",
	StateHalfOpen: "half_open",
}

func (s CircuitState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// CircuitBreaker keeps a provider from being attempted while it is known to
// be failing. Closed passes everything; after failureThreshold consecutive
// failures it opens and the orchestrator skips the provider without spending
// an attempt; once the probe interval has elapsed it half-opens and lets a
// single request through to decide between closing and reopening.
type CircuitBreaker struct {
	mu sync.Mutex

	position CircuitState
	strikes  int
	openedAt time.Time

	failureThreshold      int
	recoveryProbeInterval time.Duration
}

func NewCircuitBreaker(failureThreshold int, recoveryProbeInterval time.Duration) *CircuitBreaker {
	return &CircuitBreaker{
		failureThreshold:      failureThreshold,
		recoveryProbeInterval: recoveryProbeInterval,
	}
}

// observe applies the lazy open-to-half-open transition: the flip happens on
// the first observation after the probe interval, not on a timer. Callers
// hold mu.
func (cb *CircuitBreaker) observe() CircuitState {
	if cb.position == StateOpen && time.Since(cb.openedAt) >= cb.recoveryProbeInterval {
		cb.position = StateHalfOpen
	}
	return cb.position
}

func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.observe()
}

// Allow reports whether a request may go through. Half-open allows the
// probe; open blocks.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.observe() != StateOpen
}

func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	if cb.observe() == StateHalfOpen {
		cb.position = StateClosed
	}
	cb.strikes = 0
}

func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.observe() {
	case StateClosed:
		cb.strikes++
		if cb.strikes >= cb.failureThreshold {
			cb.trip()
		}
	case StateHalfOpen:
		cb.trip()
	}
}

func (cb *CircuitBreaker) trip() {
	cb.position = StateOpen
	cb.openedAt = time.Now()
	cb.strikes = 0
}

// Reset forces the breaker closed, discarding failure history.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.position = StateClosed
	cb.strikes = 0
}
