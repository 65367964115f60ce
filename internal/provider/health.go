package provider

import (
	"sync"
	"time"

	"github.com/qaaqit/qbot-gateway/internal/types"
)

// HealthTracker holds one circuit breaker per provider, created lazily.
// Breakers are fully independent: a tripped gemini breaker says nothing
// about mistral.
type HealthTracker struct {
	mu       sync.Mutex
	breakers map[types.ProviderID]*CircuitBreaker

	failureThreshold      int
	recoveryProbeInterval time.Duration
}

func NewHealthTracker(failureThreshold int, recoveryProbeInterval time.Duration) *HealthTracker {
	return &HealthTracker{
		breakers:              make(map[types.ProviderID]*CircuitBreaker),
		failureThreshold:      failureThreshold,
		recoveryProbeInterval: recoveryProbeInterval,
	}
}

func (ht *HealthTracker) breaker(id types.ProviderID) *CircuitBreaker {
	ht.mu.Lock()
	defer ht.mu.Unlock()
	cb, ok := ht.breakers[id]
	if !ok {
		cb = NewCircuitBreaker(ht.failureThreshold, ht.recoveryProbeInterval)
		ht.breakers[id] = cb
	}
	return cb
}

// IsAvailable reports whether the provider's breaker admits a request.
func (ht *HealthTracker) IsAvailable(id types.ProviderID) bool {
	return ht.breaker(id).Allow()
}

func (ht *HealthTracker) RecordSuccess(id types.ProviderID) {
	ht.breaker(id).RecordSuccess()
}

func (ht *HealthTracker) RecordFailure(id types.ProviderID) {
	ht.breaker(id).RecordFailure()
}
