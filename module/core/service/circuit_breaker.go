package service

import (
	"sync"

	"github.com/nandanugg/fleet-routing/module/core/domain"
)

const DefaultFailureThreshold = 3

// CircuitObserver receives every breaker state change.
type CircuitObserver interface {
	SetCircuit(open bool, failures int)
}

// CircuitBreaker counts consecutive routing failures and opens once the
// threshold is reached. It never closes on its own; only Reset closes it.
// State is local to the process.
type CircuitBreaker struct {
	mu        sync.RWMutex
	failures  int
	open      bool
	threshold int
	observer  CircuitObserver
}

func NewCircuitBreaker(threshold int, observer CircuitObserver) *CircuitBreaker {
	if threshold <= 0 {
		threshold = DefaultFailureThreshold
	}
	cb := &CircuitBreaker{threshold: threshold, observer: observer}
	cb.notify(false, 0)
	return cb
}

func (cb *CircuitBreaker) RegisterFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures++
	if cb.failures >= cb.threshold {
		cb.open = true
	}
	cb.notify(cb.open, cb.failures)
}

func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.failures = 0
	cb.open = false
	cb.notify(false, 0)
}

func (cb *CircuitBreaker) IsOpen() bool {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.open
}

func (cb *CircuitBreaker) ConsecutiveFailures() int {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return cb.failures
}

func (cb *CircuitBreaker) Status() domain.CircuitStatus {
	cb.mu.RLock()
	defer cb.mu.RUnlock()
	return domain.CircuitStatus{
		IsOpen:              cb.open,
		ConsecutiveFailures: cb.failures,
		FailureThreshold:    cb.threshold,
	}
}

// notify must be called with mu held so observers see changes in order.
func (cb *CircuitBreaker) notify(open bool, failures int) {
	if cb.observer != nil {
		cb.observer.SetCircuit(open, failures)
	}
}
