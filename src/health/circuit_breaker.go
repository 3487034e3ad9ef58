package health

import (
	"sync"
	"time"

	logger "github.com/sirupsen/logrus"

	"signalengine/src/pipeline"
)

// CircuitBreaker keeps a bounded ring of recent request outcomes and opens
// when the failure rate crosses the threshold. Open/closed is a pure
// function of the window: there is no half-open probe state. Recovery is
// statistical, fresh outcomes displace old failures and samples older than
// the TTL stop counting, so an open breaker closes again on its own even
// while it is rejecting traffic.
type CircuitBreaker struct {
	mu       sync.Mutex
	outcomes []outcome
	next     int
	count    int

	threshold  float64
	minSamples int
	ttl        time.Duration
	now        func() time.Time

	wasOpen       bool
	onStateChange func(open bool, failureRate float64)
}

type outcome struct {
	failed bool
	at     time.Time
}

func NewCircuitBreaker(cfg Config) *CircuitBreaker {
	window := cfg.BreakerWindow
	if window <= 0 {
		window = 50
	}
	ttl := cfg.BreakerSampleTTL
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &CircuitBreaker{
		outcomes:   make([]outcome, window),
		threshold:  cfg.BreakerThreshold,
		minSamples: cfg.BreakerMinSamples,
		ttl:        ttl,
		now:        time.Now,
	}
}

// OnStateChange registers a callback fired when the breaker flips. The
// callback runs on the recording goroutine and must return quickly.
func (cb *CircuitBreaker) OnStateChange(fn func(open bool, failureRate float64)) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.onStateChange = fn
}

// Record adds one request outcome to the rolling window. Only requests that
// entered the pipeline are recorded; gate rejections never reach here, so
// the breaker cannot feed its own window while open.
func (cb *CircuitBreaker) Record(failed bool) {
	cb.mu.Lock()

	cb.outcomes[cb.next] = outcome{failed: failed, at: cb.now()}
	cb.next = (cb.next + 1) % len(cb.outcomes)
	if cb.count < len(cb.outcomes) {
		cb.count++
	}

	open, rate, _ := cb.state()
	flipped := open != cb.wasOpen
	cb.wasOpen = open
	fn := cb.onStateChange

	cb.mu.Unlock()

	if flipped {
		logger.WithFields(logger.Fields{
			"open":         open,
			"failure_rate": rate,
		}).Warn("circuit breaker state changed")
		SetCircuitOpen(open)
		if fn != nil {
			fn(open, rate)
		}
	}
}

// Open reports whether the breaker currently blocks ingestion.
func (cb *CircuitBreaker) Open() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	open, _, _ := cb.state()
	return open
}

// FailureRate returns the rolling failure rate and the number of live
// samples behind it.
func (cb *CircuitBreaker) FailureRate() (float64, int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	_, rate, samples := cb.state()
	return rate, samples
}

// Reset empties the window. Clearing the webhook log implies resetting the
// rolling statistics derived from it.
func (cb *CircuitBreaker) Reset() {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	cb.count = 0
	cb.next = 0
	cb.wasOpen = false
	SetCircuitOpen(false)
}

// Allow implements the pipeline gate.
func (cb *CircuitBreaker) Allow() error {
	if cb.Open() {
		return pipeline.ErrCircuitOpen
	}
	return nil
}

// state computes (open, failureRate, samples) from the window, ignoring
// samples older than the TTL. Called with the mutex held.
func (cb *CircuitBreaker) state() (bool, float64, int) {
	cutoff := cb.now().Add(-cb.ttl)

	failed, live := 0, 0
	for i := 0; i < cb.count; i++ {
		if cb.outcomes[i].at.Before(cutoff) {
			continue
		}
		live++
		if cb.outcomes[i].failed {
			failed++
		}
	}
	if live == 0 {
		return false, 0, 0
	}
	rate := float64(failed) / float64(live)

	if live < cb.minSamples {
		return false, rate, live
	}
	return rate >= cb.threshold, rate, live
}
