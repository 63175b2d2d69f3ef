package supabase

import (
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"sync"
	"time"
)

// RetryConfig controls retry behavior for transient failures.
type RetryConfig struct {
	MaxRetries           int
	InitialBackoff       time.Duration
	MaxBackoff           time.Duration
	BackoffMultiplier    float64
	Jitter               float64
	RetryableStatusCodes []int
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:           3,
		InitialBackoff:       100 * time.Millisecond,
		MaxBackoff:           10 * time.Second,
		BackoffMultiplier:    2.0,
		Jitter:               0.1,
		RetryableStatusCodes: []int{429, 500, 502, 503, 504},
	}
}

func (c RetryConfig) retryable(status int) bool {
	for _, s := range c.RetryableStatusCodes {
		if s == status {
			return true
		}
	}
	return false
}

func (c RetryConfig) backoff(attempt int) time.Duration {
	d := float64(c.InitialBackoff)
	for i := 0; i < attempt; i++ {
		d *= c.BackoffMultiplier
	}
	if d > float64(c.MaxBackoff) {
		d = float64(c.MaxBackoff)
	}
	if c.Jitter > 0 {
		d += d * c.Jitter * (rand.Float64()*2 - 1)
	}
	return time.Duration(d)
}

// CircuitState is the circuit breaker state.
type CircuitState int

const (
	CircuitClosed CircuitState = iota
	CircuitOpen
	CircuitHalfOpen
)

func (s CircuitState) String() string {
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

// ErrCircuitOpen is returned when the breaker rejects a request.
var ErrCircuitOpen = errors.New("supabase: circuit breaker open")

// CircuitBreakerConfig controls breaker thresholds.
type CircuitBreakerConfig struct {
	// FailureThreshold is consecutive failures before the circuit opens.
	FailureThreshold int
	// SuccessThreshold is consecutive half-open successes before it closes.
	SuccessThreshold int
	// Timeout is how long the circuit stays open before probing.
	Timeout time.Duration
	// OnStateChange is called after each transition, outside the lock.
	OnStateChange func(from, to CircuitState)
}

// DefaultCircuitBreakerConfig returns sensible breaker defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		SuccessThreshold: 2,
		Timeout:          30 * time.Second,
	}
}

// CircuitBreaker sheds load after repeated backend failures.
type CircuitBreaker struct {
	mu        sync.Mutex
	config    CircuitBreakerConfig
	state     CircuitState
	failures  int
	successes int
	openedAt  time.Time
}

// NewCircuitBreaker creates a closed breaker.
func NewCircuitBreaker(cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 2
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &CircuitBreaker{config: cfg}
}

// Allow reports whether a request may proceed. An open circuit moves to
// half-open after the timeout and lets one probe through.
func (cb *CircuitBreaker) Allow() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitClosed, CircuitHalfOpen:
		return true
	case CircuitOpen:
		if time.Since(cb.openedAt) >= cb.config.Timeout {
			cb.transition(CircuitHalfOpen)
			return true
		}
		return false
	}
	return false
}

// RecordSuccess records a successful request.
func (cb *CircuitBreaker) RecordSuccess() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitHalfOpen:
		cb.successes++
		if cb.successes >= cb.config.SuccessThreshold {
			cb.transition(CircuitClosed)
		}
	case CircuitClosed:
		cb.failures = 0
	}
}

// RecordFailure records a failed request.
func (cb *CircuitBreaker) RecordFailure() {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitHalfOpen:
		cb.transition(CircuitOpen)
	case CircuitClosed:
		cb.failures++
		if cb.failures >= cb.config.FailureThreshold {
			cb.transition(CircuitOpen)
		}
	}
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.state
}

// transition must be called with the lock held.
func (cb *CircuitBreaker) transition(to CircuitState) {
	from := cb.state
	cb.state = to
	cb.failures = 0
	cb.successes = 0
	if to == CircuitOpen {
		cb.openedAt = time.Now()
	}
	if cb.config.OnStateChange != nil && from != to {
		go cb.config.OnStateChange(from, to)
	}
}

// ResilientDoer wraps a Doer with retries and a circuit breaker.
type ResilientDoer struct {
	inner   Doer
	retry   RetryConfig
	breaker *CircuitBreaker
}

// NewResilientDoer wraps inner with retry and breaker policies.
func NewResilientDoer(inner Doer, retry RetryConfig, breaker *CircuitBreaker) *ResilientDoer {
	if inner == nil {
		inner = &http.Client{Timeout: 30 * time.Second}
	}
	if breaker == nil {
		breaker = NewCircuitBreaker(DefaultCircuitBreakerConfig())
	}
	return &ResilientDoer{inner: inner, retry: retry, breaker: breaker}
}

// Do executes the request, retrying retryable status codes with
// exponential backoff. Request bodies are replayed via GetBody.
func (d *ResilientDoer) Do(req *http.Request) (*http.Response, error) {
	if !d.breaker.Allow() {
		return nil, ErrCircuitOpen
	}

	var lastErr error
	for attempt := 0; attempt <= d.retry.MaxRetries; attempt++ {
		if attempt > 0 {
			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					return nil, fmt.Errorf("supabase: rewind request body: %w", err)
				}
				req.Body = body
			}
			select {
			case <-req.Context().Done():
				return nil, req.Context().Err()
			case <-time.After(d.retry.backoff(attempt - 1)):
			}
		}

		resp, err := d.inner.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if d.retry.retryable(resp.StatusCode) && attempt < d.retry.MaxRetries {
			resp.Body.Close()
			lastErr = fmt.Errorf("supabase: status %d", resp.StatusCode)
			continue
		}

		if resp.StatusCode >= 500 {
			d.breaker.RecordFailure()
		} else {
			d.breaker.RecordSuccess()
		}
		return resp, nil
	}

	d.breaker.RecordFailure()
	return nil, fmt.Errorf("supabase: retries exhausted: %w", lastErr)
}
