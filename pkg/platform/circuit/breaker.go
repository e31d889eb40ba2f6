// Package circuit stops calling a dependency that keeps failing.
package circuit

import (
	"errors"
	"sync"
	"time"
)

// ErrOpen is returned by Allow while the circuit is open.
var ErrOpen = errors.New("circuit open")

// State represents the circuit breaker state.
type State int

const (
	// StateClosed lets every call through.
	StateClosed State = iota
	// StateOpen rejects calls until the cooldown has passed.
	StateOpen
	// StateHalfOpen lets a single trial call through; its outcome decides
	// whether the circuit closes or opens for another cooldown.
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half_open"
	default:
		return "closed"
	}
}

// Breaker opens after FailureThreshold consecutive failures.
type Breaker struct {
	mu        sync.Mutex
	name      string
	state     State
	failures  int
	openedAt  time.Time
	trialAt   time.Time // admission of the half-open trial call; zero when none
	threshold int
	cooldown  time.Duration
	now       func() time.Time
	onChange  func(name string, from, to State)
}

// Option configures a Breaker instance.
type Option func(*Breaker)

// WithFailureThreshold sets the consecutive failures that open the circuit.
// Default is 5.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.threshold = n
		}
	}
}

// WithCooldown sets how long the circuit stays open. Default is 30s.
func WithCooldown(d time.Duration) Option {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(b *Breaker) {
		b.now = now
	}
}

// WithStateChange registers fn to run on every transition. It runs with the
// breaker locked and must not call back into it.
func WithStateChange(fn func(name string, from, to State)) Option {
	return func(b *Breaker) {
		b.onChange = fn
	}
}

// New creates a closed circuit breaker.
func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:      name,
		state:     StateClosed,
		threshold: 5,
		cooldown:  30 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

// State returns the current state. An open circuit whose cooldown has passed
// reports half-open.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expireLocked()
	return b.state
}

// Allow reports whether a call may proceed. Half-open admits one trial call
// and rejects the rest until it is recorded. A trial never recorded, e.g. a
// cancelled call, gives up its slot after another cooldown.
func (b *Breaker) Allow() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.expireLocked()
	switch b.state {
	case StateOpen:
		return ErrOpen
	case StateHalfOpen:
		now := b.now()
		if !b.trialAt.IsZero() && now.Sub(b.trialAt) < b.cooldown {
			return ErrOpen
		}
		b.trialAt = now
	}
	return nil
}

// RecordFailure counts a failed call.
func (b *Breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	switch b.state {
	case StateHalfOpen:
		b.openLocked()
	case StateClosed:
		if b.failures >= b.threshold {
			b.openLocked()
		}
	}
}

// RecordSuccess closes the circuit and clears the failure count.
func (b *Breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.trialAt = time.Time{}
	b.setLocked(StateClosed)
}

// Reset closes the circuit with zero counts.
func (b *Breaker) Reset() {
	b.RecordSuccess()
}

func (b *Breaker) openLocked() {
	b.openedAt = b.now()
	b.trialAt = time.Time{}
	b.setLocked(StateOpen)
}

func (b *Breaker) expireLocked() {
	if b.state == StateOpen && b.now().Sub(b.openedAt) >= b.cooldown {
		b.setLocked(StateHalfOpen)
	}
}

func (b *Breaker) setLocked(to State) {
	from := b.state
	if from == to {
		return
	}
	b.state = to
	if b.onChange != nil {
		b.onChange(b.name, from, to)
	}
}
