package ratelimit

import (
	"math"
	"sync"
	"time"

	apperrors "github.com/solarity-seb/solarity-acres-courses/pkg/errors"
)

// Result reports the outcome of an admission check.
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter int // seconds; set only when denied
}

type entry struct {
	count     int
	resetTime time.Time
}

// Limiter is a fixed-window request counter keyed by (class, identifier).
// Fixed window on purpose: the identity layer treats rate limiting as an
// abuse deterrent, not precise QoS, so sub-window bursts are not
// distinguished.
type Limiter struct {
	mu      sync.Mutex
	entries map[string]*entry
	classes map[Class]ClassConfig

	// nowFunc is swappable in tests.
	nowFunc func() time.Time
}

// NewLimiter creates a limiter over the given class table.
func NewLimiter(classes map[Class]ClassConfig) *Limiter {
	return &Limiter{
		entries: make(map[string]*entry),
		classes: classes,
		nowFunc: time.Now,
	}
}

// ValidateClass reports whether the class exists in the table. Callers wire
// this into startup so a typo fails the process, never a request.
func (l *Limiter) ValidateClass(class Class) error {
	if _, ok := l.classes[class]; !ok {
		return apperrors.Wrap(apperrors.ErrUnknownRateClass, string(class))
	}
	return nil
}

// Check admits or denies one request for the identifier under the class.
// Concurrent checks on the same key are serialized; two near-simultaneous
// requests cannot both take the last admission slot.
func (l *Limiter) Check(identifier string, class Class) Result {
	cfg, ok := l.classes[class]
	if !ok {
		// Unknown classes are rejected at startup via ValidateClass; a
		// hit here means the limiter was bypassed during wiring. Deny.
		return Result{Allowed: false, RetryAfter: 60}
	}

	key := string(class) + ":" + identifier
	now := l.nowFunc()

	l.mu.Lock()
	defer l.mu.Unlock()

	e, exists := l.entries[key]
	if !exists {
		e = &entry{count: 1, resetTime: now.Add(cfg.Window)}
		l.entries[key] = e
		return Result{
			Allowed:   true,
			Limit:     cfg.Requests,
			Remaining: cfg.Requests - 1,
			ResetAt:   e.resetTime,
		}
	}

	// Window elapsed: reset, do not carry the old count forward.
	if !now.Before(e.resetTime) {
		e.count = 1
		e.resetTime = now.Add(cfg.Window)
		return Result{
			Allowed:   true,
			Limit:     cfg.Requests,
			Remaining: cfg.Requests - 1,
			ResetAt:   e.resetTime,
		}
	}

	if e.count >= cfg.Requests {
		retry := int(math.Ceil(e.resetTime.Sub(now).Seconds()))
		if retry < 1 {
			retry = 1
		}
		return Result{
			Allowed:    false,
			Limit:      cfg.Requests,
			Remaining:  0,
			ResetAt:    e.resetTime,
			RetryAfter: retry,
		}
	}

	e.count++
	return Result{
		Allowed:   true,
		Limit:     cfg.Requests,
		Remaining: cfg.Requests - e.count,
		ResetAt:   e.resetTime,
	}
}

// Sweep removes entries whose window has elapsed. Without it the map grows
// unboundedly with unique identifiers.
func (l *Limiter) Sweep() {
	now := l.nowFunc()

	l.mu.Lock()
	defer l.mu.Unlock()

	for key, e := range l.entries {
		if !now.Before(e.resetTime) {
			delete(l.entries, key)
		}
	}
}

// StartSweeper runs Sweep on the interval until the done channel closes.
// A non-positive interval disables the sweeper; entries then only expire
// when their key is checked again.
func (l *Limiter) StartSweeper(interval time.Duration, done <-chan struct{}) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				l.Sweep()
			}
		}
	}()
}

// Len reports the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
