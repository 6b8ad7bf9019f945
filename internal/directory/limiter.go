package directory

import (
	"context"
	"sync"
	"time"
)

const (
	// DefaultRateWindow is the rolling interval over which calls are
	// counted. Provider rate limits are quoted per minute.
	DefaultRateWindow = time.Minute

	// defaultPollInterval is how long a blocked caller sleeps before
	// re-checking the window.
	defaultPollInterval = 2 * time.Second
)

// Limiter is a sliding-window rate limiter with one independent window per
// credential slot. At most limit calls are admitted per slot in any rolling
// window. Admission blocks until a slot has room; it cannot fail except by
// context cancellation.
//
// Slot selection is caller-driven: the transport round-robins across slots,
// and provider limits are per-credential, so N slots yield N times the
// single-credential throughput.
type Limiter struct {
	mu     sync.Mutex
	slots  [][]time.Time
	limit  int
	window time.Duration
	poll   time.Duration

	// now and sleep are injection points for tests.
	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewLimiter creates a limiter with the given number of credential slots
// admitting at most limit calls per slot in any rolling window.
func NewLimiter(slots, limit int, window time.Duration) *Limiter {
	if slots < 1 {
		slots = 1
	}
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = DefaultRateWindow
	}
	return &Limiter{
		slots:  make([][]time.Time, slots),
		limit:  limit,
		window: window,
		poll:   defaultPollInterval,
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Slots returns the number of credential slots.
func (l *Limiter) Slots() int {
	return len(l.slots)
}

// Admit blocks until a call is permitted on the given slot, then records
// the call. The window mutation and size check happen atomically so two
// concurrent callers cannot both observe room and both proceed.
func (l *Limiter) Admit(ctx context.Context, slot int) error {
	if slot < 0 || slot >= len(l.slots) {
		slot = 0
	}
	for {
		l.mu.Lock()
		now := l.now()
		l.prune(slot, now)
		if len(l.slots[slot]) < l.limit {
			l.slots[slot] = append(l.slots[slot], now)
			l.mu.Unlock()
			return nil
		}
		l.mu.Unlock()

		if err := l.sleep(ctx, l.poll); err != nil {
			return err
		}
	}
}

// Pending returns the number of calls currently recorded in the slot's
// window. Used for logging and tests.
func (l *Limiter) Pending(slot int) int {
	if slot < 0 || slot >= len(l.slots) {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.prune(slot, l.now())
	return len(l.slots[slot])
}

// prune drops timestamps older than the window. Caller holds the lock.
func (l *Limiter) prune(slot int, now time.Time) {
	cutoff := now.Add(-l.window)
	ts := l.slots[slot]
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.slots[slot] = append(ts[:0:0], ts[i:]...)
	}
}

// sleepContext sleeps for d or until the context is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
