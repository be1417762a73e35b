package pacing

import (
	"context"
	"sync"
	"time"
)

// Pacer defines the interface for spacing out API calls
type Pacer interface {
	// Wait blocks for the pause owed after a call, or until ctx is done
	Wait(ctx context.Context) error
	// Waits returns how many pauses have completed
	Waits() int
}

// FixedDelay pauses for the same duration after every call
type FixedDelay struct {
	delay time.Duration
	mu    sync.Mutex
	waits int
	total time.Duration
}

// NewFixedDelay creates a pacer that pauses for delay. A non-positive delay
// makes Wait return immediately.
func NewFixedDelay(delay time.Duration) *FixedDelay {
	if delay < 0 {
		delay = 0
	}
	return &FixedDelay{delay: delay}
}

// Delay returns the configured pause
func (f *FixedDelay) Delay() time.Duration {
	return f.delay
}

// Wait pauses for the configured delay
func (f *FixedDelay) Wait(ctx context.Context) error {
	if err := sleep(ctx, f.delay); err != nil {
		return err
	}

	f.mu.Lock()
	f.waits++
	f.total += f.delay
	f.mu.Unlock()
	return nil
}

// Waits returns how many pauses have completed
func (f *FixedDelay) Waits() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.waits
}

// Total returns the accumulated pause time
func (f *FixedDelay) Total() time.Duration {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.total
}

// NoDelay never pauses. It still honours cancellation.
type NoDelay struct {
	mu    sync.Mutex
	waits int
}

// Wait returns ctx.Err() without pausing
func (n *NoDelay) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.mu.Lock()
	n.waits++
	n.mu.Unlock()
	return nil
}

// Waits returns how many calls to Wait succeeded
func (n *NoDelay) Waits() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.waits
}

// sleep waits for d or until ctx is done
func sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
