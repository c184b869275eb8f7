// Package pacer spaces out calls to a remote which asks for a backoff
// between them.
package pacer

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/meocloud-go/meocloud/fs"
)

// Pacer state
type Pacer struct {
	mu         sync.Mutex  // Protecting read/writes
	clock      clock.Clock // time source, a mock in tests
	lastReturn time.Time   // when the last paced call returned
	backoff    time.Duration
}

// New returns a Pacer using the wall clock
func New() *Pacer {
	return NewWithClock(clock.New())
}

// NewWithClock returns a Pacer using c as the time source
func NewWithClock(c clock.Clock) *Pacer {
	if c == nil {
		c = clock.New()
	}
	return &Pacer{clock: c}
}

// Clock returns the time source of the pacer
func (p *Pacer) Clock() clock.Clock {
	return p.clock
}

// GetBackoff returns the backoff the remote last asked for
func (p *Pacer) GetBackoff() time.Duration {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.backoff
}

// Next returns the earliest time the next call may start
func (p *Pacer) Next() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastReturn.IsZero() {
		return time.Time{}
	}
	return p.lastReturn.Add(p.backoff)
}

// Wait blocks until the backoff requested by the last call has
// elapsed since that call returned.
//
// It returns ctx.Err() if the context is cancelled first.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	next := p.Next()
	if next.IsZero() {
		return nil
	}
	sleep := next.Sub(p.clock.Now())
	if sleep <= 0 {
		return nil
	}
	fs.Debugf("pacer", "Backing off for %v", sleep)
	timer := p.clock.Timer(sleep)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done records that a paced call has returned now and that the remote
// would like backoff before the next one.
func (p *Pacer) Done(backoff time.Duration) {
	if backoff < 0 {
		backoff = 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lastReturn = p.clock.Now()
	if backoff != p.backoff {
		fs.Debugf("pacer", "Backoff set to %v", backoff)
	}
	p.backoff = backoff
}
