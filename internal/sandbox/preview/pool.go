package preview

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	ErrPoolClosed = errors.New("preview pool is closed")
	ErrBusy       = errors.New("all preview slots are busy")
)

// Pool bounds how many previews run at once. Pages are never reused between
// previews, so it hands out slots rather than sessions.
type Pool struct {
	slots   chan struct{}
	size    int
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
}

// PoolStats is a point-in-time view of a Pool.
type PoolStats struct {
	Size   int  `json:"size"`
	InUse  int  `json:"in_use"`
	Closed bool `json:"closed"`
}

// NewPool creates a pool of size slots. Acquire waits at most timeout.
func NewPool(size int, timeout time.Duration) *Pool {
	if size <= 0 {
		size = 4
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Pool{
		slots:   make(chan struct{}, size),
		size:    size,
		timeout: timeout,
	}
}

// Acquire takes a slot and returns the func that gives it back. The release
// func is safe to call more than once.
func (p *Pool) Acquire(ctx context.Context) (func(), error) {
	p.mu.RLock()
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return nil, ErrPoolClosed
	}

	timer := time.NewTimer(p.timeout)
	defer timer.Stop()

	select {
	case p.slots <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-p.slots }) }, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrBusy
	}
}

// Close refuses further acquisitions. Previews already running finish.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
}

// Stats returns pool statistics.
func (p *Pool) Stats() PoolStats {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return PoolStats{Size: p.size, InUse: len(p.slots), Closed: p.closed}
}
